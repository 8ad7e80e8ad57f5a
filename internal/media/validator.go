package media

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

// SniffLen is how many leading bytes DetectContentType looks at
const SniffLen = 512

const DefaultMaxSize int64 = 100 << 20

type Type string

// videoExts covers containers the builtin mime table does not know
var videoExts = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".avi":  "video/x-msvideo",
	".mkv":  "video/x-matroska",
}

const (
	TypeImage Type = "image"
	TypeVideo Type = "video"
)

var (
	ErrEmpty       = errors.New("media is empty")
	ErrTooLarge    = errors.New("media exceeds max size")
	ErrUnsupported = errors.New("media is neither image nor video")
)

// Info is what validation learned about an upload
type Info struct {
	Type        Type   `json:"media_type"`
	ContentType string `json:"content_type"`
}

type Validator struct {
	MaxSize int64
}

func NewValidator(maxSize int64) *Validator {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Validator{MaxSize: maxSize}
}

// Validate classifies an upload. The declared content type wins when it is
// image/* or video/*; otherwise the file extension and then the sniffed head
// are tried.
func (v *Validator) Validate(name, declared string, head []byte, size int64) (Info, error) {
	if size <= 0 {
		return Info{}, ErrEmpty
	}
	if v.MaxSize > 0 && size > v.MaxSize {
		return Info{}, fmt.Errorf("%w: %d > %d bytes", ErrTooLarge, size, v.MaxSize)
	}

	candidates := []string{declared}
	if ext := filepath.Ext(name); ext != "" {
		candidates = append(candidates, typeByExtension(ext))
	}
	if len(head) > SniffLen {
		head = head[:SniffLen]
	}
	if len(head) > 0 {
		candidates = append(candidates, http.DetectContentType(head))
	}

	for _, ct := range candidates {
		if t, ok := classify(ct); ok {
			return Info{Type: t, ContentType: baseType(ct)}, nil
		}
	}
	return Info{}, fmt.Errorf("%w: %q", ErrUnsupported, declared)
}

// TypeFromName guesses the media type from a file extension alone
func TypeFromName(name string) (Type, bool) {
	ext := filepath.Ext(name)
	if ext == "" {
		return "", false
	}
	return classify(typeByExtension(ext))
}

func typeByExtension(ext string) string {
	ext = strings.ToLower(ext)
	if ct, ok := videoExts[ext]; ok {
		return ct
	}
	return mime.TypeByExtension(ext)
}

func classify(contentType string) (Type, bool) {
	ct := baseType(contentType)
	switch {
	case strings.HasPrefix(ct, "image/"):
		return TypeImage, true
	case strings.HasPrefix(ct, "video/"):
		return TypeVideo, true
	}
	return "", false
}

func baseType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mt
}
