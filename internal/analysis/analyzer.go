package analysis

import (
	"context"
	"errors"
	"time"

	"github.com/technosupport/arena-watch/internal/events"
	"github.com/technosupport/arena-watch/internal/media"
)

var (
	ErrTimeout            = errors.New("analysis timed out")
	ErrServiceUnavailable = errors.New("analysis service unavailable")
	ErrInvalidMedia       = errors.New("invalid media")
	ErrInternal           = errors.New("internal analysis error")
)

// Failure codes shown for each error state
const (
	CodeTimeout            = "timeout"
	CodeServiceUnavailable = "service_unavailable"
	CodeInvalidMedia       = "invalid_media"
	CodeInternal           = "internal_error"
)

// Code maps an analysis error to its display code. Unknown errors are internal.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeout):
		return CodeTimeout
	case errors.Is(err, ErrServiceUnavailable):
		return CodeServiceUnavailable
	case errors.Is(err, ErrInvalidMedia):
		return CodeInvalidMedia
	default:
		return CodeInternal
	}
}

// ErrorForCode is the inverse of Code, used when a code crosses the wire
func ErrorForCode(code string) error {
	switch code {
	case CodeTimeout:
		return ErrTimeout
	case CodeServiceUnavailable:
		return ErrServiceUnavailable
	case CodeInvalidMedia:
		return ErrInvalidMedia
	default:
		return ErrInternal
	}
}

type Media struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Type        media.Type `json:"media_type"`
	ContentType string     `json:"content_type"`
	Size        int64      `json:"size"`
	UploadedAt  time.Time  `json:"uploaded_at"`
}

type Result struct {
	Outcome     events.Kind `json:"outcome"`
	Confidence  int         `json:"confidence"`
	Details     string      `json:"details"`
	CompletedAt time.Time   `json:"completed_at"`
}

// Title is the headline shown for the outcome
func (r Result) Title() string {
	if r.Outcome == events.KindFoulPlay {
		return "Foul Play Detected"
	}
	return "No Foul Play"
}

// Analyzer is the seam where a real detection backend plugs in
type Analyzer interface {
	Analyze(ctx context.Context, m Media) (Result, error)
}

func checkMedia(m Media) error {
	if m.Type != media.TypeImage && m.Type != media.TypeVideo {
		return ErrInvalidMedia
	}
	return nil
}
