package history

import (
	"strings"
	"time"

	"github.com/technosupport/arena-watch/internal/media"
)

type Type string

const (
	TypeAlert  Type = "alert"
	TypeUpload Type = "upload"
	TypeSystem Type = "system"
)

type Status string

const (
	StatusFoulPlay Status = "foul_play"
	StatusSafe     Status = "safe"
	StatusPending  Status = "pending"
)

type Item struct {
	ID          string     `json:"id"`
	Type        Type       `json:"type"`
	Status      Status     `json:"status"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Timestamp   time.Time  `json:"timestamp"`
	Camera      string     `json:"camera,omitempty"`
	MediaType   media.Type `json:"media_type,omitempty"`
	Confidence  *int       `json:"confidence,omitempty"`
}

type Filter string

const (
	FilterAll     Filter = "all"
	FilterAlerts  Filter = "alerts"
	FilterUploads Filter = "uploads"
)

// ParseFilter accepts "", all, alerts and uploads
func ParseFilter(s string) (Filter, bool) {
	switch Filter(strings.ToLower(s)) {
	case "", FilterAll:
		return FilterAll, true
	case FilterAlerts:
		return FilterAlerts, true
	case FilterUploads:
		return FilterUploads, true
	}
	return "", false
}

type Query struct {
	Filter Filter
	Search string
}

// Match applies the filter AND a case-insensitive substring search on the
// title or description.
func (q Query) Match(it Item) bool {
	switch q.Filter {
	case FilterAlerts:
		if it.Type != TypeAlert {
			return false
		}
	case FilterUploads:
		if it.Type != TypeUpload {
			return false
		}
	}

	term := strings.ToLower(q.Search)
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(it.Title), term) ||
		strings.Contains(strings.ToLower(it.Description), term)
}

func (q Query) Apply(items []Item) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if q.Match(it) {
			out = append(out, it)
		}
	}
	return out
}

// Summary mirrors the stat cards above the history list
type Summary struct {
	Total    int `json:"total"`
	FoulPlay int `json:"foul_play"`
	Safe     int `json:"safe"`
	Uploads  int `json:"uploads"`
}

func Summarize(items []Item) Summary {
	s := Summary{Total: len(items)}
	for _, it := range items {
		switch it.Status {
		case StatusFoulPlay:
			s.FoulPlay++
		case StatusSafe:
			s.Safe++
		}
		if it.Type == TypeUpload {
			s.Uploads++
		}
	}
	return s
}

func confidence(v int) *int { return &v }

// SeedItems returns the reference archive, newest first
func SeedItems(now time.Time) []Item {
	return []Item{
		{ID: "seed-1", Type: TypeAlert, Status: StatusFoulPlay, Title: "Foul Play Detected",
			Description: "Excessive force detected on bull in Main Arena",
			Timestamp:   now.Add(-30 * time.Minute), Camera: "Camera 3", Confidence: confidence(94)},
		{ID: "seed-2", Type: TypeUpload, Status: StatusSafe, Title: "Media Analysis Complete",
			Description: "Uploaded video analyzed - No violations detected",
			Timestamp:   now.Add(-1 * time.Hour), MediaType: media.TypeVideo, Confidence: confidence(87)},
		{ID: "seed-3", Type: TypeAlert, Status: StatusFoulPlay, Title: "Multiple Participants Detected",
			Description: "Multiple participants engaging with single bull",
			Timestamp:   now.Add(-2 * time.Hour), Camera: "Camera 2", Confidence: confidence(91)},
		{ID: "seed-4", Type: TypeUpload, Status: StatusFoulPlay, Title: "Media Analysis Complete",
			Description: "Uploaded image analyzed - Tail twisting behavior identified",
			Timestamp:   now.Add(-3 * time.Hour), MediaType: media.TypeImage, Confidence: confidence(89)},
		{ID: "seed-5", Type: TypeAlert, Status: StatusSafe, Title: "Normal Activity",
			Description: "All cameras showing normal activity",
			Timestamp:   now.Add(-4 * time.Hour), Camera: "All Cameras"},
		{ID: "seed-6", Type: TypeSystem, Status: StatusSafe, Title: "System Health Check",
			Description: "All systems functioning normally",
			Timestamp:   now.Add(-5 * time.Hour)},
		{ID: "seed-7", Type: TypeAlert, Status: StatusFoulPlay, Title: "Unauthorized Zone Entry",
			Description: "Participant entered restricted zone",
			Timestamp:   now.Add(-6 * time.Hour), Camera: "Camera 4", Confidence: confidence(96)},
		{ID: "seed-8", Type: TypeUpload, Status: StatusSafe, Title: "Media Analysis Complete",
			Description: "Uploaded video analyzed - Fair play standards maintained",
			Timestamp:   now.Add(-7 * time.Hour), MediaType: media.TypeVideo, Confidence: confidence(92)},
	}
}
