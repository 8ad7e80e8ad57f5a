package events

import (
	"sync/atomic"
	"time"
)

// Category tags which stream an Event belongs to
type Category string

const (
	CategoryAlert        Category = "alert"
	CategoryNotification Category = "notification"
	CategoryIncident     Category = "incident"
	CategoryAnalysis     Category = "analysis"
)

// Categories lists every category in display order
var Categories = []Category{CategoryAlert, CategoryNotification, CategoryIncident, CategoryAnalysis}

// Kind is the classification of an Event within its category
type Kind string

const (
	// alert
	KindSafe    Kind = "safe"
	KindWarning Kind = "warning"
	KindDanger  Kind = "danger"

	// notification
	KindAlert   Kind = "alert"
	KindSuccess Kind = "success"
	KindInfo    Kind = "info"

	// incident (also uses KindSafe)
	KindViolation Kind = "violation"

	// analysis
	KindFoulPlay   Kind = "foul_play"
	KindNoFoulPlay Kind = "no_foul_play"
)

var kindsByCategory = map[Category]map[Kind]bool{
	CategoryAlert:        {KindSafe: true, KindWarning: true, KindDanger: true},
	CategoryNotification: {KindAlert: true, KindSuccess: true, KindInfo: true},
	CategoryIncident:     {KindViolation: true, KindSafe: true},
	CategoryAnalysis:     {KindFoulPlay: true, KindNoFoulPlay: true},
}

// ValidKind reports whether kind is a legal classification for c
func ValidKind(c Category, kind Kind) bool {
	return kindsByCategory[c][kind]
}

// ParseCategory maps a path/query value to a Category
func ParseCategory(s string) (Category, bool) {
	c := Category(s)
	_, ok := kindsByCategory[c]
	return c, ok
}

type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Event is the normalized envelope shared by every category.
// Camera, Source (uploaded file name), MediaType (image or video),
// Confidence (0-100) and Severity are optional metadata.
type Event struct {
	ID         uint64    `json:"id"`
	Category   Category  `json:"category"`
	Kind       Kind      `json:"kind"`
	Title      string    `json:"title,omitempty"`
	Message    string    `json:"message"`
	Camera     string    `json:"camera,omitempty"`
	Source     string    `json:"source,omitempty"`
	MediaType  string    `json:"media_type,omitempty"`
	Confidence *int      `json:"confidence,omitempty"`
	Severity   Severity  `json:"severity,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Sequence hands out generation-ordered identifiers
type Sequence struct {
	n atomic.Uint64
}

// Next returns the next id, starting at 1
func (s *Sequence) Next() uint64 {
	return s.n.Add(1)
}

// Confidence is a small helper for building the optional pointer field
func Confidence(v int) *int {
	return &v
}
