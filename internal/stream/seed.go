package stream

import (
	"time"

	"github.com/technosupport/arena-watch/internal/events"
)

type seedIncident struct {
	kind     events.Kind
	message  string
	age      time.Duration
	camera   string
	severity events.Severity
}

// oldest last, matching the panel on first load
var seedIncidents = []seedIncident{
	{events.KindSafe, "Normal activity detected", 2 * time.Minute, "Camera 1", ""},
	{events.KindViolation, "Foul play detected - Excessive force observed", 5 * time.Minute, "Camera 3", events.SeverityHigh},
	{events.KindSafe, "Normal activity detected", 8 * time.Minute, "Camera 2", ""},
	{events.KindViolation, "Unauthorized entry to restricted zone", 12 * time.Minute, "Camera 4", events.SeverityMedium},
	{events.KindSafe, "Normal activity detected", 15 * time.Minute, "Camera 1", ""},
	{events.KindViolation, "Multiple participants engaging with single bull", 20 * time.Minute, "Camera 2", events.SeverityHigh},
}

// SeedIncidents returns the reference incidents oldest first, ready to Push
func SeedIncidents(seq *events.Sequence, now time.Time) []events.Event {
	out := make([]events.Event, 0, len(seedIncidents))
	for i := len(seedIncidents) - 1; i >= 0; i-- {
		s := seedIncidents[i]
		out = append(out, events.Event{
			ID:        seq.Next(),
			Category:  events.CategoryIncident,
			Kind:      s.kind,
			Message:   s.message,
			Camera:    s.camera,
			Severity:  s.severity,
			CreatedAt: now.Add(-s.age),
		})
	}
	return out
}
