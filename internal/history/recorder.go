package history

import (
	"context"
	"fmt"

	"github.com/technosupport/arena-watch/internal/events"
	"github.com/technosupport/arena-watch/internal/media"
)

// Recorder is a stream sink that archives violations and upload analyses.
// Safe incidents, alert steps and notifications are not archived.
type Recorder struct {
	store Store
}

func NewRecorder(s Store) *Recorder {
	return &Recorder{store: s}
}

func (r *Recorder) Name() string { return "history" }

func (r *Recorder) Deliver(ctx context.Context, e events.Event) error {
	it, ok := FromEvent(e)
	if !ok {
		return nil
	}
	return r.store.Add(ctx, it)
}

// FromEvent maps an event to its archive entry, if it has one
func FromEvent(e events.Event) (Item, bool) {
	base := Item{
		ID:         fmt.Sprintf("evt-%d", e.ID),
		Timestamp:  e.CreatedAt,
		Camera:     e.Camera,
		Confidence: e.Confidence,
	}

	switch {
	case e.Category == events.CategoryIncident && e.Kind == events.KindViolation:
		base.Type = TypeAlert
		base.Status = StatusFoulPlay
		base.Title = "Foul Play Detected"
		base.Description = e.Message
		return base, true

	case e.Category == events.CategoryAnalysis:
		base.Type = TypeUpload
		base.Status = StatusSafe
		if e.Kind == events.KindFoulPlay {
			base.Status = StatusFoulPlay
		}
		base.Title = "Media Analysis Complete"

		noun := "media"
		if t, ok := eventMediaType(e); ok {
			base.MediaType = t
			noun = string(t)
		}
		base.Description = fmt.Sprintf("Uploaded %s analyzed - %s", noun, e.Message)
		return base, true
	}
	return Item{}, false
}

// eventMediaType trusts the validated type on the event and only falls
// back to the file extension for events that lack one.
func eventMediaType(e events.Event) (media.Type, bool) {
	switch t := media.Type(e.MediaType); t {
	case media.TypeImage, media.TypeVideo:
		return t, true
	}
	return media.TypeFromName(e.Source)
}
