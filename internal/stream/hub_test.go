package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/technosupport/arena-watch/internal/events"
)

func TestHub_DropsWhenFull(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe(1)
	defer cancel()

	h.Broadcast(events.Event{ID: 1})
	h.Broadcast(events.Event{ID: 2}) // dropped

	got := <-ch
	assert.Equal(t, uint64(1), got.ID)
	select {
	case e := <-ch:
		t.Fatalf("unexpected event %d", e.ID)
	default:
	}
}

func TestHub_CancelIsIdempotent(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe(0)
	assert.Equal(t, 1, h.Len())

	cancel()
	cancel()
	assert.Equal(t, 0, h.Len())

	_, open := <-ch
	assert.False(t, open)
}

func TestHub_CloseAllKeepsHubUsable(t *testing.T) {
	h := NewHub()
	_, cancelA := h.Subscribe(1)
	_, cancelB := h.Subscribe(1)
	h.CloseAll()
	assert.Equal(t, 0, h.Len())

	// cancel after CloseAll must not double-close
	assert.NotPanics(t, cancelA)
	assert.NotPanics(t, cancelB)

	ch, cancel := h.Subscribe(1)
	defer cancel()
	h.Broadcast(events.Event{ID: 7})
	assert.Equal(t, uint64(7), (<-ch).ID)
}
