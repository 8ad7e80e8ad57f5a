package stream

import (
	"sync"

	"github.com/technosupport/arena-watch/internal/events"
	"github.com/technosupport/arena-watch/internal/metrics"
)

const DefaultSubscriberBuffer = 32

// Hub fans events out to live subscribers without ever blocking the producer
type Hub struct {
	mu   sync.Mutex
	subs map[uint64]chan events.Event
	next uint64
}

func NewHub() *Hub {
	return &Hub{subs: make(map[uint64]chan events.Event)}
}

func (h *Hub) Subscribe(buffer int) (<-chan events.Event, func()) {
	if buffer <= 0 {
		buffer = DefaultSubscriberBuffer
	}
	ch := make(chan events.Event, buffer)

	h.mu.Lock()
	h.next++
	id := h.next
	h.subs[id] = ch
	h.mu.Unlock()
	metrics.SubscribersActive.Inc()

	var once sync.Once
	cancel := func() {
		once.Do(func() { h.remove(id) })
	}
	return ch, cancel
}

func (h *Hub) remove(id uint64) {
	h.mu.Lock()
	ch, ok := h.subs[id]
	if ok {
		delete(h.subs, id)
		close(ch)
	}
	h.mu.Unlock()
	if ok {
		metrics.SubscribersActive.Dec()
	}
}

// Broadcast delivers e to every subscriber with room; full buffers drop it
func (h *Hub) Broadcast(e events.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subs {
		select {
		case ch <- e:
		default:
			metrics.SubscriberDropsTotal.Inc()
		}
	}
}

// CloseAll disconnects every subscriber; the hub stays usable
func (h *Hub) CloseAll() {
	h.mu.Lock()
	n := len(h.subs)
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
	h.mu.Unlock()
	metrics.SubscribersActive.Sub(float64(n))
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
