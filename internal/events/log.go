package events

import "sync"

// DefaultCapacity matches the dashboard panels (notifications, incidents)
const DefaultCapacity = 10

// Log is a fixed-capacity, newest-first sequence with FIFO eviction at the tail.
type Log struct {
	mu       sync.RWMutex
	capacity int
	items    []Event // items[0] is the newest
}

func NewLog(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{
		capacity: capacity,
		items:    make([]Event, 0, capacity),
	}
}

// Push prepends e and returns whatever fell off the tail
func (l *Log) Push(e Event) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.items = append(l.items, Event{})
	copy(l.items[1:], l.items)
	l.items[0] = e

	if len(l.items) <= l.capacity {
		return nil
	}
	evicted := make([]Event, len(l.items)-l.capacity)
	copy(evicted, l.items[l.capacity:])
	l.items = l.items[:l.capacity]
	return evicted
}

// Remove deletes the event with the given id. Absent ids are a no-op.
func (l *Log) Remove(id uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.items {
		if l.items[i].ID == id {
			l.items = append(l.items[:i], l.items[i+1:]...)
			return true
		}
	}
	return false
}

func (l *Log) Get(id uint64) (Event, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, e := range l.items {
		if e.ID == id {
			return e, true
		}
	}
	return Event{}, false
}

// Items returns a copy, newest first
func (l *Log) Items() []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Event, len(l.items))
	copy(out, l.items)
	return out
}

func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

func (l *Log) Cap() int {
	return l.capacity
}
