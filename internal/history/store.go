package history

import (
	"context"
	"sync"
)

const DefaultCap = 200

// Store keeps the archive newest first, capped
type Store interface {
	Add(ctx context.Context, it Item) error
	List(ctx context.Context) ([]Item, error)
}

type MemoryStore struct {
	mu    sync.RWMutex
	cap   int
	items []Item
}

func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultCap
	}
	return &MemoryStore{cap: capacity}
}

func (m *MemoryStore) Add(_ context.Context, it Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items = append([]Item{it}, m.items...)
	if len(m.items) > m.cap {
		m.items = m.items[:m.cap]
	}
	return nil
}

func (m *MemoryStore) List(_ context.Context) ([]Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Item, len(m.items))
	copy(out, m.items)
	return out, nil
}

// Seed loads items (newest first) into an empty store
func Seed(ctx context.Context, s Store, items []Item) error {
	existing, err := s.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	for i := len(items) - 1; i >= 0; i-- {
		if err := s.Add(ctx, items[i]); err != nil {
			return err
		}
	}
	return nil
}
