package settings

import (
	"context"
	"log"
	"sync"
)

// Service caches the active settings in front of a Store
type Service struct {
	store Store

	mu      sync.RWMutex
	current Settings
}

// NewService loads saved settings, falling back to defaults when the store
// is empty or its content no longer validates.
func NewService(ctx context.Context, store Store) (*Service, error) {
	s := &Service{store: store, current: Defaults()}

	saved, ok, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if ok {
		if verr := saved.Validate(); verr != nil {
			log.Printf("[Settings] Ignoring saved settings: %v", verr)
		} else {
			s.current = saved
		}
	}
	return s, nil
}

func (s *Service) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *Service) Update(ctx context.Context, next Settings) (Settings, error) {
	if err := next.Validate(); err != nil {
		return Settings{}, err
	}
	if err := s.store.Save(ctx, next); err != nil {
		return Settings{}, err
	}

	s.mu.Lock()
	s.current = next
	s.mu.Unlock()

	log.Printf("[Settings] Updated (alert=%s detection=%d confidence=%d push=%t)",
		next.AlertLevel, next.DetectionThreshold, next.ConfidenceThreshold, next.PushNotifications)
	return next, nil
}

func (s *Service) Reset(ctx context.Context) (Settings, error) {
	return s.Update(ctx, Defaults())
}

// Escalate reports whether a foul-play result at this confidence should
// raise an alert notification.
func (s *Service) Escalate(_ context.Context, confidence int) bool {
	cur := s.Get()
	return cur.PushNotifications && confidence >= cur.ConfidenceThreshold
}
