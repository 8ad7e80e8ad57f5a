package analysis

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/technosupport/arena-watch/internal/events"
	"github.com/technosupport/arena-watch/internal/media"
	"github.com/technosupport/arena-watch/internal/metrics"
)

const (
	DefaultTimeout    = 30 * time.Second
	DefaultMaxUploads = 100
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusComplete Status = "complete"
	StatusFailed   Status = "failed"
)

// Upload is the handle returned by Submit and resolved by the analysis
type Upload struct {
	Media
	Status    Status  `json:"status"`
	Result    *Result `json:"result,omitempty"`
	ErrorCode string  `json:"error_code,omitempty"`
	Error     string  `json:"error,omitempty"`
}

// Event renders a completed upload as an analysis event
func (u Upload) Event() (events.Event, bool) {
	if u.Status != StatusComplete || u.Result == nil {
		return events.Event{}, false
	}
	return events.Event{
		Category:   events.CategoryAnalysis,
		Kind:       u.Result.Outcome,
		Title:      u.Result.Title(),
		Message:    u.Result.Details,
		Source:     u.Name,
		MediaType:  string(u.Type),
		Confidence: events.Confidence(u.Result.Confidence),
		CreatedAt:  u.Result.CompletedAt,
	}, true
}

// File describes one incoming upload. Head holds the first bytes for sniffing.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Head        []byte
}

type ServiceConfig struct {
	Timeout    time.Duration
	MaxUploads int
}

type Service struct {
	analyzer   Analyzer
	validator  *media.Validator
	timeout    time.Duration
	onComplete func(ctx context.Context, u Upload)

	mu      sync.Mutex
	uploads *lru.Cache[string, *Upload]

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type ServiceOption func(*Service)

// WithCompletion registers a callback for every successfully resolved upload
func WithCompletion(fn func(ctx context.Context, u Upload)) ServiceOption {
	return func(s *Service) { s.onComplete = fn }
}

func NewService(a Analyzer, v *media.Validator, cfg ServiceConfig, opts ...ServiceOption) (*Service, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxUploads <= 0 {
		cfg.MaxUploads = DefaultMaxUploads
	}
	if v == nil {
		v = media.NewValidator(0)
	}

	cache, err := lru.New[string, *Upload](cfg.MaxUploads)
	if err != nil {
		return nil, fmt.Errorf("upload table: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Service{
		analyzer:  a,
		validator: v,
		timeout:   cfg.Timeout,
		uploads:   cache,
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Submit validates the file, records it as pending and starts the analysis
// in the background. The returned handle is already pending.
func (s *Service) Submit(ctx context.Context, f File) (Upload, error) {
	info, err := s.validator.Validate(f.Name, f.ContentType, f.Head, f.Size)
	if err != nil {
		return Upload{}, fmt.Errorf("%w: %v", ErrInvalidMedia, err)
	}
	if err := s.ctx.Err(); err != nil {
		return Upload{}, fmt.Errorf("%w: service closed", ErrServiceUnavailable)
	}

	u := &Upload{
		Media: Media{
			ID:          uuid.New().String(),
			Name:        f.Name,
			Type:        info.Type,
			ContentType: info.ContentType,
			Size:        f.Size,
			UploadedAt:  time.Now(),
		},
		Status: StatusPending,
	}

	s.mu.Lock()
	s.uploads.Add(u.ID, u)
	snapshot := *u
	s.mu.Unlock()

	metrics.RecordSubmitted(string(info.Type))
	log.Printf("[Analysis] Submitted %s (%s, %s, %d bytes)", u.ID, u.Name, info.Type, f.Size)

	s.wg.Add(1)
	go s.run(snapshot.Media)
	return snapshot, nil
}

func (s *Service) run(m Media) {
	defer s.wg.Done()

	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	start := time.Now()
	res, err := s.analyzer.Analyze(ctx, m)
	ms := float64(time.Since(start).Milliseconds())

	if err != nil {
		code := Code(err)
		metrics.RecordFailed(code, ms)
		log.Printf("[ERROR] Analysis: %s failed (%s): %v", m.ID, code, err)
	} else {
		metrics.RecordCompleted(string(res.Outcome), ms)
	}

	s.mu.Lock()
	u, ok := s.uploads.Peek(m.ID)
	if !ok {
		s.mu.Unlock()
		log.Printf("[Analysis] %s resolved after removal, dropping result", m.ID)
		return
	}
	if err != nil {
		u.Status = StatusFailed
		u.ErrorCode = Code(err)
		u.Error = err.Error()
	} else {
		u.Status = StatusComplete
		u.Result = &res
	}
	done := *u
	s.mu.Unlock()

	if err == nil && s.onComplete != nil {
		s.onComplete(s.ctx, done)
	}
}

// Get returns the current state of an upload
func (s *Service) Get(id string) (Upload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.uploads.Peek(id)
	if !ok {
		return Upload{}, false
	}
	return *u, true
}

// List returns every tracked upload, newest first
func (s *Service) List() []Upload {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := s.uploads.Keys()
	out := make([]Upload, 0, len(keys))
	for i := len(keys) - 1; i >= 0; i-- {
		if u, ok := s.uploads.Peek(keys[i]); ok {
			out = append(out, *u)
		}
	}
	return out
}

// Remove drops an upload. A pending analysis for it finishes as a no-op.
func (s *Service) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploads.Remove(id)
}

func (s *Service) Len() int {
	return s.uploads.Len()
}

// Close cancels in-flight analyses and waits for them to finish
func (s *Service) Close() {
	s.cancel()
	s.wg.Wait()
}
