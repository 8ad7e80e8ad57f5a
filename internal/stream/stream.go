package stream

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/technosupport/arena-watch/internal/events"
	"github.com/technosupport/arena-watch/internal/metrics"
	"github.com/technosupport/arena-watch/internal/simulator"
)

var (
	ErrAlreadyStarted  = errors.New("stream already started")
	ErrUnknownCategory = errors.New("unknown event category")
	ErrInvalidEvent    = errors.New("invalid event")
)

const (
	sinkTimeout = 2 * time.Second
	// DefaultSinkQueue bounds events waiting for sink delivery while running
	DefaultSinkQueue = 256
)

type Config struct {
	NotificationInterval time.Duration
	IncidentInterval     time.Duration
	CounterInterval      time.Duration
	BlinkInterval        time.Duration

	NotificationCap int
	IncidentCap     int
	AnalysisCap     int

	Bulls        simulator.WalkConfig
	Participants simulator.WalkConfig
	Schedule     []simulator.Step

	SeedIncidents bool
}

func DefaultConfig() Config {
	return Config{
		NotificationInterval: 20 * time.Second,
		IncidentInterval:     15 * time.Second,
		CounterInterval:      8 * time.Second,
		BlinkInterval:        time.Second,
		NotificationCap:      events.DefaultCapacity,
		IncidentCap:          events.DefaultCapacity,
		AnalysisCap:          events.DefaultCapacity,
		Bulls:                simulator.DefaultBullWalk,
		Participants:         simulator.DefaultParticipantWalk,
		Schedule:             simulator.DefaultSchedule,
		SeedIncidents:        true,
	}
}

// Sink receives every event after it has been applied to the stream
type Sink interface {
	Name() string
	Deliver(ctx context.Context, e events.Event) error
}

// EscalationPolicy decides whether a foul-play analysis also raises an
// alert notification
type EscalationPolicy interface {
	Escalate(ctx context.Context, confidence int) bool
}

type Option func(*Stream)

func WithSinks(sinks ...Sink) Option {
	return func(s *Stream) { s.sinks = append(s.sinks, sinks...) }
}

func WithEscalation(p EscalationPolicy) Option {
	return func(s *Stream) { s.escalation = p }
}

func WithClock(now func() time.Time) Option {
	return func(s *Stream) { s.now = now }
}

// Snapshot is the dashboard view of the stream at one instant
type Snapshot struct {
	BullCount        int                     `json:"bull_count"`
	ParticipantCount int                     `json:"participant_count"`
	RiskLevel        simulator.RiskLevel     `json:"risk_level"`
	CurrentAlert     events.Event            `json:"current_alert"`
	Recording        bool                    `json:"recording"`
	Feeds            []simulator.Feed        `json:"feeds"`
	LogLengths       map[events.Category]int `json:"log_lengths"`
	Running          bool                    `json:"running"`
}

// Stream owns all simulated dashboard state. Timers are started by Start
// and fully released by Stop.
type Stream struct {
	cfg        Config
	gen        *simulator.Generator
	now        func() time.Time
	sinks      []Sink
	escalation EscalationPolicy
	hub        *Hub

	mu           sync.Mutex
	logs         map[events.Category]*events.Log
	schedule     *simulator.Schedule
	current      events.Event
	currentStep  simulator.Step
	bulls        *simulator.Walk
	participants *simulator.Walk
	risk         simulator.RiskLevel
	recording    bool
	feeds        []simulator.Feed
	queue        chan events.Event // nil unless running

	lifeMu  sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	sinkWG  sync.WaitGroup
	running bool
	run     uint64
}

func New(cfg Config, gen *simulator.Generator, opts ...Option) *Stream {
	def := DefaultConfig()
	if cfg.Schedule == nil {
		cfg.Schedule = def.Schedule
	}
	if cfg.Bulls == (simulator.WalkConfig{}) {
		cfg.Bulls = def.Bulls
	}
	if cfg.Participants == (simulator.WalkConfig{}) {
		cfg.Participants = def.Participants
	}

	s := &Stream{
		cfg: cfg,
		gen: gen,
		now: time.Now,
		hub: NewHub(),
		logs: map[events.Category]*events.Log{
			events.CategoryNotification: events.NewLog(cfg.NotificationCap),
			events.CategoryIncident:     events.NewLog(cfg.IncidentCap),
			events.CategoryAnalysis:     events.NewLog(cfg.AnalysisCap),
		},
		schedule:     simulator.NewSchedule(cfg.Schedule),
		bulls:        simulator.NewWalk(cfg.Bulls),
		participants: simulator.NewWalk(cfg.Participants),
		risk:         simulator.RiskLow,
		recording:    true,
		feeds:        simulator.DefaultFeeds(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if cfg.SeedIncidents {
		for _, e := range SeedIncidents(gen.Sequence(), s.now()) {
			s.logs[events.CategoryIncident].Push(e)
		}
	}
	s.advanceAlert()
	return s
}

// Start arms every timer and the sink dispatcher. The stream keeps running
// until Stop or ctx is done; either way subscribers are closed.
func (s *Stream) Start(ctx context.Context) error {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()

	if s.running {
		return ErrAlreadyStarted
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true
	s.run++
	run := s.run

	if len(s.sinks) > 0 {
		q := make(chan events.Event, DefaultSinkQueue)
		s.mu.Lock()
		s.queue = q
		s.mu.Unlock()
		s.sinkWG.Add(1)
		go s.dispatch(q)
	}

	s.every(ctx, s.cfg.NotificationInterval, func() { s.Tick(events.CategoryNotification) })
	s.every(ctx, s.cfg.IncidentInterval, func() { s.Tick(events.CategoryIncident) })
	s.every(ctx, s.cfg.CounterInterval, s.StepCounters)
	s.every(ctx, s.cfg.BlinkInterval, s.Blink)

	s.wg.Add(1)
	go s.runSchedule(ctx)

	go func() {
		<-ctx.Done()
		s.stopRun(run)
	}()

	log.Printf("[Stream] Started (notifications=%v incidents=%v counters=%v blink=%v)",
		s.cfg.NotificationInterval, s.cfg.IncidentInterval, s.cfg.CounterInterval, s.cfg.BlinkInterval)
	return nil
}

// Stop cancels every timer, waits for them to exit, drains queued sink
// deliveries and disconnects subscribers. Safe to call more than once.
func (s *Stream) Stop() {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()
	s.stopLocked()
}

// stopRun stops the stream only if it is still the run that was started
// with this id. A later Start owns its own run.
func (s *Stream) stopRun(run uint64) {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()
	if s.run == run {
		s.stopLocked()
	}
}

func (s *Stream) stopLocked() {
	if !s.running {
		return
	}
	s.cancel()
	s.wg.Wait()

	s.mu.Lock()
	q := s.queue
	s.queue = nil
	s.mu.Unlock()
	if q != nil {
		close(q)
		s.sinkWG.Wait()
	}

	s.running = false
	s.hub.CloseAll()
	log.Printf("[Stream] Stopped")
}

func (s *Stream) Running() bool {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()
	return s.running
}

func (s *Stream) every(ctx context.Context, d time.Duration, fn func()) {
	if d <= 0 {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(d)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
}

// runSchedule re-arms one timer per step using that step's own duration
func (s *Stream) runSchedule(ctx context.Context) {
	defer s.wg.Done()

	// The current alert is already in place, so the first wait is its own slot.
	s.mu.Lock()
	wait := s.currentStep.Duration
	s.mu.Unlock()
	timer := time.NewTimer(wait)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			step := s.advanceAlert()
			timer.Reset(step.Duration)
		}
	}
}

// advanceAlert replaces the current alert with the next schedule step
func (s *Stream) advanceAlert() simulator.Step {
	s.mu.Lock()
	step := s.schedule.Advance()
	s.currentStep = step
	s.current = events.Event{
		ID:        s.gen.Sequence().Next(),
		Category:  events.CategoryAlert,
		Kind:      step.Kind,
		Message:   step.Message,
		CreatedAt: s.now(),
	}
	e := s.current
	direct := s.publishLocked(e)
	s.mu.Unlock()

	metrics.RecordGenerated(string(events.CategoryAlert), 1)
	if direct {
		s.deliver(e)
	}
	return step
}

// Tick produces one event for the category and applies it
func (s *Stream) Tick(c events.Category) (events.Event, error) {
	switch c {
	case events.CategoryAlert:
		s.advanceAlert()
		return s.Current(), nil
	case events.CategoryNotification, events.CategoryIncident, events.CategoryAnalysis:
		e, err := s.gen.Tick(c)
		if err != nil {
			return events.Event{}, err
		}
		s.insert(e)
		return e, nil
	default:
		return events.Event{}, fmt.Errorf("%w: %s", ErrUnknownCategory, c)
	}
}

// Record inserts an externally produced event, such as a finished analysis.
// Missing ids and timestamps are filled in.
func (s *Stream) Record(ctx context.Context, e events.Event) (events.Event, error) {
	if _, ok := s.logs[e.Category]; !ok {
		return events.Event{}, fmt.Errorf("%w: no log for category %q", ErrInvalidEvent, e.Category)
	}
	if !events.ValidKind(e.Category, e.Kind) {
		return events.Event{}, fmt.Errorf("%w: kind %q not valid for %q", ErrInvalidEvent, e.Kind, e.Category)
	}
	if e.ID == 0 {
		e.ID = s.gen.Sequence().Next()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}
	s.insert(e)

	if e.Category == events.CategoryAnalysis && e.Kind == events.KindFoulPlay {
		s.maybeEscalate(ctx, e)
	}
	return e, nil
}

func (s *Stream) maybeEscalate(ctx context.Context, e events.Event) {
	if s.escalation == nil || e.Confidence == nil {
		return
	}
	if !s.escalation.Escalate(ctx, *e.Confidence) {
		return
	}
	msg := e.Message
	if e.Source != "" {
		msg = fmt.Sprintf("%s: %s", e.Source, e.Message)
	}
	s.insert(events.Event{
		ID:         s.gen.Sequence().Next(),
		Category:   events.CategoryNotification,
		Kind:       events.KindAlert,
		Title:      "Foul Play Detected in Upload",
		Message:    msg,
		Source:     e.Source,
		Confidence: e.Confidence,
		CreatedAt:  s.now(),
	})
}

func (s *Stream) insert(e events.Event) {
	s.mu.Lock()
	l := s.logs[e.Category]
	evicted := l.Push(e)
	n := l.Len()
	direct := s.publishLocked(e)
	s.mu.Unlock()

	metrics.RecordGenerated(string(e.Category), n)
	metrics.RecordEvicted(string(e.Category), len(evicted))
	if direct {
		s.deliver(e)
	}
}

// publishLocked broadcasts e and queues it for the sinks, so both see
// events in log order. Caller holds s.mu. It reports true when the stream
// is not running and the caller must deliver to the sinks itself.
func (s *Stream) publishLocked(e events.Event) bool {
	s.hub.Broadcast(e)
	if len(s.sinks) == 0 {
		return false
	}
	if s.queue == nil {
		return true
	}
	select {
	case s.queue <- e:
	default:
		metrics.SinkDropsTotal.Inc()
		log.Printf("[Stream] Sink queue full, dropping event %d", e.ID)
	}
	return false
}

// dispatch delivers queued events until q is closed
func (s *Stream) dispatch(q <-chan events.Event) {
	defer s.sinkWG.Done()
	for e := range q {
		s.deliver(e)
	}
}

func (s *Stream) deliver(e events.Event) {
	for _, sink := range s.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
		if err := sink.Deliver(ctx, e); err != nil {
			metrics.SinkErrorsTotal.WithLabelValues(sink.Name()).Inc()
			log.Printf("[ERROR] Stream: sink %s failed for event %d: %v", sink.Name(), e.ID, err)
		}
		cancel()
	}
}

// Dismiss removes one event; absent ids and categories without a log are a no-op
func (s *Stream) Dismiss(c events.Category, id uint64) bool {
	s.mu.Lock()
	l, ok := s.logs[c]
	if !ok {
		s.mu.Unlock()
		return false
	}
	removed := l.Remove(id)
	n := l.Len()
	s.mu.Unlock()

	if removed {
		metrics.RecordDismissed(string(c), n)
	}
	return removed
}

// DismissAny removes the id from whichever log holds it
func (s *Stream) DismissAny(id uint64) bool {
	for _, c := range events.Categories {
		if s.Dismiss(c, id) {
			return true
		}
	}
	return false
}

// Events returns the log for c, newest first. Alert returns the current slot.
func (s *Stream) Events(c events.Category) ([]events.Event, error) {
	if c == events.CategoryAlert {
		return []events.Event{s.Current()}, nil
	}
	s.mu.Lock()
	l, ok := s.logs[c]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCategory, c)
	}
	return l.Items(), nil
}

func (s *Stream) Current() events.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// StepCounters advances both live counters and resamples the risk level
func (s *Stream) StepCounters() {
	s.mu.Lock()
	bulls := s.bulls.Next(s.gen.Intn)
	participants := s.participants.Next(s.gen.Intn)
	s.risk = simulator.SampleRisk(s.gen.Intn)
	s.mu.Unlock()

	metrics.SetCounters(bulls, participants)
}

// Blink toggles the recording indicator shown on every active feed
func (s *Stream) Blink() {
	s.mu.Lock()
	s.recording = !s.recording
	s.mu.Unlock()
}

func (s *Stream) Feeds() []simulator.Feed {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]simulator.Feed, len(s.feeds))
	copy(out, s.feeds)
	return out
}

func (s *Stream) Snapshot() Snapshot {
	running := s.Running()

	s.mu.Lock()
	defer s.mu.Unlock()

	lengths := make(map[events.Category]int, len(s.logs))
	for c, l := range s.logs {
		lengths[c] = l.Len()
	}
	feeds := make([]simulator.Feed, len(s.feeds))
	copy(feeds, s.feeds)

	return Snapshot{
		BullCount:        s.bulls.Value(),
		ParticipantCount: s.participants.Value(),
		RiskLevel:        s.risk,
		CurrentAlert:     s.current,
		Recording:        s.recording,
		Feeds:            feeds,
		LogLengths:       lengths,
		Running:          running,
	}
}

// Subscribe returns a feed of new events. The cancel func must be called.
func (s *Stream) Subscribe(buffer int) (<-chan events.Event, func()) {
	return s.hub.Subscribe(buffer)
}
