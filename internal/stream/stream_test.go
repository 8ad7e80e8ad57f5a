package stream

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/technosupport/arena-watch/internal/events"
	"github.com/technosupport/arena-watch/internal/simulator"
)

type recordingSink struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (r *recordingSink) Name() string { return "recording" }

func (r *recordingSink) Deliver(ctx context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return r.err
}

func (r *recordingSink) count(c events.Category) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Category == c {
			n++
		}
	}
	return n
}

type thresholdPolicy struct {
	threshold int
	enabled   bool
}

func (p thresholdPolicy) Escalate(ctx context.Context, confidence int) bool {
	return p.enabled && confidence >= p.threshold
}

func newTestStream(t *testing.T, cfg Config, opts ...Option) *Stream {
	t.Helper()
	gen := simulator.NewGenerator(simulator.GeneratorConfig{}, rand.New(rand.NewSource(99)), nil)
	s := New(cfg, gen, opts...)
	t.Cleanup(s.Stop)
	return s
}

func TestStream_LogsNeverExceedCap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NotificationCap = 10
	cfg.IncidentCap = 4
	cfg.AnalysisCap = 2
	s := newTestStream(t, cfg)

	for i := 0; i < 60; i++ {
		for _, c := range []events.Category{events.CategoryNotification, events.CategoryIncident, events.CategoryAnalysis} {
			_, err := s.Tick(c)
			require.NoError(t, err)
		}
		snap := s.Snapshot()
		assert.LessOrEqual(t, snap.LogLengths[events.CategoryNotification], 10)
		assert.LessOrEqual(t, snap.LogLengths[events.CategoryIncident], 4)
		assert.LessOrEqual(t, snap.LogLengths[events.CategoryAnalysis], 2)
	}
}

func TestStream_NotificationAtCapEvictsOldest(t *testing.T) {
	cfg := DefaultConfig()
	s := newTestStream(t, cfg)

	var first events.Event
	for i := 0; i < 10; i++ {
		e, err := s.Tick(events.CategoryNotification)
		require.NoError(t, err)
		if i == 0 {
			first = e
		}
	}

	newest, err := s.Tick(events.CategoryNotification)
	require.NoError(t, err)

	items, err := s.Events(events.CategoryNotification)
	require.NoError(t, err)
	assert.Len(t, items, 10)
	assert.Equal(t, newest.ID, items[0].ID)
	for _, e := range items {
		assert.NotEqual(t, first.ID, e.ID)
	}
}

func TestStream_DismissMissingIsNoop(t *testing.T) {
	s := newTestStream(t, DefaultConfig())
	e, err := s.Tick(events.CategoryNotification)
	require.NoError(t, err)

	assert.False(t, s.Dismiss(events.CategoryNotification, e.ID+1000))
	assert.False(t, s.Dismiss(events.CategoryAlert, e.ID))
	assert.False(t, s.DismissAny(123456))

	assert.True(t, s.Dismiss(events.CategoryNotification, e.ID))
	assert.False(t, s.Dismiss(events.CategoryNotification, e.ID))
}

func TestStream_DismissAnyFindsCategory(t *testing.T) {
	s := newTestStream(t, DefaultConfig())
	e, err := s.Tick(events.CategoryIncident)
	require.NoError(t, err)

	assert.True(t, s.DismissAny(e.ID))
	items, _ := s.Events(events.CategoryIncident)
	for _, it := range items {
		assert.NotEqual(t, e.ID, it.ID)
	}
}

func TestStream_SeedIncidents(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := newTestStream(t, DefaultConfig(), WithClock(func() time.Time { return now }))

	items, err := s.Events(events.CategoryIncident)
	require.NoError(t, err)
	require.Len(t, items, 6)
	assert.Equal(t, now.Add(-2*time.Minute), items[0].CreatedAt)
	assert.Equal(t, now.Add(-20*time.Minute), items[5].CreatedAt)
	assert.Equal(t, events.KindViolation, items[1].Kind)
	assert.Equal(t, events.SeverityHigh, items[1].Severity)
}

func TestStream_AlertFollowsSchedule(t *testing.T) {
	s := newTestStream(t, DefaultConfig())

	first := s.Current()
	assert.Equal(t, events.KindSafe, first.Kind)
	assert.Equal(t, "No Foul Play", first.Message)

	want := []events.Kind{events.KindWarning, events.KindSafe, events.KindDanger, events.KindSafe, events.KindSafe}
	prevID := first.ID
	for _, k := range want {
		e, err := s.Tick(events.CategoryAlert)
		require.NoError(t, err)
		assert.Equal(t, k, e.Kind)
		assert.Greater(t, e.ID, prevID, "alert slot is replaced, not merged")
		prevID = e.ID
	}

	alerts, err := s.Events(events.CategoryAlert)
	require.NoError(t, err)
	assert.Len(t, alerts, 1)
}

func TestStream_UnknownCategory(t *testing.T) {
	s := newTestStream(t, DefaultConfig())
	_, err := s.Tick(events.Category("upload"))
	assert.True(t, errors.Is(err, ErrUnknownCategory))

	_, err = s.Events(events.Category("upload"))
	assert.True(t, errors.Is(err, ErrUnknownCategory))
}

func TestStream_CountersStayInBounds(t *testing.T) {
	s := newTestStream(t, DefaultConfig())
	for i := 0; i < 1000; i++ {
		s.StepCounters()
		snap := s.Snapshot()
		require.GreaterOrEqual(t, snap.BullCount, 8)
		require.LessOrEqual(t, snap.BullCount, 15)
		require.GreaterOrEqual(t, snap.ParticipantCount, 40)
		require.LessOrEqual(t, snap.ParticipantCount, 60)
		require.Contains(t, []simulator.RiskLevel{simulator.RiskLow, simulator.RiskMedium, simulator.RiskHigh}, snap.RiskLevel)
	}
}

func TestStream_Blink(t *testing.T) {
	s := newTestStream(t, DefaultConfig())
	assert.True(t, s.Snapshot().Recording)
	s.Blink()
	assert.False(t, s.Snapshot().Recording)
	s.Blink()
	assert.True(t, s.Snapshot().Recording)
}

func TestStream_StartStopLifecycle(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NotificationInterval = 5 * time.Millisecond
	cfg.IncidentInterval = 5 * time.Millisecond
	cfg.CounterInterval = 5 * time.Millisecond
	cfg.BlinkInterval = 5 * time.Millisecond
	cfg.NotificationCap = 10000
	cfg.IncidentCap = 10000
	cfg.SeedIncidents = false
	sink := &recordingSink{}
	s := newTestStream(t, cfg, WithSinks(sink))

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.Running())
	assert.ErrorIs(t, s.Start(context.Background()), ErrAlreadyStarted)

	assert.Eventually(t, func() bool {
		return sink.count(events.CategoryNotification) > 2 && sink.count(events.CategoryIncident) > 2
	}, 2*time.Second, 5*time.Millisecond)

	s.Stop()
	assert.False(t, s.Running())
	n := sink.count(events.CategoryNotification)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, n, sink.count(events.CategoryNotification), "no ticks after Stop")

	assert.NotPanics(t, s.Stop)
}

func TestStream_ScheduleRunsOnTimers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Schedule = []simulator.Step{
		{Kind: events.KindSafe, Message: "ok", Duration: 5 * time.Millisecond},
		{Kind: events.KindDanger, Message: "bad", Duration: 5 * time.Millisecond},
	}
	sink := &recordingSink{}
	s := newTestStream(t, cfg, WithSinks(sink))
	require.NoError(t, s.Start(context.Background()))

	assert.Eventually(t, func() bool {
		return sink.count(events.CategoryAlert) >= 4
	}, 2*time.Second, 5*time.Millisecond)
}

func TestStream_StopClosesSubscribers(t *testing.T) {
	s := newTestStream(t, DefaultConfig())
	ch, cancel := s.Subscribe(4)
	defer cancel()

	require.NoError(t, s.Start(context.Background()))
	s.Stop()

	_, open := <-ch
	assert.False(t, open)
}

func TestStream_SubscribeReceivesEvents(t *testing.T) {
	s := newTestStream(t, DefaultConfig())
	ch, cancel := s.Subscribe(4)
	defer cancel()

	e, err := s.Tick(events.CategoryNotification)
	require.NoError(t, err)

	select {
	case got := <-ch:
		assert.Equal(t, e.ID, got.ID)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestStream_SinkErrorDoesNotBlock(t *testing.T) {
	bad := &recordingSink{err: errors.New("down")}
	good := &recordingSink{}
	s := newTestStream(t, DefaultConfig(), WithSinks(bad, good))

	_, err := s.Tick(events.CategoryIncident)
	require.NoError(t, err)
	assert.Equal(t, 1, good.count(events.CategoryIncident))
}

func TestStream_RecordAnalysisEscalates(t *testing.T) {
	s := newTestStream(t, DefaultConfig(), WithEscalation(thresholdPolicy{threshold: 80, enabled: true}))
	ctx := context.Background()

	_, err := s.Record(ctx, events.Event{
		Category:   events.CategoryAnalysis,
		Kind:       events.KindFoulPlay,
		Title:      "Foul Play Detected",
		Message:    "Tail twisting behavior identified",
		Source:     "round3.mp4",
		Confidence: events.Confidence(91),
	})
	require.NoError(t, err)

	notes, _ := s.Events(events.CategoryNotification)
	require.Len(t, notes, 1)
	assert.Equal(t, events.KindAlert, notes[0].Kind)
	assert.Contains(t, notes[0].Message, "round3.mp4")

	// below threshold
	_, err = s.Record(ctx, events.Event{
		Category:   events.CategoryAnalysis,
		Kind:       events.KindFoulPlay,
		Message:    "Unauthorized tools detected in frame",
		Confidence: events.Confidence(70),
	})
	require.NoError(t, err)
	notes, _ = s.Events(events.CategoryNotification)
	assert.Len(t, notes, 1)

	// safe outcomes never escalate
	_, err = s.Record(ctx, events.Event{
		Category:   events.CategoryAnalysis,
		Kind:       events.KindNoFoulPlay,
		Message:    "Fair play standards maintained",
		Confidence: events.Confidence(99),
	})
	require.NoError(t, err)
	notes, _ = s.Events(events.CategoryNotification)
	assert.Len(t, notes, 1)

	analyses, _ := s.Events(events.CategoryAnalysis)
	assert.Len(t, analyses, 3)
}

func TestStream_RecordRejectsInvalid(t *testing.T) {
	s := newTestStream(t, DefaultConfig())
	ctx := context.Background()

	_, err := s.Record(ctx, events.Event{Category: events.CategoryAlert, Kind: events.KindSafe})
	assert.ErrorIs(t, err, ErrInvalidEvent)

	_, err = s.Record(ctx, events.Event{Category: events.CategoryAnalysis, Kind: events.KindInfo})
	assert.ErrorIs(t, err, ErrInvalidEvent)
}

func TestStream_RecordFillsIDAndTime(t *testing.T) {
	s := newTestStream(t, DefaultConfig())
	e, err := s.Record(context.Background(), events.Event{
		Category: events.CategoryNotification,
		Kind:     events.KindInfo,
		Message:  "Uploaded media analysis finished",
	})
	require.NoError(t, err)
	assert.NotZero(t, e.ID)
	assert.False(t, e.CreatedAt.IsZero())
}

func quietConfig() Config {
	cfg := DefaultConfig()
	cfg.NotificationInterval = time.Hour
	cfg.IncidentInterval = time.Hour
	cfg.CounterInterval = time.Hour
	cfg.BlinkInterval = time.Hour
	cfg.NotificationCap = 10000
	cfg.SeedIncidents = false
	cfg.Schedule = []simulator.Step{{Kind: events.KindSafe, Message: "ok", Duration: time.Hour}}
	return cfg
}

func TestStream_ContextCancelStops(t *testing.T) {
	s := newTestStream(t, quietConfig())
	ch, unsubscribe := s.Subscribe(4)
	defer unsubscribe()

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))
	cancel()

	assert.Eventually(t, func() bool { return !s.Running() }, time.Second, 5*time.Millisecond)
	assert.False(t, s.Snapshot().Running)
	_, open := <-ch
	assert.False(t, open)

	// a fresh run is not stopped by the old context
	require.NoError(t, s.Start(context.Background()))
	time.Sleep(20 * time.Millisecond)
	assert.True(t, s.Running())
}

type blockingSink struct {
	release chan struct{}
	recordingSink
}

// Deliver holds notifications until release is closed
func (b *blockingSink) Deliver(ctx context.Context, e events.Event) error {
	if e.Category != events.CategoryNotification {
		return b.recordingSink.Deliver(ctx, e)
	}
	select {
	case <-b.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	return b.recordingSink.Deliver(ctx, e)
}

func TestStream_SlowSinkDoesNotStallTicks(t *testing.T) {
	sink := &blockingSink{release: make(chan struct{})}
	s := newTestStream(t, quietConfig(), WithSinks(sink))
	require.NoError(t, s.Start(context.Background()))

	start := time.Now()
	for i := 0; i < 20; i++ {
		_, err := s.Tick(events.CategoryNotification)
		require.NoError(t, err)
	}
	assert.Less(t, time.Since(start), 500*time.Millisecond)

	close(sink.release)
	s.Stop()
	assert.Equal(t, 20, sink.count(events.CategoryNotification), "Stop drains the queue")
}

func TestStream_SubscribersSeeLogOrder(t *testing.T) {
	s := newTestStream(t, quietConfig())
	ch, unsubscribe := s.Subscribe(1000)
	defer unsubscribe()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				s.Tick(events.CategoryNotification)
			}
		}()
	}
	wg.Wait()

	items, err := s.Events(events.CategoryNotification)
	require.NoError(t, err)
	require.Len(t, items, 200)
	for i := len(items) - 1; i >= 0; i-- {
		got := <-ch
		require.Equal(t, items[i].ID, got.ID)
	}
}
