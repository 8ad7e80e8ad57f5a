package analysis

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/technosupport/arena-watch/internal/simulator"
)

const DefaultLatency = 3 * time.Second

// MockAnalyzer stands in for a detector: it waits a simulated latency and
// returns a sampled placeholder. The media content is never inspected.
type MockAnalyzer struct {
	gen     *simulator.Generator
	latency atomic.Int64
}

func NewMockAnalyzer(gen *simulator.Generator, latency time.Duration) *MockAnalyzer {
	m := &MockAnalyzer{gen: gen}
	m.SetLatency(latency)
	return m
}

// SetLatency changes the simulated latency for analyses started afterwards
func (m *MockAnalyzer) SetLatency(d time.Duration) {
	if d < 0 {
		d = DefaultLatency
	}
	m.latency.Store(int64(d))
}

func (m *MockAnalyzer) Latency() time.Duration {
	return time.Duration(m.latency.Load())
}

func (m *MockAnalyzer) Analyze(ctx context.Context, md Media) (Result, error) {
	if err := checkMedia(md); err != nil {
		return Result{}, err
	}

	timer := time.NewTimer(m.Latency())
	defer timer.Stop()

	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Result{}, ErrTimeout
		}
		return Result{}, fmt.Errorf("%w: %v", ErrInternal, ctx.Err())
	case <-timer.C:
	}

	e := m.gen.Analysis()
	return Result{
		Outcome:     e.Kind,
		Confidence:  *e.Confidence,
		Details:     e.Message,
		CompletedAt: time.Now(),
	}, nil
}
