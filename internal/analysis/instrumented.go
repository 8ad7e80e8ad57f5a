package analysis

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/technosupport/arena-watch/internal/metrics"
)

// InstrumentedAnalyzer records every call in the analysis metrics. It is
// for standalone workers; Service already records its own uploads.
type InstrumentedAnalyzer struct {
	next     Analyzer
	requests atomic.Int64
	failures atomic.Int64
}

func NewInstrumentedAnalyzer(next Analyzer) *InstrumentedAnalyzer {
	return &InstrumentedAnalyzer{next: next}
}

func (a *InstrumentedAnalyzer) Analyze(ctx context.Context, m Media) (Result, error) {
	a.requests.Add(1)
	metrics.RecordSubmitted(string(m.Type))
	start := time.Now()

	res, err := a.next.Analyze(ctx, m)
	ms := float64(time.Since(start).Milliseconds())
	if err != nil {
		a.failures.Add(1)
		metrics.RecordFailed(Code(err), ms)
		return res, err
	}
	metrics.RecordCompleted(string(res.Outcome), ms)
	return res, nil
}

func (a *InstrumentedAnalyzer) Requests() int64 { return a.requests.Load() }
func (a *InstrumentedAnalyzer) Failures() int64 { return a.failures.Load() }
