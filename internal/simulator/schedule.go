package simulator

import (
	"time"

	"github.com/technosupport/arena-watch/internal/events"
)

// Step is one entry of the alert status cycle
type Step struct {
	Kind     events.Kind
	Message  string
	Duration time.Duration
}

// DefaultSchedule is the status cycle shown on the alert panel
var DefaultSchedule = []Step{
	{Kind: events.KindSafe, Message: "No Foul Play", Duration: 8 * time.Second},
	{Kind: events.KindWarning, Message: "Analyzing Movement", Duration: 3 * time.Second},
	{Kind: events.KindSafe, Message: "No Foul Play", Duration: 6 * time.Second},
	{Kind: events.KindDanger, Message: "Foul Play Detected", Duration: 4 * time.Second},
	{Kind: events.KindSafe, Message: "No Foul Play", Duration: 10 * time.Second},
}

// Schedule is a round-robin over a fixed list of steps
type Schedule struct {
	steps []Step
	next  int
}

func NewSchedule(steps []Step) *Schedule {
	if len(steps) == 0 {
		steps = DefaultSchedule
	}
	cp := make([]Step, len(steps))
	copy(cp, steps)
	for i := range cp {
		if cp[i].Duration <= 0 {
			cp[i].Duration = time.Second
		}
	}
	return &Schedule{steps: cp}
}

// Advance returns the step to display now and moves the cursor, wrapping
func (s *Schedule) Advance() Step {
	st := s.steps[s.next]
	s.next = (s.next + 1) % len(s.steps)
	return st
}

func (s *Schedule) Len() int {
	return len(s.steps)
}

// RiskLevel is the coarse risk shown on the dashboard
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// riskWeights is sampled uniformly, so Low is three times as likely
var riskWeights = []RiskLevel{RiskLow, RiskLow, RiskLow, RiskMedium, RiskHigh}

func SampleRisk(intn func(int) int) RiskLevel {
	return riskWeights[intn(len(riskWeights))]
}
