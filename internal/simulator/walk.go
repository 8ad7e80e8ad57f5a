package simulator

// WalkConfig describes a live counter such as the bull or participant count
type WalkConfig struct {
	Start int `yaml:"start"`
	Min   int `yaml:"min"`
	Max   int `yaml:"max"`
	Step  int `yaml:"step"` // deltas are drawn from [-Step, +Step]
}

var (
	DefaultBullWalk        = WalkConfig{Start: 12, Min: 8, Max: 15, Step: 1}
	DefaultParticipantWalk = WalkConfig{Start: 47, Min: 40, Max: 60, Step: 2}
)

// Walk is a bounded random walk. Not safe for concurrent use; the stream
// serializes access.
type Walk struct {
	min, max, step int
	value          int
}

func NewWalk(cfg WalkConfig) *Walk {
	if cfg.Max < cfg.Min {
		cfg.Min, cfg.Max = cfg.Max, cfg.Min
	}
	if cfg.Step < 0 {
		cfg.Step = -cfg.Step
	}
	w := &Walk{min: cfg.Min, max: cfg.Max, step: cfg.Step}
	w.value = w.clamp(cfg.Start)
	return w
}

func (w *Walk) clamp(v int) int {
	if v < w.min {
		return w.min
	}
	if v > w.max {
		return w.max
	}
	return v
}

// Apply adds delta and clamps, returning the new value
func (w *Walk) Apply(delta int) int {
	w.value = w.clamp(w.value + delta)
	return w.value
}

// Next draws a delta in [-step, +step] from src and applies it
func (w *Walk) Next(intn func(int) int) int {
	if w.step == 0 {
		return w.value
	}
	delta := intn(2*w.step+1) - w.step
	return w.Apply(delta)
}

func (w *Walk) Value() int {
	return w.value
}

func (w *Walk) Bounds() (int, int) {
	return w.min, w.max
}
