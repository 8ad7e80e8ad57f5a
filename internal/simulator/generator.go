package simulator

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/technosupport/arena-watch/internal/events"
)

var ErrUnsupportedCategory = errors.New("category is not produced by the generator")

// Source is the subset of *rand.Rand the simulator samples from
type Source interface {
	Intn(n int) int
	Float64() float64
}

// Range is an inclusive integer interval
type Range struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

func (r Range) Contains(v int) bool {
	return v >= r.Min && v <= r.Max
}

type GeneratorConfig struct {
	Cameras            int     // incident camera labels are "Camera 1".."Camera N"
	ViolationThreshold float64 // incident is a violation when Float64() > threshold
	FoulPlayThreshold  float64 // analysis is foul play when Float64() > threshold
	Confidence         Range
}

func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		Cameras:            6,
		ViolationThreshold: 0.7,
		FoulPlayThreshold:  0.5,
		Confidence:         Range{Min: 80, Max: 99},
	}
}

// Generator samples mock events from the fixed catalogs.
// Safe for concurrent use; the underlying Source is guarded.
type Generator struct {
	cfg GeneratorConfig
	seq *events.Sequence
	now func() time.Time

	mu  sync.Mutex
	src Source
}

func NewGenerator(cfg GeneratorConfig, src Source, seq *events.Sequence) *Generator {
	def := DefaultGeneratorConfig()
	if cfg.Cameras <= 0 {
		cfg.Cameras = def.Cameras
	}
	if cfg.ViolationThreshold <= 0 {
		cfg.ViolationThreshold = def.ViolationThreshold
	}
	if cfg.FoulPlayThreshold <= 0 {
		cfg.FoulPlayThreshold = def.FoulPlayThreshold
	}
	if cfg.Confidence.Max == 0 || cfg.Confidence.Max < cfg.Confidence.Min {
		cfg.Confidence = def.Confidence
	}
	if src == nil {
		src = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if seq == nil {
		seq = &events.Sequence{}
	}
	return &Generator{cfg: cfg, src: src, seq: seq, now: time.Now}
}

func (g *Generator) Config() GeneratorConfig {
	return g.cfg
}

// Sequence is shared with the stream so externally built events stay ordered
func (g *Generator) Sequence() *events.Sequence {
	return g.seq
}

// Tick produces one event for a generated category
func (g *Generator) Tick(c events.Category) (events.Event, error) {
	switch c {
	case events.CategoryNotification:
		return g.Notification(), nil
	case events.CategoryIncident:
		return g.Incident(), nil
	case events.CategoryAnalysis:
		return g.Analysis(), nil
	default:
		return events.Event{}, fmt.Errorf("%w: %s", ErrUnsupportedCategory, c)
	}
}

func (g *Generator) Notification() events.Event {
	g.mu.Lock()
	kind := notificationKinds[g.src.Intn(len(notificationKinds))]
	templates := notificationTemplates[kind]
	tpl := templates[g.src.Intn(len(templates))]
	g.mu.Unlock()

	return events.Event{
		ID:        g.seq.Next(),
		Category:  events.CategoryNotification,
		Kind:      kind,
		Title:     tpl.Title,
		Message:   tpl.Message,
		CreatedAt: g.now(),
	}
}

func (g *Generator) Incident() events.Event {
	g.mu.Lock()
	violation := g.src.Float64() > g.cfg.ViolationThreshold
	camera := g.src.Intn(g.cfg.Cameras) + 1
	severity := events.SeverityMedium
	if g.src.Float64() > 0.5 {
		severity = events.SeverityHigh
	}
	g.mu.Unlock()

	e := events.Event{
		ID:        g.seq.Next(),
		Category:  events.CategoryIncident,
		Kind:      events.KindSafe,
		Message:   incidentSafeMessage,
		Camera:    fmt.Sprintf("Camera %d", camera),
		CreatedAt: g.now(),
	}
	if violation {
		e.Kind = events.KindViolation
		e.Message = incidentViolationMessage
		e.Severity = severity
	}
	return e
}

// Analysis produces a placeholder analysis result; nothing is inspected.
func (g *Generator) Analysis() events.Event {
	g.mu.Lock()
	outcome := events.KindNoFoulPlay
	if g.src.Float64() > g.cfg.FoulPlayThreshold {
		outcome = events.KindFoulPlay
	}
	span := g.cfg.Confidence.Max - g.cfg.Confidence.Min + 1
	confidence := g.cfg.Confidence.Min + g.src.Intn(span)
	details := AnalysisDetails(outcome)
	detail := details[g.src.Intn(len(details))]
	g.mu.Unlock()

	title := "No Foul Play"
	if outcome == events.KindFoulPlay {
		title = "Foul Play Detected"
	}
	return events.Event{
		ID:         g.seq.Next(),
		Category:   events.CategoryAnalysis,
		Kind:       outcome,
		Title:      title,
		Message:    detail,
		Confidence: events.Confidence(confidence),
		CreatedAt:  g.now(),
	}
}

// Intn samples from the guarded source; used by the stream for risk and walks
func (g *Generator) Intn(n int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.src.Intn(n)
}
