package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/technosupport/arena-watch/internal/events"
	"github.com/technosupport/arena-watch/internal/ratelimit"
	"github.com/technosupport/arena-watch/internal/simulator"
	"github.com/technosupport/arena-watch/internal/stream"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "config/default.yaml"

var ErrInvalid = errors.New("invalid config")

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Redis     RedisConfig     `yaml:"redis"`
	NATS      NATSConfig      `yaml:"nats"`
	Auth      AuthConfig      `yaml:"auth"`
	Stream    StreamConfig    `yaml:"stream"`
	Simulator SimulatorConfig `yaml:"simulator"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	History   HistoryConfig   `yaml:"history"`
}

type ServerConfig struct {
	Port              string   `yaml:"port"`
	ShutdownTimeoutMs int      `yaml:"shutdown_timeout_ms"`
	RequestTimeoutMs  int      `yaml:"request_timeout_ms"`
	CORSOrigins       []string `yaml:"cors_origins"`

	// per client IP, enforced only when Redis is configured
	UploadRateLimit ratelimit.LimitConfig `yaml:"upload_rate_limit"`
	LoginRateLimit  ratelimit.LimitConfig `yaml:"login_rate_limit"`
}

// RedisConfig: an empty Addr keeps history and settings in memory
type RedisConfig struct {
	Addr string `yaml:"addr"`
	DB   int    `yaml:"db"`
}

// NATSConfig: an empty URL disables publishing and remote analysis
type NATSConfig struct {
	URL             string `yaml:"url"`
	Name            string `yaml:"name"`
	EventPrefix     string `yaml:"event_prefix"`
	PublishRetryMax int    `yaml:"publish_retry_max"`
	AnalysisSubject string `yaml:"analysis_subject"`
	RemoteAnalysis  bool   `yaml:"remote_analysis"`
}

// AuthConfig: without a signing key settings stay read-only; without an
// operator password hash tokens can only be minted with cmd/token_gen.
type AuthConfig struct {
	SigningKey           string `yaml:"signing_key"`
	TokenTTLMinutes      int    `yaml:"token_ttl_minutes"`
	OperatorPasswordHash string `yaml:"operator_password_hash"`
	LockoutThreshold     int    `yaml:"lockout_threshold"`
	LockoutMinutes       int    `yaml:"lockout_minutes"`
}

type ScheduleStep struct {
	Kind       events.Kind `yaml:"kind"`
	Message    string      `yaml:"message"`
	DurationMs int         `yaml:"duration_ms"`
}

type StreamConfig struct {
	NotificationIntervalMs int                  `yaml:"notification_interval_ms"`
	IncidentIntervalMs     int                  `yaml:"incident_interval_ms"`
	CounterIntervalMs      int                  `yaml:"counter_interval_ms"`
	BlinkIntervalMs        int                  `yaml:"blink_interval_ms"`
	NotificationCap        int                  `yaml:"notification_cap"`
	IncidentCap            int                  `yaml:"incident_cap"`
	AnalysisCap            int                  `yaml:"analysis_cap"`
	SeedIncidents          bool                 `yaml:"seed_incidents"`
	Bulls                  simulator.WalkConfig `yaml:"bulls"`
	Participants           simulator.WalkConfig `yaml:"participants"`
	Schedule               []ScheduleStep       `yaml:"schedule"`
}

type SimulatorConfig struct {
	Cameras            int             `yaml:"cameras"`
	ViolationThreshold float64         `yaml:"violation_threshold"`
	FoulPlayThreshold  float64         `yaml:"foul_play_threshold"`
	Confidence         simulator.Range `yaml:"confidence"`
}

type AnalysisConfig struct {
	LatencyMs      int   `yaml:"latency_ms"`
	TimeoutMs      int   `yaml:"timeout_ms"`
	MaxUploads     int   `yaml:"max_uploads"`
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`
}

// HistoryConfig: SpoolDir enables the local spool for Redis outages
type HistoryConfig struct {
	Cap              int    `yaml:"cap"`
	Key              string `yaml:"key"`
	Seed             bool   `yaml:"seed"`
	SpoolDir         string `yaml:"spool_dir"`
	SpoolMaxMB       int    `yaml:"spool_max_mb"`
	ReplayIntervalMs int    `yaml:"replay_interval_ms"`
}

func Default() Config {
	sc := stream.DefaultConfig()
	gc := simulator.DefaultGeneratorConfig()

	steps := make([]ScheduleStep, 0, len(sc.Schedule))
	for _, st := range sc.Schedule {
		steps = append(steps, ScheduleStep{Kind: st.Kind, Message: st.Message, DurationMs: int(st.Duration / time.Millisecond)})
	}

	return Config{
		Server: ServerConfig{
			Port:              "8080",
			ShutdownTimeoutMs: 5000,
			RequestTimeoutMs:  60000,
			CORSOrigins:       []string{"http://localhost:5173"},
			UploadRateLimit:   ratelimit.LimitConfig{Rate: 30, WindowMs: 60000},
			LoginRateLimit:    ratelimit.LimitConfig{Rate: 10, WindowMs: 60000},
		},
		NATS: NATSConfig{
			Name:            "arena-watch",
			EventPrefix:     "arena.events",
			PublishRetryMax: 2,
			AnalysisSubject: "analysis.request",
		},
		Auth: AuthConfig{TokenTTLMinutes: 60, LockoutThreshold: 5, LockoutMinutes: 15},
		Stream: StreamConfig{
			NotificationIntervalMs: ms(sc.NotificationInterval),
			IncidentIntervalMs:     ms(sc.IncidentInterval),
			CounterIntervalMs:      ms(sc.CounterInterval),
			BlinkIntervalMs:        ms(sc.BlinkInterval),
			NotificationCap:        sc.NotificationCap,
			IncidentCap:            sc.IncidentCap,
			AnalysisCap:            sc.AnalysisCap,
			SeedIncidents:          sc.SeedIncidents,
			Bulls:                  sc.Bulls,
			Participants:           sc.Participants,
			Schedule:               steps,
		},
		Simulator: SimulatorConfig{
			Cameras:            gc.Cameras,
			ViolationThreshold: gc.ViolationThreshold,
			FoulPlayThreshold:  gc.FoulPlayThreshold,
			Confidence:         gc.Confidence,
		},
		Analysis: AnalysisConfig{
			LatencyMs:      3000,
			TimeoutMs:      30000,
			MaxUploads:     100,
			MaxUploadBytes: 100 << 20,
		},
		History: HistoryConfig{Cap: 200, Key: "arena:history", Seed: true, SpoolMaxMB: 16, ReplayIntervalMs: 30000},
	}
}

// Path returns ARENA_CONFIG or the default location
func Path() string {
	return getEnv("ARENA_CONFIG", DefaultPath)
}

// Load decodes path over the defaults and applies environment overrides.
// A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		log.Printf("[Config] %s not found, using defaults", path)
	case err != nil:
		return Config{}, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.NATS.URL = getEnv("NATS_URL", c.NATS.URL)
	c.Auth.SigningKey = getEnv("JWT_SIGNING_KEY", c.Auth.SigningKey)
	c.Auth.OperatorPasswordHash = getEnv("OPERATOR_PASSWORD_HASH", c.Auth.OperatorPasswordHash)
	c.Analysis.LatencyMs = getEnvInt("ANALYSIS_LATENCY_MS", c.Analysis.LatencyMs)
}

func (c Config) Validate() error {
	s := c.Stream
	for name, v := range map[string]int{
		"notification_interval_ms": s.NotificationIntervalMs,
		"incident_interval_ms":     s.IncidentIntervalMs,
		"counter_interval_ms":      s.CounterIntervalMs,
		"blink_interval_ms":        s.BlinkIntervalMs,
		"notification_cap":         s.NotificationCap,
		"incident_cap":             s.IncidentCap,
		"analysis_cap":             s.AnalysisCap,
	} {
		if v <= 0 {
			return fmt.Errorf("%w: stream.%s must be positive", ErrInvalid, name)
		}
	}
	for _, w := range []simulator.WalkConfig{s.Bulls, s.Participants} {
		if w.Min > w.Max {
			return fmt.Errorf("%w: walk min %d > max %d", ErrInvalid, w.Min, w.Max)
		}
	}
	for i, st := range s.Schedule {
		if !events.ValidKind(events.CategoryAlert, st.Kind) {
			return fmt.Errorf("%w: stream.schedule[%d] kind %q", ErrInvalid, i, st.Kind)
		}
	}

	g := c.Simulator
	if g.ViolationThreshold <= 0 || g.ViolationThreshold >= 1 || g.FoulPlayThreshold <= 0 || g.FoulPlayThreshold >= 1 {
		return fmt.Errorf("%w: simulator thresholds must be in (0, 1)", ErrInvalid)
	}
	if g.Confidence.Min < 0 || g.Confidence.Max > 100 || g.Confidence.Min > g.Confidence.Max {
		return fmt.Errorf("%w: simulator.confidence %d..%d", ErrInvalid, g.Confidence.Min, g.Confidence.Max)
	}
	if c.Analysis.LatencyMs < 0 {
		return fmt.Errorf("%w: analysis.latency_ms is negative", ErrInvalid)
	}
	return nil
}

func (c Config) StreamConfig() stream.Config {
	s := c.Stream
	steps := make([]simulator.Step, 0, len(s.Schedule))
	for _, st := range s.Schedule {
		steps = append(steps, simulator.Step{Kind: st.Kind, Message: st.Message, Duration: millis(st.DurationMs)})
	}
	return stream.Config{
		NotificationInterval: millis(s.NotificationIntervalMs),
		IncidentInterval:     millis(s.IncidentIntervalMs),
		CounterInterval:      millis(s.CounterIntervalMs),
		BlinkInterval:        millis(s.BlinkIntervalMs),
		NotificationCap:      s.NotificationCap,
		IncidentCap:          s.IncidentCap,
		AnalysisCap:          s.AnalysisCap,
		Bulls:                s.Bulls,
		Participants:         s.Participants,
		Schedule:             steps,
		SeedIncidents:        s.SeedIncidents,
	}
}

func (c Config) GeneratorConfig() simulator.GeneratorConfig {
	return simulator.GeneratorConfig{
		Cameras:            c.Simulator.Cameras,
		ViolationThreshold: c.Simulator.ViolationThreshold,
		FoulPlayThreshold:  c.Simulator.FoulPlayThreshold,
		Confidence:         c.Simulator.Confidence,
	}
}

func (a AnalysisConfig) Latency() time.Duration { return millis(a.LatencyMs) }
func (a AnalysisConfig) Timeout() time.Duration { return millis(a.TimeoutMs) }

func (h HistoryConfig) ReplayInterval() time.Duration { return millis(h.ReplayIntervalMs) }
func (h HistoryConfig) SpoolMaxBytes() int64 { return int64(h.SpoolMaxMB) << 20 }

func (s ServerConfig) ShutdownTimeout() time.Duration { return millis(s.ShutdownTimeoutMs) }
func (s ServerConfig) RequestTimeout() time.Duration { return millis(s.RequestTimeoutMs) }

func (a AuthConfig) LockoutTTL() time.Duration {
	return time.Duration(a.LockoutMinutes) * time.Minute
}

func (a AuthConfig) TokenTTL() time.Duration {
	return time.Duration(a.TokenTTLMinutes) * time.Minute
}

func millis(v int) time.Duration { return time.Duration(v) * time.Millisecond }

func ms(d time.Duration) int { return int(d / time.Millisecond) }

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
