package config

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/technosupport/arena-watch/internal/events"
	"github.com/technosupport/arena-watch/internal/stream"
)

func writeFile(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "arena.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, stream.DefaultConfig(), cfg.StreamConfig())
}

func TestLoad_RepoDefaultMatchesBuiltin(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", DefaultPath))
	require.NoError(t, err)
	assert.Equal(t, Default().Stream, cfg.Stream)
	assert.Equal(t, Default().Simulator, cfg.Simulator)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), `
stream:
  notification_cap: 25
analysis:
  latency_ms: 10
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.Stream.NotificationCap)
	assert.Equal(t, 10, cfg.Stream.IncidentCap)
	assert.Equal(t, 10*time.Millisecond, cfg.Analysis.Latency())
	assert.Len(t, cfg.Stream.Schedule, 5)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("REDIS_ADDR", "localhost:6390")
	t.Setenv("NATS_URL", "nats://localhost:4333")
	t.Setenv("JWT_SIGNING_KEY", "secret")
	t.Setenv("ANALYSIS_LATENCY_MS", "42")
	t.Setenv("OPERATOR_PASSWORD_HASH", "$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$a2V5")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "9999", cfg.Server.Port)
	assert.Equal(t, "localhost:6390", cfg.Redis.Addr)
	assert.Equal(t, "nats://localhost:4333", cfg.NATS.URL)
	assert.Equal(t, "secret", cfg.Auth.SigningKey)
	assert.Equal(t, 42, cfg.Analysis.LatencyMs)
	assert.Equal(t, "$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$a2V5", cfg.Auth.OperatorPasswordHash)
}

func TestLoad_Rejects(t *testing.T) {
	tests := map[string]string{
		"bad yaml":       "stream: [",
		"zero cap":       "stream:\n  incident_cap: 0\n",
		"bad kind":       "stream:\n  schedule:\n    - { kind: violation, message: x, duration_ms: 1 }\n",
		"bad walk":       "stream:\n  bulls: { start: 1, min: 10, max: 2, step: 1 }\n",
		"bad threshold":  "simulator:\n  violation_threshold: 1.5\n",
		"bad confidence": "simulator:\n  confidence: { min: 90, max: 120 }\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeFile(t, t.TempDir(), body))
			assert.Error(t, err)
		})
	}
}

func TestStreamConfig_ConvertsSchedule(t *testing.T) {
	cfg := Default()
	cfg.Stream.Schedule = []ScheduleStep{{Kind: events.KindDanger, Message: "Foul Play Detected", DurationMs: 250}}

	sc := cfg.StreamConfig()
	require.Len(t, sc.Schedule, 1)
	assert.Equal(t, 250*time.Millisecond, sc.Schedule[0].Duration)
	assert.Equal(t, events.KindDanger, sc.Schedule[0].Kind)
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "analysis:\n  latency_ms: 100\n")

	var latency atomic.Int64
	w := NewWatcher(path, func(c Config) { latency.Store(int64(c.Analysis.LatencyMs)) })
	w.debounce = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	// give the watcher a moment to register
	time.Sleep(50 * time.Millisecond)
	writeFile(t, dir, "analysis:\n  latency_ms: 5\n")

	assert.Eventually(t, func() bool { return latency.Load() == 5 }, 2*time.Second, 10*time.Millisecond)
}

func TestWatcher_KeepsRunningOnBadReload(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "analysis:\n  latency_ms: 100\n")

	var latency atomic.Int64
	w := NewWatcher(path, func(c Config) { latency.Store(int64(c.Analysis.LatencyMs)) })
	w.debounce = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)
	time.Sleep(50 * time.Millisecond)

	writeFile(t, dir, "analysis: [")
	time.Sleep(100 * time.Millisecond)
	assert.NotEqual(t, int64(7), latency.Load())

	writeFile(t, dir, "analysis:\n  latency_ms: 7\n")
	assert.Eventually(t, func() bool { return latency.Load() == 7 }, 2*time.Second, 10*time.Millisecond)
}
