package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLockout_SweepsStaleClients(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	l := NewMemoryLockout(3, time.Minute)
	l.now = func() time.Time { return clock }

	for i := 0; i < 500; i++ {
		require.NoError(t, l.Fail(ctx, fmt.Sprintf("10.0.%d.%d", i/250, i%250)))
	}
	assert.Equal(t, 500, l.Len())

	clock = clock.Add(time.Hour)
	require.NoError(t, l.Fail(ctx, "10.9.9.9"))
	assert.Equal(t, 1, l.Len())
}

func TestMemoryLockout_KeepsActiveLock(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	l := NewMemoryLockout(2, time.Minute)
	l.now = func() time.Time { return clock }

	require.NoError(t, l.Fail(ctx, "c1"))
	require.NoError(t, l.Fail(ctx, "c1"))

	clock = clock.Add(30 * time.Second)
	require.NoError(t, l.Fail(ctx, "c2"))
	locked, err := l.Locked(ctx, "c1")
	require.NoError(t, err)
	assert.True(t, locked)

	clock = clock.Add(2 * time.Minute)
	locked, _ = l.Locked(ctx, "c1")
	assert.False(t, locked)
	assert.Equal(t, 0, l.Len())
}

func TestMemoryLockout_Capped(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLockout(3, time.Hour)
	for i := 0; i < DefaultLockoutClients+100; i++ {
		require.NoError(t, l.Fail(ctx, fmt.Sprintf("client-%d", i)))
	}
	assert.Equal(t, DefaultLockoutClients, l.Len())
}
