package auth

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultLockoutThreshold = 5
	DefaultLockoutTTL       = 15 * time.Minute
	DefaultLockoutPrefix    = "arena:lockout:"
	DefaultLockoutClients   = 10000
)

// Lockout counts failed logins per client and locks the client out once
// the threshold is reached inside the window.
type Lockout interface {
	Locked(ctx context.Context, client string) (bool, error)
	Fail(ctx context.Context, client string) error
	Clear(ctx context.Context, client string) error
}

type RedisLockout struct {
	client    *redis.Client
	prefix    string
	threshold int64
	ttl       time.Duration
}

func NewRedisLockout(client *redis.Client, threshold int, ttl time.Duration) *RedisLockout {
	if threshold <= 0 {
		threshold = DefaultLockoutThreshold
	}
	if ttl <= 0 {
		ttl = DefaultLockoutTTL
	}
	return &RedisLockout{client: client, prefix: DefaultLockoutPrefix, threshold: int64(threshold), ttl: ttl}
}

func (l *RedisLockout) lockKey(client string) string  { return l.prefix + "locked:" + client }
func (l *RedisLockout) countKey(client string) string { return l.prefix + "count:" + client }

func (l *RedisLockout) Locked(ctx context.Context, client string) (bool, error) {
	n, err := l.client.Exists(ctx, l.lockKey(client)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (l *RedisLockout) Fail(ctx context.Context, client string) error {
	count, err := l.client.Incr(ctx, l.countKey(client)).Result()
	if err != nil {
		return err
	}
	// window starts at the first failure
	if count == 1 {
		if err := l.client.Expire(ctx, l.countKey(client), l.ttl).Err(); err != nil {
			return err
		}
	}
	if count < l.threshold {
		return nil
	}

	pipe := l.client.TxPipeline()
	pipe.Set(ctx, l.lockKey(client), "locked", l.ttl)
	pipe.Del(ctx, l.countKey(client))
	_, err = pipe.Exec(ctx)
	return err
}

func (l *RedisLockout) Clear(ctx context.Context, client string) error {
	return l.client.Del(ctx, l.countKey(client)).Err()
}

type lockState struct {
	count       int
	windowEnds  time.Time
	lockedUntil time.Time
}

func (st *lockState) expired(now time.Time) bool {
	return now.After(st.windowEnds) && now.After(st.lockedUntil)
}

// MemoryLockout is the single-process fallback when Redis is not configured.
// It tracks at most DefaultLockoutClients clients, least recently failed
// first out, and sweeps expired entries once per window.
type MemoryLockout struct {
	threshold int
	ttl       time.Duration
	now       func() time.Time

	mu        sync.Mutex
	clients   *lru.Cache[string, *lockState]
	nextSweep time.Time
}

func NewMemoryLockout(threshold int, ttl time.Duration) *MemoryLockout {
	if threshold <= 0 {
		threshold = DefaultLockoutThreshold
	}
	if ttl <= 0 {
		ttl = DefaultLockoutTTL
	}
	// only errors on a non-positive size
	clients, _ := lru.New[string, *lockState](DefaultLockoutClients)
	return &MemoryLockout{threshold: threshold, ttl: ttl, now: time.Now, clients: clients}
}

// sweep drops expired clients. Caller holds l.mu.
func (l *MemoryLockout) sweep(now time.Time) {
	if now.Before(l.nextSweep) {
		return
	}
	l.nextSweep = now.Add(l.ttl)
	for _, client := range l.clients.Keys() {
		if st, ok := l.clients.Peek(client); ok && st.expired(now) {
			l.clients.Remove(client)
		}
	}
}

func (l *MemoryLockout) Locked(_ context.Context, client string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	l.sweep(now)
	st, ok := l.clients.Peek(client)
	if !ok {
		return false, nil
	}
	return now.Before(st.lockedUntil), nil
}

func (l *MemoryLockout) Fail(_ context.Context, client string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)
	st, ok := l.clients.Get(client)
	if !ok || st.expired(now) {
		st = &lockState{windowEnds: now.Add(l.ttl)}
	}
	st.count++
	if st.count >= l.threshold {
		st.lockedUntil = now.Add(l.ttl)
		st.count = 0
		st.windowEnds = st.lockedUntil
	}
	l.clients.Add(client, st)
	return nil
}

func (l *MemoryLockout) Clear(_ context.Context, client string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if st, ok := l.clients.Peek(client); ok && !l.now().Before(st.lockedUntil) {
		l.clients.Remove(client)
	}
	return nil
}

// Len reports how many clients are tracked
func (l *MemoryLockout) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.clients.Len()
}
