package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
)

const DefaultKey = "arena:history"

// RedisStore keeps the archive as a JSON list: LPUSH then LTRIM to the cap
type RedisStore struct {
	rdb *redis.Client
	key string
	cap int
}

func NewRedisStore(rdb *redis.Client, key string, capacity int) *RedisStore {
	if key == "" {
		key = DefaultKey
	}
	if capacity <= 0 {
		capacity = DefaultCap
	}
	return &RedisStore{rdb: rdb, key: key, cap: capacity}
}

func (s *RedisStore) Add(ctx context.Context, it Item) error {
	data, err := json.Marshal(it)
	if err != nil {
		return fmt.Errorf("marshal history item: %w", err)
	}

	pipe := s.rdb.TxPipeline()
	pipe.LPush(ctx, s.key, data)
	pipe.LTrim(ctx, s.key, 0, int64(s.cap-1))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store history item: %w", err)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context) ([]Item, error) {
	raw, err := s.rdb.LRange(ctx, s.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	items := make([]Item, 0, len(raw))
	for _, r := range raw {
		var it Item
		if err := json.Unmarshal([]byte(r), &it); err != nil {
			log.Printf("[History] Skipping corrupt entry: %v", err)
			continue
		}
		items = append(items, it)
	}
	return items, nil
}
