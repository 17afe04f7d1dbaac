package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/park285/fairy-xboard/internal/variant"
	"github.com/park285/fairy-xboard/internal/xboard"
)

const defaultCacheTTL = 10 * time.Minute

// Cache keeps engine answers in Redis so repeated positions skip the
// search. Keys combine variant, position and budget; entries expire.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewCache(redisURL string, ttl time.Duration) (*Cache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Cache{rdb: redis.NewClient(opt), ttl: ttl}, nil
}

func (c *Cache) keyBest(v variant.Variant, fen string, budget time.Duration) string {
	return fmt.Sprintf("xb:best:%s:%s:%d", v, strings.TrimSpace(fen), budget.Milliseconds())
}

func (c *Cache) keyAnalysis(v variant.Variant, fen string, depth int) string {
	return fmt.Sprintf("xb:analysis:%s:%s:%d", v, strings.TrimSpace(fen), depth)
}

func (c *Cache) GetBestMove(ctx context.Context, v variant.Variant, fen string, budget time.Duration) (string, bool, error) {
	val, err := c.rdb.Get(ctx, c.keyBest(v, fen, budget)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (c *Cache) PutBestMove(ctx context.Context, v variant.Variant, fen string, budget time.Duration, move string) error {
	return c.rdb.Set(ctx, c.keyBest(v, fen, budget), move, c.ttl).Err()
}

func (c *Cache) GetAnalysis(ctx context.Context, v variant.Variant, fen string, depth int) (*xboard.Snapshot, error) {
	raw, err := c.rdb.Get(ctx, c.keyAnalysis(v, fen, depth)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var snap xboard.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal cached analysis: %w", err)
	}
	return &snap, nil
}

func (c *Cache) PutAnalysis(ctx context.Context, v variant.Variant, fen string, depth int, snap xboard.Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}
	return c.rdb.Set(ctx, c.keyAnalysis(v, fen, depth), raw, c.ttl).Err()
}

func (c *Cache) Close() error { return c.rdb.Close() }
