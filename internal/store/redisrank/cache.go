// Package redisrank caches the computed global ranking in Redis so dashboard
// reads and websocket joins do not hit Postgres.
package redisrank

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"dominoleague/internal/domain"

	"github.com/redis/go-redis/v9"
)

const globalKey = "rankings:global"

// TTL bounds staleness if the refresh-on-completion path ever misses.
const cacheTTL = 10 * time.Minute

type Cache struct {
	client *redis.Client
}

func New(addr, password string, db int) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return &Cache{client: client}, nil
}

func (c *Cache) Close() error {
	return c.client.Close()
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// SetGlobal replaces the cached standings. Each entry is stored as a sorted
// set member scored by its rank, so a range read returns them in order.
func (c *Cache) SetGlobal(ctx context.Context, entries []domain.RankingEntry) error {
	members := make([]redis.Z, 0, len(entries))
	for _, e := range entries {
		payload, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("encoding ranking entry: %w", err)
		}
		members = append(members, redis.Z{
			Score:  float64(e.Rank),
			Member: string(payload),
		})
	}

	pipe := c.client.TxPipeline()
	pipe.Del(ctx, globalKey)
	if len(members) > 0 {
		pipe.ZAdd(ctx, globalKey, members...)
		pipe.Expire(ctx, globalKey, cacheTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("writing global ranking: %w", err)
	}
	return nil
}

// GetGlobal returns the cached standings in rank order, or domain.ErrNotFound
// when the cache is cold.
func (c *Cache) GetGlobal(ctx context.Context) ([]domain.RankingEntry, error) {
	raw, err := c.client.ZRange(ctx, globalKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("reading global ranking: %w", err)
	}
	if len(raw) == 0 {
		return nil, domain.ErrNotFound
	}

	entries := make([]domain.RankingEntry, 0, len(raw))
	for _, member := range raw {
		var e domain.RankingEntry
		if err := json.Unmarshal([]byte(member), &e); err != nil {
			return nil, fmt.Errorf("decoding ranking entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
