package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "cart:"
	// generation counters live outside the cart:* namespace so Flush keeps them
	genPrefix = "cartgen:"
	globalGen = genPrefix + "*all*"
	genTTL    = 24 * time.Hour
)

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: 15 * time.Minute,
	}
}

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func (r *RedisCache) Get(ctx context.Context, sessionID string) (*models.CartSummary, error) {
	data, err := r.client.Get(ctx, cacheKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var summary models.CartSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("unmarshal cart summary failed: %w", err)
	}
	return &summary, nil
}

func (r *RedisCache) Generation(ctx context.Context, sessionID string) (Generation, error) {
	return readGeneration(ctx, r.client, sessionID)
}

// Set writes the summary inside WATCH/MULTI on both generation counters, so
// a Delete or Flush landing after gen was captured wins over this write.
func (r *RedisCache) Set(ctx context.Context, sessionID string, gen Generation, summary *models.CartSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal cart summary failed: %w", err)
	}

	// jitter keeps a burst of carts from expiring together
	ttl := r.baseTTL + time.Duration(rand.Intn(5))*time.Minute

	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := readGeneration(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		if current != gen {
			return ErrStaleGeneration
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, cacheKey(sessionID), data, ttl)
			return nil
		})
		return err
	}, genKey(sessionID), globalGen)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrStaleGeneration), errors.Is(err, redis.TxFailedErr):
		return ErrStaleGeneration
	default:
		return fmt.Errorf("redis set failed: %w", err)
	}
}

func (r *RedisCache) Delete(ctx context.Context, sessionID string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey(sessionID))
		pipe.Expire(ctx, genKey(sessionID), genTTL)
		pipe.Del(ctx, cacheKey(sessionID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (r *RedisCache) Flush(ctx context.Context) error {
	// bump first so fills already in flight cannot store after the scan
	if err := r.client.Incr(ctx, globalGen).Err(); err != nil {
		return fmt.Errorf("redis flush failed: %w", err)
	}

	iter := r.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan failed: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis flush failed: %w", err)
	}
	return nil
}

type multiGetter interface {
	MGet(ctx context.Context, keys ...string) *redis.SliceCmd
}

func readGeneration(ctx context.Context, c multiGetter, sessionID string) (Generation, error) {
	vals, err := c.MGet(ctx, globalGen, genKey(sessionID)).Result()
	if err != nil {
		return "", fmt.Errorf("redis generation read failed: %w", err)
	}
	parts := [2]string{"0", "0"}
	for i, v := range vals {
		if s, ok := v.(string); ok {
			parts[i] = s
		}
	}
	return Generation(parts[0] + "/" + parts[1]), nil
}

func cacheKey(sessionID string) string {
	return keyPrefix + sessionID
}

func genKey(sessionID string) string {
	return genPrefix + sessionID
}
