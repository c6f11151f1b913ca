package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appErrors "github.com/carevia/carevia-api/pkg/errors"
)

// FallbackCacheRepository keeps the last known good copy of catalog
// payloads in Redis so degraded reads can serve stale data instead of an
// empty screen.
type FallbackCacheRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewFallbackCacheRepository constructs a fallback cache repository.
func NewFallbackCacheRepository(client *redis.Client, logger *zap.Logger) *FallbackCacheRepository {
	return &FallbackCacheRepository{client: client, logger: logger}
}

func fallbackKey(resource string) string {
	return "catalog:fallback:" + resource
}

// Load retrieves and unmarshals the last known copy for the resource.
func (r *FallbackCacheRepository) Load(ctx context.Context, resource string, dest interface{}) error {
	if r.client == nil {
		return appErrors.ErrCacheMiss
	}

	raw, err := r.client.Get(ctx, fallbackKey(resource)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return appErrors.ErrCacheMiss
		}
		return fmt.Errorf("redis get %s: %w", resource, err)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		// A corrupt copy is as good as no copy.
		if r.logger != nil {
			r.logger.Warn("discarding corrupt fallback copy", zap.String("resource", resource), zap.Error(err))
		}
		_ = r.client.Del(ctx, fallbackKey(resource)).Err()
		return appErrors.ErrCacheMiss
	}

	return nil
}

// Store marshals and keeps the value as the resource's last known copy.
func (r *FallbackCacheRepository) Store(ctx context.Context, resource string, value interface{}, ttl time.Duration) error {
	if r.client == nil {
		return nil
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal fallback copy for %s: %w", resource, err)
	}

	if err := r.client.Set(ctx, fallbackKey(resource), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", resource, err)
	}

	return nil
}

// Invalidate removes every stored fallback copy.
func (r *FallbackCacheRepository) Invalidate(ctx context.Context) error {
	if r.client == nil {
		return nil
	}

	iter := r.client.Scan(ctx, 0, fallbackKey("*"), 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if err := r.client.Del(ctx, key).Err(); err != nil {
			return fmt.Errorf("redis delete %s: %w", key, err)
		}
	}

	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan fallback keys: %w", err)
	}

	return nil
}

// Close releases the underlying Redis connection if present.
func (r *FallbackCacheRepository) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}
