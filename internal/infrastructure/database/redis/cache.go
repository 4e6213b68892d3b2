package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/moleculab/sarscope/internal/config"
	"github.com/moleculab/sarscope/internal/infrastructure/monitoring/logging"
	apperrors "github.com/moleculab/sarscope/pkg/errors"
)

// ErrCacheMiss is returned by Get when the key does not exist.
var ErrCacheMiss = apperrors.New(apperrors.ErrCodeCacheError, "cache miss")

// Cache is the application-facing caching port.  Values are JSON-encoded.
type Cache interface {
	Get(ctx context.Context, key string, dst any) error
	Set(ctx context.Context, key string, value any, opts ...SetOption) error
	Delete(ctx context.Context, keys ...string) error
	DeleteByPrefix(ctx context.Context, prefix string) error

	// GetOrLoad returns the cached value for key, or runs load once (even
	// under concurrent callers for the same key) and caches its result.
	GetOrLoad(ctx context.Context, key string, dst any, load func(ctx context.Context) (any, error), opts ...SetOption) error
}

// Metrics records cache lookup outcomes.  Satisfied by the prometheus
// metrics collector.
type Metrics interface {
	RecordCacheResult(hit bool)
}

// SetOption customizes a single Set call.
type SetOption func(*setOptions)

type setOptions struct {
	ttl time.Duration
}

// WithTTL overrides the cache's default entry lifetime for one call.
func WithTTL(ttl time.Duration) SetOption {
	return func(o *setOptions) { o.ttl = ttl }
}

// redisCache implements Cache over a go-redis client with request collapsing
// via singleflight.
type redisCache struct {
	client     *redis.Client
	prefix     string
	defaultTTL time.Duration
	group      singleflight.Group
	metrics    Metrics
	logger     logging.Logger
}

// NewCache builds the cache over an established client.  metrics may be nil;
// lookup outcomes are then not recorded.
func NewCache(client *redis.Client, cfg config.RedisConfig, metrics Metrics, logger logging.Logger) Cache {
	return &redisCache{
		client:     client,
		prefix:     cfg.KeyPrefix,
		defaultTTL: cfg.DefaultTTL,
		metrics:    metrics,
		logger:     logger.Named("cache"),
	}
}

func (c *redisCache) recordLookup(hit bool) {
	if c.metrics != nil {
		c.metrics.RecordCacheResult(hit)
	}
}

func (c *redisCache) key(k string) string { return c.prefix + k }

func (c *redisCache) Get(ctx context.Context, key string, dst any) error {
	raw, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeCacheError, "reading cache key")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeSerialization, "decoding cached value")
	}
	return nil
}

func (c *redisCache) Set(ctx context.Context, key string, value any, opts ...SetOption) error {
	o := setOptions{ttl: c.defaultTTL}
	for _, opt := range opts {
		opt(&o)
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeSerialization, "encoding cache value")
	}
	if err := c.client.Set(ctx, c.key(key), raw, o.ttl).Err(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeCacheError, "writing cache key")
	}
	return nil
}

func (c *redisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}
	if err := c.client.Del(ctx, full...).Err(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeCacheError, "deleting cache keys")
	}
	return nil
}

// DeleteByPrefix scans and removes all keys under the given prefix.  Used to
// drop every cached analysis for a dataset when it is deleted.
func (c *redisCache) DeleteByPrefix(ctx context.Context, prefix string) error {
	iter := c.client.Scan(ctx, 0, c.key(prefix)+"*", 100).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) >= 100 {
			if err := c.client.Del(ctx, batch...).Err(); err != nil {
				return apperrors.Wrap(err, apperrors.ErrCodeCacheError, "deleting cache batch")
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeCacheError, "scanning cache keys")
	}
	if len(batch) > 0 {
		if err := c.client.Del(ctx, batch...).Err(); err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeCacheError, "deleting cache batch")
		}
	}
	return nil
}

func (c *redisCache) GetOrLoad(ctx context.Context, key string, dst any, load func(ctx context.Context) (any, error), opts ...SetOption) error {
	if err := c.Get(ctx, key, dst); err == nil {
		c.recordLookup(true)
		return nil
	} else if errors.Is(err, ErrCacheMiss) {
		c.recordLookup(false)
	} else {
		// A broken cache must not take the read path down; fall through to
		// the loader.
		c.logger.Warn("cache read failed", logging.String("key", key), logging.Err(err))
	}

	raw, err, _ := c.group.Do(key, func() (any, error) {
		value, err := load(ctx)
		if err != nil {
			return nil, err
		}
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeSerialization, "encoding loaded value")
		}
		if err := c.Set(ctx, key, json.RawMessage(encoded), opts...); err != nil {
			c.logger.Warn("cache write failed", logging.String("key", key), logging.Err(err))
		}
		return encoded, nil
	})
	if err != nil {
		return err
	}

	if err := json.Unmarshal(raw.([]byte), dst); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeSerialization, "decoding loaded value")
	}
	return nil
}
