package extractkit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores raw model replies keyed by request fingerprint.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// MemoryCache is an unbounded in-process Cache.
type MemoryCache struct {
	mu    sync.RWMutex
	items map[string][]byte
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: make(map[string][]byte)}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.items[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = append([]byte(nil), value...)
	return nil
}

// Len returns the number of cached replies.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// RedisCache keeps replies in Redis with an optional TTL.
type RedisCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisCache uses client; keys are stored as prefix+fingerprint.
func NewRedisCache(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisCache {
	if prefix == "" {
		prefix = "extractkit:reply:"
	}
	return &RedisCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte) error {
	return c.client.Set(ctx, c.prefix+key, value, c.ttl).Err()
}

// CachingInvoker memoises replies of the wrapped Invoker. Cache failures are
// logged and bypassed; they never fail a generation.
type CachingInvoker struct {
	next  Invoker
	cache Cache
	log   *slog.Logger
}

func NewCachingInvoker(next Invoker, cache Cache, log *slog.Logger) *CachingInvoker {
	if log == nil {
		log = slog.Default()
	}
	return &CachingInvoker{next: next, cache: cache, log: log}
}

func (c *CachingInvoker) Generate(ctx context.Context, model Model, prompt string, params map[string]string) ([]byte, error) {
	key := cacheKey(model, prompt, params)
	if b, ok, err := c.cache.Get(ctx, key); err != nil {
		c.log.Warn("Cache lookup failed", "error", err)
	} else if ok {
		c.log.Debug("Cache hit", "key", key)
		return b, nil
	}

	b, err := c.next.Generate(ctx, model, prompt, params)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, key, b); err != nil {
		c.log.Warn("Cache store failed", "error", err)
	}
	return b, nil
}

// cacheKey fingerprints everything that influences the reply.
func cacheKey(model Model, prompt string, params map[string]string) string {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(prompt))
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		h.Write([]byte{0})
		h.Write([]byte(k))
		h.Write([]byte{'='})
		h.Write([]byte(params[k]))
	}
	return hex.EncodeToString(h.Sum(nil))
}
