package oracle

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/singleflight"

	"github.com/playperu/roadrisk/internal/roadrisk"
)

// Cache stores predicted risks by key. A miss is (0, false, nil).
type Cache interface {
	Get(ctx context.Context, key string) (float64, bool, error)
	Set(ctx context.Context, key string, risk float64) error
}

// Cached is a read-through cache in front of another oracle. Concurrent
// misses for the same scenario share one upstream call, which outlives any
// single caller's cancellation.
type Cached struct {
	next          Oracle
	cache         Cache
	version       string
	logger        *slog.Logger
	flightTimeout time.Duration
	group         singleflight.Group
}

type CachedOption func(*Cached)

// WithFlightTimeout bounds the shared upstream call. Zero means no bound.
func WithFlightTimeout(d time.Duration) CachedOption {
	return func(c *Cached) { c.flightTimeout = d }
}

// NewCached wraps next. version namespaces keys so a model swap never
// serves stale risks.
func NewCached(next Oracle, cache Cache, version string, logger *slog.Logger, opts ...CachedOption) *Cached {
	c := &Cached{
		next:          next,
		cache:         cache,
		version:       version,
		logger:        logger,
		flightTimeout: 10 * time.Second,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// CacheKey is the hex BLAKE2b-256 of the scenario's JSON and the model version.
func CacheKey(version string, s roadrisk.Scenario) (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encoding scenario: %w", err)
	}
	sum := blake2b.Sum256(append([]byte(version+"\x00"), data...))
	return hex.EncodeToString(sum[:]), nil
}

// Predict serves from the cache when it can. Cache failures are logged and
// the call falls through to the wrapped oracle.
func (c *Cached) Predict(ctx context.Context, s roadrisk.Scenario) (float64, error) {
	key, err := CacheKey(c.version, s)
	if err != nil {
		return 0, err
	}

	if risk, ok, err := c.cache.Get(ctx, key); err != nil {
		c.logger.Warn("prediction cache read failed", "error", err)
	} else if ok {
		return risk, nil
	}

	ch := c.group.DoChan(key, func() (any, error) {
		fctx := context.WithoutCancel(ctx)
		if c.flightTimeout > 0 {
			var cancel context.CancelFunc
			fctx, cancel = context.WithTimeout(fctx, c.flightTimeout)
			defer cancel()
		}

		risk, err := c.next.Predict(fctx, s)
		if err != nil {
			return 0.0, err
		}
		if err := c.cache.Set(fctx, key, risk); err != nil {
			c.logger.Warn("prediction cache write failed", "error", err)
		}
		return risk, nil
	})

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return 0, res.Err
		}
		return res.Val.(float64), nil
	}
}

// MemoryCache is an in-process Cache with a fixed TTL.
type MemoryCache struct {
	ttl     time.Duration
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	risk    float64
	expires time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (m *MemoryCache) Get(_ context.Context, key string) (float64, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return 0, false, nil
	}
	if m.ttl > 0 && m.now().After(e.expires) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return 0, false, nil
	}
	return e.risk, true, nil
}

func (m *MemoryCache) Set(_ context.Context, key string, risk float64) error {
	m.mu.Lock()
	m.entries[key] = memoryEntry{risk: risk, expires: m.now().Add(m.ttl)}
	m.mu.Unlock()
	return nil
}

// Sweep drops expired entries and returns how many went.
func (m *MemoryCache) Sweep() int {
	if m.ttl <= 0 {
		return 0
	}
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for key, e := range m.entries {
		if now.After(e.expires) {
			delete(m.entries, key)
			removed++
		}
	}
	return removed
}

func (m *MemoryCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Run sweeps every interval until ctx is done.
func (m *MemoryCache) Run(ctx context.Context, interval time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			m.Sweep()
		}
	}
}

// RedisCache keeps predictions in Redis under a key prefix.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, prefix: "roadrisk:risk:", ttl: ttl}
}

func (r *RedisCache) Get(ctx context.Context, key string) (float64, bool, error) {
	val, err := r.client.Get(ctx, r.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("redis get: %w", err)
	}
	risk, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parsing cached risk: %w", err)
	}
	return risk, true, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, risk float64) error {
	val := strconv.FormatFloat(risk, 'g', -1, 64)
	if err := r.client.Set(ctx, r.prefix+key, val, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
