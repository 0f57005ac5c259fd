// Package cache stores rendered view results keyed by snapshot ID, view and
// canonical query. A new snapshot changes every key, so entries never need
// explicit invalidation; TTLs only bound storage.
package cache

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gyaneshwarpardhi/plantboard/internal/config"
	"github.com/gyaneshwarpardhi/plantboard/internal/metrics"
)

var (
	errContextRequired = errors.New("context is required")
	errKeyRequired     = errors.New("key is required")
)

// Cache is a string key-value store with per-entry TTL. A zero TTL never
// expires.
type Cache interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Key builds the cache key of a view result. url.Values.Encode sorts by
// parameter name, so equivalent queries share a key.
func Key(snapshotID, view string, q url.Values) string {
	return snapshotID + "|" + view + "|" + q.Encode()
}

// New builds the backend named by cfg.Backend, wrapped with request metrics.
func New(ctx context.Context, cfg config.CacheConf) (Cache, error) {
	backend := strings.ToLower(strings.TrimSpace(cfg.Backend))
	var (
		c   Cache
		err error
	)
	switch backend {
	case "", "memory":
		backend = "memory"
		c = NewMemory()
	case "sqlite":
		c, err = OpenSQLite(ctx, cfg.SQLitePath)
	case "redis":
		c, err = NewRedis(ctx, cfg.RedisAddr, cfg.KeyPrefix)
	case "none":
		c = Noop{}
	default:
		return nil, fmt.Errorf("unsupported cache backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	return &instrumented{Cache: c, backend: backend}, nil
}

type instrumented struct {
	Cache
	backend string
}

func (c *instrumented) Get(ctx context.Context, key string) (string, bool, error) {
	v, ok, err := c.Cache.Get(ctx, key)
	outcome := "miss"
	switch {
	case err != nil:
		outcome = "error"
	case ok:
		outcome = "hit"
	}
	metrics.CacheRequests.WithLabelValues(c.backend, outcome).Inc()
	return v, ok, err
}

// Noop caches nothing.
type Noop struct{}

func (Noop) Get(context.Context, string) (string, bool, error)        { return "", false, nil }
func (Noop) Set(context.Context, string, string, time.Duration) error { return nil }
func (Noop) Delete(context.Context, string) error                     { return nil }
func (Noop) Close() error                                             { return nil }
