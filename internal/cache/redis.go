package cache

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/gyaneshwarpardhi/plantboard/internal/errs"
)

// Redis shares view results between server replicas.
type Redis struct {
	rdb    *goredis.Client
	prefix string
}

var _ Cache = (*Redis)(nil)

// NewRedis connects to addr and checks the connection with a ping.
func NewRedis(ctx context.Context, addr, prefix string) (*Redis, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errs.Wrapf(err, "redis ping %s", addr)
	}
	return &Redis{rdb: rdb, prefix: prefix}, nil
}

func (c *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	if err := checkArgs(ctx, key); err != nil {
		return "", false, err
	}
	v, err := c.rdb.Get(ctx, c.prefix+key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errs.Wrap(err, "redis get")
	}
	return v, true, nil
}

func (c *Redis) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if err := checkArgs(ctx, key); err != nil {
		return err
	}
	if ttl < 0 {
		ttl = 0
	}
	if err := c.rdb.Set(ctx, c.prefix+key, value, ttl).Err(); err != nil {
		return errs.Wrap(err, "redis set")
	}
	return nil
}

func (c *Redis) Delete(ctx context.Context, key string) error {
	if err := checkArgs(ctx, key); err != nil {
		return err
	}
	if err := c.rdb.Del(ctx, c.prefix+key).Err(); err != nil {
		return errs.Wrap(err, "redis del")
	}
	return nil
}

func (c *Redis) Close() error { return c.rdb.Close() }
