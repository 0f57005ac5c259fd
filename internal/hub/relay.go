package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/gyaneshwarpardhi/plantboard/internal/errs"
)

// Relay shares notices between server replicas over a Redis channel, so
// clients of every replica refresh when any of them reloads.
type Relay struct {
	rdb     *goredis.Client
	channel string
	origin  string
}

// NewRelay connects to addr. Each relay gets a random origin ID so it can
// skip its own messages.
func NewRelay(ctx context.Context, addr, channel string) (*Relay, error) {
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
	return &Relay{rdb: rdb, channel: channel, origin: uuid.NewString()}, nil
}

// Origin identifies this replica.
func (r *Relay) Origin() string { return r.origin }

// Publish stamps n with this replica's origin and sends it to the channel.
func (r *Relay) Publish(ctx context.Context, n Notice) error {
	n.Origin = r.origin
	raw, err := json.Marshal(n)
	if err != nil {
		return errs.Wrap(err, "encode notice")
	}
	if err := r.rdb.Publish(ctx, r.channel, raw).Err(); err != nil {
		return errs.Wrap(err, "redis publish")
	}
	return nil
}

// Forward subscribes to the channel and publishes notices from other
// replicas into h until ctx ends.
func (r *Relay) Forward(ctx context.Context, h *Hub) error {
	sub := r.rdb.Subscribe(ctx, r.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return errs.Wrap(err, "redis subscribe")
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					return
				}
				var n Notice
				if err := json.Unmarshal([]byte(m.Payload), &n); err != nil {
					slog.Warn("bad relay payload", "err", err)
					continue
				}
				if n.Origin == r.origin {
					continue
				}
				h.Publish(n)
			}
		}
	}()
	return nil
}

func (r *Relay) Close() error { return r.rdb.Close() }
