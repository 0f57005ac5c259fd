package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/gyaneshwarpardhi/plantboard/internal/errs"
)

const sweepEvery = 256

type memEntry struct {
	value   string
	expires time.Time
}

// Memory is an in-process cache.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memEntry
	writes  int
	now     func() time.Time
}

var _ Cache = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{entries: map[string]memEntry{}, now: time.Now}
}

func (m *Memory) Get(ctx context.Context, key string) (string, bool, error) {
	if err := checkArgs(ctx, key); err != nil {
		return "", false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return "", false, nil
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		delete(m.entries, key)
		return "", false, nil
	}
	return e.value, true, nil
}

func (m *Memory) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if err := checkArgs(ctx, key); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e := memEntry{value: value}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.entries[key] = e
	m.writes++
	if m.writes%sweepEvery == 0 {
		m.sweep()
	}
	return nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	if err := checkArgs(ctx, key); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() error { return nil }

// Len counts live and not yet swept entries.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// sweep drops expired entries. Caller holds mu.
func (m *Memory) sweep() {
	now := m.now()
	for k, e := range m.entries {
		if !e.expires.IsZero() && !now.Before(e.expires) {
			delete(m.entries, k)
		}
	}
}

func checkArgs(ctx context.Context, key string) error {
	if ctx == nil {
		return errs.WithStack(errContextRequired)
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}
	if strings.TrimSpace(key) == "" {
		return errs.WithStack(errKeyRequired)
	}
	return nil
}
