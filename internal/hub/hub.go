// Package hub fans dataset reload notices out to connected clients.
package hub

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gyaneshwarpardhi/plantboard/internal/dataset"
	"github.com/gyaneshwarpardhi/plantboard/internal/metrics"
)

const subscriberBuffer = 16

// Notice tells clients that the dataset changed and views should refresh.
type Notice struct {
	Type     string    `json:"type"`
	Snapshot string    `json:"snapshot,omitempty"`
	State    string    `json:"state"`
	Rows     int       `json:"rows"`
	At       time.Time `json:"at"`
	Origin   string    `json:"origin,omitempty"` // replica that loaded the snapshot
}

const (
	TypeReloaded = "dataset_reloaded"
	TypeStatus   = "dataset_status"
)

// Reloaded is the notice for a snapshot that was just swapped in.
func Reloaded(snap *dataset.Snapshot) Notice {
	return Notice{
		Type:     TypeReloaded,
		Snapshot: snap.ID,
		State:    string(dataset.StateReady),
		Rows:     snap.Len(),
		At:       snap.LoadedAt,
	}
}

// Hub broadcasts notices to every subscriber. Slow subscribers lose notices
// instead of blocking the broadcaster.
type Hub struct {
	mu      sync.RWMutex
	subs    map[chan Notice]struct{}
	closed  bool
	dropped atomic.Int64
}

func New() *Hub {
	return &Hub{subs: map[chan Notice]struct{}{}}
}

// Subscribe returns a buffered channel of notices and a function that
// removes the subscription and closes the channel.
func (h *Hub) Subscribe() (<-chan Notice, func()) {
	ch := make(chan Notice, subscriberBuffer)
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	h.subs[ch] = struct{}{}
	metrics.NotifierClients.Set(float64(len(h.subs)))
	h.mu.Unlock()

	var once sync.Once
	return ch, func() { once.Do(func() { h.remove(ch) }) }
}

func (h *Hub) remove(ch chan Notice) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[ch]; !ok {
		return
	}
	delete(h.subs, ch)
	close(ch)
	metrics.NotifierClients.Set(float64(len(h.subs)))
}

// Publish sends n to all subscribers without blocking.
func (h *Hub) Publish(n Notice) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs {
		select {
		case ch <- n:
		default:
			total := h.dropped.Add(1)
			metrics.NotifierDropped.Inc()
			slog.Debug("hub: dropped notice for slow consumer", "total_dropped", total)
		}
	}
}

// Dropped is the number of notices lost to slow consumers.
func (h *Hub) Dropped() int64 { return h.dropped.Load() }

// Clients is the number of live subscriptions.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close ends every subscription. Later subscriptions are closed at once.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		close(ch)
	}
	h.subs = map[chan Notice]struct{}{}
	h.closed = true
	metrics.NotifierClients.Set(0)
}
