package dataset

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gyaneshwarpardhi/plantboard/internal/config"
	"github.com/gyaneshwarpardhi/plantboard/internal/errs"
	"github.com/gyaneshwarpardhi/plantboard/internal/metrics"
)

var (
	// ErrSourceNotFound means the configured source file does not exist.
	ErrSourceNotFound = errors.New("source file not found")
	// ErrNoSnapshot means nothing has been loaded yet.
	ErrNoSnapshot = errors.New("no snapshot loaded")
)

// State names the store condition reported to clients.
type State string

const (
	StateEmpty    State = "empty"
	StateReady    State = "ready"
	StateNotFound State = "file_not_found"
	StateError    State = "error"
)

// Status describes the current snapshot for /v1/dataset and readiness.
type Status struct {
	State          State          `json:"state"`
	Source         string         `json:"source"`
	ID             string         `json:"id,omitempty"`
	Rows           int            `json:"rows"`
	LoadedAt       time.Time      `json:"loaded_at,omitempty"`
	CheckedAt      time.Time      `json:"checked_at,omitempty"`
	MissingColumns []string       `json:"missing_columns,omitempty"`
	Rejected       map[string]int `json:"rejected,omitempty"`
	Error          string         `json:"error,omitempty"`
}

type state struct {
	snap      *Snapshot
	err       error
	checkedAt time.Time
}

// Store holds the current snapshot. Readers never block; reloads build a
// fresh snapshot and swap it in atomically.
type Store struct {
	cfg      atomic.Pointer[config.Config]
	cur      atomic.Pointer[state]
	mu       sync.Mutex // serialises reloads
	onSwap   []func(*Snapshot)
	retarget chan struct{} // data.path changed; read by Watch
}

// NewStore creates an empty store. Call Reload to load the first snapshot.
func NewStore(cfg *config.Config) *Store {
	s := &Store{retarget: make(chan struct{}, 1)}
	s.cfg.Store(cfg)
	s.cur.Store(&state{err: ErrNoSnapshot})
	return s
}

// OnSwap registers a callback run after a new snapshot replaces the old one.
func (s *Store) OnSwap(fn func(*Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSwap = append(s.onSwap, fn)
}

// SetConfig replaces the parsing config. The next Reload re-parses even if
// the file bytes did not change. A running Watch moves to a new data.path.
func (s *Store) SetConfig(cfg *config.Config) {
	old := s.cfg.Swap(cfg)
	if old != nil && old.Data.Path != cfg.Data.Path {
		select {
		case s.retarget <- struct{}{}:
		default:
		}
	}
}

// Config returns the config the store parses with.
func (s *Store) Config() *config.Config {
	return s.cfg.Load()
}

// Snapshot returns the current snapshot, or the error that prevented one.
func (s *Store) Snapshot() (*Snapshot, error) {
	st := s.cur.Load()
	if st.snap == nil {
		return nil, st.err
	}
	return st.snap, nil
}

// Swap installs snap directly. Used by tests and one-shot CLI loads.
func (s *Store) Swap(snap *Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur.Store(&state{snap: snap, checkedAt: time.Now()})
	s.publish(snap)
}

// Reload reads the source file and swaps in a new snapshot when its content
// ID differs from the current one. changed reports whether a swap happened.
func (s *Store) Reload(ctx context.Context) (snap *Snapshot, changed bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, false, errs.Wrap(err, "reload")
	}
	cfg := s.cfg.Load()
	path := cfg.Data.Path

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			metrics.DatasetLoads.WithLabelValues("not_found").Inc()
			err = errs.Wrapf(ErrSourceNotFound, "%s", path)
		} else {
			metrics.DatasetLoads.WithLabelValues("error").Inc()
			err = errs.Wrapf(err, "read source %s", path)
		}
		s.cur.Store(&state{err: err, checkedAt: time.Now()})
		return nil, false, err
	}

	if prev := s.cur.Load(); prev.snap != nil && prev.snap.ID == contentID(data, cfg) {
		metrics.DatasetLoads.WithLabelValues("unchanged").Inc()
		s.cur.Store(&state{snap: prev.snap, checkedAt: time.Now()})
		return prev.snap, false, nil
	}

	next, err := parseBytes(data, cfg)
	if err != nil {
		metrics.DatasetLoads.WithLabelValues("error").Inc()
		err = errs.Wrapf(err, "parse source %s", path)
		// A broken rewrite keeps serving the previous snapshot.
		prev := s.cur.Load()
		s.cur.Store(&state{snap: prev.snap, err: err, checkedAt: time.Now()})
		return nil, false, err
	}
	next.Source = path

	metrics.DatasetLoads.WithLabelValues("swapped").Inc()
	metrics.DatasetRows.Set(float64(next.Len()))
	metrics.MissingColumns.Set(float64(len(next.MissingColumns)))
	for col, n := range next.Rejected {
		metrics.ValuesRejected.WithLabelValues(col).Add(float64(n))
	}
	if len(next.MissingColumns) > 0 {
		slog.Warn("source is missing columns; their facets are treated as empty",
			"path", path, "columns", next.MissingColumns)
	}
	slog.Info("dataset loaded", "path", path, "id", next.ID, "rows", next.Len(), "rejected", next.Rejected)

	s.cur.Store(&state{snap: next, checkedAt: time.Now()})
	s.publish(next)
	return next, true, nil
}

func (s *Store) publish(snap *Snapshot) {
	callbacks := make([]func(*Snapshot), len(s.onSwap))
	copy(callbacks, s.onSwap)
	for _, fn := range callbacks {
		fn(snap)
	}
}

// Status reports the store condition.
func (s *Store) Status() Status {
	st := s.cur.Load()
	out := Status{Source: s.cfg.Load().Data.Path, CheckedAt: st.checkedAt}
	if st.err != nil {
		out.Error = st.err.Error()
	}
	switch {
	case st.snap != nil:
		out.State = StateReady
		out.ID = st.snap.ID
		out.Rows = st.snap.Len()
		out.LoadedAt = st.snap.LoadedAt
		out.MissingColumns = st.snap.MissingColumns
		out.Rejected = st.snap.Rejected
	case errors.Is(st.err, ErrSourceNotFound):
		out.State = StateNotFound
	case errors.Is(st.err, ErrNoSnapshot):
		out.State = StateEmpty
	default:
		out.State = StateError
	}
	return out
}

// Watch reloads the store when the source file is written, created or
// replaced. The parent directory is watched so editors that rename over
// the file are seen. Events are debounced by data.debounce_ms. When
// SetConfig changes data.path the watcher follows the new file and
// reloads from it. A store supports one Watch at a time.
func (s *Store) Watch(ctx context.Context) (stop func(), err error) {
	cfg := s.cfg.Load()
	path, err := filepath.Abs(cfg.Data.Path)
	if err != nil {
		return nil, errs.Wrap(err, "dataset watcher")
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errs.Wrap(err, "dataset watcher")
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, errs.Wrapf(err, "dataset watcher add %s", filepath.Dir(path))
	}
	// Drop a retarget signalled before the watcher existed.
	select {
	case <-s.retarget:
	default:
	}

	debounce := time.Duration(cfg.Data.DebounceMs) * time.Millisecond
	done := make(chan struct{})
	go func() {
		defer w.Close()
		var timer *time.Timer
		reload := func() {
			if _, changed, err := s.Reload(ctx); err != nil {
				slog.Warn("dataset reload failed", "err", errs.Loggable(err))
			} else if changed {
				slog.Info("dataset hot-reloaded", "path", s.cfg.Load().Data.Path)
			}
		}
		schedule := func() {
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, reload)
		}
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != path {
					continue
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) || ev.Has(fsnotify.Remove) {
					schedule()
				}
			case <-s.retarget:
				next, err := filepath.Abs(s.cfg.Load().Data.Path)
				if err != nil {
					slog.Warn("dataset watcher: bad data path", "err", err)
					continue
				}
				if dir, nextDir := filepath.Dir(path), filepath.Dir(next); dir != nextDir {
					_ = w.Remove(dir)
					if err := w.Add(nextDir); err != nil {
						slog.Warn("dataset watcher add failed", "dir", nextDir, "err", err)
					}
				}
				slog.Info("dataset watcher moved", "from", path, "to", next)
				path = next
				schedule()
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.Warn("dataset watcher error", "err", err)
			case <-ctx.Done():
				return
			case <-done:
				if timer != nil {
					timer.Stop()
				}
				return
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(done) }) }, nil
}
