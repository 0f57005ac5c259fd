// Package dashboard composes filters and aggregates into the views served
// over HTTP and printed by plantctl. Every view reads one immutable
// snapshot, so a response never mixes two versions of the data.
package dashboard

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gyaneshwarpardhi/plantboard/internal/aggregate"
	"github.com/gyaneshwarpardhi/plantboard/internal/cache"
	"github.com/gyaneshwarpardhi/plantboard/internal/config"
	"github.com/gyaneshwarpardhi/plantboard/internal/dataset"
	"github.com/gyaneshwarpardhi/plantboard/internal/errs"
	"github.com/gyaneshwarpardhi/plantboard/internal/filter"
	"github.com/gyaneshwarpardhi/plantboard/internal/metrics"
)

// ErrInvalidQuery marks selections a view cannot answer.
var ErrInvalidQuery = errors.New("invalid query")

// View names a dashboard view.
type View string

const (
	ViewControls     View = "controls"
	ViewSummary      View = "summary"
	ViewDrilldown    View = "drilldown"
	ViewProduction   View = "production"
	ViewMaintenance  View = "maintenance"
	ViewIncidents    View = "incidents"
	ViewTimeline     View = "timeline"
	ViewDay          View = "day"
	ViewObservations View = "observations"
)

type viewFunc func(s *Service, ctx context.Context, snap *dataset.Snapshot, cfg *config.Config, q Query) (any, error)

var views = map[View]viewFunc{
	ViewControls: func(s *Service, _ context.Context, snap *dataset.Snapshot, cfg *config.Config, _ Query) (any, error) {
		return s.controls(snap, cfg), nil
	},
	ViewSummary: func(s *Service, ctx context.Context, snap *dataset.Snapshot, cfg *config.Config, q Query) (any, error) {
		return s.summary(ctx, snap, cfg, q)
	},
	ViewDrilldown: func(s *Service, _ context.Context, snap *dataset.Snapshot, cfg *config.Config, q Query) (any, error) {
		return s.drilldown(snap, cfg, q)
	},
	ViewProduction: func(s *Service, _ context.Context, snap *dataset.Snapshot, cfg *config.Config, q Query) (any, error) {
		return s.production(snap, cfg, q), nil
	},
	ViewMaintenance: func(s *Service, _ context.Context, snap *dataset.Snapshot, cfg *config.Config, q Query) (any, error) {
		return s.maintenance(snap, cfg, q), nil
	},
	ViewIncidents: func(s *Service, _ context.Context, snap *dataset.Snapshot, cfg *config.Config, q Query) (any, error) {
		return s.incidents(snap, cfg, q), nil
	},
	ViewTimeline: func(s *Service, _ context.Context, snap *dataset.Snapshot, cfg *config.Config, q Query) (any, error) {
		return s.timeline(snap, cfg, q)
	},
	ViewDay: func(s *Service, _ context.Context, snap *dataset.Snapshot, cfg *config.Config, q Query) (any, error) {
		return s.daySummary(snap, cfg, q)
	},
	ViewObservations: func(s *Service, _ context.Context, snap *dataset.Snapshot, cfg *config.Config, q Query) (any, error) {
		return s.observations(snap, cfg, q), nil
	},
}

// Service answers view requests from the store's current snapshot.
type Service struct {
	store *dataset.Store
	cache cache.Cache
	ttl   time.Duration
	now   func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithCache stores encoded views in c for ttl.
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = c
		s.ttl = ttl
	}
}

// WithClock replaces time.Now, which anchors KPIs when the data has no dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(store *dataset.Store, opts ...Option) *Service {
	s := &Service{store: store, cache: cache.Noop{}, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Store is the snapshot store behind the service.
func (s *Service) Store() *dataset.Store { return s.store }

// JSON returns the encoded view. Results are cached per snapshot, view
// settings and canonical query; cache failures only cost a recompute.
func (s *Service) JSON(ctx context.Context, view View, q Query) ([]byte, error) {
	fn, ok := views[view]
	if !ok {
		return nil, fmt.Errorf("%w: unknown view %q", ErrInvalidQuery, view)
	}
	start := time.Now()
	defer func() {
		metrics.ViewDuration.WithLabelValues(string(view)).Observe(float64(time.Since(start).Microseconds()) / 1000)
	}()

	cfg := s.store.Config()
	snap, err := s.store.Snapshot()
	if err != nil {
		if view == ViewControls {
			return json.Marshal(s.disabledControls(cfg))
		}
		return nil, err
	}

	key := cache.Key(snap.ID+"."+viewSettingsTag(cfg), string(view), q.Values())
	if body, found, err := s.cache.Get(ctx, key); err != nil {
		slog.Warn("view cache lookup failed", "view", view, "err", errs.Loggable(err))
	} else if found {
		return []byte(body), nil
	}

	v, err := fn(s, ctx, snap, cfg, q)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(v)
	if err != nil {
		return nil, errs.Wrapf(err, "encode %s view", view)
	}
	if err := s.cache.Set(ctx, key, string(body), s.ttl); err != nil {
		slog.Warn("view cache store failed", "view", view, "err", errs.Loggable(err))
	}
	return body, nil
}

// viewSettingsTag fingerprints the config that shapes views but not
// parsing, so editing thresholds or labels never serves stale results.
func viewSettingsTag(cfg *config.Config) string {
	raw, _ := json.Marshal(struct {
		KPI           config.KPIConf
		AllMachines   string
		Units         []string
		Abbreviations map[string]string
		Stopwords     []string
		EventTypes    config.EventTypeNames
	}{cfg.KPI, cfg.AllMachines, cfg.Units, cfg.Abbreviations, cfg.Stopwords, cfg.EventTypes})
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:4])
}

func (s *Service) current() (*dataset.Snapshot, *config.Config, error) {
	snap, err := s.store.Snapshot()
	if err != nil {
		return nil, nil, err
	}
	return snap, s.store.Config(), nil
}

func machineOf(cfg *config.Config, q Query) filter.Machine {
	return filter.SelectMachine(q.Machine, cfg.AllMachines)
}

func thresholds(cfg *config.Config) aggregate.Thresholds {
	return aggregate.Thresholds{Positive: cfg.KPI.PositiveThreshold, Negative: cfg.KPI.NegativeThreshold}
}
