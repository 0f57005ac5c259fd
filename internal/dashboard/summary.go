package dashboard

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gyaneshwarpardhi/plantboard/internal/aggregate"
	"github.com/gyaneshwarpardhi/plantboard/internal/config"
	"github.com/gyaneshwarpardhi/plantboard/internal/dataset"
	"github.com/gyaneshwarpardhi/plantboard/internal/drilldown"
	"github.com/gyaneshwarpardhi/plantboard/internal/filter"
	"github.com/gyaneshwarpardhi/plantboard/internal/record"
)

// Controls lists the selector options for the current snapshot.
type Controls struct {
	Disabled bool          `json:"disabled"`
	State    dataset.State `json:"state"`
	MinDate  string        `json:"min_date,omitempty"`
	MaxDate  string        `json:"max_date,omitempty"`
	Machines []string      `json:"machines"` // the all-machines value first
	Products []string      `json:"products"`
	Units    []string      `json:"units"`
}

// Controls returns the selector options, disabled when nothing is loaded.
func (s *Service) Controls(ctx context.Context) (*Controls, error) {
	snap, cfg, err := s.current()
	if err != nil {
		return s.disabledControls(s.store.Config()), nil
	}
	return s.controls(snap, cfg), nil
}

func (s *Service) disabledControls(cfg *config.Config) *Controls {
	return &Controls{
		Disabled: true,
		State:    s.store.Status().State,
		Machines: []string{cfg.AllMachines},
		Products: []string{},
		Units:    cfg.Units,
	}
}

func (s *Service) controls(snap *dataset.Snapshot, cfg *config.Config) *Controls {
	c := &Controls{State: dataset.StateReady, Units: cfg.Units}
	lo, hi := Bounds(snap.Records)
	c.MinDate, c.MaxDate = formatDay(lo), formatDay(hi)
	c.Disabled = lo.IsZero()

	machines := map[string]string{}
	products := map[string]bool{}
	addMachine := func(name string) {
		if name == "" {
			return
		}
		k := record.MachineKey(name)
		if _, ok := machines[k]; !ok {
			machines[k] = name
		}
	}
	for _, r := range snap.Records {
		if p := r.Production; p != nil {
			addMachine(p.Machine)
			if p.Product != "" {
				products[p.Product] = true
			}
		}
		if m := r.Maintenance; m != nil {
			addMachine(m.Machine)
		}
		if in := r.Incident; in != nil {
			addMachine(in.Machine)
		}
	}
	names := make([]string, 0, len(machines))
	for _, n := range machines {
		names = append(names, n)
	}
	sort.Strings(names)
	c.Machines = append([]string{cfg.AllMachines}, names...)

	c.Products = make([]string, 0, len(products))
	for p := range products {
		c.Products = append(c.Products, p)
	}
	sort.Strings(c.Products)
	return c
}

// Bounds is the earliest and latest calendar day over the submission
// timestamp and every category date.
func Bounds(rows []*record.Record) (lo, hi time.Time) {
	see := func(t time.Time) {
		if t.IsZero() {
			return
		}
		d := record.Day(t)
		if lo.IsZero() || d.Before(lo) {
			lo = d
		}
		if d.After(hi) {
			hi = d
		}
	}
	for _, r := range rows {
		see(r.Submitted)
		if r.Production != nil {
			see(r.Production.Date)
		}
		if r.Maintenance != nil {
			see(r.Maintenance.Date)
		}
		if r.Incident != nil {
			see(r.Incident.Date)
		}
	}
	return lo, hi
}

// clampRange narrows dr to the days the table covers. Open ends take the
// table bounds.
func clampRange(dr filter.DateRange, rows []*record.Record) filter.DateRange {
	lo, hi := Bounds(rows)
	if dr.From.IsZero() || dr.From.Before(lo) {
		dr.From = lo
	}
	if dr.To.IsZero() || dr.To.After(hi) {
		dr.To = hi
	}
	return dr
}

// Summary is the landing view.
type Summary struct {
	Snapshot      string              `json:"snapshot"`
	Range         filter.DateRange    `json:"range"`
	Machine       string              `json:"machine"`
	Empty         bool                `json:"empty"`
	Total         int                 `json:"total"`
	Counts        aggregate.Counts    `json:"counts"`
	Units         []aggregate.UnitSum `json:"units"`
	Series        []aggregate.Bar     `json:"series"`
	ReferenceDate time.Time           `json:"reference_date"`
	Product       string              `json:"product,omitempty"`
	ProductionKPI []aggregate.KPI     `json:"production_kpis"`
	IncidentKPI   []aggregate.KPI     `json:"incident_kpis"`
}

// Summary computes the landing view.
func (s *Service) Summary(ctx context.Context, q Query) (*Summary, error) {
	snap, cfg, err := s.current()
	if err != nil {
		return nil, err
	}
	return s.summary(ctx, snap, cfg, q)
}

// summary fans the independent parts out over the same snapshot. Period
// KPIs always read the whole table; the range and machine only shape the
// counts.
func (s *Service) summary(ctx context.Context, snap *dataset.Snapshot, cfg *config.Config, q Query) (*Summary, error) {
	m := machineOf(cfg, q)
	out := &Summary{Snapshot: snap.ID, Range: q.Range, Machine: m.Name(), Product: q.Product}
	events := filter.Events(snap.Records, q.Range, m)
	ref := aggregate.ReferenceDate(snap.Records, s.now())
	out.ReferenceDate = ref
	t := thresholds(cfg)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out.Counts = aggregate.Count(events)
		out.Total = out.Counts.Total
		out.Series = aggregate.CategorySeries(out.Counts)
		return gctx.Err()
	})
	g.Go(func() error {
		out.Units = aggregate.UnitSums(events, cfg.Units)
		return gctx.Err()
	})
	g.Go(func() error {
		out.ProductionKPI = aggregate.ProductionKPIs(snap.Records, q.Product, ref, cfg.KPI.Windows, t)
		return gctx.Err()
	})
	g.Go(func() error {
		out.IncidentKPI = aggregate.IncidentKPIs(snap.Records, ref, cfg.KPI.Windows, t)
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out.Empty = out.Total == 0
	return out, nil
}

// Drilldown returns the rows behind one bar of the summary chart.
func (s *Service) Drilldown(ctx context.Context, q Query) (*drilldown.Table, error) {
	snap, cfg, err := s.current()
	if err != nil {
		return nil, err
	}
	return s.drilldown(snap, cfg, q)
}

func (s *Service) drilldown(snap *dataset.Snapshot, cfg *config.Config, q Query) (*drilldown.Table, error) {
	t, err := drilldown.NewResolver(cfg).Resolve(snap.Records, q.Category, q.Range, machineOf(cfg, q))
	if err != nil {
		return nil, err
	}
	return &t, nil
}
