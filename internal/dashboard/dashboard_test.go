package dashboard_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/gyaneshwarpardhi/plantboard/internal/aggregate"
	"github.com/gyaneshwarpardhi/plantboard/internal/cache"
	"github.com/gyaneshwarpardhi/plantboard/internal/config"
	"github.com/gyaneshwarpardhi/plantboard/internal/dashboard"
	"github.com/gyaneshwarpardhi/plantboard/internal/dataset"
	"github.com/gyaneshwarpardhi/plantboard/internal/filter"
	"github.com/gyaneshwarpardhi/plantboard/internal/record"
)

func d(month time.Month, day int) time.Time { return time.Date(2024, month, day, 0, 0, 0, 0, time.UTC) }

func production(i int, day time.Time, machine, product string, qty float64) *record.Record {
	return &record.Record{Index: i, Category: record.Production, Submitted: day,
		Production: &record.ProductionFacet{Date: day, Machine: machine, Occurred: true, Product: product,
			Quantity: record.Number{Value: qty, Valid: true}, Unit: "Blisters", Start: "08:00", End: "12:00"}}
}

func fixture() []*record.Record {
	stray := production(5, d(3, 12), "Blistera A", "Ibuprofeno", 50)
	stray.Incident = &record.IncidentFacet{Date: d(3, 12), Machine: "Blistera A", Start: "10:00", End: "10:30"}

	return []*record.Record{
		production(0, d(3, 14), "Blistera A", "Ibuprofeno", 400),
		production(1, d(3, 10), "Blistera A", "Ibuprofeno", 300),
		production(2, d(3, 5), "Blistera A", "Ibuprofeno", 300),
		{Index: 3, Category: record.Maintenance, Submitted: d(3, 12),
			Maintenance: &record.MaintenanceFacet{Date: d(3, 12), Machine: "Blistera A", Performed: true, Type: "Preventivo",
				Start: "13:00", End: "14:30", Anomalies: true, AnomalyAnswer: "Sí"}},
		{Index: 4, Category: record.Incident, Submitted: d(3, 12),
			Incident: &record.IncidentFacet{Date: d(3, 12), Machine: "Blistera A", Description: "Atasco", Start: "09:00", End: "09:45"}},
		stray,
		{Index: 6, Category: record.Observation, Submitted: d(3, 11).Add(8 * time.Hour), Notes: "Falta de insumos en blistera"},
		{Index: 7, Category: record.Observation, Submitted: d(3, 13).Add(9 * time.Hour), Notes: "Insumos repuestos"},
		{Index: 8, Category: record.Maintenance, Submitted: d(3, 13),
			Maintenance: &record.MaintenanceFacet{Date: d(3, 13), Machine: "Mezcladora", Performed: true}},
	}
}

func newService(t *testing.T, opts ...dashboard.Option) (*dashboard.Service, *dataset.Store) {
	t.Helper()
	store := dataset.NewStore(config.Default())
	store.Swap(&dataset.Snapshot{ID: "snap-1", Records: fixture(), Rejected: map[string]int{}})
	opts = append([]dashboard.Option{dashboard.WithClock(func() time.Time { return d(6, 1) })}, opts...)
	return dashboard.New(store, opts...), store
}

func TestSummaryMatchesDrilldown(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	queries := []dashboard.Query{
		{},
		{Range: filter.DateRange{From: d(3, 10), To: d(3, 12)}},
		{Machine: "blistera a"},
		{Machine: "Todas", Range: filter.DateRange{From: d(3, 13)}},
	}
	for _, q := range queries {
		sum, err := svc.Summary(ctx, q)
		if err != nil {
			t.Fatal(err)
		}
		for _, bar := range sum.Series {
			dq := q
			dq.Category = bar.Label
			tbl, err := svc.Drilldown(ctx, dq)
			if err != nil {
				t.Fatalf("Drilldown(%s): %v", bar.Label, err)
			}
			if tbl.Len() != bar.Count {
				t.Errorf("query %+v %s: drilldown %d rows, chart %d", q, bar.Label, tbl.Len(), bar.Count)
			}
		}
	}
}

func TestSummaryKPIs(t *testing.T) {
	svc, _ := newService(t)
	sum, err := svc.Summary(context.Background(), dashboard.Query{Product: "Ibuprofeno"})
	if err != nil {
		t.Fatal(err)
	}
	if !sum.ReferenceDate.Equal(d(3, 14)) {
		t.Errorf("reference date = %v", sum.ReferenceDate)
	}
	week := sum.ProductionKPI[0]
	// current 8-14 Mar: 400 + 300 + 50; previous 1-7 Mar: 300.
	if week.Current != 750 || week.Previous != 300 || week.Class != aggregate.Positive {
		t.Errorf("weekly production KPI = %+v", week)
	}
	if sum.Counts.Production != 4 || sum.Counts.Incidents != 1 || sum.Counts.Maintenance != 2 || sum.Counts.Observations != 2 {
		t.Errorf("counts = %+v", sum.Counts)
	}
	if sum.Empty {
		t.Error("summary should not be empty")
	}
}

func TestIncidentsPageIncludesStrayRows(t *testing.T) {
	svc, _ := newService(t)
	v, err := svc.Incidents(context.Background(), dashboard.Query{Machine: "Blistera A"})
	if err != nil {
		t.Fatal(err)
	}
	if v.Count != 2 || v.Mode != filter.ModeIncidentPage {
		t.Fatalf("incidents = %d (%s), want 2 in incident-page mode", v.Count, v.Mode)
	}
	if v.Detail.Records[0].Index != 4 {
		t.Errorf("detail should start with the 09:00 incident, got row %d", v.Detail.Records[0].Index)
	}
	if len(v.Daily) != 1 || v.Daily[0].Value != 2 {
		t.Errorf("daily = %+v", v.Daily)
	}
}

func TestTimelineNeedsMachine(t *testing.T) {
	svc, _ := newService(t)
	if _, err := svc.Timeline(context.Background(), dashboard.Query{}); !errors.Is(err, dashboard.ErrInvalidQuery) {
		t.Fatalf("err = %v, want ErrInvalidQuery", err)
	}
	tl, err := svc.Timeline(context.Background(), dashboard.Query{Machine: "Blistera A"})
	if err != nil {
		t.Fatal(err)
	}
	if len(tl.IncidentDays) != 1 || !tl.IncidentDays[0].Equal(d(3, 12)) {
		t.Errorf("incident days = %v", tl.IncidentDays)
	}
	if len(tl.Production) != 10 { // 5..14 March
		t.Errorf("production points = %d", len(tl.Production))
	}
}

func TestDailySeriesClampedToData(t *testing.T) {
	svc, _ := newService(t)
	wide := filter.DateRange{
		From: time.Date(1000, 1, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC),
	}
	tests := []struct {
		name          string
		dr            filter.DateRange
		wantIncidents int
		wantTimeline  int
	}{
		{"far wider than the data", wide, 10, 10}, // 5..14 March
		{"open start", filter.DateRange{To: d(3, 12)}, 1, 8},
		{"outside the data", filter.DateRange{From: d(4, 1), To: d(4, 30)}, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := dashboard.Query{Machine: "Blistera A", Range: tt.dr}
			inc, err := svc.Incidents(context.Background(), q)
			if err != nil {
				t.Fatal(err)
			}
			if len(inc.Daily) != tt.wantIncidents {
				t.Errorf("incident daily points = %d, want %d", len(inc.Daily), tt.wantIncidents)
			}
			tl, err := svc.Timeline(context.Background(), q)
			if err != nil {
				t.Fatal(err)
			}
			if len(tl.Production) != tt.wantTimeline {
				t.Errorf("timeline points = %d, want %d", len(tl.Production), tt.wantTimeline)
			}
		})
	}
}

func TestDaySummary(t *testing.T) {
	svc, _ := newService(t)
	ds, err := svc.DaySummary(context.Background(), dashboard.Query{Machine: "Blistera A", Day: d(3, 12)})
	if err != nil {
		t.Fatal(err)
	}
	if len(ds.Production) != 1 || len(ds.Incidents) != 2 || len(ds.Maintenance) != 1 {
		t.Fatalf("day summary = %+v", ds)
	}
	if ds.Incidents[0].Minutes == nil || *ds.Incidents[0].Minutes != 45 {
		t.Errorf("first incident minutes = %v", ds.Incidents[0].Minutes)
	}
	if ds.Maintenance[0].Duration != "1 hr 30 min" {
		t.Errorf("maintenance duration = %q", ds.Maintenance[0].Duration)
	}
	if _, err := svc.DaySummary(context.Background(), dashboard.Query{Machine: "Blistera A"}); !errors.Is(err, dashboard.ErrInvalidQuery) {
		t.Errorf("missing day: err = %v", err)
	}
}

func TestMaintenanceView(t *testing.T) {
	svc, _ := newService(t)
	v, err := svc.Maintenance(context.Background(), dashboard.Query{})
	if err != nil {
		t.Fatal(err)
	}
	if v.AnomalyFree.Total != 2 || v.AnomalyFree.Text != "50.0%" || v.AnomalyFree.Class != aggregate.Negative {
		t.Errorf("anomaly KPI = %+v", v.AnomalyFree)
	}
	if v.TotalText != "1 hr 30 min" {
		t.Errorf("total = %q", v.TotalText)
	}
}

func TestProductionView(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	v, err := svc.Production(ctx, dashboard.Query{})
	if err != nil {
		t.Fatal(err)
	}
	if v.Status != aggregate.StatusSelectProduct {
		t.Errorf("status without product = %q", v.Status)
	}

	v, err = svc.Production(ctx, dashboard.Query{Product: "Ibuprofeno", Range: filter.DateRange{From: d(3, 10)}})
	if err != nil {
		t.Fatal(err)
	}
	if len(v.Rollup) != 1 || v.Rollup[0].Quantity != 750 || v.Rollup[0].Hours != 12 {
		t.Errorf("rollup = %+v", v.Rollup)
	}
	if v.Detail.Len() != 3 {
		t.Errorf("detail rows = %d", v.Detail.Len())
	}
}

func TestObservationsNewestFirst(t *testing.T) {
	svc, _ := newService(t)
	v, err := svc.Observations(context.Background(), dashboard.Query{})
	if err != nil {
		t.Fatal(err)
	}
	if v.Count != 2 || v.Notes.Records[0].Index != 7 {
		t.Fatalf("observations = %+v", v.Notes.Records)
	}
	if len(v.Terms) == 0 || v.Terms[0].Term != "insumos" || v.Terms[0].Count != 2 {
		t.Errorf("terms = %+v", v.Terms)
	}
}

func TestJSONCachesPerSnapshot(t *testing.T) {
	mem := cache.NewMemory()
	svc, store := newService(t, dashboard.WithCache(mem, time.Minute))
	ctx := context.Background()

	first, err := svc.JSON(ctx, dashboard.ViewSummary, dashboard.Query{})
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.JSON(ctx, dashboard.ViewSummary, dashboard.Query{})
	if err != nil {
		t.Fatal(err)
	}
	if string(first) != string(second) || mem.Len() != 1 {
		t.Fatalf("second call should hit the cache (entries %d)", mem.Len())
	}

	store.Swap(&dataset.Snapshot{ID: "snap-2", Records: fixture()[:3]})
	third, err := svc.JSON(ctx, dashboard.ViewSummary, dashboard.Query{})
	if err != nil {
		t.Fatal(err)
	}
	var sum dashboard.Summary
	if err := json.Unmarshal(third, &sum); err != nil {
		t.Fatal(err)
	}
	if sum.Snapshot != "snap-2" || sum.Total != 3 || mem.Len() != 2 {
		t.Errorf("after swap: snapshot %q total %d entries %d", sum.Snapshot, sum.Total, mem.Len())
	}
}

func TestNoSnapshot(t *testing.T) {
	store := dataset.NewStore(config.Default())
	svc := dashboard.New(store)
	ctx := context.Background()

	if _, err := svc.JSON(ctx, dashboard.ViewSummary, dashboard.Query{}); !errors.Is(err, dataset.ErrNoSnapshot) {
		t.Errorf("summary err = %v", err)
	}
	body, err := svc.JSON(ctx, dashboard.ViewControls, dashboard.Query{})
	if err != nil {
		t.Fatal(err)
	}
	var c dashboard.Controls
	if err := json.Unmarshal(body, &c); err != nil {
		t.Fatal(err)
	}
	if !c.Disabled || c.State != dataset.StateEmpty || c.Machines[0] != "Todas" {
		t.Errorf("controls = %+v", c)
	}
}

func TestControls(t *testing.T) {
	svc, _ := newService(t)
	c, err := svc.Controls(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if c.Disabled || c.MinDate != "2024-03-05" || c.MaxDate != "2024-03-14" {
		t.Errorf("controls = %+v", c)
	}
	want := []string{"Todas", "Blistera A", "Mezcladora"}
	if len(c.Machines) != len(want) {
		t.Fatalf("machines = %v", c.Machines)
	}
	for i := range want {
		if c.Machines[i] != want[i] {
			t.Errorf("machines[%d] = %q, want %q", i, c.Machines[i], want[i])
		}
	}
}

func TestParseQuery(t *testing.T) {
	cases := []struct {
		name    string
		in      url.Values
		wantErr bool
	}{
		{"empty", url.Values{}, false},
		{"range", url.Values{"from": {"2024-03-01"}, "to": {"2024-03-31"}}, false},
		{"reversed", url.Values{"from": {"2024-03-31"}, "to": {"2024-03-01"}}, true},
		{"bad date", url.Values{"from": {"01/03/2024"}}, true},
		{"bad top", url.Values{"top": {"-1"}}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q, err := dashboard.ParseQuery(tc.in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v", err)
			}
			if err != nil && !errors.Is(err, dashboard.ErrInvalidQuery) {
				t.Errorf("err %v does not wrap ErrInvalidQuery", err)
			}
			if err == nil && q.Values().Encode() != tc.in.Encode() {
				t.Errorf("round trip %q != %q", q.Values().Encode(), tc.in.Encode())
			}
		})
	}
}
