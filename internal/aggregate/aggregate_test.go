package aggregate_test

import (
	"math"
	"testing"
	"time"

	"github.com/gyaneshwarpardhi/plantboard/internal/aggregate"
	"github.com/gyaneshwarpardhi/plantboard/internal/filter"
	"github.com/gyaneshwarpardhi/plantboard/internal/record"
)

func d(month time.Month, day int) time.Time { return time.Date(2024, month, day, 0, 0, 0, 0, time.UTC) }

func production(i int, day time.Time, machine, product string, qty float64, unit, start, end string) *record.Record {
	return &record.Record{Index: i, Category: record.Production, Submitted: day,
		Production: &record.ProductionFacet{Date: day, Machine: machine, Occurred: true, Product: product,
			Quantity: record.Number{Value: qty, Valid: true}, Unit: unit, Start: start, End: end}}
}

func incident(i int, day time.Time, machine string) *record.Record {
	return &record.Record{Index: i, Category: record.Incident, Submitted: day,
		Incident: &record.IncidentFacet{Date: day, Machine: machine}}
}

func maintenance(i int, day time.Time, machine string, anomalies bool, start, end string) *record.Record {
	return &record.Record{Index: i, Category: record.Maintenance, Submitted: day,
		Maintenance: &record.MaintenanceFacet{Date: day, Machine: machine, Performed: true, Anomalies: anomalies, Start: start, End: end}}
}

func TestVary(t *testing.T) {
	cases := []struct {
		name      string
		cur, prev float64
		known     bool
		want      float64
		defined   bool
		text      string
	}{
		{"unknown previous", 10, 0, false, 0, false, "N/A"},
		{"both zero", 0, 0, true, 0, true, "+0.0%"},
		{"from zero", 5, 0, true, math.Inf(1), true, "+Inf%"},
		{"to zero", 0, 40, true, -100, true, "-100%"},
		{"growth", 700, 300, true, 400.0 / 3, true, "+133.3%"},
		{"drop", 90, 100, true, -10, true, "-10.0%"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := aggregate.Vary(tc.cur, tc.prev, tc.known)
			if v.Defined != tc.defined {
				t.Fatalf("Defined = %v", v.Defined)
			}
			if tc.defined && math.Abs(v.Percent-tc.want) > 1e-9 && !(math.IsInf(tc.want, 1) && math.IsInf(v.Percent, 1)) {
				t.Fatalf("Percent = %v, want %v", v.Percent, tc.want)
			}
			if got := v.Text(); got != tc.text {
				t.Fatalf("Text = %q, want %q", got, tc.text)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	th := aggregate.DefaultThresholds
	cases := []struct {
		pct  float64
		pol  aggregate.Polarity
		want aggregate.Class
	}{
		{133.3, aggregate.HigherIsBetter, aggregate.Positive},
		{5, aggregate.HigherIsBetter, aggregate.Neutral},
		{-5, aggregate.HigherIsBetter, aggregate.Neutral},
		{-5.1, aggregate.HigherIsBetter, aggregate.Negative},
		{math.Inf(1), aggregate.HigherIsBetter, aggregate.Positive},
		{-100, aggregate.HigherIsBetter, aggregate.Negative},
		{-20, aggregate.LowerIsBetter, aggregate.Positive},
		{20, aggregate.LowerIsBetter, aggregate.Negative},
		{math.Inf(1), aggregate.LowerIsBetter, aggregate.Negative},
		{2, aggregate.LowerIsBetter, aggregate.Neutral},
	}
	for _, tc := range cases {
		v := aggregate.Variation{Percent: tc.pct, Defined: true}
		if got := aggregate.Classify(v, tc.pol, th); got != tc.want {
			t.Errorf("Classify(%v, %v) = %s, want %s", tc.pct, tc.pol, got, tc.want)
		}
	}
	if got := aggregate.Classify(aggregate.Variation{}, aggregate.HigherIsBetter, th); got != aggregate.None {
		t.Errorf("undefined variation class = %s", got)
	}
}

func TestWeeklyProductionKPI(t *testing.T) {
	var rows []*record.Record
	// Current week Jan 8-14: ten rows totalling 700.
	for i := 0; i < 10; i++ {
		rows = append(rows, production(i, d(1, 8+i%7), "A", "Ibuprofeno", 70, "Comprimidos", "", ""))
	}
	// Prior week Jan 1-7: five rows totalling 300.
	for i := 0; i < 5; i++ {
		rows = append(rows, production(10+i, d(1, 1+i), "A", "Ibuprofeno", 60, "Comprimidos", "", ""))
	}
	rows = append(rows, production(20, d(1, 10), "A", "Paracetamol", 999, "Comprimidos", "", ""))

	ref := aggregate.ReferenceDate(rows, time.Now())
	if !ref.Equal(d(1, 14)) {
		t.Fatalf("reference date = %v", ref)
	}
	kpis := aggregate.ProductionKPIs(rows, "Ibuprofeno", ref, []int{7}, aggregate.DefaultThresholds)
	k := kpis[0]
	if k.Current != 700 || k.Previous != 300 {
		t.Fatalf("current=%v previous=%v", k.Current, k.Previous)
	}
	if k.Variation.Text() != "+133.3%" || k.Class != aggregate.Positive {
		t.Fatalf("variation %s class %s", k.Variation.Text(), k.Class)
	}
	if k.Unit != "Comprimidos" || k.Status != aggregate.StatusOK {
		t.Fatalf("unit %q status %q", k.Unit, k.Status)
	}

	if got := aggregate.ProductionKPIs(rows, "", ref, []int{7}, aggregate.DefaultThresholds)[0]; got.Status != aggregate.StatusSelectProduct || got.Variation.Text() != "N/A" {
		t.Fatalf("no product: %+v", got)
	}
	if got := aggregate.ProductionKPIs(rows, "Aspirina", ref, []int{7}, aggregate.DefaultThresholds)[0]; got.Status != aggregate.StatusNoData {
		t.Fatalf("unknown product: %+v", got)
	}
}

func TestIncidentKPIsInverted(t *testing.T) {
	rows := []*record.Record{
		incident(0, d(1, 2), "A"), incident(1, d(1, 3), "A"), incident(2, d(1, 4), "A"),
		incident(3, d(1, 12), "A"),
		production(4, d(1, 14), "A", "X", 1, "Blisters", "", ""),
	}
	ref := aggregate.ReferenceDate(rows, time.Now())
	k := aggregate.IncidentKPIs(rows, ref, []int{7}, aggregate.DefaultThresholds)[0]
	if k.Current != 1 || k.Previous != 3 {
		t.Fatalf("current=%v previous=%v", k.Current, k.Previous)
	}
	if k.Class != aggregate.Positive {
		t.Fatalf("fewer incidents should be positive, got %s (%s)", k.Class, k.Variation.Text())
	}
}

func TestWindow(t *testing.T) {
	w := aggregate.NewWindow(d(3, 31), 30)
	if !w.Current.From.Equal(d(3, 2)) || !w.Previous.To.Equal(d(3, 1)) || !w.Previous.From.Equal(d(2, 1)) {
		t.Fatalf("window = %+v", w)
	}
	if w.Label != "Month" {
		t.Fatalf("label = %q", w.Label)
	}
}

func TestReferenceDateFallsBackToNow(t *testing.T) {
	now := time.Date(2025, 6, 1, 15, 4, 5, 0, time.UTC)
	obs := &record.Record{Category: record.Observation, Submitted: d(1, 1)}
	if got := aggregate.ReferenceDate([]*record.Record{obs}, now); !got.Equal(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("ReferenceDate = %v", got)
	}
}

func TestCountsAndSeries(t *testing.T) {
	notPerformed := maintenance(3, d(1, 2), "B", false, "", "")
	notPerformed.Maintenance.Performed = false
	rows := []*record.Record{
		{Index: 0, Category: record.Observation, Submitted: d(1, 1)},
		production(1, d(1, 1), "A", "X", 10, "Blisters", "", ""),
		incident(2, d(1, 1), "A"),
		notPerformed,
		maintenance(4, d(1, 2), "B", false, "", ""),
	}
	c := aggregate.Count(rows)
	if c.Total != 5 || c.Production != 1 || c.Maintenance != 1 || c.Incidents != 1 || c.Observations != 1 {
		t.Fatalf("counts = %+v", c)
	}
	series := aggregate.CategorySeries(c)
	want := []string{"Production", "Maintenance", "Incidents", "Observations"}
	for i, b := range series {
		if b.Label != want[i] {
			t.Fatalf("series order = %v", series)
		}
	}
}

func TestUnitSums(t *testing.T) {
	rows := []*record.Record{
		production(0, d(1, 1), "A", "X", 10, "Blisters", "", ""),
		production(1, d(1, 1), "A", "X", 5, "Blisters", "", ""),
		production(2, d(1, 1), "A", "X", 2, "Kilogramos", "", ""),
	}
	got := aggregate.UnitSums(rows, []string{"Comprimidos", "Blisters", "Litros"})
	want := []aggregate.UnitSum{
		{Unit: "Comprimidos"}, {Unit: "Blisters", Quantity: 15}, {Unit: "Litros"}, {Unit: "Kilogramos", Quantity: 2},
	}
	if len(got) != len(want) {
		t.Fatalf("UnitSums = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("UnitSums[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestRollupEfficiency(t *testing.T) {
	rows := []*record.Record{
		production(0, d(1, 1), "A", "X", 100, "Blisters", "08:00", "10:00"),
		production(1, d(1, 2), "a ", "X", 50, "Blisters", "10:00 PM", "12:00 AM"),
		production(2, d(1, 1), "B", "X", 30, "Litros", "09:00", "09:00"),
		production(3, d(1, 1), "C", "X", 30, "Litros", "", ""),
		production(4, d(1, 3), "A", "X", 500, "Blisters", "xx:yy", "zz:ww"),
	}
	got := aggregate.Rollup(rows)
	if len(got) != 1 {
		t.Fatalf("runs without a positive duration should be left out: %+v", got)
	}
	a := got[0]
	if a.Quantity != 150 || a.Hours != 4 || a.Efficiency != 37.5 || a.Runs != 2 {
		t.Fatalf("A = %+v", a)
	}
	if top := aggregate.ByEfficiency(got)[0]; top.Machine != "A" {
		t.Fatalf("ByEfficiency first = %+v", top)
	}
}

func TestRollupSkipsUnusableTimes(t *testing.T) {
	tests := []struct {
		name       string
		rows       []*record.Record
		wantQty    float64
		wantEff    float64
		wantRuns   int
		wantGroups int
	}{
		{
			name: "bad times on one run",
			rows: []*record.Record{
				production(0, d(1, 1), "A", "X", 100, "Blisters", "08:00", "09:00"),
				production(1, d(1, 1), "A", "X", 100, "Blisters", "xx:yy", "zz:ww"),
			},
			wantQty: 100, wantEff: 100, wantRuns: 1, wantGroups: 1,
		},
		{
			name: "zero duration only",
			rows: []*record.Record{
				production(0, d(1, 1), "B", "X", 30, "Litros", "09:00", "09:00"),
			},
			wantGroups: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := aggregate.Rollup(tt.rows)
			if len(got) != tt.wantGroups {
				t.Fatalf("rollup = %+v", got)
			}
			if tt.wantGroups == 0 {
				return
			}
			mu := got[0]
			if mu.Quantity != tt.wantQty || mu.Efficiency != tt.wantEff || mu.Runs != tt.wantRuns || math.IsNaN(mu.Efficiency) {
				t.Errorf("rollup = %+v", mu)
			}
		})
	}
}

func TestFillDaysCapped(t *testing.T) {
	from := time.Date(1000, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
	got := aggregate.FillDays(nil, from, to)
	if len(got) != aggregate.MaxFillDays {
		t.Fatalf("len = %d, want %d", len(got), aggregate.MaxFillDays)
	}
	if !got[len(got)-1].Day.Equal(to) {
		t.Errorf("last day = %v, want %v", got[len(got)-1].Day, to)
	}
}

func TestDailyAndFill(t *testing.T) {
	rows := []*record.Record{
		incident(0, d(1, 3), "A"),
		incident(1, d(1, 3), "A"),
		incident(2, d(1, 1), "A"),
	}
	pts := aggregate.Daily(rows, aggregate.IncidentDate, aggregate.One)
	if len(pts) != 2 || pts[0].Value != 1 || pts[1].Value != 2 {
		t.Fatalf("Daily = %+v", pts)
	}
	filled := aggregate.FillDays(pts, d(1, 1), d(1, 4))
	if len(filled) != 4 || filled[1].Value != 0 || filled[2].Value != 2 {
		t.Fatalf("FillDays = %+v", filled)
	}
}

func TestMachineTimeline(t *testing.T) {
	stray := production(3, d(1, 2), "A", "X", 7, "Blisters", "", "")
	stray.Incident = &record.IncidentFacet{Date: d(1, 2), Machine: "A"}
	rows := []*record.Record{
		production(0, d(1, 1), "A", "X", 10, "Blisters", "", ""),
		incident(1, d(1, 3), "A"),
		maintenance(2, d(1, 3), "A", false, "", ""),
		stray,
		production(4, d(1, 1), "B", "X", 99, "Blisters", "", ""),
	}
	tl := aggregate.MachineTimeline(rows, filter.SelectMachine("A", ""), filter.DateRange{From: d(1, 1), To: d(1, 3)})
	if len(tl.Production) != 3 || tl.Production[0].Value != 10 || tl.Production[1].Value != 7 || tl.Production[2].Value != 0 {
		t.Fatalf("production = %+v", tl.Production)
	}
	if len(tl.IncidentDays) != 2 || len(tl.MaintenanceDays) != 1 || tl.Unit != "Blisters" {
		t.Fatalf("timeline = %+v", tl)
	}
}

func TestAnomalyFree(t *testing.T) {
	var rows []*record.Record
	for i := 0; i < 4; i++ {
		rows = append(rows, maintenance(i, d(1, 1), "A", i == 0, "", ""))
	}
	k := aggregate.AnomalyFree(rows, 75, 60)
	if k.Percent != 75 || k.Class != aggregate.Positive || k.Text != "75.0%" {
		t.Fatalf("kpi = %+v", k)
	}
	rows[1].Maintenance.Anomalies = true
	if k := aggregate.AnomalyFree(rows, 75, 60); k.Class != aggregate.Negative {
		t.Fatalf("50%% should be negative: %+v", k)
	}
	if k := aggregate.AnomalyFree(nil, 75, 60); k.Text != "N/A" || k.Class != aggregate.None {
		t.Fatalf("empty = %+v", k)
	}
}

func TestShortenMachine(t *testing.T) {
	abbrev := map[string]string{"Comprimidora / Tableteadora (Nueva)": "COMP./TAB. (Nueva)"}
	cases := map[string]string{
		"Comprimidora / Tableteadora (Nueva) – COD 1234": "COMP./TAB. (Nueva)",
		"Blistera Uhlmann - COD 77":                      "Blistera Uhlmann",
		"Mezcladora":                                     "Mezcladora",
	}
	for in, want := range cases {
		if got := aggregate.ShortenMachine(in, abbrev); got != want {
			t.Errorf("ShortenMachine(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCountByMachine(t *testing.T) {
	rows := []*record.Record{
		maintenance(0, d(1, 1), "B", false, "", ""),
		maintenance(1, d(1, 1), "A", false, "", ""),
		maintenance(2, d(1, 1), "b", false, "", ""),
	}
	got := aggregate.CountByMachine(rows, aggregate.MaintenanceMachine, nil)
	if len(got) != 2 || got[0].Machine != "B" || got[0].Count != 2 {
		t.Fatalf("CountByMachine = %+v", got)
	}
}

func TestMaintenanceHours(t *testing.T) {
	pts := aggregate.Daily([]*record.Record{
		maintenance(0, d(1, 1), "A", false, "8:00 AM", "9:30 AM"),
		maintenance(1, d(1, 1), "A", false, "10:00", "11:00"),
		maintenance(2, d(1, 2), "A", false, "", ""),
	}, aggregate.MaintenanceDate, aggregate.MaintenanceHours)
	if len(pts) != 1 || pts[0].Value != 2.5 {
		t.Fatalf("daily hours = %+v", pts)
	}
}

func TestTopTerms(t *testing.T) {
	texts := []string{
		"Falta de insumos en la línea 2.",
		"Insumos demorados; falta personal!",
		"Se cortó la luz 3 veces",
	}
	got := aggregate.TopTerms(texts, []string{"veces"}, 2)
	if len(got) != 2 || got[0].Term != "falta" || got[0].Count != 2 || got[1].Term != "insumos" {
		t.Fatalf("TopTerms = %+v", got)
	}
}
