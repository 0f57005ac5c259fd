package drilldown_test

import (
	"errors"
	"testing"
	"time"

	"github.com/gyaneshwarpardhi/plantboard/internal/aggregate"
	"github.com/gyaneshwarpardhi/plantboard/internal/config"
	"github.com/gyaneshwarpardhi/plantboard/internal/drilldown"
	"github.com/gyaneshwarpardhi/plantboard/internal/filter"
	"github.com/gyaneshwarpardhi/plantboard/internal/record"
)

func d(day int) time.Time { return time.Date(2024, 3, day, 0, 0, 0, 0, time.UTC) }

func prod(i, day int, machine, start string) *record.Record {
	return &record.Record{Index: i, Category: record.Production, Submitted: d(day),
		Production: &record.ProductionFacet{Date: d(day), Machine: machine, Occurred: true, Product: "Ibuprofeno",
			Quantity: record.Number{Value: 120, Valid: true}, Unit: "Blisters", Start: start, End: "11:00"}}
}

func rows() []*record.Record {
	notOccurred := prod(5, 2, "Press", "07:00")
	notOccurred.Production.Occurred = false

	return []*record.Record{
		prod(0, 2, "Press", "10:00"),
		prod(1, 2, "Press", "8:30 a. m."),
		prod(2, 1, "Press", "??"),
		prod(3, 1, "Press", "09:00"),
		{Index: 4, Category: record.Maintenance, Submitted: d(1),
			Maintenance: &record.MaintenanceFacet{Date: d(1), Machine: "Mixer", Performed: true, Start: "08:00", End: "09:30"}},
		notOccurred,
		{Index: 6, Category: record.Incident, Submitted: d(3),
			Incident: &record.IncidentFacet{Date: d(3), Machine: "Press", Start: "23:30", End: "00:15"}},
		{Index: 7, Category: record.Observation, Submitted: d(3).Add(9 * time.Hour), Notes: "all good"},
		{Index: 8, Category: record.Observation, Submitted: d(2).Add(16 * time.Hour), Notes: "low stock"},
		prod(9, 9, "Press", "09:00"),
	}
}

func TestResolveMatchesChartCount(t *testing.T) {
	res := drilldown.NewResolver(config.Default())
	data := rows()
	ranges := []filter.DateRange{
		{},
		{From: d(1), To: d(3)},
		{From: d(2), To: d(2)},
		{From: d(10), To: d(20)},
	}
	machines := []filter.Machine{filter.AllMachines, filter.SelectMachine("press", "Todas"), filter.SelectMachine("Mixer", "Todas")}

	for _, dr := range ranges {
		for _, m := range machines {
			counts := aggregate.Count(filter.Events(data, dr, m))
			for _, bar := range aggregate.CategorySeries(counts) {
				tbl, err := res.Resolve(data, bar.Label, dr, m)
				if err != nil {
					t.Fatalf("Resolve(%q): %v", bar.Label, err)
				}
				if tbl.Len() != bar.Count || len(tbl.Rows) != bar.Count {
					t.Errorf("range %v machine %q %s: table has %d rows, chart %d",
						dr, m.Name(), bar.Label, tbl.Len(), bar.Count)
				}
			}
		}
	}
}

func TestResolveSortsByDateThenStart(t *testing.T) {
	res := drilldown.NewResolver(config.Default())
	tbl, err := res.Resolve(rows(), "Production", filter.DateRange{From: d(1), To: d(3)}, filter.AllMachines)
	if err != nil {
		t.Fatal(err)
	}
	want := []int{3, 2, 1, 0}
	if len(tbl.Records) != len(want) {
		t.Fatalf("got %d rows, want %d", len(tbl.Records), len(want))
	}
	for i, r := range tbl.Records {
		if r.Index != want[i] {
			t.Errorf("row %d: index %d, want %d", i, r.Index, want[i])
		}
	}
	if got := tbl.Rows[0][0]; got != "01/03/2024" {
		t.Errorf("date cell = %q", got)
	}
	if got := tbl.Rows[0][len(tbl.Rows[0])-1]; got != "2 hr" {
		t.Errorf("duration cell = %q", got)
	}
}

func TestResolveLabels(t *testing.T) {
	res := drilldown.NewResolver(config.Default())
	cases := []struct {
		label string
		want  record.Category
	}{
		{"Production", record.Production},
		{"incidents", record.Incident},
		{"maintenance", record.Maintenance},
		{"Mantenimiento", record.Maintenance},
		{"incidentes y paradas", record.Incident},
		{"Observaciones Generales", record.Observation},
	}
	for _, tc := range cases {
		got, err := res.Category(tc.label)
		if err != nil || got != tc.want {
			t.Errorf("Category(%q) = %v, %v; want %v", tc.label, got, err, tc.want)
		}
	}

	if _, err := res.Resolve(rows(), "Quality", filter.DateRange{}, filter.AllMachines); !errors.Is(err, drilldown.ErrUnknownCategory) {
		t.Errorf("unknown label: err = %v", err)
	}
}

func TestProjectIncidentCrossesMidnight(t *testing.T) {
	tbl := drilldown.Project(record.Incident, drilldown.Rows(rows(), record.Incident, filter.DateRange{}, filter.AllMachines))
	if tbl.Len() != 1 {
		t.Fatalf("got %d incidents", tbl.Len())
	}
	if got := tbl.Rows[0][6]; got != "45 min" {
		t.Errorf("duration = %q, want 45 min", got)
	}
	if len(tbl.Columns) != len(tbl.Rows[0]) {
		t.Errorf("columns %d, cells %d", len(tbl.Columns), len(tbl.Rows[0]))
	}
}

func TestObservationsSortBySubmission(t *testing.T) {
	got := drilldown.Rows(rows(), record.Observation, filter.DateRange{}, filter.AllMachines)
	if len(got) != 2 || got[0].Index != 8 || got[1].Index != 7 {
		t.Fatalf("observation order = %v", got)
	}
	tbl := drilldown.Project(record.Observation, got)
	if tbl.Rows[0][0] != "02/03/2024 16:00" || tbl.Rows[0][1] != "low stock" {
		t.Errorf("observation row = %v", tbl.Rows[0])
	}
}
