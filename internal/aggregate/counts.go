// Package aggregate turns filtered rows into the numbers the dashboard
// shows: counts, unit sums, period comparisons, machine rollups and series.
package aggregate

import (
	"sort"

	"github.com/gyaneshwarpardhi/plantboard/internal/filter"
	"github.com/gyaneshwarpardhi/plantboard/internal/record"
)

// Counts are the per-category valid row counts of a filtered subset.
type Counts struct {
	Total        int `json:"total"`
	Production   int `json:"production"`
	Maintenance  int `json:"maintenance"`
	Incidents    int `json:"incidents"`
	Observations int `json:"observations"`
}

// Of returns the count for c.
func (c Counts) Of(cat record.Category) int {
	switch cat {
	case record.Production:
		return c.Production
	case record.Maintenance:
		return c.Maintenance
	case record.Incident:
		return c.Incidents
	case record.Observation:
		return c.Observations
	}
	return 0
}

// Count tallies rows. Total is the size of the subset; category counts
// only include rows passing filter.Valid.
func Count(rows []*record.Record) Counts {
	c := Counts{Total: len(rows)}
	for _, r := range rows {
		if !filter.Valid(r) {
			continue
		}
		switch r.Category {
		case record.Production:
			c.Production++
		case record.Maintenance:
			c.Maintenance++
		case record.Incident:
			c.Incidents++
		case record.Observation:
			c.Observations++
		}
	}
	return c
}

// Bar is one bar of the category chart.
type Bar struct {
	Category record.Category `json:"category"`
	Label    string          `json:"label"`
	Count    int             `json:"count"`
}

// CategorySeries lists the category bars in fixed display order, whatever
// their magnitude.
func CategorySeries(c Counts) []Bar {
	out := make([]Bar, 0, len(record.Categories))
	for _, cat := range record.Categories {
		out = append(out, Bar{Category: cat, Label: cat.Label(), Count: c.Of(cat)})
	}
	return out
}

// UnitSum is the produced quantity for one unit of measure.
type UnitSum struct {
	Unit     string  `json:"unit"`
	Quantity float64 `json:"quantity"`
}

// UnitSums adds the quantity of valid production rows per unit. Known units
// come first in the given order, even at zero; other units follow by name.
func UnitSums(rows []*record.Record, known []string) []UnitSum {
	sums := map[string]float64{}
	for _, r := range filter.ValidOf(rows, record.Production) {
		sums[r.Production.Unit] += r.Production.Quantity.Value
	}

	out := make([]UnitSum, 0, len(known)+len(sums))
	listed := map[string]bool{}
	for _, u := range known {
		out = append(out, UnitSum{Unit: u, Quantity: sums[u]})
		listed[u] = true
	}
	var extra []string
	for u := range sums {
		if !listed[u] {
			extra = append(extra, u)
		}
	}
	sort.Strings(extra)
	for _, u := range extra {
		out = append(out, UnitSum{Unit: u, Quantity: sums[u]})
	}
	return out
}
