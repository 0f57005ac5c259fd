package filter

import (
	"sort"

	"github.com/gyaneshwarpardhi/plantboard/internal/record"
)

// Valid is the category validity predicate. A row failing it stays in the
// snapshot but is left out of its category's aggregates and drill-down.
//
//	Production:  production occurred, quantity and unit present
//	Maintenance: maintenance performed
//	Incident:    incident date present
//	Observation: always
func Valid(r *record.Record) bool {
	switch r.Category {
	case record.Production:
		p := r.Production
		return p != nil && p.Occurred && p.Quantity.Valid && p.Unit != ""
	case record.Maintenance:
		return r.Maintenance != nil && r.Maintenance.Performed
	case record.Incident:
		return !r.IncidentDate().IsZero()
	case record.Observation:
		return true
	}
	return false
}

// ValidOf keeps the rows of category c that pass Valid.
func ValidOf(rows []*record.Record, c record.Category) []*record.Record {
	var out []*record.Record
	for _, r := range rows {
		if r.Category == c && Valid(r) {
			out = append(out, r)
		}
	}
	return out
}

// ProductionForKPI reports whether a production row counts toward the
// period comparison: valid with machine and production date present.
func ProductionForKPI(r *record.Record) bool {
	if r.Category != record.Production || !Valid(r) {
		return false
	}
	return r.Production.Machine != "" && !r.Production.Date.IsZero()
}

// ProductionForRollup reports whether a production row can feed the machine
// rollup: quantity above zero and both times present.
func ProductionForRollup(r *record.Record) bool {
	if !ProductionForKPI(r) {
		return false
	}
	p := r.Production
	return p.Quantity.Value > 0 && p.Start != "" && p.End != ""
}

func sortByIndex(rows []*record.Record) {
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Index < rows[j].Index })
}
