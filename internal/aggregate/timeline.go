package aggregate

import (
	"sort"
	"time"

	"github.com/gyaneshwarpardhi/plantboard/internal/filter"
	"github.com/gyaneshwarpardhi/plantboard/internal/record"
)

// IncidentDate reads the incident date of r, whatever its category.
func IncidentDate(r *record.Record) time.Time { return r.IncidentDate() }

// One counts a row as 1.
func One(*record.Record) (float64, bool) { return 1, true }

// IncidentMinutes is the incident duration in minutes; missing or negative
// durations are skipped.
func IncidentMinutes(r *record.Record) (float64, bool) {
	in := r.Incident
	if in == nil {
		return 0, false
	}
	m, ok := record.DurationMinutes(in.Date, in.Start, in.End)
	if !ok || m < 0 {
		return 0, false
	}
	return m, true
}

// Timeline overlays one machine's daily production with the days it had
// incidents or maintenance.
type Timeline struct {
	Machine         string      `json:"machine"`
	Unit            string      `json:"unit"`
	Production      []Point     `json:"production"` // every day of the range, zero filled
	IncidentDays    []time.Time `json:"incident_days"`
	MaintenanceDays []time.Time `json:"maintenance_days"`
}

// MachineTimeline builds the timeline for m over dr. Production counts rows
// that occurred with a quantity; incidents follow the incident-page mode;
// maintenance counts performed jobs.
func MachineTimeline(rows []*record.Record, m filter.Machine, dr filter.DateRange) Timeline {
	tl := Timeline{Machine: m.Name(), Unit: "Units"}

	var prod []*record.Record
	maintDays := map[time.Time]bool{}
	for _, r := range rows {
		switch r.Category {
		case record.Production:
			p := r.Production
			if p != nil && p.Occurred && p.Quantity.Valid && m.Matches(p.Machine) && dr.Contains(p.Date) {
				prod = append(prod, r)
			}
		case record.Maintenance:
			mt := r.Maintenance
			if mt != nil && mt.Performed && m.Matches(mt.Machine) && dr.Contains(mt.Date) {
				maintDays[record.Day(mt.Date)] = true
			}
		}
	}
	for _, r := range prod {
		if r.Production.Unit != "" {
			tl.Unit = r.Production.Unit
			break
		}
	}

	tl.Production = FillDays(Daily(prod, productionDate, productionQuantity), dr.From, dr.To)

	incDays := map[time.Time]bool{}
	for _, r := range filter.IncidentRows(rows, dr, m) {
		incDays[record.Day(r.Incident.Date)] = true
	}
	tl.IncidentDays = sortedDays(incDays)
	tl.MaintenanceDays = sortedDays(maintDays)
	return tl
}

func sortedDays(set map[time.Time]bool) []time.Time {
	out := make([]time.Time, 0, len(set))
	for d := range set {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
