package aggregate

import (
	"sort"
	"time"

	"github.com/gyaneshwarpardhi/plantboard/internal/record"
)

// MachineUnit is the production rollup of one machine and unit.
type MachineUnit struct {
	Machine    string  `json:"machine"`
	Unit       string  `json:"unit"`
	Quantity   float64 `json:"quantity"`
	Hours      float64 `json:"hours"`
	Efficiency float64 `json:"efficiency"` // quantity per hour, 0 without hours
	Runs       int     `json:"runs"`
}

// Rollup groups production rows by machine and unit. Runs without a
// positive duration are left out entirely, so quantity and hours always
// come from the same runs.
func Rollup(rows []*record.Record) []MachineUnit {
	type key struct{ machine, unit string }
	acc := map[key]*MachineUnit{}
	var order []key
	for _, r := range rows {
		p := r.Production
		if p == nil || !p.Quantity.Valid {
			continue
		}
		h, ok := record.DurationHours(p.Date, p.Start, p.End)
		if !ok || h <= 0 {
			continue
		}
		k := key{record.MachineKey(p.Machine), p.Unit}
		mu, ok := acc[k]
		if !ok {
			mu = &MachineUnit{Machine: p.Machine, Unit: p.Unit}
			acc[k] = mu
			order = append(order, k)
		}
		mu.Quantity += p.Quantity.Value
		mu.Hours += h
		mu.Runs++
	}

	out := make([]MachineUnit, 0, len(order))
	for _, k := range order {
		mu := acc[k]
		if mu.Hours > 0 {
			mu.Efficiency = mu.Quantity / mu.Hours
		}
		out = append(out, *mu)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Machine != out[j].Machine {
			return out[i].Machine < out[j].Machine
		}
		return out[i].Unit < out[j].Unit
	})
	return out
}

// ByEfficiency orders a rollup from most to least efficient.
func ByEfficiency(in []MachineUnit) []MachineUnit {
	out := append([]MachineUnit(nil), in...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Efficiency > out[j].Efficiency })
	return out
}

// Point is one day of a daily series.
type Point struct {
	Day   time.Time `json:"day"`
	Value float64   `json:"value"`
}

// Daily sums value(r) per calendar day of date(r). Rows without a date or
// value are skipped. Days come out in ascending order.
func Daily(rows []*record.Record, date func(*record.Record) time.Time, value func(*record.Record) (float64, bool)) []Point {
	sums := map[time.Time]float64{}
	for _, r := range rows {
		d := record.Day(date(r))
		if d.IsZero() {
			continue
		}
		v, ok := value(r)
		if !ok {
			continue
		}
		sums[d] += v
	}
	out := make([]Point, 0, len(sums))
	for d, v := range sums {
		out = append(out, Point{Day: d, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })
	return out
}

// MaxFillDays caps the length of a zero-filled series.
const MaxFillDays = 3660

// FillDays returns one point per day from from to to, taking values from
// pts and zero elsewhere. Spans longer than MaxFillDays keep the latest
// days.
func FillDays(pts []Point, from, to time.Time) []Point {
	from, to = record.Day(from), record.Day(to)
	if from.IsZero() || to.IsZero() || to.Before(from) {
		return nil
	}
	if earliest := to.AddDate(0, 0, -(MaxFillDays - 1)); from.Before(earliest) {
		from = earliest
	}
	byDay := make(map[time.Time]float64, len(pts))
	for _, p := range pts {
		byDay[p.Day] += p.Value
	}
	out := make([]Point, 0, int(to.Sub(from).Hours()/24)+1)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		out = append(out, Point{Day: d, Value: byDay[d]})
	}
	return out
}

// MachineSeries is a named daily series.
type MachineSeries struct {
	Machine string  `json:"machine"`
	Points  []Point `json:"points"`
}

// DailyProductionByMachine sums quantity per day for every machine.
func DailyProductionByMachine(rows []*record.Record) []MachineSeries {
	groups := map[string][]*record.Record{}
	names := map[string]string{}
	for _, r := range rows {
		if r.Production == nil {
			continue
		}
		k := record.MachineKey(r.Production.Machine)
		if _, ok := names[k]; !ok {
			names[k] = r.Production.Machine
		}
		groups[k] = append(groups[k], r)
	}
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]MachineSeries, 0, len(keys))
	for _, k := range keys {
		out = append(out, MachineSeries{
			Machine: names[k],
			Points:  Daily(groups[k], productionDate, productionQuantity),
		})
	}
	return out
}

func productionDate(r *record.Record) time.Time { return r.Production.Date }

func productionQuantity(r *record.Record) (float64, bool) {
	return r.Production.Quantity.Value, r.Production.Quantity.Valid
}
