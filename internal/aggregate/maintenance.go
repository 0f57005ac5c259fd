package aggregate

import (
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/gyaneshwarpardhi/plantboard/internal/record"
)

// AnomalyKPI is the share of maintenance jobs finished without anomalies.
type AnomalyKPI struct {
	Total         int     `json:"total"`
	WithAnomalies int     `json:"with_anomalies"`
	Percent       float64 `json:"percent"`
	Text          string  `json:"text"`
	Class         Class   `json:"class"`
}

// AnomalyFree rates maintenance rows: percent ≥ good is positive, ≥ warn
// neutral, below that negative. No rows gives "N/A".
func AnomalyFree(rows []*record.Record, good, warn float64) AnomalyKPI {
	k := AnomalyKPI{Text: "N/A", Class: None}
	for _, r := range rows {
		if r.Maintenance == nil {
			continue
		}
		k.Total++
		if r.Maintenance.Anomalies {
			k.WithAnomalies++
		}
	}
	if k.Total == 0 {
		return k
	}
	k.Percent = float64(k.Total-k.WithAnomalies) / float64(k.Total) * 100
	k.Text = fmt.Sprintf("%.1f%%", k.Percent)
	switch {
	case k.Percent >= good:
		k.Class = Positive
	case k.Percent >= warn:
		k.Class = Neutral
	default:
		k.Class = Negative
	}
	return k
}

// MachineCount is the number of rows for one machine.
type MachineCount struct {
	Machine string `json:"machine"`
	Short   string `json:"short"`
	Count   int    `json:"count"`
}

// CountByMachine counts rows per machine(r), most frequent first.
func CountByMachine(rows []*record.Record, machine func(*record.Record) string, abbrev map[string]string) []MachineCount {
	counts := map[string]*MachineCount{}
	for _, r := range rows {
		name := machine(r)
		if name == "" {
			continue
		}
		k := record.MachineKey(name)
		mc, ok := counts[k]
		if !ok {
			mc = &MachineCount{Machine: name, Short: ShortenMachine(name, abbrev)}
			counts[k] = mc
		}
		mc.Count++
	}
	out := make([]MachineCount, 0, len(counts))
	for _, mc := range counts {
		out = append(out, *mc)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Machine < out[j].Machine
	})
	return out
}

var machineCode = regexp.MustCompile(`\s*[–-]\s*COD`)

// ShortenMachine drops a trailing "- COD..." asset code and applies the
// abbreviation table.
func ShortenMachine(name string, abbrev map[string]string) string {
	name = record.CleanText(name)
	if loc := machineCode.FindStringIndex(name); loc != nil {
		name = record.CleanText(name[:loc[0]])
	}
	if short, ok := abbrev[name]; ok {
		return short
	}
	return name
}

// MaintenanceDate reads the maintenance date of r.
func MaintenanceDate(r *record.Record) time.Time {
	if r.Maintenance == nil {
		return time.Time{}
	}
	return r.Maintenance.Date
}

// MaintenanceHours is the positive duration of a maintenance job.
func MaintenanceHours(r *record.Record) (float64, bool) {
	m := r.Maintenance
	if m == nil {
		return 0, false
	}
	h, ok := record.DurationHours(m.Date, m.Start, m.End)
	if !ok || h < 0 {
		return 0, false
	}
	return h, true
}

// MaintenanceMachine reads the maintenance machine of r.
func MaintenanceMachine(r *record.Record) string {
	if r.Maintenance == nil {
		return ""
	}
	return r.Maintenance.Machine
}
