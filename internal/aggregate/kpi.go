package aggregate

import (
	"fmt"
	"time"

	"github.com/gyaneshwarpardhi/plantboard/internal/filter"
	"github.com/gyaneshwarpardhi/plantboard/internal/record"
)

// KPI status values.
const (
	StatusOK            = "ok"
	StatusSelectProduct = "select_product"
	StatusNoData        = "no_data"
)

// Window is a trailing period and the equally long period before it.
type Window struct {
	Days     int              `json:"days"`
	Label    string           `json:"label"`
	Current  filter.DateRange `json:"current"`
	Previous filter.DateRange `json:"previous"`
}

// NewWindow anchors a window of days on ref: current is [ref-N+1, ref],
// previous is [ref-2N+1, ref-N].
func NewWindow(ref time.Time, days int) Window {
	end := record.Day(ref)
	start := end.AddDate(0, 0, -days+1)
	prevEnd := start.AddDate(0, 0, -1)
	return Window{
		Days:     days,
		Label:    windowLabel(days),
		Current:  filter.DateRange{From: start, To: end},
		Previous: filter.DateRange{From: prevEnd.AddDate(0, 0, -days+1), To: prevEnd},
	}
}

func windowLabel(days int) string {
	switch days {
	case 7:
		return "Week"
	case 14:
		return "2 Weeks"
	case 30:
		return "Month"
	case 90:
		return "3 Months"
	}
	return fmt.Sprintf("%d Days", days)
}

// ReferenceDate is the latest production, maintenance or incident date in
// rows, or the current day when there is none.
func ReferenceDate(rows []*record.Record, now time.Time) time.Time {
	var latest time.Time
	bump := func(t time.Time) {
		if t.After(latest) {
			latest = t
		}
	}
	for _, r := range rows {
		if r.Production != nil {
			bump(r.Production.Date)
		}
		if r.Maintenance != nil {
			bump(r.Maintenance.Date)
		}
		if r.Incident != nil {
			bump(r.Incident.Date)
		}
	}
	if latest.IsZero() {
		return record.Day(now)
	}
	return record.Day(latest)
}

// KPI is one period-over-period comparison card.
type KPI struct {
	Metric    string    `json:"metric"` // production | incidents
	Window    Window    `json:"window"`
	Unit      string    `json:"unit,omitempty"`
	Current   float64   `json:"current"`
	Previous  float64   `json:"previous"`
	Variation Variation `json:"variation"`
	Class     Class     `json:"class"`
	Status    string    `json:"status"`
}

// ProductionKPIs compares produced quantity of product across each window.
// Only rows passing filter.ProductionForKPI count.
func ProductionKPIs(rows []*record.Record, product string, ref time.Time, windows []int, t Thresholds) []KPI {
	product = record.CleanText(product)
	var matched []*record.Record
	if product != "" {
		for _, r := range rows {
			if filter.ProductionForKPI(r) && r.Production.Product == product {
				matched = append(matched, r)
			}
		}
	}

	out := make([]KPI, 0, len(windows))
	for _, days := range windows {
		k := KPI{Metric: "production", Window: NewWindow(ref, days), Class: None}
		switch {
		case product == "":
			k.Status = StatusSelectProduct
		case len(matched) == 0:
			k.Status = StatusNoData
		default:
			k.Status = StatusOK
			k.Unit = matched[0].Production.Unit
			for _, r := range matched {
				switch {
				case k.Window.Current.Contains(r.Production.Date):
					k.Current += r.Production.Quantity.Value
				case k.Window.Previous.Contains(r.Production.Date):
					k.Previous += r.Production.Quantity.Value
				}
			}
			k.Variation = Vary(k.Current, k.Previous, true)
			k.Class = Classify(k.Variation, HigherIsBetter, t)
		}
		out = append(out, k)
	}
	return out
}

// IncidentKPIs compares incident counts across each window. Fewer incidents
// rate positive.
func IncidentKPIs(rows []*record.Record, ref time.Time, windows []int, t Thresholds) []KPI {
	incidents := filter.ValidOf(rows, record.Incident)

	out := make([]KPI, 0, len(windows))
	for _, days := range windows {
		k := KPI{Metric: "incidents", Window: NewWindow(ref, days), Class: None}
		if len(incidents) == 0 {
			k.Status = StatusNoData
			out = append(out, k)
			continue
		}
		k.Status = StatusOK
		for _, r := range incidents {
			switch {
			case k.Window.Current.Contains(r.Incident.Date):
				k.Current++
			case k.Window.Previous.Contains(r.Incident.Date):
				k.Previous++
			}
		}
		k.Variation = Vary(k.Current, k.Previous, true)
		k.Class = Classify(k.Variation, LowerIsBetter, t)
		out = append(out, k)
	}
	return out
}
