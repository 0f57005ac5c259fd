// Package drilldown returns the rows behind a clicked category bar.
package drilldown

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/gyaneshwarpardhi/plantboard/internal/config"
	"github.com/gyaneshwarpardhi/plantboard/internal/filter"
	"github.com/gyaneshwarpardhi/plantboard/internal/record"
)

// ErrUnknownCategory is returned for labels that name no category.
var ErrUnknownCategory = errors.New("unknown category")

const dayLayout = "02/01/2006"

// Column is a table column.
type Column struct {
	Key   string `json:"key"`
	Title string `json:"title"`
}

// Table is a category-specific projection of rows.
type Table struct {
	Category record.Category  `json:"category"`
	Label    string           `json:"label"`
	Columns  []Column         `json:"columns"`
	Rows     [][]string       `json:"rows"`
	Records  []*record.Record `json:"-"`
}

// Len is the number of rows in the table.
func (t Table) Len() int { return len(t.Rows) }

// Resolver maps chart labels to categories and builds detail tables.
type Resolver struct {
	eventTypes map[string]record.Category
}

// NewResolver also accepts the raw event-type values configured in cfg as labels.
func NewResolver(cfg *config.Config) *Resolver {
	return &Resolver{eventTypes: map[string]record.Category{
		record.Fold(cfg.EventTypes.Production):  record.Production,
		record.Fold(cfg.EventTypes.Maintenance): record.Maintenance,
		record.Fold(cfg.EventTypes.Incident):    record.Incident,
		record.Fold(cfg.EventTypes.Observation): record.Observation,
	}}
}

// Category resolves a chart label, category key or raw event-type value.
func (r *Resolver) Category(label string) (record.Category, error) {
	if c, ok := record.ParseCategory(label); ok {
		return c, nil
	}
	if c, ok := r.eventTypes[record.Fold(label)]; ok {
		return c, nil
	}
	return record.Unknown, fmt.Errorf("%w: %q", ErrUnknownCategory, label)
}

// Resolve re-runs the summary filter for the active range and machine and
// keeps the valid rows of the clicked category, so the table always has as
// many rows as the bar counted.
func (r *Resolver) Resolve(rows []*record.Record, label string, dr filter.DateRange, m filter.Machine) (Table, error) {
	c, err := r.Category(label)
	if err != nil {
		return Table{}, err
	}
	return Project(c, Rows(rows, c, dr, m)), nil
}

// Rows returns the sorted valid rows of category c under the summary filter.
func Rows(rows []*record.Record, c record.Category, dr filter.DateRange, m filter.Machine) []*record.Record {
	out := filter.ValidOf(filter.Events(rows, dr, m), c)
	Sort(out)
	return out
}

type sortKey struct {
	at    time.Time
	start time.Duration
	ok    bool
}

func dayKey(date time.Time, start string) sortKey {
	k := sortKey{at: record.Day(date)}
	k.start, k.ok = record.ParseClock(start)
	return k
}

// Sort orders rows by their own date, then by parsed start time. Rows whose
// start time does not parse come last within their day. Observations order
// by submission time. Ties keep source order.
func Sort(rows []*record.Record) {
	sortBy(rows, func(r *record.Record) sortKey {
		if r.Category == record.Observation {
			return sortKey{at: r.Submitted, ok: true}
		}
		return dayKey(r.OwnDate(), r.OwnStart())
	})
}

// SortIncidents orders rows by incident date and incident start time,
// whatever their event type.
func SortIncidents(rows []*record.Record) {
	sortBy(rows, func(r *record.Record) sortKey {
		if r.Incident == nil {
			return sortKey{}
		}
		return dayKey(r.Incident.Date, r.Incident.Start)
	})
}

func sortBy(rows []*record.Record, key func(*record.Record) sortKey) {
	keys := make(map[*record.Record]sortKey, len(rows))
	for _, r := range rows {
		keys[r] = key(r)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := keys[rows[i]], keys[rows[j]]
		if !a.at.Equal(b.at) {
			return a.at.Before(b.at)
		}
		if a.ok != b.ok {
			return a.ok
		}
		if a.start != b.start {
			return a.start < b.start
		}
		return rows[i].Index < rows[j].Index
	})
}

var columns = map[record.Category][]Column{
	record.Production: {
		{"date", "Date"}, {"machine", "Machine"}, {"product", "Product"}, {"quantity", "Quantity"},
		{"unit", "Unit"}, {"start", "Start"}, {"end", "End"}, {"duration", "Duration"},
	},
	record.Maintenance: {
		{"date", "Date"}, {"machine", "Machine"}, {"type", "Type"}, {"description", "Description"},
		{"start", "Start"}, {"end", "End"}, {"duration", "Duration"},
		{"anomalies", "Anomalies Detected"}, {"anomaly_description", "Anomaly Description"},
	},
	record.Incident: {
		{"date", "Date"}, {"machine", "Machine"}, {"description", "Description"},
		{"corrective_actions", "Corrective Actions"}, {"start", "Start"}, {"end", "End"}, {"duration", "Duration"},
	},
	record.Observation: {
		{"submitted", "Submitted"}, {"notes", "Notes"},
	},
}

// Columns returns the projection of category c.
func Columns(c record.Category) []Column { return columns[c] }

// Project renders rows into the column set of category c.
func Project(c record.Category, rows []*record.Record) Table {
	t := Table{Category: c, Label: c.Label(), Columns: columns[c], Records: rows, Rows: make([][]string, 0, len(rows))}
	for _, r := range rows {
		t.Rows = append(t.Rows, cells(c, r))
	}
	return t
}

func cells(c record.Category, r *record.Record) []string {
	switch c {
	case record.Production:
		p := r.Production
		if p == nil {
			p = &record.ProductionFacet{}
		}
		h, ok := record.DurationHours(p.Date, p.Start, p.End)
		return []string{day(p.Date), p.Machine, p.Product, quantity(p.Quantity), p.Unit, p.Start, p.End, record.FormatDuration(h, ok)}
	case record.Maintenance:
		m := r.Maintenance
		if m == nil {
			m = &record.MaintenanceFacet{}
		}
		h, ok := record.DurationHours(m.Date, m.Start, m.End)
		return []string{day(m.Date), m.Machine, m.Type, m.Description, m.Start, m.End, record.FormatDuration(h, ok),
			m.AnomalyAnswer, m.AnomalyDescription}
	case record.Incident:
		in := r.Incident
		if in == nil {
			in = &record.IncidentFacet{}
		}
		h, ok := record.DurationHours(in.Date, in.Start, in.End)
		return []string{day(in.Date), in.Machine, in.Description, in.CorrectiveActions, in.Start, in.End, record.FormatDuration(h, ok)}
	case record.Observation:
		ts := ""
		if !r.Submitted.IsZero() {
			ts = r.Submitted.Format("02/01/2006 15:04")
		}
		return []string{ts, r.Notes}
	}
	return nil
}

func day(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dayLayout)
}

func quantity(n record.Number) string {
	if !n.Valid {
		return ""
	}
	return strconv.FormatFloat(n.Value, 'f', -1, 64)
}
