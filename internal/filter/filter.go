// Package filter selects the rows behind every dashboard view.
//
// Two incident matching modes exist and are kept apart on purpose:
// ModeSummary matches a row by its own category's date and machine, while
// ModeIncidentPage takes every row, whatever its event type, whose incident
// date and incident machine match.
package filter

import (
	"time"

	"github.com/gyaneshwarpardhi/plantboard/internal/record"
)

// Mode names an incident matching semantics.
type Mode string

const (
	ModeSummary      Mode = "summary"
	ModeIncidentPage Mode = "incident_page"
)

// DateRange is an inclusive range of calendar days. A zero bound is open.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Contains reports whether the calendar day of t falls in the range.
// A zero t is never contained.
func (r DateRange) Contains(t time.Time) bool {
	if t.IsZero() {
		return false
	}
	d := record.Day(t)
	if !r.From.IsZero() && d.Before(record.Day(r.From)) {
		return false
	}
	if !r.To.IsZero() && d.After(record.Day(r.To)) {
		return false
	}
	return true
}

// Machine is a machine selector. The zero value selects all machines.
type Machine struct {
	name string
	key  string
}

// AllMachines selects every machine.
var AllMachines = Machine{}

// SelectMachine builds a selector from user input. An empty name or the
// configured all-machines sentinel select every machine.
func SelectMachine(name, allSentinel string) Machine {
	clean := record.CleanText(name)
	if clean == "" || (allSentinel != "" && record.MachineKey(clean) == record.MachineKey(allSentinel)) {
		return AllMachines
	}
	return Machine{name: clean, key: record.MachineKey(clean)}
}

// All reports whether the selector is unrestricted.
func (m Machine) All() bool { return m.key == "" }

// Name is the cleaned machine name, or "" for all machines.
func (m Machine) Name() string { return m.name }

// Matches compares a machine cell against the selector.
func (m Machine) Matches(machine string) bool {
	return m.All() || record.MachineKey(machine) == m.key
}

// InPool reports whether r belongs to its own category's date pool.
func InPool(r *record.Record, dr DateRange) bool {
	if r.Category == record.Unknown {
		return false
	}
	return dr.Contains(r.OwnDate())
}

// MatchesMachine applies the summary-mode machine rule: the row's own
// category machine must match, and observations never match a specific
// machine.
func MatchesMachine(r *record.Record, m Machine) bool {
	if m.All() {
		return true
	}
	if r.Category == record.Observation {
		return false
	}
	return m.Matches(r.OwnMachine())
}

// Events is the summary-mode filter. Each category pool is built from its
// own date column; the union keeps source order and lists each row once.
func Events(rows []*record.Record, dr DateRange, m Machine) []*record.Record {
	seen := make(map[int]bool, len(rows))
	var out []*record.Record
	for _, c := range record.Categories {
		for _, r := range rows {
			if r.Category != c || seen[r.Index] {
				continue
			}
			if InPool(r, dr) && MatchesMachine(r, m) {
				seen[r.Index] = true
				out = append(out, r)
			}
		}
	}
	sortByIndex(out)
	return out
}

// IncidentRows is the incident-page filter: any row with an incident date in
// range whose incident machine matches.
func IncidentRows(rows []*record.Record, dr DateRange, m Machine) []*record.Record {
	var out []*record.Record
	for _, r := range rows {
		if r.Incident == nil || !dr.Contains(r.Incident.Date) {
			continue
		}
		if !m.Matches(r.Incident.Machine) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Select dispatches to the filter for mode.
func Select(mode Mode, rows []*record.Record, dr DateRange, m Machine) []*record.Record {
	if mode == ModeIncidentPage {
		return IncidentRows(rows, dr, m)
	}
	return Events(rows, dr, m)
}

// Of keeps the rows of category c.
func Of(rows []*record.Record, c record.Category) []*record.Record {
	var out []*record.Record
	for _, r := range rows {
		if r.Category == c {
			out = append(out, r)
		}
	}
	return out
}
