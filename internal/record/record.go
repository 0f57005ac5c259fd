package record

import (
	"strconv"
	"time"
)

// Record is one submitted form row. Category decides which facet is the
// row's own; the other facets are populated only when the row carries stray
// values in their columns.
type Record struct {
	Index     int       `json:"index"` // zero-based position in the source table
	Category  Category  `json:"category"`
	EventType string    `json:"event_type"` // raw event-type cell
	Submitted time.Time `json:"submitted"`

	Production  *ProductionFacet  `json:"production,omitempty"`
	Maintenance *MaintenanceFacet `json:"maintenance,omitempty"`
	Incident    *IncidentFacet    `json:"incident,omitempty"`
	Notes       string            `json:"notes,omitempty"`
}

// Number is a nullable numeric cell.
type Number struct {
	Value float64
	Valid bool
}

// MarshalJSON encodes an invalid number as null.
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, n.Value, 'f', -1, 64), nil
}

// ProductionFacet holds the production columns of a row.
type ProductionFacet struct {
	Date     time.Time `json:"date"`
	Machine  string    `json:"machine"`
	Occurred bool      `json:"occurred"`
	Product  string    `json:"product"`
	Quantity Number    `json:"quantity"`
	Unit     string    `json:"unit"`
	Start    string    `json:"start"`
	End      string    `json:"end"`
}

// MaintenanceFacet holds the maintenance columns of a row.
type MaintenanceFacet struct {
	Date               time.Time `json:"date"`
	Machine            string    `json:"machine"`
	Performed          bool      `json:"performed"`
	Type               string    `json:"type"`
	Description        string    `json:"description"`
	Start              string    `json:"start"`
	End                string    `json:"end"`
	Anomalies          bool      `json:"anomalies"`
	AnomalyAnswer      string    `json:"anomaly_answer"`
	AnomalyDescription string    `json:"anomaly_description"`
}

// IncidentFacet holds the incident/stoppage columns of a row.
type IncidentFacet struct {
	Date              time.Time `json:"date"`
	Machine           string    `json:"machine"`
	Description       string    `json:"description"`
	CorrectiveActions string    `json:"corrective_actions"`
	Start             string    `json:"start"`
	End               string    `json:"end"`
}

// OwnDate is the date the row is filtered by: the category date column, or
// the submission timestamp for observations. Zero when missing.
func (r *Record) OwnDate() time.Time {
	switch r.Category {
	case Production:
		if r.Production != nil {
			return r.Production.Date
		}
	case Maintenance:
		if r.Maintenance != nil {
			return r.Maintenance.Date
		}
	case Incident:
		if r.Incident != nil {
			return r.Incident.Date
		}
	case Observation:
		return r.Submitted
	}
	return time.Time{}
}

// OwnMachine is the machine column of the row's own category. Observations
// have none.
func (r *Record) OwnMachine() string {
	switch r.Category {
	case Production:
		if r.Production != nil {
			return r.Production.Machine
		}
	case Maintenance:
		if r.Maintenance != nil {
			return r.Maintenance.Machine
		}
	case Incident:
		if r.Incident != nil {
			return r.Incident.Machine
		}
	}
	return ""
}

// OwnStart is the start-time text of the row's own category.
func (r *Record) OwnStart() string {
	switch r.Category {
	case Production:
		if r.Production != nil {
			return r.Production.Start
		}
	case Maintenance:
		if r.Maintenance != nil {
			return r.Maintenance.Start
		}
	case Incident:
		if r.Incident != nil {
			return r.Incident.Start
		}
	}
	return ""
}

// IncidentDate returns the incident date regardless of category.
func (r *Record) IncidentDate() time.Time {
	if r.Incident == nil {
		return time.Time{}
	}
	return r.Incident.Date
}

// Day truncates t to its calendar day in UTC. Zero stays zero.
func Day(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
