package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/gyaneshwarpardhi/plantboard/internal/aggregate"
	"github.com/gyaneshwarpardhi/plantboard/internal/config"
	"github.com/gyaneshwarpardhi/plantboard/internal/dataset"
	"github.com/gyaneshwarpardhi/plantboard/internal/drilldown"
	"github.com/gyaneshwarpardhi/plantboard/internal/filter"
	"github.com/gyaneshwarpardhi/plantboard/internal/record"
)

// ProductionView is the production page for one product.
type ProductionView struct {
	Status     string                    `json:"status"`
	Product    string                    `json:"product"`
	Range      filter.DateRange          `json:"range"`
	Empty      bool                      `json:"empty"`
	Rollup     []aggregate.MachineUnit   `json:"rollup"`
	Efficiency []aggregate.MachineUnit   `json:"efficiency"`
	Daily      []aggregate.MachineSeries `json:"daily"`
	Detail     drilldown.Table           `json:"detail"`
}

func (s *Service) Production(ctx context.Context, q Query) (*ProductionView, error) {
	snap, cfg, err := s.current()
	if err != nil {
		return nil, err
	}
	return s.production(snap, cfg, q), nil
}

// production keeps rollup-ready rows of the selected product in range. An
// empty product asks the client to pick one.
func (s *Service) production(snap *dataset.Snapshot, cfg *config.Config, q Query) *ProductionView {
	product := record.CleanText(q.Product)
	v := &ProductionView{Product: product, Range: q.Range, Status: aggregate.StatusOK}
	if product == "" {
		v.Status = aggregate.StatusSelectProduct
		v.Empty = true
		v.Detail = drilldown.Project(record.Production, nil)
		return v
	}

	m := machineOf(cfg, q)
	var rows []*record.Record
	for _, r := range snap.Records {
		if r.Category != record.Production || !filter.ProductionForRollup(r) {
			continue
		}
		p := r.Production
		if p.Product != product || !q.Range.Contains(p.Date) || !m.Matches(p.Machine) {
			continue
		}
		rows = append(rows, r)
	}
	drilldown.Sort(rows)

	v.Empty = len(rows) == 0
	if v.Empty {
		v.Status = aggregate.StatusNoData
	}
	v.Rollup = aggregate.Rollup(rows)
	v.Efficiency = aggregate.ByEfficiency(v.Rollup)
	v.Daily = aggregate.DailyProductionByMachine(rows)
	v.Detail = drilldown.Project(record.Production, rows)
	return v
}

// MaintenanceView is the maintenance page.
type MaintenanceView struct {
	Machine     string                   `json:"machine"`
	Range       filter.DateRange         `json:"range"`
	Empty       bool                     `json:"empty"`
	AnomalyFree aggregate.AnomalyKPI     `json:"anomaly_free"`
	ByMachine   []aggregate.MachineCount `json:"by_machine"`
	DailyHours  []aggregate.Point        `json:"daily_hours"`
	TotalHours  float64                  `json:"total_hours"`
	TotalText   string                   `json:"total_text"`
	Detail      drilldown.Table          `json:"detail"`
}

func (s *Service) Maintenance(ctx context.Context, q Query) (*MaintenanceView, error) {
	snap, cfg, err := s.current()
	if err != nil {
		return nil, err
	}
	return s.maintenance(snap, cfg, q), nil
}

func (s *Service) maintenance(snap *dataset.Snapshot, cfg *config.Config, q Query) *MaintenanceView {
	m := machineOf(cfg, q)
	var rows []*record.Record
	for _, r := range filter.ValidOf(snap.Records, record.Maintenance) {
		if q.Range.Contains(r.Maintenance.Date) && m.Matches(r.Maintenance.Machine) {
			rows = append(rows, r)
		}
	}
	drilldown.Sort(rows)

	v := &MaintenanceView{Machine: m.Name(), Range: q.Range, Empty: len(rows) == 0}
	v.AnomalyFree = aggregate.AnomalyFree(rows, cfg.KPI.AnomalyFreeGood, cfg.KPI.AnomalyFreeWarn)
	v.ByMachine = aggregate.CountByMachine(rows, aggregate.MaintenanceMachine, cfg.Abbreviations)
	v.DailyHours = aggregate.Daily(rows, aggregate.MaintenanceDate, aggregate.MaintenanceHours)
	hoursKnown := false
	for _, p := range v.DailyHours {
		v.TotalHours += p.Value
		hoursKnown = true
	}
	v.TotalText = record.FormatDuration(v.TotalHours, hoursKnown)
	v.Detail = drilldown.Project(record.Maintenance, rows)
	return v
}

// IncidentsView is the incident page. It uses the incident-page mode: any
// row with an incident date counts, whatever its event type.
type IncidentsView struct {
	Mode         filter.Mode              `json:"mode"`
	Machine      string                   `json:"machine"`
	Range        filter.DateRange         `json:"range"`
	Day          *time.Time               `json:"day,omitempty"`
	Empty        bool                     `json:"empty"`
	Count        int                      `json:"count"`
	Daily        []aggregate.Point        `json:"daily"`
	DailyMinutes []aggregate.Point        `json:"daily_minutes"`
	ByMachine    []aggregate.MachineCount `json:"by_machine"`
	Detail       drilldown.Table          `json:"detail"`
}

func (s *Service) Incidents(ctx context.Context, q Query) (*IncidentsView, error) {
	snap, cfg, err := s.current()
	if err != nil {
		return nil, err
	}
	return s.incidents(snap, cfg, q), nil
}

func (s *Service) incidents(snap *dataset.Snapshot, cfg *config.Config, q Query) *IncidentsView {
	m := machineOf(cfg, q)
	rows := filter.Select(filter.ModeIncidentPage, snap.Records, q.Range, m)
	drilldown.SortIncidents(rows)

	v := &IncidentsView{Mode: filter.ModeIncidentPage, Machine: m.Name(), Range: q.Range, Count: len(rows), Empty: len(rows) == 0}

	from, to := q.Range.From, q.Range.To
	if len(rows) > 0 {
		if from.IsZero() {
			from = rows[0].Incident.Date
		}
		if to.IsZero() {
			to = rows[len(rows)-1].Incident.Date
		}
	}
	span := clampRange(filter.DateRange{From: from, To: to}, snap.Records)
	v.Daily = aggregate.FillDays(aggregate.Daily(rows, aggregate.IncidentDate, aggregate.One), span.From, span.To)
	v.DailyMinutes = aggregate.Daily(rows, aggregate.IncidentDate, aggregate.IncidentMinutes)
	v.ByMachine = aggregate.CountByMachine(rows, func(r *record.Record) string { return r.Incident.Machine }, cfg.Abbreviations)

	detail := rows
	if !q.Day.IsZero() {
		day := record.Day(q.Day)
		v.Day = &day
		detail = nil
		for _, r := range rows {
			if record.Day(r.Incident.Date).Equal(day) {
				detail = append(detail, r)
			}
		}
	}
	v.Detail = drilldown.Project(record.Incident, detail)
	return v
}

// Timeline overlays one machine's production with its incident and
// maintenance days.
func (s *Service) Timeline(ctx context.Context, q Query) (*aggregate.Timeline, error) {
	snap, cfg, err := s.current()
	if err != nil {
		return nil, err
	}
	return s.timeline(snap, cfg, q)
}

func (s *Service) timeline(snap *dataset.Snapshot, cfg *config.Config, q Query) (*aggregate.Timeline, error) {
	m := machineOf(cfg, q)
	if m.All() {
		return nil, fmt.Errorf("%w: timeline needs a specific machine", ErrInvalidQuery)
	}
	tl := aggregate.MachineTimeline(snap.Records, m, clampRange(q.Range, snap.Records))
	return &tl, nil
}

// DayProduction is one production run in a day summary.
type DayProduction struct {
	Product  string        `json:"product"`
	Quantity record.Number `json:"quantity"`
	Unit     string        `json:"unit"`
	Start    string        `json:"start"`
	End      string        `json:"end"`
	Duration string        `json:"duration"`
}

// DayIncident is one incident in a day summary.
type DayIncident struct {
	Start             string   `json:"start"`
	End               string   `json:"end"`
	Minutes           *float64 `json:"minutes"`
	Description       string   `json:"description"`
	CorrectiveActions string   `json:"corrective_actions"`
}

// DayMaintenance is one maintenance job in a day summary.
type DayMaintenance struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Duration    string `json:"duration"`
	Anomalies   bool   `json:"anomalies"`
}

// DaySummary is everything one machine did on one day.
type DaySummary struct {
	Machine     string              `json:"machine"`
	Day         time.Time           `json:"day"`
	Empty       bool                `json:"empty"`
	Production  []DayProduction     `json:"production"`
	Totals      []aggregate.UnitSum `json:"totals"`
	Incidents   []DayIncident       `json:"incidents"`
	Maintenance []DayMaintenance    `json:"maintenance"`
}

func (s *Service) DaySummary(ctx context.Context, q Query) (*DaySummary, error) {
	snap, cfg, err := s.current()
	if err != nil {
		return nil, err
	}
	return s.daySummary(snap, cfg, q)
}

func (s *Service) daySummary(snap *dataset.Snapshot, cfg *config.Config, q Query) (*DaySummary, error) {
	m := machineOf(cfg, q)
	if m.All() {
		return nil, fmt.Errorf("%w: day summary needs a specific machine", ErrInvalidQuery)
	}
	if q.Day.IsZero() {
		return nil, fmt.Errorf("%w: day summary needs a day", ErrInvalidQuery)
	}
	day := record.Day(q.Day)
	one := filter.DateRange{From: day, To: day}
	out := &DaySummary{
		Machine:     m.Name(),
		Day:         day,
		Production:  []DayProduction{},
		Incidents:   []DayIncident{},
		Maintenance: []DayMaintenance{},
	}

	var produced []*record.Record
	for _, r := range snap.Records {
		switch r.Category {
		case record.Production:
			p := r.Production
			if p == nil || !p.Occurred || !m.Matches(p.Machine) || !one.Contains(p.Date) {
				continue
			}
			produced = append(produced, r)
		case record.Maintenance:
			mt := r.Maintenance
			if mt == nil || !mt.Performed || !m.Matches(mt.Machine) || !one.Contains(mt.Date) {
				continue
			}
			h, ok := record.DurationHours(mt.Date, mt.Start, mt.End)
			out.Maintenance = append(out.Maintenance, DayMaintenance{
				Type: mt.Type, Description: mt.Description,
				Duration: record.FormatDuration(h, ok), Anomalies: mt.Anomalies,
			})
		}
	}
	drilldown.Sort(produced)
	for _, r := range produced {
		p := r.Production
		h, ok := record.DurationHours(p.Date, p.Start, p.End)
		out.Production = append(out.Production, DayProduction{
			Product: p.Product, Quantity: p.Quantity, Unit: p.Unit,
			Start: p.Start, End: p.End, Duration: record.FormatDuration(h, ok),
		})
	}
	out.Totals = aggregate.UnitSums(produced, nil)

	incidents := filter.IncidentRows(snap.Records, one, m)
	drilldown.SortIncidents(incidents)
	for _, r := range incidents {
		in := r.Incident
		di := DayIncident{Start: in.Start, End: in.End, Description: in.Description, CorrectiveActions: in.CorrectiveActions}
		if mins, ok := aggregate.IncidentMinutes(r); ok {
			di.Minutes = &mins
		}
		out.Incidents = append(out.Incidents, di)
	}

	out.Empty = len(out.Production) == 0 && len(out.Incidents) == 0 && len(out.Maintenance) == 0
	return out, nil
}

// ObservationsView lists free-text notes, newest first, with their most
// frequent terms.
type ObservationsView struct {
	Range filter.DateRange `json:"range"`
	Empty bool             `json:"empty"`
	Count int              `json:"count"`
	Notes drilldown.Table  `json:"notes"`
	Terms []aggregate.Term `json:"terms"`
}

func (s *Service) Observations(ctx context.Context, q Query) (*ObservationsView, error) {
	snap, cfg, err := s.current()
	if err != nil {
		return nil, err
	}
	return s.observations(snap, cfg, q), nil
}

func (s *Service) observations(snap *dataset.Snapshot, cfg *config.Config, q Query) *ObservationsView {
	var rows []*record.Record
	for _, r := range filter.Of(snap.Records, record.Observation) {
		if record.CleanText(r.Notes) != "" && filter.InPool(r, q.Range) {
			rows = append(rows, r)
		}
	}
	drilldown.Sort(rows)
	texts := make([]string, 0, len(rows))
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	for _, r := range rows {
		texts = append(texts, r.Notes)
	}

	top := q.Top
	if top == 0 {
		top = DefaultTopTerms
	}
	return &ObservationsView{
		Range: q.Range,
		Empty: len(rows) == 0,
		Count: len(rows),
		Notes: drilldown.Project(record.Observation, rows),
		Terms: aggregate.TopTerms(texts, cfg.Stopwords, top),
	}
}
