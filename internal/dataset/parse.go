package dataset

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gyaneshwarpardhi/plantboard/internal/config"
	"github.com/gyaneshwarpardhi/plantboard/internal/errs"
	"github.com/gyaneshwarpardhi/plantboard/internal/record"
)

// Snapshot is an immutable parsed copy of the source table.
type Snapshot struct {
	ID             string           `json:"id"`
	Source         string           `json:"source"`
	LoadedAt       time.Time        `json:"loaded_at"`
	Records        []*record.Record `json:"-"`
	MissingColumns []string         `json:"missing_columns"`
	Rejected       map[string]int   `json:"rejected"` // unparseable cells per column
}

// Len is the number of rows in the snapshot.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Records)
}

// Parse reads the whole table from r. Missing columns and bad cells never
// fail the parse; only unreadable input does.
func Parse(r io.Reader, cfg *config.Config) (*Snapshot, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errs.Wrap(err, "read source")
	}
	return parseBytes(data, cfg)
}

func parseBytes(data []byte, cfg *config.Config) (*Snapshot, error) {
	snap := &Snapshot{
		ID:       contentID(data, cfg),
		LoadedAt: time.Now(),
		Rejected: map[string]int{},
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if len(bytes.TrimSpace(data)) == 0 {
		snap.MissingColumns = allColumns(cfg)
		return snap, nil
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = []rune(cfg.Data.Delimiter)[0]
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return nil, errs.Wrap(err, "read header")
	}
	p := newRowParser(header, cfg, snap)

	for i := 0; ; i++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errs.Wrapf(err, "read row %d", i+1)
		}
		snap.Records = append(snap.Records, p.parse(i, row))
	}
	return snap, nil
}

// contentID addresses a snapshot by its bytes and the config that shapes
// parsing, so a column remap changes the ID even when the file does not.
func contentID(data []byte, cfg *config.Config) string {
	h := sha256.New()
	h.Write(data)
	shape, _ := json.Marshal(struct {
		C config.Columns
		E config.EventTypeNames
		Y []string
		D []string
		S string
	}{cfg.Columns, cfg.EventTypes, cfg.YesValues, cfg.DateLayouts, cfg.Data.Delimiter})
	h.Write(shape)
	return hex.EncodeToString(h.Sum(nil))[:16]
}

func allColumns(cfg *config.Config) []string {
	c := cfg.Columns
	return []string{
		c.Timestamp, c.EventType,
		c.ProductionDate, c.ProductionMachine, c.ProductionOccurred, c.Product, c.Quantity, c.Unit, c.ProductionStart, c.ProductionEnd,
		c.MaintenanceDate, c.MaintenanceMachine, c.MaintenancePerformed, c.MaintenanceType, c.MaintenanceDescription,
		c.MaintenanceStart, c.MaintenanceEnd, c.AnomaliesDetected, c.AnomalyDescription,
		c.IncidentDate, c.IncidentMachine, c.IncidentDescription, c.CorrectiveActions, c.IncidentStart, c.IncidentEnd,
		c.Notes,
	}
}

type rowParser struct {
	cfg     *config.Config
	snap    *Snapshot
	index   map[string]int
	answers record.Answers
	types   map[string]record.Category
	row     []string
}

func newRowParser(header []string, cfg *config.Config, snap *Snapshot) *rowParser {
	p := &rowParser{
		cfg:     cfg,
		snap:    snap,
		index:   make(map[string]int, len(header)),
		answers: record.NewAnswers(cfg.YesValues),
		types: map[string]record.Category{
			record.Fold(cfg.EventTypes.Production):  record.Production,
			record.Fold(cfg.EventTypes.Maintenance): record.Maintenance,
			record.Fold(cfg.EventTypes.Incident):    record.Incident,
			record.Fold(cfg.EventTypes.Observation): record.Observation,
		},
	}
	for i, h := range header {
		h = strings.TrimSpace(h)
		if _, dup := p.index[h]; !dup {
			p.index[h] = i
		}
	}
	seen := map[string]bool{}
	for _, name := range allColumns(cfg) {
		if _, ok := p.index[name]; !ok && !seen[name] {
			snap.MissingColumns = append(snap.MissingColumns, name)
			seen[name] = true
		}
	}
	return p
}

func (p *rowParser) cell(col string) string {
	i, ok := p.index[col]
	if !ok || i >= len(p.row) {
		return ""
	}
	v := strings.TrimSpace(p.row[i])
	if strings.EqualFold(v, "nan") {
		return ""
	}
	return v
}

func (p *rowParser) reject(col string) {
	p.snap.Rejected[col]++
}

func (p *rowParser) timestamp(col string) time.Time {
	v := p.cell(col)
	if v == "" {
		return time.Time{}
	}
	for _, layout := range p.cfg.DateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t
		}
	}
	p.reject(col)
	return time.Time{}
}

func (p *rowParser) date(col string) time.Time {
	return record.Day(p.timestamp(col))
}

func (p *rowParser) number(col string) record.Number {
	v := p.cell(col)
	if v == "" {
		return record.Number{}
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		f, err = strconv.ParseFloat(strings.Replace(v, ",", ".", 1), 64)
	}
	if err != nil || f < 0 {
		p.reject(col)
		return record.Number{}
	}
	return record.Number{Value: f, Valid: true}
}

func (p *rowParser) present(cols ...string) bool {
	for _, c := range cols {
		if p.cell(c) != "" {
			return true
		}
	}
	return false
}

func (p *rowParser) parse(i int, row []string) *record.Record {
	p.row = row
	c := p.cfg.Columns

	r := &record.Record{
		Index:     i,
		EventType: p.cell(c.EventType),
		Submitted: p.timestamp(c.Timestamp),
		Notes:     p.cell(c.Notes),
	}
	r.Category = p.types[record.Fold(r.EventType)]

	if p.present(c.ProductionDate, c.ProductionMachine, c.ProductionOccurred, c.Product, c.Quantity, c.Unit, c.ProductionStart, c.ProductionEnd) {
		r.Production = &record.ProductionFacet{
			Date:     p.date(c.ProductionDate),
			Machine:  record.CleanText(p.cell(c.ProductionMachine)),
			Occurred: p.answers.Yes(p.cell(c.ProductionOccurred)),
			Product:  record.CleanText(p.cell(c.Product)),
			Quantity: p.number(c.Quantity),
			Unit:     record.CleanText(p.cell(c.Unit)),
			Start:    p.cell(c.ProductionStart),
			End:      p.cell(c.ProductionEnd),
		}
	}
	if p.present(c.MaintenanceDate, c.MaintenanceMachine, c.MaintenancePerformed, c.MaintenanceType, c.MaintenanceDescription,
		c.MaintenanceStart, c.MaintenanceEnd, c.AnomaliesDetected, c.AnomalyDescription) {
		answer := p.cell(c.AnomaliesDetected)
		r.Maintenance = &record.MaintenanceFacet{
			Date:               p.date(c.MaintenanceDate),
			Machine:            record.CleanText(p.cell(c.MaintenanceMachine)),
			Performed:          p.answers.Yes(p.cell(c.MaintenancePerformed)),
			Type:               p.cell(c.MaintenanceType),
			Description:        p.cell(c.MaintenanceDescription),
			Start:              p.cell(c.MaintenanceStart),
			End:                p.cell(c.MaintenanceEnd),
			Anomalies:          p.answers.Yes(answer),
			AnomalyAnswer:      answer,
			AnomalyDescription: p.cell(c.AnomalyDescription),
		}
	}
	if p.present(c.IncidentDate, c.IncidentMachine, c.IncidentDescription, c.CorrectiveActions, c.IncidentStart, c.IncidentEnd) {
		r.Incident = &record.IncidentFacet{
			Date:              p.date(c.IncidentDate),
			Machine:           record.CleanText(p.cell(c.IncidentMachine)),
			Description:       p.cell(c.IncidentDescription),
			CorrectiveActions: p.cell(c.CorrectiveActions),
			Start:             p.cell(c.IncidentStart),
			End:               p.cell(c.IncidentEnd),
		}
	}
	return r
}

// String is used in logs.
func (s *Snapshot) String() string {
	return fmt.Sprintf("snapshot %s (%d rows)", s.ID, s.Len())
}
