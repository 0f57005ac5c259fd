// Package render draws PNG versions of the dashboard bar charts.
package render

import (
	"bytes"
	"fmt"
	"io"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/gyaneshwarpardhi/plantboard/internal/aggregate"
	"github.com/gyaneshwarpardhi/plantboard/internal/errs"
	"github.com/gyaneshwarpardhi/plantboard/internal/record"
)

const (
	defaultWidth  = 800
	defaultHeight = 420
)

// Size is the output size in pixels. Zero fields take the defaults.
type Size struct {
	Width  int
	Height int
}

func (s Size) orDefault() Size {
	if s.Width <= 0 {
		s.Width = defaultWidth
	}
	if s.Height <= 0 {
		s.Height = defaultHeight
	}
	return s
}

var categoryColors = map[record.Category]drawing.Color{
	record.Production:  drawing.ColorFromHex("2e7d32"),
	record.Maintenance: drawing.ColorFromHex("1565c0"),
	record.Incident:    drawing.ColorFromHex("c62828"),
	record.Observation: drawing.ColorFromHex("6d6d6d"),
}

// Categories draws the category bar series in its fixed order.
func Categories(w io.Writer, bars []aggregate.Bar, size Size) error {
	values := make([]chart.Value, 0, len(bars))
	for _, b := range bars {
		values = append(values, chart.Value{
			Label: b.Label,
			Value: float64(b.Count),
			Style: chart.Style{FillColor: categoryColors[b.Category], StrokeColor: categoryColors[b.Category]},
		})
	}
	return bar(w, "Events by category", values, size)
}

// Production draws one bar per machine and unit, labelled with the
// shortened machine name.
func Production(w io.Writer, rollup []aggregate.MachineUnit, abbrev map[string]string, size Size) error {
	values := make([]chart.Value, 0, len(rollup))
	for _, mu := range rollup {
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s (%s)", aggregate.ShortenMachine(mu.Machine, abbrev), mu.Unit),
			Value: mu.Quantity,
		})
	}
	return bar(w, "Production by machine", values, size)
}

func bar(w io.Writer, title string, values []chart.Value, size Size) error {
	size = size.orDefault()
	if len(values) == 0 {
		values = []chart.Value{{Label: "No data", Value: 0}}
	}

	top := 0.0
	for _, v := range values {
		if v.Value > top {
			top = v.Value
		}
	}
	if top == 0 {
		top = 1
	}

	barWidth := (size.Width - 120) / (2 * len(values))
	if barWidth < 8 {
		barWidth = 8
	}

	ch := chart.BarChart{
		Title:      title,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		Width:      size.Width,
		Height:     size.Height,
		BarWidth:   barWidth,
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: top * 1.1},
		},
		Bars: values,
	}

	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return errs.Wrapf(err, "render %s", title)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return errs.Wrap(err, "write chart")
	}
	return nil
}
