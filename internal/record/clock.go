package record

import (
	"fmt"
	"math"
	"strings"
	"time"
)

var (
	meridiemLayouts = []string{"3:04PM", "3:04:05PM"}
	clockLayouts    = []string{"15:04", "15:04:05"}
)

// ParseClock parses a time of day into an offset from midnight.
// 12-hour text with a meridiem marker is tried first ("2:30 PM",
// "2:30 p.m.", "02:30:00 a. m."), then 24-hour "HH:MM[:SS]".
func ParseClock(s string) (time.Duration, bool) {
	s = strings.TrimSpace(s)
	if s == "" || !strings.Contains(s, ":") {
		return 0, false
	}

	compact := strings.ToUpper(strings.NewReplacer(".", "", " ", "").Replace(s))
	for _, layout := range meridiemLayouts {
		if t, err := time.Parse(layout, compact); err == nil {
			return sinceMidnight(t), true
		}
	}
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return sinceMidnight(t), true
		}
	}
	return 0, false
}

func sinceMidnight(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second
}

// Span returns the elapsed time between start and end on date. An end
// before the start is taken to cross midnight. ok is false when the date
// is missing or either time does not parse.
func Span(date time.Time, start, end string) (time.Duration, bool) {
	if date.IsZero() {
		return 0, false
	}
	s, ok := ParseClock(start)
	if !ok {
		return 0, false
	}
	e, ok := ParseClock(end)
	if !ok {
		return 0, false
	}
	if e < s {
		e += 24 * time.Hour
	}
	return e - s, true
}

// DurationHours is Span in fractional hours.
func DurationHours(date time.Time, start, end string) (float64, bool) {
	d, ok := Span(date, start, end)
	if !ok {
		return 0, false
	}
	return d.Hours(), true
}

// DurationMinutes is Span in fractional minutes.
func DurationMinutes(date time.Time, start, end string) (float64, bool) {
	d, ok := Span(date, start, end)
	if !ok {
		return 0, false
	}
	return d.Minutes(), true
}

// FormatDuration renders hours as "2 hr 5 min", "2 hr", "45 min" or "0 min".
// Missing or negative durations render as "N/A".
func FormatDuration(hours float64, ok bool) string {
	if !ok || hours < 0 || math.IsNaN(hours) {
		return "N/A"
	}
	if hours == 0 {
		return "0 min"
	}
	total := int(math.Round(hours * 60))
	h, m := total/60, total%60
	switch {
	case h > 0 && m > 0:
		return fmt.Sprintf("%d hr %d min", h, m)
	case h > 0:
		return fmt.Sprintf("%d hr", h)
	default:
		return fmt.Sprintf("%d min", m)
	}
}
