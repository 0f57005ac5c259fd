package aggregate

import (
	"fmt"
	"math"
)

// Class is a semaphore colour class.
type Class string

const (
	Positive Class = "positive"
	Neutral  Class = "neutral"
	Negative Class = "negative"
	None     Class = "none" // no value to rate
)

// Polarity says which direction of change is good.
type Polarity int

const (
	HigherIsBetter Polarity = iota // production
	LowerIsBetter                  // incidents
)

// Thresholds are the variation percentages that leave the neutral band.
type Thresholds struct {
	Positive float64
	Negative float64
}

// DefaultThresholds is the ±5% band.
var DefaultThresholds = Thresholds{Positive: 5, Negative: -5}

// Variation is a percent change. Defined is false when the previous value
// is unknown ("N/A").
type Variation struct {
	Percent float64
	Defined bool
}

// Vary applies the period comparison rule:
//
//	previous unknown           → N/A
//	previous 0, current 0      → 0%
//	previous 0, current ≠ 0    → +Inf
//	previous ≠ 0, current 0    → -100%
//	otherwise                  → (current-previous)/previous × 100
func Vary(current float64, previous float64, previousKnown bool) Variation {
	if !previousKnown || math.IsNaN(previous) || math.IsNaN(current) {
		return Variation{}
	}
	switch {
	case previous == 0 && current == 0:
		return Variation{Percent: 0, Defined: true}
	case previous == 0:
		return Variation{Percent: math.Inf(1), Defined: true}
	case current == 0:
		return Variation{Percent: -100, Defined: true}
	}
	return Variation{Percent: (current - previous) / previous * 100, Defined: true}
}

// Text renders the variation for display: "+Inf%", "-Inf%", "-100%",
// "+133.3%" or "N/A".
func (v Variation) Text() string {
	switch {
	case !v.Defined:
		return "N/A"
	case math.IsInf(v.Percent, 1):
		return "+Inf%"
	case math.IsInf(v.Percent, -1):
		return "-Inf%"
	case v.Percent == -100:
		return "-100%"
	}
	return fmt.Sprintf("%+.1f%%", v.Percent)
}

// Classify rates a variation. For LowerIsBetter the comparison flips, so a
// drop in incidents is positive.
func Classify(v Variation, p Polarity, t Thresholds) Class {
	if !v.Defined {
		return None
	}
	up, down := Positive, Negative
	if p == LowerIsBetter {
		up, down = Negative, Positive
	}
	switch {
	case v.Percent > t.Positive:
		return up
	case v.Percent < t.Negative:
		return down
	}
	return Neutral
}

// MarshalJSON writes the display text with the raw percent; infinities are
// not valid JSON numbers so they travel as text only.
func (v Variation) MarshalJSON() ([]byte, error) {
	if !v.Defined || math.IsInf(v.Percent, 0) {
		return []byte(fmt.Sprintf(`{"percent":null,"text":%q}`, v.Text())), nil
	}
	return []byte(fmt.Sprintf(`{"percent":%g,"text":%q}`, v.Percent, v.Text())), nil
}
