package record

import "strings"

// Category is the event kind a row was submitted as.
type Category int

const (
	Unknown Category = iota
	Production
	Maintenance
	Incident
	Observation
)

// Categories lists the known categories in display order.
var Categories = []Category{Production, Maintenance, Incident, Observation}

var categoryKeys = map[Category]string{
	Unknown:     "unknown",
	Production:  "production",
	Maintenance: "maintenance",
	Incident:    "incident",
	Observation: "observation",
}

var categoryLabels = map[Category]string{
	Unknown:     "Unknown",
	Production:  "Production",
	Maintenance: "Maintenance",
	Incident:    "Incidents",
	Observation: "Observations",
}

// String returns the machine-readable key ("production", "incident", ...).
func (c Category) String() string {
	if k, ok := categoryKeys[c]; ok {
		return k
	}
	return "unknown"
}

// Label is the chart label of the category bar.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return "Unknown"
}

// MarshalText encodes the category by key.
func (c Category) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// UnmarshalText reverses MarshalText. Unrecognised text decodes to Unknown.
func (c *Category) UnmarshalText(text []byte) error {
	*c, _ = ParseCategory(string(text))
	return nil
}

// ParseCategory accepts a key or a chart label, case-insensitively.
func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	for _, c := range Categories {
		if strings.EqualFold(s, c.String()) || strings.EqualFold(s, c.Label()) {
			return c, true
		}
	}
	return Unknown, false
}
