package record

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// CleanText trims s and collapses internal runs of whitespace.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// MachineKey is the comparison form of a machine name: whitespace-collapsed
// and case-folded. Display always uses the cleaned original.
func MachineKey(s string) string {
	return cases.Fold().String(CleanText(s))
}

// Fold strips accents and case-folds s so "Sí", "si" and "SI" compare equal.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, CleanText(s))
	if err != nil {
		out = CleanText(s)
	}
	return cases.Fold().String(out)
}

// Answers recognises the affirmative answers of yes/no columns.
type Answers struct {
	yes map[string]bool
}

// NewAnswers builds a matcher from the configured yes values.
func NewAnswers(yes []string) Answers {
	a := Answers{yes: make(map[string]bool, len(yes))}
	for _, v := range yes {
		a.yes[Fold(v)] = true
	}
	return a
}

// Yes reports whether raw is one of the affirmative answers.
func (a Answers) Yes(raw string) bool {
	if raw == "" {
		return false
	}
	return a.yes[Fold(raw)]
}
