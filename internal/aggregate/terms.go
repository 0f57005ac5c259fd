package aggregate

import (
	"sort"
	"strings"
	"unicode"
)

// Term is a word and how many times it appears across observation notes.
type Term struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

var spanishStopwords = strings.Fields(`
a al algo algunas algunos ante antes como con contra cual cuando de del desde donde durante
e el ella ellas ellos en entre era es esa esas ese eso esos esta estaba estado estan estas este
esto estos fue fueron ha habia han hasta hay la las le les lo los mas me mi mientras muy
nada ni no nos o otra otras otro otros para pero poco por porque que quien se sea segun ser
si sin sobre solo su sus tambien tiene tienen todo todos tras tu un una uno unos y ya
más está están también según sólo había qué cómo
`)

// TopTerms counts words in texts after lower-casing and stripping
// punctuation and digits. Stopwords and one-letter words are skipped. At
// most n terms are returned, most frequent first; n ≤ 0 returns all.
func TopTerms(texts []string, extraStopwords []string, n int) []Term {
	stop := make(map[string]bool, len(spanishStopwords)+len(extraStopwords))
	for _, w := range spanishStopwords {
		stop[w] = true
	}
	for _, w := range extraStopwords {
		stop[strings.ToLower(strings.TrimSpace(w))] = true
	}

	counts := map[string]int{}
	for _, text := range texts {
		cleaned := strings.Map(func(r rune) rune {
			switch {
			case unicode.IsLetter(r):
				return unicode.ToLower(r)
			case unicode.IsSpace(r):
				return ' '
			}
			return -1
		}, text)
		for _, w := range strings.Fields(cleaned) {
			if len([]rune(w)) < 2 || stop[w] {
				continue
			}
			counts[w]++
		}
	}

	out := make([]Term, 0, len(counts))
	for w, c := range counts {
		out = append(out, Term{Term: w, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Term < out[j].Term
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
