package dashboard

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gyaneshwarpardhi/plantboard/internal/filter"
)

// DateLayout is the query date format.
const DateLayout = "2006-01-02"

// DefaultTopTerms is the number of observation terms returned when top is
// not given.
const DefaultTopTerms = 30

// Query carries the user selections shared by every view.
type Query struct {
	Range    filter.DateRange
	Machine  string
	Product  string
	Category string
	Day      time.Time
	Top      int
}

// ParseQuery reads from, to, machine, product, category, day and top.
// Unknown parameters are ignored.
func ParseQuery(v url.Values) (Query, error) {
	var q Query
	var err error
	if q.Range.From, err = parseDay(v.Get("from")); err != nil {
		return q, fmt.Errorf("%w: from: %w", ErrInvalidQuery, err)
	}
	if q.Range.To, err = parseDay(v.Get("to")); err != nil {
		return q, fmt.Errorf("%w: to: %w", ErrInvalidQuery, err)
	}
	if !q.Range.From.IsZero() && !q.Range.To.IsZero() && q.Range.To.Before(q.Range.From) {
		return q, fmt.Errorf("%w: to %s is before from %s", ErrInvalidQuery, v.Get("to"), v.Get("from"))
	}
	if q.Day, err = parseDay(v.Get("day")); err != nil {
		return q, fmt.Errorf("%w: day: %w", ErrInvalidQuery, err)
	}
	q.Machine = strings.TrimSpace(v.Get("machine"))
	q.Product = strings.TrimSpace(v.Get("product"))
	q.Category = strings.TrimSpace(v.Get("category"))
	if top := v.Get("top"); top != "" {
		if q.Top, err = strconv.Atoi(top); err != nil || q.Top < 0 {
			return q, fmt.Errorf("%w: top: %q is not a non-negative integer", ErrInvalidQuery, top)
		}
	}
	return q, nil
}

// Values is the canonical encoding of q, used in cache keys.
func (q Query) Values() url.Values {
	v := url.Values{}
	set := func(k, s string) {
		if s != "" {
			v.Set(k, s)
		}
	}
	set("from", formatDay(q.Range.From))
	set("to", formatDay(q.Range.To))
	set("day", formatDay(q.Day))
	set("machine", q.Machine)
	set("product", q.Product)
	set("category", q.Category)
	if q.Top != 0 {
		v.Set("top", strconv.Itoa(q.Top))
	}
	return v
}

func parseDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is not a YYYY-MM-DD date", s)
	}
	return t, nil
}

func formatDay(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}
