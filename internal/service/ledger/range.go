package ledger

import (
	"strings"
	"time"

	"github.com/Azure/go-autorest/autorest/date"

	"geoattendance/backend/internal/pkg/apperr"
)

// Range selects records by check-in time. From is inclusive, To is
// exclusive; nil bounds are open.
type Range struct {
	From *time.Time
	To   *time.Time
}

// Contains reports whether t falls inside r.
func (r Range) Contains(t time.Time) bool {
	if r.From != nil && t.Before(*r.From) {
		return false
	}
	if r.To != nil && !t.Before(*r.To) {
		return false
	}
	return true
}

// ParseRange builds a Range from calendar dates as typed by a client
// (YYYY-MM-DD, RFC 3339 also accepted). The whole "to" day is included.
func ParseRange(from, to string, loc *time.Location) (Range, error) {
	if loc == nil {
		loc = time.UTC
	}

	var r Range

	if from = strings.TrimSpace(from); from != "" {
		day, err := parseDay(from, loc)
		if err != nil {
			return Range{}, apperr.Validation(`Invalid "from" date format`)
		}
		r.From = &day
	}

	if to = strings.TrimSpace(to); to != "" {
		day, err := parseDay(to, loc)
		if err != nil {
			return Range{}, apperr.Validation(`Invalid "to" date format`)
		}
		end := day.AddDate(0, 0, 1)
		r.To = &end
	}

	if r.From != nil && r.To != nil && !r.From.Before(*r.To) {
		return Range{}, apperr.Validation(`"from" must not be after "to"`)
	}

	return r, nil
}

// parseDay returns the start of the calendar day named by s in loc.
func parseDay(s string, loc *time.Location) (time.Time, error) {
	if d, err := date.ParseDate(s); err == nil {
		t := d.ToTime()
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), nil
	}

	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), nil
}
