// Package daterange computes the [start, end] windows used by list filters,
// dashboards and the monthly aggregates.
package daterange

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Range is an inclusive window. Start is the first instant of a day and End
// the last millisecond of a day.
type Range struct {
	Start time.Time `json:"start_date"`
	End   time.Time `json:"end_date"`
}

// Contains reports whether t falls inside r
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Months returns the first instant of every month touched by r
func (r Range) Months() []time.Time {
	var months []time.Time
	for m := MonthStart(r.Start); !m.After(r.End); m = m.AddDate(0, 1, 0) {
		months = append(months, m)
	}
	return months
}

// StartOfDay clamps t to 00:00:00.000 of its day
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay clamps t to 23:59:59.999 of its day
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// MonthStart is the first instant of t's month
func MonthStart(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

// MonthEnd is the last instant of t's month
func MonthEnd(t time.Time) time.Time {
	y, m, _ := t.Date()
	return EndOfDay(time.Date(y, m+1, 0, 0, 0, 0, 0, t.Location()))
}

// Months returns the window from the first day of the month n-1 months before
// now's month to the last day of now's month. n below 1 counts as 1.
func Months(now time.Time, n int) Range {
	if n < 1 {
		n = 1
	}
	y, m, _ := now.Date()
	start := time.Date(y, m-time.Month(n-1), 1, 0, 0, 0, 0, now.Location())
	return Range{Start: start, End: MonthEnd(now)}
}

// Between clamps an explicit pair to day boundaries
func Between(start, end time.Time) Range {
	return Range{Start: StartOfDay(start), End: EndOfDay(end)}
}

// Week returns Monday 00:00 to Sunday 23:59:59.999 of now's week.
// Sunday is weekday 7.
func Week(now time.Time) Range {
	wd := int(now.Weekday())
	if wd == 0 {
		wd = 7
	}
	monday := StartOfDay(now).AddDate(0, 0, 1-wd)
	return Range{Start: monday, End: EndOfDay(monday.AddDate(0, 0, 6))}
}

// Monthly snaps start and end to whole months
func Monthly(start, end time.Time) Range {
	return Range{Start: MonthStart(start), End: MonthEnd(end)}
}

// MonthOf is the whole month containing t
func MonthOf(t time.Time) Range {
	return Range{Start: MonthStart(t), End: MonthEnd(t)}
}

// Query is a parsed range request: a month count, an explicit pair or the
// weekly flag. The first one set wins in that order.
type Query struct {
	MonthCount int
	Start      *time.Time
	End        *time.Time
	Weekly     bool
}

var ErrIncompleteRange = errors.New("startDate and endDate must be given together")

// Resolve turns q into a day-clamped range. An empty query means the current month.
func (q Query) Resolve(now time.Time) Range {
	switch {
	case q.MonthCount > 0:
		return Months(now, q.MonthCount)
	case q.Start != nil && q.End != nil:
		return Between(*q.Start, *q.End)
	case q.Weekly:
		return Week(now)
	default:
		return Months(now, 1)
	}
}

// ResolveMonthly is Resolve with an explicit pair snapped to whole months
func (q Query) ResolveMonthly(now time.Time) Range {
	if q.MonthCount <= 0 && q.Start != nil && q.End != nil {
		return Monthly(*q.Start, *q.End)
	}
	return q.Resolve(now)
}

// HasExplicit reports whether an explicit pair was given
func (q Query) HasExplicit() bool { return q.Start != nil && q.End != nil }

// ParseQuery reads monthCount, startDate, endDate and weekly from v.
// Dates are YYYY-MM-DD or RFC 3339 and are read in loc.
func ParseQuery(v url.Values, loc *time.Location) (Query, error) {
	var q Query
	if mc := strings.TrimSpace(v.Get("monthCount")); mc != "" {
		n, err := strconv.Atoi(mc)
		if err != nil || n < 1 {
			return q, errors.New("invalid monthCount")
		}
		q.MonthCount = n
	}
	startParam := strings.TrimSpace(v.Get("startDate"))
	endParam := strings.TrimSpace(v.Get("endDate"))
	if (startParam == "") != (endParam == "") {
		return q, ErrIncompleteRange
	}
	if startParam != "" {
		start, err := ParseDate(startParam, loc)
		if err != nil {
			return q, err
		}
		end, err := ParseDate(endParam, loc)
		if err != nil {
			return q, err
		}
		if end.Before(start) {
			return q, errors.New("endDate is before startDate")
		}
		q.Start, q.End = &start, &end
	}
	if w := strings.TrimSpace(v.Get("weekly")); w != "" {
		q.Weekly, _ = strconv.ParseBool(w)
	}
	return q, nil
}

// ParseDate accepts YYYY-MM-DD or RFC 3339
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, errors.New("invalid date " + strconv.Quote(s))
	}
	return t.In(loc), nil
}
