// Package blockdates maintains the set of calendar days closed for booking.
//
// Days compare by year, month and day of month only. The whole set is sent
// to the server on every change; individual add and remove operations are
// read-modify-write against the cached set.
package blockdates

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/araddon/dateparse"
)

// WireLayout is the day format the server accepts.
const WireLayout = "2006-01-02"

// Day is a calendar day with no time of day and no zone.
type Day struct {
	Year  int
	Month time.Month
	Day   int
}

// DayOf returns the calendar day of t in t's own location.
func DayOf(t time.Time) Day {
	y, m, d := t.Date()
	return Day{Year: y, Month: m, Day: d}
}

// ParseDay reads a day from any common date or timestamp format. Dates
// without a zone are read in local time; timestamps keep their own offset
// so "2025-06-10T00:00:00Z" is June 10 everywhere.
func ParseDay(s string) (Day, error) {
	t, err := dateparse.ParseIn(s, time.Local)
	if err != nil {
		return Day{}, fmt.Errorf("parse blocked date %q: %w", s, err)
	}
	return DayOf(t), nil
}

// String renders the day as yyyy-MM-dd.
func (d Day) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Time returns midnight of the day in loc.
func (d Day) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// Compare orders days chronologically.
func (d Day) Compare(o Day) int {
	if c := cmp.Compare(d.Year, o.Year); c != 0 {
		return c
	}
	if c := cmp.Compare(d.Month, o.Month); c != 0 {
		return c
	}
	return cmp.Compare(d.Day, o.Day)
}

// Set is an immutable, sorted, duplicate-free set of days.
type Set struct {
	days []Day
}

// NewSet builds a set; duplicates collapse.
func NewSet(days ...Day) Set {
	out := slices.Clone(days)
	slices.SortFunc(out, Day.Compare)
	out = slices.CompactFunc(out, func(a, b Day) bool { return a == b })
	return Set{days: out}
}

// ParseSet reads server values. Unparseable entries are returned as an
// error alongside the days that did parse.
func ParseSet(values []string) (Set, error) {
	days := make([]Day, 0, len(values))
	var firstErr error
	for _, v := range values {
		d, err := ParseDay(v)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		days = append(days, d)
	}
	return NewSet(days...), firstErr
}

// Len returns the number of days.
func (s Set) Len() int { return len(s.days) }

// Days returns a copy of the days in order.
func (s Set) Days() []Day { return slices.Clone(s.days) }

// Contains reports whether d is in the set.
func (s Set) Contains(d Day) bool {
	_, found := slices.BinarySearchFunc(s.days, d, Day.Compare)
	return found
}

// With returns the set plus d.
func (s Set) With(d Day) Set {
	if s.Contains(d) {
		return s
	}
	return NewSet(append(slices.Clone(s.days), d)...)
}

// Without returns the set minus d.
func (s Set) Without(d Day) Set {
	return Set{days: slices.DeleteFunc(slices.Clone(s.days), func(x Day) bool { return x == d })}
}

// Strings renders the set in wire format.
func (s Set) Strings() []string {
	out := make([]string, len(s.days))
	for i, d := range s.days {
		out[i] = d.String()
	}
	return out
}

// InMonth returns the days that fall in year/month.
func (s Set) InMonth(year int, month time.Month) []Day {
	var out []Day
	for _, d := range s.days {
		if d.Year == year && d.Month == month {
			out = append(out, d)
		}
	}
	return out
}
