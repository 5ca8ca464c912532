// Package dateutil provides the engine's date arithmetic: a dedicated Date
// type with an explicit Monday=0 weekday convention, weekend classification,
// and ISO YYYY-MM-DD parsing, independent of time.Weekday's Sunday=0 scheme.
package dateutil

import (
	"fmt"
	"time"
)

const layoutISO = "2006-01-02"

// Date is a calendar day with no time-of-day component, always normalized
// to UTC midnight so equality and arithmetic are safe across the horizon.
type Date struct {
	t time.Time
}

// Parse reads an ISO YYYY-MM-DD string.
func Parse(s string) (Date, error) {
	t, err := time.Parse(layoutISO, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{t: t}, nil
}

// MustParse is Parse but panics on error; only safe for constants in tests.
func MustParse(s string) Date {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// FromTime truncates t to a UTC calendar day.
func FromTime(t time.Time) Date {
	u := t.UTC()
	return Date{t: time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)}
}

// String renders the date as ISO YYYY-MM-DD.
func (d Date) String() string {
	return d.t.Format(layoutISO)
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d.t.IsZero()
}

// Weekday returns the day of week with Monday=0 .. Sunday=6, the convention
// spec §9 asks for (distinct from time.Weekday's Sunday=0).
func (d Date) Weekday() int {
	wd := int(d.t.Weekday())
	return (wd + 6) % 7
}

// IsWeekend reports whether d falls on Saturday or Sunday.
func (d Date) IsWeekend() bool {
	wd := d.Weekday()
	return wd == 5 || wd == 6
}

// AddDays returns the date n days after d (n may be negative).
func (d Date) AddDays(n int) Date {
	return Date{t: d.t.AddDate(0, 0, n)}
}

// Sub returns the number of days between d and o (d - o), positive if d is
// later.
func (d Date) Sub(o Date) int {
	return int(d.t.Sub(o.t).Hours() / 24)
}

// Before reports whether d is strictly before o.
func (d Date) Before(o Date) bool { return d.t.Before(o.t) }

// After reports whether d is strictly after o.
func (d Date) After(o Date) bool { return d.t.After(o.t) }

// Equal reports whether d and o represent the same calendar day.
func (d Date) Equal(o Date) bool { return d.t.Equal(o.t) }

// Compare returns -1, 0, or 1 as d is before, equal to, or after o.
func (d Date) Compare(o Date) int {
	switch {
	case d.Before(o):
		return -1
	case d.After(o):
		return 1
	default:
		return 0
	}
}

// Range returns every date from start to end inclusive, in ascending order.
func Range(start, end Date) []Date {
	if end.Before(start) {
		return nil
	}
	n := end.Sub(start) + 1
	out := make([]Date, 0, n)
	for d := start; !d.After(end); d = d.AddDays(1) {
		out = append(out, d)
	}
	return out
}
