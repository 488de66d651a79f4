package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultPeriod is used when the caller does not specify one.
const DefaultPeriod = "10Y"

// DateRange is a resolved, inclusive calendar window.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange validates that end is not before start.
func NewDateRange(start, end time.Time) (DateRange, error) {
	r := DateRange{Start: Day(start), End: Day(end)}
	if r.End.Before(r.Start) {
		return DateRange{}, fmt.Errorf("%w: end %s before start %s", ErrInvalidPeriod,
			r.End.Format(DateLayout), r.Start.Format(DateLayout))
	}
	return r, nil
}

func (r DateRange) Contains(t time.Time) bool {
	d := Day(t)
	return !d.Before(r.Start) && !d.After(r.End)
}

func (r DateRange) String() string {
	return r.Start.Format(DateLayout) + ".." + r.End.Format(DateLayout)
}

type periodUnit byte

const (
	unitDay   periodUnit = 'D'
	unitWeek  periodUnit = 'W'
	unitMonth periodUnit = 'M'
	unitYear  periodUnit = 'Y'
	unitYTD   periodUnit = 'T'
)

// Period is a requested historical window: either a lookback relative to
// the moment it is resolved, or a fixed range.
type Period struct {
	n     int
	unit  periodUnit
	fixed *DateRange
}

// ParsePeriod accepts "<n>D", "<n>W", "<n>M", "<n>Y" (case-insensitive),
// "YTD", or "YYYY-MM-DD:YYYY-MM-DD". An empty string yields DefaultPeriod.
func ParsePeriod(s string) (Period, error) {
	raw := strings.ToUpper(strings.TrimSpace(s))
	if raw == "" {
		raw = DefaultPeriod
	}
	if raw == "YTD" {
		return Period{unit: unitYTD}, nil
	}
	if start, end, ok := strings.Cut(raw, ":"); ok {
		from, err := time.Parse(DateLayout, start)
		if err != nil {
			return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
		}
		to, err := time.Parse(DateLayout, end)
		if err != nil {
			return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
		}
		r, err := NewDateRange(from, to)
		if err != nil {
			return Period{}, err
		}
		return Period{fixed: &r}, nil
	}

	unit := periodUnit(raw[len(raw)-1])
	switch unit {
	case unitDay, unitWeek, unitMonth, unitYear:
	default:
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	n, err := strconv.Atoi(raw[:len(raw)-1])
	if err != nil || n <= 0 {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	return Period{n: n, unit: unit}, nil
}

// MustPeriod is ParsePeriod for constants; it panics on error.
func MustPeriod(s string) Period {
	p, err := ParsePeriod(s)
	if err != nil {
		panic(err)
	}
	return p
}

// Years returns a lookback of n years.
func Years(n int) Period { return Period{n: n, unit: unitYear} }

// Fixed returns a period that always resolves to r.
func Fixed(r DateRange) Period { return Period{fixed: &r} }

// IsZero reports whether p was never set; a zero Period resolves as DefaultPeriod.
func (p Period) IsZero() bool { return p.fixed == nil && p.unit == 0 }

// Resolve anchors the period at now and returns the concrete window.
func (p Period) Resolve(now time.Time) DateRange {
	if p.fixed != nil {
		return *p.fixed
	}
	if p.IsZero() {
		p = MustPeriod(DefaultPeriod)
	}
	end := Day(now)
	var start time.Time
	switch p.unit {
	case unitDay:
		start = end.AddDate(0, 0, -p.n)
	case unitWeek:
		start = end.AddDate(0, 0, -7*p.n)
	case unitMonth:
		start = end.AddDate(0, -p.n, 0)
	case unitYear:
		start = end.AddDate(-p.n, 0, 0)
	case unitYTD:
		start = time.Date(end.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	return DateRange{Start: start, End: end}
}

func (p Period) String() string {
	switch {
	case p.fixed != nil:
		return p.fixed.Start.Format(DateLayout) + ":" + p.fixed.End.Format(DateLayout)
	case p.IsZero():
		return DefaultPeriod
	case p.unit == unitYTD:
		return "YTD"
	default:
		return strconv.Itoa(p.n) + string(rune(p.unit))
	}
}
