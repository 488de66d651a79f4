package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/guregu/null/v6"
)

// JoinPolicy controls which dates survive a cross-country merge.
type JoinPolicy string

const (
	// JoinOuter keeps the union of dates; missing cells are null.
	JoinOuter JoinPolicy = "outer"
	// JoinInner keeps only dates every included country observed.
	JoinInner JoinPolicy = "inner"
)

// ParseJoinPolicy defaults to JoinOuter for an empty string.
func ParseJoinPolicy(s string) (JoinPolicy, error) {
	switch JoinPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", JoinOuter:
		return JoinOuter, nil
	case JoinInner:
		return JoinInner, nil
	default:
		return "", fmt.Errorf("unknown join policy %q", s)
	}
}

// MergedTable aligns one series across countries on a shared date index.
// Columns[c][i] is the value of country c on Index[i].
type MergedTable struct {
	Series    SeriesID
	Join      JoinPolicy
	Countries []Country
	Index     []time.Time
	Columns   map[Country][]null.Float
}

// MergedRow is one date of a MergedTable, shaped for JSON.
type MergedRow struct {
	Date   string                `json:"date"`
	Values map[Country]null.Float `json:"values"`
}

// Empty reports whether the table has no country or no date.
func (m MergedTable) Empty() bool {
	return len(m.Countries) == 0 || len(m.Index) == 0
}

// Value returns the cell for country on date.
func (m MergedTable) Value(c Country, date time.Time) (float64, bool) {
	col, ok := m.Columns[c]
	if !ok {
		return 0, false
	}
	d := Day(date)
	for i, t := range m.Index {
		if t.Equal(d) {
			cell := col[i]
			return cell.Float64, cell.Valid
		}
	}
	return 0, false
}

// HasCountry reports whether c has a column.
func (m MergedTable) HasCountry(c Country) bool {
	_, ok := m.Columns[c]
	return ok
}

// Column returns the non-null cells of one country as a TimeSeries.
func (m MergedTable) Column(c Country) TimeSeries {
	col := m.Columns[c]
	points := make([]Point, 0, len(col))
	for i, cell := range col {
		if cell.Valid {
			points = append(points, Point{Date: m.Index[i], Value: cell.Float64})
		}
	}
	return NewTimeSeries(points)
}

// Rows returns the table row by row.
func (m MergedTable) Rows() []MergedRow {
	rows := make([]MergedRow, len(m.Index))
	for i, t := range m.Index {
		values := make(map[Country]null.Float, len(m.Countries))
		for _, c := range m.Countries {
			values[c] = m.Columns[c][i]
		}
		rows[i] = MergedRow{Date: t.Format(DateLayout), Values: values}
	}
	return rows
}
