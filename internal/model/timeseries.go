package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// DateLayout is the wire and display format for series dates.
const DateLayout = "2006-01-02"

// Point is a single dated observation.
type Point struct {
	Date  time.Time
	Value float64
}

// TimeSeries is an ascending, duplicate-free sequence of points. It is never
// mutated after construction.
type TimeSeries struct {
	points []Point
}

// NewTimeSeries sorts points by date and drops duplicates; for a repeated
// date the last point given wins. Dates are truncated to UTC midnight.
func NewTimeSeries(points []Point) TimeSeries {
	if len(points) == 0 {
		return TimeSeries{}
	}
	cp := make([]Point, len(points))
	for i, p := range points {
		cp[i] = Point{Date: Day(p.Date), Value: p.Value}
	}
	sort.SliceStable(cp, func(i, j int) bool { return cp[i].Date.Before(cp[j].Date) })

	out := cp[:0]
	for _, p := range cp {
		if n := len(out); n > 0 && out[n-1].Date.Equal(p.Date) {
			out[n-1] = p
			continue
		}
		out = append(out, p)
	}
	return TimeSeries{points: out}
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// MustDate parses a YYYY-MM-DD date and panics on malformed input. Meant for
// fixtures and constants.
func MustDate(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func (s TimeSeries) Len() int { return len(s.points) }

func (s TimeSeries) IsEmpty() bool { return len(s.points) == 0 }

// Points returns a copy of the underlying points.
func (s TimeSeries) Points() []Point {
	out := make([]Point, len(s.points))
	copy(out, s.points)
	return out
}

func (s TimeSeries) Dates() []time.Time {
	out := make([]time.Time, len(s.points))
	for i, p := range s.points {
		out[i] = p.Date
	}
	return out
}

func (s TimeSeries) Values() []float64 {
	out := make([]float64, len(s.points))
	for i, p := range s.points {
		out[i] = p.Value
	}
	return out
}

// At returns the value observed on date, if any.
func (s TimeSeries) At(date time.Time) (float64, bool) {
	d := Day(date)
	i := sort.Search(len(s.points), func(i int) bool { return !s.points[i].Date.Before(d) })
	if i < len(s.points) && s.points[i].Date.Equal(d) {
		return s.points[i].Value, true
	}
	return 0, false
}

func (s TimeSeries) First() (Point, bool) {
	if len(s.points) == 0 {
		return Point{}, false
	}
	return s.points[0], true
}

func (s TimeSeries) Last() (Point, bool) {
	if len(s.points) == 0 {
		return Point{}, false
	}
	return s.points[len(s.points)-1], true
}

// Between returns the points whose date lies inside r, inclusive.
func (s TimeSeries) Between(r DateRange) TimeSeries {
	var out []Point
	for _, p := range s.points {
		if r.Contains(p.Date) {
			out = append(out, p)
		}
	}
	return TimeSeries{points: out}
}

type jsonPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

func (s TimeSeries) MarshalJSON() ([]byte, error) {
	out := make([]jsonPoint, len(s.points))
	for i, p := range s.points {
		out[i] = jsonPoint{Date: p.Date.Format(DateLayout), Value: p.Value}
	}
	return json.Marshal(out)
}

func (s *TimeSeries) UnmarshalJSON(data []byte) error {
	var raw []jsonPoint
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	points := make([]Point, 0, len(raw))
	for _, r := range raw {
		d, err := time.Parse(DateLayout, r.Date)
		if err != nil {
			return fmt.Errorf("parse point date %q: %w", r.Date, err)
		}
		points = append(points, Point{Date: d, Value: r.Value})
	}
	*s = NewTimeSeries(points)
	return nil
}
