package viz

import (
	"math"
	"time"
)

// Default color palette for figure lines.
var defaultColors = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

// Point is one (time, value) sample of a line.
type Point struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// Line is one named series of a figure.
type Line struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
	Color  string  `json:"color,omitempty"`
	Dashed bool    `json:"dashed,omitempty"`
	// Fill shades the area between the line and zero, for volume-like series.
	Fill bool `json:"fill,omitempty"`
}

// Guide is a horizontal reference level, such as an RSI threshold.
type Guide struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Figure describes a time-axis chart independently of how it is drawn.
type Figure struct {
	Title  string  `json:"title"`
	XAxis  string  `json:"xAxis,omitempty"`
	YAxis  string  `json:"yAxis,omitempty"`
	Lines  []Line  `json:"lines"`
	Guides []Guide `json:"guides,omitempty"`
}

// NewFigure creates an empty figure.
func NewFigure(title, xAxis, yAxis string) *Figure {
	return &Figure{Title: title, XAxis: xAxis, YAxis: yAxis}
}

// AddLine appends a line with the next palette color. NaN values are dropped.
func (f *Figure) AddLine(name string, times []time.Time, values []float64) *Line {
	n := len(times)
	if len(values) < n {
		n = len(values)
	}
	points := make([]Point, 0, n)
	for i := 0; i < n; i++ {
		if math.IsNaN(values[i]) || math.IsInf(values[i], 0) {
			continue
		}
		points = append(points, Point{Time: times[i], Value: values[i]})
	}
	f.Lines = append(f.Lines, Line{
		Name:   name,
		Points: points,
		Color:  defaultColors[len(f.Lines)%len(defaultColors)],
	})
	return &f.Lines[len(f.Lines)-1]
}

// AddGuide appends a horizontal reference level.
func (f *Figure) AddGuide(label string, value float64) {
	f.Guides = append(f.Guides, Guide{Label: label, Value: value})
}

// Empty reports whether no line has a point.
func (f *Figure) Empty() bool {
	if f == nil {
		return true
	}
	for _, l := range f.Lines {
		if len(l.Points) > 0 {
			return false
		}
	}
	return true
}

// Span returns the earliest and latest time over all lines.
func (f *Figure) Span() (first, last time.Time, ok bool) {
	for _, l := range f.Lines {
		for _, p := range l.Points {
			if !ok || p.Time.Before(first) {
				first = p.Time
			}
			if !ok || p.Time.After(last) {
				last = p.Time
			}
			ok = true
		}
	}
	return first, last, ok
}

// LineNames returns the line names in order.
func (f *Figure) LineNames() []string {
	names := make([]string, len(f.Lines))
	for i, l := range f.Lines {
		names[i] = l.Name
	}
	return names
}
