package compare

import (
	"errors"
	"fmt"
	"math"

	"github.com/guregu/null/v6"
	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	"MacroLens/internal/model"
)

// ErrTooFewSharedDates is returned when countries overlap on fewer than two dates.
var ErrTooFewSharedDates = errors.New("fewer than two shared dates")

// Summary describes one country's column of a merged series.
type Summary struct {
	Country   model.Country `json:"country"`
	Count     int           `json:"count"`
	FirstDate string        `json:"firstDate,omitempty"`
	LastDate  string        `json:"lastDate,omitempty"`
	First     null.Float    `json:"first"`
	Last      null.Float    `json:"last"`
	Min       null.Float    `json:"min"`
	Max       null.Float    `json:"max"`
	Mean      null.Float    `json:"mean"`
	Median    null.Float    `json:"median"`
	StdDev    null.Float    `json:"stddev"`
	CAGR      null.Float    `json:"cagr"`
}

// Summarize computes per-country statistics of id in country order.
func (v *ComparativeView) Summarize(id model.SeriesID) ([]Summary, error) {
	merged, err := v.GetMergedMacro(id)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(merged.Countries))
	for _, c := range merged.Countries {
		s, err := summarize(c, merged.Column(c))
		if err != nil {
			return nil, fmt.Errorf("summarize %s %s: %w", c, id, err)
		}
		out = append(out, s)
	}
	return out, nil
}

func summarize(c model.Country, ts model.TimeSeries) (Summary, error) {
	s := Summary{Country: c, Count: ts.Len()}
	if ts.IsEmpty() {
		return s, nil
	}
	data := ts.Values()
	first, _ := ts.First()
	last, _ := ts.Last()
	s.FirstDate = first.Date.Format(model.DateLayout)
	s.LastDate = last.Date.Format(model.DateLayout)
	s.First = null.FloatFrom(first.Value)
	s.Last = null.FloatFrom(last.Value)

	lo, err := stats.Min(data)
	if err != nil {
		return s, err
	}
	hi, err := stats.Max(data)
	if err != nil {
		return s, err
	}
	mean, err := stats.Mean(data)
	if err != nil {
		return s, err
	}
	median, err := stats.Median(data)
	if err != nil {
		return s, err
	}
	s.Min, s.Max = null.FloatFrom(lo), null.FloatFrom(hi)
	s.Mean, s.Median = null.FloatFrom(mean), null.FloatFrom(median)

	if len(data) > 1 {
		sd, err := stats.StandardDeviationSample(data)
		if err != nil {
			return s, err
		}
		s.StdDev = null.FloatFrom(sd)
	}
	s.CAGR = cagr(first, last)
	return s, nil
}

// cagr is the compound annual growth rate between two positive observations.
func cagr(first, last model.Point) null.Float {
	years := last.Date.Sub(first.Date).Hours() / 24 / 365.25
	if years <= 0 || first.Value <= 0 || last.Value <= 0 {
		return null.Float{}
	}
	return null.FloatFrom(math.Pow(last.Value/first.Value, 1/years) - 1)
}

// CorrelationMatrix holds pairwise Pearson coefficients; Values[i][j]
// relates Countries[i] and Countries[j]. Cells are null where a column is
// constant.
type CorrelationMatrix struct {
	Series      model.SeriesID  `json:"series"`
	Countries   []model.Country `json:"countries"`
	SharedDates int             `json:"sharedDates"`
	Values      [][]null.Float  `json:"values"`
}

// Correlation correlates id between countries over the dates they all share.
func (v *ComparativeView) Correlation(id model.SeriesID) (CorrelationMatrix, error) {
	inner := *v
	inner.join = model.JoinInner
	merged, err := inner.GetMergedMacro(id)
	if err != nil {
		return CorrelationMatrix{}, err
	}
	if len(merged.Index) < 2 {
		return CorrelationMatrix{}, fmt.Errorf("correlate %s: %w", id, ErrTooFewSharedDates)
	}

	cols := make([][]float64, len(merged.Countries))
	for i, c := range merged.Countries {
		cols[i] = merged.Column(c).Values()
	}
	values := make([][]null.Float, len(cols))
	for i := range cols {
		values[i] = make([]null.Float, len(cols))
		for j := range cols {
			r := stat.Correlation(cols[i], cols[j], nil)
			if !math.IsNaN(r) {
				values[i][j] = null.FloatFrom(r)
			}
		}
	}
	return CorrelationMatrix{
		Series:      id,
		Countries:   merged.Countries,
		SharedDates: len(merged.Index),
		Values:      values,
	}, nil
}
