package compare

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/guregu/null/v6"
	"golang.org/x/sync/errgroup"

	"MacroLens/internal/country"
	"MacroLens/internal/model"
	"MacroLens/internal/viz"
)

// loadParallelism bounds how many countries Load fetches at once.
const loadParallelism = 4

// ComparativeView merges one series across a fixed set of countries. It
// reads each CountrySeries' accumulated table; it never fetches on its own
// except through Load.
type ComparativeView struct {
	countries []*country.CountrySeries
	join      model.JoinPolicy
}

// New creates a view over countries in the given order. Repeated countries
// are kept once.
func New(countries ...*country.CountrySeries) *ComparativeView {
	seen := make(map[model.Country]bool, len(countries))
	kept := make([]*country.CountrySeries, 0, len(countries))
	for _, cs := range countries {
		if cs == nil || seen[cs.Country] {
			continue
		}
		seen[cs.Country] = true
		kept = append(kept, cs)
	}
	return &ComparativeView{countries: kept, join: model.JoinOuter}
}

// WithJoin sets the date join policy used by GetMergedMacro.
func (v *ComparativeView) WithJoin(j model.JoinPolicy) *ComparativeView {
	v.join = j
	return v
}

// Join returns the current join policy.
func (v *ComparativeView) Join() model.JoinPolicy { return v.join }

// Countries lists the view's countries in order.
func (v *ComparativeView) Countries() []model.Country {
	out := make([]model.Country, len(v.countries))
	for i, cs := range v.countries {
		out[i] = cs.Country
	}
	return out
}

// Load calls GetMacros on every country. Failures are joined; whatever
// succeeded stays in each country's table.
func (v *ComparativeView) Load(ctx context.Context, period model.Period, ids ...model.SeriesID) error {
	var (
		mu   sync.Mutex
		errs []error
		g    errgroup.Group
	)
	g.SetLimit(loadParallelism)
	for _, cs := range v.countries {
		cs := cs
		g.Go(func() error {
			if _, err := cs.GetMacros(ctx, period, ids...); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// GetMergedMacro aligns id across every country that holds it. Countries
// with no entry for id are left out entirely. With no such country the
// result is an empty table, not an error.
func (v *ComparativeView) GetMergedMacro(id model.SeriesID) (model.MergedTable, error) {
	if !id.Valid() {
		return model.MergedTable{}, fmt.Errorf("%w: %q", model.ErrUnknownSeries, string(id))
	}

	merged := model.MergedTable{
		Series:  id,
		Join:    v.join,
		Columns: make(map[model.Country][]null.Float),
	}
	var included []model.TimeSeries
	for _, cs := range v.countries {
		ts, ok := cs.Series(id)
		if !ok {
			continue
		}
		merged.Countries = append(merged.Countries, cs.Country)
		included = append(included, ts)
	}
	if len(included) == 0 {
		return merged, nil
	}

	merged.Index = dateIndex(included, v.join)
	for i, c := range merged.Countries {
		col := make([]null.Float, len(merged.Index))
		for j, d := range merged.Index {
			if val, ok := included[i].At(d); ok {
				col[j] = null.FloatFrom(val)
			}
		}
		merged.Columns[c] = col
	}
	return merged, nil
}

// dateIndex returns the union (outer) or intersection (inner) of all dates.
func dateIndex(series []model.TimeSeries, join model.JoinPolicy) []time.Time {
	counts := make(map[time.Time]int)
	for _, ts := range series {
		for _, d := range ts.Dates() {
			counts[d]++
		}
	}
	index := make([]time.Time, 0, len(counts))
	for d, n := range counts {
		if join == model.JoinInner && n < len(series) {
			continue
		}
		index = append(index, d)
	}
	sort.Slice(index, func(i, j int) bool { return index[i].Before(index[j]) })
	return index
}

// Visualize draws one line per merged country over the shared date axis.
func (v *ComparativeView) Visualize(id model.SeriesID) (*viz.Figure, error) {
	merged, err := v.GetMergedMacro(id)
	if err != nil {
		return nil, err
	}
	if merged.Empty() {
		return nil, fmt.Errorf("%w: no country holds %s", model.ErrNoDataToVisualize, id)
	}
	fig := viz.NewFigure(id.Label(), "Date", id.Unit())
	for _, c := range merged.Countries {
		col := merged.Column(c)
		fig.AddLine(string(c), col.Dates(), col.Values())
	}
	if fig.Empty() {
		return nil, fmt.Errorf("%w: every %s cell is empty", model.ErrNoDataToVisualize, id)
	}
	return fig, nil
}
