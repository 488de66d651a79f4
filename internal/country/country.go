package country

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"MacroLens/internal/collector"
	"MacroLens/internal/model"
)

// CountrySeries owns one country's accumulated series table.
type CountrySeries struct {
	Country  model.Country
	Provider collector.SeriesProvider

	now func() time.Time

	mu     sync.Mutex
	table  model.SeriesTable
	status map[model.SeriesID]model.FetchStatus
	errs   map[model.SeriesID]error
}

// New creates an empty CountrySeries for c backed by provider.
func New(c model.Country, provider collector.SeriesProvider) *CountrySeries {
	return &CountrySeries{
		Country:  c,
		Provider: provider,
		now:      time.Now,
		table:    make(model.SeriesTable),
		status:   make(map[model.SeriesID]model.FetchStatus),
		errs:     make(map[model.SeriesID]error),
	}
}

// WithClock overrides the clock used to resolve periods.
func (cs *CountrySeries) WithClock(now func() time.Time) *CountrySeries {
	cs.now = now
	return cs
}

// GetMacros fetches every id over period, one at a time. A failure for one
// id never aborts the others: the returned table holds this call's
// successes and the error joins one *model.FetchError per failed id.
// Successful fetches replace earlier entries; failed ones leave them alone.
func (cs *CountrySeries) GetMacros(ctx context.Context, period model.Period, ids ...model.SeriesID) (model.SeriesTable, error) {
	r := period.Resolve(cs.now())
	result := make(model.SeriesTable, len(ids))
	var errs []error

	for _, id := range ids {
		if !id.Valid() {
			err := model.NewFetchError(cs.Country, id, fmt.Errorf("%w: %q", model.ErrUnknownSeries, string(id)))
			cs.recordFailure(id, err)
			errs = append(errs, err)
			continue
		}
		if err := ctx.Err(); err != nil {
			err = model.NewFetchError(cs.Country, id, err)
			cs.recordFailure(id, err)
			errs = append(errs, err)
			continue
		}

		ts, err := cs.Provider.Fetch(ctx, cs.Country, id, r)
		if err != nil {
			err = model.NewFetchError(cs.Country, id, err)
			log.Printf("[WARN] %v", err)
			cs.recordFailure(id, err)
			errs = append(errs, err)
			continue
		}
		cs.recordSuccess(id, ts)
		result[id] = ts
	}

	return result, errors.Join(errs...)
}

// GetMacrosByName parses names at the boundary. Unknown names are reported
// as ErrUnknownSeries entries alongside any fetch failures.
func (cs *CountrySeries) GetMacrosByName(ctx context.Context, period model.Period, names ...string) (model.SeriesTable, error) {
	ids := make([]model.SeriesID, 0, len(names))
	var errs []error
	for _, name := range names {
		id, err := model.ParseSeriesID(name)
		if err != nil {
			err = model.NewFetchError(cs.Country, model.SeriesID(name), err)
			cs.recordFailure(model.SeriesID(name), err)
			errs = append(errs, err)
			continue
		}
		ids = append(ids, id)
	}
	table, err := cs.GetMacros(ctx, period, ids...)
	if err != nil {
		errs = append(errs, err)
	}
	return table, errors.Join(errs...)
}

func (cs *CountrySeries) recordSuccess(id model.SeriesID, ts model.TimeSeries) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.table[id] = ts
	delete(cs.errs, id)
	if ts.IsEmpty() {
		cs.status[id] = model.StatusEmpty
	} else {
		cs.status[id] = model.StatusFetched
	}
}

func (cs *CountrySeries) recordFailure(id model.SeriesID, err error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.status[id] = model.StatusFailed
	cs.errs[id] = err
}

// Table returns a copy of everything fetched so far.
func (cs *CountrySeries) Table() model.SeriesTable {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.table.Clone()
}

// Series returns the accumulated series for id, if one was ever fetched.
func (cs *CountrySeries) Series(id model.SeriesID) (model.TimeSeries, bool) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	ts, ok := cs.table[id]
	return ts, ok
}

// Status reports the outcome of the latest fetch of id. A Failed id may
// still have an older series in Table.
func (cs *CountrySeries) Status(id model.SeriesID) model.FetchStatus {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.status[id]
}

// Err returns the error of the latest fetch of id, or nil.
func (cs *CountrySeries) Err(id model.SeriesID) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.errs[id]
}

func (cs *CountrySeries) String() string {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return fmt.Sprintf("%s %v", cs.Country, cs.table.IDs())
}
