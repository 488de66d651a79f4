package country

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MacroLens/internal/collector"
	"MacroLens/internal/model"
)

var fixedNow = time.Date(2024, time.June, 30, 12, 0, 0, 0, time.UTC)

func gdpSeries() model.TimeSeries {
	return model.NewTimeSeries([]model.Point{
		{Date: model.MustDate("2021-01-01"), Value: 23.3},
		{Date: model.MustDate("2022-01-01"), Value: 25.4},
	})
}

func newUSA(p collector.SeriesProvider) *CountrySeries {
	return New("USA", p).WithClock(func() time.Time { return fixedNow })
}

func TestGetMacros_PassThrough(t *testing.T) {
	mock := collector.NewMockProvider().Set("USA", model.SeriesGDP, gdpSeries())
	cs := newUSA(mock)

	table, err := cs.GetMacros(context.Background(), model.Years(10), model.SeriesGDP)
	require.NoError(t, err)
	require.Len(t, table, 1)
	assert.Equal(t, gdpSeries(), table[model.SeriesGDP])
	assert.Equal(t, model.StatusFetched, cs.Status(model.SeriesGDP))
}

type rangeRecorder struct {
	got model.DateRange
}

func (r *rangeRecorder) Name() string { return "recorder" }

func (r *rangeRecorder) Fetch(_ context.Context, _ model.Country, _ model.SeriesID, rng model.DateRange) (model.TimeSeries, error) {
	r.got = rng
	return gdpSeries(), nil
}

func TestGetMacros_ResolvesPeriodAtFetchTime(t *testing.T) {
	rec := &rangeRecorder{}
	cs := newUSA(rec)

	_, err := cs.GetMacros(context.Background(), model.Period{}, model.SeriesGDP)
	require.NoError(t, err)
	assert.Equal(t, model.MustDate("2014-06-30"), rec.got.Start)
	assert.Equal(t, model.MustDate("2024-06-30"), rec.got.End)

	_, err = cs.GetMacros(context.Background(), model.MustPeriod("15Y"), model.SeriesGDP)
	require.NoError(t, err)
	assert.Equal(t, model.MustDate("2009-06-30"), rec.got.Start)
}

func TestGetMacros_KeySetIsSubsetOfFilters(t *testing.T) {
	mock := collector.NewMockProvider().
		Set("USA", model.SeriesGDP, gdpSeries()).
		Set("USA", model.SeriesGNI, gdpSeries()).
		Fail("USA", model.SeriesInflation, model.Unavailable("no cpi"))
	cs := newUSA(mock)

	filters := []model.SeriesID{model.SeriesGDP, model.SeriesGNI, model.SeriesInflation}
	table, err := cs.GetMacros(context.Background(), model.Years(10), filters...)
	require.Error(t, err)
	for id := range table {
		assert.Contains(t, filters, id)
	}
	assert.Len(t, table, 2)
	assert.True(t, errors.Is(err, model.ErrDataUnavailable))

	var fe *model.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, model.SeriesInflation, fe.Series)
	assert.Equal(t, model.StatusFailed, cs.Status(model.SeriesInflation))
	assert.Equal(t, model.StatusNotFetched, cs.Status(model.SeriesPopulation))
}

func TestGetMacros_Idempotent(t *testing.T) {
	mock := collector.NewMockProvider().
		Set("USA", model.SeriesGDP, gdpSeries()).
		Set("USA", model.SeriesGNI, gdpSeries())
	cs := newUSA(mock)

	first, err := cs.GetMacros(context.Background(), model.Years(10), model.SeriesGDP, model.SeriesGNI)
	require.NoError(t, err)
	second, err := cs.GetMacros(context.Background(), model.Years(10), model.SeriesGDP, model.SeriesGNI)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGetMacros_UnknownIdentifier(t *testing.T) {
	mock := collector.NewMockProvider()
	cs := newUSA(mock)

	table, err := cs.GetMacros(context.Background(), model.Years(10), model.SeriesID("NOT_A_SERIES"))
	assert.Empty(t, table)
	assert.True(t, errors.Is(err, model.ErrUnknownSeries))
	assert.Equal(t, 0, mock.Calls)

	table, err = cs.GetMacrosByName(context.Background(), model.Years(10), "NOT_A_SERIES")
	assert.Empty(t, table)
	assert.True(t, errors.Is(err, model.ErrUnknownSeries))
}

func TestGetMacrosByName_MixesKnownAndUnknown(t *testing.T) {
	mock := collector.NewMockProvider().Set("USA", model.SeriesGDP, gdpSeries())
	cs := newUSA(mock)

	table, err := cs.GetMacrosByName(context.Background(), model.Years(10), "gdp", "bogus")
	assert.True(t, errors.Is(err, model.ErrUnknownSeries))
	assert.Len(t, table, 1)
	assert.Contains(t, table, model.SeriesGDP)
}

func TestGetMacros_FailureKeepsEarlierEntry(t *testing.T) {
	mock := collector.NewMockProvider().Set("USA", model.SeriesGDP, gdpSeries())
	cs := newUSA(mock)

	_, err := cs.GetMacros(context.Background(), model.Years(10), model.SeriesGDP)
	require.NoError(t, err)

	mock.Fail("USA", model.SeriesGDP, model.Transient("timeout"))
	table, err := cs.GetMacros(context.Background(), model.Years(10), model.SeriesGDP)
	assert.True(t, errors.Is(err, model.ErrTransientFetch))
	assert.Empty(t, table)

	kept, ok := cs.Series(model.SeriesGDP)
	require.True(t, ok)
	assert.Equal(t, gdpSeries(), kept)
	assert.Equal(t, model.StatusFailed, cs.Status(model.SeriesGDP))
	assert.Error(t, cs.Err(model.SeriesGDP))
}

func TestGetMacros_LaterFetchOverwrites(t *testing.T) {
	mock := collector.NewMockProvider().Set("USA", model.SeriesGDP, gdpSeries())
	cs := newUSA(mock)
	_, err := cs.GetMacros(context.Background(), model.Years(10), model.SeriesGDP)
	require.NoError(t, err)

	updated := model.NewTimeSeries([]model.Point{{Date: model.MustDate("2023-01-01"), Value: 27.4}})
	mock.Set("USA", model.SeriesGDP, updated)
	_, err = cs.GetMacros(context.Background(), model.Years(10), model.SeriesGDP)
	require.NoError(t, err)

	assert.Equal(t, updated, cs.Table()[model.SeriesGDP])
	assert.Nil(t, cs.Err(model.SeriesGDP))
}

func TestGetMacros_EmptyIsDistinctFromFailed(t *testing.T) {
	mock := collector.NewMockProvider().Set("USA", model.SeriesUnemployment, model.NewTimeSeries(nil))
	cs := newUSA(mock)

	table, err := cs.GetMacros(context.Background(), model.Years(10), model.SeriesUnemployment)
	require.NoError(t, err)
	assert.Contains(t, table, model.SeriesUnemployment)
	assert.Equal(t, model.StatusEmpty, cs.Status(model.SeriesUnemployment))
}

func TestGetMacros_CancelledContext(t *testing.T) {
	mock := collector.NewMockProvider().Set("USA", model.SeriesGDP, gdpSeries())
	cs := newUSA(mock)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	table, err := cs.GetMacros(ctx, model.Years(10), model.SeriesGDP)
	assert.Empty(t, table)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 0, mock.Calls)
}
