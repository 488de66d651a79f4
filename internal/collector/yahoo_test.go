package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MacroLens/internal/model"
)

const chartBody = `{"chart":{"result":[{
	"timestamp":[1577973600,1577887200,1578060000],
	"indicators":{
		"quote":[{"open":[11,10,null],"high":[12,11,null],"low":[10,9,null],"close":[11.5,10.5,null],"volume":[200,100,null]}],
		"adjclose":[{"adjclose":[11.4,10.4,null]}]
	}}],"error":null}}`

func TestYahooFetcher_FetchBars(t *testing.T) {
	var gotPath, gotInterval string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotInterval = r.URL.Query().Get("interval")
		w.Write([]byte(chartBody))
	}))
	defer srv.Close()

	f := NewYahooFetcher("", time.Second)
	f.BaseURL = srv.URL
	bars, err := f.FetchBars(context.Background(), "SPX500", testRange(t, "2020-01-01", "2020-01-03"))
	require.NoError(t, err)

	assert.Equal(t, "/v8/finance/chart/^GSPC", gotPath)
	assert.Equal(t, "1d", gotInterval)
	require.Len(t, bars, 2)
	assert.True(t, bars[0].Time.Before(bars[1].Time))
	assert.Equal(t, 10.5, bars[0].Close)
	assert.Equal(t, 10.4, bars[0].AdjClose)
	assert.Equal(t, 200.0, bars[1].Volume)
}

func TestYahooFetcher_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
	}))
	defer srv.Close()

	f := NewYahooFetcher("", time.Second)
	f.BaseURL = srv.URL
	_, err := f.FetchBars(context.Background(), "NOPE", testRange(t, "2020-01-01", "2020-01-03"))
	assert.True(t, errors.Is(err, model.ErrDataUnavailable))
}

func TestYahooProvider_StockIndex(t *testing.T) {
	day := func(s string) time.Time { return model.MustDate(s) }
	fetcher := &MockFetcher{Bars: map[string][]model.OHLCV{
		"^N225": {
			{Time: day("2020-01-02"), Close: 100, AdjClose: 99},
			{Time: day("2020-01-03"), Close: 101},
		},
	}}
	p := NewYahooProvider(fetcher)
	r := testRange(t, "2020-01-01", "2020-01-31")

	ts, err := p.Fetch(context.Background(), "JPN", model.SeriesStockIndex, r)
	require.NoError(t, err)
	assert.Equal(t, []float64{99, 101}, ts.Values())

	_, err = p.Fetch(context.Background(), "ZZZ", model.SeriesStockIndex, r)
	assert.True(t, errors.Is(err, model.ErrDataUnavailable))

	_, err = p.Fetch(context.Background(), "JPN", model.SeriesGDP, r)
	assert.True(t, errors.Is(err, model.ErrUnknownSeries))
}
