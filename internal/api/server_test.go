package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"MacroLens/internal/collector"
	"MacroLens/internal/model"
)

func annual(start int, values ...float64) model.TimeSeries {
	points := make([]model.Point, len(values))
	for i, v := range values {
		points[i] = model.Point{Date: time.Date(start+i, 1, 1, 0, 0, 0, 0, time.UTC), Value: v}
	}
	return model.NewTimeSeries(points)
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mock := collector.NewMockProvider().
		Set("USA", model.SeriesGDP, annual(2020, 21, 23)).
		Set("JPN", model.SeriesGDP, annual(2020, 5)).
		Set("USA", model.SeriesInflation, annual(2020, 1.2, 4.7)).
		Fail("DEU", model.SeriesGDP, model.Transient("timeout"))
	s := NewServer(mock, &collector.MockFetcher{Price: 100})
	s.now = func() time.Time { return time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC) }
	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, srv *httptest.Server, path string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

func TestHealthAndSeries(t *testing.T) {
	srv := newTestServer(t)
	resp, _ := get(t, srv, "/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := get(t, srv, "/api/series")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []seriesInfo
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Len(t, list, len(model.AllSeries()))
}

func TestCountryMacros(t *testing.T) {
	srv := newTestServer(t)
	resp, body := get(t, srv, "/api/countries/usa/macros?series=gdp,inflation,bogus&period=5Y")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Country string                       `json:"country"`
		Range   string                       `json:"range"`
		Series  map[string][]json.RawMessage `json:"series"`
		Status  map[string]string            `json:"status"`
		Errors  map[string]string            `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "USA", out.Country)
	assert.Equal(t, "2019-06-30..2024-06-30", out.Range)
	assert.Len(t, out.Series["GDP"], 2)
	assert.Equal(t, "fetched", out.Status["INFLATION"])
	assert.Equal(t, "failed", out.Status["bogus"])
	assert.Contains(t, out.Errors, "USA/bogus")

	resp, _ = get(t, srv, "/api/countries/U1/macros")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCompare(t *testing.T) {
	srv := newTestServer(t)
	resp, body := get(t, srv, "/api/compare/gdp?countries=USA,JPN,DEU")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Countries []string `json:"countries"`
		Rows      []struct {
			Date   string              `json:"date"`
			Values map[string]*float64 `json:"values"`
		} `json:"rows"`
		Errors map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, []string{"USA", "JPN"}, out.Countries)
	require.Len(t, out.Rows, 2)
	assert.Equal(t, "2021-01-01", out.Rows[1].Date)
	assert.Nil(t, out.Rows[1].Values["JPN"])
	assert.Equal(t, 23.0, *out.Rows[1].Values["USA"])
	assert.Contains(t, out.Errors["DEU/GDP"], "timeout")

	resp, body = get(t, srv, "/api/compare/gdp?countries=USA,JPN&join=inner")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Len(t, out.Rows, 1)
}

func TestCompare_BadRequests(t *testing.T) {
	srv := newTestServer(t)
	for _, path := range []string{
		"/api/compare/happiness?countries=USA",
		"/api/compare/gdp",
		"/api/compare/gdp?countries=USA&period=soon",
		"/api/compare/gdp?countries=USA&join=left",
		"/api/compare/gdp/chart.gif?countries=USA",
		"/api/compare/gdp/export.pdf?countries=USA",
	} {
		resp, _ := get(t, srv, path)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, path)
	}
}

func TestCompareChart(t *testing.T) {
	srv := newTestServer(t)
	resp, body := get(t, srv, "/api/compare/gdp/chart.png?countries=USA,JPN&width=300&height=200")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(body, []byte("\x89PNG")))

	resp, _ = get(t, srv, "/api/compare/population/chart.svg?countries=USA,JPN")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCompareExport(t *testing.T) {
	srv := newTestServer(t)
	resp, body := get(t, srv, "/api/compare/gdp/export.csv?countries=USA,JPN")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "date,USA,JPN\n2020-01-01,21,5\n2021-01-01,23,\n", string(body))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "GDP.csv")

	resp, body = get(t, srv, "/api/compare/gdp/export.xlsx?countries=USA")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	f, err := excelize.OpenReader(bytes.NewReader(body))
	require.NoError(t, err)
	defer f.Close()
	v, err := f.GetCellValue("Data", "B3")
	require.NoError(t, err)
	assert.Equal(t, "23", v)
}

func TestStock(t *testing.T) {
	srv := newTestServer(t)
	resp, body := get(t, srv, "/api/stocks/acme?period=6M&benchmark=%5EGSPC")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out map[string]any
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "ACME", out["symbol"])
	assert.Equal(t, "^GSPC", out["benchmark"])
	assert.Contains(t, out, "rsi")

	resp, body = get(t, srv, "/api/stocks/acme?period=6M")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out = nil
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "^GSPC", out["benchmark"])
	assert.Contains(t, out, "beta")

	resp, body = get(t, srv, "/api/stocks/acme?period=6M&benchmark=none")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out = nil
	require.NoError(t, json.Unmarshal(body, &out))
	assert.NotContains(t, out, "benchmark")
	assert.NotContains(t, out, "beta")

	resp, body = get(t, srv, "/api/stocks/acme/chart.svg?kind=volume")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = get(t, srv, "/api/stocks/acme/chart.svg?kind=rsi")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), "<svg"))

	resp, _ = get(t, srv, "/api/stocks/acme/chart.svg?kind=candles")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStock_NotConfigured(t *testing.T) {
	s := NewServer(collector.NewMockProvider(), nil)
	req := httptest.NewRequest(http.MethodGet, "/api/stocks/ACME", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCompare_FailedFetchDoesNotServeEarlierPeriod(t *testing.T) {
	mock := collector.NewMockProvider().Set("USA", model.SeriesGDP, annual(2004, 12, 13, 14))
	s := NewServer(mock, nil)
	s.now = func() time.Time { return time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC) }
	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)

	type payload struct {
		Rows   []model.MergedRow `json:"rows"`
		Errors map[string]string `json:"errors"`
	}

	resp, body := get(t, srv, "/api/compare/gdp?countries=USA&period=20Y")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var first payload
	require.NoError(t, json.Unmarshal(body, &first))
	assert.Len(t, first.Rows, 3)
	assert.Empty(t, first.Errors)

	mock.Fail("USA", model.SeriesGDP, model.Transient("down"))
	resp, body = get(t, srv, "/api/compare/gdp?countries=USA&period=1Y")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var second payload
	require.NoError(t, json.Unmarshal(body, &second))
	assert.Empty(t, second.Rows)
	assert.Contains(t, second.Errors, "USA/GDP")
}
