package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"MacroLens/internal/model"
)

const DefaultYahooURL = "https://query1.finance.yahoo.com"

// YahooFetcher implements PriceFetcher using Yahoo Finance public API.
type YahooFetcher struct {
	BaseURL   string
	Client    *http.Client
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(proxyURL string, timeout time.Duration) *YahooFetcher {
	return &YahooFetcher{
		BaseURL: DefaultYahooURL,
		Client:  newHTTPClient(proxyURL, timeout),
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
		},
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[strings.ToUpper(symbol)]; ok {
		return mapped
	}
	return symbol
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []interface{} `json:"open"`
					High   []interface{} `json:"high"`
					Low    []interface{} `json:"low"`
					Close  []interface{} `json:"close"`
					Volume []interface{} `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []interface{} `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func toFloat(v interface{}) float64 {
	if v == nil {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

func at(values []interface{}, i int) interface{} {
	if i < len(values) {
		return values[i]
	}
	return nil
}

// FetchBars returns daily bars covering r, oldest first.
func (f *YahooFetcher) FetchBars(ctx context.Context, symbol string, r model.DateRange) ([]model.OHLCV, error) {
	params := url.Values{}
	params.Set("interval", "1d")
	params.Set("period1", strconv.FormatInt(r.Start.Unix(), 10))
	params.Set("period2", strconv.FormatInt(r.End.AddDate(0, 0, 1).Unix(), 10))
	params.Set("includeAdjustedClose", "true")
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s",
		strings.TrimRight(f.BaseURL, "/"), url.PathEscape(f.yahooSymbol(symbol)), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, classifyTransport("yahoo fetch", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransport("yahoo read body", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus("yahoo", resp.StatusCode, body)
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, model.Unavailable("yahoo decode: %v", err)
	}
	if chart.Chart.Error != nil {
		return nil, model.Unavailable("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, model.Unavailable("yahoo: no data returned for %s", symbol)
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	var adj []interface{}
	if len(result.Indicators.AdjClose) > 0 {
		adj = result.Indicators.AdjClose[0].AdjClose
	}
	bars := make([]model.OHLCV, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		o := toFloat(at(quote.Open, i))
		h := toFloat(at(quote.High, i))
		l := toFloat(at(quote.Low, i))
		c := toFloat(at(quote.Close, i))
		if o == 0 && h == 0 && l == 0 && c == 0 {
			continue // skip null bars (holidays etc.)
		}
		bars = append(bars, model.OHLCV{
			Time:     model.Day(time.Unix(ts, 0).UTC()),
			Open:     o,
			High:     h,
			Low:      l,
			Close:    c,
			AdjClose: toFloat(at(adj, i)),
			Volume:   toFloat(at(quote.Volume, i)),
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

// DefaultIndexSymbols maps countries to their benchmark equity index.
var DefaultIndexSymbols = map[model.Country]string{
	"USA": "^GSPC", "US": "^GSPC",
	"JPN": "^N225", "JP": "^N225",
	"GBR": "^FTSE", "GB": "^FTSE",
	"DEU": "^GDAXI", "DE": "^GDAXI",
	"FRA": "^FCHI", "FR": "^FCHI",
	"CHN": "000001.SS", "CN": "000001.SS",
	"HKG": "^HSI", "HK": "^HSI",
	"IND": "^BSESN", "IN": "^BSESN",
	"KOR": "^KS11", "KR": "^KS11",
	"CAN": "^GSPTSE", "CA": "^GSPTSE",
	"BRA": "^BVSP", "BR": "^BVSP",
	"AUS": "^AXJO", "AU": "^AXJO",
}

// YahooProvider serves STOCK_INDEX series: the adjusted close of a
// country's benchmark index.
type YahooProvider struct {
	Fetcher PriceFetcher
	Indexes map[model.Country]string
}

// NewYahooProvider creates a provider over f with the default index map.
func NewYahooProvider(f PriceFetcher) *YahooProvider {
	indexes := make(map[model.Country]string, len(DefaultIndexSymbols))
	for k, v := range DefaultIndexSymbols {
		indexes[k] = v
	}
	return &YahooProvider{Fetcher: f, Indexes: indexes}
}

func (p *YahooProvider) Name() string { return "yahoo-index" }

func (p *YahooProvider) Fetch(ctx context.Context, country model.Country, id model.SeriesID, r model.DateRange) (model.TimeSeries, error) {
	if id != model.SeriesStockIndex {
		return model.TimeSeries{}, model.NewFetchError(country, id, fmt.Errorf("%w: yahoo serves %s only", model.ErrUnknownSeries, model.SeriesStockIndex))
	}
	symbol, ok := p.Indexes[country]
	if !ok {
		return model.TimeSeries{}, model.NewFetchError(country, id, model.Unavailable("no benchmark index known for %s", country))
	}
	bars, err := p.Fetcher.FetchBars(ctx, symbol, r)
	if err != nil {
		return model.TimeSeries{}, model.NewFetchError(country, id, err)
	}
	closes := model.AdjCloses(bars)
	points := make([]model.Point, len(bars))
	for i, b := range bars {
		points[i] = model.Point{Date: b.Time, Value: closes[i]}
	}
	return model.NewTimeSeries(points), nil
}
