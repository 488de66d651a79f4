package stock

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"

	"MacroLens/internal/calculator"
	"MacroLens/internal/collector"
	"MacroLens/internal/model"
)

const (
	// DefaultRiskFree is the annual risk-free rate used by Alpha.
	DefaultRiskFree = 0.05
	// DefaultBenchmark is the index Beta and Alpha compare against when the
	// caller names none.
	DefaultBenchmark = "^GSPC"
)

// BenchmarkSymbol resolves a caller's benchmark choice: empty selects
// DefaultBenchmark and "none" disables the comparison, returning "".
func BenchmarkSymbol(s string) string {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return DefaultBenchmark
	case strings.EqualFold(s, "none"):
		return ""
	}
	return s
}

// Ticker holds the daily bars of one symbol over a resolved window.
type Ticker struct {
	Symbol string
	Range  model.DateRange
	Bars   []model.OHLCV
}

// NewTicker loads symbol over period, resolved against the current time.
func NewTicker(ctx context.Context, fetcher collector.PriceFetcher, symbol string, period model.Period) (*Ticker, error) {
	return Load(ctx, fetcher, symbol, period.Resolve(time.Now()))
}

// Load fetches the bars of symbol covering r.
func Load(ctx context.Context, fetcher collector.PriceFetcher, symbol string, r model.DateRange) (*Ticker, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("%w: empty symbol", model.ErrUnknownSeries)
	}
	bars, err := fetcher.FetchBars(ctx, symbol, r)
	if err != nil {
		return nil, fmt.Errorf("load %s from %s: %w", symbol, fetcher.Name(), err)
	}
	if len(bars) == 0 {
		return nil, model.Unavailable("no bars for %s in %s", symbol, r)
	}
	return &Ticker{Symbol: symbol, Range: r, Bars: bars}, nil
}

// String names the symbol with the dates of its first and last bar.
func (t *Ticker) String() string {
	first, last := t.span()
	return fmt.Sprintf("%s [%s - %s]", t.Symbol, first, last)
}

func (t *Ticker) span() (first, last string) {
	return t.Bars[0].Time.Format(model.DateLayout), t.Bars[len(t.Bars)-1].Time.Format(model.DateLayout)
}

// Dates returns the bar dates.
func (t *Ticker) Dates() []time.Time {
	out := make([]time.Time, len(t.Bars))
	for i, b := range t.Bars {
		out[i] = b.Time
	}
	return out
}

func (t *Ticker) closes() []float64 { return model.AdjCloses(t.Bars) }

// series pairs bar dates with values, skipping NaN entries.
func (t *Ticker) series(values []float64) model.TimeSeries {
	points := make([]model.Point, 0, len(values))
	for i, v := range values {
		if i >= len(t.Bars) || math.IsNaN(v) {
			continue
		}
		points = append(points, model.Point{Date: t.Bars[i].Time, Value: v})
	}
	return model.NewTimeSeries(points)
}

// AdjClose returns the adjusted close series.
func (t *Ticker) AdjClose() model.TimeSeries { return t.series(t.closes()) }

// Column returns one raw bar field (open, high, low, close or volume) as a series.
func (t *Ticker) Column(field func(model.OHLCV) float64) model.TimeSeries {
	values := make([]float64, len(t.Bars))
	for i, b := range t.Bars {
		values[i] = field(b)
	}
	return t.series(values)
}

// Volume returns the traded volume per bar.
func (t *Ticker) Volume() model.TimeSeries {
	return t.Column(func(b model.OHLCV) float64 { return b.Volume })
}

// DailyReturns returns day-over-day simple returns; the first bar has none.
func (t *Ticker) DailyReturns() model.TimeSeries {
	return t.series(calculator.DailyReturns(t.closes()))
}

// CumulativeReturns compounds the daily returns.
func (t *Ticker) CumulativeReturns() model.TimeSeries {
	return t.series(calculator.CumulativeReturns(calculator.DailyReturns(t.closes())))
}

// TotalReturn is the simple return from the first to the last adjusted close.
func (t *Ticker) TotalReturn() float64 {
	c := t.closes()
	return calculator.SimpleReturn(c[0], c[len(c)-1])
}

// Beta regresses this ticker's daily returns on benchmark's over shared
// dates and returns the slope rounded to two decimals.
func (t *Ticker) Beta(benchmark *Ticker) (float64, error) {
	stockRet, benchRet := alignReturns(t.DailyReturns(), benchmark.DailyReturns())
	if len(stockRet) < 2 {
		return 0, fmt.Errorf("beta %s vs %s: need at least two shared return dates, have %d",
			t.Symbol, benchmark.Symbol, len(stockRet))
	}
	if stat.Variance(benchRet, nil) == 0 {
		return 0, fmt.Errorf("beta %s vs %s: benchmark returns are constant", t.Symbol, benchmark.Symbol)
	}
	_, beta := stat.LinearRegression(benchRet, stockRet, nil, false)
	return math.Round(beta*100) / 100, nil
}

// Alpha is the CAPM excess of this ticker's total return over what its beta
// predicts from benchmark's total return.
func (t *Ticker) Alpha(benchmark *Ticker, riskFree float64) (float64, error) {
	beta, err := t.Beta(benchmark)
	if err != nil {
		return 0, err
	}
	expected := riskFree + beta*(benchmark.TotalReturn()-riskFree)
	return t.TotalReturn() - expected, nil
}

func alignReturns(stock, bench model.TimeSeries) (x, y []float64) {
	for _, p := range stock.Points() {
		if b, ok := bench.At(p.Date); ok {
			x = append(x, p.Value)
			y = append(y, b)
		}
	}
	return x, y
}

// Snapshot is the latest state of a ticker, shaped for JSON and messages.
type Snapshot struct {
	Symbol      string  `json:"symbol"`
	Start       string  `json:"start"`
	End         string  `json:"end"`
	Bars        int     `json:"bars"`
	LastClose   float64 `json:"lastClose"`
	TotalReturn float64 `json:"totalReturn"`
	High52w     float64 `json:"high52w"`
	Low52w      float64 `json:"low52w"`
	Position52w float64 `json:"position52w"`
	RSI         float64 `json:"rsi"`
}

// Snapshot summarizes the ticker at its last bar.
func (t *Ticker) Snapshot() (Snapshot, error) {
	closes := t.closes()
	last := closes[len(closes)-1]
	high, low, err := calculator.HighLow(t.Bars, calculator.TradingDays52Weeks)
	if err != nil {
		return Snapshot{}, err
	}
	pos, err := calculator.RangePosition(last, high, low)
	if err != nil {
		return Snapshot{}, err
	}
	rsi, err := calculator.RSI(closes, DefaultRSIWindow)
	if err != nil {
		return Snapshot{}, err
	}
	first, lastDate := t.span()
	return Snapshot{
		Symbol:      t.Symbol,
		Start:       first,
		End:         lastDate,
		Bars:        len(t.Bars),
		LastClose:   last,
		TotalReturn: t.TotalReturn(),
		High52w:     high,
		Low52w:      low,
		Position52w: pos,
		RSI:         rsi,
	}, nil
}
