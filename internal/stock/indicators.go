package stock

import (
	"fmt"
	"math"
	"strings"

	"MacroLens/internal/calculator"
	"MacroLens/internal/model"
)

// Indicator defaults.
const (
	DefaultRSIWindow      = 14
	RSIOverbought         = 70.0
	RSIOversold           = 30.0
	DefaultMACDFast       = 12
	DefaultMACDSlow       = 26
	DefaultMACDSignal     = 9
	DefaultSARStep        = 0.02
	DefaultSARMax         = 0.2
	DefaultBollingerWidth = 20
	DefaultBollingerK     = 2.0
)

// DefaultMAWindows are used when MovingAverages gets no windows.
var DefaultMAWindows = []int{50, 200}

// MAKind selects the moving average flavour.
type MAKind string

const (
	MASimple      MAKind = "simple"
	MAExponential MAKind = "exponential"
)

// ParseMAKind accepts "simple"/"sma" and "exponential"/"ema".
func ParseMAKind(s string) (MAKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "simple", "sma":
		return MASimple, nil
	case "exponential", "ema":
		return MAExponential, nil
	default:
		return "", fmt.Errorf("unknown moving average kind %q", s)
	}
}

// MovingAverages returns one series per window, keyed by window.
func (t *Ticker) MovingAverages(kind MAKind, windows ...int) (map[int]model.TimeSeries, error) {
	if len(windows) == 0 {
		windows = DefaultMAWindows
	}
	closes := t.closes()
	out := make(map[int]model.TimeSeries, len(windows))
	for _, w := range windows {
		var (
			values []float64
			err    error
		)
		switch kind {
		case MASimple:
			values, err = calculator.RollingSMA(closes, w)
		case MAExponential:
			values, err = calculator.EMA(closes, w, 1)
		default:
			return nil, fmt.Errorf("unknown moving average kind %q", kind)
		}
		if err != nil {
			return nil, fmt.Errorf("%s MA(%d): %w", kind, w, err)
		}
		out[w] = t.series(values)
	}
	return out, nil
}

// MACDLines are the MACD outputs as dated series.
type MACDLines struct {
	MACD      model.TimeSeries
	Signal    model.TimeSeries
	Histogram model.TimeSeries
}

// MACD computes MACD(fast, slow, signal) over adjusted closes.
func (t *Ticker) MACD(fast, slow, signal int) (MACDLines, error) {
	res, err := calculator.MACD(t.closes(), fast, slow, signal)
	if err != nil {
		return MACDLines{}, err
	}
	return MACDLines{
		MACD:      t.series(res.MACD),
		Signal:    t.series(res.Signal),
		Histogram: t.series(res.Histogram),
	}, nil
}

// RSI returns the rolling RSI over window changes.
func (t *Ticker) RSI(window int) (model.TimeSeries, error) {
	values, err := calculator.RollingRSI(t.closes(), window)
	if err != nil {
		return model.TimeSeries{}, err
	}
	return t.series(values), nil
}

// ParabolicSAR returns the SAR for every bar after the first.
func (t *Ticker) ParabolicSAR(step, maxStep float64) (model.TimeSeries, error) {
	values, err := calculator.ParabolicSAR(t.Bars, step, maxStep)
	if err != nil {
		return model.TimeSeries{}, err
	}
	points := make([]model.Point, len(values))
	for i, v := range values {
		points[i] = model.Point{Date: t.Bars[i+1].Time, Value: v}
	}
	return model.NewTimeSeries(points), nil
}

// BollingerBands are the band lines as dated series.
type BollingerBands struct {
	Middle model.TimeSeries
	Upper  model.TimeSeries
	Lower  model.TimeSeries
}

// Bollinger computes bands of k standard deviations over window closes.
func (t *Ticker) Bollinger(window int, k float64) (BollingerBands, error) {
	b, err := calculator.Bollinger(t.closes(), window, k)
	if err != nil {
		return BollingerBands{}, err
	}
	return BollingerBands{Middle: t.series(b.Middle), Upper: t.series(b.Upper), Lower: t.series(b.Lower)}, nil
}

// ProfitLoss tracks a position bought with whole shares at the first close.
// Percentages are in percent, not fractions.
type ProfitLoss struct {
	Investment float64 `json:"investment"`
	Shares     int     `json:"shares"`
	Cost       float64 `json:"cost"`
	// Value is the position value at the last close.
	Value float64 `json:"value"`
	// Final is Value minus Cost.
	Final float64 `json:"profitLoss"`
	// PercentGainLoss is Final relative to the current value.
	PercentGainLoss float64 `json:"percentGainLoss"`
	// PercentageReturns is Final relative to the cost.
	PercentageReturns float64 `json:"percentageReturns"`
	// NetGainsOrLosses is the price change from the first to the last close.
	NetGainsOrLosses float64 `json:"netGainsOrLosses"`
	TotalReturn      float64 `json:"totalReturn"`

	// Series is the profit or loss at every close; Values is the position value.
	Series model.TimeSeries `json:"-"`
	Values model.TimeSeries `json:"-"`
}

// ProfitLoss buys as many whole shares as investment allows at the first
// adjusted close and values the position at every later close.
func (t *Ticker) ProfitLoss(investment float64) (ProfitLoss, error) {
	closes := t.closes()
	first, last := closes[0], closes[len(closes)-1]
	if first <= 0 {
		return ProfitLoss{}, fmt.Errorf("%s: first close %.2f is not positive", t.Symbol, first)
	}
	shares := int(math.Floor(investment / first))
	if shares == 0 {
		return ProfitLoss{}, fmt.Errorf("%s: investment %.2f buys no share at %.2f", t.Symbol, investment, first)
	}
	cost := float64(shares) * first
	deltas := make([]float64, len(closes))
	values := make([]float64, len(closes))
	for i, c := range closes {
		values[i] = float64(shares) * c
		deltas[i] = values[i] - cost
	}

	value := values[len(values)-1]
	pl := value - cost
	out := ProfitLoss{
		Investment:        investment,
		Shares:            shares,
		Cost:              cost,
		Value:             value,
		Final:             pl,
		PercentageReturns: pl / cost * 100,
		NetGainsOrLosses:  (last - first) / first * 100,
		TotalReturn:       (value/cost - 1) * 100,
		Series:            t.series(deltas),
		Values:            t.series(values),
	}
	if value != 0 {
		out.PercentGainLoss = pl / value * 100
	}
	return out, nil
}
