package stock

import (
	"fmt"
	"sort"

	"MacroLens/internal/model"
	"MacroLens/internal/viz"
)

func addSeries(fig *viz.Figure, name string, ts model.TimeSeries) *viz.Line {
	return fig.AddLine(name, ts.Dates(), ts.Values())
}

// PriceFigure plots the adjusted close.
func (t *Ticker) PriceFigure() *viz.Figure {
	fig := viz.NewFigure(t.String(), "Date", "Adj Close")
	addSeries(fig, t.Symbol, t.AdjClose())
	return fig
}

// MovingAverageFigure plots the close with its moving averages.
func (t *Ticker) MovingAverageFigure(kind MAKind, windows ...int) (*viz.Figure, error) {
	mas, err := t.MovingAverages(kind, windows...)
	if err != nil {
		return nil, err
	}
	fig := t.PriceFigure()
	fig.Title = fmt.Sprintf("%s %s moving averages", t.String(), kind)
	keys := make([]int, 0, len(mas))
	for w := range mas {
		keys = append(keys, w)
	}
	sort.Ints(keys)
	for _, w := range keys {
		addSeries(fig, fmt.Sprintf("MA%d", w), mas[w])
	}
	return fig, nil
}

// MACDFigure plots the MACD and signal lines.
func (t *Ticker) MACDFigure() (*viz.Figure, error) {
	lines, err := t.MACD(DefaultMACDFast, DefaultMACDSlow, DefaultMACDSignal)
	if err != nil {
		return nil, err
	}
	fig := viz.NewFigure(t.String()+" MACD", "Date", "")
	addSeries(fig, "MACD", lines.MACD)
	addSeries(fig, "Signal", lines.Signal).Dashed = true
	return fig, nil
}

// RSIFigure plots the RSI with the overbought and oversold levels.
func (t *Ticker) RSIFigure() (*viz.Figure, error) {
	rsi, err := t.RSI(DefaultRSIWindow)
	if err != nil {
		return nil, err
	}
	fig := viz.NewFigure(t.String()+" RSI", "Date", "RSI")
	addSeries(fig, fmt.Sprintf("RSI(%d)", DefaultRSIWindow), rsi)
	fig.AddGuide("overbought", RSIOverbought)
	fig.AddGuide("oversold", RSIOversold)
	return fig, nil
}

// BollingerFigure plots the close inside its Bollinger bands.
func (t *Ticker) BollingerFigure() (*viz.Figure, error) {
	bands, err := t.Bollinger(DefaultBollingerWidth, DefaultBollingerK)
	if err != nil {
		return nil, err
	}
	fig := t.PriceFigure()
	fig.Title = t.String() + " Bollinger bands"
	addSeries(fig, "Middle", bands.Middle)
	addSeries(fig, "Upper", bands.Upper).Dashed = true
	addSeries(fig, "Lower", bands.Lower).Dashed = true
	return fig, nil
}

// SARFigure plots the close with the parabolic SAR.
func (t *Ticker) SARFigure() (*viz.Figure, error) {
	sar, err := t.ParabolicSAR(DefaultSARStep, DefaultSARMax)
	if err != nil {
		return nil, err
	}
	fig := t.PriceFigure()
	fig.Title = t.String() + " parabolic SAR"
	addSeries(fig, "SAR", sar).Dashed = true
	return fig, nil
}

// OHLCFigure plots the raw high, low, open and close of every bar.
func (t *Ticker) OHLCFigure() *viz.Figure {
	fig := viz.NewFigure(t.String()+" OHLC", "Date", "Price")
	addSeries(fig, "High", t.Column(func(b model.OHLCV) float64 { return b.High })).Dashed = true
	addSeries(fig, "Low", t.Column(func(b model.OHLCV) float64 { return b.Low })).Dashed = true
	addSeries(fig, "Open", t.Column(func(b model.OHLCV) float64 { return b.Open }))
	addSeries(fig, "Close", t.Column(func(b model.OHLCV) float64 { return b.Close }))
	return fig
}

// VolumeFigure plots the traded volume as a filled area.
func (t *Ticker) VolumeFigure() *viz.Figure {
	fig := viz.NewFigure(t.String()+" volume", "Date", "Volume")
	addSeries(fig, "Volume", t.Volume()).Fill = true
	return fig
}

// ProfitLossFigure plots the value of a position bought with investment
// against its breakeven cost.
func (t *Ticker) ProfitLossFigure(investment float64) (*viz.Figure, error) {
	pl, err := t.ProfitLoss(investment)
	if err != nil {
		return nil, err
	}
	fig := viz.NewFigure(fmt.Sprintf("%s accumulated profit/loss on %d shares", t.String(), pl.Shares), "Date", "Position value")
	addSeries(fig, "Profit/Loss", pl.Values)
	fig.AddGuide("breakeven", pl.Cost)
	return fig, nil
}

// Figure returns a chart by name: price (or line), ohlc (or candlestick),
// volume, ma, ema, macd, rsi, bollinger, sar or pl.
func (t *Ticker) Figure(name string, investment float64) (*viz.Figure, error) {
	switch name {
	case "", "price", "line":
		return t.PriceFigure(), nil
	case "ohlc", "candlestick":
		return t.OHLCFigure(), nil
	case "volume":
		return t.VolumeFigure(), nil
	case "ma", "sma":
		return t.MovingAverageFigure(MASimple)
	case "ema":
		return t.MovingAverageFigure(MAExponential)
	case "macd":
		return t.MACDFigure()
	case "rsi":
		return t.RSIFigure()
	case "bollinger":
		return t.BollingerFigure()
	case "sar":
		return t.SARFigure()
	case "pl":
		return t.ProfitLossFigure(investment)
	default:
		return nil, fmt.Errorf("unknown chart %q", name)
	}
}
