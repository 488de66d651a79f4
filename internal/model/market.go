package model

import "time"

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time     time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	AdjClose float64
	Volume   float64
}

// PriceSeries holds raw price data for one symbol.
type PriceSeries struct {
	Symbol    string
	Bars      []OHLCV
	Range     DateRange
	FetchedAt time.Time
}

// Closes returns the close of every bar in order.
func Closes(bars []OHLCV) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// AdjCloses returns the adjusted close of every bar, falling back to the
// close when the source did not report one.
func AdjCloses(bars []OHLCV) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		if b.AdjClose != 0 {
			out[i] = b.AdjClose
		} else {
			out[i] = b.Close
		}
	}
	return out
}
