package calculator

import (
	"errors"
	"math"
)

// MACDResult holds the three MACD lines, aligned with the input.
type MACDResult struct {
	MACD      []float64
	Signal    []float64
	Histogram []float64
}

// MACD computes fast EMA minus slow EMA, its signal EMA and the histogram.
// Each EMA only starts once it has span values, so leading entries are NaN.
func MACD(closes []float64, fast, slow, signal int) (MACDResult, error) {
	if fast <= 0 || slow <= 0 || signal <= 0 {
		return MACDResult{}, errors.New("periods must be positive")
	}
	if fast >= slow {
		return MACDResult{}, errors.New("fast period must be shorter than slow period")
	}
	emaFast, _ := EMA(closes, fast, fast)
	emaSlow, _ := EMA(closes, slow, slow)

	macd := make([]float64, len(closes))
	for i := range closes {
		macd[i] = emaFast[i] - emaSlow[i]
	}

	// The signal line runs over the defined part of the MACD line only.
	first := slow - 1
	sig := make([]float64, len(closes))
	hist := make([]float64, len(closes))
	for i := range sig {
		sig[i] = math.NaN()
		hist[i] = math.NaN()
	}
	if first < len(closes) {
		tail, _ := EMA(macd[first:], signal, signal)
		for i, v := range tail {
			sig[first+i] = v
			hist[first+i] = macd[first+i] - v
		}
	}
	return MACDResult{MACD: macd, Signal: sig, Histogram: hist}, nil
}
