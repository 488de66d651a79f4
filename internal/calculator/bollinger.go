package calculator

import (
	"errors"
	"math"

	"github.com/montanaflynn/stats"
)

// Bands holds Bollinger bands aligned with the input.
type Bands struct {
	Middle []float64
	Upper  []float64
	Lower  []float64
}

// Bollinger returns the rolling mean plus and minus k sample standard
// deviations over window values. The first window-1 entries are NaN.
func Bollinger(closes []float64, window int, k float64) (Bands, error) {
	if window < 2 {
		return Bands{}, errors.New("window must be at least 2")
	}
	mid, err := RollingSMA(closes, window)
	if err != nil {
		return Bands{}, err
	}
	upper := make([]float64, len(closes))
	lower := make([]float64, len(closes))
	for i := range closes {
		if i < window-1 {
			upper[i], lower[i] = math.NaN(), math.NaN()
			continue
		}
		sd, err := stats.StandardDeviationSample(closes[i-window+1 : i+1])
		if err != nil {
			return Bands{}, err
		}
		upper[i] = mid[i] + k*sd
		lower[i] = mid[i] - k*sd
	}
	return Bands{Middle: mid, Upper: upper, Lower: lower}, nil
}
