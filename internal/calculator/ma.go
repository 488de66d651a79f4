package calculator

import (
	"errors"
	"math"
)

// SMA computes the simple moving average of the last period values.
func SMA(values []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(values) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(values) - period; i < len(values); i++ {
		sum += values[i]
	}
	return sum / float64(period), nil
}

// RollingSMA returns the simple moving average ending at every index.
// The first window-1 entries are NaN.
func RollingSMA(values []float64, window int) ([]float64, error) {
	if window <= 0 {
		return nil, errors.New("window must be positive")
	}
	out := make([]float64, len(values))
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i < window-1 {
			out[i] = math.NaN()
			continue
		}
		out[i] = sum / float64(window)
	}
	return out, nil
}

// EMA returns the exponential moving average with smoothing 2/(span+1),
// seeded with the first value. Entries before minPeriods values are NaN.
func EMA(values []float64, span, minPeriods int) ([]float64, error) {
	if span <= 0 {
		return nil, errors.New("span must be positive")
	}
	alpha := 2.0 / float64(span+1)
	out := make([]float64, len(values))
	var prev float64
	for i, v := range values {
		if i == 0 {
			prev = v
		} else {
			prev = alpha*v + (1-alpha)*prev
		}
		if i < minPeriods-1 {
			out[i] = math.NaN()
			continue
		}
		out[i] = prev
	}
	return out, nil
}
