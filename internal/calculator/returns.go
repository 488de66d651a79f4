package calculator

import "math"

// DailyReturns returns the simple return between consecutive values; the
// first entry is NaN.
func DailyReturns(values []float64) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		if i == 0 || values[i-1] == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = (values[i] - values[i-1]) / values[i-1]
	}
	return out
}

// CumulativeReturns compounds daily returns; NaN returns count as zero.
func CumulativeReturns(daily []float64) []float64 {
	out := make([]float64, len(daily))
	acc := 1.0
	for i, r := range daily {
		if math.IsNaN(r) {
			out[i] = math.NaN()
			if i > 0 {
				out[i] = acc - 1
			}
			continue
		}
		acc *= 1 + r
		out[i] = acc - 1
	}
	return out
}

// SimpleReturn is (last-first)/first.
func SimpleReturn(first, last float64) float64 {
	if first == 0 {
		return math.NaN()
	}
	return (last - first) / first
}

// DropNaN returns values without NaN entries.
func DropNaN(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}
