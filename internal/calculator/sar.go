package calculator

import (
	"errors"
	"math"

	"MacroLens/internal/model"
)

// ParabolicSAR computes the stop-and-reverse value for every bar after the
// first, starting in an up trend at the first bar's high. step is both the
// initial acceleration factor and its increment; maxStep caps it.
func ParabolicSAR(bars []model.OHLCV, step, maxStep float64) ([]float64, error) {
	if step <= 0 || maxStep < step {
		return nil, errors.New("invalid acceleration factors")
	}
	if len(bars) < 2 {
		return nil, errors.New("need at least two bars")
	}

	out := make([]float64, 0, len(bars)-1)
	up := true
	af := step
	sar := bars[0].High
	next := sar
	extreme := bars[0].High

	for _, b := range bars[1:] {
		floor := math.Min(b.High, b.Low)
		if up {
			if b.High > extreme {
				extreme = b.High
				af = math.Min(af+step, maxStep)
			} else {
				next = math.Max(sar+af*(extreme-sar), floor)
			}
			if b.Low < next {
				up = false
				sar, extreme, af = b.Low, b.Low, step
			} else {
				sar = next
			}
		} else {
			if b.Low < extreme {
				extreme = b.Low
				af = math.Min(af+step, maxStep)
			} else {
				next = math.Max(sar-af*(sar-extreme), floor)
			}
			if b.High > next {
				up = true
				sar, extreme, af = b.High, b.High, step
			} else {
				sar = next
			}
		}
		out = append(out, next)
	}
	return out, nil
}
