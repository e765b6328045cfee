// Package window holds the smooth turn-on, turn-off and notch functions used
// to shape population distributions near their edges.
package window

import "math"

// Highpass rises smoothly from 0 at min to 1 at min+delta. A zero delta is a
// hard step that is always open.
func Highpass(x, min, delta float64) float64 {
	if delta == 0 {
		return 1
	}
	if x <= min {
		return 0
	}
	if x >= min+delta {
		return 1
	}

	// exp overflow means the window is fully closed at x
	e := math.Exp(delta/(x-min) + delta/(x-min-delta))
	if math.IsInf(e, 1) {
		return 0
	}
	return 1 / (1 + e)
}

// Lowpass falls smoothly from 1 at max-delta to 0 at max.
func Lowpass(x, max, delta float64) float64 {
	if delta == 0 {
		return 1
	}
	if x >= max {
		return 0
	}
	if x <= max-delta {
		return 1
	}

	e := math.Exp(delta/(max-x) + delta/(max-x-delta))
	if math.IsInf(e, 1) {
		return 0
	}
	return 1 / (1 + e)
}

// Notch suppresses the band between left and right by depth (0 none, 1 total).
func Notch(x, left, leftDelta, right, rightDelta, depth float64) float64 {
	return 1 - depth*Highpass(x, left, leftDelta)*Lowpass(x, right, rightDelta)
}

// MixedLinear is the linear drift a0 + (a1-a0)x used for mixing fractions
// that evolve with redshift.
func MixedLinear(x, a0, a1 float64) float64 {
	return (a1-a0)*x + a0
}

// MixedDoubleSigmoid moves from a0 at low x to a1 at high x, centred on xt
// with width dxt.
func MixedDoubleSigmoid(x, xt, dxt, a0, a1 float64) float64 {
	return a1 + (a0-a1)/(1+math.Exp((x-xt)/dxt))
}

// HighpassEach applies Highpass to every value, returning a new slice
func HighpassEach(xs []float64, min, delta float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = Highpass(x, min, delta)
	}
	return out
}

// LowpassEach applies Lowpass to every value, returning a new slice
func LowpassEach(xs []float64, max, delta float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = Lowpass(x, max, delta)
	}
	return out
}
