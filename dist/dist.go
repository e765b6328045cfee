// Package dist provides bounded one-dimensional probability distributions.
// Every distribution has a finite support [min, max]; the log density is -Inf
// outside of it and the CDF is clamped to 0 below and 1 above.
//
// Distributions are immutable once built. New parameters mean a new value.
package dist

import (
	"math"
)

// Dist is a bounded 1-D distribution evaluated in log space
type Dist interface {
	LogPDF(x float64) float64
	LogCDF(x float64) float64
	Bounds() (min, max float64)
}

// Source provides uniform draws in [0, 1). rand.Generator satisfies it.
type Source interface {
	Float64() float64
}

// PDF is exp(LogPDF)
func PDF(d Dist, x float64) float64 {
	return math.Exp(d.LogPDF(x))
}

// CDF is exp(LogCDF)
func CDF(d Dist, x float64) float64 {
	return math.Exp(d.LogCDF(x))
}

// LogPDFEach evaluates the log density at every point, returning a new slice
func LogPDFEach(d Dist, xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = d.LogPDF(x)
	}
	return out
}

// PDFEach evaluates the density at every point, returning a new slice
func PDFEach(d Dist, xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = PDF(d, x)
	}
	return out
}

// CDFEach evaluates the CDF at every point, returning a new slice
func CDFEach(d Dist, xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = CDF(d, x)
	}
	return out
}

// support is embedded by every concrete distribution to provide Bounds and
// the masking rules.
type support struct {
	min float64
	max float64
}

// Bounds returns the support of the distribution
func (s support) Bounds() (float64, float64) {
	return s.min, s.max
}

func (s support) outside(x float64) bool {
	return x < s.min || x > s.max
}

// clampCDF reports the log CDF for x outside the support. The second return
// is false when x is inside and the caller must compute the value.
func (s support) clampCDF(x float64) (float64, bool) {
	if x < s.min {
		return math.Inf(-1), true
	}
	if x > s.max {
		return 0, true
	}
	return 0, false
}

// xlogy is x*log(y) with 0*log(0) == 0
func xlogy(x, y float64) float64 {
	if x == 0 {
		return 0
	}
	return x * math.Log(y)
}

// logClip returns log(v) with tiny negative round-off treated as zero
func logClip(v float64) float64 {
	if v <= 0 {
		return math.Inf(-1)
	}
	return math.Log(v)
}
