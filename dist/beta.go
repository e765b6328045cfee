package dist

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mathext"
)

// Beta is the standard Beta(alpha, beta) distribution on [0, 1]
type Beta struct {
	support
	alpha, beta float64
	lbeta       float64
}

// NewBeta requires positive shape parameters
func NewBeta(alpha, beta float64) (*Beta, error) {
	if !(alpha > 0) || !(beta > 0) {
		return nil, errors.Errorf("Beta shape parameters must be positive, got (%v, %v)", alpha, beta)
	}
	return &Beta{
		support: support{min: 0, max: 1},
		alpha:   alpha,
		beta:    beta,
		lbeta:   mathext.Lbeta(alpha, beta),
	}, nil
}

func (b *Beta) LogPDF(x float64) float64 {
	if b.outside(x) {
		return math.Inf(-1)
	}
	return xlogy(b.alpha-1, x) + xlogy(b.beta-1, 1-x) - b.lbeta
}

func (b *Beta) LogCDF(x float64) float64 {
	if v, done := b.clampCDF(x); done {
		return v
	}
	return logClip(mathext.RegIncBeta(b.alpha, b.beta, x))
}

// TruncatedBeta is Beta(alpha, beta) restricted to [0, max]
type TruncatedBeta struct {
	Beta
	logNorm float64
}

// NewTruncatedBeta requires 0 < max <= 1
func NewTruncatedBeta(alpha, beta, max float64) (*TruncatedBeta, error) {
	b, err := NewBeta(alpha, beta)
	if err != nil {
		return nil, err
	}
	if !(max > 0) || max > 1 {
		return nil, errors.Errorf("Truncated beta maximum must be in (0, 1], got %v", max)
	}

	norm := mathext.RegIncBeta(alpha, beta, max)
	if !(norm > 0) {
		return nil, errors.Errorf("Beta(%v, %v) has no mass below %v", alpha, beta, max)
	}

	b.max = max
	return &TruncatedBeta{Beta: *b, logNorm: math.Log(norm)}, nil
}

func (b *TruncatedBeta) LogPDF(x float64) float64 {
	return b.Beta.LogPDF(x) - b.logNorm
}

func (b *TruncatedBeta) LogCDF(x float64) float64 {
	if v, done := b.clampCDF(x); done {
		return v
	}
	return b.Beta.LogCDF(x) - b.logNorm
}
