package dist

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat/distuv"
)

// TruncatedGaussian is a normal distribution restricted to [min, max] and
// renormalised
type TruncatedGaussian struct {
	support
	normal  distuv.Normal
	cdfMin  float64
	logNorm float64
}

// NewTruncatedGaussian requires a positive sigma and a window holding some mass
func NewTruncatedGaussian(mean, sigma, min, max float64) (*TruncatedGaussian, error) {
	if !(sigma > 0) {
		return nil, errors.Errorf("Gaussian sigma must be positive, got %v", sigma)
	}
	if !(max > min) {
		return nil, errors.Errorf("Gaussian maximum %v must be above minimum %v", max, min)
	}

	n := distuv.Normal{Mu: mean, Sigma: sigma}
	cdfMin := n.CDF(min)
	norm := n.CDF(max) - cdfMin
	if !(norm > 0) {
		return nil, errors.Errorf("Gaussian N(%v, %v) has no mass in [%v, %v]", mean, sigma, min, max)
	}

	return &TruncatedGaussian{
		support: support{min: min, max: max},
		normal:  n,
		cdfMin:  cdfMin,
		logNorm: math.Log(norm),
	}, nil
}

// Mean of the untruncated normal
func (g *TruncatedGaussian) Mean() float64 { return g.normal.Mu }

// Sigma of the untruncated normal
func (g *TruncatedGaussian) Sigma() float64 { return g.normal.Sigma }

func (g *TruncatedGaussian) LogPDF(x float64) float64 {
	if g.outside(x) {
		return math.Inf(-1)
	}
	return g.normal.LogProb(x) - g.logNorm
}

func (g *TruncatedGaussian) LogCDF(x float64) float64 {
	if v, done := g.clampCDF(x); done {
		return v
	}
	return logClip(g.normal.CDF(x)-g.cdfMin) - g.logNorm
}
