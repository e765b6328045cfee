package dist

import (
	"math"

	"github.com/pkg/errors"
)

// PowerLaw has density proportional to x^alpha on [min, max]
type PowerLaw struct {
	support
	alpha   float64
	norm    float64
	logNorm float64
}

// PowerLawNorm is the integral of x^alpha over [min, max]
func PowerLawNorm(min, max, alpha float64) float64 {
	if alpha == -1 {
		return math.Log(max / min)
	}
	return (math.Pow(max, alpha+1) - math.Pow(min, alpha+1)) / (alpha + 1)
}

// NewPowerLaw checks the bounds and returns the distribution
func NewPowerLaw(min, max, alpha float64) (*PowerLaw, error) {
	if min < 0 {
		return nil, errors.Errorf("Power law minimum must be >= 0, got %v", min)
	}
	if !(max > min) {
		return nil, errors.Errorf("Power law maximum %v must be above minimum %v", max, min)
	}
	if min == 0 && alpha <= -1 {
		return nil, errors.Errorf("Power law with alpha=%v is not normalizable from 0", alpha)
	}

	norm := PowerLawNorm(min, max, alpha)
	if !(norm > 0) || math.IsInf(norm, 0) {
		return nil, errors.Errorf("Power law on [%v, %v] with alpha=%v has bad norm %v", min, max, alpha, norm)
	}

	return &PowerLaw{
		support: support{min: min, max: max},
		alpha:   alpha,
		norm:    norm,
		logNorm: math.Log(norm),
	}, nil
}

// Alpha is the exponent of the power law
func (p *PowerLaw) Alpha() float64 { return p.alpha }

// Norm is the normalisation constant
func (p *PowerLaw) Norm() float64 { return p.norm }

func (p *PowerLaw) LogPDF(x float64) float64 {
	if p.outside(x) {
		return math.Inf(-1)
	}
	return xlogy(p.alpha, x) - p.logNorm
}

func (p *PowerLaw) LogCDF(x float64) float64 {
	if v, done := p.clampCDF(x); done {
		return v
	}

	var num float64
	if p.alpha == -1 {
		num = math.Log(x / p.min)
	} else {
		num = (math.Pow(x, p.alpha+1) - math.Pow(p.min, p.alpha+1)) / (p.alpha + 1)
	}
	return logClip(num) - p.logNorm
}
