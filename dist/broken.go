package dist

import (
	"math"

	"github.com/pkg/errors"
)

// BrokenPowerLaw is two power laws joined continuously at
// min + b*(max-min)
type BrokenPowerLaw struct {
	support
	breakPoint float64
	low, high  *PowerLaw
	logScale   float64 // log(low(break) / high(break))
	logNorm    float64
}

// NewBrokenPowerLaw requires 0 < b < 1
func NewBrokenPowerLaw(min, max, alpha1, alpha2, b float64) (*BrokenPowerLaw, error) {
	if !(b > 0 && b < 1) {
		return nil, errors.Errorf("Break fraction must be in (0, 1), got %v", b)
	}
	if !(max > min) {
		return nil, errors.Errorf("Broken power law maximum %v must be above minimum %v", max, min)
	}

	bp := min + b*(max-min)
	low, err := NewPowerLaw(min, bp, alpha1)
	if err != nil {
		return nil, errors.Wrapf(err, "Lower segment of broken power law")
	}
	high, err := NewPowerLaw(bp, max, alpha2)
	if err != nil {
		return nil, errors.Wrapf(err, "Upper segment of broken power law")
	}

	logScale := low.LogPDF(bp) - high.LogPDF(bp)
	return &BrokenPowerLaw{
		support:    support{min: min, max: max},
		breakPoint: bp,
		low:        low,
		high:       high,
		logScale:   logScale,
		logNorm:    math.Log1p(math.Exp(logScale)),
	}, nil
}

// Break returns the location of the break
func (p *BrokenPowerLaw) Break() float64 { return p.breakPoint }

func (p *BrokenPowerLaw) LogPDF(x float64) float64 {
	if p.outside(x) {
		return math.Inf(-1)
	}
	if x < p.breakPoint {
		return p.low.LogPDF(x) - p.logNorm
	}
	return p.high.LogPDF(x) + p.logScale - p.logNorm
}

func (p *BrokenPowerLaw) LogCDF(x float64) float64 {
	if v, done := p.clampCDF(x); done {
		return v
	}
	c := CDF(p.low, x) + CDF(p.high, x)*math.Exp(p.logScale)
	return logClip(c) - p.logNorm
}
