package joint

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"

	"github.com/CraigKelly/popinfer/dist"
)

// NormSamples is the number of base draws used for the Monte-Carlo norm of a
// pairing function
const NormSamples = 10000

// PairingFunc weights a pair drawn independently from the base distribution
type PairingFunc func(x1, x2 float64) float64

// MassRatioPower pairs with weight q^beta where q = x2/x1, zero for q > 1
func MassRatioPower(beta float64) PairingFunc {
	return func(x1, x2 float64) float64 {
		q := x2 / x1
		if q > 1 {
			return 0
		}
		return math.Pow(q, beta)
	}
}

// SplitMassRatioPower uses betaBottom when x2 <= split and betaTop above it
func SplitMassRatioPower(betaBottom, betaTop, split float64) PairingFunc {
	return func(x1, x2 float64) float64 {
		q := x2 / x1
		if q > 1 {
			return 0
		}
		if x2 <= split {
			return math.Pow(q, betaBottom)
		}
		return math.Pow(q, betaTop)
	}
}

// Paired is base(x1) base(x2) pairing(x1, x2) / norm, with norm the mean of
// the pairing function over independent base draws.
type Paired struct {
	base    dist.Dist
	pairing PairingFunc
	norm    float64
	logNorm float64
}

// NewPaired estimates the normalisation from NormSamples draws of src
func NewPaired(base dist.Dist, pairing PairingFunc, src dist.Source) (*Paired, error) {
	if src == nil {
		return nil, errors.Errorf("Paired distribution needs a random source for its norm")
	}
	inv, err := dist.NewInverseCDF(base)
	if err != nil {
		return nil, errors.Wrapf(err, "Could not sample base distribution")
	}

	// One table serves both members of every pair
	vals := make([]float64, NormSamples)
	for i := range vals {
		x1 := inv.At(src.Float64())
		x2 := inv.At(src.Float64())
		vals[i] = pairing(x1, x2)
	}
	norm := stat.Mean(vals, nil)
	if !(norm > 0) || math.IsInf(norm, 0) {
		return nil, errors.Errorf("Pairing function has Monte-Carlo norm %v", norm)
	}

	return &Paired{
		base:    base,
		pairing: pairing,
		norm:    norm,
		logNorm: math.Log(norm),
	}, nil
}

// Base is the distribution both members are drawn from
func (p *Paired) Base() dist.Dist { return p.base }

// Norm is the Monte-Carlo normalisation of the pairing function
func (p *Paired) Norm() float64 { return p.norm }

func (p *Paired) LogPDF(x1, x2 float64) float64 {
	v := p.base.LogPDF(x1) + p.base.LogPDF(x2) + math.Log(p.pairing(x1, x2)) - p.logNorm
	return sanitize(v)
}

// Sample resamples ProposalFactor*n uniform proposals over the base support
func (p *Paired) Sample(src dist.Source, n int) ([]float64, []float64, error) {
	min, max := p.base.Bounds()
	return resampleBox(p, src, n, ProposalFactor*n, min, max, min, max)
}
