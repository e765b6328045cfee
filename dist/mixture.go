package dist

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// weightTolerance is how far mixture weights may sum away from 1
const weightTolerance = 1e-6

// Mixture is a weighted sum of component distributions. The support is the
// union of the component supports.
type Mixture struct {
	support
	components []Dist
	weights    []float64
	logWeights []float64
}

// NewMixture checks that the weights are non-negative and sum to 1
func NewMixture(components []Dist, weights []float64) (*Mixture, error) {
	if len(components) < 1 {
		return nil, errors.Errorf("Mixture needs at least one component")
	}
	if len(components) != len(weights) {
		return nil, errors.Errorf("Mixture has %d components but %d weights", len(components), len(weights))
	}

	for i, w := range weights {
		if !(w >= 0) || w > 1 {
			return nil, errors.Errorf("Mixture weight %d must be in [0, 1], got %v", i, w)
		}
	}
	if tot := floats.Sum(weights); math.Abs(tot-1) > weightTolerance {
		return nil, errors.Errorf("Mixture weights must sum to 1, got %v", tot)
	}

	min, max := components[0].Bounds()
	for _, c := range components[1:] {
		cmin, cmax := c.Bounds()
		min = math.Min(min, cmin)
		max = math.Max(max, cmax)
	}

	lw := make([]float64, len(weights))
	for i, w := range weights {
		lw[i] = math.Log(w)
	}

	return &Mixture{
		support:    support{min: min, max: max},
		components: append([]Dist(nil), components...),
		weights:    append([]float64(nil), weights...),
		logWeights: lw,
	}, nil
}

// Weights returns a copy of the mixing weights
func (m *Mixture) Weights() []float64 {
	return append([]float64(nil), m.weights...)
}

func (m *Mixture) LogPDF(x float64) float64 {
	if m.outside(x) {
		return math.Inf(-1)
	}
	terms := make([]float64, len(m.components))
	for i, c := range m.components {
		terms[i] = m.logWeights[i] + c.LogPDF(x)
	}
	return floats.LogSumExp(terms)
}

func (m *Mixture) LogCDF(x float64) float64 {
	if v, done := m.clampCDF(x); done {
		return v
	}
	tot := 0.0
	for i, c := range m.components {
		tot += m.weights[i] * CDF(c, x)
	}
	return logClip(tot)
}

// NewPowerLawGaussian is a power law with a fraction lambda moved into a
// truncated Gaussian peak
func NewPowerLawGaussian(minPL, maxPL, alpha, lambda, mean, sigma, minG, maxG float64) (*Mixture, error) {
	pl, err := NewPowerLaw(minPL, maxPL, alpha)
	if err != nil {
		return nil, err
	}
	g, err := NewTruncatedGaussian(mean, sigma, minG, maxG)
	if err != nil {
		return nil, err
	}
	return NewMixture([]Dist{pl, g}, []float64{1 - lambda, lambda})
}

// PeakParams describe one truncated Gaussian peak
type PeakParams struct {
	Mean, Sigma, Min, Max float64
}

func (p PeakParams) build() (*TruncatedGaussian, error) {
	return NewTruncatedGaussian(p.Mean, p.Sigma, p.Min, p.Max)
}

// NewPowerLawTwoGaussians splits lambda between a low and a high peak with
// fraction lambdaLow going to the low one
func NewPowerLawTwoGaussians(minPL, maxPL, alpha, lambda, lambdaLow float64, low, high PeakParams) (*Mixture, error) {
	pl, err := NewPowerLaw(minPL, maxPL, alpha)
	if err != nil {
		return nil, err
	}
	return twoPeaks(pl, lambda, lambdaLow, low, high)
}

// NewBrokenPowerLawMultiPeak is a broken power law plus two peaks
func NewBrokenPowerLawMultiPeak(minPL, maxPL, alpha1, alpha2, b, lambda, lambdaLow float64, low, high PeakParams) (*Mixture, error) {
	bpl, err := NewBrokenPowerLaw(minPL, maxPL, alpha1, alpha2, b)
	if err != nil {
		return nil, err
	}
	return twoPeaks(bpl, lambda, lambdaLow, low, high)
}

func twoPeaks(base Dist, lambda, lambdaLow float64, low, high PeakParams) (*Mixture, error) {
	gl, err := low.build()
	if err != nil {
		return nil, errors.Wrapf(err, "Low peak")
	}
	gh, err := high.build()
	if err != nil {
		return nil, errors.Wrapf(err, "High peak")
	}
	return NewMixture(
		[]Dist{base, gl, gh},
		[]float64{1 - lambda, lambda * lambdaLow, lambda * (1 - lambdaLow)},
	)
}

// NewBrokenPowerLawTripleMultiPeak is a broken power law plus three peaks.
// lambda1 goes to the first peak, then lambda2 of the remainder to the second.
func NewBrokenPowerLawTripleMultiPeak(minPL, maxPL, alpha1, alpha2, b, lambda, lambda1, lambda2 float64, peaks [3]PeakParams) (*Mixture, error) {
	bpl, err := NewBrokenPowerLaw(minPL, maxPL, alpha1, alpha2, b)
	if err != nil {
		return nil, err
	}
	comps := []Dist{bpl}
	for i, p := range peaks {
		g, err := p.build()
		if err != nil {
			return nil, errors.Wrapf(err, "Peak %d", i+1)
		}
		comps = append(comps, g)
	}
	return NewMixture(comps, []float64{
		1 - lambda,
		lambda * lambda1,
		lambda * (1 - lambda1) * lambda2,
		lambda * (1 - lambda1) * (1 - lambda2),
	})
}
