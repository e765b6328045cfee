package population

import (
	"math"

	"github.com/pkg/errors"

	"github.com/CraigKelly/popinfer/catalog"
	"github.com/CraigKelly/popinfer/dist"
	"github.com/CraigKelly/popinfer/joint"
	"github.com/CraigKelly/popinfer/window"
)

// EvolvingModel is a primary mass density that depends on redshift
type EvolvingModel interface {
	MassModel
	LogPDF(m, z float64) float64
}

// logEvolving evaluates p(m1 | z) over the mass_1_source and z columns
func logEvolving(e EvolvingModel, cols catalog.Columns) ([]float64, error) {
	c, err := columns(cols, []string{catalog.ColMass1, catalog.ColRedshift})
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(c[0]))
	for i := range out {
		out[i] = e.LogPDF(c[0][i], c[1][i])
	}
	return out, nil
}

// polynomial is sum coef[i] x^i
func polynomial(coef []float64, x float64) float64 {
	v := 0.0
	for i := len(coef) - 1; i >= 0; i-- {
		v = v*x + coef[i]
	}
	return v
}

// gaussianLog is the log of a truncated Gaussian, -Inf where the Gaussian
// can not be built
func gaussianLog(m, mu, sigma, min, max float64) float64 {
	g, err := dist.NewTruncatedGaussian(mu, sigma, min, max)
	if err != nil {
		return math.Inf(-1)
	}
	return g.LogPDF(m)
}

// GaussianEvolving is one Gaussian peak whose mean and width are polynomials
// in z:
//
//	mu(z)    = mu_z0 + mu_z1 z + ... + mu_zN z^N
//	sigma(z) = sigma_z0 + ... + sigma_zN z^N
//
// truncated to [0, mu + 6 sigma].
type GaussianEvolving struct {
	mu, sigma         []float64
	muKeys, sigmaKeys []string
}

// NewGaussianEvolving builds an expansion of the given order
func NewGaussianEvolving(order int) (*GaussianEvolving, error) {
	if order < 0 {
		return nil, errors.Errorf("Expansion order must be >= 0, got %d", order)
	}
	return &GaussianEvolving{
		muKeys:    numbered("mu_z", order+1),
		sigmaKeys: numbered("sigma_z", order+1),
	}, nil
}

// Order of the redshift expansion
func (g *GaussianEvolving) Order() int { return len(g.muKeys) - 1 }

func (g *GaussianEvolving) Parameters() []string {
	return append(append([]string(nil), g.muKeys...), g.sigmaKeys...)
}

func (g *GaussianEvolving) Update(params map[string]float64) error {
	mu, err := values(params, g.muKeys...)
	if err != nil {
		return err
	}
	sigma, err := values(params, g.sigmaKeys...)
	if err != nil {
		return err
	}
	g.mu, g.sigma = mu, sigma
	return nil
}

// MuSigma returns the peak location and width at z
func (g *GaussianEvolving) MuSigma(z float64) (float64, float64) {
	return polynomial(g.mu, z), polynomial(g.sigma, z)
}

func (g *GaussianEvolving) LogPDF(m, z float64) float64 {
	mu, sigma := g.MuSigma(z)
	return gaussianLog(m, mu, sigma, 0, mu+6*sigma)
}

func (g *GaussianEvolving) LogMass(cols catalog.Columns) ([]float64, error) {
	if g.mu == nil {
		return nil, errors.Errorf("Mass model used before Update")
	}
	return logEvolving(g, cols)
}

// Transition selects how the power law fraction moves with redshift
type Transition int

// Supported transitions
const (
	TransitionLinear  Transition = iota // mix_z0 + (mix_z1 - mix_z0) z
	TransitionSigmoid                   // double sigmoid centred on zt with width delta_zt
)

// PowerLawGaussianEvolving mixes a stationary power law (optionally turned
// on over delta_m) with a Gaussian peak drifting linearly in z and truncated
// below mmin. The power law fraction is mix_z0, or evolves from mix_z0 to
// mix_z1 when the mixture evolves. A fraction outside [0, 1] gives a zero
// density.
type PowerLawGaussianEvolving struct {
	transition Transition
	smoothing  bool
	evolving   bool

	powerLaw dist.Dist
	mmin     float64
	muZ      [2]float64
	sigmaZ   [2]float64
	mix      [2]float64
	zt, dzt  float64
}

// NewPowerLawGaussianEvolving picks the optional parameter blocks
func NewPowerLawGaussianEvolving(transition Transition, smoothing, evolvingMixture bool) *PowerLawGaussianEvolving {
	return &PowerLawGaussianEvolving{
		transition: transition,
		smoothing:  smoothing,
		evolving:   evolvingMixture,
	}
}

func (p *PowerLawGaussianEvolving) Parameters() []string {
	keys := []string{"alpha", "mmin", "mmax", "mu_z0", "mu_z1", "sigma_z0", "sigma_z1", "mix_z0"}
	if p.evolving {
		keys = append(keys, "mix_z1")
		if p.transition == TransitionSigmoid {
			keys = append(keys, "zt", "delta_zt")
		}
	}
	if p.smoothing {
		keys = append(keys, "delta_m")
	}
	return keys
}

func (p *PowerLawGaussianEvolving) Update(params map[string]float64) error {
	v, err := values(params, p.Parameters()...)
	if err != nil {
		return err
	}
	get := func(key string) float64 { return params[key] }

	pl, err := dist.NewPowerLaw(v[1], v[2], -v[0])
	if err != nil {
		return err
	}
	var base dist.Dist = pl
	if p.smoothing {
		if base, err = dist.NewLowpassSmoothed(pl, get("delta_m")); err != nil {
			return err
		}
	}

	p.powerLaw = base
	p.mmin = v[1]
	p.muZ = [2]float64{v[3], v[4]}
	p.sigmaZ = [2]float64{v[5], v[6]}
	p.mix = [2]float64{v[7], v[7]}
	if p.evolving {
		p.mix[1] = get("mix_z1")
		p.zt, p.dzt = get("zt"), get("delta_zt")
	}
	return nil
}

// Weight is the power law fraction at z
func (p *PowerLawGaussianEvolving) Weight(z float64) float64 {
	if !p.evolving {
		return p.mix[0]
	}
	if p.transition == TransitionSigmoid {
		return window.MixedDoubleSigmoid(z, p.zt, p.dzt, p.mix[0], p.mix[1])
	}
	return window.MixedLinear(z, p.mix[0], p.mix[1])
}

func (p *PowerLawGaussianEvolving) LogPDF(m, z float64) float64 {
	w := p.Weight(z)
	if !(w >= 0 && w <= 1) {
		return math.Inf(-1)
	}
	mu := p.muZ[0] + p.muZ[1]*z
	sigma := p.sigmaZ[0] + p.sigmaZ[1]*z
	g := math.Exp(gaussianLog(m, mu, sigma, p.mmin, math.Inf(1)))
	return nanToInf(math.Log(w*dist.PDF(p.powerLaw, m) + (1-w)*g))
}

func (p *PowerLawGaussianEvolving) LogMass(cols catalog.Columns) ([]float64, error) {
	if p.powerLaw == nil {
		return nil, errors.Errorf("Mass model used before Update")
	}
	return logEvolving(p, cols)
}

// EvolvingPowerLawPeak adds a Gaussian peak whose mean and width move across
// a double sigmoid in z to a stationary primary model:
//
//	p(m1 | z) = (1 - lambda_peak) p_inner(m1) + lambda_peak N(m1; mu(z), sigma(z))
//	mu(z)     = mu_z0 below zt, mu_z1 above, width delta_zt
//
// with sigma(z) built the same way and the peak truncated to
// [mmin, mu + PeakWidths sigma]. m2 follows a power law of slope beta on
// [mmin, mmax] truncated at m1.
type EvolvingPowerLawPeak struct {
	inner PrimaryModel

	secondary dist.Dist
	mmin      float64
	lambda    float64
	zt, dzt   float64
	muZ       [2]float64
	sigmaZ    [2]float64
}

// NewEvolvingPowerLawPeak wraps the stationary model inner
func NewEvolvingPowerLawPeak(inner PrimaryModel) *EvolvingPowerLawPeak {
	return &EvolvingPowerLawPeak{inner: inner}
}

var evolvingPeakKeys = []string{"mmin", "mmax", "beta", "lambda_peak", "zt", "delta_zt", "mu_z0", "mu_z1", "sigma_z0", "sigma_z1"}

func (e *EvolvingPowerLawPeak) Parameters() []string {
	return appendNew(e.inner.Parameters(), evolvingPeakKeys...)
}

func (e *EvolvingPowerLawPeak) Update(params map[string]float64) error {
	v, err := values(params, evolvingPeakKeys...)
	if err != nil {
		return err
	}
	mmin, mmax, beta, lambda := v[0], v[1], v[2], v[3]
	if !(lambda >= 0 && lambda <= 1) {
		return errors.Errorf("lambda_peak must be in [0, 1], got %v", lambda)
	}
	if !(v[5] > 0) {
		return errors.Errorf("delta_zt must be > 0, got %v", v[5])
	}
	if err := e.inner.Update(params); err != nil {
		return err
	}
	p2, err := dist.NewPowerLaw(mmin, mmax, beta)
	if err != nil {
		return errors.Wrapf(err, "Secondary mass")
	}

	e.secondary = p2
	e.mmin, e.lambda = mmin, lambda
	e.zt, e.dzt = v[4], v[5]
	e.muZ = [2]float64{v[6], v[7]}
	e.sigmaZ = [2]float64{v[8], v[9]}
	return nil
}

// MuSigma returns the peak location and width at z
func (e *EvolvingPowerLawPeak) MuSigma(z float64) (float64, float64) {
	return window.MixedDoubleSigmoid(z, e.zt, e.dzt, e.muZ[0], e.muZ[1]),
		window.MixedDoubleSigmoid(z, e.zt, e.dzt, e.sigmaZ[0], e.sigmaZ[1])
}

func (e *EvolvingPowerLawPeak) LogPDF(m, z float64) float64 {
	mu, sigma := e.MuSigma(z)
	g := math.Exp(gaussianLog(m, mu, sigma, e.mmin, mu+PeakWidths*sigma))
	return nanToInf(math.Log((1-e.lambda)*dist.PDF(e.inner.Prior(), m) + e.lambda*g))
}

// LogMass is log p(m1 | z) + log p(m2 | m1)
func (e *EvolvingPowerLawPeak) LogMass(cols catalog.Columns) ([]float64, error) {
	if e.secondary == nil {
		return nil, errors.Errorf("Mass model used before Update")
	}
	c, err := columns(cols, []string{catalog.ColMass1, catalog.ColMass2, catalog.ColRedshift})
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(c[0]))
	for i := range out {
		out[i] = nanToInf(e.LogPDF(c[0][i], c[2][i]) + joint.LogTruncated(e.secondary, c[0][i], c[1][i]))
	}
	return out, nil
}
