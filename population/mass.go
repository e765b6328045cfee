package population

import (
	"github.com/pkg/errors"

	"github.com/CraigKelly/popinfer/dist"
)

// PeakWidths is how many sigmas above the mean every Gaussian peak is
// truncated
const PeakWidths = 5

// PrimaryModel is a 1-D mass wrapper. The slopes it reads are spectral
// indexes, so a parameter alpha becomes a density slope of -alpha.
type PrimaryModel interface {
	Model
	Prior() dist.Dist
}

// peak builds the standard peak truncated to [mmin, mu+5 sigma]
func peak(mu, sigma, mmin float64) dist.PeakParams {
	return dist.PeakParams{Mean: mu, Sigma: sigma, Min: mmin, Max: mu + PeakWidths*sigma}
}

// MassPowerLaw is a truncated power law
type MassPowerLaw struct {
	prior dist.Dist
}

func (m *MassPowerLaw) Parameters() []string { return []string{"alpha", "mmin", "mmax"} }

func (m *MassPowerLaw) Update(params map[string]float64) error {
	v, err := values(params, m.Parameters()...)
	if err != nil {
		return err
	}
	p, err := dist.NewPowerLaw(v[1], v[2], -v[0])
	if err != nil {
		return err
	}
	m.prior = p
	return nil
}

func (m *MassPowerLaw) Prior() dist.Dist { return m.prior }

// MassPowerLawPeak is a power law plus one Gaussian peak
type MassPowerLawPeak struct {
	prior dist.Dist
}

func (m *MassPowerLawPeak) Parameters() []string {
	return []string{"alpha", "mmin", "mmax", "mu_g", "sigma_g", "lambda_peak"}
}

func (m *MassPowerLawPeak) Update(params map[string]float64) error {
	v, err := values(params, m.Parameters()...)
	if err != nil {
		return err
	}
	alpha, mmin, mmax, mu, sigma, lambda := v[0], v[1], v[2], v[3], v[4], v[5]
	p, err := dist.NewPowerLawGaussian(mmin, mmax, -alpha, lambda, mu, sigma, mmin, mu+PeakWidths*sigma)
	if err != nil {
		return err
	}
	m.prior = p
	return nil
}

func (m *MassPowerLawPeak) Prior() dist.Dist { return m.prior }

// MassBrokenPowerLaw is two power laws joined at mmin + b (mmax - mmin)
type MassBrokenPowerLaw struct {
	prior dist.Dist
}

func (m *MassBrokenPowerLaw) Parameters() []string {
	return []string{"alpha_1", "alpha_2", "mmin", "mmax", "b"}
}

func (m *MassBrokenPowerLaw) Update(params map[string]float64) error {
	v, err := values(params, m.Parameters()...)
	if err != nil {
		return err
	}
	p, err := dist.NewBrokenPowerLaw(v[2], v[3], -v[0], -v[1], v[4])
	if err != nil {
		return err
	}
	m.prior = p
	return nil
}

func (m *MassBrokenPowerLaw) Prior() dist.Dist { return m.prior }

var twoPeakParameters = []string{
	"mu_g_low", "sigma_g_low", "lambda_g_low",
	"mu_g_high", "sigma_g_high", "lambda_g",
}

// twoPeaks reads the shared low/high peak block. Returns lambda, lambdaLow
// and the two peaks.
func twoPeaks(params map[string]float64, mmin float64) (float64, float64, dist.PeakParams, dist.PeakParams, error) {
	v, err := values(params, twoPeakParameters...)
	if err != nil {
		return 0, 0, dist.PeakParams{}, dist.PeakParams{}, err
	}
	low := peak(v[0], v[1], mmin)
	high := peak(v[3], v[4], mmin)
	return v[5], v[2], low, high, nil
}

// MassMultiPeak is a power law plus a low and a high Gaussian peak
type MassMultiPeak struct {
	prior dist.Dist
}

func (m *MassMultiPeak) Parameters() []string {
	return append([]string{"alpha", "mmin", "mmax"}, twoPeakParameters...)
}

func (m *MassMultiPeak) Update(params map[string]float64) error {
	v, err := values(params, "alpha", "mmin", "mmax")
	if err != nil {
		return err
	}
	lambda, lambdaLow, low, high, err := twoPeaks(params, v[1])
	if err != nil {
		return err
	}
	p, err := dist.NewPowerLawTwoGaussians(v[1], v[2], -v[0], lambda, lambdaLow, low, high)
	if err != nil {
		return err
	}
	m.prior = p
	return nil
}

func (m *MassMultiPeak) Prior() dist.Dist { return m.prior }

// MassBrokenPowerLawMultiPeak is a broken power law plus two peaks
type MassBrokenPowerLawMultiPeak struct {
	prior dist.Dist
}

func (m *MassBrokenPowerLawMultiPeak) Parameters() []string {
	return append([]string{"alpha_1", "alpha_2", "mmin", "mmax", "b"}, twoPeakParameters...)
}

func (m *MassBrokenPowerLawMultiPeak) Update(params map[string]float64) error {
	v, err := values(params, "alpha_1", "alpha_2", "mmin", "mmax", "b")
	if err != nil {
		return err
	}
	lambda, lambdaLow, low, high, err := twoPeaks(params, v[2])
	if err != nil {
		return err
	}
	p, err := dist.NewBrokenPowerLawMultiPeak(v[2], v[3], -v[0], -v[1], v[4], lambda, lambdaLow, low, high)
	if err != nil {
		return err
	}
	m.prior = p
	return nil
}

func (m *MassBrokenPowerLawMultiPeak) Prior() dist.Dist { return m.prior }

// MassBrokenPowerLawTripleMultiPeak is a broken power law plus three peaks.
// lambda_g goes to the peaks, lambda_g_1 of that to the first, lambda_g_2 of
// the rest to the second.
type MassBrokenPowerLawTripleMultiPeak struct {
	prior dist.Dist
}

func (m *MassBrokenPowerLawTripleMultiPeak) Parameters() []string {
	return []string{
		"alpha_1", "alpha_2", "mmin", "mmax", "b",
		"lambda_g", "lambda_g_1", "lambda_g_2",
		"mu_g_1", "sigma_g_1", "mu_g_2", "sigma_g_2", "mu_g_3", "sigma_g_3",
	}
}

func (m *MassBrokenPowerLawTripleMultiPeak) Update(params map[string]float64) error {
	v, err := values(params, m.Parameters()...)
	if err != nil {
		return err
	}
	mmin := v[2]
	peaks := [3]dist.PeakParams{
		peak(v[8], v[9], mmin),
		peak(v[10], v[11], mmin),
		peak(v[12], v[13], mmin),
	}
	p, err := dist.NewBrokenPowerLawTripleMultiPeak(mmin, v[3], -v[0], -v[1], v[4], v[5], v[6], v[7], peaks)
	if err != nil {
		return err
	}
	m.prior = p
	return nil
}

func (m *MassBrokenPowerLawTripleMultiPeak) Prior() dist.Dist { return m.prior }

// MassRatioGaussian is a Gaussian in q truncated to [0, 1]
type MassRatioGaussian struct {
	prior dist.Dist
}

func (m *MassRatioGaussian) Parameters() []string { return []string{"mu_q", "sigma_q"} }

func (m *MassRatioGaussian) Update(params map[string]float64) error {
	v, err := values(params, m.Parameters()...)
	if err != nil {
		return err
	}
	p, err := dist.NewTruncatedGaussian(v[0], v[1], 0, 1)
	if err != nil {
		return err
	}
	m.prior = p
	return nil
}

func (m *MassRatioGaussian) Prior() dist.Dist { return m.prior }

// MassRatioPowerLaw is q^alpha_q on [0, 1]. Unlike the mass slopes the
// exponent is used as given.
type MassRatioPowerLaw struct {
	prior dist.Dist
}

func (m *MassRatioPowerLaw) Parameters() []string { return []string{"alpha_q"} }

func (m *MassRatioPowerLaw) Update(params map[string]float64) error {
	v, err := values(params, m.Parameters()...)
	if err != nil {
		return err
	}
	p, err := dist.NewPowerLaw(0, 1, v[0])
	if err != nil {
		return err
	}
	m.prior = p
	return nil
}

func (m *MassRatioPowerLaw) Prior() dist.Dist { return m.prior }

// LowSmoothed turns on the inner model smoothly over delta_m
type LowSmoothed struct {
	inner PrimaryModel
	prior dist.Dist
}

// NewLowSmoothed wraps inner
func NewLowSmoothed(inner PrimaryModel) *LowSmoothed {
	return &LowSmoothed{inner: inner}
}

func (m *LowSmoothed) Parameters() []string {
	return append([]string{"delta_m"}, m.inner.Parameters()...)
}

func (m *LowSmoothed) Update(params map[string]float64) error {
	v, err := values(params, "delta_m")
	if err != nil {
		return err
	}
	if err := m.inner.Update(params); err != nil {
		return err
	}
	p, err := dist.NewLowpassSmoothed(m.inner.Prior(), v[0])
	if err != nil {
		return errors.Wrapf(err, "Could not smooth %T", m.inner)
	}
	m.prior = p
	return nil
}

func (m *LowSmoothed) Prior() dist.Dist { return m.prior }

// Inner is the wrapped model
func (m *LowSmoothed) Inner() PrimaryModel { return m.inner }
