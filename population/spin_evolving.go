package population

import (
	"math"

	"github.com/pkg/errors"

	"github.com/CraigKelly/popinfer/catalog"
	"github.com/CraigKelly/popinfer/dist"
	"github.com/CraigKelly/popinfer/window"
)

// massSpinColumns are read by the spin models whose magnitude law depends on
// the source frame mass of each component
var massSpinColumns = []string{
	catalog.ColChi1, catalog.ColChi2, catalog.ColCosT1, catalog.ColCosT2,
	catalog.ColMass1, catalog.ColMass2,
}

// logMassSpin evaluates magnitude(chi, m) for both components plus the tilts
func logMassSpin(cols catalog.Columns, t tilts, magnitude func(chi, m float64) float64) ([]float64, error) {
	c, err := columns(cols, massSpinColumns)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(c[0]))
	for i := range out {
		out[i] = nanToInf(magnitude(c[0][i], c[4][i]) + magnitude(c[1][i], c[5][i]) + t.logPDF(c[2][i], c[3][i]))
	}
	return out, nil
}

// SpinEvolvingGaussian has spin magnitudes from a Gaussian on [0, 1] whose
// mean and width drift linearly with the component mass:
//
//	mu(m)    = mu_chi + mu_dot m
//	sigma(m) = sigma_chi + sigma_dot m
//
// Tilts are as in SpinDefault.
type SpinEvolvingGaussian struct {
	mu, sigma [2]float64
	tilts     tilts
	ready     bool
}

func (s *SpinEvolvingGaussian) Parameters() []string {
	return []string{"mu_chi", "sigma_chi", "mu_dot", "sigma_dot", "sigma_t", "csi_spin"}
}

func (s *SpinEvolvingGaussian) EventParameters() []string {
	return append([]string(nil), massSpinColumns...)
}

func (s *SpinEvolvingGaussian) Update(params map[string]float64) error {
	v, err := values(params, s.Parameters()...)
	if err != nil {
		return err
	}
	t, err := newTilts(v[4], v[5])
	if err != nil {
		return err
	}
	s.mu = [2]float64{v[0], v[0] + v[2]}
	s.sigma = [2]float64{v[1], v[1] + v[3]}
	s.tilts = t
	s.ready = true
	return nil
}

// MuSigma is the magnitude Gaussian at mass m
func (s *SpinEvolvingGaussian) MuSigma(m float64) (float64, float64) {
	return window.MixedLinear(m, s.mu[0], s.mu[1]), window.MixedLinear(m, s.sigma[0], s.sigma[1])
}

func (s *SpinEvolvingGaussian) LogPDF(cols catalog.Columns) ([]float64, error) {
	if !s.ready {
		return nil, errors.Errorf("Spin model used before Update")
	}
	return logMassSpin(cols, s.tilts, func(chi, m float64) float64 {
		mu, sigma := s.MuSigma(m)
		return gaussianLog(chi, mu, sigma, 0, 1)
	})
}

// betaWindow is the low mass weight mix_f falling to zero across mt
type betaWindow struct {
	mt, dmt, mix float64
}

func (w betaWindow) weight(m float64) float64 {
	return window.MixedDoubleSigmoid(m, w.mt, w.dmt, w.mix, 0)
}

// mixture is w p_low(chi) + (1-w) p_high(chi), in log
func (w betaWindow) mixture(low, high dist.Dist, chi, m float64) float64 {
	f := w.weight(m)
	return math.Log(f*dist.PDF(low, chi) + (1-f)*dist.PDF(high, chi))
}

func readBetaWindow(params map[string]float64) (betaWindow, tilts, error) {
	v, err := values(params, "mt", "delta_mt", "mix_f", "sigma_t", "csi_spin")
	if err != nil {
		return betaWindow{}, tilts{}, err
	}
	if !(v[1] > 0) {
		return betaWindow{}, tilts{}, errors.Errorf("Spin delta_mt must be > 0, got %v", v[1])
	}
	t, err := newTilts(v[3], v[4])
	if err != nil {
		return betaWindow{}, tilts{}, err
	}
	return betaWindow{mt: v[0], dmt: v[1], mix: v[2]}, t, nil
}

func newSpinBeta(alpha, beta float64) (*dist.Beta, error) {
	if !(alpha > 1) || !(beta > 1) {
		return nil, errors.Errorf("Spin Beta parameters must be > 1, got (%v, %v)", alpha, beta)
	}
	return dist.NewBeta(alpha, beta)
}

// SpinBetaWindowGaussian draws light components' magnitudes mostly from a
// Beta and heavy ones from a Gaussian on [0, 1]. The Beta weight is mix_f
// well below mt and falls to zero across a sigmoid of width delta_mt.
type SpinBetaWindowGaussian struct {
	window   betaWindow
	beta     *dist.Beta
	gaussian *dist.TruncatedGaussian
	tilts    tilts
}

func (s *SpinBetaWindowGaussian) Parameters() []string {
	return []string{"mt", "delta_mt", "mix_f", "alpha_chi", "beta_chi", "mu_chi", "sigma_chi", "sigma_t", "csi_spin"}
}

func (s *SpinBetaWindowGaussian) EventParameters() []string {
	return append([]string(nil), massSpinColumns...)
}

func (s *SpinBetaWindowGaussian) Update(params map[string]float64) error {
	w, t, err := readBetaWindow(params)
	if err != nil {
		return err
	}
	v, err := values(params, "alpha_chi", "beta_chi", "mu_chi", "sigma_chi")
	if err != nil {
		return err
	}
	b, err := newSpinBeta(v[0], v[1])
	if err != nil {
		return err
	}
	g, err := dist.NewTruncatedGaussian(v[2], v[3], 0, 1)
	if err != nil {
		return errors.Wrapf(err, "Spin magnitude")
	}
	s.window, s.beta, s.gaussian, s.tilts = w, b, g, t
	return nil
}

func (s *SpinBetaWindowGaussian) LogPDF(cols catalog.Columns) ([]float64, error) {
	if s.beta == nil {
		return nil, errors.Errorf("Spin model used before Update")
	}
	return logMassSpin(cols, s.tilts, func(chi, m float64) float64 {
		return s.window.mixture(s.beta, s.gaussian, chi, m)
	})
}

// SpinBetaWindowBeta is SpinBetaWindowGaussian with a second Beta for the
// heavy components
type SpinBetaWindowBeta struct {
	window    betaWindow
	low, high *dist.Beta
	tilts     tilts
}

func (s *SpinBetaWindowBeta) Parameters() []string {
	return []string{"mt", "delta_mt", "mix_f", "alpha_chi_low", "beta_chi_low", "alpha_chi_high", "beta_chi_high", "sigma_t", "csi_spin"}
}

func (s *SpinBetaWindowBeta) EventParameters() []string {
	return append([]string(nil), massSpinColumns...)
}

func (s *SpinBetaWindowBeta) Update(params map[string]float64) error {
	w, t, err := readBetaWindow(params)
	if err != nil {
		return err
	}
	v, err := values(params, "alpha_chi_low", "beta_chi_low", "alpha_chi_high", "beta_chi_high")
	if err != nil {
		return err
	}
	low, err := newSpinBeta(v[0], v[1])
	if err != nil {
		return errors.Wrapf(err, "Low mass spins")
	}
	high, err := newSpinBeta(v[2], v[3])
	if err != nil {
		return errors.Wrapf(err, "High mass spins")
	}
	s.window, s.low, s.high, s.tilts = w, low, high, t
	return nil
}

func (s *SpinBetaWindowBeta) LogPDF(cols catalog.Columns) ([]float64, error) {
	if s.low == nil {
		return nil, errors.Errorf("Spin model used before Update")
	}
	return logMassSpin(cols, s.tilts, func(chi, m float64) float64 {
		return s.window.mixture(s.low, s.high, chi, m)
	})
}
