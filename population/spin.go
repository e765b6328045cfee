package population

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/CraigKelly/popinfer/catalog"
	"github.com/CraigKelly/popinfer/dist"
	"github.com/CraigKelly/popinfer/joint"
)

// columns fetches every named column
func columns(cols catalog.Columns, names []string) ([][]float64, error) {
	out := make([][]float64, len(names))
	for i, name := range names {
		v, err := cols.Get(name)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	if _, err := cols.Len(); err != nil {
		return nil, err
	}
	return out, nil
}

func nanToInf(v float64) float64 {
	if math.IsNaN(v) {
		return math.Inf(-1)
	}
	return v
}

// tilts mixes an isotropic population with one aligned around cos t = 1,
// csi_spin being the aligned fraction
type tilts struct {
	aligned *dist.TruncatedGaussian
	csi     float64
}

func newTilts(sigmaT, csi float64) (tilts, error) {
	aligned, err := dist.NewTruncatedGaussian(1, sigmaT, -1, 1)
	if err != nil {
		return tilts{}, errors.Wrapf(err, "Aligned tilt")
	}
	return tilts{aligned: aligned, csi: csi}, nil
}

// logPDF of both tilt cosines
func (t tilts) logPDF(cos1, cos2 float64) float64 {
	return floats.LogSumExp([]float64{
		math.Log1p(-t.csi) + math.Log(0.25),
		math.Log(t.csi) + t.aligned.LogPDF(cos1) + t.aligned.LogPDF(cos2),
	})
}

// SpinDefault has Beta distributed spin magnitudes and tilts drawn from a
// mixture of an isotropic and an aligned population, with csi_spin the
// aligned fraction.
type SpinDefault struct {
	magnitude *dist.Beta
	tilts     tilts
}

func (s *SpinDefault) Parameters() []string {
	return []string{"alpha_chi", "beta_chi", "sigma_t", "csi_spin"}
}

func (s *SpinDefault) EventParameters() []string {
	return []string{catalog.ColChi1, catalog.ColChi2, catalog.ColCosT1, catalog.ColCosT2}
}

func (s *SpinDefault) Update(params map[string]float64) error {
	v, err := values(params, s.Parameters()...)
	if err != nil {
		return err
	}
	alpha, beta, sigmaT, csi := v[0], v[1], v[2], v[3]
	if !(alpha > 1) || !(beta > 1) {
		return errors.Errorf("Spin alpha_chi and beta_chi must be > 1, got (%v, %v)", alpha, beta)
	}

	mag, err := dist.NewBeta(alpha, beta)
	if err != nil {
		return err
	}
	t, err := newTilts(sigmaT, csi)
	if err != nil {
		return err
	}
	s.magnitude, s.tilts = mag, t
	return nil
}

func (s *SpinDefault) LogPDF(cols catalog.Columns) ([]float64, error) {
	if s.magnitude == nil {
		return nil, errors.Errorf("Spin model used before Update")
	}
	c, err := columns(cols, s.EventParameters())
	if err != nil {
		return nil, err
	}

	out := make([]float64, len(c[0]))
	for i := range out {
		out[i] = nanToInf(s.magnitude.LogPDF(c[0][i]) + s.magnitude.LogPDF(c[1][i]) + s.tilts.logPDF(c[2][i], c[3][i]))
	}
	return out, nil
}

// SpinGaussian is a correlated Gaussian in (chi_eff, chi_p) on
// [-1, 1] x [0, 1]
type SpinGaussian struct {
	prior *joint.BivariateGaussian
}

func (s *SpinGaussian) Parameters() []string {
	return []string{"mu_chi_eff", "sigma_chi_eff", "mu_chi_p", "sigma_chi_p", "rho"}
}

func (s *SpinGaussian) EventParameters() []string {
	return []string{catalog.ColChiEff, catalog.ColChiP}
}

func (s *SpinGaussian) Update(params map[string]float64) error {
	v, err := values(params, s.Parameters()...)
	if err != nil {
		return err
	}
	muEff, sigmaEff, muP, sigmaP, rho := v[0], v[1], v[2], v[3], v[4]
	p, err := joint.NewBivariateGaussian(
		-1, 1, muEff,
		0, 1, muP,
		sigmaEff*sigmaEff, rho*sigmaEff*sigmaP, sigmaP*sigmaP,
	)
	if err != nil {
		return err
	}
	s.prior = p
	return nil
}

func (s *SpinGaussian) LogPDF(cols catalog.Columns) ([]float64, error) {
	if s.prior == nil {
		return nil, errors.Errorf("Spin model used before Update")
	}
	c, err := columns(cols, s.EventParameters())
	if err != nil {
		return nil, err
	}
	return joint.LogPDFEach(s.prior, c[0], c[1])
}

// SpinECO models a fraction f_eco of exotic compact objects whose spins are
// limited by an ergoregion instability above a critical spin set by the
// reflectivity parameter eps. The remaining objects follow the plain Beta.
type SpinECO struct {
	Q float64 // 1 for the polar mode, 2 for the axial mode

	magnitude *dist.Beta
	truncated *dist.TruncatedBeta
	pileup    *dist.TruncatedGaussian
	lambda    float64
	fECO      float64
}

// NewSpinECO uses the polar mode
func NewSpinECO() *SpinECO {
	return &SpinECO{Q: 1}
}

// CriticalSpin is pi (1+q) / (2 |log eps|)
func (s *SpinECO) CriticalSpin(eps float64) float64 {
	return math.Pi * (1 + s.Q) / (2 * math.Abs(math.Log(eps)))
}

func (s *SpinECO) Parameters() []string {
	return []string{"alpha_chi", "beta_chi", "eps", "f_eco", "sigma_chi_ECO"}
}

func (s *SpinECO) EventParameters() []string {
	return []string{catalog.ColChi1, catalog.ColChi2}
}

func (s *SpinECO) Update(params map[string]float64) error {
	v, err := values(params, s.Parameters()...)
	if err != nil {
		return err
	}
	alpha, beta, eps, fECO, sigma := v[0], v[1], v[2], v[3], v[4]
	if !(alpha > 1) || !(beta > 1) {
		return errors.Errorf("Spin alpha_chi and beta_chi must be > 1, got (%v, %v)", alpha, beta)
	}

	crit := s.CriticalSpin(eps)
	mag, err := dist.NewBeta(alpha, beta)
	if err != nil {
		return err
	}
	trunc, err := dist.NewTruncatedBeta(alpha, beta, crit)
	if err != nil {
		return errors.Wrapf(err, "Critical spin %v", crit)
	}
	pileup, err := dist.NewTruncatedGaussian(crit, sigma, 0, crit)
	if err != nil {
		return errors.Wrapf(err, "Critical spin %v", crit)
	}

	s.magnitude, s.truncated, s.pileup = mag, trunc, pileup
	s.lambda = 1 - dist.CDF(mag, crit)
	s.fECO = fECO
	return nil
}

func (s *SpinECO) density(chi float64) float64 {
	eco := (1-s.lambda)*dist.PDF(s.truncated, chi) + s.lambda*dist.PDF(s.pileup, chi)
	return s.fECO*eco + (1-s.fECO)*dist.PDF(s.magnitude, chi)
}

func (s *SpinECO) LogPDF(cols catalog.Columns) ([]float64, error) {
	if s.magnitude == nil {
		return nil, errors.Errorf("Spin model used before Update")
	}
	c, err := columns(cols, s.EventParameters())
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(c[0]))
	for i := range out {
		out[i] = nanToInf(math.Log(s.density(c[0][i]) * s.density(c[1][i])))
	}
	return out, nil
}
