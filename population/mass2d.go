package population

import (
	"github.com/pkg/errors"

	"github.com/CraigKelly/popinfer/catalog"
	"github.com/CraigKelly/popinfer/dist"
	"github.com/CraigKelly/popinfer/joint"
)

// PairModel is a 2-D mass wrapper over (mass_1_source, mass_2_source)
type PairModel interface {
	MassModel
	Prior() joint.Sampler
}

func logPairs(j joint.Joint, cols catalog.Columns) ([]float64, error) {
	if j == nil {
		return nil, errors.Errorf("Mass model used before Update")
	}
	m1, err := cols.Get(catalog.ColMass1)
	if err != nil {
		return nil, err
	}
	m2, err := cols.Get(catalog.ColMass2)
	if err != nil {
		return nil, err
	}
	return joint.LogPDFEach(j, m1, m2)
}

// Conditioned draws m1 from the inner model and m2 from a power law of slope
// beta on [mmin, mmax] truncated at m1
type Conditioned struct {
	inner PrimaryModel
	prior joint.Sampler
}

// NewConditioned wraps inner, which usually supplies mmin and mmax
func NewConditioned(inner PrimaryModel) *Conditioned {
	return &Conditioned{inner: inner}
}

func (m *Conditioned) Parameters() []string {
	return appendNew(m.inner.Parameters(), "mmin", "mmax", "beta")
}

func (m *Conditioned) Update(params map[string]float64) error {
	v, err := values(params, "mmin", "mmax", "beta")
	if err != nil {
		return err
	}
	if err := m.inner.Update(params); err != nil {
		return err
	}
	p2, err := dist.NewPowerLaw(v[0], v[1], v[2])
	if err != nil {
		return errors.Wrapf(err, "Secondary mass")
	}
	m.prior = joint.NewConditional(m.inner.Prior(), p2)
	return nil
}

func (m *Conditioned) Prior() joint.Sampler { return m.prior }

func (m *Conditioned) LogMass(cols catalog.Columns) ([]float64, error) {
	return logPairs(m.prior, cols)
}

// ConditionedLowpass is Conditioned with both masses turned on over delta_m
type ConditionedLowpass struct {
	inner PrimaryModel
	prior joint.Sampler
}

// NewConditionedLowpass wraps inner
func NewConditionedLowpass(inner PrimaryModel) *ConditionedLowpass {
	return &ConditionedLowpass{inner: inner}
}

func (m *ConditionedLowpass) Parameters() []string {
	return appendNew(m.inner.Parameters(), "mmin", "mmax", "beta", "delta_m")
}

func (m *ConditionedLowpass) Update(params map[string]float64) error {
	v, err := values(params, "mmin", "mmax", "beta", "delta_m")
	if err != nil {
		return err
	}
	if err := m.inner.Update(params); err != nil {
		return err
	}
	p1, err := dist.NewLowpassSmoothed(m.inner.Prior(), v[3])
	if err != nil {
		return errors.Wrapf(err, "Primary mass")
	}
	pl, err := dist.NewPowerLaw(v[0], v[1], v[2])
	if err != nil {
		return errors.Wrapf(err, "Secondary mass")
	}
	p2, err := dist.NewLowpassSmoothed(pl, v[3])
	if err != nil {
		return errors.Wrapf(err, "Secondary mass")
	}
	m.prior = joint.NewConditional(p1, p2)
	return nil
}

func (m *ConditionedLowpass) Prior() joint.Sampler { return m.prior }

func (m *ConditionedLowpass) LogMass(cols catalog.Columns) ([]float64, error) {
	return logPairs(m.prior, cols)
}

// Paired draws both masses from the inner model and pairs them with q^beta
type Paired struct {
	inner PrimaryModel
	src   dist.Source
	prior joint.Sampler
}

// NewPaired wraps inner. src feeds the Monte-Carlo normalisation on every
// Update.
func NewPaired(inner PrimaryModel, src dist.Source) *Paired {
	return &Paired{inner: inner, src: src}
}

func (m *Paired) Parameters() []string {
	return appendNew(m.inner.Parameters(), "beta")
}

func (m *Paired) Update(params map[string]float64) error {
	v, err := values(params, "beta")
	if err != nil {
		return err
	}
	if err := m.inner.Update(params); err != nil {
		return err
	}
	p, err := joint.NewPaired(m.inner.Prior(), joint.MassRatioPower(v[0]), m.src)
	if err != nil {
		return err
	}
	m.prior = p
	return nil
}

func (m *Paired) Prior() joint.Sampler { return m.prior }

func (m *Paired) LogMass(cols catalog.Columns) ([]float64, error) {
	return logPairs(m.prior, cols)
}

var dipParameters = []string{
	"beta_bottom", "beta_top", "bottomsmooth", "topsmooth",
	"leftdip", "rightdip", "leftdipsmooth", "rightdipsmooth", "deep",
}

// readDip reads the pairing slopes and the dip shape shared by the dip models
func readDip(params map[string]float64) (float64, float64, dist.DipParams, error) {
	v, err := values(params, dipParameters...)
	if err != nil {
		return 0, 0, dist.DipParams{}, err
	}
	return v[0], v[1], dist.DipParams{
		BottomSmooth:   v[2],
		TopSmooth:      v[3],
		LeftDip:        v[4],
		RightDip:       v[5],
		LeftDipSmooth:  v[6],
		RightDipSmooth: v[7],
		Depth:          v[8],
	}, nil
}

// PairedMassRatioDip smooths the inner model at both ends, cuts a dip into
// it, and pairs with q^beta_bottom for m2 <= rightdip and q^beta_top above
type PairedMassRatioDip struct {
	inner PrimaryModel
	src   dist.Source
	prior joint.Sampler
}

// NewPairedMassRatioDip wraps inner
func NewPairedMassRatioDip(inner PrimaryModel, src dist.Source) *PairedMassRatioDip {
	return &PairedMassRatioDip{inner: inner, src: src}
}

func (m *PairedMassRatioDip) Parameters() []string {
	return appendNew(m.inner.Parameters(), dipParameters...)
}

func (m *PairedMassRatioDip) Update(params map[string]float64) error {
	bottom, top, dip, err := readDip(params)
	if err != nil {
		return err
	}
	if err := m.inner.Update(params); err != nil {
		return err
	}
	base, err := dist.NewSmoothedDip(m.inner.Prior(), dip)
	if err != nil {
		return errors.Wrapf(err, "Could not build dip")
	}
	p, err := joint.NewPaired(base, joint.SplitMassRatioPower(bottom, top, dip.RightDip), m.src)
	if err != nil {
		return err
	}
	m.prior = p
	return nil
}

func (m *PairedMassRatioDip) Prior() joint.Sampler { return m.prior }

func (m *PairedMassRatioDip) LogMass(cols catalog.Columns) ([]float64, error) {
	return logPairs(m.prior, cols)
}

// PrimaryRatio draws m1 from the primary model and q = m2/m1 from the ratio
// model
type PrimaryRatio struct {
	primary PrimaryModel
	ratio   PrimaryModel
	prior   joint.Sampler
}

// NewPrimaryRatio pairs a mass wrapper with a mass ratio wrapper
func NewPrimaryRatio(primary, ratio PrimaryModel) *PrimaryRatio {
	return &PrimaryRatio{primary: primary, ratio: ratio}
}

func (m *PrimaryRatio) Parameters() []string {
	return appendNew(m.primary.Parameters(), m.ratio.Parameters()...)
}

func (m *PrimaryRatio) Update(params map[string]float64) error {
	if err := m.primary.Update(params); err != nil {
		return err
	}
	if err := m.ratio.Update(params); err != nil {
		return err
	}
	p, err := joint.NewMassRatio(m.primary.Prior(), m.ratio.Prior())
	if err != nil {
		return err
	}
	m.prior = p
	return nil
}

func (m *PrimaryRatio) Prior() joint.Sampler { return m.prior }

func (m *PrimaryRatio) LogMass(cols catalog.Columns) ([]float64, error) {
	return logPairs(m.prior, cols)
}

// BinModel2D is a piecewise constant density on the triangle m2 <= m1 over
// [mmin, mmax] with n bins per side
type BinModel2D struct {
	bins  []string
	prior joint.Sampler
}

// NewBinModel2D names the n(n+1)/2 bin weights bin_0, bin_1, ...
func NewBinModel2D(n int) (*BinModel2D, error) {
	if n < 1 {
		return nil, errors.Errorf("Bin model needs at least one bin per side, got %d", n)
	}
	return &BinModel2D{bins: numbered("bin_", joint.TriangleBins(n))}, nil
}

func (m *BinModel2D) Parameters() []string {
	return append([]string{"mmin", "mmax"}, m.bins...)
}

func (m *BinModel2D) Update(params map[string]float64) error {
	v, err := values(params, m.Parameters()...)
	if err != nil {
		return err
	}
	p, err := joint.NewBinnedTriangle(v[0], v[1], v[2:])
	if err != nil {
		return err
	}
	m.prior = p
	return nil
}

func (m *BinModel2D) Prior() joint.Sampler { return m.prior }

func (m *BinModel2D) LogMass(cols catalog.Columns) ([]float64, error) {
	return logPairs(m.prior, cols)
}
