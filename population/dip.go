package population

import (
	"github.com/pkg/errors"

	"github.com/CraigKelly/popinfer/catalog"
	"github.com/CraigKelly/popinfer/dist"
	"github.com/CraigKelly/popinfer/joint"
)

// FarahSplitMass is the secondary mass where the Farah et al. (2022) pairing
// switches from beta_bottom to beta_top
const FarahSplitMass = 5.0

// withoutKey returns a copy of keys minus drop
func withoutKey(keys []string, drop string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != drop {
			out = append(out, k)
		}
	}
	return out
}

// updateWithBreak updates a broken power law model with its break fraction b
// placed at mass mbreak, and returns b
func updateWithBreak(inner PrimaryModel, params map[string]float64, mbreak float64) (float64, error) {
	v, err := values(params, "mmin", "mmax")
	if err != nil {
		return 0, err
	}
	b := (mbreak - v[0]) / (v[1] - v[0])

	withB := make(map[string]float64, len(params)+1)
	for k, x := range params {
		withB[k] = x
	}
	withB["b"] = b
	if err := inner.Update(withB); err != nil {
		return 0, errors.Wrapf(err, "Break at %v", mbreak)
	}
	return b, nil
}

// multiDipBreak is halfway between the top of the left dip edge and the
// bottom of the right one
func multiDipBreak(dip dist.DipParams) float64 {
	return 0.5 * ((dip.LeftDip + dip.LeftDipSmooth) + (dip.RightDip - dip.RightDipSmooth))
}

// PairedMassRatioDipFarah is the Farah et al. (2022) model: a broken power
// law breaking at leftdip, smoothed and dipped like PairedMassRatioDip, and
// paired with q^beta_bottom for m2 <= FarahSplitMass and q^beta_top above.
type PairedMassRatioDipFarah struct {
	inner *MassBrokenPowerLaw
	src   dist.Source
	prior joint.Sampler
}

// NewPairedMassRatioDipFarah uses src for the pairing norm
func NewPairedMassRatioDipFarah(src dist.Source) *PairedMassRatioDipFarah {
	return &PairedMassRatioDipFarah{inner: &MassBrokenPowerLaw{}, src: src}
}

func (m *PairedMassRatioDipFarah) Parameters() []string {
	return appendNew(withoutKey(m.inner.Parameters(), "b"), dipParameters...)
}

func (m *PairedMassRatioDipFarah) Update(params map[string]float64) error {
	bottom, top, dip, err := readDip(params)
	if err != nil {
		return err
	}
	if _, err := updateWithBreak(m.inner, params, dip.LeftDip); err != nil {
		return err
	}
	base, err := dist.NewSmoothedDip(m.inner.Prior(), dip)
	if err != nil {
		return errors.Wrapf(err, "Could not build dip")
	}
	p, err := joint.NewPaired(base, joint.SplitMassRatioPower(bottom, top, FarahSplitMass), m.src)
	if err != nil {
		return err
	}
	m.prior = p
	return nil
}

func (m *PairedMassRatioDipFarah) Prior() joint.Sampler { return m.prior }

func (m *PairedMassRatioDipFarah) LogMass(cols catalog.Columns) ([]float64, error) {
	return logPairs(m.prior, cols)
}

// PairedMassRatioMultiDip is a broken power law with two peaks, breaking
// halfway across the dip, smoothed and dipped, and paired with
// q^beta_bottom for m2 at or below the break and q^beta_top above it.
type PairedMassRatioMultiDip struct {
	inner *MassBrokenPowerLawMultiPeak
	src   dist.Source
	prior joint.Sampler
}

// NewPairedMassRatioMultiDip uses src for the pairing norm
func NewPairedMassRatioMultiDip(src dist.Source) *PairedMassRatioMultiDip {
	return &PairedMassRatioMultiDip{inner: &MassBrokenPowerLawMultiPeak{}, src: src}
}

func (m *PairedMassRatioMultiDip) Parameters() []string {
	return appendNew(withoutKey(m.inner.Parameters(), "b"), dipParameters...)
}

func (m *PairedMassRatioMultiDip) Update(params map[string]float64) error {
	bottom, top, dip, err := readDip(params)
	if err != nil {
		return err
	}
	mbreak := multiDipBreak(dip)
	if _, err := updateWithBreak(m.inner, params, mbreak); err != nil {
		return err
	}
	base, err := dist.NewSmoothedDip(m.inner.Prior(), dip)
	if err != nil {
		return errors.Wrapf(err, "Could not build dip")
	}
	p, err := joint.NewPaired(base, joint.SplitMassRatioPower(bottom, top, mbreak), m.src)
	if err != nil {
		return err
	}
	m.prior = p
	return nil
}

func (m *PairedMassRatioMultiDip) Prior() joint.Sampler { return m.prior }

func (m *PairedMassRatioMultiDip) LogMass(cols catalog.Columns) ([]float64, error) {
	return logPairs(m.prior, cols)
}

// ConditionedMassRatioMultiDip draws m1 like PairedMassRatioMultiDip and m2
// from a broken power law with slopes beta_bottom and beta_top, sharing the
// break and turned on over bottomsmooth, truncated at m1.
type ConditionedMassRatioMultiDip struct {
	inner *MassBrokenPowerLawMultiPeak
	prior joint.Sampler
}

// NewConditionedMassRatioMultiDip needs no random source
func NewConditionedMassRatioMultiDip() *ConditionedMassRatioMultiDip {
	return &ConditionedMassRatioMultiDip{inner: &MassBrokenPowerLawMultiPeak{}}
}

func (m *ConditionedMassRatioMultiDip) Parameters() []string {
	return appendNew(withoutKey(m.inner.Parameters(), "b"), dipParameters...)
}

func (m *ConditionedMassRatioMultiDip) Update(params map[string]float64) error {
	bottom, top, dip, err := readDip(params)
	if err != nil {
		return err
	}
	b, err := updateWithBreak(m.inner, params, multiDipBreak(dip))
	if err != nil {
		return err
	}
	p1, err := dist.NewSmoothedDip(m.inner.Prior(), dip)
	if err != nil {
		return errors.Wrapf(err, "Could not build dip")
	}

	v, err := values(params, "mmin", "mmax")
	if err != nil {
		return err
	}
	bpl, err := dist.NewBrokenPowerLaw(v[0], v[1], bottom, top, b)
	if err != nil {
		return errors.Wrapf(err, "Secondary mass")
	}
	p2, err := dist.NewLowpassSmoothed(bpl, dip.BottomSmooth)
	if err != nil {
		return errors.Wrapf(err, "Secondary mass")
	}
	m.prior = joint.NewConditional(p1, p2)
	return nil
}

func (m *ConditionedMassRatioMultiDip) Prior() joint.Sampler { return m.prior }

func (m *ConditionedMassRatioMultiDip) LogMass(cols catalog.Columns) ([]float64, error) {
	return logPairs(m.prior, cols)
}
