package population

import (
	"math"

	"github.com/pkg/errors"

	"github.com/CraigKelly/popinfer/catalog"
)

// CBCRate is the per-sample rate of compact binary coalescences: a redshift
// evolution, a mass model and an optional spin model. Unless scale free it
// also carries the local rate R0.
//
// The log rate of a sample is
//
//	log R0 + log R(z) + log p(masses) + log p(spins) - log(1+z) + log dVc/dz
//
// where the R0 term is dropped when scale free and the comoving volume term
// is only added when the log_dvc_dz column is present.
type CBCRate struct {
	rate      RateModel
	mass      MassModel
	spin      SpinModel
	scaleFree bool
	logR0     float64
}

// NewCBCRate bundles the models. spin may be nil.
func NewCBCRate(rate RateModel, mass MassModel, spin SpinModel, scaleFree bool) (*CBCRate, error) {
	if rate == nil || mass == nil {
		return nil, errors.Errorf("CBC rate needs a rate model and a mass model")
	}
	return &CBCRate{rate: rate, mass: mass, spin: spin, scaleFree: scaleFree}, nil
}

// ScaleFree reports whether the overall rate normalisation is marginalised
// out instead of fitted
func (c *CBCRate) ScaleFree() bool { return c.scaleFree }

// RateModel is the redshift evolution member
func (c *CBCRate) RateModel() RateModel { return c.rate }

// MassModel is the mass member
func (c *CBCRate) MassModel() MassModel { return c.mass }

// SpinModel is the spin member, possibly nil
func (c *CBCRate) SpinModel() SpinModel { return c.spin }

func (c *CBCRate) members() []Model {
	ms := []Model{c.rate, c.mass}
	if c.spin != nil {
		ms = append(ms, c.spin)
	}
	return ms
}

// Parameters lists every member's parameters in order, then R0
func (c *CBCRate) Parameters() []string {
	var keys []string
	for _, m := range c.members() {
		keys = appendNew(keys, m.Parameters()...)
	}
	if !c.scaleFree {
		keys = appendNew(keys, "R0")
	}
	return keys
}

// Update pushes each member exactly its own parameters
func (c *CBCRate) Update(params map[string]float64) error {
	for _, m := range c.members() {
		sub, err := subset(params, m.Parameters())
		if err != nil {
			return err
		}
		if err := m.Update(sub); err != nil {
			return errors.Wrapf(err, "Could not update %T", m)
		}
	}

	if !c.scaleFree {
		v, err := values(params, "R0")
		if err != nil {
			return err
		}
		if !(v[0] > 0) {
			return errors.Errorf("R0 must be positive, got %v", v[0])
		}
		c.logR0 = math.Log(v[0])
	}
	return nil
}

// LogRate computes the log rate of every sample. A NaN from any member is
// reported as -Inf.
func (c *CBCRate) LogRate(cols catalog.Columns) ([]float64, error) {
	z, err := cols.Get(catalog.ColRedshift)
	if err != nil {
		return nil, err
	}
	lm, err := c.mass.LogMass(cols)
	if err != nil {
		return nil, errors.Wrapf(err, "Mass model")
	}
	var ls []float64
	if c.spin != nil {
		if ls, err = c.spin.LogPDF(cols); err != nil {
			return nil, errors.Wrapf(err, "Spin model")
		}
	}
	var dvc []float64
	if cols.Has(catalog.ColLogDVCDZ) {
		dvc = cols[catalog.ColLogDVCDZ]
	}
	if len(lm) != len(z) || (ls != nil && len(ls) != len(z)) || (dvc != nil && len(dvc) != len(z)) {
		return nil, errors.Errorf("Member models disagree on %d samples", len(z))
	}

	r := c.rate.Rate()
	out := make([]float64, len(z))
	for i := range out {
		v := r.LogEvaluate(z[i]) + lm[i] - math.Log1p(z[i])
		if ls != nil {
			v += ls[i]
		}
		if dvc != nil {
			v += dvc[i]
		}
		if !c.scaleFree {
			v += c.logR0
		}
		out[i] = nanToInf(v)
	}
	return out, nil
}
