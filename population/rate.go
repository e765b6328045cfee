package population

import (
	"github.com/pkg/errors"

	"github.com/CraigKelly/popinfer/rate"
)

// RateModel is a redshift evolution wrapper
type RateModel interface {
	Model
	Rate() rate.Rate
}

// RatePowerLaw evolves as (1+z)^gamma
type RatePowerLaw struct {
	rate rate.PowerLaw
}

func (r *RatePowerLaw) Parameters() []string { return []string{"gamma"} }

func (r *RatePowerLaw) Update(params map[string]float64) error {
	v, err := values(params, "gamma")
	if err != nil {
		return err
	}
	r.rate = rate.PowerLaw{Gamma: v[0]}
	return nil
}

func (r *RatePowerLaw) Rate() rate.Rate { return r.rate }

// RateMadau follows the Madau-Dickinson star formation shape
type RateMadau struct {
	rate rate.MadauDickinson
}

func (r *RateMadau) Parameters() []string { return []string{"gamma", "kappa", "zp"} }

func (r *RateMadau) Update(params map[string]float64) error {
	v, err := values(params, r.Parameters()...)
	if err != nil {
		return err
	}
	r.rate = rate.MadauDickinson{Gamma: v[0], Kappa: v[1], Zp: v[2]}
	return nil
}

func (r *RateMadau) Rate() rate.Rate { return r.rate }

// RateMadauGamma is RateMadau plus a Gamma shaped delayed component of
// weight c, shape a and rate b
type RateMadauGamma struct {
	rate rate.MadauGamma
}

func (r *RateMadauGamma) Parameters() []string {
	return []string{"gamma", "kappa", "zp", "a", "b", "c"}
}

func (r *RateMadauGamma) Update(params map[string]float64) error {
	v, err := values(params, r.Parameters()...)
	if err != nil {
		return err
	}
	a, b, c := v[3], v[4], v[5]
	if !(a > 1) || !(b > 0) || !(c >= 0) {
		return errors.Errorf("Delayed component needs a > 1, b > 0 and c >= 0, got (%v, %v, %v)", a, b, c)
	}
	r.rate = rate.MadauGamma{Gamma: v[0], Kappa: v[1], Zp: v[2], A: a, B: b, C: c}
	return nil
}

func (r *RateMadauGamma) Rate() rate.Rate { return r.rate }
