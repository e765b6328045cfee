// Package catalog holds the two sample sets the hierarchical likelihood
// reweights: detected injections (for the selection effect) and per-event
// posterior samples. Both are re-weighted in place every time the population
// model changes.
package catalog

import (
	"math"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// Standard column names
const (
	ColMass1    = "mass_1_source"
	ColMass2    = "mass_2_source"
	ColRedshift = "z"
	ColLogDVCDZ = "log_dvc_dz"

	ColChi1   = "chi_1"
	ColChi2   = "chi_2"
	ColCosT1  = "cos_t_1"
	ColCosT2  = "cos_t_2"
	ColChiEff = "chi_eff"
	ColChiP   = "chi_p"
)

// Columns are named per-sample values. Every column has the same length.
type Columns map[string][]float64

// RateModel computes the log of the (unnormalised) population rate for every
// sample
type RateModel interface {
	LogRate(cols Columns) ([]float64, error)
}

// Len returns the common column length
func (c Columns) Len() (int, error) {
	n := -1
	for _, name := range c.Names() {
		l := len(c[name])
		if n < 0 {
			n = l
		} else if l != n {
			return 0, errors.Errorf("Column %s has %d values, expected %d", name, l, n)
		}
	}
	if n < 0 {
		return 0, nil
	}
	return n, nil
}

// Names returns the column names in sorted order
func (c Columns) Names() []string {
	names := make([]string, 0, len(c))
	for k := range c {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Has reports whether the column exists
func (c Columns) Has(name string) bool {
	_, ok := c[name]
	return ok
}

// Get returns the named column or an error naming the missing column
func (c Columns) Get(name string) ([]float64, error) {
	v, ok := c[name]
	if !ok {
		return nil, errors.Errorf("Missing column %s", name)
	}
	return v, nil
}

// Subset returns new columns holding only the given rows
func (c Columns) Subset(idx []int) Columns {
	out := make(Columns, len(c))
	for name, vals := range c {
		sub := make([]float64, len(idx))
		for i, k := range idx {
			sub[i] = vals[k]
		}
		out[name] = sub
	}
	return out
}

// Kish returns the effective sample size (sum w)^2 / sum w^2, or 0 when all
// weights are zero
func Kish(weights []float64) float64 {
	sq := floats.Dot(weights, weights)
	if sq == 0 {
		return 0
	}
	s := floats.Sum(weights)
	return s * s / sq
}

// logWeights computes log rate - log prior into fresh slices. The linear
// weights come back divided by exp(scale), scale being the largest log
// weight, so they can neither overflow nor all underflow. Kish is unchanged
// by the scale; sums get it back through logSum.
func logWeights(m RateModel, cols Columns, prior []float64) ([]float64, []float64, float64, error) {
	lr, err := m.LogRate(cols)
	if err != nil {
		return nil, nil, 0, err
	}
	if len(lr) != len(prior) {
		return nil, nil, 0, errors.Errorf("Rate model returned %d values for %d samples", len(lr), len(prior))
	}

	lw := make([]float64, len(lr))
	w := make([]float64, len(lr))
	if len(lr) == 0 {
		return lw, w, math.Inf(-1), nil
	}
	for i := range lr {
		lw[i] = lr[i] - math.Log(prior[i])
	}

	scale := floats.Max(lw)
	switch {
	case math.IsInf(scale, -1):
		// every weight is zero
	case math.IsInf(scale, 1):
		for i, v := range lw {
			if math.IsInf(v, 1) {
				w[i] = 1
			}
		}
	default:
		for i, v := range lw {
			w[i] = math.Exp(v - scale)
		}
	}
	return lw, w, scale, nil
}

// logSum is the log of the unscaled sum of weights returned by logWeights
func logSum(w []float64, scale float64) float64 {
	return scale + math.Log(floats.Sum(w))
}

func checkPrior(prior []float64, n int) error {
	if len(prior) != n {
		return errors.Errorf("Prior has %d values for %d samples", len(prior), n)
	}
	for i, p := range prior {
		if !(p > 0) || math.IsInf(p, 0) {
			return errors.Errorf("Prior value %d must be positive and finite, got %v", i, p)
		}
	}
	return nil
}
