package catalog

import (
	"math"

	"github.com/pkg/errors"
)

// Injections are the detected subset of a simulated population, drawn with a
// known prior density. NTotal counts every injection simulated, detected or
// not, over an observing time Tobs.
type Injections struct {
	cols   Columns
	prior  []float64
	ntotal float64
	tobs   float64

	logWeights    []float64
	weights       []float64 // scaled, see logWeights
	logSumWeights float64
}

// NewInjections validates the sample set
func NewInjections(cols Columns, prior []float64, ntotal int, tobs float64) (*Injections, error) {
	n, err := cols.Len()
	if err != nil {
		return nil, errors.Wrapf(err, "Bad injection columns")
	}
	if err := checkPrior(prior, n); err != nil {
		return nil, errors.Wrapf(err, "Bad injection prior")
	}
	if ntotal < n || ntotal < 1 {
		return nil, errors.Errorf("Total injections %d less than %d detected", ntotal, n)
	}
	if !(tobs > 0) {
		return nil, errors.Errorf("Observing time must be positive, got %v", tobs)
	}

	return &Injections{
		cols:   cols,
		prior:  append([]float64(nil), prior...),
		ntotal: float64(ntotal),
		tobs:   tobs,
	}, nil
}

// UpdateWeights recomputes log(rate/prior) for every detected injection
func (inj *Injections) UpdateWeights(m RateModel) error {
	lw, w, scale, err := logWeights(m, inj.cols, inj.prior)
	if err != nil {
		return errors.Wrapf(err, "Could not weight injections")
	}
	inj.logWeights = lw
	inj.weights = w
	inj.logSumWeights = logSum(w, scale)
	return nil
}

// EffectiveInjectionsNumber is the Kish effective sample size of the weights
func (inj *Injections) EffectiveInjectionsNumber() float64 {
	return Kish(inj.weights)
}

// PseudoRate is the mean weight over all simulated injections
func (inj *Injections) PseudoRate() float64 {
	return math.Exp(inj.LogPseudoRate())
}

// LogPseudoRate is the log of PseudoRate, computed without leaving log space
func (inj *Injections) LogPseudoRate() float64 {
	return inj.logSumWeights - math.Log(inj.ntotal)
}

// ExpectedNumberDetections is Tobs times the pseudo rate
func (inj *Injections) ExpectedNumberDetections() float64 {
	return inj.tobs * inj.PseudoRate()
}

// LogWeights returns a copy of the current log weights
func (inj *Injections) LogWeights() []float64 {
	return append([]float64(nil), inj.logWeights...)
}

// Len is the number of detected injections
func (inj *Injections) Len() int { return len(inj.prior) }

// NTotal is the number of simulated injections
func (inj *Injections) NTotal() float64 { return inj.ntotal }

// Tobs is the observing time
func (inj *Injections) Tobs() float64 { return inj.tobs }

// Columns exposes the sample columns
func (inj *Injections) Columns() Columns { return inj.cols }
