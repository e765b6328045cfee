package catalog

import (
	"math"

	"github.com/pkg/errors"
)

// Event is one detection: posterior samples and the prior density each
// sample was drawn under
type Event struct {
	Name    string
	Samples Columns
	Prior   []float64
}

// Permuter returns a random permutation of [0, n). rand.Generator
// satisfies it.
type Permuter interface {
	Perm(n int) []int
}

// Posteriors are the posterior sample sets for every event in a catalog
type Posteriors struct {
	events   []Event
	parallel []Event

	logWeights    [][]float64
	logSumWeights []float64
	neff          []float64
}

// NewPosteriors validates every event. At least one event is required.
func NewPosteriors(events []Event) (*Posteriors, error) {
	if len(events) < 1 {
		return nil, errors.Errorf("Posterior set needs at least one event")
	}

	for i, ev := range events {
		n, err := ev.Samples.Len()
		if err != nil {
			return nil, errors.Wrapf(err, "Event %d (%s)", i, ev.Name)
		}
		if n < 1 {
			return nil, errors.Errorf("Event %d (%s) has no samples", i, ev.Name)
		}
		if err := checkPrior(ev.Prior, n); err != nil {
			return nil, errors.Wrapf(err, "Event %d (%s)", i, ev.Name)
		}
	}

	evs := append([]Event(nil), events...)
	return &Posteriors{events: evs, parallel: evs}, nil
}

// BuildParallelPosterior subsamples every event to at most n samples, drawn
// without replacement. n <= 0 means the largest count every event can supply.
func (p *Posteriors) BuildParallelPosterior(n int, perm Permuter) error {
	if n <= 0 {
		n = -1
		for _, ev := range p.events {
			if c := len(ev.Prior); n < 0 || c < n {
				n = c
			}
		}
	}
	if n < 1 {
		return errors.Errorf("Can not build parallel posterior with %d samples", n)
	}

	par := make([]Event, len(p.events))
	for i, ev := range p.events {
		ns := len(ev.Prior)
		if ns <= n {
			par[i] = ev
			continue
		}
		idx := perm.Perm(ns)[:n]
		prior := make([]float64, n)
		for k, j := range idx {
			prior[k] = ev.Prior[j]
		}
		par[i] = Event{Name: ev.Name, Samples: ev.Samples.Subset(idx), Prior: prior}
	}

	p.parallel = par
	p.logWeights, p.logSumWeights, p.neff = nil, nil, nil
	return nil
}

// UpdateWeights recomputes log(rate/prior) for every sample of every event
func (p *Posteriors) UpdateWeights(m RateModel) error {
	lws := make([][]float64, len(p.parallel))
	sums := make([]float64, len(p.parallel))
	neff := make([]float64, len(p.parallel))

	for i, ev := range p.parallel {
		lw, w, scale, err := logWeights(m, ev.Samples, ev.Prior)
		if err != nil {
			return errors.Wrapf(err, "Could not weight event %s", ev.Name)
		}
		lws[i] = lw
		sums[i] = logSum(w, scale) - math.Log(float64(len(w)))
		neff[i] = Kish(w)
	}

	p.logWeights, p.logSumWeights, p.neff = lws, sums, neff
	return nil
}

// EffectiveNumberOfPE is the Kish effective sample size for each event
func (p *Posteriors) EffectiveNumberOfPE() []float64 {
	return append([]float64(nil), p.neff...)
}

// SumWeights is the mean weight for each event, the Monte-Carlo estimate of
// the per-event evidence up to a constant
func (p *Posteriors) SumWeights() []float64 {
	out := make([]float64, len(p.logSumWeights))
	for i, v := range p.logSumWeights {
		out[i] = math.Exp(v)
	}
	return out
}

// LogSumWeights is the log of SumWeights, computed without leaving log space
func (p *Posteriors) LogSumWeights() []float64 {
	return append([]float64(nil), p.logSumWeights...)
}

// LogWeights returns a copy of the log weights of event i
func (p *Posteriors) LogWeights(i int) []float64 {
	return append([]float64(nil), p.logWeights[i]...)
}

// NumEvents is the number of events in the catalog
func (p *Posteriors) NumEvents() int { return len(p.events) }

// NumSamples is the number of samples in use for each event
func (p *Posteriors) NumSamples() []float64 {
	ns := make([]float64, len(p.parallel))
	for i, ev := range p.parallel {
		ns[i] = float64(len(ev.Prior))
	}
	return ns
}

// Event returns event i as currently in use
func (p *Posteriors) Event(i int) Event { return p.parallel[i] }
