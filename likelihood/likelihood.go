// Package likelihood evaluates the hierarchical marginal likelihood of a
// population model given a catalog of detections. Each evaluation reweights
// the injections (selection effect) and the per-event posterior samples, and
// rejects parameter points where the Monte-Carlo estimates are not trusted.
package likelihood

import (
	"io"
	"log"
	"math"

	"github.com/pkg/errors"

	"github.com/CraigKelly/popinfer/catalog"
	"github.com/CraigKelly/popinfer/population"
)

// ErrInfiniteLikelihood is returned when the combined log likelihood is +Inf
var ErrInfiniteLikelihood = errors.New("Log likelihood must be smaller than infinite")

// DefaultNeffPE is the number of effective samples each event must keep
const DefaultNeffPE = 20.0

// DefaultStatsWindow is the number of recent evaluations in the rolling
// acceptance rate
const DefaultStatsWindow = 100

// RateModel is the population model the evaluator drives: named parameters,
// a per-sample log rate and the scale free switch. population.CBCRate
// satisfies it.
type RateModel interface {
	population.Model
	catalog.RateModel
	ScaleFree() bool
}

// Config is fixed at construction. Zero values pick the defaults.
type Config struct {
	NeffPE            float64     // effective PE samples per event (default 20)
	NeffINJ           float64     // effective injections (default 4 x events)
	VarianceThreshold float64     // > 0 replaces the neff gates with a variance cut
	NParallel         int         // samples per event, <= 0 for the common maximum
	StatsWindow       int         // evaluations in the rolling acceptance (default 100)
	Logger            *log.Logger // nil discards
}

// Evaluator computes the log likelihood for one catalog. It mutates the
// catalog weights on every call and must not be shared between goroutines.
type Evaluator struct {
	post  *catalog.Posteriors
	inj   *catalog.Injections
	model RateModel
	out   *log.Logger

	neffPE  float64
	neffINJ float64
	varThr  float64 // 0 means no variance cut

	lastStage    Stage
	lastOutcome  Outcome
	lastVariance float64
	stats        *Stats
}

// NewEvaluator validates the configuration and builds the parallel posterior
// with perm. Setting VarianceThreshold together with NeffPE or NeffINJ is an
// error.
func NewEvaluator(post *catalog.Posteriors, inj *catalog.Injections, model RateModel, cfg Config, perm catalog.Permuter) (*Evaluator, error) {
	if post == nil || inj == nil || model == nil {
		return nil, errors.Errorf("Evaluator needs posteriors, injections and a rate model")
	}
	if perm == nil {
		return nil, errors.Errorf("Evaluator needs a permuter for the parallel posterior")
	}
	if cfg.NeffPE < 0 || cfg.NeffINJ < 0 || cfg.VarianceThreshold < 0 {
		return nil, errors.Errorf("Stability thresholds must not be negative (NeffPE=%v NeffINJ=%v Variance=%v)",
			cfg.NeffPE, cfg.NeffINJ, cfg.VarianceThreshold)
	}
	if cfg.VarianceThreshold > 0 && (cfg.NeffPE > 0 || cfg.NeffINJ > 0) {
		return nil, errors.Errorf("Variance threshold can not be combined with NeffPE or NeffINJ")
	}

	out := cfg.Logger
	if out == nil {
		out = log.New(io.Discard, "", 0)
	}

	if err := post.BuildParallelPosterior(cfg.NParallel, perm); err != nil {
		return nil, errors.Wrapf(err, "Could not build parallel posterior")
	}

	ev := &Evaluator{
		post:  post,
		inj:   inj,
		model: model,
		out:   out,
	}

	if cfg.VarianceThreshold > 0 {
		out.Printf("Using likelihood variance (threshold %v) as numerical stability estimator; ignoring NeffPE and NeffINJ\n", cfg.VarianceThreshold)
		ev.varThr = cfg.VarianceThreshold
		ev.neffPE, ev.neffINJ = -1, -1
	} else {
		ev.neffPE, ev.neffINJ = cfg.NeffPE, cfg.NeffINJ
		if ev.neffPE == 0 {
			ev.neffPE = DefaultNeffPE
		}
		if ev.neffINJ == 0 {
			ev.neffINJ = 4 * float64(post.NumEvents())
			out.Printf("Setting NeffINJ to 4 times observed signals (%v)\n", ev.neffINJ)
		}
		out.Printf("Using NeffPE=%v and NeffINJ=%v as numerical stability estimators\n", ev.neffPE, ev.neffINJ)
	}

	window := cfg.StatsWindow
	if window == 0 {
		window = DefaultStatsWindow
	}
	stats, err := newStats(window)
	if err != nil {
		return nil, err
	}
	ev.stats = stats

	return ev, nil
}

// Parameters are the population parameters LogLikelihood expects
func (ev *Evaluator) Parameters() []string { return ev.model.Parameters() }

// NeffPE is the per-event gate in use, -1 when disabled
func (ev *Evaluator) NeffPE() float64 { return ev.neffPE }

// NeffINJ is the injection gate in use, -1 when disabled
func (ev *Evaluator) NeffINJ() float64 { return ev.neffINJ }

// LastStage is the furthest stage the last call reached
func (ev *Evaluator) LastStage() Stage { return ev.lastStage }

// LastOutcome is how the last call ended
func (ev *Evaluator) LastOutcome() Outcome { return ev.lastOutcome }

// LastVariance is the likelihood variance of the last call that got that far
func (ev *Evaluator) LastVariance() float64 { return ev.lastVariance }

// Stats are the running counters
func (ev *Evaluator) Stats() *Stats { return ev.stats }

func (ev *Evaluator) finish(o Outcome, v float64, err error) (float64, error) {
	ev.lastOutcome = o
	ev.stats.record(o)
	return v, err
}

// LogLikelihood pushes params into the model and returns the log likelihood.
// Points where the Monte-Carlo estimates can not be trusted return -Inf with
// a nil error. Errors are reserved for bad parameters, broken collaborators
// and ErrInfiniteLikelihood.
func (ev *Evaluator) LogLikelihood(params map[string]float64) (float64, error) {
	negInf := math.Inf(-1)
	ev.lastStage = StageInit

	if err := ev.model.Update(params); err != nil {
		return ev.finish(OutcomeError, negInf, errors.Wrapf(err, "Could not update population model"))
	}
	ev.lastStage = StageRateUpdated

	if err := ev.inj.UpdateWeights(ev.model); err != nil {
		return ev.finish(OutcomeError, negInf, err)
	}
	neff := ev.inj.EffectiveInjectionsNumber()
	ev.lastStage = StageInjectionWeighted
	if neff < ev.neffINJ || neff == 0 {
		return ev.finish(OutcomeRejectedInjections, negInf, nil)
	}

	if err := ev.post.UpdateWeights(ev.model); err != nil {
		return ev.finish(OutcomeError, negInf, err)
	}
	neffPE := ev.post.EffectiveNumberOfPE()
	ev.lastStage = StagePosteriorWeighted
	for _, n := range neffPE {
		if n < ev.neffPE {
			return ev.finish(OutcomeRejectedPosterior, negInf, nil)
		}
	}

	nev := float64(ev.post.NumEvents())
	ns := ev.post.NumSamples()
	variance := nev * nev / neff * (1 - neff/ev.inj.NTotal())
	for i, n := range neffPE {
		variance += (1 / n) * (1 - n/ns[i])
	}
	ev.lastVariance = variance
	ev.lastStage = StageVarianceChecked
	if ev.varThr > 0 && !(variance <= ev.varThr) {
		return ev.finish(OutcomeRejectedVariance, negInf, nil)
	}

	logL := 0.0
	for _, s := range ev.post.LogSumWeights() {
		logL += s
	}
	if ev.model.ScaleFree() {
		logL -= nev * ev.inj.LogPseudoRate()
	} else {
		logL += -ev.inj.ExpectedNumberDetections() + nev*math.Log(ev.inj.Tobs())
	}
	ev.lastStage = StageCombined

	return ev.sanitize(logL)
}

func (ev *Evaluator) sanitize(logL float64) (float64, error) {
	ev.lastStage = StageSanitized
	switch {
	case math.IsInf(logL, 1):
		return ev.finish(OutcomeError, logL, ErrInfiniteLikelihood)
	case math.IsNaN(logL):
		return ev.finish(OutcomeNaN, math.Inf(-1), nil)
	}
	return ev.finish(OutcomeAccepted, logL, nil)
}

// NoEvents is the likelihood of an empty catalog: only the expected number
// of detections contributes.
type NoEvents struct {
	inj   *catalog.Injections
	model RateModel
}

// NewNoEvents needs a model that is not scale free
func NewNoEvents(inj *catalog.Injections, model RateModel) (*NoEvents, error) {
	if inj == nil || model == nil {
		return nil, errors.Errorf("No-event likelihood needs injections and a rate model")
	}
	if model.ScaleFree() {
		return nil, errors.Errorf("No-event likelihood is undefined for a scale free model")
	}
	return &NoEvents{inj: inj, model: model}, nil
}

// Parameters are the population parameters LogLikelihood expects
func (ne *NoEvents) Parameters() []string { return ne.model.Parameters() }

// LogLikelihood is -N_exp
func (ne *NoEvents) LogLikelihood(params map[string]float64) (float64, error) {
	if err := ne.model.Update(params); err != nil {
		return math.Inf(-1), errors.Wrapf(err, "Could not update population model")
	}
	if err := ne.inj.UpdateWeights(ne.model); err != nil {
		return math.Inf(-1), err
	}
	v := -ne.inj.ExpectedNumberDetections()
	if math.IsNaN(v) {
		return math.Inf(-1), nil
	}
	return v, nil
}
