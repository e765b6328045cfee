package likelihood

import (
	"bytes"
	"log"
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CraigKelly/popinfer/catalog"
	"github.com/CraigKelly/popinfer/population"
	"github.com/CraigKelly/popinfer/rand"
)

var _ RateModel = (*population.CBCRate)(nil)

// linearModel has log rate a*x + log(c) over the "x" column
type linearModel struct {
	scaleFree bool
	a, c      float64
}

func (m *linearModel) Parameters() []string { return []string{"a", "c"} }

func (m *linearModel) Update(params map[string]float64) error {
	a, okA := params["a"]
	c, okC := params["c"]
	if !okA || !okC {
		return errors.Wrapf(population.ErrMissingParameter, "a or c")
	}
	m.a, m.c = a, c
	return nil
}

func (m *linearModel) ScaleFree() bool { return m.scaleFree }

func (m *linearModel) LogRate(cols catalog.Columns) ([]float64, error) {
	x, err := cols.Get("x")
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = m.a*v + math.Log(m.c)
	}
	return out, nil
}

func fill(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// fixture: 10 detected of 20 injections over Tobs=2, two events of 50
// samples. Injections sit at x=injX and PE samples at x=peX.
func fixture(t *testing.T, injX, peX float64) (*catalog.Posteriors, *catalog.Injections) {
	inj, err := catalog.NewInjections(catalog.Columns{"x": fill(10, injX)}, fill(10, 1), 20, 2)
	require.NoError(t, err)

	var events []catalog.Event
	for _, name := range []string{"A", "B"} {
		events = append(events, catalog.Event{
			Name:    name,
			Samples: catalog.Columns{"x": fill(50, peX)},
			Prior:   fill(50, 1),
		})
	}
	post, err := catalog.NewPosteriors(events)
	require.NoError(t, err)
	return post, inj
}

func newEval(t *testing.T, model RateModel, cfg Config, injX, peX float64) *Evaluator {
	post, inj := fixture(t, injX, peX)
	gen, err := rand.NewGenerator(1)
	require.NoError(t, err)
	ev, err := NewEvaluator(post, inj, model, cfg, gen)
	require.NoError(t, err)
	return ev
}

func TestAccepted(t *testing.T) {
	assert := assert.New(t)

	ev := newEval(t, &linearModel{}, Config{}, 0, 0)
	assert.Equal(DefaultNeffPE, ev.NeffPE())
	assert.Equal(8.0, ev.NeffINJ())
	assert.Equal([]string{"a", "c"}, ev.Parameters())
	assert.Equal(OutcomeNone, ev.LastOutcome())

	// N_exp = c, sum weights = c per event
	for _, c := range []float64{1, 3} {
		logL, err := ev.LogLikelihood(map[string]float64{"a": 0, "c": c})
		assert.NoError(err)
		assert.InDelta(-c+2*math.Log(2)+2*math.Log(c), logL, 1e-12)
		assert.Equal(OutcomeAccepted, ev.LastOutcome())
		assert.Equal(StageSanitized, ev.LastStage())
		assert.InDelta(0.2, ev.LastVariance(), 1e-12)
	}
	assert.Equal(int64(2), ev.Stats().Count(OutcomeAccepted))
	assert.Equal(int64(2), ev.Stats().Evaluations)
	assert.Equal(1.0, ev.Stats().Acceptance())
}

func TestScaleFree(t *testing.T) {
	assert := assert.New(t)

	ev := newEval(t, &linearModel{scaleFree: true}, Config{}, 0, 0)
	for _, c := range []float64{0.5, 1, 7} {
		logL, err := ev.LogLikelihood(map[string]float64{"a": 0, "c": c})
		assert.NoError(err)
		assert.InDelta(2*math.Log(2), logL, 1e-12)
	}
}

func TestRejections(t *testing.T) {
	assert := assert.New(t)
	params := map[string]float64{"a": 0, "c": 1}

	ev := newEval(t, &linearModel{}, Config{NeffINJ: 1e6}, 0, 0)
	logL, err := ev.LogLikelihood(params)
	assert.NoError(err)
	assert.True(math.IsInf(logL, -1))
	assert.Equal(OutcomeRejectedInjections, ev.LastOutcome())
	assert.Equal(StageInjectionWeighted, ev.LastStage())
	assert.True(ev.LastOutcome().Rejected())

	ev = newEval(t, &linearModel{}, Config{NeffPE: 51}, 0, 0)
	logL, err = ev.LogLikelihood(params)
	assert.NoError(err)
	assert.True(math.IsInf(logL, -1))
	assert.Equal(OutcomeRejectedPosterior, ev.LastOutcome())
	assert.Equal(StagePosteriorWeighted, ev.LastStage())

	// A zero rate leaves no effective injections at all
	ev = newEval(t, &linearModel{}, Config{NeffINJ: 1e-9}, 0, 0)
	logL, err = ev.LogLikelihood(map[string]float64{"a": 0, "c": 0})
	assert.NoError(err)
	assert.True(math.IsInf(logL, -1))
	assert.Equal(OutcomeRejectedInjections, ev.LastOutcome())

	ev = newEval(t, &linearModel{}, Config{VarianceThreshold: 0.1}, 0, 0)
	assert.Equal(-1.0, ev.NeffPE())
	assert.Equal(-1.0, ev.NeffINJ())
	logL, err = ev.LogLikelihood(params)
	assert.NoError(err)
	assert.True(math.IsInf(logL, -1))
	assert.Equal(OutcomeRejectedVariance, ev.LastOutcome())
	assert.Equal(StageVarianceChecked, ev.LastStage())
	assert.InDelta(0.2, ev.LastVariance(), 1e-12)

	ev = newEval(t, &linearModel{}, Config{VarianceThreshold: 1}, 0, 0)
	logL, err = ev.LogLikelihood(params)
	assert.NoError(err)
	assert.InDelta(-1+2*math.Log(2), logL, 1e-12)
}

func TestSanitize(t *testing.T) {
	assert := assert.New(t)

	// Posterior weights past exp overflow stay finite in log space
	ev := newEval(t, &linearModel{}, Config{}, 0, 1)
	logL, err := ev.LogLikelihood(map[string]float64{"a": 1000, "c": 1})
	assert.NoError(err)
	assert.InDelta(2000-1+2*math.Log(2), logL, 1e-9)
	assert.Equal(OutcomeAccepted, ev.LastOutcome())

	// A log rate that is itself +Inf
	ev = newEval(t, &linearModel{}, Config{}, 0, 10)
	logL, err = ev.LogLikelihood(map[string]float64{"a": 1e308, "c": 1})
	assert.True(errors.Is(err, ErrInfiniteLikelihood))
	assert.True(math.IsInf(logL, 1))
	assert.Equal(OutcomeError, ev.LastOutcome())
	assert.Equal(StageSanitized, ev.LastStage())

	// Inf - Inf
	ev = newEval(t, &linearModel{scaleFree: true}, Config{}, 10, 10)
	logL, err = ev.LogLikelihood(map[string]float64{"a": 1e308, "c": 1})
	assert.NoError(err)
	assert.True(math.IsInf(logL, -1))
	assert.Equal(OutcomeNaN, ev.LastOutcome())

	// Both sides overflow in linear space but cancel in log space
	ev = newEval(t, &linearModel{scaleFree: true}, Config{}, 1, 1)
	logL, err = ev.LogLikelihood(map[string]float64{"a": 1000, "c": 1})
	assert.NoError(err)
	assert.InDelta(2*math.Log(2), logL, 1e-9)
}

func TestUpdateErrors(t *testing.T) {
	assert := assert.New(t)

	ev := newEval(t, &linearModel{}, Config{}, 0, 0)
	logL, err := ev.LogLikelihood(map[string]float64{"a": 0})
	assert.Error(err)
	assert.True(errors.Is(err, population.ErrMissingParameter))
	assert.True(math.IsInf(logL, -1))
	assert.Equal(StageInit, ev.LastStage())
	assert.Equal(OutcomeError, ev.LastOutcome())
	assert.Equal(int64(1), ev.Stats().Count(OutcomeError))
}

func TestConfigErrors(t *testing.T) {
	assert := assert.New(t)

	post, inj := fixture(t, 0, 0)
	gen, err := rand.NewGenerator(1)
	require.NoError(t, err)
	model := &linearModel{}

	_, err = NewEvaluator(post, inj, model, Config{VarianceThreshold: 1, NeffPE: 10}, gen)
	assert.Error(err)
	_, err = NewEvaluator(post, inj, model, Config{VarianceThreshold: 1, NeffINJ: 10}, gen)
	assert.Error(err)
	_, err = NewEvaluator(post, inj, model, Config{NeffPE: -1}, gen)
	assert.Error(err)
	_, err = NewEvaluator(post, inj, model, Config{StatsWindow: 1}, gen)
	assert.Error(err)
	_, err = NewEvaluator(nil, inj, model, Config{}, gen)
	assert.Error(err)
	_, err = NewEvaluator(post, inj, model, Config{}, nil)
	assert.Error(err)

	var buf bytes.Buffer
	_, err = NewEvaluator(post, inj, model, Config{Logger: log.New(&buf, "", 0)}, gen)
	assert.NoError(err)
	assert.Contains(buf.String(), "NeffPE=20 and NeffINJ=8")

	buf.Reset()
	_, err = NewEvaluator(post, inj, model, Config{VarianceThreshold: 1, Logger: log.New(&buf, "", 0)}, gen)
	assert.NoError(err)
	assert.Contains(buf.String(), "variance")
}

func TestParallelPosterior(t *testing.T) {
	assert := assert.New(t)

	post, inj := fixture(t, 0, 0)
	gen, err := rand.NewGenerator(1)
	require.NoError(t, err)
	ev, err := NewEvaluator(post, inj, &linearModel{}, Config{NParallel: 30, NeffPE: 5}, gen)
	require.NoError(t, err)
	assert.Equal([]float64{30, 30}, post.NumSamples())

	_, err = ev.LogLikelihood(map[string]float64{"a": 0, "c": 1})
	assert.NoError(err)
	// 4/10 (1 - 1/2) + 2 * (1/30) (1 - 30/30)
	assert.InDelta(0.2, ev.LastVariance(), 1e-12)
}

func TestStats(t *testing.T) {
	assert := assert.New(t)

	ev := newEval(t, &linearModel{}, Config{StatsWindow: 4}, 0, 0)
	good := map[string]float64{"a": 0, "c": 1}
	bad := map[string]float64{"a": 0, "c": 0}

	for _, p := range []map[string]float64{bad, bad, good, good} {
		_, err := ev.LogLikelihood(p)
		assert.NoError(err)
	}
	s := ev.Stats()
	assert.Equal(int64(4), s.Evaluations)
	assert.Equal(int64(2), s.Count(OutcomeAccepted))
	assert.Equal(int64(2), s.Count(OutcomeRejectedInjections))
	assert.Equal(int64(0), s.Count(Outcome(99)))
	assert.Equal(0.5, s.Acceptance())
	assert.Equal(1.0, s.AcceptanceTrend())

	for _, p := range []map[string]float64{bad, bad} {
		_, err := ev.LogLikelihood(p)
		assert.NoError(err)
	}
	assert.Equal(0.5, s.Acceptance())
	assert.Equal(-1.0, s.AcceptanceTrend())
}

func TestNames(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("init", StageInit.String())
	assert.Equal("sanitized", StageSanitized.String())
	assert.Equal("stage(42)", Stage(42).String())
	assert.Equal("rejected-variance", OutcomeRejectedVariance.String())
	assert.Equal("outcome(-1)", Outcome(-1).String())
	assert.False(OutcomeAccepted.Rejected())
	assert.False(OutcomeNaN.Rejected())
}

func TestNoEvents(t *testing.T) {
	assert := assert.New(t)

	_, inj := fixture(t, 0, 0)
	ne, err := NewNoEvents(inj, &linearModel{})
	require.NoError(t, err)
	assert.Equal([]string{"a", "c"}, ne.Parameters())

	logL, err := ne.LogLikelihood(map[string]float64{"a": 0, "c": 3})
	assert.NoError(err)
	assert.InDelta(-3.0, logL, 1e-12)

	_, err = ne.LogLikelihood(map[string]float64{"c": 3})
	assert.Error(err)

	_, err = NewNoEvents(inj, &linearModel{scaleFree: true})
	assert.Error(err)
	_, err = NewNoEvents(nil, &linearModel{})
	assert.Error(err)
}

func TestSimulatedCatalog(t *testing.T) {
	assert := assert.New(t)

	gen, err := rand.NewGenerator(3)
	require.NoError(t, err)

	rm, err := population.NewRateModel("PowerLaw")
	require.NoError(t, err)
	mm, err := population.NewMassModel("conditioned:PowerLaw", gen)
	require.NoError(t, err)
	cbc, err := population.NewCBCRate(rm, mm, nil, false)
	require.NoError(t, err)

	truth := map[string]float64{"alpha": 2, "mmin": 5, "mmax": 60, "beta": 1, "gamma": 0, "R0": 10}
	require.NoError(t, cbc.Update(truth))

	pm := mm.(population.PairModel)
	r := cbc.RateModel().Rate()
	cfg := catalog.SimConfig{
		Events: 5, Injections: 3000, SamplesPerEvent: 200, Tobs: 1,
		ZMax: 1, MassMin: 2, MassMax: 100, SNRThreshold: 8, Scatter: 0.05,
	}
	post, inj, err := catalog.Simulate(cfg, pm.Prior(), func(z float64) float64 { return r.Evaluate(z) / (1 + z) }, gen)
	require.NoError(t, err)

	ev, err := NewEvaluator(post, inj, cbc, Config{NeffPE: 1, NeffINJ: 1}, gen)
	require.NoError(t, err)
	logL, err := ev.LogLikelihood(truth)
	assert.NoError(err)
	assert.False(math.IsNaN(logL))
	assert.True(ev.LastOutcome() == OutcomeAccepted || ev.LastOutcome().Rejected())
	if ev.LastOutcome() == OutcomeAccepted {
		assert.False(math.IsInf(logL, 0))
	}

	// Nothing survives an impossible injection gate
	strict, err := NewEvaluator(post, inj, cbc, Config{NeffINJ: 1e9}, gen)
	require.NoError(t, err)
	logL, err = strict.LogLikelihood(truth)
	assert.NoError(err)
	assert.True(math.IsInf(logL, -1))
}
