package catalog

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CraigKelly/popinfer/dist"
	"github.com/CraigKelly/popinfer/rand"
)

// fixedMasses always returns the same binary
type fixedMasses struct{ m1, m2 float64 }

func (f fixedMasses) LogPDF(x1, x2 float64) float64 { return 0 }

func (f fixedMasses) Sample(src dist.Source, n int) ([]float64, []float64, error) {
	x1 := make([]float64, n)
	x2 := make([]float64, n)
	for i := range x1 {
		x1[i], x2[i] = f.m1, f.m2
	}
	return x1, x2, nil
}

type rateFunc func(Columns) ([]float64, error)

func (f rateFunc) LogRate(cols Columns) ([]float64, error) { return f(cols) }

// shift adds d to every log rate
func (f rateFunc) shift(d float64) rateFunc {
	return func(cols Columns) ([]float64, error) {
		lr, err := f(cols)
		for i := range lr {
			lr[i] += d
		}
		return lr, err
	}
}

func constantRate(v float64) RateModel {
	return rateFunc(func(cols Columns) ([]float64, error) {
		n, err := cols.Len()
		if err != nil {
			return nil, err
		}
		out := make([]float64, n)
		for i := range out {
			out[i] = math.Log(v)
		}
		return out, nil
	})
}

// log rate equal to log(m1)
var massRate = rateFunc(func(cols Columns) ([]float64, error) {
	m1, err := cols.Get(ColMass1)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(m1))
	for i, m := range m1 {
		out[i] = math.Log(m)
	}
	return out, nil
})

func TestKish(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(0.0, Kish(nil))
	assert.Equal(0.0, Kish([]float64{0, 0, 0}))
	assert.InDelta(4.0, Kish([]float64{3, 3, 3, 3}), 1e-12)
	assert.InDelta(1.0, Kish([]float64{0, 5, 0}), 1e-12)
	assert.InDelta(3.6, Kish([]float64{2, 2, 1, 1}), 1e-12)
}

func TestColumns(t *testing.T) {
	assert := assert.New(t)

	c := Columns{ColMass1: {1, 2, 3}, ColRedshift: {0.1, 0.2, 0.3}}
	n, err := c.Len()
	assert.NoError(err)
	assert.Equal(3, n)
	assert.Equal([]string{ColMass1, ColRedshift}, c.Names())
	assert.True(c.Has(ColMass1))
	assert.False(c.Has(ColMass2))

	_, err = c.Get(ColMass2)
	assert.Error(err)

	sub := c.Subset([]int{2, 0})
	assert.Equal([]float64{3, 1}, sub[ColMass1])
	assert.Equal([]float64{0.3, 0.1}, sub[ColRedshift])

	n, err = Columns{}.Len()
	assert.NoError(err)
	assert.Equal(0, n)

	_, err = Columns{ColMass1: {1, 2}, ColMass2: {1}}.Len()
	assert.Error(err)
}

func TestInjections(t *testing.T) {
	assert := assert.New(t)

	cols := Columns{ColMass1: {10, 20, 30, 40}}
	inj, err := NewInjections(cols, []float64{1, 1, 2, 2}, 10, 2)
	require.NoError(t, err)
	assert.Equal(4, inj.Len())
	assert.Equal(10.0, inj.NTotal())
	assert.Equal(2.0, inj.Tobs())

	require.NoError(t, inj.UpdateWeights(constantRate(2)))
	assert.InDelta(0.6, inj.PseudoRate(), 1e-12)
	assert.InDelta(1.2, inj.ExpectedNumberDetections(), 1e-12)
	assert.InDelta(3.6, inj.EffectiveInjectionsNumber(), 1e-12)

	lw := inj.LogWeights()
	assert.InDelta(math.Log(2), lw[0], 1e-12)
	assert.InDelta(0.0, lw[3], 1e-12)
	lw[0] = 99
	assert.InDelta(math.Log(2), inj.LogWeights()[0], 1e-12)

	require.NoError(t, inj.UpdateWeights(massRate))
	assert.InDelta((10+20+15+20)/10.0, inj.PseudoRate(), 1e-12)
}

func TestWeightsOutsideExpRange(t *testing.T) {
	assert := assert.New(t)

	cols := Columns{ColMass1: {10, 20, 30, 40}}
	inj, err := NewInjections(cols, []float64{1, 1, 1, 1}, 10, 2)
	require.NoError(t, err)

	// exp(1000) overflows and exp(-1000) underflows
	for _, lr := range []float64{1000, -1000} {
		require.NoError(t, inj.UpdateWeights(rateFunc(constantRate(1).LogRate).shift(lr)))
		assert.InDelta(lr+math.Log(0.4), inj.LogPseudoRate(), 1e-9)
		assert.InDelta(4.0, inj.EffectiveInjectionsNumber(), 1e-12)
	}

	post, err := NewPosteriors([]Event{event("A", []float64{10, 20})})
	require.NoError(t, err)
	require.NoError(t, post.UpdateWeights(massRate.shift(1000)))
	assert.InDeltaSlice([]float64{1000 + math.Log(15)}, post.LogSumWeights(), 1e-9)
	assert.True(math.IsInf(post.SumWeights()[0], 1))
	assert.InDelta(1.8, post.EffectiveNumberOfPE()[0], 1e-12)

	// All zero rates
	require.NoError(t, post.UpdateWeights(constantRate(0)))
	assert.True(math.IsInf(post.LogSumWeights()[0], -1))
	assert.Equal(0.0, post.EffectiveNumberOfPE()[0])
}

func TestInjectionsErrors(t *testing.T) {
	assert := assert.New(t)

	cols := Columns{ColMass1: {10, 20}}
	_, err := NewInjections(cols, []float64{1}, 10, 1)
	assert.Error(err)
	_, err = NewInjections(cols, []float64{1, 0}, 10, 1)
	assert.Error(err)
	_, err = NewInjections(cols, []float64{1, 1}, 1, 1)
	assert.Error(err)
	_, err = NewInjections(cols, []float64{1, 1}, 10, 0)
	assert.Error(err)
	_, err = NewInjections(Columns{ColMass1: {1, 2}, ColMass2: {1}}, []float64{1, 1}, 10, 1)
	assert.Error(err)

	inj, err := NewInjections(cols, []float64{1, 1}, 10, 1)
	require.NoError(t, err)
	short := rateFunc(func(Columns) ([]float64, error) { return []float64{0}, nil })
	assert.Error(inj.UpdateWeights(short))
	failing := rateFunc(func(Columns) ([]float64, error) { return nil, errors.New("boom") })
	assert.Error(inj.UpdateWeights(failing))
	assert.Error(inj.UpdateWeights(rateFunc(func(c Columns) ([]float64, error) {
		_, err := c.Get(ColMass2)
		return nil, err
	})))
}

func event(name string, m1 []float64) Event {
	prior := make([]float64, len(m1))
	for i := range prior {
		prior[i] = 1
	}
	return Event{Name: name, Samples: Columns{ColMass1: m1}, Prior: prior}
}

func TestPosteriors(t *testing.T) {
	assert := assert.New(t)

	_, err := NewPosteriors(nil)
	assert.Error(err)

	post, err := NewPosteriors([]Event{
		event("A", []float64{10, 20, 30}),
		event("B", []float64{5, 5}),
	})
	require.NoError(t, err)
	assert.Equal(2, post.NumEvents())
	assert.Equal([]float64{3, 2}, post.NumSamples())

	require.NoError(t, post.UpdateWeights(massRate))
	assert.InDeltaSlice([]float64{20, 5}, post.SumWeights(), 1e-12)
	neff := post.EffectiveNumberOfPE()
	assert.InDelta(3600.0/1400.0, neff[0], 1e-12)
	assert.InDelta(2.0, neff[1], 1e-12)
	assert.InDeltaSlice([]float64{math.Log(5), math.Log(5)}, post.LogWeights(1), 1e-12)

	require.NoError(t, post.UpdateWeights(constantRate(1)))
	assert.InDeltaSlice([]float64{1, 1}, post.SumWeights(), 1e-12)
	assert.InDeltaSlice([]float64{3, 2}, post.EffectiveNumberOfPE(), 1e-12)
}

func TestPosteriorsErrors(t *testing.T) {
	assert := assert.New(t)

	_, err := NewPosteriors([]Event{{Name: "empty", Samples: Columns{ColMass1: {}}}})
	assert.Error(err)

	bad := event("A", []float64{10, 20})
	bad.Prior = bad.Prior[:1]
	_, err = NewPosteriors([]Event{bad})
	assert.Error(err)

	post, err := NewPosteriors([]Event{event("A", []float64{10, 20})})
	require.NoError(t, err)
	assert.Error(post.UpdateWeights(rateFunc(func(Columns) ([]float64, error) {
		return []float64{1, 2, 3}, nil
	})))
}

func TestBuildParallelPosterior(t *testing.T) {
	assert := assert.New(t)

	gen, err := rand.NewGenerator(42)
	require.NoError(t, err)

	a := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	post, err := NewPosteriors([]Event{
		event("A", a),
		event("B", []float64{100, 200, 300}),
	})
	require.NoError(t, err)

	// Default takes the smallest event size
	require.NoError(t, post.BuildParallelPosterior(0, gen))
	assert.Equal([]float64{3, 3}, post.NumSamples())
	assert.Equal([]float64{100, 200, 300}, post.Event(1).Samples[ColMass1])

	// Subsampled values are distinct members of the original event
	seen := map[float64]bool{}
	for _, v := range post.Event(0).Samples[ColMass1] {
		assert.Contains(a, v)
		assert.False(seen[v])
		seen[v] = true
	}

	// Events smaller than the cap are kept whole
	require.NoError(t, post.BuildParallelPosterior(5, gen))
	assert.Equal([]float64{5, 3}, post.NumSamples())
	assert.Len(post.Event(0).Prior, 5)

	require.NoError(t, post.BuildParallelPosterior(100, gen))
	assert.Equal([]float64{8, 3}, post.NumSamples())
	assert.Equal(2, post.NumEvents())

	require.NoError(t, post.UpdateWeights(massRate))
	assert.InDeltaSlice([]float64{4.5, 200}, post.SumWeights(), 1e-12)
}

func TestSimulate(t *testing.T) {
	assert := assert.New(t)

	gen, err := rand.NewGenerator(7)
	require.NoError(t, err)

	cfg := SimConfig{
		Events:          5,
		Injections:      2000,
		SamplesPerEvent: 50,
		Tobs:            1,
		ZMax:            1,
		MassMin:         2,
		MassMax:         100,
		SNRThreshold:    8,
		Scatter:         0.1,
	}
	masses := fixedMasses{m1: 40, m2: 30}
	post, inj, err := Simulate(cfg, masses, func(z float64) float64 { return 1 }, gen)
	require.NoError(t, err)

	assert.Equal(5, post.NumEvents())
	assert.Equal([]float64{50, 50, 50, 50, 50}, post.NumSamples())
	for i := 0; i < post.NumEvents(); i++ {
		ev := post.Event(i)
		n, err := ev.Samples.Len()
		assert.NoError(err)
		assert.Equal(50, n)
		for k := range ev.Prior {
			assert.GreaterOrEqual(ev.Samples[ColMass1][k], ev.Samples[ColMass2][k])
			assert.Greater(ev.Samples[ColRedshift][k], 0.0)
		}
	}

	assert.Equal(2000.0, inj.NTotal())
	assert.Greater(inj.Len(), 0)
	assert.Less(inj.Len(), 2000)
	cols := inj.Columns()
	for k := 0; k < inj.Len(); k++ {
		assert.GreaterOrEqual(SNR(cols[ColMass1][k], cols[ColMass2][k], cols[ColRedshift][k]), 8.0)
	}
}

func TestSimulateErrors(t *testing.T) {
	assert := assert.New(t)

	gen, err := rand.NewGenerator(7)
	require.NoError(t, err)

	good := SimConfig{
		Events: 1, Injections: 10, SamplesPerEvent: 1, Tobs: 1,
		ZMax: 1, MassMin: 2, MassMax: 100, SNRThreshold: 8, Scatter: 0.1,
	}
	assert.NoError(good.Validate())

	bad := good
	bad.Events = 0
	assert.Error(bad.Validate())
	bad = good
	bad.MassMax = 1
	assert.Error(bad.Validate())
	bad = good
	bad.Scatter = 0
	assert.Error(bad.Validate())

	flat := func(float64) float64 { return 1 }
	_, _, err = Simulate(good, fixedMasses{m1: 40, m2: 30}, func(float64) float64 { return 0 }, gen)
	assert.Error(err)
	_, _, err = Simulate(good, fixedMasses{m1: 40, m2: 30}, func(float64) float64 { return math.NaN() }, gen)
	assert.Error(err)

	// Nothing this light is ever detected
	tiny := good
	tiny.MaxDraws = 512
	tiny.SNRThreshold = 1e6
	_, _, err = Simulate(tiny, fixedMasses{m1: 3, m2: 2}, flat, gen)
	assert.Error(err)
}
