package window

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHighpassEdges(t *testing.T) {
	assert := assert.New(t)

	cases := []struct {
		x, min, delta float64
		exp           float64
	}{
		{0.0, 5.0, 2.0, 0.0},
		{5.0, 5.0, 2.0, 0.0},
		{7.0, 5.0, 2.0, 1.0},
		{100.0, 5.0, 2.0, 1.0},
		{6.0, 5.0, 2.0, 0.5},
		{3.0, 5.0, 0.0, 1.0},
	}

	for _, c := range cases {
		assert.InDelta(c.exp, Highpass(c.x, c.min, c.delta), 1e-12, "x=%v", c.x)
	}
}

func TestHighpassMonotone(t *testing.T) {
	assert := assert.New(t)

	prev := 0.0
	for x := 5.0; x <= 7.0; x += 0.01 {
		v := Highpass(x, 5.0, 2.0)
		assert.False(math.IsNaN(v))
		assert.True(v >= prev-1e-15, "x=%v", x)
		prev = v
	}

	// Just above min the exponent overflows
	assert.Equal(0.0, Highpass(5.0+1e-12, 5.0, 2.0))
}

func TestLowpassMirrorsHighpass(t *testing.T) {
	assert := assert.New(t)

	for _, d := range []float64{0.1, 0.5, 1.0, 1.5, 1.9} {
		hp := Highpass(5.0+d, 5.0, 2.0)
		lp := Lowpass(10.0-d, 10.0, 2.0)
		assert.InDelta(hp, lp, 1e-12)
	}

	assert.Equal(0.0, Lowpass(10.0, 10.0, 2.0))
	assert.Equal(1.0, Lowpass(8.0, 10.0, 2.0))
	assert.Equal(1.0, Lowpass(20.0, 10.0, 0.0))
}

func TestNotch(t *testing.T) {
	assert := assert.New(t)

	// Inside a fully open band with full depth
	assert.InDelta(0.0, Notch(5.0, 2.0, 1.0, 8.0, 1.0, 1.0), 1e-12)
	assert.InDelta(0.5, Notch(5.0, 2.0, 1.0, 8.0, 1.0, 0.5), 1e-12)

	// Outside the band the notch does nothing
	assert.InDelta(1.0, Notch(1.0, 2.0, 1.0, 8.0, 1.0, 1.0), 1e-12)
	assert.InDelta(1.0, Notch(9.0, 2.0, 1.0, 8.0, 1.0, 1.0), 1e-12)
}

func TestMixing(t *testing.T) {
	assert := assert.New(t)

	assert.InDelta(0.2, MixedLinear(0.0, 0.2, 0.8), 1e-12)
	assert.InDelta(0.8, MixedLinear(1.0, 0.2, 0.8), 1e-12)

	assert.InDelta(0.5, MixedDoubleSigmoid(1.0, 1.0, 0.1, 0.0, 1.0), 1e-12)
	assert.InDelta(0.0, MixedDoubleSigmoid(-10.0, 1.0, 0.1, 0.0, 1.0), 1e-9)
	assert.InDelta(1.0, MixedDoubleSigmoid(10.0, 1.0, 0.1, 0.0, 1.0), 1e-9)
}

func TestEachFreshSlices(t *testing.T) {
	assert := assert.New(t)

	xs := []float64{4.0, 6.0, 8.0}
	hp := HighpassEach(xs, 5.0, 2.0)
	lp := LowpassEach(xs, 7.0, 2.0)

	assert.Equal([]float64{4.0, 6.0, 8.0}, xs)
	assert.InDeltaSlice([]float64{0.0, 0.5, 1.0}, hp, 1e-12)
	assert.InDeltaSlice([]float64{1.0, 0.5, 0.0}, lp, 1e-12)
}
