package rate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPowerLaw(t *testing.T) {
	assert := assert.New(t)

	r := PowerLaw{Gamma: 2.7}
	assert.InDelta(1.0, r.Evaluate(0), 1e-12)
	assert.InEpsilon(math.Pow(2, 2.7), r.Evaluate(1), 1e-12)
	assert.InEpsilon(2.7*math.Log(3), r.LogEvaluate(2), 1e-12)
}

func TestMadauDickinson(t *testing.T) {
	assert := assert.New(t)

	r := MadauDickinson{Gamma: 2.7, Kappa: 2.9, Zp: 1.9}
	assert.InDelta(1.0, r.Evaluate(0), 1e-12)
	assert.InDelta(0.0, r.LogEvaluate(0), 1e-12)

	// Direct form of the same expression
	z := 1.3
	gk := r.Gamma + r.Kappa
	exp := (1 + math.Pow(1+r.Zp, -gk)) * math.Pow(1+z, r.Gamma) / (1 + math.Pow((1+z)/(1+r.Zp), gk))
	assert.InEpsilon(exp, r.Evaluate(z), 1e-12)

	// Rises at low z then turns over well past the peak
	assert.True(r.Evaluate(1) > r.Evaluate(0.5))
	assert.True(r.Evaluate(6) < r.Evaluate(2))
}

func TestMadauGamma(t *testing.T) {
	assert := assert.New(t)

	md := MadauDickinson{Gamma: 2.7, Kappa: 2.9, Zp: 1.9}
	r := MadauGamma{Gamma: 2.7, Kappa: 2.9, Zp: 1.9, A: 3, B: 2, C: 0.5}
	assert.InDelta(1.0, r.Evaluate(0), 1e-12)
	assert.InDelta(0.0, r.LogEvaluate(0), 1e-12)

	// Gamma(3, 2) density is 4 z^2 exp(-2z)
	z := 1.3
	bump := 0.5 * 4 * z * z * math.Exp(-2*z)
	assert.InEpsilon(md.Evaluate(z)+bump, r.Evaluate(z), 1e-12)
	assert.InEpsilon(math.Log(md.Evaluate(z)+bump), r.LogEvaluate(z), 1e-12)

	// No delayed component is plain Madau-Dickinson
	r.C = 0
	assert.InEpsilon(md.Evaluate(z), r.Evaluate(z), 1e-12)

	// A negative component can drive the rate to zero
	r.C = -100
	assert.Equal(math.Inf(-1), r.LogEvaluate(z))
}

func TestEach(t *testing.T) {
	assert := assert.New(t)

	zs := []float64{0, 1, 3}
	r := PowerLaw{Gamma: 1}
	assert.InDeltaSlice([]float64{1, 2, 4}, EvaluateEach(r, zs), 1e-12)
	assert.InDeltaSlice([]float64{0, math.Log(2), math.Log(4)}, LogEvaluateEach(r, zs), 1e-12)
	assert.Equal([]float64{0, 1, 3}, zs)
}
