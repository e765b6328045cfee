// Package rate holds redshift evolution models for the merger rate density.
// Every model is normalised to 1 at z = 0.
package rate

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Rate is the relative merger rate density as a function of redshift
type Rate interface {
	Evaluate(z float64) float64
	LogEvaluate(z float64) float64
}

// PowerLaw evolves as (1+z)^Gamma
type PowerLaw struct {
	Gamma float64
}

func (r PowerLaw) Evaluate(z float64) float64 {
	return math.Exp(r.LogEvaluate(z))
}

func (r PowerLaw) LogEvaluate(z float64) float64 {
	return r.Gamma * math.Log1p(z)
}

// MadauDickinson follows the star formation history shape: rising as
// (1+z)^Gamma, peaking near Zp and falling as (1+z)^-Kappa.
type MadauDickinson struct {
	Gamma float64
	Kappa float64
	Zp    float64
}

func (r MadauDickinson) Evaluate(z float64) float64 {
	return math.Exp(r.LogEvaluate(z))
}

func (r MadauDickinson) LogEvaluate(z float64) float64 {
	gk := r.Gamma + r.Kappa
	return math.Log1p(math.Pow(1+r.Zp, -gk)) +
		r.Gamma*math.Log1p(z) -
		math.Log1p(math.Pow((1+z)/(1+r.Zp), gk))
}

// MadauGamma adds a delayed component to the Madau-Dickinson shape: C times
// a Gamma density in z with shape A and rate B. For A > 1 the extra term is
// zero at z = 0 and the normalisation holds.
type MadauGamma struct {
	Gamma float64
	Kappa float64
	Zp    float64
	A     float64
	B     float64
	C     float64
}

func (r MadauGamma) Evaluate(z float64) float64 {
	md := MadauDickinson{Gamma: r.Gamma, Kappa: r.Kappa, Zp: r.Zp}
	return md.Evaluate(z) + r.C*distuv.Gamma{Alpha: r.A, Beta: r.B}.Prob(z)
}

func (r MadauGamma) LogEvaluate(z float64) float64 {
	v := r.Evaluate(z)
	if !(v > 0) {
		return math.Inf(-1)
	}
	return math.Log(v)
}

// EvaluateEach applies r to every redshift, returning a new slice
func EvaluateEach(r Rate, zs []float64) []float64 {
	out := make([]float64, len(zs))
	for i, z := range zs {
		out[i] = r.Evaluate(z)
	}
	return out
}

// LogEvaluateEach applies r.LogEvaluate to every redshift
func LogEvaluateEach(r Rate, zs []float64) []float64 {
	out := make([]float64, len(zs))
	for i, z := range zs {
		out[i] = r.LogEvaluate(z)
	}
	return out
}
