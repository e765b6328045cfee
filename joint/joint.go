// Package joint composes 1-D distributions into 2-D densities over ordered
// pairs (x1, x2), typically primary and secondary mass.
package joint

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/CraigKelly/popinfer/dist"
)

// Joint is a 2-D density evaluated in log space
type Joint interface {
	LogPDF(x1, x2 float64) float64
}

// Sampler is a Joint that can draw pairs
type Sampler interface {
	Joint
	Sample(src dist.Source, n int) (x1, x2 []float64, err error)
}

// PDF is exp(LogPDF)
func PDF(j Joint, x1, x2 float64) float64 {
	return math.Exp(j.LogPDF(x1, x2))
}

// LogPDFEach evaluates j pairwise over x1s and x2s, returning a new slice
func LogPDFEach(j Joint, x1s, x2s []float64) ([]float64, error) {
	if len(x1s) != len(x2s) {
		return nil, errors.Errorf("Length mismatch %d != %d", len(x1s), len(x2s))
	}
	out := make([]float64, len(x1s))
	for i := range x1s {
		out[i] = j.LogPDF(x1s[i], x2s[i])
	}
	return out, nil
}

// ProposalFactor is how many uniform proposals per requested sample the
// resampling samplers draw
const ProposalFactor = 10

// sanitize maps NaN to -Inf
func sanitize(v float64) float64 {
	if math.IsNaN(v) {
		return math.Inf(-1)
	}
	return v
}

func uniform(src dist.Source, min, max float64) float64 {
	return min + (max-min)*src.Float64()
}

// uniformSource lets a dist.Source drive the gonum samplers. A source with
// its own 64 bit stream, like rand.Generator, hands it over whole; otherwise
// Uint64 returns the 53 bits behind the float, which is all exp/rand reads
// back out of it for Float64.
type uniformSource struct {
	src dist.Source
}

func (u uniformSource) Uint64() uint64 {
	if b, ok := u.src.(interface{ Uint64() uint64 }); ok {
		return b.Uint64()
	}
	return uint64(u.src.Float64() * (1 << 53))
}

// Seed is a no-op: the wrapped source owns its state
func (u uniformSource) Seed(uint64) {}

// resample draws n indexes with replacement, proportional to weights
func resample(weights []float64, src dist.Source, n int) ([]int, error) {
	if len(weights) == 0 {
		return nil, errors.Errorf("No proposals to resample")
	}
	total := floats.Sum(weights)
	if !(total > 0) || math.IsInf(total, 0) {
		return nil, errors.Errorf("Proposal weights sum to %v", total)
	}

	c := distuv.NewCategorical(weights, uniformSource{src: src})
	idx := make([]int, n)
	for i := range idx {
		idx[i] = int(c.Rand())
	}
	return idx, nil
}

// resampleBox proposes uniformly on a box and keeps draws in proportion to pdf
func resampleBox(j Joint, src dist.Source, n, proposals int, x1min, x1max, x2min, x2max float64) ([]float64, []float64, error) {
	if n < 0 {
		return nil, nil, errors.Errorf("Invalid sample count %d", n)
	}
	if n == 0 {
		return []float64{}, []float64{}, nil
	}

	p1 := make([]float64, proposals)
	p2 := make([]float64, proposals)
	w := make([]float64, proposals)
	for i := range p1 {
		p1[i] = uniform(src, x1min, x1max)
		p2[i] = uniform(src, x2min, x2max)
		w[i] = PDF(j, p1[i], p2[i])
	}

	idx, err := resample(w, src, n)
	if err != nil {
		return nil, nil, err
	}

	x1 := make([]float64, n)
	x2 := make([]float64, n)
	for i, k := range idx {
		x1[i], x2[i] = p1[k], p2[k]
	}
	return x1, x2, nil
}
