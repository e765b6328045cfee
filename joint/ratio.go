package joint

import (
	"math"

	"github.com/pkg/errors"

	"github.com/CraigKelly/popinfer/dist"
)

// MassRatio is p(x1) p(q) with q = x2/x1, written as a density in (x1, x2):
//
//	p(x1, x2) = p1(x1) pq(x2/x1) / x1
type MassRatio struct {
	primary dist.Dist
	ratio   dist.Dist
}

// NewMassRatio requires a ratio distribution inside [0, 1] and a positive
// primary support
func NewMassRatio(primary, ratio dist.Dist) (*MassRatio, error) {
	if min, _ := primary.Bounds(); !(min > 0) {
		return nil, errors.Errorf("Primary support must be positive, starts at %v", min)
	}
	if min, max := ratio.Bounds(); min < 0 || max > 1 {
		return nil, errors.Errorf("Mass ratio support [%v, %v] is not inside [0, 1]", min, max)
	}
	return &MassRatio{primary: primary, ratio: ratio}, nil
}

// Primary is the distribution of x1
func (m *MassRatio) Primary() dist.Dist { return m.primary }

// Ratio is the distribution of x2/x1
func (m *MassRatio) Ratio() dist.Dist { return m.ratio }

func (m *MassRatio) LogPDF(x1, x2 float64) float64 {
	if !(x1 > 0) || x2 > x1 {
		return math.Inf(-1)
	}
	return sanitize(m.primary.LogPDF(x1) + m.ratio.LogPDF(x2/x1) - math.Log(x1))
}

// Sample draws x1 and q independently by inverse CDF
func (m *MassRatio) Sample(src dist.Source, n int) ([]float64, []float64, error) {
	x1, err := dist.Sample(m.primary, src, n)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "Primary")
	}
	q, err := dist.Sample(m.ratio, src, n)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "Mass ratio")
	}
	x2 := make([]float64, n)
	for i := range x2 {
		x2[i] = q[i] * x1[i]
	}
	return x1, x2, nil
}
