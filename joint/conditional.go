package joint

import (
	"math"

	"github.com/pkg/errors"

	"github.com/CraigKelly/popinfer/dist"
)

// Conditional is p(x1) p(x2 | x2 <= x1): the second variable follows pdf2
// truncated at the first.
type Conditional struct {
	pdf1 dist.Dist
	pdf2 dist.Dist
}

// NewConditional pairs the primary and secondary distributions
func NewConditional(pdf1, pdf2 dist.Dist) *Conditional {
	return &Conditional{pdf1: pdf1, pdf2: pdf2}
}

// Primary is the distribution of x1
func (c *Conditional) Primary() dist.Dist { return c.pdf1 }

// Secondary is the untruncated distribution of x2
func (c *Conditional) Secondary() dist.Dist { return c.pdf2 }

func (c *Conditional) LogPDF(x1, x2 float64) float64 {
	return sanitize(c.pdf1.LogPDF(x1) + LogTruncated(c.pdf2, x1, x2))
}

// LogTruncated is log p(x2 | x2 <= x1) for x2 drawn from pdf2. There is no
// room for x2 when x1 is at or below the start of pdf2, so that is -Inf
// rather than a division by a zero CDF.
func LogTruncated(pdf2 dist.Dist, x1, x2 float64) float64 {
	if x2 > x1 {
		return math.Inf(-1)
	}
	if min2, _ := pdf2.Bounds(); x1 <= min2 {
		return math.Inf(-1)
	}
	return sanitize(pdf2.LogPDF(x2) - pdf2.LogCDF(x1))
}

// Sample draws x1 by inverse CDF, then x2 from pdf2 rescaled to [min2, x1]
func (c *Conditional) Sample(src dist.Source, n int) ([]float64, []float64, error) {
	if n < 0 {
		return nil, nil, errors.Errorf("Invalid sample count %d", n)
	}

	inv1, err := dist.NewInverseCDF(c.pdf1)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "Primary")
	}
	inv2, err := dist.NewInverseCDF(c.pdf2)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "Secondary")
	}

	x1 := make([]float64, n)
	x2 := make([]float64, n)
	for i := range x1 {
		x1[i] = inv1.At(src.Float64())
		x2[i] = inv2.At(src.Float64() * dist.CDF(c.pdf2, x1[i]))
	}
	return x1, x2, nil
}
