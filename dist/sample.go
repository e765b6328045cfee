package dist

import (
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// GridSize is the number of points used to tabulate the CDF for sampling
const GridSize = 10000

// InverseCDF is a tabulated inverse of a monotone CDF. Plateaus in the CDF
// are allowed and map to the upper end of the flat stretch.
type InverseCDF struct {
	xs  []float64
	cdf []float64
}

// NewInverseCDF tabulates the CDF of d on GridSize points over its support
func NewInverseCDF(d Dist) (*InverseCDF, error) {
	min, max := d.Bounds()
	if !(max > min) {
		return nil, errors.Errorf("Can not tabulate CDF over empty support [%v, %v]", min, max)
	}

	xs := floats.Span(make([]float64, GridSize), min, max)
	cdf := CDFEach(d, xs)
	for i := 1; i < len(cdf); i++ {
		// Round-off in numeric tables must not break monotonicity
		if cdf[i] < cdf[i-1] {
			cdf[i] = cdf[i-1]
		}
	}

	return &InverseCDF{xs: xs, cdf: cdf}, nil
}

// At returns the x whose CDF is u, by linear interpolation in the table.
// Values of u outside the tabulated range clamp to the ends of the support.
func (inv *InverseCDF) At(u float64) float64 {
	n := len(inv.cdf)
	if u <= inv.cdf[0] {
		return inv.xs[0]
	}
	if u >= inv.cdf[n-1] {
		return inv.xs[n-1]
	}

	// First index with cdf >= u; guaranteed 1 <= i < n here
	i := sort.SearchFloat64s(inv.cdf, u)
	lo, hi := inv.cdf[i-1], inv.cdf[i]
	if hi == lo {
		return inv.xs[i]
	}
	t := (u - lo) / (hi - lo)
	return inv.xs[i-1] + t*(inv.xs[i]-inv.xs[i-1])
}

// Sample draws n values from d by inverse-CDF sampling on a tabulated grid
func Sample(d Dist, src Source, n int) ([]float64, error) {
	if n < 0 {
		return nil, errors.Errorf("Invalid sample count %d", n)
	}

	inv, err := NewInverseCDF(d)
	if err != nil {
		return nil, err
	}

	out := make([]float64, n)
	for i := range out {
		out[i] = inv.At(src.Float64())
	}
	return out, nil
}
