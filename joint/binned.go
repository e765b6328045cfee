package joint

import (
	"math"

	"github.com/pkg/errors"

	"github.com/CraigKelly/popinfer/dist"
)

// TriangleBins returns the number of bins in a triangular grid with n bins
// per side
func TriangleBins(n int) int {
	return n * (n + 1) / 2
}

// BinnedTriangle is a piecewise constant density over x2 <= x1 on
// [min, max]^2. The square is cut into n x n cells and only the cells on or
// below the diagonal carry a weight. Diagonal cells are halved by x2 <= x1
// so they count half towards the normalisation.
//
// Cells are numbered row by row from the bottom, so with n = 3:
//
//	.  .  5
//	.  3  4
//	0  1  2
type BinnedTriangle struct {
	min, max float64
	n        int
	width    float64
	density  []float64 // normalised density per flat bin
}

// NewBinnedTriangle requires n(n+1)/2 non-negative weights for some n
func NewBinnedTriangle(min, max float64, weights []float64) (*BinnedTriangle, error) {
	if !(max > min) {
		return nil, errors.Errorf("Bin grid maximum %v must be above minimum %v", max, min)
	}

	n := int(math.Round(-0.5 + math.Sqrt(0.25+2*float64(len(weights)))))
	if n < 1 || TriangleBins(n) != len(weights) {
		return nil, errors.Errorf("%d weights do not fill a triangular grid", len(weights))
	}

	width := (max - min) / float64(n)
	total := 0.0
	for j := 0; j < n; j++ {
		for i := j; i < n; i++ {
			w := weights[flatIndex(n, i, j)]
			if !(w >= 0) || math.IsInf(w, 0) {
				return nil, errors.Errorf("Bin weight (%d, %d) must be finite and >= 0, got %v", i, j, w)
			}
			if i == j {
				w *= 0.5
			}
			total += w
		}
	}
	if !(total > 0) {
		return nil, errors.Errorf("Bin weights sum to zero")
	}

	scale := 1 / (total * width * width)
	density := make([]float64, len(weights))
	for k, w := range weights {
		density[k] = w * scale
	}

	return &BinnedTriangle{
		min:     min,
		max:     max,
		n:       n,
		width:   width,
		density: density,
	}, nil
}

func flatIndex(n, i, j int) int {
	return i + n*j - j*(j+1)/2
}

// Side is the number of bins along each axis
func (b *BinnedTriangle) Side() int { return b.n }

// Bin returns the flat bin index for (x1, x2), or -1 off the domain
func (b *BinnedTriangle) Bin(x1, x2 float64) int {
	if x1 < b.min || x1 > b.max || x2 < b.min || x2 > b.max || x1 < x2 {
		return -1
	}
	i := b.cell(x1)
	j := b.cell(x2)
	return flatIndex(b.n, i, j)
}

func (b *BinnedTriangle) cell(x float64) int {
	c := int(math.Floor((x - b.min) / b.width))
	if c >= b.n {
		c = b.n - 1
	}
	return c
}

// PDF returns the density, 0 off the domain
func (b *BinnedTriangle) PDF(x1, x2 float64) float64 {
	k := b.Bin(x1, x2)
	if k < 0 {
		return 0
	}
	return b.density[k]
}

func (b *BinnedTriangle) LogPDF(x1, x2 float64) float64 {
	return math.Log(b.PDF(x1, x2))
}

// Sample resamples ProposalFactor*n uniform proposals over the square
func (b *BinnedTriangle) Sample(src dist.Source, n int) ([]float64, []float64, error) {
	return resampleBox(b, src, n, ProposalFactor*n, b.min, b.max, b.min, b.max)
}
