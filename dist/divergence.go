package dist

import (
	"math"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// DivergenceSuite represents the error functions we use to judge how well a
// set of draws matches a distribution. Both sides are binned into the same
// histogram and normalised before comparison.
type DivergenceSuite struct {
	MeanAbsError float64
	MaxAbsError  float64
	Hellinger    float64
	JSDiverge    float64
	KS           float64
}

// NewDivergenceSuite bins samples into the given number of equal-width bins
// over the support of d and compares them to the mass d puts in each bin.
func NewDivergenceSuite(d Dist, samples []float64, bins int) (*DivergenceSuite, error) {
	if bins < 1 {
		return nil, errors.Errorf("Need at least one bin, got %d", bins)
	}
	if len(samples) < 1 {
		return nil, errors.Errorf("No samples to score")
	}

	min, max := d.Bounds()
	edges := floats.Span(make([]float64, bins+1), min, max)

	expected := make([]float64, bins)
	for i := 0; i < bins; i++ {
		expected[i] = CDF(d, edges[i+1]) - CDF(d, edges[i])
	}

	observed := make([]float64, bins)
	width := (max - min) / float64(bins)
	for _, s := range samples {
		if s < min || s > max {
			continue
		}
		b := int((s - min) / width)
		if b >= bins {
			b = bins - 1
		}
		observed[b]++
	}

	return &DivergenceSuite{
		MeanAbsError: MeanAbsDiff(observed, expected),
		MaxAbsError:  MaxAbsDiff(observed, expected),
		Hellinger:    HellingerDiff(observed, expected),
		JSDiverge:    JSDivergence(observed, expected),
		KS:           KSStatistic(d, samples),
	}, nil
}

// normed returns copies of p1 and p2 scaled to sum to 1
func normed(p1, p2 []float64) ([]float64, []float64) {
	const eps = 1e-12

	tot1 := math.Max(floats.Sum(p1), eps)
	tot2 := math.Max(floats.Sum(p2), eps)

	n1 := make([]float64, len(p1))
	n2 := make([]float64, len(p2))
	floats.ScaleTo(n1, 1/tot1, p1)
	floats.ScaleTo(n2, 1/tot2, p2)
	return n1, n2
}

// MaxAbsDiff returns the maximum difference found between the two
// (normalised) histograms
func MaxAbsDiff(p1, p2 []float64) float64 {
	n1, n2 := normed(p1, p2)
	maxErr := 0.0
	for i := range n1 {
		maxErr = math.Max(maxErr, math.Abs(n1[i]-n2[i]))
	}
	return maxErr
}

// MeanAbsDiff returns the mean of the differences found between the two
// histograms
func MeanAbsDiff(p1, p2 []float64) float64 {
	if len(p1) < 1 {
		return 0
	}
	n1, n2 := normed(p1, p2)
	return floats.Distance(n1, n2, 1) / float64(len(n1))
}

// HellingerDiff returns the Hellinger distance between the two histograms
func HellingerDiff(p1, p2 []float64) float64 {
	n1, n2 := normed(p1, p2)
	errSum := 0.0
	for i := range n1 {
		d := math.Sqrt(n1[i]) - math.Sqrt(n2[i])
		errSum += d * d
	}
	return math.Sqrt(errSum) / math.Sqrt2
}

// klDivergence is D_KL(P || Q) in bits over normalised arrays. Strictly a
// subroutine for JSDivergence.
func klDivergence(p, q []float64) float64 {
	diverge := 0.0
	for i, pi := range p {
		if pi == 0 {
			continue
		}
		diverge += pi * math.Log2(pi/q[i])
	}
	return diverge
}

// JSDivergence returns the Jensen-Shannon divergence, which is a symmetric
// generalisation of the KL divergence
func JSDivergence(p1, p2 []float64) float64 {
	n1, n2 := normed(p1, p2)
	mid := make([]float64, len(n1))
	for i := range mid {
		mid[i] = 0.5 * (n1[i] + n2[i])
	}
	return 0.5 * (klDivergence(n1, mid) + klDivergence(n2, mid))
}

// KSStatistic is the Kolmogorov-Smirnov distance between the empirical CDF
// of the samples and the CDF of d
func KSStatistic(d Dist, samples []float64) float64 {
	n := len(samples)
	if n == 0 {
		return 0
	}

	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)

	fn := float64(n)
	ks := 0.0
	for i, x := range sorted {
		c := CDF(d, x)
		ks = math.Max(ks, math.Max(float64(i+1)/fn-c, c-float64(i)/fn))
	}
	return ks
}
