package joint

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/CraigKelly/popinfer/dist"
)

// BivariateProposals is the fixed number of uniform proposals the bivariate
// Gaussian sampler resamples from
const BivariateProposals = 10000

// BivariateGaussian is a correlated 2-D normal written as a truncated
// marginal in x1 times a truncated conditional in x2. Each factor is
// renormalised on its own window, so the result is a proper density on the
// box [x1min, x1max] x [x2min, x2max].
type BivariateGaussian struct {
	x1min, x1max float64
	x2min, x2max float64
	x2mean       float64
	var1, cov12  float64
	condSigma    float64
	marginal     distuv.Normal
	logNorm1     float64
}

// NewBivariateGaussian requires a positive definite covariance and windows
// holding marginal mass
func NewBivariateGaussian(x1min, x1max, x1mean, x2min, x2max, x2mean, var1, cov12, var2 float64) (*BivariateGaussian, error) {
	if !(x1max > x1min) || !(x2max > x2min) {
		return nil, errors.Errorf("Empty window [%v, %v] x [%v, %v]", x1min, x1max, x2min, x2max)
	}

	cov := mat.NewSymDense(2, []float64{var1, cov12, cov12, var2})
	var chol mat.Cholesky
	if ok := chol.Factorize(cov); !ok {
		return nil, errors.Errorf("Covariance [[%v %v] [%v %v]] is not positive definite", var1, cov12, cov12, var2)
	}

	marginal := distuv.Normal{Mu: x1mean, Sigma: math.Sqrt(var1)}
	norm1 := marginal.CDF(x1max) - marginal.CDF(x1min)
	if !(norm1 > 0) {
		return nil, errors.Errorf("Marginal N(%v, %v) has no mass in [%v, %v]", x1mean, var1, x1min, x1max)
	}

	return &BivariateGaussian{
		x1min:     x1min,
		x1max:     x1max,
		x2min:     x2min,
		x2max:     x2max,
		x2mean:    x2mean,
		var1:      var1,
		cov12:     cov12,
		condSigma: math.Sqrt(var2 - cov12*cov12/var1),
		marginal:  marginal,
		logNorm1:  math.Log(norm1),
	}, nil
}

func (b *BivariateGaussian) LogPDF(x1, x2 float64) float64 {
	if x1 < b.x1min || x1 > b.x1max || x2 < b.x2min || x2 > b.x2max {
		return math.Inf(-1)
	}

	cond := distuv.Normal{
		Mu:    b.x2mean + b.cov12/b.var1*(x1-b.marginal.Mu),
		Sigma: b.condSigma,
	}
	norm2 := cond.CDF(b.x2max) - cond.CDF(b.x2min)
	if !(norm2 > 0) {
		return math.Inf(-1)
	}

	v := b.marginal.LogProb(x1) - b.logNorm1 + cond.LogProb(x2) - math.Log(norm2)
	return sanitize(v)
}

// Sample resamples BivariateProposals uniform draws over the box
func (b *BivariateGaussian) Sample(src dist.Source, n int) ([]float64, []float64, error) {
	return resampleBox(b, src, n, BivariateProposals, b.x1min, b.x1max, b.x2min, b.x2max)
}
