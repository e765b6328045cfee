package dist

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/interp"

	"github.com/CraigKelly/popinfer/window"
)

// IntegrationPoints is the grid size for the trapezoid integrals and CDF
// tables built by the smoothing decorators
const IntegrationPoints = 1000

// segment is a span where the window differs from 1. The CDF inside it comes
// from a table; everywhere else it follows the origin CDF shifted by the mass
// the earlier segments gained or lost.
type segment struct {
	lo, hi float64
	before float64 // origin mass in [lo, hi]
	now    float64 // windowed origin mass in [lo, hi]
	table  interp.PiecewiseLinear
}

// windowed multiplies an origin distribution by a window and renormalises
type windowed struct {
	support
	origin   Dist
	window   func(x float64) float64
	segments []segment
	norm     float64
	logNorm  float64
}

// build computes the integrals and CDF tables. spans must be sorted and
// disjoint; empty spans are skipped.
func (w *windowed) build(origin Dist, win func(float64) float64, spans [][2]float64) error {
	min, max := origin.Bounds()
	w.support = support{min: min, max: max}
	w.origin = origin
	w.window = win

	totBefore, totNow := 0.0, 0.0
	for _, sp := range spans {
		if !(sp[1] > sp[0]) {
			continue
		}
		xs := floats.Span(make([]float64, IntegrationPoints), sp[0], sp[1])
		raw := PDFEach(origin, xs)
		shaped := make([]float64, len(xs))
		for i, x := range xs {
			shaped[i] = raw[i] * win(x)
		}

		seg := segment{
			lo:     sp[0],
			hi:     sp[1],
			before: integrate.Trapezoidal(xs, raw),
			now:    integrate.Trapezoidal(xs, shaped),
		}
		totBefore += seg.before
		totNow += seg.now
		w.segments = append(w.segments, seg)
	}

	w.norm = 1 - totBefore + totNow
	if !(w.norm > 0) {
		return errors.Errorf("Window removes all probability mass (norm=%v)", w.norm)
	}
	w.logNorm = math.Log(w.norm)

	accBefore, accNow := 0.0, 0.0
	for k := range w.segments {
		seg := &w.segments[k]
		xs := floats.Span(make([]float64, IntegrationPoints), seg.lo, seg.hi)
		ys := make([]float64, len(xs))
		ys[0] = (CDF(origin, seg.lo) - accBefore + accNow) / w.norm
		for i := 1; i < len(xs); i++ {
			mid := 0.5 * (xs[i-1] + xs[i])
			ys[i] = ys[i-1] + math.Exp(w.LogPDF(mid))*(xs[i]-xs[i-1])
		}
		if err := seg.table.Fit(xs, ys); err != nil {
			return errors.Wrapf(err, "Could not tabulate CDF on [%v, %v]", seg.lo, seg.hi)
		}
		accBefore += seg.before
		accNow += seg.now
	}

	return nil
}

// Origin returns the distribution being shaped
func (w *windowed) Origin() Dist { return w.origin }

// Norm is the renormalisation applied after windowing
func (w *windowed) Norm() float64 { return w.norm }

func (w *windowed) LogPDF(x float64) float64 {
	if w.outside(x) {
		return math.Inf(-1)
	}
	return w.origin.LogPDF(x) + math.Log(w.window(x)) - w.logNorm
}

func (w *windowed) LogCDF(x float64) float64 {
	if v, done := w.clampCDF(x); done {
		return v
	}

	accBefore, accNow := 0.0, 0.0
	for i := range w.segments {
		seg := &w.segments[i]
		if x < seg.lo {
			break
		}
		if x <= seg.hi {
			return logClip(seg.table.Predict(x))
		}
		accBefore += seg.before
		accNow += seg.now
	}

	c := (CDF(w.origin, x) - accBefore + accNow) / w.norm
	return logClip(math.Min(c, 1))
}

// LowpassSmoothed multiplies an origin by a high-pass window of width
// bottomSmooth at its lower edge, so the density turns on smoothly.
type LowpassSmoothed struct {
	windowed
	bottomSmooth float64
}

// NewLowpassSmoothed requires 0 <= bottomSmooth < max-min. A zero width
// leaves the origin unchanged.
func NewLowpassSmoothed(origin Dist, bottomSmooth float64) (*LowpassSmoothed, error) {
	min, max := origin.Bounds()
	if !(bottomSmooth >= 0) || bottomSmooth >= max-min {
		return nil, errors.Errorf("Smoothing width %v must be in [0, %v)", bottomSmooth, max-min)
	}

	s := &LowpassSmoothed{bottomSmooth: bottomSmooth}
	win := func(x float64) float64 {
		return window.Highpass(x, min, bottomSmooth)
	}
	if err := s.build(origin, win, [][2]float64{{min, min + bottomSmooth}}); err != nil {
		return nil, err
	}
	return s, nil
}

// BottomSmooth is the width of the turn-on window
func (s *LowpassSmoothed) BottomSmooth() float64 { return s.bottomSmooth }

// DipParams shape a SmoothedDip
type DipParams struct {
	BottomSmooth   float64
	TopSmooth      float64
	LeftDip        float64
	RightDip       float64
	LeftDipSmooth  float64
	RightDipSmooth float64
	Depth          float64
}

// SmoothedDip applies a turn-on window at the bottom, a turn-off window at
// the top and a notch that suppresses a fraction Depth of the density in
// [LeftDip, RightDip].
type SmoothedDip struct {
	windowed
	params DipParams
}

// NewSmoothedDip validates the window layout and builds the tables
func NewSmoothedDip(origin Dist, p DipParams) (*SmoothedDip, error) {
	min, max := origin.Bounds()

	switch {
	case p.BottomSmooth < 0 || p.TopSmooth < 0 || p.LeftDipSmooth < 0 || p.RightDipSmooth < 0:
		return nil, errors.Errorf("Window widths must be >= 0: %+v", p)
	case !(p.Depth >= 0 && p.Depth <= 1):
		return nil, errors.Errorf("Dip depth must be in [0, 1], got %v", p.Depth)
	case p.Depth > 0 && !(p.LeftDipSmooth > 0 && p.RightDipSmooth > 0):
		return nil, errors.Errorf("Dip edges need a positive smoothing width when depth > 0: %+v", p)
	case !(p.LeftDip < p.RightDip):
		return nil, errors.Errorf("Dip left edge %v must be below right edge %v", p.LeftDip, p.RightDip)
	case p.LeftDip < min+p.BottomSmooth:
		return nil, errors.Errorf("Dip starts at %v inside the bottom window ending at %v", p.LeftDip, min+p.BottomSmooth)
	case p.RightDip > max-p.TopSmooth:
		return nil, errors.Errorf("Dip ends at %v inside the top window starting at %v", p.RightDip, max-p.TopSmooth)
	}

	s := &SmoothedDip{params: p}
	win := func(x float64) float64 {
		return window.Highpass(x, min, p.BottomSmooth) *
			window.Lowpass(x, max, p.TopSmooth) *
			window.Notch(x, p.LeftDip, p.LeftDipSmooth, p.RightDip, p.RightDipSmooth, p.Depth)
	}
	spans := [][2]float64{
		{min, min + p.BottomSmooth},
		{p.LeftDip, p.RightDip},
		{max - p.TopSmooth, max},
	}
	if err := s.build(origin, win, spans); err != nil {
		return nil, err
	}
	return s, nil
}

// Params returns the window layout
func (s *SmoothedDip) Params() DipParams { return s.params }
