package catalog

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/CraigKelly/popinfer/dist"
	"github.com/CraigKelly/popinfer/joint"
)

// SimConfig describes a synthetic catalog. Detection uses a toy SNR that
// grows with total mass and falls with redshift:
//
//	snr = 8 * ((m1+m2)/20)^(5/6) * (0.3/z)
type SimConfig struct {
	Events          int
	Injections      int
	SamplesPerEvent int
	Tobs            float64
	ZMax            float64
	MassMin         float64
	MassMax         float64
	SNRThreshold    float64
	Scatter         float64 // fractional measurement scatter of the posterior samples
	MaxDraws        int     // cap on population draws while looking for detections
}

// Validate checks the configuration
func (c SimConfig) Validate() error {
	switch {
	case c.Events < 1:
		return errors.Errorf("Need at least one event, got %d", c.Events)
	case c.Injections < 1:
		return errors.Errorf("Need at least one injection, got %d", c.Injections)
	case c.SamplesPerEvent < 1:
		return errors.Errorf("Need at least one sample per event, got %d", c.SamplesPerEvent)
	case !(c.Tobs > 0):
		return errors.Errorf("Observing time must be positive, got %v", c.Tobs)
	case !(c.ZMax > 0):
		return errors.Errorf("Maximum redshift must be positive, got %v", c.ZMax)
	case !(c.MassMin > 0) || !(c.MassMax > c.MassMin):
		return errors.Errorf("Bad injection mass range [%v, %v]", c.MassMin, c.MassMax)
	case !(c.Scatter > 0):
		return errors.Errorf("Scatter must be positive, got %v", c.Scatter)
	}
	return nil
}

// SNR is the toy signal-to-noise ratio used for detection
func SNR(m1, m2, z float64) float64 {
	return 8 * math.Pow((m1+m2)/20, 5.0/6.0) * 0.3 / z
}

// Simulate draws a detected catalog from the mass sampler and the redshift
// weight, plus an injection campaign from a broad reference population.
func Simulate(cfg SimConfig, masses joint.Sampler, zWeight func(z float64) float64, src dist.Source) (*Posteriors, *Injections, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	zs, err := newRejection(zWeight, 0, cfg.ZMax)
	if err != nil {
		return nil, nil, err
	}

	maxDraws := cfg.MaxDraws
	if maxDraws < 1 {
		maxDraws = 1000 * cfg.Events
	}

	var events []Event
	const batch = 256
	for drawn := 0; len(events) < cfg.Events; drawn += batch {
		if drawn >= maxDraws {
			return nil, nil, errors.Errorf("Only %d of %d events detected after %d draws", len(events), cfg.Events, drawn)
		}
		m1, m2, err := masses.Sample(src, batch)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "Could not sample masses")
		}
		for i := range m1 {
			z := zs.draw(src)
			if SNR(m1[i], m2[i], z) < cfg.SNRThreshold {
				continue
			}
			name := fmt.Sprintf("SIM%04d", len(events))
			events = append(events, scatterEvent(name, m1[i], m2[i], z, cfg, src))
			if len(events) == cfg.Events {
				break
			}
		}
	}

	post, err := NewPosteriors(events)
	if err != nil {
		return nil, nil, err
	}

	inj, err := injectionCampaign(cfg, src)
	if err != nil {
		return nil, nil, err
	}
	return post, inj, nil
}

func normal(src dist.Source) float64 {
	u := src.Float64()
	if u == 0 {
		u = math.SmallestNonzeroFloat64
	}
	return distuv.UnitNormal.Quantile(u)
}

// scatterEvent builds posterior samples around the true source under a flat
// sampling prior
func scatterEvent(name string, m1, m2, z float64, cfg SimConfig, src dist.Source) Event {
	n := cfg.SamplesPerEvent
	s1 := make([]float64, 0, n)
	s2 := make([]float64, 0, n)
	sz := make([]float64, 0, n)
	for len(s1) < n {
		a := m1 * (1 + cfg.Scatter*normal(src))
		b := m2 * (1 + cfg.Scatter*normal(src))
		c := z * (1 + cfg.Scatter*normal(src))
		if a <= 0 || b <= 0 || c <= 0 {
			continue
		}
		if b > a {
			a, b = b, a
		}
		s1 = append(s1, a)
		s2 = append(s2, b)
		sz = append(sz, c)
	}

	prior := make([]float64, n)
	for i := range prior {
		prior[i] = 1
	}
	return Event{
		Name:    name,
		Samples: Columns{ColMass1: s1, ColMass2: s2, ColRedshift: sz},
		Prior:   prior,
	}
}

// injectionCampaign draws m1 uniform, m2 uniform below m1 and z uniform,
// keeping the detected ones
func injectionCampaign(cfg SimConfig, src dist.Source) (*Injections, error) {
	var m1s, m2s, zs, prior []float64
	span := cfg.MassMax - cfg.MassMin
	for i := 0; i < cfg.Injections; i++ {
		m1 := cfg.MassMin + span*src.Float64()
		m2 := cfg.MassMin + (m1-cfg.MassMin)*src.Float64()
		z := cfg.ZMax * src.Float64()
		if z == 0 || m1 == cfg.MassMin || SNR(m1, m2, z) < cfg.SNRThreshold {
			continue
		}
		m1s = append(m1s, m1)
		m2s = append(m2s, m2)
		zs = append(zs, z)
		prior = append(prior, 1/(span*(m1-cfg.MassMin)*cfg.ZMax))
	}

	cols := Columns{ColMass1: m1s, ColMass2: m2s, ColRedshift: zs}
	return NewInjections(cols, prior, cfg.Injections, cfg.Tobs)
}

// rejection samples a 1-D weight on [lo, hi] under a flat envelope
type rejection struct {
	weight func(float64) float64
	lo, hi float64
	bound  float64
}

func newRejection(weight func(float64) float64, lo, hi float64) (*rejection, error) {
	const grid = 1000
	bound := 0.0
	for i := 0; i <= grid; i++ {
		w := weight(lo + (hi-lo)*float64(i)/grid)
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, errors.Errorf("Redshift weight must be finite and >= 0, got %v", w)
		}
		bound = math.Max(bound, w)
	}
	if !(bound > 0) {
		return nil, errors.Errorf("Redshift weight is zero on [%v, %v]", lo, hi)
	}
	return &rejection{weight: weight, lo: lo, hi: hi, bound: 1.05 * bound}, nil
}

func (r *rejection) draw(src dist.Source) float64 {
	for {
		z := r.lo + (r.hi-r.lo)*src.Float64()
		if z > 0 && src.Float64()*r.bound < r.weight(z) {
			return z
		}
	}
}
