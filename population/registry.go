package population

import (
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/CraigKelly/popinfer/dist"
)

// LowSmoothedPrefix in front of a primary name wraps it in LowSmoothed
const LowSmoothedPrefix = "LowSmoothed-"

var rateModels = map[string]func() RateModel{
	"PowerLaw":   func() RateModel { return &RatePowerLaw{} },
	"Madau":      func() RateModel { return &RateMadau{} },
	"MadauGamma": func() RateModel { return &RateMadauGamma{} },
}

var primaryModels = map[string]func() PrimaryModel{
	"PowerLaw":                      func() PrimaryModel { return &MassPowerLaw{} },
	"PowerLawPeak":                  func() PrimaryModel { return &MassPowerLawPeak{} },
	"BrokenPowerLaw":                func() PrimaryModel { return &MassBrokenPowerLaw{} },
	"MultiPeak":                     func() PrimaryModel { return &MassMultiPeak{} },
	"BrokenPowerLawMultiPeak":       func() PrimaryModel { return &MassBrokenPowerLawMultiPeak{} },
	"BrokenPowerLawTripleMultiPeak": func() PrimaryModel { return &MassBrokenPowerLawTripleMultiPeak{} },
	"MassRatioGaussian":             func() PrimaryModel { return &MassRatioGaussian{} },
	"MassRatioPowerLaw":             func() PrimaryModel { return &MassRatioPowerLaw{} },
}

var spinModels = map[string]func() SpinModel{
	"Default":            func() SpinModel { return &SpinDefault{} },
	"Gaussian":           func() SpinModel { return &SpinGaussian{} },
	"ECO":                func() SpinModel { return NewSpinECO() },
	"EvolvingGaussian":   func() SpinModel { return &SpinEvolvingGaussian{} },
	"BetaWindowGaussian": func() SpinModel { return &SpinBetaWindowGaussian{} },
	"BetaWindowBeta":     func() SpinModel { return &SpinBetaWindowBeta{} },
}

var transitions = map[string]Transition{
	"linear":  TransitionLinear,
	"sigmoid": TransitionSigmoid,
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RateModelNames lists the registered redshift evolution models
func RateModelNames() []string { return sortedKeys(rateModels) }

// PrimaryModelNames lists the registered 1-D mass models
func PrimaryModelNames() []string { return sortedKeys(primaryModels) }

// SpinModelNames lists the registered spin models
func SpinModelNames() []string { return sortedKeys(spinModels) }

// NewRateModel builds a redshift evolution model by name
func NewRateModel(name string) (RateModel, error) {
	f, ok := rateModels[name]
	if !ok {
		return nil, errors.Errorf("Unknown rate model %s (have %s)", name, strings.Join(RateModelNames(), ", "))
	}
	return f(), nil
}

// NewSpinModel builds a spin model by name
func NewSpinModel(name string) (SpinModel, error) {
	f, ok := spinModels[name]
	if !ok {
		return nil, errors.Errorf("Unknown spin model %s (have %s)", name, strings.Join(SpinModelNames(), ", "))
	}
	return f(), nil
}

// NewPrimaryModel builds a 1-D mass model by name, optionally prefixed with
// LowSmoothed-
func NewPrimaryModel(name string) (PrimaryModel, error) {
	if inner, ok := strings.CutPrefix(name, LowSmoothedPrefix); ok {
		m, err := NewPrimaryModel(inner)
		if err != nil {
			return nil, err
		}
		return NewLowSmoothed(m), nil
	}
	f, ok := primaryModels[name]
	if !ok {
		return nil, errors.Errorf("Unknown mass model %s (have %s)", name, strings.Join(PrimaryModelNames(), ", "))
	}
	return f(), nil
}

// NewMassModel builds a mass model from a colon separated description:
//
//	conditioned:<primary>
//	conditioned-lowpass:<primary>
//	paired:<primary>
//	paired-dip:<primary>
//	paired-dip-farah
//	paired-multidip
//	conditioned-multidip
//	ratio:<primary>:<mass ratio>
//	bin2d:<bins per side>
//	gaussian-evolving:<order>
//	powerlaw-gaussian-evolving[:linear|sigmoid|fixed][:smoothed]
//	evolving-powerlaw-peak:<primary>
//
// src feeds the Monte-Carlo normalisation of the paired models and must not
// be nil for them.
func NewMassModel(desc string, src dist.Source) (MassModel, error) {
	parts := strings.Split(desc, ":")
	kind, args := parts[0], parts[1:]

	switch kind {
	case "paired", "paired-dip", "paired-dip-farah", "paired-multidip":
		if src == nil {
			return nil, errors.Errorf("Mass model %s needs a random source", desc)
		}
	}
	noArgs := func() error {
		if len(args) != 0 {
			return errors.Errorf("Mass model %s takes no arguments", desc)
		}
		return nil
	}

	primary := func() (PrimaryModel, error) {
		if len(args) != 1 {
			return nil, errors.Errorf("Mass model %s needs exactly one primary model", desc)
		}
		return NewPrimaryModel(args[0])
	}
	count := func() (int, error) {
		if len(args) != 1 {
			return 0, errors.Errorf("Mass model %s needs exactly one integer", desc)
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return 0, errors.Wrapf(err, "Mass model %s", desc)
		}
		return n, nil
	}

	switch kind {
	case "conditioned":
		p, err := primary()
		if err != nil {
			return nil, err
		}
		return NewConditioned(p), nil

	case "conditioned-lowpass":
		p, err := primary()
		if err != nil {
			return nil, err
		}
		return NewConditionedLowpass(p), nil

	case "paired":
		p, err := primary()
		if err != nil {
			return nil, err
		}
		return NewPaired(p, src), nil

	case "paired-dip":
		p, err := primary()
		if err != nil {
			return nil, err
		}
		return NewPairedMassRatioDip(p, src), nil

	case "paired-dip-farah":
		if err := noArgs(); err != nil {
			return nil, err
		}
		return NewPairedMassRatioDipFarah(src), nil

	case "paired-multidip":
		if err := noArgs(); err != nil {
			return nil, err
		}
		return NewPairedMassRatioMultiDip(src), nil

	case "conditioned-multidip":
		if err := noArgs(); err != nil {
			return nil, err
		}
		return NewConditionedMassRatioMultiDip(), nil

	case "ratio":
		if len(args) != 2 {
			return nil, errors.Errorf("Mass model %s needs a primary and a mass ratio model", desc)
		}
		p, err := NewPrimaryModel(args[0])
		if err != nil {
			return nil, err
		}
		q, err := NewPrimaryModel(args[1])
		if err != nil {
			return nil, err
		}
		return NewPrimaryRatio(p, q), nil

	case "bin2d":
		n, err := count()
		if err != nil {
			return nil, err
		}
		m, err := NewBinModel2D(n)
		if err != nil {
			return nil, err
		}
		return m, nil

	case "gaussian-evolving":
		n, err := count()
		if err != nil {
			return nil, err
		}
		m, err := NewGaussianEvolving(n)
		if err != nil {
			return nil, err
		}
		return m, nil

	case "powerlaw-gaussian-evolving":
		transition, evolving, smoothing := TransitionLinear, true, false
		for _, a := range args {
			if t, ok := transitions[a]; ok {
				transition = t
				continue
			}
			switch a {
			case "fixed":
				evolving = false
			case "smoothed":
				smoothing = true
			default:
				return nil, errors.Errorf("Unknown option %s in mass model %s", a, desc)
			}
		}
		return NewPowerLawGaussianEvolving(transition, smoothing, evolving), nil

	case "evolving-powerlaw-peak":
		p, err := primary()
		if err != nil {
			return nil, err
		}
		return NewEvolvingPowerLawPeak(p), nil
	}

	return nil, errors.Errorf("Unknown mass model kind %s", kind)
}
