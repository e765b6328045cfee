// Package population holds the parametric population models that the
// hierarchical likelihood pushes hyper-parameters into. Each model names the
// parameters it reads and rebuilds its distributions on Update; CBCRate
// bundles a rate, mass and optional spin model into the per-sample rate the
// catalog reweights.
package population

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/CraigKelly/popinfer/catalog"
)

// ErrMissingParameter is returned (wrapped with the key) when Update does not
// find a parameter it needs
var ErrMissingParameter = errors.New("Missing population parameter")

// Model is anything configured by named hyper-parameters
type Model interface {
	Parameters() []string
	Update(params map[string]float64) error
}

// MassModel computes the log mass density for every sample
type MassModel interface {
	Model
	LogMass(cols catalog.Columns) ([]float64, error)
}

// SpinModel computes the log spin density for every sample
type SpinModel interface {
	Model
	EventParameters() []string
	LogPDF(cols catalog.Columns) ([]float64, error)
}

// values looks up every key in order
func values(params map[string]float64, keys ...string) ([]float64, error) {
	out := make([]float64, len(keys))
	for i, k := range keys {
		v, ok := params[k]
		if !ok {
			return nil, errors.Wrapf(ErrMissingParameter, "%s", k)
		}
		out[i] = v
	}
	return out, nil
}

// subset copies the listed keys, failing on the first missing one
func subset(params map[string]float64, keys []string) (map[string]float64, error) {
	out := make(map[string]float64, len(keys))
	for _, k := range keys {
		v, ok := params[k]
		if !ok {
			return nil, errors.Wrapf(ErrMissingParameter, "%s", k)
		}
		out[k] = v
	}
	return out, nil
}

// numbered returns prefix0 .. prefix{n-1}
func numbered(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s%d", prefix, i)
	}
	return out
}

// appendNew appends the keys not already present
func appendNew(list []string, keys ...string) []string {
	seen := make(map[string]bool, len(list))
	for _, k := range list {
		seen[k] = true
	}
	for _, k := range keys {
		if !seen[k] {
			list = append(list, k)
			seen[k] = true
		}
	}
	return list
}
