package cmd

import (
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// parseParams turns k=v pairs into a parameter map. Later pairs win.
func parseParams(pairs []string) (map[string]float64, error) {
	params := make(map[string]float64, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, errors.Errorf("Parameter %q is not of the form name=value", p)
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "Parameter %s", k)
		}
		params[k] = f
	}
	return params, nil
}

// formatParams is the inverse of parseParams, sorted by name
func formatParams(params map[string]float64) []string {
	out := make([]string, 0, len(params))
	for k, v := range params {
		out = append(out, k+"="+strconv.FormatFloat(v, 'g', -1, 64))
	}
	sort.Strings(out)
	return out
}
