package cmd

import (
	"log"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/CraigKelly/popinfer/dist"
	"github.com/CraigKelly/popinfer/population"
)

type sampleOptions struct {
	mass    string
	primary string
	params  []string
	n       int
	bins    int
}

func sampleCmd() *cobra.Command {
	opts := &sampleOptions{}

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Draw masses from a population model",
		Long: `Draw samples from a 2-D mass model (--mass) and print m1 m2 rows, or
from a 1-D primary model (--primary) and print one value per row.

Examples:
  popinfer sample --mass conditioned:PowerLaw -p alpha=2 -p mmin=5 -p mmax=60 -p beta=1
  popinfer sample --primary LowSmoothed-PowerLawPeak -p ... -n 5000 -v`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSample(sp, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.mass, "mass", "m", "", "2-D mass model description (see population.NewMassModel)")
	cmd.Flags().StringVar(&opts.primary, "primary", "", "1-D primary mass model name")
	cmd.Flags().StringArrayVarP(&opts.params, "param", "p", nil, "population parameter as name=value (repeatable)")
	cmd.Flags().IntVarP(&opts.n, "samples", "n", 1000, "number of draws")
	cmd.Flags().IntVar(&opts.bins, "bins", 50, "histogram bins for the sample quality report")

	return cmd
}

// primaryOf is implemented by the joint laws that carry a 1-D primary
type primaryOf interface {
	Primary() dist.Dist
}

func runSample(sp *startupParams, opts *sampleOptions) error {
	if (opts.mass == "") == (opts.primary == "") {
		return errors.New("Exactly one of --mass or --primary is required")
	}
	if opts.n < 1 {
		return errors.Errorf("Need at least one sample, got %d", opts.n)
	}
	params, err := parseParams(opts.params)
	if err != nil {
		return err
	}
	gen, err := sp.generator()
	if err != nil {
		return err
	}

	if opts.primary != "" {
		m, err := population.NewPrimaryModel(opts.primary)
		if err != nil {
			return err
		}
		if err := m.Update(params); err != nil {
			return errors.Wrapf(err, "Could not update %s", opts.primary)
		}
		xs, err := dist.Sample(m.Prior(), gen, opts.n)
		if err != nil {
			return err
		}
		for _, x := range xs {
			sp.out.Printf("%.6g\n", x)
		}
		return sampleReport(sp.trace, m.Prior(), xs, opts.bins)
	}

	mm, err := population.NewMassModel(opts.mass, gen)
	if err != nil {
		return err
	}
	pm, ok := mm.(population.PairModel)
	if !ok {
		return errors.Errorf("Mass model %s can not be sampled", opts.mass)
	}
	if err := pm.Update(params); err != nil {
		return errors.Wrapf(err, "Could not update %s", opts.mass)
	}

	m1, m2, err := pm.Prior().Sample(gen, opts.n)
	if err != nil {
		return err
	}
	for i := range m1 {
		sp.out.Printf("%.6g %.6g\n", m1[i], m2[i])
	}

	if p, ok := pm.Prior().(primaryOf); ok {
		return sampleReport(sp.trace, p.Primary(), m1, opts.bins)
	}
	return nil
}

// sampleReport scores the draws against the distribution they came from
func sampleReport(out *log.Logger, d dist.Dist, xs []float64, bins int) error {
	score, err := dist.NewDivergenceSuite(d, xs, bins)
	if err != nil {
		return err
	}
	out.Printf(
		"Samples:%d | MeanAE:%8.5f MaxAE:%8.5f Hel:%8.5f JSD:%8.5f KS:%8.5f\n",
		len(xs),
		score.MeanAbsError,
		score.MaxAbsError,
		score.Hellinger,
		score.JSDiverge,
		score.KS,
	)
	return nil
}
