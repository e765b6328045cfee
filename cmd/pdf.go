package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"

	"github.com/CraigKelly/popinfer/catalog"
	"github.com/CraigKelly/popinfer/population"
)

type pdfOptions struct {
	mass   string
	params []string
	grid   int
	lo, hi float64
	z      float64
}

func pdfCmd() *cobra.Command {
	opts := &pdfOptions{}

	cmd := &cobra.Command{
		Use:   "pdf",
		Short: "Print the log density of a mass model on a grid",
		Long: `Evaluate a mass model on an N x N grid over [lo, hi] for m2 <= m1 and
print m1 m2 logpdf rows. Redshift evolving models are evaluated at --z.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPDF(sp, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.mass, "mass", "m", "", "mass model description")
	cmd.Flags().StringArrayVarP(&opts.params, "param", "p", nil, "population parameter as name=value (repeatable)")
	cmd.Flags().IntVarP(&opts.grid, "grid", "g", 50, "grid points per side")
	cmd.Flags().Float64Var(&opts.lo, "lo", 2, "lowest mass on the grid")
	cmd.Flags().Float64Var(&opts.hi, "hi", 100, "highest mass on the grid")
	cmd.Flags().Float64Var(&opts.z, "z", 0.5, "redshift for evolving models")
	cmd.MarkFlagRequired("mass")

	return cmd
}

func runPDF(sp *startupParams, opts *pdfOptions) error {
	if opts.grid < 2 {
		return errors.Errorf("Grid needs at least 2 points per side, got %d", opts.grid)
	}
	if !(opts.hi > opts.lo) {
		return errors.Errorf("Bad grid range [%v, %v]", opts.lo, opts.hi)
	}
	params, err := parseParams(opts.params)
	if err != nil {
		return err
	}
	gen, err := sp.generator()
	if err != nil {
		return err
	}

	mm, err := population.NewMassModel(opts.mass, gen)
	if err != nil {
		return err
	}
	if err := mm.Update(params); err != nil {
		return errors.Wrapf(err, "Could not update %s", opts.mass)
	}

	axis := floats.Span(make([]float64, opts.grid), opts.lo, opts.hi)
	cols := catalog.Columns{}
	for _, m1 := range axis {
		for _, m2 := range axis {
			if m2 > m1 {
				break
			}
			cols[catalog.ColMass1] = append(cols[catalog.ColMass1], m1)
			cols[catalog.ColMass2] = append(cols[catalog.ColMass2], m2)
			cols[catalog.ColRedshift] = append(cols[catalog.ColRedshift], opts.z)
		}
	}
	sp.trace.Printf("Evaluating %s on %d grid points\n", opts.mass, len(cols[catalog.ColMass1]))

	lp, err := mm.LogMass(cols)
	if err != nil {
		return err
	}
	for i, v := range lp {
		sp.out.Printf("%.6g %.6g %.6g\n", cols[catalog.ColMass1][i], cols[catalog.ColMass2][i], v)
	}
	return nil
}
