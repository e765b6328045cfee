package cmd

import (
	"math"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"
	"gopkg.in/yaml.v3"

	"github.com/CraigKelly/popinfer/catalog"
	"github.com/CraigKelly/popinfer/likelihood"
	"github.com/CraigKelly/popinfer/population"
)

type scanOptions struct {
	monitor bool
	addr    string
}

func scanCmd() *cobra.Command {
	opts := &scanOptions{}

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan the likelihood of a simulated catalog along one parameter",
		Long: `Simulate a catalog at the truth parameters of the run config, build the
hierarchical likelihood and evaluate it at the truth and along the scan
parameter. Each row is: value logL outcome variance.

Example run config:

  rate: PowerLaw
  mass: conditioned:PowerLaw
  truth: [alpha=2.5, mmin=5, mmax=60, beta=1, gamma=2, R0=20]
  scan: {parameter: alpha, min: 1.5, max: 3.5, points: 21}
  likelihood: {neff_pe: 10}`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadRunConfig(sp.cfgFile)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("monitor") {
				cfg.Monitor.Enabled = opts.monitor
			}
			if cmd.Flags().Changed("addr") {
				cfg.Monitor.Addr = opts.addr
			}
			return runScan(sp, cfg)
		},
	}

	cmd.Flags().BoolVar(&opts.monitor, "monitor", false, "serve progress counters over HTTP")
	cmd.Flags().StringVar(&opts.addr, "addr", DefaultMonitorAddr, "monitor listen address")

	return cmd
}

// scanRow is one evaluated point
type scanRow struct {
	value   float64
	logL    float64
	outcome likelihood.Outcome
}

func runScan(sp *startupParams, cfg *RunConfig) error {
	if sp.verbose {
		dump, err := yaml.Marshal(cfg)
		if err != nil {
			return errors.Wrapf(err, "Could not render config")
		}
		sp.trace.Printf("Run config:\n%s", dump)
	}

	truth, err := cfg.TruthParams()
	if err != nil {
		return err
	}
	gen, err := sp.generator()
	if err != nil {
		return err
	}

	rm, err := population.NewRateModel(cfg.Rate)
	if err != nil {
		return err
	}
	mm, err := population.NewMassModel(cfg.Mass, gen)
	if err != nil {
		return err
	}
	cbc, err := population.NewCBCRate(rm, mm, nil, cfg.ScaleFree)
	if err != nil {
		return err
	}
	if err := cbc.Update(truth); err != nil {
		return errors.Wrapf(err, "Could not set truth")
	}
	pm, ok := mm.(population.PairModel)
	if !ok {
		return errors.Errorf("Mass model %s can not be simulated", cfg.Mass)
	}

	sp.trace.Printf("Simulating %d events from %s at %v\n", cfg.Simulation.Events, cfg.Mass, formatParams(truth))
	r := rm.Rate()
	zWeight := func(z float64) float64 { return r.Evaluate(z) / (1 + z) }
	post, inj, err := catalog.Simulate(cfg.Simulation.SimConfig(), pm.Prior(), zWeight, gen)
	if err != nil {
		return err
	}
	sp.trace.Printf("Detected %d of %d injections\n", inj.Len(), int(inj.NTotal()))

	lcfg := cfg.Likelihood.Config()
	lcfg.Logger = sp.trace
	ev, err := likelihood.NewEvaluator(post, inj, cbc, lcfg, gen)
	if err != nil {
		return err
	}

	mon := &monitor{}
	if cfg.Monitor.Enabled {
		if err := mon.Start(cfg.Monitor.Addr, sp.trace); err != nil {
			return err
		}
		defer mon.Stop()
	}

	eval := func(params map[string]float64) (float64, error) {
		logL, err := ev.LogLikelihood(params)
		mon.Update(ev, logL)
		if errors.Is(err, likelihood.ErrInfiniteLikelihood) {
			return logL, err
		}
		if err != nil {
			sp.trace.Printf("Evaluation failed at %v: %v\n", formatParams(params), err)
		}
		return logL, nil
	}

	logL, err := eval(truth)
	if err != nil {
		return err
	}
	sp.out.Printf("truth logL=%.6g outcome=%v variance=%.4g\n", logL, ev.LastOutcome(), ev.LastVariance())

	if cfg.Scan.Parameter == "" {
		return nil
	}

	var rows []scanRow
	for _, x := range floats.Span(make([]float64, cfg.Scan.Points), cfg.Scan.Min, cfg.Scan.Max) {
		params := make(map[string]float64, len(truth))
		for k, v := range truth {
			params[k] = v
		}
		params[cfg.Scan.Parameter] = x

		logL, err := eval(params)
		if err != nil {
			return errors.Wrapf(err, "At %s=%v", cfg.Scan.Parameter, x)
		}
		rows = append(rows, scanRow{value: x, logL: logL, outcome: ev.LastOutcome()})
		sp.out.Printf("%s=%.6g logL=%.6g outcome=%v variance=%.4g\n", cfg.Scan.Parameter, x, logL, ev.LastOutcome(), ev.LastVariance())
	}

	best := bestRow(rows)
	if best < 0 {
		sp.out.Printf("No accepted points along %s\n", cfg.Scan.Parameter)
	} else {
		sp.out.Printf("Best %s=%.6g logL=%.6g (truth %v)\n", cfg.Scan.Parameter, rows[best].value, rows[best].logL, truth[cfg.Scan.Parameter])
	}
	s := ev.Stats()
	sp.trace.Printf("Evaluations:%d Accepted:%d Acceptance:%.3f\n", s.Evaluations, s.Count(likelihood.OutcomeAccepted), s.Acceptance())
	return nil
}

// bestRow is the index of the accepted row with the largest log likelihood,
// -1 if none was accepted
func bestRow(rows []scanRow) int {
	best, bestL := -1, math.Inf(-1)
	for i, r := range rows {
		if r.outcome != likelihood.OutcomeAccepted {
			continue
		}
		if best < 0 || r.logL > bestL {
			best, bestL = i, r.logL
		}
	}
	return best
}
