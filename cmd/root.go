package cmd

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/CraigKelly/popinfer/rand"
)

// startupParams are the persistent flags plus the loggers every command
// writes through
type startupParams struct {
	cfgFile    string
	verbose    bool
	randomSeed int64

	out   *log.Logger // results
	trace *log.Logger // progress, discarded unless verbose
}

var sp = &startupParams{}

// setup builds the loggers once the flags are parsed
func (sp *startupParams) setup(cmd *cobra.Command) {
	sp.out = log.New(cmd.OutOrStdout(), "", 0)
	if sp.verbose {
		sp.trace = log.New(cmd.ErrOrStderr(), "", 0)
	} else {
		sp.trace = log.New(io.Discard, "", 0)
	}
}

// generator returns a fresh source seeded from the seed flag
func (sp *startupParams) generator() (*rand.Generator, error) {
	return rand.NewGenerator(sp.randomSeed)
}

// newRootCmd builds the base command with every subcommand attached
func newRootCmd() *cobra.Command {
	*sp = startupParams{}

	rootCmd := &cobra.Command{
		Use:   "popinfer",
		Short: "Hierarchical inference of compact binary populations",
		Long: `popinfer evaluates the hierarchical likelihood of compact binary
population models against a catalog of detections.
Among other features:

  - Bounded, smoothed and paired mass distributions
  - Redshift evolving mass models and spin models
  - A selection-corrected likelihood with effective sample size gates
  - A synthetic catalog generator for checking a model end to end
`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			sp.setup(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&sp.cfgFile, "config", "c", "", "run config file (default is ./.popinfer.yaml or $HOME/.popinfer.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&sp.verbose, "verbose", "v", false, "Verbose logging (default is much more parsimonious)")
	rootCmd.PersistentFlags().Int64VarP(&sp.randomSeed, "seed", "r", 1, "Random seed to use")

	rootCmd.AddCommand(sampleCmd(), pdfCmd(), scanCmd())
	return rootCmd
}

// Execute builds the root command and runs it.
// This is called by main.main(). It only needs to happen once.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
