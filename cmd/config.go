package cmd

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/CraigKelly/popinfer/catalog"
	"github.com/CraigKelly/popinfer/likelihood"
)

const (
	configName = ".popinfer"
	configType = "yaml"
	envPrefix  = "POPINFER"
)

// RunConfig is everything the scan command needs. Truth is a list of
// name=value pairs so parameter names keep their case.
type RunConfig struct {
	Rate      string   `mapstructure:"rate" yaml:"rate"`
	Mass      string   `mapstructure:"mass" yaml:"mass"`
	ScaleFree bool     `mapstructure:"scale_free" yaml:"scale_free"`
	Truth     []string `mapstructure:"truth" yaml:"truth"`

	Scan       ScanConfig       `mapstructure:"scan" yaml:"scan"`
	Simulation SimulationConfig `mapstructure:"simulation" yaml:"simulation"`
	Likelihood LikelihoodConfig `mapstructure:"likelihood" yaml:"likelihood"`
	Monitor    MonitorConfig    `mapstructure:"monitor" yaml:"monitor"`
}

// ScanConfig moves one parameter across [min, max] with the rest held at
// the truth
type ScanConfig struct {
	Parameter string  `mapstructure:"parameter" yaml:"parameter"`
	Min       float64 `mapstructure:"min" yaml:"min"`
	Max       float64 `mapstructure:"max" yaml:"max"`
	Points    int     `mapstructure:"points" yaml:"points"`
}

// SimulationConfig mirrors catalog.SimConfig
type SimulationConfig struct {
	Events          int     `mapstructure:"events" yaml:"events"`
	Injections      int     `mapstructure:"injections" yaml:"injections"`
	SamplesPerEvent int     `mapstructure:"samples_per_event" yaml:"samples_per_event"`
	Tobs            float64 `mapstructure:"tobs" yaml:"tobs"`
	ZMax            float64 `mapstructure:"zmax" yaml:"zmax"`
	MassMin         float64 `mapstructure:"mass_min" yaml:"mass_min"`
	MassMax         float64 `mapstructure:"mass_max" yaml:"mass_max"`
	SNRThreshold    float64 `mapstructure:"snr_threshold" yaml:"snr_threshold"`
	Scatter         float64 `mapstructure:"scatter" yaml:"scatter"`
	MaxDraws        int     `mapstructure:"max_draws" yaml:"max_draws"`
}

// LikelihoodConfig mirrors likelihood.Config
type LikelihoodConfig struct {
	NeffPE            float64 `mapstructure:"neff_pe" yaml:"neff_pe"`
	NeffINJ           float64 `mapstructure:"neff_inj" yaml:"neff_inj"`
	VarianceThreshold float64 `mapstructure:"variance_threshold" yaml:"variance_threshold"`
	NParallel         int     `mapstructure:"nparallel" yaml:"nparallel"`
	StatsWindow       int     `mapstructure:"stats_window" yaml:"stats_window"`
}

// MonitorConfig controls the expvar progress server
type MonitorConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Addr    string `mapstructure:"addr" yaml:"addr"`
}

// Defaults
const (
	DefaultRate            = "PowerLaw"
	DefaultMass            = "conditioned:PowerLaw"
	DefaultScanPoints      = 21
	DefaultEvents          = 20
	DefaultInjections      = 20000
	DefaultSamplesPerEvent = 500
	DefaultTobs            = 1.0
	DefaultZMax            = 1.5
	DefaultMassMin         = 2.0
	DefaultMassMax         = 150.0
	DefaultSNRThreshold    = 8.0
	DefaultScatter         = 0.1
	DefaultMonitorAddr     = ":8000"
)

// LoadRunConfig reads the run configuration from configPath, or searches for
// .popinfer.yaml in the working directory and $HOME. A missing search file is
// not an error. POPINFER_* environment variables override file values.
func LoadRunConfig(configPath string) (*RunConfig, error) {
	v := viper.New()
	applyDefaults(v)

	v.SetConfigType(configType)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrapf(err, "Could not read config")
		}
	}

	var cfg RunConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrapf(err, "Could not decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "Invalid config")
	}
	return &cfg, nil
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("rate", DefaultRate)
	v.SetDefault("mass", DefaultMass)
	v.SetDefault("scale_free", false)
	v.SetDefault("truth", []string{})

	v.SetDefault("scan.points", DefaultScanPoints)

	v.SetDefault("simulation.events", DefaultEvents)
	v.SetDefault("simulation.injections", DefaultInjections)
	v.SetDefault("simulation.samples_per_event", DefaultSamplesPerEvent)
	v.SetDefault("simulation.tobs", DefaultTobs)
	v.SetDefault("simulation.zmax", DefaultZMax)
	v.SetDefault("simulation.mass_min", DefaultMassMin)
	v.SetDefault("simulation.mass_max", DefaultMassMax)
	v.SetDefault("simulation.snr_threshold", DefaultSNRThreshold)
	v.SetDefault("simulation.scatter", DefaultScatter)
	v.SetDefault("simulation.max_draws", 0)

	v.SetDefault("likelihood.neff_pe", 0.0)
	v.SetDefault("likelihood.neff_inj", 0.0)
	v.SetDefault("likelihood.variance_threshold", 0.0)
	v.SetDefault("likelihood.nparallel", 0)
	v.SetDefault("likelihood.stats_window", likelihood.DefaultStatsWindow)

	v.SetDefault("monitor.enabled", false)
	v.SetDefault("monitor.addr", DefaultMonitorAddr)
}

// Validate checks what can be checked without building the models
func (c *RunConfig) Validate() error {
	if c.Rate == "" || c.Mass == "" {
		return errors.New("Both rate and mass models are required")
	}
	truth, err := c.TruthParams()
	if err != nil {
		return err
	}
	if c.Scan.Parameter != "" {
		if _, ok := truth[c.Scan.Parameter]; !ok {
			return errors.Errorf("Scan parameter %s has no truth value", c.Scan.Parameter)
		}
		if !(c.Scan.Max > c.Scan.Min) {
			return errors.Errorf("Bad scan range [%v, %v]", c.Scan.Min, c.Scan.Max)
		}
		if c.Scan.Points < 2 {
			return errors.Errorf("Scan needs at least 2 points, got %d", c.Scan.Points)
		}
	}
	if err := c.Simulation.SimConfig().Validate(); err != nil {
		return errors.Wrapf(err, "Simulation")
	}
	if c.Monitor.Enabled && c.Monitor.Addr == "" {
		return errors.New("Monitor enabled without an address")
	}
	return nil
}

// TruthParams parses the truth list
func (c *RunConfig) TruthParams() (map[string]float64, error) {
	return parseParams(c.Truth)
}

// SimConfig converts to the catalog settings
func (s SimulationConfig) SimConfig() catalog.SimConfig {
	return catalog.SimConfig{
		Events:          s.Events,
		Injections:      s.Injections,
		SamplesPerEvent: s.SamplesPerEvent,
		Tobs:            s.Tobs,
		ZMax:            s.ZMax,
		MassMin:         s.MassMin,
		MassMax:         s.MassMax,
		SNRThreshold:    s.SNRThreshold,
		Scatter:         s.Scatter,
		MaxDraws:        s.MaxDraws,
	}
}

// Config converts to the evaluator settings
func (l LikelihoodConfig) Config() likelihood.Config {
	return likelihood.Config{
		NeffPE:            l.NeffPE,
		NeffINJ:           l.NeffINJ,
		VarianceThreshold: l.VarianceThreshold,
		NParallel:         l.NParallel,
		StatsWindow:       l.StatsWindow,
	}
}
