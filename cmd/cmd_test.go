package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes the CLI with args and returns stdout and stderr
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func lines(s string) []string {
	return strings.Split(strings.TrimSpace(s), "\n")
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestParseParams(t *testing.T) {
	assert := assert.New(t)

	p, err := parseParams([]string{"alpha=2", " R0 = 1e1", "alpha=3"})
	assert.NoError(err)
	assert.Equal(map[string]float64{"alpha": 3, "R0": 10}, p)
	assert.Equal([]string{"R0=10", "alpha=3"}, formatParams(p))

	_, err = parseParams([]string{"alpha"})
	assert.Error(err)
	_, err = parseParams([]string{"=2"})
	assert.Error(err)
	_, err = parseParams([]string{"alpha=two"})
	assert.Error(err)
}

func TestHelp(t *testing.T) {
	assert := assert.New(t)

	out, _, err := run(t, "--help")
	assert.NoError(err)
	assert.Contains(out, "hierarchical likelihood")

	for _, sub := range []string{"sample", "pdf", "scan"} {
		out, _, err := run(t, sub, "--help")
		assert.NoError(err)
		assert.Contains(out, "popinfer "+sub)
	}

	_, _, err = run(t, "nope")
	assert.Error(err)
}

func TestSample(t *testing.T) {
	assert := assert.New(t)

	out, errOut, err := run(t, "sample", "-v", "-r", "3", "--mass", "conditioned:PowerLaw",
		"-p", "alpha=2", "-p", "mmin=5", "-p", "mmax=60", "-p", "beta=1", "-n", "200")
	require.NoError(t, err)
	rows := lines(out)
	assert.Len(rows, 200)
	for _, r := range rows {
		assert.Len(strings.Fields(r), 2)
	}
	assert.Contains(errOut, "KS:")

	// Same seed, same draws
	again, _, err := run(t, "sample", "-r", "3", "--mass", "conditioned:PowerLaw",
		"-p", "alpha=2", "-p", "mmin=5", "-p", "mmax=60", "-p", "beta=1", "-n", "200")
	require.NoError(t, err)
	assert.Equal(out, again)

	out, errOut, err = run(t, "sample", "--primary", "PowerLaw",
		"-p", "alpha=2", "-p", "mmin=5", "-p", "mmax=60", "-n", "50")
	require.NoError(t, err)
	assert.Len(lines(out), 50)
	assert.Empty(errOut)
}

func TestSampleErrors(t *testing.T) {
	assert := assert.New(t)

	_, _, err := run(t, "sample")
	assert.Error(err)
	_, _, err = run(t, "sample", "--mass", "conditioned:PowerLaw", "--primary", "PowerLaw")
	assert.Error(err)
	_, _, err = run(t, "sample", "--primary", "PowerLaw", "-p", "alpha=2", "-p", "mmin=5", "-p", "mmax=60", "-n", "0")
	assert.Error(err)
	_, _, err = run(t, "sample", "--primary", "PowerLaw", "-p", "alpha=2")
	assert.Error(err)
	_, _, err = run(t, "sample", "--mass", "gaussian-evolving:0", "-p", "mu_z0=30", "-p", "sigma_z0=5")
	assert.Error(err)
	_, _, err = run(t, "sample", "--mass", "nope:PowerLaw")
	assert.Error(err)
}

func TestPDF(t *testing.T) {
	assert := assert.New(t)

	out, _, err := run(t, "pdf", "--mass", "conditioned:PowerLaw",
		"-p", "alpha=2", "-p", "mmin=5", "-p", "mmax=60", "-p", "beta=1",
		"--grid", "3", "--lo", "10", "--hi", "50")
	require.NoError(t, err)
	rows := lines(out)
	// (10,10) (30,10) (30,30) (50,10) (50,30) (50,50)
	assert.Len(rows, 6)
	assert.Equal([]string{"10", "10"}, strings.Fields(rows[0])[:2])
	assert.Equal([]string{"50", "50"}, strings.Fields(rows[5])[:2])

	out, _, err = run(t, "pdf", "--mass", "gaussian-evolving:0",
		"-p", "mu_z0=30", "-p", "sigma_z0=5", "--grid", "2", "--lo", "10", "--hi", "30")
	require.NoError(t, err)
	assert.Len(lines(out), 3)

	out, _, err = run(t, "pdf", "--mass", "evolving-powerlaw-peak:PowerLaw",
		"-p", "alpha=2", "-p", "mmin=5", "-p", "mmax=60", "-p", "beta=1", "-p", "lambda_peak=0.2",
		"-p", "zt=1", "-p", "delta_zt=0.2", "-p", "mu_z0=30", "-p", "mu_z1=40",
		"-p", "sigma_z0=3", "-p", "sigma_z1=5", "--z", "1", "--grid", "2", "--lo", "10", "--hi", "30")
	require.NoError(t, err)
	assert.Len(lines(out), 3)

	_, _, err = run(t, "pdf", "--mass", "conditioned:PowerLaw", "--grid", "1")
	assert.Error(err)
	_, _, err = run(t, "pdf", "--mass", "conditioned:PowerLaw", "--lo", "5", "--hi", "5")
	assert.Error(err)
}

func TestLoadRunConfig(t *testing.T) {
	assert := assert.New(t)

	path := writeConfig(t, `
mass: paired:PowerLaw
truth: [alpha=2, mmin=5, mmax=60, beta=1, gamma=0, R0=10]
scan:
  parameter: alpha
  min: 1
  max: 3
simulation:
  events: 4
likelihood:
  neff_pe: 5
`)
	cfg, err := LoadRunConfig(path)
	require.NoError(t, err)
	assert.Equal(DefaultRate, cfg.Rate)
	assert.Equal("paired:PowerLaw", cfg.Mass)
	assert.Equal(DefaultScanPoints, cfg.Scan.Points)
	assert.Equal(4, cfg.Simulation.Events)
	assert.Equal(DefaultInjections, cfg.Simulation.Injections)
	assert.Equal(5.0, cfg.Likelihood.Config().NeffPE)
	assert.Equal(DefaultMonitorAddr, cfg.Monitor.Addr)

	truth, err := cfg.TruthParams()
	assert.NoError(err)
	assert.Equal(10.0, truth["R0"])

	t.Setenv("POPINFER_SIMULATION_EVENTS", "7")
	cfg, err = LoadRunConfig(path)
	require.NoError(t, err)
	assert.Equal(7, cfg.Simulation.Events)
}

func TestLoadRunConfigErrors(t *testing.T) {
	assert := assert.New(t)

	_, err := LoadRunConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(err)

	bad := []string{
		"truth: [alpha]\n",
		"scan: {parameter: alpha, min: 1, max: 3}\n",
		"truth: [alpha=2]\nscan: {parameter: alpha, min: 3, max: 1}\n",
		"truth: [alpha=2]\nscan: {parameter: alpha, min: 1, max: 3, points: 1}\n",
		"simulation: {events: 0}\n",
		"monitor: {enabled: true, addr: \"\"}\n",
		"mass: \"\"\n",
	}
	for _, body := range bad {
		_, err := LoadRunConfig(writeConfig(t, body))
		assert.Error(err, body)
	}
}

func TestScan(t *testing.T) {
	assert := assert.New(t)

	path := writeConfig(t, `
rate: PowerLaw
mass: conditioned:PowerLaw
truth: [alpha=2, mmin=5, mmax=60, beta=1, gamma=0, R0=10]
scan: {parameter: alpha, min: 1.5, max: 2.5, points: 3}
simulation:
  events: 3
  injections: 2000
  samples_per_event: 100
  zmax: 1
likelihood: {neff_pe: 1, neff_inj: 1}
`)
	out, errOut, err := run(t, "scan", "-v", "-c", path)
	require.NoError(t, err)
	rows := lines(out)
	require.Len(t, rows, 5)
	assert.True(strings.HasPrefix(rows[0], "truth logL="))
	assert.True(strings.HasPrefix(rows[1], "alpha=1.5 "))
	assert.True(strings.HasPrefix(rows[3], "alpha=2.5 "))
	assert.True(strings.HasPrefix(rows[4], "Best ") || strings.HasPrefix(rows[4], "No accepted"))
	assert.Contains(errOut, "Run config:")
	assert.Contains(errOut, "Simulating 3 events")
	assert.Contains(errOut, "Evaluations:4")

	again, errOut, err := run(t, "scan", "-v", "-c", path, "--monitor", "--addr", "127.0.0.1:0")
	require.NoError(t, err)
	assert.Equal(out, again)
	assert.Contains(errOut, "HTTP now available")

	path = writeConfig(t, "mass: gaussian-evolving:0\ntruth: [mu_z0=30, sigma_z0=5, gamma=0, R0=10]\n")
	_, _, err = run(t, "scan", "-c", path)
	assert.Error(err)
}

func TestBestRow(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(-1, bestRow(nil))
	rows := []scanRow{
		{value: 1, logL: -3, outcome: 1},
		{value: 2, logL: -1, outcome: 1},
		{value: 3, logL: 5, outcome: 2},
	}
	assert.Equal(1, bestRow(rows))
}
