package cmd

import (
	"encoding/json"
	"expvar"
	"log"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/CraigKelly/popinfer/likelihood"
)

// progress backs the process wide popinfer-progress expvar. The published
// Func reads whichever monitor started last.
var (
	progress        atomic.Pointer[expvar.Map]
	publishProgress sync.Once
)

func currentProgress() any {
	m := progress.Load()
	if m == nil {
		return nil
	}
	return json.RawMessage(m.String())
}

// monitor publishes scan progress through expvar at /debug/vars and as
// Prometheus metrics at /metrics
type monitor struct {
	info     *expvar.Map
	metrics  *scanMetrics
	stopped  chan struct{}
	server   *http.Server
	listener net.Listener
	out      *log.Logger
	start    time.Time

	Evaluations        *expvar.Int
	Accepted           *expvar.Int
	RejectedInjections *expvar.Int
	RejectedPosterior  *expvar.Int
	RejectedVariance   *expvar.Int
	Errors             *expvar.Int
	RunTime            *expvar.Float

	LastLogLikelihood *expvar.Float
	LastVariance      *expvar.Float
	Acceptance        *expvar.Float
	AcceptanceTrend   *expvar.Float
}

// Start begins serving on addr
func (m *monitor) Start(addr string, out *log.Logger) error {
	if m.info != nil {
		return errors.Errorf("BUG: You may only start the process monitor once")
	}

	m.info = new(expvar.Map).Init()
	m.stopped = make(chan struct{})
	m.out = out
	m.start = time.Now()

	registry := prometheus.NewRegistry()
	m.metrics = newScanMetrics(registry)

	mux := http.NewServeMux()
	mux.Handle("/debug/vars", expvar.Handler())
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	// Help the user and redirect the root to the expvar handler
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/debug/vars", http.StatusTemporaryRedirect)
	})
	m.server = &http.Server{Addr: addr, Handler: mux}

	m.Evaluations = new(expvar.Int)
	m.Accepted = new(expvar.Int)
	m.RejectedInjections = new(expvar.Int)
	m.RejectedPosterior = new(expvar.Int)
	m.RejectedVariance = new(expvar.Int)
	m.Errors = new(expvar.Int)
	m.RunTime = new(expvar.Float)
	m.LastLogLikelihood = new(expvar.Float)
	m.LastVariance = new(expvar.Float)
	m.Acceptance = new(expvar.Float)
	m.AcceptanceTrend = new(expvar.Float)

	m.info.Set("Evaluations", m.Evaluations)
	m.info.Set("Accepted", m.Accepted)
	m.info.Set("Rejected-Injections", m.RejectedInjections)
	m.info.Set("Rejected-Posterior", m.RejectedPosterior)
	m.info.Set("Rejected-Variance", m.RejectedVariance)
	m.info.Set("Errors", m.Errors)
	m.info.Set("Run-Time", m.RunTime)
	m.info.Set("Last-Log-Likelihood", m.LastLogLikelihood)
	m.info.Set("Last-Variance", m.LastVariance)
	m.info.Set("Acceptance", m.Acceptance)
	m.info.Set("Acceptance-Trend", m.AcceptanceTrend)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		m.info = nil
		return errors.Wrapf(err, "Could not listen on %s", addr)
	}
	m.listener = ln

	progress.Store(m.info)
	publishProgress.Do(func() {
		expvar.Publish("popinfer-progress", expvar.Func(currentProgress))
	})

	// Actual server that will close the stopped channel on exit
	started := make(chan struct{})
	go func() {
		defer close(m.stopped)
		m.out.Printf("HTTP now available at %v (see debug/vars/)\n", ln.Addr())
		close(started)
		if err := m.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.out.Printf("HTTP server failed: %v\n", err)
		}
	}()

	<-started
	return nil
}

// Addr is where the monitor is listening, empty before Start
func (m *monitor) Addr() string {
	if m.listener == nil {
		return ""
	}
	return m.listener.Addr().String()
}

// Update copies the evaluator counters
func (m *monitor) Update(ev *likelihood.Evaluator, logL float64) {
	if m.info == nil {
		return
	}
	s := ev.Stats()
	m.Evaluations.Set(s.Evaluations)
	m.Accepted.Set(s.Count(likelihood.OutcomeAccepted))
	m.RejectedInjections.Set(s.Count(likelihood.OutcomeRejectedInjections))
	m.RejectedPosterior.Set(s.Count(likelihood.OutcomeRejectedPosterior))
	m.RejectedVariance.Set(s.Count(likelihood.OutcomeRejectedVariance))
	m.Errors.Set(s.Count(likelihood.OutcomeError))
	m.RunTime.Set(time.Since(m.start).Seconds())
	m.LastLogLikelihood.Set(logL)
	m.LastVariance.Set(ev.LastVariance())
	m.Acceptance.Set(s.Acceptance())
	m.AcceptanceTrend.Set(s.AcceptanceTrend())
	m.metrics.observe(ev, logL)
}

func (m *monitor) Stop() {
	if m.info == nil {
		return
	}

	m.server.Close()

	select {
	case <-m.stopped:
		m.out.Printf("HTTP Info Stopped\n")
	case <-time.After(2 * time.Second):
		m.out.Printf("HTTP would NOT stop: just continuing on\n")
	}
}

// scanMetrics are the Prometheus side of the monitor
type scanMetrics struct {
	evaluations *prometheus.CounterVec
	logL        prometheus.Gauge
	variance    prometheus.Gauge
	acceptance  prometheus.Gauge
}

func newScanMetrics(reg prometheus.Registerer) *scanMetrics {
	sm := &scanMetrics{
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "popinfer_evaluations_total",
			Help: "Likelihood evaluations by outcome.",
		}, []string{"outcome"}),
		logL: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "popinfer_last_log_likelihood",
			Help: "Log likelihood of the most recent evaluation.",
		}),
		variance: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "popinfer_last_likelihood_variance",
			Help: "Likelihood variance of the most recent evaluation that computed one.",
		}),
		acceptance: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "popinfer_acceptance_ratio",
			Help: "Accepted fraction over the recent evaluation window.",
		}),
	}
	reg.MustRegister(sm.evaluations, sm.logL, sm.variance, sm.acceptance)
	return sm
}

func (sm *scanMetrics) observe(ev *likelihood.Evaluator, logL float64) {
	sm.evaluations.WithLabelValues(ev.LastOutcome().String()).Inc()
	sm.logL.Set(logL)
	sm.variance.Set(ev.LastVariance())
	sm.acceptance.Set(ev.Stats().Acceptance())
}
