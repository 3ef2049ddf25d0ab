package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/trebuchet-org/deltasim/internal/usecase"
)

const namespace = "deltasim"

// Recorder records service metrics on a private registry
type Recorder struct {
	registry *prometheus.Registry

	forkSpawns         *prometheus.CounterVec
	forkRefreshes      *prometheus.CounterVec
	simulations        *prometheus.CounterVec
	simulationDuration *prometheus.HistogramVec
	forksRunning       prometheus.Gauge
}

// NewRecorder creates a recorder with its own registry, including Go runtime collectors
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		forkSpawns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fork_spawns_total",
			Help:      "Fork processes started, by network and outcome.",
		}, []string{"network", "outcome"}),
		forkRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fork_refreshes_total",
			Help:      "Fork refreshes, by network and outcome.",
		}, []string{"network", "outcome"}),
		simulations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "simulations_total",
			Help:      "Simulations handled, by network and outcome.",
		}, []string{"network", "outcome"}),
		simulationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "simulation_duration_seconds",
			Help:      "Time spent simulating a transaction, including fork startup.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"network"}),
		forksRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "forks_running",
			Help:      "Forks currently serving requests.",
		}),
	}

	r.registry.MustRegister(
		r.forkSpawns,
		r.forkRefreshes,
		r.simulations,
		r.simulationDuration,
		r.forksRunning,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

func (r *Recorder) ObserveSimulation(networkID, outcome string, duration time.Duration) {
	r.simulations.WithLabelValues(networkID, outcome).Inc()
	r.simulationDuration.WithLabelValues(networkID).Observe(duration.Seconds())
}

func (r *Recorder) ForkSpawned(networkID string, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "failed"
	}
	r.forkSpawns.WithLabelValues(networkID, outcome).Inc()
}

func (r *Recorder) ForkRefreshed(networkID, outcome string) {
	r.forkRefreshes.WithLabelValues(networkID, outcome).Inc()
}

func (r *Recorder) SetForksRunning(n int) {
	r.forksRunning.Set(float64(n))
}

// Handler serves the registry in the Prometheus text format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

var _ usecase.MetricsRecorder = (*Recorder)(nil)
