// Package metrics exposes optimisation progress as Prometheus metrics.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/thalesfsp/ntbea"
	"github.com/thalesfsp/ntbea/benchmark"
)

// Recorder exposes search progress as Prometheus metrics. Each recorder owns
// its registry so several can coexist in one process.
type Recorder struct {
	Registry *prometheus.Registry

	Evaluations *prometheus.CounterVec
	Iterations  *prometheus.CounterVec
	Runs        *prometheus.CounterVec
	BestFitness *prometheus.GaugeVec
	RunDuration *prometheus.HistogramVec
}

// NewRecorder returns a recorder with all collectors registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		Registry: prometheus.NewRegistry(),

		// Total fitness evaluations, per benchmark function
		Evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ntbea_evaluations_total",
			Help: "Total number of fitness evaluations",
		}, []string{"function"}),

		Iterations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ntbea_iterations_total",
			Help: "Total number of optimiser iterations",
		}, []string{"function", "phase"}),

		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ntbea_runs_total",
			Help: "Total number of completed runs",
		}, []string{"function", "model"}),

		// Empirical mean of the best sampled point of the latest update
		BestFitness: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ntbea_best_fitness",
			Help: "Fitness of the current best sampled point",
		}, []string{"function"}),

		RunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ntbea_run_duration_seconds",
			Help:    "Wall-clock duration of a run",
			Buckets: prometheus.DefBuckets,
		}, []string{"function"}),
	}

	r.Registry.MustRegister(
		r.Evaluations,
		r.Iterations,
		r.Runs,
		r.BestFitness,
		r.RunDuration,
	)

	return r
}

// ObserveProgress records one optimiser iteration.
func (r *Recorder) ObserveProgress(function string, u ntbea.ProgressUpdate) {
	r.Iterations.WithLabelValues(function, u.Phase).Inc()
	r.Evaluations.WithLabelValues(function).Inc()
	r.BestFitness.WithLabelValues(function).Set(u.CurrentBestFitness)
}

// ObserveRun records a finished run of exp.
func (r *Recorder) ObserveRun(exp benchmark.Experiment, out benchmark.RunOutcome) {
	r.Runs.WithLabelValues(exp.Function, string(exp.Model)).Inc()
	r.RunDuration.WithLabelValues(exp.Function).Observe(out.Duration.Seconds())
}

// Consume records every update received on ch until ch is closed or ctx is
// done.
func (r *Recorder) Consume(ctx context.Context, function string, ch <-chan ntbea.ProgressUpdate) {
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-ch:
			if !ok {
				return
			}

			r.ObserveProgress(function, u)
		}
	}
}
