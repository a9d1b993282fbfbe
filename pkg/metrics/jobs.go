package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Jobs records background worker runs. A nil receiver is a no-op.
type Jobs struct {
	duration *prometheus.HistogramVec
	runs     *prometheus.CounterVec
	skipped  prometheus.Counter
}

// NewJobs registers the worker metrics on the provided registerer.
func NewJobs(reg prometheus.Registerer) *Jobs {
	if reg == nil {
		return &Jobs{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_job_duration_seconds",
		Help:    "Duration of background jobs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_job_runs_total",
		Help: "Background job runs by outcome.",
	}, []string{"job", "outcome"})
	skipped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storefront_job_cycles_skipped_total",
		Help: "Worker cycles skipped because another instance held the lock.",
	})
	reg.MustRegister(duration, runs, skipped)
	return &Jobs{duration: duration, runs: runs, skipped: skipped}
}

// ObserveRun records one job run. A nil err counts as success.
func (j *Jobs) ObserveRun(job string, duration time.Duration, err error) {
	if j == nil || j.duration == nil {
		return
	}
	job = normalizeLabel(job)
	j.duration.WithLabelValues(job).Observe(duration.Seconds())
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	j.runs.WithLabelValues(job, outcome).Inc()
}

func (j *Jobs) IncSkipped() {
	if j == nil || j.skipped == nil {
		return
	}
	j.skipped.Inc()
}
