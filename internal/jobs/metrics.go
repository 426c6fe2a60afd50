package jobmetrics

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors for background jobs.
type Metrics struct {
	runs     *prometheus.CounterVec
	failures *prometheus.CounterVec
	duration *prometheus.HistogramVec
	drift    *prometheus.CounterVec
	removed  *prometheus.CounterVec
	skipped  *prometheus.CounterVec
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// NewMetrics registers the job metrics against the provided registerer. When the
// registerer is nil the default Prometheus registerer is used.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		defaultOnce.Do(func() {
			defaultMetrics = buildMetrics(prometheus.DefaultRegisterer)
		})
		return defaultMetrics
	}
	return buildMetrics(registerer)
}

// Tracker provides lifecycle instrumentation helpers for a single job run.
type Tracker struct {
	metrics *Metrics
	job     string
	start   time.Time
}

// Track spawns a tracker for the given job name.
func (m *Metrics) Track(job string) *Tracker {
	if m == nil {
		return &Tracker{job: job, start: time.Now()}
	}
	return &Tracker{metrics: m, job: job, start: time.Now()}
}

// End records the run outcome and duration and returns err untouched. A run
// stopped by worker shutdown is counted as canceled, not as a failure.
func (t *Tracker) End(err error) error {
	if t == nil || t.metrics == nil || t.job == "" {
		return err
	}
	status := "success"
	switch {
	case errors.Is(err, context.Canceled):
		status = "canceled"
	case err != nil:
		status = "failure"
		t.metrics.failures.WithLabelValues(t.job).Inc()
	}
	t.metrics.runs.WithLabelValues(t.job, status).Inc()
	t.metrics.duration.WithLabelValues(t.job).Observe(time.Since(t.start).Seconds())
	return err
}

// AddDrift counts documents whose stored totals disagreed with a fresh
// computation, labelled by document series and company.
func (m *Metrics) AddDrift(series string, companyID int64, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.drift.WithLabelValues(series, strconv.FormatInt(companyID, 10)).Add(float64(count))
}

// AddLockSkip counts company runs skipped because another worker held the
// company lock.
func (m *Metrics) AddLockSkip(job string, companyID int64) {
	if m == nil {
		return
	}
	m.skipped.WithLabelValues(job, strconv.FormatInt(companyID, 10)).Inc()
}

// AddRemoved counts rows deleted by housekeeping jobs.
func (m *Metrics) AddRemoved(job string, count int64) {
	if m == nil || count <= 0 {
		return
	}
	m.removed.WithLabelValues(job).Add(float64(count))
}

func buildMetrics(registerer prometheus.Registerer) *Metrics {
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bizdesk_jobs_total",
		Help: "Total job executions partitioned by job name and status.",
	}, []string{"job", "status"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bizdesk_jobs_failures_total",
		Help: "Total failures observed for background jobs.",
	}, []string{"job"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bizdesk_job_duration_seconds",
		Help:    "Duration in seconds of background job executions.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	drift := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bizdesk_totals_drift_total",
		Help: "Documents whose stored totals differed from a recomputation.",
	}, []string{"series", "company"})
	removed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bizdesk_housekeeping_removed_total",
		Help: "Rows removed by housekeeping jobs.",
	}, []string{"job"})
	skipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bizdesk_jobs_lock_skipped_total",
		Help: "Per-company job runs skipped because the company lock was held.",
	}, []string{"job", "company"})
	registerer.MustRegister(runs, failures, duration, drift, removed, skipped)
	return &Metrics{
		runs:     runs,
		failures: failures,
		duration: duration,
		drift:    drift,
		removed:  removed,
		skipped:  skipped,
	}
}
