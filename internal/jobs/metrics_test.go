package jobmetrics

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	assert.NoError(t, m.Track("catalog:warmup").End(nil))
	err := errors.New("redis down")
	assert.Same(t, err, m.Track("catalog:warmup").End(err))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("catalog:warmup", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("catalog:warmup", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("catalog:warmup")))
}

func TestTrackerCountsCancelSeparately(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	_ = m.Track("totals:reconcile").End(context.Canceled)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("totals:reconcile", "canceled")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.failures.WithLabelValues("totals:reconcile")))
}

func TestAddLockSkip(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.AddLockSkip("totals:reconcile", 4)
	m.AddLockSkip("totals:reconcile", 4)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.skipped.WithLabelValues("totals:reconcile", "4")))
}

func TestDriftAndRemovedIgnoreNonPositive(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.AddDrift("DC", 7, 3)
	m.AddDrift("DC", 7, 0)
	m.AddRemoved("idempotency:cleanup", 12)
	m.AddRemoved("idempotency:cleanup", -1)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.drift.WithLabelValues("DC", "7")))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.removed.WithLabelValues("idempotency:cleanup")))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.AddDrift("PO", 1, 1)
	m.AddLockSkip("x", 1)
	assert.NoError(t, m.Track("x").End(nil))
}
