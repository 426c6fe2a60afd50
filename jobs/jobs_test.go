package jobs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizdesk/bizdesk/internal/documents"
	jobmetrics "github.com/bizdesk/bizdesk/internal/jobs"
	"github.com/bizdesk/bizdesk/internal/platform/cache"
	"github.com/bizdesk/bizdesk/internal/totals"
)

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

type fakeSource struct {
	series string
	docs   map[int64][]ReconcileDocument
	mu     sync.Mutex
	pages  int
}

func (s *fakeSource) Series() string { return s.series }

func (s *fakeSource) Page(_ context.Context, companyID, after int64, limit int) ([]ReconcileDocument, error) {
	s.mu.Lock()
	s.pages++
	s.mu.Unlock()
	var out []ReconcileDocument
	for _, d := range s.docs[companyID] {
		if d.ID > after && len(out) < limit {
			out = append(out, d)
		}
	}
	return out, nil
}

type companyList []int64

func (c companyList) IDs(context.Context) ([]int64, error) { return c, nil }

func buildDoc(t *testing.T, calc *totals.Calculator, id int64, price float64) ReconcileDocument {
	t.Helper()
	built, err := documents.Build(calc, []documents.LineInput{
		{ProductID: 1, Quantity: 2, UnitPrice: price, GSTRate: 18},
	}, documents.ChargesInput{Freight: totals.Fixed(50)}, false)
	require.NoError(t, err)
	return ReconcileDocument{ID: id, DocNumber: fmt.Sprintf("DC/2025/%04d", id), Lines: built.Lines, Summary: built.Summary}
}

func TestTotalsReconcileReportsDrift(t *testing.T) {
	calc := totals.NewCalculator()
	tampered := buildDoc(t, calc, 2, 250)
	tampered.Summary.GrandTotal += 1

	src := &fakeSource{series: documents.SeriesChallan, docs: map[int64][]ReconcileDocument{
		1: {buildDoc(t, calc, 1, 100), tampered, buildDoc(t, calc, 3, 75)},
		2: {buildDoc(t, calc, 4, 10)},
	}}
	metrics := jobmetrics.NewMetrics(prometheus.NewRegistry())
	job := &TotalsReconcileJob{
		Companies: companyList{1, 2},
		Sources:   []DocumentSource{src},
		Calc:      calc,
		Locker:    cache.NewLocalLocker(),
		Logger:    discardLogger(),
		Metrics:   metrics,
		BatchSize: 2,
	}

	drift, err := job.Run(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, drift, 1)
	assert.Equal(t, int64(2), drift[0].ID)
	assert.Equal(t, int64(1), drift[0].CompanyID)
	assert.InDelta(t, tampered.Summary.GrandTotal-1, drift[0].Computed, 0.001)
	// company 1 needs two pages of two, company 2 one short page
	assert.Equal(t, 3, src.pages)
}

func TestTotalsReconcileSingleCompany(t *testing.T) {
	calc := totals.NewCalculator()
	src := &fakeSource{series: documents.SeriesPurchaseOrder, docs: map[int64][]ReconcileDocument{
		7: {buildDoc(t, calc, 1, 100)},
	}}
	job := &TotalsReconcileJob{
		Companies: companyList{},
		Sources:   []DocumentSource{src},
		Calc:      calc,
		Locker:    cache.NewLocalLocker(),
		Logger:    discardLogger(),
	}
	task, err := NewTotalsReconcileTask(7)
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, 1, src.pages)
}

type lockedLocker struct{}

func (lockedLocker) WithLock(context.Context, string, time.Duration, func(context.Context) error) error {
	return cache.ErrLocked
}

func TestTotalsReconcileSkipsLockedCompany(t *testing.T) {
	src := &fakeSource{series: documents.SeriesChallan}
	job := &TotalsReconcileJob{
		Companies: companyList{1},
		Sources:   []DocumentSource{src},
		Calc:      totals.NewCalculator(),
		Locker:    lockedLocker{},
		Logger:    discardLogger(),
	}
	drift, err := job.Run(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, drift)
	assert.Zero(t, src.pages)
}

func TestTotalsReconcileRejectsBadPayload(t *testing.T) {
	job := &TotalsReconcileJob{Companies: companyList{}, Calc: totals.NewCalculator(), Locker: cache.NewLocalLocker()}
	err := job.Handle(context.Background(), asynq.NewTask(TaskTotalsReconcile, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestDrifted(t *testing.T) {
	calc := totals.NewCalculator()
	doc := buildDoc(t, calc, 1, 99.99)
	fresh, err := documents.Recompute(calc, doc.Lines, doc.Summary)
	require.NoError(t, err)
	assert.False(t, Drifted(doc.Summary, fresh))

	doc.Summary.TotalCGST += 0.01
	assert.True(t, Drifted(doc.Summary, fresh))
}

type fakeCleaner struct{ retention time.Duration }

func (f *fakeCleaner) Cleanup(_ context.Context, olderThan time.Duration) (int64, error) {
	f.retention = olderThan
	return 4, nil
}

func TestIdempotencyCleanupDefaultsRetention(t *testing.T) {
	store := &fakeCleaner{}
	job := &IdempotencyCleanupJob{Store: store, Logger: discardLogger()}
	require.NoError(t, job.Handle(context.Background(), NewIdempotencyCleanupTask()))
	assert.Equal(t, 7*24*time.Hour, store.retention)
}

type fakeWarmer struct {
	limits map[int64]int
	fail   bool
}

func (f *fakeWarmer) CompanyIDs(context.Context) ([]int64, error) { return []int64{1, 2}, nil }

func (f *fakeWarmer) Warm(_ context.Context, companyID int64, limit int) (int, error) {
	if f.fail {
		return 0, errors.New("redis unavailable")
	}
	f.limits[companyID] = limit
	return 3, nil
}

func TestCatalogWarmup(t *testing.T) {
	warmer := &fakeWarmer{limits: map[int64]int{}}
	job := &CatalogWarmupJob{Products: warmer, Logger: discardLogger()}

	task, err := NewCatalogWarmupTask(0)
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, map[int64]int{1: 500, 2: 500}, warmer.limits)

	warmer.fail = true
	assert.Error(t, job.Handle(context.Background(), task))
}

type fakeInspector struct{ err error }

func (f fakeInspector) GetQueueInfo(queue string) (*asynq.QueueInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &asynq.QueueInfo{Queue: queue, Pending: 3, Failed: 1}, nil
}

type fakeEnqueuer struct{ err error }

func (f fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &asynq.TaskInfo{ID: "t-1", Queue: QueueDefault, Type: task.Type()}, nil
}

func TestJobsHandler(t *testing.T) {
	r := chi.NewRouter()
	NewHandler(fakeInspector{}, &Client{client: fakeEnqueuer{}}, discardLogger()).MountRoutes(r)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"queue":"default","pending":3,"active":0,"retry":0,"failed":1}`, rr.Body.String())

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/totals-reconcile?company_id=5", nil))
	assert.Equal(t, http.StatusAccepted, rr.Code)

	dup := chi.NewRouter()
	NewHandler(fakeInspector{err: errors.New("down")}, &Client{client: fakeEnqueuer{err: asynq.ErrDuplicateTask}}, discardLogger()).MountRoutes(dup)

	rr = httptest.NewRecorder()
	dup.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/totals-reconcile", nil))
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = httptest.NewRecorder()
	dup.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	none := chi.NewRouter()
	NewHandler(nil, nil, discardLogger()).MountRoutes(none)
	rr = httptest.NewRecorder()
	none.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/totals-reconcile", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
