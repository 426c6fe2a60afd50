package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/bizdesk/bizdesk/internal/documents"
	jobmetrics "github.com/bizdesk/bizdesk/internal/jobs"
	"github.com/bizdesk/bizdesk/internal/platform/cache"
	"github.com/bizdesk/bizdesk/internal/shared"
	"github.com/bizdesk/bizdesk/internal/totals"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// ReconcileDocument is a stored document as read by the reconcile job.
type ReconcileDocument struct {
	ID        int64
	DocNumber string
	Lines     []documents.Line
	Summary   documents.Summary
}

// DocumentSource pages through one document series of a company by id.
type DocumentSource interface {
	Series() string
	Page(ctx context.Context, companyID, after int64, limit int) ([]ReconcileDocument, error)
}

// CompanyLister enumerates companies.
type CompanyLister interface {
	IDs(ctx context.Context) ([]int64, error)
}

// Drift describes one document whose stored totals disagree with a fresh
// computation.
type Drift struct {
	CompanyID int64
	Series    string
	ID        int64
	DocNumber string
	Stored    float64
	Computed  float64
}

// TotalsReconcileJob recomputes stored document totals and reports drift. It
// never rewrites documents.
type TotalsReconcileJob struct {
	Companies CompanyLister
	Sources   []DocumentSource
	Calc      documents.Calculator
	Locker    cache.Locker
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
	BatchSize int
	Parallel  int
	LockTTL   time.Duration
}

// Handle processes TaskTotalsReconcile.
func (j *TotalsReconcileJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Companies == nil || j.Calc == nil || j.Locker == nil {
		return errors.New("totals reconcile: dependencies not configured")
	}
	var payload TotalsReconcilePayload
	if err := decodePayload(t, &payload); err != nil {
		return fmt.Errorf("totals reconcile payload: %w", asynq.SkipRetry)
	}
	_, err := j.Run(ctx, payload.CompanyID)
	return err
}

// Run reconciles companyID, or every company when it is zero, and returns the
// drifted documents.
func (j *TotalsReconcileJob) Run(ctx context.Context, companyID int64) ([]Drift, error) {
	tracker := j.metrics().Track(TaskTotalsReconcile)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	companies := []int64{companyID}
	if companyID == 0 {
		ids, err := j.Companies.IDs(ctx)
		if err != nil {
			resultErr = err
			j.log().Error("list companies", slog.Any("error", err))
			return nil, resultErr
		}
		companies = ids
	}

	results := make([][]Drift, len(companies))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.parallel())
	for i, id := range companies {
		g.Go(func() error {
			drift, err := j.reconcileCompany(gctx, id)
			if errors.Is(err, cache.ErrLocked) {
				j.log().Info("company reconcile already running", slog.Int64("company_id", id))
				j.metrics().AddLockSkip(TaskTotalsReconcile, id)
				return nil
			}
			if err != nil {
				return fmt.Errorf("company %d: %w", id, err)
			}
			results[i] = drift
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		resultErr = err
		j.log().Error("totals reconcile failed", slog.Any("error", err))
		return nil, resultErr
	}

	var all []Drift
	for _, r := range results {
		all = append(all, r...)
	}
	j.log().Info("totals reconcile finished", slog.Int("companies", len(companies)), slog.Int("drifted", len(all)))
	return all, resultErr
}

func (j *TotalsReconcileJob) reconcileCompany(ctx context.Context, companyID int64) ([]Drift, error) {
	var drift []Drift
	err := j.Locker.WithLock(ctx, shared.ReconcileLockKey(companyID), j.lockTTL(), func(ctx context.Context) error {
		for _, src := range j.Sources {
			found, err := j.reconcileSeries(ctx, companyID, src)
			if err != nil {
				return fmt.Errorf("series %s: %w", src.Series(), err)
			}
			j.metrics().AddDrift(src.Series(), companyID, len(found))
			drift = append(drift, found...)
		}
		return nil
	})
	return drift, err
}

func (j *TotalsReconcileJob) reconcileSeries(ctx context.Context, companyID int64, src DocumentSource) ([]Drift, error) {
	var (
		drift []Drift
		after int64
	)
	limit := j.batchSize()
	for {
		docs, err := src.Page(ctx, companyID, after, limit)
		if err != nil {
			return nil, err
		}
		for _, d := range docs {
			fresh, err := documents.Recompute(j.Calc, d.Lines, d.Summary)
			if err != nil {
				j.log().Warn("document no longer computes",
					slog.String("series", src.Series()), slog.Int64("id", d.ID), slog.Any("error", err))
				drift = append(drift, Drift{CompanyID: companyID, Series: src.Series(), ID: d.ID, DocNumber: d.DocNumber, Stored: d.Summary.GrandTotal})
				continue
			}
			if Drifted(d.Summary, fresh) {
				j.log().Warn("document totals drifted",
					slog.String("series", src.Series()), slog.Int64("id", d.ID), slog.String("doc_number", d.DocNumber),
					slog.Float64("stored", d.Summary.GrandTotal), slog.Float64("computed", fresh.GrandTotal))
				drift = append(drift, Drift{
					CompanyID: companyID, Series: src.Series(), ID: d.ID, DocNumber: d.DocNumber,
					Stored: d.Summary.GrandTotal, Computed: fresh.GrandTotal,
				})
			}
		}
		if len(docs) < limit {
			return drift, nil
		}
		after = docs[len(docs)-1].ID
	}
}

// Drifted reports whether any stored header figure differs from fresh by at
// least half a paisa.
func Drifted(stored documents.Summary, fresh totals.DocumentTotals) bool {
	pairs := [][2]float64{
		{stored.Subtotal, fresh.Subtotal},
		{stored.TotalTax, fresh.TotalTax},
		{stored.TotalCGST, fresh.TotalCGST},
		{stored.TotalSGST, fresh.TotalSGST},
		{stored.TotalIGST, fresh.TotalIGST},
		{stored.Freight, fresh.Freight},
		{stored.PackingForwarding, fresh.PackingForwarding},
		{stored.DocumentDiscount, fresh.DocumentDiscount},
		{stored.RoundOff, fresh.RoundOff},
		{stored.GrandTotal, fresh.GrandTotal},
	}
	for _, p := range pairs {
		if math.Abs(p[0]-p[1]) >= 0.005 {
			return true
		}
	}
	return false
}

func (j *TotalsReconcileJob) batchSize() int {
	if j.BatchSize > 0 {
		return j.BatchSize
	}
	return 200
}

func (j *TotalsReconcileJob) parallel() int {
	if j.Parallel > 0 {
		return j.Parallel
	}
	return 4
}

func (j *TotalsReconcileJob) lockTTL() time.Duration {
	if j.LockTTL > 0 {
		return j.LockTTL
	}
	return 10 * time.Minute
}

func (j *TotalsReconcileJob) metrics() *jobmetrics.Metrics {
	if j != nil && j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *TotalsReconcileJob) log() *slog.Logger {
	if j != nil && j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskTotalsReconcile))
	}
	return slog.Default().With(slog.String("job", TaskTotalsReconcile))
}
