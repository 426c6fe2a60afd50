package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/bizdesk/bizdesk/internal/jobs"
)

// IdempotencyCleaner prunes processed request keys.
type IdempotencyCleaner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) (int64, error)
}

// IdempotencyCleanupJob removes idempotency keys older than Retention.
type IdempotencyCleanupJob struct {
	Store     IdempotencyCleaner
	Retention time.Duration
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

func (j *IdempotencyCleanupJob) Handle(ctx context.Context, _ *asynq.Task) error {
	if j == nil || j.Store == nil {
		return errors.New("idempotency cleanup: store not configured")
	}
	retention := j.Retention
	if retention <= 0 {
		retention = 7 * 24 * time.Hour
	}
	tracker := j.metrics().Track(TaskIdempotencyCleanup)
	removed, err := j.Store.Cleanup(ctx, retention)
	if err != nil {
		j.log().Error("cleanup idempotency keys", slog.Any("error", err))
		return tracker.End(err)
	}
	j.metrics().AddRemoved(TaskIdempotencyCleanup, removed)
	j.log().Info("idempotency keys pruned", slog.Int64("removed", removed), slog.Duration("retention", retention))
	return tracker.End(nil)
}

func (j *IdempotencyCleanupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *IdempotencyCleanupJob) log() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskIdempotencyCleanup))
	}
	return slog.Default().With(slog.String("job", TaskIdempotencyCleanup))
}

// CatalogWarmer preloads product reads for a company.
type CatalogWarmer interface {
	CompanyIDs(ctx context.Context) ([]int64, error)
	Warm(ctx context.Context, companyID int64, limit int) (int, error)
}

// CatalogWarmupJob fills the product cache after deploys and cache flushes.
type CatalogWarmupJob struct {
	Products CatalogWarmer
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
}

func (j *CatalogWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Products == nil {
		return errors.New("catalog warmup: products not configured")
	}
	var payload CatalogWarmupPayload
	if err := decodePayload(t, &payload); err != nil {
		return fmt.Errorf("catalog warmup payload: %w", asynq.SkipRetry)
	}
	if payload.Limit <= 0 {
		payload.Limit = 500
	}

	tracker := j.metrics().Track(TaskCatalogWarmup)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	companies, err := j.Products.CompanyIDs(ctx)
	if err != nil {
		resultErr = err
		j.log().Error("load warmup companies", slog.Any("error", err))
		return resultErr
	}
	total := 0
	for _, id := range companies {
		n, err := j.Products.Warm(ctx, id, payload.Limit)
		if err != nil {
			resultErr = err
			j.log().Error("warm company catalog", slog.Int64("company_id", id), slog.Any("error", err))
			return resultErr
		}
		total += n
	}
	j.log().Info("catalog warmed", slog.Int("companies", len(companies)), slog.Int("products", total))
	return resultErr
}

func (j *CatalogWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *CatalogWarmupJob) log() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskCatalogWarmup))
	}
	return slog.Default().With(slog.String("job", TaskCatalogWarmup))
}
