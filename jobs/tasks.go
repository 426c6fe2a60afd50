package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"

	// TaskTotalsReconcile recomputes stored document totals and reports drift.
	TaskTotalsReconcile = "totals:reconcile"
	// TaskIdempotencyCleanup prunes expired idempotency keys.
	TaskIdempotencyCleanup = "idempotency:cleanup"
	// TaskCatalogWarmup preloads product reads into the cache.
	TaskCatalogWarmup = "catalog:warmup"
)

// TotalsReconcilePayload scopes a reconcile run. A zero CompanyID means every
// company.
type TotalsReconcilePayload struct {
	CompanyID int64 `json:"company_id,omitempty"`
}

// CatalogWarmupPayload bounds how many products are loaded per company.
type CatalogWarmupPayload struct {
	Limit int `json:"limit,omitempty"`
}

// NewTotalsReconcileTask builds a reconcile task.
func NewTotalsReconcileTask(companyID int64) (*asynq.Task, error) {
	body, err := json.Marshal(TotalsReconcilePayload{CompanyID: companyID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTotalsReconcile, body, asynq.Queue(QueueDefault), asynq.MaxRetry(3)), nil
}

// NewIdempotencyCleanupTask builds a cleanup task.
func NewIdempotencyCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskIdempotencyCleanup, nil, asynq.Queue(QueueDefault), asynq.MaxRetry(1))
}

// NewCatalogWarmupTask builds a warmup task.
func NewCatalogWarmupTask(limit int) (*asynq.Task, error) {
	body, err := json.Marshal(CatalogWarmupPayload{Limit: limit})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCatalogWarmup, body, asynq.Queue(QueueDefault), asynq.MaxRetry(1)), nil
}

func decodePayload(t *asynq.Task, dest any) error {
	if len(t.Payload()) == 0 {
		return nil
	}
	return json.Unmarshal(t.Payload(), dest)
}
