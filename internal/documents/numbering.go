package documents

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bizdesk/bizdesk/internal/platform/cache"
	"github.com/bizdesk/bizdesk/internal/platform/db"
	"github.com/bizdesk/bizdesk/internal/shared"
)

// Document series prefixes.
const (
	SeriesChallan        = "DC"
	SeriesPurchaseOrder  = "PO"
	SeriesPurchaseReturn = "PR"
	SeriesStockJournal   = "SJ"
)

// SequenceStore hands out the next value of a yearly series.
type SequenceStore interface {
	NextSequence(ctx context.Context, companyID int64, series string, year int) (int64, error)
}

// NumberAllocator hands out document numbers. *Numberer implements it.
type NumberAllocator interface {
	Next(ctx context.Context, companyID int64, series string, date time.Time) (string, error)
}

// Numberer allocates document numbers such as DC/2025/0007.
type Numberer struct {
	store  SequenceStore
	locker cache.Locker
	ttl    time.Duration
}

// NewNumberer wires a sequence store behind a per-company lock.
func NewNumberer(store SequenceStore, locker cache.Locker) *Numberer {
	return &Numberer{store: store, locker: locker, ttl: 5 * time.Second}
}

// Next returns the next number of series for the company and date.
func (n *Numberer) Next(ctx context.Context, companyID int64, series string, date time.Time) (string, error) {
	year := date.Year()
	var number string
	err := n.locker.WithLock(ctx, shared.DocNumberLockKey(companyID, series), n.ttl, func(ctx context.Context) error {
		seq, err := n.store.NextSequence(ctx, companyID, series, year)
		if err != nil {
			return fmt.Errorf("next %s sequence: %w", series, err)
		}
		number = FormatNumber(series, year, seq)
		return nil
	})
	return number, err
}

// FormatNumber renders series/year/sequence with a 4 digit minimum.
func FormatNumber(series string, year int, seq int64) string {
	return fmt.Sprintf("%s/%d/%04d", series, year, seq)
}

// PgSequenceStore keeps counters in document_sequences. Inside a transaction
// carried by the context the increment joins it, so a rollback returns the
// number to the series.
type PgSequenceStore struct {
	pool *pgxpool.Pool
}

// NewPgSequenceStore constructs the store.
func NewPgSequenceStore(pool *pgxpool.Pool) *PgSequenceStore {
	return &PgSequenceStore{pool: pool}
}

// NextSequence implements SequenceStore.
func (s *PgSequenceStore) NextSequence(ctx context.Context, companyID int64, series string, year int) (int64, error) {
	const query = `
		INSERT INTO document_sequences (company_id, series, year, last_value)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (company_id, series, year)
		DO UPDATE SET last_value = document_sequences.last_value + 1
		RETURNING last_value
	`
	var next int64
	err := db.Conn(ctx, s.pool).QueryRow(ctx, query, companyID, series, year).Scan(&next)
	return next, err
}
