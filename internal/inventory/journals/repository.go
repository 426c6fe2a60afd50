package journals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bizdesk/bizdesk/internal/documents"
	"github.com/bizdesk/bizdesk/internal/inventory"
	"github.com/bizdesk/bizdesk/internal/platform/db"
	"github.com/bizdesk/bizdesk/internal/shared"
)

// Repository persists stock journals.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	// Stock exposes the ledger store bound to the same connection.
	Stock() inventory.Store
	CountWarehouses(ctx context.Context, companyID int64, ids []int64) (int, error)
	List(ctx context.Context, companyID int64, page shared.PageRequest, filters ListFilters) ([]Journal, int, error)
	Get(ctx context.Context, companyID, id int64) (*Journal, error)
	Create(ctx context.Context, j Journal) (int64, error)
	Delete(ctx context.Context, companyID, id int64) error
	Transition(ctx context.Context, companyID, id int64, from []Status, to Status, reason *string) error
}

var (
	consumptionLines = documents.LineTable{Table: "stock_journal_consumption_lines", Parent: "stock_journal_id"}
	productionLines  = documents.LineTable{Table: "stock_journal_production_lines", Parent: "stock_journal_id"}
)

type repository struct {
	db   db.DBTX
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(db.ContextWithTx(ctx, tx), &repository{db: tx, pool: r.pool})
	})
}

func (r *repository) Stock() inventory.Store {
	return inventory.NewStore(r.db)
}

func (r *repository) CountWarehouses(ctx context.Context, companyID int64, ids []int64) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM warehouses WHERE company_id = $1 AND id = ANY($2) AND is_active`,
		companyID, ids).Scan(&n)
	return n, err
}

const journalSelect = `SELECT id, company_id, doc_number, journal_type, journal_date, source_warehouse_id,
	destination_warehouse_id, narration, status, additional_cost, consumption_value, production_value,
	cancel_reason, posted_at, cancelled_at, created_at, updated_at
	FROM stock_journals`

var sortColumns = map[string]string{
	"doc_number":   "doc_number",
	"journal_date": "journal_date",
	"journal_type": "journal_type",
	"status":       "status",
}

func scanJournal(row pgx.Row) (Journal, error) {
	var j Journal
	err := row.Scan(&j.ID, &j.CompanyID, &j.DocNumber, &j.JournalType, &j.JournalDate, &j.SourceWarehouseID,
		&j.DestinationWarehouseID, &j.Narration, &j.Status, &j.AdditionalCost, &j.ConsumptionValue,
		&j.ProductionValue, &j.CancelReason, &j.PostedAt, &j.CancelledAt, &j.CreatedAt, &j.UpdatedAt)
	return j, err
}

func (r *repository) List(ctx context.Context, companyID int64, page shared.PageRequest, filters ListFilters) ([]Journal, int, error) {
	f := db.NewFilter("company_id = ?", companyID)
	if page.Search != "" {
		f.Add("(doc_number ILIKE ? OR narration ILIKE ?)", db.Like(page.Search))
	}
	if filters.Status != "" {
		f.Add("status = ?", string(filters.Status))
	}
	if filters.JournalType != "" {
		f.Add("journal_type = ?", string(filters.JournalType))
	}
	if filters.WarehouseID != nil {
		f.Add("(source_warehouse_id = ? OR destination_warehouse_id = ?)", *filters.WarehouseID)
	}
	if filters.DateFrom != nil {
		f.Add("journal_date >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		f.Add("journal_date <= ?", *filters.DateTo)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM stock_journals `+f.Where(), f.Args()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	limit, args := f.Page(page.PerPage, page.Offset())
	rows, err := r.db.Query(ctx, fmt.Sprintf(`%s %s ORDER BY %s %s`, journalSelect, f.Where(),
		db.OrderBy(sortColumns, page.SortBy, page.SortDesc, "journal_date DESC, id DESC"), limit), args...)
	if err != nil {
		return nil, 0, err
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Journal, error) {
		return scanJournal(row)
	})
	return out, total, err
}

func (r *repository) Get(ctx context.Context, companyID, id int64) (*Journal, error) {
	j, err := scanJournal(r.db.QueryRow(ctx, journalSelect+` WHERE company_id = $1 AND id = $2`, companyID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if j.Consumption, err = consumptionLines.LoadLines(ctx, r.db, j.ID); err != nil {
		return nil, fmt.Errorf("load consumption lines: %w", err)
	}
	if j.Production, err = productionLines.LoadLines(ctx, r.db, j.ID); err != nil {
		return nil, fmt.Errorf("load production lines: %w", err)
	}
	return &j, nil
}

func (r *repository) Create(ctx context.Context, j Journal) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO stock_journals (company_id, doc_number, journal_type, journal_date, source_warehouse_id,
			destination_warehouse_id, narration, status, additional_cost, consumption_value, production_value)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`,
		j.CompanyID, j.DocNumber, string(j.JournalType), j.JournalDate, j.SourceWarehouseID,
		j.DestinationWarehouseID, j.Narration, string(j.Status), j.AdditionalCost, j.ConsumptionValue,
		j.ProductionValue).Scan(&id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return 0, ErrUnknownWarehouse
		}
		return 0, err
	}
	if err := consumptionLines.InsertLines(ctx, r.db, id, j.Consumption); err != nil {
		return 0, err
	}
	return id, productionLines.InsertLines(ctx, r.db, id, j.Production)
}

func (r *repository) Delete(ctx context.Context, companyID, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM stock_journals WHERE company_id = $1 AND id = $2 AND status = 'DRAFT'`, companyID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCannotDelete
	}
	return nil
}

func (r *repository) Transition(ctx context.Context, companyID, id int64, from []Status, to Status, reason *string) error {
	var stamp string
	switch to {
	case StatusPosted:
		stamp = "posted_at"
	case StatusCancelled:
		stamp = "cancelled_at"
	default:
		return fmt.Errorf("unsupported transition to %s", to)
	}
	allowed := make([]string, len(from))
	for i, s := range from {
		allowed[i] = string(s)
	}
	tag, err := r.db.Exec(ctx, fmt.Sprintf(`
		UPDATE stock_journals
		SET status = $3, %s = $4, cancel_reason = COALESCE($5, cancel_reason), updated_at = NOW()
		WHERE company_id = $1 AND id = $2 AND status = ANY($6)`, stamp),
		companyID, id, string(to), time.Now(), reason, allowed)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStatusChanged
	}
	return nil
}
