package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bizdesk/bizdesk/internal/platform/db"
	"github.com/bizdesk/bizdesk/internal/shared"
)

// PgStore implements Store and the read side over Postgres. Build it on a
// transaction to post, or on the pool to read.
type PgStore struct {
	db db.DBTX
}

func NewStore(q db.DBTX) *PgStore {
	return &PgStore{db: q}
}

func (s *PgStore) BalanceForUpdate(ctx context.Context, companyID, warehouseID, productID int64) (Balance, error) {
	b := Balance{CompanyID: companyID, WarehouseID: warehouseID, ProductID: productID}
	err := s.db.QueryRow(ctx, `
		SELECT qty, avg_cost, updated_at FROM stock_balances
		WHERE company_id = $1 AND warehouse_id = $2 AND product_id = $3
		FOR UPDATE`, companyID, warehouseID, productID).Scan(&b.Qty, &b.AvgCost, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return b, nil
	}
	return b, err
}

func (s *PgStore) UpsertBalance(ctx context.Context, b Balance) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO stock_balances (company_id, warehouse_id, product_id, qty, avg_cost, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (company_id, warehouse_id, product_id)
		DO UPDATE SET qty = EXCLUDED.qty, avg_cost = EXCLUDED.avg_cost, updated_at = NOW()`,
		b.CompanyID, b.WarehouseID, b.ProductID, b.Qty, b.AvgCost)
	return err
}

func (s *PgStore) InsertCardEntry(ctx context.Context, companyID int64, e StockCardEntry) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO stock_card_entries (company_id, warehouse_id, product_id, ref_type, ref_id, doc_number,
			posted_at, qty_in, qty_out, balance_qty, unit_cost, balance_cost, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		companyID, e.WarehouseID, e.ProductID, e.RefType, e.RefID, e.DocNumber,
		e.PostedAt, e.QtyIn, e.QtyOut, e.BalanceQty, e.UnitCost, e.BalanceCost, e.Note)
	return err
}

const cardColumns = `id, warehouse_id, product_id, ref_type, ref_id, doc_number, posted_at,
	qty_in, qty_out, balance_qty, unit_cost, balance_cost, note`

func scanCard(row pgx.CollectableRow) (StockCardEntry, error) {
	var e StockCardEntry
	err := row.Scan(&e.ID, &e.WarehouseID, &e.ProductID, &e.RefType, &e.RefID, &e.DocNumber, &e.PostedAt,
		&e.QtyIn, &e.QtyOut, &e.BalanceQty, &e.UnitCost, &e.BalanceCost, &e.Note)
	return e, err
}

func (s *PgStore) EntriesFor(ctx context.Context, companyID int64, refType string, refID int64) ([]StockCardEntry, error) {
	rows, err := s.db.Query(ctx, `SELECT `+cardColumns+` FROM stock_card_entries
		WHERE company_id = $1 AND ref_type = $2 AND ref_id = $3
		ORDER BY id`, companyID, refType, refID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanCard)
}

// Balances lists balances of a company.
func (s *PgStore) Balances(ctx context.Context, companyID int64, page shared.PageRequest, filter BalanceFilter) ([]Balance, int, error) {
	f := db.NewFilter("company_id = ?", companyID)
	if filter.WarehouseID != nil {
		f.Add("warehouse_id = ?", *filter.WarehouseID)
	}
	if filter.ProductID != nil {
		f.Add("product_id = ?", *filter.ProductID)
	}
	if filter.NonZero {
		f.AddRaw("qty <> 0")
	}

	var total int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM stock_balances `+f.Where(), f.Args()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	limit, args := f.Page(page.PerPage, page.Offset())
	rows, err := s.db.Query(ctx, fmt.Sprintf(`
		SELECT company_id, warehouse_id, product_id, qty, avg_cost, updated_at
		FROM stock_balances %s ORDER BY warehouse_id, product_id %s`, f.Where(), limit), args...)
	if err != nil {
		return nil, 0, err
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByPos[Balance])
	return out, total, err
}

// Card returns stock card entries for one product in one warehouse, oldest
// first.
func (s *PgStore) Card(ctx context.Context, companyID int64, filter StockCardFilter) ([]StockCardEntry, error) {
	f := db.NewFilter("company_id = ?", companyID)
	f.Add("warehouse_id = ?", filter.WarehouseID)
	f.Add("product_id = ?", filter.ProductID)
	if filter.From != nil {
		f.Add("posted_at >= ?", *filter.From)
	}
	if filter.To != nil {
		f.Add("posted_at < ?", filter.To.AddDate(0, 0, 1))
	}
	limit := filter.Limit
	if limit <= 0 || limit > 1000 {
		limit = 200
	}
	args := append(f.Args(), limit)
	rows, err := s.db.Query(ctx, fmt.Sprintf(`SELECT %s FROM stock_card_entries %s ORDER BY posted_at, id LIMIT $%d`,
		cardColumns, f.Where(), len(args)), args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanCard)
}
