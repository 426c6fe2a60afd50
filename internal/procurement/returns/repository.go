package returns

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bizdesk/bizdesk/internal/documents"
	"github.com/bizdesk/bizdesk/internal/platform/db"
	"github.com/bizdesk/bizdesk/internal/shared"
)

// Repository persists purchase returns.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	States(ctx context.Context, companyID, vendorID int64) (companyState, vendorState string, err error)
	// LockSourceOrder loads the referenced order and locks it until the
	// surrounding transaction ends.
	LockSourceOrder(ctx context.Context, companyID, orderID int64) (*SourceOrder, error)
	ReturnedQuantities(ctx context.Context, companyID, orderID int64) (map[int64]float64, error)
	List(ctx context.Context, companyID int64, page shared.PageRequest, filters ListFilters) ([]PurchaseReturn, int, error)
	Get(ctx context.Context, companyID, id int64) (*PurchaseReturn, error)
	Create(ctx context.Context, pr PurchaseReturn) (int64, error)
	Delete(ctx context.Context, companyID, id int64) error
}

var lineTable = documents.LineTable{Table: "purchase_return_lines", Parent: "purchase_return_id"}

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

func (r *repository) States(ctx context.Context, companyID, vendorID int64) (string, string, error) {
	var companyState, vendorState string
	err := r.db.QueryRow(ctx, `
		SELECT co.state_code, v.state_code
		FROM companies co
		JOIN vendors v ON v.company_id = co.id
		WHERE co.id = $1 AND v.id = $2`, companyID, vendorID).Scan(&companyState, &vendorState)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", "", ErrUnknownVendor
	}
	return companyState, vendorState, err
}

func (r *repository) LockSourceOrder(ctx context.Context, companyID, orderID int64) (*SourceOrder, error) {
	src := SourceOrder{Ordered: map[int64]float64{}}
	err := r.db.QueryRow(ctx, `
		SELECT vendor_id, status FROM purchase_orders
		WHERE company_id = $1 AND id = $2
		FOR UPDATE`, companyID, orderID).Scan(&src.VendorID, &src.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUnknownOrder
		}
		return nil, err
	}
	rows, err := r.db.Query(ctx, `
		SELECT product_id, SUM(quantity) FROM purchase_order_lines
		WHERE purchase_order_id = $1
		GROUP BY product_id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var productID int64
		var qty float64
		if err := rows.Scan(&productID, &qty); err != nil {
			return nil, err
		}
		src.Ordered[productID] = qty
	}
	return &src, rows.Err()
}

func (r *repository) ReturnedQuantities(ctx context.Context, companyID, orderID int64) (map[int64]float64, error) {
	rows, err := r.db.Query(ctx, `
		SELECT l.product_id, SUM(l.quantity)
		FROM purchase_return_lines l
		JOIN purchase_returns pr ON pr.id = l.purchase_return_id
		WHERE pr.company_id = $1 AND pr.purchase_order_id = $2
		GROUP BY l.product_id`, companyID, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[int64]float64)
	for rows.Next() {
		var productID int64
		var qty float64
		if err := rows.Scan(&productID, &qty); err != nil {
			return nil, err
		}
		out[productID] = qty
	}
	return out, rows.Err()
}

const returnSelect = `SELECT pr.id, pr.company_id, pr.doc_number, pr.vendor_id, v.name, pr.purchase_order_id,
	pr.return_date, pr.reason, pr.notes, pr.created_at,
	pr.subtotal, pr.total_tax, pr.total_cgst, pr.total_sgst, pr.total_igst, pr.total_item_discount,
	pr.freight_type, pr.freight_value, pr.freight, pr.packing_type, pr.packing_value, pr.packing_forwarding,
	pr.discount_type, pr.discount_value, pr.document_discount, pr.round_off, pr.grand_total, pr.inter_state
	FROM purchase_returns pr
	JOIN vendors v ON v.id = pr.vendor_id`

var sortColumns = map[string]string{
	"doc_number":  "pr.doc_number",
	"return_date": "pr.return_date",
	"grand_total": "pr.grand_total",
	"vendor":      "v.name",
}

func scanReturn(row pgx.Row) (PurchaseReturn, error) {
	var pr PurchaseReturn
	dest := []any{
		&pr.ID, &pr.CompanyID, &pr.DocNumber, &pr.VendorID, &pr.VendorName, &pr.PurchaseOrderID,
		&pr.ReturnDate, &pr.Reason, &pr.Notes, &pr.CreatedAt,
	}
	err := row.Scan(append(dest, documents.SummaryDest(&pr.Summary)...)...)
	pr.Summary.FormatAmounts()
	return pr, err
}

func (r *repository) List(ctx context.Context, companyID int64, page shared.PageRequest, filters ListFilters) ([]PurchaseReturn, int, error) {
	f := db.NewFilter("pr.company_id = ?", companyID)
	if page.Search != "" {
		f.Add("(pr.doc_number ILIKE ? OR v.name ILIKE ? OR pr.reason ILIKE ?)", db.Like(page.Search))
	}
	if filters.VendorID != nil {
		f.Add("pr.vendor_id = ?", *filters.VendorID)
	}
	if filters.PurchaseOrderID != nil {
		f.Add("pr.purchase_order_id = ?", *filters.PurchaseOrderID)
	}
	if filters.DateFrom != nil {
		f.Add("pr.return_date >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		f.Add("pr.return_date <= ?", *filters.DateTo)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM purchase_returns pr JOIN vendors v ON v.id = pr.vendor_id `+f.Where(), f.Args()...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, args := f.Page(page.PerPage, page.Offset())
	rows, err := r.db.Query(ctx, fmt.Sprintf(`%s %s ORDER BY %s %s`, returnSelect, f.Where(),
		db.OrderBy(sortColumns, page.SortBy, page.SortDesc, "pr.return_date DESC, pr.id DESC"), limit), args...)
	if err != nil {
		return nil, 0, err
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (PurchaseReturn, error) {
		return scanReturn(row)
	})
	return out, total, err
}

func (r *repository) Get(ctx context.Context, companyID, id int64) (*PurchaseReturn, error) {
	pr, err := scanReturn(r.db.QueryRow(ctx, returnSelect+` WHERE pr.company_id = $1 AND pr.id = $2`, companyID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if pr.Lines, err = lineTable.LoadLines(ctx, r.db, pr.ID); err != nil {
		return nil, fmt.Errorf("load purchase return lines: %w", err)
	}
	return &pr, nil
}

func (r *repository) Create(ctx context.Context, pr PurchaseReturn) (int64, error) {
	query := fmt.Sprintf(`
		INSERT INTO purchase_returns (company_id, doc_number, vendor_id, purchase_order_id, return_date, reason, notes, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, %s)
		RETURNING id`, documents.SummaryColumns, documents.Placeholders(8, documents.SummaryColumnCount))
	args := []any{pr.CompanyID, pr.DocNumber, pr.VendorID, pr.PurchaseOrderID, pr.ReturnDate, pr.Reason, pr.Notes}
	args = append(args, documents.SummaryArgs(pr.Summary)...)

	var id int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		if db.IsForeignKeyViolation(err) {
			return 0, ErrUnknownVendor
		}
		return 0, err
	}
	return id, lineTable.InsertLines(ctx, r.db, id, pr.Lines)
}

func (r *repository) Delete(ctx context.Context, companyID, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM purchase_returns WHERE company_id = $1 AND id = $2`, companyID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
