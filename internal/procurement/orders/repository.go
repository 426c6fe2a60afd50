package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bizdesk/bizdesk/internal/documents"
	"github.com/bizdesk/bizdesk/internal/platform/db"
	"github.com/bizdesk/bizdesk/internal/shared"
)

// Repository persists purchase orders.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	States(ctx context.Context, companyID, vendorID int64) (companyState, vendorState string, err error)
	List(ctx context.Context, companyID int64, page shared.PageRequest, filters ListFilters) ([]PurchaseOrder, int, error)
	Get(ctx context.Context, companyID, id int64) (*PurchaseOrder, error)
	Create(ctx context.Context, po PurchaseOrder) (int64, error)
	Update(ctx context.Context, po PurchaseOrder) error
	ReplaceLines(ctx context.Context, id int64, lines []documents.Line) error
	Transition(ctx context.Context, companyID, id int64, from []Status, to Status, reason *string) error
	Delete(ctx context.Context, companyID, id int64) error
	ListForReconcile(ctx context.Context, companyID int64, after int64, limit int) ([]PurchaseOrder, error)
}

var lineTable = documents.LineTable{Table: "purchase_order_lines", Parent: "purchase_order_id"}

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

const orderSelect = `SELECT po.id, po.company_id, po.doc_number, po.vendor_id, v.name, po.order_date,
	po.expected_date, po.notes, po.status, po.cancel_reason, po.approved_at, po.closed_at,
	po.cancelled_at, po.created_at, po.updated_at,
	po.subtotal, po.total_tax, po.total_cgst, po.total_sgst, po.total_igst, po.total_item_discount,
	po.freight_type, po.freight_value, po.freight, po.packing_type, po.packing_value, po.packing_forwarding,
	po.discount_type, po.discount_value, po.document_discount, po.round_off, po.grand_total, po.inter_state
	FROM purchase_orders po
	JOIN vendors v ON v.id = po.vendor_id`

var sortColumns = map[string]string{
	"doc_number":  "po.doc_number",
	"order_date":  "po.order_date",
	"grand_total": "po.grand_total",
	"status":      "po.status",
	"vendor":      "v.name",
}

func scanOrder(row pgx.Row) (PurchaseOrder, error) {
	var po PurchaseOrder
	dest := []any{
		&po.ID, &po.CompanyID, &po.DocNumber, &po.VendorID, &po.VendorName, &po.OrderDate,
		&po.ExpectedDate, &po.Notes, &po.Status, &po.CancelReason, &po.ApprovedAt, &po.ClosedAt,
		&po.CancelledAt, &po.CreatedAt, &po.UpdatedAt,
	}
	err := row.Scan(append(dest, documents.SummaryDest(&po.Summary)...)...)
	po.Summary.FormatAmounts()
	return po, err
}

func (r *repository) List(ctx context.Context, companyID int64, page shared.PageRequest, filters ListFilters) ([]PurchaseOrder, int, error) {
	f := db.NewFilter("po.company_id = ?", companyID)
	if page.Search != "" {
		f.Add("(po.doc_number ILIKE ? OR v.name ILIKE ?)", db.Like(page.Search))
	}
	if filters.Status != "" {
		f.Add("po.status = ?", string(filters.Status))
	}
	if filters.VendorID != nil {
		f.Add("po.vendor_id = ?", *filters.VendorID)
	}
	if filters.DateFrom != nil {
		f.Add("po.order_date >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		f.Add("po.order_date <= ?", *filters.DateTo)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM purchase_orders po JOIN vendors v ON v.id = po.vendor_id `+f.Where(), f.Args()...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, args := f.Page(page.PerPage, page.Offset())
	rows, err := r.db.Query(ctx, fmt.Sprintf(`%s %s ORDER BY %s %s`, orderSelect, f.Where(),
		db.OrderBy(sortColumns, page.SortBy, page.SortDesc, "po.order_date DESC, po.id DESC"), limit), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []PurchaseOrder
	for rows.Next() {
		po, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, po)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, companyID, id int64) (*PurchaseOrder, error) {
	po, err := scanOrder(r.db.QueryRow(ctx, orderSelect+` WHERE po.company_id = $1 AND po.id = $2`, companyID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if po.Lines, err = lineTable.LoadLines(ctx, r.db, po.ID); err != nil {
		return nil, fmt.Errorf("load purchase order lines: %w", err)
	}
	return &po, nil
}

func (r *repository) Create(ctx context.Context, po PurchaseOrder) (int64, error) {
	query := fmt.Sprintf(`
		INSERT INTO purchase_orders (company_id, doc_number, vendor_id, order_date, expected_date, notes, status, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, %s)
		RETURNING id`, documents.SummaryColumns, documents.Placeholders(8, documents.SummaryColumnCount))
	args := []any{po.CompanyID, po.DocNumber, po.VendorID, po.OrderDate, po.ExpectedDate, po.Notes, string(po.Status)}
	args = append(args, documents.SummaryArgs(po.Summary)...)

	var id int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		if db.IsForeignKeyViolation(err) {
			return 0, ErrUnknownVendor
		}
		return 0, err
	}
	return id, lineTable.InsertLines(ctx, r.db, id, po.Lines)
}

func (r *repository) Update(ctx context.Context, po PurchaseOrder) error {
	query := fmt.Sprintf(`
		UPDATE purchase_orders SET vendor_id = $3, order_date = $4, expected_date = $5, notes = $6, %s,
			updated_at = NOW()
		WHERE company_id = $1 AND id = $2 AND status = 'DRAFT'`, documents.SummaryAssignments(7))
	args := []any{po.CompanyID, po.ID, po.VendorID, po.OrderDate, po.ExpectedDate, po.Notes}
	args = append(args, documents.SummaryArgs(po.Summary)...)

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return ErrUnknownVendor
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCannotEdit
	}
	return nil
}

func (r *repository) ReplaceLines(ctx context.Context, id int64, lines []documents.Line) error {
	if err := lineTable.DeleteLines(ctx, r.db, id); err != nil {
		return err
	}
	return lineTable.InsertLines(ctx, r.db, id, lines)
}

func (r *repository) Transition(ctx context.Context, companyID, id int64, from []Status, to Status, reason *string) error {
	var stamp string
	switch to {
	case StatusApproved:
		stamp = "approved_at"
	case StatusClosed:
		stamp = "closed_at"
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
		UPDATE purchase_orders
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

func (r *repository) Delete(ctx context.Context, companyID, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM purchase_orders WHERE company_id = $1 AND id = $2 AND status = 'DRAFT'`, companyID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCannotEdit
	}
	return nil
}

func (r *repository) ListForReconcile(ctx context.Context, companyID int64, after int64, limit int) ([]PurchaseOrder, error) {
	rows, err := r.db.Query(ctx, orderSelect+`
		WHERE po.company_id = $1 AND po.id > $2 AND po.status <> 'CANCELLED'
		ORDER BY po.id LIMIT $3`, companyID, after, limit)
	if err != nil {
		return nil, err
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (PurchaseOrder, error) {
		return scanOrder(row)
	})
	if err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Lines, err = lineTable.LoadLines(ctx, r.db, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}
