package challans

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

// Repository persists challans.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	States(ctx context.Context, companyID, customerID int64) (companyState, customerState string, err error)
	List(ctx context.Context, companyID int64, page shared.PageRequest, filters ListFilters) ([]Challan, int, error)
	Get(ctx context.Context, companyID, id int64) (*Challan, error)
	Create(ctx context.Context, c Challan) (int64, error)
	Update(ctx context.Context, c Challan) error
	ReplaceLines(ctx context.Context, id int64, lines []documents.Line) error
	Transition(ctx context.Context, companyID, id int64, from []Status, to Status, reason *string) error
	Delete(ctx context.Context, companyID, id int64) error
	ListForReconcile(ctx context.Context, companyID int64, after int64, limit int) ([]Challan, error)
}

var lineTable = documents.LineTable{Table: "delivery_challan_lines", Parent: "challan_id"}

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

func (r *repository) States(ctx context.Context, companyID, customerID int64) (string, string, error) {
	var companyState, customerState string
	err := r.db.QueryRow(ctx, `
		SELECT co.state_code, cu.state_code
		FROM companies co
		JOIN customers cu ON cu.company_id = co.id
		WHERE co.id = $1 AND cu.id = $2`, companyID, customerID).Scan(&companyState, &customerState)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", "", ErrUnknownCustomer
	}
	return companyState, customerState, err
}

const challanSelect = `SELECT dc.id, dc.company_id, dc.doc_number, dc.customer_id, cu.name, dc.challan_date,
	dc.challan_type, dc.transport_mode, dc.vehicle_number, dc.place_of_supply, dc.notes, dc.status,
	dc.cancel_reason, dc.issued_at, dc.delivered_at, dc.cancelled_at, dc.created_at, dc.updated_at, ` +
	`dc.subtotal, dc.total_tax, dc.total_cgst, dc.total_sgst, dc.total_igst, dc.total_item_discount,
	dc.freight_type, dc.freight_value, dc.freight, dc.packing_type, dc.packing_value, dc.packing_forwarding,
	dc.discount_type, dc.discount_value, dc.document_discount, dc.round_off, dc.grand_total, dc.inter_state
	FROM delivery_challans dc
	JOIN customers cu ON cu.id = dc.customer_id`

var sortColumns = map[string]string{
	"doc_number":   "dc.doc_number",
	"challan_date": "dc.challan_date",
	"grand_total":  "dc.grand_total",
	"status":       "dc.status",
	"customer":     "cu.name",
}

func scanChallan(row pgx.Row) (Challan, error) {
	var c Challan
	dest := []any{
		&c.ID, &c.CompanyID, &c.DocNumber, &c.CustomerID, &c.CustomerName, &c.ChallanDate,
		&c.ChallanType, &c.TransportMode, &c.VehicleNumber, &c.PlaceOfSupply, &c.Notes, &c.Status,
		&c.CancelReason, &c.IssuedAt, &c.DeliveredAt, &c.CancelledAt, &c.CreatedAt, &c.UpdatedAt,
	}
	dest = append(dest, documents.SummaryDest(&c.Summary)...)
	err := row.Scan(dest...)
	c.Summary.FormatAmounts()
	return c, err
}

func (r *repository) List(ctx context.Context, companyID int64, page shared.PageRequest, filters ListFilters) ([]Challan, int, error) {
	f := db.NewFilter("dc.company_id = ?", companyID)
	if page.Search != "" {
		f.Add("(dc.doc_number ILIKE ? OR cu.name ILIKE ? OR dc.vehicle_number ILIKE ?)", db.Like(page.Search))
	}
	if filters.Status != "" {
		f.Add("dc.status = ?", string(filters.Status))
	}
	if filters.CustomerID != nil {
		f.Add("dc.customer_id = ?", *filters.CustomerID)
	}
	if filters.DateFrom != nil {
		f.Add("dc.challan_date >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		f.Add("dc.challan_date <= ?", *filters.DateTo)
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM delivery_challans dc JOIN customers cu ON cu.id = dc.customer_id ` + f.Where()
	if err := r.db.QueryRow(ctx, countQuery, f.Args()...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, args := f.Page(page.PerPage, page.Offset())
	query := fmt.Sprintf(`%s %s ORDER BY %s %s`, challanSelect, f.Where(),
		db.OrderBy(sortColumns, page.SortBy, page.SortDesc, "dc.challan_date DESC, dc.id DESC"), limit)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Challan
	for rows.Next() {
		c, err := scanChallan(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, companyID, id int64) (*Challan, error) {
	c, err := scanChallan(r.db.QueryRow(ctx, challanSelect+` WHERE dc.company_id = $1 AND dc.id = $2`, companyID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if c.Lines, err = lineTable.LoadLines(ctx, r.db, c.ID); err != nil {
		return nil, fmt.Errorf("load challan lines: %w", err)
	}
	return &c, nil
}

func (r *repository) Create(ctx context.Context, c Challan) (int64, error) {
	query := fmt.Sprintf(`
		INSERT INTO delivery_challans (company_id, doc_number, customer_id, challan_date, challan_type,
			transport_mode, vehicle_number, place_of_supply, notes, status, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, %s)
		RETURNING id`, documents.SummaryColumns, documents.Placeholders(11, documents.SummaryColumnCount))
	args := []any{c.CompanyID, c.DocNumber, c.CustomerID, c.ChallanDate, string(c.ChallanType),
		c.TransportMode, c.VehicleNumber, c.PlaceOfSupply, c.Notes, string(c.Status)}
	args = append(args, documents.SummaryArgs(c.Summary)...)

	var id int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		if db.IsForeignKeyViolation(err) {
			return 0, ErrUnknownCustomer
		}
		return 0, err
	}
	if err := lineTable.InsertLines(ctx, r.db, id, c.Lines); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repository) Update(ctx context.Context, c Challan) error {
	query := fmt.Sprintf(`
		UPDATE delivery_challans SET customer_id = $3, challan_date = $4, challan_type = $5,
			transport_mode = $6, vehicle_number = $7, place_of_supply = $8, notes = $9, %s,
			updated_at = NOW()
		WHERE company_id = $1 AND id = $2 AND status = 'DRAFT'`, documents.SummaryAssignments(10))
	args := []any{c.CompanyID, c.ID, c.CustomerID, c.ChallanDate, string(c.ChallanType),
		c.TransportMode, c.VehicleNumber, c.PlaceOfSupply, c.Notes}
	args = append(args, documents.SummaryArgs(c.Summary)...)

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return ErrUnknownCustomer
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

// Transition moves a challan to status to when it is currently in one of
// from. A row that already moved on yields ErrStatusChanged.
func (r *repository) Transition(ctx context.Context, companyID, id int64, from []Status, to Status, reason *string) error {
	allowed := make([]string, len(from))
	for i, s := range from {
		allowed[i] = string(s)
	}
	var stamp string
	switch to {
	case StatusIssued:
		stamp = "issued_at"
	case StatusDelivered:
		stamp = "delivered_at"
	case StatusCancelled:
		stamp = "cancelled_at"
	default:
		return fmt.Errorf("unsupported transition to %s", to)
	}
	query := fmt.Sprintf(`
		UPDATE delivery_challans
		SET status = $3, %s = $4, cancel_reason = COALESCE($5, cancel_reason), updated_at = NOW()
		WHERE company_id = $1 AND id = $2 AND status = ANY($6)`, stamp)
	tag, err := r.db.Exec(ctx, query, companyID, id, string(to), time.Now(), reason, allowed)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStatusChanged
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, companyID, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM delivery_challans WHERE company_id = $1 AND id = $2 AND status = 'DRAFT'`, companyID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCannotEdit
	}
	return nil
}

// ListForReconcile pages through non-cancelled challans by id with lines
// loaded.
func (r *repository) ListForReconcile(ctx context.Context, companyID int64, after int64, limit int) ([]Challan, error) {
	rows, err := r.db.Query(ctx, challanSelect+`
		WHERE dc.company_id = $1 AND dc.id > $2 AND dc.status <> 'CANCELLED'
		ORDER BY dc.id LIMIT $3`, companyID, after, limit)
	if err != nil {
		return nil, err
	}
	var out []Challan
	for rows.Next() {
		c, err := scanChallan(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Lines, err = lineTable.LoadLines(ctx, r.db, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}
