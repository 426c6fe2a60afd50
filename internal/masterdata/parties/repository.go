package parties

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bizdesk/bizdesk/internal/platform/db"
	"github.com/bizdesk/bizdesk/internal/shared"
)

// Repository persists parties of one kind.
type Repository interface {
	List(ctx context.Context, companyID int64, page shared.PageRequest) ([]Party, int, error)
	Get(ctx context.Context, companyID, id int64) (*Party, error)
	Create(ctx context.Context, p Party) (int64, error)
	Update(ctx context.Context, companyID, id int64, updates map[string]any) error
	Delete(ctx context.Context, companyID, id int64) error
}

type repository struct {
	db   db.DBTX
	kind Kind
}

// NewRepository creates a repository for kind.
func NewRepository(pool *pgxpool.Pool, kind Kind) Repository {
	return &repository{db: pool, kind: kind}
}

const partyColumns = `id, company_id, code, name, gstin, email, phone, billing_address,
	shipping_address, city, state_code, postal_code, opening_balance, credit_limit,
	payment_terms_days, is_active, notes, created_at, updated_at`

var sortColumns = map[string]string{
	"code":       "code",
	"name":       "name",
	"state_code": "state_code",
	"created_at": "created_at",
}

func scanParty(row pgx.Row) (Party, error) {
	var p Party
	err := row.Scan(
		&p.ID, &p.CompanyID, &p.Code, &p.Name, &p.GSTIN, &p.Email, &p.Phone,
		&p.BillingAddress, &p.ShippingAddress, &p.City, &p.StateCode, &p.PostalCode,
		&p.OpeningBalance, &p.CreditLimit, &p.PaymentTermsDays, &p.IsActive,
		&p.Notes, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

func (r *repository) List(ctx context.Context, companyID int64, page shared.PageRequest) ([]Party, int, error) {
	f := db.NewFilter("company_id = ?", companyID)
	if page.Search != "" {
		f.Add("(name ILIKE ? OR code ILIKE ? OR gstin ILIKE ? OR phone ILIKE ?)", db.Like(page.Search))
	}
	if page.IsActive != nil {
		f.Add("is_active = ?", *page.IsActive)
	}

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s %s`, r.kind.table(), f.Where())
	if err := r.db.QueryRow(ctx, countQuery, f.Args()...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, args := f.Page(page.PerPage, page.Offset())
	query := fmt.Sprintf(`SELECT %s FROM %s %s ORDER BY %s %s`,
		partyColumns, r.kind.table(), f.Where(),
		db.OrderBy(sortColumns, page.SortBy, page.SortDesc, "name ASC, id ASC"), limit)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Party
	for rows.Next() {
		p, err := scanParty(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, companyID, id int64) (*Party, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE company_id = $1 AND id = $2`, partyColumns, r.kind.table())
	p, err := scanParty(r.db.QueryRow(ctx, query, companyID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *repository) Create(ctx context.Context, p Party) (int64, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (
			company_id, code, name, gstin, email, phone, billing_address, shipping_address,
			city, state_code, postal_code, opening_balance, credit_limit, payment_terms_days,
			is_active, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id
	`, r.kind.table())
	var id int64
	err := r.db.QueryRow(ctx, query,
		p.CompanyID, p.Code, p.Name, p.GSTIN, p.Email, p.Phone, p.BillingAddress,
		p.ShippingAddress, p.City, p.StateCode, p.PostalCode, p.OpeningBalance,
		p.CreditLimit, p.PaymentTermsDays, p.IsActive, p.Notes,
	).Scan(&id)
	if db.IsUniqueViolation(err) {
		return 0, ErrDuplicateCode
	}
	return id, err
}

func (r *repository) Update(ctx context.Context, companyID, id int64, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	setClauses := make([]string, 0, len(updates)+1)
	args := make([]any, 0, len(updates)+3)
	for field, value := range updates {
		args = append(args, value)
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", field, len(args)))
	}
	args = append(args, time.Now())
	setClauses = append(setClauses, fmt.Sprintf("updated_at = $%d", len(args)))
	args = append(args, companyID, id)

	query := fmt.Sprintf(`UPDATE %s SET %s WHERE company_id = $%d AND id = $%d`,
		r.kind.table(), strings.Join(setClauses, ", "), len(args)-1, len(args))
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrDuplicateCode
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, companyID, id int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE company_id = $1 AND id = $2`, r.kind.table())
	tag, err := r.db.Exec(ctx, query, companyID, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return ErrInUse
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
