package companies

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bizdesk/bizdesk/internal/platform/db"
	"github.com/bizdesk/bizdesk/internal/shared"
)

type Repository interface {
	List(ctx context.Context, page shared.PageRequest) ([]Company, int, error)
	Get(ctx context.Context, id int64) (*Company, error)
	Exists(ctx context.Context, id int64) (bool, error)
	IDs(ctx context.Context) ([]int64, error)
	Create(ctx context.Context, c Company) (*Company, error)
	Update(ctx context.Context, c Company) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db db.DBTX
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

const companyColumns = `id, code, name, gstin, state_code, address, created_at, updated_at`

var sortColumns = map[string]string{
	"code":       "code",
	"name":       "name",
	"created_at": "created_at",
}

func scanCompany(row pgx.Row) (Company, error) {
	var c Company
	err := row.Scan(&c.ID, &c.Code, &c.Name, &c.GSTIN, &c.StateCode, &c.Address, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *repository) List(ctx context.Context, page shared.PageRequest) ([]Company, int, error) {
	f := db.NewFilter("", nil)
	if page.Search != "" {
		f.Add("(name ILIKE ? OR code ILIKE ? OR gstin ILIKE ?)", db.Like(page.Search))
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM companies `+f.Where(), f.Args()...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, args := f.Page(page.PerPage, page.Offset())
	rows, err := r.db.Query(ctx, fmt.Sprintf(`SELECT %s FROM companies %s ORDER BY %s %s`,
		companyColumns, f.Where(), db.OrderBy(sortColumns, page.SortBy, page.SortDesc, "name ASC, id ASC"), limit), args...)
	if err != nil {
		return nil, 0, err
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Company, error) {
		return scanCompany(row)
	})
	return out, total, err
}

func (r *repository) Get(ctx context.Context, id int64) (*Company, error) {
	c, err := scanCompany(r.db.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *repository) Exists(ctx context.Context, id int64) (bool, error) {
	var ok bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM companies WHERE id = $1)`, id).Scan(&ok)
	return ok, err
}

func (r *repository) Create(ctx context.Context, c Company) (*Company, error) {
	created, err := scanCompany(r.db.QueryRow(ctx, `
		INSERT INTO companies (code, name, gstin, state_code, address)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+companyColumns, c.Code, c.Name, c.GSTIN, c.StateCode, c.Address))
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrDuplicateCode
		}
		return nil, err
	}
	return &created, nil
}

func (r *repository) Update(ctx context.Context, c Company) error {
	tag, err := r.db.Exec(ctx, `UPDATE companies SET name = $2, address = $3, updated_at = NOW() WHERE id = $1`,
		c.ID, c.Name, c.Address)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM companies WHERE id = $1`, id)
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

func (r *repository) IDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM companies ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}
