package designations

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
	List(ctx context.Context, companyID int64, page shared.PageRequest) ([]Designation, int, error)
	Get(ctx context.Context, companyID, id int64) (*Designation, error)
	Create(ctx context.Context, d Designation) (*Designation, error)
	Update(ctx context.Context, d Designation) (*Designation, error)
	Delete(ctx context.Context, companyID, id int64) error
}

type repository struct {
	db db.DBTX
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

const columns = `id, company_id, name, description, created_at, updated_at`

func scan(row pgx.Row) (Designation, error) {
	var d Designation
	err := row.Scan(&d.ID, &d.CompanyID, &d.Name, &d.Description, &d.CreatedAt, &d.UpdatedAt)
	return d, err
}

func mapWriteErr(err error) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return ErrNotFound
	case db.IsUniqueViolation(err):
		return ErrDuplicateName
	}
	return err
}

func (r *repository) List(ctx context.Context, companyID int64, page shared.PageRequest) ([]Designation, int, error) {
	f := db.NewFilter("company_id = ?", companyID)
	if page.Search != "" {
		f.Add("name ILIKE ?", db.Like(page.Search))
	}
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM designations `+f.Where(), f.Args()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	limit, args := f.Page(page.PerPage, page.Offset())
	rows, err := r.db.Query(ctx, fmt.Sprintf(`SELECT %s FROM designations %s ORDER BY %s %s`, columns, f.Where(),
		db.OrderBy(map[string]string{"name": "name", "created_at": "created_at"}, page.SortBy, page.SortDesc, "name ASC"), limit), args...)
	if err != nil {
		return nil, 0, err
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Designation, error) { return scan(row) })
	return out, total, err
}

func (r *repository) Get(ctx context.Context, companyID, id int64) (*Designation, error) {
	d, err := scan(r.db.QueryRow(ctx, `SELECT `+columns+` FROM designations WHERE company_id = $1 AND id = $2`, companyID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *repository) Create(ctx context.Context, d Designation) (*Designation, error) {
	created, err := scan(r.db.QueryRow(ctx, `
		INSERT INTO designations (company_id, name, description) VALUES ($1, $2, $3)
		RETURNING `+columns, d.CompanyID, d.Name, d.Description))
	if err != nil {
		return nil, mapWriteErr(err)
	}
	return &created, nil
}

func (r *repository) Update(ctx context.Context, d Designation) (*Designation, error) {
	updated, err := scan(r.db.QueryRow(ctx, `
		UPDATE designations SET name = $3, description = $4, updated_at = NOW()
		WHERE company_id = $1 AND id = $2
		RETURNING `+columns, d.CompanyID, d.ID, d.Name, d.Description))
	if err != nil {
		return nil, mapWriteErr(err)
	}
	return &updated, nil
}

func (r *repository) Delete(ctx context.Context, companyID, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM designations WHERE company_id = $1 AND id = $2`, companyID, id)
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
