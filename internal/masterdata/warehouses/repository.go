package warehouses

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
	List(ctx context.Context, companyID int64, page shared.PageRequest) ([]Warehouse, int, error)
	Get(ctx context.Context, companyID, id int64) (*Warehouse, error)
	Create(ctx context.Context, w Warehouse) (*Warehouse, error)
	Update(ctx context.Context, w Warehouse) error
	Delete(ctx context.Context, companyID, id int64) error
}

type repository struct {
	db db.DBTX
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

const warehouseColumns = `id, company_id, code, name, address, is_active, created_at, updated_at`

var sortColumns = map[string]string{
	"code": "code",
	"name": "name",
}

func scanWarehouse(row pgx.Row) (Warehouse, error) {
	var w Warehouse
	err := row.Scan(&w.ID, &w.CompanyID, &w.Code, &w.Name, &w.Address, &w.IsActive, &w.CreatedAt, &w.UpdatedAt)
	return w, err
}

func (r *repository) List(ctx context.Context, companyID int64, page shared.PageRequest) ([]Warehouse, int, error) {
	f := db.NewFilter("company_id = ?", companyID)
	if page.Search != "" {
		f.Add("(name ILIKE ? OR code ILIKE ?)", db.Like(page.Search))
	}
	if page.IsActive != nil {
		f.Add("is_active = ?", *page.IsActive)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM warehouses `+f.Where(), f.Args()...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, args := f.Page(page.PerPage, page.Offset())
	rows, err := r.db.Query(ctx, fmt.Sprintf(`SELECT %s FROM warehouses %s ORDER BY %s %s`,
		warehouseColumns, f.Where(), db.OrderBy(sortColumns, page.SortBy, page.SortDesc, "name ASC, id ASC"), limit), args...)
	if err != nil {
		return nil, 0, err
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Warehouse, error) {
		return scanWarehouse(row)
	})
	return out, total, err
}

func (r *repository) Get(ctx context.Context, companyID, id int64) (*Warehouse, error) {
	w, err := scanWarehouse(r.db.QueryRow(ctx,
		`SELECT `+warehouseColumns+` FROM warehouses WHERE company_id = $1 AND id = $2`, companyID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &w, nil
}

func (r *repository) Create(ctx context.Context, w Warehouse) (*Warehouse, error) {
	created, err := scanWarehouse(r.db.QueryRow(ctx, `
		INSERT INTO warehouses (company_id, code, name, address, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+warehouseColumns, w.CompanyID, w.Code, w.Name, w.Address, w.IsActive))
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrDuplicateCode
		}
		return nil, err
	}
	return &created, nil
}

func (r *repository) Update(ctx context.Context, w Warehouse) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE warehouses SET code = $3, name = $4, address = $5, is_active = $6, updated_at = NOW()
		WHERE company_id = $1 AND id = $2`, w.CompanyID, w.ID, w.Code, w.Name, w.Address, w.IsActive)
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
	tag, err := r.db.Exec(ctx, `DELETE FROM warehouses WHERE company_id = $1 AND id = $2`, companyID, id)
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
