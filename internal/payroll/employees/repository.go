package employees

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bizdesk/bizdesk/internal/platform/db"
	"github.com/bizdesk/bizdesk/internal/shared"
)

type Repository interface {
	List(ctx context.Context, companyID int64, page shared.PageRequest, filters ListFilters) ([]Employee, int, error)
	Get(ctx context.Context, companyID, id int64) (*Employee, error)
	Create(ctx context.Context, e Employee) (int64, error)
	Update(ctx context.Context, companyID, id int64, updates map[string]any) error
	Delete(ctx context.Context, companyID, id int64) error
}

type repository struct {
	db db.DBTX
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

const employeeSelect = `SELECT e.id, e.company_id, e.code, e.name, e.designation_id, d.name, e.phone, e.email,
	e.joining_date, e.monthly_salary, e.is_active, e.created_at, e.updated_at
	FROM employees e
	LEFT JOIN designations d ON d.id = e.designation_id`

var sortColumns = map[string]string{
	"code":         "e.code",
	"name":         "e.name",
	"joining_date": "e.joining_date",
	"designation":  "d.name",
}

func scanEmployee(row pgx.Row) (Employee, error) {
	var e Employee
	err := row.Scan(&e.ID, &e.CompanyID, &e.Code, &e.Name, &e.DesignationID, &e.DesignationName, &e.Phone,
		&e.Email, &e.JoiningDate, &e.MonthlySalary, &e.IsActive, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

func mapWriteErr(err error) error {
	switch {
	case db.IsUniqueViolation(err):
		return ErrDuplicateCode
	case db.IsForeignKeyViolation(err):
		return ErrUnknownDesignation
	}
	return err
}

func (r *repository) List(ctx context.Context, companyID int64, page shared.PageRequest, filters ListFilters) ([]Employee, int, error) {
	f := db.NewFilter("e.company_id = ?", companyID)
	if page.Search != "" {
		f.Add("(e.name ILIKE ? OR e.code ILIKE ? OR e.phone ILIKE ?)", db.Like(page.Search))
	}
	if page.IsActive != nil {
		f.Add("e.is_active = ?", *page.IsActive)
	}
	if filters.DesignationID != nil {
		f.Add("e.designation_id = ?", *filters.DesignationID)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM employees e `+f.Where(), f.Args()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	limit, args := f.Page(page.PerPage, page.Offset())
	rows, err := r.db.Query(ctx, fmt.Sprintf(`%s %s ORDER BY %s %s`, employeeSelect, f.Where(),
		db.OrderBy(sortColumns, page.SortBy, page.SortDesc, "e.name ASC, e.id ASC"), limit), args...)
	if err != nil {
		return nil, 0, err
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Employee, error) { return scanEmployee(row) })
	return out, total, err
}

func (r *repository) Get(ctx context.Context, companyID, id int64) (*Employee, error) {
	e, err := scanEmployee(r.db.QueryRow(ctx, employeeSelect+` WHERE e.company_id = $1 AND e.id = $2`, companyID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (r *repository) Create(ctx context.Context, e Employee) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO employees (company_id, code, name, designation_id, phone, email, joining_date, monthly_salary, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		e.CompanyID, e.Code, e.Name, e.DesignationID, e.Phone, e.Email, e.JoiningDate, e.MonthlySalary, e.IsActive,
	).Scan(&id)
	if err != nil {
		return 0, mapWriteErr(err)
	}
	return id, nil
}

func (r *repository) Update(ctx context.Context, companyID, id int64, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	set := make([]string, 0, len(updates))
	args := make([]any, 0, len(updates)+2)
	for col, v := range updates {
		args = append(args, v)
		set = append(set, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	args = append(args, companyID, id)
	tag, err := r.db.Exec(ctx, fmt.Sprintf(`UPDATE employees SET %s, updated_at = NOW() WHERE company_id = $%d AND id = $%d`,
		strings.Join(set, ", "), len(args)-1, len(args)), args...)
	if err != nil {
		return mapWriteErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, companyID, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM employees WHERE company_id = $1 AND id = $2`, companyID, id)
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
