package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bizdesk/bizdesk/internal/platform/db"
	"github.com/bizdesk/bizdesk/internal/shared"
)

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	// ActiveEmployees returns which of ids are active employees of the company.
	ActiveEmployees(ctx context.Context, companyID int64, ids []int64) (map[int64]bool, error)
	Upsert(ctx context.Context, companyID int64, date time.Time, entries []Entry) error
	List(ctx context.Context, companyID int64, page shared.PageRequest, filters ListFilters) ([]Record, int, error)
	Delete(ctx context.Context, companyID, id int64) error
	Counts(ctx context.Context, companyID int64, from, to time.Time) ([]Counts, error)
}

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

func (r *repository) ActiveEmployees(ctx context.Context, companyID int64, ids []int64) (map[int64]bool, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id FROM employees
		WHERE company_id = $1 AND id = ANY($2) AND is_active`, companyID, ids)
	if err != nil {
		return nil, err
	}
	found, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, err
	}
	out := make(map[int64]bool, len(found))
	for _, id := range found {
		out[id] = true
	}
	return out, nil
}

const upsertSQL = `
	INSERT INTO attendance (company_id, employee_id, attendance_date, status, check_in, check_out, notes)
	VALUES ($1, $2, $3, $4, $5::time, $6::time, $7)
	ON CONFLICT (employee_id, attendance_date) DO UPDATE SET
		status = EXCLUDED.status,
		check_in = EXCLUDED.check_in,
		check_out = EXCLUDED.check_out,
		notes = EXCLUDED.notes,
		updated_at = NOW()`

func (r *repository) Upsert(ctx context.Context, companyID int64, date time.Time, entries []Entry) error {
	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(upsertSQL, companyID, e.EmployeeID, date, e.Status, e.CheckIn, e.CheckOut, e.Notes)
	}
	br := r.db.SendBatch(ctx, batch)
	defer br.Close()
	for _, e := range entries {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("upsert attendance for employee %d: %w", e.EmployeeID, err)
		}
	}
	return nil
}

var sortColumns = map[string]string{
	"date":     "a.attendance_date",
	"employee": "e.name",
	"status":   "a.status",
}

func (r *repository) List(ctx context.Context, companyID int64, page shared.PageRequest, filters ListFilters) ([]Record, int, error) {
	f := db.NewFilter("a.company_id = ?", companyID)
	if filters.EmployeeID != nil {
		f.Add("a.employee_id = ?", *filters.EmployeeID)
	}
	if filters.From != nil {
		f.Add("a.attendance_date >= ?", *filters.From)
	}
	if filters.To != nil {
		f.Add("a.attendance_date <= ?", *filters.To)
	}
	if filters.Status != "" {
		f.Add("a.status = ?", filters.Status)
	}
	if page.Search != "" {
		f.Add("(e.name ILIKE ? OR e.code ILIKE ?)", db.Like(page.Search))
	}

	const from = ` FROM attendance a JOIN employees e ON e.id = a.employee_id `
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*)`+from+f.Where(), f.Args()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	limit, args := f.Page(page.PerPage, page.Offset())
	rows, err := r.db.Query(ctx, fmt.Sprintf(`
		SELECT a.id, a.company_id, a.employee_id, e.code, e.name, a.attendance_date, a.status,
			to_char(a.check_in, 'HH24:MI'), to_char(a.check_out, 'HH24:MI'), a.notes, a.updated_at
		%s %s ORDER BY %s %s`, from, f.Where(),
		db.OrderBy(sortColumns, page.SortBy, page.SortDesc, "a.attendance_date DESC, e.name ASC"), limit), args...)
	if err != nil {
		return nil, 0, err
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByPos[Record])
	return out, total, err
}

func (r *repository) Delete(ctx context.Context, companyID, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM attendance WHERE company_id = $1 AND id = $2`, companyID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Counts tallies statuses per employee over [from, to]. Active employees with
// no records in the range are included with zero counts.
func (r *repository) Counts(ctx context.Context, companyID int64, from, to time.Time) ([]Counts, error) {
	rows, err := r.db.Query(ctx, `
		SELECT e.id, e.code, e.name, e.monthly_salary,
			COUNT(*) FILTER (WHERE a.status = 'PRESENT'),
			COUNT(*) FILTER (WHERE a.status = 'ABSENT'),
			COUNT(*) FILTER (WHERE a.status = 'HALF_DAY'),
			COUNT(*) FILTER (WHERE a.status = 'LEAVE'),
			COUNT(*) FILTER (WHERE a.status = 'HOLIDAY')
		FROM employees e
		LEFT JOIN attendance a ON a.employee_id = e.id AND a.attendance_date BETWEEN $2 AND $3
		WHERE e.company_id = $1 AND (e.is_active OR a.id IS NOT NULL)
		GROUP BY e.id, e.code, e.name, e.monthly_salary
		ORDER BY e.name, e.id`, companyID, from, to)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[Counts])
}
