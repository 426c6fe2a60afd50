package groups

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
	List(ctx context.Context, companyID int64, page shared.PageRequest) ([]Group, int, error)
	Get(ctx context.Context, companyID, id int64) (Group, error)
	Create(ctx context.Context, g Group) (Group, error)
	Update(ctx context.Context, companyID, id int64, updates map[string]any) error
	Delete(ctx context.Context, companyID, id int64) error
}

type repository struct {
	db   db.DBTX
	kind Kind
}

func NewRepository(pool *pgxpool.Pool, kind Kind) Repository {
	return &repository{db: pool, kind: kind}
}

const groupColumns = `id, company_id, name, description, is_active, created_at, updated_at`

var sortColumns = map[string]string{
	"name":       "name",
	"created_at": "created_at",
}

func scanGroup(row pgx.Row) (Group, error) {
	var g Group
	err := row.Scan(&g.ID, &g.CompanyID, &g.Name, &g.Description, &g.IsActive, &g.CreatedAt, &g.UpdatedAt)
	return g, err
}

// List uses a dynamic query because of the optional filters.
func (r *repository) List(ctx context.Context, companyID int64, page shared.PageRequest) ([]Group, int, error) {
	f := db.NewFilter("company_id = ?", companyID)
	if page.Search != "" {
		f.Add("name ILIKE ?", db.Like(page.Search))
	}
	if page.IsActive != nil {
		f.Add("is_active = ?", *page.IsActive)
	}

	var total int
	if err := r.db.QueryRow(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s %s`, r.kind.table(), f.Where()), f.Args()...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, args := f.Page(page.PerPage, page.Offset())
	query := fmt.Sprintf(`SELECT %s FROM %s %s ORDER BY %s %s`, groupColumns, r.kind.table(), f.Where(),
		db.OrderBy(sortColumns, page.SortBy, page.SortDesc, "name ASC"), limit)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Group
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, g)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, companyID, id int64) (Group, error) {
	g, err := scanGroup(r.db.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM %s WHERE company_id = $1 AND id = $2`, groupColumns, r.kind.table()), companyID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Group{}, ErrNotFound
	}
	return g, err
}

func (r *repository) Create(ctx context.Context, g Group) (Group, error) {
	query := fmt.Sprintf(`INSERT INTO %s (company_id, name, description, is_active)
		VALUES ($1, $2, $3, $4) RETURNING %s`, r.kind.table(), groupColumns)
	created, err := scanGroup(r.db.QueryRow(ctx, query, g.CompanyID, g.Name, g.Description, g.IsActive))
	if db.IsUniqueViolation(err) {
		return Group{}, ErrDuplicateName
	}
	return created, err
}

func (r *repository) Update(ctx context.Context, companyID, id int64, updates map[string]any) error {
	sets := make([]string, 0, len(updates)+1)
	args := make([]any, 0, len(updates)+2)
	for field, value := range updates {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", field, len(args)))
	}
	sets = append(sets, "updated_at = NOW()")
	args = append(args, companyID, id)

	query := fmt.Sprintf(`UPDATE %s SET %s WHERE company_id = $%d AND id = $%d`,
		r.kind.table(), strings.Join(sets, ", "), len(args)-1, len(args))
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrDuplicateName
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, companyID, id int64) error {
	tag, err := r.db.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE company_id = $1 AND id = $2`, r.kind.table()), companyID, id)
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
