package products

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
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	List(ctx context.Context, companyID int64, page shared.PageRequest, filters ListFilters) ([]Product, int, error)
	ListActive(ctx context.Context, companyID int64, limit int) ([]Product, error)
	CompanyIDs(ctx context.Context) ([]int64, error)
	Get(ctx context.Context, companyID, id int64) (Product, error)
	Create(ctx context.Context, p Product) (int64, error)
	Update(ctx context.Context, companyID, id int64, updates map[string]any) error
	Delete(ctx context.Context, companyID, id int64) error
	ListAlternatives(ctx context.Context, companyID, id int64) ([]Product, error)
	LinkAlternative(ctx context.Context, companyID, productID, alternativeID int64) error
	UnlinkAlternative(ctx context.Context, companyID, productID, alternativeID int64) (bool, error)
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

const productSelect = `SELECT p.id, p.company_id, p.sku, p.name, p.description, p.hsn_code, p.uom,
	p.brand_id, b.name, p.category_id, c.name, p.sale_price, p.purchase_price, p.gst_rate,
	p.reorder_level, p.is_active, p.created_at, p.updated_at
	FROM products p
	LEFT JOIN brands b ON b.id = p.brand_id
	LEFT JOIN categories c ON c.id = p.category_id`

var sortColumns = map[string]string{
	"sku":        "p.sku",
	"name":       "p.name",
	"sale_price": "p.sale_price",
	"gst_rate":   "p.gst_rate",
	"created_at": "p.created_at",
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.CompanyID, &p.SKU, &p.Name, &p.Description, &p.HSNCode, &p.UOM,
		&p.BrandID, &p.BrandName, &p.CategoryID, &p.CategoryName, &p.SalePrice, &p.PurchasePrice,
		&p.GSTRate, &p.ReorderLevel, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func collect(rows pgx.Rows) ([]Product, error) {
	defer rows.Close()
	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repository) List(ctx context.Context, companyID int64, page shared.PageRequest, filters ListFilters) ([]Product, int, error) {
	f := db.NewFilter("p.company_id = ?", companyID)
	if page.Search != "" {
		f.Add("(p.name ILIKE ? OR p.sku ILIKE ? OR p.hsn_code ILIKE ?)", db.Like(page.Search))
	}
	if page.IsActive != nil {
		f.Add("p.is_active = ?", *page.IsActive)
	}
	if filters.BrandID != nil {
		f.Add("p.brand_id = ?", *filters.BrandID)
	}
	if filters.CategoryID != nil {
		f.Add("p.category_id = ?", *filters.CategoryID)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products p `+f.Where(), f.Args()...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, args := f.Page(page.PerPage, page.Offset())
	query := fmt.Sprintf(`%s %s ORDER BY %s %s`, productSelect, f.Where(),
		db.OrderBy(sortColumns, page.SortBy, page.SortDesc, "p.name ASC"), limit)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	items, err := collect(rows)
	return items, total, err
}

func (r *repository) ListActive(ctx context.Context, companyID int64, limit int) ([]Product, error) {
	rows, err := r.db.Query(ctx, productSelect+` WHERE p.company_id = $1 AND p.is_active ORDER BY p.updated_at DESC LIMIT $2`, companyID, limit)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (r *repository) CompanyIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT company_id FROM products WHERE is_active ORDER BY company_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *repository) Get(ctx context.Context, companyID, id int64) (Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, productSelect+` WHERE p.company_id = $1 AND p.id = $2`, companyID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return p, err
}

func mapWriteError(err error) error {
	switch {
	case err == nil:
		return nil
	case db.IsUniqueViolation(err):
		return ErrDuplicateSKU
	case db.IsForeignKeyViolation(err):
		return ErrUnknownGroup
	}
	return err
}

func (r *repository) Create(ctx context.Context, p Product) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO products (company_id, sku, name, description, hsn_code, uom, brand_id, category_id,
			sale_price, purchase_price, gst_rate, reorder_level, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`,
		p.CompanyID, p.SKU, p.Name, p.Description, p.HSNCode, p.UOM, p.BrandID, p.CategoryID,
		p.SalePrice, p.PurchasePrice, p.GSTRate, p.ReorderLevel, p.IsActive,
	).Scan(&id)
	return id, mapWriteError(err)
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
	query := fmt.Sprintf(`UPDATE products SET %s WHERE company_id = $%d AND id = $%d`,
		strings.Join(sets, ", "), len(args)-1, len(args))
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return mapWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, companyID, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE company_id = $1 AND id = $2`, companyID, id)
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

func (r *repository) ListAlternatives(ctx context.Context, companyID, id int64) ([]Product, error) {
	rows, err := r.db.Query(ctx, productSelect+`
		JOIN product_alternatives pa ON pa.alternative_id = p.id
		WHERE pa.company_id = $1 AND pa.product_id = $2
		ORDER BY p.name`, companyID, id)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

// LinkAlternative inserts one direction of an alternative pair. Existing
// links are left untouched.
func (r *repository) LinkAlternative(ctx context.Context, companyID, productID, alternativeID int64) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO product_alternatives (company_id, product_id, alternative_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (company_id, product_id, alternative_id) DO NOTHING`,
		companyID, productID, alternativeID)
	if db.IsForeignKeyViolation(err) {
		return ErrNotFound
	}
	return err
}

func (r *repository) UnlinkAlternative(ctx context.Context, companyID, productID, alternativeID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM product_alternatives
		WHERE company_id = $1 AND product_id = $2 AND alternative_id = $3`,
		companyID, productID, alternativeID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
