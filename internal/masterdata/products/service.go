package products

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bizdesk/bizdesk/internal/shared"
)

// Cache is the versioned read cache used for product lookups.
type Cache interface {
	BuildKey(ctx context.Context, scope string, parts ...string) (string, error)
	FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error
	Bump(ctx context.Context, scope string) error
}

type Service struct {
	repo  Repository
	cache Cache
	slabs SlabChecker
}

// NewService builds a Service. cache and slabs may be nil, which disables
// caching and slab checks respectively.
func NewService(repo Repository, cache Cache, slabs SlabChecker) *Service {
	return &Service{repo: repo, cache: cache, slabs: slabs}
}

func (s *Service) List(ctx context.Context, companyID int64, page shared.PageRequest, filters ListFilters) (shared.Page[Product], error) {
	load := func(ctx context.Context) (any, error) {
		items, total, err := s.repo.List(ctx, companyID, page, filters)
		if err != nil {
			return nil, err
		}
		return shared.NewPage(items, page, total), nil
	}

	var out shared.Page[Product]
	if s.cache == nil {
		v, err := load(ctx)
		if err != nil {
			return out, fmt.Errorf("list products: %w", err)
		}
		return v.(shared.Page[Product]), nil
	}
	key, err := s.cache.BuildKey(ctx, shared.ProductCacheScope(companyID), "list", listKey(page, filters))
	if err != nil {
		return out, fmt.Errorf("product cache key: %w", err)
	}
	if err := s.cache.FetchJSON(ctx, key, &out, load); err != nil {
		return out, fmt.Errorf("list products: %w", err)
	}
	return out, nil
}

func listKey(page shared.PageRequest, f ListFilters) string {
	parts := []string{
		strconv.Itoa(page.Page), strconv.Itoa(page.PerPage),
		strings.ToLower(page.Search), page.SortBy, strconv.FormatBool(page.SortDesc),
	}
	if page.IsActive != nil {
		parts = append(parts, "active="+strconv.FormatBool(*page.IsActive))
	}
	if f.BrandID != nil {
		parts = append(parts, "brand="+strconv.FormatInt(*f.BrandID, 10))
	}
	if f.CategoryID != nil {
		parts = append(parts, "category="+strconv.FormatInt(*f.CategoryID, 10))
	}
	return strings.Join(parts, "|")
}

func (s *Service) Get(ctx context.Context, companyID, id int64) (Product, error) {
	if s.cache == nil {
		return s.repo.Get(ctx, companyID, id)
	}
	key, err := s.cache.BuildKey(ctx, shared.ProductCacheScope(companyID), "id", strconv.FormatInt(id, 10))
	if err != nil {
		return Product{}, fmt.Errorf("product cache key: %w", err)
	}
	var p Product
	err = s.cache.FetchJSON(ctx, key, &p, func(ctx context.Context) (any, error) {
		return s.repo.Get(ctx, companyID, id)
	})
	return p, err
}

func (s *Service) Create(ctx context.Context, companyID int64, req CreateRequest) (Product, error) {
	p := Product{
		CompanyID:     companyID,
		SKU:           strings.TrimSpace(req.SKU),
		Name:          strings.TrimSpace(req.Name),
		Description:   req.Description,
		HSNCode:       strings.TrimSpace(req.HSNCode),
		UOM:           strings.ToUpper(strings.TrimSpace(req.UOM)),
		BrandID:       req.BrandID,
		CategoryID:    req.CategoryID,
		SalePrice:     req.SalePrice,
		PurchasePrice: req.PurchasePrice,
		GSTRate:       req.GSTRate,
		ReorderLevel:  req.ReorderLevel,
		IsActive:      true,
	}
	if err := s.validate(p); err != nil {
		return Product{}, err
	}
	id, err := s.repo.Create(ctx, p)
	if err != nil {
		return Product{}, fmt.Errorf("create product: %w", err)
	}
	s.invalidate(ctx, companyID)
	return s.repo.Get(ctx, companyID, id)
}

func (s *Service) Update(ctx context.Context, companyID, id int64, req UpdateRequest) (Product, error) {
	current, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return Product{}, err
	}

	updates := map[string]any{}
	if req.Name != nil {
		current.Name = strings.TrimSpace(*req.Name)
		updates["name"] = current.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.HSNCode != nil {
		current.HSNCode = strings.TrimSpace(*req.HSNCode)
		updates["hsn_code"] = current.HSNCode
	}
	if req.UOM != nil {
		updates["uom"] = strings.ToUpper(strings.TrimSpace(*req.UOM))
	}
	if req.BrandID != nil {
		updates["brand_id"] = *req.BrandID
	}
	if req.CategoryID != nil {
		updates["category_id"] = *req.CategoryID
	}
	if req.SalePrice != nil {
		updates["sale_price"] = *req.SalePrice
	}
	if req.PurchasePrice != nil {
		updates["purchase_price"] = *req.PurchasePrice
	}
	if req.GSTRate != nil {
		current.GSTRate = *req.GSTRate
		updates["gst_rate"] = current.GSTRate
	}
	if req.ReorderLevel != nil {
		updates["reorder_level"] = *req.ReorderLevel
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) == 0 {
		return current, nil
	}
	if err := s.validate(current); err != nil {
		return Product{}, err
	}
	if err := s.repo.Update(ctx, companyID, id, updates); err != nil {
		return Product{}, fmt.Errorf("update product: %w", err)
	}
	s.invalidate(ctx, companyID)
	return s.repo.Get(ctx, companyID, id)
}

func (s *Service) Delete(ctx context.Context, companyID, id int64) error {
	if err := s.repo.Delete(ctx, companyID, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	s.invalidate(ctx, companyID)
	return nil
}

func (s *Service) Alternatives(ctx context.Context, companyID, id int64) ([]Product, error) {
	if _, err := s.repo.Get(ctx, companyID, id); err != nil {
		return nil, err
	}
	items, err := s.repo.ListAlternatives(ctx, companyID, id)
	if err != nil {
		return nil, fmt.Errorf("list alternatives: %w", err)
	}
	if items == nil {
		items = []Product{}
	}
	return items, nil
}

// AddAlternative links two products in both directions.
func (s *Service) AddAlternative(ctx context.Context, companyID, id, alternativeID int64) error {
	if id == alternativeID {
		return ErrSelfAlternate
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		for _, pid := range []int64{id, alternativeID} {
			if _, err := repo.Get(ctx, companyID, pid); err != nil {
				return err
			}
		}
		if err := repo.LinkAlternative(ctx, companyID, id, alternativeID); err != nil {
			return err
		}
		return repo.LinkAlternative(ctx, companyID, alternativeID, id)
	})
	if err != nil {
		return fmt.Errorf("add alternative: %w", err)
	}
	s.invalidate(ctx, companyID)
	return nil
}

// RemoveAlternative unlinks both directions of a pair.
func (s *Service) RemoveAlternative(ctx context.Context, companyID, id, alternativeID int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		forward, err := repo.UnlinkAlternative(ctx, companyID, id, alternativeID)
		if err != nil {
			return err
		}
		backward, err := repo.UnlinkAlternative(ctx, companyID, alternativeID, id)
		if err != nil {
			return err
		}
		if !forward && !backward {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("remove alternative: %w", err)
	}
	s.invalidate(ctx, companyID)
	return nil
}

// CompanyIDs lists companies that have active products.
func (s *Service) CompanyIDs(ctx context.Context) ([]int64, error) {
	return s.repo.CompanyIDs(ctx)
}

// Warm preloads up to limit active products of a company into the cache and
// returns how many were loaded.
func (s *Service) Warm(ctx context.Context, companyID int64, limit int) (int, error) {
	if s.cache == nil {
		return 0, nil
	}
	items, err := s.repo.ListActive(ctx, companyID, limit)
	if err != nil {
		return 0, fmt.Errorf("list active products: %w", err)
	}
	warmed := 0
	for _, p := range items {
		product := p
		key, err := s.cache.BuildKey(ctx, shared.ProductCacheScope(companyID), "id", strconv.FormatInt(p.ID, 10))
		if err != nil {
			return warmed, err
		}
		var dest Product
		if err := s.cache.FetchJSON(ctx, key, &dest, func(context.Context) (any, error) { return product, nil }); err != nil {
			if errors.Is(err, context.Canceled) {
				return warmed, err
			}
			continue
		}
		warmed++
	}
	return warmed, nil
}

func (s *Service) invalidate(ctx context.Context, companyID int64) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Bump(ctx, shared.ProductCacheScope(companyID))
}
