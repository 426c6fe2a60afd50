package companies

import (
	"context"
	"fmt"
	"strings"

	"github.com/bizdesk/bizdesk/internal/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, page shared.PageRequest) (shared.Page[Company], error) {
	items, total, err := s.repo.List(ctx, page)
	if err != nil {
		return shared.Page[Company]{}, fmt.Errorf("list companies: %w", err)
	}
	return shared.NewPage(items, page, total), nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Company, error) {
	return s.repo.Get(ctx, id)
}

// Exists reports whether id names a company. Company scoped routes use it to
// reject unknown ids before any handler runs.
func (s *Service) Exists(ctx context.Context, id int64) (bool, error) {
	return s.repo.Exists(ctx, id)
}

// IDs lists every company id in ascending order.
func (s *Service) IDs(ctx context.Context) ([]int64, error) {
	return s.repo.IDs(ctx)
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*Company, error) {
	gstin, state, err := resolveState(req.GSTIN, req.StateCode)
	if err != nil {
		return nil, err
	}
	c, err := s.repo.Create(ctx, Company{
		Code:      strings.ToUpper(strings.TrimSpace(req.Code)),
		Name:      strings.TrimSpace(req.Name),
		GSTIN:     gstin,
		StateCode: state,
		Address:   req.Address,
	})
	if err != nil {
		return nil, fmt.Errorf("create company: %w", err)
	}
	return c, nil
}

// Update changes descriptive fields only. GSTIN and state are fixed once
// documents have been priced against them.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (*Company, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		c.Name = strings.TrimSpace(*req.Name)
	}
	if req.Address != nil {
		c.Address = req.Address
	}
	if err := s.repo.Update(ctx, *c); err != nil {
		return nil, fmt.Errorf("update company: %w", err)
	}
	return c, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
