package warehouses

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

func (s *Service) List(ctx context.Context, companyID int64, page shared.PageRequest) (shared.Page[Warehouse], error) {
	items, total, err := s.repo.List(ctx, companyID, page)
	if err != nil {
		return shared.Page[Warehouse]{}, fmt.Errorf("list warehouses: %w", err)
	}
	return shared.NewPage(items, page, total), nil
}

func (s *Service) Get(ctx context.Context, companyID, id int64) (*Warehouse, error) {
	return s.repo.Get(ctx, companyID, id)
}

func (s *Service) Create(ctx context.Context, companyID int64, req CreateRequest) (*Warehouse, error) {
	return s.repo.Create(ctx, Warehouse{
		CompanyID: companyID,
		Code:      strings.ToUpper(strings.TrimSpace(req.Code)),
		Name:      strings.TrimSpace(req.Name),
		Address:   req.Address,
		IsActive:  true,
	})
}

func (s *Service) Update(ctx context.Context, companyID, id int64, req UpdateRequest) (*Warehouse, error) {
	w, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if req.Code != nil {
		w.Code = strings.ToUpper(strings.TrimSpace(*req.Code))
	}
	if req.Name != nil {
		w.Name = strings.TrimSpace(*req.Name)
	}
	if req.Address != nil {
		w.Address = req.Address
	}
	if req.IsActive != nil {
		w.IsActive = *req.IsActive
	}
	if err := s.repo.Update(ctx, *w); err != nil {
		return nil, fmt.Errorf("update warehouse: %w", err)
	}
	return w, nil
}

func (s *Service) Delete(ctx context.Context, companyID, id int64) error {
	return s.repo.Delete(ctx, companyID, id)
}
