package groups

import (
	"context"
	"fmt"
	"strings"

	"github.com/bizdesk/bizdesk/internal/shared"
)

// Invalidator is notified after writes that change how products render.
type Invalidator interface {
	Bump(ctx context.Context, scope string) error
}

type Service struct {
	repo        Repository
	kind        Kind
	invalidator Invalidator
}

// NewService builds a Service. invalidator may be nil.
func NewService(repo Repository, kind Kind, invalidator Invalidator) *Service {
	return &Service{repo: repo, kind: kind, invalidator: invalidator}
}

func (s *Service) Kind() Kind { return s.kind }

func (s *Service) List(ctx context.Context, companyID int64, page shared.PageRequest) (shared.Page[Group], error) {
	items, total, err := s.repo.List(ctx, companyID, page)
	if err != nil {
		return shared.Page[Group]{}, fmt.Errorf("list %s: %w", s.kind.table(), err)
	}
	return shared.NewPage(items, page, total), nil
}

func (s *Service) Get(ctx context.Context, companyID, id int64) (Group, error) {
	return s.repo.Get(ctx, companyID, id)
}

func (s *Service) Create(ctx context.Context, companyID int64, req CreateRequest) (Group, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return Group{}, fmt.Errorf("name is required: %w", shared.ErrValidation)
	}
	g, err := s.repo.Create(ctx, Group{CompanyID: companyID, Name: name, Description: req.Description, IsActive: true})
	if err != nil {
		return Group{}, fmt.Errorf("create %s: %w", s.kind, err)
	}
	return g, nil
}

func (s *Service) Update(ctx context.Context, companyID, id int64, req UpdateRequest) (Group, error) {
	updates := map[string]any{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return Group{}, fmt.Errorf("name is required: %w", shared.ErrValidation)
		}
		updates["name"] = name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) == 0 {
		return s.repo.Get(ctx, companyID, id)
	}
	if err := s.repo.Update(ctx, companyID, id, updates); err != nil {
		return Group{}, fmt.Errorf("update %s: %w", s.kind, err)
	}
	s.invalidate(ctx, companyID)
	return s.repo.Get(ctx, companyID, id)
}

func (s *Service) Delete(ctx context.Context, companyID, id int64) error {
	if err := s.repo.Delete(ctx, companyID, id); err != nil {
		return fmt.Errorf("delete %s: %w", s.kind, err)
	}
	s.invalidate(ctx, companyID)
	return nil
}

// invalidate drops cached product reads, which embed group names.
func (s *Service) invalidate(ctx context.Context, companyID int64) {
	if s.invalidator == nil {
		return
	}
	_ = s.invalidator.Bump(ctx, shared.ProductCacheScope(companyID))
}
