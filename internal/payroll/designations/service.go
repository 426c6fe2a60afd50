package designations

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

func (s *Service) List(ctx context.Context, companyID int64, page shared.PageRequest) (shared.Page[Designation], error) {
	items, total, err := s.repo.List(ctx, companyID, page)
	if err != nil {
		return shared.Page[Designation]{}, fmt.Errorf("list designations: %w", err)
	}
	return shared.NewPage(items, page, total), nil
}

func (s *Service) Get(ctx context.Context, companyID, id int64) (*Designation, error) {
	return s.repo.Get(ctx, companyID, id)
}

func (s *Service) Create(ctx context.Context, companyID int64, req Request) (*Designation, error) {
	return s.repo.Create(ctx, Designation{CompanyID: companyID, Name: strings.TrimSpace(req.Name), Description: req.Description})
}

func (s *Service) Update(ctx context.Context, companyID, id int64, req Request) (*Designation, error) {
	return s.repo.Update(ctx, Designation{ID: id, CompanyID: companyID, Name: strings.TrimSpace(req.Name), Description: req.Description})
}

func (s *Service) Delete(ctx context.Context, companyID, id int64) error {
	return s.repo.Delete(ctx, companyID, id)
}
