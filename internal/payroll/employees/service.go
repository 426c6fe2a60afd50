package employees

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bizdesk/bizdesk/internal/shared"
	"github.com/bizdesk/bizdesk/internal/totals"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, companyID int64, page shared.PageRequest, filters ListFilters) (shared.Page[Employee], error) {
	items, total, err := s.repo.List(ctx, companyID, page, filters)
	if err != nil {
		return shared.Page[Employee]{}, fmt.Errorf("list employees: %w", err)
	}
	return shared.NewPage(items, page, total), nil
}

func (s *Service) Get(ctx context.Context, companyID, id int64) (*Employee, error) {
	return s.repo.Get(ctx, companyID, id)
}

func (s *Service) Create(ctx context.Context, companyID int64, req CreateRequest) (*Employee, error) {
	joined, err := time.Parse(time.DateOnly, req.JoiningDate)
	if err != nil {
		return nil, ErrInvalidDate
	}
	e := Employee{
		CompanyID:     companyID,
		Code:          strings.ToUpper(strings.TrimSpace(req.Code)),
		Name:          strings.TrimSpace(req.Name),
		DesignationID: req.DesignationID,
		Phone:         req.Phone,
		Email:         req.Email,
		JoiningDate:   joined,
		MonthlySalary: totals.Round2(req.MonthlySalary),
		IsActive:      true,
	}
	id, err := s.repo.Create(ctx, e)
	if err != nil {
		return nil, fmt.Errorf("create employee: %w", err)
	}
	return s.repo.Get(ctx, companyID, id)
}

func (s *Service) Update(ctx context.Context, companyID, id int64, req UpdateRequest) (*Employee, error) {
	updates := make(map[string]any)
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.DesignationID != nil {
		updates["designation_id"] = *req.DesignationID
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.MonthlySalary != nil {
		updates["monthly_salary"] = totals.Round2(*req.MonthlySalary)
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if err := s.repo.Update(ctx, companyID, id, updates); err != nil {
		return nil, fmt.Errorf("update employee: %w", err)
	}
	return s.repo.Get(ctx, companyID, id)
}

func (s *Service) Delete(ctx context.Context, companyID, id int64) error {
	return s.repo.Delete(ctx, companyID, id)
}
