// Package employees manages the staff register attendance is kept against.
package employees

import (
	"fmt"
	"time"

	"github.com/bizdesk/bizdesk/internal/shared"
)

type Employee struct {
	ID              int64     `json:"id"`
	CompanyID       int64     `json:"company_id"`
	Code            string    `json:"code"`
	Name            string    `json:"name"`
	DesignationID   *int64    `json:"designation_id,omitempty"`
	DesignationName *string   `json:"designation_name,omitempty"`
	Phone           *string   `json:"phone,omitempty"`
	Email           *string   `json:"email,omitempty"`
	JoiningDate     time.Time `json:"joining_date"`
	MonthlySalary   float64   `json:"monthly_salary"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type CreateRequest struct {
	Code          string  `json:"code" validate:"required,max=30"`
	Name          string  `json:"name" validate:"required,max=200"`
	DesignationID *int64  `json:"designation_id,omitempty" validate:"omitempty,gt=0"`
	Phone         *string `json:"phone,omitempty" validate:"omitempty,max=20"`
	Email         *string `json:"email,omitempty" validate:"omitempty,email"`
	JoiningDate   string  `json:"joining_date" validate:"required,datetime=2006-01-02"`
	MonthlySalary float64 `json:"monthly_salary" validate:"gte=0"`
}

type UpdateRequest struct {
	Name          *string  `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	DesignationID *int64   `json:"designation_id,omitempty" validate:"omitempty,gt=0"`
	Phone         *string  `json:"phone,omitempty" validate:"omitempty,max=20"`
	Email         *string  `json:"email,omitempty" validate:"omitempty,email"`
	MonthlySalary *float64 `json:"monthly_salary,omitempty" validate:"omitempty,gte=0"`
	IsActive      *bool    `json:"is_active,omitempty"`
}

type ListFilters struct {
	DesignationID *int64
}

var (
	ErrNotFound           = fmt.Errorf("employee %w", shared.ErrNotFound)
	ErrDuplicateCode      = fmt.Errorf("employee code already exists: %w", shared.ErrDuplicate)
	ErrUnknownDesignation = fmt.Errorf("designation does not exist: %w", shared.ErrValidation)
	ErrInUse              = fmt.Errorf("employee has attendance records: %w", shared.ErrConflict)
	ErrInvalidDate        = fmt.Errorf("joining_date must be YYYY-MM-DD: %w", shared.ErrValidation)
)
