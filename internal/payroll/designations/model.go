// Package designations manages job titles employees are assigned to.
package designations

import (
	"fmt"
	"time"

	"github.com/bizdesk/bizdesk/internal/shared"
)

type Designation struct {
	ID          int64     `json:"id"`
	CompanyID   int64     `json:"company_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Request struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
}

var (
	ErrNotFound      = fmt.Errorf("designation %w", shared.ErrNotFound)
	ErrDuplicateName = fmt.Errorf("designation name already exists: %w", shared.ErrDuplicate)
	ErrInUse         = fmt.Errorf("designation is assigned to employees: %w", shared.ErrConflict)
)
