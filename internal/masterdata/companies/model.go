package companies

import (
	"fmt"
	"time"

	"github.com/bizdesk/bizdesk/internal/shared"
)

// Company is a GST registered business. Every other record is scoped to one.
type Company struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	GSTIN     *string   `json:"gstin,omitempty"`
	StateCode string    `json:"state_code"`
	Address   *string   `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateRequest struct {
	Code      string  `json:"code" validate:"required,max=30"`
	Name      string  `json:"name" validate:"required,max=200"`
	GSTIN     *string `json:"gstin,omitempty" validate:"omitempty,len=15"`
	StateCode string  `json:"state_code,omitempty" validate:"omitempty,len=2,numeric"`
	Address   *string `json:"address,omitempty" validate:"omitempty,max=500"`
}

type UpdateRequest struct {
	Name    *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Address *string `json:"address,omitempty" validate:"omitempty,max=500"`
}

var (
	ErrNotFound      = fmt.Errorf("company %w", shared.ErrNotFound)
	ErrDuplicateCode = fmt.Errorf("company code already exists: %w", shared.ErrDuplicate)
	ErrInUse         = fmt.Errorf("company still owns records: %w", shared.ErrConflict)
	ErrStateRequired = fmt.Errorf("state_code or gstin is required: %w", shared.ErrValidation)
	ErrStateMismatch = fmt.Errorf("state code does not match gstin: %w", shared.ErrValidation)
)
