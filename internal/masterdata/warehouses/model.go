package warehouses

import (
	"fmt"
	"time"

	"github.com/bizdesk/bizdesk/internal/shared"
)

// Warehouse is a stock location of a company. Stock journals move goods
// between warehouses.
type Warehouse struct {
	ID        int64     `json:"id"`
	CompanyID int64     `json:"company_id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Address   *string   `json:"address,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateRequest struct {
	Code    string  `json:"code" validate:"required,max=30"`
	Name    string  `json:"name" validate:"required,max=120"`
	Address *string `json:"address,omitempty" validate:"omitempty,max=500"`
}

type UpdateRequest struct {
	Code     *string `json:"code,omitempty" validate:"omitempty,min=1,max=30"`
	Name     *string `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Address  *string `json:"address,omitempty" validate:"omitempty,max=500"`
	IsActive *bool   `json:"is_active,omitempty"`
}

var (
	ErrNotFound      = fmt.Errorf("warehouse %w", shared.ErrNotFound)
	ErrDuplicateCode = fmt.Errorf("warehouse code already exists: %w", shared.ErrDuplicate)
	ErrInUse         = fmt.Errorf("warehouse is referenced by stock journals: %w", shared.ErrConflict)
)
