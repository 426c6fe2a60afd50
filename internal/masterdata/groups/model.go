// Package groups manages the two product grouping catalogs, brands and
// categories.
package groups

import (
	"fmt"
	"time"

	"github.com/bizdesk/bizdesk/internal/shared"
)

// Kind selects brands or categories.
type Kind string

const (
	KindBrand    Kind = "brand"
	KindCategory Kind = "category"
)

func (k Kind) table() string {
	if k == KindBrand {
		return "brands"
	}
	return "categories"
}

// Group is a brand or a category.
type Group struct {
	ID          int64     `json:"id"`
	CompanyID   int64     `json:"company_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CreateRequest struct {
	Name        string  `json:"name" validate:"required,max=120"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
}

type UpdateRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

var (
	ErrNotFound      = fmt.Errorf("group %w", shared.ErrNotFound)
	ErrDuplicateName = fmt.Errorf("name already exists: %w", shared.ErrDuplicate)
	ErrInUse         = fmt.Errorf("group is assigned to products: %w", shared.ErrConflict)
)
