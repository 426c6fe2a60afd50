package products

import (
	"fmt"
	"strings"

	"github.com/bizdesk/bizdesk/internal/documents"
	"github.com/bizdesk/bizdesk/internal/shared"
)

var (
	ErrNotFound       = fmt.Errorf("product %w", shared.ErrNotFound)
	ErrDuplicateSKU   = fmt.Errorf("sku already exists: %w", shared.ErrDuplicate)
	ErrInUse          = fmt.Errorf("product is used on documents: %w", shared.ErrConflict)
	ErrUnknownGroup   = fmt.Errorf("brand or category does not exist: %w", shared.ErrValidation)
	ErrNotASlab       = fmt.Errorf("gst rate is not a configured slab: %w", shared.ErrValidation)
	ErrSelfAlternate  = fmt.Errorf("a product cannot be its own alternative: %w", shared.ErrValidation)
	ErrMissingSKUName = fmt.Errorf("sku and name are required: %w", shared.ErrValidation)
)

// SlabChecker reports whether a GST rate is an allowed slab.
type SlabChecker interface {
	IsSlab(rate float64) bool
}

func (s *Service) validate(p Product) error {
	if strings.TrimSpace(p.SKU) == "" || strings.TrimSpace(p.Name) == "" {
		return ErrMissingSKUName
	}
	if err := documents.ValidateHSN(p.HSNCode); err != nil {
		return err
	}
	if s.slabs != nil && !s.slabs.IsSlab(p.GSTRate) {
		return fmt.Errorf("%v: %w", p.GSTRate, ErrNotASlab)
	}
	return nil
}
