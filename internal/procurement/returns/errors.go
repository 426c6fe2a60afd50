package returns

import (
	"fmt"

	"github.com/bizdesk/bizdesk/internal/shared"
)

var (
	ErrNotFound          = fmt.Errorf("purchase return %w", shared.ErrNotFound)
	ErrUnknownVendor     = fmt.Errorf("vendor does not exist: %w", shared.ErrValidation)
	ErrUnknownOrder      = fmt.Errorf("purchase order does not exist: %w", shared.ErrValidation)
	ErrVendorMismatch    = fmt.Errorf("purchase order belongs to another vendor: %w", shared.ErrValidation)
	ErrOrderNotReceived  = fmt.Errorf("purchase order must be APPROVED or CLOSED: %w", shared.ErrConflict)
	ErrProductNotOrdered = fmt.Errorf("product is not on the purchase order: %w", shared.ErrValidation)
	ErrExceedsOrdered    = fmt.Errorf("returned quantity exceeds ordered quantity: %w", shared.ErrValidation)
	ErrInvalidDate       = fmt.Errorf("return_date must be YYYY-MM-DD: %w", shared.ErrValidation)
)
