package orders

import (
	"fmt"

	"github.com/bizdesk/bizdesk/internal/shared"
)

var (
	ErrNotFound            = fmt.Errorf("purchase order %w", shared.ErrNotFound)
	ErrCannotEdit          = fmt.Errorf("purchase order can only be changed while DRAFT: %w", shared.ErrConflict)
	ErrCannotApprove       = fmt.Errorf("purchase order can only be approved from DRAFT: %w", shared.ErrConflict)
	ErrCannotClose         = fmt.Errorf("purchase order can only be closed once APPROVED: %w", shared.ErrConflict)
	ErrCannotCancel        = fmt.Errorf("purchase order cannot be cancelled in its current status: %w", shared.ErrConflict)
	ErrStatusChanged       = fmt.Errorf("purchase order status changed concurrently: %w", shared.ErrConflict)
	ErrUnknownVendor       = fmt.Errorf("vendor does not exist: %w", shared.ErrValidation)
	ErrInvalidDate         = fmt.Errorf("dates must be YYYY-MM-DD: %w", shared.ErrValidation)
	ErrExpectedBeforeOrder = fmt.Errorf("expected_date is before order_date: %w", shared.ErrValidation)
)
