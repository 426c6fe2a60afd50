package challans

import (
	"fmt"

	"github.com/bizdesk/bizdesk/internal/shared"
)

var (
	ErrNotFound        = fmt.Errorf("delivery challan %w", shared.ErrNotFound)
	ErrCannotEdit      = fmt.Errorf("challan can only be changed while DRAFT: %w", shared.ErrConflict)
	ErrCannotIssue     = fmt.Errorf("challan can only be issued from DRAFT: %w", shared.ErrConflict)
	ErrCannotDeliver   = fmt.Errorf("challan can only be delivered once ISSUED: %w", shared.ErrConflict)
	ErrCannotCancel    = fmt.Errorf("challan cannot be cancelled in its current status: %w", shared.ErrConflict)
	ErrStatusChanged   = fmt.Errorf("challan status changed concurrently: %w", shared.ErrConflict)
	ErrUnknownCustomer = fmt.Errorf("customer does not exist: %w", shared.ErrValidation)
	ErrInvalidDate     = fmt.Errorf("challan_date must be YYYY-MM-DD: %w", shared.ErrValidation)
)
