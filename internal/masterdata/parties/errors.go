package parties

import (
	"fmt"

	"github.com/bizdesk/bizdesk/internal/shared"
)

var (
	ErrNotFound      = fmt.Errorf("party %w", shared.ErrNotFound)
	ErrDuplicateCode = fmt.Errorf("party code already exists: %w", shared.ErrDuplicate)
	ErrInUse         = fmt.Errorf("party is referenced by documents: %w", shared.ErrConflict)
	ErrStateMismatch = fmt.Errorf("state code does not match gstin: %w", shared.ErrValidation)
)
