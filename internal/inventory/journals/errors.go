package journals

import (
	"fmt"

	"github.com/bizdesk/bizdesk/internal/shared"
)

var (
	ErrNotFound              = fmt.Errorf("stock journal %w", shared.ErrNotFound)
	ErrInvalidDate           = fmt.Errorf("journal_date must be YYYY-MM-DD: %w", shared.ErrValidation)
	ErrBothSetsRequired      = fmt.Errorf("journal type needs consumption and production lines: %w", shared.ErrValidation)
	ErrNoLines               = fmt.Errorf("adjustment needs consumption or production lines: %w", shared.ErrValidation)
	ErrSameWarehouse         = fmt.Errorf("transfer source and destination warehouses must differ: %w", shared.ErrValidation)
	ErrTransferMismatch      = fmt.Errorf("transfer must produce the same quantity of each product it consumes: %w", shared.ErrValidation)
	ErrSourceRequired        = fmt.Errorf("source_warehouse_id is required for consumption lines: %w", shared.ErrValidation)
	ErrDestinationRequired   = fmt.Errorf("destination_warehouse_id is required for production lines: %w", shared.ErrValidation)
	ErrCostWithoutProduction = fmt.Errorf("additional_cost needs production lines: %w", shared.ErrValidation)
	ErrQuantityRequired      = fmt.Errorf("journal line quantity must be positive: %w", shared.ErrValidation)
	ErrUnknownWarehouse      = fmt.Errorf("warehouse does not exist: %w", shared.ErrValidation)
	ErrCannotPost            = fmt.Errorf("stock journal can only be posted from DRAFT: %w", shared.ErrConflict)
	ErrCannotDelete          = fmt.Errorf("stock journal can only be deleted while DRAFT: %w", shared.ErrConflict)
	ErrCannotCancel          = fmt.Errorf("stock journal is already cancelled: %w", shared.ErrConflict)
	ErrStatusChanged         = fmt.Errorf("stock journal status changed concurrently: %w", shared.ErrConflict)
)
