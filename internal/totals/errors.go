package totals

import "errors"

// Input errors. Only returned under PolicyStrict.
var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidDiscount   = errors.New("discount percent must be between 0 and 100")
	ErrInvalidTaxRate    = errors.New("gst rate is not an allowed slab")
	ErrInvalidChargeType = errors.New("charge type must be fixed or percentage")
)

// IsInputError reports whether err came from calculator input checks.
func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidDiscount) ||
		errors.Is(err, ErrInvalidTaxRate) ||
		errors.Is(err, ErrInvalidChargeType)
}
