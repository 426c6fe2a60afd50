package shared

import "errors"

// Error kinds. Domain packages wrap these so the HTTP layer can map them
// without knowing every sentinel.
var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate indicates a unique constraint clash.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrValidation indicates rejected input.
	ErrValidation = errors.New("validation failed")
	// ErrConflict indicates the resource is in the wrong state for the operation.
	ErrConflict = errors.New("conflict")
)
