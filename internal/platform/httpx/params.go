package httpx

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bizdesk/bizdesk/internal/shared"
)

// ErrInvalidID is returned for non-positive or malformed path ids.
var ErrInvalidID = fmt.Errorf("invalid id: %w", shared.ErrValidation)

// PathID parses a positive int64 URL parameter.
func PathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s: %w", name, ErrInvalidID)
	}
	return id, nil
}

// QueryInt64 parses an optional int64 query value.
func QueryInt64(r *http.Request, name string) (*int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, ErrInvalidID)
	}
	return &v, nil
}

// QueryDate parses an optional YYYY-MM-DD query value.
func QueryDate(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be YYYY-MM-DD: %w", name, shared.ErrValidation)
	}
	return &t, nil
}
