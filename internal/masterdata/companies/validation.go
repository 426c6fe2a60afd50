package companies

import (
	"strings"

	"github.com/bizdesk/bizdesk/internal/documents"
)

// resolveState returns the normalised gstin and the company state. The state
// drives the inter-state decision on every document, so one is required.
func resolveState(gstin *string, state string) (*string, string, error) {
	var g string
	if gstin != nil {
		g = strings.ToUpper(strings.TrimSpace(*gstin))
	}
	if err := documents.ValidateGSTIN(g); err != nil {
		return nil, "", err
	}
	if err := documents.ValidateStateCode(state); err != nil {
		return nil, "", err
	}
	prefix := documents.StateFromGSTIN(g)
	switch {
	case state == "" && prefix == "":
		return nil, "", ErrStateRequired
	case state == "":
		state = prefix
	case prefix != "" && prefix != state:
		return nil, "", ErrStateMismatch
	}
	if g == "" {
		return nil, state, nil
	}
	return &g, state, nil
}
