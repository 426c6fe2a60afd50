package documents

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/bizdesk/bizdesk/internal/shared"
)

var (
	// ErrNoLines indicates a document without lines.
	ErrNoLines = fmt.Errorf("at least one line is required: %w", shared.ErrValidation)
	// ErrInvalidQuantity indicates a line quantity that is not positive at the
	// stored precision.
	ErrInvalidQuantity = fmt.Errorf("quantity must be greater than zero: %w", shared.ErrValidation)
	// ErrInvalidHSN indicates an HSN/SAC code that is not 4, 6 or 8 digits.
	ErrInvalidHSN = fmt.Errorf("hsn code must be 4, 6 or 8 digits: %w", shared.ErrValidation)
	// ErrInvalidGSTIN indicates a malformed GSTIN.
	ErrInvalidGSTIN = fmt.Errorf("gstin is malformed: %w", shared.ErrValidation)
	// ErrInvalidStateCode indicates a state code outside 01-38 or 97.
	ErrInvalidStateCode = fmt.Errorf("state code is invalid: %w", shared.ErrValidation)
	// ErrReasonLength indicates a cancellation reason outside 10-500 characters.
	ErrReasonLength = fmt.Errorf("reason must be 10 to 500 characters: %w", shared.ErrValidation)
)

var (
	hsnPattern   = regexp.MustCompile(`^(\d{4}|\d{6}|\d{8})$`)
	gstinPattern = regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z][1-9A-Z]Z[0-9A-Z]$`)
	statePattern = regexp.MustCompile(`^(0[1-9]|[12][0-9]|3[0-8]|97)$`)
)

// ValidateLines checks structural line rules that the calculator does not.
// Quantities must be positive under either calculator policy, since a
// document line moves goods.
func ValidateLines(lines []LineInput) error {
	if len(lines) == 0 {
		return ErrNoLines
	}
	var errs []error
	for i, l := range lines {
		if !(l.Quantity > 0) || math.IsInf(l.Quantity, 1) {
			errs = append(errs, fmt.Errorf("lines[%d].quantity: %w", i, ErrInvalidQuantity))
		}
		if err := ValidateHSN(l.HSNCode); err != nil {
			errs = append(errs, fmt.Errorf("lines[%d].hsn_code: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// ValidateHSN accepts an empty code or 4, 6 or 8 digits.
func ValidateHSN(code string) error {
	if code == "" || hsnPattern.MatchString(code) {
		return nil
	}
	return ErrInvalidHSN
}

// ValidateGSTIN accepts an empty value or a 15 character GSTIN whose state
// prefix is a known state code.
func ValidateGSTIN(gstin string) error {
	if gstin == "" {
		return nil
	}
	if !gstinPattern.MatchString(gstin) || !statePattern.MatchString(gstin[:2]) {
		return ErrInvalidGSTIN
	}
	return nil
}

// ValidateStateCode accepts an empty value or a two digit GST state code.
func ValidateStateCode(code string) error {
	if code == "" || statePattern.MatchString(code) {
		return nil
	}
	return ErrInvalidStateCode
}

// StateFromGSTIN returns the state code prefix of a valid GSTIN.
func StateFromGSTIN(gstin string) string {
	if ValidateGSTIN(gstin) != nil || gstin == "" {
		return ""
	}
	return gstin[:2]
}

// IsInterState reports whether supply crosses state lines. Unknown states are
// treated as intra-state.
func IsInterState(companyState, placeOfSupply string) bool {
	return companyState != "" && placeOfSupply != "" && companyState != placeOfSupply
}

// CleanReason trims a cancellation reason and checks its length in
// characters.
func CleanReason(reason string) (string, error) {
	reason = strings.TrimSpace(reason)
	n := utf8.RuneCountInString(reason)
	if n < 10 || n > 500 {
		return "", ErrReasonLength
	}
	return reason, nil
}
