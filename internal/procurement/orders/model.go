// Package orders manages purchase orders raised on vendors.
package orders

import (
	"time"

	"github.com/bizdesk/bizdesk/internal/documents"
)

// Status enumerates purchase order states.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusApproved  Status = "APPROVED"
	StatusClosed    Status = "CLOSED"
	StatusCancelled Status = "CANCELLED"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusApproved, StatusClosed, StatusCancelled:
		return true
	}
	return false
}

func (s Status) CanEdit() bool    { return s == StatusDraft }
func (s Status) CanApprove() bool { return s == StatusDraft }
func (s Status) CanClose() bool   { return s == StatusApproved }
func (s Status) CanCancel() bool  { return s == StatusDraft || s == StatusApproved }

// PurchaseOrder is a purchase order header with lines.
type PurchaseOrder struct {
	ID           int64            `json:"id"`
	CompanyID    int64            `json:"company_id"`
	DocNumber    string           `json:"doc_number"`
	VendorID     int64            `json:"vendor_id"`
	VendorName   string           `json:"vendor_name,omitempty"`
	OrderDate    time.Time        `json:"order_date"`
	ExpectedDate *time.Time       `json:"expected_date,omitempty"`
	Notes        *string          `json:"notes,omitempty"`
	Status       Status           `json:"status"`
	CancelReason *string          `json:"cancel_reason,omitempty"`
	ApprovedAt   *time.Time       `json:"approved_at,omitempty"`
	ClosedAt     *time.Time       `json:"closed_at,omitempty"`
	CancelledAt  *time.Time       `json:"cancelled_at,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	Lines        []documents.Line `json:"lines,omitempty"`
	documents.Summary
}

// Request creates or replaces a purchase order.
type Request struct {
	VendorID     int64                  `json:"vendor_id" validate:"required,gt=0"`
	OrderDate    string                 `json:"order_date" validate:"required,datetime=2006-01-02"`
	ExpectedDate string                 `json:"expected_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Notes        *string                `json:"notes,omitempty" validate:"omitempty,max=1000"`
	Lines        []documents.LineInput  `json:"lines" validate:"required,min=1,dive"`
	Charges      documents.ChargesInput `json:"charges"`
}

type CancelRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type ListFilters struct {
	Status   Status
	VendorID *int64
	DateFrom *time.Time
	DateTo   *time.Time
}
