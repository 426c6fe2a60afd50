// Package challans manages delivery challans: goods sent to a customer
// without a tax invoice, such as supply on approval or job work.
package challans

import (
	"time"

	"github.com/bizdesk/bizdesk/internal/documents"
)

// Status represents the lifecycle of a delivery challan.
type Status string

const (
	StatusDraft     Status = "DRAFT"     // editable
	StatusIssued    Status = "ISSUED"    // handed to transport
	StatusDelivered Status = "DELIVERED" // received by the customer
	StatusCancelled Status = "CANCELLED"
)

// IsValid checks if the status is known.
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusIssued, StatusDelivered, StatusCancelled:
		return true
	default:
		return false
	}
}

// CanEdit reports whether lines and header may change.
func (s Status) CanEdit() bool { return s == StatusDraft }

// CanIssue reports whether the challan can be issued.
func (s Status) CanIssue() bool { return s == StatusDraft }

// CanDeliver reports whether the challan can be marked delivered.
func (s Status) CanDeliver() bool { return s == StatusIssued }

// CanCancel reports whether the challan can be cancelled.
func (s Status) CanCancel() bool { return s == StatusDraft || s == StatusIssued }

// Type classifies why goods leave without an invoice.
type Type string

const (
	TypeSupplyOnApproval Type = "SUPPLY_ON_APPROVAL"
	TypeJobWork          Type = "JOB_WORK"
	TypeSalesReturn      Type = "SALES_RETURN"
	TypeOthers           Type = "OTHERS"
)

// Challan is a delivery challan header with its lines.
type Challan struct {
	ID            int64            `json:"id"`
	CompanyID     int64            `json:"company_id"`
	DocNumber     string           `json:"doc_number"`
	CustomerID    int64            `json:"customer_id"`
	CustomerName  string           `json:"customer_name,omitempty"`
	ChallanDate   time.Time        `json:"challan_date"`
	ChallanType   Type             `json:"challan_type"`
	TransportMode *string          `json:"transport_mode,omitempty"`
	VehicleNumber *string          `json:"vehicle_number,omitempty"`
	PlaceOfSupply string           `json:"place_of_supply"`
	Notes         *string          `json:"notes,omitempty"`
	Status        Status           `json:"status"`
	CancelReason  *string          `json:"cancel_reason,omitempty"`
	IssuedAt      *time.Time       `json:"issued_at,omitempty"`
	DeliveredAt   *time.Time       `json:"delivered_at,omitempty"`
	CancelledAt   *time.Time       `json:"cancelled_at,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
	Lines         []documents.Line `json:"lines,omitempty"`
	documents.Summary
}

// Request is the body of create and update calls. Client-sent totals are not
// part of it; they are always recomputed.
type Request struct {
	CustomerID    int64                  `json:"customer_id" validate:"required,gt=0"`
	ChallanDate   string                 `json:"challan_date" validate:"required,datetime=2006-01-02"`
	ChallanType   Type                   `json:"challan_type" validate:"required,oneof=SUPPLY_ON_APPROVAL JOB_WORK SALES_RETURN OTHERS"`
	TransportMode *string                `json:"transport_mode,omitempty" validate:"omitempty,max=50"`
	VehicleNumber *string                `json:"vehicle_number,omitempty" validate:"omitempty,max=20"`
	PlaceOfSupply string                 `json:"place_of_supply,omitempty" validate:"omitempty,len=2,numeric"`
	Notes         *string                `json:"notes,omitempty" validate:"omitempty,max=1000"`
	Lines         []documents.LineInput  `json:"lines" validate:"required,min=1,dive"`
	Charges       documents.ChargesInput `json:"charges"`
}

// PreviewRequest computes totals without saving.
type PreviewRequest struct {
	CustomerID    int64                  `json:"customer_id,omitempty" validate:"omitempty,gt=0"`
	PlaceOfSupply string                 `json:"place_of_supply,omitempty" validate:"omitempty,len=2,numeric"`
	Lines         []documents.LineInput  `json:"lines" validate:"required,min=1,dive"`
	Charges       documents.ChargesInput `json:"charges"`
}

// CancelRequest carries the cancellation reason.
type CancelRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// ListFilters narrows challan listings.
type ListFilters struct {
	Status     Status
	CustomerID *int64
	DateFrom   *time.Time
	DateTo     *time.Time
}

// Preview is the outcome of PreviewTotals.
type Preview struct {
	Lines []documents.Line `json:"lines"`
	documents.Summary
}
