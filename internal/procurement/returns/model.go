// Package returns records goods sent back to vendors, optionally against an
// approved purchase order.
package returns

import (
	"time"

	"github.com/bizdesk/bizdesk/internal/documents"
)

// PurchaseReturn is a return header with lines.
type PurchaseReturn struct {
	ID              int64            `json:"id"`
	CompanyID       int64            `json:"company_id"`
	DocNumber       string           `json:"doc_number"`
	VendorID        int64            `json:"vendor_id"`
	VendorName      string           `json:"vendor_name,omitempty"`
	PurchaseOrderID *int64           `json:"purchase_order_id,omitempty"`
	ReturnDate      time.Time        `json:"return_date"`
	Reason          string           `json:"reason"`
	Notes           *string          `json:"notes,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	Lines           []documents.Line `json:"lines,omitempty"`
	documents.Summary
}

// Request creates a purchase return.
type Request struct {
	VendorID        int64                  `json:"vendor_id" validate:"required,gt=0"`
	PurchaseOrderID *int64                 `json:"purchase_order_id,omitempty" validate:"omitempty,gt=0"`
	ReturnDate      string                 `json:"return_date" validate:"required,datetime=2006-01-02"`
	Reason          string                 `json:"reason" validate:"required"`
	Notes           *string                `json:"notes,omitempty" validate:"omitempty,max=1000"`
	Lines           []documents.LineInput  `json:"lines" validate:"required,min=1,dive"`
	Charges         documents.ChargesInput `json:"charges"`
}

// SourceOrder is what a return needs to know about the referenced order.
type SourceOrder struct {
	VendorID int64
	Status   string
	// Ordered maps product id to ordered quantity.
	Ordered map[int64]float64
}

type ListFilters struct {
	VendorID        *int64
	PurchaseOrderID *int64
	DateFrom        *time.Time
	DateTo          *time.Time
}
