// Package journals implements stock journals: documents that consume stock
// from one warehouse and produce stock in another. Posting a journal moves
// the inventory ledger; cancelling a posted journal reverses it.
package journals

import (
	"time"

	"github.com/bizdesk/bizdesk/internal/documents"
)

// Type enumerates journal kinds.
type Type string

const (
	TypeTransfer      Type = "TRANSFER"
	TypeManufacturing Type = "MANUFACTURING"
	TypeDisassembly   Type = "DISASSEMBLY"
	TypeRepackaging   Type = "REPACKAGING"
	TypeAdjustment    Type = "ADJUSTMENT"
)

func (t Type) IsValid() bool {
	switch t {
	case TypeTransfer, TypeManufacturing, TypeDisassembly, TypeRepackaging, TypeAdjustment:
		return true
	}
	return false
}

// needsBothSets reports whether the type converts consumed goods into
// produced goods.
func (t Type) needsBothSets() bool {
	return t == TypeTransfer || t == TypeManufacturing || t == TypeDisassembly || t == TypeRepackaging
}

// Status enumerates journal states.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusPosted    Status = "POSTED"
	StatusCancelled Status = "CANCELLED"
)

func (s Status) IsValid() bool {
	return s == StatusDraft || s == StatusPosted || s == StatusCancelled
}

func (s Status) CanPost() bool   { return s == StatusDraft }
func (s Status) CanDelete() bool { return s == StatusDraft }
func (s Status) CanCancel() bool { return s == StatusDraft || s == StatusPosted }

// Journal is a stock journal with both line sets.
type Journal struct {
	ID                     int64            `json:"id"`
	CompanyID              int64            `json:"company_id"`
	DocNumber              string           `json:"doc_number"`
	JournalType            Type             `json:"journal_type"`
	JournalDate            time.Time        `json:"journal_date"`
	SourceWarehouseID      *int64           `json:"source_warehouse_id,omitempty"`
	DestinationWarehouseID *int64           `json:"destination_warehouse_id,omitempty"`
	Narration              *string          `json:"narration,omitempty"`
	Status                 Status           `json:"status"`
	AdditionalCost         float64          `json:"additional_cost"`
	ConsumptionValue       float64          `json:"consumption_value"`
	ProductionValue        float64          `json:"production_value"`
	CancelReason           *string          `json:"cancel_reason,omitempty"`
	PostedAt               *time.Time       `json:"posted_at,omitempty"`
	CancelledAt            *time.Time       `json:"cancelled_at,omitempty"`
	CreatedAt              time.Time        `json:"created_at"`
	UpdatedAt              time.Time        `json:"updated_at"`
	Consumption            []documents.Line `json:"consumption"`
	Production             []documents.Line `json:"production"`
}

// Request creates a journal.
type Request struct {
	JournalType            Type                  `json:"journal_type" validate:"required,oneof=TRANSFER MANUFACTURING DISASSEMBLY REPACKAGING ADJUSTMENT"`
	JournalDate            string                `json:"journal_date" validate:"required,datetime=2006-01-02"`
	SourceWarehouseID      *int64                `json:"source_warehouse_id,omitempty" validate:"omitempty,gt=0"`
	DestinationWarehouseID *int64                `json:"destination_warehouse_id,omitempty" validate:"omitempty,gt=0"`
	Narration              *string               `json:"narration,omitempty" validate:"omitempty,max=1000"`
	AdditionalCost         float64               `json:"additional_cost" validate:"gte=0"`
	Consumption            []documents.LineInput `json:"consumption" validate:"dive"`
	Production             []documents.LineInput `json:"production" validate:"dive"`
}

type CancelRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type ListFilters struct {
	Status      Status
	JournalType Type
	WarehouseID *int64
	DateFrom    *time.Time
	DateTo      *time.Time
}
