// Package inventory keeps per-warehouse stock balances at moving average cost
// and the stock card that explains every change to them. Balances only move
// through Ledger.Post and Ledger.Reverse, which posting documents call inside
// their own transaction.
package inventory

import (
	"fmt"
	"time"

	"github.com/bizdesk/bizdesk/internal/shared"
)

// Ref identifies the document a movement belongs to.
type Ref struct {
	CompanyID int64
	Type      string
	ID        int64
	DocNumber string
}

// Movement is a signed quantity change. UnitCost is only used for inbound
// movements; outbound movements leave at the current average cost.
type Movement struct {
	WarehouseID int64
	ProductID   int64
	Qty         float64
	UnitCost    float64
	Note        string
}

// Balance summarises stock of one product in one warehouse.
type Balance struct {
	CompanyID   int64     `json:"company_id"`
	WarehouseID int64     `json:"warehouse_id"`
	ProductID   int64     `json:"product_id"`
	Qty         float64   `json:"qty"`
	AvgCost     float64   `json:"avg_cost"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Value is the stock value at average cost.
func (b Balance) Value() float64 { return b.Qty * b.AvgCost }

// StockCardEntry is one line of the stock card.
type StockCardEntry struct {
	ID          int64     `json:"id"`
	WarehouseID int64     `json:"warehouse_id"`
	ProductID   int64     `json:"product_id"`
	RefType     string    `json:"ref_type"`
	RefID       int64     `json:"ref_id"`
	DocNumber   string    `json:"doc_number"`
	PostedAt    time.Time `json:"posted_at"`
	QtyIn       float64   `json:"qty_in"`
	QtyOut      float64   `json:"qty_out"`
	BalanceQty  float64   `json:"balance_qty"`
	UnitCost    float64   `json:"unit_cost"`
	BalanceCost float64   `json:"balance_cost"`
	Note        string    `json:"note,omitempty"`
}

// StockCardFilter filters card entries.
type StockCardFilter struct {
	WarehouseID int64
	ProductID   int64
	From        *time.Time
	To          *time.Time
	Limit       int
}

// BalanceFilter narrows a balance listing.
type BalanceFilter struct {
	WarehouseID *int64
	ProductID   *int64
	NonZero     bool
}

var (
	ErrNegativeStock    = fmt.Errorf("stock would go negative: %w", shared.ErrConflict)
	ErrInvalidQuantity  = fmt.Errorf("movement quantity must be non-zero: %w", shared.ErrValidation)
	ErrInvalidUnitCost  = fmt.Errorf("unit cost must not be negative: %w", shared.ErrValidation)
	ErrNothingToReverse = fmt.Errorf("no stock card entries for document: %w", shared.ErrConflict)
	ErrCardScope        = fmt.Errorf("warehouse_id and product_id are required: %w", shared.ErrValidation)
)
