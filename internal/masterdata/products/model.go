package products

import (
	"time"
)

// Product represents a stock item.
type Product struct {
	ID            int64     `json:"id"`
	CompanyID     int64     `json:"company_id"`
	SKU           string    `json:"sku"`
	Name          string    `json:"name"`
	Description   *string   `json:"description,omitempty"`
	HSNCode       string    `json:"hsn_code"`
	UOM           string    `json:"uom"`
	BrandID       *int64    `json:"brand_id,omitempty"`
	BrandName     *string   `json:"brand_name,omitempty"`
	CategoryID    *int64    `json:"category_id,omitempty"`
	CategoryName  *string   `json:"category_name,omitempty"`
	SalePrice     float64   `json:"sale_price"`
	PurchasePrice float64   `json:"purchase_price"`
	GSTRate       float64   `json:"gst_rate"`
	ReorderLevel  float64   `json:"reorder_level"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ListFilters narrows product listings beyond the common page request.
type ListFilters struct {
	BrandID    *int64
	CategoryID *int64
}
