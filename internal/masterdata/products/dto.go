package products

type CreateRequest struct {
	SKU           string  `json:"sku" validate:"required,max=64"`
	Name          string  `json:"name" validate:"required,max=200"`
	Description   *string `json:"description,omitempty" validate:"omitempty,max=1000"`
	HSNCode       string  `json:"hsn_code" validate:"omitempty,numeric"`
	UOM           string  `json:"uom" validate:"required,max=16"`
	BrandID       *int64  `json:"brand_id,omitempty" validate:"omitempty,gt=0"`
	CategoryID    *int64  `json:"category_id,omitempty" validate:"omitempty,gt=0"`
	SalePrice     float64 `json:"sale_price" validate:"gte=0"`
	PurchasePrice float64 `json:"purchase_price" validate:"gte=0"`
	GSTRate       float64 `json:"gst_rate" validate:"gte=0,lte=100"`
	ReorderLevel  float64 `json:"reorder_level" validate:"gte=0"`
}

type UpdateRequest struct {
	Name          *string  `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description   *string  `json:"description,omitempty" validate:"omitempty,max=1000"`
	HSNCode       *string  `json:"hsn_code,omitempty" validate:"omitempty,numeric"`
	UOM           *string  `json:"uom,omitempty" validate:"omitempty,min=1,max=16"`
	BrandID       *int64   `json:"brand_id,omitempty" validate:"omitempty,gt=0"`
	CategoryID    *int64   `json:"category_id,omitempty" validate:"omitempty,gt=0"`
	SalePrice     *float64 `json:"sale_price,omitempty" validate:"omitempty,gte=0"`
	PurchasePrice *float64 `json:"purchase_price,omitempty" validate:"omitempty,gte=0"`
	GSTRate       *float64 `json:"gst_rate,omitempty" validate:"omitempty,gte=0,lte=100"`
	ReorderLevel  *float64 `json:"reorder_level,omitempty" validate:"omitempty,gte=0"`
	IsActive      *bool    `json:"is_active,omitempty"`
}

type AlternativeRequest struct {
	AlternativeID int64 `json:"alternative_id" validate:"required,gt=0"`
}
