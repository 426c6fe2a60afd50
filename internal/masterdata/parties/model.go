// Package parties manages customers and vendors. Both share one shape and
// differ only in the table they live in.
package parties

import "time"

// Kind selects customers or vendors.
type Kind string

const (
	KindCustomer Kind = "customer"
	KindVendor   Kind = "vendor"
)

func (k Kind) table() string {
	if k == KindVendor {
		return "vendors"
	}
	return "customers"
}

// Party is a customer or vendor.
type Party struct {
	ID               int64     `json:"id"`
	CompanyID        int64     `json:"company_id"`
	Code             string    `json:"code"`
	Name             string    `json:"name"`
	GSTIN            *string   `json:"gstin,omitempty"`
	Email            *string   `json:"email,omitempty"`
	Phone            *string   `json:"phone,omitempty"`
	BillingAddress   *string   `json:"billing_address,omitempty"`
	ShippingAddress  *string   `json:"shipping_address,omitempty"`
	City             *string   `json:"city,omitempty"`
	StateCode        string    `json:"state_code"`
	PostalCode       *string   `json:"postal_code,omitempty"`
	OpeningBalance   float64   `json:"opening_balance"`
	CreditLimit      float64   `json:"credit_limit"`
	PaymentTermsDays int       `json:"payment_terms_days"`
	IsActive         bool      `json:"is_active"`
	Notes            *string   `json:"notes,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// CreateRequest is the payload for creating a party.
type CreateRequest struct {
	Code             string  `json:"code" validate:"required,max=50"`
	Name             string  `json:"name" validate:"required,max=200"`
	GSTIN            *string `json:"gstin,omitempty" validate:"omitempty,len=15"`
	Email            *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone            *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	BillingAddress   *string `json:"billing_address,omitempty" validate:"omitempty,max=500"`
	ShippingAddress  *string `json:"shipping_address,omitempty" validate:"omitempty,max=500"`
	City             *string `json:"city,omitempty" validate:"omitempty,max=100"`
	StateCode        string  `json:"state_code" validate:"omitempty,len=2"`
	PostalCode       *string `json:"postal_code,omitempty" validate:"omitempty,max=20"`
	OpeningBalance   float64 `json:"opening_balance"`
	CreditLimit      float64 `json:"credit_limit" validate:"gte=0"`
	PaymentTermsDays int     `json:"payment_terms_days" validate:"gte=0,lte=365"`
	Notes            *string `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// UpdateRequest carries PATCH semantics: nil fields are left unchanged.
type UpdateRequest struct {
	Name             *string  `json:"name,omitempty" validate:"omitempty,max=200"`
	GSTIN            *string  `json:"gstin,omitempty" validate:"omitempty,len=15"`
	Email            *string  `json:"email,omitempty" validate:"omitempty,email"`
	Phone            *string  `json:"phone,omitempty" validate:"omitempty,max=50"`
	BillingAddress   *string  `json:"billing_address,omitempty" validate:"omitempty,max=500"`
	ShippingAddress  *string  `json:"shipping_address,omitempty" validate:"omitempty,max=500"`
	City             *string  `json:"city,omitempty" validate:"omitempty,max=100"`
	StateCode        *string  `json:"state_code,omitempty" validate:"omitempty,len=2"`
	PostalCode       *string  `json:"postal_code,omitempty" validate:"omitempty,max=20"`
	OpeningBalance   *float64 `json:"opening_balance,omitempty"`
	CreditLimit      *float64 `json:"credit_limit,omitempty" validate:"omitempty,gte=0"`
	PaymentTermsDays *int     `json:"payment_terms_days,omitempty" validate:"omitempty,gte=0,lte=365"`
	IsActive         *bool    `json:"is_active,omitempty"`
	Notes            *string  `json:"notes,omitempty" validate:"omitempty,max=1000"`
}
