// Package documents holds the line-item and charge shapes shared by
// challans, purchase orders, purchase returns and stock journals, and turns
// them into persisted lines and header totals.
package documents

import "github.com/bizdesk/bizdesk/internal/totals"

// LineInput is a line as submitted by a client. Amounts are validated by the
// calculator according to its policy.
type LineInput struct {
	ProductID       int64   `json:"product_id" validate:"required,gt=0"`
	Description     string  `json:"description,omitempty" validate:"max=500"`
	HSNCode         string  `json:"hsn_code,omitempty" validate:"max=8"`
	UOM             string  `json:"uom,omitempty" validate:"max=20"`
	Quantity        float64 `json:"quantity"`
	UnitPrice       float64 `json:"unit_price"`
	DiscountPercent float64 `json:"discount_percent"`
	GSTRate         float64 `json:"gst_rate"`
}

// Item converts the line to calculator input.
func (l LineInput) Item() totals.LineItem {
	return totals.LineItem{
		Quantity:        l.Quantity,
		UnitPrice:       l.UnitPrice,
		DiscountPercent: l.DiscountPercent,
		GSTRate:         l.GSTRate,
	}
}

// ChargesInput carries document-level adjustments.
type ChargesInput struct {
	Freight           totals.Adjustment `json:"freight"`
	PackingForwarding totals.Adjustment `json:"packing_forwarding"`
	Discount          totals.Adjustment `json:"discount"`
	RoundOff          float64           `json:"round_off"`
	// AutoRoundOff replaces RoundOff with the adjustment to the nearest rupee.
	AutoRoundOff bool `json:"auto_round_off,omitempty"`
	// InterState overrides the place-of-supply derivation when set.
	InterState *bool `json:"inter_state,omitempty"`
}

// Line is a persisted document line with its computed amounts.
type Line struct {
	ID              int64   `json:"id"`
	LineNo          int     `json:"line_no"`
	ProductID       int64   `json:"product_id"`
	Description     string  `json:"description,omitempty"`
	HSNCode         string  `json:"hsn_code,omitempty"`
	UOM             string  `json:"uom,omitempty"`
	Quantity        float64 `json:"quantity"`
	UnitPrice       float64 `json:"unit_price"`
	DiscountPercent float64 `json:"discount_percent"`
	GSTRate         float64 `json:"gst_rate"`
	totals.LineTotals
}

// Item converts the stored line back to calculator input.
func (l Line) Item() totals.LineItem {
	return totals.LineItem{
		Quantity:        l.Quantity,
		UnitPrice:       l.UnitPrice,
		DiscountPercent: l.DiscountPercent,
		GSTRate:         l.GSTRate,
	}
}

// Summary is the persisted header totals of a document, together with the
// charge inputs needed to recompute them.
type Summary struct {
	Subtotal          float64 `json:"subtotal"`
	TotalTax          float64 `json:"total_tax"`
	TotalCGST         float64 `json:"total_cgst"`
	TotalSGST         float64 `json:"total_sgst"`
	TotalIGST         float64 `json:"total_igst"`
	TotalItemDiscount float64 `json:"total_item_discount"`

	FreightType       totals.ChargeType `json:"freight_type"`
	FreightValue      float64           `json:"freight_value"`
	Freight           float64           `json:"freight"`
	PackingType       totals.ChargeType `json:"packing_type"`
	PackingValue      float64           `json:"packing_value"`
	PackingForwarding float64           `json:"packing_forwarding"`
	DiscountType      totals.ChargeType `json:"discount_type"`
	DiscountValue     float64           `json:"discount_value"`
	DocumentDiscount  float64           `json:"document_discount"`

	RoundOff   float64 `json:"round_off"`
	GrandTotal float64 `json:"grand_total"`
	InterState bool    `json:"inter_state"`

	// GrandTotalFormatted is not stored; FormatAmounts derives it.
	GrandTotalFormatted string `json:"grand_total_formatted"`
}

// FormatAmounts fills the display fields from the stored amounts.
func (s *Summary) FormatAmounts() {
	s.GrandTotalFormatted = totals.FormatAmount(s.GrandTotal)
}

// Input rebuilds calculator input from stored lines and summary.
func (s Summary) Input(lines []Line) totals.Input {
	items := make([]totals.LineItem, len(lines))
	for i, l := range lines {
		items[i] = l.Item()
	}
	return totals.Input{
		Items:             items,
		Freight:           totals.Adjustment{Amount: s.FreightValue, Type: s.FreightType},
		PackingForwarding: totals.Adjustment{Amount: s.PackingValue, Type: s.PackingType},
		Discount:          totals.Adjustment{Amount: s.DiscountValue, Type: s.DiscountType},
		RoundOff:          s.RoundOff,
		InterState:        s.InterState,
	}
}
