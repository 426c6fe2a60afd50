// Package totals computes line-item and document totals for GST documents
// (delivery challans, purchase orders, purchase returns and stock journals).
package totals

// ChargeType selects how an Adjustment amount is resolved.
type ChargeType string

const (
	// ChargeFixed uses the amount literally.
	ChargeFixed ChargeType = "fixed"
	// ChargePercentage treats the amount as a percent of the subtotal.
	ChargePercentage ChargeType = "percentage"
)

// IsValid reports whether the charge type is known.
func (t ChargeType) IsValid() bool {
	return t == ChargeFixed || t == ChargePercentage
}

// LineItem is a single priced line on a document.
type LineItem struct {
	Quantity        float64 `json:"quantity"`
	UnitPrice       float64 `json:"unit_price"`
	DiscountPercent float64 `json:"discount_percent"`
	GSTRate         float64 `json:"gst_rate"`
}

// Adjustment is a document-level charge or discount.
type Adjustment struct {
	Amount float64    `json:"amount"`
	Type   ChargeType `json:"type"`
}

// Fixed returns a fixed-amount adjustment.
func Fixed(amount float64) Adjustment {
	return Adjustment{Amount: amount, Type: ChargeFixed}
}

// Percent returns a percentage-of-subtotal adjustment.
func Percent(rate float64) Adjustment {
	return Adjustment{Amount: rate, Type: ChargePercentage}
}

// Input groups everything needed to total a document.
type Input struct {
	Items             []LineItem `json:"items"`
	Freight           Adjustment `json:"freight"`
	PackingForwarding Adjustment `json:"packing_forwarding"`
	Discount          Adjustment `json:"discount"`
	RoundOff          float64    `json:"round_off"`
	// InterState routes line tax to IGST instead of a CGST/SGST split.
	InterState bool `json:"inter_state"`
}

// LineTotals holds the published (2 dp) amounts of one line.
type LineTotals struct {
	TaxableAmount  float64 `json:"taxable_amount"`
	DiscountAmount float64 `json:"discount_amount"`
	TaxAmount      float64 `json:"tax_amount"`
	CGST           float64 `json:"cgst"`
	SGST           float64 `json:"sgst"`
	IGST           float64 `json:"igst"`
	TotalAmount    float64 `json:"total_amount"`
}

// DocumentTotals holds the published (2 dp) amounts of a document.
type DocumentTotals struct {
	Lines             []LineTotals `json:"lines"`
	Subtotal          float64      `json:"subtotal"`
	TotalTax          float64      `json:"total_tax"`
	TotalCGST         float64      `json:"total_cgst"`
	TotalSGST         float64      `json:"total_sgst"`
	TotalIGST         float64      `json:"total_igst"`
	TotalItemDiscount float64      `json:"total_item_discount"`
	Freight           float64      `json:"freight"`
	PackingForwarding float64      `json:"packing_forwarding"`
	DocumentDiscount  float64      `json:"document_discount"`
	RoundOff          float64      `json:"round_off"`
	GrandTotal        float64      `json:"grand_total"`
}
