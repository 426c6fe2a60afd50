package totals

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Policy decides what happens to invalid numeric input.
type Policy string

const (
	// PolicyStrict rejects invalid input with a field-scoped error.
	PolicyStrict Policy = "strict"
	// PolicyLenient coerces invalid input and never fails.
	PolicyLenient Policy = "lenient"
)

// ParsePolicy converts a configuration value into a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case PolicyStrict, "":
		return PolicyStrict, nil
	case PolicyLenient:
		return PolicyLenient, nil
	default:
		return "", fmt.Errorf("totals: unknown policy %q", s)
	}
}

// DefaultSlabs is the GST slab set.
var DefaultSlabs = []float64{0, 5, 12, 18, 28}

// Calculator computes document totals. It holds no mutable state and is safe
// for concurrent use.
type Calculator struct {
	policy Policy
	slabs  map[float64]struct{}
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithPolicy sets the input policy.
func WithPolicy(p Policy) Option {
	return func(c *Calculator) {
		if p == PolicyStrict || p == PolicyLenient {
			c.policy = p
		}
	}
}

// WithSlabs replaces the allowed GST rates.
func WithSlabs(slabs []float64) Option {
	return func(c *Calculator) {
		if len(slabs) == 0 {
			return
		}
		c.slabs = make(map[float64]struct{}, len(slabs))
		for _, s := range slabs {
			c.slabs[s] = struct{}{}
		}
	}
}

// NewCalculator builds a Calculator, strict with DefaultSlabs unless
// overridden.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{policy: PolicyStrict}
	WithSlabs(DefaultSlabs)(c)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Policy returns the configured input policy.
func (c *Calculator) Policy() Policy {
	return c.policy
}

// Slabs returns the allowed GST rates in ascending order.
func (c *Calculator) Slabs() []float64 {
	out := make([]float64, 0, len(c.slabs))
	for s := range c.slabs {
		out = append(out, s)
	}
	sort.Float64s(out)
	return out
}

// IsSlab reports whether rate is an allowed GST rate.
func (c *Calculator) IsSlab(rate float64) bool {
	_, ok := c.slabs[rate]
	return ok
}

type lineAmounts struct {
	discount float64
	taxable  float64
	tax      float64
}

// Line computes a single intra-state line.
func (c *Calculator) Line(item LineItem) (LineTotals, error) {
	raw, err := c.lineAmounts(item)
	if err != nil {
		return LineTotals{}, err
	}
	return publishLine(raw, false), nil
}

// Compute totals a document in a single pass over its items.
func (c *Calculator) Compute(in Input) (DocumentTotals, error) {
	out := DocumentTotals{Lines: make([]LineTotals, 0, len(in.Items))}

	var subtotal, tax, itemDiscount float64
	for i, item := range in.Items {
		raw, err := c.lineAmounts(item)
		if err != nil {
			return DocumentTotals{}, fmt.Errorf("items[%d].%w", i, err)
		}
		subtotal += raw.taxable
		tax += raw.tax
		itemDiscount += raw.discount
		out.Lines = append(out.Lines, publishLine(raw, in.InterState))
	}

	freight, err := c.resolve("freight", in.Freight, subtotal, false)
	if err != nil {
		return DocumentTotals{}, err
	}
	packing, err := c.resolve("packing_forwarding", in.PackingForwarding, subtotal, false)
	if err != nil {
		return DocumentTotals{}, err
	}
	discount, err := c.resolve("discount", in.Discount, subtotal, true)
	if err != nil {
		return DocumentTotals{}, err
	}
	roundOff := in.RoundOff
	if math.IsNaN(roundOff) || math.IsInf(roundOff, 0) {
		if c.policy == PolicyStrict {
			return DocumentTotals{}, fmt.Errorf("round_off: %w", ErrInvalidAmount)
		}
		roundOff = 0
	}

	grand := subtotal + tax + freight + packing - discount + roundOff

	out.Subtotal = Round2(subtotal)
	out.TotalTax = Round2(tax)
	if in.InterState {
		out.TotalIGST = out.TotalTax
	} else {
		// Split the document tax, not the sum of line splits.
		out.TotalCGST = Round2(tax / 2)
		out.TotalSGST = Round2(out.TotalTax - out.TotalCGST)
	}
	out.TotalItemDiscount = Round2(itemDiscount)
	out.Freight = Round2(freight)
	out.PackingForwarding = Round2(packing)
	out.DocumentDiscount = Round2(discount)
	out.RoundOff = Round2(roundOff)
	out.GrandTotal = Round2(grand)
	return out, nil
}

func (c *Calculator) lineAmounts(item LineItem) (lineAmounts, error) {
	qty, err := c.amount("quantity", item.Quantity)
	if err != nil {
		return lineAmounts{}, err
	}
	price, err := c.amount("unit_price", item.UnitPrice)
	if err != nil {
		return lineAmounts{}, err
	}
	discountPct, err := c.percent("discount_percent", item.DiscountPercent)
	if err != nil {
		return lineAmounts{}, err
	}
	rate, err := c.rate(item.GSTRate)
	if err != nil {
		return lineAmounts{}, err
	}

	gross := qty * price
	taxable := gross * (1 - discountPct/100)
	return lineAmounts{
		discount: gross - taxable,
		taxable:  taxable,
		tax:      taxable * rate / 100,
	}, nil
}

func publishLine(raw lineAmounts, interState bool) LineTotals {
	lt := LineTotals{
		TaxableAmount:  Round2(raw.taxable),
		DiscountAmount: Round2(raw.discount),
		TaxAmount:      Round2(raw.tax),
		TotalAmount:    Round2(raw.taxable + raw.tax),
	}
	if interState {
		lt.IGST = lt.TaxAmount
		return lt
	}
	// SGST absorbs the rounding remainder so the pair always sums to the tax.
	lt.CGST = Round2(raw.tax / 2)
	lt.SGST = Round2(lt.TaxAmount - lt.CGST)
	return lt
}

// resolve turns an adjustment into an absolute amount against subtotal.
func (c *Calculator) resolve(field string, adj Adjustment, subtotal float64, isDiscount bool) (float64, error) {
	typ := adj.Type
	if typ == "" {
		typ = ChargeFixed
	}
	if !typ.IsValid() {
		if c.policy == PolicyStrict {
			return 0, fmt.Errorf("%s.type: %w", field, ErrInvalidChargeType)
		}
		typ = ChargeFixed
	}

	if typ == ChargeFixed {
		return c.amount(field+".amount", adj.Amount)
	}

	var (
		pct float64
		err error
	)
	if isDiscount {
		pct, err = c.percent(field+".amount", adj.Amount)
	} else {
		pct, err = c.amount(field+".amount", adj.Amount)
	}
	if err != nil {
		return 0, err
	}
	return subtotal * pct / 100, nil
}

// amount validates a non-negative finite number.
func (c *Calculator) amount(field string, v float64) (float64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		if c.policy == PolicyStrict {
			return 0, fmt.Errorf("%s: %w", field, ErrInvalidAmount)
		}
		return 0, nil
	}
	return v, nil
}

// percent validates a number within [0, 100].
func (c *Calculator) percent(field string, v float64) (float64, error) {
	switch {
	case math.IsNaN(v) || math.IsInf(v, -1) || v < 0:
		if c.policy == PolicyStrict {
			return 0, fmt.Errorf("%s: %w", field, ErrInvalidDiscount)
		}
		return 0, nil
	case v > 100:
		if c.policy == PolicyStrict {
			return 0, fmt.Errorf("%s: %w", field, ErrInvalidDiscount)
		}
		return 100, nil
	}
	return v, nil
}

func (c *Calculator) rate(v float64) (float64, error) {
	r, err := c.amount("gst_rate", v)
	if err != nil {
		return 0, err
	}
	if c.policy == PolicyStrict && !c.IsSlab(r) {
		return 0, fmt.Errorf("gst_rate: %w", ErrInvalidTaxRate)
	}
	return r, nil
}
