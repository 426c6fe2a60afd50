package documents

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/bizdesk/bizdesk/internal/totals"
)

// Scales of the input columns. Inputs are rounded to them before the
// calculator runs so a stored document recomputes to its stored totals.
const (
	quantityScale = 3
	moneyScale    = 2
	percentScale  = 2
)

// Calculator is the subset of *totals.Calculator documents need.
type Calculator interface {
	Compute(in totals.Input) (totals.DocumentTotals, error)
}

// Built is the outcome of Build.
type Built struct {
	Lines   []Line
	Summary Summary
	Totals  totals.DocumentTotals
}

// Build validates lines, runs the calculator and returns persisted lines and
// header totals. interState is the derived default; charges.InterState wins
// when set.
func Build(calc Calculator, lines []LineInput, charges ChargesInput, interState bool) (Built, error) {
	lines, charges = normalize(lines, charges)
	if err := ValidateLines(lines); err != nil {
		return Built{}, err
	}
	if charges.InterState != nil {
		interState = *charges.InterState
	}

	in := totals.Input{
		Items:             make([]totals.LineItem, len(lines)),
		Freight:           charges.Freight,
		PackingForwarding: charges.PackingForwarding,
		Discount:          charges.Discount,
		RoundOff:          charges.RoundOff,
		InterState:        interState,
	}
	for i, l := range lines {
		in.Items[i] = l.Item()
	}

	if charges.AutoRoundOff {
		in.RoundOff = 0
		draft, err := calc.Compute(in)
		if err != nil {
			return Built{}, fmt.Errorf("compute totals: %w", err)
		}
		in.RoundOff = totals.SuggestRoundOff(draft.GrandTotal)
	}

	out, err := calc.Compute(in)
	if err != nil {
		return Built{}, fmt.Errorf("compute totals: %w", err)
	}

	built := Built{
		Lines:   make([]Line, len(lines)),
		Summary: summarize(in, out),
		Totals:  out,
	}
	for i, l := range lines {
		built.Lines[i] = Line{
			LineNo:          i + 1,
			ProductID:       l.ProductID,
			Description:     l.Description,
			HSNCode:         l.HSNCode,
			UOM:             l.UOM,
			Quantity:        l.Quantity,
			UnitPrice:       l.UnitPrice,
			DiscountPercent: l.DiscountPercent,
			GSTRate:         l.GSTRate,
			LineTotals:      out.Lines[i],
		}
	}
	return built, nil
}

func normalize(lines []LineInput, charges ChargesInput) ([]LineInput, ChargesInput) {
	out := make([]LineInput, len(lines))
	for i, l := range lines {
		l.Quantity = roundTo(l.Quantity, quantityScale)
		l.UnitPrice = roundTo(l.UnitPrice, moneyScale)
		l.DiscountPercent = roundTo(l.DiscountPercent, percentScale)
		l.GSTRate = roundTo(l.GSTRate, percentScale)
		out[i] = l
	}
	charges.Freight.Amount = roundTo(charges.Freight.Amount, moneyScale)
	charges.PackingForwarding.Amount = roundTo(charges.PackingForwarding.Amount, moneyScale)
	charges.Discount.Amount = roundTo(charges.Discount.Amount, moneyScale)
	charges.RoundOff = roundTo(charges.RoundOff, moneyScale)
	return out, charges
}

// roundTo leaves NaN and Inf alone for the calculator policy to handle.
func roundTo(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// Recompute re-runs the calculator over stored lines and summary inputs.
func Recompute(calc Calculator, lines []Line, summary Summary) (totals.DocumentTotals, error) {
	return calc.Compute(summary.Input(lines))
}

func summarize(in totals.Input, out totals.DocumentTotals) Summary {
	s := Summary{
		Subtotal:          out.Subtotal,
		TotalTax:          out.TotalTax,
		TotalCGST:         out.TotalCGST,
		TotalSGST:         out.TotalSGST,
		TotalIGST:         out.TotalIGST,
		TotalItemDiscount: out.TotalItemDiscount,
		FreightType:       chargeType(in.Freight.Type),
		FreightValue:      in.Freight.Amount,
		Freight:           out.Freight,
		PackingType:       chargeType(in.PackingForwarding.Type),
		PackingValue:      in.PackingForwarding.Amount,
		PackingForwarding: out.PackingForwarding,
		DiscountType:      chargeType(in.Discount.Type),
		DiscountValue:     in.Discount.Amount,
		DocumentDiscount:  out.DocumentDiscount,
		RoundOff:          out.RoundOff,
		GrandTotal:        out.GrandTotal,
		InterState:        in.InterState,
	}
	s.FormatAmounts()
	return s
}

// chargeType stores unknown or empty types as fixed, which is how the
// calculator resolved them.
func chargeType(t totals.ChargeType) totals.ChargeType {
	if t.IsValid() {
		return t
	}
	return totals.ChargeFixed
}
