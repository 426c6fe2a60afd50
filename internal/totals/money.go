package totals

import (
	"math"
	"sync"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Round2 rounds v to 2 decimal places, half away from zero, using the
// shortest decimal representation of v so 1.005 becomes 1.01.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// SuggestRoundOff returns the adjustment that brings total to the nearest
// whole rupee.
func SuggestRoundOff(total float64) float64 {
	if math.IsNaN(total) || math.IsInf(total, 0) {
		return 0
	}
	d := decimal.NewFromFloat(total).Round(2)
	return d.Round(0).Sub(d).InexactFloat64()
}

var (
	printerOnce sync.Once
	printer     *message.Printer
)

// FormatAmount renders an amount with 2 decimals and Indian digit grouping.
func FormatAmount(v float64) string {
	printerOnce.Do(func() {
		printer = message.NewPrinter(language.MustParse("en-IN"))
	})
	return printer.Sprintf("%.2f", Round2(v))
}
