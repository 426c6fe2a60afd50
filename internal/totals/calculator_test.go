package totals

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeSingleLine(t *testing.T) {
	calc := NewCalculator()
	out, err := calc.Compute(Input{
		Items: []LineItem{{Quantity: 2, UnitPrice: 100, DiscountPercent: 10, GSTRate: 18}},
	})
	require.NoError(t, err)
	require.Len(t, out.Lines, 1)

	line := out.Lines[0]
	assert.Equal(t, 180.0, line.TaxableAmount)
	assert.Equal(t, 20.0, line.DiscountAmount)
	assert.Equal(t, 32.4, line.TaxAmount)
	assert.Equal(t, 16.2, line.CGST)
	assert.Equal(t, 16.2, line.SGST)
	assert.Zero(t, line.IGST)
	assert.Equal(t, 212.4, line.TotalAmount)

	assert.Equal(t, 180.0, out.Subtotal)
	assert.Equal(t, 32.4, out.TotalTax)
	assert.Equal(t, 20.0, out.TotalItemDiscount)
	assert.Equal(t, 212.4, out.GrandTotal)
}

func TestComputeDocumentCharges(t *testing.T) {
	calc := NewCalculator()
	out, err := calc.Compute(Input{
		Items:             []LineItem{{Quantity: 10, UnitPrice: 100}},
		Freight:           Fixed(50),
		PackingForwarding: Percent(5),
		Discount:          Percent(10),
		RoundOff:          -0.40,
	})
	require.NoError(t, err)

	assert.Equal(t, 1000.0, out.Subtotal)
	assert.Equal(t, 50.0, out.Freight)
	assert.Equal(t, 50.0, out.PackingForwarding)
	assert.Equal(t, 100.0, out.DocumentDiscount)
	assert.Equal(t, -0.4, out.RoundOff)
	assert.Equal(t, 999.6, out.GrandTotal)
}

func TestComputeNoDiscountNoTax(t *testing.T) {
	calc := NewCalculator()
	cases := []struct {
		qty, price float64
	}{
		{1, 1},
		{3, 33.33},
		{12.5, 8},
		{0, 999},
	}
	for _, tc := range cases {
		line, err := calc.Line(LineItem{Quantity: tc.qty, UnitPrice: tc.price})
		require.NoError(t, err)
		assert.Equal(t, Round2(tc.qty*tc.price), line.TotalAmount)
		assert.Zero(t, line.TaxAmount)
	}
}

func TestTaxableMonotoneInDiscount(t *testing.T) {
	calc := NewCalculator()
	prev := math.Inf(1)
	for d := 0.0; d <= 100; d += 12.5 {
		line, err := calc.Line(LineItem{Quantity: 7, UnitPrice: 19.99, DiscountPercent: d, GSTRate: 12})
		require.NoError(t, err)
		assert.LessOrEqual(t, line.TaxableAmount, prev)
		prev = line.TaxableAmount
	}
	assert.Zero(t, prev)
}

func TestCGSTAndSGSTSumToTax(t *testing.T) {
	calc := NewCalculator()
	prices := []float64{0.01, 0.07, 1.11, 3.33, 17.49, 99.99, 1234.57}
	for _, rate := range DefaultSlabs {
		for _, price := range prices {
			line, err := calc.Line(LineItem{Quantity: 3, UnitPrice: price, DiscountPercent: 7, GSTRate: rate})
			require.NoError(t, err)
			assert.InDelta(t, line.TaxAmount, line.CGST+line.SGST, 1e-9, "rate=%v price=%v", rate, price)
		}
	}
}

// The header split is taken from the unrounded document tax, so it always
// sums to TotalTax but may differ by a paisa from the sum of line splits.
func TestHeaderCGSTAndSGSTSumToTotalTax(t *testing.T) {
	calc := NewCalculator()
	prices := []float64{0.07, 0.33, 1.11, 17.49, 99.99}
	for _, rate := range DefaultSlabs {
		items := make([]LineItem, 0, len(prices))
		for _, price := range prices {
			items = append(items, LineItem{Quantity: 1, UnitPrice: price, DiscountPercent: 3, GSTRate: rate})
		}
		out, err := calc.Compute(Input{Items: items})
		require.NoError(t, err)
		assert.InDelta(t, out.TotalTax, out.TotalCGST+out.TotalSGST, 1e-9, "rate=%v", rate)
		assert.LessOrEqual(t, out.TotalSGST-out.TotalCGST, 0.01+1e-9, "rate=%v", rate)
		assert.GreaterOrEqual(t, out.TotalSGST-out.TotalCGST, -0.01-1e-9, "rate=%v", rate)
	}
}

func TestComputeInterStateUsesIGST(t *testing.T) {
	calc := NewCalculator()
	out, err := calc.Compute(Input{
		Items:      []LineItem{{Quantity: 1, UnitPrice: 500, GSTRate: 12}},
		InterState: true,
	})
	require.NoError(t, err)

	assert.Equal(t, 60.0, out.Lines[0].IGST)
	assert.Zero(t, out.Lines[0].CGST)
	assert.Zero(t, out.Lines[0].SGST)
	assert.Equal(t, 60.0, out.TotalIGST)
	assert.Zero(t, out.TotalCGST)
	assert.Equal(t, 560.0, out.GrandTotal)
}

func TestPercentageDiscountScalesWithSubtotal(t *testing.T) {
	calc := NewCalculator()
	small, err := calc.Compute(Input{Items: []LineItem{{Quantity: 1, UnitPrice: 200}}, Discount: Percent(10)})
	require.NoError(t, err)
	large, err := calc.Compute(Input{Items: []LineItem{{Quantity: 2, UnitPrice: 200}}, Discount: Percent(10)})
	require.NoError(t, err)
	assert.Equal(t, 20.0, small.DocumentDiscount)
	assert.Equal(t, 40.0, large.DocumentDiscount)

	fixedSmall, err := calc.Compute(Input{Items: []LineItem{{Quantity: 1, UnitPrice: 200}}, Discount: Fixed(10)})
	require.NoError(t, err)
	fixedLarge, err := calc.Compute(Input{Items: []LineItem{{Quantity: 2, UnitPrice: 200}}, Discount: Fixed(10)})
	require.NoError(t, err)
	assert.Equal(t, fixedSmall.DocumentDiscount, fixedLarge.DocumentDiscount)
}

func TestComputeEmptyDocument(t *testing.T) {
	calc := NewCalculator()
	out, err := calc.Compute(Input{Freight: Fixed(25)})
	require.NoError(t, err)
	assert.Empty(t, out.Lines)
	assert.Zero(t, out.Subtotal)
	assert.Equal(t, 25.0, out.GrandTotal)
}

func TestZeroValueAdjustmentIsFixedZero(t *testing.T) {
	calc := NewCalculator()
	out, err := calc.Compute(Input{Items: []LineItem{{Quantity: 1, UnitPrice: 10}}})
	require.NoError(t, err)
	assert.Zero(t, out.Freight)
	assert.Zero(t, out.DocumentDiscount)
	assert.Equal(t, 10.0, out.GrandTotal)
}

func TestStrictPolicyRejectsInvalidInput(t *testing.T) {
	calc := NewCalculator(WithPolicy(PolicyStrict))

	cases := []struct {
		name    string
		in      Input
		wantErr error
		path    string
	}{
		{
			name:    "negative quantity",
			in:      Input{Items: []LineItem{{Quantity: 1, UnitPrice: 1}, {Quantity: -1, UnitPrice: 1}}},
			wantErr: ErrInvalidAmount,
			path:    "items[1].quantity",
		},
		{
			name:    "nan price",
			in:      Input{Items: []LineItem{{Quantity: 1, UnitPrice: math.NaN()}}},
			wantErr: ErrInvalidAmount,
			path:    "items[0].unit_price",
		},
		{
			name:    "discount above 100",
			in:      Input{Items: []LineItem{{Quantity: 1, UnitPrice: 1, DiscountPercent: 120}}},
			wantErr: ErrInvalidDiscount,
			path:    "items[0].discount_percent",
		},
		{
			name:    "off-slab rate",
			in:      Input{Items: []LineItem{{Quantity: 1, UnitPrice: 1, GSTRate: 7}}},
			wantErr: ErrInvalidTaxRate,
			path:    "items[0].gst_rate",
		},
		{
			name:    "unknown charge type",
			in:      Input{Freight: Adjustment{Amount: 5, Type: "flat"}},
			wantErr: ErrInvalidChargeType,
			path:    "freight.type",
		},
		{
			name:    "negative packing",
			in:      Input{PackingForwarding: Fixed(-5)},
			wantErr: ErrInvalidAmount,
			path:    "packing_forwarding.amount",
		},
		{
			name:    "infinite round off",
			in:      Input{RoundOff: math.Inf(1)},
			wantErr: ErrInvalidAmount,
			path:    "round_off",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := calc.Compute(tc.in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.wantErr))
			assert.True(t, IsInputError(err))
			assert.Contains(t, err.Error(), tc.path)
		})
	}
}

func TestLenientPolicyCoercesInput(t *testing.T) {
	calc := NewCalculator(WithPolicy(PolicyLenient))

	out, err := calc.Compute(Input{
		Items: []LineItem{
			{Quantity: -3, UnitPrice: 100, GSTRate: 18},
			{Quantity: 1, UnitPrice: 100, DiscountPercent: 150, GSTRate: 18},
			{Quantity: 1, UnitPrice: 100, GSTRate: 7},
		},
		Freight:  Adjustment{Amount: 5, Type: "flat"},
		RoundOff: math.NaN(),
	})
	require.NoError(t, err)

	assert.Zero(t, out.Lines[0].TotalAmount)
	assert.Zero(t, out.Lines[1].TaxableAmount)
	assert.Equal(t, 100.0, out.Lines[1].DiscountAmount)
	assert.Equal(t, 7.0, out.Lines[2].TaxAmount)
	assert.Equal(t, 5.0, out.Freight)
	assert.Zero(t, out.RoundOff)
	assert.Equal(t, 112.0, out.GrandTotal)
}

func TestNegativeRoundOffAllowed(t *testing.T) {
	calc := NewCalculator()
	out, err := calc.Compute(Input{Items: []LineItem{{Quantity: 1, UnitPrice: 10.49}}, RoundOff: -0.49})
	require.NoError(t, err)
	assert.Equal(t, 10.0, out.GrandTotal)
}

func TestCustomSlabs(t *testing.T) {
	calc := NewCalculator(WithSlabs([]float64{0, 3, 40}))
	assert.Equal(t, []float64{0, 3, 40}, calc.Slabs())
	assert.True(t, calc.IsSlab(3))
	assert.False(t, calc.IsSlab(18))

	line, err := calc.Line(LineItem{Quantity: 1, UnitPrice: 100, GSTRate: 3})
	require.NoError(t, err)
	assert.Equal(t, 3.0, line.TaxAmount)
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyStrict, p)

	p, err = ParsePolicy(" Lenient ")
	require.NoError(t, err)
	assert.Equal(t, PolicyLenient, p)

	_, err = ParsePolicy("loose")
	assert.Error(t, err)
}
