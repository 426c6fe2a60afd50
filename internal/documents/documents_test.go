package documents

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizdesk/bizdesk/internal/platform/cache"
	"github.com/bizdesk/bizdesk/internal/shared"
	"github.com/bizdesk/bizdesk/internal/totals"
)

func TestBuildComputesLinesAndSummary(t *testing.T) {
	calc := totals.NewCalculator()
	built, err := Build(calc, []LineInput{
		{ProductID: 1, HSNCode: "8471", Quantity: 2, UnitPrice: 100, DiscountPercent: 10, GSTRate: 18},
		{ProductID: 2, Quantity: 1, UnitPrice: 50, GSTRate: 5},
	}, ChargesInput{
		Freight:  totals.Fixed(20),
		Discount: totals.Percent(10),
	}, false)
	require.NoError(t, err)

	require.Len(t, built.Lines, 2)
	assert.Equal(t, 1, built.Lines[0].LineNo)
	assert.Equal(t, 180.0, built.Lines[0].TaxableAmount)
	assert.Equal(t, 212.4, built.Lines[0].TotalAmount)
	assert.Equal(t, 2, built.Lines[1].LineNo)
	assert.Equal(t, 2.5, built.Lines[1].TaxAmount)

	s := built.Summary
	assert.Equal(t, 230.0, s.Subtotal)
	assert.Equal(t, 34.9, s.TotalTax)
	assert.Equal(t, 23.0, s.DocumentDiscount)
	assert.Equal(t, totals.ChargePercentage, s.DiscountType)
	assert.Equal(t, 10.0, s.DiscountValue)
	assert.Equal(t, totals.ChargeFixed, s.PackingType)
	assert.Equal(t, 261.9, s.GrandTotal)
	assert.Equal(t, "261.90", s.GrandTotalFormatted)
	assert.False(t, s.InterState)
}

func TestBuildInterStateOverride(t *testing.T) {
	calc := totals.NewCalculator()
	yes := true
	built, err := Build(calc, []LineInput{{ProductID: 1, Quantity: 1, UnitPrice: 100, GSTRate: 12}},
		ChargesInput{InterState: &yes}, false)
	require.NoError(t, err)
	assert.True(t, built.Summary.InterState)
	assert.Equal(t, 12.0, built.Summary.TotalIGST)
	assert.Zero(t, built.Summary.TotalCGST)
}

func TestBuildAutoRoundOff(t *testing.T) {
	calc := totals.NewCalculator()
	built, err := Build(calc, []LineInput{{ProductID: 1, Quantity: 3, UnitPrice: 33.3, GSTRate: 0}},
		ChargesInput{RoundOff: 5, AutoRoundOff: true}, false)
	require.NoError(t, err)
	assert.Equal(t, 0.1, built.Summary.RoundOff)
	assert.Equal(t, 100.0, built.Summary.GrandTotal)
}

func TestBuildRejectsBadInput(t *testing.T) {
	calc := totals.NewCalculator()

	_, err := Build(calc, nil, ChargesInput{}, false)
	assert.ErrorIs(t, err, ErrNoLines)

	_, err = Build(calc, []LineInput{{ProductID: 1, HSNCode: "12345", Quantity: 1}}, ChargesInput{}, false)
	assert.ErrorIs(t, err, ErrInvalidHSN)
	assert.ErrorIs(t, err, shared.ErrValidation)
	assert.Contains(t, err.Error(), "lines[0].hsn_code")

	_, err = Build(calc, []LineInput{{ProductID: 1, Quantity: 1, UnitPrice: -1}}, ChargesInput{}, false)
	assert.ErrorIs(t, err, totals.ErrInvalidAmount)
	assert.Contains(t, err.Error(), "items[0].unit_price")
}

func TestBuildRejectsNonPositiveQuantity(t *testing.T) {
	strict := totals.NewCalculator()
	lenient := totals.NewCalculator(totals.WithPolicy(totals.PolicyLenient))

	cases := []struct {
		name string
		calc Calculator
		qty  float64
	}{
		{"strict zero", strict, 0},
		{"lenient negative", lenient, -3},
		{"rounds to zero", lenient, 0.0004},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Build(tc.calc, []LineInput{
				{ProductID: 1, Quantity: 1, UnitPrice: 10, GSTRate: 18},
				{ProductID: 2, Quantity: tc.qty, UnitPrice: 10, GSTRate: 18},
			}, ChargesInput{}, false)
			assert.ErrorIs(t, err, ErrInvalidQuantity)
			assert.ErrorIs(t, err, shared.ErrValidation)
			assert.Contains(t, err.Error(), "lines[1].quantity")
		})
	}
}

func TestBuildRoundsInputsToStoredScale(t *testing.T) {
	calc := totals.NewCalculator()
	built, err := Build(calc, []LineInput{
		{ProductID: 1, Quantity: 3, UnitPrice: 10.555, GSTRate: 18},
		{ProductID: 2, Quantity: 1.23456, UnitPrice: 99.999, DiscountPercent: 12.345, GSTRate: 5},
	}, ChargesInput{
		Freight:           totals.Fixed(10.005),
		PackingForwarding: totals.Percent(2.555),
		RoundOff:          0.123,
	}, false)
	require.NoError(t, err)

	l := built.Lines[0]
	assert.Equal(t, 10.56, l.UnitPrice)
	assert.Equal(t, 31.68, l.TaxableAmount)
	assert.Equal(t, 1.235, built.Lines[1].Quantity)
	assert.Equal(t, 100.0, built.Lines[1].UnitPrice)
	assert.Equal(t, 12.35, built.Lines[1].DiscountPercent)
	assert.Equal(t, 10.01, built.Summary.FreightValue)
	assert.Equal(t, 2.56, built.Summary.PackingValue)
	assert.Equal(t, 0.12, built.Summary.RoundOff)

	// Stored columns hold these values, so a reload recomputes identically.
	again, err := Recompute(calc, built.Lines, built.Summary)
	require.NoError(t, err)
	assert.Equal(t, built.Summary.Subtotal, again.Subtotal)
	assert.Equal(t, built.Summary.TotalTax, again.TotalTax)
	assert.Equal(t, built.Summary.PackingForwarding, again.PackingForwarding)
	assert.Equal(t, built.Summary.GrandTotal, again.GrandTotal)
	for i, line := range again.Lines {
		assert.Equal(t, built.Lines[i].LineTotals, line, "line %d", i)
	}
}

func TestRecomputeMatchesBuild(t *testing.T) {
	calc := totals.NewCalculator()
	built, err := Build(calc, []LineInput{
		{ProductID: 1, Quantity: 7, UnitPrice: 19.99, DiscountPercent: 5, GSTRate: 28},
	}, ChargesInput{
		Freight:           totals.Fixed(12.5),
		PackingForwarding: totals.Percent(2),
		Discount:          totals.Fixed(3),
		RoundOff:          -0.25,
	}, true)
	require.NoError(t, err)

	again, err := Recompute(calc, built.Lines, built.Summary)
	require.NoError(t, err)
	assert.Equal(t, built.Summary.GrandTotal, again.GrandTotal)
	assert.Equal(t, built.Summary.TotalIGST, again.TotalIGST)
}

func TestGSTINAndStateValidation(t *testing.T) {
	assert.NoError(t, ValidateGSTIN(""))
	assert.NoError(t, ValidateGSTIN("29ABCDE1234F1Z5"))
	assert.ErrorIs(t, ValidateGSTIN("29ABCDE1234F1X5"), ErrInvalidGSTIN)
	assert.ErrorIs(t, ValidateGSTIN("99ABCDE1234F1Z5"), ErrInvalidGSTIN)
	assert.Equal(t, "27", StateFromGSTIN("27FGHIJ5678K1Z2"))
	assert.Empty(t, StateFromGSTIN("bogus"))

	assert.NoError(t, ValidateStateCode("07"))
	assert.NoError(t, ValidateStateCode("97"))
	assert.ErrorIs(t, ValidateStateCode("7"), ErrInvalidStateCode)

	assert.True(t, IsInterState("29", "27"))
	assert.False(t, IsInterState("29", "29"))
	assert.False(t, IsInterState("", "27"))
}

func TestValidateHSN(t *testing.T) {
	for _, ok := range []string{"", "8471", "847130", "84713010"} {
		assert.NoError(t, ValidateHSN(ok), ok)
	}
	for _, bad := range []string{"84", "84713", "8471301", "84A1", "847130100"} {
		assert.ErrorIs(t, ValidateHSN(bad), ErrInvalidHSN, bad)
	}
}

type memorySequences struct {
	mu   sync.Mutex
	next map[string]int64
}

func (m *memorySequences) NextSequence(_ context.Context, companyID int64, series string, year int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.next == nil {
		m.next = map[string]int64{}
	}
	key := fmt.Sprintf("%d/%s/%d", companyID, series, year)
	m.next[key]++
	return m.next[key], nil
}

func TestNumbererAllocatesPerSeriesAndYear(t *testing.T) {
	n := NewNumberer(&memorySequences{}, cache.NewLocalLocker())
	ctx := context.Background()
	d2024 := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	d2025 := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

	first, err := n.Next(ctx, 1, SeriesChallan, d2024)
	require.NoError(t, err)
	second, err := n.Next(ctx, 1, SeriesChallan, d2024)
	require.NoError(t, err)
	other, err := n.Next(ctx, 1, SeriesPurchaseOrder, d2024)
	require.NoError(t, err)
	nextYear, err := n.Next(ctx, 1, SeriesChallan, d2025)
	require.NoError(t, err)

	assert.Equal(t, "DC/2024/0001", first)
	assert.Equal(t, "DC/2024/0002", second)
	assert.Equal(t, "PO/2024/0001", other)
	assert.Equal(t, "DC/2025/0001", nextYear)
	assert.Equal(t, "SJ/2024/12345", FormatNumber(SeriesStockJournal, 2024, 12345))
}

func TestSummaryColumnHelpersAgree(t *testing.T) {
	var s Summary
	assert.Len(t, SummaryArgs(s), SummaryColumnCount)
	assert.Len(t, SummaryDest(&s), SummaryColumnCount)
	assert.Equal(t, SummaryColumnCount, strings.Count(SummaryColumns, ",")+1)
	assert.Equal(t, "$3, $4, $5", Placeholders(3, 3))
	assert.True(t, strings.HasPrefix(SummaryAssignments(10), "subtotal = $10, total_tax = $11"))
	assert.True(t, strings.HasSuffix(SummaryAssignments(10), "inter_state = $27"))
}

func TestCleanReason(t *testing.T) {
	_, err := CleanReason("   short   ")
	assert.ErrorIs(t, err, ErrReasonLength)

	got, err := CleanReason("  duplicate entry raised  ")
	require.NoError(t, err)
	assert.Equal(t, "duplicate entry raised", got)

	_, err = CleanReason(strings.Repeat("é", 501))
	assert.ErrorIs(t, err, ErrReasonLength)
	_, err = CleanReason(strings.Repeat("é", 500))
	assert.NoError(t, err)
}
