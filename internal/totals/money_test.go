package totals

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound2(t *testing.T) {
	assert.Equal(t, 1.01, Round2(1.005))
	assert.Equal(t, 2.68, Round2(2.675))
	assert.Equal(t, -1.01, Round2(-1.005))
	assert.Equal(t, 0.0, Round2(math.NaN()))
	assert.Equal(t, 0.0, Round2(math.Inf(-1)))
}

func TestSuggestRoundOff(t *testing.T) {
	assert.InDelta(t, 0.4, SuggestRoundOff(999.60), 1e-9)
	assert.InDelta(t, -0.4, SuggestRoundOff(1000.40), 1e-9)
	assert.Zero(t, SuggestRoundOff(1000))
	assert.Zero(t, SuggestRoundOff(math.NaN()))
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "12,345.60", FormatAmount(12345.6))
	assert.Equal(t, "0.00", FormatAmount(0))
	assert.Equal(t, "999.99", FormatAmount(999.985))
	assert.Equal(t, "1,23,456.78", FormatAmount(123456.78))
	assert.Equal(t, "12,34,56,789.00", FormatAmount(123456789))
}
