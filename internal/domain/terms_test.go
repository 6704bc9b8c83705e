package domain

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetPriceAcceptsValidInput(t *testing.T) {
	valid := []string{"123.45", "0.00001", "1000000000", "0", "42", "9999999999.99999"}

	for _, input := range valid {
		var terms SaleTerms
		assert.True(t, terms.SetPrice(input), "input %q should be accepted", input)
		assert.Equal(t, input, terms.Price())
	}
}

func TestSetPriceRejectsAndKeepsPriorValue(t *testing.T) {
	var terms SaleTerms
	require.True(t, terms.SetPrice("123.45"))

	invalid := []string{
		"12345678901", // eleven integer digits
		"1.123456",    // six fractional digits
		"1,5",
		"abc",
		"-1",
		"1e18",
	}
	for _, input := range invalid {
		assert.False(t, terms.SetPrice(input), "input %q should be rejected", input)
		assert.Equal(t, "123.45", terms.Price(), "rejected input %q must not overwrite the stored price", input)
	}
}

func TestSetDurationResolvesLabel(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	var terms SaleTerms
	require.NoError(t, terms.SetDuration("1 day", now))

	assert.Equal(t, "1 day", terms.Duration())
	assert.Equal(t, int64(86400), terms.DurationSeconds())
	assert.Equal(t, now.Add(24*time.Hour), terms.EndTime())
}

func TestSetDurationUnknownLabel(t *testing.T) {
	var terms SaleTerms
	err := terms.SetDuration("2 weeks", time.Now())
	require.ErrorIs(t, err, ErrInvalidDuration)
	assert.Zero(t, terms.DurationSeconds())
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"2.5", "2500000000000000000"},
		{"1", "1000000000000000000"},
		{"0.00001", "10000000000000"},
		{"123.45", "123450000000000000000"},
		{".5", "500000000000000000"},
		{"1000000000", "1000000000000000000000000000"},
	}
	for _, tt := range tests {
		got, err := ParsePrice(tt.input)
		require.NoError(t, err, "input %q", tt.input)
		assert.Equal(t, tt.want, got.String(), "input %q", tt.input)
	}
}

func TestParsePriceRejectsInvalid(t *testing.T) {
	for _, input := range []string{"", ".", "1.123456", "12345678901", "x"} {
		_, err := ParsePrice(input)
		assert.ErrorIs(t, err, ErrInvalidPrice, "input %q", input)
	}
}

func TestFormatWholeUnitsTruncates(t *testing.T) {
	wei, ok := new(big.Int).SetString("2999999999999999999", 10) // 2.999... units
	require.True(t, ok)

	assert.Equal(t, "2", FormatWholeUnits(wei))
	assert.Equal(t, "0", FormatWholeUnits(big.NewInt(1)))
	assert.Equal(t, "0", FormatWholeUnits(nil))
}

func TestTruncateAddress(t *testing.T) {
	assert.Equal(t, "0x1234...cdef",
		TruncateAddress("0x1234567890abcdef1234567890abcdef1234cdef"))
	assert.Equal(t, "0x1234", TruncateAddress("0x1234"))
	assert.Equal(t, "", TruncateAddress(""))
}
