package domain

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"
)

// priceRe matches up to ten integer digits optionally followed by a decimal
// point and up to five fractional digits. Anything else is rejected at the
// input boundary.
var priceRe = regexp.MustCompile(`^\d{0,10}(\.\d{0,5})?$`)

// DurationHours maps the fixed set of listing duration labels to hours.
var DurationHours = map[string]int{
	"1 hour":   1,
	"6 hours":  6,
	"1 day":    24,
	"3 days":   72,
	"7 days":   168,
	"1 month":  720,
	"3 months": 2160,
	"6 months": 4320,
}

// drinkDecimals is the fixed-point precision of listing prices and the
// Drink token balance.
const drinkDecimals = 18

// SaleTerms accumulates the validated price and duration inputs for a
// listing. Invalid price input is dropped and the prior value retained;
// an unknown duration label is reported as an error.
type SaleTerms struct {
	price       string
	duration    string
	durationSec int64
	endTime     time.Time
}

// SetPrice validates the raw price input. It reports whether the input was
// accepted; on rejection the previously stored value is unchanged.
func (t *SaleTerms) SetPrice(input string) bool {
	if !priceRe.MatchString(input) {
		return false
	}
	t.price = input
	return true
}

// Price returns the last accepted price input.
func (t *SaleTerms) Price() string { return t.price }

// SetDuration resolves a duration label against DurationHours, recording
// both the relative duration in seconds (for the contract call) and the
// absolute end time (for display).
func (t *SaleTerms) SetDuration(label string, now time.Time) error {
	hours, ok := DurationHours[label]
	if !ok {
		return fmt.Errorf("terms: %q: %w", label, ErrInvalidDuration)
	}
	t.duration = label
	t.durationSec = int64(hours) * 3600
	t.endTime = now.Add(time.Duration(hours) * time.Hour)
	return nil
}

// Duration returns the selected duration label.
func (t *SaleTerms) Duration() string { return t.duration }

// DurationSeconds returns the relative listing duration in seconds.
func (t *SaleTerms) DurationSeconds() int64 { return t.durationSec }

// EndTime returns the absolute time at which the listing expires.
func (t *SaleTerms) EndTime() time.Time { return t.endTime }

// PriceWei converts the stored price to an 18-decimal fixed-point integer.
func (t *SaleTerms) PriceWei() (*big.Int, error) {
	return ParsePrice(t.price)
}

// ParsePrice converts a validated decimal price string into an 18-decimal
// fixed-point integer (the smallest Drink unit).
func ParsePrice(price string) (*big.Int, error) {
	if price == "" || price == "." || !priceRe.MatchString(price) {
		return nil, fmt.Errorf("terms: %q: %w", price, ErrInvalidPrice)
	}

	whole, frac, _ := strings.Cut(price, ".")
	if whole == "" {
		whole = "0"
	}
	// Right-pad the fractional digits to the full precision.
	frac += strings.Repeat("0", drinkDecimals-len(frac))

	wei, ok := new(big.Int).SetString(whole+frac, 10)
	if !ok {
		return nil, fmt.Errorf("terms: %q: %w", price, ErrInvalidPrice)
	}
	return wei, nil
}

// FormatWholeUnits reduces an 18-decimal fixed-point balance to its whole
// units, truncating (not rounding) the fractional remainder.
func FormatWholeUnits(v *big.Int) string {
	if v == nil {
		return "0"
	}
	div := new(big.Int).Exp(big.NewInt(10), big.NewInt(drinkDecimals), nil)
	return new(big.Int).Quo(v, div).String()
}

// TruncateAddress shortens a hex address for display: 0x1234...abcd.
func TruncateAddress(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}
