// Package units converts between raw token integers and human decimal strings.
package units

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// DisplayDecimals is the default number of fraction digits shown for amounts.
const DisplayDecimals = 6

var dustThreshold = decimal.New(1, -DisplayDecimals)

// Parse converts a human amount into raw units. Fraction digits beyond decimals are truncated
// and blank input parses as zero.
func Parse(amount string, decimals uint8) (*big.Int, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" || amount == "." {
		return new(big.Int), nil
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("amount %q is negative", amount)
	}
	return d.Shift(int32(decimals)).Truncate(0).BigInt(), nil
}

// ToDecimal returns raw as a decimal in token units.
func ToDecimal(raw *big.Int, decimals uint8) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -int32(decimals))
}

// FormatExact renders raw with every significant fraction digit.
func FormatExact(raw *big.Int, decimals uint8) string {
	return ToDecimal(raw, decimals).String()
}

// Format renders raw for display with at most display fraction digits.
// Non-zero amounts below 10^-6 render as "<0.000001".
func Format(raw *big.Int, decimals uint8, display int32) string {
	d := ToDecimal(raw, decimals)
	if d.IsZero() {
		return "0"
	}
	if d.Abs().LessThan(dustThreshold) {
		return "<0.000001"
	}
	if display < 0 {
		display = DisplayDecimals
	}
	return d.Round(display).String()
}

// FormatPrice renders a price with precision fraction digits, switching to exponent
// notation above one million.
func FormatPrice(price float64, precision int) string {
	if price == 0 || math.IsNaN(price) {
		return "0"
	}
	if price > 1e6 {
		return strconv.FormatFloat(price, 'e', 2, 64)
	}
	return decimal.NewFromFloat(price).StringFixed(int32(precision))
}

// ShortenAddress keeps the first six and last four characters.
func ShortenAddress(address string) string {
	if len(address) <= 10 {
		return address
	}
	return address[:6] + "..." + address[len(address)-4:]
}
