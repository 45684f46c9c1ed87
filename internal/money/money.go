// Package money holds the storefront's price arithmetic. Amounts are whole
// currency units.
package money

import (
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"github.com/fjod/plantshop/internal/cart"
)

// Shipping is free on every order.
const Shipping int64 = 0

// DefaultTaxRate is applied when the configuration does not set one.
var DefaultTaxRate = decimal.RequireFromString("0.13")

// Subtotal sums unit price times quantity over lines.
func Subtotal(lines []cart.LineItem) int64 {
	var total int64
	for _, l := range lines {
		total += l.Subtotal()
	}
	return total
}

// Tax is subtotal times rate, rounded half up to a whole unit.
func Tax(subtotal int64, rate decimal.Decimal) int64 {
	return decimal.NewFromInt(subtotal).Mul(rate).Round(0).IntPart()
}

// Format renders an amount like "NRS 1,234".
func Format(amount int64, currency string) string {
	return currency + " " + humanize.Comma(amount)
}
