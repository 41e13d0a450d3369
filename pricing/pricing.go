// Package pricing derives checkout totals from cart lines.
//
// All arithmetic is exact decimal arithmetic. Nothing here rounds; rounding to
// currency precision happens only where amounts are displayed.
package pricing

import (
	"minimarket/domain"

	"github.com/shopspring/decimal"
)

var (
	TaxRate           = decimal.RequireFromString("0.08")
	DiscountRate      = decimal.RequireFromString("0.10")
	DiscountThreshold = decimal.RequireFromString("50.00")
)

// Line is the part of a cart line the engine prices
type Line struct {
	Price    decimal.Decimal
	Quantity int
}

// LinesFromCart extracts priced lines from cart lines, keeping order.
func LinesFromCart(lines []domain.CartLine) []Line {
	out := make([]Line, 0, len(lines))
	for _, l := range lines {
		out = append(out, Line{Price: l.Product.Price, Quantity: l.Quantity})
	}
	return out
}

// Subtotal sums price×quantity over lines. An empty slice yields zero.
func Subtotal(lines []Line) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, l := range lines {
		if l.Price.IsNegative() {
			return decimal.Zero, domain.NewInvalidAmountError("price", l.Price.String())
		}
		if l.Quantity < 0 {
			return decimal.Zero, domain.NewInvalidAmountError("quantity", decimal.NewFromInt(int64(l.Quantity)).String())
		}
		sum = sum.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return sum, nil
}

// Tax is subtotal × TaxRate.
func Tax(subtotal decimal.Decimal) (decimal.Decimal, error) {
	if subtotal.IsNegative() {
		return decimal.Zero, domain.NewInvalidAmountError("subtotal", subtotal.String())
	}
	return subtotal.Mul(TaxRate), nil
}

// Discount is subtotal × DiscountRate when subtotal is strictly above the
// threshold, zero otherwise.
func Discount(subtotal decimal.Decimal) (decimal.Decimal, error) {
	if subtotal.IsNegative() {
		return decimal.Zero, domain.NewInvalidAmountError("subtotal", subtotal.String())
	}
	if subtotal.GreaterThan(DiscountThreshold) {
		return subtotal.Mul(DiscountRate), nil
	}
	return decimal.Zero, nil
}

// Total is subtotal + tax − discount.
func Total(subtotal, tax, discount decimal.Decimal) decimal.Decimal {
	return subtotal.Add(tax).Sub(discount)
}

// Compute derives every total for lines in one pass.
func Compute(lines []Line) (domain.Totals, error) {
	subtotal, err := Subtotal(lines)
	if err != nil {
		return domain.Totals{}, err
	}
	tax, err := Tax(subtotal)
	if err != nil {
		return domain.Totals{}, err
	}
	discount, err := Discount(subtotal)
	if err != nil {
		return domain.Totals{}, err
	}
	return domain.Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Discount: discount,
		Total:    Total(subtotal, tax, discount),
	}, nil
}
