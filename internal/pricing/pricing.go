// Package pricing computes discounted prices, cart totals and shipping fees
// in integer currency units.
package pricing

import (
	"github.com/shopspring/decimal"
)

const (
	DefaultFreeShippingThreshold int64 = 30000
	DefaultFlatShippingFee       int64 = 3000
)

var hundred = decimal.NewFromInt(100)

// Policy holds the shipping rule.
type Policy struct {
	FreeShippingThreshold int64
	FlatShippingFee       int64
}

// DefaultPolicy returns the standard shipping rule.
func DefaultPolicy() Policy {
	return Policy{
		FreeShippingThreshold: DefaultFreeShippingThreshold,
		FlatShippingFee:       DefaultFlatShippingFee,
	}
}

// Line is one priced cart line.
type Line struct {
	Price    int64
	Discount int
	Quantity int
}

// Summary is the priced breakdown of a set of lines. Subtotal is at
// discounted prices; Discount is ListTotal minus Subtotal.
type Summary struct {
	ListTotal   int64 `json:"listTotal"`
	Discount    int64 `json:"discount"`
	Subtotal    int64 `json:"subtotal"`
	ShippingFee int64 `json:"shippingFee"`
	Total       int64 `json:"total"`
}

func clampDiscount(discount int) int {
	switch {
	case discount < 0:
		return 0
	case discount > 100:
		return 100
	default:
		return discount
	}
}

// DiscountedPrice returns price × (100 − discount)/100 truncated to the
// integer currency unit.
func DiscountedPrice(price int64, discount int) int64 {
	if price <= 0 {
		return 0
	}
	keep := decimal.NewFromInt(int64(100 - clampDiscount(discount)))
	return decimal.NewFromInt(price).Mul(keep).Div(hundred).Truncate(0).IntPart()
}

// LineTotal is the discounted unit price times quantity.
func LineTotal(price int64, discount, quantity int) int64 {
	if quantity <= 0 {
		return 0
	}
	return DiscountedPrice(price, discount) * int64(quantity)
}

// Subtotal sums the discounted line totals.
func Subtotal(lines []Line) int64 {
	var sum int64
	for _, l := range lines {
		sum += LineTotal(l.Price, l.Discount, l.Quantity)
	}
	return sum
}

// ShippingFee is zero at or above the free-shipping threshold.
func (p Policy) ShippingFee(subtotal int64) int64 {
	if subtotal >= p.FreeShippingThreshold {
		return 0
	}
	return p.FlatShippingFee
}

// Total is subtotal plus the shipping fee.
func (p Policy) Total(subtotal int64) int64 {
	return subtotal + p.ShippingFee(subtotal)
}

// Quote prices a set of lines.
func (p Policy) Quote(lines []Line) Summary {
	var list int64
	for _, l := range lines {
		if l.Quantity > 0 && l.Price > 0 {
			list += l.Price * int64(l.Quantity)
		}
	}
	subtotal := Subtotal(lines)
	fee := p.ShippingFee(subtotal)
	return Summary{
		ListTotal:   list,
		Discount:    list - subtotal,
		Subtotal:    subtotal,
		ShippingFee: fee,
		Total:       subtotal + fee,
	}
}
