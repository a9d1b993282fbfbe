package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscountedPriceExamples(t *testing.T) {
	assert.Equal(t, int64(2331000), DiscountedPrice(2590000, 10))
	assert.Equal(t, int64(4662000), LineTotal(2590000, 10, 2))
	assert.Equal(t, int64(96850), DiscountedPrice(149000, 35))
	// 333 × 0.67 = 223.11 truncates to 223
	assert.Equal(t, int64(223), DiscountedPrice(333, 33))
	assert.Equal(t, int64(0), DiscountedPrice(-5, 10))
	assert.Equal(t, int64(0), DiscountedPrice(1000, 150))
	assert.Equal(t, int64(1000), DiscountedPrice(1000, -20))
}

func TestDiscountedPriceNeverExceedsPrice(t *testing.T) {
	prices := []int64{0, 1, 7, 99, 1000, 39000, 2590000, 123456789}
	for _, price := range prices {
		for d := 0; d <= 100; d++ {
			got := DiscountedPrice(price, d)
			require.LessOrEqual(t, got, price, "price=%d discount=%d", price, d)
			require.GreaterOrEqual(t, got, int64(0))
			if d == 0 {
				require.Equal(t, price, got)
			} else if price >= 100 {
				require.Less(t, got, price, "price=%d discount=%d", price, d)
			}
		}
	}
}

func TestShippingThreshold(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, int64(3000), p.ShippingFee(25000))
	assert.Equal(t, int64(28000), p.Total(25000))
	assert.Equal(t, int64(0), p.ShippingFee(30000))
	assert.Equal(t, int64(30000), p.Total(30000))
	assert.Equal(t, int64(3000), p.ShippingFee(29999))

	for _, subtotal := range []int64{0, 1, 15000, 29999, 30000, 30001, 5_000_000} {
		fee := p.ShippingFee(subtotal)
		assert.Equal(t, subtotal+fee, p.Total(subtotal))
		assert.Equal(t, fee == 0, subtotal >= 30000)
	}
}

func TestQuoteDoesNotMutateInputs(t *testing.T) {
	lines := []Line{
		{Price: 2590000, Discount: 10, Quantity: 1},
		{Price: 229000, Discount: 20, Quantity: 2},
		{Price: 39000, Discount: 0, Quantity: 0},
	}
	snapshot := append([]Line(nil), lines...)

	s := DefaultPolicy().Quote(lines)
	assert.Equal(t, snapshot, lines)
	assert.Equal(t, int64(2590000+2*229000), s.ListTotal)
	assert.Equal(t, int64(2331000+2*183200), s.Subtotal)
	assert.Equal(t, s.ListTotal-s.Subtotal, s.Discount)
	assert.Equal(t, int64(0), s.ShippingFee)
	assert.Equal(t, s.Subtotal+s.ShippingFee, s.Total)
	assert.Equal(t, s.ListTotal-s.Discount+s.ShippingFee, s.Total)
}

func TestQuoteEmptyCartChargesShipping(t *testing.T) {
	s := Policy{FreeShippingThreshold: 50000, FlatShippingFee: 2500}.Quote(nil)
	assert.Equal(t, Summary{ShippingFee: 2500, Total: 2500}, s)
}
