// Package flashsale decides which products are limited-time deals and how
// their stock progress is displayed.
package flashsale

import (
	"github.com/flashmarket/storefront/internal/catalog"
)

// Rules holds the classifier thresholds.
type Rules struct {
	MaxRemaining  int
	MinDiscount   int
	LowStockAt    int
	AlmostGoneAt  int
	BaselineStock int
}

// DefaultRules returns the standard thresholds.
func DefaultRules() Rules {
	return Rules{
		MaxRemaining:  10,
		MinDiscount:   30,
		LowStockAt:    5,
		AlmostGoneAt:  3,
		BaselineStock: 100,
	}
}

// IsFlashSale reports remaining ≤ MaxRemaining or discount ≥ MinDiscount.
func (r Rules) IsFlashSale(p catalog.Product) bool {
	return p.Remaining <= r.MaxRemaining || p.Discount >= r.MinDiscount
}

// OnSale is IsFlashSale widened by the product service's own flag. Badges,
// the flash-sale section and checkout holds all use it.
func (r Rules) OnSale(p catalog.Product) bool {
	return p.FlashSale || r.IsFlashSale(p)
}

func (r Rules) IsLowStock(p catalog.Product) bool {
	return p.Remaining <= r.LowStockAt
}

func (r Rules) IsAlmostGone(p catalog.Product) bool {
	return p.Remaining <= r.AlmostGoneAt
}

func (r Rules) IsSoldOut(p catalog.Product) bool {
	return p.Remaining <= 0
}

// Progress is the sold-percentage shown on the stock bar. Approximate is set
// when the product does not carry its original stock and BaselineStock was
// assumed instead.
type Progress struct {
	SoldPercent int  `json:"soldPercent"`
	Approximate bool `json:"approximate"`
}

// SoldPercent returns clamp(0,100,(total − remaining)/total × 100) where total
// is the product's TotalCount when known, otherwise BaselineStock.
func (r Rules) SoldPercent(p catalog.Product) Progress {
	total, approximate := p.TotalCount, false
	if total <= 0 {
		total, approximate = r.BaselineStock, true
	}
	if total <= 0 {
		return Progress{Approximate: true}
	}
	pct := (total - p.Remaining) * 100 / total
	return Progress{SoldPercent: clamp(pct, 0, 100), Approximate: approximate}
}

// Select returns the first limit flagged products in listing order.
func (r Rules) Select(products []catalog.Product, limit int) []catalog.Product {
	out := make([]catalog.Product, 0, limit)
	for _, p := range products {
		if limit > 0 && len(out) == limit {
			break
		}
		if r.OnSale(p) {
			out = append(out, p)
		}
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
