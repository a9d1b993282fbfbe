package storefront

import (
	"time"

	"github.com/flashmarket/storefront/internal/catalog"
	"github.com/flashmarket/storefront/internal/flashsale"
	"github.com/flashmarket/storefront/internal/pricing"
	"github.com/flashmarket/storefront/pkg/types"
)

// Card is a product as rendered on listing pages.
type Card struct {
	ID               types.ID           `json:"id"`
	Name             string             `json:"name"`
	Image            string             `json:"image"`
	Category         string             `json:"category,omitempty"`
	Price            int64              `json:"price"`
	Discount         int                `json:"discount"`
	SalePrice        int64              `json:"salePrice"`
	Remaining        int                `json:"remaining"`
	FlashSale        bool               `json:"flashSale"`
	LowStock         bool               `json:"lowStock"`
	AlmostGone       bool               `json:"almostGone"`
	SoldOut          bool               `json:"soldOut"`
	Progress         flashsale.Progress `json:"progress"`
	FlashSaleEndTime *time.Time         `json:"flashSaleEndTime,omitempty"`
}

// NewCard decorates p with prices and stock flags. A product is a flash-sale
// card when the classifier flags it or the product service marked it as one.
func NewCard(p catalog.Product, rules flashsale.Rules) Card {
	return Card{
		ID:               p.ID,
		Name:             p.Name,
		Image:            p.Image,
		Category:         p.CategoryName(),
		Price:            p.Price,
		Discount:         p.Discount,
		SalePrice:        pricing.DiscountedPrice(p.Price, p.Discount),
		Remaining:        p.Remaining,
		FlashSale:        rules.OnSale(p),
		LowStock:         rules.IsLowStock(p),
		AlmostGone:       rules.IsAlmostGone(p),
		SoldOut:          rules.IsSoldOut(p),
		Progress:         rules.SoldPercent(p),
		FlashSaleEndTime: p.FlashSaleEndTime,
	}
}

func newCards(products []catalog.Product, rules flashsale.Rules) []Card {
	cards := make([]Card, 0, len(products))
	for _, p := range products {
		cards = append(cards, NewCard(p, rules))
	}
	return cards
}
