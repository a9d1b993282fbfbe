package cart

import (
	"github.com/flashmarket/storefront/internal/flashsale"
	"github.com/flashmarket/storefront/internal/pricing"
	"github.com/flashmarket/storefront/pkg/types"
)

// LineView is a priced cart line.
type LineView struct {
	ProductID types.ID `json:"productId"`
	Name      string   `json:"name"`
	Image     string   `json:"image"`
	Price     int64    `json:"price"`
	Discount  int      `json:"discount"`
	UnitPrice int64    `json:"unitPrice"`
	Quantity  int      `json:"quantity"`
	LineTotal int64    `json:"lineTotal"`
	Remaining int      `json:"remaining"`
	FlashSale bool     `json:"flashSale"`
}

// View is the priced cart shown on the cart and checkout pages.
type View struct {
	Lines             []LineView      `json:"lines"`
	ItemCount         int             `json:"itemCount"`
	Summary           pricing.Summary `json:"summary"`
	HasFlashSaleItems bool            `json:"hasFlashSaleItems"`
}

// BuildView prices c without modifying it.
func BuildView(c Cart, policy pricing.Policy, rules flashsale.Rules) View {
	view := View{Lines: make([]LineView, 0, len(c.Lines))}
	priced := make([]pricing.Line, 0, len(c.Lines))
	for _, l := range c.Lines {
		p := l.Product
		flash := rules.OnSale(p)
		view.Lines = append(view.Lines, LineView{
			ProductID: p.ID,
			Name:      p.Name,
			Image:     p.Image,
			Price:     p.Price,
			Discount:  p.Discount,
			UnitPrice: pricing.DiscountedPrice(p.Price, p.Discount),
			Quantity:  l.Quantity,
			LineTotal: pricing.LineTotal(p.Price, p.Discount, l.Quantity),
			Remaining: p.Remaining,
			FlashSale: flash,
		})
		priced = append(priced, pricing.Line{Price: p.Price, Discount: p.Discount, Quantity: l.Quantity})
		view.ItemCount += l.Quantity
		view.HasFlashSaleItems = view.HasFlashSaleItems || flash
	}
	view.Summary = policy.Quote(priced)
	return view
}
