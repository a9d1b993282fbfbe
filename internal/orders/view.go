package orders

import (
	"time"

	"github.com/flashmarket/storefront/internal/catalog"
	"github.com/flashmarket/storefront/pkg/types"
)

// OrderView is an order as shown on the order history page.
type OrderView struct {
	ID           types.ID             `json:"id"`
	Status       catalog.OrderStatus  `json:"status"`
	StatusLabel  string               `json:"statusLabel"`
	CanCancel    bool                 `json:"canCancel"`
	CanReturn    bool                 `json:"canReturn"`
	Items        []catalog.OrderItem  `json:"items"`
	ItemCount    int                  `json:"itemCount"`
	TotalAmount  int64                `json:"totalAmount"`
	ShippingInfo catalog.ShippingInfo `json:"shippingInfo"`
	CreatedAt    time.Time            `json:"createdAt"`
	UpdatedAt    time.Time            `json:"updatedAt"`
}

func NewOrderView(o catalog.Order) OrderView {
	items := o.Items
	if items == nil {
		items = []catalog.OrderItem{}
	}
	count := 0
	for _, item := range items {
		count += item.Quantity
	}
	return OrderView{
		ID:           o.ID,
		Status:       o.Status,
		StatusLabel:  o.Status.Label(),
		CanCancel:    o.Status.Cancellable(),
		CanReturn:    o.Status.Returnable(),
		Items:        items,
		ItemCount:    count,
		TotalAmount:  o.TotalAmount,
		ShippingInfo: o.ShippingInfo,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
	}
}
