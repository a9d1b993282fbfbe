package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/flashmarket/storefront/internal/catalog"
	"github.com/flashmarket/storefront/pkg/types"
)

type orderLineWire struct {
	ProductID any `json:"productId"`
	Quantity  int `json:"quantity"`
}

type orderRequestWire struct {
	Items         []orderLineWire      `json:"items"`
	ShippingInfo  catalog.ShippingInfo `json:"shippingInfo"`
	TotalAmount   int64                `json:"totalAmount"`
	PaymentMethod string               `json:"paymentMethod"`
}

func toOrderWire(req catalog.OrderRequest) orderRequestWire {
	lines := make([]orderLineWire, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, orderLineWire{ProductID: wireID(item.ProductID), Quantity: item.Quantity})
	}
	return orderRequestWire{
		Items:         lines,
		ShippingInfo:  req.ShippingInfo,
		TotalAmount:   req.TotalAmount,
		PaymentMethod: req.PaymentMethod,
	}
}

// CreateOrder places an order and returns the order service acknowledgement,
// usually the new order id.
func (c *Client) CreateOrder(ctx context.Context, caller catalog.Caller, req catalog.OrderRequest) (string, error) {
	var ack string
	err := c.do(ctx, call{
		service: serviceOrder,
		method:  http.MethodPost,
		path:    "/api/orders",
		caller:  &caller,
		body:    toOrderWire(req),
		text:    &ack,
	})
	return ack, err
}

func (c *Client) ListOrders(ctx context.Context, userID types.ID) ([]catalog.Order, error) {
	var orders []catalog.Order
	if err := c.do(ctx, call{
		service: serviceOrder,
		method:  http.MethodGet,
		path:    "/api/orders",
		caller:  &catalog.Caller{UserID: userID},
		out:     &orders,
	}); err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []catalog.Order{}
	}
	return orders, nil
}

func (c *Client) CancelOrder(ctx context.Context, caller catalog.Caller, orderID types.ID) (catalog.Order, error) {
	return c.transition(ctx, caller, orderID, "cancel")
}

func (c *Client) ReturnOrder(ctx context.Context, caller catalog.Caller, orderID types.ID) (catalog.Order, error) {
	return c.transition(ctx, caller, orderID, "return")
}

func (c *Client) transition(ctx context.Context, caller catalog.Caller, orderID types.ID, action string) (catalog.Order, error) {
	var order catalog.Order
	err := c.do(ctx, call{
		service: serviceOrder,
		method:  http.MethodPut,
		path:    "/api/orders/" + url.PathEscape(orderID.String()) + "/" + action,
		caller:  &caller,
		out:     &order,
	})
	return order, err
}

// UpdateOrderStatuses asks the order service to advance every order whose
// status is due to change.
func (c *Client) UpdateOrderStatuses(ctx context.Context) error {
	return c.do(ctx, call{
		service: serviceOrder,
		method:  http.MethodPut,
		path:    "/api/orders/update-status",
	})
}
