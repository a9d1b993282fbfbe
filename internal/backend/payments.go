package backend

import (
	"context"
	"net/http"

	"github.com/flashmarket/storefront/internal/catalog"
)

type paymentWire struct {
	OrderID       any    `json:"orderId"`
	Amount        int64  `json:"amount"`
	PaymentMethod string `json:"paymentMethod"`
	UserID        any    `json:"userId"`
}

func toPaymentWire(req catalog.PaymentRequest) paymentWire {
	return paymentWire{
		OrderID:       wireID(req.OrderID),
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		UserID:        wireID(req.UserID),
	}
}

func (c *Client) EnterPayment(ctx context.Context, caller catalog.Caller, req catalog.PaymentRequest) (string, error) {
	return c.payment(ctx, caller, "/api/payment/enter", req)
}

func (c *Client) ProcessPayment(ctx context.Context, caller catalog.Caller, req catalog.PaymentRequest) (string, error) {
	return c.payment(ctx, caller, "/api/payment/process", req)
}

func (c *Client) payment(ctx context.Context, caller catalog.Caller, path string, req catalog.PaymentRequest) (string, error) {
	var ack string
	err := c.do(ctx, call{
		service: servicePayment,
		method:  http.MethodPost,
		path:    path,
		caller:  &caller,
		body:    toPaymentWire(req),
		text:    &ack,
	})
	return ack, err
}
