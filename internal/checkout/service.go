package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/flashmarket/storefront/internal/cart"
	"github.com/flashmarket/storefront/internal/catalog"
	"github.com/flashmarket/storefront/internal/pricing"
	pkgerrors "github.com/flashmarket/storefront/pkg/errors"
	"github.com/flashmarket/storefront/pkg/logger"
	"github.com/flashmarket/storefront/pkg/metrics"
	"github.com/flashmarket/storefront/pkg/redis"
	"github.com/google/uuid"
)

// holdKey is the session value holding the flash-sale checkout deadline.
const holdKey = "checkoutHold"

// Draft is the checkout page model built from the current cart.
type Draft struct {
	Lines             []cart.LineView `json:"lines"`
	ItemCount         int             `json:"itemCount"`
	Summary           pricing.Summary `json:"summary"`
	HasFlashSaleItems bool            `json:"hasFlashSaleItems"`
	HoldUntil         *time.Time      `json:"holdUntil,omitempty"`
	PaymentMethods    []string        `json:"paymentMethods"`
}

// PaymentResult carries the payment service acknowledgements.
type PaymentResult struct {
	OrderID   string `json:"orderId"`
	Entered   string `json:"entered"`
	Processed string `json:"processed"`
}

// Service drives the checkout page: drafting, submitting and paying.
type Service interface {
	Draft(ctx context.Context, sessionID string) (Draft, error)
	Submit(ctx context.Context, sessionID string, caller catalog.Caller, input SubmitInput) (*Receipt, error)
	Pay(ctx context.Context, caller catalog.Caller, input PayInput) (PaymentResult, error)
}

// ServiceParams groups dependencies for the checkout service. Inventory is
// optional; without it stock is checked against the cart's product snapshots.
type ServiceParams struct {
	Carts      cart.Service
	Inventory  catalog.InventoryGateway
	Orders     catalog.OrderGateway
	Payments   catalog.PaymentGateway
	Receipts   Repository
	Holds      redis.KV
	Pricing    pricing.Policy
	HoldWindow time.Duration
	Metrics    *metrics.Storefront
	Logger     *logger.Logger
	Now        func() time.Time
}

type service struct {
	carts      cart.Service
	inventory  catalog.InventoryGateway
	orders     catalog.OrderGateway
	payments   catalog.PaymentGateway
	receipts   Repository
	holds      redis.KV
	pricing    pricing.Policy
	holdWindow time.Duration
	metrics    *metrics.Storefront
	logg       *logger.Logger
	now        func() time.Time
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.Carts == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order gateway required")
	}
	if params.Payments == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if params.Receipts == nil {
		return nil, fmt.Errorf("receipt repository required")
	}
	if params.Holds == nil {
		return nil, fmt.Errorf("hold store required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		carts:      params.Carts,
		inventory:  params.Inventory,
		orders:     params.Orders,
		payments:   params.Payments,
		receipts:   params.Receipts,
		holds:      params.Holds,
		pricing:    params.Pricing,
		holdWindow: params.HoldWindow,
		metrics:    params.Metrics,
		logg:       params.Logger,
		now:        now,
	}, nil
}

// Draft prices the cart for the checkout page. Carts holding flash-sale items
// get a hold deadline that starts on the first draft and survives reloads.
func (s *service) Draft(ctx context.Context, sessionID string) (Draft, error) {
	view, err := s.carts.View(ctx, sessionID)
	if err != nil {
		return Draft{}, err
	}
	if len(view.Lines) == 0 {
		return Draft{}, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	draft := Draft{
		Lines:             view.Lines,
		ItemCount:         view.ItemCount,
		Summary:           view.Summary,
		HasFlashSaleItems: view.HasFlashSaleItems,
		PaymentMethods:    PaymentMethods(),
	}
	if view.HasFlashSaleItems && s.holdWindow > 0 {
		deadline, err := s.holdDeadline(ctx, sessionID)
		if err != nil {
			return Draft{}, err
		}
		draft.HoldUntil = &deadline
	}
	return draft, nil
}

func (s *service) holdDeadline(ctx context.Context, sessionID string) (time.Time, error) {
	key := s.holds.SessionKey(sessionID, holdKey)
	raw, err := s.holds.Get(ctx, key)
	switch {
	case err == nil:
		if deadline, parseErr := time.Parse(time.RFC3339Nano, raw); parseErr == nil {
			return deadline, nil
		}
	case !errors.Is(err, redis.Nil):
		return time.Time{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checkout hold unavailable")
	}
	deadline := s.now().Add(s.holdWindow).UTC()
	if err := s.holds.Set(ctx, key, deadline.Format(time.RFC3339Nano), s.holdWindow); err != nil {
		return time.Time{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checkout hold unavailable")
	}
	return deadline, nil
}

// Submit sends exactly one order request for the session's cart. On success
// the ordered lines leave the cart and a receipt is recorded; on failure the
// cart is left untouched.
func (s *service) Submit(ctx context.Context, sessionID string, caller catalog.Caller, input SubmitInput) (*Receipt, error) {
	if caller.UserID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to place an order")
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	c, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	ctx = s.logg.WithFields(ctx, map[string]any{"session_id": sessionID, "user_id": caller.UserID.String()})

	checks, err := s.stockChecks(ctx, c)
	if err != nil {
		return nil, err
	}
	if err := ValidateStock(checks); err != nil {
		s.metrics.IncCheckout("rejected")
		return nil, err
	}

	receipt := s.buildReceipt(sessionID, caller, c, input)
	req := catalog.OrderRequest{
		Items:         make([]catalog.OrderLine, 0, len(c.Lines)),
		ShippingInfo:  input.Shipping,
		TotalAmount:   receipt.Total,
		PaymentMethod: input.PaymentMethod.String(),
	}
	for _, line := range c.Lines {
		req.Items = append(req.Items, catalog.OrderLine{ProductID: line.ProductID(), Quantity: line.Quantity})
	}

	ack, err := s.orders.CreateOrder(ctx, caller, req)
	if err != nil {
		s.metrics.IncCheckout("failed")
		return nil, err
	}
	receipt.OrderID = strings.TrimSpace(ack)
	if receipt.OrderID == "" {
		receipt.OrderID = receipt.ID
	}

	// The order exists upstream from here on; the cleanup must not be
	// abandoned with the request.
	ctx = context.WithoutCancel(ctx)
	ctx = s.logg.WithField(ctx, "order_id", receipt.OrderID)
	if err := s.receipts.Create(ctx, receipt); err != nil {
		s.logg.Error(ctx, "checkout.receipt_failed", err)
	}
	if err := s.carts.RemoveOrdered(ctx, sessionID, c.Lines); err != nil {
		s.logg.Error(ctx, "checkout.cart_clear_failed", err)
	}
	if err := s.holds.Del(ctx, s.holds.SessionKey(sessionID, holdKey)); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "checkout.hold_clear_failed")
	}
	s.metrics.IncCheckout("placed")
	s.logg.Info(ctx, "checkout.order_placed")
	return receipt, nil
}

// stockChecks pairs each line with the inventory service's current count,
// falling back to the line's snapshot when the lookup fails.
func (s *service) stockChecks(ctx context.Context, c cart.Cart) ([]StockValidationInput, error) {
	checks := make([]StockValidationInput, 0, len(c.Lines))
	for _, line := range c.Lines {
		remaining := line.Product.Remaining
		if s.inventory != nil {
			current, err := s.inventory.RemainingStock(ctx, line.ProductID())
			switch {
			case err == nil:
				remaining = current
			case ctx.Err() != nil:
				return nil, ctx.Err()
			default:
				s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
					"product_id": line.ProductID().String(),
					"error":      err.Error(),
				}), "checkout.remaining_stock_failed")
			}
		}
		checks = append(checks, StockValidationInput{
			ProductID:   line.ProductID(),
			ProductName: line.Product.Name,
			Remaining:   remaining,
			Quantity:    line.Quantity,
		})
	}
	return checks, nil
}

func (s *service) buildReceipt(sessionID string, caller catalog.Caller, c cart.Cart, input SubmitInput) *Receipt {
	items := make([]ReceiptItem, 0, len(c.Lines))
	lines := make([]pricing.Line, 0, len(c.Lines))
	count := 0
	for _, line := range c.Lines {
		p := line.Product
		items = append(items, ReceiptItem{
			ProductID: p.ID,
			Name:      p.Name,
			Image:     p.Image,
			Price:     p.Price,
			Discount:  p.Discount,
			UnitPrice: pricing.DiscountedPrice(p.Price, p.Discount),
			Quantity:  line.Quantity,
			LineTotal: pricing.LineTotal(p.Price, p.Discount, line.Quantity),
		})
		lines = append(lines, pricing.Line{Price: p.Price, Discount: p.Discount, Quantity: line.Quantity})
		count += line.Quantity
	}
	summary := s.pricing.Quote(lines)
	shipping := input.Shipping
	return &Receipt{
		ID:            uuid.NewString(),
		UserID:        caller.UserID.String(),
		SessionID:     sessionID,
		Status:        string(catalog.OrderStatusPending),
		PaymentMethod: input.PaymentMethod.String(),
		RecipientName: shipping.Name,
		Phone:         shipping.Phone,
		Address:       shipping.Address,
		AddressDetail: shipping.DetailAddress,
		PostalCode:    shipping.PostalCode,
		Memo:          shipping.Memo,
		Items:         items,
		ItemCount:     count,
		ListTotal:     summary.ListTotal,
		Subtotal:      summary.Subtotal,
		Discount:      summary.Discount,
		ShippingFee:   summary.ShippingFee,
		Total:         summary.Total,
		CreatedAt:     s.now().UTC(),
	}
}

// Pay registers and then processes the payment for a placed order.
func (s *service) Pay(ctx context.Context, caller catalog.Caller, input PayInput) (PaymentResult, error) {
	if caller.UserID == "" {
		return PaymentResult{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to pay")
	}
	if err := input.Validate(); err != nil {
		return PaymentResult{}, err
	}
	req := catalog.PaymentRequest{
		OrderID:       input.OrderID,
		Amount:        input.Amount,
		PaymentMethod: input.PaymentMethod.String(),
		UserID:        caller.UserID,
	}
	entered, err := s.payments.EnterPayment(ctx, caller, req)
	if err != nil {
		return PaymentResult{}, err
	}
	processed, err := s.payments.ProcessPayment(ctx, caller, req)
	if err != nil {
		return PaymentResult{}, err
	}
	return PaymentResult{OrderID: input.OrderID.String(), Entered: entered, Processed: processed}, nil
}
