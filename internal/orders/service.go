package orders

import (
	"context"
	"fmt"

	"github.com/flashmarket/storefront/internal/catalog"
	"github.com/flashmarket/storefront/internal/checkout"
	pkgerrors "github.com/flashmarket/storefront/pkg/errors"
	"github.com/flashmarket/storefront/pkg/logger"
	"github.com/flashmarket/storefront/pkg/types"
)

// Service backs the order history and order-success pages.
type Service interface {
	List(ctx context.Context, caller catalog.Caller) ([]OrderView, error)
	Cancel(ctx context.Context, caller catalog.Caller, orderID types.ID) (OrderView, error)
	Return(ctx context.Context, caller catalog.Caller, orderID types.ID) (OrderView, error)
	Receipt(ctx context.Context, caller catalog.Caller, receiptID string) (*checkout.Receipt, error)
	Receipts(ctx context.Context, caller catalog.Caller, limit int) ([]checkout.Receipt, error)
	SyncStatuses(ctx context.Context) error
}

// ServiceParams groups dependencies for the order service.
type ServiceParams struct {
	Source   catalog.Source
	Orders   catalog.OrderGateway
	Receipts checkout.Repository
	Logger   *logger.Logger
}

type service struct {
	source   catalog.Source
	orders   catalog.OrderGateway
	receipts checkout.Repository
	logg     *logger.Logger
}

// NewService builds an order service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Source == nil {
		return nil, fmt.Errorf("catalog source required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order gateway required")
	}
	if params.Receipts == nil {
		return nil, fmt.Errorf("receipt repository required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		source:   params.Source,
		orders:   params.Orders,
		receipts: params.Receipts,
		logg:     params.Logger,
	}, nil
}

// List returns the caller's orders, newest first as the order service sends them.
func (s *service) List(ctx context.Context, caller catalog.Caller) ([]OrderView, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	orders, err := s.source.ListOrders(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}
	views := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, NewOrderView(o))
	}
	return views, nil
}

func (s *service) Cancel(ctx context.Context, caller catalog.Caller, orderID types.ID) (OrderView, error) {
	return s.transition(ctx, caller, orderID, "cancel", s.orders.CancelOrder)
}

func (s *service) Return(ctx context.Context, caller catalog.Caller, orderID types.ID) (OrderView, error) {
	return s.transition(ctx, caller, orderID, "return", s.orders.ReturnOrder)
}

type transitionFunc func(ctx context.Context, caller catalog.Caller, orderID types.ID) (catalog.Order, error)

func (s *service) transition(ctx context.Context, caller catalog.Caller, orderID types.ID, action string, fn transitionFunc) (OrderView, error) {
	if err := requireCaller(caller); err != nil {
		return OrderView{}, err
	}
	if _, err := orderID.Int64(); err != nil {
		return OrderView{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id")
	}
	order, err := fn(ctx, caller, orderID)
	if err != nil {
		return OrderView{}, err
	}
	ctx = s.logg.WithFields(ctx, map[string]any{"order_id": orderID.String(), "action": action})
	s.logg.Info(ctx, "orders.transitioned")
	return NewOrderView(order), nil
}

// Receipt loads a receipt for the order-success page. Receipts belonging to
// another user are reported as missing.
func (s *service) Receipt(ctx context.Context, caller catalog.Caller, receiptID string) (*checkout.Receipt, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if receiptID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "receipt id is required")
	}
	receipt, err := s.receipts.FindByID(ctx, receiptID)
	if err != nil {
		return nil, err
	}
	if receipt.UserID != caller.UserID.String() {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "receipt not found")
	}
	return receipt, nil
}

func (s *service) Receipts(ctx context.Context, caller catalog.Caller, limit int) ([]checkout.Receipt, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	return s.receipts.ListByUser(ctx, caller.UserID.String(), limit)
}

// SyncStatuses asks the order service to advance order statuses in bulk.
func (s *service) SyncStatuses(ctx context.Context) error {
	return s.orders.UpdateOrderStatuses(ctx)
}

func requireCaller(caller catalog.Caller) error {
	if caller.UserID == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to view orders")
	}
	return nil
}
