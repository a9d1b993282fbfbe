package wishlist

import (
	"context"
	"fmt"

	"github.com/flashmarket/storefront/internal/catalog"
	pkgerrors "github.com/flashmarket/storefront/pkg/errors"
	"github.com/flashmarket/storefront/pkg/types"
)

// ServiceParams groups dependencies for the wishlist service.
type ServiceParams struct {
	Source  catalog.Source
	Gateway catalog.WishlistGateway
}

// Service exposes the signed-in shopper's wishlist.
type Service interface {
	List(ctx context.Context, caller catalog.Caller) ([]catalog.WishlistItem, error)
	AddItem(ctx context.Context, caller catalog.Caller, productID types.ID) (catalog.WishlistItem, error)
	UpdateItem(ctx context.Context, caller catalog.Caller, itemID, productID types.ID) (catalog.WishlistItem, error)
	RemoveItem(ctx context.Context, caller catalog.Caller, itemID types.ID) error
}

type service struct {
	source  catalog.Source
	gateway catalog.WishlistGateway
}

// NewService builds a wishlist service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Source == nil {
		return nil, fmt.Errorf("catalog source required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("wishlist gateway required")
	}
	return &service{source: params.Source, gateway: params.Gateway}, nil
}

func (s *service) List(ctx context.Context, caller catalog.Caller) ([]catalog.WishlistItem, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	items, err := s.source.ListWishlist(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []catalog.WishlistItem{}
	}
	return items, nil
}

// AddItem ensures the product exists and saves it for the caller.
func (s *service) AddItem(ctx context.Context, caller catalog.Caller, productID types.ID) (catalog.WishlistItem, error) {
	if err := requireCaller(caller); err != nil {
		return catalog.WishlistItem{}, err
	}
	if err := s.ensureProduct(ctx, productID); err != nil {
		return catalog.WishlistItem{}, err
	}
	return s.gateway.AddWishlistItem(ctx, caller, productID)
}

// UpdateItem points an existing wishlist row at another product.
func (s *service) UpdateItem(ctx context.Context, caller catalog.Caller, itemID, productID types.ID) (catalog.WishlistItem, error) {
	if err := requireCaller(caller); err != nil {
		return catalog.WishlistItem{}, err
	}
	if itemID == "" {
		return catalog.WishlistItem{}, pkgerrors.New(pkgerrors.CodeValidation, "wishlist item id is required")
	}
	if err := s.ensureProduct(ctx, productID); err != nil {
		return catalog.WishlistItem{}, err
	}
	return s.gateway.UpdateWishlistItem(ctx, caller, itemID, productID)
}

func (s *service) RemoveItem(ctx context.Context, caller catalog.Caller, itemID types.ID) error {
	if err := requireCaller(caller); err != nil {
		return err
	}
	if itemID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "wishlist item id is required")
	}
	return s.gateway.DeleteWishlistItem(ctx, caller, itemID)
}

func (s *service) ensureProduct(ctx context.Context, productID types.ID) error {
	if productID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	_, err := s.source.GetProduct(ctx, productID)
	return err
}

func requireCaller(caller catalog.Caller) error {
	if caller.UserID == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to use the wishlist")
	}
	return nil
}
