package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/flashmarket/storefront/internal/catalog"
	"github.com/flashmarket/storefront/pkg/types"
)

type wishlistRequest struct {
	ProductID any `json:"productId"`
}

func (c *Client) ListWishlist(ctx context.Context, userID types.ID) ([]catalog.WishlistItem, error) {
	var items []catalog.WishlistItem
	if err := c.do(ctx, call{
		service: serviceWishlist,
		method:  http.MethodGet,
		path:    "/api/wishlist",
		caller:  &catalog.Caller{UserID: userID},
		out:     &items,
	}); err != nil {
		return nil, err
	}
	if items == nil {
		items = []catalog.WishlistItem{}
	}
	return items, nil
}

func (c *Client) AddWishlistItem(ctx context.Context, caller catalog.Caller, productID types.ID) (catalog.WishlistItem, error) {
	var item catalog.WishlistItem
	err := c.do(ctx, call{
		service: serviceWishlist,
		method:  http.MethodPost,
		path:    "/api/wishlist",
		caller:  &caller,
		body:    wishlistRequest{ProductID: wireID(productID)},
		out:     &item,
	})
	return item, err
}

func (c *Client) UpdateWishlistItem(ctx context.Context, caller catalog.Caller, itemID, productID types.ID) (catalog.WishlistItem, error) {
	var item catalog.WishlistItem
	err := c.do(ctx, call{
		service: serviceWishlist,
		method:  http.MethodPut,
		path:    "/api/wishlist/" + url.PathEscape(itemID.String()),
		caller:  &caller,
		body:    wishlistRequest{ProductID: wireID(productID)},
		out:     &item,
	})
	return item, err
}

func (c *Client) DeleteWishlistItem(ctx context.Context, caller catalog.Caller, itemID types.ID) error {
	return c.do(ctx, call{
		service: serviceWishlist,
		method:  http.MethodDelete,
		path:    "/api/wishlist/" + url.PathEscape(itemID.String()),
		caller:  &caller,
	})
}

// wireID sends numeric ids as JSON numbers, which the upstream services
// require, and anything else verbatim.
func wireID(id types.ID) any {
	if n, err := id.Int64(); err == nil {
		return n
	}
	return id.String()
}
