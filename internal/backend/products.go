package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/flashmarket/storefront/internal/catalog"
	pkgerrors "github.com/flashmarket/storefront/pkg/errors"
	"github.com/flashmarket/storefront/pkg/types"
)

// ListProducts forwards the page (zero-based), size, search and category
// filters to the product service.
func (c *Client) ListProducts(ctx context.Context, q catalog.Query) ([]catalog.Product, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(q.Page))
	if q.Size > 0 {
		query.Set("size", strconv.Itoa(q.Size))
	}
	if q.Search != "" {
		query.Set("search", q.Search)
	}
	if q.Category != "" {
		query.Set("category", q.Category)
	}
	var products []catalog.Product
	if err := c.do(ctx, call{
		service: serviceProduct,
		method:  http.MethodGet,
		path:    "/api/products",
		query:   query,
		out:     &products,
	}); err != nil {
		return nil, err
	}
	if products == nil {
		products = []catalog.Product{}
	}
	return products, nil
}

func (c *Client) GetProduct(ctx context.Context, id types.ID) (catalog.Product, error) {
	if id == "" {
		return catalog.Product{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	var product catalog.Product
	err := c.do(ctx, call{
		service: serviceProduct,
		method:  http.MethodGet,
		path:    "/api/products/" + url.PathEscape(id.String()),
		out:     &product,
	})
	return product, err
}

func (c *Client) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	var categories []catalog.Category
	if err := c.do(ctx, call{
		service: serviceProduct,
		method:  http.MethodGet,
		path:    "/api/categories",
		out:     &categories,
	}); err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []catalog.Category{}
	}
	return categories, nil
}

func (c *Client) RemainingStock(ctx context.Context, productID types.ID) (int, error) {
	var remaining int
	err := c.do(ctx, call{
		service: serviceProduct,
		method:  http.MethodGet,
		path:    "/api/products/" + url.PathEscape(productID.String()) + "/remaining-stock",
		out:     &remaining,
	})
	return remaining, err
}

func (c *Client) DecreaseStock(ctx context.Context, productID types.ID, quantity int) (catalog.StockLevel, error) {
	if quantity <= 0 {
		return catalog.StockLevel{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	var level catalog.StockLevel
	err := c.do(ctx, call{
		service: serviceProduct,
		method:  http.MethodPost,
		path:    "/api/products/" + url.PathEscape(productID.String()) + "/stock/decrease",
		body:    map[string]int{"quantity": quantity},
		out:     &level,
	})
	return level, err
}

func (c *Client) RestoreStock(ctx context.Context, productID types.ID, count int) error {
	query := url.Values{}
	query.Set("count", strconv.Itoa(count))
	return c.do(ctx, call{
		service: serviceProduct,
		method:  http.MethodPost,
		path:    "/api/products/" + url.PathEscape(productID.String()) + "/restore-stock",
		query:   query,
	})
}
