package cart

import (
	"context"
	"fmt"

	"github.com/flashmarket/storefront/internal/catalog"
	"github.com/flashmarket/storefront/internal/flashsale"
	"github.com/flashmarket/storefront/internal/pricing"
	pkgerrors "github.com/flashmarket/storefront/pkg/errors"
	"github.com/flashmarket/storefront/pkg/metrics"
	"github.com/flashmarket/storefront/pkg/types"
)

// Service binds carts to browser sessions. Every mutation is persisted before
// it returns.
type Service interface {
	Get(ctx context.Context, sessionID string) (Cart, error)
	View(ctx context.Context, sessionID string) (View, error)
	AddToCart(ctx context.Context, sessionID string, productID types.ID) (View, error)
	RemoveFromCart(ctx context.Context, sessionID string, productID types.ID) (View, error)
	UpdateQuantity(ctx context.Context, sessionID string, productID types.ID, quantity int) (View, error)
	ClearCart(ctx context.Context, sessionID string) error
	RemoveOrdered(ctx context.Context, sessionID string, ordered []Line) error
}

// ServiceParams groups dependencies for the cart service.
type ServiceParams struct {
	Persister Persister
	Products  catalog.Source
	Pricing   pricing.Policy
	Rules     flashsale.Rules
	Metrics   *metrics.Storefront
}

type service struct {
	persister Persister
	products  catalog.Source
	pricing   pricing.Policy
	rules     flashsale.Rules
	metrics   *metrics.Storefront
	locks     *sessionLocks
}

// NewService builds a cart service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Persister == nil {
		return nil, fmt.Errorf("cart persister required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product source required")
	}
	return &service{
		persister: params.Persister,
		products:  params.Products,
		pricing:   params.Pricing,
		rules:     params.Rules,
		metrics:   params.Metrics,
		locks:     newSessionLocks(),
	}, nil
}

func (s *service) Get(ctx context.Context, sessionID string) (Cart, error) {
	if sessionID == "" {
		return Cart{}, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	c, err := s.persister.Load(ctx, sessionID)
	if err != nil {
		return Cart{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cart unavailable")
	}
	return c, nil
}

func (s *service) View(ctx context.Context, sessionID string) (View, error) {
	c, err := s.Get(ctx, sessionID)
	if err != nil {
		return View{}, err
	}
	return BuildView(c, s.pricing, s.rules), nil
}

// AddToCart looks the product up so the stored snapshot carries current price
// and stock, then adds one unit. Sold-out products and quantities beyond the
// remaining stock are rejected.
func (s *service) AddToCart(ctx context.Context, sessionID string, productID types.ID) (View, error) {
	if productID == "" {
		return View{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return View{}, err
	}
	if s.rules.IsSoldOut(product) {
		return View{}, pkgerrors.New(pkgerrors.CodeConflict, "product is sold out").
			WithDetails(map[string]any{"productId": productID})
	}

	return s.mutate(ctx, sessionID, "add", func(c *Cart) error {
		if line, ok := c.Find(productID); ok && line.Quantity+1 > product.Remaining {
			return stockError(product, line.Quantity+1)
		}
		c.Add(product)
		return nil
	})
}

func (s *service) RemoveFromCart(ctx context.Context, sessionID string, productID types.ID) (View, error) {
	return s.mutate(ctx, sessionID, "remove", func(c *Cart) error {
		c.Remove(productID)
		return nil
	})
}

// UpdateQuantity sets the quantity of a line already in the cart; quantity ≤ 0
// removes it and is a no-op for absent lines. Raised quantities are bounded by
// the product's current stock, or by the line's snapshot when the lookup fails.
func (s *service) UpdateQuantity(ctx context.Context, sessionID string, productID types.ID, quantity int) (View, error) {
	if quantity <= 0 {
		return s.mutate(ctx, sessionID, "update", func(c *Cart) error {
			c.Remove(productID)
			return nil
		})
	}
	current, lookupErr := s.products.GetProduct(ctx, productID)
	if lookupErr != nil && ctx.Err() != nil {
		return View{}, ctx.Err()
	}
	return s.mutate(ctx, sessionID, "update", func(c *Cart) error {
		line, ok := c.Find(productID)
		if !ok {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product is not in the cart")
		}
		product := line.Product
		if lookupErr == nil {
			product = current
		}
		if quantity > product.Remaining {
			return stockError(product, quantity)
		}
		c.Refresh(product)
		c.UpdateQuantity(productID, quantity)
		return nil
	})
}

func (s *service) ClearCart(ctx context.Context, sessionID string) error {
	_, err := s.mutate(ctx, sessionID, "clear", func(c *Cart) error {
		c.Clear()
		return nil
	})
	return err
}

// RemoveOrdered takes an order's lines out of the cart under the session lock.
// Units added after the order snapshot was taken stay in the cart.
func (s *service) RemoveOrdered(ctx context.Context, sessionID string, ordered []Line) error {
	_, err := s.mutate(ctx, sessionID, "checkout", func(c *Cart) error {
		c.Subtract(ordered)
		return nil
	})
	return err
}

func (s *service) mutate(ctx context.Context, sessionID, op string, fn func(*Cart) error) (View, error) {
	if sessionID == "" {
		return View{}, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	unlock := s.locks.lock(sessionID)
	defer unlock()

	c, err := s.persister.Load(ctx, sessionID)
	if err != nil {
		return View{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cart unavailable")
	}
	if err := fn(&c); err != nil {
		return View{}, err
	}
	if err := ctx.Err(); err != nil {
		return View{}, err
	}
	if err := s.persister.Save(ctx, sessionID, c); err != nil {
		return View{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cart unavailable")
	}
	s.metrics.IncCartMutation(op)
	return BuildView(c, s.pricing, s.rules), nil
}

func stockError(p catalog.Product, requested int) error {
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("only %d left in stock", p.Remaining)).
		WithDetails(map[string]any{
			"productId": p.ID,
			"requested": requested,
			"remaining": p.Remaining,
		})
}
