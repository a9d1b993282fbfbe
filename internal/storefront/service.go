// Package storefront assembles the page models for browsing: the home page,
// product listings and product detail.
package storefront

import (
	"context"
	"fmt"
	"time"

	"github.com/flashmarket/storefront/internal/catalog"
	"github.com/flashmarket/storefront/internal/countdown"
	"github.com/flashmarket/storefront/internal/flashsale"
	"github.com/flashmarket/storefront/pkg/logger"
	"github.com/flashmarket/storefront/pkg/pagination"
	"github.com/flashmarket/storefront/pkg/types"
	"golang.org/x/sync/errgroup"
)

const defaultFlashSaleLimit = 6

// Home is the landing page model.
type Home struct {
	Categories []catalog.Category    `json:"categories"`
	Products   pagination.Page[Card] `json:"products"`
	FlashSale  []Card                `json:"flashSale"`
	Deadline   *time.Time            `json:"flashSaleEndTime,omitempty"`
	Countdown  *countdown.Event      `json:"countdown,omitempty"`
}

// ProductDetail is the product page model. Countdown is set only for
// flash-sale products with a known end time.
type ProductDetail struct {
	Card
	Content        string            `json:"content"`
	CategoryInfo   *catalog.Category `json:"categoryInfo,omitempty"`
	RemainingStock int               `json:"remainingStock"`
	Countdown      *countdown.Event  `json:"countdown,omitempty"`
}

// Service builds the browsing pages.
type Service interface {
	Home(ctx context.Context) (Home, error)
	Products(ctx context.Context, q catalog.Query) (pagination.Page[Card], error)
	Categories(ctx context.Context) ([]catalog.Category, error)
	FlashSale(ctx context.Context, limit int) ([]Card, error)
	Product(ctx context.Context, id types.ID) (ProductDetail, error)
}

// ServiceParams groups dependencies for the storefront service.
type ServiceParams struct {
	Source         catalog.Source
	Inventory      catalog.InventoryGateway
	Rules          flashsale.Rules
	FlashSaleLimit int
	Logger         *logger.Logger
	Now            func() time.Time
}

type service struct {
	source         catalog.Source
	inventory      catalog.InventoryGateway
	rules          flashsale.Rules
	flashSaleLimit int
	logg           *logger.Logger
	now            func() time.Time
}

// NewService builds a storefront service. Inventory is optional; without it
// product pages report the stock carried on the product record.
func NewService(params ServiceParams) (Service, error) {
	if params.Source == nil {
		return nil, fmt.Errorf("catalog source required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	limit := params.FlashSaleLimit
	if limit <= 0 {
		limit = defaultFlashSaleLimit
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		source:         params.Source,
		inventory:      params.Inventory,
		rules:          params.Rules,
		flashSaleLimit: limit,
		logg:           params.Logger,
		now:            now,
	}, nil
}

// Home fetches categories, the first product page and the flash-sale section
// concurrently. Any failure fails the page.
func (s *service) Home(ctx context.Context) (Home, error) {
	var home Home
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		categories, err := s.Categories(gctx)
		home.Categories = categories
		return err
	})
	g.Go(func() error {
		page, err := s.Products(gctx, catalog.Query{Size: pagination.DefaultSize})
		home.Products = page
		return err
	})
	g.Go(func() error {
		cards, err := s.FlashSale(gctx, s.flashSaleLimit)
		home.FlashSale = cards
		return err
	})
	if err := g.Wait(); err != nil {
		return Home{}, err
	}
	if deadline := earliestDeadline(home.FlashSale, s.now()); deadline != nil {
		snap := countdown.Snapshot(*deadline, s.now())
		home.Deadline = deadline
		home.Countdown = &snap
	}
	return home, nil
}

func (s *service) Products(ctx context.Context, q catalog.Query) (pagination.Page[Card], error) {
	params := pagination.Params{Page: q.Page, Size: q.Size}.Normalize()
	q.Page, q.Size = params.Page, params.Size
	products, err := s.source.ListProducts(ctx, q)
	if err != nil {
		return pagination.Page[Card]{}, err
	}
	return pagination.NewPage(newCards(products, s.rules), params), nil
}

func (s *service) Categories(ctx context.Context) ([]catalog.Category, error) {
	categories, err := s.source.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []catalog.Category{}
	}
	return categories, nil
}

// FlashSale returns the first limit flagged products in catalog order.
func (s *service) FlashSale(ctx context.Context, limit int) ([]Card, error) {
	if limit <= 0 {
		limit = s.flashSaleLimit
	}
	products, err := s.source.ListProducts(ctx, catalog.Query{Size: pagination.MaxSize})
	if err != nil {
		return nil, err
	}
	return newCards(s.rules.Select(products, limit), s.rules), nil
}

func (s *service) Product(ctx context.Context, id types.ID) (ProductDetail, error) {
	p, err := s.source.GetProduct(ctx, id)
	if err != nil {
		return ProductDetail{}, err
	}
	detail := ProductDetail{
		Card:           NewCard(p, s.rules),
		Content:        p.Content,
		CategoryInfo:   p.Category,
		RemainingStock: p.Remaining,
	}
	if s.inventory != nil {
		remaining, err := s.inventory.RemainingStock(ctx, id)
		switch {
		case err == nil:
			detail.RemainingStock = remaining
		case ctx.Err() != nil:
			return ProductDetail{}, ctx.Err()
		default:
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"product_id": id.String(), "error": err.Error()}), "storefront.remaining_stock_failed")
		}
	}
	if detail.FlashSale && p.FlashSaleEndTime != nil {
		snap := countdown.Snapshot(*p.FlashSaleEndTime, s.now())
		detail.Countdown = &snap
	}
	return detail, nil
}

// earliestDeadline returns the soonest end time still in the future.
func earliestDeadline(cards []Card, now time.Time) *time.Time {
	var earliest *time.Time
	for _, c := range cards {
		end := c.FlashSaleEndTime
		if end == nil || !end.After(now) {
			continue
		}
		if earliest == nil || end.Before(*earliest) {
			earliest = end
		}
	}
	return earliest
}
