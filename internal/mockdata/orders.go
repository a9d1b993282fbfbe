package mockdata

import (
	"context"
	"sort"

	"github.com/flashmarket/storefront/internal/catalog"
	"github.com/flashmarket/storefront/internal/pricing"
	pkgerrors "github.com/flashmarket/storefront/pkg/errors"
	"github.com/flashmarket/storefront/pkg/types"
)

func (s *Store) ListWishlist(ctx context.Context, userID types.ID) ([]catalog.WishlistItem, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.wishlists[userID]
	out := make([]catalog.WishlistItem, len(items))
	copy(out, items)
	return out, nil
}

func (s *Store) AddWishlistItem(ctx context.Context, caller catalog.Caller, productID types.ID) (catalog.WishlistItem, error) {
	if err := s.wait(ctx); err != nil {
		return catalog.WishlistItem{}, err
	}
	if caller.UserID == "" {
		return catalog.WishlistItem{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user id header required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.productIndex(productID)
	if idx < 0 {
		return catalog.WishlistItem{}, productNotFound(productID)
	}
	for _, item := range s.wishlists[caller.UserID] {
		if item.ProductID == productID {
			return catalog.WishlistItem{}, pkgerrors.New(pkgerrors.CodeValidation, "product is already in the wishlist")
		}
	}
	item := s.wishlistItem(s.newID(&s.nextWishlistID), s.products[idx])
	s.wishlists[caller.UserID] = append([]catalog.WishlistItem{item}, s.wishlists[caller.UserID]...)
	return item, nil
}

func (s *Store) UpdateWishlistItem(ctx context.Context, caller catalog.Caller, itemID, productID types.ID) (catalog.WishlistItem, error) {
	if err := s.wait(ctx); err != nil {
		return catalog.WishlistItem{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.wishlists[caller.UserID]
	pos := wishlistIndex(items, itemID)
	if pos < 0 {
		return catalog.WishlistItem{}, pkgerrors.New(pkgerrors.CodeNotFound, "wishlist item not found")
	}
	idx := s.productIndex(productID)
	if idx < 0 {
		return catalog.WishlistItem{}, productNotFound(productID)
	}
	updated := s.wishlistItem(itemID, s.products[idx])
	updated.CreatedAt = items[pos].CreatedAt
	items[pos] = updated
	return updated, nil
}

func (s *Store) DeleteWishlistItem(ctx context.Context, caller catalog.Caller, itemID types.ID) error {
	if err := s.wait(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.wishlists[caller.UserID]
	pos := wishlistIndex(items, itemID)
	if pos < 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "wishlist item not found")
	}
	s.wishlists[caller.UserID] = append(items[:pos:pos], items[pos+1:]...)
	return nil
}

func (s *Store) wishlistItem(id types.ID, p catalog.Product) catalog.WishlistItem {
	return catalog.WishlistItem{
		ID:           id,
		ProductID:    p.ID,
		ProductName:  p.Name,
		ProductPrice: p.Price,
		ProductImage: p.Image,
		CreatedAt:    s.now().UTC(),
	}
}

func wishlistIndex(items []catalog.WishlistItem, id types.ID) int {
	for i, item := range items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

// ListOrders returns the user's orders, newest first.
func (s *Store) ListOrders(ctx context.Context, userID types.ID) ([]catalog.Order, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []catalog.Order{}
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, cloneOrder(o))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// CreateOrder reserves stock for every line and records a PENDING order. Unit
// prices are the discounted catalog prices; the submitted total must match.
func (s *Store) CreateOrder(ctx context.Context, caller catalog.Caller, req catalog.OrderRequest) (string, error) {
	if err := s.wait(ctx); err != nil {
		return "", err
	}
	if caller.UserID == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "user id header required")
	}
	if len(req.Items) == 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "order has no items")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]catalog.OrderItem, 0, len(req.Items))
	indexes := make([]int, 0, len(req.Items))
	var subtotal int64
	for _, line := range req.Items {
		idx := s.productIndex(line.ProductID)
		if idx < 0 {
			return "", productNotFound(line.ProductID)
		}
		p := s.products[idx]
		if line.Quantity <= 0 || line.Quantity > p.Remaining {
			return "", pkgerrors.New(pkgerrors.CodeValidation, "not enough stock for "+p.Name).
				WithDetails(map[string]any{"productId": p.ID, "remaining": p.Remaining})
		}
		unit := pricing.DiscountedPrice(p.Price, p.Discount)
		subtotal += unit * int64(line.Quantity)
		items = append(items, catalog.OrderItem{ProductID: p.ID, Quantity: line.Quantity, Price: unit})
		indexes = append(indexes, idx)
	}
	expected := s.policy.Total(subtotal)
	if req.TotalAmount != expected {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "order total does not match current prices").
			WithDetails(map[string]any{"expected": expected, "submitted": req.TotalAmount})
	}

	for i, idx := range indexes {
		s.products[idx].Remaining -= items[i].Quantity
	}
	now := s.now().UTC()
	order := catalog.Order{
		ID:           s.newID(&s.nextOrderID),
		UserID:       caller.UserID,
		Items:        items,
		TotalAmount:  req.TotalAmount,
		Status:       catalog.OrderStatusPending,
		ShippingInfo: req.ShippingInfo,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.orders = append(s.orders, order)
	return order.ID.String(), nil
}

// CancelOrder cancels a PENDING order and puts its stock back.
func (s *Store) CancelOrder(ctx context.Context, caller catalog.Caller, orderID types.ID) (catalog.Order, error) {
	return s.transition(ctx, caller, orderID, catalog.OrderStatus.Cancellable, catalog.OrderStatusCancelled)
}

// ReturnOrder marks a CONFIRMED order as returned and puts its stock back.
func (s *Store) ReturnOrder(ctx context.Context, caller catalog.Caller, orderID types.ID) (catalog.Order, error) {
	return s.transition(ctx, caller, orderID, catalog.OrderStatus.Returnable, catalog.OrderStatusReturned)
}

func (s *Store) transition(ctx context.Context, caller catalog.Caller, orderID types.ID, allowed func(catalog.OrderStatus) bool, next catalog.OrderStatus) (catalog.Order, error) {
	if err := s.wait(ctx); err != nil {
		return catalog.Order{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	pos := s.orderIndex(caller.UserID, orderID)
	if pos < 0 {
		return catalog.Order{}, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	order := &s.orders[pos]
	if !allowed(order.Status) {
		return catalog.Order{}, pkgerrors.New(pkgerrors.CodeValidation, "order is "+order.Status.Label())
	}
	for _, item := range order.Items {
		if idx := s.productIndex(item.ProductID); idx >= 0 {
			s.products[idx].Remaining += item.Quantity
		}
	}
	order.Status = next
	order.UpdatedAt = s.now().UTC()
	return cloneOrder(*order), nil
}

// UpdateOrderStatuses confirms PENDING orders older than five minutes.
func (s *Store) UpdateOrderStatuses(ctx context.Context) error {
	if err := s.wait(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	for i := range s.orders {
		o := &s.orders[i]
		if o.Status == catalog.OrderStatusPending && now.Sub(o.CreatedAt) >= pendingConfirmAfter {
			o.Status = catalog.OrderStatusConfirmed
			o.UpdatedAt = now
		}
	}
	return nil
}

func (s *Store) orderIndex(userID, orderID types.ID) int {
	for i, o := range s.orders {
		if o.ID == orderID && o.UserID == userID {
			return i
		}
	}
	return -1
}

func cloneOrder(o catalog.Order) catalog.Order {
	o.Items = append([]catalog.OrderItem(nil), o.Items...)
	return o
}

func (s *Store) EnterPayment(ctx context.Context, caller catalog.Caller, req catalog.PaymentRequest) (string, error) {
	if err := s.checkPayment(ctx, caller, req); err != nil {
		return "", err
	}
	return "payment entered", nil
}

func (s *Store) ProcessPayment(ctx context.Context, caller catalog.Caller, req catalog.PaymentRequest) (string, error) {
	if err := s.checkPayment(ctx, caller, req); err != nil {
		return "", err
	}
	return "payment completed", nil
}

func (s *Store) checkPayment(ctx context.Context, caller catalog.Caller, req catalog.PaymentRequest) error {
	if err := s.wait(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	userID := req.UserID
	if userID == "" {
		userID = caller.UserID
	}
	pos := s.orderIndex(userID, req.OrderID)
	if pos < 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	order := s.orders[pos]
	if order.Status != catalog.OrderStatusPending {
		return pkgerrors.New(pkgerrors.CodeValidation, "order is "+order.Status.Label())
	}
	if req.Amount != order.TotalAmount {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment amount does not match the order total")
	}
	return nil
}
