package mockdata

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/flashmarket/storefront/internal/catalog"
	"github.com/flashmarket/storefront/internal/pricing"
	pkgerrors "github.com/flashmarket/storefront/pkg/errors"
	"github.com/flashmarket/storefront/pkg/pagination"
	"github.com/flashmarket/storefront/pkg/types"
)

// DefaultLatency mimics a remote round trip.
const DefaultLatency = 500 * time.Millisecond

// pendingConfirmAfter is how long a new order stays PENDING before the
// status sync confirms it.
const pendingConfirmAfter = 5 * time.Minute

type account struct {
	user     catalog.User
	password string
}

// Store is an in-memory stand-in for every upstream service. It serves the
// fixed demo catalog and keeps wishlist, order and account changes for the
// life of the process.
type Store struct {
	mu      sync.Mutex
	latency time.Duration
	now     func() time.Time
	policy  pricing.Policy
	tokens  *tokenIssuer

	categories []catalog.Category
	products   []catalog.Product
	accounts   map[string]*account
	wishlists  map[types.ID][]catalog.WishlistItem
	orders     []catalog.Order

	nextUserID     int
	nextWishlistID int
	nextOrderID    int
}

var _ catalog.Backend = (*Store)(nil)

type Option func(*Store)

// WithLatency overrides the artificial delay applied to every call.
func WithLatency(d time.Duration) Option {
	return func(s *Store) {
		if d >= 0 {
			s.latency = d
		}
	}
}

// WithNow injects the clock used for flash-sale deadlines, timestamps and
// token expiry.
func WithNow(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithPricing sets the shipping policy used to check submitted order totals.
func WithPricing(policy pricing.Policy) Option {
	return func(s *Store) {
		s.policy = policy
	}
}

// New seeds a store with the demo fixture.
func New(opts ...Option) *Store {
	s := &Store{latency: DefaultLatency, now: time.Now, policy: pricing.DefaultPolicy()}
	for _, opt := range opts {
		opt(s)
	}
	s.tokens = newTokenIssuer(s.now)

	s.categories = seedCategories()
	s.products = seedProducts(s.now(), s.categories)
	user := seedUser()
	s.accounts = map[string]*account{user.Username: {user: user, password: DemoPassword}}
	s.wishlists = map[types.ID][]catalog.WishlistItem{user.ID: seedWishlist(s.products)}
	s.orders = seedOrders()

	s.nextUserID = 2
	s.nextWishlistID = 4
	s.nextOrderID = len(s.orders) + 1
	return s
}

// wait sleeps for the configured latency or until ctx is done.
func (s *Store) wait(ctx context.Context) error {
	if s.latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *Store) ListProducts(ctx context.Context, q catalog.Query) ([]catalog.Product, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	filtered := make([]catalog.Product, 0, len(s.products))
	for _, p := range s.products {
		if q.Matches(p) {
			filtered = append(filtered, p)
		}
	}
	start, end := pagination.Params{Page: q.Page, Size: q.Size}.Window(len(filtered))
	out := make([]catalog.Product, end-start)
	copy(out, filtered[start:end])
	return out, nil
}

func (s *Store) GetProduct(ctx context.Context, id types.ID) (catalog.Product, error) {
	if err := s.wait(ctx); err != nil {
		return catalog.Product{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.productIndex(id)
	if idx < 0 {
		return catalog.Product{}, productNotFound(id)
	}
	return s.products[idx], nil
}

func (s *Store) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]catalog.Category, len(s.categories))
	copy(out, s.categories)
	return out, nil
}

func (s *Store) productIndex(id types.ID) int {
	for i, p := range s.products {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func productNotFound(id types.ID) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "product "+id.String()+" not found")
}

func (s *Store) RemainingStock(ctx context.Context, productID types.ID) (int, error) {
	p, err := s.GetProduct(ctx, productID)
	if err != nil {
		return 0, err
	}
	return p.Remaining, nil
}

func (s *Store) DecreaseStock(ctx context.Context, productID types.ID, quantity int) (catalog.StockLevel, error) {
	if err := s.wait(ctx); err != nil {
		return catalog.StockLevel{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if quantity <= 0 {
		return catalog.StockLevel{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	idx := s.productIndex(productID)
	if idx < 0 {
		return catalog.StockLevel{}, productNotFound(productID)
	}
	if s.products[idx].Remaining < quantity {
		return catalog.StockLevel{ProductID: productID, RemainingStock: s.products[idx].Remaining}, nil
	}
	s.products[idx].Remaining -= quantity
	return catalog.StockLevel{ProductID: productID, RemainingStock: s.products[idx].Remaining, Success: true}, nil
}

func (s *Store) RestoreStock(ctx context.Context, productID types.ID, count int) error {
	if err := s.wait(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.productIndex(productID)
	if idx < 0 {
		return productNotFound(productID)
	}
	if count > 0 {
		s.products[idx].Remaining += count
	}
	return nil
}

func (s *Store) newID(counter *int) types.ID {
	id := types.ID(strconv.Itoa(*counter))
	*counter++
	return id
}

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
