package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/flashmarket/storefront/internal/cart"
	"github.com/flashmarket/storefront/internal/catalog"
	"github.com/flashmarket/storefront/internal/flashsale"
	"github.com/flashmarket/storefront/internal/mockdata"
	"github.com/flashmarket/storefront/internal/pricing"
	"github.com/flashmarket/storefront/pkg/enums"
	pkgerrors "github.com/flashmarket/storefront/pkg/errors"
	"github.com/flashmarket/storefront/pkg/logger"
	"github.com/flashmarket/storefront/pkg/metrics"
	"github.com/flashmarket/storefront/pkg/migrate"
	"github.com/flashmarket/storefront/pkg/redis"
	"github.com/flashmarket/storefront/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var shopper = catalog.Caller{UserID: "1", AccessToken: "token"}

var validShipping = catalog.ShippingInfo{
	Name:       "Hong Gildong",
	Phone:      "01012345678",
	Address:    "123 Teheran-ro, Gangnam-gu, Seoul",
	PostalCode: "12345",
}

// failingOrders rejects every order while delegating the rest of the gateway.
type failingOrders struct {
	catalog.OrderGateway
	calls int
}

func (f *failingOrders) CreateOrder(context.Context, catalog.Caller, catalog.OrderRequest) (string, error) {
	f.calls++
	return "", pkgerrors.New(pkgerrors.CodeDependency, "order-service unavailable")
}

// racingOrders adds a product to the cart while the order call is in flight.
type racingOrders struct {
	catalog.OrderGateway
	carts cart.Service
}

func (r *racingOrders) CreateOrder(ctx context.Context, caller catalog.Caller, req catalog.OrderRequest) (string, error) {
	if _, err := r.carts.AddToCart(ctx, "sid", "2"); err != nil {
		return "", err
	}
	return r.OrderGateway.CreateOrder(ctx, caller, req)
}

type brokenInventory struct {
	catalog.InventoryGateway
}

func (brokenInventory) RemainingStock(context.Context, types.ID) (int, error) {
	return 0, pkgerrors.New(pkgerrors.CodeDependency, "product-service unavailable")
}

type harness struct {
	svc      Service
	carts    cart.Service
	backend  *mockdata.Store
	receipts Repository
	kv       *redis.Client
	registry *prometheus.Registry
	now      time.Time
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	_, err = migrate.Up(context.Background(), sqlDB, "sqlite")
	require.NoError(t, err)
	return conn
}

func newHarness(t *testing.T, orders catalog.OrderGateway) *harness {
	t.Helper()
	return newHarnessWithInventory(t, orders, nil)
}

func newHarnessWithInventory(t *testing.T, orders catalog.OrderGateway, inventory catalog.InventoryGateway) *harness {
	t.Helper()
	h := &harness{
		backend:  mockdata.New(mockdata.WithLatency(0)),
		kv:       redis.NewMemory(),
		registry: prometheus.NewRegistry(),
		now:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	carts, err := cart.NewService(cart.ServiceParams{
		Persister: cart.NewRedisPersister(h.kv, time.Hour, nil),
		Products:  h.backend,
		Pricing:   pricing.DefaultPolicy(),
		Rules:     flashsale.DefaultRules(),
	})
	require.NoError(t, err)
	h.carts = carts
	h.receipts = NewRepository(newTestDB(t))
	if orders == nil {
		orders = h.backend
	}
	if inventory == nil {
		inventory = h.backend
	}
	svc, err := NewService(ServiceParams{
		Carts:      carts,
		Inventory:  inventory,
		Orders:     orders,
		Payments:   h.backend,
		Receipts:   h.receipts,
		Holds:      h.kv,
		Pricing:    pricing.DefaultPolicy(),
		HoldWindow: 10 * time.Minute,
		Metrics:    metrics.New(h.registry),
		Logger:     logger.Nop(),
		Now:        func() time.Time { return h.now },
	})
	require.NoError(t, err)
	h.svc = svc
	return h
}

func (h *harness) add(t *testing.T, sid string, productID types.ID, times int) {
	t.Helper()
	for i := 0; i < times; i++ {
		_, err := h.carts.AddToCart(context.Background(), sid, productID)
		require.NoError(t, err)
	}
}

func (h *harness) checkouts(t *testing.T, outcome string) float64 {
	t.Helper()
	families, err := h.registry.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "storefront_checkout_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "outcome" && lp.GetValue() == outcome {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	assert.Error(t, err)
}

func TestDraftRejectsEmptyCart(t *testing.T) {
	h := newHarness(t, nil)
	_, err := h.svc.Draft(context.Background(), "sid")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestDraftHoldDeadlineSurvivesReload(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	h.add(t, "sid", "11", 1)

	draft, err := h.svc.Draft(ctx, "sid")
	require.NoError(t, err)
	require.True(t, draft.HasFlashSaleItems)
	require.NotNil(t, draft.HoldUntil)
	assert.Equal(t, h.now.Add(10*time.Minute), *draft.HoldUntil)
	assert.Equal(t, []string{"card", "bank", "kakao"}, draft.PaymentMethods)

	h.now = h.now.Add(3 * time.Minute)
	again, err := h.svc.Draft(ctx, "sid")
	require.NoError(t, err)
	require.NotNil(t, again.HoldUntil)
	assert.Equal(t, *draft.HoldUntil, *again.HoldUntil, "deadline does not restart on reload")
}

func TestDraftWithoutFlashItemsHasNoHold(t *testing.T) {
	h := newHarness(t, nil)
	h.add(t, "sid", "8", 2)

	draft, err := h.svc.Draft(context.Background(), "sid")
	require.NoError(t, err)
	assert.False(t, draft.HasFlashSaleItems)
	assert.Nil(t, draft.HoldUntil)
	assert.Equal(t, int64(78000), draft.Summary.Total)
}

func TestSubmitPlacesOrderClearsCartAndRecordsReceipt(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	h.add(t, "sid", "8", 2)
	h.add(t, "sid", "11", 1)
	_, err := h.svc.Draft(ctx, "sid")
	require.NoError(t, err)

	receipt, err := h.svc.Submit(ctx, "sid", shopper, SubmitInput{Shipping: validShipping, PaymentMethod: enums.PaymentMethodCard})
	require.NoError(t, err)
	assert.Equal(t, "3", receipt.OrderID)
	assert.Equal(t, 3, receipt.ItemCount)
	assert.Equal(t, int64(78000+96850), receipt.Total)
	assert.Equal(t, "Order received", receipt.StatusLabel())
	require.Len(t, receipt.Items, 2)
	assert.Equal(t, int64(96850), receipt.Items[1].UnitPrice)

	view, err := h.carts.View(ctx, "sid")
	require.NoError(t, err)
	assert.Empty(t, view.Lines)

	_, err = h.kv.Get(ctx, h.kv.SessionKey("sid", holdKey))
	assert.ErrorIs(t, err, redis.Nil)

	stored, err := h.receipts.FindByOrderID(ctx, "3")
	require.NoError(t, err)
	assert.Equal(t, receipt.ID, stored.ID)
	assert.Equal(t, validShipping.Name, stored.Shipping().Name)
	require.Len(t, stored.Items, 2)
	assert.Equal(t, "Bluetooth Speaker", stored.Items[1].Name)

	remaining, err := h.backend.RemainingStock(ctx, "11")
	require.NoError(t, err)
	assert.Equal(t, 1, remaining)
	assert.Equal(t, 1.0, h.checkouts(t, "placed"))
}

func TestSubmitFailureKeepsCart(t *testing.T) {
	orders := &failingOrders{}
	h := newHarness(t, orders)
	ctx := context.Background()
	h.add(t, "sid", "8", 1)

	_, err := h.svc.Submit(ctx, "sid", shopper, SubmitInput{Shipping: validShipping, PaymentMethod: enums.PaymentMethodBank})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.CodeOf(err))
	assert.Equal(t, 1, orders.calls)

	view, err := h.carts.View(ctx, "sid")
	require.NoError(t, err)
	assert.Len(t, view.Lines, 1)
	assert.Equal(t, 1.0, h.checkouts(t, "failed"))
}

func TestSubmitChecksCurrentStock(t *testing.T) {
	orders := &failingOrders{}
	h := newHarness(t, orders)
	ctx := context.Background()
	h.add(t, "sid", "1", 1)
	_, err := h.backend.DecreaseStock(ctx, "1", 5)
	require.NoError(t, err)

	_, err = h.svc.Submit(ctx, "sid", shopper, SubmitInput{Shipping: validShipping, PaymentMethod: enums.PaymentMethodCard})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
	assert.Zero(t, orders.calls, "no order is sent for stock that is already gone")
	assert.Equal(t, 1.0, h.checkouts(t, "rejected"))

	view, err := h.carts.View(ctx, "sid")
	require.NoError(t, err)
	assert.Len(t, view.Lines, 1)
}

func TestSubmitFallsBackToSnapshotWhenInventoryFails(t *testing.T) {
	h := newHarnessWithInventory(t, nil, brokenInventory{})
	ctx := context.Background()
	h.add(t, "sid", "8", 1)

	receipt, err := h.svc.Submit(ctx, "sid", shopper, SubmitInput{Shipping: validShipping, PaymentMethod: enums.PaymentMethodCard})
	require.NoError(t, err)
	assert.Equal(t, 1, receipt.ItemCount)
}

func TestSubmitKeepsLinesAddedDuringOrder(t *testing.T) {
	racing := &racingOrders{}
	h := newHarness(t, racing)
	racing.OrderGateway, racing.carts = h.backend, h.carts
	ctx := context.Background()
	h.add(t, "sid", "8", 1)

	receipt, err := h.svc.Submit(ctx, "sid", shopper, SubmitInput{Shipping: validShipping, PaymentMethod: enums.PaymentMethodCard})
	require.NoError(t, err)
	require.Len(t, receipt.Items, 1)

	c, err := h.carts.Get(ctx, "sid")
	require.NoError(t, err)
	require.Len(t, c.Lines, 1)
	assert.Equal(t, types.ID("2"), c.Lines[0].ProductID())
	assert.Equal(t, 1, c.Lines[0].Quantity)
}

func TestSubmitValidatesInput(t *testing.T) {
	h := newHarness(t, nil)
	h.add(t, "sid", "8", 1)

	_, err := h.svc.Submit(context.Background(), "sid", shopper, SubmitInput{PaymentMethod: "cash"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
	details, ok := pkgerrors.As(err).Details().(map[string]string)
	require.True(t, ok)
	assert.Contains(t, details, "paymentMethod")
	assert.Contains(t, details, "shippingInfo.name")
}

func TestSubmitRequiresSignedInCaller(t *testing.T) {
	h := newHarness(t, nil)
	h.add(t, "sid", "8", 1)
	_, err := h.svc.Submit(context.Background(), "sid", catalog.Caller{}, SubmitInput{Shipping: validShipping, PaymentMethod: enums.PaymentMethodCard})
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.CodeOf(err))
}

func TestSubmitEmptyCart(t *testing.T) {
	h := newHarness(t, nil)
	_, err := h.svc.Submit(context.Background(), "sid", shopper, SubmitInput{Shipping: validShipping, PaymentMethod: enums.PaymentMethodCard})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestPayEntersAndProcesses(t *testing.T) {
	h := newHarness(t, nil)
	result, err := h.svc.Pay(context.Background(), shopper, PayInput{OrderID: "2", Amount: 189000, PaymentMethod: enums.PaymentMethodKakao})
	require.NoError(t, err)
	assert.Equal(t, "payment entered", result.Entered)
	assert.Equal(t, "payment completed", result.Processed)

	_, err = h.svc.Pay(context.Background(), shopper, PayInput{OrderID: "2", Amount: 1, PaymentMethod: enums.PaymentMethodKakao})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	_, err = h.svc.Pay(context.Background(), shopper, PayInput{OrderID: "abc", Amount: 1, PaymentMethod: enums.PaymentMethodCard})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}
