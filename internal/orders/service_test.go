package orders

import (
	"context"
	"testing"
	"time"

	"github.com/flashmarket/storefront/internal/catalog"
	"github.com/flashmarket/storefront/internal/checkout"
	"github.com/flashmarket/storefront/internal/mockdata"
	pkgerrors "github.com/flashmarket/storefront/pkg/errors"
	"github.com/flashmarket/storefront/pkg/logger"
	"github.com/flashmarket/storefront/pkg/migrate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var shopper = catalog.Caller{UserID: "1", AccessToken: "token"}

func newReceipts(t *testing.T) checkout.Repository {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	_, err = migrate.Up(context.Background(), sqlDB, "sqlite")
	require.NoError(t, err)
	return checkout.NewRepository(conn)
}

func newTestService(t *testing.T) (Service, *mockdata.Store, checkout.Repository) {
	t.Helper()
	store := mockdata.New(mockdata.WithLatency(0))
	receipts := newReceipts(t)
	svc, err := NewService(ServiceParams{
		Source:   store,
		Orders:   store,
		Receipts: receipts,
		Logger:   logger.Nop(),
	})
	require.NoError(t, err)
	return svc, store, receipts
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	assert.Error(t, err)
}

func TestListBuildsViews(t *testing.T) {
	svc, _, _ := newTestService(t)
	views, err := svc.List(context.Background(), shopper)
	require.NoError(t, err)
	require.Len(t, views, 2)

	confirmed := views[0]
	assert.EqualValues(t, "1", confirmed.ID)
	assert.Equal(t, "Order confirmed", confirmed.StatusLabel)
	assert.False(t, confirmed.CanCancel)
	assert.True(t, confirmed.CanReturn)
	assert.Equal(t, 3, confirmed.ItemCount)

	pending := views[1]
	assert.True(t, pending.CanCancel)
	assert.False(t, pending.CanReturn)
}

func TestListRequiresCaller(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.List(context.Background(), catalog.Caller{})
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.CodeOf(err))
}

func TestCancelAndReturn(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	cancelled, err := svc.Cancel(ctx, shopper, "2")
	require.NoError(t, err)
	assert.Equal(t, catalog.OrderStatusCancelled, cancelled.Status)
	assert.False(t, cancelled.CanCancel)

	_, err = svc.Cancel(ctx, shopper, "2")
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	returned, err := svc.Return(ctx, shopper, "1")
	require.NoError(t, err)
	assert.Equal(t, "Return completed", returned.StatusLabel)

	_, err = svc.Cancel(ctx, shopper, "abc")
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	_, err = svc.Cancel(ctx, catalog.Caller{UserID: "2"}, "1")
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestReceiptIsScopedToOwner(t *testing.T) {
	svc, _, receipts := newTestService(t)
	ctx := context.Background()
	require.NoError(t, receipts.Create(ctx, &checkout.Receipt{
		ID:            "r1",
		OrderID:       "3",
		UserID:        "1",
		SessionID:     "sid",
		Status:        "PENDING",
		PaymentMethod: "card",
		RecipientName: "Hong Gildong",
		Phone:         "01012345678",
		Address:       "Seoul",
		PostalCode:    "12345",
		Items:         []checkout.ReceiptItem{},
		Total:         39000,
		CreatedAt:     time.Now().UTC(),
	}))

	got, err := svc.Receipt(ctx, shopper, "r1")
	require.NoError(t, err)
	assert.Equal(t, "3", got.OrderID)

	_, err = svc.Receipt(ctx, catalog.Caller{UserID: "2"}, "r1")
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))

	_, err = svc.Receipt(ctx, shopper, "")
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	list, err := svc.Receipts(ctx, shopper, 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSyncStatusesConfirmsStalePendingOrders(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.SyncStatuses(ctx))

	views, err := svc.List(ctx, shopper)
	require.NoError(t, err)
	for _, v := range views {
		assert.Equal(t, catalog.OrderStatusConfirmed, v.Status)
	}
}
