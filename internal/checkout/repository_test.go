package checkout

import (
	"context"
	"testing"
	"time"

	pkgerrors "github.com/flashmarket/storefront/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReceipt(id, orderID, userID string, at time.Time) *Receipt {
	return &Receipt{
		ID:            id,
		OrderID:       orderID,
		UserID:        userID,
		SessionID:     "sid",
		Status:        "PENDING",
		PaymentMethod: "card",
		RecipientName: "Hong Gildong",
		Phone:         "01012345678",
		Address:       "Seoul",
		PostalCode:    "12345",
		Items:         []ReceiptItem{{ProductID: "8", Name: "Plain Hoodie", Price: 39000, UnitPrice: 39000, Quantity: 1, LineTotal: 39000}},
		ItemCount:     1,
		ListTotal:     39000,
		Subtotal:      39000,
		ShippingFee:   0,
		Total:         39000,
		CreatedAt:     at,
	}
}

func TestRepositoryNilDB(t *testing.T) {
	assert.Nil(t, NewRepository(nil))
}

func TestRepositoryCreateAndFind(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, sampleReceipt("r1", "10", "1", at)))
	require.NoError(t, repo.Create(ctx, sampleReceipt("r2", "11", "1", at.Add(time.Minute))))
	require.NoError(t, repo.Create(ctx, sampleReceipt("r3", "12", "2", at)))

	got, err := repo.FindByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "10", got.OrderID)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Plain Hoodie", got.Items[0].Name)

	list, err := repo.ListByUser(ctx, "1", 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "r2", list[0].ID, "newest first")

	limited, err := repo.ListByUser(ctx, "1", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	none, err := repo.ListByUser(ctx, "9", 0)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestRepositoryErrors(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	_, err := repo.FindByOrderID(ctx, "missing")
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))

	require.NoError(t, repo.Create(ctx, sampleReceipt("r1", "10", "1", time.Now())))
	err = repo.Create(ctx, sampleReceipt("r2", "10", "1", time.Now()))
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))

	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(repo.Create(ctx, nil)))
}

func TestRepositoryDeleteCreatedBefore(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, sampleReceipt("old", "10", "1", at.Add(-48*time.Hour))))
	require.NoError(t, repo.Create(ctx, sampleReceipt("new", "11", "1", at)))

	deleted, err := repo.DeleteCreatedBefore(ctx, at.Add(-time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	_, err = repo.FindByID(ctx, "old")
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
	_, err = repo.FindByID(ctx, "new")
	assert.NoError(t, err)
}
