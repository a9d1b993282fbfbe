package catalog

import (
	"encoding/json"
	"testing"

	"github.com/flashmarket/storefront/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryMatches(t *testing.T) {
	p := Product{
		Name:     "Bluetooth Speaker",
		Content:  "Portable speaker with deep BASS",
		Category: &Category{ID: "1", Name: "Electronics"},
	}

	assert.True(t, Query{}.Matches(p))
	assert.True(t, Query{Category: "Electronics"}.Matches(p))
	assert.False(t, Query{Category: "electronics"}.Matches(p), "category match is exact")
	assert.True(t, Query{Search: "speaker"}.Matches(p))
	assert.True(t, Query{Search: "bass"}.Matches(p), "search covers content")
	assert.False(t, Query{Search: "laptop"}.Matches(p))
	assert.False(t, Query{Category: "Fashion", Search: "speaker"}.Matches(p))
	assert.False(t, Query{Category: "Electronics"}.Matches(Product{Name: "orphan"}))
}

func TestOrderStatusRules(t *testing.T) {
	assert.True(t, OrderStatusPending.Cancellable())
	assert.False(t, OrderStatusConfirmed.Cancellable())
	assert.True(t, OrderStatusConfirmed.Returnable())
	assert.False(t, OrderStatusCancelled.Returnable())
	assert.Equal(t, "Return completed", OrderStatusReturned.Label())
	assert.Equal(t, "SHIPPED", OrderStatus("SHIPPED").Label())
	assert.False(t, OrderStatus("SHIPPED").IsValid())
}

func TestProductDecodesUpstreamShape(t *testing.T) {
	raw := `{"id":11,"name":"Speaker","price":149000,"sale":35,"content":"c","count":2,
		"image":"/placeholder.jpg","category":{"id":1,"name":"Electronics"},
		"isFlashSale":true,"flashSaleEndTime":"2026-01-01T18:00:00Z"}`

	var p Product
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	assert.Equal(t, types.ID("11"), p.ID)
	assert.Equal(t, 35, p.Discount)
	assert.Equal(t, 2, p.Remaining)
	assert.Equal(t, "Electronics", p.CategoryName())
	require.NotNil(t, p.FlashSaleEndTime)
	assert.Equal(t, 18, p.FlashSaleEndTime.Hour())
}
