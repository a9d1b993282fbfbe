package mockdata

import (
	"strconv"
	"time"

	"github.com/flashmarket/storefront/internal/catalog"
	"github.com/flashmarket/storefront/pkg/types"
)

const (
	placeholderImage = "/placeholder.jpg"
	flashSaleWindow  = 6 * time.Hour

	// DemoUsername and DemoPassword log into the seeded shopper account.
	DemoUsername = "testuser"
	DemoPassword = "password123"
)

func seedCategories() []catalog.Category {
	names := []string{"Electronics", "Fashion", "Home & Living", "Beauty", "Sports", "Books", "Food", "Pets"}
	out := make([]catalog.Category, 0, len(names))
	for i, name := range names {
		out = append(out, catalog.Category{ID: types.ID(strconv.Itoa(i + 1)), Name: name})
	}
	return out
}

type productSeed struct {
	name      string
	price     int64
	sale      int
	content   string
	count     int
	category  int
	flashSale bool
}

var productSeeds = []productSeed{
	{"MacBook Pro 14", 2590000, 10, "MacBook Pro 14-inch with the M3 chip. Strong performance and long battery life.", 5, 0, true},
	{"iPhone 15 Pro", 1550000, 15, "iPhone 15 Pro with the A17 Pro chip and a lighter titanium body.", 8, 0, true},
	{"Nike Air Jordan", 189000, 25, "Classic Nike Air Jordan sneakers, comfortable and stylish.", 12, 1, false},
	{"Galaxy Buds Pro", 229000, 20, "Wireless earbuds with great sound and noise cancelling.", 3, 0, true},
	{"Dyson Hair Dryer", 550000, 30, "Fast, gentle drying with Dyson's airflow technology.", 7, 3, true},
	{"LEGO Creator", 89000, 5, "LEGO Creator set that builds into several different models.", 15, 2, false},
	{"iPad Pro 11", 1249000, 12, "iPad Pro 11-inch with the M2 chip. Pro performance you can carry.", 6, 0, true},
	{"Plain Hoodie", 39000, 0, "A simple, comfortable hoodie for everyday wear.", 20, 1, false},
	{"Coffee Machine", 299000, 18, "Espresso machine for cafe-quality coffee at home.", 4, 2, true},
	{"Sneakers", 129000, 22, "Comfortable sneakers for running and daily wear.", 9, 4, false},
	{"Bluetooth Speaker", 149000, 35, "Portable speaker with rich sound and deep bass.", 2, 0, true},
	{"Perfume", 89000, 8, "Fresh, elegant unisex fragrance.", 11, 3, false},
}

// seedProducts builds the fixture catalog. Flash-sale items end six hours
// after now.
func seedProducts(now time.Time, categories []catalog.Category) []catalog.Product {
	end := now.Add(flashSaleWindow)
	out := make([]catalog.Product, 0, len(productSeeds))
	for i, seed := range productSeeds {
		category := categories[seed.category]
		p := catalog.Product{
			ID:        types.ID(strconv.Itoa(i + 1)),
			Name:      seed.name,
			Price:     seed.price,
			Discount:  seed.sale,
			Content:   seed.content,
			Remaining: seed.count,
			Image:     placeholderImage,
			Category:  &category,
			FlashSale: seed.flashSale,
		}
		if seed.flashSale {
			deadline := end
			p.FlashSaleEndTime = &deadline
		}
		out = append(out, p)
	}
	return out
}

func seedUser() catalog.User {
	return catalog.User{
		ID:       "1",
		Email:    "user@example.com",
		Username: DemoUsername,
		Name:     "Test User",
		Phone:    "01012345678",
		Role:     "USER",
	}
}

func seedWishlist(products []catalog.Product) []catalog.WishlistItem {
	rows := []struct {
		id, product int
		at          string
	}{
		{1, 1, "2024-01-15T10:00:00Z"},
		{2, 4, "2024-01-14T15:30:00Z"},
		{3, 9, "2024-01-13T09:45:00Z"},
	}
	out := make([]catalog.WishlistItem, 0, len(rows))
	for _, row := range rows {
		p := products[row.product-1]
		out = append(out, catalog.WishlistItem{
			ID:           types.ID(strconv.Itoa(row.id)),
			ProductID:    p.ID,
			ProductName:  p.Name,
			ProductPrice: p.Price,
			ProductImage: p.Image,
			CreatedAt:    mustTime(row.at),
		})
	}
	return out
}

func seedShipping(memo string) catalog.ShippingInfo {
	return catalog.ShippingInfo{
		Name:          "Hong Gildong",
		Phone:         "01012345678",
		Address:       "123 Teheran-ro, Gangnam-gu, Seoul",
		DetailAddress: "Unit 456",
		PostalCode:    "12345",
		Memo:          memo,
	}
}

func seedOrders() []catalog.Order {
	return []catalog.Order{
		{
			ID:     "1",
			UserID: "1",
			Items: []catalog.OrderItem{
				{ProductID: "1", Quantity: 1, Price: 2590000},
				{ProductID: "4", Quantity: 2, Price: 229000},
			},
			TotalAmount:  3048000,
			Status:       catalog.OrderStatusConfirmed,
			ShippingInfo: seedShipping("Please leave it at the door"),
			CreatedAt:    mustTime("2024-01-15T10:00:00Z"),
			UpdatedAt:    mustTime("2024-01-15T10:05:00Z"),
		},
		{
			ID:     "2",
			UserID: "1",
			Items: []catalog.OrderItem{
				{ProductID: "3", Quantity: 1, Price: 189000},
			},
			TotalAmount:  189000,
			Status:       catalog.OrderStatusPending,
			ShippingInfo: seedShipping("Please call before delivery"),
			CreatedAt:    mustTime("2024-01-14T15:30:00Z"),
			UpdatedAt:    mustTime("2024-01-14T15:30:00Z"),
		},
	}
}

func mustTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		panic(err)
	}
	return t
}
