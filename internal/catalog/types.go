package catalog

import (
	"strings"
	"time"

	"github.com/flashmarket/storefront/pkg/types"
)

// Category groups products; categories may nest one level.
type Category struct {
	ID     types.ID  `json:"id"`
	Name   string    `json:"name"`
	Parent *Category `json:"parentCategory,omitempty"`
}

// Product is the upstream product record. Discount is a percentage in
// [0,100] and Remaining is the number of units still for sale.
type Product struct {
	ID               types.ID   `json:"id"`
	Name             string     `json:"name"`
	Price            int64      `json:"price"`
	Discount         int        `json:"sale"`
	Content          string     `json:"content"`
	Remaining        int        `json:"count"`
	TotalCount       int        `json:"totalCount,omitempty"`
	Image            string     `json:"image"`
	Category         *Category  `json:"category,omitempty"`
	FlashSale        bool       `json:"isFlashSale,omitempty"`
	FlashSaleEndTime *time.Time `json:"flashSaleEndTime,omitempty"`
}

// CategoryName returns the product's category name or "".
func (p Product) CategoryName() string {
	if p.Category == nil {
		return ""
	}
	return p.Category.Name
}

// Query filters and pages a product listing. Page is zero-based.
type Query struct {
	Page     int
	Size     int
	Search   string
	Category string
}

// Matches reports whether p satisfies the category and search filters.
// Category matches by exact name; search is a case-insensitive substring of
// name or content.
func (q Query) Matches(p Product) bool {
	if q.Category != "" && p.CategoryName() != q.Category {
		return false
	}
	if q.Search == "" {
		return true
	}
	needle := strings.ToLower(q.Search)
	return strings.Contains(strings.ToLower(p.Name), needle) ||
		strings.Contains(strings.ToLower(p.Content), needle)
}

// WishlistItem is one saved product for a user.
type WishlistItem struct {
	ID           types.ID  `json:"id"`
	ProductID    types.ID  `json:"productId"`
	ProductName  string    `json:"productName"`
	ProductPrice int64     `json:"productPrice"`
	ProductImage string    `json:"productImage"`
	CreatedAt    time.Time `json:"createdAt"`
}

// OrderStatus is the upstream order lifecycle state.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusReturned  OrderStatus = "RETURNED"
)

var orderStatusLabels = map[OrderStatus]string{
	OrderStatusPending:   "Order received",
	OrderStatusConfirmed: "Order confirmed",
	OrderStatusCancelled: "Order cancelled",
	OrderStatusReturned:  "Return completed",
}

func (s OrderStatus) IsValid() bool {
	_, ok := orderStatusLabels[s]
	return ok
}

// Label is the shopper-facing status text.
func (s OrderStatus) Label() string {
	if label, ok := orderStatusLabels[s]; ok {
		return label
	}
	return string(s)
}

// Cancellable orders have not been confirmed yet.
func (s OrderStatus) Cancellable() bool {
	return s == OrderStatusPending
}

// Returnable orders were confirmed.
func (s OrderStatus) Returnable() bool {
	return s == OrderStatusConfirmed
}

// ShippingInfo is the delivery address attached to an order.
type ShippingInfo struct {
	Name          string `json:"name" validate:"required,max=100"`
	Phone         string `json:"phone" validate:"required,max=32"`
	Address       string `json:"address" validate:"required,max=255"`
	DetailAddress string `json:"detailAddress" validate:"max=255"`
	PostalCode    string `json:"postalCode" validate:"required,max=16"`
	Memo          string `json:"memo" validate:"max=255"`
}

// OrderItem is one line of a placed order. Price is the unit price charged.
type OrderItem struct {
	ProductID types.ID `json:"productId"`
	Quantity  int      `json:"quantity"`
	Price     int64    `json:"price"`
}

// Order is the upstream order record.
type Order struct {
	ID           types.ID     `json:"id"`
	UserID       types.ID     `json:"userId"`
	Items        []OrderItem  `json:"items"`
	TotalAmount  int64        `json:"totalAmount"`
	Status       OrderStatus  `json:"status"`
	ShippingInfo ShippingInfo `json:"shippingInfo"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// User is the authenticated shopper.
type User struct {
	ID       types.ID `json:"id"`
	Email    string   `json:"email,omitempty"`
	Username string   `json:"username"`
	Name     string   `json:"name,omitempty"`
	Phone    string   `json:"phone,omitempty"`
	Role     string   `json:"role,omitempty"`
	IsAdmin  bool     `json:"isAdmin,omitempty"`
}
