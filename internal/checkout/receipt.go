package checkout

import (
	"time"

	"github.com/flashmarket/storefront/internal/catalog"
	"github.com/flashmarket/storefront/pkg/types"
)

// ReceiptItem is one purchased line as it was priced at submission.
type ReceiptItem struct {
	ProductID types.ID `json:"productId"`
	Name      string   `json:"name"`
	Image     string   `json:"image,omitempty"`
	Price     int64    `json:"price"`
	Discount  int      `json:"discount"`
	UnitPrice int64    `json:"unitPrice"`
	Quantity  int      `json:"quantity"`
	LineTotal int64    `json:"lineTotal"`
}

// Receipt is the immutable record of a submitted order shown on the
// order-success page.
type Receipt struct {
	ID            string        `gorm:"column:id;primaryKey" json:"id"`
	OrderID       string        `gorm:"column:order_id" json:"orderId"`
	UserID        string        `gorm:"column:user_id" json:"userId"`
	SessionID     string        `gorm:"column:session_id" json:"-"`
	Status        string        `gorm:"column:status" json:"status"`
	PaymentMethod string        `gorm:"column:payment_method" json:"paymentMethod"`
	RecipientName string        `gorm:"column:recipient_name" json:"recipientName"`
	Phone         string        `gorm:"column:phone" json:"phone"`
	Address       string        `gorm:"column:address" json:"address"`
	AddressDetail string        `gorm:"column:address_detail" json:"detailAddress"`
	PostalCode    string        `gorm:"column:postal_code" json:"postalCode"`
	Memo          string        `gorm:"column:memo" json:"memo"`
	Items         []ReceiptItem `gorm:"column:items;serializer:json" json:"items"`
	ItemCount     int           `gorm:"column:item_count" json:"itemCount"`
	ListTotal     int64         `gorm:"column:list_total" json:"listTotal"`
	Subtotal      int64         `gorm:"column:subtotal" json:"subtotal"`
	Discount      int64         `gorm:"column:discount" json:"discount"`
	ShippingFee   int64         `gorm:"column:shipping_fee" json:"shippingFee"`
	Total         int64         `gorm:"column:total" json:"total"`
	CreatedAt     time.Time     `gorm:"column:created_at" json:"createdAt"`
}

func (Receipt) TableName() string { return "order_receipts" }

// Shipping returns the delivery address recorded on the receipt.
func (r Receipt) Shipping() catalog.ShippingInfo {
	return catalog.ShippingInfo{
		Name:          r.RecipientName,
		Phone:         r.Phone,
		Address:       r.Address,
		DetailAddress: r.AddressDetail,
		PostalCode:    r.PostalCode,
		Memo:          r.Memo,
	}
}

// StatusLabel is the shopper-facing status text.
func (r Receipt) StatusLabel() string {
	return catalog.OrderStatus(r.Status).Label()
}
