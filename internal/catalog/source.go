package catalog

import (
	"context"

	"github.com/flashmarket/storefront/pkg/types"
)

// Source is the read side of the storefront's upstream data. It is
// implemented by the REST backend client and by the in-memory fixture; one of
// them is selected at startup.
type Source interface {
	ListProducts(ctx context.Context, q Query) ([]Product, error)
	GetProduct(ctx context.Context, id types.ID) (Product, error)
	ListCategories(ctx context.Context) ([]Category, error)
	ListWishlist(ctx context.Context, userID types.ID) ([]WishlistItem, error)
	ListOrders(ctx context.Context, userID types.ID) ([]Order, error)
}

// Credentials are exchanged for a token pair at login.
type Credentials struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required,max=128"`
}

// TokenPair is the user service login response.
type TokenPair struct {
	AccessToken  string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// SignupRequest registers a new shopper.
type SignupRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Name     string `json:"name" validate:"required,max=100"`
	Phone    string `json:"phone" validate:"required,max=32"`
	Role     string `json:"role,omitempty" validate:"omitempty,oneof=USER ADMIN"`
}

// Caller identifies the authenticated shopper on upstream calls.
type Caller struct {
	UserID      types.ID
	AccessToken string
}

// UserGateway is the user service surface.
type UserGateway interface {
	Signup(ctx context.Context, req SignupRequest) (string, error)
	Login(ctx context.Context, creds Credentials) (TokenPair, error)
	Logout(ctx context.Context, caller Caller, refreshToken string) error
	UserInfo(ctx context.Context, caller Caller) (User, error)
	SendVerificationEmail(ctx context.Context, email string) (string, error)
	VerifyEmail(ctx context.Context, token string) (string, error)
}

// StockLevel is the product service answer to a stock change.
type StockLevel struct {
	ProductID      types.ID `json:"productId"`
	RemainingStock int      `json:"remainingStock"`
	Success        bool     `json:"success"`
}

// InventoryGateway is the product service stock surface.
type InventoryGateway interface {
	RemainingStock(ctx context.Context, productID types.ID) (int, error)
	DecreaseStock(ctx context.Context, productID types.ID, quantity int) (StockLevel, error)
	RestoreStock(ctx context.Context, productID types.ID, count int) error
}

// WishlistGateway mutates a user's wishlist.
type WishlistGateway interface {
	AddWishlistItem(ctx context.Context, caller Caller, productID types.ID) (WishlistItem, error)
	UpdateWishlistItem(ctx context.Context, caller Caller, itemID, productID types.ID) (WishlistItem, error)
	DeleteWishlistItem(ctx context.Context, caller Caller, itemID types.ID) error
}

// OrderLine is one requested line of a new order.
type OrderLine struct {
	ProductID types.ID `json:"productId"`
	Quantity  int      `json:"quantity"`
}

// OrderRequest is sent to the order service on checkout.
type OrderRequest struct {
	Items         []OrderLine  `json:"items"`
	ShippingInfo  ShippingInfo `json:"shippingInfo"`
	TotalAmount   int64        `json:"totalAmount"`
	PaymentMethod string       `json:"paymentMethod"`
}

// OrderGateway is the order service surface.
type OrderGateway interface {
	CreateOrder(ctx context.Context, caller Caller, req OrderRequest) (string, error)
	CancelOrder(ctx context.Context, caller Caller, orderID types.ID) (Order, error)
	ReturnOrder(ctx context.Context, caller Caller, orderID types.ID) (Order, error)
	UpdateOrderStatuses(ctx context.Context) error
}

// PaymentRequest asks the payment service to charge an order.
type PaymentRequest struct {
	OrderID       types.ID `json:"orderId"`
	Amount        int64    `json:"amount"`
	PaymentMethod string   `json:"paymentMethod"`
	UserID        types.ID `json:"userId"`
}

// PaymentGateway is the payment service surface.
type PaymentGateway interface {
	EnterPayment(ctx context.Context, caller Caller, req PaymentRequest) (string, error)
	ProcessPayment(ctx context.Context, caller Caller, req PaymentRequest) (string, error)
}

// Backend bundles every upstream capability. Both the REST client and the
// fixture implement it.
type Backend interface {
	Source
	UserGateway
	InventoryGateway
	WishlistGateway
	OrderGateway
	PaymentGateway
}
