package cartclient

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/cartsync-backend/pkg/types"
)

// Line is one cart line as the service reports it.
type Line struct {
	ProductID int             `json:"productId"`
	Quantity  int             `json:"quantity"`
	Name      string          `json:"name"`
	Image     string          `json:"image"`
	Price     decimal.Decimal `json:"price"`
	LineTotal decimal.Decimal `json:"lineTotal"`
	AddedAt   time.Time       `json:"addedAt"`
}

// Cart is the canonical cart returned by every cart call.
type Cart struct {
	Items     []Line          `json:"items"`
	ItemCount int             `json:"itemCount"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// WishlistItem is one saved product.
type WishlistItem struct {
	ProductID int             `json:"productId"`
	Name      string          `json:"name"`
	Image     string          `json:"image"`
	Price     decimal.Decimal `json:"price"`
	AddedAt   time.Time       `json:"addedAt"`
}

// OrderItem is one line of a placed order.
type OrderItem struct {
	ProductID int             `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Name      string          `json:"name"`
	Image     string          `json:"image"`
}

// Order is an immutable placed order.
type Order struct {
	ID             uuid.UUID       `json:"id"`
	Items          []OrderItem     `json:"items"`
	Address        types.Address   `json:"address"`
	Total          decimal.Decimal `json:"total"`
	Date           time.Time       `json:"date"`
	Status         string          `json:"status"`
	TrackingNumber string          `json:"trackingNumber"`
}

// OrderPage is one page of order history.
type OrderPage struct {
	Orders     []Order
	NextCursor string
}

type productRef struct {
	ProductID int `json:"productId"`
}

type quantityBody struct {
	ProductID int `json:"productId"`
	Quantity  int `json:"quantity"`
}

type placeOrderBody struct {
	Items   []OrderItem   `json:"items"`
	Address types.Address `json:"address"`
}
