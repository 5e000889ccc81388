package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderPlacedEvent is emitted in the same transaction that persists an order.
type OrderPlacedEvent struct {
	OrderID        uuid.UUID       `json:"orderId"`
	UserID         uuid.UUID       `json:"userId"`
	TrackingNumber string          `json:"trackingNumber"`
	Total          decimal.Decimal `json:"total"`
	ItemCount      int             `json:"itemCount"`
	Items          []OrderLine     `json:"items"`
	PlacedAt       time.Time       `json:"placedAt"`
}

type OrderLine struct {
	ProductID int             `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}
