package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/cartsync-backend/pkg/db/models"
	"github.com/angelmondragon/cartsync-backend/pkg/enums"
	"github.com/angelmondragon/cartsync-backend/pkg/types"
)

// ItemInput is one line of the cart snapshot sent when placing an order.
type ItemInput struct {
	ProductID int             `json:"productId" validate:"required,gt=0"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Name      string          `json:"name"`
	Image     string          `json:"image"`
}

// PlaceOrderInput is the body of POST /api/orders.
type PlaceOrderInput struct {
	Items   []ItemInput   `json:"items"`
	Address types.Address `json:"address"`
}

// ItemDTO is an order line as returned to clients.
type ItemDTO struct {
	ProductID int             `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Name      string          `json:"name"`
	Image     string          `json:"image"`
}

// OrderDTO is the transport shape of a placed order.
type OrderDTO struct {
	ID             uuid.UUID         `json:"id"`
	Items          []ItemDTO         `json:"items"`
	Address        types.Address     `json:"address"`
	Total          decimal.Decimal   `json:"total"`
	Date           time.Time         `json:"date"`
	Status         enums.OrderStatus `json:"status"`
	TrackingNumber string            `json:"trackingNumber"`
}

// OrderList is one page of a user's orders.
type OrderList struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"nextCursor,omitempty"`
}

func fromModel(o models.Order) OrderDTO {
	items := make([]ItemDTO, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, ItemDTO{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
			Name:      item.Name,
			Image:     item.Image,
		})
	}
	return OrderDTO{
		ID:             o.ID,
		Items:          items,
		Address:        o.Address,
		Total:          o.Total,
		Date:           o.PlacedAt,
		Status:         o.Status,
		TrackingNumber: o.TrackingNumber,
	}
}
