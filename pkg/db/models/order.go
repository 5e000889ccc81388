package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/cartsync-backend/pkg/enums"
	"github.com/angelmondragon/cartsync-backend/pkg/types"
)

// Order is an immutable record of a checkout. Items and Address are copies,
// so later cart or profile edits never reach a placed order.
type Order struct {
	ID             uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	UserID         uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index:ix_orders_user_placed,priority:1"`
	Items          []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Address        types.Address     `gorm:"column:address;type:jsonb;not null"`
	Total          decimal.Decimal   `gorm:"column:total;type:numeric(12,2);not null"`
	Status         enums.OrderStatus `gorm:"column:status;type:text;not null"`
	TrackingNumber string            `gorm:"column:tracking_number;not null;uniqueIndex:ux_orders_tracking_number"`
	PlacedAt       time.Time         `gorm:"column:placed_at;not null;index:ix_orders_user_placed,priority:2"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// OrderItem is the owned copy of one cart line at checkout time.
type OrderItem struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index:ix_order_items_order"`
	Position  int             `gorm:"column:position;not null"`
	ProductID int             `gorm:"column:product_id;not null"`
	Quantity  int             `gorm:"column:quantity;not null"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Name      string          `gorm:"column:name;not null"`
	Image     string          `gorm:"column:image;not null;default:''"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
