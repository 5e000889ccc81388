package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CartLine is one product/quantity pairing in a user's cart. The product
// columns are a snapshot taken when the line was first added.
type CartLine struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	UserID       uuid.UUID       `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ux_cart_lines_user_product,priority:1"`
	ProductID    int             `gorm:"column:product_id;not null;uniqueIndex:ux_cart_lines_user_product,priority:2"`
	Quantity     int             `gorm:"column:quantity;not null;check:ck_cart_lines_quantity,quantity >= 1"`
	ProductName  string          `gorm:"column:product_name;not null"`
	ProductImage string          `gorm:"column:product_image;not null;default:''"`
	ProductPrice decimal.Decimal `gorm:"column:product_price;type:numeric(12,2);not null"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (l *CartLine) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
