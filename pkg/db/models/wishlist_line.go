package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// WishlistLine is a saved product; at most one per product per user.
type WishlistLine struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	UserID       uuid.UUID       `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ux_wishlist_lines_user_product,priority:1"`
	ProductID    int             `gorm:"column:product_id;not null;uniqueIndex:ux_wishlist_lines_user_product,priority:2"`
	ProductName  string          `gorm:"column:product_name;not null"`
	ProductImage string          `gorm:"column:product_image;not null;default:''"`
	ProductPrice decimal.Decimal `gorm:"column:product_price;type:numeric(12,2);not null"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (l *WishlistLine) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
