package wishlist

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/cartsync-backend/pkg/db/models"
)

// Repository encapsulates wishlist persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a wishlist repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// List returns the user's saved products in the order they were added.
func (r *Repository) List(ctx context.Context, userID uuid.UUID) ([]models.WishlistLine, error) {
	var rows []models.WishlistLine
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Contains reports whether productID is already saved.
func (r *Repository) Contains(ctx context.Context, userID uuid.UUID, productID int) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.WishlistLine{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Add inserts line and ignores duplicates.
func (r *Repository) Add(ctx context.Context, line *models.WishlistLine) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
			DoNothing: true,
		}).
		Create(line).Error
}

// Remove deletes the saved product and reports whether it existed.
func (r *Repository) Remove(ctx context.Context, userID uuid.UUID, productID int) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.WishlistLine{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
