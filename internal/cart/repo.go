package cart

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/cartsync-backend/pkg/db/models"
)

// MaxLineQuantity caps the quantity of a single cart line.
const MaxLineQuantity = 999

// ErrQuantityLimit reports a merge that would push a line past MaxLineQuantity.
var ErrQuantityLimit = errors.New("cart line quantity limit exceeded")

// Repository exposes persistence operations for cart lines.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// List returns the user's lines in insertion order.
func (r *Repository) List(ctx context.Context, userID uuid.UUID) ([]models.CartLine, error) {
	var rows []models.CartLine
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Increment adds n to an existing line in one statement and reports whether
// a line was there to update. ErrQuantityLimit means the line exists but the
// sum would exceed MaxLineQuantity.
func (r *Repository) Increment(ctx context.Context, userID uuid.UUID, productID, n int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.CartLine{}).
		Where("user_id = ? AND product_id = ? AND quantity <= ?", userID, productID, MaxLineQuantity-n).
		Updates(map[string]any{
			"quantity":   gorm.Expr("quantity + ?", n),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return true, nil
	}

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.CartLine{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, ErrQuantityLimit
	}
	return false, nil
}

// Upsert inserts line, or adds its quantity to the line a concurrent request
// inserted first. The merge is skipped with ErrQuantityLimit when it would
// exceed MaxLineQuantity.
func (r *Repository) Upsert(ctx context.Context, line *models.CartLine) error {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"quantity":   gorm.Expr("cart_lines.quantity + excluded.quantity"),
				"updated_at": time.Now().UTC(),
			}),
			Where: clause.Where{Exprs: []clause.Expression{
				gorm.Expr("cart_lines.quantity + excluded.quantity <= ?", MaxLineQuantity),
			}},
		}).
		Create(line)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrQuantityLimit
	}
	return nil
}

// SetQuantity overwrites the quantity of an existing line.
func (r *Repository) SetQuantity(ctx context.Context, userID uuid.UUID, productID, quantity int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.CartLine{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Updates(map[string]any{
			"quantity":   quantity,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Delete removes one line and reports whether it existed.
func (r *Repository) Delete(ctx context.Context, userID uuid.UUID, productID int) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.CartLine{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Clear removes every line of the user's cart.
func (r *Repository) Clear(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.CartLine{}).Error
}
