package users

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/cartsync-backend/pkg/db/models"
	"github.com/angelmondragon/cartsync-backend/pkg/types"
)

// Repository exposes user and address-book persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByEmail retrieves the user matching the provided email, case-insensitively.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID loads a user by their UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Exists reports whether a user row with id is present.
func (r *Repository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateLastLogin refreshes the user's last_login_at timestamp.
func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at.UTC()).Error
}

// UpdateProfile writes the non-nil fields of patch.
func (r *Repository) UpdateProfile(ctx context.Context, id uuid.UUID, patch ProfilePatch) error {
	updates := map[string]any{}
	if patch.Name != nil {
		updates["name"] = strings.TrimSpace(*patch.Name)
	}
	if patch.Phone != nil {
		updates["phone"] = strings.TrimSpace(*patch.Phone)
	}
	if len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now().UTC()
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// ListAddresses returns the user's address book in list order.
func (r *Repository) ListAddresses(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	var rows []models.Address
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("position ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// AppendAddress stores addr after the user's last address.
func (r *Repository) AppendAddress(ctx context.Context, userID uuid.UUID, addr types.Address) (*models.Address, error) {
	var next struct{ Max *int }
	if err := r.db.WithContext(ctx).
		Model(&models.Address{}).
		Select("MAX(position) AS max").
		Where("user_id = ?", userID).
		Scan(&next).Error; err != nil {
		return nil, err
	}
	position := 0
	if next.Max != nil {
		position = *next.Max + 1
	}

	row := addressModel(userID, position, addr)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// ReplaceAddresses swaps the whole address book for addrs. Callers run it
// inside a transaction.
func (r *Repository) ReplaceAddresses(ctx context.Context, userID uuid.UUID, addrs []types.Address) error {
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.Address{}).Error; err != nil {
		return err
	}
	if len(addrs) == 0 {
		return nil
	}
	rows := make([]models.Address, 0, len(addrs))
	for i, addr := range addrs {
		rows = append(rows, addressModel(userID, i, addr))
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

func addressModel(userID uuid.UUID, position int, addr types.Address) models.Address {
	addr = addr.Normalize()
	return models.Address{
		UserID:    userID,
		Position:  position,
		Street:    addr.Street,
		City:      addr.City,
		State:     addr.State,
		ZipCode:   addr.ZipCode,
		Country:   addr.Country,
		IsDefault: addr.IsDefault,
	}
}
