package users

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/cartsync-backend/pkg/db/models"
	"github.com/angelmondragon/cartsync-backend/pkg/types"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID          uuid.UUID  `json:"id"`
	Username    string     `json:"username"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// ProfileDTO is a user together with their address book.
type ProfileDTO struct {
	UserDTO
	Addresses []types.Address `json:"addresses"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Username     string
	Name         string
	Email        string
	Phone        string
	PasswordHash string
}

// ProfilePatch is a partial profile update; nil fields keep their stored value.
type ProfilePatch struct {
	Name      *string          `json:"name,omitempty"`
	Phone     *string          `json:"phone,omitempty"`
	Addresses *[]types.Address `json:"addresses,omitempty"`
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:          u.ID,
		Username:    u.Username,
		Name:        u.Name,
		Email:       u.Email,
		Phone:       u.Phone,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// AddressesFromModels converts stored rows into their transport shape.
func AddressesFromModels(rows []models.Address) []types.Address {
	out := make([]types.Address, 0, len(rows))
	for _, row := range rows {
		out = append(out, types.Address{
			Street:    row.Street,
			City:      row.City,
			State:     row.State,
			ZipCode:   row.ZipCode,
			Country:   row.Country,
			IsDefault: row.IsDefault,
		})
	}
	return out
}

func (c CreateUserDTO) ToModel() *models.User {
	return &models.User{
		Username:     strings.TrimSpace(c.Username),
		Name:         strings.TrimSpace(c.Name),
		Email:        strings.ToLower(strings.TrimSpace(c.Email)),
		Phone:        strings.TrimSpace(c.Phone),
		PasswordHash: c.PasswordHash,
	}
}
