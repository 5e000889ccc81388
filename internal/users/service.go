package users

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/cartsync-backend/pkg/db"
	pkgerrors "github.com/angelmondragon/cartsync-backend/pkg/errors"
	"github.com/angelmondragon/cartsync-backend/pkg/types"
)

// Service exposes the profile and address-book operations of a signed-in user.
type Service interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, patch ProfilePatch) (*ProfileDTO, error)
	ListAddresses(ctx context.Context, userID uuid.UUID) ([]types.Address, error)
	AddAddress(ctx context.Context, userID uuid.UUID, addr types.Address) ([]types.Address, error)
}

type service struct {
	db *db.Client
}

// NewService builds a profile service over the provided database client.
func NewService(client *db.Client) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("database client required")
	}
	return &service{db: client}, nil
}

func (s *service) GetProfile(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error) {
	return s.loadProfile(ctx, NewRepository(s.db.DB()), userID)
}

func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, patch ProfilePatch) (*ProfileDTO, error) {
	if patch.Addresses != nil {
		for i, addr := range *patch.Addresses {
			if err := addr.Validate(); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid address").
					WithDetails(map[string]any{"index": i})
			}
		}
	}

	var profile *ProfileDTO
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		if _, err := s.requireUser(ctx, repo, userID); err != nil {
			return err
		}
		if err := repo.UpdateProfile(ctx, userID, patch); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update profile")
		}
		if patch.Addresses != nil {
			if err := repo.ReplaceAddresses(ctx, userID, *patch.Addresses); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "replace addresses")
			}
		}
		loaded, err := s.loadProfile(ctx, repo, userID)
		if err != nil {
			return err
		}
		profile = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *service) ListAddresses(ctx context.Context, userID uuid.UUID) ([]types.Address, error) {
	repo := NewRepository(s.db.DB())
	if _, err := s.requireUser(ctx, repo, userID); err != nil {
		return nil, err
	}
	rows, err := repo.ListAddresses(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list addresses")
	}
	return AddressesFromModels(rows), nil
}

func (s *service) AddAddress(ctx context.Context, userID uuid.UUID, addr types.Address) ([]types.Address, error) {
	if err := addr.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid address")
	}

	var out []types.Address
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		if _, err := s.requireUser(ctx, repo, userID); err != nil {
			return err
		}
		if _, err := repo.AppendAddress(ctx, userID, addr); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "add address")
		}
		rows, err := repo.ListAddresses(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list addresses")
		}
		out = AddressesFromModels(rows)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) loadProfile(ctx context.Context, repo *Repository, userID uuid.UUID) (*ProfileDTO, error) {
	user, err := s.requireUser(ctx, repo, userID)
	if err != nil {
		return nil, err
	}
	rows, err := repo.ListAddresses(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list addresses")
	}
	return &ProfileDTO{
		UserDTO:   *user,
		Addresses: AddressesFromModels(rows),
	}, nil
}

func (s *service) requireUser(ctx context.Context, repo *Repository, userID uuid.UUID) (*UserDTO, error) {
	user, err := repo.FindByID(ctx, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	return FromModel(user), nil
}
