package wishlist

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/cartsync-backend/pkg/catalog"
	"github.com/angelmondragon/cartsync-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/cartsync-backend/pkg/errors"
	"github.com/angelmondragon/cartsync-backend/pkg/metrics"
)

// ItemDTO is one saved product with the snapshot captured when it was added.
type ItemDTO struct {
	ProductID int             `json:"productId"`
	Name      string          `json:"name"`
	Image     string          `json:"image"`
	Price     decimal.Decimal `json:"price"`
	AddedAt   time.Time       `json:"addedAt"`
}

type lineRepository interface {
	List(ctx context.Context, userID uuid.UUID) ([]models.WishlistLine, error)
	Contains(ctx context.Context, userID uuid.UUID, productID int) (bool, error)
	Add(ctx context.Context, line *models.WishlistLine) error
	Remove(ctx context.Context, userID uuid.UUID, productID int) (bool, error)
}

type userChecker interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// ServiceParams groups dependencies for the wishlist service.
type ServiceParams struct {
	Lines   lineRepository
	Users   userChecker
	Catalog catalog.Catalog
	Metrics *metrics.ShopMetrics
}

// Service exposes business rules for wishlist management.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]ItemDTO, error)
	Add(ctx context.Context, userID uuid.UUID, productID int) ([]ItemDTO, error)
	Remove(ctx context.Context, userID uuid.UUID, productID int) ([]ItemDTO, error)
}

type service struct {
	lines   lineRepository
	users   userChecker
	catalog catalog.Catalog
	metrics *metrics.ShopMetrics
}

// NewService builds a wishlist service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Lines == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "wishlist repo is required")
	}
	if params.Users == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "user checker is required")
	}
	if params.Catalog == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "catalog is required")
	}
	return &service{
		lines:   params.Lines,
		users:   params.Users,
		catalog: params.Catalog,
		metrics: params.Metrics,
	}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]ItemDTO, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.load(ctx, userID)
}

// Add saves productID. Saving a product twice is a no-op and skips the catalog.
func (s *service) Add(ctx context.Context, userID uuid.UUID, productID int) (items []ItemDTO, err error) {
	defer func() { s.metrics.IncMutation("wishlist", "add", err) }()

	if productID < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "productId must be positive")
	}
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	present, err := s.lines.Contains(ctx, userID, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check wishlist")
	}
	if !present {
		product, err := s.catalog.GetProduct(ctx, productID)
		if err != nil {
			return nil, err
		}
		if err := s.lines.Add(ctx, &models.WishlistLine{
			UserID:       userID,
			ProductID:    productID,
			ProductName:  product.Title,
			ProductImage: product.Image,
			ProductPrice: product.Price,
		}); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "add wishlist item")
		}
	}
	return s.load(ctx, userID)
}

func (s *service) Remove(ctx context.Context, userID uuid.UUID, productID int) (items []ItemDTO, err error) {
	defer func() { s.metrics.IncMutation("wishlist", "remove", err) }()

	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	found, err := s.lines.Remove(ctx, userID, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove wishlist item")
	}
	if !found {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not in wishlist")
	}
	return s.load(ctx, userID)
}

func (s *service) load(ctx context.Context, userID uuid.UUID) ([]ItemDTO, error) {
	rows, err := s.lines.List(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list wishlist")
	}
	out := make([]ItemDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, ItemDTO{
			ProductID: row.ProductID,
			Name:      row.ProductName,
			Image:     row.ProductImage,
			Price:     row.ProductPrice,
			AddedAt:   row.CreatedAt,
		})
	}
	return out, nil
}

func (s *service) requireUser(ctx context.Context, userID uuid.UUID) error {
	ok, err := s.users.Exists(ctx, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return nil
}
