package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/cartsync-backend/pkg/catalog"
	"github.com/angelmondragon/cartsync-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/cartsync-backend/pkg/errors"
	"github.com/angelmondragon/cartsync-backend/pkg/logger"
	"github.com/angelmondragon/cartsync-backend/pkg/metrics"
)

const defaultEnrichmentLimit = 4

type lineRepository interface {
	List(ctx context.Context, userID uuid.UUID) ([]models.CartLine, error)
	Increment(ctx context.Context, userID uuid.UUID, productID, n int) (bool, error)
	Upsert(ctx context.Context, line *models.CartLine) error
	SetQuantity(ctx context.Context, userID uuid.UUID, productID, quantity int) (bool, error)
	Delete(ctx context.Context, userID uuid.UUID, productID int) (bool, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

type userChecker interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// Service exposes the cart mutation API. Every call returns the full cart.
type Service interface {
	AddItem(ctx context.Context, userID uuid.UUID, productID, quantity int) (*CartDTO, error)
	UpdateQuantity(ctx context.Context, userID uuid.UUID, productID, quantity int) (*CartDTO, error)
	RemoveItem(ctx context.Context, userID uuid.UUID, productID int) (*CartDTO, error)
	GetCart(ctx context.Context, userID uuid.UUID, live bool) (*CartDTO, error)
	Clear(ctx context.Context, userID uuid.UUID) (*CartDTO, error)
}

// ServiceParams bundles the cart service dependencies.
type ServiceParams struct {
	Lines           lineRepository
	Users           userChecker
	Catalog         catalog.Catalog
	Metrics         *metrics.ShopMetrics
	Logger          *logger.Logger
	EnrichmentLimit int
}

type service struct {
	lines   lineRepository
	users   userChecker
	catalog catalog.Catalog
	metrics *metrics.ShopMetrics
	logg    *logger.Logger
	limit   int
}

// NewService builds a cart service backed by the provided stack.
func NewService(params ServiceParams) (Service, error) {
	if params.Lines == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user checker required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	limit := params.EnrichmentLimit
	if limit <= 0 {
		limit = defaultEnrichmentLimit
	}
	return &service{
		lines:   params.Lines,
		users:   params.Users,
		catalog: params.Catalog,
		metrics: params.Metrics,
		logg:    logg,
		limit:   limit,
	}, nil
}

func (s *service) AddItem(ctx context.Context, userID uuid.UUID, productID, quantity int) (cart *CartDTO, err error) {
	defer func() { s.metrics.IncMutation("cart", "add", err) }()

	if productID < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "productId must be positive")
	}
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if quantity > MaxLineQuantity {
		return nil, quantityLimitError()
	}
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	merged, err := s.lines.Increment(ctx, userID, productID, quantity)
	if errors.Is(err, ErrQuantityLimit) {
		return nil, quantityLimitError()
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "increment cart line")
	}
	if !merged {
		product, err := s.catalog.GetProduct(ctx, productID)
		if err != nil {
			return nil, err
		}
		line := &models.CartLine{
			UserID:       userID,
			ProductID:    productID,
			Quantity:     quantity,
			ProductName:  product.Title,
			ProductImage: product.Image,
			ProductPrice: product.Price,
		}
		if err := s.lines.Upsert(ctx, line); err != nil {
			if errors.Is(err, ErrQuantityLimit) {
				return nil, quantityLimitError()
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "insert cart line")
		}
	}

	return s.load(ctx, userID)
}

func (s *service) UpdateQuantity(ctx context.Context, userID uuid.UUID, productID, quantity int) (cart *CartDTO, err error) {
	if quantity < 1 {
		return s.RemoveItem(ctx, userID, productID)
	}
	defer func() { s.metrics.IncMutation("cart", "update", err) }()

	if quantity > MaxLineQuantity {
		return nil, quantityLimitError()
	}
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	found, err := s.lines.SetQuantity(ctx, userID, productID, quantity)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart line")
	}
	if !found {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")
	}
	return s.load(ctx, userID)
}

func (s *service) RemoveItem(ctx context.Context, userID uuid.UUID, productID int) (cart *CartDTO, err error) {
	defer func() { s.metrics.IncMutation("cart", "remove", err) }()

	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	found, err := s.lines.Delete(ctx, userID, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete cart line")
	}
	if !found {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")
	}
	return s.load(ctx, userID)
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) (cart *CartDTO, err error) {
	defer func() { s.metrics.IncMutation("cart", "clear", err) }()

	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.lines.Clear(ctx, userID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
	}
	return fromModels(nil), nil
}

func (s *service) GetCart(ctx context.Context, userID uuid.UUID, live bool) (*CartDTO, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if live {
		s.enrich(ctx, cart)
	}
	return cart, nil
}

// enrich attaches the current catalog record to each line. A failed lookup
// leaves that line without live data.
func (s *service) enrich(ctx context.Context, cart *CartDTO) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.limit)
	for i := range cart.Items {
		g.Go(func() error {
			productID := cart.Items[i].ProductID
			product, err := s.catalog.GetProduct(gctx, productID)
			if err != nil {
				s.logg.Warn(s.logg.WithField(s.logg.WithProductID(ctx, productID), "error", err.Error()), "cart.live_lookup_failed")
				return nil
			}
			cart.Items[i].Live = product
			return nil
		})
	}
	_ = g.Wait()
}

func (s *service) load(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	rows, err := s.lines.List(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list cart lines")
	}
	return fromModels(rows), nil
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

func quantityLimitError() error {
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity must not exceed %d", MaxLineQuantity))
}
