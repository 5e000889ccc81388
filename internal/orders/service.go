package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/cartsync-backend/internal/cart"
	"github.com/angelmondragon/cartsync-backend/pkg/db"
	"github.com/angelmondragon/cartsync-backend/pkg/db/models"
	"github.com/angelmondragon/cartsync-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/cartsync-backend/pkg/errors"
	"github.com/angelmondragon/cartsync-backend/pkg/logger"
	"github.com/angelmondragon/cartsync-backend/pkg/metrics"
	"github.com/angelmondragon/cartsync-backend/pkg/outbox"
	"github.com/angelmondragon/cartsync-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/cartsync-backend/pkg/pagination"
	"github.com/angelmondragon/cartsync-backend/pkg/types"
)

const maxTrackingAttempts = 3

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type orderRepository interface {
	WithTx(tx *gorm.DB) *Repository
	ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, error)
	FindForUser(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type cartClearer interface {
	Clear(ctx context.Context, userID uuid.UUID) (*cart.CartDTO, error)
}

type userChecker interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// Service places and reads orders.
type Service interface {
	PlaceOrder(ctx context.Context, userID uuid.UUID, input PlaceOrderInput) (*OrderDTO, error)
	List(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error)
	Get(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error)
}

// ServiceParams bundles the order service dependencies.
type ServiceParams struct {
	Tx       txRunner
	Repo     orderRepository
	Outbox   eventEmitter
	Cart     cartClearer
	Users    userChecker
	Metrics  *metrics.ShopMetrics
	Logger   *logger.Logger
	Tracking func() (string, error)
	Clock    func() time.Time
}

type service struct {
	tx       txRunner
	repo     orderRepository
	outbox   eventEmitter
	cart     cartClearer
	users    userChecker
	metrics  *metrics.ShopMetrics
	logg     *logger.Logger
	tracking func() (string, error)
	clock    func() time.Time
}

// NewService builds an order service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case params.Repo == nil:
		return nil, fmt.Errorf("order repository required")
	case params.Outbox == nil:
		return nil, fmt.Errorf("outbox emitter required")
	case params.Cart == nil:
		return nil, fmt.Errorf("cart service required")
	case params.Users == nil:
		return nil, fmt.Errorf("user checker required")
	}
	s := &service{
		tx:       params.Tx,
		repo:     params.Repo,
		outbox:   params.Outbox,
		cart:     params.Cart,
		users:    params.Users,
		metrics:  params.Metrics,
		logg:     params.Logger,
		tracking: params.Tracking,
		clock:    params.Clock,
	}
	if s.logg == nil {
		s.logg = logger.Nop()
	}
	if s.tracking == nil {
		s.tracking = NewTrackingNumber
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	return s, nil
}

// PlaceOrder persists the order, its items and an order_placed event in one
// transaction, then clears the cart. A failed clear is logged and the order stands.
func (s *service) PlaceOrder(ctx context.Context, userID uuid.UUID, input PlaceOrderInput) (*OrderDTO, error) {
	items, total, err := buildItems(input.Items)
	if err != nil {
		return nil, err
	}
	if err := input.Address.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	var order models.Order
	for attempt := 1; ; attempt++ {
		order, err = s.persist(ctx, userID, items, input.Address.Normalize(), total)
		if err == nil {
			break
		}
		if attempt < maxTrackingAttempts && db.IsUniqueViolation(err, "") {
			continue
		}
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist order")
	}

	ctx = s.logg.WithOrderID(ctx, order.ID.String())
	s.metrics.ObserveOrder(total.InexactFloat64())
	s.logg.Info(s.logg.WithField(ctx, "tracking_number", order.TrackingNumber), "order.placed")

	if _, err := s.cart.Clear(ctx, userID); err != nil {
		s.logg.Error(ctx, "order.cart_clear_failed", err)
	}

	dto := fromModel(order)
	return &dto, nil
}

func (s *service) persist(ctx context.Context, userID uuid.UUID, items []models.OrderItem, addr types.Address, total decimal.Decimal) (models.Order, error) {
	tracking, err := s.tracking()
	if err != nil {
		return models.Order{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "tracking number")
	}
	order := models.Order{
		ID:             uuid.New(),
		UserID:         userID,
		Items:          append([]models.OrderItem(nil), items...),
		Address:        addr,
		Total:          total,
		Status:         enums.OrderStatusPending,
		TrackingNumber: tracking,
		PlacedAt:       s.clock().UTC().Truncate(time.Microsecond),
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, &order); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPlaced,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.Actor{UserID: userID},
			Data:          orderPlacedPayload(order),
			OccurredAt:    order.PlacedAt,
		})
	})
	return order, err
}

func (s *service) List(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		if errors.Is(err, pagination.ErrInvalidCursor) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}

	page, next := pagination.Page(rows, params.Limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{At: o.PlacedAt, ID: o.ID}
	})
	out := &OrderList{Orders: make([]OrderDTO, 0, len(page)), NextCursor: next}
	for _, o := range page {
		out.Orders = append(out.Orders, fromModel(o))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindForUser(ctx, userID, orderID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	dto := fromModel(*order)
	return &dto, nil
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

func buildItems(inputs []ItemInput) ([]models.OrderItem, decimal.Decimal, error) {
	if len(inputs) == 0 {
		return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	items := make([]models.OrderItem, 0, len(inputs))
	total := decimal.Zero
	for i, in := range inputs {
		switch {
		case in.ProductID < 1:
			return nil, decimal.Zero, invalidItem(i, "productId must be positive")
		case in.Quantity < 1:
			return nil, decimal.Zero, invalidItem(i, "quantity must be at least 1")
		case in.Quantity > cart.MaxLineQuantity:
			return nil, decimal.Zero, invalidItem(i, fmt.Sprintf("quantity must not exceed %d", cart.MaxLineQuantity))
		case in.Price.IsNegative():
			return nil, decimal.Zero, invalidItem(i, "price must not be negative")
		}
		items = append(items, models.OrderItem{
			Position:  i,
			ProductID: in.ProductID,
			Quantity:  in.Quantity,
			Price:     in.Price,
			Name:      strings.TrimSpace(in.Name),
			Image:     strings.TrimSpace(in.Image),
		})
		total = total.Add(in.Price.Mul(decimal.NewFromInt(int64(in.Quantity))))
	}
	return items, total, nil
}

func invalidItem(index int, msg string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, msg).WithDetails(map[string]any{"index": index})
}

func orderPlacedPayload(o models.Order) payloads.OrderPlacedEvent {
	lines := make([]payloads.OrderLine, 0, len(o.Items))
	count := 0
	for _, item := range o.Items {
		lines = append(lines, payloads.OrderLine{ProductID: item.ProductID, Quantity: item.Quantity, Price: item.Price})
		count += item.Quantity
	}
	return payloads.OrderPlacedEvent{
		OrderID:        o.ID,
		UserID:         o.UserID,
		TrackingNumber: o.TrackingNumber,
		Total:          o.Total,
		ItemCount:      count,
		Items:          lines,
		PlacedAt:       o.PlacedAt,
	}
}
