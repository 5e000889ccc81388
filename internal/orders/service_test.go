package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/cartsync-backend/internal/cart"
	"github.com/angelmondragon/cartsync-backend/internal/users"
	"github.com/angelmondragon/cartsync-backend/pkg/catalog"
	"github.com/angelmondragon/cartsync-backend/pkg/db"
	"github.com/angelmondragon/cartsync-backend/pkg/db/dbtest"
	"github.com/angelmondragon/cartsync-backend/pkg/db/models"
	"github.com/angelmondragon/cartsync-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/cartsync-backend/pkg/errors"
	"github.com/angelmondragon/cartsync-backend/pkg/outbox"
	"github.com/angelmondragon/cartsync-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/cartsync-backend/pkg/pagination"
	"github.com/angelmondragon/cartsync-backend/pkg/types"
)

type fixedCatalog struct{}

func (fixedCatalog) GetProduct(_ context.Context, id int) (*catalog.Product, error) {
	return &catalog.Product{ID: id, Title: fmt.Sprintf("Product %d", id), Price: decimal.NewFromInt(10)}, nil
}
func (fixedCatalog) ListProducts(context.Context, string) ([]catalog.Product, error) { return nil, nil }
func (fixedCatalog) ListCategories(context.Context) ([]string, error)                 { return nil, nil }

type failingClearer struct{}

func (failingClearer) Clear(context.Context, uuid.UUID) (*cart.CartDTO, error) {
	return nil, errors.New("clear failed")
}

type fixture struct {
	client *db.Client
	svc    Service
	cart   cart.Service
	userID uuid.UUID
}

func newFixture(t *testing.T, clearer cartClearer) fixture {
	t.Helper()
	client := dbtest.Open(t)
	user := dbtest.SeedUser(t, client, "buyer@example.com")
	userRepo := users.NewRepository(client.DB())

	cartSvc, err := cart.NewService(cart.ServiceParams{
		Lines:   cart.NewRepository(client.DB()),
		Users:   userRepo,
		Catalog: fixedCatalog{},
	})
	require.NoError(t, err)
	if clearer == nil {
		clearer = cartSvc
	}

	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, err := NewService(ServiceParams{
		Tx:     client,
		Repo:   NewRepository(client.DB()),
		Outbox: outbox.NewService(outbox.NewRepository(client.DB()), nil),
		Cart:   clearer,
		Users:  userRepo,
		Clock: func() time.Time {
			clock = clock.Add(time.Minute)
			return clock
		},
	})
	require.NoError(t, err)
	return fixture{client: client, svc: svc, cart: cartSvc, userID: user.ID}
}

func testAddress() types.Address {
	return types.Address{Street: "1 Main St", City: "Springfield", ZipCode: "12345", Country: "US"}
}

func TestPlaceOrderComputesTotalAndClearsCart(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.cart.AddItem(ctx, f.userID, 1, 2)
	require.NoError(t, err)

	order, err := f.svc.PlaceOrder(ctx, f.userID, PlaceOrderInput{
		Items: []ItemInput{
			{ProductID: 1, Quantity: 2, Price: decimal.RequireFromString("10.10"), Name: "A"},
			{ProductID: 2, Quantity: 1, Price: decimal.RequireFromString("0.20"), Name: "B"},
		},
		Address: testAddress(),
	})
	require.NoError(t, err)

	assert.True(t, decimal.RequireFromString("20.40").Equal(order.Total), "got %s", order.Total)
	assert.Equal(t, enums.OrderStatusPending, order.Status)
	assert.Regexp(t, `^TRK\d{10}$`, order.TrackingNumber)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "A", order.Items[0].Name)

	current, err := f.cart.GetCart(ctx, f.userID, false)
	require.NoError(t, err)
	assert.Empty(t, current.Items)

	var events []models.OutboxEvent
	require.NoError(t, f.client.DB().Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, enums.EventOrderPlaced, events[0].EventType)

	var env outbox.PayloadEnvelope
	require.NoError(t, json.Unmarshal(events[0].Payload, &env))
	var data payloads.OrderPlacedEvent
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, order.ID, data.OrderID)
	assert.Equal(t, 3, data.ItemCount)
}

func TestPlaceOrderEmptyItemsCreatesNothing(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.PlaceOrder(ctx, f.userID, PlaceOrderInput{Address: testAddress()})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	var count int64
	require.NoError(t, f.client.DB().Model(&models.Order{}).Where("user_id = ?", f.userID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestPlaceOrderRejectsBadItems(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	cases := []ItemInput{
		{ProductID: 1, Quantity: 0, Price: decimal.NewFromInt(1)},
		{ProductID: 1, Quantity: 1, Price: decimal.NewFromInt(-1)},
		{ProductID: 0, Quantity: 1, Price: decimal.NewFromInt(1)},
		{ProductID: 1, Quantity: 1000, Price: decimal.NewFromInt(1)},
	}
	for _, item := range cases {
		_, err := f.svc.PlaceOrder(ctx, f.userID, PlaceOrderInput{Items: []ItemInput{item}, Address: testAddress()})
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "item %+v", item)
	}

	_, err := f.svc.PlaceOrder(ctx, f.userID, PlaceOrderInput{
		Items: []ItemInput{{ProductID: 1, Quantity: 1, Price: decimal.NewFromInt(1)}},
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestPlaceOrderKeepsOrderWhenCartClearFails(t *testing.T) {
	f := newFixture(t, failingClearer{})
	ctx := context.Background()

	order, err := f.svc.PlaceOrder(ctx, f.userID, PlaceOrderInput{
		Items:   []ItemInput{{ProductID: 1, Quantity: 1, Price: decimal.NewFromInt(5)}},
		Address: testAddress(),
	})
	require.NoError(t, err)

	got, err := f.svc.Get(ctx, f.userID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.TrackingNumber, got.TrackingNumber)
}

func TestListNewestFirstWithCursor(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	var placed []uuid.UUID
	for i := 0; i < 3; i++ {
		order, err := f.svc.PlaceOrder(ctx, f.userID, PlaceOrderInput{
			Items:   []ItemInput{{ProductID: i + 1, Quantity: 1, Price: decimal.NewFromInt(1)}},
			Address: testAddress(),
		})
		require.NoError(t, err)
		placed = append(placed, order.ID)
	}

	first, err := f.svc.List(ctx, f.userID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Orders, 2)
	assert.Equal(t, placed[2], first.Orders[0].ID)
	assert.Equal(t, placed[1], first.Orders[1].ID)
	require.NotEmpty(t, first.NextCursor)

	second, err := f.svc.List(ctx, f.userID, pagination.Params{Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Orders, 1)
	assert.Equal(t, placed[0], second.Orders[0].ID)
	assert.Empty(t, second.NextCursor)

	_, err = f.svc.List(ctx, f.userID, pagination.Params{Cursor: "%%%"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestGetRejectsOtherUsersOrder(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	other := dbtest.SeedUser(t, f.client, "other@example.com")

	order, err := f.svc.PlaceOrder(ctx, f.userID, PlaceOrderInput{
		Items:   []ItemInput{{ProductID: 1, Quantity: 1, Price: decimal.NewFromInt(1)}},
		Address: testAddress(),
	})
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, other.ID, order.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = f.svc.Get(ctx, f.userID, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestPlaceOrderRetriesTrackingCollision(t *testing.T) {
	client := dbtest.Open(t)
	user := dbtest.SeedUser(t, client, "retry@example.com")
	userRepo := users.NewRepository(client.DB())
	cartSvc, err := cart.NewService(cart.ServiceParams{Lines: cart.NewRepository(client.DB()), Users: userRepo, Catalog: fixedCatalog{}})
	require.NoError(t, err)

	numbers := []string{"TRK0000000001", "TRK0000000001", "TRK0000000002"}
	svc, err := NewService(ServiceParams{
		Tx:     client,
		Repo:   NewRepository(client.DB()),
		Outbox: outbox.NewService(outbox.NewRepository(client.DB()), nil),
		Cart:   cartSvc,
		Users:  userRepo,
		Tracking: func() (string, error) {
			next := numbers[0]
			numbers = numbers[1:]
			return next, nil
		},
	})
	require.NoError(t, err)

	input := PlaceOrderInput{
		Items:   []ItemInput{{ProductID: 1, Quantity: 1, Price: decimal.NewFromInt(1)}},
		Address: testAddress(),
	}
	first, err := svc.PlaceOrder(context.Background(), user.ID, input)
	require.NoError(t, err)
	second, err := svc.PlaceOrder(context.Background(), user.ID, input)
	require.NoError(t, err)

	assert.Equal(t, "TRK0000000001", first.TrackingNumber)
	assert.Equal(t, "TRK0000000002", second.TrackingNumber)
}

func TestNewTrackingNumberFormat(t *testing.T) {
	for i := 0; i < 20; i++ {
		n, err := NewTrackingNumber()
		require.NoError(t, err)
		assert.Regexp(t, `^TRK\d{10}$`, n)
	}
}
