package cartclient

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/cartsync-backend/pkg/errors"
	"github.com/angelmondragon/cartsync-backend/pkg/types"
)

func TestSessionListAndGetOrders(t *testing.T) {
	_, session := newFakeService(t)
	store := NewCartStore(session)
	ctx := context.Background()

	_, err := store.Add(ctx, 1, 1)
	require.NoError(t, err)
	placed, err := store.PlaceOrder(ctx, PlaceOrderParams{Address: types.Address{Street: "a", City: "b", ZipCode: "c", Country: "d"}})
	require.NoError(t, err)

	page, err := session.ListOrders(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, page.Orders, 1)
	require.Equal(t, "next-page", page.NextCursor)

	page, err = session.ListOrders(ctx, page.NextCursor, 10)
	require.NoError(t, err)
	require.Empty(t, page.NextCursor)

	got, err := session.GetOrder(ctx, placed.ID)
	require.NoError(t, err)
	require.Equal(t, placed.TrackingNumber, got.TrackingNumber)

	_, err = session.GetOrder(ctx, uuid.New())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
