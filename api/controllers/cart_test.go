package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	cartsvc "github.com/angelmondragon/cartsync-backend/internal/cart"
	pkgerrors "github.com/angelmondragon/cartsync-backend/pkg/errors"
)

type addCall struct {
	userID    uuid.UUID
	productID int
	quantity  int
}

type stubCartService struct {
	cart    *cartsvc.CartDTO
	err     error
	added   []addCall
	updated []addCall
	removed []int
	live    bool
	cleared bool
}

func (s *stubCartService) AddItem(_ context.Context, userID uuid.UUID, productID, quantity int) (*cartsvc.CartDTO, error) {
	s.added = append(s.added, addCall{userID, productID, quantity})
	return s.cart, s.err
}

func (s *stubCartService) UpdateQuantity(_ context.Context, userID uuid.UUID, productID, quantity int) (*cartsvc.CartDTO, error) {
	s.updated = append(s.updated, addCall{userID, productID, quantity})
	return s.cart, s.err
}

func (s *stubCartService) RemoveItem(_ context.Context, _ uuid.UUID, productID int) (*cartsvc.CartDTO, error) {
	s.removed = append(s.removed, productID)
	return s.cart, s.err
}

func (s *stubCartService) GetCart(_ context.Context, _ uuid.UUID, live bool) (*cartsvc.CartDTO, error) {
	s.live = live
	return s.cart, s.err
}

func (s *stubCartService) Clear(context.Context, uuid.UUID) (*cartsvc.CartDTO, error) {
	s.cleared = true
	return &cartsvc.CartDTO{Items: []cartsvc.LineDTO{}}, s.err
}

func sampleCart() *cartsvc.CartDTO {
	return &cartsvc.CartDTO{
		Items: []cartsvc.LineDTO{{
			ProductID: 5,
			Quantity:  5,
			Name:      "Jacket",
			Price:     decimal.RequireFromString("10.50"),
			LineTotal: decimal.RequireFromString("52.50"),
		}},
		ItemCount: 5,
		Subtotal:  decimal.RequireFromString("52.50"),
	}
}

func TestCartAddItemDefaultsQuantity(t *testing.T) {
	svc := &stubCartService{cart: sampleCart()}
	userID := uuid.New()

	rec := httptest.NewRecorder()
	CartAddItem(svc, nil).ServeHTTP(rec, authedRequest(http.MethodPost, "/api/cart", `{"productId":5}`, userID))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []addCall{{userID, 5, 1}}, svc.added)

	var cart cartsvc.CartDTO
	decodeData(t, rec, &cart)
	require.Len(t, cart.Items, 1)
	require.True(t, cart.Subtotal.Equal(decimal.RequireFromString("52.50")))
}

func TestCartAddItemPassesQuantity(t *testing.T) {
	svc := &stubCartService{cart: sampleCart()}
	userID := uuid.New()

	rec := httptest.NewRecorder()
	CartAddItem(svc, nil).ServeHTTP(rec, authedRequest(http.MethodPost, "/api/cart", `{"productId":5,"quantity":3}`, userID))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 3, svc.added[0].quantity)
}

func TestCartAddItemRejectsBadBody(t *testing.T) {
	svc := &stubCartService{}
	for _, body := range []string{`{}`, `{"productId":0}`, `{"productId":1,"extra":true}`, `{"productId":1,"quantity":1000}`, `not json`} {
		rec := httptest.NewRecorder()
		CartAddItem(svc, nil).ServeHTTP(rec, authedRequest(http.MethodPost, "/api/cart", body, uuid.New()))
		require.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
	require.Empty(t, svc.added)
}

func TestCartAddItemMapsServiceErrors(t *testing.T) {
	tests := []struct {
		code   pkgerrors.Code
		status int
	}{
		{pkgerrors.CodeNotFound, http.StatusNotFound},
		{pkgerrors.CodeValidation, http.StatusBadRequest},
		{pkgerrors.CodeUpstream, http.StatusBadGateway},
	}
	for _, tt := range tests {
		svc := &stubCartService{err: pkgerrors.New(tt.code, "boom")}
		rec := httptest.NewRecorder()
		CartAddItem(svc, nil).ServeHTTP(rec, authedRequest(http.MethodPost, "/api/cart", `{"productId":9}`, uuid.New()))
		require.Equal(t, tt.status, rec.Code)
		require.Equal(t, string(tt.code), decodeErrorCode(t, rec))
	}
}

func TestCartGetLiveFlag(t *testing.T) {
	svc := &stubCartService{cart: sampleCart()}

	rec := httptest.NewRecorder()
	CartGet(svc, nil).ServeHTTP(rec, authedRequest(http.MethodGet, "/api/cart?live=true", "", uuid.New()))
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, svc.live)

	rec = httptest.NewRecorder()
	CartGet(svc, nil).ServeHTTP(rec, authedRequest(http.MethodGet, "/api/cart?live=maybe", "", uuid.New()))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCartUpdateItemRequiresQuantity(t *testing.T) {
	svc := &stubCartService{cart: sampleCart()}

	rec := httptest.NewRecorder()
	CartUpdateItem(svc, nil).ServeHTTP(rec, authedRequest(http.MethodPost, "/api/cart/update", `{"productId":7}`, uuid.New()))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	CartUpdateItem(svc, nil).ServeHTTP(rec, authedRequest(http.MethodPost, "/api/cart/update", `{"productId":7,"quantity":2147483648}`, uuid.New()))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, svc.updated)

	rec = httptest.NewRecorder()
	CartUpdateItem(svc, nil).ServeHTTP(rec, authedRequest(http.MethodPost, "/api/cart/update", `{"productId":7,"quantity":0}`, uuid.New()))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 0, svc.updated[0].quantity)
}

func TestCartRemoveItemNotFound(t *testing.T) {
	svc := &stubCartService{err: pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")}

	rec := httptest.NewRecorder()
	CartRemoveItem(svc, nil).ServeHTTP(rec, authedRequest(http.MethodDelete, "/api/cart/remove", `{"productId":99}`, uuid.New()))

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, []int{99}, svc.removed)
}

func TestCartClear(t *testing.T) {
	svc := &stubCartService{}

	rec := httptest.NewRecorder()
	CartClear(svc, nil).ServeHTTP(rec, authedRequest(http.MethodDelete, "/api/cart", "", uuid.New()))

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, svc.cleared)
}

func TestCartRequiresUserContext(t *testing.T) {
	rec := httptest.NewRecorder()
	CartGet(&stubCartService{}, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cart", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
