package cartclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
)

// ListOrders returns one page of the user's orders, newest first.
func (s *Session) ListOrders(ctx context.Context, cursor string, limit int) (*OrderPage, error) {
	query := url.Values{}
	if cursor != "" {
		query.Set("cursor", cursor)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	path := "/api/orders"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var orders []Order
	resp, err := s.do(ctx, request{method: http.MethodGet, path: path}, &orders)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []Order{}
	}
	return &OrderPage{Orders: orders, NextCursor: resp.header.Get(nextCursorHeader)}, nil
}

// GetOrder fetches one order.
func (s *Session) GetOrder(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	var order Order
	if _, err := s.do(ctx, request{method: http.MethodGet, path: "/api/orders/" + orderID.String()}, &order); err != nil {
		return nil, err
	}
	return &order, nil
}
