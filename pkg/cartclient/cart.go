package cartclient

import (
	"context"
	"net/http"
	"sync"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/cartsync-backend/pkg/errors"
	"github.com/angelmondragon/cartsync-backend/pkg/types"
)

// CartStore is the local mirror of the signed-in user's cart. Mutations are
// applied locally first and then confirmed or reverted against the service.
// Mutations on the same product run one at a time; different products
// mutate concurrently.
type CartStore struct {
	session *Session
	locks   *keyedMutex

	mu      sync.Mutex
	lines   lineSet[Line]
	pending map[int]int
}

// NewCartStore returns an empty store bound to session.
func NewCartStore(session *Session) *CartStore {
	return &CartStore{
		session: session,
		locks:   newKeyedMutex(),
		lines:   lineSet[Line]{key: func(l Line) int { return l.ProductID }},
		pending: make(map[int]int),
	}
}

// Lines returns a copy of the local lines in insertion order.
func (s *CartStore) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lines.snapshot()
}

// Line returns the local line for productID.
func (s *CartStore) Line(productID int) (Line, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	line, _, ok := s.lines.find(productID)
	return line, ok
}

// Subtotal sums the local lines at their snapshot price.
func (s *CartStore) Subtotal() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for _, line := range s.lines.items {
		total = total.Add(line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total
}

// Fetch replaces local state with the server cart.
func (s *CartStore) Fetch(ctx context.Context) (*Cart, error) {
	var cart Cart
	if _, err := s.session.do(ctx, request{method: http.MethodGet, path: "/api/cart"}, &cart); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.lines.reconcile(cart.Items, s.pending)
	s.mu.Unlock()
	return &cart, nil
}

// Add adds quantity units of productID.
func (s *CartStore) Add(ctx context.Context, productID, quantity int) (*Mutation, error) {
	unlock := s.locks.Lock(productID)
	defer unlock()
	return s.add(ctx, productID, quantity)
}

// Increment moves the quantity of productID by delta from its current local
// value. A result below one removes the line.
func (s *CartStore) Increment(ctx context.Context, productID, delta int) (*Mutation, error) {
	unlock := s.locks.Lock(productID)
	defer unlock()

	line, ok := s.Line(productID)
	if !ok {
		if delta < 1 {
			m := newMutation(MutationRemove, productID)
			err := pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
			m.revert(err)
			return m, err
		}
		return s.add(ctx, productID, delta)
	}
	return s.setQuantity(ctx, productID, line.Quantity+delta)
}

// SetQuantity sets the quantity of an existing line. Values below one remove
// the line.
func (s *CartStore) SetQuantity(ctx context.Context, productID, quantity int) (*Mutation, error) {
	unlock := s.locks.Lock(productID)
	defer unlock()
	return s.setQuantity(ctx, productID, quantity)
}

// Remove deletes the line for productID.
func (s *CartStore) Remove(ctx context.Context, productID int) (*Mutation, error) {
	unlock := s.locks.Lock(productID)
	defer unlock()
	return s.remove(ctx, productID)
}

// Clear empties the cart. It is not serialized against in-flight product
// mutations.
func (s *CartStore) Clear(ctx context.Context) (*Mutation, error) {
	m := newMutation(MutationClear, 0)

	s.mu.Lock()
	previous := s.lines.snapshot()
	s.lines.items = nil
	s.mu.Unlock()

	var cart Cart
	_, err := s.session.do(ctx, request{method: http.MethodDelete, path: "/api/cart"}, &cart)

	s.mu.Lock()
	if err != nil {
		s.lines.items = previous
	} else {
		s.lines.reconcile(cart.Items, s.pending)
	}
	s.mu.Unlock()

	if err != nil {
		return s.reverted(ctx, m, err)
	}
	m.confirm()
	return m, nil
}

// PlaceOrderParams configures PlaceOrder.
type PlaceOrderParams struct {
	Address types.Address
	// IdempotencyKey makes a retried placement return the first order.
	IdempotencyKey string
}

// PlaceOrder submits the local cart as an order. It refuses with a conflict
// while any product mutation is still unconfirmed, so the order never carries
// optimistic quantities. The local cart is cleared only when the service
// answers 201 Created.
func (s *CartStore) PlaceOrder(ctx context.Context, params PlaceOrderParams) (*Order, error) {
	s.mu.Lock()
	if len(s.pending) > 0 {
		s.mu.Unlock()
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "cart has unconfirmed changes")
	}
	items := make([]OrderItem, 0, len(s.lines.items))
	for _, line := range s.lines.items {
		items = append(items, OrderItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Price:     line.Price,
			Name:      line.Name,
			Image:     line.Image,
		})
	}
	s.mu.Unlock()

	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	req := request{
		method: http.MethodPost,
		path:   "/api/orders",
		body:   placeOrderBody{Items: items, Address: params.Address},
	}
	if params.IdempotencyKey != "" {
		req.headers = map[string]string{idempotencyHeader: params.IdempotencyKey}
	}

	var order Order
	resp, err := s.session.do(ctx, req, &order)
	if err != nil {
		return nil, err
	}
	if resp.status == http.StatusCreated {
		s.mu.Lock()
		s.lines.items = nil
		s.mu.Unlock()
	}
	return &order, nil
}

func (s *CartStore) add(ctx context.Context, productID, quantity int) (*Mutation, error) {
	m := newMutation(MutationAdd, productID)
	if quantity < 1 {
		err := pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
		m.revert(err)
		return m, err
	}
	return s.mutate(ctx, m, func(line Line, _ bool) (Line, bool) {
		line.ProductID = productID
		line.Quantity += quantity
		return line, true
	}, request{
		method: http.MethodPost,
		path:   "/api/cart",
		body:   quantityBody{ProductID: productID, Quantity: quantity},
	})
}

func (s *CartStore) setQuantity(ctx context.Context, productID, quantity int) (*Mutation, error) {
	if quantity < 1 {
		return s.remove(ctx, productID)
	}
	m := newMutation(MutationSet, productID)
	return s.mutate(ctx, m, func(line Line, _ bool) (Line, bool) {
		line.ProductID = productID
		line.Quantity = quantity
		return line, true
	}, request{
		method: http.MethodPost,
		path:   "/api/cart/update",
		body:   quantityBody{ProductID: productID, Quantity: quantity},
	})
}

func (s *CartStore) remove(ctx context.Context, productID int) (*Mutation, error) {
	m := newMutation(MutationRemove, productID)
	return s.mutate(ctx, m, func(line Line, _ bool) (Line, bool) {
		return line, false
	}, request{
		method: http.MethodDelete,
		path:   "/api/cart/remove",
		body:   productRef{ProductID: productID},
	})
}

// mutate applies change locally, sends req and either adopts the returned
// cart or restores the previous line. The caller holds the product lock.
func (s *CartStore) mutate(ctx context.Context, m *Mutation, change func(Line, bool) (Line, bool), req request) (*Mutation, error) {
	s.mu.Lock()
	previous, index, present := s.lines.find(m.ProductID)
	if next, keep := change(previous, present); keep {
		s.lines.put(next, index)
	} else {
		s.lines.drop(m.ProductID)
	}
	s.pending[m.ProductID]++
	s.mu.Unlock()

	var cart Cart
	_, err := s.session.do(ctx, req, &cart)

	s.mu.Lock()
	s.pending[m.ProductID]--
	if s.pending[m.ProductID] <= 0 {
		delete(s.pending, m.ProductID)
	}
	if err != nil {
		if present {
			s.lines.put(previous, index)
		} else {
			s.lines.drop(m.ProductID)
		}
	} else {
		s.lines.reconcile(cart.Items, s.pending)
	}
	s.mu.Unlock()

	if err != nil {
		return s.reverted(ctx, m, err)
	}
	m.confirm()
	return m, nil
}

func (s *CartStore) reverted(ctx context.Context, m *Mutation, err error) (*Mutation, error) {
	m.revert(err)
	logCtx := s.session.logg.WithFields(ctx, map[string]any{
		"mutation":   string(m.Kind),
		"product_id": m.ProductID,
		"code":       string(pkgerrors.CodeOf(err)),
	})
	s.session.logg.Warn(logCtx, "cartclient.mutation_reverted")
	return m, err
}
