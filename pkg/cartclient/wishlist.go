package cartclient

import (
	"context"
	"fmt"
	"net/http"
	"sync"
)

// WishlistStore is the local mirror of the signed-in user's wishlist.
type WishlistStore struct {
	session *Session
	locks   *keyedMutex

	mu      sync.Mutex
	items   lineSet[WishlistItem]
	pending map[int]int
}

// NewWishlistStore returns an empty store bound to session.
func NewWishlistStore(session *Session) *WishlistStore {
	return &WishlistStore{
		session: session,
		locks:   newKeyedMutex(),
		items:   lineSet[WishlistItem]{key: func(i WishlistItem) int { return i.ProductID }},
		pending: make(map[int]int),
	}
}

// Items returns a copy of the local wishlist.
func (s *WishlistStore) Items() []WishlistItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items.snapshot()
}

// Contains reports whether productID is saved locally.
func (s *WishlistStore) Contains(productID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _, ok := s.items.find(productID)
	return ok
}

// Fetch replaces local state with the server wishlist.
func (s *WishlistStore) Fetch(ctx context.Context) ([]WishlistItem, error) {
	var items []WishlistItem
	if _, err := s.session.do(ctx, request{method: http.MethodGet, path: "/api/wishlist"}, &items); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.items.reconcile(items, s.pending)
	s.mu.Unlock()
	return items, nil
}

// Add saves productID. A product already saved locally is confirmed without
// a request.
func (s *WishlistStore) Add(ctx context.Context, productID int) (*Mutation, error) {
	unlock := s.locks.Lock(productID)
	defer unlock()

	m := newMutation(MutationWishAdd, productID)
	if s.Contains(productID) {
		m.confirm()
		return m, nil
	}
	return s.mutate(ctx, m, true, request{
		method: http.MethodPost,
		path:   "/api/wishlist",
		body:   productRef{ProductID: productID},
	})
}

// Remove drops productID, restoring it locally when the service refuses.
func (s *WishlistStore) Remove(ctx context.Context, productID int) (*Mutation, error) {
	unlock := s.locks.Lock(productID)
	defer unlock()

	return s.mutate(ctx, newMutation(MutationWishDrop, productID), false, request{
		method: http.MethodDelete,
		path:   "/api/wishlist/remove",
		body:   productRef{ProductID: productID},
	})
}

func (s *WishlistStore) mutate(ctx context.Context, m *Mutation, keep bool, req request) (*Mutation, error) {
	s.mu.Lock()
	previous, index, present := s.items.find(m.ProductID)
	if keep {
		s.items.put(WishlistItem{ProductID: m.ProductID}, index)
	} else {
		s.items.drop(m.ProductID)
	}
	s.pending[m.ProductID]++
	s.mu.Unlock()

	var items []WishlistItem
	_, err := s.session.do(ctx, req, &items)

	s.mu.Lock()
	s.pending[m.ProductID]--
	if s.pending[m.ProductID] <= 0 {
		delete(s.pending, m.ProductID)
	}
	if err != nil {
		if present {
			s.items.put(previous, index)
		} else {
			s.items.drop(m.ProductID)
		}
	} else {
		s.items.reconcile(items, s.pending)
	}
	s.mu.Unlock()

	if err != nil {
		m.revert(err)
		logCtx := s.session.logg.WithFields(ctx, map[string]any{
			"mutation":   string(m.Kind),
			"product_id": m.ProductID,
		})
		s.session.logg.Warn(logCtx, "cartclient.mutation_reverted")
		return m, err
	}
	m.confirm()
	return m, nil
}

// MoveError reports a wishlist to cart move that stopped half way.
type MoveError struct {
	ProductID  int
	InCart     bool
	InWishlist bool
	Err        error
}

func (e *MoveError) Error() string {
	return fmt.Sprintf("move product %d to cart: in_cart=%t in_wishlist=%t: %v", e.ProductID, e.InCart, e.InWishlist, e.Err)
}

func (e *MoveError) Unwrap() error {
	return e.Err
}

// MoveToCart adds one unit of productID to the cart and then drops it from
// the wishlist. The two steps are not atomic: when the second fails the
// product stays in both and the returned *MoveError says so.
func MoveToCart(ctx context.Context, cart *CartStore, wishlist *WishlistStore, productID int) error {
	if _, err := cart.Add(ctx, productID, 1); err != nil {
		return &MoveError{ProductID: productID, InWishlist: wishlist.Contains(productID), Err: err}
	}
	if _, err := wishlist.Remove(ctx, productID); err != nil {
		return &MoveError{ProductID: productID, InCart: true, InWishlist: wishlist.Contains(productID), Err: err}
	}
	return nil
}
