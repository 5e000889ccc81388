package cartclient

import "sync"

// MutationState tracks an optimistic change through its round trip.
type MutationState string

const (
	MutationPending   MutationState = "pending"
	MutationConfirmed MutationState = "confirmed"
	MutationReverted  MutationState = "reverted"
)

// MutationKind names the store operation behind a mutation.
type MutationKind string

const (
	MutationAdd      MutationKind = "add"
	MutationSet      MutationKind = "set_quantity"
	MutationRemove   MutationKind = "remove"
	MutationClear    MutationKind = "clear"
	MutationWishAdd  MutationKind = "wishlist_add"
	MutationWishDrop MutationKind = "wishlist_remove"
)

// Mutation is the record of one optimistic change. Err is set once the
// mutation is reverted.
type Mutation struct {
	Kind      MutationKind
	ProductID int
	State     MutationState
	Err       error
}

func newMutation(kind MutationKind, productID int) *Mutation {
	return &Mutation{Kind: kind, ProductID: productID, State: MutationPending}
}

func (m *Mutation) confirm() {
	m.State = MutationConfirmed
}

func (m *Mutation) revert(err error) {
	m.State = MutationReverted
	m.Err = err
}

// keyedMutex serializes work per product id. Entries are dropped once no
// caller holds or waits on them.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[int]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[int]*refMutex)}
}

func (k *keyedMutex) Lock(key int) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
