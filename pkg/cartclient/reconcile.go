package cartclient

import "slices"

// lineSet is an insertion-ordered list of entries keyed by product id.
type lineSet[T any] struct {
	items []T
	key   func(T) int
}

func (l *lineSet[T]) find(productID int) (T, int, bool) {
	for i, item := range l.items {
		if l.key(item) == productID {
			return item, i, true
		}
	}
	var zero T
	return zero, -1, false
}

// put stores item at its current slot, or at index when absent.
func (l *lineSet[T]) put(item T, index int) {
	if _, i, ok := l.find(l.key(item)); ok {
		l.items[i] = item
		return
	}
	if index < 0 || index > len(l.items) {
		index = len(l.items)
	}
	l.items = slices.Insert(l.items, index, item)
}

func (l *lineSet[T]) drop(productID int) {
	l.items = slices.DeleteFunc(l.items, func(item T) bool {
		return l.key(item) == productID
	})
}

func (l *lineSet[T]) snapshot() []T {
	return slices.Clone(l.items)
}

// reconcile adopts the server list while keeping the local value of every
// product that still has a mutation in flight.
func (l *lineSet[T]) reconcile(server []T, pending map[int]int) {
	local := lineSet[T]{items: l.items, key: l.key}
	next := lineSet[T]{items: slices.Clone(server), key: l.key}
	for productID, n := range pending {
		if n <= 0 {
			continue
		}
		if item, i, ok := local.find(productID); ok {
			next.put(item, i)
		} else {
			next.drop(productID)
		}
	}
	l.items = next.items
}
