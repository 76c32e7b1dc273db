package cart

import (
	"sync"
)

// Store holds the working copy of one cart. Product IDs are unique;
// insertion order is preserved so snapshots render deterministically.
// All methods are safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	items    []Item
	currency string
}

// NewStore returns an empty cart store.
func NewStore() *Store {
	return &Store{}
}

// Replace swaps the cart contents for the given items. Items are copied;
// the caller keeps ownership of its slice.
func (s *Store) Replace(items []Item, currency string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items[:0:0], items...)
	if currency != "" {
		s.currency = currency
	}
}

// Upsert inserts the item, or overwrites quantity and price when a line
// for the same product already exists. A non-positive quantity removes
// the line instead.
func (s *Store) Upsert(item Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item.Quantity <= 0 {
		s.removeLocked(item.ProductID)
		return
	}
	for i := range s.items {
		if s.items[i].ProductID == item.ProductID {
			s.items[i].Quantity = item.Quantity
			s.items[i].UnitPrice = item.UnitPrice
			if item.Name != "" {
				s.items[i].Name = item.Name
			}
			return
		}
	}
	s.items = append(s.items, item)
}

// SetQuantity pins the quantity for a product, inserting a line when
// none exists yet. A line created this way carries no price until the
// next sync reprices it. Setting zero or less removes the line, same
// as Remove.
func (s *Store) SetQuantity(productID string, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if quantity <= 0 {
		s.removeLocked(productID)
		return
	}
	for i := range s.items {
		if s.items[i].ProductID == productID {
			s.items[i].Quantity = quantity
			return
		}
	}
	s.items = append(s.items, Item{ProductID: productID, Quantity: quantity})
}

// Remove deletes the line for the product. Removing an absent product is
// a no-op and reports false.
func (s *Store) Remove(productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(productID)
}

func (s *Store) removeLocked(productID string) bool {
	for i := range s.items {
		if s.items[i].ProductID == productID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return true
		}
	}
	return false
}

// Clear empties the cart.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
}

// Snapshot returns a copy of the current contents.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Items:    append([]Item(nil), s.items...),
		Currency: s.currency,
	}
}

// Len returns the number of distinct lines.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
