package cart

import (
	"errors"
	"sync"

	"github.com/momofof/genie-cart/internal/domain"
)

// ErrIndexOutOfRange signals a line-item index outside the current snapshot.
// This is a caller contract violation, not a recoverable storage condition.
var ErrIndexOutOfRange = errors.New("line item index out of range")

// Store is the in-memory ordered collection of line items for one cart
// session. It is the source of truth between persistence calls: mutations
// are applied here first and persisted explicitly by the caller.
//
// All operations are atomic under the store's mutex.
type Store struct {
	mu    sync.Mutex
	items domain.Snapshot
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{items: domain.Snapshot{}}
}

// AddItem merges the item into the first matching line by summing quantities,
// or appends it preserving insertion order. Returns the resulting snapshot.
func (s *Store) AddItem(item domain.LineItem) domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.items.FindMatch(item); i >= 0 {
		s.items[i].Quantity += item.Quantity
	} else {
		s.items = append(s.items, item.Clone())
	}
	return s.items.Clone()
}

// RemoveItem removes the line at the given position.
func (s *Store) RemoveItem(index int) (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.items) {
		return nil, ErrIndexOutOfRange
	}
	s.items = append(s.items[:index], s.items[index+1:]...)
	return s.items.Clone(), nil
}

// SetQuantity replaces the quantity of the line at index. A quantity of zero
// or less removes the line, same as RemoveItem. Quantities are never clamped.
func (s *Store) SetQuantity(index, quantity int) (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.items) {
		return nil, ErrIndexOutOfRange
	}
	if quantity <= 0 {
		s.items = append(s.items[:index], s.items[index+1:]...)
	} else {
		s.items[index].Quantity = quantity
	}
	return s.items.Clone(), nil
}

// DeleteSelected removes the lines at the given positions, preserving the
// relative order of the survivors. Duplicate indices are tolerated; any
// out-of-range index fails the whole call without mutating the snapshot.
func (s *Store) DeleteSelected(indices []int) (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, i := range indices {
		if i < 0 || i >= len(s.items) {
			return nil, ErrIndexOutOfRange
		}
	}

	drop := make(map[int]struct{}, len(indices))
	for _, i := range indices {
		drop[i] = struct{}{}
	}

	kept := make(domain.Snapshot, 0, len(s.items)-len(drop))
	for i, it := range s.items {
		if _, gone := drop[i]; !gone {
			kept = append(kept, it)
		}
	}
	s.items = kept
	return s.items.Clone(), nil
}

// Clear empties the snapshot unconditionally.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = domain.Snapshot{}
}

// Replace swaps in a new snapshot, normalizing it first so the no-duplicates
// invariant holds whatever the storage handed back.
func (s *Store) Replace(snapshot domain.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = domain.GroupDuplicates(snapshot)
}

// Items returns a copy of the current snapshot.
func (s *Store) Items() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items.Clone()
}

// Total returns the cart total in minor currency units.
func (s *Store) Total() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items.Total()
}

// Len returns the number of distinct lines.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
