package services

import (
	"fmt"
	"sync"

	"webstudio/internal/metrics"
	"webstudio/internal/models"
)

// CartService owns the items selected in the current session.
// Totals are derived from the items on every read.
type CartService struct {
	items    []models.CartItem
	notifier Notifier
	metrics  *metrics.Metrics
	mu       sync.RWMutex
}

// NewCartService creates an empty cart.
func NewCartService(notifier Notifier, m *metrics.Metrics) *CartService {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &CartService{notifier: notifier, metrics: m}
}

func (s *CartService) indexOf(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *CartService) itemCountLocked() int {
	n := 0
	for _, it := range s.items {
		n += it.Quantity
	}
	return n
}

// AddItem inserts item unless an item with the same ID is already in the cart.
// It reports whether the item was added.
func (s *CartService) AddItem(item models.CartItem) bool {
	s.mu.Lock()
	if s.indexOf(item.ID) >= 0 {
		s.mu.Unlock()
		s.notifier.Notify(NoticeInfo, fmt.Sprintf("%s is already in your cart", item.Name))
		return false
	}
	if item.Quantity < 1 {
		item.Quantity = 1
	}
	s.items = append(s.items, item)
	count := s.itemCountLocked()
	s.mu.Unlock()

	s.metrics.CartSize(count)
	s.notifier.Notify(NoticeSuccess, fmt.Sprintf("%s added to cart", item.Name))
	return true
}

// RemoveItem removes the item with id, if present.
func (s *CartService) RemoveItem(id string) {
	s.mu.Lock()
	if i := s.indexOf(id); i >= 0 {
		s.items = append(s.items[:i], s.items[i+1:]...)
	}
	count := s.itemCountLocked()
	s.mu.Unlock()
	s.metrics.CartSize(count)
}

// UpdateQuantity sets the quantity of item id, never below 1.
func (s *CartService) UpdateQuantity(id string, quantity int) {
	if quantity < 1 {
		quantity = 1
	}
	s.mu.Lock()
	if i := s.indexOf(id); i >= 0 {
		s.items[i].Quantity = quantity
	}
	count := s.itemCountLocked()
	s.mu.Unlock()
	s.metrics.CartSize(count)
}

// Clear empties the cart.
func (s *CartService) Clear() {
	s.mu.Lock()
	s.items = nil
	s.mu.Unlock()
	s.metrics.CartSize(0)
}

// Items returns a copy of the cart lines in insertion order.
func (s *CartService) Items() []models.CartItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.CartItem{}, s.items...)
}

// Total returns the sum of price times quantity over all items.
func (s *CartService) Total() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total int64
	for _, it := range s.items {
		total += it.Subtotal()
	}
	return total
}

// ItemCount returns the sum of quantities over all items.
func (s *CartService) ItemCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.itemCountLocked()
}

// Snapshot returns a consistent copy of items and derived totals.
func (s *CartService) Snapshot() models.CartSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *CartService) snapshotLocked() models.CartSnapshot {
	snap := models.CartSnapshot{Items: append([]models.CartItem{}, s.items...)}
	for _, it := range s.items {
		snap.Total += it.Subtotal()
		snap.ItemCount += it.Quantity
	}
	return snap
}

// Checkout hands the cart contents to place and empties the cart once place
// succeeds. The cart is locked for the whole call: an item added concurrently
// lands either in the order or in the cart afterwards, never in neither.
// On error the cart is left as it was.
func (s *CartService) Checkout(place func(models.CartSnapshot) error) error {
	s.mu.Lock()
	snap := s.snapshotLocked()
	if len(snap.Items) == 0 {
		s.mu.Unlock()
		return ErrEmptyCart
	}
	if err := place(snap); err != nil {
		s.mu.Unlock()
		return err
	}
	s.items = nil
	s.mu.Unlock()

	s.metrics.CartSize(0)
	return nil
}
