package repositories

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"webstudio/internal/models"
)

// KVOrderRepository keeps the full order list as one record of a KVStore.
// Every mutation is a read-modify-write of that record under a lock.
type KVOrderRepository struct {
	store KVStore
	mu    sync.Mutex
}

// NewKVOrderRepository creates a new instance of KVOrderRepository.
func NewKVOrderRepository(store KVStore) *KVOrderRepository {
	return &KVOrderRepository{store: store}
}

func (r *KVOrderRepository) load() ([]models.Order, error) {
	var orders []models.Order
	if err := loadJSON(r.store, KeyOrders, &orders); err != nil {
		if isAbsent(err) {
			if errors.Is(err, ErrStorageCorrupt) {
				log.Printf("Order list was corrupt and has been reset")
			}
			return []models.Order{}, nil
		}
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}
	return orders, nil
}

// GetAll returns all orders in insertion order.
func (r *KVOrderRepository) GetAll() ([]models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load()
}

// GetByID returns an order by its ID.
func (r *KVOrderRepository) GetByID(id string) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	orders, err := r.load()
	if err != nil {
		return nil, err
	}
	for i := range orders {
		if orders[i].ID == id {
			return &orders[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, id)
}

// Create appends a new order to the list.
func (r *KVOrderRepository) Create(order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	orders, err := r.load()
	if err != nil {
		return err
	}
	for _, o := range orders {
		if o.ID == order.ID {
			return fmt.Errorf("order with ID %s already exists", order.ID)
		}
	}
	orders = append(orders, *order)
	return saveJSON(r.store, KeyOrders, orders)
}

// Update applies mutate to a copy of the order and persists the list.
// Nothing is written if mutate fails.
func (r *KVOrderRepository) Update(id string, mutate OrderMutation) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	orders, err := r.load()
	if err != nil {
		return nil, err
	}
	for i := range orders {
		if orders[i].ID != id {
			continue
		}
		updated := orders[i]
		if err := mutate(&updated); err != nil {
			return nil, err
		}
		orders[i] = updated
		if err := saveJSON(r.store, KeyOrders, orders); err != nil {
			return nil, err
		}
		return &updated, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, id)
}
