package repositories

import (
	"errors"

	"webstudio/internal/models"
)

// ErrOrderNotFound is returned when no order has the requested ID.
var ErrOrderNotFound = errors.New("order not found")

// OrderMutation modifies an order in place. Returning an error aborts the update.
type OrderMutation func(order *models.Order) error

// OrderRepository defines the interface for order data access.
// Orders are never deleted; cancellation is a status.
type OrderRepository interface {
	GetAll() ([]models.Order, error)
	GetByID(id string) (*models.Order, error)
	Create(order *models.Order) error
	Update(id string, mutate OrderMutation) (*models.Order, error)
}
