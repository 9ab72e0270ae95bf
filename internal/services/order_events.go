package services

import (
	"encoding/json"
	"log"
	"time"

	"webstudio/internal/models"
)

// Routing keys of order lifecycle events.
const (
	OrderExchange             = "orders"
	EventOrderCreated         = "order.created"
	EventOrderStatusChanged   = "order.status_changed"
	EventOrderPaymentCaptured = "order.payment_captured"
)

// OrderEventPublisher delivers lifecycle events to a message broker.
type OrderEventPublisher interface {
	Publish(exchange, routingKey string, body []byte) error
}

// OrderEvent is the message body of every lifecycle event.
type OrderEvent struct {
	Type           string             `json:"type"`
	OrderID        string             `json:"order_id"`
	CustomerID     string             `json:"customer_id"`
	Status         models.OrderStatus `json:"status"`
	PreviousStatus models.OrderStatus `json:"previous_status,omitempty"`
	Amount         int64              `json:"amount,omitempty"`
	TransactionID  string             `json:"transaction_id,omitempty"`
	OccurredAt     time.Time          `json:"occurred_at"`
}

// publish sends ev if a broker is configured. Failures are logged, never returned.
func (s *OrderService) publish(ev OrderEvent) {
	if s.mqClient == nil {
		log.Printf("Message broker is not configured. Skipping %s for order %s.", ev.Type, ev.OrderID)
		return
	}
	body, err := json.Marshal(ev)
	if err != nil {
		log.Printf("Failed to marshal %s event: %v", ev.Type, err)
		return
	}
	if err := s.mqClient.Publish(OrderExchange, ev.Type, body); err != nil {
		log.Printf("Warning: Failed to publish %s event for order %s: %v", ev.Type, ev.OrderID, err)
		return
	}
	log.Printf("Successfully published %s event for order %s", ev.Type, ev.OrderID)
}
