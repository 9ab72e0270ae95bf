package models

import (
	"fmt"
	"time"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending         OrderStatus = "pending"
	OrderStatusDepositPaid     OrderStatus = "deposit_paid"
	OrderStatusInProgress      OrderStatus = "in_progress"
	OrderStatusReview          OrderStatus = "review"
	OrderStatusFinalPaymentDue OrderStatus = "final_payment_due"
	OrderStatusCompleted       OrderStatus = "completed"
	OrderStatusCancelled       OrderStatus = "cancelled"
)

// orderTransitions lists, per status, the statuses it may move to.
// Anything missing from the table is terminal.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:         {OrderStatusDepositPaid, OrderStatusCancelled},
	OrderStatusDepositPaid:     {OrderStatusInProgress, OrderStatusCancelled},
	OrderStatusInProgress:      {OrderStatusReview, OrderStatusCancelled},
	OrderStatusReview:          {OrderStatusFinalPaymentDue, OrderStatusCancelled},
	OrderStatusFinalPaymentDue: {OrderStatusCompleted, OrderStatusCancelled},
}

// ParseOrderStatus converts a raw string into a known OrderStatus.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch st := OrderStatus(s); st {
	case OrderStatusPending, OrderStatusDepositPaid, OrderStatusInProgress, OrderStatusReview,
		OrderStatusFinalPaymentDue, OrderStatusCompleted, OrderStatusCancelled:
		return st, nil
	}
	return "", fmt.Errorf("invalid order status: %s", s)
}

// IsTerminal reports whether no further transition is possible.
func (s OrderStatus) IsTerminal() bool {
	_, ok := orderTransitions[s]
	return !ok
}

// CanTransitionTo reports whether next is a legal successor of s.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// CustomerSnapshot is the customer data captured when the order was placed.
type CustomerSnapshot struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Order represents a customer's purchase of one template package.
type Order struct {
	ID               string           `json:"id"`
	Customer         CustomerSnapshot `json:"customer"`
	Template         TemplateMeta     `json:"template"`
	Items            []CartItem       `json:"items"`
	Status           OrderStatus      `json:"status"`
	Price            int64            `json:"price"`
	OriginalPrice    int64            `json:"original_price"`
	Discount         int              `json:"discount"`
	Deposit          int64            `json:"deposit"`
	DepositPaid      bool             `json:"deposit_paid"`
	FinalPayment     int64            `json:"final_payment"`
	FinalPaymentPaid bool             `json:"final_payment_paid"`
	Features         []string         `json:"features"`
	TechStack        []string         `json:"tech_stack"`
	Payments         []Payment        `json:"payments,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
	DeliveryDate     *time.Time       `json:"delivery_date,omitempty"`
	DownloadURL      string           `json:"download_url,omitempty"`
	InvoiceURL       string           `json:"invoice_url,omitempty"`
}

// TransitionTo moves the order to next if the table allows it.
func (o *Order) TransitionTo(next OrderStatus, at time.Time) bool {
	if !o.Status.CanTransitionTo(next) {
		return false
	}
	o.Status = next
	o.UpdatedAt = at
	return true
}
