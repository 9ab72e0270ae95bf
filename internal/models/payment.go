package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethodType tags the provider family of a payment method.
type PaymentMethodType string

const (
	PaymentCard   PaymentMethodType = "card"
	PaymentPayPal PaymentMethodType = "paypal"
	PaymentApple  PaymentMethodType = "apple"
	PaymentGoogle PaymentMethodType = "google"
)

// PaymentMethod is an entry of the static payment method registry.
type PaymentMethod struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Type       PaymentMethodType `json:"type"`
	FeePercent decimal.Decimal   `json:"fee_percent"`
}

// PaymentKind says which installment of an order a payment covers.
type PaymentKind string

const (
	PaymentKindDeposit PaymentKind = "deposit"
	PaymentKindFinal   PaymentKind = "final"
)

// Payment is a captured installment recorded on an order.
type Payment struct {
	TransactionID string          `json:"transaction_id"`
	Kind          PaymentKind     `json:"kind"`
	MethodID      string          `json:"method_id"`
	Amount        int64           `json:"amount"`
	Fee           decimal.Decimal `json:"fee"`
	Total         decimal.Decimal `json:"total"`
	PaidAt        time.Time       `json:"paid_at"`
}
