package services

import (
	"context"
	"time"

	"webstudio/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ChargeRequest is what a PaymentProcessor is asked to capture.
type ChargeRequest struct {
	OrderID string
	Method  models.PaymentMethod
	Amount  int64
	Fee     decimal.Decimal
	Total   decimal.Decimal
}

// PaymentProcessor captures a charge with an external provider.
type PaymentProcessor interface {
	Charge(ctx context.Context, req ChargeRequest) (transactionID string, err error)
}

// DefaultProviderLatency is the simulated round trip per provider family.
var DefaultProviderLatency = map[models.PaymentMethodType]time.Duration{
	models.PaymentCard:   2 * time.Second,
	models.PaymentPayPal: 3 * time.Second,
	models.PaymentApple:  1500 * time.Millisecond,
	models.PaymentGoogle: 1500 * time.Millisecond,
}

// SimulatedProcessor stands in for a payment gateway: it waits the provider
// latency and then always captures the charge.
type SimulatedProcessor struct {
	latency map[models.PaymentMethodType]time.Duration
}

// NewSimulatedProcessor creates a SimulatedProcessor. A nil map disables the delay.
func NewSimulatedProcessor(latency map[models.PaymentMethodType]time.Duration) *SimulatedProcessor {
	return &SimulatedProcessor{latency: latency}
}

// Charge waits the simulated latency and returns a fresh transaction ID.
func (p *SimulatedProcessor) Charge(ctx context.Context, req ChargeRequest) (string, error) {
	if err := sleepContext(ctx, p.latency[req.Method.Type]); err != nil {
		return "", err
	}
	return "txn_" + uuid.NewString(), nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
