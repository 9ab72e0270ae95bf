package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"webstudio/internal/models"

	"github.com/shopspring/decimal"
)

// DefaultPaymentMethods is the fixed, ordered payment method registry.
func DefaultPaymentMethods() []models.PaymentMethod {
	return []models.PaymentMethod{
		{ID: "card", Name: "Credit card", Type: models.PaymentCard, FeePercent: decimal.Zero},
		{ID: "paypal", Name: "PayPal", Type: models.PaymentPayPal, FeePercent: decimal.RequireFromString("2.9")},
		{ID: "apple", Name: "Apple Pay", Type: models.PaymentApple, FeePercent: decimal.Zero},
		{ID: "google", Name: "Google Pay", Type: models.PaymentGoogle, FeePercent: decimal.Zero},
	}
}

// PaymentResult describes a captured charge.
type PaymentResult struct {
	TransactionID string
	OrderID       string
	Method        models.PaymentMethod
	Amount        int64
	Fee           decimal.Decimal
	Total         decimal.Decimal
	ProcessedAt   time.Time
}

// PaymentService is the payment method registry and fee calculator of the session.
type PaymentService struct {
	methods   []models.PaymentMethod
	selected  *models.PaymentMethod
	processor PaymentProcessor
	now       func() time.Time
	mu        sync.RWMutex
}

// NewPaymentService creates a PaymentService over methods, charging through processor.
func NewPaymentService(methods []models.PaymentMethod, processor PaymentProcessor, now func() time.Time) *PaymentService {
	if now == nil {
		now = time.Now
	}
	return &PaymentService{
		methods:   append([]models.PaymentMethod(nil), methods...),
		processor: processor,
		now:       now,
	}
}

// Methods returns the registry in display order.
func (s *PaymentService) Methods() []models.PaymentMethod {
	return append([]models.PaymentMethod(nil), s.methods...)
}

// SelectMethod makes the registry entry with id the active method.
func (s *PaymentService) SelectMethod(id string) error {
	for i := range s.methods {
		if s.methods[i].ID == id {
			m := s.methods[i]
			s.mu.Lock()
			s.selected = &m
			s.mu.Unlock()
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownPaymentMethod, id)
}

// SelectedMethod returns the active method, if any.
func (s *PaymentService) SelectedMethod() (models.PaymentMethod, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selected == nil {
		return models.PaymentMethod{}, false
	}
	return *s.selected, true
}

// ClearSelection forgets the active method.
func (s *PaymentService) ClearSelection() {
	s.mu.Lock()
	s.selected = nil
	s.mu.Unlock()
}

// CalculateFee returns amount * feePercent / 100 for the active method, or 0.
// amount must not be negative.
func (s *PaymentService) CalculateFee(amount int64) decimal.Decimal {
	m, ok := s.SelectedMethod()
	if !ok {
		return decimal.Zero
	}
	return feeFor(m, amount)
}

// TotalWithFee returns amount plus the fee of the active method.
func (s *PaymentService) TotalWithFee(amount int64) decimal.Decimal {
	return decimal.NewFromInt(amount).Add(s.CalculateFee(amount))
}

func feeFor(m models.PaymentMethod, amount int64) decimal.Decimal {
	return decimal.NewFromInt(amount).Mul(m.FeePercent).Div(decimal.NewFromInt(100))
}

// ProcessPayment charges amount for orderID with the active method.
func (s *PaymentService) ProcessPayment(ctx context.Context, orderID string, amount int64) (*PaymentResult, error) {
	m, ok := s.SelectedMethod()
	if !ok || orderID == "" {
		return nil, ErrPaymentMethodRequired
	}

	fee := feeFor(m, amount)
	req := ChargeRequest{
		OrderID: orderID,
		Method:  m,
		Amount:  amount,
		Fee:     fee,
		Total:   decimal.NewFromInt(amount).Add(fee),
	}
	txID, err := s.processor.Charge(ctx, req)
	if err != nil {
		log.Printf("Payment of %d for order %s via %s failed: %v", amount, orderID, m.ID, err)
		return nil, fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}

	log.Printf("Captured payment %s of %s for order %s via %s", txID, req.Total.StringFixed(2), orderID, m.ID)
	return &PaymentResult{
		TransactionID: txID,
		OrderID:       orderID,
		Method:        m,
		Amount:        amount,
		Fee:           fee,
		Total:         req.Total,
		ProcessedAt:   s.now(),
	}, nil
}
