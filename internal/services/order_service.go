package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"webstudio/internal/metrics"
	"webstudio/internal/models"
	"webstudio/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DepositPercent is the share of the price due up front.
const DepositPercent = 30

// IdentitySource exposes the authenticated user of the session.
type IdentitySource interface {
	CurrentUser() (*models.User, bool)
}

// PaymentGateway charges an installment of an order with the selected method.
type PaymentGateway interface {
	SelectedMethod() (models.PaymentMethod, bool)
	ProcessPayment(ctx context.Context, orderID string, amount int64) (*PaymentResult, error)
}

// OrderConfig configures an OrderService.
type OrderConfig struct {
	DeliveryLeadTime time.Duration
	AssetBaseURL     string
	Now              func() time.Time
}

// OrderService drives orders through their lifecycle:
// pending → deposit_paid → in_progress → review → final_payment_due → completed,
// with cancelled reachable from every non-terminal status.
type OrderService struct {
	orderRepo repositories.OrderRepository
	identity  IdentitySource
	payments  PaymentGateway
	mqClient  OrderEventPublisher
	notifier  Notifier
	metrics   *metrics.Metrics

	leadTime     time.Duration
	assetBaseURL string
	now          func() time.Time

	orderLocks sync.Map // order ID → *sync.Mutex
	currentID  string
	mu         sync.RWMutex
}

// NewOrderService creates a new OrderService. mqClient and m may be nil.
func NewOrderService(
	orderRepo repositories.OrderRepository,
	identity IdentitySource,
	payments PaymentGateway,
	mqClient OrderEventPublisher,
	notifier Notifier,
	m *metrics.Metrics,
	cfg OrderConfig,
) *OrderService {
	s := &OrderService{
		orderRepo:    orderRepo,
		identity:     identity,
		payments:     payments,
		mqClient:     mqClient,
		notifier:     notifier,
		metrics:      m,
		leadTime:     cfg.DeliveryLeadTime,
		assetBaseURL: strings.TrimRight(cfg.AssetBaseURL, "/"),
		now:          cfg.Now,
	}
	if s.notifier == nil {
		s.notifier = LogNotifier{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.leadTime <= 0 {
		s.leadTime = 14 * 24 * time.Hour
	}
	return s
}

// lockOrder serializes mutations of one order. Orders are never deleted,
// so the lock table only grows with the order list.
func (s *OrderService) lockOrder(id string) func() {
	l, _ := s.orderLocks.LoadOrStore(id, &sync.Mutex{})
	m := l.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}

// DepositFor returns round(price × 30%).
func DepositFor(price int64) int64 {
	return decimal.NewFromInt(price).
		Mul(decimal.NewFromInt(DepositPercent)).
		Div(decimal.NewFromInt(100)).
		Round(0).
		IntPart()
}

// listSubtotal returns the undiscounted subtotal of a cart line. Only the
// ordered template carries a catalog original price; other lines are sold at list price.
func listSubtotal(it models.CartItem, meta models.TemplateMeta) int64 {
	if it.ID == meta.ID && meta.OriginalPrice > it.Price {
		return meta.OriginalPrice * int64(it.Quantity)
	}
	return it.Subtotal()
}

// CreateOrder places a pending order for the cart contents on behalf of the current user.
func (s *OrderService) CreateOrder(ctx context.Context, cart models.CartSnapshot, meta models.TemplateMeta) (*models.Order, error) {
	user, ok := s.identity.CurrentUser()
	if !ok {
		s.notifier.Notify(NoticeWarning, "Please sign in to place an order")
		return nil, ErrAuthenticationRequired
	}
	if len(cart.Items) == 0 {
		return nil, ErrEmptyCart
	}

	var price, originalPrice int64
	items := make([]models.CartItem, len(cart.Items))
	for i, it := range cart.Items {
		if it.Quantity < 1 {
			it.Quantity = 1
		}
		items[i] = it
		price += it.Subtotal()
		originalPrice += listSubtotal(it, meta)
	}

	now := s.now()
	order := &models.Order{
		ID: uuid.NewString(),
		Customer: models.CustomerSnapshot{
			ID:    user.ID,
			Email: user.Email,
			Name:  user.Name,
		},
		Template:      meta,
		Items:         items,
		Status:        models.OrderStatusPending,
		Price:         price,
		OriginalPrice: originalPrice,
		Discount:      meta.Discount,
		Deposit:       DepositFor(price),
		FinalPayment:  price,
		Features:      append([]string{}, meta.Features...),
		TechStack:     append([]string{}, meta.TechStack...),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.orderRepo.Create(order); err != nil {
		s.notifier.Notify(NoticeError, "Your order could not be saved")
		return nil, fmt.Errorf("failed to create order in repository: %w", err)
	}

	s.mu.Lock()
	s.currentID = order.ID
	s.mu.Unlock()

	s.metrics.OrderCreated()
	s.publish(OrderEvent{
		Type:       EventOrderCreated,
		OrderID:    order.ID,
		CustomerID: user.ID,
		Status:     order.Status,
		Amount:     order.Price,
		OccurredAt: now,
	})
	s.notifier.Notify(NoticeSuccess, fmt.Sprintf("Order %s created", order.ID))
	return order, nil
}

// UpdateStatus moves an order along the fulfillment part of the lifecycle.
// Entering deposit_paid or completed requires a payment and is only possible
// through PayDeposit and PayFinal.
func (s *OrderService) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error) {
	if _, err := models.ParseOrderStatus(string(status)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIllegalTransition, err)
	}
	if status == models.OrderStatusDepositPaid || status == models.OrderStatusCompleted {
		return nil, fmt.Errorf("%w: %s can only be reached by payment", ErrIllegalTransition, status)
	}

	unlock := s.lockOrder(id)
	defer unlock()
	return s.transition(id, status)
}

// CancelOrder moves a non-terminal order to cancelled.
func (s *OrderService) CancelOrder(ctx context.Context, id string) (*models.Order, error) {
	unlock := s.lockOrder(id)
	defer unlock()
	return s.transition(id, models.OrderStatusCancelled)
}

// transition applies a table-checked status change. Callers hold the order lock.
func (s *OrderService) transition(id string, status models.OrderStatus) (*models.Order, error) {
	var from models.OrderStatus
	order, err := s.orderRepo.Update(id, func(o *models.Order) error {
		from = o.Status
		if !o.TransitionTo(status, s.now()) {
			return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, o.Status, status)
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(id, err)
	}

	s.metrics.OrderTransitioned(string(from), string(status))
	s.publish(OrderEvent{
		Type:           EventOrderStatusChanged,
		OrderID:        order.ID,
		CustomerID:     order.Customer.ID,
		Status:         order.Status,
		PreviousStatus: from,
		OccurredAt:     order.UpdatedAt,
	})
	s.notifier.Notify(NoticeInfo, fmt.Sprintf("Order %s is now %s", order.ID, order.Status))
	return order, nil
}

// PayDeposit charges the deposit of a pending order.
func (s *OrderService) PayDeposit(ctx context.Context, id string) (*models.Order, error) {
	unlock := s.lockOrder(id)
	defer unlock()

	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, s.fail(id, err)
	}
	if order.Status != models.OrderStatusPending {
		return nil, s.fail(id, fmt.Errorf("%w: deposit can only be paid while pending, order is %s", ErrIllegalTransition, order.Status))
	}

	result, err := s.charge(ctx, order, models.PaymentKindDeposit, order.Deposit)
	if err != nil {
		return nil, err
	}

	return s.capture(order.ID, result, models.PaymentKindDeposit, func(o *models.Order, at time.Time) {
		o.DepositPaid = true
		delivery := at.Add(s.leadTime)
		o.DeliveryDate = &delivery
	}, models.OrderStatusDepositPaid)
}

// PayFinal charges the final payment of an order that is due for it.
// The deposit must have been paid first.
func (s *OrderService) PayFinal(ctx context.Context, id string) (*models.Order, error) {
	unlock := s.lockOrder(id)
	defer unlock()

	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, s.fail(id, err)
	}
	if !order.DepositPaid {
		return nil, s.fail(id, fmt.Errorf("%w: deposit of order %s has not been paid", ErrIllegalTransition, id))
	}
	if order.Status != models.OrderStatusFinalPaymentDue {
		return nil, s.fail(id, fmt.Errorf("%w: final payment is not due, order is %s", ErrIllegalTransition, order.Status))
	}

	result, err := s.charge(ctx, order, models.PaymentKindFinal, order.FinalPayment)
	if err != nil {
		return nil, err
	}

	return s.capture(order.ID, result, models.PaymentKindFinal, func(o *models.Order, _ time.Time) {
		o.FinalPaymentPaid = true
		o.DownloadURL = fmt.Sprintf("%s/downloads/%s/%s.zip", s.assetBaseURL, o.Template.ID, o.ID)
		o.InvoiceURL = fmt.Sprintf("%s/invoices/%s.pdf", s.assetBaseURL, o.ID)
	}, models.OrderStatusCompleted)
}

func (s *OrderService) charge(ctx context.Context, order *models.Order, kind models.PaymentKind, amount int64) (*PaymentResult, error) {
	result, err := s.payments.ProcessPayment(ctx, order.ID, amount)
	if err != nil {
		method := "none"
		if m, ok := s.payments.SelectedMethod(); ok {
			method = m.ID
		}
		s.metrics.PaymentAttempted(string(kind), method, false, amount)
		return nil, s.fail(order.ID, err)
	}
	s.metrics.PaymentAttempted(string(kind), result.Method.ID, true, amount)
	return result, nil
}

// capture records a successful payment and advances the order in one write.
// The write does not depend on the caller's context: a captured charge is
// always persisted even if the caller has gone away.
func (s *OrderService) capture(
	id string,
	result *PaymentResult,
	kind models.PaymentKind,
	apply func(o *models.Order, at time.Time),
	next models.OrderStatus,
) (*models.Order, error) {
	var from models.OrderStatus
	order, err := s.orderRepo.Update(id, func(o *models.Order) error {
		from = o.Status
		at := s.now()
		if !o.TransitionTo(next, at) {
			return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, o.Status, next)
		}
		apply(o, at)
		o.Payments = append(o.Payments, models.Payment{
			TransactionID: result.TransactionID,
			Kind:          kind,
			MethodID:      result.Method.ID,
			Amount:        result.Amount,
			Fee:           result.Fee,
			Total:         result.Total,
			PaidAt:        result.ProcessedAt,
		})
		return nil
	})
	if err != nil {
		log.Printf("Payment %s captured but order %s could not be updated: %v", result.TransactionID, id, err)
		return nil, s.fail(id, err)
	}

	s.metrics.OrderTransitioned(string(from), string(next))
	s.publish(OrderEvent{
		Type:          EventOrderPaymentCaptured,
		OrderID:       order.ID,
		CustomerID:    order.Customer.ID,
		Status:        order.Status,
		Amount:        result.Amount,
		TransactionID: result.TransactionID,
		OccurredAt:    order.UpdatedAt,
	})
	s.publish(OrderEvent{
		Type:           EventOrderStatusChanged,
		OrderID:        order.ID,
		CustomerID:     order.Customer.ID,
		Status:         order.Status,
		PreviousStatus: from,
		OccurredAt:     order.UpdatedAt,
	})
	s.notifier.Notify(NoticeSuccess, fmt.Sprintf("%s payment for order %s received", kind, order.ID))
	return order, nil
}

// fail reports err as a notice and returns it unchanged.
func (s *OrderService) fail(id string, err error) error {
	log.Printf("Order %s: %v", id, err)
	s.notifier.Notify(NoticeError, err.Error())
	return err
}

// GetOrderByID retrieves a single order by its ID.
func (s *OrderService) GetOrderByID(id string) (*models.Order, error) {
	return s.orderRepo.GetByID(id)
}

// GetAllOrders retrieves all orders in insertion order.
func (s *OrderService) GetAllOrders() ([]models.Order, error) {
	return s.orderRepo.GetAll()
}

// GetOrdersByCustomer returns the orders of customerID in insertion order.
func (s *OrderService) GetOrdersByCustomer(customerID string) ([]models.Order, error) {
	orders, err := s.orderRepo.GetAll()
	if err != nil {
		return nil, err
	}
	mine := make([]models.Order, 0, len(orders))
	for _, o := range orders {
		if o.Customer.ID == customerID {
			mine = append(mine, o)
		}
	}
	return mine, nil
}

// CurrentOrder returns the order created last in this session.
func (s *OrderService) CurrentOrder() (*models.Order, error) {
	s.mu.RLock()
	id := s.currentID
	s.mu.RUnlock()
	if id == "" {
		return nil, fmt.Errorf("%w: no current order", ErrOrderNotFound)
	}
	return s.orderRepo.GetByID(id)
}
