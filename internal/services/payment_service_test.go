package services_test

import (
	"context"
	"testing"
	"time"

	"webstudio/internal/models"
	"webstudio/internal/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestPaymentService_MethodsOrder(t *testing.T) {
	svc := services.NewPaymentService(services.DefaultPaymentMethods(), services.NewSimulatedProcessor(nil), nil)

	var ids []string
	for _, m := range svc.Methods() {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"card", "paypal", "apple", "google"}, ids)
}

func TestPaymentService_CalculateFee(t *testing.T) {
	svc := services.NewPaymentService(services.DefaultPaymentMethods(), services.NewSimulatedProcessor(nil), nil)

	// No method selected means no fee.
	assert.True(t, svc.CalculateFee(100).IsZero())
	assert.True(t, svc.TotalWithFee(100).Equal(decimal.NewFromInt(100)))

	require.NoError(t, svc.SelectMethod("paypal"))
	assert.Equal(t, "2.90", svc.CalculateFee(100).StringFixed(2))
	assert.Equal(t, "102.90", svc.TotalWithFee(100).StringFixed(2))

	require.NoError(t, svc.SelectMethod("card"))
	assert.True(t, svc.CalculateFee(100).IsZero())

	svc.ClearSelection()
	_, ok := svc.SelectedMethod()
	assert.False(t, ok)
}

func TestPaymentService_SelectUnknownMethod(t *testing.T) {
	svc := services.NewPaymentService(services.DefaultPaymentMethods(), services.NewSimulatedProcessor(nil), nil)
	require.NoError(t, svc.SelectMethod("apple"))

	err := svc.SelectMethod("bitcoin")
	assert.ErrorIs(t, err, services.ErrUnknownPaymentMethod)

	m, ok := svc.SelectedMethod()
	assert.True(t, ok)
	assert.Equal(t, "apple", m.ID)
}

func TestPaymentService_ProcessPayment(t *testing.T) {
	now := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	svc := services.NewPaymentService(services.DefaultPaymentMethods(), services.NewSimulatedProcessor(nil), func() time.Time { return now })
	require.NoError(t, svc.SelectMethod("paypal"))

	res, err := svc.ProcessPayment(context.Background(), "order-1", 1000)
	require.NoError(t, err)

	assert.Contains(t, res.TransactionID, "txn_")
	assert.Equal(t, "order-1", res.OrderID)
	assert.Equal(t, "paypal", res.Method.ID)
	assert.Equal(t, int64(1000), res.Amount)
	assert.Equal(t, "29.00", res.Fee.StringFixed(2))
	assert.Equal(t, "1029.00", res.Total.StringFixed(2))
	assert.Equal(t, now, res.ProcessedAt)
}

func TestPaymentService_ProcessPaymentPreconditions(t *testing.T) {
	processor := new(MockProcessor)
	svc := services.NewPaymentService(services.DefaultPaymentMethods(), processor, nil)

	_, err := svc.ProcessPayment(context.Background(), "order-1", 100)
	assert.ErrorIs(t, err, services.ErrPaymentMethodRequired)

	require.NoError(t, svc.SelectMethod("card"))
	_, err = svc.ProcessPayment(context.Background(), "", 100)
	assert.ErrorIs(t, err, services.ErrPaymentMethodRequired)

	processor.AssertNotCalled(t, "Charge", mock.Anything, mock.Anything)
}

func TestPaymentService_ProcessPaymentHonorsContext(t *testing.T) {
	latency := map[models.PaymentMethodType]time.Duration{models.PaymentCard: time.Hour}
	svc := services.NewPaymentService(services.DefaultPaymentMethods(), services.NewSimulatedProcessor(latency), nil)
	require.NoError(t, svc.SelectMethod("card"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.ProcessPayment(ctx, "order-1", 100)
	assert.ErrorIs(t, err, services.ErrPaymentFailed)
}
