package models_test

import (
	"testing"
	"time"

	"webstudio/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to models.OrderStatus
		want     bool
	}{
		{models.OrderStatusPending, models.OrderStatusDepositPaid, true},
		{models.OrderStatusPending, models.OrderStatusInProgress, false},
		{models.OrderStatusPending, models.OrderStatusCompleted, false},
		{models.OrderStatusDepositPaid, models.OrderStatusInProgress, true},
		{models.OrderStatusInProgress, models.OrderStatusReview, true},
		{models.OrderStatusReview, models.OrderStatusInProgress, false},
		{models.OrderStatusReview, models.OrderStatusFinalPaymentDue, true},
		{models.OrderStatusFinalPaymentDue, models.OrderStatusCompleted, true},
		{models.OrderStatusInProgress, models.OrderStatusCancelled, true},
		{models.OrderStatusCompleted, models.OrderStatusCancelled, false},
		{models.OrderStatusCancelled, models.OrderStatusPending, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestOrderStatus_IsTerminal(t *testing.T) {
	assert.True(t, models.OrderStatusCompleted.IsTerminal())
	assert.True(t, models.OrderStatusCancelled.IsTerminal())
	assert.False(t, models.OrderStatusPending.IsTerminal())
	assert.False(t, models.OrderStatusFinalPaymentDue.IsTerminal())
}

func TestParseOrderStatus(t *testing.T) {
	st, err := models.ParseOrderStatus("review")
	assert.NoError(t, err)
	assert.Equal(t, models.OrderStatusReview, st)

	_, err = models.ParseOrderStatus("shipped")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid order status")
}

func TestOrder_TransitionTo(t *testing.T) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	order := &models.Order{Status: models.OrderStatusDepositPaid, CreatedAt: created, UpdatedAt: created}

	later := created.Add(time.Hour)
	assert.True(t, order.TransitionTo(models.OrderStatusInProgress, later))
	assert.Equal(t, models.OrderStatusInProgress, order.Status)
	assert.Equal(t, later, order.UpdatedAt)
	assert.Equal(t, created, order.CreatedAt)

	assert.False(t, order.TransitionTo(models.OrderStatusCompleted, later.Add(time.Hour)))
	assert.Equal(t, models.OrderStatusInProgress, order.Status)
	assert.Equal(t, later, order.UpdatedAt)
}
