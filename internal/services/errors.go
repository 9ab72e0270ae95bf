package services

import (
	"errors"
	"fmt"
	"time"

	"webstudio/internal/repositories"
)

var (
	// ErrAuthentication is returned when login credentials are incomplete.
	ErrAuthentication = errors.New("missing credentials")
	// ErrAuthenticationRequired is returned when an operation needs a logged-in identity.
	ErrAuthenticationRequired = errors.New("authentication required")
	// ErrOrderNotFound is returned when an order ID has no backing record.
	ErrOrderNotFound = repositories.ErrOrderNotFound
	// ErrIllegalTransition is returned for status changes the lifecycle does not allow.
	ErrIllegalTransition = errors.New("illegal order status transition")
	// ErrEmptyCart is returned when checking out without items.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrPaymentMethodRequired is returned when paying without a selected method or order.
	ErrPaymentMethodRequired = errors.New("payment method required")
	// ErrUnknownPaymentMethod is returned when selecting a method outside the registry.
	ErrUnknownPaymentMethod = errors.New("unknown payment method")
	// ErrPaymentFailed is returned when the payment provider rejects a charge.
	ErrPaymentFailed = errors.New("payment failed")
	// ErrRateLimited is matched by every *RateLimitError.
	ErrRateLimited = errors.New("too many attempts")
	// ErrUnknownProvider is returned for identity providers that are not configured.
	ErrUnknownProvider = errors.New("unknown identity provider")
)

// RateLimitError reports a blocked action and how long the block lasts.
type RateLimitError struct {
	Action    string
	Remaining time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("too many %s attempts, try again in %s", e.Action, e.Remaining.Round(time.Second))
}

// Is makes errors.Is(err, ErrRateLimited) match.
func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}
