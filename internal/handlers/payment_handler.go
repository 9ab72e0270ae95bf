package handlers

import (
	"webstudio/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// PaymentHandler exposes the payment method registry and fee calculator.
type PaymentHandler struct {
	payments *services.PaymentService
	validate *validator.Validate
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(payments *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		payments: payments,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the payment routes with the Fiber app.
func (h *PaymentHandler) RegisterRoutes(router fiber.Router) {
	paymentRoutes := router.Group("/payments")
	paymentRoutes.Get("/methods", h.HandleGetMethods)
	paymentRoutes.Post("/select", h.HandleSelectMethod)
	paymentRoutes.Get("/fee", h.HandleCalculateFee)
}

// SelectMethodRequest represents the request body for choosing a payment method.
type SelectMethodRequest struct {
	MethodID string `json:"method_id" validate:"required"`
}

// HandleGetMethods lists the registry and the active selection.
func (h *PaymentHandler) HandleGetMethods(c *fiber.Ctx) error {
	body := fiber.Map{"methods": h.payments.Methods()}
	if m, ok := h.payments.SelectedMethod(); ok {
		body["selected"] = m.ID
	}
	return c.JSON(body)
}

// HandleSelectMethod makes a registry entry the active method.
func (h *PaymentHandler) HandleSelectMethod(c *fiber.Ctx) error {
	var req SelectMethodRequest
	if ok, err := parseBody(c, h.validate, &req); !ok {
		return err
	}
	if err := h.payments.SelectMethod(req.MethodID); err != nil {
		return respondError(c, "Could not select payment method", err)
	}
	m, _ := h.payments.SelectedMethod()
	return c.JSON(fiber.Map{"selected": m})
}

// HandleCalculateFee quotes the fee of the active method for ?amount=.
func (h *PaymentHandler) HandleCalculateFee(c *fiber.Ctx) error {
	amount := c.QueryInt("amount", -1)
	if amount < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Query parameter 'amount' must be a non-negative integer",
		})
	}
	return c.JSON(fiber.Map{
		"amount": amount,
		"fee":    h.payments.CalculateFee(int64(amount)).StringFixed(2),
		"total":  h.payments.TotalWithFee(int64(amount)).StringFixed(2),
	})
}
