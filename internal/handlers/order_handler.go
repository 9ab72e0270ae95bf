package handlers

import (
	"fmt"
	"log"

	"webstudio/internal/middleware"
	"webstudio/internal/models"
	"webstudio/internal/repositories"
	"webstudio/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service      *services.OrderService
	cart         *services.CartService
	templateRepo repositories.TemplateRepository
	validate     *validator.Validate
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService, cart *services.CartService, templateRepo repositories.TemplateRepository) *OrderHandler {
	return &OrderHandler{
		service:      service,
		cart:         cart,
		templateRepo: templateRepo,
		validate:     validator.New(),
	}
}

// RegisterRoutes registers the order routes with the Fiber app.
// Every order route requires a session.
func (h *OrderHandler) RegisterRoutes(router fiber.Router, protect fiber.Handler) {
	orderRoutes := router.Group("/orders", protect)
	orderRoutes.Get("/", h.HandleGetOrders)
	orderRoutes.Post("/checkout", h.HandleCheckout)
	orderRoutes.Get("/current", h.HandleGetCurrentOrder)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Patch("/:id/status", middleware.AdminOnly(), h.HandleUpdateOrderStatus)
	orderRoutes.Post("/:id/deposit", h.HandlePayDeposit)
	orderRoutes.Post("/:id/final", h.HandlePayFinal)
	orderRoutes.Post("/:id/cancel", h.HandleCancelOrder)
}

// CheckoutRequest represents the request body for checkout.
// TemplateID defaults to the first package in the cart.
type CheckoutRequest struct {
	TemplateID string `json:"template_id" validate:"omitempty,max=128"`
}

// UpdateStatusRequest represents the request body for a status change.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func sessionUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals("user").(*models.User)
	return user
}

// HandleGetOrders lists the orders of the session user, or all orders for admins.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	user := sessionUser(c)
	var (
		orders []models.Order
		err    error
	)
	if user.IsAdmin() {
		orders, err = h.service.GetAllOrders()
	} else {
		orders, err = h.service.GetOrdersByCustomer(user.ID)
	}
	if err != nil {
		log.Printf("Error getting orders: %v", err)
		return respondError(c, "Could not retrieve orders", err)
	}
	return c.JSON(orders)
}

// HandleCheckout turns the cart into a pending order and empties the cart.
func (h *OrderHandler) HandleCheckout(c *fiber.Ctx) error {
	var req CheckoutRequest
	if len(c.Body()) > 0 {
		if ok, err := parseBody(c, h.validate, &req); !ok {
			return err
		}
	}

	var order *models.Order
	err := h.cart.Checkout(func(snapshot models.CartSnapshot) error {
		templateID := req.TemplateID
		if templateID == "" {
			templateID = snapshot.Items[0].ID
			for _, it := range snapshot.Items {
				if it.Kind == models.ItemKindPackage {
					templateID = it.ID
					break
				}
			}
		}
		tpl, err := h.templateRepo.GetByID(templateID)
		if err != nil {
			return err
		}
		order, err = h.service.CreateOrder(c.UserContext(), snapshot, tpl.Meta())
		return err
	})
	if err != nil {
		log.Printf("Error creating order: %v", err)
		return respondError(c, "Could not create order", err)
	}

	return c.Status(fiber.StatusCreated).JSON(order)
}

// HandleGetCurrentOrder returns the order created last in this session.
func (h *OrderHandler) HandleGetCurrentOrder(c *fiber.Ctx) error {
	order, err := h.service.CurrentOrder()
	if err != nil {
		return respondError(c, "No current order", err)
	}
	if !canAccess(sessionUser(c), order) {
		return respondError(c, "No current order", fmt.Errorf("%w: %s", services.ErrOrderNotFound, order.ID))
	}
	return c.JSON(order)
}

// HandleGetOrderByID retrieves a single order by its ID.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	order, err := h.ownedOrder(c)
	if err != nil {
		return respondError(c, fmt.Sprintf("Order with ID %s not found", c.Params("id")), err)
	}
	return c.JSON(order)
}

// HandleUpdateOrderStatus moves an order along the fulfillment lifecycle.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	orderID := c.Params("id")
	var req UpdateStatusRequest
	if ok, err := parseBody(c, h.validate, &req); !ok {
		return err
	}

	order, err := h.service.UpdateStatus(c.UserContext(), orderID, models.OrderStatus(req.Status))
	if err != nil {
		log.Printf("Error updating order status for order %s: %v", orderID, err)
		return respondError(c, "Order update failed", err)
	}
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Order %s status updated successfully to %s", orderID, order.Status),
		"order":   order,
	})
}

// HandlePayDeposit charges the deposit with the selected payment method.
func (h *OrderHandler) HandlePayDeposit(c *fiber.Ctx) error {
	if _, err := h.ownedOrder(c); err != nil {
		return respondError(c, "Deposit payment failed", err)
	}
	order, err := h.service.PayDeposit(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, "Deposit payment failed", err)
	}
	return c.JSON(order)
}

// HandlePayFinal charges the final payment with the selected payment method.
func (h *OrderHandler) HandlePayFinal(c *fiber.Ctx) error {
	if _, err := h.ownedOrder(c); err != nil {
		return respondError(c, "Final payment failed", err)
	}
	order, err := h.service.PayFinal(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, "Final payment failed", err)
	}
	return c.JSON(order)
}

// HandleCancelOrder cancels a non-terminal order.
func (h *OrderHandler) HandleCancelOrder(c *fiber.Ctx) error {
	if _, err := h.ownedOrder(c); err != nil {
		return respondError(c, "Cancellation failed", err)
	}
	order, err := h.service.CancelOrder(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, "Cancellation failed", err)
	}
	return c.JSON(order)
}

// ownedOrder loads the :id order if the session user may see it.
// Orders of other customers are reported as not found.
func (h *OrderHandler) ownedOrder(c *fiber.Ctx) (*models.Order, error) {
	order, err := h.service.GetOrderByID(c.Params("id"))
	if err != nil {
		return nil, err
	}
	if !canAccess(sessionUser(c), order) {
		return nil, fmt.Errorf("%w: %s", services.ErrOrderNotFound, order.ID)
	}
	return order, nil
}

func canAccess(user *models.User, order *models.Order) bool {
	return user.IsAdmin() || (user != nil && order.Customer.ID == user.ID)
}
