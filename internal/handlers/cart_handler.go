package handlers

import (
	"webstudio/internal/repositories"
	"webstudio/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// CartHandler exposes the session cart.
type CartHandler struct {
	cart         *services.CartService
	templateRepo repositories.TemplateRepository
	validate     *validator.Validate
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(cart *services.CartService, templateRepo repositories.TemplateRepository) *CartHandler {
	return &CartHandler{
		cart:         cart,
		templateRepo: templateRepo,
		validate:     validator.New(),
	}
}

// RegisterRoutes registers the cart routes with the Fiber app.
func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	cartRoutes := router.Group("/cart")
	cartRoutes.Get("/", h.HandleGetCart)
	cartRoutes.Delete("/", h.HandleClearCart)
	cartRoutes.Post("/items", h.HandleAddItem)
	cartRoutes.Patch("/items/:id", h.HandleUpdateQuantity)
	cartRoutes.Delete("/items/:id", h.HandleRemoveItem)
}

// AddItemRequest represents the request body for adding a catalog entry to the cart.
type AddItemRequest struct {
	TemplateID string `json:"template_id" validate:"required"`
	Quantity   int    `json:"quantity" validate:"omitempty,gte=1,lte=99"`
}

// UpdateQuantityRequest represents the request body for a quantity change.
// Values below 1 are clamped to 1.
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// HandleGetCart returns the cart with derived totals.
func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	return c.JSON(h.cart.Snapshot())
}

// HandleAddItem adds a catalog entry. Adding an entry that is already in the cart is a no-op.
func (h *CartHandler) HandleAddItem(c *fiber.Ctx) error {
	var req AddItemRequest
	if ok, err := parseBody(c, h.validate, &req); !ok {
		return err
	}

	tpl, err := h.templateRepo.GetByID(req.TemplateID)
	if err != nil {
		return respondError(c, "Could not add item", err)
	}
	item := tpl.CartItem()
	if req.Quantity > 0 {
		item.Quantity = req.Quantity
	}

	status := fiber.StatusCreated
	if !h.cart.AddItem(item) {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(h.cart.Snapshot())
}

// HandleUpdateQuantity sets the quantity of a cart line.
func (h *CartHandler) HandleUpdateQuantity(c *fiber.Ctx) error {
	var req UpdateQuantityRequest
	if ok, err := parseBody(c, h.validate, &req); !ok {
		return err
	}
	h.cart.UpdateQuantity(c.Params("id"), req.Quantity)
	return c.JSON(h.cart.Snapshot())
}

// HandleRemoveItem removes a cart line. Unknown IDs are ignored.
func (h *CartHandler) HandleRemoveItem(c *fiber.Ctx) error {
	h.cart.RemoveItem(c.Params("id"))
	return c.JSON(h.cart.Snapshot())
}

// HandleClearCart empties the cart.
func (h *CartHandler) HandleClearCart(c *fiber.Ctx) error {
	h.cart.Clear()
	return c.JSON(h.cart.Snapshot())
}
