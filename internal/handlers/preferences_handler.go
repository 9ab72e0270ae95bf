package handlers

import (
	"webstudio/internal/models"
	"webstudio/internal/repositories"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// PreferencesHandler exposes the persisted UI preference records.
type PreferencesHandler struct {
	prefs    *repositories.PreferencesRepository
	validate *validator.Validate
}

// NewPreferencesHandler creates a new PreferencesHandler.
func NewPreferencesHandler(prefs *repositories.PreferencesRepository) *PreferencesHandler {
	return &PreferencesHandler{
		prefs:    prefs,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the preference routes with the Fiber app.
func (h *PreferencesHandler) RegisterRoutes(router fiber.Router) {
	prefRoutes := router.Group("/preferences")
	prefRoutes.Get("/consent", h.HandleGetConsent)
	prefRoutes.Put("/consent", h.HandleSetConsent)
	prefRoutes.Get("/contrast", h.HandleGetContrast)
	prefRoutes.Put("/contrast", h.HandleSetContrast)
	prefRoutes.Get("/chat", h.HandleGetChat)
	prefRoutes.Post("/chat", h.HandleAppendChat)
}

// ConsentRequest represents the cookie banner answer.
type ConsentRequest struct {
	Consent string `json:"consent" validate:"required,oneof=accepted declined"`
}

// ContrastRequest represents the contrast slider value.
type ContrastRequest struct {
	Contrast *int `json:"contrast" validate:"required,gte=0,lte=100"`
}

// HandleGetConsent returns the stored consent, or null if the banner was never answered.
func (h *PreferencesHandler) HandleGetConsent(c *fiber.Ctx) error {
	consent, err := h.prefs.CookieConsent()
	if err != nil {
		return respondError(c, "Could not read consent", err)
	}
	if consent == "" {
		return c.JSON(fiber.Map{"consent": nil})
	}
	return c.JSON(fiber.Map{"consent": consent})
}

// HandleSetConsent stores the consent answer.
func (h *PreferencesHandler) HandleSetConsent(c *fiber.Ctx) error {
	var req ConsentRequest
	if ok, err := parseBody(c, h.validate, &req); !ok {
		return err
	}
	if err := h.prefs.SetCookieConsent(models.CookieConsent(req.Consent)); err != nil {
		return respondError(c, "Could not store consent", err)
	}
	return c.JSON(fiber.Map{"consent": req.Consent})
}

// HandleGetContrast returns the stored contrast, or null if unset.
func (h *PreferencesHandler) HandleGetContrast(c *fiber.Ctx) error {
	v, ok, err := h.prefs.Contrast()
	if err != nil {
		return respondError(c, "Could not read contrast", err)
	}
	if !ok {
		return c.JSON(fiber.Map{"contrast": nil})
	}
	return c.JSON(fiber.Map{"contrast": v})
}

// HandleSetContrast stores the contrast value.
func (h *PreferencesHandler) HandleSetContrast(c *fiber.Ctx) error {
	var req ContrastRequest
	if ok, err := parseBody(c, h.validate, &req); !ok {
		return err
	}
	if err := h.prefs.SetContrast(*req.Contrast); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Could not store contrast",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{"contrast": *req.Contrast})
}

// HandleGetChat returns the retained chat history.
func (h *PreferencesHandler) HandleGetChat(c *fiber.Ctx) error {
	msgs, err := h.prefs.ChatHistory()
	if err != nil {
		return respondError(c, "Could not read chat history", err)
	}
	return c.JSON(msgs)
}

// HandleAppendChat stores one chat message.
func (h *PreferencesHandler) HandleAppendChat(c *fiber.Ctx) error {
	var msg models.ChatMessage
	if ok, err := parseBody(c, h.validate, &msg); !ok {
		return err
	}
	if err := h.prefs.AppendChatMessage(msg); err != nil {
		return respondError(c, "Could not store chat message", err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}
