package handlers

import (
	"log"

	"webstudio/internal/repositories"

	"github.com/gofiber/fiber/v2"
)

// CatalogHandler serves the read-only template catalog.
type CatalogHandler struct {
	templateRepo repositories.TemplateRepository
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(templateRepo repositories.TemplateRepository) *CatalogHandler {
	return &CatalogHandler{templateRepo: templateRepo}
}

// RegisterRoutes registers the catalog routes with the Fiber app.
func (h *CatalogHandler) RegisterRoutes(router fiber.Router) {
	templateRoutes := router.Group("/templates")
	templateRoutes.Get("/", h.HandleGetTemplates)
	templateRoutes.Get("/:id", h.HandleGetTemplateByID)
}

// HandleGetTemplates lists the catalog, optionally filtered by ?category= and ?kind=.
func (h *CatalogHandler) HandleGetTemplates(c *fiber.Ctx) error {
	templates, err := h.templateRepo.GetAll()
	if err != nil {
		log.Printf("Error getting templates: %v", err)
		return respondError(c, "Could not retrieve templates", err)
	}

	category, kind := c.Query("category"), c.Query("kind")
	filtered := templates[:0]
	for _, t := range templates {
		if category != "" && t.Category != category {
			continue
		}
		if kind != "" && string(t.Kind) != kind {
			continue
		}
		filtered = append(filtered, t)
	}
	return c.JSON(filtered)
}

// HandleGetTemplateByID retrieves a single template.
func (h *CatalogHandler) HandleGetTemplateByID(c *fiber.Ctx) error {
	tpl, err := h.templateRepo.GetByID(c.Params("id"))
	if err != nil {
		return respondError(c, "Template not found", err)
	}
	return c.JSON(tpl)
}
