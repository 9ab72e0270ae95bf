package repositories

import (
	"errors"

	"webstudio/internal/models"
)

// ErrTemplateNotFound is returned when the catalog has no template with the requested ID.
var ErrTemplateNotFound = errors.New("template not found")

// TemplateRepository defines read access to the template catalog.
type TemplateRepository interface {
	GetAll() ([]models.Template, error)
	GetByID(id string) (*models.Template, error)
}
