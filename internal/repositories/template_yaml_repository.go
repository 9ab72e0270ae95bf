package repositories

import (
	_ "embed"
	"fmt"
	"os"

	"webstudio/internal/models"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed data/templates.yaml
var defaultCatalog []byte

// YAMLTemplateRepository is a read-only catalog loaded from a YAML document.
type YAMLTemplateRepository struct {
	templates []models.Template
	byID      map[string]int
}

type catalogFile struct {
	Templates []models.Template `yaml:"templates"`
}

// NewDefaultTemplateRepository loads the catalog bundled with the binary.
func NewDefaultTemplateRepository() (*YAMLTemplateRepository, error) {
	return NewYAMLTemplateRepository(defaultCatalog)
}

// NewTemplateRepositoryFromFile loads the catalog from path.
func NewTemplateRepositoryFromFile(path string) (*YAMLTemplateRepository, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	return NewYAMLTemplateRepository(raw)
}

// NewYAMLTemplateRepository parses and validates a catalog document.
func NewYAMLTemplateRepository(raw []byte) (*YAMLTemplateRepository, error) {
	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	validate := validator.New()
	repo := &YAMLTemplateRepository{byID: make(map[string]int, len(file.Templates))}
	for _, t := range file.Templates {
		if err := validate.Struct(t); err != nil {
			return nil, fmt.Errorf("invalid catalog entry %q: %w", t.ID, err)
		}
		if _, dup := repo.byID[t.ID]; dup {
			return nil, fmt.Errorf("duplicate catalog entry %q", t.ID)
		}
		if t.OriginalPrice < t.Price {
			t.OriginalPrice = t.Price
		}
		repo.byID[t.ID] = len(repo.templates)
		repo.templates = append(repo.templates, t)
	}
	return repo, nil
}

// GetAll returns all templates in catalog order.
func (r *YAMLTemplateRepository) GetAll() ([]models.Template, error) {
	return append([]models.Template(nil), r.templates...), nil
}

// GetByID returns a template by its ID.
func (r *YAMLTemplateRepository) GetByID(id string) (*models.Template, error) {
	i, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
	}
	t := r.templates[i]
	return &t, nil
}
