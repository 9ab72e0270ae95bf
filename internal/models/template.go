package models

// Template represents a website template (or add-on service) in the catalog.
type Template struct {
	ID            string   `json:"id" yaml:"id" validate:"required"`
	Name          string   `json:"name" yaml:"name" validate:"required,min=3,max=100"`
	Category      string   `json:"category" yaml:"category"`
	Kind          ItemKind `json:"kind" yaml:"kind" validate:"oneof=package addon"`
	Description   string   `json:"description" yaml:"description" validate:"omitempty,max=500"`
	Image         string   `json:"image,omitempty" yaml:"image"`
	Price         int64    `json:"price" yaml:"price" validate:"gte=0"`
	OriginalPrice int64    `json:"original_price" yaml:"original_price" validate:"gte=0"`
	Discount      int      `json:"discount" yaml:"discount" validate:"gte=0,lt=100"`
	ServiceLevel  string   `json:"service_level" yaml:"service_level"`
	Features      []string `json:"features" yaml:"features"`
	TechStack     []string `json:"tech_stack" yaml:"tech_stack"`
}

// CartItem converts the template into a cart line with quantity 1.
func (t Template) CartItem() CartItem {
	return CartItem{
		ID:          t.ID,
		Name:        t.Name,
		Price:       t.Price,
		Kind:        t.Kind,
		Description: t.Description,
		Image:       t.Image,
		Category:    t.Category,
		Quantity:    1,
	}
}

// Meta returns the product reference captured on an order.
func (t Template) Meta() TemplateMeta {
	return TemplateMeta{
		ID:            t.ID,
		Name:          t.Name,
		Category:      t.Category,
		ServiceLevel:  t.ServiceLevel,
		OriginalPrice: t.OriginalPrice,
		Discount:      t.Discount,
		Features:      append([]string(nil), t.Features...),
		TechStack:     append([]string(nil), t.TechStack...),
	}
}

// TemplateMeta is the template reference denormalized onto an order.
type TemplateMeta struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Category      string   `json:"category"`
	ServiceLevel  string   `json:"service_level"`
	OriginalPrice int64    `json:"original_price"`
	Discount      int      `json:"discount"`
	Features      []string `json:"features"`
	TechStack     []string `json:"tech_stack"`
}
