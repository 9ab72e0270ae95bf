package models

// ItemKind distinguishes purchasable packages from add-ons.
type ItemKind string

const (
	ItemKindPackage ItemKind = "package"
	ItemKindAddon   ItemKind = "addon"
)

// CartItem represents a single purchasable SKU in the cart.
// Price is in whole euro units.
type CartItem struct {
	ID          string   `json:"id" validate:"required"`
	Name        string   `json:"name" validate:"required"`
	Price       int64    `json:"price" validate:"gte=0"`
	Kind        ItemKind `json:"kind" validate:"oneof=package addon"`
	Description string   `json:"description,omitempty"`
	Image       string   `json:"image,omitempty"`
	Category    string   `json:"category,omitempty"`
	Quantity    int      `json:"quantity"`
}

// Subtotal returns price times quantity.
func (i CartItem) Subtotal() int64 {
	return i.Price * int64(i.Quantity)
}

// CartSnapshot is an immutable copy of the cart taken at checkout time.
type CartSnapshot struct {
	Items     []CartItem `json:"items"`
	Total     int64      `json:"total"`
	ItemCount int        `json:"item_count"`
}
