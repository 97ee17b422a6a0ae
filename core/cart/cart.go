package cart

import "time"

// Line is one (user, item, quantity) record. The store enforces at most
// one line per (user, item): adding the same item again increments the
// quantity instead of inserting a sibling row.
type Line struct {
	ID        string    `json:"id" db:"cart_item_id"`
	UserID    string    `json:"-" db:"user_id"`
	ItemID    string    `json:"itemId" db:"item_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

type LineNew struct {
	ItemID string `json:"itemId" validate:"required,uuid4"`
}

// SnapLine is a cart line joined with the current catalog row. Checkout
// prices and denormalizes orders from this view.
type SnapLine struct {
	Line
	Title       string `json:"title" db:"title"`
	Description string `json:"description" db:"description"`
	Price       int    `json:"price" db:"price"`
	ImageURL    string `json:"imageUrl" db:"image_url"`
}
