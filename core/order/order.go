package order

import (
	"time"

	"github.com/marketloop/shop/core/cart"
)

// Order is immutable once created: exactly one per successful charge,
// never updated or deleted by this service.
type Order struct {
	ID        string    `json:"id" db:"order_id"`
	UserID    string    `json:"userId" db:"user_id"`
	Total     int       `json:"total" db:"total"`
	ChargeID  string    `json:"chargeId" db:"charge_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	Items     []Item    `json:"items" db:"-"`
}

// Item is a denormalized copy of the catalog row at purchase time, so
// later catalog edits never rewrite order history.
type Item struct {
	ID          string `json:"id" db:"order_item_id"`
	OrderID     string `json:"-" db:"order_id"`
	ItemID      string `json:"itemId" db:"item_id"`
	Title       string `json:"title" db:"title"`
	Description string `json:"description" db:"description"`
	Price       int    `json:"price" db:"price"`
	ImageURL    string `json:"imageUrl" db:"image_url"`
	Quantity    int    `json:"quantity" db:"quantity"`
}

// Total prices a cart snapshot in integer minor units. No floating
// point: 2x1999 + 1x500 is 4498, not 44.98 of anything.
func Total(lines []cart.SnapLine) int {
	var tot int
	for _, ln := range lines {
		tot += ln.Quantity * ln.Price
	}
	return tot
}
