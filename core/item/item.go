package item

import "time"

// Item prices are integer minor currency units. Money never goes
// through floating point anywhere in this codebase.
type Item struct {
	ID            string    `json:"id" db:"item_id"`
	UserID        string    `json:"userId" db:"user_id"`
	Title         string    `json:"title" db:"title"`
	Description   string    `json:"description" db:"description"`
	Price         int       `json:"price" db:"price"`
	ImageURL      string    `json:"imageUrl" db:"image_url"`
	LargeImageURL string    `json:"largeImageUrl" db:"large_image_url"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
}

type ItemNew struct {
	Title         string `json:"title" validate:"required"`
	Description   string `json:"description" validate:"required"`
	Price         int    `json:"price" validate:"gte=0"`
	ImageURL      string `json:"imageUrl" validate:"omitempty,url"`
	LargeImageURL string `json:"largeImageUrl" validate:"omitempty,url"`
}

type ItemUp struct {
	Title         *string `json:"title"`
	Description   *string `json:"description"`
	Price         *int    `json:"price" validate:"omitempty,gte=0"`
	ImageURL      *string `json:"imageUrl" validate:"omitempty,url"`
	LargeImageURL *string `json:"largeImageUrl" validate:"omitempty,url"`
}
