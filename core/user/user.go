package user

import (
	"time"

	"github.com/lib/pq"
)

type User struct {
	ID           string         `json:"id" db:"user_id"`
	Name         string         `json:"name" db:"name"`
	Email        string         `json:"email" db:"email"`
	PasswordHash string         `json:"-" db:"password_hash"`
	Permissions  pq.StringArray `json:"permissions" db:"permissions"`
	ResetToken   *string        `json:"-" db:"reset_token"`
	ResetExpiry  *time.Time     `json:"-" db:"reset_expiry"`
	CreatedAt    time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time      `json:"updatedAt" db:"updated_at"`
}

type UserNew struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// PermissionsUp deliberately lists the one mutable field: identity and
// credentials can never travel through a permission update.
type PermissionsUp struct {
	Permissions []string `json:"permissions" validate:"required,dive,oneof=ADMIN USER ITEMDELETE PERMISSIONUPDATE"`
}
