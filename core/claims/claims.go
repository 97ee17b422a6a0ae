// Package claims carries the authenticated identity through the request
// context and evaluates authorization predicates over it.
package claims

import (
	"context"
	"errors"
)

// Permission tags a user may hold. PermUser is granted on signup; the
// rest are assigned through the permission-update flow.
const (
	PermAdmin            = "ADMIN"
	PermUser             = "USER"
	PermItemDelete       = "ITEMDELETE"
	PermPermissionUpdate = "PERMISSIONUPDATE"
)

type Claims struct {
	UserID      string
	Permissions []string
}

type ctxKey int

const claimsKey ctxKey = 1

func Set(ctx context.Context, claims Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

func Get(ctx context.Context) (Claims, error) {
	v, ok := ctx.Value(claimsKey).(Claims)
	if !ok {
		return Claims{}, errors.New("claim value missing from context")
	}
	return v, nil
}

// Authorize allows when the actor owns the resource (ownerID non-empty
// and matching) or holds at least one of the required permissions. Pure
// predicate: no side effects, safe under any concurrency.
func Authorize(c Claims, ownerID string, required ...string) bool {
	if ownerID != "" && c.UserID == ownerID {
		return true
	}

	for _, want := range required {
		for _, have := range c.Permissions {
			if have == want {
				return true
			}
		}
	}

	return false
}

func IsAdmin(ctx context.Context) bool {
	c, err := Get(ctx)
	if err != nil {
		return false
	}

	return Authorize(c, "", PermAdmin)
}
