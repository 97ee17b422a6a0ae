package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/marketloop/shop/api/web"
	"github.com/marketloop/shop/api/weberr"
	"github.com/marketloop/shop/core/claims"
	"github.com/marketloop/shop/core/user"
)

// Authenticate validates the session cookie and attaches claims with
// the user's current permission set. Permissions are read fresh on
// every request: a revoked tag takes effect immediately even though the
// session token itself cannot be revoked.
func Authenticate(db *sqlx.DB, secret []byte) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			c, err := r.Cookie(SessionCookie)
			if err != nil {
				return weberr.InvalidSession(ErrInvalidSession)
			}

			userID, err := ValidateSession(secret, c.Value)
			if err != nil {
				return weberr.InvalidSession(err)
			}

			u, err := user.Fetch(ctx, db, userID)
			if err != nil {
				return weberr.InvalidSession(fmt.Errorf("session user[%s] not found: %w", userID, err))
			}

			ctx = claims.Set(ctx, claims.Claims{
				UserID:      u.ID,
				Permissions: u.Permissions,
			})

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}
