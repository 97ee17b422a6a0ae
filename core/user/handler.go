package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/marketloop/shop/api/web"
	"github.com/marketloop/shop/api/weberr"
	"github.com/marketloop/shop/core/claims"
	"github.com/marketloop/shop/validate"
)

func HandleShowCurrent(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.InvalidSession(err)
		}

		u, err := Fetch(ctx, db, clm.UserID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return weberr.NotFound(err)
			}
			return err
		}

		return web.Respond(ctx, w, u, http.StatusOK)
	}
}

// HandleUpdatePermissions replaces the target user's permission set.
// Only actors holding ADMIN or PERMISSIONUPDATE may call it; ownership
// of the target account grants nothing here.
func HandleUpdatePermissions(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.InvalidSession(err)
		}

		if !claims.Authorize(clm, "", claims.PermAdmin, claims.PermPermissionUpdate) {
			return weberr.Forbidden(fmt.Errorf("user[%s] may not update permissions", clm.UserID))
		}

		userID := web.Param(r, "id")
		if err := validate.CheckID(userID); err != nil {
			return weberr.Validation(err, err.Error())
		}

		var up PermissionsUp
		if err := web.Decode(w, r, &up); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(up); err != nil {
			return weberr.Validation(err, err.Error())
		}

		u, err := UpdatePermissions(ctx, db, userID, up.Permissions)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return weberr.NotFound(err)
			}
			return err
		}

		return web.Respond(ctx, w, u, http.StatusOK)
	}
}
