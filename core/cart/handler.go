package cart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/marketloop/shop/api/web"
	"github.com/marketloop/shop/api/weberr"
	"github.com/marketloop/shop/core/claims"
	"github.com/marketloop/shop/validate"
)

const pqForeignKeyViolation = "23503"

func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.InvalidSession(err)
		}

		lines, err := Snapshot(ctx, db, clm.UserID)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, lines, http.StatusOK)
	}
}

func HandleAddItem(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.InvalidSession(err)
		}

		var ln LineNew
		if err := web.Decode(w, r, &ln); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(ln); err != nil {
			return weberr.Validation(err, err.Error())
		}

		line, err := AddItem(ctx, db, clm.UserID, ln.ItemID, validate.GenerateID())
		if err != nil {
			var pqe *pq.Error
			if errors.As(err, &pqe) && pqe.Code == pqForeignKeyViolation {
				return weberr.NotFound(fmt.Errorf("item[%s] does not exist: %w", ln.ItemID, err))
			}
			return err
		}

		return web.Respond(ctx, w, line, http.StatusOK)
	}
}

// HandleDeleteLine removes a single cart line. Missing line and foreign
// line are distinct failures: 404 for the former, 403 for the latter.
func HandleDeleteLine(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.InvalidSession(err)
		}

		lineID := web.Param(r, "id")
		if err := validate.CheckID(lineID); err != nil {
			return weberr.Validation(err, err.Error())
		}

		line, err := FetchLine(ctx, db, lineID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return weberr.NotFound(err)
			}
			return err
		}

		if !claims.Authorize(clm, line.UserID) {
			return weberr.Forbidden(fmt.Errorf("user[%s] does not own cart line[%s]", clm.UserID, line.ID))
		}

		if err := DeleteLine(ctx, db, lineID); err != nil {
			return err
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}
