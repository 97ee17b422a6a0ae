package item

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/marketloop/shop/api/web"
	"github.com/marketloop/shop/api/weberr"
	"github.com/marketloop/shop/core/claims"
	"github.com/marketloop/shop/validate"
)

func HandleCreate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.InvalidSession(err)
		}

		var in ItemNew
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(in); err != nil {
			return weberr.Validation(err, err.Error())
		}

		now := time.Now().UTC()
		it := Item{
			ID:            validate.GenerateID(),
			UserID:        clm.UserID,
			Title:         in.Title,
			Description:   in.Description,
			Price:         in.Price,
			ImageURL:      in.ImageURL,
			LargeImageURL: in.LargeImageURL,
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		if err := Create(ctx, db, it); err != nil {
			return err
		}

		return web.Respond(ctx, w, it, http.StatusCreated)
	}
}

func HandleList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		items, err := List(ctx, db)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, items, http.StatusOK)
	}
}

func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		itemID := web.Param(r, "id")
		if err := validate.CheckID(itemID); err != nil {
			return weberr.Validation(err, err.Error())
		}

		it, err := Fetch(ctx, db, itemID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return weberr.NotFound(err)
			}
			return err
		}

		return web.Respond(ctx, w, it, http.StatusOK)
	}
}

func HandleUpdate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.InvalidSession(err)
		}

		itemID := web.Param(r, "id")
		if err := validate.CheckID(itemID); err != nil {
			return weberr.Validation(err, err.Error())
		}

		var up ItemUp
		if err := web.Decode(w, r, &up); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(up); err != nil {
			return weberr.Validation(err, err.Error())
		}

		it, err := Fetch(ctx, db, itemID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return weberr.NotFound(err)
			}
			return err
		}

		if !claims.Authorize(clm, it.UserID, claims.PermAdmin) {
			return weberr.Forbidden(fmt.Errorf("user[%s] may not update item[%s]", clm.UserID, it.ID))
		}

		it = applyUpdate(it, up)
		if err := Update(ctx, db, it); err != nil {
			return err
		}

		return web.Respond(ctx, w, it, http.StatusOK)
	}
}

// HandleDelete removes a catalog item. Allowed for the item's creator
// and for actors holding ADMIN or ITEMDELETE.
func HandleDelete(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.InvalidSession(err)
		}

		itemID := web.Param(r, "id")
		if err := validate.CheckID(itemID); err != nil {
			return weberr.Validation(err, err.Error())
		}

		it, err := Fetch(ctx, db, itemID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return weberr.NotFound(err)
			}
			return err
		}

		if !claims.Authorize(clm, it.UserID, claims.PermAdmin, claims.PermItemDelete) {
			return weberr.Forbidden(fmt.Errorf("user[%s] may not delete item[%s]", clm.UserID, it.ID))
		}

		if err := Delete(ctx, db, itemID); err != nil {
			return err
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}
