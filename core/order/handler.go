package order

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
	"github.com/marketloop/shop/payment"
	"github.com/marketloop/shop/validate"
)

type CheckoutNew struct {
	Token string `json:"token" validate:"required"`
}

func HandleCheckout(db *sqlx.DB, gw payment.Gateway, cfg CheckoutConfig) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.InvalidSession(err)
		}

		var cn CheckoutNew
		if err := web.Decode(w, r, &cn); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(cn); err != nil {
			return weberr.Validation(err, err.Error())
		}

		ord, err := Checkout(ctx, db, gw, cfg, clm.UserID, cn.Token)
		if err != nil {
			switch {
			case errors.Is(err, ErrEmptyCart):
				return weberr.NewError(err, weberr.KindEmptyCart,
					"the cart is empty", http.StatusUnprocessableEntity)

			case errors.Is(err, payment.ErrDeclined):
				return weberr.NewError(err, weberr.KindPaymentDeclined,
					"the payment was declined", http.StatusPaymentRequired)

			case errors.Is(err, payment.ErrUnavailable):
				return weberr.NewError(err, weberr.KindGatewayUnavailable,
					"the payment could not be completed, do not retry before checking your account", http.StatusBadGateway)

			case errors.Is(err, ErrConflict):
				return weberr.NewError(err, weberr.KindCheckoutConflict,
					"another checkout for this cart completed first", http.StatusConflict)
			}
			return err
		}

		return web.Respond(ctx, w, ord, http.StatusCreated)
	}
}

func HandleList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.InvalidSession(err)
		}

		orders, err := ListByUser(ctx, db, clm.UserID)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, orders, http.StatusOK)
	}
}

func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.InvalidSession(err)
		}

		orderID := web.Param(r, "id")
		if err := validate.CheckID(orderID); err != nil {
			return weberr.Validation(err, err.Error())
		}

		ord, err := Fetch(ctx, db, orderID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return weberr.NotFound(err)
			}
			return err
		}

		if !claims.Authorize(clm, ord.UserID, claims.PermAdmin) {
			return weberr.Forbidden(fmt.Errorf("user[%s] may not view order[%s]", clm.UserID, ord.ID))
		}

		return web.Respond(ctx, w, ord, http.StatusOK)
	}
}
