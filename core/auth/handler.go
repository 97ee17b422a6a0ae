package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/marketloop/shop/api/web"
	"github.com/marketloop/shop/api/weberr"
	"github.com/marketloop/shop/core/claims"
	"github.com/marketloop/shop/core/user"
	"github.com/marketloop/shop/validate"
)

const pqUniqueViolation = "23505"

type LoginNew struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func HandleSignup(db *sqlx.DB, secret []byte, lifetime time.Duration) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var un user.UserNew
		if err := web.Decode(w, r, &un); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(un); err != nil {
			return weberr.Validation(err, err.Error())
		}

		hash, err := HashPassword(un.Password)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		u := user.User{
			ID:           validate.GenerateID(),
			Name:         un.Name,
			Email:        un.Email,
			PasswordHash: hash,
			Permissions:  []string{claims.PermUser},
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		if err := user.Create(ctx, db, u); err != nil {
			var pqe *pq.Error
			if errors.As(err, &pqe) && pqe.Code == pqUniqueViolation {
				return weberr.Validation(err, "email is already registered")
			}
			return err
		}

		token, err := IssueSession(secret, u.ID)
		if err != nil {
			return err
		}
		SetSessionCookie(w, token, lifetime)

		return web.Respond(ctx, w, u, http.StatusCreated)
	}
}

func HandleLogin(db *sqlx.DB, secret []byte, lifetime time.Duration) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var ln LoginNew
		if err := web.Decode(w, r, &ln); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(ln); err != nil {
			return weberr.Validation(err, err.Error())
		}

		// Unknown email and wrong password collapse into the same
		// failure so the endpoint cannot be used to probe accounts.
		u, err := user.FetchByEmail(ctx, db, ln.Email)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return weberr.NotAuthenticated(err)
			}
			return err
		}

		if !VerifyPassword(ln.Password, u.PasswordHash) {
			return weberr.NotAuthenticated(fmt.Errorf("wrong password for user[%s]", u.ID))
		}

		token, err := IssueSession(secret, u.ID)
		if err != nil {
			return err
		}
		SetSessionCookie(w, token, lifetime)

		return web.Respond(ctx, w, u, http.StatusOK)
	}
}

func HandleLogout() web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		ClearSessionCookie(w)
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}
