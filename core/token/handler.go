package token

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/marketloop/shop/api/background"
	"github.com/marketloop/shop/api/web"
	"github.com/marketloop/shop/api/weberr"
	"github.com/marketloop/shop/core/auth"
	"github.com/marketloop/shop/core/user"
	"github.com/marketloop/shop/random"
	"github.com/marketloop/shop/validate"
)

const tokenLength = 64

// HandleRecoveryRequest stores a reset token with an absolute expiry
// and mails it. The response is 204 whether or not the account exists,
// so the endpoint cannot be used to enumerate emails.
func HandleRecoveryRequest(db *sqlx.DB, mailer Mailer, timeout time.Duration, bg *background.Background) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var rn RecoveryNew
		if err := web.Decode(w, r, &rn); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(rn); err != nil {
			return weberr.Validation(err, err.Error())
		}

		tok, err := random.StringSecure(tokenLength)
		if err != nil {
			return fmt.Errorf("generating reset token: %w", err)
		}

		expiry := time.Now().UTC().Add(timeout)

		u, err := user.SetResetToken(ctx, db, rn.Email, tok, expiry)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return web.Respond(ctx, w, nil, http.StatusNoContent)
			}
			return err
		}

		bg.Add(func() error {
			if err := mailer.SendRecovery(u.Email, tok); err != nil {
				return fmt.Errorf("sending recovery mail to user[%s]: %w", u.ID, err)
			}
			return nil
		})

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

// HandleRecovery redeems a reset token. The confirmation check runs
// before anything touches the database; an unknown or expired token
// fails without mutating the credential.
func HandleRecovery(db *sqlx.DB, secret []byte, lifetime time.Duration) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var ru RecoveryUp
		if err := web.Decode(w, r, &ru); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if ru.Password != ru.PasswordConfirm {
			return weberr.Validation(errors.New("password confirmation mismatch"), "passwords do not match")
		}

		if err := validate.Check(ru); err != nil {
			return weberr.Validation(err, err.Error())
		}

		u, err := user.FetchByResetToken(ctx, db, ru.Token)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return weberr.Validation(err, "reset token is invalid or expired")
			}
			return err
		}

		if u.ResetExpiry == nil || time.Now().UTC().After(*u.ResetExpiry) {
			return weberr.Validation(
				fmt.Errorf("reset token of user[%s] expired", u.ID),
				"reset token is invalid or expired",
			)
		}

		hash, err := auth.HashPassword(ru.Password)
		if err != nil {
			return err
		}

		if err := user.UpdateCredential(ctx, db, u.ID, hash); err != nil {
			return err
		}

		session, err := auth.IssueSession(secret, u.ID)
		if err != nil {
			return err
		}
		auth.SetSessionCookie(w, session, lifetime)

		return web.Respond(ctx, w, u, http.StatusOK)
	}
}
