package test

import (
	"net/http"
	"testing"
	"time"

	"github.com/marketloop/shop/api/weberr"
	"github.com/marketloop/shop/core/user"
)

func TestPasswordRecovery(t *testing.T) {
	env, err := NewTestEnv(t, "token_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	request := func(t *testing.T) string {
		t.Helper()
		env.Mailer.Forget(env.User.Email)

		w := env.do(t, http.MethodPost, "/tokens/recover", map[string]string{"email": env.User.Email})
		wantStatus(t, w, http.StatusNoContent)
		w.Body.Close()

		tok, ok := env.Mailer.WaitToken(env.User.Email, 2*time.Second)
		if !ok {
			t.Fatal("recovery mail never dispatched")
		}
		return tok
	}

	t.Run("unknown email leaks nothing", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/tokens/recover", map[string]string{"email": "ghost@shop.test"})
		wantStatus(t, w, http.StatusNoContent)
		w.Body.Close()
	})

	t.Run("confirmation mismatch fails before any write", func(t *testing.T) {
		tok := request(t)

		w := env.do(t, http.MethodPost, "/tokens/reset", map[string]string{
			"token":           tok,
			"password":        "brand-new-password",
			"passwordConfirm": "different-password",
		})
		wantKind(t, w, http.StatusBadRequest, weberr.KindValidation)

		// The old credential still works.
		if err := env.Login(env.User.Email, env.UserPass); err != nil {
			t.Fatal(err)
		}
		env.Logout()
	})

	t.Run("bogus token rejected", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/tokens/reset", map[string]string{
			"token":           "never-issued",
			"password":        "brand-new-password",
			"passwordConfirm": "brand-new-password",
		})
		wantKind(t, w, http.StatusBadRequest, weberr.KindValidation)
	})

	t.Run("expired token rejected without credential change", func(t *testing.T) {
		tok := request(t)

		const q = `UPDATE users SET reset_expiry = $2 WHERE user_id = $1`
		if _, err := env.DB.Exec(q, env.User.ID, time.Now().UTC().Add(-time.Minute)); err != nil {
			t.Fatal(err)
		}

		w := env.do(t, http.MethodPost, "/tokens/reset", map[string]string{
			"token":           tok,
			"password":        "brand-new-password",
			"passwordConfirm": "brand-new-password",
		})
		wantKind(t, w, http.StatusBadRequest, weberr.KindValidation)

		if err := env.Login(env.User.Email, env.UserPass); err != nil {
			t.Fatal(err)
		}
		env.Logout()
	})

	t.Run("valid token rotates the credential once", func(t *testing.T) {
		tok := request(t)

		w := env.do(t, http.MethodPost, "/tokens/reset", map[string]string{
			"token":           tok,
			"password":        "brand-new-password",
			"passwordConfirm": "brand-new-password",
		})
		wantStatus(t, w, http.StatusOK)

		var u user.User
		decodeBody(t, w, &u)
		if u.ID != env.User.ID {
			t.Fatalf("reset returned user %q, want %q", u.ID, env.User.ID)
		}

		if err := env.Login(env.User.Email, env.UserPass); err == nil {
			t.Fatal("old password still accepted after reset")
		}
		if err := env.Login(env.User.Email, "brand-new-password"); err != nil {
			t.Fatal(err)
		}
		env.Logout()

		// The token is burned on use.
		w = env.do(t, http.MethodPost, "/tokens/reset", map[string]string{
			"token":           tok,
			"password":        "yet-another-password",
			"passwordConfirm": "yet-another-password",
		})
		wantKind(t, w, http.StatusBadRequest, weberr.KindValidation)

		env.UserPass = "brand-new-password"
	})
}
