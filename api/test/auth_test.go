package test

import (
	"net/http"
	"testing"

	"github.com/marketloop/shop/api/weberr"
	"github.com/marketloop/shop/core/user"
)

func TestAuth(t *testing.T) {
	env, err := NewTestEnv(t, "auth_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	t.Run("signup and session", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/auth/signup", map[string]string{
			"name":     "New User",
			"email":    "new@shop.test",
			"password": "a-long-password",
		})
		wantStatus(t, w, http.StatusCreated)

		var u user.User
		decodeBody(t, w, &u)
		if u.Email != "new@shop.test" {
			t.Fatalf("got email %q", u.Email)
		}

		w = env.do(t, http.MethodGet, "/users/current", nil)
		wantStatus(t, w, http.StatusOK)
		w.Body.Close()
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/auth/signup", map[string]string{
			"name":     "Other",
			"email":    "new@shop.test",
			"password": "another-password",
		})
		wantKind(t, w, http.StatusBadRequest, weberr.KindValidation)
	})

	t.Run("logout invalidates the cookie", func(t *testing.T) {
		if err := env.Logout(); err != nil {
			t.Fatal(err)
		}

		w := env.do(t, http.MethodGet, "/users/current", nil)
		wantKind(t, w, http.StatusUnauthorized, weberr.KindInvalidSession)
	})

	t.Run("wrong password", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/auth/login", map[string]string{
			"email":    env.User.Email,
			"password": "not-the-password",
		})
		wantKind(t, w, http.StatusUnauthorized, weberr.KindAuthenticationFailed)
	})

	t.Run("unknown email fails the same way", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/auth/login", map[string]string{
			"email":    "ghost@shop.test",
			"password": "whatever-password",
		})
		wantKind(t, w, http.StatusUnauthorized, weberr.KindAuthenticationFailed)
	})

	t.Run("login", func(t *testing.T) {
		if err := env.Login(env.User.Email, env.UserPass); err != nil {
			t.Fatal(err)
		}

		w := env.do(t, http.MethodGet, "/users/current", nil)
		wantStatus(t, w, http.StatusOK)

		var u user.User
		decodeBody(t, w, &u)
		if u.ID != env.User.ID {
			t.Fatalf("got user %q, want %q", u.ID, env.User.ID)
		}
	})
}
