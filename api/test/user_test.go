package test

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/marketloop/shop/api/weberr"
	"github.com/marketloop/shop/core/user"
)

func TestPermissions(t *testing.T) {
	env, err := NewTestEnv(t, "user_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	target, err := seedUser(env.DB, "Target", "target@shop.test", "target-password", []string{"USER"})
	if err != nil {
		t.Fatal(err)
	}

	t.Run("plain user may not grant permissions", func(t *testing.T) {
		if err := env.Login(env.User.Email, env.UserPass); err != nil {
			t.Fatal(err)
		}
		defer env.Logout()

		w := env.do(t, http.MethodPut, "/users/"+target.ID+"/permissions", map[string][]string{
			"permissions": {"USER", "ADMIN"},
		})
		wantKind(t, w, http.StatusForbidden, weberr.KindForbidden)

		got, err := user.Fetch(context.Background(), env.DB, target.ID)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]string{"USER"}, []string(got.Permissions)); diff != "" {
			t.Fatalf("permissions changed on denied update (-want +got):\n%s", diff)
		}
	})

	t.Run("unknown tags rejected", func(t *testing.T) {
		if err := env.Login(env.Admin.Email, env.AdminPass); err != nil {
			t.Fatal(err)
		}
		defer env.Logout()

		w := env.do(t, http.MethodPut, "/users/"+target.ID+"/permissions", map[string][]string{
			"permissions": {"USER", "SUPERUSER"},
		})
		wantKind(t, w, http.StatusBadRequest, weberr.KindValidation)
	})

	t.Run("admin grants and revokes", func(t *testing.T) {
		if err := env.Login(env.Admin.Email, env.AdminPass); err != nil {
			t.Fatal(err)
		}
		defer env.Logout()

		w := env.do(t, http.MethodPut, "/users/"+target.ID+"/permissions", map[string][]string{
			"permissions": {"USER", "ITEMDELETE"},
		})
		wantStatus(t, w, http.StatusOK)

		var got user.User
		decodeBody(t, w, &got)
		if diff := cmp.Diff([]string{"USER", "ITEMDELETE"}, []string(got.Permissions)); diff != "" {
			t.Fatalf("permissions mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("PERMISSIONUPDATE suffices without ADMIN", func(t *testing.T) {
		granter, err := seedUser(env.DB, "Granter", "granter@shop.test", "granter-password", []string{"USER", "PERMISSIONUPDATE"})
		if err != nil {
			t.Fatal(err)
		}

		if err := env.Login(granter.Email, "granter-password"); err != nil {
			t.Fatal(err)
		}
		defer env.Logout()

		w := env.do(t, http.MethodPut, "/users/"+target.ID+"/permissions", map[string][]string{
			"permissions": {"USER"},
		})
		wantStatus(t, w, http.StatusOK)
		w.Body.Close()
	})
}

func TestItemDeleteGuard(t *testing.T) {
	env, err := NewTestEnv(t, "item_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	// Seeded items belong to the admin account.
	it, err := seedItem(env, "poster", 1200)
	if err != nil {
		t.Fatal(err)
	}

	t.Run("non-owner without permission", func(t *testing.T) {
		if err := env.Login(env.User.Email, env.UserPass); err != nil {
			t.Fatal(err)
		}
		defer env.Logout()

		w := env.do(t, http.MethodDelete, "/items/"+it.ID, nil)
		wantKind(t, w, http.StatusForbidden, weberr.KindForbidden)
	})

	t.Run("ITEMDELETE permission allows it", func(t *testing.T) {
		if _, err := seedUser(env.DB, "Cleaner", "cleaner@shop.test", "cleaner-password", []string{"USER", "ITEMDELETE"}); err != nil {
			t.Fatal(err)
		}

		if err := env.Login("cleaner@shop.test", "cleaner-password"); err != nil {
			t.Fatal(err)
		}
		defer env.Logout()

		w := env.do(t, http.MethodDelete, "/items/"+it.ID, nil)
		wantStatus(t, w, http.StatusNoContent)
		w.Body.Close()

		w = env.do(t, http.MethodGet, "/items/"+it.ID, nil)
		wantKind(t, w, http.StatusNotFound, weberr.KindNotFound)
	})

	t.Run("owner deletes own item", func(t *testing.T) {
		if err := env.Login(env.Admin.Email, env.AdminPass); err != nil {
			t.Fatal(err)
		}
		defer env.Logout()

		w := env.do(t, http.MethodPost, "/items", map[string]any{
			"title":       "sticker",
			"description": "a small sticker",
			"price":       300,
		})
		wantStatus(t, w, http.StatusCreated)
		var created struct {
			ID string `json:"id"`
		}
		decodeBody(t, w, &created)

		w = env.do(t, http.MethodDelete, "/items/"+created.ID, nil)
		wantStatus(t, w, http.StatusNoContent)
		w.Body.Close()
	})
}
