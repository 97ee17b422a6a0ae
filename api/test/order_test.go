package test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/marketloop/shop/api/weberr"
	"github.com/marketloop/shop/core/cart"
	"github.com/marketloop/shop/core/order"
	"github.com/marketloop/shop/payment"
	"github.com/marketloop/shop/validate"
)

func TestCheckout(t *testing.T) {
	env, err := NewTestEnv(t, "order_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	shirt, err := seedItem(env, "shirt", 1999)
	if err != nil {
		t.Fatal(err)
	}
	mug, err := seedItem(env, "mug", 500)
	if err != nil {
		t.Fatal(err)
	}

	if err := env.Login(env.User.Email, env.UserPass); err != nil {
		t.Fatal(err)
	}

	t.Run("empty cart", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/orders/checkout", map[string]string{"token": "tok_visa"})
		wantKind(t, w, http.StatusUnprocessableEntity, weberr.KindEmptyCart)

		if got := len(env.Stripe.Charges()); got != 0 {
			t.Fatalf("empty cart reached the gateway: %d charges", got)
		}
	})

	t.Run("successful checkout", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			w := env.do(t, http.MethodPut, "/cart/items", map[string]string{"itemId": shirt.ID})
			wantStatus(t, w, http.StatusOK)
			w.Body.Close()
		}
		w := env.do(t, http.MethodPut, "/cart/items", map[string]string{"itemId": mug.ID})
		wantStatus(t, w, http.StatusOK)
		w.Body.Close()

		w = env.do(t, http.MethodPost, "/orders/checkout", map[string]string{"token": "tok_visa"})
		wantStatus(t, w, http.StatusCreated)

		var ord order.Order
		decodeBody(t, w, &ord)

		// 2x1999 + 1x500, integer minor units throughout.
		if ord.Total != 4498 {
			t.Fatalf("got order total %d, want 4498", ord.Total)
		}
		if ord.ChargeID == "" {
			t.Fatal("order has no charge reference")
		}
		if len(ord.Items) != 2 {
			t.Fatalf("got %d order items, want 2", len(ord.Items))
		}

		var sum int
		for _, it := range ord.Items {
			sum += it.Quantity * it.Price
		}
		if sum != ord.Total {
			t.Fatalf("item sum %d does not match order total %d", sum, ord.Total)
		}

		if diff := cmp.Diff([]int{4498}, env.Stripe.Charges()); diff != "" {
			t.Fatalf("charged amounts mismatch (-want +got):\n%s", diff)
		}

		w = env.do(t, http.MethodGet, "/cart", nil)
		wantStatus(t, w, http.StatusOK)
		var lines []cart.SnapLine
		decodeBody(t, w, &lines)
		if len(lines) != 0 {
			t.Fatalf("cart not cleared after checkout: %d lines", len(lines))
		}
	})

	t.Run("declined charge leaves the cart intact", func(t *testing.T) {
		w := env.do(t, http.MethodPut, "/cart/items", map[string]string{"itemId": mug.ID})
		wantStatus(t, w, http.StatusOK)
		w.Body.Close()

		env.Stripe.Decline(true)
		defer env.Stripe.Decline(false)

		w = env.do(t, http.MethodPost, "/orders/checkout", map[string]string{"token": "tok_chargeDeclined"})
		wantKind(t, w, http.StatusPaymentRequired, weberr.KindPaymentDeclined)

		w = env.do(t, http.MethodGet, "/cart", nil)
		wantStatus(t, w, http.StatusOK)
		var lines []cart.SnapLine
		decodeBody(t, w, &lines)
		if len(lines) != 1 {
			t.Fatalf("cart changed on declined charge: %d lines", len(lines))
		}

		w = env.do(t, http.MethodGet, "/orders", nil)
		wantStatus(t, w, http.StatusOK)
		var orders []order.Order
		decodeBody(t, w, &orders)
		if len(orders) != 1 {
			t.Fatalf("got %d orders, want only the earlier one", len(orders))
		}
	})

	t.Run("orders are private", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/orders", nil)
		wantStatus(t, w, http.StatusOK)
		var orders []order.Order
		decodeBody(t, w, &orders)

		if err := env.Logout(); err != nil {
			t.Fatal(err)
		}
		if err := env.Login(env.Admin.Email, env.AdminPass); err != nil {
			t.Fatal(err)
		}
		defer func() {
			env.Logout()
			env.Login(env.User.Email, env.UserPass)
		}()

		// Admin may inspect any order; its own list stays empty.
		w = env.do(t, http.MethodGet, "/orders/"+orders[0].ID, nil)
		wantStatus(t, w, http.StatusOK)
		w.Body.Close()

		w = env.do(t, http.MethodGet, "/orders", nil)
		wantStatus(t, w, http.StatusOK)
		var adminOrders []order.Order
		decodeBody(t, w, &adminOrders)
		if len(adminOrders) != 0 {
			t.Fatalf("admin list leaked %d foreign orders", len(adminOrders))
		}
	})
}

// barrierGateway holds every charge at a rendezvous point so tests can
// interleave checkout steps deterministically.
type barrierGateway struct {
	arrived chan struct{}
	release chan struct{}
	n       int64
}

func newBarrierGateway() *barrierGateway {
	return &barrierGateway{
		arrived: make(chan struct{}, 8),
		release: make(chan struct{}),
	}
}

func (g *barrierGateway) Charge(ctx context.Context, req payment.ChargeRequest) (payment.Receipt, error) {
	g.arrived <- struct{}{}
	<-g.release

	id := atomic.AddInt64(&g.n, 1)
	return payment.Receipt{
		ChargeID: fmt.Sprintf("ch_barrier_%d", id),
		Amount:   req.Amount,
	}, nil
}

func TestConcurrentCheckout(t *testing.T) {
	env, err := NewTestEnv(t, "order_conflict_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	shirt, err := seedItem(env, "shirt", 1999)
	if err != nil {
		t.Fatal(err)
	}

	buyer, err := seedUser(env.DB, "Buyer", "buyer@shop.test", "buyer-password", []string{"USER"})
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	if _, err := cart.AddItem(ctx, env.DB, buyer.ID, shirt.ID, validate.GenerateID()); err != nil {
		t.Fatal(err)
	}

	gw := newBarrierGateway()
	cfg := order.CheckoutConfig{Currency: "usd", ChargeTimeout: 5 * time.Second}

	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := order.Checkout(ctx, env.DB, gw, cfg, buyer.ID, "tok_visa")
			results <- err
		}()
	}

	// Both attempts snapshot and charge before either materializes.
	<-gw.arrived
	<-gw.arrived
	close(gw.release)

	var ok, conflicts int
	for i := 0; i < 2; i++ {
		err := <-results
		switch {
		case err == nil:
			ok++
		case errors.Is(err, order.ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected checkout error: %v", err)
		}
	}

	if ok != 1 || conflicts != 1 {
		t.Fatalf("got %d successes and %d conflicts, want exactly 1 of each", ok, conflicts)
	}

	orders, err := order.ListByUser(ctx, env.DB, buyer.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(orders) != 1 {
		t.Fatalf("got %d orders after concurrent checkout, want 1", len(orders))
	}

	lines, err := cart.Snapshot(ctx, env.DB, buyer.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 0 {
		t.Fatalf("cart not empty after winning checkout: %d lines", len(lines))
	}
}

func TestLineAddedMidCheckoutSurvives(t *testing.T) {
	env, err := NewTestEnv(t, "order_midadd_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	shirt, err := seedItem(env, "shirt", 1999)
	if err != nil {
		t.Fatal(err)
	}
	mug, err := seedItem(env, "mug", 500)
	if err != nil {
		t.Fatal(err)
	}

	buyer, err := seedUser(env.DB, "Buyer", "buyer@shop.test", "buyer-password", []string{"USER"})
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	if _, err := cart.AddItem(ctx, env.DB, buyer.ID, shirt.ID, validate.GenerateID()); err != nil {
		t.Fatal(err)
	}

	gw := newBarrierGateway()
	cfg := order.CheckoutConfig{Currency: "usd", ChargeTimeout: 5 * time.Second}

	done := make(chan struct{})
	var ord order.Order
	var checkoutErr error
	go func() {
		defer close(done)
		ord, checkoutErr = order.Checkout(ctx, env.DB, gw, cfg, buyer.ID, "tok_visa")
	}()

	// The snapshot is taken before the charge, so a line added while
	// the gateway call is in flight is not part of this order.
	<-gw.arrived
	if _, err := cart.AddItem(ctx, env.DB, buyer.ID, mug.ID, validate.GenerateID()); err != nil {
		t.Fatal(err)
	}
	close(gw.release)
	<-done

	if checkoutErr != nil {
		t.Fatalf("checkout failed: %v", checkoutErr)
	}

	if len(ord.Items) != 1 || ord.Items[0].ItemID != shirt.ID {
		t.Fatalf("order billed the mid-checkout line: %+v", ord.Items)
	}
	if ord.Total != 1999 {
		t.Fatalf("got total %d, want 1999", ord.Total)
	}

	lines, err := cart.Snapshot(ctx, env.DB, buyer.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 1 || lines[0].ItemID != mug.ID {
		t.Fatalf("mid-checkout line did not survive: %+v", lines)
	}
}
