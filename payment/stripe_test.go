package payment

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v74"
	stripecl "github.com/stripe/stripe-go/v74/client"
)

func newTestGateway(t *testing.T, h http.Handler) *StripeGateway {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		HTTPClient:        srv.Client(),
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	})

	api := &stripecl.API{}
	api.Init("sk_test_shop", &stripe.Backends{API: backend, Connect: backend, Uploads: backend})

	return NewStripe(api)
}

func TestChargeSuccess(t *testing.T) {
	gw := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/charges" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"ch_123","amount":4498,"currency":"usd","status":"succeeded"}`))
	}))

	rcpt, err := gw.Charge(context.Background(), ChargeRequest{Amount: 4498, Currency: "usd", Token: "tok_visa"})
	if err != nil {
		t.Fatalf("charging: %v", err)
	}

	if rcpt.ChargeID != "ch_123" {
		t.Fatalf("got charge id %q, want %q", rcpt.ChargeID, "ch_123")
	}
	if rcpt.Amount != 4498 {
		t.Fatalf("got amount %d, want %d", rcpt.Amount, 4498)
	}
}

func TestChargeDeclined(t *testing.T) {
	gw := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":{"type":"card_error","code":"card_declined","message":"Your card was declined."}}`))
	}))

	_, err := gw.Charge(context.Background(), ChargeRequest{Amount: 100, Currency: "usd", Token: "tok_chargeDeclined"})
	if !errors.Is(err, ErrDeclined) {
		t.Fatalf("expected ErrDeclined, got %v", err)
	}
}

func TestChargeServerFailureIsAmbiguous(t *testing.T) {
	gw := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"type":"api_error","message":"internal"}}`))
	}))

	_, err := gw.Charge(context.Background(), ChargeRequest{Amount: 100, Currency: "usd", Token: "tok_visa"})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestChargeTimeoutIsAmbiguous(t *testing.T) {
	gw := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.Write([]byte(`{"id":"ch_late","amount":100}`))
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := gw.Charge(ctx, ChargeRequest{Amount: 100, Currency: "usd", Token: "tok_visa"})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable on timeout, got %v", err)
	}
}
