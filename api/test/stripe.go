package test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"

	"github.com/gorilla/mux"
	"github.com/marketloop/shop/api/web"
	"github.com/stripe/stripe-go/v74"
	stripecl "github.com/stripe/stripe-go/v74/client"
	mock "github.com/stripe/stripe-mock/param"
)

// stripeBackend stands in for the charges API. It validates the posted
// form the way the real endpoint would and records every settled
// amount so tests can assert on what was actually charged.
type stripeBackend struct {
	mu      sync.Mutex
	decline bool
	charges []int
}

func (s *stripeBackend) Decline(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decline = v
}

func (s *stripeBackend) Charges() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, len(s.charges))
	copy(out, s.charges)
	return out
}

func (s *stripeBackend) handler() http.Handler {
	charge := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		params, err := mock.ParseParams(r)
		if err != nil {
			web.Respond(context.Background(), w, nil, http.StatusBadRequest)
			return
		}

		amtStr, _ := params["amount"].(string)
		amount, err := strconv.Atoi(amtStr)
		if err != nil || amount <= 0 {
			web.Respond(context.Background(), w, nil, http.StatusBadRequest)
			return
		}

		if src, _ := params["source"].(string); src == "" {
			web.Respond(context.Background(), w, nil, http.StatusBadRequest)
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		if s.decline {
			body := map[string]any{"error": map[string]any{
				"type":    "card_error",
				"code":    "card_declined",
				"message": "Your card was declined.",
			}}
			web.Respond(context.Background(), w, body, http.StatusPaymentRequired)
			return
		}

		s.charges = append(s.charges, amount)
		ch := map[string]any{
			"id":       fmt.Sprintf("ch_test_%d", len(s.charges)),
			"amount":   amount,
			"currency": params["currency"],
			"status":   "succeeded",
		}
		web.Respond(context.Background(), w, ch, http.StatusOK)
	})

	r := mux.NewRouter()
	r.Handle("/v1/charges", charge).Methods("POST")
	return r
}

func stripeTestClient(srv *httptest.Server) *stripecl.API {
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		HTTPClient:        srv.Client(),
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	})

	api := &stripecl.API{}
	api.Init("sk_test_shop", &stripe.Backends{API: backend, Connect: backend, Uploads: backend})
	return api
}
