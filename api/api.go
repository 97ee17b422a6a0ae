package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/marketloop/shop/api/background"
	"github.com/marketloop/shop/api/middleware"
	"github.com/marketloop/shop/api/web"
	"github.com/marketloop/shop/core/auth"
	"github.com/marketloop/shop/core/cart"
	"github.com/marketloop/shop/core/item"
	"github.com/marketloop/shop/core/order"
	"github.com/marketloop/shop/core/token"
	"github.com/marketloop/shop/core/user"
	"github.com/marketloop/shop/payment"
	"github.com/marketloop/shop/rate"
	"github.com/sirupsen/logrus"
)

type APIConfig struct {
	CorsOrigin       string
	Log              logrus.FieldLogger
	DB               *sqlx.DB
	SessionSecret    []byte
	SessionLifetime  time.Duration
	Mailer           token.Mailer
	TokenTimeout     time.Duration
	Background       *background.Background
	Gateway          payment.Gateway
	Currency         string
	ChargeTimeout    time.Duration
	Providers        map[string]auth.Provider
	LoginRedirectURL string
	AuthLimiter      *rate.Limiter
}

type api struct {
	*mux.Router
	mw  []web.Middleware
	log logrus.FieldLogger
}

func APIMux(cfg APIConfig) http.Handler {
	a := &api{
		Router: mux.NewRouter(),
		log:    cfg.Log,
	}

	a.mw = append(a.mw, middleware.RequestID())
	a.mw = append(a.mw, middleware.Logger(cfg.Log))
	a.mw = append(a.mw, middleware.Errors(cfg.Log))
	a.mw = append(a.mw, middleware.Panics())

	if cfg.CorsOrigin != "" {
		a.mw = append(a.mw, middleware.Cors(cfg.CorsOrigin))

		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			w.WriteHeader(http.StatusNoContent)
			return nil
		}

		a.Handle(http.MethodOptions, "/{path:.*}", h)
	}

	authen := auth.Authenticate(cfg.DB, cfg.SessionSecret)
	limited := middleware.RateLimit(cfg.AuthLimiter)

	a.Handle(http.MethodPost, "/auth/signup", auth.HandleSignup(cfg.DB, cfg.SessionSecret, cfg.SessionLifetime), limited)
	a.Handle(http.MethodPost, "/auth/login", auth.HandleLogin(cfg.DB, cfg.SessionSecret, cfg.SessionLifetime), limited)
	a.Handle(http.MethodPost, "/auth/logout", auth.HandleLogout())
	a.Handle(http.MethodGet, "/auth/oauth-login/{provider}", auth.HandleOauthLogin(cfg.Providers))
	a.Handle(http.MethodGet, "/auth/oauth-callback/{provider}", auth.HandleOauthCallback(cfg.DB, cfg.SessionSecret, cfg.SessionLifetime, cfg.Providers, cfg.LoginRedirectURL))

	a.Handle(http.MethodPost, "/tokens/recover", token.HandleRecoveryRequest(cfg.DB, cfg.Mailer, cfg.TokenTimeout, cfg.Background), limited)
	a.Handle(http.MethodPost, "/tokens/reset", token.HandleRecovery(cfg.DB, cfg.SessionSecret, cfg.SessionLifetime))

	a.Handle(http.MethodGet, "/users/current", user.HandleShowCurrent(cfg.DB), authen)
	a.Handle(http.MethodPut, "/users/{id}/permissions", user.HandleUpdatePermissions(cfg.DB), authen)

	a.Handle(http.MethodGet, "/items", item.HandleList(cfg.DB))
	a.Handle(http.MethodPost, "/items", item.HandleCreate(cfg.DB), authen)
	a.Handle(http.MethodGet, "/items/{id}", item.HandleShow(cfg.DB))
	a.Handle(http.MethodPut, "/items/{id}", item.HandleUpdate(cfg.DB), authen)
	a.Handle(http.MethodDelete, "/items/{id}", item.HandleDelete(cfg.DB), authen)

	a.Handle(http.MethodGet, "/cart", cart.HandleShow(cfg.DB), authen)
	a.Handle(http.MethodPut, "/cart/items", cart.HandleAddItem(cfg.DB), authen)
	a.Handle(http.MethodDelete, "/cart/lines/{id}", cart.HandleDeleteLine(cfg.DB), authen)

	checkoutCfg := order.CheckoutConfig{Currency: cfg.Currency, ChargeTimeout: cfg.ChargeTimeout}
	a.Handle(http.MethodPost, "/orders/checkout", order.HandleCheckout(cfg.DB, cfg.Gateway, checkoutCfg), authen)
	a.Handle(http.MethodGet, "/orders", order.HandleList(cfg.DB), authen)
	a.Handle(http.MethodGet, "/orders/{id}", order.HandleShow(cfg.DB), authen)

	return a.Router
}

func (a *api) Handle(method string, path string, handler web.Handler, mw ...web.Middleware) {

	handler = web.WrapMiddleware(mw, handler)

	handler = web.WrapMiddleware(a.mw, handler)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		ctx := r.Context()

		if err := handler(ctx, w, r); err != nil {

			a.log.WithFields(logrus.Fields{
				"req_id":  middleware.ContextRequestID(ctx),
				"message": err,
			}).Error("ERROR")
		}
	})

	a.Router.Handle(path, h).Methods(method)
}
