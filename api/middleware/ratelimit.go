package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/marketloop/shop/api/web"
	"github.com/marketloop/shop/api/weberr"
	"github.com/marketloop/shop/rate"
)

// RateLimit throttles by client address. It guards the credential
// endpoints against brute forcing, not general load.
func RateLimit(lim *rate.Limiter) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				host = r.RemoteAddr
			}

			if !lim.Check(host) {
				return weberr.NewError(
					errors.New("client exceeded the request rate limit"),
					weberr.KindRateLimited,
					"too many requests, slow down",
					http.StatusTooManyRequests,
				)
			}

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}
