package weberr

import (
	"net/http"
)

// Error kinds are part of the public contract: clients dispatch on
// them, so they must stay stable even if messages change.
const (
	KindAuthenticationFailed = "AUTHENTICATION_FAILED"
	KindInvalidSession       = "INVALID_SESSION"
	KindForbidden            = "FORBIDDEN"
	KindNotFound             = "NOT_FOUND"
	KindValidation           = "VALIDATION_ERROR"
	KindEmptyCart            = "EMPTY_CART"
	KindPaymentDeclined      = "PAYMENT_DECLINED"
	KindGatewayUnavailable   = "PAYMENT_GATEWAY_UNAVAILABLE"
	KindCheckoutConflict     = "CONCURRENT_CHECKOUT_CONFLICT"
	KindRateLimited          = "RATE_LIMITED"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

type RequestError struct {
	Err error
}

func (r *RequestError) Error() string { return r.Err.Error() }

func (e *RequestError) Unwrap() error { return e.Err }

func NewError(err error, kind string, msg string, status int, opts ...Opt) error {
	e := &RequestError{Err: err}
	opts = append(opts, WithResponse(
		&ErrorResponse{Error: msg, Kind: kind},
		status,
	))

	return Wrap(e, opts...)
}

func NotFound(err error, opts ...Opt) error {
	return NewError(
		err,
		KindNotFound,
		"the resource could not be found",
		http.StatusNotFound,
		opts...,
	)
}

func NotAuthenticated(err error, opts ...Opt) error {
	return NewError(
		err,
		KindAuthenticationFailed,
		"invalid credentials",
		http.StatusUnauthorized,
		opts...,
	)
}

func InvalidSession(err error, opts ...Opt) error {
	return NewError(
		err,
		KindInvalidSession,
		"not authenticated",
		http.StatusUnauthorized,
		opts...,
	)
}

func Forbidden(err error, opts ...Opt) error {
	return NewError(
		err,
		KindForbidden,
		"not allowed to perform this action",
		http.StatusForbidden,
		opts...,
	)
}

func Validation(err error, msg string, opts ...Opt) error {
	return NewError(
		err,
		KindValidation,
		msg,
		http.StatusBadRequest,
		opts...,
	)
}

func InternalError(err error, opts ...Opt) error {
	return NewError(
		err,
		"INTERNAL",
		"the server encountered a problem and could not process your request",
		http.StatusInternalServerError,
		opts...,
	)
}

func BadRequest(err error, opts ...Opt) error {
	return NewError(
		err,
		KindValidation,
		"bad request",
		http.StatusBadRequest,
		opts...,
	)
}
