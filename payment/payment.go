// Package payment is the boundary to the external charge processor.
// From the caller's side a charge is not idempotent: an ambiguous
// outcome (timeout, network failure) may still have settled remotely,
// so callers must never re-issue a charge for the same attempt.
package payment

import (
	"context"
	"errors"
)

// ErrDeclined is a definite refusal: the processor answered and said
// no. ErrUnavailable covers everything else, including timeouts, where
// the charge may or may not have gone through. The two are kept apart
// so ambiguous outcomes can be reconciled out of band.
var (
	ErrDeclined    = errors.New("payment declined")
	ErrUnavailable = errors.New("payment gateway unavailable")
)

// ChargeRequest amounts are integer minor currency units.
type ChargeRequest struct {
	Amount   int
	Currency string
	Token    string
}

type Receipt struct {
	ChargeID string
	Amount   int
}

type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (Receipt, error)
}
