package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v74"
	stripecl "github.com/stripe/stripe-go/v74/client"
)

type StripeGateway struct {
	api *stripecl.API
}

func NewStripe(api *stripecl.API) *StripeGateway {
	return &StripeGateway{api: api}
}

func (g *StripeGateway) Charge(ctx context.Context, req ChargeRequest) (Receipt, error) {
	params := &stripe.ChargeParams{
		Params:   stripe.Params{Context: ctx},
		Amount:   stripe.Int64(int64(req.Amount)),
		Currency: stripe.String(req.Currency),
	}

	if err := params.SetSource(req.Token); err != nil {
		return Receipt{}, fmt.Errorf("%w: bad payment source: %v", ErrDeclined, err)
	}

	ch, err := g.api.Charges.New(params)
	if err != nil {
		return Receipt{}, classify(err)
	}

	return Receipt{
		ChargeID: ch.ID,
		Amount:   int(ch.Amount),
	}, nil
}

// classify splits definite refusals from ambiguous failures. A card or
// invalid-request error means the processor answered and no money
// moved; anything else might have charged the card.
func classify(err error) error {
	var se *stripe.Error
	if errors.As(err, &se) {
		switch se.Type {
		case stripe.ErrorTypeCard, stripe.ErrorTypeInvalidRequest:
			return fmt.Errorf("%w: %s", ErrDeclined, se.Msg)
		}
	}

	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
