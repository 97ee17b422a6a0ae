package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/marketloop/shop/core/cart"
	"github.com/marketloop/shop/database"
	"github.com/marketloop/shop/payment"
	"github.com/marketloop/shop/validate"
)

var (
	ErrEmptyCart = errors.New("nothing to check out")

	// ErrConflict means a concurrent checkout consumed part of this
	// snapshot between charge and materialize. The card has been
	// charged: the conflict is reported for out-of-band settlement,
	// never silently absorbed and never retried.
	ErrConflict = errors.New("cart lines were consumed by a concurrent checkout")
)

type CheckoutConfig struct {
	Currency      string
	ChargeTimeout time.Duration
}

// Checkout converts the user's cart into a paid order: snapshot, price,
// charge, then materialize the order and clear exactly the snapshotted
// lines in one transaction. The steps run strictly in this sequence and
// the charge is issued at most once per call.
func Checkout(ctx context.Context, db *sqlx.DB, gw payment.Gateway, cfg CheckoutConfig, userID string, payToken string) (Order, error) {
	lines, err := cart.Snapshot(ctx, db, userID)
	if err != nil {
		return Order{}, err
	}

	if len(lines) == 0 {
		return Order{}, ErrEmptyCart
	}

	total := Total(lines)

	cctx, cancel := context.WithTimeout(ctx, cfg.ChargeTimeout)
	defer cancel()

	rcpt, err := gw.Charge(cctx, payment.ChargeRequest{
		Amount:   total,
		Currency: cfg.Currency,
		Token:    payToken,
	})
	if err != nil {
		// No order, cart untouched. An ambiguous outcome surfaces as
		// payment.ErrUnavailable; retrying here could double charge.
		return Order{}, err
	}

	ord := Order{
		ID:        validate.GenerateID(),
		UserID:    userID,
		Total:     rcpt.Amount,
		ChargeID:  rcpt.ChargeID,
		CreatedAt: time.Now().UTC(),
	}

	lineIDs := make([]string, 0, len(lines))
	for _, ln := range lines {
		lineIDs = append(lineIDs, ln.ID)
	}

	err = database.Transaction(db, func(tx sqlx.ExtContext) error {
		if err := Create(ctx, tx, ord); err != nil {
			return fmt.Errorf("creating order: %w", err)
		}

		for _, ln := range lines {
			it := Item{
				ID:          validate.GenerateID(),
				OrderID:     ord.ID,
				ItemID:      ln.ItemID,
				Title:       ln.Title,
				Description: ln.Description,
				Price:       ln.Price,
				ImageURL:    ln.ImageURL,
				Quantity:    ln.Quantity,
			}

			if err := CreateItem(ctx, tx, it); err != nil {
				return fmt.Errorf("creating order item: %w", err)
			}

			ord.Items = append(ord.Items, it)
		}

		// Clear only the snapshotted ids: lines added mid-checkout
		// belong to the next order. Deleting fewer rows than were
		// snapshotted means a concurrent checkout won; rolling back
		// keeps order and cart consistent for the loser.
		n, err := cart.DeleteLines(ctx, tx, userID, lineIDs)
		if err != nil {
			return fmt.Errorf("clearing cart lines: %w", err)
		}
		if n != int64(len(lineIDs)) {
			return ErrConflict
		}

		return nil
	})
	if err != nil {
		return Order{}, fmt.Errorf("materializing order bound to charge[%s]: %w", rcpt.ChargeID, err)
	}

	return ord, nil
}
