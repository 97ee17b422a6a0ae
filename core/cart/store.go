package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// AddItem upserts the (user, item) line in a single statement: insert
// with quantity 1, or bump the quantity if the line already exists. The
// unique constraint plus ON CONFLICT closes the check-then-insert race
// two concurrent adds would otherwise hit.
func AddItem(ctx context.Context, db sqlx.ExtContext, userID string, itemID string, lineID string) (Line, error) {
	const q = `
	INSERT INTO cart_items (cart_item_id, user_id, item_id, quantity, created_at, updated_at)
	VALUES ($1, $2, $3, 1, $4, $4)
	ON CONFLICT (user_id, item_id) DO UPDATE SET
		quantity = cart_items.quantity + 1,
		updated_at = $4
	RETURNING *`

	var line Line
	if err := sqlx.GetContext(ctx, db, &line, q, lineID, userID, itemID, time.Now().UTC()); err != nil {
		return Line{}, fmt.Errorf("upserting cart line for user[%s] item[%s]: %w", userID, itemID, err)
	}

	return line, nil
}

func FetchLine(ctx context.Context, db sqlx.ExtContext, lineID string) (Line, error) {
	const q = `SELECT * FROM cart_items WHERE cart_item_id = $1`

	var line Line
	if err := sqlx.GetContext(ctx, db, &line, q, lineID); err != nil {
		return Line{}, fmt.Errorf("fetching cart line[%s]: %w", lineID, err)
	}

	return line, nil
}

func DeleteLine(ctx context.Context, db sqlx.ExtContext, lineID string) error {
	const q = `DELETE FROM cart_items WHERE cart_item_id = $1`

	if _, err := db.ExecContext(ctx, q, lineID); err != nil {
		return fmt.Errorf("deleting cart line[%s]: %w", lineID, err)
	}

	return nil
}

// Snapshot returns the user's cart lines joined with the catalog, in
// insertion order. Each call is a single statement, so it reads one
// consistent point in time.
func Snapshot(ctx context.Context, db sqlx.ExtContext, userID string) ([]SnapLine, error) {
	const q = `
	SELECT c.cart_item_id, c.user_id, c.item_id, c.quantity, c.created_at, c.updated_at,
	       i.title, i.description, i.price, i.image_url
	FROM cart_items AS c
	JOIN items AS i ON i.item_id = c.item_id
	WHERE c.user_id = $1
	ORDER BY c.created_at, c.cart_item_id`

	lines := []SnapLine{}
	if err := sqlx.SelectContext(ctx, db, &lines, q, userID); err != nil {
		return nil, fmt.Errorf("snapshotting cart of user[%s]: %w", userID, err)
	}

	return lines, nil
}

// DeleteLines removes exactly the given line ids and reports how many
// rows actually went away. Callers compare that count against the
// snapshot to detect a concurrent checkout having consumed the lines.
func DeleteLines(ctx context.Context, db sqlx.ExtContext, userID string, lineIDs []string) (int64, error) {
	const q = `DELETE FROM cart_items WHERE user_id = $1 AND cart_item_id = ANY($2)`

	res, err := db.ExecContext(ctx, q, userID, pq.Array(lineIDs))
	if err != nil {
		return 0, fmt.Errorf("deleting cart lines of user[%s]: %w", userID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted cart lines: %w", err)
	}

	return n, nil
}
