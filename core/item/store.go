package item

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

func Create(ctx context.Context, db sqlx.ExtContext, it Item) error {
	const q = `
	INSERT INTO items (item_id, user_id, title, description, price, image_url, large_image_url, created_at, updated_at)
	VALUES (:item_id, :user_id, :title, :description, :price, :image_url, :large_image_url, :created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, it); err != nil {
		return fmt.Errorf("inserting item: %w", err)
	}

	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, itemID string) (Item, error) {
	const q = `SELECT * FROM items WHERE item_id = $1`

	var it Item
	if err := sqlx.GetContext(ctx, db, &it, q, itemID); err != nil {
		return Item{}, fmt.Errorf("fetching item[%s]: %w", itemID, err)
	}

	return it, nil
}

func List(ctx context.Context, db sqlx.ExtContext) ([]Item, error) {
	const q = `SELECT * FROM items ORDER BY created_at`

	items := []Item{}
	if err := sqlx.SelectContext(ctx, db, &items, q); err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}

	return items, nil
}

func Update(ctx context.Context, db sqlx.ExtContext, it Item) error {
	const q = `
	UPDATE items SET
		title = :title,
		description = :description,
		price = :price,
		image_url = :image_url,
		large_image_url = :large_image_url,
		updated_at = :updated_at
	WHERE item_id = :item_id`

	if _, err := sqlx.NamedExecContext(ctx, db, q, it); err != nil {
		return fmt.Errorf("updating item[%s]: %w", it.ID, err)
	}

	return nil
}

func Delete(ctx context.Context, db sqlx.ExtContext, itemID string) error {
	const q = `DELETE FROM items WHERE item_id = $1`

	if _, err := db.ExecContext(ctx, q, itemID); err != nil {
		return fmt.Errorf("deleting item[%s]: %w", itemID, err)
	}

	return nil
}

func applyUpdate(it Item, up ItemUp) Item {
	if up.Title != nil {
		it.Title = *up.Title
	}
	if up.Description != nil {
		it.Description = *up.Description
	}
	if up.Price != nil {
		it.Price = *up.Price
	}
	if up.ImageURL != nil {
		it.ImageURL = *up.ImageURL
	}
	if up.LargeImageURL != nil {
		it.LargeImageURL = *up.LargeImageURL
	}
	it.UpdatedAt = time.Now().UTC()
	return it
}
