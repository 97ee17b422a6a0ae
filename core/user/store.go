package user

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

func Create(ctx context.Context, db sqlx.ExtContext, u User) error {
	const q = `
	INSERT INTO users (user_id, name, email, password_hash, permissions, created_at, updated_at)
	VALUES (:user_id, :name, :email, :password_hash, :permissions, :created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, u); err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}

	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, userID string) (User, error) {
	const q = `SELECT * FROM users WHERE user_id = $1`

	var u User
	if err := sqlx.GetContext(ctx, db, &u, q, userID); err != nil {
		return User{}, fmt.Errorf("fetching user[%s]: %w", userID, err)
	}

	return u, nil
}

func FetchByEmail(ctx context.Context, db sqlx.ExtContext, email string) (User, error) {
	const q = `SELECT * FROM users WHERE email = $1`

	var u User
	if err := sqlx.GetContext(ctx, db, &u, q, email); err != nil {
		return User{}, fmt.Errorf("fetching user by email: %w", err)
	}

	return u, nil
}

func UpdatePermissions(ctx context.Context, db sqlx.ExtContext, userID string, perms []string) (User, error) {
	const q = `
	UPDATE users SET
		permissions = $2,
		updated_at = $3
	WHERE user_id = $1
	RETURNING *`

	var u User
	if err := sqlx.GetContext(ctx, db, &u, q, userID, pq.StringArray(perms), time.Now().UTC()); err != nil {
		return User{}, fmt.Errorf("updating permissions of user[%s]: %w", userID, err)
	}

	return u, nil
}

func SetResetToken(ctx context.Context, db sqlx.ExtContext, email string, token string, expiry time.Time) (User, error) {
	const q = `
	UPDATE users SET
		reset_token = $2,
		reset_expiry = $3,
		updated_at = $4
	WHERE email = $1
	RETURNING *`

	var u User
	if err := sqlx.GetContext(ctx, db, &u, q, email, token, expiry, time.Now().UTC()); err != nil {
		return User{}, fmt.Errorf("storing reset token: %w", err)
	}

	return u, nil
}

func FetchByResetToken(ctx context.Context, db sqlx.ExtContext, token string) (User, error) {
	const q = `SELECT * FROM users WHERE reset_token = $1`

	var u User
	if err := sqlx.GetContext(ctx, db, &u, q, token); err != nil {
		return User{}, fmt.Errorf("fetching user by reset token: %w", err)
	}

	return u, nil
}

// UpdateCredential rewrites the password hash and burns any outstanding
// reset token in the same statement.
func UpdateCredential(ctx context.Context, db sqlx.ExtContext, userID string, hash string) error {
	const q = `
	UPDATE users SET
		password_hash = $2,
		reset_token = NULL,
		reset_expiry = NULL,
		updated_at = $3
	WHERE user_id = $1`

	if _, err := db.ExecContext(ctx, q, userID, hash, time.Now().UTC()); err != nil {
		return fmt.Errorf("updating credential of user[%s]: %w", userID, err)
	}

	return nil
}
