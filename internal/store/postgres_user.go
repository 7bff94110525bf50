// AngelaMos | 2026
// postgres_user.go

package store

import (
	"context"
	"fmt"

	"github.com/carterperez-dev/flagnft-backend/internal/core"
)

const userColumns = `id, wallet_address, username, reputation_score, created_at, updated_at`

func (t *pgTx) EnsureUser(ctx context.Context, wallet string) (*User, error) {
	insert := `
		INSERT INTO users (wallet_address)
		VALUES ($1)
		ON CONFLICT (wallet_address) DO NOTHING`

	if _, err := t.tx.ExecContext(ctx, insert, wallet); err != nil {
		return nil, fmt.Errorf("ensure user: %w", core.TranslatePgError(err))
	}

	return t.GetUserByWallet(ctx, wallet)
}

func (t *pgTx) GetUserByID(ctx context.Context, id int64) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return getOne[User](ctx, t.tx, "get user", query, id)
}

func (t *pgTx) GetUserByWallet(ctx context.Context, wallet string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE wallet_address = $1`
	return getOne[User](ctx, t.tx, "get user by wallet", query, wallet)
}

func (t *pgTx) UpdateUsername(
	ctx context.Context,
	id int64,
	username *string,
) (*User, error) {
	query := `
		UPDATE users
		SET username = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns

	return getOne[User](ctx, t.tx, "update username", query, id, username)
}

func (t *pgTx) AddReputation(ctx context.Context, id int64, delta int) error {
	query := `
		UPDATE users
		SET reputation_score = reputation_score + $2, updated_at = NOW()
		WHERE id = $1`

	res, err := t.tx.ExecContext(ctx, query, id, delta)
	ok, err := affected("add reputation", res, err)
	if err != nil {
		return err
	}
	if !ok {
		return errNotFound("add reputation")
	}

	return nil
}

func (t *pgTx) ListUsersByReputation(ctx context.Context, limit int) ([]User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		ORDER BY reputation_score DESC, id ASC
		LIMIT $1`

	var users []User
	if err := t.tx.SelectContext(ctx, &users, query, limit); err != nil {
		return nil, fmt.Errorf("list users by reputation: %w", err)
	}

	return users, nil
}
