// AngelaMos | 2026
// postgres.go

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/flagnft-backend/internal/core"
)

const constraintOneActivePerFlag = "auctions_one_active_per_flag"

type Postgres struct {
	db *core.Database
}

func NewPostgres(db *core.Database) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) View(ctx context.Context, fn func(tx Tx) error) error {
	return core.InTxWithOptions(
		ctx,
		p.db.DB,
		&sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true},
		func(tx *sqlx.Tx) error {
			return fn(&pgTx{tx: tx})
		},
	)
}

func (p *Postgres) Update(ctx context.Context, fn func(tx Tx) error) error {
	return core.InSerializableTx(ctx, p.db.DB, func(tx *sqlx.Tx) error {
		return fn(&pgTx{tx: tx})
	})
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.Ping(ctx)
}

func (p *Postgres) Close() error {
	return p.db.Close()
}

type pgTx struct {
	tx *sqlx.Tx
}

func (t *pgTx) Stats(ctx context.Context) (*Stats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM users) AS users,
			(SELECT COUNT(*) FROM flags) AS flags,
			(SELECT COUNT(*) FROM flags WHERE pair_complete) AS complete_pairs,
			(SELECT COUNT(*) FROM auctions WHERE status = 'active') AS active_auctions,
			(SELECT COUNT(*) FROM auctions WHERE status = 'closed') AS closed_auctions,
			(SELECT COUNT(*) FROM auctions WHERE status = 'cancelled') AS cancelled_auctions,
			(SELECT COUNT(*) FROM bids) AS bids`

	var stats Stats
	if err := t.tx.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}

	return &stats, nil
}

func (t *pgTx) exists(ctx context.Context, op, query string, args ...any) (bool, error) {
	var exists bool
	if err := t.tx.GetContext(ctx, &exists, query, args...); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

func (t *pgTx) count(ctx context.Context, op, query string, args ...any) (int, error) {
	var n int
	if err := t.tx.GetContext(ctx, &n, query, args...); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

func affected(op string, result sql.Result, err error) (bool, error) {
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, core.TranslatePgError(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return rows > 0, nil
}

func getOne[T any](
	ctx context.Context,
	tx *sqlx.Tx,
	op, query string,
	args ...any,
) (*T, error) {
	var v T
	err := tx.GetContext(ctx, &v, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errNotFound(op)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &v, nil
}

func uniqueConstraint(err error) (string, bool) {
	var uv *core.UniqueViolation
	if errors.As(core.TranslatePgError(err), &uv) {
		return uv.Constraint, true
	}
	return "", false
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
