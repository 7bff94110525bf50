// AngelaMos | 2026
// postgres_social.go

package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/carterperez-dev/flagnft-backend/internal/core"
)

func (t *pgTx) CreateConnection(ctx context.Context, conn *Connection) error {
	query := `
		INSERT INTO user_connections (follower_id, following_id)
		VALUES ($1, $2)
		RETURNING id, created_at`

	row := t.tx.QueryRowxContext(ctx, query, conn.FollowerID, conn.FollowingID)
	if err := row.Scan(&conn.ID, &conn.CreatedAt); err != nil {
		return fmt.Errorf("create connection: %w", core.TranslatePgError(err))
	}

	return nil
}

func (t *pgTx) DeleteConnection(
	ctx context.Context,
	followerID, followingID int64,
) (bool, error) {
	res, err := t.tx.ExecContext(ctx, `
		DELETE FROM user_connections
		WHERE follower_id = $1 AND following_id = $2`,
		followerID, followingID)
	return affected("delete connection", res, err)
}

func (t *pgTx) ListFollowers(ctx context.Context, userID int64) ([]User, error) {
	query := `
		SELECT ` + qualify("u", userColumns) + `
		FROM user_connections c
		JOIN users u ON u.id = c.follower_id
		WHERE c.following_id = $1
		ORDER BY c.created_at ASC, c.id ASC`

	var users []User
	if err := t.tx.SelectContext(ctx, &users, query, userID); err != nil {
		return nil, fmt.Errorf("list followers: %w", err)
	}

	return users, nil
}

func (t *pgTx) ListFollowing(ctx context.Context, userID int64) ([]User, error) {
	query := `
		SELECT ` + qualify("u", userColumns) + `
		FROM user_connections c
		JOIN users u ON u.id = c.following_id
		WHERE c.follower_id = $1
		ORDER BY c.created_at ASC, c.id ASC`

	var users []User
	if err := t.tx.SelectContext(ctx, &users, query, userID); err != nil {
		return nil, fmt.Errorf("list following: %w", err)
	}

	return users, nil
}

func (t *pgTx) CountConnections(ctx context.Context, userID int64) (ConnectionCounts, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM user_connections WHERE following_id = $1) AS followers,
			(SELECT COUNT(*) FROM user_connections WHERE follower_id = $1) AS following`

	var counts ConnectionCounts
	if err := t.tx.GetContext(ctx, &counts, query, userID); err != nil {
		return ConnectionCounts{}, fmt.Errorf("count connections: %w", err)
	}

	return counts, nil
}

func (t *pgTx) RankCollectors(ctx context.Context, limit int) ([]UserScore, error) {
	query := `
		SELECT ` + qualify("u", userColumns) + `, COUNT(o.id) AS score
		FROM users u
		JOIN flag_ownerships o ON o.user_id = u.id
		GROUP BY u.id
		ORDER BY score DESC, u.id ASC
		LIMIT $1`

	var ranked []UserScore
	if err := t.tx.SelectContext(ctx, &ranked, query, limit); err != nil {
		return nil, fmt.Errorf("rank collectors: %w", err)
	}

	return ranked, nil
}

func (t *pgTx) RankActiveCollectors(ctx context.Context, limit int) ([]UserScore, error) {
	query := fmt.Sprintf(`
		WITH activity AS (
			SELECT u.*,
				%d * (SELECT COUNT(*) FROM flag_interests i WHERE i.user_id = u.id)
				+ %d * (SELECT COUNT(*) FROM flag_ownerships o WHERE o.user_id = u.id)
				+ %d * (SELECT COUNT(*) FROM user_connections c WHERE c.following_id = u.id)
				+ %d * (SELECT COUNT(*) FROM user_connections c WHERE c.follower_id = u.id)
				AS score
			FROM users u
		)
		SELECT %s, score
		FROM activity
		WHERE score > 0
		ORDER BY score DESC, id ASC
		LIMIT $1`,
		ActivityPerInterest,
		ActivityPerOwnership,
		ActivityPerFollower,
		ActivityPerFollowing,
		userColumns,
	)

	var ranked []UserScore
	if err := t.tx.SelectContext(ctx, &ranked, query, limit); err != nil {
		return nil, fmt.Errorf("rank active collectors: %w", err)
	}

	return ranked, nil
}

func (t *pgTx) RankFlagsByInterest(ctx context.Context, limit int) ([]FlagScore, error) {
	query := `
		SELECT ` + qualify("f", flagColumns) + `, COUNT(i.id) AS score
		FROM flags f
		LEFT JOIN flag_interests i ON i.flag_id = f.id
		GROUP BY f.id
		ORDER BY score DESC, f.id ASC
		LIMIT $1`

	var ranked []FlagScore
	if err := t.tx.SelectContext(ctx, &ranked, query, limit); err != nil {
		return nil, fmt.Errorf("rank flags by interest: %w", err)
	}

	return ranked, nil
}

// qualify prefixes every column in a column list constant with alias.
func qualify(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
