// AngelaMos | 2026
// postgres_flag.go

package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/carterperez-dev/flagnft-backend/internal/core"
)

const flagColumns = `id, municipality_id, name, location_type, category,
	nfts_required, price, image_ipfs_hash, metadata_ipfs_hash,
	first_status, second_status, pair_complete, created_at, updated_at`

func (t *pgTx) CreateFlag(ctx context.Context, flag *Flag) error {
	flag.RecomputePair()

	query := `
		INSERT INTO flags (
			municipality_id, name, location_type, category, nfts_required,
			price, image_ipfs_hash, metadata_ipfs_hash,
			first_status, second_status, pair_complete
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`

	row := t.tx.QueryRowxContext(ctx, query,
		flag.MunicipalityID,
		flag.Name,
		flag.LocationType,
		flag.Category,
		flag.NFTsRequired,
		flag.Price,
		flag.ImageIPFSHash,
		flag.MetadataIPFSHash,
		flag.FirstStatus,
		flag.SecondStatus,
		flag.PairComplete,
	)
	if err := row.Scan(&flag.ID, &flag.CreatedAt, &flag.UpdatedAt); err != nil {
		return fmt.Errorf("create flag: %w", core.TranslatePgError(err))
	}

	return nil
}

func (t *pgTx) GetFlag(ctx context.Context, id int64) (*Flag, error) {
	query := `SELECT ` + flagColumns + ` FROM flags WHERE id = $1`
	return getOne[Flag](ctx, t.tx, "get flag", query, id)
}

func (t *pgTx) ListFlags(ctx context.Context, filter FlagFilter) ([]Flag, error) {
	var conditions []string
	var args []any

	if filter.MunicipalityID != nil {
		args = append(args, *filter.MunicipalityID)
		conditions = append(conditions, fmt.Sprintf("municipality_id = $%d", len(args)))
	}

	if filter.Category != "" {
		args = append(args, filter.Category)
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}

	if filter.OpenPairsOnly {
		conditions = append(conditions, "NOT pair_complete")
	}

	query := `SELECT ` + flagColumns + ` FROM flags`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY id ASC`

	var flags []Flag
	if err := t.tx.SelectContext(ctx, &flags, query, args...); err != nil {
		return nil, fmt.Errorf("list flags: %w", err)
	}

	return flags, nil
}

func (t *pgTx) LockFlag(ctx context.Context, id int64) (*Flag, error) {
	query := `SELECT ` + flagColumns + ` FROM flags WHERE id = $1 FOR UPDATE`
	return getOne[Flag](ctx, t.tx, "lock flag", query, id)
}

func (t *pgTx) UpdateFlagPair(ctx context.Context, flag *Flag) error {
	flag.RecomputePair()

	query := `
		UPDATE flags
		SET first_status = $2, second_status = $3, pair_complete = $4,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := t.tx.GetContext(ctx, &flag.UpdatedAt, query,
		flag.ID,
		flag.FirstStatus,
		flag.SecondStatus,
		flag.PairComplete,
	)
	if err != nil {
		if isNoRows(err) {
			return errNotFound("update flag pair")
		}
		return fmt.Errorf("update flag pair: %w", core.TranslatePgError(err))
	}

	return nil
}

func (t *pgTx) UpdateFlag(ctx context.Context, flag *Flag) error {
	query := `
		UPDATE flags
		SET name = $2, location_type = $3, category = $4, nfts_required = $5,
		    price = $6, image_ipfs_hash = $7, metadata_ipfs_hash = $8,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := t.tx.GetContext(ctx, &flag.UpdatedAt, query,
		flag.ID,
		flag.Name,
		flag.LocationType,
		flag.Category,
		flag.NFTsRequired,
		flag.Price,
		flag.ImageIPFSHash,
		flag.MetadataIPFSHash,
	)
	if err != nil {
		if isNoRows(err) {
			return errNotFound("update flag")
		}
		return fmt.Errorf("update flag: %w", core.TranslatePgError(err))
	}

	return nil
}

func (t *pgTx) CreateInterest(ctx context.Context, interest *FlagInterest) error {
	query := `
		INSERT INTO flag_interests (user_id, flag_id)
		VALUES ($1, $2)
		RETURNING id, created_at`

	row := t.tx.QueryRowxContext(ctx, query, interest.UserID, interest.FlagID)
	if err := row.Scan(&interest.ID, &interest.CreatedAt); err != nil {
		return fmt.Errorf("create interest: %w", core.TranslatePgError(err))
	}

	return nil
}

func (t *pgTx) ListInterests(ctx context.Context, flagID int64) ([]FlagInterest, error) {
	query := `
		SELECT id, user_id, flag_id, created_at
		FROM flag_interests
		WHERE flag_id = $1
		ORDER BY created_at ASC, id ASC`

	var interests []FlagInterest
	if err := t.tx.SelectContext(ctx, &interests, query, flagID); err != nil {
		return nil, fmt.Errorf("list interests: %w", err)
	}

	return interests, nil
}

func (t *pgTx) ListInterestsByUser(
	ctx context.Context,
	userID int64,
) ([]FlagInterest, error) {
	query := `
		SELECT id, user_id, flag_id, created_at
		FROM flag_interests
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`

	var interests []FlagInterest
	if err := t.tx.SelectContext(ctx, &interests, query, userID); err != nil {
		return nil, fmt.Errorf("list interests by user: %w", err)
	}

	return interests, nil
}

func (t *pgTx) CountInterests(ctx context.Context, flagID int64) (int, error) {
	return t.count(ctx, "count interests",
		`SELECT COUNT(*) FROM flag_interests WHERE flag_id = $1`, flagID)
}

func (t *pgTx) CreateOwnership(ctx context.Context, ownership *FlagOwnership) error {
	query := `
		INSERT INTO flag_ownerships (user_id, flag_id, kind, transaction_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	row := t.tx.QueryRowxContext(ctx, query,
		ownership.UserID,
		ownership.FlagID,
		ownership.Kind,
		ownership.TransactionHash,
	)
	if err := row.Scan(&ownership.ID, &ownership.CreatedAt); err != nil {
		return fmt.Errorf("create ownership: %w", core.TranslatePgError(err))
	}

	return nil
}

const ownershipColumns = `id, user_id, flag_id, kind, transaction_hash, created_at`

func (t *pgTx) ListOwnerships(ctx context.Context, flagID int64) ([]FlagOwnership, error) {
	query := `
		SELECT ` + ownershipColumns + `
		FROM flag_ownerships
		WHERE flag_id = $1
		ORDER BY kind ASC`

	var ownerships []FlagOwnership
	if err := t.tx.SelectContext(ctx, &ownerships, query, flagID); err != nil {
		return nil, fmt.Errorf("list ownerships: %w", err)
	}

	return ownerships, nil
}

func (t *pgTx) ListOwnershipsByUser(
	ctx context.Context,
	userID int64,
) ([]FlagOwnership, error) {
	query := `
		SELECT ` + ownershipColumns + `
		FROM flag_ownerships
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`

	var ownerships []FlagOwnership
	if err := t.tx.SelectContext(ctx, &ownerships, query, userID); err != nil {
		return nil, fmt.Errorf("list ownerships by user: %w", err)
	}

	return ownerships, nil
}

func (t *pgTx) HasOwnership(ctx context.Context, flagID, userID int64) (bool, error) {
	return t.exists(ctx, "has ownership", `
		SELECT EXISTS(
			SELECT 1 FROM flag_ownerships WHERE flag_id = $1 AND user_id = $2
		)`, flagID, userID)
}

func (t *pgTx) DeleteOwnerships(ctx context.Context, flagID int64) (int, error) {
	res, err := t.tx.ExecContext(ctx,
		`DELETE FROM flag_ownerships WHERE flag_id = $1`, flagID)
	if err != nil {
		return 0, fmt.Errorf("delete ownerships: %w", core.TranslatePgError(err))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete ownerships: %w", err)
	}

	return int(n), nil
}
