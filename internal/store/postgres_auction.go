// AngelaMos | 2026
// postgres_auction.go

package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/flagnft-backend/internal/core"
)

const auctionColumns = `id, flag_id, seller_id, starting_price, min_price,
	buyout_price, current_highest_bid, highest_bidder_id, winner_category,
	status, ends_at, created_at, updated_at`

func (t *pgTx) CreateAuction(ctx context.Context, auction *Auction) error {
	query := `
		INSERT INTO auctions (
			flag_id, seller_id, starting_price, min_price, buyout_price,
			status, ends_at, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		RETURNING id, updated_at`

	row := t.tx.QueryRowxContext(ctx, query,
		auction.FlagID,
		auction.SellerID,
		auction.StartingPrice,
		auction.MinPrice,
		auction.BuyoutPrice,
		auction.Status,
		auction.EndsAt,
		auction.CreatedAt,
	)
	if err := row.Scan(&auction.ID, &auction.UpdatedAt); err != nil {
		if c, ok := uniqueConstraint(err); ok && c == constraintOneActivePerFlag {
			return fmt.Errorf("create auction: %w", core.ErrActiveAuctionExists)
		}
		return fmt.Errorf("create auction: %w", core.TranslatePgError(err))
	}

	return nil
}

func (t *pgTx) GetAuction(ctx context.Context, id int64) (*Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE id = $1`
	return getOne[Auction](ctx, t.tx, "get auction", query, id)
}

func (t *pgTx) LockAuction(ctx context.Context, id int64) (*Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE id = $1 FOR UPDATE`
	return getOne[Auction](ctx, t.tx, "lock auction", query, id)
}

func (t *pgTx) HasActiveAuction(ctx context.Context, flagID int64) (bool, error) {
	return t.exists(ctx, "has active auction", `
		SELECT EXISTS(
			SELECT 1 FROM auctions WHERE flag_id = $1 AND status = 'active'
		)`, flagID)
}

func (t *pgTx) ListAuctions(
	ctx context.Context,
	filter AuctionFilter,
) ([]Auction, error) {
	var conditions []string
	var args []any

	if filter.ActiveOnly {
		conditions = append(conditions, "status = 'active'")
	}

	if filter.FlagID != nil {
		args = append(args, *filter.FlagID)
		conditions = append(conditions, fmt.Sprintf("flag_id = $%d", len(args)))
	}

	query := `SELECT ` + auctionColumns + ` FROM auctions`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY ends_at ASC, id ASC`

	var auctions []Auction
	if err := t.tx.SelectContext(ctx, &auctions, query, args...); err != nil {
		return nil, fmt.Errorf("list auctions: %w", err)
	}

	return auctions, nil
}

func (t *pgTx) SwapHighestBid(
	ctx context.Context,
	auctionID int64,
	prev decimal.NullDecimal,
	bid *Bid,
) (bool, error) {
	query := `
		UPDATE auctions
		SET current_highest_bid = $3,
		    highest_bidder_id = $4,
		    winner_category = $5,
		    updated_at = $6
		WHERE id = $1
		  AND status = 'active'
		  AND current_highest_bid IS NOT DISTINCT FROM $2::numeric`

	res, err := t.tx.ExecContext(ctx, query,
		auctionID,
		prev,
		bid.Amount,
		bid.BidderID,
		bid.BidderCategory,
		bid.CreatedAt,
	)
	return affected("swap highest bid", res, err)
}

func (t *pgTx) FinishAuction(ctx context.Context, auction *Auction) (bool, error) {
	query := `
		UPDATE auctions
		SET status = $2,
		    current_highest_bid = $3,
		    highest_bidder_id = $4,
		    winner_category = $5,
		    updated_at = $6
		WHERE id = $1 AND status = 'active'`

	res, err := t.tx.ExecContext(ctx, query,
		auction.ID,
		auction.Status,
		auction.CurrentHighestBid,
		auction.HighestBidderID,
		auction.WinnerCategory,
		auction.UpdatedAt,
	)
	return affected("finish auction", res, err)
}

func (t *pgTx) CreateBid(ctx context.Context, bid *Bid) error {
	query := `
		INSERT INTO bids (auction_id, bidder_id, amount, bidder_category, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	err := t.tx.GetContext(ctx, &bid.ID, query,
		bid.AuctionID,
		bid.BidderID,
		bid.Amount,
		bid.BidderCategory,
		bid.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create bid: %w", core.TranslatePgError(err))
	}

	return nil
}

func (t *pgTx) ListBids(ctx context.Context, auctionID int64) ([]Bid, error) {
	query := `
		SELECT id, auction_id, bidder_id, amount, bidder_category, created_at
		FROM bids
		WHERE auction_id = $1
		ORDER BY created_at ASC, id ASC`

	var bids []Bid
	if err := t.tx.SelectContext(ctx, &bids, query, auctionID); err != nil {
		return nil, fmt.Errorf("list bids: %w", err)
	}

	return bids, nil
}

func (t *pgTx) CountBids(ctx context.Context, auctionID int64) (int, error) {
	return t.count(ctx, "count bids",
		`SELECT COUNT(*) FROM bids WHERE auction_id = $1`, auctionID)
}
