// AngelaMos | 2026
// service.go

package auction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/flagnft-backend/internal/chain"
	"github.com/carterperez-dev/flagnft-backend/internal/clock"
	"github.com/carterperez-dev/flagnft-backend/internal/core"
	"github.com/carterperez-dev/flagnft-backend/internal/reputation"
	"github.com/carterperez-dev/flagnft-backend/internal/store"
)

const tracerName = "flagnft/auction"

type Config struct {
	MinHours int
	MaxHours int
	Retry    store.RetryPolicy
}

type Service struct {
	store   store.Store
	clock   clock.Clock
	emitter chain.Emitter
	cfg     Config
	logger  *slog.Logger
}

func NewService(
	st store.Store,
	clk clock.Clock,
	emitter chain.Emitter,
	cfg Config,
	logger *slog.Logger,
) *Service {
	if cfg.MinHours < 1 {
		cfg.MinHours = 1
	}
	if cfg.MaxHours < cfg.MinHours {
		cfg.MaxHours = 168
	}

	return &Service{
		store:   st,
		clock:   clk,
		emitter: emitter,
		cfg:     cfg,
		logger:  logger,
	}
}

type CreateInput struct {
	FlagID        int64
	SellerWallet  string
	StartingPrice decimal.Decimal
	MinPrice      decimal.NullDecimal
	BuyoutPrice   decimal.NullDecimal
	DurationHours int
}

type BidInput struct {
	AuctionID int64
	Wallet    string
	Amount    decimal.Decimal
	Category  string
}

func (s *Service) Create(ctx context.Context, in CreateInput) (_ *store.Auction, err error) {
	ctx, span := core.StartSpan(ctx, tracerName, "auction.Create",
		attribute.Int64("flag.id", in.FlagID))
	defer func() { core.EndSpan(span, err) }()

	if in.DurationHours < s.cfg.MinHours || in.DurationHours > s.cfg.MaxHours {
		return nil, ErrInvalidDuration
	}

	if err := core.CheckMoney("starting_price", in.StartingPrice, false); err != nil {
		return nil, err
	}

	minPrice := in.StartingPrice
	if in.MinPrice.Valid {
		minPrice = in.MinPrice.Decimal
		if err := core.CheckMoney("min_price", minPrice, false); err != nil {
			return nil, err
		}
	}

	if in.BuyoutPrice.Valid {
		if err := core.CheckMoney("buyout_price", in.BuyoutPrice.Decimal, false); err != nil {
			return nil, err
		}
		if in.BuyoutPrice.Decimal.LessThan(in.StartingPrice) {
			return nil, ErrBuyoutBelowStart
		}
	}

	var created *store.Auction
	err = s.update(ctx, func(tx store.Tx) error {
		if _, err := tx.GetFlag(ctx, in.FlagID); err != nil {
			return orNotFound(err, ErrFlagNotFound)
		}

		seller, err := tx.EnsureUser(ctx, in.SellerWallet)
		if err != nil {
			return err
		}

		owns, err := tx.HasOwnership(ctx, in.FlagID, seller.ID)
		if err != nil {
			return err
		}
		if !owns {
			return ErrNotOwner
		}

		active, err := tx.HasActiveAuction(ctx, in.FlagID)
		if err != nil {
			return err
		}
		if active {
			return ErrActiveExists
		}

		now := s.clock.Now()
		a := &store.Auction{
			FlagID:        in.FlagID,
			SellerID:      seller.ID,
			StartingPrice: in.StartingPrice,
			MinPrice:      minPrice,
			BuyoutPrice:   in.BuyoutPrice,
			Status:        store.AuctionActive,
			EndsAt:        now.Add(time.Duration(in.DurationHours) * time.Hour),
			CreatedAt:     now,
		}

		if err := tx.CreateAuction(ctx, a); err != nil {
			if errors.Is(err, core.ErrActiveAuctionExists) {
				return ErrActiveExists
			}
			return err
		}

		created = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "auction created",
		"auction_id", created.ID,
		"flag_id", created.FlagID,
		"ends_at", created.EndsAt,
	)

	return created, nil
}

func (s *Service) PlaceBid(ctx context.Context, in BidInput) (_ *store.Bid, err error) {
	ctx, span := core.StartSpan(ctx, tracerName, "auction.PlaceBid",
		attribute.Int64("auction.id", in.AuctionID))
	defer func() { core.EndSpan(span, err) }()

	if err := core.CheckMoney("amount", in.Amount, true); err != nil {
		return nil, err
	}

	category := in.Category
	if category == "" {
		category = store.CategoryStandard
	}
	if !store.IsCategory(category) {
		return nil, ErrInvalidCategory
	}

	var placed *store.Bid
	err = s.update(ctx, func(tx store.Tx) error {
		a, err := tx.LockAuction(ctx, in.AuctionID)
		if err != nil {
			return orNotFound(err, ErrAuctionNotFound)
		}

		now := s.clock.Now()
		if !a.IsActive() {
			return ErrNotActive
		}
		if a.HasEnded(now) {
			return ErrEnded
		}

		bidder, err := tx.EnsureUser(ctx, in.Wallet)
		if err != nil {
			return err
		}
		if bidder.ID == a.SellerID {
			return ErrSelfBid
		}

		if in.Amount.LessThan(a.MinPrice) {
			return ErrBelowMinPrice
		}
		if in.Amount.LessThan(a.StartingPrice) {
			return ErrBelowStartingPrice
		}
		if a.CurrentHighestBid.Valid && !in.Amount.GreaterThan(a.CurrentHighestBid.Decimal) {
			return ErrBidTooLow
		}

		b := &store.Bid{
			AuctionID:      a.ID,
			BidderID:       bidder.ID,
			Amount:         in.Amount,
			BidderCategory: category,
			CreatedAt:      now,
		}

		swapped, err := tx.SwapHighestBid(ctx, a.ID, a.CurrentHighestBid, b)
		if err != nil {
			return err
		}
		if !swapped {
			return fmt.Errorf("place bid on auction %d: %w", a.ID, core.ErrSerialization)
		}

		if err := tx.CreateBid(ctx, b); err != nil {
			return err
		}

		placed = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	return placed, nil
}

func (s *Service) Buyout(
	ctx context.Context,
	auctionID int64,
	wallet string,
) (_ *store.Auction, err error) {
	ctx, span := core.StartSpan(ctx, tracerName, "auction.Buyout",
		attribute.Int64("auction.id", auctionID))
	defer func() { core.EndSpan(span, err) }()

	var (
		closed     *store.Auction
		settlement *chain.Settlement
	)
	err = s.update(ctx, func(tx store.Tx) error {
		settlement = nil

		a, err := tx.LockAuction(ctx, auctionID)
		if err != nil {
			return orNotFound(err, ErrAuctionNotFound)
		}

		now := s.clock.Now()
		if !a.IsActive() {
			return ErrNotActive
		}
		if !a.BuyoutPrice.Valid {
			return ErrNoBuyout
		}
		if a.HasEnded(now) {
			return ErrEnded
		}

		buyer, err := tx.EnsureUser(ctx, wallet)
		if err != nil {
			return err
		}
		if buyer.ID == a.SellerID {
			return ErrSelfBuyout
		}

		a.Status = store.AuctionClosed
		a.CurrentHighestBid = a.BuyoutPrice
		a.HighestBidderID = &buyer.ID
		a.UpdatedAt = now

		if err := s.finish(ctx, tx, a); err != nil {
			return err
		}

		if err := reputation.Apply(ctx, tx, buyer.ID, reputation.BuyoutWon); err != nil {
			return err
		}

		seller, err := tx.GetUserByID(ctx, a.SellerID)
		if err != nil {
			return err
		}

		settlement = &chain.Settlement{
			Kind:       chain.KindAuctionBuyout,
			AuctionID:  a.ID,
			FlagID:     a.FlagID,
			Seller:     seller.WalletAddress,
			Winner:     buyer.WalletAddress,
			Amount:     a.BuyoutPrice.Decimal,
			Category:   deref(a.WinnerCategory),
			OccurredAt: now,
		}
		closed = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "auction bought out",
		"auction_id", closed.ID,
		"buyer_id", *closed.HighestBidderID,
	)
	s.emitter.Emit(ctx, chain.NewEvent(*settlement))

	return closed, nil
}

func (s *Service) Close(ctx context.Context, auctionID int64) (_ *store.Auction, err error) {
	ctx, span := core.StartSpan(ctx, tracerName, "auction.Close",
		attribute.Int64("auction.id", auctionID))
	defer func() { core.EndSpan(span, err) }()

	var (
		closed     *store.Auction
		settlement *chain.Settlement
	)
	err = s.update(ctx, func(tx store.Tx) error {
		settlement = nil

		a, err := tx.LockAuction(ctx, auctionID)
		if err != nil {
			return orNotFound(err, ErrAuctionNotFound)
		}

		now := s.clock.Now()
		if !a.IsActive() {
			return ErrNotActive
		}
		if !a.HasEnded(now) {
			return ErrNotEnded
		}

		bids, err := tx.ListBids(ctx, a.ID)
		if err != nil {
			return err
		}

		winner := ResolveWinner(bids)
		if winner != nil {
			category := winner.BidderCategory
			a.HighestBidderID = &winner.BidderID
			a.CurrentHighestBid = decimal.NewNullDecimal(winner.Amount)
			a.WinnerCategory = &category
		}
		a.Status = store.AuctionClosed
		a.UpdatedAt = now

		if err := s.finish(ctx, tx, a); err != nil {
			return err
		}

		closed = a
		if winner == nil {
			return nil
		}

		if err := reputation.Apply(ctx, tx, winner.BidderID, reputation.AuctionWon); err != nil {
			return err
		}

		seller, err := tx.GetUserByID(ctx, a.SellerID)
		if err != nil {
			return err
		}
		buyer, err := tx.GetUserByID(ctx, winner.BidderID)
		if err != nil {
			return err
		}

		settlement = &chain.Settlement{
			Kind:       chain.KindAuctionClosed,
			AuctionID:  a.ID,
			FlagID:     a.FlagID,
			Seller:     seller.WalletAddress,
			Winner:     buyer.WalletAddress,
			Amount:     winner.Amount,
			Category:   winner.BidderCategory,
			OccurredAt: now,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "auction closed",
		"auction_id", closed.ID,
		"has_winner", settlement != nil,
	)
	if settlement != nil {
		s.emitter.Emit(ctx, chain.NewEvent(*settlement))
	}

	return closed, nil
}

func (s *Service) Cancel(
	ctx context.Context,
	auctionID int64,
	wallet string,
) (_ *store.Auction, err error) {
	ctx, span := core.StartSpan(ctx, tracerName, "auction.Cancel",
		attribute.Int64("auction.id", auctionID))
	defer func() { core.EndSpan(span, err) }()

	var cancelled *store.Auction
	err = s.update(ctx, func(tx store.Tx) error {
		a, err := tx.LockAuction(ctx, auctionID)
		if err != nil {
			return orNotFound(err, ErrAuctionNotFound)
		}

		caller, err := tx.GetUserByWallet(ctx, wallet)
		if err != nil {
			return orNotFound(err, ErrNotSeller)
		}
		if caller.ID != a.SellerID {
			return ErrNotSeller
		}

		if !a.IsActive() {
			return ErrNotActive
		}

		n, err := tx.CountBids(ctx, a.ID)
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrHasBids
		}

		a.Status = store.AuctionCancelled
		a.UpdatedAt = s.clock.Now()

		if err := s.finish(ctx, tx, a); err != nil {
			return err
		}

		cancelled = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "auction cancelled", "auction_id", cancelled.ID)
	return cancelled, nil
}

type Listing struct {
	Auction  store.Auction
	Flag     store.Flag
	Seller   store.User
	BidCount int
}

type BidView struct {
	Bid    store.Bid
	Bidder store.User
}

type Detail struct {
	Listing
	HighestBidder *store.User
	// Bids are newest first.
	Bids []BidView
}

func (s *Service) List(ctx context.Context, filter store.AuctionFilter) ([]Listing, error) {
	var listings []Listing
	err := s.store.View(ctx, func(tx store.Tx) error {
		auctions, err := tx.ListAuctions(ctx, filter)
		if err != nil {
			return err
		}

		users := newUserCache(tx)
		flags := make(map[int64]*store.Flag)
		listings = make([]Listing, 0, len(auctions))

		for _, a := range auctions {
			l, err := s.listing(ctx, tx, a, users, flags)
			if err != nil {
				return err
			}
			listings = append(listings, *l)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list auctions: %w", err)
	}

	return listings, nil
}

func (s *Service) Get(ctx context.Context, auctionID int64) (*Detail, error) {
	var detail *Detail
	err := s.store.View(ctx, func(tx store.Tx) error {
		a, err := tx.GetAuction(ctx, auctionID)
		if err != nil {
			return orNotFound(err, ErrAuctionNotFound)
		}

		users := newUserCache(tx)
		l, err := s.listing(ctx, tx, *a, users, make(map[int64]*store.Flag))
		if err != nil {
			return err
		}

		bids, err := tx.ListBids(ctx, a.ID)
		if err != nil {
			return err
		}
		slices.Reverse(bids)

		detail = &Detail{Listing: *l, Bids: make([]BidView, 0, len(bids))}
		for _, b := range bids {
			bidder, err := users.get(ctx, b.BidderID)
			if err != nil {
				return err
			}
			detail.Bids = append(detail.Bids, BidView{Bid: b, Bidder: *bidder})
		}

		if a.HighestBidderID != nil {
			hb, err := users.get(ctx, *a.HighestBidderID)
			if err != nil {
				return err
			}
			detail.HighestBidder = hb
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return detail, nil
}

func (s *Service) listing(
	ctx context.Context,
	tx store.Tx,
	a store.Auction,
	users *userCache,
	flags map[int64]*store.Flag,
) (*Listing, error) {
	f, ok := flags[a.FlagID]
	if !ok {
		var err error
		f, err = tx.GetFlag(ctx, a.FlagID)
		if err != nil {
			return nil, err
		}
		flags[a.FlagID] = f
	}

	seller, err := users.get(ctx, a.SellerID)
	if err != nil {
		return nil, err
	}

	n, err := tx.CountBids(ctx, a.ID)
	if err != nil {
		return nil, err
	}

	return &Listing{Auction: a, Flag: *f, Seller: *seller, BidCount: n}, nil
}

// finish applies a terminal transition. A row that is no longer active
// means another transaction got there first.
func (s *Service) finish(ctx context.Context, tx store.Tx, a *store.Auction) error {
	ok, err := tx.FinishAuction(ctx, a)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotActive
	}
	return nil
}

func (s *Service) update(ctx context.Context, fn func(tx store.Tx) error) error {
	return store.Retry(ctx, s.cfg.Retry, func() error {
		return s.store.Update(ctx, fn)
	})
}

type userCache struct {
	tx    store.Tx
	users map[int64]*store.User
}

func newUserCache(tx store.Tx) *userCache {
	return &userCache{tx: tx, users: make(map[int64]*store.User)}
}

func (c *userCache) get(ctx context.Context, id int64) (*store.User, error) {
	if u, ok := c.users[id]; ok {
		return u, nil
	}

	u, err := c.tx.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	c.users[id] = u
	return u, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
