// AngelaMos | 2026
// store.go

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/flagnft-backend/internal/core"
)

// Store runs closures inside transactions. Update transactions are
// serializable: a closure either commits as if it ran alone or fails with
// core.ErrSerialization and leaves no trace.
type Store interface {
	View(ctx context.Context, fn func(tx Tx) error) error
	Update(ctx context.Context, fn func(tx Tx) error) error
	Ping(ctx context.Context) error
	Close() error
}

type Tx interface {
	UserRepository
	ConnectionRepository
	FlagRepository
	AuctionRepository
	RankingRepository

	Stats(ctx context.Context) (*Stats, error)
}

type UserRepository interface {
	// EnsureUser returns the user for a canonical wallet, inserting it on
	// first mention.
	EnsureUser(ctx context.Context, wallet string) (*User, error)
	GetUserByID(ctx context.Context, id int64) (*User, error)
	GetUserByWallet(ctx context.Context, wallet string) (*User, error)
	UpdateUsername(ctx context.Context, id int64, username *string) (*User, error)
	AddReputation(ctx context.Context, id int64, delta int) error
	ListUsersByReputation(ctx context.Context, limit int) ([]User, error)
}

type ConnectionRepository interface {
	// CreateConnection fails with core.ErrDuplicateKey when the edge exists.
	CreateConnection(ctx context.Context, conn *Connection) error
	DeleteConnection(ctx context.Context, followerID, followingID int64) (bool, error)
	// ListFollowers and ListFollowing return users in the order the edges
	// were created.
	ListFollowers(ctx context.Context, userID int64) ([]User, error)
	ListFollowing(ctx context.Context, userID int64) ([]User, error)
	CountConnections(ctx context.Context, userID int64) (ConnectionCounts, error)
}

// RankingRepository orders by score descending, then by id. Scores of zero
// are left out of the user rankings.
type RankingRepository interface {
	RankCollectors(ctx context.Context, limit int) ([]UserScore, error)
	RankActiveCollectors(ctx context.Context, limit int) ([]UserScore, error)
	RankFlagsByInterest(ctx context.Context, limit int) ([]FlagScore, error)
}

type FlagRepository interface {
	CreateFlag(ctx context.Context, flag *Flag) error
	GetFlag(ctx context.Context, id int64) (*Flag, error)
	ListFlags(ctx context.Context, filter FlagFilter) ([]Flag, error)
	// LockFlag is GetFlag that also takes the row lock for the rest of the
	// transaction.
	LockFlag(ctx context.Context, id int64) (*Flag, error)
	UpdateFlagPair(ctx context.Context, flag *Flag) error
	// UpdateFlag writes the descriptive columns. Pair status is only ever
	// changed through UpdateFlagPair.
	UpdateFlag(ctx context.Context, flag *Flag) error

	CreateInterest(ctx context.Context, interest *FlagInterest) error
	ListInterests(ctx context.Context, flagID int64) ([]FlagInterest, error)
	CountInterests(ctx context.Context, flagID int64) (int, error)
	ListInterestsByUser(ctx context.Context, userID int64) ([]FlagInterest, error)

	CreateOwnership(ctx context.Context, ownership *FlagOwnership) error
	ListOwnerships(ctx context.Context, flagID int64) ([]FlagOwnership, error)
	ListOwnershipsByUser(ctx context.Context, userID int64) ([]FlagOwnership, error)
	HasOwnership(ctx context.Context, flagID, userID int64) (bool, error)
	DeleteOwnerships(ctx context.Context, flagID int64) (int, error)
}

type AuctionRepository interface {
	// CreateAuction fails with core.ErrActiveAuctionExists when the flag
	// already has an active auction.
	CreateAuction(ctx context.Context, auction *Auction) error
	GetAuction(ctx context.Context, id int64) (*Auction, error)
	LockAuction(ctx context.Context, id int64) (*Auction, error)
	HasActiveAuction(ctx context.Context, flagID int64) (bool, error)
	ListAuctions(ctx context.Context, filter AuctionFilter) ([]Auction, error)

	// SwapHighestBid moves the highest bid pointer to bid, but only while
	// the auction is active and its highest bid still equals prev.
	SwapHighestBid(
		ctx context.Context,
		auctionID int64,
		prev decimal.NullDecimal,
		bid *Bid,
	) (bool, error)
	// FinishAuction writes the terminal status and winner columns of
	// auction, but only while the stored row is still active.
	FinishAuction(ctx context.Context, auction *Auction) (bool, error)

	CreateBid(ctx context.Context, bid *Bid) error
	ListBids(ctx context.Context, auctionID int64) ([]Bid, error)
	CountBids(ctx context.Context, auctionID int64) (int, error)
}

type RetryPolicy struct {
	Attempts        int
	InitialInterval time.Duration
}

// Retry runs op until it succeeds, fails with anything other than a
// serialization conflict, or runs out of attempts. Exhaustion is reported
// as core.ConflictError.
func Retry(ctx context.Context, policy RetryPolicy, op func() error) error {
	attempts := policy.Attempts
	if attempts < 1 {
		attempts = 1
	}

	b := backoff.NewExponentialBackOff()
	if policy.InitialInterval > 0 {
		b.InitialInterval = policy.InitialInterval
	}
	b.MaxInterval = 500 * time.Millisecond
	b.MaxElapsedTime = 0

	err := backoff.Retry(func() error {
		err := op()
		if err == nil || errors.Is(err, core.ErrSerialization) {
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(
		backoff.WithMaxRetries(b, uint64(attempts-1)),
		ctx,
	))

	if errors.Is(err, core.ErrSerialization) {
		return fmt.Errorf("%w: %w", core.ConflictError(), err)
	}
	return err
}

func errNotFound(op string) error {
	return fmt.Errorf("%s: %w", op, core.ErrNotFound)
}
