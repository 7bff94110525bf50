// AngelaMos | 2026
// entity.go

package store

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID              int64     `db:"id"`
	WalletAddress   string    `db:"wallet_address"`
	Username        *string   `db:"username"`
	ReputationScore int       `db:"reputation_score"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

type Flag struct {
	ID               int64           `db:"id"`
	MunicipalityID   int64           `db:"municipality_id"`
	Name             string          `db:"name"`
	LocationType     string          `db:"location_type"`
	Category         string          `db:"category"`
	NFTsRequired     int             `db:"nfts_required"`
	Price            decimal.Decimal `db:"price"`
	ImageIPFSHash    *string         `db:"image_ipfs_hash"`
	MetadataIPFSHash *string         `db:"metadata_ipfs_hash"`
	FirstStatus      string          `db:"first_status"`
	SecondStatus     string          `db:"second_status"`
	PairComplete     bool            `db:"pair_complete"`
	CreatedAt        time.Time       `db:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at"`
}

// RecomputePair derives pair_complete from the two statuses. Every write
// of the pair columns goes through it.
func (f *Flag) RecomputePair() {
	f.PairComplete = f.FirstStatus == FirstClaimed &&
		f.SecondStatus == SecondPurchased
}

func (f *Flag) IsFirstAvailable() bool {
	return f.FirstStatus == FirstAvailable
}

func (f *Flag) IsSecondAvailable() bool {
	return f.SecondStatus == SecondAvailable
}

type FlagInterest struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	FlagID    int64     `db:"flag_id"`
	CreatedAt time.Time `db:"created_at"`
}

type FlagOwnership struct {
	ID              int64     `db:"id"`
	UserID          int64     `db:"user_id"`
	FlagID          int64     `db:"flag_id"`
	Kind            string    `db:"kind"`
	TransactionHash *string   `db:"transaction_hash"`
	CreatedAt       time.Time `db:"created_at"`
}

// Connection is a follow edge from FollowerID to FollowingID.
type Connection struct {
	ID          int64     `db:"id"`
	FollowerID  int64     `db:"follower_id"`
	FollowingID int64     `db:"following_id"`
	CreatedAt   time.Time `db:"created_at"`
}

type ConnectionCounts struct {
	Followers int `db:"followers"`
	Following int `db:"following"`
}

// UserScore is a user together with the metric a ranking ordered it by.
type UserScore struct {
	User
	Score int `db:"score"`
}

type FlagScore struct {
	Flag
	Score int `db:"score"`
}

// Activity weights for the active collectors ranking.
const (
	ActivityPerInterest  = 1
	ActivityPerOwnership = 5
	ActivityPerFollower  = 2
	ActivityPerFollowing = 1
)

type Auction struct {
	ID                int64               `db:"id"`
	FlagID            int64               `db:"flag_id"`
	SellerID          int64               `db:"seller_id"`
	StartingPrice     decimal.Decimal     `db:"starting_price"`
	MinPrice          decimal.Decimal     `db:"min_price"`
	BuyoutPrice       decimal.NullDecimal `db:"buyout_price"`
	CurrentHighestBid decimal.NullDecimal `db:"current_highest_bid"`
	HighestBidderID   *int64              `db:"highest_bidder_id"`
	WinnerCategory    *string             `db:"winner_category"`
	Status            string              `db:"status"`
	EndsAt            time.Time           `db:"ends_at"`
	CreatedAt         time.Time           `db:"created_at"`
	UpdatedAt         time.Time           `db:"updated_at"`
}

func (a *Auction) IsActive() bool {
	return a.Status == AuctionActive
}

// HasEnded reports whether now is strictly past ends_at. Bids and buyouts
// are still accepted at exactly ends_at.
func (a *Auction) HasEnded(now time.Time) bool {
	return now.After(a.EndsAt)
}

type Bid struct {
	ID             int64           `db:"id"`
	AuctionID      int64           `db:"auction_id"`
	BidderID       int64           `db:"bidder_id"`
	Amount         decimal.Decimal `db:"amount"`
	BidderCategory string          `db:"bidder_category"`
	CreatedAt      time.Time       `db:"created_at"`
}

type AuctionFilter struct {
	ActiveOnly bool
	FlagID     *int64
}

type FlagFilter struct {
	MunicipalityID *int64
	Category       string
	OpenPairsOnly  bool
}

type Stats struct {
	Users             int `db:"users"                json:"users"`
	Flags             int `db:"flags"                json:"flags"`
	CompletePairs     int `db:"complete_pairs"       json:"complete_pairs"`
	ActiveAuctions    int `db:"active_auctions"      json:"active_auctions"`
	ClosedAuctions    int `db:"closed_auctions"      json:"closed_auctions"`
	CancelledAuctions int `db:"cancelled_auctions"   json:"cancelled_auctions"`
	Bids              int `db:"bids"                 json:"bids"`
}

const (
	CategoryStandard = "standard"
	CategoryPlus     = "plus"
	CategoryPremium  = "premium"
)

const (
	FirstAvailable = "available"
	FirstClaimed   = "claimed"

	SecondAvailable = "available"
	SecondPurchased = "purchased"
)

const (
	OwnershipFirst  = "first"
	OwnershipSecond = "second"
)

const (
	AuctionActive    = "active"
	AuctionClosed    = "closed"
	AuctionCancelled = "cancelled"
)

// IsCategory reports whether c is one of the three known categories.
func IsCategory(c string) bool {
	switch c {
	case CategoryStandard, CategoryPlus, CategoryPremium:
		return true
	}
	return false
}
