// AngelaMos | 2026
// dto.go

package auction

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/flagnft-backend/internal/core"
	"github.com/carterperez-dev/flagnft-backend/internal/flag"
	"github.com/carterperez-dev/flagnft-backend/internal/store"
	"github.com/carterperez-dev/flagnft-backend/internal/user"
)

type CreateAuctionRequest struct {
	FlagID        int64            `json:"flag_id"                validate:"required,gt=0"`
	WalletAddress string           `json:"wallet_address"         validate:"required,eth_addr"`
	StartingPrice *decimal.Decimal `json:"starting_price"         validate:"required"`
	MinPrice      *decimal.Decimal `json:"min_price,omitempty"`
	BuyoutPrice   *decimal.Decimal `json:"buyout_price,omitempty"`
	DurationHours int              `json:"duration_hours"         validate:"required,gt=0"`
}

func (r CreateAuctionRequest) ToInput(seller string) CreateInput {
	return CreateInput{
		FlagID:        r.FlagID,
		SellerWallet:  seller,
		StartingPrice: *r.StartingPrice,
		MinPrice:      nullable(r.MinPrice),
		BuyoutPrice:   nullable(r.BuyoutPrice),
		DurationHours: r.DurationHours,
	}
}

type PlaceBidRequest struct {
	WalletAddress  string           `json:"wallet_address"            validate:"required,eth_addr"`
	Amount         *decimal.Decimal `json:"amount"                    validate:"required"`
	BidderCategory string           `json:"bidder_category,omitempty" validate:"omitempty,oneof=standard plus premium"`
}

// WalletRequest is the body of buyout and cancel.
type WalletRequest struct {
	WalletAddress string `json:"wallet_address" validate:"required,eth_addr"`
}

type AuctionResponse struct {
	ID                int64     `json:"id"`
	FlagID            int64     `json:"flag_id"`
	SellerID          int64     `json:"seller_id"`
	StartingPrice     string    `json:"starting_price"`
	MinPrice          string    `json:"min_price"`
	BuyoutPrice       *string   `json:"buyout_price"`
	CurrentHighestBid *string   `json:"current_highest_bid"`
	HighestBidderID   *int64    `json:"highest_bidder_id"`
	WinnerCategory    *string   `json:"winner_category"`
	Status            string    `json:"status"`
	EndsAt            time.Time `json:"ends_at"`
	CreatedAt         time.Time `json:"created_at"`
}

type ListItemResponse struct {
	AuctionResponse
	Flag     flag.Summary `json:"flag"`
	Seller   user.Summary `json:"seller"`
	BidCount int          `json:"bid_count"`
}

type BidResponse struct {
	ID             int64         `json:"id"`
	AuctionID      int64         `json:"auction_id"`
	BidderID       int64         `json:"bidder_id"`
	Amount         string        `json:"amount"`
	BidderCategory string        `json:"bidder_category"`
	Bidder         *user.Summary `json:"bidder,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}

type DetailResponse struct {
	ListItemResponse
	HighestBidder *user.Summary `json:"highest_bidder"`
	Bids          []BidResponse `json:"bids"`
}

func ToAuctionResponse(a *store.Auction) AuctionResponse {
	return AuctionResponse{
		ID:                a.ID,
		FlagID:            a.FlagID,
		SellerID:          a.SellerID,
		StartingPrice:     core.FormatMoney(a.StartingPrice),
		MinPrice:          core.FormatMoney(a.MinPrice),
		BuyoutPrice:       core.FormatNullMoney(a.BuyoutPrice),
		CurrentHighestBid: core.FormatNullMoney(a.CurrentHighestBid),
		HighestBidderID:   a.HighestBidderID,
		WinnerCategory:    a.WinnerCategory,
		Status:            a.Status,
		EndsAt:            a.EndsAt,
		CreatedAt:         a.CreatedAt,
	}
}

func ToListItemResponse(l *Listing) ListItemResponse {
	return ListItemResponse{
		AuctionResponse: ToAuctionResponse(&l.Auction),
		Flag:            flag.ToSummary(&l.Flag),
		Seller:          user.ToSummary(&l.Seller),
		BidCount:        l.BidCount,
	}
}

func ToListItemResponseList(listings []Listing) []ListItemResponse {
	out := make([]ListItemResponse, 0, len(listings))
	for i := range listings {
		out = append(out, ToListItemResponse(&listings[i]))
	}
	return out
}

func ToBidResponse(b *store.Bid, bidder *store.User) BidResponse {
	return BidResponse{
		ID:             b.ID,
		AuctionID:      b.AuctionID,
		BidderID:       b.BidderID,
		Amount:         core.FormatMoney(b.Amount),
		BidderCategory: b.BidderCategory,
		Bidder:         user.ToSummaryPtr(bidder),
		CreatedAt:      b.CreatedAt,
	}
}

func ToDetailResponse(d *Detail) DetailResponse {
	bids := make([]BidResponse, 0, len(d.Bids))
	for i := range d.Bids {
		bids = append(bids, ToBidResponse(&d.Bids[i].Bid, &d.Bids[i].Bidder))
	}

	return DetailResponse{
		ListItemResponse: ToListItemResponse(&d.Listing),
		HighestBidder:    user.ToSummaryPtr(d.HighestBidder),
		Bids:             bids,
	}
}

func nullable(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}
