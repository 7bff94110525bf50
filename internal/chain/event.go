// AngelaMos | 2026
// event.go

package chain

import (
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/sha3"

	"github.com/carterperez-dev/flagnft-backend/internal/core"
)

type Kind string

const (
	KindAuctionClosed Kind = "auction.closed"
	KindAuctionBuyout Kind = "auction.buyout"
)

// Event is a settled off-chain sale waiting to be registered on chain.
// ID is stable for a given settlement so downstream consumers can dedupe
// redeliveries.
type Event struct {
	ID         string    `json:"id"`
	Kind       Kind      `json:"kind"`
	AuctionID  int64     `json:"auction_id"`
	FlagID     int64     `json:"flag_id"`
	Seller     string    `json:"seller"`
	Winner     string    `json:"winner"`
	Amount     string    `json:"amount"`
	Category   string    `json:"category,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Settlement struct {
	Kind       Kind
	AuctionID  int64
	FlagID     int64
	Seller     string
	Winner     string
	Amount     decimal.Decimal
	Category   string
	OccurredAt time.Time
}

func NewEvent(s Settlement) Event {
	ev := Event{
		Kind:       s.Kind,
		AuctionID:  s.AuctionID,
		FlagID:     s.FlagID,
		Seller:     common.HexToAddress(s.Seller).Hex(),
		Winner:     common.HexToAddress(s.Winner).Hex(),
		Amount:     core.FormatMoney(s.Amount),
		Category:   s.Category,
		OccurredAt: s.OccurredAt.UTC(),
	}
	ev.ID = eventID(ev)
	return ev
}

func eventID(ev Event) string {
	h := sha3.NewLegacyKeccak256()
	for _, part := range []string{
		string(ev.Kind),
		strconv.FormatInt(ev.AuctionID, 10),
		ev.Winner,
		ev.Amount,
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return common.BytesToHash(h.Sum(nil)).Hex()
}
