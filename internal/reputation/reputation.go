// AngelaMos | 2026
// reputation.go

package reputation

import (
	"context"
	"fmt"
)

type Event string

const (
	InterestRegistered Event = "interest_registered"
	FirstClaimed       Event = "first_claimed"
	SecondPurchased    Event = "second_purchased"
	AuctionWon         Event = "auction_won"
	BuyoutWon          Event = "buyout_won"
	AuctionCancelled   Event = "auction_cancelled"
)

var deltas = map[Event]int{
	InterestRegistered: 0,
	FirstClaimed:       10,
	SecondPurchased:    25,
	AuctionWon:         15,
	BuyoutWon:          20,
	AuctionCancelled:   0,
}

// Delta is the fixed score change for an event. Unknown events are worth
// nothing.
func Delta(e Event) int {
	return deltas[e]
}

// Applier is the slice of a store transaction reputation needs.
type Applier interface {
	AddReputation(ctx context.Context, userID int64, delta int) error
}

// Apply credits userID for e inside the caller's transaction, so the score
// commits or rolls back together with the event that earned it.
func Apply(ctx context.Context, tx Applier, userID int64, e Event) error {
	d := Delta(e)
	if d == 0 {
		return nil
	}

	if err := tx.AddReputation(ctx, userID, d); err != nil {
		return fmt.Errorf("apply %s reputation: %w", e, err)
	}

	return nil
}
