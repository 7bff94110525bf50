// AngelaMos | 2026
// winner.go

package auction

import (
	"github.com/carterperez-dev/flagnft-backend/internal/store"
)

// CategoryRank orders bidder categories for tie-breaking. Unknown
// categories rank as standard.
func CategoryRank(category string) int {
	switch category {
	case store.CategoryPremium:
		return 3
	case store.CategoryPlus:
		return 2
	default:
		return 1
	}
}

// ResolveWinner returns the winning bid, or nil for an empty set. Bids are
// ordered by amount, then category rank, then earliest creation, then
// lowest id, so the result does not depend on input order.
//
// Bid acceptance requires each bid to beat the current highest, so two
// organic bids on one auction never share an amount and the category step
// only decides between imported or reconciled duplicates.
func ResolveWinner(bids []store.Bid) *store.Bid {
	if len(bids) == 0 {
		return nil
	}

	best := &bids[0]
	for i := 1; i < len(bids); i++ {
		if outranks(&bids[i], best) {
			best = &bids[i]
		}
	}

	winner := *best
	return &winner
}

func outranks(a, b *store.Bid) bool {
	if c := a.Amount.Cmp(b.Amount); c != 0 {
		return c > 0
	}

	if ra, rb := CategoryRank(a.BidderCategory), CategoryRank(b.BidderCategory); ra != rb {
		return ra > rb
	}

	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}

	return a.ID < b.ID
}
