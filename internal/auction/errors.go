// AngelaMos | 2026
// errors.go

package auction

import (
	"errors"

	"github.com/carterperez-dev/flagnft-backend/internal/core"
)

var (
	ErrAuctionNotFound = core.NotFoundError("auction")
	ErrFlagNotFound    = core.NotFoundError("flag")

	ErrInvalidDuration  = core.InvalidError("duration_hours is outside the allowed range")
	ErrBuyoutBelowStart = core.InvalidError("buyout_price must be greater than or equal to starting_price")
	ErrInvalidCategory  = core.InvalidError("bidder_category must be one of [standard plus premium]")

	ErrNotOwner     = core.NotOwnerError("you must own this flag to auction it")
	ErrActiveExists = core.ActiveAuctionExistsError()
	ErrNotEnded     = core.NotEndedError()

	ErrNotActive          = core.ConflictStateError("auction is not active")
	ErrEnded              = core.ConflictStateError("auction has ended")
	ErrSelfBid            = core.ConflictStateError("cannot bid on your own auction")
	ErrBelowMinPrice      = core.ConflictStateError("bid must be at least the minimum price")
	ErrBelowStartingPrice = core.ConflictStateError("bid must be at least the starting price")
	ErrBidTooLow          = core.ConflictStateError("bid must be higher than the current highest bid")
	ErrNoBuyout           = core.ConflictStateError("this auction does not have a buyout price")
	ErrSelfBuyout         = core.ConflictStateError("cannot buy out your own auction")
	ErrHasBids            = core.ConflictStateError("cannot cancel an auction that has bids")

	ErrNotSeller = core.ForbiddenError("only the seller can cancel this auction")
)

// orNotFound replaces a store not-found error with the domain error nf.
func orNotFound(err, nf error) error {
	if errors.Is(err, core.ErrNotFound) {
		return nf
	}
	return err
}
