// AngelaMos | 2026
// errors.go

package flag

import (
	"errors"

	"github.com/carterperez-dev/flagnft-backend/internal/core"
)

var (
	ErrFlagNotFound = core.NotFoundError("flag")

	ErrAlreadyInterested      = core.ConflictStateError("user already expressed interest in this flag")
	ErrFirstAlreadyClaimed    = core.ConflictStateError("first NFT already claimed")
	ErrFirstNotClaimed        = core.ConflictStateError("first NFT must be claimed before purchasing second")
	ErrSecondAlreadyPurchased = core.ConflictStateError("second NFT already purchased")
	ErrPairComplete           = core.ConflictStateError("pair is complete and cannot be rolled back")
	ErrAuctionActive          = core.ConflictStateError("flag has an active auction")

	ErrInvalidCategory = core.InvalidError("category must be one of [standard plus premium]")
	ErrInvalidNFTs     = core.InvalidError("nfts_required must be between 1 and 10")
)

func notFound(err error) error {
	if errors.Is(err, core.ErrNotFound) {
		return ErrFlagNotFound
	}
	return err
}

// onDuplicate maps a unique-constraint failure from the store to the state
// error that a pre-check would have returned.
func onDuplicate(err, state error) error {
	if errors.Is(err, core.ErrDuplicateKey) {
		return state
	}
	return err
}
