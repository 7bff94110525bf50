// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"errors"

	"github.com/carterperez-dev/flagnft-backend/internal/core"
	"github.com/carterperez-dev/flagnft-backend/internal/store"
)

const (
	DefaultRankingLimit = 10
	MaxRankingLimit     = 100
)

var (
	ErrUserNotFound       = core.NotFoundError("user")
	ErrTargetNotFound     = core.NotFoundError("target user")
	ErrConnectionNotFound = core.NotFoundError("connection")
	ErrInvalidLimit       = core.InvalidError("limit must be between 1 and 100")
	ErrSelfFollow         = core.InvalidError("cannot follow yourself")
	ErrAlreadyFollowing   = core.ConflictStateError("already following this user")
)

type Profile struct {
	User       store.User
	FlagsOwned int
	Followers  int
	Following  int
}

// Follow is a created follow edge with both of its ends.
type Follow struct {
	Connection store.Connection
	Follower   store.User
	Following  store.User
}

type Service struct {
	store store.Store
}

func NewService(st store.Store) *Service {
	return &Service{store: st}
}

// Register returns the user for wallet, creating it on first sight, and
// sets the username when one is given.
func (s *Service) Register(
	ctx context.Context,
	wallet string,
	username *string,
) (*Profile, error) {
	var profile *Profile
	err := s.store.Update(ctx, func(tx store.Tx) error {
		u, err := tx.EnsureUser(ctx, wallet)
		if err != nil {
			return err
		}

		if username != nil {
			if u, err = tx.UpdateUsername(ctx, u.ID, username); err != nil {
				return err
			}
		}

		profile, err = loadProfile(ctx, tx, u)
		return err
	})
	if err != nil {
		return nil, err
	}

	return profile, nil
}

func (s *Service) Get(ctx context.Context, wallet string) (*Profile, error) {
	var profile *Profile
	err := s.store.View(ctx, func(tx store.Tx) error {
		u, err := tx.GetUserByWallet(ctx, wallet)
		if err != nil {
			return notFound(err)
		}

		profile, err = loadProfile(ctx, tx, u)
		return err
	})
	if err != nil {
		return nil, err
	}

	return profile, nil
}

func (s *Service) Update(
	ctx context.Context,
	wallet string,
	req UpdateUserRequest,
) (*Profile, error) {
	var profile *Profile
	err := s.store.Update(ctx, func(tx store.Tx) error {
		u, err := tx.GetUserByWallet(ctx, wallet)
		if err != nil {
			return notFound(err)
		}

		if req.Username != nil {
			if u, err = tx.UpdateUsername(ctx, u.ID, req.Username); err != nil {
				return err
			}
		}

		profile, err = loadProfile(ctx, tx, u)
		return err
	})
	if err != nil {
		return nil, err
	}

	return profile, nil
}

func (s *Service) Ownerships(
	ctx context.Context,
	wallet string,
) ([]store.FlagOwnership, error) {
	var ownerships []store.FlagOwnership
	err := s.store.View(ctx, func(tx store.Tx) error {
		u, err := tx.GetUserByWallet(ctx, wallet)
		if err != nil {
			return notFound(err)
		}

		ownerships, err = tx.ListOwnershipsByUser(ctx, u.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return ownerships, nil
}

// Follow makes wallet a follower of target. Both users must already exist.
func (s *Service) Follow(ctx context.Context, wallet, target string) (*Follow, error) {
	if wallet == target {
		return nil, ErrSelfFollow
	}

	var follow *Follow
	err := s.store.Update(ctx, func(tx store.Tx) error {
		follower, err := tx.GetUserByWallet(ctx, wallet)
		if err != nil {
			return notFound(err)
		}

		following, err := tx.GetUserByWallet(ctx, target)
		if err != nil {
			return targetNotFound(err)
		}

		conn := &store.Connection{FollowerID: follower.ID, FollowingID: following.ID}
		if err := tx.CreateConnection(ctx, conn); err != nil {
			if errors.Is(err, core.ErrDuplicateKey) {
				return ErrAlreadyFollowing
			}
			return err
		}

		follow = &Follow{Connection: *conn, Follower: *follower, Following: *following}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return follow, nil
}

func (s *Service) Unfollow(ctx context.Context, wallet, target string) error {
	return s.store.Update(ctx, func(tx store.Tx) error {
		follower, err := tx.GetUserByWallet(ctx, wallet)
		if err != nil {
			return notFound(err)
		}

		following, err := tx.GetUserByWallet(ctx, target)
		if err != nil {
			return targetNotFound(err)
		}

		removed, err := tx.DeleteConnection(ctx, follower.ID, following.ID)
		if err != nil {
			return err
		}
		if !removed {
			return ErrConnectionNotFound
		}
		return nil
	})
}

// Followers lists the users following wallet, oldest edge first.
func (s *Service) Followers(ctx context.Context, wallet string) ([]store.User, error) {
	return s.listConnected(ctx, wallet, store.Tx.ListFollowers)
}

// Following lists the users wallet follows, oldest edge first.
func (s *Service) Following(ctx context.Context, wallet string) ([]store.User, error) {
	return s.listConnected(ctx, wallet, store.Tx.ListFollowing)
}

func (s *Service) listConnected(
	ctx context.Context,
	wallet string,
	list func(store.Tx, context.Context, int64) ([]store.User, error),
) ([]store.User, error) {
	var users []store.User
	err := s.store.View(ctx, func(tx store.Tx) error {
		u, err := tx.GetUserByWallet(ctx, wallet)
		if err != nil {
			return notFound(err)
		}

		users, err = list(tx, ctx, u.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return users, nil
}

// Interests lists the flags wallet registered interest in, newest first.
func (s *Service) Interests(
	ctx context.Context,
	wallet string,
) ([]store.FlagInterest, error) {
	var interests []store.FlagInterest
	err := s.store.View(ctx, func(tx store.Tx) error {
		u, err := tx.GetUserByWallet(ctx, wallet)
		if err != nil {
			return notFound(err)
		}

		interests, err = tx.ListInterestsByUser(ctx, u.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return interests, nil
}

// CollectorRankings orders users by the number of NFTs they hold.
func (s *Service) CollectorRankings(ctx context.Context, limit int) ([]store.UserScore, error) {
	return s.rank(ctx, limit, store.Tx.RankCollectors)
}

// ActiveCollectorRankings orders users by a weighted count of their
// interests, ownerships and connections.
func (s *Service) ActiveCollectorRankings(
	ctx context.Context,
	limit int,
) ([]store.UserScore, error) {
	return s.rank(ctx, limit, store.Tx.RankActiveCollectors)
}

func (s *Service) rank(
	ctx context.Context,
	limit int,
	rank func(store.Tx, context.Context, int) ([]store.UserScore, error),
) ([]store.UserScore, error) {
	if err := CheckLimit(limit); err != nil {
		return nil, err
	}

	var ranked []store.UserScore
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		ranked, err = rank(tx, ctx, limit)
		return err
	})
	if err != nil {
		return nil, err
	}

	return ranked, nil
}

func (s *Service) Rankings(ctx context.Context, limit int) ([]store.User, error) {
	if err := CheckLimit(limit); err != nil {
		return nil, err
	}

	var users []store.User
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		users, err = tx.ListUsersByReputation(ctx, limit)
		return err
	})
	if err != nil {
		return nil, err
	}

	return users, nil
}

// CheckLimit bounds the size of every ranking.
func CheckLimit(limit int) error {
	if limit < 1 || limit > MaxRankingLimit {
		return ErrInvalidLimit
	}
	return nil
}

func loadProfile(ctx context.Context, tx store.Tx, u *store.User) (*Profile, error) {
	owned, err := tx.ListOwnershipsByUser(ctx, u.ID)
	if err != nil {
		return nil, err
	}

	counts, err := tx.CountConnections(ctx, u.ID)
	if err != nil {
		return nil, err
	}

	return &Profile{
		User:       *u,
		FlagsOwned: len(owned),
		Followers:  counts.Followers,
		Following:  counts.Following,
	}, nil
}

func notFound(err error) error {
	if errors.Is(err, core.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}

func targetNotFound(err error) error {
	if errors.Is(err, core.ErrNotFound) {
		return ErrTargetNotFound
	}
	return err
}
