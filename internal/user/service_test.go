// AngelaMos | 2026
// service_test.go

package user_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/flagnft-backend/internal/clock"
	"github.com/carterperez-dev/flagnft-backend/internal/core"
	"github.com/carterperez-dev/flagnft-backend/internal/store"
	"github.com/carterperez-dev/flagnft-backend/internal/user"
)

const (
	alice = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	bob   = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	carol = "0xcccccccccccccccccccccccccccccccccccccccc"
)

func newStore() store.Store {
	return store.NewMemory(clock.NewFake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)))
}

// seedOwner gives wallet the first NFT of a fresh flag and the matching
// reputation.
func seedOwner(t *testing.T, st store.Store, wallet string, rep int) {
	t.Helper()

	err := st.Update(context.Background(), func(tx store.Tx) error {
		u, err := tx.EnsureUser(context.Background(), wallet)
		if err != nil {
			return err
		}

		f := &store.Flag{
			MunicipalityID: 1,
			Name:           "Town hall",
			LocationType:   "town_hall",
			Category:       store.CategoryStandard,
			NFTsRequired:   1,
			Price:          decimal.RequireFromString("0.01"),
			FirstStatus:    store.FirstClaimed,
			SecondStatus:   store.SecondAvailable,
		}
		if err := tx.CreateFlag(context.Background(), f); err != nil {
			return err
		}

		if err := tx.CreateOwnership(context.Background(), &store.FlagOwnership{
			UserID: u.ID,
			FlagID: f.ID,
			Kind:   store.OwnershipFirst,
		}); err != nil {
			return err
		}

		return tx.AddReputation(context.Background(), u.ID, rep)
	})
	require.NoError(t, err)
}

func ptr(s string) *string { return &s }

func TestRegister(t *testing.T) {
	ctx := context.Background()
	svc := user.NewService(newStore())

	p, err := svc.Register(ctx, alice, nil)
	require.NoError(t, err)
	assert.Equal(t, alice, p.User.WalletAddress)
	assert.Nil(t, p.User.Username)
	assert.Zero(t, p.User.ReputationScore)

	again, err := svc.Register(ctx, alice, ptr("alice"))
	require.NoError(t, err)
	assert.Equal(t, p.User.ID, again.User.ID)
	require.NotNil(t, again.User.Username)
	assert.Equal(t, "alice", *again.User.Username)
}

func TestGetAndUpdate(t *testing.T) {
	ctx := context.Background()
	st := newStore()
	svc := user.NewService(st)

	_, err := svc.Get(ctx, alice)
	assert.True(t, errors.Is(err, core.ErrNotFound))

	_, err = svc.Update(ctx, alice, user.UpdateUserRequest{Username: ptr("x")})
	assert.True(t, errors.Is(err, core.ErrNotFound))

	seedOwner(t, st, alice, 10)

	p, err := svc.Get(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 1, p.FlagsOwned)
	assert.Equal(t, 10, p.User.ReputationScore)

	p, err = svc.Update(ctx, alice, user.UpdateUserRequest{Username: ptr("flagger")})
	require.NoError(t, err)
	require.NotNil(t, p.User.Username)
	assert.Equal(t, "flagger", *p.User.Username)

	p, err = svc.Update(ctx, alice, user.UpdateUserRequest{})
	require.NoError(t, err)
	assert.Equal(t, "flagger", *p.User.Username)
}

func TestOwnerships(t *testing.T) {
	ctx := context.Background()
	st := newStore()
	svc := user.NewService(st)

	seedOwner(t, st, bob, 10)
	seedOwner(t, st, bob, 10)

	owned, err := svc.Ownerships(ctx, bob)
	require.NoError(t, err)
	require.Len(t, owned, 2)
	assert.Greater(t, owned[0].ID, owned[1].ID, "newest first")

	_, err = svc.Ownerships(ctx, carol)
	assert.True(t, errors.Is(err, core.ErrNotFound))
}

func TestRankings(t *testing.T) {
	ctx := context.Background()
	st := newStore()
	svc := user.NewService(st)

	seedOwner(t, st, alice, 10)
	seedOwner(t, st, bob, 35)
	seedOwner(t, st, carol, 10)

	users, err := svc.Rankings(ctx, 10)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, bob, users[0].WalletAddress)
	assert.Equal(t, alice, users[1].WalletAddress, "ties keep registration order")
	assert.Equal(t, carol, users[2].WalletAddress)

	users, err = svc.Rankings(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, users, 1)

	for _, limit := range []int{0, -1, user.MaxRankingLimit + 1} {
		_, err := svc.Rankings(ctx, limit)
		assert.True(t, errors.Is(err, core.ErrInvalidInput), "limit %d", limit)
	}
}

func TestFollowGraph(t *testing.T) {
	ctx := context.Background()
	svc := user.NewService(newStore())

	for _, w := range []string{alice, bob, carol} {
		_, err := svc.Register(ctx, w, nil)
		require.NoError(t, err)
	}

	follow, err := svc.Follow(ctx, alice, bob)
	require.NoError(t, err)
	assert.Equal(t, alice, follow.Follower.WalletAddress)
	assert.Equal(t, bob, follow.Following.WalletAddress)

	_, err = svc.Follow(ctx, carol, bob)
	require.NoError(t, err)

	_, err = svc.Follow(ctx, alice, bob)
	assert.ErrorIs(t, err, user.ErrAlreadyFollowing)

	_, err = svc.Follow(ctx, alice, alice)
	assert.ErrorIs(t, err, user.ErrSelfFollow)

	followers, err := svc.Followers(ctx, bob)
	require.NoError(t, err)
	require.Len(t, followers, 2)
	assert.Equal(t, alice, followers[0].WalletAddress)
	assert.Equal(t, carol, followers[1].WalletAddress)

	following, err := svc.Following(ctx, alice)
	require.NoError(t, err)
	require.Len(t, following, 1)
	assert.Equal(t, bob, following[0].WalletAddress)

	p, err := svc.Get(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Followers)
	assert.Equal(t, 0, p.Following)

	require.NoError(t, svc.Unfollow(ctx, alice, bob))
	assert.ErrorIs(t, svc.Unfollow(ctx, alice, bob), user.ErrConnectionNotFound)

	p, err = svc.Get(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Following)
}

func TestFollowUnknownUsers(t *testing.T) {
	ctx := context.Background()
	svc := user.NewService(newStore())

	_, err := svc.Register(ctx, alice, nil)
	require.NoError(t, err)

	_, err = svc.Follow(ctx, bob, alice)
	assert.ErrorIs(t, err, user.ErrUserNotFound)

	_, err = svc.Follow(ctx, alice, bob)
	assert.ErrorIs(t, err, user.ErrTargetNotFound)
	assert.ErrorIs(t, err, core.ErrNotFound)

	err = svc.Unfollow(ctx, alice, bob)
	assert.ErrorIs(t, err, user.ErrTargetNotFound)

	_, err = svc.Followers(ctx, carol)
	assert.ErrorIs(t, err, user.ErrUserNotFound)

	_, err = svc.Interests(ctx, carol)
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}

func TestCollectorRankings(t *testing.T) {
	ctx := context.Background()
	st := newStore()
	svc := user.NewService(st)

	seedOwner(t, st, alice, 0)
	seedOwner(t, st, alice, 0)
	seedOwner(t, st, bob, 0)
	_, err := svc.Register(ctx, carol, nil)
	require.NoError(t, err)

	collectors, err := svc.CollectorRankings(ctx, 10)
	require.NoError(t, err)
	require.Len(t, collectors, 2)
	assert.Equal(t, alice, collectors[0].WalletAddress)
	assert.Equal(t, 2, collectors[0].Score)
	assert.Equal(t, bob, collectors[1].WalletAddress)
	assert.Equal(t, 1, collectors[1].Score)

	// carol holds nothing and ranks on followers alone
	_, err = svc.Follow(ctx, alice, carol)
	require.NoError(t, err)
	_, err = svc.Follow(ctx, bob, carol)
	require.NoError(t, err)

	active, err := svc.ActiveCollectorRankings(ctx, 10)
	require.NoError(t, err)
	require.Len(t, active, 3)
	assert.Equal(t, alice, active[0].WalletAddress)
	assert.Equal(t, 11, active[0].Score)
	assert.Equal(t, bob, active[1].WalletAddress)
	assert.Equal(t, 6, active[1].Score)
	assert.Equal(t, carol, active[2].WalletAddress)
	assert.Equal(t, 4, active[2].Score)

	_, err = svc.ActiveCollectorRankings(ctx, 0)
	assert.ErrorIs(t, err, user.ErrInvalidLimit)
	_, err = svc.CollectorRankings(ctx, user.MaxRankingLimit+1)
	assert.ErrorIs(t, err, user.ErrInvalidLimit)
}

func TestInterests(t *testing.T) {
	ctx := context.Background()
	st := newStore()
	svc := user.NewService(st)

	seedOwner(t, st, alice, 0)

	err := st.Update(ctx, func(tx store.Tx) error {
		u, err := tx.GetUserByWallet(ctx, alice)
		if err != nil {
			return err
		}
		flags, err := tx.ListFlags(ctx, store.FlagFilter{})
		if err != nil {
			return err
		}
		return tx.CreateInterest(ctx, &store.FlagInterest{UserID: u.ID, FlagID: flags[0].ID})
	})
	require.NoError(t, err)

	interests, err := svc.Interests(ctx, alice)
	require.NoError(t, err)
	require.Len(t, interests, 1)
}
