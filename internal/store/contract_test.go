// AngelaMos | 2026
// contract_test.go

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/flagnft-backend/internal/core"
)

const (
	walletA = "0x00000000000000000000000000000000000000aa"
	walletB = "0x00000000000000000000000000000000000000bb"
)

var contractNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// runStoreContract exercises the guarantees every Store implementation
// must give the services.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("ensure user is idempotent", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		var first, second *User
		require.NoError(t, s.Update(ctx, func(tx Tx) error {
			var err error
			first, err = tx.EnsureUser(ctx, walletA)
			return err
		}))
		require.NoError(t, s.Update(ctx, func(tx Tx) error {
			var err error
			second, err = tx.EnsureUser(ctx, walletA)
			return err
		}))

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, 0, second.ReputationScore)
	})

	t.Run("failed update leaves no trace", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		boom := errors.New("boom")

		err := s.Update(ctx, func(tx Tx) error {
			if _, err := tx.EnsureUser(ctx, walletA); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)

		err = s.View(ctx, func(tx Tx) error {
			_, err := tx.GetUserByWallet(ctx, walletA)
			return err
		})
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("interest is unique per user and flag", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		user, flag := seedUserAndFlag(t, s)

		require.NoError(t, s.Update(ctx, func(tx Tx) error {
			return tx.CreateInterest(ctx, &FlagInterest{UserID: user.ID, FlagID: flag.ID})
		}))

		err := s.Update(ctx, func(tx Tx) error {
			return tx.CreateInterest(ctx, &FlagInterest{UserID: user.ID, FlagID: flag.ID})
		})
		assert.ErrorIs(t, err, core.ErrDuplicateKey)

		require.NoError(t, s.View(ctx, func(tx Tx) error {
			n, err := tx.CountInterests(ctx, flag.ID)
			assert.Equal(t, 1, n)
			return err
		}))
	})

	t.Run("ownership kind is unique per flag", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		user, flag := seedUserAndFlag(t, s)

		require.NoError(t, s.Update(ctx, func(tx Tx) error {
			return tx.CreateOwnership(ctx, &FlagOwnership{
				UserID: user.ID, FlagID: flag.ID, Kind: OwnershipFirst,
			})
		}))

		err := s.Update(ctx, func(tx Tx) error {
			other, err := tx.EnsureUser(ctx, walletB)
			if err != nil {
				return err
			}
			return tx.CreateOwnership(ctx, &FlagOwnership{
				UserID: other.ID, FlagID: flag.ID, Kind: OwnershipFirst,
			})
		})
		assert.ErrorIs(t, err, core.ErrDuplicateKey)

		require.NoError(t, s.Update(ctx, func(tx Tx) error {
			owns, err := tx.HasOwnership(ctx, flag.ID, user.ID)
			require.NoError(t, err)
			assert.True(t, owns)

			n, err := tx.DeleteOwnerships(ctx, flag.ID)
			assert.Equal(t, 1, n)
			return err
		}))
	})

	t.Run("one active auction per flag", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		user, flag := seedUserAndFlag(t, s)

		first := newTestAuction(user.ID, flag.ID)
		require.NoError(t, s.Update(ctx, func(tx Tx) error {
			return tx.CreateAuction(ctx, first)
		}))

		err := s.Update(ctx, func(tx Tx) error {
			return tx.CreateAuction(ctx, newTestAuction(user.ID, flag.ID))
		})
		assert.ErrorIs(t, err, core.ErrActiveAuctionExists)

		require.NoError(t, s.Update(ctx, func(tx Tx) error {
			first.Status = AuctionCancelled
			first.UpdatedAt = contractNow
			ok, err := tx.FinishAuction(ctx, first)
			assert.True(t, ok)
			return err
		}))

		require.NoError(t, s.Update(ctx, func(tx Tx) error {
			return tx.CreateAuction(ctx, newTestAuction(user.ID, flag.ID))
		}))
	})

	t.Run("highest bid swap is compare and set", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		user, flag := seedUserAndFlag(t, s)

		auction := newTestAuction(user.ID, flag.ID)
		require.NoError(t, s.Update(ctx, func(tx Tx) error {
			return tx.CreateAuction(ctx, auction)
		}))

		bid := &Bid{
			AuctionID:      auction.ID,
			BidderID:       user.ID,
			Amount:         decimal.RequireFromString("0.2"),
			BidderCategory: CategoryPlus,
			CreatedAt:      contractNow,
		}

		require.NoError(t, s.Update(ctx, func(tx Tx) error {
			ok, err := tx.SwapHighestBid(ctx, auction.ID, decimal.NullDecimal{}, bid)
			assert.True(t, ok)
			return err
		}))

		require.NoError(t, s.Update(ctx, func(tx Tx) error {
			ok, err := tx.SwapHighestBid(ctx, auction.ID, decimal.NullDecimal{}, bid)
			assert.False(t, ok, "stale previous bid must not swap")
			return err
		}))

		require.NoError(t, s.View(ctx, func(tx Tx) error {
			got, err := tx.GetAuction(ctx, auction.ID)
			require.NoError(t, err)
			require.True(t, got.CurrentHighestBid.Valid)
			assert.True(t, got.CurrentHighestBid.Decimal.Equal(bid.Amount))
			require.NotNil(t, got.HighestBidderID)
			assert.Equal(t, user.ID, *got.HighestBidderID)
			require.NotNil(t, got.WinnerCategory)
			assert.Equal(t, CategoryPlus, *got.WinnerCategory)
			return nil
		}))
	})

	t.Run("finish applies once", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		user, flag := seedUserAndFlag(t, s)

		auction := newTestAuction(user.ID, flag.ID)
		require.NoError(t, s.Update(ctx, func(tx Tx) error {
			return tx.CreateAuction(ctx, auction)
		}))

		auction.Status = AuctionClosed
		auction.UpdatedAt = contractNow
		for i, want := range []bool{true, false} {
			require.NoError(t, s.Update(ctx, func(tx Tx) error {
				ok, err := tx.FinishAuction(ctx, auction)
				assert.Equal(t, want, ok, "attempt %d", i)
				return err
			}))
		}
	})

	t.Run("rankings order by reputation then id", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Update(ctx, func(tx Tx) error {
			a, err := tx.EnsureUser(ctx, walletA)
			if err != nil {
				return err
			}
			b, err := tx.EnsureUser(ctx, walletB)
			if err != nil {
				return err
			}
			if err := tx.AddReputation(ctx, a.ID, 10); err != nil {
				return err
			}
			return tx.AddReputation(ctx, b.ID, 25)
		}))

		require.NoError(t, s.View(ctx, func(tx Tx) error {
			users, err := tx.ListUsersByReputation(ctx, 10)
			require.NoError(t, err)
			require.Len(t, users, 2)
			assert.Equal(t, walletB, users[0].WalletAddress)
			assert.Equal(t, 25, users[0].ReputationScore)
			assert.Equal(t, walletA, users[1].WalletAddress)
			return nil
		}))
	})

	t.Run("follow edge is unique and directed", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		var a, b *User
		require.NoError(t, s.Update(ctx, func(tx Tx) error {
			var err error
			if a, err = tx.EnsureUser(ctx, walletA); err != nil {
				return err
			}
			if b, err = tx.EnsureUser(ctx, walletB); err != nil {
				return err
			}
			return tx.CreateConnection(ctx, &Connection{FollowerID: a.ID, FollowingID: b.ID})
		}))

		err := s.Update(ctx, func(tx Tx) error {
			return tx.CreateConnection(ctx, &Connection{FollowerID: a.ID, FollowingID: b.ID})
		})
		assert.ErrorIs(t, err, core.ErrDuplicateKey)

		require.NoError(t, s.View(ctx, func(tx Tx) error {
			followers, err := tx.ListFollowers(ctx, b.ID)
			require.NoError(t, err)
			require.Len(t, followers, 1)
			assert.Equal(t, walletA, followers[0].WalletAddress)

			following, err := tx.ListFollowing(ctx, b.ID)
			require.NoError(t, err)
			assert.Empty(t, following)

			counts, err := tx.CountConnections(ctx, a.ID)
			assert.Equal(t, ConnectionCounts{Followers: 0, Following: 1}, counts)
			return err
		}))

		require.NoError(t, s.Update(ctx, func(tx Tx) error {
			removed, err := tx.DeleteConnection(ctx, b.ID, a.ID)
			require.NoError(t, err)
			assert.False(t, removed)

			removed, err = tx.DeleteConnection(ctx, a.ID, b.ID)
			assert.True(t, removed)
			return err
		}))
	})

	t.Run("activity rankings weigh every relation", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		user, flag := seedUserAndFlag(t, s)

		var other *User
		require.NoError(t, s.Update(ctx, func(tx Tx) error {
			var err error
			if other, err = tx.EnsureUser(ctx, walletB); err != nil {
				return err
			}
			if err := tx.CreateInterest(ctx, &FlagInterest{UserID: user.ID, FlagID: flag.ID}); err != nil {
				return err
			}
			if err := tx.CreateOwnership(ctx, &FlagOwnership{
				UserID: user.ID, FlagID: flag.ID, Kind: OwnershipFirst,
			}); err != nil {
				return err
			}
			return tx.CreateConnection(ctx, &Connection{FollowerID: user.ID, FollowingID: other.ID})
		}))

		require.NoError(t, s.View(ctx, func(tx Tx) error {
			collectors, err := tx.RankCollectors(ctx, 10)
			require.NoError(t, err)
			require.Len(t, collectors, 1)
			assert.Equal(t, walletA, collectors[0].WalletAddress)
			assert.Equal(t, 1, collectors[0].Score)

			active, err := tx.RankActiveCollectors(ctx, 10)
			require.NoError(t, err)
			require.Len(t, active, 2)
			assert.Equal(t, walletA, active[0].WalletAddress)
			assert.Equal(t, 7, active[0].Score)
			assert.Equal(t, walletB, active[1].WalletAddress)
			assert.Equal(t, 2, active[1].Score)

			flags, err := tx.RankFlagsByInterest(ctx, 10)
			require.NoError(t, err)
			require.Len(t, flags, 1)
			assert.Equal(t, flag.ID, flags[0].ID)
			assert.Equal(t, 1, flags[0].Score)

			interests, err := tx.ListInterestsByUser(ctx, user.ID)
			assert.Len(t, interests, 1)
			return err
		}))
	})

	t.Run("update flag leaves pair columns alone", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		_, flag := seedUserAndFlag(t, s)

		edited := *flag
		edited.Name = "Harbour"
		edited.Price = decimal.RequireFromString("0.05")
		edited.FirstStatus = FirstClaimed

		require.NoError(t, s.Update(ctx, func(tx Tx) error {
			return tx.UpdateFlag(ctx, &edited)
		}))

		require.NoError(t, s.View(ctx, func(tx Tx) error {
			got, err := tx.GetFlag(ctx, flag.ID)
			require.NoError(t, err)
			assert.Equal(t, "Harbour", got.Name)
			assert.True(t, got.Price.Equal(decimal.RequireFromString("0.05")))
			assert.Equal(t, FirstAvailable, got.FirstStatus)
			return nil
		}))

		missing := edited
		missing.ID = 9999
		err := s.Update(ctx, func(tx Tx) error {
			return tx.UpdateFlag(ctx, &missing)
		})
		assert.ErrorIs(t, err, core.ErrNotFound)
	})
}

func seedUserAndFlag(t *testing.T, s Store) (*User, *Flag) {
	t.Helper()
	ctx := context.Background()

	var user *User
	flag := &Flag{
		MunicipalityID: 7,
		Name:           "Fire Station",
		LocationType:   "fire station",
		Category:       CategoryStandard,
		NFTsRequired:   1,
		Price:          decimal.RequireFromString("0.01"),
		FirstStatus:    FirstAvailable,
		SecondStatus:   SecondAvailable,
	}

	require.NoError(t, s.Update(ctx, func(tx Tx) error {
		var err error
		user, err = tx.EnsureUser(ctx, walletA)
		if err != nil {
			return err
		}
		return tx.CreateFlag(ctx, flag)
	}))

	return user, flag
}

func newTestAuction(sellerID, flagID int64) *Auction {
	return &Auction{
		FlagID:        flagID,
		SellerID:      sellerID,
		StartingPrice: decimal.RequireFromString("0.1"),
		MinPrice:      decimal.RequireFromString("0.1"),
		Status:        AuctionActive,
		EndsAt:        contractNow.Add(24 * time.Hour),
		CreatedAt:     contractNow,
	}
}
