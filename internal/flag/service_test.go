// AngelaMos | 2026
// service_test.go

package flag

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/flagnft-backend/internal/clock"
	"github.com/carterperez-dev/flagnft-backend/internal/core"
	"github.com/carterperez-dev/flagnft-backend/internal/store"
)

const (
	alice = "0x1111111111111111111111111111111111111111"
	bob   = "0x2222222222222222222222222222222222222222"
	carol = "0x3333333333333333333333333333333333333333"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fixedPrices map[string]decimal.Decimal

func (p fixedPrices) DefaultPrice(category string) (decimal.Decimal, error) {
	d, ok := p[category]
	if !ok {
		return decimal.Zero, errors.New("no price")
	}
	return d, nil
}

type fixture struct {
	store   *store.Memory
	service *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st := store.NewMemory(clock.NewFake(testNow))
	prices := fixedPrices{
		store.CategoryStandard: decimal.RequireFromString("0.01"),
		store.CategoryPlus:     decimal.RequireFromString("0.02"),
		store.CategoryPremium:  decimal.RequireFromString("0.05"),
	}
	svc := NewService(st, prices,
		store.RetryPolicy{Attempts: 3, InitialInterval: time.Millisecond},
		slog.New(slog.DiscardHandler))

	return &fixture{store: st, service: svc}
}

func (f *fixture) createFlag(t *testing.T) *store.Flag {
	t.Helper()

	fl, err := f.service.CreateFlag(context.Background(), CreateInput{
		MunicipalityID: 7,
		Name:           "Flag of Villa Alegre",
		LocationType:   "town",
		Category:       store.CategoryPlus,
	})
	require.NoError(t, err)
	return fl
}

func (f *fixture) reputation(t *testing.T, wallet string) int {
	t.Helper()

	var score int
	err := f.store.View(context.Background(), func(tx store.Tx) error {
		u, err := tx.GetUserByWallet(context.Background(), wallet)
		if err != nil {
			return err
		}
		score = u.ReputationScore
		return nil
	})
	require.NoError(t, err)
	return score
}

func TestCreateFlagDefaults(t *testing.T) {
	f := newFixture(t)

	fl := f.createFlag(t)

	assert.Equal(t, "0.02", fl.Price.String())
	assert.Equal(t, 1, fl.NFTsRequired)
	assert.Equal(t, store.FirstAvailable, fl.FirstStatus)
	assert.Equal(t, store.SecondAvailable, fl.SecondStatus)
	assert.False(t, fl.PairComplete)
}

func TestCreateFlagValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   CreateInput
		want error
	}{
		{
			name: "unknown category",
			in:   CreateInput{Name: "x", Category: "gold"},
			want: ErrInvalidCategory,
		},
		{
			name: "too many nfts",
			in:   CreateInput{Name: "x", NFTsRequired: 11},
			want: ErrInvalidNFTs,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.CreateFlag(ctx, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("negative price", func(t *testing.T) {
		_, err := f.service.CreateFlag(ctx, CreateInput{
			Name:  "x",
			Price: decimal.NewNullDecimal(decimal.RequireFromString("-1")),
		})
		assert.ErrorIs(t, err, core.ErrInvalidInput)
	})

	t.Run("explicit price wins", func(t *testing.T) {
		fl, err := f.service.CreateFlag(ctx, CreateInput{
			Name:  "x",
			Price: decimal.NewNullDecimal(decimal.RequireFromString("1.5")),
		})
		require.NoError(t, err)
		assert.Equal(t, "1.50000000", core.FormatMoney(fl.Price))
	})
}

func TestPairLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	fl := f.createFlag(t)

	_, err := f.service.PurchaseSecond(ctx, fl.ID, bob, nil)
	assert.ErrorIs(t, err, ErrFirstNotClaimed)

	interest, err := f.service.RegisterInterest(ctx, fl.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, alice, interest.User.WalletAddress)
	assert.Equal(t, 0, f.reputation(t, alice))

	hash := "0x" + "ab" + "00000000000000000000000000000000000000000000000000000000000000"
	first, err := f.service.ClaimFirst(ctx, fl.ID, alice, &hash)
	require.NoError(t, err)
	assert.Equal(t, store.FirstClaimed, first.Flag.FirstStatus)
	assert.False(t, first.Flag.PairComplete)
	assert.Equal(t, store.OwnershipFirst, first.Ownership.Kind)
	assert.Equal(t, 10, first.Owner.ReputationScore)

	_, err = f.service.ClaimFirst(ctx, fl.ID, carol, nil)
	assert.ErrorIs(t, err, ErrFirstAlreadyClaimed)

	second, err := f.service.PurchaseSecond(ctx, fl.ID, bob, nil)
	require.NoError(t, err)
	assert.Equal(t, store.SecondPurchased, second.Flag.SecondStatus)
	assert.True(t, second.Flag.PairComplete)
	assert.Equal(t, 25, f.reputation(t, bob))

	_, err = f.service.PurchaseSecond(ctx, fl.ID, carol, nil)
	assert.ErrorIs(t, err, ErrSecondAlreadyPurchased)

	detail, err := f.service.Get(ctx, fl.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, detail.InterestCount)
	require.Len(t, detail.Ownerships, 2)
	assert.Equal(t, alice, detail.Ownerships[0].User.WalletAddress)
	assert.Equal(t, bob, detail.Ownerships[1].User.WalletAddress)
	assert.Equal(t, 10, f.reputation(t, alice))
}

func TestSameWalletMayHoldBothNFTs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	fl := f.createFlag(t)

	_, err := f.service.ClaimFirst(ctx, fl.ID, alice, nil)
	require.NoError(t, err)
	second, err := f.service.PurchaseSecond(ctx, fl.ID, alice, nil)
	require.NoError(t, err)

	assert.True(t, second.Flag.PairComplete)
	assert.Equal(t, 35, second.Owner.ReputationScore)
}

func TestRegisterInterestTwice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	fl := f.createFlag(t)

	_, err := f.service.RegisterInterest(ctx, fl.ID, alice)
	require.NoError(t, err)

	_, err = f.service.RegisterInterest(ctx, fl.ID, alice)
	assert.ErrorIs(t, err, ErrAlreadyInterested)
	assert.ErrorIs(t, err, core.ErrConflictState)

	views, err := f.service.ListInterests(ctx, fl.ID)
	require.NoError(t, err)
	assert.Len(t, views, 1)
}

func TestUnknownFlag(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.RegisterInterest(ctx, 999, alice)
	assert.ErrorIs(t, err, ErrFlagNotFound)

	_, err = f.service.ClaimFirst(ctx, 999, alice, nil)
	assert.ErrorIs(t, err, ErrFlagNotFound)

	_, err = f.service.Get(ctx, 999)
	assert.ErrorIs(t, err, ErrFlagNotFound)

	_, err = f.service.ListOwnerships(ctx, 999)
	assert.ErrorIs(t, err, ErrFlagNotFound)
}

func TestRollbackPair(t *testing.T) {
	ctx := context.Background()

	t.Run("reopens an incomplete pair", func(t *testing.T) {
		f := newFixture(t)
		fl := f.createFlag(t)

		_, err := f.service.ClaimFirst(ctx, fl.ID, alice, nil)
		require.NoError(t, err)

		rb, err := f.service.RollbackPair(ctx, fl.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, rb.OwnershipsRemoved)
		assert.Equal(t, store.FirstAvailable, rb.Flag.FirstStatus)

		// earned reputation stays
		assert.Equal(t, 10, f.reputation(t, alice))

		_, err = f.service.ClaimFirst(ctx, fl.ID, bob, nil)
		assert.NoError(t, err)
	})

	t.Run("refuses a complete pair", func(t *testing.T) {
		f := newFixture(t)
		fl := f.createFlag(t)

		_, err := f.service.ClaimFirst(ctx, fl.ID, alice, nil)
		require.NoError(t, err)
		_, err = f.service.PurchaseSecond(ctx, fl.ID, bob, nil)
		require.NoError(t, err)

		_, err = f.service.RollbackPair(ctx, fl.ID)
		assert.ErrorIs(t, err, ErrPairComplete)
	})

	t.Run("refuses while an auction is active", func(t *testing.T) {
		f := newFixture(t)
		fl := f.createFlag(t)

		claim, err := f.service.ClaimFirst(ctx, fl.ID, alice, nil)
		require.NoError(t, err)

		err = f.store.Update(ctx, func(tx store.Tx) error {
			return tx.CreateAuction(ctx, &store.Auction{
				FlagID:        fl.ID,
				SellerID:      claim.Owner.ID,
				StartingPrice: decimal.RequireFromString("1"),
				MinPrice:      decimal.RequireFromString("1"),
				Status:        store.AuctionActive,
				EndsAt:        testNow.Add(time.Hour),
			})
		})
		require.NoError(t, err)

		_, err = f.service.RollbackPair(ctx, fl.ID)
		assert.ErrorIs(t, err, ErrAuctionActive)
	})
}

func TestListFlags(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	open := f.createFlag(t)
	done := f.createFlag(t)
	_, err := f.service.ClaimFirst(ctx, done.ID, alice, nil)
	require.NoError(t, err)
	_, err = f.service.PurchaseSecond(ctx, done.ID, bob, nil)
	require.NoError(t, err)

	all, err := f.service.List(ctx, store.FlagFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	available, err := f.service.List(ctx, store.FlagFilter{OpenPairsOnly: true})
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, open.ID, available[0].ID)

	_, err = f.service.List(ctx, store.FlagFilter{Category: "gold"})
	assert.ErrorIs(t, err, ErrInvalidCategory)
}

func TestConcurrentClaimFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	fl := f.createFlag(t)

	wallets := []string{alice, bob}
	errs := make([]error, len(wallets))

	var wg sync.WaitGroup
	for i, w := range wallets {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.service.ClaimFirst(ctx, fl.ID, w, nil)
		}()
	}
	wg.Wait()

	var won, lost int
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, ErrFirstAlreadyClaimed):
			lost++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
		assert.NotErrorIs(t, err, core.ErrConflict)
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, 1, lost)

	owners, err := f.service.ListOwnerships(ctx, fl.ID)
	require.NoError(t, err)
	assert.Len(t, owners, 1)
}

func TestUpdateFlag(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	fl := f.createFlag(t)

	_, err := f.service.ClaimFirst(ctx, fl.ID, alice, nil)
	require.NoError(t, err)

	name := "Flag of Santa Rita"
	nfts := 4
	updated, err := f.service.UpdateFlag(ctx, fl.ID, UpdateInput{
		Name:         &name,
		NFTsRequired: &nfts,
		Price:        decimal.NewNullDecimal(decimal.RequireFromString("0.3")),
	})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.Equal(t, 4, updated.NFTsRequired)
	assert.Equal(t, "town", updated.LocationType)
	assert.Equal(t, store.FirstClaimed, updated.FirstStatus)

	detail, err := f.service.Get(ctx, fl.ID)
	require.NoError(t, err)
	assert.Equal(t, name, detail.Flag.Name)
	assert.Equal(t, "0.30000000", core.FormatMoney(detail.Flag.Price))

	gold := "gold"
	_, err = f.service.UpdateFlag(ctx, fl.ID, UpdateInput{Category: &gold})
	assert.ErrorIs(t, err, ErrInvalidCategory)

	zero := 0
	_, err = f.service.UpdateFlag(ctx, fl.ID, UpdateInput{NFTsRequired: &zero})
	assert.ErrorIs(t, err, ErrInvalidNFTs)

	_, err = f.service.UpdateFlag(ctx, fl.ID, UpdateInput{
		Price: decimal.NewNullDecimal(decimal.RequireFromString("10000000000")),
	})
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = f.service.UpdateFlag(ctx, 999, UpdateInput{Name: &name})
	assert.ErrorIs(t, err, ErrFlagNotFound)
}

func TestPopular(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.createFlag(t)
	b := f.createFlag(t)
	c := f.createFlag(t)

	for _, w := range []string{alice, bob} {
		_, err := f.service.RegisterInterest(ctx, c.ID, w)
		require.NoError(t, err)
	}
	_, err := f.service.RegisterInterest(ctx, b.ID, carol)
	require.NoError(t, err)
	_, err = f.service.ClaimFirst(ctx, b.ID, carol, nil)
	require.NoError(t, err)

	ranked, err := f.service.Popular(ctx, 10)
	require.NoError(t, err)
	require.Len(t, ranked, 3)
	assert.Equal(t, c.ID, ranked[0].Flag.ID)
	assert.Equal(t, 2, ranked[0].InterestCount)
	assert.Len(t, ranked[0].Interests, 2)
	assert.Equal(t, b.ID, ranked[1].Flag.ID)
	assert.Len(t, ranked[1].Ownerships, 1)
	assert.Equal(t, a.ID, ranked[2].Flag.ID)
	assert.Equal(t, 0, ranked[2].InterestCount)

	top, err := f.service.Popular(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, top, 1)

	_, err = f.service.Popular(ctx, 101)
	assert.Error(t, err)
}
