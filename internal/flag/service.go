// AngelaMos | 2026
// service.go

package flag

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/flagnft-backend/internal/core"
	"github.com/carterperez-dev/flagnft-backend/internal/reputation"
	"github.com/carterperez-dev/flagnft-backend/internal/store"
	"github.com/carterperez-dev/flagnft-backend/internal/user"
)

const (
	tracerName = "flagnft/flag"

	MinNFTsRequired = 1
	MaxNFTsRequired = 10
)

// PriceBook supplies the price a new flag gets when the creator names none.
type PriceBook interface {
	DefaultPrice(category string) (decimal.Decimal, error)
}

type Service struct {
	store  store.Store
	prices PriceBook
	retry  store.RetryPolicy
	logger *slog.Logger
}

func NewService(
	st store.Store,
	prices PriceBook,
	retry store.RetryPolicy,
	logger *slog.Logger,
) *Service {
	return &Service{
		store:  st,
		prices: prices,
		retry:  retry,
		logger: logger,
	}
}

type CreateInput struct {
	MunicipalityID   int64
	Name             string
	LocationType     string
	Category         string
	NFTsRequired     int
	Price            decimal.NullDecimal
	ImageIPFSHash    *string
	MetadataIPFSHash *string
}

// UpdateInput carries the descriptive columns an admin may change. Nil and
// invalid fields are left as they are.
type UpdateInput struct {
	Name             *string
	LocationType     *string
	Category         *string
	NFTsRequired     *int
	Price            decimal.NullDecimal
	ImageIPFSHash    *string
	MetadataIPFSHash *string
}

type InterestView struct {
	Interest store.FlagInterest
	User     store.User
}

type OwnershipView struct {
	Ownership store.FlagOwnership
	User      store.User
}

// Detail is a flag with everyone who has shown interest in it or owns
// one of its NFTs.
type Detail struct {
	Flag          store.Flag
	InterestCount int
	Interests     []InterestView
	Ownerships    []OwnershipView
}

// Acquisition is the outcome of a claim or purchase.
type Acquisition struct {
	Flag      store.Flag
	Ownership store.FlagOwnership
	Owner     store.User
}

type Rollback struct {
	Flag              store.Flag
	OwnershipsRemoved int
}

func (s *Service) RegisterInterest(
	ctx context.Context,
	flagID int64,
	wallet string,
) (_ *InterestView, err error) {
	ctx, span := core.StartSpan(ctx, tracerName, "flag.RegisterInterest",
		attribute.Int64("flag.id", flagID))
	defer func() { core.EndSpan(span, err) }()

	var view *InterestView
	err = s.update(ctx, func(tx store.Tx) error {
		if _, err := tx.GetFlag(ctx, flagID); err != nil {
			return notFound(err)
		}

		u, err := tx.EnsureUser(ctx, wallet)
		if err != nil {
			return err
		}

		in := &store.FlagInterest{UserID: u.ID, FlagID: flagID}
		if err := tx.CreateInterest(ctx, in); err != nil {
			return onDuplicate(err, ErrAlreadyInterested)
		}

		if err := reputation.Apply(ctx, tx, u.ID, reputation.InterestRegistered); err != nil {
			return err
		}

		view = &InterestView{Interest: *in, User: *u}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return view, nil
}

// ClaimFirst records wallet as the holder of the flag's first NFT.
func (s *Service) ClaimFirst(
	ctx context.Context,
	flagID int64,
	wallet string,
	txHash *string,
) (_ *Acquisition, err error) {
	ctx, span := core.StartSpan(ctx, tracerName, "flag.ClaimFirst",
		attribute.Int64("flag.id", flagID))
	defer func() { core.EndSpan(span, err) }()

	var result *Acquisition
	err = s.update(ctx, func(tx store.Tx) error {
		f, err := tx.LockFlag(ctx, flagID)
		if err != nil {
			return notFound(err)
		}
		if !f.IsFirstAvailable() {
			return ErrFirstAlreadyClaimed
		}

		result, err = s.acquire(ctx, tx, f, wallet, txHash,
			store.OwnershipFirst, ErrFirstAlreadyClaimed, reputation.FirstClaimed)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "first NFT claimed",
		"flag_id", flagID,
		"user_id", result.Owner.ID,
	)

	return result, nil
}

// PurchaseSecond records wallet as the holder of the second NFT, which
// completes the pair. The buyer does not have to be the first claimant.
func (s *Service) PurchaseSecond(
	ctx context.Context,
	flagID int64,
	wallet string,
	txHash *string,
) (_ *Acquisition, err error) {
	ctx, span := core.StartSpan(ctx, tracerName, "flag.PurchaseSecond",
		attribute.Int64("flag.id", flagID))
	defer func() { core.EndSpan(span, err) }()

	var result *Acquisition
	err = s.update(ctx, func(tx store.Tx) error {
		f, err := tx.LockFlag(ctx, flagID)
		if err != nil {
			return notFound(err)
		}
		if f.IsFirstAvailable() {
			return ErrFirstNotClaimed
		}
		if !f.IsSecondAvailable() {
			return ErrSecondAlreadyPurchased
		}

		result, err = s.acquire(ctx, tx, f, wallet, txHash,
			store.OwnershipSecond, ErrSecondAlreadyPurchased, reputation.SecondPurchased)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "second NFT purchased",
		"flag_id", flagID,
		"user_id", result.Owner.ID,
		"pair_complete", result.Flag.PairComplete,
	)

	return result, nil
}

func (s *Service) acquire(
	ctx context.Context,
	tx store.Tx,
	f *store.Flag,
	wallet string,
	txHash *string,
	kind string,
	taken error,
	event reputation.Event,
) (*Acquisition, error) {
	u, err := tx.EnsureUser(ctx, wallet)
	if err != nil {
		return nil, err
	}

	o := &store.FlagOwnership{
		UserID:          u.ID,
		FlagID:          f.ID,
		Kind:            kind,
		TransactionHash: txHash,
	}
	if err := tx.CreateOwnership(ctx, o); err != nil {
		return nil, onDuplicate(err, taken)
	}

	switch kind {
	case store.OwnershipFirst:
		f.FirstStatus = store.FirstClaimed
	case store.OwnershipSecond:
		f.SecondStatus = store.SecondPurchased
	}
	if err := tx.UpdateFlagPair(ctx, f); err != nil {
		return nil, err
	}

	if err := reputation.Apply(ctx, tx, u.ID, event); err != nil {
		return nil, err
	}

	// reputation changed after EnsureUser
	owner, err := tx.GetUserByID(ctx, u.ID)
	if err != nil {
		return nil, err
	}

	return &Acquisition{Flag: *f, Ownership: *o, Owner: *owner}, nil
}

func (s *Service) Get(ctx context.Context, flagID int64) (*Detail, error) {
	var detail *Detail
	err := s.store.View(ctx, func(tx store.Tx) error {
		f, err := tx.GetFlag(ctx, flagID)
		if err != nil {
			return notFound(err)
		}

		interests, err := interestViews(ctx, tx, flagID)
		if err != nil {
			return err
		}

		ownerships, err := ownershipViews(ctx, tx, flagID)
		if err != nil {
			return err
		}

		detail = &Detail{
			Flag:          *f,
			InterestCount: len(interests),
			Interests:     interests,
			Ownerships:    ownerships,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return detail, nil
}

// Popular ranks flags by interest count, flags nobody wants included.
func (s *Service) Popular(ctx context.Context, limit int) ([]Detail, error) {
	if err := user.CheckLimit(limit); err != nil {
		return nil, err
	}

	var details []Detail
	err := s.store.View(ctx, func(tx store.Tx) error {
		ranked, err := tx.RankFlagsByInterest(ctx, limit)
		if err != nil {
			return err
		}

		details = make([]Detail, 0, len(ranked))
		for _, r := range ranked {
			interests, err := interestViews(ctx, tx, r.ID)
			if err != nil {
				return err
			}

			ownerships, err := ownershipViews(ctx, tx, r.ID)
			if err != nil {
				return err
			}

			details = append(details, Detail{
				Flag:          r.Flag,
				InterestCount: r.Score,
				Interests:     interests,
				Ownerships:    ownerships,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return details, nil
}

func (s *Service) List(ctx context.Context, filter store.FlagFilter) ([]store.Flag, error) {
	if filter.Category != "" && !store.IsCategory(filter.Category) {
		return nil, ErrInvalidCategory
	}

	var flags []store.Flag
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		flags, err = tx.ListFlags(ctx, filter)
		return err
	})
	if err != nil {
		return nil, err
	}

	return flags, nil
}

func (s *Service) ListInterests(ctx context.Context, flagID int64) ([]InterestView, error) {
	var views []InterestView
	err := s.store.View(ctx, func(tx store.Tx) error {
		if _, err := tx.GetFlag(ctx, flagID); err != nil {
			return notFound(err)
		}

		var err error
		views, err = interestViews(ctx, tx, flagID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return views, nil
}

func (s *Service) ListOwnerships(ctx context.Context, flagID int64) ([]OwnershipView, error) {
	var views []OwnershipView
	err := s.store.View(ctx, func(tx store.Tx) error {
		if _, err := tx.GetFlag(ctx, flagID); err != nil {
			return notFound(err)
		}

		var err error
		views, err = ownershipViews(ctx, tx, flagID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return views, nil
}

// CreateFlag adds a flag with both NFTs available. A missing price falls
// back to the category's default.
func (s *Service) CreateFlag(ctx context.Context, in CreateInput) (_ *store.Flag, err error) {
	ctx, span := core.StartSpan(ctx, tracerName, "flag.CreateFlag",
		attribute.Int64("municipality.id", in.MunicipalityID))
	defer func() { core.EndSpan(span, err) }()

	if in.Category == "" {
		in.Category = store.CategoryStandard
	}
	if !store.IsCategory(in.Category) {
		return nil, ErrInvalidCategory
	}

	if in.NFTsRequired == 0 {
		in.NFTsRequired = MinNFTsRequired
	}
	if in.NFTsRequired < MinNFTsRequired || in.NFTsRequired > MaxNFTsRequired {
		return nil, ErrInvalidNFTs
	}

	price := in.Price.Decimal
	if !in.Price.Valid {
		if price, err = s.prices.DefaultPrice(in.Category); err != nil {
			return nil, err
		}
	}
	if err := core.CheckMoney("price", price, false); err != nil {
		return nil, err
	}

	f := &store.Flag{
		MunicipalityID:   in.MunicipalityID,
		Name:             in.Name,
		LocationType:     in.LocationType,
		Category:         in.Category,
		NFTsRequired:     in.NFTsRequired,
		Price:            price,
		ImageIPFSHash:    in.ImageIPFSHash,
		MetadataIPFSHash: in.MetadataIPFSHash,
		FirstStatus:      store.FirstAvailable,
		SecondStatus:     store.SecondAvailable,
	}

	err = s.store.Update(ctx, func(tx store.Tx) error {
		return tx.CreateFlag(ctx, f)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "flag created",
		"flag_id", f.ID,
		"category", f.Category,
		"price", core.FormatMoney(f.Price),
	)

	return f, nil
}

// UpdateFlag edits the descriptive columns of a flag. The pair state is
// never touched here.
func (s *Service) UpdateFlag(
	ctx context.Context,
	flagID int64,
	in UpdateInput,
) (_ *store.Flag, err error) {
	ctx, span := core.StartSpan(ctx, tracerName, "flag.UpdateFlag",
		attribute.Int64("flag.id", flagID))
	defer func() { core.EndSpan(span, err) }()

	if in.Category != nil && !store.IsCategory(*in.Category) {
		return nil, ErrInvalidCategory
	}
	if in.NFTsRequired != nil &&
		(*in.NFTsRequired < MinNFTsRequired || *in.NFTsRequired > MaxNFTsRequired) {
		return nil, ErrInvalidNFTs
	}
	if in.Price.Valid {
		if err := core.CheckMoney("price", in.Price.Decimal, false); err != nil {
			return nil, err
		}
	}

	var updated *store.Flag
	err = s.update(ctx, func(tx store.Tx) error {
		f, err := tx.LockFlag(ctx, flagID)
		if err != nil {
			return notFound(err)
		}

		if in.Name != nil {
			f.Name = *in.Name
		}
		if in.LocationType != nil {
			f.LocationType = *in.LocationType
		}
		if in.Category != nil {
			f.Category = *in.Category
		}
		if in.NFTsRequired != nil {
			f.NFTsRequired = *in.NFTsRequired
		}
		if in.Price.Valid {
			f.Price = in.Price.Decimal
		}
		if in.ImageIPFSHash != nil {
			f.ImageIPFSHash = in.ImageIPFSHash
		}
		if in.MetadataIPFSHash != nil {
			f.MetadataIPFSHash = in.MetadataIPFSHash
		}

		if err := tx.UpdateFlag(ctx, f); err != nil {
			return notFound(err)
		}

		updated = f
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "flag updated",
		"flag_id", flagID,
		"category", updated.Category,
		"price", core.FormatMoney(updated.Price),
	)

	return updated, nil
}

// RollbackPair reopens a flag whose pair never completed, dropping its
// ownership rows. Reputation already earned is kept.
func (s *Service) RollbackPair(ctx context.Context, flagID int64) (_ *Rollback, err error) {
	ctx, span := core.StartSpan(ctx, tracerName, "flag.RollbackPair",
		attribute.Int64("flag.id", flagID))
	defer func() { core.EndSpan(span, err) }()

	var result *Rollback
	err = s.update(ctx, func(tx store.Tx) error {
		f, err := tx.LockFlag(ctx, flagID)
		if err != nil {
			return notFound(err)
		}
		if f.PairComplete {
			return ErrPairComplete
		}

		active, err := tx.HasActiveAuction(ctx, flagID)
		if err != nil {
			return err
		}
		if active {
			return ErrAuctionActive
		}

		n, err := tx.DeleteOwnerships(ctx, flagID)
		if err != nil {
			return err
		}

		f.FirstStatus = store.FirstAvailable
		f.SecondStatus = store.SecondAvailable
		if err := tx.UpdateFlagPair(ctx, f); err != nil {
			return err
		}

		result = &Rollback{Flag: *f, OwnershipsRemoved: n}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WarnContext(ctx, "flag pair rolled back",
		"flag_id", flagID,
		"ownerships_removed", result.OwnershipsRemoved,
	)

	return result, nil
}

// update runs fn in a serializable transaction, retrying on conflict. A
// retry re-reads the flag, so the loser of a race sees the state error.
func (s *Service) update(ctx context.Context, fn func(tx store.Tx) error) error {
	return store.Retry(ctx, s.retry, func() error {
		return s.store.Update(ctx, fn)
	})
}

func interestViews(ctx context.Context, tx store.Tx, flagID int64) ([]InterestView, error) {
	interests, err := tx.ListInterests(ctx, flagID)
	if err != nil {
		return nil, err
	}

	views := make([]InterestView, 0, len(interests))
	for _, in := range interests {
		u, err := tx.GetUserByID(ctx, in.UserID)
		if err != nil {
			return nil, err
		}
		views = append(views, InterestView{Interest: in, User: *u})
	}

	return views, nil
}

func ownershipViews(ctx context.Context, tx store.Tx, flagID int64) ([]OwnershipView, error) {
	ownerships, err := tx.ListOwnerships(ctx, flagID)
	if err != nil {
		return nil, err
	}

	views := make([]OwnershipView, 0, len(ownerships))
	for _, o := range ownerships {
		u, err := tx.GetUserByID(ctx, o.UserID)
		if err != nil {
			return nil, err
		}
		views = append(views, OwnershipView{Ownership: o, User: *u})
	}

	return views, nil
}
