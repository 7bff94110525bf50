// AngelaMos | 2026
// dto.go

package flag

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/flagnft-backend/internal/core"
	"github.com/carterperez-dev/flagnft-backend/internal/store"
	"github.com/carterperez-dev/flagnft-backend/internal/user"
)

type InterestRequest struct {
	WalletAddress string `json:"wallet_address" validate:"required,eth_addr"`
}

type AcquireRequest struct {
	WalletAddress   string  `json:"wallet_address"             validate:"required,eth_addr"`
	TransactionHash *string `json:"transaction_hash,omitempty" validate:"omitempty,len=66,startswith=0x,hexadecimal"`
}

// NormalizedTxHash returns the lowercase form of the transaction hash, or
// nil when none was sent.
func (r AcquireRequest) NormalizedTxHash() *string {
	if r.TransactionHash == nil {
		return nil
	}
	h := common.HexToHash(*r.TransactionHash).Hex()
	return &h
}

type CreateFlagRequest struct {
	MunicipalityID   int64            `json:"municipality_id"              validate:"required,gt=0"`
	Name             string           `json:"name"                         validate:"required,min=1,max=100"`
	LocationType     string           `json:"location_type"                validate:"required,max=50"`
	Category         string           `json:"category,omitempty"           validate:"omitempty,oneof=standard plus premium"`
	NFTsRequired     int              `json:"nfts_required,omitempty"      validate:"omitempty,min=1,max=10"`
	Price            *decimal.Decimal `json:"price,omitempty"`
	ImageIPFSHash    *string          `json:"image_ipfs_hash,omitempty"    validate:"omitempty,max=100"`
	MetadataIPFSHash *string          `json:"metadata_ipfs_hash,omitempty" validate:"omitempty,max=100"`
}

func (r CreateFlagRequest) ToInput() CreateInput {
	in := CreateInput{
		MunicipalityID:   r.MunicipalityID,
		Name:             r.Name,
		LocationType:     r.LocationType,
		Category:         r.Category,
		NFTsRequired:     r.NFTsRequired,
		ImageIPFSHash:    r.ImageIPFSHash,
		MetadataIPFSHash: r.MetadataIPFSHash,
	}
	if r.Price != nil {
		in.Price = decimal.NewNullDecimal(*r.Price)
	}
	return in
}

type UpdateFlagRequest struct {
	Name             *string          `json:"name,omitempty"               validate:"omitempty,min=1,max=100"`
	LocationType     *string          `json:"location_type,omitempty"      validate:"omitempty,min=1,max=50"`
	Category         *string          `json:"category,omitempty"           validate:"omitempty,oneof=standard plus premium"`
	NFTsRequired     *int             `json:"nfts_required,omitempty"      validate:"omitempty,min=1,max=10"`
	Price            *decimal.Decimal `json:"price,omitempty"`
	ImageIPFSHash    *string          `json:"image_ipfs_hash,omitempty"    validate:"omitempty,max=100"`
	MetadataIPFSHash *string          `json:"metadata_ipfs_hash,omitempty" validate:"omitempty,max=100"`
}

func (r UpdateFlagRequest) ToInput() UpdateInput {
	in := UpdateInput{
		Name:             r.Name,
		LocationType:     r.LocationType,
		Category:         r.Category,
		NFTsRequired:     r.NFTsRequired,
		ImageIPFSHash:    r.ImageIPFSHash,
		MetadataIPFSHash: r.MetadataIPFSHash,
	}
	if r.Price != nil {
		in.Price = decimal.NewNullDecimal(*r.Price)
	}
	return in
}

type FlagResponse struct {
	ID               int64     `json:"id"`
	MunicipalityID   int64     `json:"municipality_id"`
	Name             string    `json:"name"`
	LocationType     string    `json:"location_type"`
	Category         string    `json:"category"`
	NFTsRequired     int       `json:"nfts_required"`
	Price            string    `json:"price"`
	ImageIPFSHash    *string   `json:"image_ipfs_hash"`
	MetadataIPFSHash *string   `json:"metadata_ipfs_hash"`
	FirstStatus      string    `json:"first_nft_status"`
	SecondStatus     string    `json:"second_nft_status"`
	PairComplete     bool      `json:"is_pair_complete"`
	CreatedAt        time.Time `json:"created_at"`
}

// Summary is the flag snapshot embedded in auction responses.
type Summary struct {
	ID             int64  `json:"id"`
	MunicipalityID int64  `json:"municipality_id"`
	Name           string `json:"name"`
	Category       string `json:"category"`
	Price          string `json:"price"`
	PairComplete   bool   `json:"is_pair_complete"`
}

type InterestResponse struct {
	ID        int64        `json:"id"`
	FlagID    int64        `json:"flag_id"`
	User      user.Summary `json:"user"`
	CreatedAt time.Time    `json:"created_at"`
}

type OwnershipResponse struct {
	ID              int64        `json:"id"`
	FlagID          int64        `json:"flag_id"`
	Kind            string       `json:"ownership_type"`
	TransactionHash *string      `json:"transaction_hash"`
	User            user.Summary `json:"user"`
	CreatedAt       time.Time    `json:"created_at"`
}

type DetailResponse struct {
	FlagResponse
	InterestCount int                 `json:"interest_count"`
	Interests     []InterestResponse  `json:"interests"`
	Ownerships    []OwnershipResponse `json:"ownerships"`
}

type RankingResponse struct {
	Rank          int            `json:"rank"`
	Flag          DetailResponse `json:"flag"`
	InterestCount int            `json:"interest_count"`
}

type AcquisitionResponse struct {
	Flag      FlagResponse      `json:"flag"`
	Ownership OwnershipResponse `json:"ownership"`
}

type RollbackResponse struct {
	Flag              FlagResponse `json:"flag"`
	OwnershipsRemoved int          `json:"ownerships_removed"`
}

func ToFlagResponse(f *store.Flag) FlagResponse {
	return FlagResponse{
		ID:               f.ID,
		MunicipalityID:   f.MunicipalityID,
		Name:             f.Name,
		LocationType:     f.LocationType,
		Category:         f.Category,
		NFTsRequired:     f.NFTsRequired,
		Price:            core.FormatMoney(f.Price),
		ImageIPFSHash:    f.ImageIPFSHash,
		MetadataIPFSHash: f.MetadataIPFSHash,
		FirstStatus:      f.FirstStatus,
		SecondStatus:     f.SecondStatus,
		PairComplete:     f.PairComplete,
		CreatedAt:        f.CreatedAt,
	}
}

func ToFlagResponseList(flags []store.Flag) []FlagResponse {
	out := make([]FlagResponse, 0, len(flags))
	for i := range flags {
		out = append(out, ToFlagResponse(&flags[i]))
	}
	return out
}

func ToSummary(f *store.Flag) Summary {
	return Summary{
		ID:             f.ID,
		MunicipalityID: f.MunicipalityID,
		Name:           f.Name,
		Category:       f.Category,
		Price:          core.FormatMoney(f.Price),
		PairComplete:   f.PairComplete,
	}
}

func ToInterestResponse(v *InterestView) InterestResponse {
	return InterestResponse{
		ID:        v.Interest.ID,
		FlagID:    v.Interest.FlagID,
		User:      user.ToSummary(&v.User),
		CreatedAt: v.Interest.CreatedAt,
	}
}

func ToInterestResponseList(views []InterestView) []InterestResponse {
	out := make([]InterestResponse, 0, len(views))
	for i := range views {
		out = append(out, ToInterestResponse(&views[i]))
	}
	return out
}

func toOwnershipResponse(o *store.FlagOwnership, u *store.User) OwnershipResponse {
	return OwnershipResponse{
		ID:              o.ID,
		FlagID:          o.FlagID,
		Kind:            o.Kind,
		TransactionHash: o.TransactionHash,
		User:            user.ToSummary(u),
		CreatedAt:       o.CreatedAt,
	}
}

func ToOwnershipResponseList(views []OwnershipView) []OwnershipResponse {
	out := make([]OwnershipResponse, 0, len(views))
	for i := range views {
		out = append(out, toOwnershipResponse(&views[i].Ownership, &views[i].User))
	}
	return out
}

func ToDetailResponse(d *Detail) DetailResponse {
	return DetailResponse{
		FlagResponse:  ToFlagResponse(&d.Flag),
		InterestCount: d.InterestCount,
		Interests:     ToInterestResponseList(d.Interests),
		Ownerships:    ToOwnershipResponseList(d.Ownerships),
	}
}

func ToRankingResponseList(details []Detail) []RankingResponse {
	out := make([]RankingResponse, 0, len(details))
	for i := range details {
		out = append(out, RankingResponse{
			Rank:          i + 1,
			Flag:          ToDetailResponse(&details[i]),
			InterestCount: details[i].InterestCount,
		})
	}
	return out
}

func ToAcquisitionResponse(a *Acquisition) AcquisitionResponse {
	return AcquisitionResponse{
		Flag:      ToFlagResponse(&a.Flag),
		Ownership: toOwnershipResponse(&a.Ownership, &a.Owner),
	}
}

func ToRollbackResponse(r *Rollback) RollbackResponse {
	return RollbackResponse{
		Flag:              ToFlagResponse(&r.Flag),
		OwnershipsRemoved: r.OwnershipsRemoved,
	}
}
