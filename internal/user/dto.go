// AngelaMos | 2026
// dto.go

package user

import (
	"time"

	"github.com/carterperez-dev/flagnft-backend/internal/store"
)

type CreateUserRequest struct {
	WalletAddress string  `json:"wallet_address"     validate:"required,eth_addr"`
	Username      *string `json:"username,omitempty" validate:"omitempty,min=1,max=50"`
}

type UpdateUserRequest struct {
	Username *string `json:"username,omitempty" validate:"omitempty,min=1,max=50"`
}

type FollowRequest struct {
	TargetWallet string `json:"target_wallet" validate:"required,eth_addr"`
}

// Summary is the user snapshot embedded in auction and flag responses.
type Summary struct {
	ID              int64   `json:"id"`
	WalletAddress   string  `json:"wallet_address"`
	Username        *string `json:"username"`
	ReputationScore int     `json:"reputation_score"`
}

type UserResponse struct {
	Summary
	FlagsOwned     int       `json:"flags_owned"`
	FollowersCount int       `json:"followers_count"`
	FollowingCount int       `json:"following_count"`
	CreatedAt      time.Time `json:"created_at"`
}

type RankingResponse struct {
	Rank  int `json:"rank"`
	Score int `json:"score"`
	Summary
}

type ConnectionResponse struct {
	ID        int64     `json:"id"`
	Follower  Summary   `json:"follower"`
	Following Summary   `json:"following"`
	CreatedAt time.Time `json:"created_at"`
}

type InterestResponse struct {
	ID        int64     `json:"id"`
	FlagID    int64     `json:"flag_id"`
	CreatedAt time.Time `json:"created_at"`
}

type OwnershipResponse struct {
	ID              int64     `json:"id"`
	FlagID          int64     `json:"flag_id"`
	Kind            string    `json:"kind"`
	TransactionHash *string   `json:"transaction_hash"`
	CreatedAt       time.Time `json:"created_at"`
}

func ToSummary(u *store.User) Summary {
	return Summary{
		ID:              u.ID,
		WalletAddress:   u.WalletAddress,
		Username:        u.Username,
		ReputationScore: u.ReputationScore,
	}
}

func ToSummaryPtr(u *store.User) *Summary {
	if u == nil {
		return nil
	}
	s := ToSummary(u)
	return &s
}

func ToUserResponse(p *Profile) UserResponse {
	return UserResponse{
		Summary:    ToSummary(&p.User),
		FlagsOwned:     p.FlagsOwned,
		FollowersCount: p.Followers,
		FollowingCount: p.Following,
		CreatedAt:      p.User.CreatedAt,
	}
}

// ToRankingResponseList ranks users by reputation, which is also the score.
func ToRankingResponseList(users []store.User) []RankingResponse {
	out := make([]RankingResponse, 0, len(users))
	for i := range users {
		out = append(out, RankingResponse{
			Rank:    i + 1,
			Score:   users[i].ReputationScore,
			Summary: ToSummary(&users[i]),
		})
	}
	return out
}

func ToScoredRankingList(ranked []store.UserScore) []RankingResponse {
	out := make([]RankingResponse, 0, len(ranked))
	for i := range ranked {
		out = append(out, RankingResponse{
			Rank:    i + 1,
			Score:   ranked[i].Score,
			Summary: ToSummary(&ranked[i].User),
		})
	}
	return out
}

func ToSummaryList(users []store.User) []Summary {
	out := make([]Summary, 0, len(users))
	for i := range users {
		out = append(out, ToSummary(&users[i]))
	}
	return out
}

func ToConnectionResponse(f *Follow) ConnectionResponse {
	return ConnectionResponse{
		ID:        f.Connection.ID,
		Follower:  ToSummary(&f.Follower),
		Following: ToSummary(&f.Following),
		CreatedAt: f.Connection.CreatedAt,
	}
}

func ToInterestResponseList(interests []store.FlagInterest) []InterestResponse {
	out := make([]InterestResponse, 0, len(interests))
	for _, in := range interests {
		out = append(out, InterestResponse{
			ID:        in.ID,
			FlagID:    in.FlagID,
			CreatedAt: in.CreatedAt,
		})
	}
	return out
}

func ToOwnershipResponseList(ownerships []store.FlagOwnership) []OwnershipResponse {
	out := make([]OwnershipResponse, 0, len(ownerships))
	for _, o := range ownerships {
		out = append(out, OwnershipResponse{
			ID:              o.ID,
			FlagID:          o.FlagID,
			Kind:            o.Kind,
			TransactionHash: o.TransactionHash,
			CreatedAt:       o.CreatedAt,
		})
	}
	return out
}
