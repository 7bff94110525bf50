// AngelaMos | 2026
// handler.go

package user

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/flagnft-backend/internal/core"
	"github.com/carterperez-dev/flagnft-backend/internal/store"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: core.NewValidator(),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/{wallet}", h.Get)
		r.Put("/{wallet}", h.Update)
		r.Get("/{wallet}/flags", h.Flags)
		r.Get("/{wallet}/interests", h.Interests)
		r.Post("/{wallet}/follow", h.Follow)
		r.Delete("/{wallet}/follow/{target}", h.Unfollow)
		r.Get("/{wallet}/followers", h.Followers)
		r.Get("/{wallet}/following", h.Following)
	})

	r.Get("/rankings/users", h.Rankings)
	r.Get("/rankings/collectors", h.Collectors)
	r.Get("/rankings/active-collectors", h.ActiveCollectors)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := core.DecodeJSON(w, r, &req, h.validator); err != nil {
		core.JSONError(w, err)
		return
	}

	wallet, err := core.CanonicalWallet(req.WalletAddress)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	profile, err := h.service.Register(r.Context(), wallet, req.Username)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Created(w, ToUserResponse(profile))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	wallet, err := core.CanonicalWallet(chi.URLParam(r, "wallet"))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	profile, err := h.service.Get(r.Context(), wallet)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ToUserResponse(profile))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	wallet, err := core.CanonicalWallet(chi.URLParam(r, "wallet"))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	var req UpdateUserRequest
	if err := core.DecodeJSON(w, r, &req, h.validator); err != nil {
		core.JSONError(w, err)
		return
	}

	profile, err := h.service.Update(r.Context(), wallet, req)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ToUserResponse(profile))
}

func (h *Handler) Flags(w http.ResponseWriter, r *http.Request) {
	wallet, err := core.CanonicalWallet(chi.URLParam(r, "wallet"))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	ownerships, err := h.service.Ownerships(r.Context(), wallet)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ToOwnershipResponseList(ownerships))
}

func (h *Handler) Interests(w http.ResponseWriter, r *http.Request) {
	wallet, err := core.CanonicalWallet(chi.URLParam(r, "wallet"))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	interests, err := h.service.Interests(r.Context(), wallet)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ToInterestResponseList(interests))
}

func (h *Handler) Follow(w http.ResponseWriter, r *http.Request) {
	wallet, err := core.CanonicalWallet(chi.URLParam(r, "wallet"))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	var req FollowRequest
	if err := core.DecodeJSON(w, r, &req, h.validator); err != nil {
		core.JSONError(w, err)
		return
	}

	target, err := core.CanonicalWallet(req.TargetWallet)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	follow, err := h.service.Follow(r.Context(), wallet, target)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Created(w, ToConnectionResponse(follow))
}

func (h *Handler) Unfollow(w http.ResponseWriter, r *http.Request) {
	wallet, err := core.CanonicalWallet(chi.URLParam(r, "wallet"))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	target, err := core.CanonicalWallet(chi.URLParam(r, "target"))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	if err := h.service.Unfollow(r.Context(), wallet, target); err != nil {
		core.JSONError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) Followers(w http.ResponseWriter, r *http.Request) {
	h.connected(w, r, h.service.Followers)
}

func (h *Handler) Following(w http.ResponseWriter, r *http.Request) {
	h.connected(w, r, h.service.Following)
}

func (h *Handler) connected(
	w http.ResponseWriter,
	r *http.Request,
	list func(context.Context, string) ([]store.User, error),
) {
	wallet, err := core.CanonicalWallet(chi.URLParam(r, "wallet"))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	users, err := list(r.Context(), wallet)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ToSummaryList(users))
}

// Rankings lists users by reputation, highest first.
func (h *Handler) Rankings(w http.ResponseWriter, r *http.Request) {
	limit, err := core.QueryInt(r, "limit", DefaultRankingLimit)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	users, err := h.service.Rankings(r.Context(), limit)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ToRankingResponseList(users))
}

func (h *Handler) Collectors(w http.ResponseWriter, r *http.Request) {
	h.scored(w, r, h.service.CollectorRankings)
}

func (h *Handler) ActiveCollectors(w http.ResponseWriter, r *http.Request) {
	h.scored(w, r, h.service.ActiveCollectorRankings)
}

func (h *Handler) scored(
	w http.ResponseWriter,
	r *http.Request,
	rank func(context.Context, int) ([]store.UserScore, error),
) {
	limit, err := core.QueryInt(r, "limit", DefaultRankingLimit)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	ranked, err := rank(r.Context(), limit)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ToScoredRankingList(ranked))
}
