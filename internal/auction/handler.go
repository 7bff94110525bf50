// AngelaMos | 2026
// handler.go

package auction

import (
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
	r.Route("/auctions", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{auctionID}", h.Get)
		r.Post("/{auctionID}/bid", h.PlaceBid)
		r.Post("/{auctionID}/buyout", h.Buyout)
		r.Post("/{auctionID}/close", h.Close)
		r.Post("/{auctionID}/cancel", h.Cancel)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	active, err := core.QueryBool(r, "active_only", true)
	if err != nil {
		core.JSONError(w, err)
		return
	}
	filter := store.AuctionFilter{ActiveOnly: active}

	if raw := q.Get("flag_id"); raw != "" {
		id, err := core.ParseID(raw, "flag_id")
		if err != nil {
			core.JSONError(w, err)
			return
		}
		filter.FlagID = &id
	}

	listings, err := h.service.List(r.Context(), filter)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ToListItemResponseList(listings))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := core.PathID(r, "auctionID")
	if err != nil {
		core.JSONError(w, err)
		return
	}

	detail, err := h.service.Get(r.Context(), id)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ToDetailResponse(detail))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateAuctionRequest
	if err := core.DecodeJSON(w, r, &req, h.validator); err != nil {
		core.JSONError(w, err)
		return
	}

	seller, err := core.CanonicalWallet(req.WalletAddress)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	a, err := h.service.Create(r.Context(), req.ToInput(seller))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Created(w, ToAuctionResponse(a))
}

func (h *Handler) PlaceBid(w http.ResponseWriter, r *http.Request) {
	id, err := core.PathID(r, "auctionID")
	if err != nil {
		core.JSONError(w, err)
		return
	}

	var req PlaceBidRequest
	if err := core.DecodeJSON(w, r, &req, h.validator); err != nil {
		core.JSONError(w, err)
		return
	}

	wallet, err := core.CanonicalWallet(req.WalletAddress)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	bid, err := h.service.PlaceBid(r.Context(), BidInput{
		AuctionID: id,
		Wallet:    wallet,
		Amount:    *req.Amount,
		Category:  req.BidderCategory,
	})
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Created(w, ToBidResponse(bid, nil))
}

func (h *Handler) Buyout(w http.ResponseWriter, r *http.Request) {
	id, wallet, ok := h.walletAction(w, r)
	if !ok {
		return
	}

	a, err := h.service.Buyout(r.Context(), id, wallet)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ToAuctionResponse(a))
}

// Close settles an ended auction. Anyone may call it.
func (h *Handler) Close(w http.ResponseWriter, r *http.Request) {
	id, err := core.PathID(r, "auctionID")
	if err != nil {
		core.JSONError(w, err)
		return
	}

	a, err := h.service.Close(r.Context(), id)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ToAuctionResponse(a))
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, wallet, ok := h.walletAction(w, r)
	if !ok {
		return
	}

	a, err := h.service.Cancel(r.Context(), id, wallet)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ToAuctionResponse(a))
}

// walletAction parses the auction id and the caller's wallet. It writes the
// error response itself and reports whether the handler should go on.
func (h *Handler) walletAction(w http.ResponseWriter, r *http.Request) (int64, string, bool) {
	id, err := core.PathID(r, "auctionID")
	if err != nil {
		core.JSONError(w, err)
		return 0, "", false
	}

	var req WalletRequest
	if err := core.DecodeJSON(w, r, &req, h.validator); err != nil {
		core.JSONError(w, err)
		return 0, "", false
	}

	wallet, err := core.CanonicalWallet(req.WalletAddress)
	if err != nil {
		core.JSONError(w, err)
		return 0, "", false
	}

	return id, wallet, true
}
