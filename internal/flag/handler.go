// AngelaMos | 2026
// handler.go

package flag

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/flagnft-backend/internal/core"
	"github.com/carterperez-dev/flagnft-backend/internal/store"
	"github.com/carterperez-dev/flagnft-backend/internal/user"
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
	r.Route("/flags", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{flagID}", h.Get)
		r.Post("/{flagID}/interest", h.RegisterInterest)
		r.Post("/{flagID}/claim", h.ClaimFirst)
		r.Post("/{flagID}/purchase", h.PurchaseSecond)
		r.Get("/{flagID}/interests", h.ListInterests)
		r.Get("/{flagID}/ownerships", h.ListOwnerships)
	})

	r.Get("/rankings/flags", h.Popular)
}

// RegisterAdminRoutes mounts the console operations. The caller is
// responsible for guarding r.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/flags", h.Create)
	r.Put("/flags/{flagID}", h.Update)
	r.Post("/flags/{flagID}/rollback", h.Rollback)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	openOnly, err := core.QueryBool(r, "available_only", false)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	filter := store.FlagFilter{
		Category:      q.Get("category"),
		OpenPairsOnly: openOnly,
	}

	if raw := q.Get("municipality_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			core.BadRequest(w, "municipality_id must be an integer")
			return
		}
		filter.MunicipalityID = &id
	}

	flags, err := h.service.List(r.Context(), filter)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ToFlagResponseList(flags))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := core.PathID(r, "flagID")
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

func (h *Handler) RegisterInterest(w http.ResponseWriter, r *http.Request) {
	id, err := core.PathID(r, "flagID")
	if err != nil {
		core.JSONError(w, err)
		return
	}

	var req InterestRequest
	if err := core.DecodeJSON(w, r, &req, h.validator); err != nil {
		core.JSONError(w, err)
		return
	}

	wallet, err := core.CanonicalWallet(req.WalletAddress)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	view, err := h.service.RegisterInterest(r.Context(), id, wallet)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Created(w, ToInterestResponse(view))
}

func (h *Handler) ClaimFirst(w http.ResponseWriter, r *http.Request) {
	h.acquire(w, r, h.service.ClaimFirst)
}

func (h *Handler) PurchaseSecond(w http.ResponseWriter, r *http.Request) {
	h.acquire(w, r, h.service.PurchaseSecond)
}

type acquireFunc func(
	ctx context.Context,
	flagID int64,
	wallet string,
	txHash *string,
) (*Acquisition, error)

func (h *Handler) acquire(w http.ResponseWriter, r *http.Request, op acquireFunc) {
	id, err := core.PathID(r, "flagID")
	if err != nil {
		core.JSONError(w, err)
		return
	}

	var req AcquireRequest
	if err := core.DecodeJSON(w, r, &req, h.validator); err != nil {
		core.JSONError(w, err)
		return
	}

	wallet, err := core.CanonicalWallet(req.WalletAddress)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	result, err := op(r.Context(), id, wallet, req.NormalizedTxHash())
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Created(w, ToAcquisitionResponse(result))
}

func (h *Handler) ListInterests(w http.ResponseWriter, r *http.Request) {
	id, err := core.PathID(r, "flagID")
	if err != nil {
		core.JSONError(w, err)
		return
	}

	views, err := h.service.ListInterests(r.Context(), id)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ToInterestResponseList(views))
}

func (h *Handler) ListOwnerships(w http.ResponseWriter, r *http.Request) {
	id, err := core.PathID(r, "flagID")
	if err != nil {
		core.JSONError(w, err)
		return
	}

	views, err := h.service.ListOwnerships(r.Context(), id)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ToOwnershipResponseList(views))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateFlagRequest
	if err := core.DecodeJSON(w, r, &req, h.validator); err != nil {
		core.JSONError(w, err)
		return
	}

	f, err := h.service.CreateFlag(r.Context(), req.ToInput())
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Created(w, ToFlagResponse(f))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := core.PathID(r, "flagID")
	if err != nil {
		core.JSONError(w, err)
		return
	}

	var req UpdateFlagRequest
	if err := core.DecodeJSON(w, r, &req, h.validator); err != nil {
		core.JSONError(w, err)
		return
	}

	f, err := h.service.UpdateFlag(r.Context(), id, req.ToInput())
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ToFlagResponse(f))
}

// Popular ranks flags by how many users registered interest.
func (h *Handler) Popular(w http.ResponseWriter, r *http.Request) {
	limit, err := core.QueryInt(r, "limit", user.DefaultRankingLimit)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	details, err := h.service.Popular(r.Context(), limit)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ToRankingResponseList(details))
}

func (h *Handler) Rollback(w http.ResponseWriter, r *http.Request) {
	id, err := core.PathID(r, "flagID")
	if err != nil {
		core.JSONError(w, err)
		return
	}

	result, err := h.service.RollbackPair(r.Context(), id)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ToRollbackResponse(result))
}
