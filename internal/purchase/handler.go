// AngelaMos | 2026
// handler.go

package purchase

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/bloghub/internal/access"
	"github.com/carterperez-dev/bloghub/internal/core"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/transactions", func(r chi.Router) {
		r.With(access.Require(access.InitiatePurchase)).Post("/initiate", h.Initiate)
		r.With(access.Require(access.VerifyPurchase)).Post("/verify", h.Verify)
		r.With(access.Require(access.ViewOwnPurchases)).Get("/me", h.ListMine)
		r.With(access.Require(access.ViewOwnPurchases)).Get("/{transactionID}", h.Get)
	})
}

// RegisterAdminRoutes mounts the sales ledger under an /admin router.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.With(access.Require(access.ViewTransactions)).Get("/transactions", h.ListAll)
}

func (h *Handler) Initiate(w http.ResponseWriter, r *http.Request) {
	var req InitiateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	resp, err := h.service.Initiate(r.Context(), access.FromContext(r.Context()), req)
	if err != nil {
		core.Fail(w, err, "pdf")
		return
	}

	core.Created(w, resp)
}

func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	resp, err := h.service.Verify(r.Context(), access.FromContext(r.Context()), req)
	if err != nil {
		core.Fail(w, err, "transaction")
		return
	}

	core.OK(w, resp)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Get(
		r.Context(),
		access.FromContext(r.Context()),
		chi.URLParam(r, "transactionID"),
	)
	if err != nil {
		core.Fail(w, err, "transaction")
		return
	}

	core.OK(w, resp)
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.ListMine(r.Context(), access.FromContext(r.Context()))
	if err != nil {
		core.Fail(w, err, "transaction")
		return
	}

	core.OK(w, resp)
}

func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	params := ListTransactionsParams{
		Page:     parseIntQuery(r, "page", 1),
		PageSize: parseIntQuery(r, "page_size", 20),
		Status:   r.URL.Query().Get("status"),
	}
	params.Normalize()

	resp, total, err := h.service.ListAll(r.Context(), access.FromContext(r.Context()), params)
	if err != nil {
		core.Fail(w, err, "transaction")
		return
	}

	core.Paginated(w, resp, params.Page, params.PageSize, total)
}

func parseIntQuery(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}

	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return parsed
}
