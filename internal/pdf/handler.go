// AngelaMos | 2026
// handler.go

package pdf

import (
	"encoding/json"
	"net/http"

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
	r.Get("/pdfs/{pdfID}/access", h.Access)
}

// MountUnderBlog adds the /blogs/{blogID}/pdfs routes.
func (h *Handler) MountUnderBlog(r chi.Router) {
	r.With(access.Require(access.ReadArticle)).Get("/pdfs", h.ListForBlog)
	r.With(access.Require(access.ManagePDF)).Post("/pdfs", h.Create)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreatePDFRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	p, err := h.service.Create(
		r.Context(),
		access.FromContext(r.Context()),
		chi.URLParam(r, "blogID"),
		req,
	)
	if err != nil {
		core.Fail(w, err, "blog")
		return
	}

	core.Created(w, p)
}

func (h *Handler) ListForBlog(w http.ResponseWriter, r *http.Request) {
	pdfs, err := h.service.ListByBlog(r.Context(), chi.URLParam(r, "blogID"))
	if err != nil {
		core.Fail(w, err, "blog")
		return
	}

	core.OK(w, pdfs)
}

func (h *Handler) Access(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Access(
		r.Context(),
		access.FromContext(r.Context()),
		chi.URLParam(r, "pdfID"),
	)
	if err != nil {
		core.Fail(w, err, "pdf")
		return
	}

	core.OK(w, resp)
}
