// AngelaMos | 2026
// handler.go

package comment

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
	r.Route("/comments", func(r chi.Router) {
		r.With(access.Require(access.ReadComments)).Get("/", h.List)
		r.With(access.Require(access.CreateComment)).Post("/", h.Create)

		// ownership is checked against the stored comment
		r.Put("/{commentID}", h.Update)
		r.Delete("/{commentID}", h.Delete)
	})
}

// MountUnderBlog adds GET /blogs/{blogID}/comments.
func (h *Handler) MountUnderBlog(r chi.Router) {
	r.With(access.Require(access.ReadComments)).Get("/comments", h.ListForBlog)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	blogID := r.URL.Query().Get("blogId")
	if blogID == "" {
		core.BadRequest(w, "blogId is required")
		return
	}

	h.list(w, r, blogID)
}

func (h *Handler) ListForBlog(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, chi.URLParam(r, "blogID"))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, blogID string) {
	comments, err := h.service.ListByBlog(r.Context(), blogID)
	if err != nil {
		core.Fail(w, err, "blog")
		return
	}

	core.OK(w, comments)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	c, err := h.service.Create(r.Context(), access.FromContext(r.Context()), req)
	if err != nil {
		core.Fail(w, err, "blog")
		return
	}

	core.Created(w, c)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	c, err := h.service.Update(
		r.Context(),
		access.FromContext(r.Context()),
		chi.URLParam(r, "commentID"),
		req,
	)
	if err != nil {
		core.Fail(w, err, "comment")
		return
	}

	core.OK(w, c)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.service.Delete(
		r.Context(),
		access.FromContext(r.Context()),
		chi.URLParam(r, "commentID"),
	)
	if err != nil {
		core.Fail(w, err, "comment")
		return
	}

	core.NoContent(w)
}
