// AngelaMos | 2026
// handler.go

package blog

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

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

// RegisterRoutes mounts /blogs. extra lets sibling packages hang
// sub-resources (comments, pdfs) under /blogs/{blogID}.
func (h *Handler) RegisterRoutes(r chi.Router, extra ...func(r chi.Router)) {
	r.Route("/blogs", func(r chi.Router) {
		r.With(access.Require(access.ListArticles)).Get("/", h.List)
		r.With(access.Require(access.CreateArticle)).Post("/", h.Create)

		r.Route("/{blogID}", func(r chi.Router) {
			r.With(access.Require(access.ReadArticle)).Get("/", h.Get)
			r.With(access.Require(access.UpdateArticle)).Put("/", h.Update)
			r.With(access.Require(access.DeleteArticle)).Delete("/", h.Delete)

			for _, mount := range extra {
				mount(r)
			}
		})
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	params := ListBlogsParams{
		Page:     parseIntQuery(r, "page", 1),
		PageSize: parseIntQuery(r, "page_size", 20),
		Search:   q.Get("search"),
		Author:   q.Get("author"),
	}

	if raw := q.Get("tags"); raw != "" {
		params.Tags = strings.Split(raw, ",")
	}

	var err error
	if params.DateFrom, err = parseDateQuery(q.Get("dateFrom"), false); err != nil {
		core.BadRequest(w, "dateFrom must be RFC3339 or YYYY-MM-DD")
		return
	}
	if params.DateTo, err = parseDateQuery(q.Get("dateTo"), true); err != nil {
		core.BadRequest(w, "dateTo must be RFC3339 or YYYY-MM-DD")
		return
	}
	params.Normalize()

	blogs, total, err := h.service.List(r.Context(), params)
	if err != nil {
		core.Fail(w, err, "blog")
		return
	}

	core.Paginated(w, blogs, params.Page, params.PageSize, total)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	blog, err := h.service.Get(r.Context(), chi.URLParam(r, "blogID"))
	if err != nil {
		core.Fail(w, err, "blog")
		return
	}

	core.OK(w, blog)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateBlogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	blog, err := h.service.Create(r.Context(), access.FromContext(r.Context()), req)
	if err != nil {
		core.Fail(w, err, "blog")
		return
	}

	core.Created(w, blog)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateBlogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	blog, err := h.service.Update(
		r.Context(),
		access.FromContext(r.Context()),
		chi.URLParam(r, "blogID"),
		req,
	)
	if err != nil {
		core.Fail(w, err, "blog")
		return
	}

	core.OK(w, blog)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.service.Delete(
		r.Context(),
		access.FromContext(r.Context()),
		chi.URLParam(r, "blogID"),
	)
	if err != nil {
		core.Fail(w, err, "blog")
		return
	}

	core.NoContent(w)
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

// parseDateQuery accepts RFC3339 or a bare date. A bare dateTo covers the
// whole day.
func parseDateQuery(raw string, endOfDay bool) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}

	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}

	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
