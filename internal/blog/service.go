// AngelaMos | 2026
// service.go

package blog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/bloghub/internal/access"
	"github.com/carterperez-dev/bloghub/internal/core"
	"github.com/carterperez-dev/bloghub/internal/summary"
	"github.com/carterperez-dev/bloghub/internal/user"
)

type AuthorLookup interface {
	Authors(ctx context.Context, ids []string) (map[string]user.Author, error)
}

type Service struct {
	repo      Repository
	authors   AuthorLookup
	summaries *summary.Generator
	logger    *slog.Logger
}

func NewService(
	repo Repository,
	authors AuthorLookup,
	summaries *summary.Generator,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:      repo,
		authors:   authors,
		summaries: summaries,
		logger:    logger,
	}
}

func (s *Service) Create(
	ctx context.Context,
	actor *access.Principal,
	req CreateBlogRequest,
) (*BlogResponse, error) {
	if err := access.Authorize(actor, access.CreateArticle); err != nil {
		return nil, fmt.Errorf("create blog: %w", err)
	}
	if err := requireText(req.Title, req.Content); err != nil {
		return nil, fmt.Errorf("create blog: %w", err)
	}

	blog := &Blog{
		ID:       uuid.New().String(),
		Title:    strings.TrimSpace(req.Title),
		Content:  req.Content,
		AuthorID: actor.SubjectID,
		Tags:     normalizeTags(req.Tags),
		AudioURL: emptyToNil(req.AudioURL),
	}
	blog.Summary = s.summaries.Generate(ctx, blog.Content)

	if err := s.repo.Create(ctx, blog); err != nil {
		return nil, err
	}

	s.logger.Info("blog created", "blog_id", blog.ID, "author_id", blog.AuthorID)

	return s.assembleOne(ctx, blog)
}

// Update regenerates the summary only when the content changed.
func (s *Service) Update(
	ctx context.Context,
	actor *access.Principal,
	id string,
	req UpdateBlogRequest,
) (*BlogResponse, error) {
	if err := access.Authorize(actor, access.UpdateArticle); err != nil {
		return nil, fmt.Errorf("update blog: %w", err)
	}

	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		return nil, fmt.Errorf("update blog: %w", core.Invalid("title is required"))
	}
	if req.Content != nil && strings.TrimSpace(*req.Content) == "" {
		return nil, fmt.Errorf("update blog: %w", core.Invalid("content is required"))
	}

	blog, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		blog.Title = strings.TrimSpace(*req.Title)
	}
	if req.Tags != nil {
		blog.Tags = normalizeTags(*req.Tags)
	}
	if req.AudioURL != nil {
		blog.AudioURL = emptyToNil(req.AudioURL)
	}
	if req.Content != nil && *req.Content != blog.Content {
		blog.Content = *req.Content
		blog.Summary = s.summaries.Regenerate(ctx, blog.Content, blog.Summary)
	}

	if err := s.repo.Update(ctx, blog); err != nil {
		return nil, err
	}

	return s.assembleOne(ctx, blog)
}

// requireText rejects a title or content made only of whitespace, which
// the length rules on the request accept.
func requireText(title, content string) error {
	if strings.TrimSpace(title) == "" {
		return core.Invalid("title is required")
	}
	if strings.TrimSpace(content) == "" {
		return core.Invalid("content is required")
	}
	return nil
}

func (s *Service) Delete(
	ctx context.Context,
	actor *access.Principal,
	id string,
) error {
	if err := access.Authorize(actor, access.DeleteArticle); err != nil {
		return fmt.Errorf("delete blog: %w", err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("blog deleted", "blog_id", id, "actor_id", actor.SubjectID)
	return nil
}

// Get returns the full read model for one article.
func (s *Service) Get(ctx context.Context, id string) (*BlogResponse, error) {
	blog, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return s.assembleOne(ctx, blog)
}

// GetByID returns the stored article without derived fields.
func (s *Service) GetByID(ctx context.Context, id string) (*Blog, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(
	ctx context.Context,
	params ListBlogsParams,
) ([]BlogResponse, int, error) {
	params.Normalize()

	blogs, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, 0, err
	}

	out, err := s.assemble(ctx, blogs)
	if err != nil {
		return nil, 0, err
	}

	return out, total, nil
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

func (s *Service) assembleOne(ctx context.Context, blog *Blog) (*BlogResponse, error) {
	out, err := s.assemble(ctx, []Blog{*blog})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// assemble fills derived fields with one query per field kind.
func (s *Service) assemble(ctx context.Context, blogs []Blog) ([]BlogResponse, error) {
	out := make([]BlogResponse, 0, len(blogs))
	if len(blogs) == 0 {
		return out, nil
	}

	ids := make([]string, 0, len(blogs))
	authorIDs := make([]string, 0, len(blogs))
	for i := range blogs {
		ids = append(ids, blogs[i].ID)
		authorIDs = append(authorIDs, blogs[i].AuthorID)
	}

	authors, err := s.authors.Authors(ctx, authorIDs)
	if err != nil {
		return nil, fmt.Errorf("assemble blogs: authors: %w", err)
	}

	counts, err := s.repo.CommentCounts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("assemble blogs: %w", err)
	}

	pdfs, err := s.repo.PDFInfo(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("assemble blogs: %w", err)
	}

	for i := range blogs {
		b := &blogs[i]

		author, ok := authors[b.AuthorID]
		if !ok {
			s.logger.Error("blog author missing", "blog_id", b.ID, "author_id", b.AuthorID)
			author = user.Author{ID: b.AuthorID, ProfileImageURL: user.DefaultProfileImage}
		}

		tags := []string(b.Tags)
		if tags == nil {
			tags = []string{}
		}

		resp := BlogResponse{
			ID:           b.ID,
			Title:        b.Title,
			Content:      b.Content,
			Tags:         tags,
			Summary:      b.Summary,
			AudioURL:     b.AudioURL,
			Author:       author,
			CommentCount: counts[b.ID],
			HasAudio:     b.HasAudio(),
			CreatedAt:    b.CreatedAt,
			UpdatedAt:    b.UpdatedAt,
		}

		if info, ok := pdfs[b.ID]; ok {
			pdfID := info.PDFID
			resp.PDFID = &pdfID
			resp.HasPaidPDF = info.IsPaid
			if info.IsPaid && info.PriceCents != nil {
				price := info.PriceCents.Amount()
				resp.PDFPrice = &price
			}
		}

		out = append(out, resp)
	}

	return out, nil
}

func emptyToNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
