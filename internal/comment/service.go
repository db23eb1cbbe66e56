// AngelaMos | 2026
// service.go

package comment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/bloghub/internal/access"
	"github.com/carterperez-dev/bloghub/internal/blog"
	"github.com/carterperez-dev/bloghub/internal/core"
	"github.com/carterperez-dev/bloghub/internal/notify"
	"github.com/carterperez-dev/bloghub/internal/user"
)

type BlogLookup interface {
	GetByID(ctx context.Context, id string) (*blog.Blog, error)
}

type UserLookup interface {
	GetUser(ctx context.Context, id string) (*user.User, error)
	Authors(ctx context.Context, ids []string) (map[string]user.Author, error)
}

type Notifier interface {
	Notify(ctx context.Context, msg notify.Message) bool
}

type Service struct {
	repo      Repository
	blogs     BlogLookup
	users     UserLookup
	notifier  Notifier
	publicURL string
	logger    *slog.Logger
}

func NewService(
	repo Repository,
	blogs BlogLookup,
	users UserLookup,
	notifier Notifier,
	publicURL string,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:      repo,
		blogs:     blogs,
		users:     users,
		notifier:  notifier,
		publicURL: strings.TrimRight(publicURL, "/"),
		logger:    logger,
	}
}

// Create stores the comment and tells the article's author about it,
// unless they wrote it themselves.
func (s *Service) Create(
	ctx context.Context,
	actor *access.Principal,
	req CreateCommentRequest,
) (*CommentResponse, error) {
	if err := access.Authorize(actor, access.CreateComment); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, fmt.Errorf("create comment: %w", core.Invalid("text is required"))
	}

	article, err := s.blogs.GetByID(ctx, req.BlogID)
	if err != nil {
		return nil, err
	}

	commenter, err := s.users.GetUser(ctx, actor.SubjectID)
	if err != nil {
		return nil, fmt.Errorf("create comment: commenter: %w", err)
	}

	c := &Comment{
		ID:     uuid.New().String(),
		BlogID: article.ID,
		UserID: commenter.ID,
		Text:   text,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	if article.AuthorID != commenter.ID {
		s.notifyAuthor(ctx, article, commenter, c)
	}

	resp := toResponse(c, commenter.AsAuthor())
	return &resp, nil
}

func (s *Service) notifyAuthor(
	ctx context.Context,
	article *blog.Blog,
	commenter *user.User,
	c *Comment,
) {
	author, err := s.users.GetUser(ctx, article.AuthorID)
	if err != nil {
		s.logger.Warn("comment notification skipped",
			"blog_id", article.ID,
			"error", err,
		)
		return
	}

	s.notifier.Notify(ctx, notify.NewComment(
		author.Email,
		author.Name,
		commenter.Name,
		article.Title,
		c.Text,
		s.publicURL+"/blogs/"+article.ID,
	))
}

func (s *Service) Update(
	ctx context.Context,
	actor *access.Principal,
	id string,
	req UpdateCommentRequest,
) (*CommentResponse, error) {
	if !actor.Authenticated() {
		return nil, fmt.Errorf("update comment: %w", core.ErrUnauthorized)
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, fmt.Errorf("update comment: %w", core.Invalid("text is required"))
	}

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := access.Authorize(actor, access.EditComment(existing.UserID)); err != nil {
		return nil, fmt.Errorf("update comment: %w", err)
	}

	updated, err := s.repo.UpdateText(ctx, id, text)
	if err != nil {
		return nil, err
	}

	out, err := s.withAuthors(ctx, []Comment{*updated})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

func (s *Service) Delete(
	ctx context.Context,
	actor *access.Principal,
	id string,
) error {
	if !actor.Authenticated() {
		return fmt.Errorf("delete comment: %w", core.ErrUnauthorized)
	}

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := access.Authorize(actor, access.DeleteComment(existing.UserID)); err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}

	return s.repo.Delete(ctx, id)
}

// ListByBlog returns the article's comments newest first.
func (s *Service) ListByBlog(
	ctx context.Context,
	blogID string,
) ([]CommentResponse, error) {
	if _, err := s.blogs.GetByID(ctx, blogID); err != nil {
		return nil, err
	}

	comments, err := s.repo.ListByBlog(ctx, blogID)
	if err != nil {
		return nil, err
	}

	return s.withAuthors(ctx, comments)
}

func (s *Service) withAuthors(
	ctx context.Context,
	comments []Comment,
) ([]CommentResponse, error) {
	out := make([]CommentResponse, 0, len(comments))
	if len(comments) == 0 {
		return out, nil
	}

	ids := make([]string, 0, len(comments))
	for i := range comments {
		ids = append(ids, comments[i].UserID)
	}

	authors, err := s.users.Authors(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("comment authors: %w", err)
	}

	for i := range comments {
		c := &comments[i]
		author, ok := authors[c.UserID]
		if !ok {
			s.logger.Error("comment author missing",
				"comment_id", c.ID,
				"user_id", c.UserID,
			)
			author = user.Author{ID: c.UserID, ProfileImageURL: user.DefaultProfileImage}
		}
		out = append(out, toResponse(c, author))
	}

	return out, nil
}
