// AngelaMos | 2026
// repository.go

package blog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/bloghub/internal/core"
)

type Repository interface {
	Create(ctx context.Context, blog *Blog) error
	GetByID(ctx context.Context, id string) (*Blog, error)
	Update(ctx context.Context, blog *Blog) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, params ListBlogsParams) ([]Blog, int, error)
	CommentCounts(ctx context.Context, blogIDs []string) (map[string]int, error)
	PDFInfo(ctx context.Context, blogIDs []string) (map[string]PDFInfo, error)
	Count(ctx context.Context) (int, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const blogColumns = `b.id, b.title, b.content, b.author_id, b.tags,
		       b.summary, b.audio_url, b.created_at, b.updated_at`

func (r *repository) Create(ctx context.Context, blog *Blog) error {
	query := `
		INSERT INTO blogs (id, title, content, author_id, tags, summary, audio_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		blog.ID,
		blog.Title,
		blog.Content,
		blog.AuthorID,
		blog.Tags,
		blog.Summary,
		blog.AudioURL,
	).Scan(&blog.CreatedAt, &blog.UpdatedAt)
	if err != nil {
		if core.IsForeignKeyViolation(err) {
			return fmt.Errorf("create blog: author: %w", core.ErrNotFound)
		}
		return fmt.Errorf("create blog: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Blog, error) {
	query := `SELECT ` + blogColumns + ` FROM blogs b WHERE b.id = $1`

	var blog Blog
	err := r.db.GetContext(ctx, &blog, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get blog: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get blog: %w", err)
	}

	return &blog, nil
}

func (r *repository) Update(ctx context.Context, blog *Blog) error {
	query := `
		UPDATE blogs
		SET title = $2, content = $3, tags = $4, summary = $5,
		    audio_url = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		blog.ID,
		blog.Title,
		blog.Content,
		blog.Tags,
		blog.Summary,
		blog.AudioURL,
	).Scan(&blog.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update blog: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update blog: %w", err)
	}

	return nil
}

// Delete refuses while any transaction references the article. Otherwise
// comments and PDFs go with it in the same database transaction.
func (r *repository) Delete(ctx context.Context, id string) error {
	return core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var referenced bool
		err := tx.GetContext(ctx, &referenced,
			`SELECT EXISTS (SELECT 1 FROM transactions WHERE blog_id = $1)`, id)
		if err != nil {
			return fmt.Errorf("delete blog: check transactions: %w", err)
		}
		if referenced {
			return fmt.Errorf("delete blog: purchases reference it: %w", core.ErrConflict)
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM comments WHERE blog_id = $1`, id); err != nil {
			return fmt.Errorf("delete blog: comments: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM pdfs WHERE blog_id = $1`, id); err != nil {
			if core.IsForeignKeyViolation(err) {
				return fmt.Errorf("delete blog: pdfs: %w", core.ErrConflict)
			}
			return fmt.Errorf("delete blog: pdfs: %w", err)
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM blogs WHERE id = $1`, id)
		if err != nil {
			if core.IsForeignKeyViolation(err) {
				return fmt.Errorf("delete blog: %w", core.ErrConflict)
			}
			return fmt.Errorf("delete blog: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete blog: %w", err)
		}
		if rows == 0 {
			return fmt.Errorf("delete blog: %w", core.ErrNotFound)
		}

		return nil
	})
}

func (r *repository) List(
	ctx context.Context,
	params ListBlogsParams,
) ([]Blog, int, error) {
	params.Normalize()

	conditions := []string{"TRUE"}
	var args []any
	argIdx := 1

	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(b.title ILIKE $%d OR b.content ILIKE $%d)", argIdx, argIdx))
		args = append(args, "%"+core.EscapeLike(params.Search)+"%")
		argIdx++
	}

	if tags := normalizeTags(params.Tags); len(tags) > 0 {
		conditions = append(conditions, fmt.Sprintf("b.tags && $%d", argIdx))
		args = append(args, tags)
		argIdx++
	}

	if params.Author != "" {
		conditions = append(conditions, fmt.Sprintf("u.name ILIKE $%d", argIdx))
		args = append(args, "%"+core.EscapeLike(params.Author)+"%")
		argIdx++
	}

	if params.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("b.created_at >= $%d", argIdx))
		args = append(args, *params.DateFrom)
		argIdx++
	}

	if params.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("b.created_at <= $%d", argIdx))
		args = append(args, *params.DateTo)
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM blogs b
		JOIN users u ON u.id = b.author_id
		WHERE %s`, whereClause)

	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count blogs: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT `+blogColumns+`
		FROM blogs b
		JOIN users u ON u.id = b.author_id
		WHERE %s
		ORDER BY b.created_at DESC, b.id
		LIMIT $%d OFFSET $%d`, whereClause, argIdx, argIdx+1)

	args = append(args, params.PageSize, params.Offset())

	var blogs []Blog
	if err := r.db.SelectContext(ctx, &blogs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list blogs: %w", err)
	}

	return blogs, total, nil
}

func (r *repository) CommentCounts(
	ctx context.Context,
	blogIDs []string,
) (map[string]int, error) {
	out := make(map[string]int, len(blogIDs))
	if len(blogIDs) == 0 {
		return out, nil
	}

	query, args, err := core.InQuery(`
		SELECT blog_id, COUNT(*) AS count
		FROM comments
		WHERE blog_id IN (?)
		GROUP BY blog_id`, blogIDs)
	if err != nil {
		return nil, fmt.Errorf("comment counts: %w", err)
	}

	var rows []struct {
		BlogID string `db:"blog_id"`
		Count  int    `db:"count"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("comment counts: %w", err)
	}

	for _, row := range rows {
		out[row.BlogID] = row.Count
	}
	return out, nil
}

// PDFInfo picks one document per article, paid before free, oldest first.
func (r *repository) PDFInfo(
	ctx context.Context,
	blogIDs []string,
) (map[string]PDFInfo, error) {
	out := make(map[string]PDFInfo, len(blogIDs))
	if len(blogIDs) == 0 {
		return out, nil
	}

	query, args, err := core.InQuery(`
		SELECT DISTINCT ON (blog_id) blog_id, id, is_paid, price_cents
		FROM pdfs
		WHERE blog_id IN (?)
		ORDER BY blog_id, is_paid DESC, created_at ASC`, blogIDs)
	if err != nil {
		return nil, fmt.Errorf("pdf info: %w", err)
	}

	var rows []PDFInfo
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("pdf info: %w", err)
	}

	for _, row := range rows {
		out[row.BlogID] = row
	}
	return out, nil
}

func (r *repository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM blogs`); err != nil {
		return 0, fmt.Errorf("count blogs: %w", err)
	}
	return count, nil
}
