// AngelaMos | 2026
// repository.go

package pdf

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/bloghub/internal/core"
)

type Repository interface {
	Create(ctx context.Context, p *PDF) error
	GetByID(ctx context.Context, id string) (*PDF, error)
	ListByBlog(ctx context.Context, blogID string) ([]PDF, error)
	CountByKind(ctx context.Context) (paid int, free int, err error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const pdfColumns = `id, blog_id, url, is_paid, price_cents, created_at, updated_at`

func (r *repository) Create(ctx context.Context, p *PDF) error {
	query := `
		INSERT INTO pdfs (id, blog_id, url, is_paid, price_cents)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		p.ID,
		p.BlogID,
		p.URL,
		p.IsPaid,
		p.PriceCents,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if core.IsForeignKeyViolation(err) {
			return fmt.Errorf("create pdf: blog: %w", core.ErrNotFound)
		}
		return fmt.Errorf("create pdf: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*PDF, error) {
	query := `SELECT ` + pdfColumns + ` FROM pdfs WHERE id = $1`

	var p PDF
	err := r.db.GetContext(ctx, &p, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get pdf: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get pdf: %w", err)
	}

	return &p, nil
}

func (r *repository) ListByBlog(ctx context.Context, blogID string) ([]PDF, error) {
	query := `
		SELECT ` + pdfColumns + `
		FROM pdfs
		WHERE blog_id = $1
		ORDER BY created_at ASC`

	var pdfs []PDF
	if err := r.db.SelectContext(ctx, &pdfs, query, blogID); err != nil {
		return nil, fmt.Errorf("list pdfs: %w", err)
	}

	return pdfs, nil
}

func (r *repository) CountByKind(ctx context.Context) (int, int, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE is_paid) AS paid,
			COUNT(*) FILTER (WHERE NOT is_paid) AS free
		FROM pdfs`

	var counts struct {
		Paid int `db:"paid"`
		Free int `db:"free"`
	}
	if err := r.db.GetContext(ctx, &counts, query); err != nil {
		return 0, 0, fmt.Errorf("count pdfs: %w", err)
	}

	return counts.Paid, counts.Free, nil
}
