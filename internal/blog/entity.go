// AngelaMos | 2026
// entity.go

package blog

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/carterperez-dev/bloghub/internal/core"
)

type Blog struct {
	ID        string    `db:"id"`
	Title     string    `db:"title"`
	Content   string    `db:"content"`
	AuthorID  string    `db:"author_id"`
	Tags      Tags      `db:"tags"`
	Summary   string    `db:"summary"`
	AudioURL  *string   `db:"audio_url"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (b *Blog) HasAudio() bool {
	return b.AudioURL != nil && *b.AudioURL != ""
}

// Tags maps a Postgres text[] column through pgtype so it works with
// database/sql scanning.
type Tags []string

func (t *Tags) Scan(src any) error {
	if src == nil {
		*t = Tags{}
		return nil
	}

	var out []string
	if err := pgtype.NewMap().SQLScanner(&out).Scan(src); err != nil {
		return fmt.Errorf("scan tags: %w", err)
	}
	*t = out
	return nil
}

func (t Tags) Value() (driver.Value, error) {
	values := []string(t)
	if values == nil {
		values = []string{}
	}

	buf, err := pgtype.NewMap().Encode(
		pgtype.TextArrayOID,
		pgtype.TextFormatCode,
		values,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("encode tags: %w", err)
	}
	return string(buf), nil
}

// PDFInfo is the premium-document view of an article: the document a
// reader would be offered, preferring a paid one.
type PDFInfo struct {
	BlogID     string      `db:"blog_id"`
	PDFID      string      `db:"id"`
	IsPaid     bool        `db:"is_paid"`
	PriceCents *core.Cents `db:"price_cents"`
}
