// AngelaMos | 2026
// entity.go

package pdf

import (
	"time"

	"github.com/carterperez-dev/bloghub/internal/core"
)

type PDF struct {
	ID         string      `db:"id"`
	BlogID     string      `db:"blog_id"`
	URL        string      `db:"url"`
	IsPaid     bool        `db:"is_paid"`
	PriceCents *core.Cents `db:"price_cents"`
	CreatedAt  time.Time   `db:"created_at"`
	UpdatedAt  time.Time   `db:"updated_at"`
}

// Purchasable reports whether the document can be sold. Free documents
// and paid ones without a price never are.
func (p *PDF) Purchasable() bool {
	return p.IsPaid && p.PriceCents != nil && *p.PriceCents > 0
}
