// AngelaMos | 2026
// dto.go

package blog

import (
	"strings"
	"time"

	"github.com/carterperez-dev/bloghub/internal/user"
)

type CreateBlogRequest struct {
	Title    string   `json:"title"    validate:"required,min=1,max=200"`
	Content  string   `json:"content"  validate:"required,min=1"`
	Tags     []string `json:"tags"     validate:"max=20,dive,min=1,max=40"`
	AudioURL *string  `json:"audioUrl" validate:"omitempty,url"`
}

type UpdateBlogRequest struct {
	Title    *string   `json:"title"    validate:"omitempty,min=1,max=200"`
	Content  *string   `json:"content"  validate:"omitempty,min=1"`
	Tags     *[]string `json:"tags"     validate:"omitempty,max=20,dive,min=1,max=40"`
	AudioURL *string   `json:"audioUrl" validate:"omitempty,url"`
}

type BlogResponse struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	Content      string      `json:"content"`
	Tags         []string    `json:"tags"`
	Summary      string      `json:"summary"`
	AudioURL     *string     `json:"audioUrl,omitempty"`
	Author       user.Author `json:"author"`
	CommentCount int         `json:"commentCount"`
	HasPaidPDF   bool        `json:"hasPaidPdf"`
	HasAudio     bool        `json:"hasAudio"`
	PDFID        *string     `json:"pdfId,omitempty"`
	PDFPrice     *float64    `json:"pdfPrice,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

type ListBlogsParams struct {
	Page     int
	PageSize int
	Search   string
	Tags     []string
	Author   string
	DateFrom *time.Time
	DateTo   *time.Time
}

func (p *ListBlogsParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
	p.Search = strings.TrimSpace(p.Search)
	p.Author = strings.TrimSpace(p.Author)
}

func (p *ListBlogsParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func normalizeTags(tags []string) Tags {
	seen := make(map[string]struct{}, len(tags))
	out := make(Tags, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
