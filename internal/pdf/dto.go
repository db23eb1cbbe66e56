// AngelaMos | 2026
// dto.go

package pdf

import (
	"time"
)

type CreatePDFRequest struct {
	URL    string   `json:"url"    validate:"required,url"`
	IsPaid bool     `json:"isPaid"`
	Price  *float64 `json:"price"  validate:"omitempty,gt=0"`
}

type PDFResponse struct {
	ID        string    `json:"id"`
	BlogID    string    `json:"blogId"`
	URL       string    `json:"url,omitempty"`
	IsPaid    bool      `json:"isPaid"`
	Price     *float64  `json:"price,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type AccessResponse struct {
	ID     string `json:"id"`
	BlogID string `json:"blogId"`
	URL    string `json:"url"`
	IsPaid bool   `json:"isPaid"`
}

// toResponse hides the url of paid documents unless withURL is set.
func toResponse(p *PDF, withURL bool) PDFResponse {
	resp := PDFResponse{
		ID:        p.ID,
		BlogID:    p.BlogID,
		IsPaid:    p.IsPaid,
		CreatedAt: p.CreatedAt,
	}
	if withURL || !p.IsPaid {
		resp.URL = p.URL
	}
	if p.PriceCents != nil {
		price := p.PriceCents.Amount()
		resp.Price = &price
	}
	return resp
}
