// AngelaMos | 2026
// analytics.go

package admin

import (
	"context"
	"fmt"

	"github.com/carterperez-dev/bloghub/internal/purchase"
)

type RevenueSource interface {
	Revenue(ctx context.Context) (*purchase.RevenueReport, error)
}

type Counter interface {
	Count(ctx context.Context) (int, error)
}

type PDFCounter interface {
	CountByKind(ctx context.Context) (paid int, free int, err error)
}

type PDFBreakdown struct {
	Paid int `json:"paid"`
	Free int `json:"free"`
}

type AnalyticsResponse struct {
	TotalRevenue   float64                           `json:"totalRevenue"`
	MonthlyRevenue []purchase.MonthlyRevenueResponse `json:"monthlyRevenue"`
	TopPDFs        []purchase.TopPDFResponse         `json:"topPdfs"`
	PDFs           PDFBreakdown                      `json:"pdfs"`
	TotalBlogs     int                               `json:"totalBlogs"`
	TotalDownloads int                               `json:"totalDownloads"`
	TotalUsers     int                               `json:"totalUsers"`
	ActiveUsers    int                               `json:"activeUsers"`
}

// Analytics gathers the dashboard numbers. Each figure is read
// independently, so they may be a few writes apart.
type Analytics struct {
	revenue RevenueSource
	blogs   Counter
	users   Counter
	pdfs    PDFCounter
}

func NewAnalytics(revenue RevenueSource, blogs, users Counter, pdfs PDFCounter) *Analytics {
	return &Analytics{revenue: revenue, blogs: blogs, users: users, pdfs: pdfs}
}

func (a *Analytics) Report(ctx context.Context) (*AnalyticsResponse, error) {
	rev, err := a.revenue.Revenue(ctx)
	if err != nil {
		return nil, fmt.Errorf("analytics: %w", err)
	}

	blogs, err := a.blogs.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("analytics: %w", err)
	}

	users, err := a.users.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("analytics: %w", err)
	}

	paid, free, err := a.pdfs.CountByKind(ctx)
	if err != nil {
		return nil, fmt.Errorf("analytics: %w", err)
	}

	return &AnalyticsResponse{
		TotalRevenue:   rev.TotalRevenue,
		MonthlyRevenue: rev.MonthlyRevenue,
		TopPDFs:        rev.TopPDFs,
		PDFs:           PDFBreakdown{Paid: paid, Free: free},
		TotalBlogs:     blogs,
		TotalDownloads: rev.PaidDownloads,
		TotalUsers:     users,
		ActiveUsers:    rev.Buyers,
	}, nil
}
