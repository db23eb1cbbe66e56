// AngelaMos | 2026
// service.go

package pdf

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/bloghub/internal/access"
	"github.com/carterperez-dev/bloghub/internal/core"
)

// Entitlements answers whether a user has paid for a document.
type Entitlements interface {
	HasPaid(ctx context.Context, userID, pdfID string) (bool, error)
}

type Service struct {
	repo         Repository
	entitlements Entitlements
	logger       *slog.Logger
}

func NewService(repo Repository, entitlements Entitlements, logger *slog.Logger) *Service {
	return &Service{repo: repo, entitlements: entitlements, logger: logger}
}

// Create attaches a document to an article. A price is required for
// paid documents and discarded for free ones.
func (s *Service) Create(
	ctx context.Context,
	actor *access.Principal,
	blogID string,
	req CreatePDFRequest,
) (*PDFResponse, error) {
	if err := access.Authorize(actor, access.ManagePDF); err != nil {
		return nil, fmt.Errorf("create pdf: %w", err)
	}

	p := &PDF{
		ID:     uuid.New().String(),
		BlogID: blogID,
		URL:    strings.TrimSpace(req.URL),
		IsPaid: req.IsPaid,
	}

	if req.IsPaid {
		if req.Price == nil {
			return nil, fmt.Errorf("create pdf: %w",
				core.Invalid("price is required for paid pdfs"))
		}
		cents, err := core.CentsFromAmount(*req.Price)
		if err != nil {
			return nil, fmt.Errorf("create pdf: %w", err)
		}
		p.PriceCents = &cents
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info("pdf created", "pdf_id", p.ID, "blog_id", blogID, "is_paid", p.IsPaid)

	resp := toResponse(p, true)
	return &resp, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*PDF, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByBlog(ctx context.Context, blogID string) ([]PDFResponse, error) {
	pdfs, err := s.repo.ListByBlog(ctx, blogID)
	if err != nil {
		return nil, err
	}

	out := make([]PDFResponse, 0, len(pdfs))
	for i := range pdfs {
		out = append(out, toResponse(&pdfs[i], false))
	}
	return out, nil
}

// Access returns the download url. Paid documents need a settled
// purchase by the caller, or an admin.
func (s *Service) Access(
	ctx context.Context,
	actor *access.Principal,
	id string,
) (*AccessResponse, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	op := access.ReadFreePDF
	if p.IsPaid {
		entitled := false
		if actor.Authenticated() && !actor.IsAdmin() {
			entitled, err = s.entitlements.HasPaid(ctx, actor.SubjectID, p.ID)
			if err != nil {
				return nil, fmt.Errorf("pdf access: %w", err)
			}
		}
		op = access.ReadPaidPDF(entitled)
	}

	if err := access.Authorize(actor, op); err != nil {
		return nil, fmt.Errorf("pdf access: %w", err)
	}

	return &AccessResponse{
		ID:     p.ID,
		BlogID: p.BlogID,
		URL:    p.URL,
		IsPaid: p.IsPaid,
	}, nil
}

func (s *Service) CountByKind(ctx context.Context) (int, int, error) {
	return s.repo.CountByKind(ctx)
}
