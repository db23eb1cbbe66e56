// AngelaMos | 2026
// service_test.go

package pdf

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/bloghub/internal/access"
	"github.com/carterperez-dev/bloghub/internal/core"
)

type memRepo struct {
	pdfs map[string]*PDF
}

func (m *memRepo) Create(_ context.Context, p *PDF) error {
	if p.BlogID == "missing" {
		return core.ErrNotFound
	}
	cp := *p
	m.pdfs[p.ID] = &cp
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id string) (*PDF, error) {
	p, ok := m.pdfs[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memRepo) ListByBlog(_ context.Context, blogID string) ([]PDF, error) {
	var out []PDF
	for _, p := range m.pdfs {
		if p.BlogID == blogID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memRepo) CountByKind(context.Context) (int, int, error) {
	paid, free := 0, 0
	for _, p := range m.pdfs {
		if p.IsPaid {
			paid++
		} else {
			free++
		}
	}
	return paid, free, nil
}

type entitlementStub struct {
	paid  map[string]bool
	calls int
	err   error
}

func (e *entitlementStub) HasPaid(_ context.Context, userID, pdfID string) (bool, error) {
	e.calls++
	return e.paid[userID+"/"+pdfID], e.err
}

func cents(c core.Cents) *core.Cents { return &c }

var (
	admin  = &access.Principal{SubjectID: "admin-1", Role: access.RoleAdmin}
	buyer  = &access.Principal{SubjectID: "buyer", Role: "user"}
	reader = &access.Principal{SubjectID: "reader", Role: "user"}
)

func newFixture() (*Service, *memRepo, *entitlementStub) {
	repo := &memRepo{pdfs: map[string]*PDF{
		"free": {ID: "free", BlogID: "b1", URL: "https://cdn.test/free.pdf"},
		"paid": {ID: "paid", BlogID: "b1", URL: "https://cdn.test/paid.pdf", IsPaid: true, PriceCents: cents(999)},
	}}
	ent := &entitlementStub{paid: map[string]bool{"buyer/paid": true}}
	return NewService(repo, ent, slog.New(slog.NewTextHandler(io.Discard, nil))), repo, ent
}

func TestAccess(t *testing.T) {
	tests := []struct {
		name    string
		actor   *access.Principal
		id      string
		wantErr error
	}{
		{"anonymous free", nil, "free", nil},
		{"anonymous paid", nil, "paid", core.ErrUnauthorized},
		{"non-buyer paid", reader, "paid", core.ErrForbidden},
		{"buyer paid", buyer, "paid", nil},
		{"admin paid", admin, "paid", nil},
		{"missing", buyer, "nope", core.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newFixture()

			resp, err := svc.Access(context.Background(), tt.actor, tt.id)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, resp.URL, tt.id+".pdf")
		})
	}
}

func TestAccessSkipsEntitlementForAdmin(t *testing.T) {
	svc, _, ent := newFixture()

	_, err := svc.Access(context.Background(), admin, "paid")

	require.NoError(t, err)
	assert.Zero(t, ent.calls)
}

func TestAccessEntitlementError(t *testing.T) {
	svc, _, ent := newFixture()
	ent.err = errors.New("db down")

	_, err := svc.Access(context.Background(), buyer, "paid")

	require.Error(t, err)
	assert.NotErrorIs(t, err, core.ErrForbidden)
}

func TestCreate(t *testing.T) {
	price := 4.5
	zero := 0.0
	nan := math.NaN()

	tests := []struct {
		name      string
		actor     *access.Principal
		req       CreatePDFRequest
		wantErr   error
		wantCents *core.Cents
	}{
		{"user forbidden", reader, CreatePDFRequest{URL: "https://x.test/a.pdf"}, core.ErrForbidden, nil},
		{"paid without price", admin, CreatePDFRequest{URL: "https://x.test/a.pdf", IsPaid: true}, core.ErrInvalidInput, nil},
		{"paid zero price", admin, CreatePDFRequest{URL: "https://x.test/a.pdf", IsPaid: true, Price: &zero}, core.ErrInvalidInput, nil},
		{"paid nan price", admin, CreatePDFRequest{URL: "https://x.test/a.pdf", IsPaid: true, Price: &nan}, core.ErrInvalidInput, nil},
		{"free ignores price", admin, CreatePDFRequest{URL: "https://x.test/a.pdf", Price: &price}, nil, nil},
		{"paid", admin, CreatePDFRequest{URL: "https://x.test/a.pdf", IsPaid: true, Price: &price}, nil, cents(450)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _ := newFixture()

			resp, err := svc.Create(context.Background(), tt.actor, "b2", tt.req)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Len(t, repo.pdfs, 2)
				return
			}
			require.NoError(t, err)
			stored := repo.pdfs[resp.ID]
			require.NotNil(t, stored)
			assert.Equal(t, tt.wantCents, stored.PriceCents)
			assert.Equal(t, "https://x.test/a.pdf", resp.URL)
		})
	}
}

func TestListHidesPaidURLs(t *testing.T) {
	svc, _, _ := newFixture()

	out, err := svc.ListByBlog(context.Background(), "b1")
	require.NoError(t, err)
	require.Len(t, out, 2)

	for _, p := range out {
		if p.IsPaid {
			assert.Empty(t, p.URL)
			require.NotNil(t, p.Price)
			assert.InDelta(t, 9.99, *p.Price, 0.0001)
		} else {
			assert.NotEmpty(t, p.URL)
			assert.Nil(t, p.Price)
		}
	}
}
