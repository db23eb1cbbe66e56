// AngelaMos | 2026
// policy_test.go

package access

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/bloghub/internal/core"
	"github.com/carterperez-dev/bloghub/internal/middleware"
)

var (
	anon   *Principal
	reader = &Principal{SubjectID: "u-1", Role: "user"}
	other  = &Principal{SubjectID: "u-2", Role: "user"}
	admin  = &Principal{SubjectID: "a-1", Role: RoleAdmin}
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name string
		p    *Principal
		op   Operation
		want Decision
	}{
		{"anonymous reads article", anon, ReadArticle, Allow},
		{"anonymous lists articles", anon, ListArticles, Allow},
		{"anonymous reads comments", anon, ReadComments, Allow},
		{"anonymous reads free pdf", anon, ReadFreePDF, Allow},

		{"anonymous creates article", anon, CreateArticle, DenyUnauthenticated},
		{"user creates article", reader, CreateArticle, DenyForbidden},
		{"admin creates article", admin, CreateArticle, Allow},
		{"user deletes article", reader, DeleteArticle, DenyForbidden},
		{"user manages pdf", reader, ManagePDF, DenyForbidden},

		{"anonymous comments", anon, CreateComment, DenyUnauthenticated},
		{"user comments", reader, CreateComment, Allow},

		{"owner edits comment", reader, EditComment("u-1"), Allow},
		{"stranger edits comment", other, EditComment("u-1"), DenyForbidden},
		{"admin edits comment", admin, EditComment("u-1"), Allow},
		{"owner deletes comment", reader, DeleteComment("u-1"), Allow},
		{"stranger deletes comment", other, DeleteComment("u-1"), DenyForbidden},
		{"empty owner never matches", &Principal{SubjectID: "x"}, DeleteComment(""), DenyForbidden},

		{"anonymous paid pdf", anon, ReadPaidPDF(false), DenyUnauthenticated},
		{"buyer paid pdf", reader, ReadPaidPDF(true), Allow},
		{"non-buyer paid pdf", reader, ReadPaidPDF(false), DenyForbidden},
		{"admin paid pdf", admin, ReadPaidPDF(false), Allow},

		{"user initiates purchase", reader, InitiatePurchase, Allow},
		{"anonymous verifies purchase", anon, VerifyPurchase, DenyUnauthenticated},
		{"user sees analytics", reader, ViewAnalytics, DenyForbidden},
		{"admin sees transactions", admin, ViewTransactions, Allow},
		{"blank subject is anonymous", &Principal{Role: RoleAdmin}, ViewAdminStats, DenyUnauthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.p, tt.op))
		})
	}
}

func TestAuthorizeWrapsSentinels(t *testing.T) {
	err := Authorize(anon, CreateComment)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrUnauthorized))
	assert.Contains(t, err.Error(), "create-comment")

	err = Authorize(reader, CreateArticle)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrForbidden))

	assert.NoError(t, Authorize(admin, CreateArticle))
}

func TestRequire(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	gate := Require(CreateArticle)(next)

	tests := []struct {
		name   string
		claims *middleware.SessionClaims
		want   int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"user", &middleware.SessionClaims{UserID: "u-1", Role: "user"}, http.StatusForbidden},
		{"admin", &middleware.SessionClaims{UserID: "a-1", Role: RoleAdmin}, http.StatusTeapot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/blogs", nil)
			if tt.claims != nil {
				req = req.WithContext(middleware.WithClaims(req.Context(), tt.claims))
			}
			rec := httptest.NewRecorder()

			gate.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestFromContextAnonymous(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Nil(t, FromContext(req.Context()))
	assert.False(t, FromContext(req.Context()).Authenticated())
}
