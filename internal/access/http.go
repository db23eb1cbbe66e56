// AngelaMos | 2026
// http.go

package access

import (
	"context"
	"net/http"

	"github.com/carterperez-dev/bloghub/internal/core"
	"github.com/carterperez-dev/bloghub/internal/middleware"
)

func FromContext(ctx context.Context) *Principal {
	id := middleware.GetUserID(ctx)
	if id == "" {
		return nil
	}
	return &Principal{SubjectID: id, Role: middleware.GetUserRole(ctx)}
}

// Require gates a route on an operation whose decision does not depend
// on the target resource.
func Require(op Operation) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch Decide(FromContext(r.Context()), op) {
			case Allow:
				next.ServeHTTP(w, r)
			case DenyUnauthenticated:
				core.JSONError(w, core.UnauthorizedError(""))
			default:
				core.JSONError(w, core.ForbiddenError(""))
			}
		})
	}
}
