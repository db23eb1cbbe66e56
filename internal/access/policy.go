// AngelaMos | 2026
// policy.go

// Package access decides whether a caller may perform an operation.
// Every handler that mutates state, or reads gated content, asks here
// before touching the repository.
package access

import (
	"fmt"

	"github.com/carterperez-dev/bloghub/internal/core"
)

const RoleAdmin = "admin"

// Principal is the verified identity of a caller. A nil Principal is an
// anonymous caller.
type Principal struct {
	SubjectID string
	Role      string
}

func (p *Principal) Authenticated() bool {
	return p != nil && p.SubjectID != ""
}

func (p *Principal) IsAdmin() bool {
	return p.Authenticated() && p.Role == RoleAdmin
}

type requirement int

const (
	anyone requirement = iota
	signedIn
	adminOnly
	ownerOrAdmin
	entitledOrAdmin
)

// Operation names an action and carries the facts the policy needs
// about the target resource.
type Operation struct {
	Name     string
	need     requirement
	ownerID  string
	entitled bool
}

var (
	ReadArticle  = Operation{Name: "read-article", need: anyone}
	ListArticles = Operation{Name: "list-articles", need: anyone}
	ReadComments = Operation{Name: "read-comments", need: anyone}
	ReadFreePDF  = Operation{Name: "read-free-pdf", need: anyone}

	CreateArticle = Operation{Name: "create-article", need: adminOnly}
	UpdateArticle = Operation{Name: "update-article", need: adminOnly}
	DeleteArticle = Operation{Name: "delete-article", need: adminOnly}
	ManagePDF     = Operation{Name: "manage-pdf", need: adminOnly}

	CreateComment = Operation{Name: "create-comment", need: signedIn}

	InitiatePurchase = Operation{Name: "initiate-purchase", need: signedIn}
	VerifyPurchase   = Operation{Name: "verify-purchase", need: signedIn}
	ViewOwnPurchases = Operation{Name: "view-own-purchases", need: signedIn}
	ManageOwnProfile = Operation{Name: "manage-own-profile", need: signedIn}
	ViewAdminStats   = Operation{Name: "admin-dashboard", need: adminOnly}
	ViewAnalytics    = Operation{Name: "admin-analytics", need: adminOnly}
	ViewTransactions = Operation{Name: "admin-transactions", need: adminOnly}
	ManageUsers      = Operation{Name: "admin-users", need: adminOnly}
)

func EditComment(ownerID string) Operation {
	return Operation{Name: "edit-comment", need: ownerOrAdmin, ownerID: ownerID}
}

func DeleteComment(ownerID string) Operation {
	return Operation{Name: "delete-comment", need: ownerOrAdmin, ownerID: ownerID}
}

// ReadPaidPDF is allowed when the caller holds a paid transaction for
// the document.
func ReadPaidPDF(entitled bool) Operation {
	return Operation{Name: "read-paid-pdf", need: entitledOrAdmin, entitled: entitled}
}

type Decision int

const (
	Allow Decision = iota
	DenyUnauthenticated
	DenyForbidden
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case DenyUnauthenticated:
		return "deny-unauthenticated"
	case DenyForbidden:
		return "deny-forbidden"
	default:
		return "unknown"
	}
}

func Decide(p *Principal, op Operation) Decision {
	if op.need == anyone {
		return Allow
	}

	if !p.Authenticated() {
		return DenyUnauthenticated
	}

	switch op.need {
	case signedIn:
		return Allow
	case adminOnly:
		if p.IsAdmin() {
			return Allow
		}
	case ownerOrAdmin:
		if p.IsAdmin() || (op.ownerID != "" && p.SubjectID == op.ownerID) {
			return Allow
		}
	case entitledOrAdmin:
		if p.IsAdmin() || op.entitled {
			return Allow
		}
	}

	return DenyForbidden
}

// Authorize is Decide expressed as an error wrapping core.ErrUnauthorized
// or core.ErrForbidden.
func Authorize(p *Principal, op Operation) error {
	switch Decide(p, op) {
	case Allow:
		return nil
	case DenyUnauthenticated:
		return fmt.Errorf("%s: %w", op.Name, core.ErrUnauthorized)
	default:
		return fmt.Errorf("%s: %w", op.Name, core.ErrForbidden)
	}
}
