//go:build property

// AngelaMos | 2026
// policy_property_test.go

package access

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

var adminOps = []Operation{
	CreateArticle, UpdateArticle, DeleteArticle, ManagePDF,
	ViewAdminStats, ViewAnalytics, ViewTransactions, ManageUsers,
}

func TestNonAdminNeverPassesAdminOperations(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("only the admin role unlocks admin operations", prop.ForAll(
		func(subject, role string, idx int) bool {
			if role == RoleAdmin {
				return true
			}
			p := &Principal{SubjectID: subject, Role: role}
			return Decide(p, adminOps[idx]) != Allow
		},
		gen.AlphaString(),
		gen.AlphaString(),
		gen.IntRange(0, len(adminOps)-1),
	))

	properties.TestingRun(t)
}

func TestOwnershipDecidesCommentEdits(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("a non-admin edits exactly their own comments", prop.ForAll(
		func(subject, owner string) bool {
			p := &Principal{SubjectID: subject, Role: "user"}
			got := Decide(p, EditComment(owner))

			switch {
			case subject == "":
				return got == DenyUnauthenticated
			case owner != "" && subject == owner:
				return got == Allow
			default:
				return got == DenyForbidden
			}
		},
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.Property("the owner of a comment may always edit it", prop.ForAll(
		func(subject string) bool {
			if subject == "" {
				return true
			}
			p := &Principal{SubjectID: subject, Role: "user"}
			return Decide(p, EditComment(subject)) == Allow &&
				Decide(p, DeleteComment(subject)) == Allow
		},
		gen.AlphaString(),
	))

	properties.Property("an entitled caller always reads the paid pdf", prop.ForAll(
		func(subject string) bool {
			if subject == "" {
				return true
			}
			return Decide(&Principal{SubjectID: subject}, ReadPaidPDF(true)) == Allow
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
