// internal/app/policy/reviewpolicy/reviewpolicy.go
package reviewpolicy

import (
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ChasovDS/konkursant-grants/internal/app/system/authz"
)

// CanEdit reports whether the current request user may rewrite or
// delete the review: its author, or the admin tier. Other experts,
// including those assigned to the same project, cannot touch it.
func CanEdit(r *http.Request, reviewerID primitive.ObjectID) bool {
	role, _, uid, ok := authz.UserCtx(r)
	if !ok {
		return false
	}
	if role.IsAdminTier() {
		return true
	}
	return uid == reviewerID
}

// CanViewProjectReviews reports whether the current request user may
// read the reviews and rubric summary of the project:
// - Review tier (admins, moderators, event managers, experts)
// - The project author, who may watch their own scores
func CanViewProjectReviews(r *http.Request, authorID primitive.ObjectID) bool {
	role, _, uid, ok := authz.UserCtx(r)
	if !ok {
		return false
	}
	if role.IsReviewTier() {
		return true
	}
	return uid == authorID
}
