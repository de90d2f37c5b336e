// internal/app/policy/projectpolicy/projectpolicy.go
package projectpolicy

import (
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ChasovDS/konkursant-grants/internal/app/system/authz"
)

// CanView reports whether the current request user may read the full
// project document:
// - Admin tier always can
// - Review tier (event managers, experts) can, for scoring work
// - The author can read their own project
func CanView(r *http.Request, authorID primitive.ObjectID) bool {
	role, _, uid, ok := authz.UserCtx(r)
	if !ok {
		return false
	}
	if role.IsReviewTier() {
		return true
	}
	return uid == authorID
}

// CanEdit reports whether the current request user may modify or delete
// the project: the author, or the admin tier.
func CanEdit(r *http.Request, authorID primitive.ObjectID) bool {
	role, _, uid, ok := authz.UserCtx(r)
	if !ok {
		return false
	}
	if role.IsAdminTier() {
		return true
	}
	return uid == authorID
}
