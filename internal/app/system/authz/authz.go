// internal/app/system/authz/authz.go
package authz

import (
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ChasovDS/konkursant-grants/internal/app/system/auth"
	"github.com/ChasovDS/konkursant-grants/internal/domain/roles"
)

// UserCtx returns the user's role, name, Mongo ObjectID, and a found flag.
// If no user is present in context or the user ID is malformed, it returns
// the least-privileged role, "", NilObjectID, false. Callers can trust
// that ok=true means a valid, authenticated user with a valid ObjectID.
func UserCtx(r *http.Request) (role roles.Role, name string, userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return roles.User, "", primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		// Malformed user ID in session; fail closed.
		return roles.User, "", primitive.NilObjectID, false
	}
	return user.Role, user.Name, userID, true
}

// IsAdminTier reports whether the current request's user may perform
// administrative operations (admins and moderators).
func IsAdminTier(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role.IsAdminTier()
}

// CanOperateEvents reports whether the current user may create and
// manage events (admin tier plus event managers).
func CanOperateEvents(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role.IsEventTier()
}

// CanReview reports whether the current user may read reviews and
// rubric summaries (event tier plus experts).
func CanReview(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role.IsReviewTier()
}

// IsExpert reports whether the current request's user is an expert.
// Only experts hold the review write path.
func IsExpert(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == roles.Expert
}
