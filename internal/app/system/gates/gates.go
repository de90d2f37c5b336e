// Package gates provides authorization gate functions for HTTP handlers.
// Gates check authentication and authorization, writing the JSON error
// envelope when checks fail.
//
// # Three-Tier Authorization Pattern
//
//  1. Route-Level Middleware (auth.RequireSignedIn, auth.RequireRole)
//     Applied in routes.go files for coarse-grained access control.
//     When middleware handles role checking, handlers don't need gates.
//
//  2. Handler-Level Gates (this package)
//     Used in handlers that need role checks WITHOUT route-level
//     middleware, or need different requirements than the route group.
//     Gates answer 401/403 themselves and return user context.
//
//  3. Policy Layer (internal/app/policy/*)
//     Resource-specific authorization requiring database lookups, such
//     as "may this user edit this particular project". Policies return
//     (bool, error) and never write responses.
//
// Don't use gates in handlers that already sit behind role middleware;
// use authz.UserCtx(r) there instead.
package gates

import (
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ChasovDS/konkursant-grants/internal/app/system/authz"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/httpjson"
	"github.com/ChasovDS/konkursant-grants/internal/domain/roles"
)

// Result contains the result of an authorization gate check.
type Result struct {
	Role   roles.Role
	Name   string
	UserID primitive.ObjectID
	OK     bool
}

// RequireAuth ensures a user is authenticated. If not, it answers 401
// and returns OK=false.
func RequireAuth(w http.ResponseWriter, r *http.Request) Result {
	role, name, uid, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "authentication required")
		return Result{OK: false}
	}
	return Result{Role: role, Name: name, UserID: uid, OK: true}
}

// RequireAdminTier ensures the user is authenticated and holds the
// admin tier (admin or moderator). Answers 401/403 on failure.
func RequireAdminTier(w http.ResponseWriter, r *http.Request) Result {
	res := RequireAuth(w, r)
	if !res.OK {
		return res
	}
	if !res.Role.IsAdminTier() {
		httpjson.Error(w, http.StatusForbidden, "insufficient role")
		return Result{OK: false}
	}
	return res
}

// RequireEventTier ensures the user may manage events (admin tier plus
// event managers). Answers 401/403 on failure.
func RequireEventTier(w http.ResponseWriter, r *http.Request) Result {
	res := RequireAuth(w, r)
	if !res.OK {
		return res
	}
	if !res.Role.IsEventTier() {
		httpjson.Error(w, http.StatusForbidden, "insufficient role")
		return Result{OK: false}
	}
	return res
}

// RequireReviewTier ensures the user may read reviews and rubric
// summaries (event tier plus experts). Answers 401/403 on failure.
func RequireReviewTier(w http.ResponseWriter, r *http.Request) Result {
	res := RequireAuth(w, r)
	if !res.OK {
		return res
	}
	if !res.Role.IsReviewTier() {
		httpjson.Error(w, http.StatusForbidden, "insufficient role")
		return Result{OK: false}
	}
	return res
}

// RequireAnyRole ensures the user is authenticated and holds one of the
// specified roles. Answers 401/403 on failure.
func RequireAnyRole(w http.ResponseWriter, r *http.Request, allowed ...roles.Role) Result {
	res := RequireAuth(w, r)
	if !res.OK {
		return res
	}
	for _, role := range allowed {
		if res.Role == role {
			return res
		}
	}
	httpjson.Error(w, http.StatusForbidden, "insufficient role")
	return Result{OK: false}
}
