// internal/app/features/profile/routes.go
package profile

import (
	"github.com/go-chi/chi/v5"

	"github.com/ChasovDS/konkursant-grants/internal/app/system/auth"
	"github.com/ChasovDS/konkursant-grants/internal/domain/roles"
)

// Routes mounts the profile and user-management routes under the base
// path (typically "/users" from bootstrap).
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	// Own profile
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/me", h.ServeMe)
		pr.Patch("/me", h.HandleUpdateMe)
	})

	// Admin tier: user listing and per-user profile management
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole(roles.Admin, roles.Moderator))
		pr.Get("/", h.ServeList)
		pr.Get("/{user_id}/profile", h.ServeUser)
		pr.Put("/{user_id}/profile", h.HandleUpdateUser)
		pr.Delete("/{user_id}/profile", h.HandleDeleteUser)
	})

	// Admin only: role changes
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole(roles.Admin))
		pr.Patch("/{user_id}/role", h.HandleSetRole)
	})

	return r
}
