// internal/app/features/events/routes.go
package events

import (
	"github.com/go-chi/chi/v5"

	"github.com/ChasovDS/konkursant-grants/internal/app/system/auth"
	"github.com/ChasovDS/konkursant-grants/internal/domain/roles"
)

// Routes mounts the event routes under the base path (typically
// "/events" from bootstrap).
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	// Reading events and attaching projects is open to any signed-in
	// account; the attach handler enforces ownership itself.
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.Get("/", h.ServeList)
		pr.Get("/{event_id}", h.ServeGet)
		pr.Get("/{event_id}/projects", h.ServeProjects)

		pr.Patch("/{event_id}/project/{project_id}", h.HandleAttachProject)
		pr.Delete("/{event_id}/project/{project_id}", h.HandleDetachProject)
	})

	// Event tier: creation, content, rosters.
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole(roles.Admin, roles.Moderator, roles.EventManager))

		pr.Post("/", h.HandleCreate)
		pr.Patch("/{event_id}", h.HandleUpdate)
		pr.Delete("/{event_id}", h.HandleDelete)

		pr.Patch("/{event_id}/{roster}/{user_id}", h.HandleAssign)
		pr.Delete("/{event_id}/{roster}/{user_id}", h.HandleUnassign)
	})

	return r
}
