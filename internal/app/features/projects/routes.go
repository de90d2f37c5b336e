// internal/app/features/projects/routes.go
package projects

import (
	"github.com/go-chi/chi/v5"

	"github.com/ChasovDS/konkursant-grants/internal/app/system/auth"
)

// Routes mounts the project routes under the base path (typically
// "/projects" from bootstrap). Ownership checks live in the handlers;
// the router only requires a signed-in user.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.Post("/", h.HandleCreate)
		pr.Get("/", h.ServeList)

		pr.Get("/{project_id}", h.ServeGet)
		pr.Patch("/{project_id}", h.HandleUpdate)
		pr.Delete("/{project_id}", h.HandleDelete)

		pr.Get("/{project_id}/reviews/summary", h.ServeReviewSummary)
	})

	return r
}
