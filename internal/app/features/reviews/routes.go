// internal/app/features/reviews/routes.go
package reviews

import (
	"github.com/go-chi/chi/v5"

	"github.com/ChasovDS/konkursant-grants/internal/app/system/auth"
)

// Routes wires the /reviews endpoints. Creating a review lives under
// /projects/{project_id}/reviews and is registered by the bootstrap
// router.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.Get("/project/{project_id}", h.ServeByProject)
		pr.Get("/project/{project_id}/mine", h.ServeMine)
		pr.Get("/expert/{expert_id}", h.ServeByExpert)
		pr.Put("/{review_id}", h.HandleReplace)
		pr.Delete("/{review_id}", h.HandleDelete)
	})

	return r
}
