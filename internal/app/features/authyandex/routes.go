// internal/app/features/authyandex/routes.go
package authyandex

import "github.com/go-chi/chi/v5"

// Routes mounts the Yandex OAuth routes under the base path
// (typically "/auth/yandex" from bootstrap).
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeLogin)
	r.Get("/callback", h.ServeCallback)
	return r
}
