package customers

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers the server-rendered pages.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/customers", h.List)
	r.Get("/customers/new", h.ShowForm)
	r.Post("/customers", h.Create)
	r.Get("/customers/{id}/edit", h.ShowEditForm)
	r.Post("/customers/{id}/edit", h.Update)
}

// MountRoutes registers the JSON endpoints; mount under /api.
func (a *API) MountRoutes(r chi.Router) {
	r.Get("/customers", a.List)
	r.Post("/customers", a.Create)
	r.Get("/customers/{id}", a.Get)
	r.Put("/customers/{id}", a.Update)
}
