package products

import "github.com/go-chi/chi/v5"

// MountRoutes registers the server-rendered pages.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/products", h.List)
	r.Get("/products/new", h.Form)
	r.Post("/products", h.Create)
	r.Get("/products/{id}/edit", h.EditForm)
	r.Post("/products/{id}/edit", h.Update)
}
