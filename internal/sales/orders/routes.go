package orders

import "github.com/go-chi/chi/v5"

// MountRoutes registers the server-rendered pages.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/orders", h.List)
	r.Get("/orders/new", h.ShowForm)
	r.Post("/orders", h.Create)
	r.Get("/orders/{id}", h.Show)
	r.Get("/orders/{id}/edit", h.ShowEditForm)
	r.Post("/orders/{id}/edit", h.Update)
	r.Get("/orders/{id}/pdf", h.PDF)
}

// MountRoutes registers the JSON endpoints; mount under /api.
func (a *API) MountRoutes(r chi.Router) {
	r.Get("/orders", a.List)
	r.Post("/orders", a.Create)
	r.Get("/orders/{id}", a.Get)
	r.Put("/orders/{id}", a.Update)
}
