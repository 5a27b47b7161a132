package products

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-crm/internal/platform/httpx"
)

// API serves products as JSON.
type API struct {
	logger  *slog.Logger
	service *Service
}

func NewAPI(logger *slog.Logger, service *Service) *API {
	return &API{logger: logger, service: service}
}

// MountRoutes registers the JSON endpoints; mount under /api.
func (a *API) MountRoutes(r chi.Router) {
	r.Get("/products", a.List)
	r.Post("/products", a.Create)
	r.Get("/products/catalog", a.Catalog)
	r.Get("/products/{id}", a.Get)
	r.Put("/products/{id}", a.Update)
}

func (a *API) List(w http.ResponseWriter, r *http.Request) {
	products, err := a.service.List(r.Context())
	if err != nil {
		a.fail(w, err, "fetch products", "")
		return
	}
	httpx.JSON(w, http.StatusOK, products)
}

// Catalog returns the active products offered on the order form.
func (a *API) Catalog(w http.ResponseWriter, r *http.Request) {
	items, err := a.service.Catalog(r.Context())
	if err != nil {
		a.fail(w, err, "fetch catalog", "")
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (a *API) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		a.fail(w, err, "create product", "")
		return
	}
	product, err := a.service.Create(r.Context(), req)
	if err != nil {
		a.fail(w, err, "create product", "")
		return
	}
	httpx.JSON(w, http.StatusCreated, product)
}

func (a *API) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	product, err := a.service.Get(r.Context(), id)
	if err != nil {
		a.fail(w, err, "fetch product", id)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (a *API) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req UpdateProductRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		a.fail(w, err, "update product", id)
		return
	}
	product, err := a.service.Update(r.Context(), id, req)
	if err != nil {
		a.fail(w, err, "update product", id)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (a *API) fail(w http.ResponseWriter, err error, action, id string) {
	if httpx.Status(err) >= http.StatusInternalServerError {
		a.logger.Error(action+" failed", "error", err, "id", id)
	}
	httpx.RespondError(w, err, "Product", action)
}
