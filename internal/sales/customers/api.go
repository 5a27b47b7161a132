package customers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-crm/internal/platform/httpx"
)

// API serves customers as JSON.
type API struct {
	logger  *slog.Logger
	service *Service
}

func NewAPI(logger *slog.Logger, service *Service) *API {
	return &API{logger: logger, service: service}
}

func (a *API) List(w http.ResponseWriter, r *http.Request) {
	customers, err := a.service.List(r.Context())
	if err != nil {
		a.fail(w, err, "fetch customers", "")
		return
	}
	httpx.JSON(w, http.StatusOK, customers)
}

func (a *API) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateCustomerRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		a.fail(w, err, "create customer", "")
		return
	}
	customer, err := a.service.Create(r.Context(), req)
	if err != nil {
		a.fail(w, err, "create customer", "")
		return
	}
	httpx.JSON(w, http.StatusCreated, customer)
}

func (a *API) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	customer, err := a.service.Get(r.Context(), id)
	if err != nil {
		a.fail(w, err, "fetch customer", id)
		return
	}
	httpx.JSON(w, http.StatusOK, customer)
}

func (a *API) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req UpdateCustomerRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		a.fail(w, err, "update customer", id)
		return
	}
	customer, err := a.service.Update(r.Context(), id, req)
	if err != nil {
		a.fail(w, err, "update customer", id)
		return
	}
	httpx.JSON(w, http.StatusOK, customer)
}

func (a *API) fail(w http.ResponseWriter, err error, action, id string) {
	if httpx.Status(err) >= http.StatusInternalServerError {
		a.logger.Error(action+" failed", "error", err, "id", id)
	}
	httpx.RespondError(w, err, "Customer", action)
}
