package orders

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-crm/internal/platform/httpx"
)

// API serves orders as JSON.
type API struct {
	logger  *slog.Logger
	service *Service
}

func NewAPI(logger *slog.Logger, service *Service) *API {
	return &API{logger: logger, service: service}
}

func (a *API) List(w http.ResponseWriter, r *http.Request) {
	orders, err := a.service.List(r.Context())
	if err != nil {
		a.fail(w, err, "fetch orders", "")
		return
	}
	httpx.JSON(w, http.StatusOK, orders)
}

func (a *API) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		a.fail(w, err, "create order", "")
		return
	}
	order, err := a.service.Create(r.Context(), req)
	if err != nil {
		a.fail(w, err, "create order", "")
		return
	}
	httpx.JSON(w, http.StatusCreated, order)
}

func (a *API) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	order, err := a.service.Get(r.Context(), id)
	if err != nil {
		a.fail(w, err, "fetch order", id)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (a *API) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req UpdateOrderRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		a.fail(w, err, "update order", id)
		return
	}
	order, err := a.service.Update(r.Context(), id, req)
	if err != nil {
		a.fail(w, err, "update order", id)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (a *API) fail(w http.ResponseWriter, err error, action, id string) {
	if httpx.Status(err) >= http.StatusInternalServerError {
		a.logger.Error(action+" failed", "error", err, "id", id)
	}
	httpx.RespondError(w, err, "Order", action)
}
