package customers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-crm/internal/platform/listing"
	"github.com/odyssey-erp/odyssey-crm/internal/shared"
	"github.com/odyssey-erp/odyssey-crm/internal/view"
)

type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
}

func NewHandler(
	logger *slog.Logger,
	service *Service,
	templates *view.Engine,
	csrf *shared.CSRFManager,
) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		templates: templates,
		csrf:      csrf,
	}
}

type formErrors map[string]string

// customerForm mirrors the form inputs so rejected submissions re-render with
// what the user typed.
type customerForm struct {
	ID          string
	CompanyName string
	ContactName string
	Email       string
	Phone       string
	Industry    string
	Address     string
	Status      string
}

type listPage struct {
	Customers []Customer
	Total     int
	Query     listing.Query
}

type formPage struct {
	Form       customerForm
	Errors     formErrors
	IsEdit     bool
	Action     string
	Statuses   []Status
	Industries []string
}

func formFromCustomer(c *Customer) customerForm {
	return customerForm{
		ID:          c.ID,
		CompanyName: c.CompanyName,
		ContactName: c.ContactName,
		Email:       c.Email,
		Phone:       c.Phone,
		Industry:    c.Industry,
		Address:     c.Address,
		Status:      string(c.Status),
	}
}

func formFromRequest(r *http.Request) customerForm {
	return customerForm{
		CompanyName: strings.TrimSpace(r.PostFormValue("companyName")),
		ContactName: strings.TrimSpace(r.PostFormValue("contactName")),
		Email:       strings.TrimSpace(r.PostFormValue("email")),
		Phone:       strings.TrimSpace(r.PostFormValue("phone")),
		Industry:    strings.TrimSpace(r.PostFormValue("industry")),
		Address:     strings.TrimSpace(r.PostFormValue("address")),
		Status:      strings.TrimSpace(r.PostFormValue("status")),
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	query := listing.ParseQuery(r.URL.Query())
	customers, err := h.service.Search(r.Context(), query)
	if err != nil {
		h.logger.Error("list customers failed", "error", err)
		http.Error(w, "Failed to load customers", http.StatusInternalServerError)
		return
	}

	h.render(w, r, "customers_index", "Customers", listPage{
		Customers: customers,
		Total:     len(customers),
		Query:     query,
	}, http.StatusOK)
}

func (h *Handler) ShowForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, customerForm{Status: string(StatusInImplementation)}, formErrors{}, http.StatusOK)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	form := formFromRequest(r)
	_, err := h.service.Create(r.Context(), CreateCustomerRequest{
		CompanyName: form.CompanyName,
		ContactName: form.ContactName,
		Email:       form.Email,
		Phone:       form.Phone,
		Industry:    form.Industry,
		Address:     form.Address,
		Status:      Status(form.Status),
	})
	if err != nil {
		h.logger.Error("create customer failed", "error", err)
		h.renderForm(w, r, form, errorsFor(err), failureStatus(err))
		return
	}

	h.redirectWithFlash(w, r, "/customers", shared.FlashSuccess, "Customer created successfully")
}

func (h *Handler) ShowEditForm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	customer, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.notFoundOrError(w, err, id)
		return
	}
	h.renderForm(w, r, formFromCustomer(customer), formErrors{}, http.StatusOK)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	form := formFromRequest(r)
	form.ID = id
	status := Status(form.Status)
	_, err := h.service.Update(r.Context(), id, UpdateCustomerRequest{
		CompanyName: &form.CompanyName,
		ContactName: &form.ContactName,
		Email:       &form.Email,
		Phone:       &form.Phone,
		Industry:    &form.Industry,
		Address:     &form.Address,
		Status:      &status,
	})
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.notFoundOrError(w, err, id)
			return
		}
		h.logger.Error("update customer failed", "error", err, "id", id)
		h.renderForm(w, r, form, errorsFor(err), failureStatus(err))
		return
	}

	h.redirectWithFlash(w, r, "/customers", shared.FlashSuccess, "Customer updated successfully")
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, form customerForm, errs formErrors, status int) {
	title, action := "New Customer", "/customers"
	if form.ID != "" {
		title, action = "Edit Customer", "/customers/"+form.ID+"/edit"
	}
	h.render(w, r, "customers_form", title, formPage{
		Form:       form,
		Errors:     errs,
		IsEdit:     form.ID != "",
		Action:     action,
		Statuses:   Statuses,
		Industries: Industries,
	}, status)
}

func (h *Handler) notFoundOrError(w http.ResponseWriter, err error, id string) {
	if errors.Is(err, shared.ErrNotFound) {
		http.Error(w, "Customer not found", http.StatusNotFound)
		return
	}
	h.logger.Error("get customer failed", "error", err, "id", id)
	http.Error(w, "Failed to load customer", http.StatusInternalServerError)
}

func errorsFor(err error) formErrors {
	errs := formErrors{"general": shared.UserSafeMessage(err)}
	if verr, ok := shared.AsValidation(err); ok {
		for field, msg := range verr.Fields {
			errs[field] = msg
		}
	}
	return errs
}

func failureStatus(err error) int {
	if errors.Is(err, shared.ErrValidation) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// Helpers
func (h *Handler) render(w http.ResponseWriter, r *http.Request, tmpl, title string, data any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)

	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}

	viewData := view.TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        data,
	}

	if err := h.templates.RenderStatus(w, status, tmpl, viewData); err != nil {
		h.logger.Error("template render failed", "error", err, "template", tmpl)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, url, flashType, message string) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: flashType, Message: message})
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}
