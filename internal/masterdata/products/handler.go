package products

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

// Handler exposes HTTP endpoints for product master data.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
}

// NewHandler creates a new product handler.
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

type productForm struct {
	ID          string
	Name        string
	Description string
	Category    string
	Price       string
	Status      string
}

type listPage struct {
	Products []Product
	Total    int
	Query    listing.Query
}

type formPage struct {
	Form       productForm
	Errors     map[string]string
	IsEdit     bool
	Action     string
	Categories []Category
	Statuses   []Status
}

func formFromProduct(p *Product) productForm {
	return productForm{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Category:    string(p.Category),
		Price:       p.Price.StringFixed(2),
		Status:      string(p.Status),
	}
}

func formFromRequest(r *http.Request) productForm {
	return productForm{
		Name:        strings.TrimSpace(r.PostFormValue("name")),
		Description: strings.TrimSpace(r.PostFormValue("description")),
		Category:    r.PostFormValue("category"),
		Price:       strings.TrimSpace(r.PostFormValue("price")),
		Status:      r.PostFormValue("status"),
	}
}

// List renders the product table.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	query := listing.ParseQuery(r.URL.Query())
	products, err := h.service.Search(r.Context(), query)
	if err != nil {
		h.logger.Error("list products failed", "error", err)
		http.Error(w, "Failed to load products", http.StatusInternalServerError)
		return
	}
	h.render(w, r, "products_index", "Products", listPage{Products: products, Total: len(products), Query: query}, http.StatusOK)
}

// Form renders the create form.
func (h *Handler) Form(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, productForm{Status: string(StatusActive), Price: "0.00"}, map[string]string{}, http.StatusOK)
}

// Create handles product creation.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	form := formFromRequest(r)
	price, err := shared.ParseMoney(form.Price)
	if err != nil {
		h.renderForm(w, r, form, errorsFor(shared.NewValidationError("price", "Price must be a number")), http.StatusUnprocessableEntity)
		return
	}

	_, err = h.service.Create(r.Context(), CreateProductRequest{
		Name:        form.Name,
		Description: form.Description,
		Category:    Category(form.Category),
		Price:       price,
		Status:      Status(form.Status),
	})
	if err != nil {
		h.logger.Error("create product failed", "error", err)
		h.renderForm(w, r, form, errorsFor(err), failureStatus(err))
		return
	}
	h.redirectWithFlash(w, r, "/products", shared.FlashSuccess, "Product created successfully")
}

// EditForm renders the edit form.
func (h *Handler) EditForm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	product, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.notFoundOrError(w, err, id)
		return
	}
	h.renderForm(w, r, formFromProduct(product), map[string]string{}, http.StatusOK)
}

// Update handles product updates.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	form := formFromRequest(r)
	form.ID = id
	price, err := shared.ParseMoney(form.Price)
	if err != nil {
		h.renderForm(w, r, form, errorsFor(shared.NewValidationError("price", "Price must be a number")), http.StatusUnprocessableEntity)
		return
	}

	category, status := Category(form.Category), Status(form.Status)
	_, err = h.service.Update(r.Context(), id, UpdateProductRequest{
		Name:        &form.Name,
		Description: &form.Description,
		Category:    &category,
		Price:       &price,
		Status:      &status,
	})
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.notFoundOrError(w, err, id)
			return
		}
		h.logger.Error("update product failed", "error", err, "id", id)
		h.renderForm(w, r, form, errorsFor(err), failureStatus(err))
		return
	}
	h.redirectWithFlash(w, r, "/products", shared.FlashSuccess, "Product updated successfully")
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, form productForm, errs map[string]string, status int) {
	title, action := "New Product", "/products"
	if form.ID != "" {
		title, action = "Edit Product", "/products/"+form.ID+"/edit"
	}
	h.render(w, r, "products_form", title, formPage{
		Form:       form,
		Errors:     errs,
		IsEdit:     form.ID != "",
		Action:     action,
		Categories: Categories,
		Statuses:   Statuses,
	}, status)
}

func (h *Handler) notFoundOrError(w http.ResponseWriter, err error, id string) {
	if errors.Is(err, shared.ErrNotFound) {
		http.Error(w, "Product not found", http.StatusNotFound)
		return
	}
	h.logger.Error("get product failed", "error", err, "id", id)
	http.Error(w, "Failed to load product", http.StatusInternalServerError)
}

func errorsFor(err error) map[string]string {
	errs := map[string]string{"general": shared.UserSafeMessage(err)}
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

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template, title string, data any, status int) {
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
	if err := h.templates.RenderStatus(w, status, template, viewData); err != nil {
		h.logger.Error("render template", slog.Any("error", err), slog.String("template", template))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}
