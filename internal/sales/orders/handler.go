package orders

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-crm/internal/masterdata/products"
	"github.com/odyssey-erp/odyssey-crm/internal/platform/listing"
	"github.com/odyssey-erp/odyssey-crm/internal/sales/customers"
	"github.com/odyssey-erp/odyssey-crm/internal/sales/pricing"
	"github.com/odyssey-erp/odyssey-crm/internal/shared"
	"github.com/odyssey-erp/odyssey-crm/internal/view"
)

// CustomerLister feeds the customer picker.
type CustomerLister interface {
	List(ctx context.Context) ([]customers.Customer, error)
}

// CatalogSource feeds the product picker.
type CatalogSource interface {
	Catalog(ctx context.Context) ([]products.CatalogItem, error)
}

// PDFRenderer turns an HTML document into a PDF.
type PDFRenderer interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

type Handler struct {
	logger    *slog.Logger
	service   *Service
	customers CustomerLister
	catalog   CatalogSource
	templates *view.Engine
	csrf      *shared.CSRFManager
	pdf       PDFRenderer
}

func NewHandler(
	logger *slog.Logger,
	service *Service,
	customers CustomerLister,
	catalog CatalogSource,
	templates *view.Engine,
	csrf *shared.CSRFManager,
	pdf PDFRenderer,
) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		customers: customers,
		catalog:   catalog,
		templates: templates,
		csrf:      csrf,
		pdf:       pdf,
	}
}

type formErrors map[string]string

type lineForm struct {
	ProductID    string
	Units        string
	PricePerUnit string
}

// LineTotal is the display total of the row, blank when the row cannot be
// priced yet.
func (l lineForm) LineTotal() string {
	units, err := strconv.Atoi(l.Units)
	if err != nil {
		return ""
	}
	price, err := shared.ParseMoney(l.PricePerUnit)
	if err != nil {
		return ""
	}
	return shared.FormatMoney(pricing.LineTotal(units, price))
}

type orderForm struct {
	ID               string
	CustomerID       string
	BillingName      string
	BillingEmail     string
	BillingAddress   string
	Term             string
	StartDate        string
	EndDate          string
	OneTimeFee       string
	AccountExecutive string
	Status           string
	Notes            string
	Lines            []lineForm
}

type listPage struct {
	Orders []Order
	Total  int
	Query  listing.Query
}

type formPage struct {
	Form      orderForm
	Errors    formErrors
	IsEdit    bool
	Action    string
	Customers []customers.Customer
	Catalog   []products.CatalogItem
	Terms     []Term
	Statuses  []Status
	BlankLine lineForm
}

func formFromOrder(o *Order) orderForm {
	form := orderForm{
		ID:               o.ID,
		CustomerID:       o.CustomerID,
		BillingName:      o.BillingContact.Name,
		BillingEmail:     o.BillingContact.Email,
		BillingAddress:   o.BillingContact.Address,
		Term:             string(o.Term),
		StartDate:        o.StartDate.Format("2006-01-02"),
		EndDate:          o.EndDate.Format("2006-01-02"),
		OneTimeFee:       o.OneTimeFee.StringFixed(2),
		AccountExecutive: o.AccountExecutive,
		Status:           string(o.Status),
		Notes:            o.Notes,
	}
	for _, l := range o.Products {
		form.Lines = append(form.Lines, lineForm{
			ProductID:    l.ProductID,
			Units:        strconv.Itoa(l.Units),
			PricePerUnit: l.PricePerUnit.StringFixed(2),
		})
	}
	return form
}

func formFromRequest(r *http.Request) orderForm {
	form := orderForm{
		CustomerID:       r.PostFormValue("customerId"),
		BillingName:      strings.TrimSpace(r.PostFormValue("billingContact.name")),
		BillingEmail:     strings.TrimSpace(r.PostFormValue("billingContact.email")),
		BillingAddress:   strings.TrimSpace(r.PostFormValue("billingContact.address")),
		Term:             r.PostFormValue("term"),
		StartDate:        r.PostFormValue("startDate"),
		EndDate:          r.PostFormValue("endDate"),
		OneTimeFee:       strings.TrimSpace(r.PostFormValue("oneTimeFee")),
		AccountExecutive: strings.TrimSpace(r.PostFormValue("accountExecutive")),
		Status:           r.PostFormValue("status"),
		Notes:            strings.TrimSpace(r.PostFormValue("notes")),
	}
	productIDs := r.PostForm["productId"]
	units := r.PostForm["units"]
	prices := r.PostForm["pricePerUnit"]
	for i := range productIDs {
		line := lineForm{ProductID: strings.TrimSpace(productIDs[i])}
		if i < len(units) {
			line.Units = strings.TrimSpace(units[i])
		}
		if i < len(prices) {
			line.PricePerUnit = strings.TrimSpace(prices[i])
		}
		// untouched rows are ignored
		if line.ProductID == "" && line.Units == "" && line.PricePerUnit == "" {
			continue
		}
		form.Lines = append(form.Lines, line)
	}
	return form
}

// parsed holds the typed values of a submitted form.
type parsed struct {
	contact    BillingContactInput
	startDate  Date
	endDate    *Date
	oneTimeFee decimal.Decimal
	lines      []LineInput
}

func (f orderForm) parse() (parsed, error) {
	var p parsed
	p.contact = BillingContactInput{Name: f.BillingName, Email: f.BillingEmail, Address: f.BillingAddress}

	start, err := ParseDate(f.StartDate)
	if err != nil {
		return p, shared.NewValidationError("startDate", "Start date is invalid")
	}
	p.startDate = start
	if strings.TrimSpace(f.EndDate) != "" {
		end, err := ParseDate(f.EndDate)
		if err != nil {
			return p, shared.NewValidationError("endDate", "End date is invalid")
		}
		p.endDate = &end
	}
	if p.oneTimeFee, err = shared.ParseMoney(f.OneTimeFee); err != nil {
		return p, shared.NewValidationError("oneTimeFee", "One-time fee must be a number")
	}

	p.lines = make([]LineInput, 0, len(f.Lines))
	for i, l := range f.Lines {
		units, err := strconv.Atoi(l.Units)
		if err != nil {
			return p, shared.NewValidationError(fmt.Sprintf("products[%d].units", i), "Units must be a whole number")
		}
		in := LineInput{ProductID: l.ProductID, Units: units}
		if l.PricePerUnit != "" {
			price, err := shared.ParseMoney(l.PricePerUnit)
			if err != nil {
				return p, shared.NewValidationError(fmt.Sprintf("products[%d].pricePerUnit", i), "Price per unit must be a number")
			}
			in.PricePerUnit = &price
		}
		p.lines = append(p.lines, in)
	}
	return p, nil
}

// List renders the orders table.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	query := listing.ParseQuery(r.URL.Query())
	orders, err := h.service.Search(r.Context(), query)
	if err != nil {
		h.logger.Error("list orders failed", "error", err)
		http.Error(w, "Failed to load orders", http.StatusInternalServerError)
		return
	}
	h.render(w, r, "orders_index", "Orders", listPage{Orders: orders, Total: len(orders), Query: query}, http.StatusOK)
}

// Show renders one order with its totals.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	order, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.notFoundOrError(w, err, id)
		return
	}
	h.render(w, r, "orders_show", "Order", order, http.StatusOK)
}

// ShowForm renders the create form with one empty line.
func (h *Handler) ShowForm(w http.ResponseWriter, r *http.Request) {
	form := orderForm{
		Term:       string(TermMonthly),
		Status:     string(StatusPending),
		OneTimeFee: "0.00",
		Lines:      []lineForm{{Units: "1"}},
	}
	h.renderForm(w, r, form, formErrors{}, http.StatusOK)
}

// Create handles order creation.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	form := formFromRequest(r)
	p, err := form.parse()
	if err != nil {
		h.renderForm(w, r, form, errorsFor(err), http.StatusUnprocessableEntity)
		return
	}

	order, err := h.service.Create(r.Context(), CreateOrderRequest{
		CustomerID:       form.CustomerID,
		BillingContact:   p.contact,
		Term:             Term(form.Term),
		StartDate:        p.startDate,
		EndDate:          p.endDate,
		OneTimeFee:       p.oneTimeFee,
		AccountExecutive: form.AccountExecutive,
		Status:           Status(form.Status),
		Notes:            form.Notes,
		Products:         p.lines,
	})
	if err != nil {
		h.logger.Error("create order failed", "error", err)
		h.renderForm(w, r, form, errorsFor(err), failureStatus(err))
		return
	}
	h.redirectWithFlash(w, r, "/orders/"+order.ID, shared.FlashSuccess, "Order created successfully")
}

// ShowEditForm renders the edit form.
func (h *Handler) ShowEditForm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	order, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.notFoundOrError(w, err, id)
		return
	}
	h.renderForm(w, r, formFromOrder(order), formErrors{}, http.StatusOK)
}

// Update handles order edits. The submitted lines replace the stored ones.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	form := formFromRequest(r)
	form.ID = id
	p, err := form.parse()
	if err != nil {
		h.renderForm(w, r, form, errorsFor(err), http.StatusUnprocessableEntity)
		return
	}

	existing, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.notFoundOrError(w, err, id)
		return
	}
	term, status := Term(form.Term), Status(form.Status)
	if staleEndDate(existing, term, p.startDate, p.endDate) {
		p.endDate = nil
	}
	req := UpdateOrderRequest{
		BillingContact:   &p.contact,
		Term:             &term,
		StartDate:        &p.startDate,
		EndDate:          p.endDate,
		OneTimeFee:       &p.oneTimeFee,
		AccountExecutive: &form.AccountExecutive,
		Status:           &status,
		Notes:            &form.Notes,
		Products:         &p.lines,
	}
	if _, err := h.service.Update(r.Context(), id, req); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.notFoundOrError(w, err, id)
			return
		}
		h.logger.Error("update order failed", "error", err, "id", id)
		h.renderForm(w, r, form, errorsFor(err), failureStatus(err))
		return
	}
	h.redirectWithFlash(w, r, "/orders/"+id, shared.FlashSuccess, "Order updated successfully")
}

// staleEndDate reports whether the submitted end date is just the one the edit
// form was rendered with while the term or start date moved. Such a value is
// re-derived instead of being kept as an override.
func staleEndDate(existing *Order, term Term, start Date, end *Date) bool {
	if end == nil || !end.Time.Equal(existing.EndDate) {
		return false
	}
	return term != existing.Term || !start.Time.Equal(existing.StartDate)
}

// PDF exports the order summary as a PDF document.
func (h *Handler) PDF(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	order, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.notFoundOrError(w, err, id)
		return
	}
	if h.pdf == nil {
		http.Error(w, "PDF export is not configured", http.StatusServiceUnavailable)
		return
	}

	var html bytes.Buffer
	if err := h.templates.Execute(&html, "orders_pdf", order); err != nil {
		h.logger.Error("render order pdf template", "error", err, "id", id)
		http.Error(w, "Failed to export order", http.StatusInternalServerError)
		return
	}
	doc, err := h.pdf.RenderHTML(r.Context(), html.String())
	if err != nil {
		h.logger.Error("render order pdf", "error", err, "id", id)
		http.Error(w, "Failed to export order", http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=order-%s.pdf", order.ID))
	_, _ = w.Write(doc)
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, form orderForm, errs formErrors, status int) {
	title, action := "New Order", "/orders"
	if form.ID != "" {
		title, action = "Edit Order", "/orders/"+form.ID+"/edit"
	}
	page := formPage{
		Form:      form,
		Errors:    errs,
		IsEdit:    form.ID != "",
		Action:    action,
		Terms:     Terms,
		Statuses:  Statuses,
		BlankLine: lineForm{Units: "1"},
	}

	var err error
	if page.Customers, err = h.customers.List(r.Context()); err != nil {
		h.logger.Error("load customers for order form", "error", err)
		http.Error(w, "Failed to load customers", http.StatusInternalServerError)
		return
	}
	if page.Catalog, err = h.catalog.Catalog(r.Context()); err != nil {
		h.logger.Error("load catalog for order form", "error", err)
		http.Error(w, "Failed to load products", http.StatusInternalServerError)
		return
	}
	if form.ID != "" {
		page.Catalog = h.withOrderedProducts(r.Context(), form.ID, page.Catalog)
	}
	h.render(w, r, "orders_form", title, page, status)
}

// withOrderedProducts keeps products that were since deactivated selectable
// on the orders that already use them.
func (h *Handler) withOrderedProducts(ctx context.Context, orderID string, catalog []products.CatalogItem) []products.CatalogItem {
	order, err := h.service.Get(ctx, orderID)
	if err != nil {
		return catalog
	}
	seen := make(map[string]bool, len(catalog))
	for _, item := range catalog {
		seen[item.ID] = true
	}
	for _, l := range order.Products {
		if l.Product == nil || seen[l.ProductID] {
			continue
		}
		seen[l.ProductID] = true
		catalog = append(catalog, products.CatalogItem{
			ID:       l.Product.ID,
			Name:     l.Product.Name,
			Category: l.Product.Category,
			Price:    l.Product.Price,
		})
	}
	return catalog
}

func (h *Handler) notFoundOrError(w http.ResponseWriter, err error, id string) {
	if errors.Is(err, shared.ErrNotFound) {
		http.Error(w, "Order not found", http.StatusNotFound)
		return
	}
	h.logger.Error("get order failed", "error", err, "id", id)
	http.Error(w, "Failed to load order", http.StatusInternalServerError)
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
