package orders

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-crm/internal/masterdata/products"
	"github.com/odyssey-erp/odyssey-crm/internal/sales/customers"
	"github.com/odyssey-erp/odyssey-crm/internal/shared"
	"github.com/odyssey-erp/odyssey-crm/internal/view"
)

type fakePDF struct {
	html string
	err  error
}

func (p *fakePDF) RenderHTML(ctx context.Context, html string) ([]byte, error) {
	p.html = html
	if p.err != nil {
		return nil, p.err
	}
	return []byte("%PDF-1.7"), nil
}

type handlerFixture struct {
	router     http.Handler
	service    *Service
	pdf        *fakePDF
	customerID string
	p1, p2     string
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	sessions := shared.NewSessionManager(client, "test_session", "secret", time.Hour, false)

	engine, err := view.NewEngine()
	require.NoError(t, err)

	store := openTestStore(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()
	customerSvc := customers.NewService(customers.NewRepository(store.DB))
	productSvc := products.NewService(products.NewRepository(store.DB), nil, logger)
	acme, err := customerSvc.Create(ctx, customers.CreateCustomerRequest{CompanyName: "Acme Corp", ContactName: "John Doe", Email: "john@acme.com"})
	require.NoError(t, err)
	p1, err := productSvc.Create(ctx, products.CreateProductRequest{Name: "Basic Plan", Category: products.CategorySubscription, Price: decimal.NewFromInt(10)})
	require.NoError(t, err)
	p2, err := productSvc.Create(ctx, products.CreateProductRequest{Name: "Onboarding", Category: products.CategoryService, Price: decimal.NewFromInt(25)})
	require.NoError(t, err)

	svc := NewService(NewRepository(store.DB), customerSvc, productSvc, logger)
	pdf := &fakePDF{}
	h := NewHandler(logger, svc, customerSvc, productSvc, engine, shared.NewCSRFManager("csrf"), pdf)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			sess, err := sessions.Load(req.Context(), req)
			require.NoError(t, err)
			ctx := shared.ContextWithSession(req.Context(), sess)
			next.ServeHTTP(w, req.WithContext(ctx))
			require.NoError(t, sessions.Commit(ctx, httptest.NewRecorder(), req, sess))
		})
	})
	h.MountRoutes(r)
	return &handlerFixture{router: r, service: svc, pdf: pdf, customerID: acme.ID, p1: p1.ID, p2: p2.ID}
}

func (f *handlerFixture) post(path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *handlerFixture) get(path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *handlerFixture) validForm() url.Values {
	return url.Values{
		"customerId":             {f.customerID},
		"billingContact.name":    {"Jane Smith"},
		"billingContact.email":   {"billing@acme.com"},
		"billingContact.address": {"123 Business Ave"},
		"term":                   {"monthly"},
		"startDate":              {"2024-01-31"},
		"endDate":                {""},
		"oneTimeFee":             {"1,000.00"},
		"accountExecutive":       {"Sam Seller"},
		"status":                 {"kick-off"},
		"notes":                  {"Priority onboarding"},
		"productId":              {f.p1, f.p2, ""},
		"units":                  {"2", "1", ""},
		"pricePerUnit":           {"", "20.00", ""},
	}
}

func (f *handlerFixture) onlyOrder(t *testing.T) Order {
	t.Helper()
	orders, err := f.service.List(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	return orders[0]
}

func TestHandlerCreateOrder(t *testing.T) {
	f := newHandlerFixture(t)
	cookie := &http.Cookie{Name: "test_session", Value: "6f1c2a5e-0000-4000-8000-000000000002"}

	rec := f.post("/orders", f.validForm(), cookie)
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())

	order := f.onlyOrder(t)
	assert.Equal(t, "/orders/"+order.ID, rec.Header().Get("Location"))
	require.Len(t, order.Products, 2)
	assert.Equal(t, "10.00", order.Products[0].PricePerUnit.StringFixed(2), "blank price takes the catalog price")
	assert.Equal(t, "20.00", order.Products[1].PricePerUnit.StringFixed(2))
	assert.Equal(t, "1040.00", order.Total.StringFixed(2))
	assert.Equal(t, StatusKickOff, order.Status)
	// Jan 31 + 1 month rolls over like time.AddDate
	assert.True(t, order.EndDate.Equal(time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)), order.EndDate.String())

	page := f.get("/orders/"+order.ID, cookie)
	require.Equal(t, http.StatusOK, page.Code)
	body := page.Body.String()
	assert.Contains(t, body, "Order created successfully")
	assert.Contains(t, body, "Acme Corp")
	assert.Contains(t, body, "1,040.00")
}

func TestHandlerCreateOrderInvalidKeepsInput(t *testing.T) {
	f := newHandlerFixture(t)
	form := f.validForm()
	form.Set("billingContact.email", "not-an-email")

	rec := f.post("/orders", form)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Billing contact email must be a valid email address")
	assert.Contains(t, body, `value="not-an-email"`)
	assert.Contains(t, body, `value="Sam Seller"`)

	orders, err := f.service.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestHandlerCreateOrderWithoutLines(t *testing.T) {
	f := newHandlerFixture(t)
	form := f.validForm()
	form["productId"] = []string{""}
	form["units"] = []string{""}
	form["pricePerUnit"] = []string{""}

	rec := f.post("/orders", form)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "At least one product is required")

	form = f.validForm()
	form.Set("units", "two")
	rec = f.post("/orders", form)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Units must be a whole number")
}

func TestHandlerEditOrderReplacesLines(t *testing.T) {
	f := newHandlerFixture(t)
	require.Equal(t, http.StatusSeeOther, f.post("/orders", f.validForm()).Code)
	order := f.onlyOrder(t)

	page := f.get("/orders/" + order.ID + "/edit")
	require.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), "Update Order")

	form := f.validForm()
	form["productId"] = []string{f.p2}
	form["units"] = []string{"3"}
	form["pricePerUnit"] = []string{"25"}
	form.Set("endDate", "2024-12-31")
	form.Set("status", "live")
	rec := f.post("/orders/"+order.ID+"/edit", form)
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())

	updated := f.onlyOrder(t)
	require.Len(t, updated.Products, 1)
	assert.Equal(t, f.p2, updated.Products[0].ProductID)
	assert.Equal(t, StatusLive, updated.Status)
	assert.True(t, updated.EndDate.Equal(time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)))
	assert.True(t, updated.OrderDate.Equal(order.OrderDate))

	assert.Equal(t, http.StatusNotFound, f.get("/orders/not-a-uuid/edit").Code)
}

func TestHandlerEditOrderRederivesRenderedEndDate(t *testing.T) {
	f := newHandlerFixture(t)
	require.Equal(t, http.StatusSeeOther, f.post("/orders", f.validForm()).Code)
	order := f.onlyOrder(t)
	rendered := order.EndDate.Format("2006-01-02")
	assert.Contains(t, f.get("/orders/"+order.ID+"/edit").Body.String(), `value="`+rendered+`"`)

	form := f.validForm()
	form.Set("term", "2-year")
	form.Set("endDate", rendered)
	rec := f.post("/orders/"+order.ID+"/edit", form)
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())

	updated := f.onlyOrder(t)
	assert.Equal(t, TermTwoYear, updated.Term)
	assert.True(t, updated.EndDate.Equal(time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)), updated.EndDate.String())

	// same term and start date: the submitted end date is an override
	form.Set("endDate", "2026-06-30")
	require.Equal(t, http.StatusSeeOther, f.post("/orders/"+order.ID+"/edit", form).Code)
	updated = f.onlyOrder(t)
	assert.True(t, updated.EndDate.Equal(time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)), updated.EndDate.String())
}

func TestHandlerListSearch(t *testing.T) {
	f := newHandlerFixture(t)
	for _, exec := range []string{"Alice Adams", "Bob Brown"} {
		form := f.validForm()
		form.Set("accountExecutive", exec)
		require.Equal(t, http.StatusSeeOther, f.post("/orders", form).Code)
	}

	rec := f.get("/orders?q=bob&sort=accountExecutive&dir=desc")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Bob Brown")
	assert.NotContains(t, body, "Alice Adams")
	assert.Contains(t, body, "1 order(s)")
}

func TestHandlerPDF(t *testing.T) {
	f := newHandlerFixture(t)
	require.Equal(t, http.StatusSeeOther, f.post("/orders", f.validForm()).Code)
	order := f.onlyOrder(t)

	rec := f.get("/orders/" + order.ID + "/pdf")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, "%PDF-1.7", rec.Body.String())
	assert.Contains(t, f.pdf.html, "Basic Plan")
	assert.Contains(t, f.pdf.html, "1,040.00")

	f.pdf.err = errors.New("gotenberg down")
	rec = f.get("/orders/" + order.ID + "/pdf")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
