package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/odyssey-erp/odyssey-crm/internal/masterdata/products"
	"github.com/odyssey-erp/odyssey-crm/internal/platform/listing"
	"github.com/odyssey-erp/odyssey-crm/internal/sales/customers"
	"github.com/odyssey-erp/odyssey-crm/internal/shared"
)

// CustomerLookup resolves the customer an order belongs to.
type CustomerLookup interface {
	Get(ctx context.Context, id string) (*customers.Customer, error)
}

// ProductLookup resolves the products referenced by line items.
type ProductLookup interface {
	GetMany(ctx context.Context, ids []string) (map[string]products.Product, error)
}

// Notifier is told about newly created orders.
type Notifier interface {
	OrderCreated(ctx context.Context, orderID string) error
}

type Service struct {
	repo      Repository
	customers CustomerLookup
	products  ProductLookup
	notifier  Notifier
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo Repository, customers CustomerLookup, products ProductLookup, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		customers: customers,
		products:  products,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// SetNotifier installs the hook run after an order is created.
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

func (s *Service) Create(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	req.CustomerID = strings.TrimSpace(req.CustomerID)
	if req.CustomerID == "" {
		return nil, shared.NewValidationError("customerId", "Customer ID is required")
	}
	if len(req.Products) == 0 {
		return nil, shared.NewValidationError("products", "At least one product is required")
	}
	trimContact(&req.BillingContact)
	req.AccountExecutive = strings.TrimSpace(req.AccountExecutive)
	if err := shared.Validate(req); err != nil {
		return nil, err
	}
	if req.StartDate.IsZero() {
		return nil, shared.NewValidationError("startDate", "Start date is required")
	}

	if _, err := s.customers.Get(ctx, req.CustomerID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewValidationError("customerId", "Customer not found")
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}
	lines, err := s.buildLines(ctx, req.Products)
	if err != nil {
		return nil, err
	}

	start := req.StartDate.Time
	end := EndDateFor(start, req.Term)
	if req.EndDate != nil && !req.EndDate.IsZero() {
		end = req.EndDate.Time
	}
	if !end.After(start) {
		return nil, shared.NewValidationError("endDate", "End date must be after start date")
	}

	order := Order{
		CustomerID: req.CustomerID,
		BillingContact: BillingContact{
			Name:    req.BillingContact.Name,
			Email:   req.BillingContact.Email,
			Address: req.BillingContact.Address,
		},
		Term:             req.Term,
		StartDate:        start,
		EndDate:          end,
		OneTimeFee:       req.OneTimeFee.Round(2),
		AccountExecutive: req.AccountExecutive,
		Status:           req.Status,
		OrderDate:        s.now(),
		Notes:            req.Notes,
		Products:         lines,
	}
	if order.Status == "" {
		order.Status = StatusPending
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		return repo.Create(ctx, &order)
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	created, err := s.repo.FindByID(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	s.notifyCreated(ctx, created.ID)
	return created, nil
}

func (s *Service) Update(ctx context.Context, id string, req UpdateOrderRequest) (*Order, error) {
	if req.BillingContact != nil {
		trimContact(req.BillingContact)
	}
	if req.AccountExecutive != nil {
		trimmed := strings.TrimSpace(*req.AccountExecutive)
		req.AccountExecutive = &trimmed
	}
	if req.Products != nil && len(*req.Products) == 0 {
		return nil, shared.NewValidationError("products", "At least one product is required")
	}
	if err := shared.Validate(req); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}

	updates := req.updates()
	start, term, end := existing.StartDate, existing.Term, existing.EndDate
	if req.StartDate != nil {
		if req.StartDate.IsZero() {
			return nil, shared.NewValidationError("startDate", "Start date is required")
		}
		start = req.StartDate.Time
		updates["start_date"] = start
	}
	if req.Term != nil {
		term = *req.Term
	}
	switch {
	case req.EndDate != nil && !req.EndDate.IsZero():
		end = req.EndDate.Time
		updates["end_date"] = end
	case req.StartDate != nil || req.Term != nil:
		end = EndDateFor(start, term)
		updates["end_date"] = end
	}
	if !end.After(start) {
		return nil, shared.NewValidationError("endDate", "End date must be after start date")
	}

	var lines []OrderProduct
	if req.Products != nil {
		if lines, err = s.buildLines(ctx, *req.Products); err != nil {
			return nil, err
		}
	}
	if len(updates) == 0 && req.Products == nil {
		return existing, nil
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if len(updates) > 0 {
			if err := repo.Update(ctx, id, updates); err != nil {
				return err
			}
		}
		if req.Products != nil {
			return repo.ReplaceLines(ctx, id, lines)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}

	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return updated, nil
}

// buildLines resolves every referenced product and snapshots its current
// price onto lines that carry none.
func (s *Service) buildLines(ctx context.Context, inputs []LineInput) ([]OrderProduct, error) {
	ids := make([]string, 0, len(inputs))
	for _, in := range inputs {
		ids = append(ids, strings.TrimSpace(in.ProductID))
	}
	found, err := s.products.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}

	lines := make([]OrderProduct, 0, len(inputs))
	for i, in := range inputs {
		product, ok := found[ids[i]]
		if !ok {
			return nil, shared.NewValidationError(fmt.Sprintf("products[%d].productId", i), "Product not found")
		}
		price := product.Price
		if in.PricePerUnit != nil {
			price = *in.PricePerUnit
		}
		lines = append(lines, OrderProduct{
			ProductID:    product.ID,
			Units:        in.Units,
			PricePerUnit: price.Round(2),
		})
	}
	return lines, nil
}

func (s *Service) notifyCreated(ctx context.Context, orderID string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.OrderCreated(ctx, orderID); err != nil {
		s.logger.Warn("order created notification failed", "error", err, "id", orderID)
	}
}

func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return order, nil
}

// List returns every order with its customer and lines, newest first.
func (s *Service) List(ctx context.Context) ([]Order, error) {
	orders, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// Search applies the table query on top of List.
func (s *Service) Search(ctx context.Context, q listing.Query) ([]Order, error) {
	orders, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return Table.Apply(orders, q), nil
}

// EndingWithin lists live orders whose end date falls within the next days
// days, counting from today.
func (s *Service) EndingWithin(ctx context.Context, days int) ([]Order, error) {
	from := s.now()
	from = time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, days)
	orders, err := s.repo.FindEndingBetween(ctx, from, to, StatusLive)
	if err != nil {
		return nil, fmt.Errorf("list renewals: %w", err)
	}
	return orders, nil
}

// Table drives the orders list page.
var Table = listing.NewTable(
	func(o Order) string { return o.CustomerName() },
	func(o Order) string { return o.AccountExecutive },
).
	Text("customer", func(o Order) string { return o.CustomerName() }).
	Text("accountExecutive", func(o Order) string { return o.AccountExecutive }).
	Text("status", func(o Order) string { return string(o.Status) }).
	Text("term", func(o Order) string { return string(o.Term) }).
	Number("total", func(o Order) float64 { f, _ := o.Total.Float64(); return f }).
	Time("orderDate", func(o Order) time.Time { return o.OrderDate }).
	Time("startDate", func(o Order) time.Time { return o.StartDate }).
	Time("endDate", func(o Order) time.Time { return o.EndDate })
