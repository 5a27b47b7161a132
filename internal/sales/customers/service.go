package customers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/odyssey-erp/odyssey-crm/internal/platform/listing"
	"github.com/odyssey-erp/odyssey-crm/internal/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, req CreateCustomerRequest) (*Customer, error) {
	req.CompanyName = strings.TrimSpace(req.CompanyName)
	req.ContactName = strings.TrimSpace(req.ContactName)
	req.Email = strings.TrimSpace(req.Email)
	if err := shared.Validate(req); err != nil {
		return nil, err
	}

	customer := Customer{
		CompanyName: req.CompanyName,
		ContactName: req.ContactName,
		Email:       req.Email,
		Phone:       req.Phone,
		Industry:    req.Industry,
		Address:     req.Address,
		Status:      req.Status,
	}
	if customer.Status == "" {
		customer.Status = StatusInImplementation
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		return repo.Create(ctx, &customer)
	})
	if err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	return &customer, nil
}

func (s *Service) Update(ctx context.Context, id string, req UpdateCustomerRequest) (*Customer, error) {
	req.trim()
	if err := shared.Validate(req); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}

	updates := req.updates()
	if len(updates) == 0 {
		return existing, nil
	}

	var updated *Customer
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		updated, err = repo.Update(ctx, id, updates)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("update customer: %w", err)
	}
	return updated, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Customer, error) {
	customer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return customer, nil
}

// List returns every customer, newest first.
func (s *Service) List(ctx context.Context) ([]Customer, error) {
	customers, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return customers, nil
}

// Search applies the table query on top of List.
func (s *Service) Search(ctx context.Context, q listing.Query) ([]Customer, error) {
	customers, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return Table.Apply(customers, q), nil
}

// Table drives the customers list page.
var Table = listing.NewTable(
	func(c Customer) string { return c.CompanyName },
	func(c Customer) string { return c.ContactName },
).
	Text("companyName", func(c Customer) string { return c.CompanyName }).
	Text("contactName", func(c Customer) string { return c.ContactName }).
	Text("industry", func(c Customer) string { return c.Industry }).
	Text("status", func(c Customer) string { return string(c.Status) }).
	Time("createdAt", func(c Customer) time.Time { return c.CreatedAt })
