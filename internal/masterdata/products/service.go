package products

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/odyssey-erp/odyssey-crm/internal/platform/cache"
	"github.com/odyssey-erp/odyssey-crm/internal/platform/listing"
)

type Service struct {
	repo    Repository
	catalog *cache.Versioned
	logger  *slog.Logger
}

// NewService wires the product service. catalog may be nil, in which case
// Catalog reads straight from the repository.
func NewService(repo Repository, catalog *cache.Versioned, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, catalog: catalog, logger: logger}
}

func (s *Service) Create(ctx context.Context, req CreateProductRequest) (*Product, error) {
	if err := s.validateCreate(&req); err != nil {
		return nil, err
	}

	product := Product{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price.Round(2),
		Status:      req.Status,
	}
	if product.Status == "" {
		product.Status = StatusActive
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		return repo.Create(ctx, &product)
	})
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	s.invalidateCatalog(ctx)
	return &product, nil
}

func (s *Service) Update(ctx context.Context, id string, req UpdateProductRequest) (*Product, error) {
	if err := s.validateUpdate(&req); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}

	updates := req.updates()
	if len(updates) == 0 {
		return existing, nil
	}

	var updated *Product
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		updated, err = repo.Update(ctx, id, updates)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	s.invalidateCatalog(ctx)
	return updated, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return product, nil
}

// GetMany returns the existing products among ids keyed by id.
func (s *Service) GetMany(ctx context.Context, ids []string) (map[string]Product, error) {
	products, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	out := make(map[string]Product, len(products))
	for _, p := range products {
		out[p.ID] = p
	}
	return out, nil
}

// List returns every product, newest first.
func (s *Service) List(ctx context.Context) ([]Product, error) {
	products, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// Search applies the table query on top of List.
func (s *Service) Search(ctx context.Context, q listing.Query) ([]Product, error) {
	products, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return Table.Apply(products, q), nil
}

// Catalog lists the active products offered on the order form.
func (s *Service) Catalog(ctx context.Context) ([]CatalogItem, error) {
	var items []CatalogItem
	err := s.catalog.FetchJSON(ctx, &items, func(ctx context.Context) (any, error) {
		products, err := s.repo.FindActive(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]CatalogItem, 0, len(products))
		for _, p := range products {
			out = append(out, CatalogItem{ID: p.ID, Name: p.Name, Category: p.Category, Price: p.Price})
		}
		return out, nil
	}, "active")
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return items, nil
}

func (s *Service) invalidateCatalog(ctx context.Context) {
	if err := s.catalog.Bump(ctx); err != nil {
		s.logger.Warn("catalog cache bump failed", "error", err)
	}
}

// Table drives the products list page.
var Table = listing.NewTable(
	func(p Product) string { return p.Name },
	func(p Product) string { return p.Description },
).
	Text("name", func(p Product) string { return p.Name }).
	Text("category", func(p Product) string { return string(p.Category) }).
	Number("price", func(p Product) float64 { f, _ := p.Price.Float64(); return f }).
	Text("status", func(p Product) string { return string(p.Status) }).
	Time("createdAt", func(p Product) time.Time { return p.CreatedAt })
