package products

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-crm/internal/platform/cache"
	"github.com/odyssey-erp/odyssey-crm/internal/shared"
)

type mockRepository struct {
	products    map[string]*Product
	clock       time.Time
	activeCalls int
}

func newMockRepository() *mockRepository {
	return &mockRepository{products: make(map[string]*Product), clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, m)
}

func (m *mockRepository) Create(ctx context.Context, p *Product) error {
	m.clock = m.clock.Add(time.Minute)
	p.ID = uuid.NewString()
	p.CreatedAt, p.UpdatedAt = m.clock, m.clock
	stored := *p
	m.products[p.ID] = &stored
	return nil
}

func (m *mockRepository) Update(ctx context.Context, id string, updates map[string]interface{}) (*Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	for k, v := range updates {
		switch k {
		case "name":
			p.Name = v.(string)
		case "description":
			p.Description = v.(string)
		case "category":
			p.Category = v.(Category)
		case "price":
			p.Price = v.(decimal.Decimal)
		case "status":
			p.Status = v.(Status)
		}
	}
	out := *p
	return &out, nil
}

func (m *mockRepository) FindByID(ctx context.Context, id string) (*Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	out := *p
	return &out, nil
}

func (m *mockRepository) FindByIDs(ctx context.Context, ids []string) ([]Product, error) {
	var out []Product
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockRepository) FindAll(ctx context.Context) ([]Product, error) {
	out := make([]Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *mockRepository) FindActive(ctx context.Context) ([]Product, error) {
	m.activeCalls++
	var out []Product
	for _, p := range m.products {
		if p.Status == StatusActive {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func newCachedService(t *testing.T) (*Service, *mockRepository) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	repo := newMockRepository()
	return NewService(repo, cache.NewVersioned(client, "test:catalog", time.Minute, nil), nil), repo
}

func basicPlan() CreateProductRequest {
	return CreateProductRequest{
		Name:        "Basic Plan",
		Description: "Entry tier subscription",
		Category:    CategorySubscription,
		Price:       decimal.RequireFromString("99.99"),
	}
}

func TestCreateProductDefaults(t *testing.T) {
	svc := NewService(newMockRepository(), nil, nil)
	p, err := svc.Create(context.Background(), basicPlan())
	require.NoError(t, err)
	assert.Equal(t, StatusActive, p.Status)
	assert.Equal(t, "99.99", p.Price.StringFixed(2))
	assert.NotEmpty(t, p.ID)
}

func TestCreateProductValidation(t *testing.T) {
	svc := NewService(newMockRepository(), nil, nil)

	req := basicPlan()
	req.Price = decimal.RequireFromString("-1")
	_, err := svc.Create(context.Background(), req)
	assert.EqualError(t, err, "Price must be at least 0")

	req = basicPlan()
	req.Category = "hardware"
	_, err = svc.Create(context.Background(), req)
	assert.EqualError(t, err, "Category must be one of: subscription, service, addon")

	req = basicPlan()
	req.Name = " "
	_, err = svc.Create(context.Background(), req)
	assert.True(t, errors.Is(err, shared.ErrValidation))
}

func TestCreateProductRoundsPrice(t *testing.T) {
	svc := NewService(newMockRepository(), nil, nil)
	req := basicPlan()
	req.Price = decimal.RequireFromString("10.005")
	p, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "10.01", p.Price.StringFixed(2))
}

func TestUpdateProductPatch(t *testing.T) {
	svc := NewService(newMockRepository(), nil, nil)
	p, err := svc.Create(context.Background(), basicPlan())
	require.NoError(t, err)

	price := decimal.RequireFromString("120")
	updated, err := svc.Update(context.Background(), p.ID, UpdateProductRequest{Price: &price})
	require.NoError(t, err)
	assert.Equal(t, "120.00", updated.Price.StringFixed(2))
	assert.Equal(t, "Basic Plan", updated.Name)

	_, err = svc.Update(context.Background(), uuid.NewString(), UpdateProductRequest{Price: &price})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestUpdateProductTrimsAndRejectsBlankName(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil, nil)
	p, err := svc.Create(context.Background(), basicPlan())
	require.NoError(t, err)

	for _, blank := range []string{"", "   "} {
		name := blank
		_, err = svc.Update(context.Background(), p.ID, UpdateProductRequest{Name: &name})
		verr, ok := shared.AsValidation(err)
		require.True(t, ok, "name %q", blank)
		assert.Equal(t, "Name is required", verr.Message)
	}
	assert.Equal(t, "Basic Plan", repo.products[p.ID].Name)

	name, description := "  Pro Plan ", "  Everything in Basic  "
	updated, err := svc.Update(context.Background(), p.ID, UpdateProductRequest{Name: &name, Description: &description})
	require.NoError(t, err)
	assert.Equal(t, "Pro Plan", updated.Name)
	assert.Equal(t, "Everything in Basic", updated.Description)
}

func TestCatalogIsCachedAndInvalidatedOnWrite(t *testing.T) {
	svc, repo := newCachedService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, basicPlan())
	require.NoError(t, err)
	inactive := basicPlan()
	inactive.Name = "Legacy Plan"
	inactive.Status = StatusInactive
	_, err = svc.Create(ctx, inactive)
	require.NoError(t, err)

	items, err := svc.Catalog(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Basic Plan", items[0].Name)
	assert.Equal(t, "99.99", items[0].Price.StringFixed(2))

	_, err = svc.Catalog(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.activeCalls, "second read served from cache")

	price := decimal.RequireFromString("149.00")
	_, err = svc.Update(ctx, p.ID, UpdateProductRequest{Price: &price})
	require.NoError(t, err)

	items, err = svc.Catalog(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.activeCalls)
	assert.Equal(t, "149.00", items[0].Price.StringFixed(2))
}

func TestGetMany(t *testing.T) {
	svc := NewService(newMockRepository(), nil, nil)
	p, err := svc.Create(context.Background(), basicPlan())
	require.NoError(t, err)

	got, err := svc.GetMany(context.Background(), []string{p.ID, uuid.NewString()})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, "Basic Plan", got[p.ID].Name)
}
