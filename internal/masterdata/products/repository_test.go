package products

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-crm/internal/platform/db"
	"github.com/odyssey-erp/odyssey-crm/internal/shared"
)

func newSQLiteRepo(t *testing.T) Repository {
	t.Helper()
	store, err := db.OpenSQLite(":memory:", 0)
	require.NoError(t, err)
	t.Cleanup(store.Close)
	require.NoError(t, store.Migrate(nil, &Product{}))
	return NewRepository(store.DB)
}

func TestRepositoryRoundTripsDecimal(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()

	p := &Product{Name: "Basic Plan", Category: CategorySubscription, Price: decimal.RequireFromString("99.99"), Status: StatusActive}
	require.NoError(t, repo.Create(ctx, p))

	got, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("99.99")), got.Price.String())
	assert.Equal(t, CategorySubscription, got.Category)
}

func TestRepositoryFindActiveAndByIDs(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()

	names := []string{"Zeta", "Alpha", "Retired"}
	ids := make([]string, 0, len(names))
	for _, name := range names {
		status := StatusActive
		if name == "Retired" {
			status = StatusInactive
		}
		p := &Product{Name: name, Category: CategoryAddon, Price: decimal.NewFromInt(1), Status: status}
		require.NoError(t, repo.Create(ctx, p))
		ids = append(ids, p.ID)
	}

	active, err := repo.FindActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "Alpha", active[0].Name)
	assert.Equal(t, "Zeta", active[1].Name)

	found, err := repo.FindByIDs(ctx, []string{ids[0], "garbage", uuid.NewString()})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Zeta", found[0].Name)

	found, err = repo.FindByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestRepositoryUpdate(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()
	p := &Product{Name: "Basic Plan", Category: CategorySubscription, Price: decimal.NewFromInt(10), Status: StatusActive}
	require.NoError(t, repo.Create(ctx, p))

	updated, err := repo.Update(ctx, p.ID, map[string]interface{}{"price": decimal.RequireFromString("12.50")})
	require.NoError(t, err)
	assert.Equal(t, "12.50", updated.Price.StringFixed(2))

	_, err = repo.Update(ctx, uuid.NewString(), map[string]interface{}{"name": "x"})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
