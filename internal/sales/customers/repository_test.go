package customers

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/odyssey-erp/odyssey-crm/internal/platform/db"
	"github.com/odyssey-erp/odyssey-crm/internal/shared"
)

type RepositorySuite struct {
	suite.Suite
	store *db.Store
	repo  Repository
	ctx   context.Context
}

func TestRepositorySuite(t *testing.T) {
	suite.Run(t, new(RepositorySuite))
}

func (s *RepositorySuite) SetupTest() {
	store, err := db.OpenSQLite(":memory:", 0)
	s.Require().NoError(err)
	s.Require().NoError(store.Migrate(nil, &Customer{}))
	s.store = store
	s.repo = NewRepository(store.DB)
	s.ctx = context.Background()
}

func (s *RepositorySuite) TearDownTest() {
	s.store.Close()
}

func (s *RepositorySuite) create(name string, createdAt time.Time) *Customer {
	c := &Customer{
		CompanyName: name,
		ContactName: "John Doe",
		Email:       "john@acme.com",
		Status:      StatusInImplementation,
		CreatedAt:   createdAt,
	}
	s.Require().NoError(s.repo.Create(s.ctx, c))
	return c
}

func (s *RepositorySuite) TestCreateAssignsIDAndTimestamps() {
	c := &Customer{CompanyName: "Acme Corp", ContactName: "John Doe", Email: "john@acme.com", Status: StatusLive}
	s.Require().NoError(s.repo.Create(s.ctx, c))

	_, err := uuid.Parse(c.ID)
	s.NoError(err)
	s.False(c.CreatedAt.IsZero())
	s.False(c.UpdatedAt.IsZero())

	found, err := s.repo.FindByID(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Equal("Acme Corp", found.CompanyName)
	s.Equal(StatusLive, found.Status)
}

func (s *RepositorySuite) TestFindByIDMissing() {
	_, err := s.repo.FindByID(s.ctx, uuid.NewString())
	s.ErrorIs(err, shared.ErrNotFound)

	_, err = s.repo.FindByID(s.ctx, "not-a-uuid")
	s.ErrorIs(err, shared.ErrNotFound)
}

func (s *RepositorySuite) TestFindAllNewestFirst() {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.create("Oldest", base)
	s.create("Newest", base.Add(2*time.Hour))
	s.create("Middle", base.Add(time.Hour))

	all, err := s.repo.FindAll(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal([]string{"Newest", "Middle", "Oldest"}, []string{all[0].CompanyName, all[1].CompanyName, all[2].CompanyName})
}

func (s *RepositorySuite) TestFindAllEmpty() {
	all, err := s.repo.FindAll(s.ctx)
	s.NoError(err)
	s.NotNil(all)
	s.Empty(all)
}

func (s *RepositorySuite) TestUpdateMergesFields() {
	c := s.create("Acme Corp", time.Time{})

	updated, err := s.repo.Update(s.ctx, c.ID, map[string]interface{}{"status": StatusOnHold, "phone": "555"})
	s.Require().NoError(err)
	s.Equal(StatusOnHold, updated.Status)
	s.Equal("555", updated.Phone)
	s.Equal("Acme Corp", updated.CompanyName)
	s.False(updated.UpdatedAt.Before(c.UpdatedAt))
}

func (s *RepositorySuite) TestUpdateMissing() {
	_, err := s.repo.Update(s.ctx, uuid.NewString(), map[string]interface{}{"phone": "1"})
	s.ErrorIs(err, shared.ErrNotFound)
}

func (s *RepositorySuite) TestWithTxRollsBack() {
	err := s.repo.WithTx(s.ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.Create(ctx, &Customer{CompanyName: "Temp", ContactName: "x", Email: "x@y.z", Status: StatusLive}); err != nil {
			return err
		}
		return shared.NewValidationError("x", "abort")
	})
	s.ErrorIs(err, shared.ErrValidation)

	all, err := s.repo.FindAll(s.ctx)
	s.NoError(err)
	s.Empty(all)
}

func TestServiceAgainstSQLite(t *testing.T) {
	store, err := db.OpenSQLite(":memory:", 0)
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.Migrate(nil, &Customer{}))

	svc := NewService(NewRepository(store.DB))
	created, err := svc.Create(context.Background(), acmeRequest())
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "123 Business Ave", got.Address)
}
