package customers

import (
	"context"

	"gorm.io/gorm"

	"github.com/odyssey-erp/odyssey-crm/internal/platform/db"
	"github.com/odyssey-erp/odyssey-crm/internal/shared"
)

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Create(ctx context.Context, customer *Customer) error
	Update(ctx context.Context, id string, updates map[string]interface{}) (*Customer, error)
	FindByID(ctx context.Context, id string) (*Customer, error)
	FindAll(ctx context.Context) ([]Customer, error)
}

type repository struct {
	db   *gorm.DB
	inTx bool
}

func NewRepository(gdb *gorm.DB) Repository {
	return &repository{db: gdb}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	if r.inTx {
		return fn(ctx, r)
	}
	return db.WithTx(ctx, r.db, func(tx *gorm.DB) error {
		return fn(ctx, &repository{db: tx, inTx: true})
	})
}

func (r *repository) Create(ctx context.Context, customer *Customer) error {
	return db.Error("customers.create", r.db.WithContext(ctx).Create(customer).Error)
}

func (r *repository) Update(ctx context.Context, id string, updates map[string]interface{}) (*Customer, error) {
	if err := db.CheckID(id); err != nil {
		return nil, err
	}
	res := r.db.WithContext(ctx).Model(&Customer{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, db.Error("customers.update", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, shared.ErrNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *repository) FindByID(ctx context.Context, id string) (*Customer, error) {
	if err := db.CheckID(id); err != nil {
		return nil, err
	}
	var customer Customer
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&customer).Error; err != nil {
		return nil, db.Error("customers.find", err)
	}
	return &customer, nil
}

func (r *repository) FindAll(ctx context.Context) ([]Customer, error) {
	customers := make([]Customer, 0)
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&customers).Error; err != nil {
		return nil, db.Error("customers.list", err)
	}
	return customers, nil
}
