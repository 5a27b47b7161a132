package products

import (
	"context"

	"gorm.io/gorm"

	"github.com/odyssey-erp/odyssey-crm/internal/platform/db"
	"github.com/odyssey-erp/odyssey-crm/internal/shared"
)

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Create(ctx context.Context, product *Product) error
	Update(ctx context.Context, id string, updates map[string]interface{}) (*Product, error)
	FindByID(ctx context.Context, id string) (*Product, error)
	FindByIDs(ctx context.Context, ids []string) ([]Product, error)
	FindAll(ctx context.Context) ([]Product, error)
	FindActive(ctx context.Context) ([]Product, error)
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

func (r *repository) Create(ctx context.Context, product *Product) error {
	return db.Error("products.create", r.db.WithContext(ctx).Create(product).Error)
}

func (r *repository) Update(ctx context.Context, id string, updates map[string]interface{}) (*Product, error) {
	if err := db.CheckID(id); err != nil {
		return nil, err
	}
	res := r.db.WithContext(ctx).Model(&Product{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, db.Error("products.update", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, shared.ErrNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *repository) FindByID(ctx context.Context, id string) (*Product, error) {
	if err := db.CheckID(id); err != nil {
		return nil, err
	}
	var product Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&product).Error; err != nil {
		return nil, db.Error("products.find", err)
	}
	return &product, nil
}

// FindByIDs returns the products that exist among ids, in no particular order.
func (r *repository) FindByIDs(ctx context.Context, ids []string) ([]Product, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if db.CheckID(id) == nil {
			valid = append(valid, id)
		}
	}
	products := make([]Product, 0, len(valid))
	if len(valid) == 0 {
		return products, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", valid).Find(&products).Error; err != nil {
		return nil, db.Error("products.find_many", err)
	}
	return products, nil
}

func (r *repository) FindAll(ctx context.Context) ([]Product, error) {
	products := make([]Product, 0)
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&products).Error; err != nil {
		return nil, db.Error("products.list", err)
	}
	return products, nil
}

func (r *repository) FindActive(ctx context.Context) ([]Product, error) {
	products := make([]Product, 0)
	err := r.db.WithContext(ctx).Where("status = ?", StatusActive).Order("name ASC").Find(&products).Error
	if err != nil {
		return nil, db.Error("products.list_active", err)
	}
	return products, nil
}
