package orders

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/odyssey-erp/odyssey-crm/internal/platform/db"
	"github.com/odyssey-erp/odyssey-crm/internal/shared"
)

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Create(ctx context.Context, order *Order) error
	Update(ctx context.Context, id string, updates map[string]interface{}) error
	ReplaceLines(ctx context.Context, orderID string, lines []OrderProduct) error
	FindByID(ctx context.Context, id string) (*Order, error)
	FindAll(ctx context.Context) ([]Order, error)
	FindEndingBetween(ctx context.Context, from, to time.Time, statuses ...Status) ([]Order, error)
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

// Create stores the order row and its line items atomically.
func (r *repository) Create(ctx context.Context, order *Order) error {
	return r.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		tx := repo.(*repository).db.WithContext(ctx)
		lines := order.Products
		if err := tx.Omit(clause.Associations).Create(order).Error; err != nil {
			return db.Error("orders.create", err)
		}
		if err := insertLines(tx, order.ID, lines); err != nil {
			return err
		}
		order.Products = lines
		return nil
	})
}

func (r *repository) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	if err := db.CheckID(id); err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Model(&Order{}).Where("id = ?", id).Omit(clause.Associations).Updates(updates)
	if res.Error != nil {
		return db.Error("orders.update", res.Error)
	}
	if res.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ReplaceLines deletes every line item of the order and inserts lines in one
// transaction. The order row is locked first so concurrent replacements run
// one after the other instead of interleaving.
func (r *repository) ReplaceLines(ctx context.Context, orderID string, lines []OrderProduct) error {
	if err := db.CheckID(orderID); err != nil {
		return err
	}
	return r.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		tx := repo.(*repository).db.WithContext(ctx)
		lock := tx.Model(&Order{}).Select("id")
		if db.IsPostgres(tx) {
			lock = lock.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var locked Order
		if err := lock.Where("id = ?", orderID).Take(&locked).Error; err != nil {
			return db.Error("orders.lock", err)
		}
		if err := tx.Where("order_id = ?", orderID).Delete(&OrderProduct{}).Error; err != nil {
			return db.Error("orders.delete_lines", err)
		}
		if err := insertLines(tx, orderID, lines); err != nil {
			return err
		}
		err := tx.Model(&Order{}).Where("id = ?", orderID).Update("updated_at", tx.NowFunc()).Error
		return db.Error("orders.touch", err)
	})
}

func insertLines(tx *gorm.DB, orderID string, lines []OrderProduct) error {
	if len(lines) == 0 {
		return nil
	}
	for i := range lines {
		lines[i].ID = ""
		lines[i].OrderID = orderID
		lines[i].Position = i
		lines[i].Product = nil
	}
	return db.Error("orders.insert_lines", tx.Create(&lines).Error)
}

func (r *repository) FindByID(ctx context.Context, id string) (*Order, error) {
	if err := db.CheckID(id); err != nil {
		return nil, err
	}
	var order Order
	if err := r.withDetails(ctx).Where("id = ?", id).Take(&order).Error; err != nil {
		return nil, db.Error("orders.find", err)
	}
	return &order, nil
}

func (r *repository) FindAll(ctx context.Context) ([]Order, error) {
	orders := make([]Order, 0)
	if err := r.withDetails(ctx).Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, db.Error("orders.list", err)
	}
	return orders, nil
}

// FindEndingBetween returns orders whose end date falls in [from, to], limited
// to the given statuses when any are passed.
func (r *repository) FindEndingBetween(ctx context.Context, from, to time.Time, statuses ...Status) ([]Order, error) {
	q := r.withDetails(ctx).Where("end_date >= ? AND end_date <= ?", from, to)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	orders := make([]Order, 0)
	if err := q.Order("end_date ASC").Find(&orders).Error; err != nil {
		return nil, db.Error("orders.list_ending", err)
	}
	return orders, nil
}

func (r *repository) withDetails(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Products", func(tx *gorm.DB) *gorm.DB { return tx.Order("position ASC") }).
		Preload("Products.Product")
}
