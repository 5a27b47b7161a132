package app

import (
	"github.com/odyssey-erp/odyssey-crm/internal/masterdata/products"
	"github.com/odyssey-erp/odyssey-crm/internal/sales/customers"
	"github.com/odyssey-erp/odyssey-crm/internal/sales/orders"
)

// Models lists the gorm models in dependency order, for AutoMigrate.
func Models() []any {
	return []any{
		&customers.Customer{},
		&products.Product{},
		&orders.Order{},
		&orders.OrderProduct{},
	}
}
