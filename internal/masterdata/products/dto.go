package products

import "github.com/shopspring/decimal"

type CreateProductRequest struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Description string          `json:"description" validate:"max=2000"`
	Category    Category        `json:"category" validate:"required,oneof=subscription service addon"`
	Price       decimal.Decimal `json:"price" validate:"gte=0"`
	Status      Status          `json:"status" validate:"omitempty,oneof=active inactive"`
}

// UpdateProductRequest is a patch: nil fields are left untouched.
type UpdateProductRequest struct {
	Name        *string          `json:"name,omitempty" validate:"omitnil,notblank,max=200"`
	Description *string          `json:"description,omitempty" validate:"omitnil,max=2000"`
	Category    *Category        `json:"category,omitempty" validate:"omitnil,oneof=subscription service addon"`
	Price       *decimal.Decimal `json:"price,omitempty" validate:"omitnil,gte=0"`
	Status      *Status          `json:"status,omitempty" validate:"omitnil,oneof=active inactive"`
}

func (req UpdateProductRequest) updates() map[string]interface{} {
	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if req.Price != nil {
		updates["price"] = req.Price.Round(2)
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	return updates
}

// CatalogItem is the slice of a product the order form needs.
type CatalogItem struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Category Category        `json:"category"`
	Price    decimal.Decimal `json:"price"`
}
