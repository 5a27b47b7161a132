package products

import (
	"strings"

	"github.com/odyssey-erp/odyssey-crm/internal/shared"
)

// validateCreate trims text fields before validation. Prices are rounded to
// cents on write rather than rejected.
func (s *Service) validateCreate(req *CreateProductRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	return shared.Validate(*req)
}

func (s *Service) validateUpdate(req *UpdateProductRequest) error {
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		req.Name = &name
	}
	if req.Description != nil {
		description := strings.TrimSpace(*req.Description)
		req.Description = &description
	}
	return shared.Validate(*req)
}
