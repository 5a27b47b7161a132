package customers

import "strings"

type CreateCustomerRequest struct {
	CompanyName string `json:"companyName" validate:"required,max=200"`
	ContactName string `json:"contactName" validate:"required,max=200"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone" validate:"max=50"`
	Industry    string `json:"industry" validate:"max=100"`
	Address     string `json:"address" validate:"max=500"`
	Status      Status `json:"status" validate:"omitempty,oneof=in-implementation on-hold live terminated"`
}

// UpdateCustomerRequest is a patch: nil fields are left untouched.
type UpdateCustomerRequest struct {
	CompanyName *string `json:"companyName,omitempty" validate:"omitnil,notblank,max=200"`
	ContactName *string `json:"contactName,omitempty" validate:"omitnil,notblank,max=200"`
	Email       *string `json:"email,omitempty" validate:"omitnil,notblank,email"`
	Phone       *string `json:"phone,omitempty" validate:"omitnil,max=50"`
	Industry    *string `json:"industry,omitempty" validate:"omitnil,max=100"`
	Address     *string `json:"address,omitempty" validate:"omitnil,max=500"`
	Status      *Status `json:"status,omitempty" validate:"omitnil,oneof=in-implementation on-hold live terminated"`
}

func (req *UpdateCustomerRequest) trim() {
	for _, field := range []**string{&req.CompanyName, &req.ContactName, &req.Email} {
		if *field != nil {
			trimmed := strings.TrimSpace(**field)
			*field = &trimmed
		}
	}
}

func (req UpdateCustomerRequest) updates() map[string]interface{} {
	updates := make(map[string]interface{})
	if req.CompanyName != nil {
		updates["company_name"] = *req.CompanyName
	}
	if req.ContactName != nil {
		updates["contact_name"] = *req.ContactName
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Industry != nil {
		updates["industry"] = *req.Industry
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	return updates
}
