package orders

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-crm/internal/sales/pricing"
)

// Date accepts either a calendar date ("2024-01-31") or an RFC 3339
// timestamp and keeps only the calendar day.
type Date struct {
	time.Time
}

func NewDate(t time.Time) Date {
	return Date{Time: pricing.Day(t)}
}

// ParseDate reads the formats Date accepts. Blank input yields the zero Date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return NewDate(t), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q", s)
	}
	return NewDate(t), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format("2006-01-02"))
}

type BillingContactInput struct {
	Name    string `json:"name" validate:"required,max=200"`
	Email   string `json:"email" validate:"required,email"`
	Address string `json:"address" validate:"max=1000"`
}

// LineInput is one requested line item. A nil PricePerUnit takes the
// product's current price.
type LineInput struct {
	ProductID    string           `json:"productId" validate:"required"`
	Units        int              `json:"units" validate:"gte=1"`
	PricePerUnit *decimal.Decimal `json:"pricePerUnit,omitempty" validate:"omitnil,gte=0"`
}

type CreateOrderRequest struct {
	CustomerID       string              `json:"customerId"`
	BillingContact   BillingContactInput `json:"billingContact"`
	Term             Term                `json:"term" validate:"required,oneof=monthly 1-year 2-year"`
	StartDate        Date                `json:"startDate"`
	EndDate          *Date               `json:"endDate,omitempty"`
	OneTimeFee       decimal.Decimal     `json:"oneTimeFee" validate:"gte=0"`
	AccountExecutive string              `json:"accountExecutive" validate:"max=200"`
	Status           Status              `json:"status" validate:"omitempty,oneof=pending kick-off implementation live on-hold canceled"`
	Notes            string              `json:"notes" validate:"max=5000"`
	Products         []LineInput         `json:"products" validate:"dive"`
}

// UpdateOrderRequest is a patch: nil fields are left untouched. A non-nil
// Products replaces every line item of the order.
type UpdateOrderRequest struct {
	BillingContact   *BillingContactInput `json:"billingContact,omitempty" validate:"omitnil"`
	Term             *Term                `json:"term,omitempty" validate:"omitnil,oneof=monthly 1-year 2-year"`
	StartDate        *Date                `json:"startDate,omitempty"`
	EndDate          *Date                `json:"endDate,omitempty"`
	OneTimeFee       *decimal.Decimal     `json:"oneTimeFee,omitempty" validate:"omitnil,gte=0"`
	AccountExecutive *string              `json:"accountExecutive,omitempty" validate:"omitnil,max=200"`
	Status           *Status              `json:"status,omitempty" validate:"omitnil,oneof=pending kick-off implementation live on-hold canceled"`
	Notes            *string              `json:"notes,omitempty" validate:"omitnil,max=5000"`
	Products         *[]LineInput         `json:"products,omitempty" validate:"omitnil,dive"`
}

func (req UpdateOrderRequest) updates() map[string]interface{} {
	updates := make(map[string]interface{})
	if req.BillingContact != nil {
		updates["billing_contact_name"] = req.BillingContact.Name
		updates["billing_contact_email"] = req.BillingContact.Email
		updates["billing_contact_address"] = req.BillingContact.Address
	}
	if req.Term != nil {
		updates["term"] = *req.Term
	}
	if req.OneTimeFee != nil {
		updates["one_time_fee"] = req.OneTimeFee.Round(2)
	}
	if req.AccountExecutive != nil {
		updates["account_executive"] = *req.AccountExecutive
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}
	return updates
}

func trimContact(c *BillingContactInput) {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	c.Address = strings.TrimSpace(c.Address)
}
