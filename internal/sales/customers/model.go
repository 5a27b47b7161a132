package customers

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Status tracks where a customer is in the onboarding lifecycle.
type Status string

const (
	StatusInImplementation Status = "in-implementation"
	StatusOnHold           Status = "on-hold"
	StatusLive             Status = "live"
	StatusTerminated       Status = "terminated"
)

// Statuses lists the lifecycle in display order.
var Statuses = []Status{StatusInImplementation, StatusOnHold, StatusLive, StatusTerminated}

// Industries offered by the customer form. Industry itself is free text.
var Industries = []string{"technology", "healthcare", "finance", "retail", "manufacturing", "other"}

// Customer is a company the CRM sells to.
type Customer struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyName string    `gorm:"not null" json:"companyName"`
	ContactName string    `gorm:"not null" json:"contactName"`
	Email       string    `gorm:"not null" json:"email"`
	Phone       string    `gorm:"not null" json:"phone"`
	Industry    string    `gorm:"not null" json:"industry"`
	Address     string    `gorm:"not null" json:"address"`
	Status      Status    `gorm:"not null" json:"status"`
	CreatedAt   time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (Customer) TableName() string { return "customers" }

// BeforeCreate assigns the identifier.
func (c *Customer) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
