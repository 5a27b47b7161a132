package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/odyssey-erp/odyssey-crm/internal/masterdata/products"
	"github.com/odyssey-erp/odyssey-crm/internal/sales/customers"
	"github.com/odyssey-erp/odyssey-crm/internal/sales/pricing"
)

// Term is the billing duration of an order.
type Term string

const (
	TermMonthly Term = "monthly"
	TermOneYear Term = "1-year"
	TermTwoYear Term = "2-year"
)

var Terms = []Term{TermMonthly, TermOneYear, TermTwoYear}

// Months reports the length of the term, 0 for unknown terms.
func (t Term) Months() int {
	switch t {
	case TermMonthly:
		return 1
	case TermOneYear:
		return 12
	case TermTwoYear:
		return 24
	default:
		return 0
	}
}

type Status string

const (
	StatusPending        Status = "pending"
	StatusKickOff        Status = "kick-off"
	StatusImplementation Status = "implementation"
	StatusLive           Status = "live"
	StatusOnHold         Status = "on-hold"
	StatusCanceled       Status = "canceled"
)

var Statuses = []Status{StatusPending, StatusKickOff, StatusImplementation, StatusLive, StatusOnHold, StatusCanceled}

// BillingContact is who receives invoices for the order. It is independent of
// the customer's own contact.
type BillingContact struct {
	Name    string `gorm:"column:name;not null" json:"name"`
	Email   string `gorm:"column:email;not null" json:"email"`
	Address string `gorm:"column:address;not null" json:"address"`
}

type Order struct {
	ID               string              `gorm:"type:uuid;primaryKey" json:"id"`
	CustomerID       string              `gorm:"type:uuid;not null;index" json:"customerId"`
	Customer         *customers.Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	BillingContact   BillingContact      `gorm:"embedded;embeddedPrefix:billing_contact_" json:"billingContact"`
	Term             Term                `gorm:"not null" json:"term"`
	StartDate        time.Time           `gorm:"type:date;not null" json:"startDate"`
	EndDate          time.Time           `gorm:"type:date;not null;index" json:"endDate"`
	OneTimeFee       decimal.Decimal     `gorm:"type:numeric(12,2);not null" json:"oneTimeFee"`
	AccountExecutive string              `gorm:"not null" json:"accountExecutive"`
	Status           Status              `gorm:"not null" json:"status"`
	OrderDate        time.Time           `gorm:"<-:create;not null" json:"orderDate"`
	Notes            string              `gorm:"not null" json:"notes"`
	Products         []OrderProduct      `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"products"`
	Subtotal         decimal.Decimal     `gorm:"-" json:"subtotal"`
	Total            decimal.Decimal     `gorm:"-" json:"total"`
	CreatedAt        time.Time           `gorm:"index" json:"createdAt"`
	UpdatedAt        time.Time           `json:"updatedAt"`
}

func (Order) TableName() string { return "orders" }

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

// AfterFind fills the derived totals.
func (o *Order) AfterFind(*gorm.DB) error {
	o.computeTotals()
	return nil
}

func (o *Order) computeTotals() {
	for i := range o.Products {
		o.Products[i].LineTotal = pricing.LineTotal(o.Products[i].Units, o.Products[i].PricePerUnit)
	}
	o.Subtotal = pricing.Subtotal(o.Products)
	o.Total = pricing.GrandTotal(o.Subtotal, o.OneTimeFee)
}

// CustomerName is the company name of the customer, empty when not loaded.
func (o Order) CustomerName() string {
	if o.Customer == nil {
		return ""
	}
	return o.Customer.CompanyName
}

// OrderProduct is one line item. PricePerUnit is a snapshot taken when the
// line is written and does not follow later product price edits.
type OrderProduct struct {
	ID           string            `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID      string            `gorm:"type:uuid;not null;index" json:"orderId"`
	ProductID    string            `gorm:"type:uuid;not null" json:"productId"`
	Product      *products.Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Units        int               `gorm:"not null" json:"units"`
	PricePerUnit decimal.Decimal   `gorm:"type:numeric(12,2);not null" json:"pricePerUnit"`
	Position     int               `gorm:"not null;default:0" json:"-"`
	LineTotal    decimal.Decimal   `gorm:"-" json:"lineTotal"`
}

func (OrderProduct) TableName() string { return "order_products" }

func (l *OrderProduct) BeforeCreate(*gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

func (l OrderProduct) LineUnits() int             { return l.Units }
func (l OrderProduct) LinePrice() decimal.Decimal { return l.PricePerUnit }

// ProductName is the referenced product's name, empty when not loaded.
func (l OrderProduct) ProductName() string {
	if l.Product == nil {
		return ""
	}
	return l.Product.Name
}

// EndDateFor derives the contract end date from its start and term.
func EndDateFor(start time.Time, term Term) time.Time {
	return pricing.AddMonths(start, term.Months())
}
