package partner

import (
	"time"

	"github.com/pos/backend/internal/domain/shared"
)

// Customer is the buyer on a sale. Walk-in sales carry no customer at
// all, so most fields are optional.
type Customer struct {
	shared.BaseAggregateRoot
	Name    string `gorm:"type:varchar(255);not null"`
	Phone   string `gorm:"type:varchar(32);index"`
	Email   string `gorm:"type:varchar(255)"`
	Address string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (Customer) TableName() string {
	return "customers"
}

// NewCustomer creates a new customer
func NewCustomer(name, phone, email string) (*Customer, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Customer name cannot be empty")
	}
	return &Customer{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Phone:             phone,
		Email:             email,
	}, nil
}

// UpdateContact updates the customer's contact details
func (c *Customer) UpdateContact(phone, email, address string) {
	c.Phone = phone
	c.Email = email
	c.Address = address
	c.UpdatedAt = time.Now()
}
