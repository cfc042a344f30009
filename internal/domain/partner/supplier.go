package partner

import (
	"time"

	"github.com/pos/backend/internal/domain/shared"
)

// Supplier is the vendor side of a purchase order
type Supplier struct {
	shared.BaseAggregateRoot
	Name          string `gorm:"type:varchar(255);not null"`
	ContactPerson string `gorm:"type:varchar(255)"`
	Phone         string `gorm:"type:varchar(32)"`
	Email         string `gorm:"type:varchar(255)"`
	Address       string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (Supplier) TableName() string {
	return "suppliers"
}

// NewSupplier creates a new supplier
func NewSupplier(name, contactPerson, phone string) (*Supplier, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Supplier name cannot be empty")
	}
	return &Supplier{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		ContactPerson:     contactPerson,
		Phone:             phone,
	}, nil
}

// UpdateContact updates the supplier's contact details
func (s *Supplier) UpdateContact(contactPerson, phone, email, address string) {
	s.ContactPerson = contactPerson
	s.Phone = phone
	s.Email = email
	s.Address = address
	s.UpdatedAt = time.Now()
}
