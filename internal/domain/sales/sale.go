package sales

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/domain/shared/valueobject"
)

// SaleStatus represents the status of a sale
type SaleStatus string

const (
	SaleStatusPending   SaleStatus = "pending"
	SaleStatusCompleted SaleStatus = "completed"
	SaleStatusCancelled SaleStatus = "cancelled"
)

// IsValid checks if the status is a valid SaleStatus
func (s SaleStatus) IsValid() bool {
	switch s {
	case SaleStatusPending, SaleStatusCompleted, SaleStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of SaleStatus
func (s SaleStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status.
// A completed sale may be reopened back to pending; cancelled is terminal.
func (s SaleStatus) CanTransitionTo(target SaleStatus) bool {
	switch s {
	case SaleStatusPending:
		return target == SaleStatusCompleted || target == SaleStatusCancelled
	case SaleStatusCompleted:
		return target == SaleStatusPending
	case SaleStatusCancelled:
		return false
	}
	return false
}

// PaymentMethod represents how the customer paid
type PaymentMethod string

const (
	PaymentCash  PaymentMethod = "cash"
	PaymentCard  PaymentMethod = "card"
	PaymentMixed PaymentMethod = "mixed"
)

// IsValid checks if the payment method is known
func (p PaymentMethod) IsValid() bool {
	switch p {
	case PaymentCash, PaymentCard, PaymentMixed:
		return true
	}
	return false
}

// SaleItem is a line on a sale. UnitPrice and CostAtSale are snapshots
// of the product's selling price and average cost taken when the line
// was added; they are what profit is computed from, so a later cost
// change on the product never rewrites history.
type SaleItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	SaleID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_sale_items_sale_product,priority:1"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_sale_items_sale_product,priority:2"`
	ProductName string          `gorm:"type:varchar(255);not null"`
	Quantity    int64           `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CostAtSale  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Total       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName returns the table name for GORM
func (SaleItem) TableName() string {
	return "sale_items"
}

// NewSaleItem creates a new sale line item
func NewSaleItem(saleID, productID uuid.UUID, productName string, quantity int64, unitPrice valueobject.Money, costAtSale decimal.Decimal) (*SaleItem, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if productName == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}

	now := time.Now()
	return &SaleItem{
		ID:          uuid.New(),
		SaleID:      saleID,
		ProductID:   productID,
		ProductName: productName,
		Quantity:    quantity,
		UnitPrice:   unitPrice.Amount(),
		CostAtSale:  costAtSale,
		Total:       unitPrice.Amount().Mul(decimal.NewFromInt(quantity)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// UpdateQuantity updates the quantity and recalculates the line total
func (i *SaleItem) UpdateQuantity(quantity int64) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	i.Quantity = quantity
	i.Total = i.UnitPrice.Mul(decimal.NewFromInt(quantity))
	i.UpdatedAt = time.Now()
	return nil
}

// Profit returns the margin this line contributes: (price - cost) * qty
func (i *SaleItem) Profit() decimal.Decimal {
	return i.UnitPrice.Sub(i.CostAtSale).Mul(decimal.NewFromInt(i.Quantity))
}

// Sale is the aggregate root for a point-of-sale transaction. It moves
// pending -> completed (deducting stock and freezing profit), may be
// reopened back to pending (restoring stock), or cancelled while still
// pending. Cancelled is terminal.
type Sale struct {
	shared.OwnedAggregateRoot
	Number        string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	CustomerID    *uuid.UUID      `gorm:"type:uuid;index"`
	CustomerName  string          `gorm:"type:varchar(255)"`
	PaymentMethod PaymentMethod   `gorm:"type:varchar(20);not null;default:'cash'"`
	Items         []SaleItem      `gorm:"foreignKey:SaleID;references:ID"`
	Total         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Profit        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Status        SaleStatus      `gorm:"type:varchar(20);not null;default:'pending'"`
	Notes         string          `gorm:"type:text"`
	CompletedAt   *time.Time
	CancelledAt   *time.Time
}

// TableName returns the table name for GORM
func (Sale) TableName() string {
	return "sales"
}

// NewSale creates a new pending sale with no items
func NewSale(number string, createdBy uuid.UUID, paymentMethod PaymentMethod) (*Sale, error) {
	if number == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Sale number cannot be empty")
	}
	if createdBy == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "Sale must have a creating user")
	}
	if !paymentMethod.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", fmt.Sprintf("Unknown payment method %q", paymentMethod))
	}

	sale := &Sale{
		OwnedAggregateRoot: shared.NewOwnedAggregateRoot(createdBy),
		Number:             number,
		PaymentMethod:      paymentMethod,
		Items:              make([]SaleItem, 0),
		Total:              decimal.Zero,
		Profit:             decimal.Zero,
		Status:             SaleStatusPending,
	}

	sale.AddDomainEvent(NewSaleCreatedEvent(sale))
	return sale, nil
}

// SetCustomer attaches an optional customer to the sale
func (s *Sale) SetCustomer(customerID uuid.UUID, name string) error {
	if err := s.guardMutable(); err != nil {
		return err
	}
	s.CustomerID = &customerID
	s.CustomerName = name
	s.UpdatedAt = time.Now()
	return nil
}

// guardMutable rejects line-item mutation unless the sale is pending
func (s *Sale) guardMutable() error {
	switch s.Status {
	case SaleStatusCompleted:
		return shared.NewDomainError("ORDER_COMPLETED", "Cannot modify a completed sale")
	case SaleStatusCancelled:
		return shared.NewDomainError("INVALID_STATE", "Cannot modify a cancelled sale")
	}
	return nil
}

// AddItem adds a line to the sale. Each product may appear on at most
// one line; callers update the existing line's quantity instead.
func (s *Sale) AddItem(productID uuid.UUID, productName string, quantity int64, unitPrice valueobject.Money, costAtSale decimal.Decimal) (*SaleItem, error) {
	if err := s.guardMutable(); err != nil {
		return nil, err
	}

	for _, item := range s.Items {
		if item.ProductID == productID {
			return nil, shared.NewDomainError("DUPLICATE_LINE", "Product already on this sale, update its quantity instead")
		}
	}

	item, err := NewSaleItem(s.ID, productID, productName, quantity, unitPrice, costAtSale)
	if err != nil {
		return nil, err
	}

	s.Items = append(s.Items, *item)
	if err := s.recalculateTotal(); err != nil {
		return nil, err
	}
	s.UpdatedAt = time.Now()

	return item, nil
}

// UpdateItemQuantity updates the quantity of an existing line
func (s *Sale) UpdateItemQuantity(itemID uuid.UUID, quantity int64) error {
	if err := s.guardMutable(); err != nil {
		return err
	}

	for idx := range s.Items {
		if s.Items[idx].ID == itemID {
			if err := s.Items[idx].UpdateQuantity(quantity); err != nil {
				return err
			}
			if err := s.recalculateTotal(); err != nil {
				return err
			}
			s.UpdatedAt = time.Now()
			return nil
		}
	}

	return shared.NewDomainError("ITEM_NOT_FOUND", "Sale item not found")
}

// RemoveItem removes a line from the sale
func (s *Sale) RemoveItem(itemID uuid.UUID) error {
	if err := s.guardMutable(); err != nil {
		return err
	}

	for idx, item := range s.Items {
		if item.ID == itemID {
			s.Items = append(s.Items[:idx], s.Items[idx+1:]...)
			if err := s.recalculateTotal(); err != nil {
				return err
			}
			s.UpdatedAt = time.Now()
			return nil
		}
	}

	return shared.NewDomainError("ITEM_NOT_FOUND", "Sale item not found")
}

// FindItem returns the line for a given product, or nil
func (s *Sale) FindItem(productID uuid.UUID) *SaleItem {
	for idx := range s.Items {
		if s.Items[idx].ProductID == productID {
			return &s.Items[idx]
		}
	}
	return nil
}

// recalculateTotal keeps Total equal to the sum of line totals. Line
// totals are individually non-negative, so a negative sum signals a
// bookkeeping bug rather than bad user input; it is rejected instead
// of being written.
func (s *Sale) recalculateTotal() error {
	total := decimal.Zero
	for _, item := range s.Items {
		total = total.Add(item.Total)
	}
	if total.IsNegative() {
		return shared.NewDomainError("INVALID_TOTAL", "Sale total must not go negative")
	}
	s.Total = total
	return nil
}

// Complete finalizes the sale: freezes profit from the per-line price
// and cost snapshots and marks the sale completed. Stock deduction
// happens in the same transaction but outside the aggregate.
func (s *Sale) Complete() error {
	switch s.Status {
	case SaleStatusCompleted:
		return shared.NewDomainError("ALREADY_COMPLETED", "Sale is already completed")
	case SaleStatusCancelled:
		return shared.NewDomainError("INVALID_STATE", "Cannot complete a cancelled sale")
	}
	if len(s.Items) == 0 {
		return shared.NewDomainError("EMPTY_ORDER", "Cannot complete a sale without items")
	}
	if !s.Total.IsPositive() {
		return shared.NewDomainError("ZERO_TOTAL", "Cannot complete a sale with a non-positive total")
	}

	profit := decimal.Zero
	for _, item := range s.Items {
		profit = profit.Add(item.Profit())
	}

	now := time.Now()
	s.Status = SaleStatusCompleted
	s.Profit = profit
	s.CompletedAt = &now
	s.UpdatedAt = now

	s.AddDomainEvent(NewSaleCompletedEvent(s))
	return nil
}

// Reopen reverts a completed sale to pending so its lines can be
// corrected. Profit is unfrozen; stock restoration happens in the same
// transaction but outside the aggregate.
func (s *Sale) Reopen() error {
	if s.Status != SaleStatusCompleted {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot reopen a sale in %s status", s.Status))
	}

	s.Status = SaleStatusPending
	s.Profit = decimal.Zero
	s.CompletedAt = nil
	s.UpdatedAt = time.Now()

	s.AddDomainEvent(NewSaleReopenedEvent(s))
	return nil
}

// Cancel abandons a pending sale. A pending sale never touched
// inventory, so there is nothing to unwind; a completed sale must be
// reopened first.
func (s *Sale) Cancel(reason string) error {
	switch s.Status {
	case SaleStatusCompleted:
		return shared.NewDomainError("INVALID_STATE", "Cannot cancel a completed sale")
	case SaleStatusCancelled:
		return shared.NewDomainError("ALREADY_CANCELLED", "Sale is already cancelled")
	}

	now := time.Now()
	s.Status = SaleStatusCancelled
	s.CancelledAt = &now
	s.Notes = reason
	s.UpdatedAt = now

	s.AddDomainEvent(NewSaleCancelledEvent(s, reason))
	return nil
}
