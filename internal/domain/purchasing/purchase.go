package purchasing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/domain/shared/valueobject"
)

// PurchaseStatus represents the status of a purchase order
type PurchaseStatus string

const (
	PurchaseStatusPending   PurchaseStatus = "pending"
	PurchaseStatusCompleted PurchaseStatus = "completed"
	PurchaseStatusCancelled PurchaseStatus = "cancelled"
)

// IsValid checks if the status is a valid PurchaseStatus
func (s PurchaseStatus) IsValid() bool {
	switch s {
	case PurchaseStatusPending, PurchaseStatusCompleted, PurchaseStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of PurchaseStatus
func (s PurchaseStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s PurchaseStatus) CanTransitionTo(target PurchaseStatus) bool {
	switch s {
	case PurchaseStatusPending:
		return target == PurchaseStatusCompleted || target == PurchaseStatusCancelled
	case PurchaseStatusCompleted:
		return target == PurchaseStatusPending
	case PurchaseStatusCancelled:
		return false
	}
	return false
}

// PurchaseItem is a line on a purchase order. UnitCost is what the
// supplier charges per unit; it feeds the product's weighted average
// cost when the purchase completes.
type PurchaseItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	PurchaseID  uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_purchase_items_purchase_product,priority:1"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_purchase_items_purchase_product,priority:2"`
	ProductName string          `gorm:"type:varchar(255);not null"`
	Quantity    int64           `gorm:"not null"`
	UnitCost    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Total       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName returns the table name for GORM
func (PurchaseItem) TableName() string {
	return "purchase_items"
}

// NewPurchaseItem creates a new purchase line item
func NewPurchaseItem(purchaseID, productID uuid.UUID, productName string, quantity int64, unitCost valueobject.Money) (*PurchaseItem, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if productName == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitCost.IsNegative() {
		return nil, shared.NewDomainError("INVALID_UNIT_COST", "Unit cost cannot be negative")
	}

	now := time.Now()
	return &PurchaseItem{
		ID:          uuid.New(),
		PurchaseID:  purchaseID,
		ProductID:   productID,
		ProductName: productName,
		Quantity:    quantity,
		UnitCost:    unitCost.Amount(),
		Total:       unitCost.Amount().Mul(decimal.NewFromInt(quantity)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// UpdateQuantity updates the quantity and recalculates the line total
func (i *PurchaseItem) UpdateQuantity(quantity int64) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	i.Quantity = quantity
	i.Total = i.UnitCost.Mul(decimal.NewFromInt(quantity))
	i.UpdatedAt = time.Now()
	return nil
}

// UpdateUnitCost updates the unit cost and recalculates the line total
func (i *PurchaseItem) UpdateUnitCost(unitCost valueobject.Money) error {
	if unitCost.IsNegative() {
		return shared.NewDomainError("INVALID_UNIT_COST", "Unit cost cannot be negative")
	}
	i.UnitCost = unitCost.Amount()
	i.Total = i.UnitCost.Mul(decimal.NewFromInt(i.Quantity))
	i.UpdatedAt = time.Now()
	return nil
}

// Purchase is the aggregate root for a supplier order. Completing it
// receives each line into stock at the line's unit cost; reopening it
// pulls those units back out.
type Purchase struct {
	shared.OwnedAggregateRoot
	Number       string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	SupplierID   *uuid.UUID      `gorm:"type:uuid;index"`
	SupplierName string          `gorm:"type:varchar(255)"`
	Items        []PurchaseItem  `gorm:"foreignKey:PurchaseID;references:ID"`
	Total        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Status       PurchaseStatus  `gorm:"type:varchar(20);not null;default:'pending'"`
	Notes        string          `gorm:"type:text"`
	CompletedAt  *time.Time
	CancelledAt  *time.Time
}

// TableName returns the table name for GORM
func (Purchase) TableName() string {
	return "purchases"
}

// NewPurchase creates a new pending purchase with no items
func NewPurchase(number string, createdBy uuid.UUID) (*Purchase, error) {
	if number == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Purchase number cannot be empty")
	}
	if createdBy == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "Purchase must have a creating user")
	}

	purchase := &Purchase{
		OwnedAggregateRoot: shared.NewOwnedAggregateRoot(createdBy),
		Number:             number,
		Items:              make([]PurchaseItem, 0),
		Total:              decimal.Zero,
		Status:             PurchaseStatusPending,
	}

	purchase.AddDomainEvent(NewPurchaseCreatedEvent(purchase))
	return purchase, nil
}

// SetSupplier attaches a supplier to the purchase
func (p *Purchase) SetSupplier(supplierID uuid.UUID, name string) error {
	if err := p.guardMutable(); err != nil {
		return err
	}
	p.SupplierID = &supplierID
	p.SupplierName = name
	p.UpdatedAt = time.Now()
	return nil
}

func (p *Purchase) guardMutable() error {
	switch p.Status {
	case PurchaseStatusCompleted:
		return shared.NewDomainError("ORDER_COMPLETED", "Cannot modify a completed purchase")
	case PurchaseStatusCancelled:
		return shared.NewDomainError("INVALID_STATE", "Cannot modify a cancelled purchase")
	}
	return nil
}

// AddItem adds a line to the purchase. Each product may appear on at
// most one line.
func (p *Purchase) AddItem(productID uuid.UUID, productName string, quantity int64, unitCost valueobject.Money) (*PurchaseItem, error) {
	if err := p.guardMutable(); err != nil {
		return nil, err
	}

	for _, item := range p.Items {
		if item.ProductID == productID {
			return nil, shared.NewDomainError("DUPLICATE_LINE", "Product already on this purchase, update its quantity instead")
		}
	}

	item, err := NewPurchaseItem(p.ID, productID, productName, quantity, unitCost)
	if err != nil {
		return nil, err
	}

	p.Items = append(p.Items, *item)
	if err := p.recalculateTotal(); err != nil {
		return nil, err
	}
	p.UpdatedAt = time.Now()

	return item, nil
}

// UpdateItemQuantity updates the quantity of an existing line
func (p *Purchase) UpdateItemQuantity(itemID uuid.UUID, quantity int64) error {
	if err := p.guardMutable(); err != nil {
		return err
	}

	for idx := range p.Items {
		if p.Items[idx].ID == itemID {
			if err := p.Items[idx].UpdateQuantity(quantity); err != nil {
				return err
			}
			if err := p.recalculateTotal(); err != nil {
				return err
			}
			p.UpdatedAt = time.Now()
			return nil
		}
	}

	return shared.NewDomainError("ITEM_NOT_FOUND", "Purchase item not found")
}

// UpdateItemCost updates the unit cost of an existing line
func (p *Purchase) UpdateItemCost(itemID uuid.UUID, unitCost valueobject.Money) error {
	if err := p.guardMutable(); err != nil {
		return err
	}

	for idx := range p.Items {
		if p.Items[idx].ID == itemID {
			if err := p.Items[idx].UpdateUnitCost(unitCost); err != nil {
				return err
			}
			if err := p.recalculateTotal(); err != nil {
				return err
			}
			p.UpdatedAt = time.Now()
			return nil
		}
	}

	return shared.NewDomainError("ITEM_NOT_FOUND", "Purchase item not found")
}

// RemoveItem removes a line from the purchase
func (p *Purchase) RemoveItem(itemID uuid.UUID) error {
	if err := p.guardMutable(); err != nil {
		return err
	}

	for idx, item := range p.Items {
		if item.ID == itemID {
			p.Items = append(p.Items[:idx], p.Items[idx+1:]...)
			if err := p.recalculateTotal(); err != nil {
				return err
			}
			p.UpdatedAt = time.Now()
			return nil
		}
	}

	return shared.NewDomainError("ITEM_NOT_FOUND", "Purchase item not found")
}

// recalculateTotal keeps Total equal to the sum of line totals. A
// negative sum signals a bookkeeping bug upstream and is rejected
// instead of being written.
func (p *Purchase) recalculateTotal() error {
	total := decimal.Zero
	for _, item := range p.Items {
		total = total.Add(item.Total)
	}
	if total.IsNegative() {
		return shared.NewDomainError("INVALID_TOTAL", "Purchase total must not go negative")
	}
	p.Total = total
	return nil
}

// Complete marks the purchase received. Stock receipt and cost
// averaging happen in the same transaction but outside the aggregate.
func (p *Purchase) Complete() error {
	switch p.Status {
	case PurchaseStatusCompleted:
		return shared.NewDomainError("ALREADY_COMPLETED", "Purchase is already completed")
	case PurchaseStatusCancelled:
		return shared.NewDomainError("INVALID_STATE", "Cannot complete a cancelled purchase")
	}
	if len(p.Items) == 0 {
		return shared.NewDomainError("EMPTY_ORDER", "Cannot complete a purchase without items")
	}

	now := time.Now()
	p.Status = PurchaseStatusCompleted
	p.CompletedAt = &now
	p.UpdatedAt = now

	p.AddDomainEvent(NewPurchaseCompletedEvent(p))
	return nil
}

// Reopen reverts a completed purchase to pending. Stock removal
// happens in the same transaction but outside the aggregate.
func (p *Purchase) Reopen() error {
	if p.Status != PurchaseStatusCompleted {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot reopen a purchase in %s status", p.Status))
	}

	p.Status = PurchaseStatusPending
	p.CompletedAt = nil
	p.UpdatedAt = time.Now()

	p.AddDomainEvent(NewPurchaseReopenedEvent(p))
	return nil
}

// Cancel abandons a pending purchase. Nothing was received, so there
// is no inventory to unwind.
func (p *Purchase) Cancel(reason string) error {
	switch p.Status {
	case PurchaseStatusCompleted:
		return shared.NewDomainError("INVALID_STATE", "Cannot cancel a completed purchase")
	case PurchaseStatusCancelled:
		return shared.NewDomainError("ALREADY_CANCELLED", "Purchase is already cancelled")
	}

	now := time.Now()
	p.Status = PurchaseStatusCancelled
	p.CancelledAt = &now
	p.Notes = reason
	p.UpdatedAt = now

	p.AddDomainEvent(NewPurchaseCancelledEvent(p, reason))
	return nil
}
