package catalog

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pos/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeProduct = "Product"

// Event type constants
const (
	EventTypeStockReceived = "StockReceived"
	EventTypeStockDeducted = "StockDeducted"
	EventTypeStockRestored = "StockRestored"
	EventTypeCostChanged   = "ProductCostChanged"
)

// StockReceivedEvent is raised when units enter stock at a given cost
type StockReceivedEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
}

// NewStockReceivedEvent creates a new StockReceivedEvent
func NewStockReceivedEvent(product *Product, quantity int64, unitCost decimal.Decimal) *StockReceivedEvent {
	return &StockReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockReceived, AggregateTypeProduct, product.ID),
		ProductID:       product.ID,
		Quantity:        quantity,
		UnitCost:        unitCost,
	}
}

// EventType returns the event type name
func (e *StockReceivedEvent) EventType() string {
	return EventTypeStockReceived
}

// StockDeductedEvent is raised when units leave stock for a sale
type StockDeductedEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int64     `json:"quantity"`
}

// NewStockDeductedEvent creates a new StockDeductedEvent
func NewStockDeductedEvent(product *Product, quantity int64) *StockDeductedEvent {
	return &StockDeductedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockDeducted, AggregateTypeProduct, product.ID),
		ProductID:       product.ID,
		Quantity:        quantity,
	}
}

// EventType returns the event type name
func (e *StockDeductedEvent) EventType() string {
	return EventTypeStockDeducted
}

// StockRestoredEvent is raised when a reopened sale returns units to stock
type StockRestoredEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int64     `json:"quantity"`
}

// NewStockRestoredEvent creates a new StockRestoredEvent
func NewStockRestoredEvent(product *Product, quantity int64) *StockRestoredEvent {
	return &StockRestoredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockRestored, AggregateTypeProduct, product.ID),
		ProductID:       product.ID,
		Quantity:        quantity,
	}
}

// EventType returns the event type name
func (e *StockRestoredEvent) EventType() string {
	return EventTypeStockRestored
}

// CostChangedEvent is raised when a receipt moves the weighted average cost
type CostChangedEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID       `json:"product_id"`
	OldCost   decimal.Decimal `json:"old_cost"`
	NewCost   decimal.Decimal `json:"new_cost"`
}

// NewCostChangedEvent creates a new CostChangedEvent
func NewCostChangedEvent(product *Product, oldCost, newCost decimal.Decimal) *CostChangedEvent {
	return &CostChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCostChanged, AggregateTypeProduct, product.ID),
		ProductID:       product.ID,
		OldCost:         oldCost,
		NewCost:         newCost,
	}
}

// EventType returns the event type name
func (e *CostChangedEvent) EventType() string {
	return EventTypeCostChanged
}
