package sales

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pos/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeSale = "Sale"

// Event type constants
const (
	EventTypeSaleCreated   = "SaleCreated"
	EventTypeSaleCompleted = "SaleCompleted"
	EventTypeSaleReopened  = "SaleReopened"
	EventTypeSaleCancelled = "SaleCancelled"
)

// SaleCreatedEvent is raised when a new sale is opened
type SaleCreatedEvent struct {
	shared.BaseDomainEvent
	SaleID uuid.UUID `json:"sale_id"`
	Number string    `json:"number"`
}

// NewSaleCreatedEvent creates a new SaleCreatedEvent
func NewSaleCreatedEvent(sale *Sale) *SaleCreatedEvent {
	return &SaleCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleCreated, AggregateTypeSale, sale.ID),
		SaleID:          sale.ID,
		Number:          sale.Number,
	}
}

// EventType returns the event type name
func (e *SaleCreatedEvent) EventType() string {
	return EventTypeSaleCreated
}

// SaleCompletedEvent is raised when a sale completes and profit is frozen
type SaleCompletedEvent struct {
	shared.BaseDomainEvent
	SaleID uuid.UUID       `json:"sale_id"`
	Number string          `json:"number"`
	Total  decimal.Decimal `json:"total"`
	Profit decimal.Decimal `json:"profit"`
}

// NewSaleCompletedEvent creates a new SaleCompletedEvent
func NewSaleCompletedEvent(sale *Sale) *SaleCompletedEvent {
	return &SaleCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleCompleted, AggregateTypeSale, sale.ID),
		SaleID:          sale.ID,
		Number:          sale.Number,
		Total:           sale.Total,
		Profit:          sale.Profit,
	}
}

// EventType returns the event type name
func (e *SaleCompletedEvent) EventType() string {
	return EventTypeSaleCompleted
}

// SaleReopenedEvent is raised when a completed sale reverts to pending
type SaleReopenedEvent struct {
	shared.BaseDomainEvent
	SaleID uuid.UUID `json:"sale_id"`
	Number string    `json:"number"`
}

// NewSaleReopenedEvent creates a new SaleReopenedEvent
func NewSaleReopenedEvent(sale *Sale) *SaleReopenedEvent {
	return &SaleReopenedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleReopened, AggregateTypeSale, sale.ID),
		SaleID:          sale.ID,
		Number:          sale.Number,
	}
}

// EventType returns the event type name
func (e *SaleReopenedEvent) EventType() string {
	return EventTypeSaleReopened
}

// SaleCancelledEvent is raised when a pending sale is abandoned
type SaleCancelledEvent struct {
	shared.BaseDomainEvent
	SaleID uuid.UUID `json:"sale_id"`
	Number string    `json:"number"`
	Reason string    `json:"reason,omitempty"`
}

// NewSaleCancelledEvent creates a new SaleCancelledEvent
func NewSaleCancelledEvent(sale *Sale, reason string) *SaleCancelledEvent {
	return &SaleCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleCancelled, AggregateTypeSale, sale.ID),
		SaleID:          sale.ID,
		Number:          sale.Number,
		Reason:          reason,
	}
}

// EventType returns the event type name
func (e *SaleCancelledEvent) EventType() string {
	return EventTypeSaleCancelled
}
