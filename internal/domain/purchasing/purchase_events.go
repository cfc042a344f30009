package purchasing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pos/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypePurchase = "Purchase"

// Event type constants
const (
	EventTypePurchaseCreated   = "PurchaseCreated"
	EventTypePurchaseCompleted = "PurchaseCompleted"
	EventTypePurchaseReopened  = "PurchaseReopened"
	EventTypePurchaseCancelled = "PurchaseCancelled"
)

// PurchaseCreatedEvent is raised when a new purchase order is opened
type PurchaseCreatedEvent struct {
	shared.BaseDomainEvent
	PurchaseID uuid.UUID `json:"purchase_id"`
	Number     string    `json:"number"`
}

// NewPurchaseCreatedEvent creates a new PurchaseCreatedEvent
func NewPurchaseCreatedEvent(purchase *Purchase) *PurchaseCreatedEvent {
	return &PurchaseCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseCreated, AggregateTypePurchase, purchase.ID),
		PurchaseID:      purchase.ID,
		Number:          purchase.Number,
	}
}

// EventType returns the event type name
func (e *PurchaseCreatedEvent) EventType() string {
	return EventTypePurchaseCreated
}

// PurchaseCompletedEvent is raised when a purchase is received into stock
type PurchaseCompletedEvent struct {
	shared.BaseDomainEvent
	PurchaseID uuid.UUID       `json:"purchase_id"`
	Number     string          `json:"number"`
	Total      decimal.Decimal `json:"total"`
}

// NewPurchaseCompletedEvent creates a new PurchaseCompletedEvent
func NewPurchaseCompletedEvent(purchase *Purchase) *PurchaseCompletedEvent {
	return &PurchaseCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseCompleted, AggregateTypePurchase, purchase.ID),
		PurchaseID:      purchase.ID,
		Number:          purchase.Number,
		Total:           purchase.Total,
	}
}

// EventType returns the event type name
func (e *PurchaseCompletedEvent) EventType() string {
	return EventTypePurchaseCompleted
}

// PurchaseReopenedEvent is raised when a completed purchase reverts to pending
type PurchaseReopenedEvent struct {
	shared.BaseDomainEvent
	PurchaseID uuid.UUID `json:"purchase_id"`
	Number     string    `json:"number"`
}

// NewPurchaseReopenedEvent creates a new PurchaseReopenedEvent
func NewPurchaseReopenedEvent(purchase *Purchase) *PurchaseReopenedEvent {
	return &PurchaseReopenedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseReopened, AggregateTypePurchase, purchase.ID),
		PurchaseID:      purchase.ID,
		Number:          purchase.Number,
	}
}

// EventType returns the event type name
func (e *PurchaseReopenedEvent) EventType() string {
	return EventTypePurchaseReopened
}

// PurchaseCancelledEvent is raised when a pending purchase is abandoned
type PurchaseCancelledEvent struct {
	shared.BaseDomainEvent
	PurchaseID uuid.UUID `json:"purchase_id"`
	Number     string    `json:"number"`
	Reason     string    `json:"reason,omitempty"`
}

// NewPurchaseCancelledEvent creates a new PurchaseCancelledEvent
func NewPurchaseCancelledEvent(purchase *Purchase, reason string) *PurchaseCancelledEvent {
	return &PurchaseCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseCancelled, AggregateTypePurchase, purchase.ID),
		PurchaseID:      purchase.ID,
		Number:          purchase.Number,
		Reason:          reason,
	}
}

// EventType returns the event type name
func (e *PurchaseCancelledEvent) EventType() string {
	return EventTypePurchaseCancelled
}
