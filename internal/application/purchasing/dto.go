package purchasing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pos/backend/internal/domain/purchasing"
)

// CreatePurchaseRequest represents a request to open a new purchase order
type CreatePurchaseRequest struct {
	SupplierID *uuid.UUID                `json:"supplier_id"`
	Items      []CreatePurchaseItemInput `json:"items"`
	Notes      string                    `json:"notes"`
}

// CreatePurchaseItemInput represents an item in the create purchase request
type CreatePurchaseItemInput struct {
	ProductID uuid.UUID       `json:"product_id" binding:"required"`
	Quantity  int64           `json:"quantity" binding:"required,gt=0"`
	UnitCost  decimal.Decimal `json:"unit_cost" binding:"required"`
}

// AddPurchaseItemRequest represents a request to add a line to a purchase
type AddPurchaseItemRequest struct {
	ProductID uuid.UUID       `json:"product_id" binding:"required"`
	Quantity  int64           `json:"quantity" binding:"required,gt=0"`
	UnitCost  decimal.Decimal `json:"unit_cost" binding:"required"`
}

// UpdatePurchaseItemRequest represents a request to change a line
type UpdatePurchaseItemRequest struct {
	Quantity *int64           `json:"quantity" binding:"omitempty,gt=0"`
	UnitCost *decimal.Decimal `json:"unit_cost"`
}

// CancelPurchaseRequest represents a request to cancel a purchase
type CancelPurchaseRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// PurchaseListFilter represents filter options for the purchase list
type PurchaseListFilter struct {
	Search     string     `form:"search"`
	Status     string     `form:"status" binding:"omitempty,oneof=pending completed cancelled"`
	SupplierID *uuid.UUID `form:"supplier_id"`
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy    string     `form:"order_by"`
	OrderDir   string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// PurchaseItemResponse represents a purchase line in API responses
type PurchaseItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int64           `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	Total       decimal.Decimal `json:"total"`
}

// PurchaseResponse represents a purchase in API responses
type PurchaseResponse struct {
	ID           uuid.UUID              `json:"id"`
	Number       string                 `json:"number"`
	SupplierID   *uuid.UUID             `json:"supplier_id,omitempty"`
	SupplierName string                 `json:"supplier_name,omitempty"`
	Items        []PurchaseItemResponse `json:"items"`
	Total        decimal.Decimal        `json:"total"`
	Status       string                 `json:"status"`
	Notes        string                 `json:"notes,omitempty"`
	CreatedBy    *uuid.UUID             `json:"created_by,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
	CompletedAt  *time.Time             `json:"completed_at,omitempty"`
	CancelledAt  *time.Time             `json:"cancelled_at,omitempty"`
}

// ToPurchaseResponse maps a domain purchase to its API representation
func ToPurchaseResponse(purchase *purchasing.Purchase) PurchaseResponse {
	items := make([]PurchaseItemResponse, 0, len(purchase.Items))
	for _, item := range purchase.Items {
		items = append(items, PurchaseItemResponse{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitCost:    item.UnitCost,
			Total:       item.Total,
		})
	}

	return PurchaseResponse{
		ID:           purchase.ID,
		Number:       purchase.Number,
		SupplierID:   purchase.SupplierID,
		SupplierName: purchase.SupplierName,
		Items:        items,
		Total:        purchase.Total,
		Status:       purchase.Status.String(),
		Notes:        purchase.Notes,
		CreatedBy:    purchase.CreatedBy,
		CreatedAt:    purchase.CreatedAt,
		CompletedAt:  purchase.CompletedAt,
		CancelledAt:  purchase.CancelledAt,
	}
}
