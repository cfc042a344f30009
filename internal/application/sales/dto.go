package sales

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pos/backend/internal/domain/sales"
)

// CreateSaleRequest represents a request to open a new sale
type CreateSaleRequest struct {
	CustomerID    *uuid.UUID            `json:"customer_id"`
	PaymentMethod string                `json:"payment_method" binding:"omitempty,oneof=cash card mixed"`
	Items         []CreateSaleItemInput `json:"items"`
	Notes         string                `json:"notes"`
}

// CreateSaleItemInput represents an item in the create sale request
type CreateSaleItemInput struct {
	ProductID uuid.UUID        `json:"product_id" binding:"required"`
	Quantity  int64            `json:"quantity" binding:"required,gt=0"`
	UnitPrice *decimal.Decimal `json:"unit_price"` // honored only when the product has no cost basis
}

// AddSaleItemRequest represents a request to add a line to a sale
type AddSaleItemRequest struct {
	ProductID uuid.UUID        `json:"product_id" binding:"required"`
	Quantity  int64            `json:"quantity" binding:"required,gt=0"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
}

// UpdateSaleItemRequest represents a request to change a line's quantity
type UpdateSaleItemRequest struct {
	Quantity int64 `json:"quantity" binding:"required,gt=0"`
}

// CancelSaleRequest represents a request to cancel a sale
type CancelSaleRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// SaleListFilter represents filter options for the sale list
type SaleListFilter struct {
	Search   string     `form:"search"`
	Status   string     `form:"status" binding:"omitempty,oneof=pending completed cancelled"`
	From     *time.Time `form:"from"`
	To       *time.Time `form:"to"`
	Page     int        `form:"page" binding:"omitempty,min=1"`
	PageSize int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string     `form:"order_by"`
	OrderDir string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// SaleItemResponse represents a sale line in API responses
type SaleItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	CostAtSale  decimal.Decimal `json:"cost_at_sale"`
	Total       decimal.Decimal `json:"total"`
}

// SaleResponse represents a sale in API responses
type SaleResponse struct {
	ID            uuid.UUID          `json:"id"`
	Number        string             `json:"number"`
	CustomerID    *uuid.UUID         `json:"customer_id,omitempty"`
	CustomerName  string             `json:"customer_name,omitempty"`
	PaymentMethod string             `json:"payment_method"`
	Items         []SaleItemResponse `json:"items"`
	Total         decimal.Decimal    `json:"total"`
	Profit        decimal.Decimal    `json:"profit"`
	Status        string             `json:"status"`
	Notes         string             `json:"notes,omitempty"`
	CreatedBy     *uuid.UUID         `json:"created_by,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	CompletedAt   *time.Time         `json:"completed_at,omitempty"`
	CancelledAt   *time.Time         `json:"cancelled_at,omitempty"`
}

// CompleteSaleResponse wraps the completed sale with its frozen profit
type CompleteSaleResponse struct {
	Sale        SaleResponse    `json:"sale"`
	TotalProfit decimal.Decimal `json:"total_profit"`
}

// SaleSummaryResponse aggregates completed sales over a period
type SaleSummaryResponse struct {
	From   time.Time       `json:"from"`
	To     time.Time       `json:"to"`
	Count  int64           `json:"count"`
	Total  decimal.Decimal `json:"total"`
	Profit decimal.Decimal `json:"profit"`
}

// ToSaleResponse maps a domain sale to its API representation
func ToSaleResponse(sale *sales.Sale) SaleResponse {
	items := make([]SaleItemResponse, 0, len(sale.Items))
	for _, item := range sale.Items {
		items = append(items, SaleItemResponse{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			CostAtSale:  item.CostAtSale,
			Total:       item.Total,
		})
	}

	return SaleResponse{
		ID:            sale.ID,
		Number:        sale.Number,
		CustomerID:    sale.CustomerID,
		CustomerName:  sale.CustomerName,
		PaymentMethod: string(sale.PaymentMethod),
		Items:         items,
		Total:         sale.Total,
		Profit:        sale.Profit,
		Status:        sale.Status.String(),
		Notes:         sale.Notes,
		CreatedBy:     sale.CreatedBy,
		CreatedAt:     sale.CreatedAt,
		CompletedAt:   sale.CompletedAt,
		CancelledAt:   sale.CancelledAt,
	}
}
