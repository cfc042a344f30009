package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pos/backend/internal/domain/catalog"
)

// CreateProductRequest represents a request to create a product
type CreateProductRequest struct {
	Name             string           `json:"name" binding:"required,min=1,max=255"`
	SKU              string           `json:"sku" binding:"max=64"`
	Description      string           `json:"description"`
	Barcode          string           `json:"barcode" binding:"max=64"`
	CategoryID       *uuid.UUID       `json:"category_id"`
	ProfitPercentage *decimal.Decimal `json:"profit_percentage"`
}

// UpdateProductRequest represents a request to update product fields
type UpdateProductRequest struct {
	Name             *string          `json:"name" binding:"omitempty,min=1,max=255"`
	Description      *string          `json:"description"`
	Barcode          *string          `json:"barcode" binding:"omitempty,max=64"`
	CategoryID       *uuid.UUID       `json:"category_id"`
	ProfitPercentage *decimal.Decimal `json:"profit_percentage"`
}

// AdjustStockRequest represents a manual stock receipt outside a purchase
type AdjustStockRequest struct {
	Quantity int64           `json:"quantity" binding:"required,gt=0"`
	UnitCost decimal.Decimal `json:"unit_cost" binding:"required"`
}

// ProductListFilter represents filter options for the product list
type ProductListFilter struct {
	Search     string     `form:"search"`
	CategoryID *uuid.UUID `form:"category_id"`
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy    string     `form:"order_by"`
	OrderDir   string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID               uuid.UUID       `json:"id"`
	Name             string          `json:"name"`
	SKU              string          `json:"sku,omitempty"`
	Description      string          `json:"description,omitempty"`
	Barcode          string          `json:"barcode,omitempty"`
	CategoryID       *uuid.UUID      `json:"category_id,omitempty"`
	Stock            int64           `json:"stock"`
	AverageCost      decimal.Decimal `json:"average_cost"`
	ProfitPercentage decimal.Decimal `json:"profit_percentage"`
	Price            decimal.Decimal `json:"price"`
	Active           bool            `json:"active"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// ToProductResponse maps a domain product to its API representation
func ToProductResponse(product *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:               product.ID,
		Name:             product.Name,
		SKU:              product.SKU,
		Description:      product.Description,
		Barcode:          product.Barcode,
		CategoryID:       product.CategoryID,
		Stock:            product.Stock,
		AverageCost:      product.AverageCost,
		ProfitPercentage: product.ProfitPercentage,
		Price:            product.SellingPrice().Amount(),
		Active:           product.Active,
		CreatedAt:        product.CreatedAt,
		UpdatedAt:        product.UpdatedAt,
	}
}

// CreateCategoryRequest represents a request to create a category
type CreateCategoryRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=255"`
	Description string `json:"description"`
}

// UpdateCategoryRequest represents a request to rename a category
type UpdateCategoryRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=255"`
	Description *string `json:"description"`
}

// CategoryResponse represents a category in API responses
type CategoryResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ToCategoryResponse maps a domain category to its API representation
func ToCategoryResponse(category *catalog.Category) CategoryResponse {
	return CategoryResponse{
		ID:          category.ID,
		Name:        category.Name,
		Description: category.Description,
		CreatedAt:   category.CreatedAt,
	}
}
