package shared

import "fmt"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENT_MODIFICATION", "Resource was modified by another process")
	ErrDuplicateNumber     = NewDomainError("DUPLICATE_NUMBER", "Order number already taken")
	ErrUnauthorized        = NewDomainError("UNAUTHORIZED", "Not authorized to perform this action")
	ErrForbidden           = NewDomainError("FORBIDDEN", "Access to this resource is forbidden")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
)

// StockError is raised when an order requests more units than a product
// has on hand. It carries the details needed to tell the operator which
// line failed and by how much.
type StockError struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Available   int64  `json:"available"`
	Requested   int64  `json:"requested"`
}

// Error implements the error interface
func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: %d available, %d requested",
		e.ProductName, e.Available, e.Requested)
}

// Code returns the stable error code for this error
func (e *StockError) Code() string {
	return "INSUFFICIENT_STOCK"
}

// NewStockError creates a new insufficient stock error
func NewStockError(productID, productName string, available, requested int64) *StockError {
	return &StockError{
		ProductID:   productID,
		ProductName: productName,
		Available:   available,
		Requested:   requested,
	}
}
