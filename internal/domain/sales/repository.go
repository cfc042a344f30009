package sales

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pos/backend/internal/domain/shared"
)

// SaleSummary aggregates totals over a period for reporting
type SaleSummary struct {
	Count  int64           `json:"count"`
	Total  decimal.Decimal `json:"total"`
	Profit decimal.Decimal `json:"profit"`
}

// SaleRepository defines the interface for sale persistence
type SaleRepository interface {
	// FindByID finds a sale by its ID, items included
	FindByID(ctx context.Context, id uuid.UUID) (*Sale, error)

	// FindByIDScoped finds a sale visible to the given access scope
	FindByIDScoped(ctx context.Context, scope shared.AccessScope, id uuid.UUID) (*Sale, error)

	// FindByNumber finds a sale by its human-facing number
	FindByNumber(ctx context.Context, number string) (*Sale, error)

	// FindAll finds all sales visible to the scope matching the filter
	FindAll(ctx context.Context, scope shared.AccessScope, filter shared.Filter) ([]Sale, error)

	// FindByStatus finds sales in a given status
	FindByStatus(ctx context.Context, scope shared.AccessScope, status SaleStatus, filter shared.Filter) ([]Sale, error)

	// Save creates or updates a sale and its items
	Save(ctx context.Context, sale *Sale) error

	// SaveWithLock updates a sale with optimistic lock checking
	SaveWithLock(ctx context.Context, sale *Sale) error

	// Delete deletes a sale and its items
	Delete(ctx context.Context, id uuid.UUID) error

	// Count counts sales visible to the scope matching the filter
	Count(ctx context.Context, scope shared.AccessScope, filter shared.Filter) (int64, error)

	// Summarize aggregates completed sales between two instants
	Summarize(ctx context.Context, scope shared.AccessScope, from, to time.Time) (*SaleSummary, error)

	// GenerateNumber produces the next human-facing sale number
	GenerateNumber(ctx context.Context) (string, error)
}
