package purchasing

import (
	"context"

	"github.com/google/uuid"

	"github.com/pos/backend/internal/domain/shared"
)

// PurchaseRepository defines the interface for purchase persistence
type PurchaseRepository interface {
	// FindByID finds a purchase by its ID, items included
	FindByID(ctx context.Context, id uuid.UUID) (*Purchase, error)

	// FindByNumber finds a purchase by its human-facing number
	FindByNumber(ctx context.Context, number string) (*Purchase, error)

	// FindAll finds all purchases matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Purchase, error)

	// FindByStatus finds purchases in a given status
	FindByStatus(ctx context.Context, status PurchaseStatus, filter shared.Filter) ([]Purchase, error)

	// FindBySupplier finds purchases for a given supplier
	FindBySupplier(ctx context.Context, supplierID uuid.UUID, filter shared.Filter) ([]Purchase, error)

	// Save creates or updates a purchase and its items
	Save(ctx context.Context, purchase *Purchase) error

	// SaveWithLock updates a purchase with optimistic lock checking
	SaveWithLock(ctx context.Context, purchase *Purchase) error

	// Delete deletes a purchase and its items
	Delete(ctx context.Context, id uuid.UUID) error

	// Count counts purchases matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// GenerateNumber produces the next human-facing purchase number
	GenerateNumber(ctx context.Context) (string, error)
}
