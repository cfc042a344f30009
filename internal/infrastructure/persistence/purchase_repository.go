package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pos/backend/internal/domain/purchasing"
	"github.com/pos/backend/internal/domain/shared"
)

// GormPurchaseRepository implements purchasing.PurchaseRepository using GORM
type GormPurchaseRepository struct {
	db *gorm.DB
}

// NewGormPurchaseRepository creates a new GormPurchaseRepository
func NewGormPurchaseRepository(db *gorm.DB) *GormPurchaseRepository {
	return &GormPurchaseRepository{db: db}
}

// FindByID finds a purchase by its ID, items included
func (r *GormPurchaseRepository) FindByID(ctx context.Context, id uuid.UUID) (*purchasing.Purchase, error) {
	var purchase purchasing.Purchase
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&purchase, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &purchase, nil
}

// FindByNumber finds a purchase by its human-facing number
func (r *GormPurchaseRepository) FindByNumber(ctx context.Context, number string) (*purchasing.Purchase, error) {
	var purchase purchasing.Purchase
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("number = ?", number).
		First(&purchase).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &purchase, nil
}

// FindAll finds all purchases matching the filter
func (r *GormPurchaseRepository) FindAll(ctx context.Context, filter shared.Filter) ([]purchasing.Purchase, error) {
	var result []purchasing.Purchase
	query := r.applyFilter(r.db.WithContext(ctx).Model(&purchasing.Purchase{}), filter)

	if err := query.Preload("Items").Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

// FindByStatus finds purchases in a given status
func (r *GormPurchaseRepository) FindByStatus(ctx context.Context, status purchasing.PurchaseStatus, filter shared.Filter) ([]purchasing.Purchase, error) {
	var result []purchasing.Purchase
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&purchasing.Purchase{}).Where("status = ?", status),
		filter,
	)

	if err := query.Preload("Items").Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

// FindBySupplier finds purchases for a given supplier
func (r *GormPurchaseRepository) FindBySupplier(ctx context.Context, supplierID uuid.UUID, filter shared.Filter) ([]purchasing.Purchase, error) {
	var result []purchasing.Purchase
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&purchasing.Purchase{}).Where("supplier_id = ?", supplierID),
		filter,
	)

	if err := query.Preload("Items").Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

// Save creates or updates a purchase and its items. Items removed from
// the aggregate are deleted from the item table. A unique violation on
// the purchase number surfaces as ErrDuplicateNumber so the caller can
// draw a fresh number and retry.
func (r *GormPurchaseRepository) Save(ctx context.Context, purchase *purchasing.Purchase) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Save(purchase).Error; err != nil {
			if isUniqueViolation(err) {
				return shared.ErrDuplicateNumber
			}
			return err
		}
		return r.saveItems(tx, purchase)
	})
}

// SaveWithLock saves with optimistic locking: the update predicates on
// the version the aggregate was loaded with and writes the next one.
func (r *GormPurchaseRepository) SaveWithLock(ctx context.Context, purchase *purchasing.Purchase) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		loadedVersion := purchase.Version
		result := tx.Model(&purchasing.Purchase{}).
			Where("id = ? AND version = ?", purchase.ID, loadedVersion).
			Updates(map[string]interface{}{
				"supplier_id":   purchase.SupplierID,
				"supplier_name": purchase.SupplierName,
				"total":         purchase.Total,
				"status":        purchase.Status,
				"notes":         purchase.Notes,
				"completed_at":  purchase.CompletedAt,
				"cancelled_at":  purchase.CancelledAt,
				"version":       loadedVersion + 1,
				"updated_at":    purchase.UpdatedAt,
			})

		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}
		purchase.Version = loadedVersion + 1

		return r.saveItems(tx, purchase)
	})
}

// saveItems reconciles the item rows with the aggregate's item list
func (r *GormPurchaseRepository) saveItems(tx *gorm.DB, purchase *purchasing.Purchase) error {
	currentItemIDs := make([]uuid.UUID, len(purchase.Items))
	for i, item := range purchase.Items {
		currentItemIDs[i] = item.ID
	}

	if len(currentItemIDs) > 0 {
		if err := tx.Where("purchase_id = ? AND id NOT IN ?", purchase.ID, currentItemIDs).
			Delete(&purchasing.PurchaseItem{}).Error; err != nil {
			return err
		}
	} else {
		if err := tx.Where("purchase_id = ?", purchase.ID).
			Delete(&purchasing.PurchaseItem{}).Error; err != nil {
			return err
		}
	}

	for i := range purchase.Items {
		purchase.Items[i].PurchaseID = purchase.ID
		if err := tx.Save(&purchase.Items[i]).Error; err != nil {
			return err
		}
	}

	return nil
}

// Delete deletes a purchase and its items
func (r *GormPurchaseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("purchase_id = ?", id).Delete(&purchasing.PurchaseItem{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&purchasing.Purchase{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// Count counts purchases matching the filter
func (r *GormPurchaseRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&purchasing.Purchase{}), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// GenerateNumber produces the next human-facing purchase number.
// Format: P-YYYYMMDD-NNNN (e.g., P-20260215-0001)
func (r *GormPurchaseRepository) GenerateNumber(ctx context.Context) (string, error) {
	prefix := fmt.Sprintf("P-%s-", time.Now().Format("20060102"))

	var lastPurchase purchasing.Purchase
	err := r.db.WithContext(ctx).
		Model(&purchasing.Purchase{}).
		Where("number LIKE ?", prefix+"%").
		Order("number DESC").
		First(&lastPurchase).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	var nextNum int64 = 1
	if err == nil && lastPurchase.Number != "" {
		parts := strings.Split(lastPurchase.Number, "-")
		if len(parts) == 3 {
			var num int64
			if _, parseErr := fmt.Sscanf(parts[2], "%d", &num); parseErr == nil {
				nextNum = num + 1
			}
		}
	}

	return fmt.Sprintf("%s%04d", prefix, nextNum), nil
}

// applyFilter applies filter options to the query
func (r *GormPurchaseRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if filter.OrderBy != "" {
		orderDir := "ASC"
		if strings.ToLower(filter.OrderDir) == "desc" {
			orderDir = "DESC"
		}
		query = query.Order(filter.OrderBy + " " + orderDir)
	} else {
		query = query.Order("created_at DESC")
	}

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormPurchaseRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("number ILIKE ? OR supplier_name ILIKE ?", searchPattern, searchPattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "supplier_id":
			query = query.Where("supplier_id = ?", value)
		case "from":
			query = query.Where("created_at >= ?", value)
		case "to":
			query = query.Where("created_at < ?", value)
		}
	}

	return query
}

// Ensure GormPurchaseRepository implements PurchaseRepository
var _ purchasing.PurchaseRepository = (*GormPurchaseRepository)(nil)
