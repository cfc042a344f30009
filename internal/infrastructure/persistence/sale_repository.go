package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pos/backend/internal/domain/sales"
	"github.com/pos/backend/internal/domain/shared"
)

// GormSaleRepository implements sales.SaleRepository using GORM
type GormSaleRepository struct {
	db *gorm.DB
}

// NewGormSaleRepository creates a new GormSaleRepository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

// scoped narrows a query to the records the scope may see
func scoped(query *gorm.DB, scope shared.AccessScope) *gorm.DB {
	if scope.OwnerID != nil {
		return query.Where("created_by = ?", *scope.OwnerID)
	}
	return query
}

// FindByID finds a sale by its ID, items included
func (r *GormSaleRepository) FindByID(ctx context.Context, id uuid.UUID) (*sales.Sale, error) {
	var sale sales.Sale
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&sale, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &sale, nil
}

// FindByIDScoped finds a sale visible to the given access scope. A sale
// outside the scope reads as not found rather than forbidden, so
// cashiers cannot probe for other cashiers' sale IDs.
func (r *GormSaleRepository) FindByIDScoped(ctx context.Context, scope shared.AccessScope, id uuid.UUID) (*sales.Sale, error) {
	var sale sales.Sale
	query := scoped(r.db.WithContext(ctx).Preload("Items"), scope)
	if err := query.First(&sale, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &sale, nil
}

// FindByNumber finds a sale by its human-facing number
func (r *GormSaleRepository) FindByNumber(ctx context.Context, number string) (*sales.Sale, error) {
	var sale sales.Sale
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("number = ?", number).
		First(&sale).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &sale, nil
}

// FindAll finds all sales visible to the scope matching the filter
func (r *GormSaleRepository) FindAll(ctx context.Context, scope shared.AccessScope, filter shared.Filter) ([]sales.Sale, error) {
	var result []sales.Sale
	query := r.applyFilter(scoped(r.db.WithContext(ctx).Model(&sales.Sale{}), scope), filter)

	if err := query.Preload("Items").Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

// FindByStatus finds sales in a given status
func (r *GormSaleRepository) FindByStatus(ctx context.Context, scope shared.AccessScope, status sales.SaleStatus, filter shared.Filter) ([]sales.Sale, error) {
	var result []sales.Sale
	query := r.applyFilter(
		scoped(r.db.WithContext(ctx).Model(&sales.Sale{}), scope).Where("status = ?", status),
		filter,
	)

	if err := query.Preload("Items").Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

// Save creates or updates a sale and its items. Items removed from the
// aggregate are deleted from the item table. A unique violation on the
// sale number surfaces as ErrDuplicateNumber so the caller can draw a
// fresh number and retry.
func (r *GormSaleRepository) Save(ctx context.Context, sale *sales.Sale) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Save(sale).Error; err != nil {
			if isUniqueViolation(err) {
				return shared.ErrDuplicateNumber
			}
			return err
		}
		return r.saveItems(tx, sale)
	})
}

// SaveWithLock saves with optimistic locking (version check). The
// update predicates on the version the aggregate was loaded with and
// writes the next one, so it only lands if no other transaction got
// there first.
func (r *GormSaleRepository) SaveWithLock(ctx context.Context, sale *sales.Sale) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		loadedVersion := sale.Version
		result := tx.Model(&sales.Sale{}).
			Where("id = ? AND version = ?", sale.ID, loadedVersion).
			Updates(map[string]interface{}{
				"customer_id":    sale.CustomerID,
				"customer_name":  sale.CustomerName,
				"payment_method": sale.PaymentMethod,
				"total":          sale.Total,
				"profit":         sale.Profit,
				"status":         sale.Status,
				"notes":          sale.Notes,
				"completed_at":   sale.CompletedAt,
				"cancelled_at":   sale.CancelledAt,
				"version":        loadedVersion + 1,
				"updated_at":     sale.UpdatedAt,
			})

		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}
		sale.Version = loadedVersion + 1

		return r.saveItems(tx, sale)
	})
}

// saveItems reconciles the item rows with the aggregate's item list
func (r *GormSaleRepository) saveItems(tx *gorm.DB, sale *sales.Sale) error {
	currentItemIDs := make([]uuid.UUID, len(sale.Items))
	for i, item := range sale.Items {
		currentItemIDs[i] = item.ID
	}

	if len(currentItemIDs) > 0 {
		if err := tx.Where("sale_id = ? AND id NOT IN ?", sale.ID, currentItemIDs).
			Delete(&sales.SaleItem{}).Error; err != nil {
			return err
		}
	} else {
		if err := tx.Where("sale_id = ?", sale.ID).
			Delete(&sales.SaleItem{}).Error; err != nil {
			return err
		}
	}

	for i := range sale.Items {
		sale.Items[i].SaleID = sale.ID
		if err := tx.Save(&sale.Items[i]).Error; err != nil {
			return err
		}
	}

	return nil
}

// Delete deletes a sale and its items
func (r *GormSaleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("sale_id = ?", id).Delete(&sales.SaleItem{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&sales.Sale{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// Count counts sales visible to the scope matching the filter
func (r *GormSaleRepository) Count(ctx context.Context, scope shared.AccessScope, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(scoped(r.db.WithContext(ctx).Model(&sales.Sale{}), scope), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Summarize aggregates completed sales between two instants. Profit was
// frozen on each sale at completion, so this is a plain sum.
func (r *GormSaleRepository) Summarize(ctx context.Context, scope shared.AccessScope, from, to time.Time) (*sales.SaleSummary, error) {
	var summary sales.SaleSummary
	query := scoped(r.db.WithContext(ctx).Model(&sales.Sale{}), scope).
		Where("status = ?", sales.SaleStatusCompleted).
		Where("completed_at >= ? AND completed_at < ?", from, to)

	if err := query.
		Select("COUNT(*) AS count, COALESCE(SUM(total), 0) AS total, COALESCE(SUM(profit), 0) AS profit").
		Scan(&summary).Error; err != nil {
		return nil, err
	}
	return &summary, nil
}

// GenerateNumber produces the next human-facing sale number.
// Format: S-YYYYMMDD-NNNN (e.g., S-20260215-0001)
func (r *GormSaleRepository) GenerateNumber(ctx context.Context) (string, error) {
	prefix := fmt.Sprintf("S-%s-", time.Now().Format("20060102"))

	var lastSale sales.Sale
	err := r.db.WithContext(ctx).
		Model(&sales.Sale{}).
		Where("number LIKE ?", prefix+"%").
		Order("number DESC").
		First(&lastSale).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	var nextNum int64 = 1
	if err == nil && lastSale.Number != "" {
		parts := strings.Split(lastSale.Number, "-")
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
func (r *GormSaleRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
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
func (r *GormSaleRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("number ILIKE ? OR customer_name ILIKE ?", searchPattern, searchPattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "customer_id":
			query = query.Where("customer_id = ?", value)
		case "from":
			query = query.Where("created_at >= ?", value)
		case "to":
			query = query.Where("created_at < ?", value)
		}
	}

	return query
}

// Ensure GormSaleRepository implements SaleRepository
var _ sales.SaleRepository = (*GormSaleRepository)(nil)
