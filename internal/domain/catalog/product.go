package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/domain/shared/valueobject"
)

// DefaultProfitPercentage is applied to new products that don't specify a margin
var DefaultProfitPercentage = decimal.NewFromInt(25)

// Product is the aggregate root for sellable goods. It owns the
// on-hand stock count and its moving weighted average cost, from
// which the selling price is derived.
type Product struct {
	shared.BaseAggregateRoot
	Name             string          `gorm:"type:varchar(255);not null"`
	SKU              string          `gorm:"type:varchar(64);uniqueIndex"`
	Description      string          `gorm:"type:text"`
	Barcode          string          `gorm:"type:varchar(64);index"`
	CategoryID       *uuid.UUID      `gorm:"type:uuid;index"`
	Stock            int64           `gorm:"not null;default:0"`
	AverageCost      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ProfitPercentage decimal.Decimal `gorm:"type:decimal(8,2);not null;default:25"`
	Active           bool            `gorm:"not null;default:true"`

	Category *Category `gorm:"foreignKey:CategoryID"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new product with zero stock and the default margin
func NewProduct(name, sku string) (*Product, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}

	return &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		SKU:               sku,
		Stock:             0,
		AverageCost:       decimal.Zero,
		ProfitPercentage:  DefaultProfitPercentage,
		Active:            true,
	}, nil
}

// SetProfitPercentage updates the margin applied on top of average cost
func (p *Product) SetProfitPercentage(percent decimal.Decimal) error {
	if percent.IsNegative() {
		return shared.NewDomainError("INVALID_MARGIN", "Profit percentage cannot be negative")
	}
	p.ProfitPercentage = percent
	p.UpdatedAt = time.Now()
	return nil
}

// SellingPrice derives the unit price from average cost and margin,
// rounded to cents.
func (p *Product) SellingPrice() valueobject.Money {
	return valueobject.NewMoneyUSD(p.AverageCost).ApplyMarkup(p.ProfitPercentage)
}

// ReceiveStock increases stock and folds the incoming units into the
// moving weighted average cost:
//
//	newAvg = (oldStock*oldAvg + qty*unitCost) / (oldStock + qty)
//
// When current stock is zero the incoming cost replaces the average
// outright, so stale costs from a sold-out product don't linger.
func (p *Product) ReceiveStock(quantity int64, unitCost valueobject.Money) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitCost.IsNegative() {
		return shared.NewDomainError("INVALID_UNIT_COST", "Unit cost cannot be negative")
	}

	oldCost := p.AverageCost
	oldStock := decimal.NewFromInt(p.Stock)
	qty := decimal.NewFromInt(quantity)

	if p.Stock <= 0 {
		p.AverageCost = unitCost.Amount()
	} else {
		totalValue := oldStock.Mul(oldCost).Add(qty.Mul(unitCost.Amount()))
		p.AverageCost = totalValue.Div(oldStock.Add(qty)).Round(4)
	}

	p.Stock += quantity
	p.UpdatedAt = time.Now()

	p.AddDomainEvent(NewStockReceivedEvent(p, quantity, unitCost.Amount()))
	if !oldCost.Equal(p.AverageCost) {
		p.AddDomainEvent(NewCostChangedEvent(p, oldCost, p.AverageCost))
	}

	return nil
}

// DeductStock removes units from stock, typically when a sale is
// completed. Average cost is left untouched: consuming inventory does
// not change the value of what remains.
func (p *Product) DeductStock(quantity int64) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if p.Stock < quantity {
		return shared.NewStockError(p.ID.String(), p.Name, p.Stock, quantity)
	}

	p.Stock -= quantity
	p.UpdatedAt = time.Now()

	p.AddDomainEvent(NewStockDeductedEvent(p, quantity))
	return nil
}

// RestoreStock returns previously deducted units, used when a
// completed sale is reopened. The restore keeps the current average
// cost: the units come back at the valuation they left with.
func (p *Product) RestoreStock(quantity int64) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}

	p.Stock += quantity
	p.UpdatedAt = time.Now()

	p.AddDomainEvent(NewStockRestoredEvent(p, quantity))
	return nil
}

// RemoveStock reverses a prior receipt, used when a completed purchase
// is reopened. Unlike DeductStock it permits the recorded average cost
// to stay as-is even if stock drops to zero.
func (p *Product) RemoveStock(quantity int64) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if p.Stock < quantity {
		return shared.NewStockError(p.ID.String(), p.Name, p.Stock, quantity)
	}

	p.Stock -= quantity
	p.UpdatedAt = time.Now()
	return nil
}

// Deactivate hides the product from sale without deleting history
func (p *Product) Deactivate() {
	p.Active = false
	p.UpdatedAt = time.Now()
}

// Activate makes the product sellable again
func (p *Product) Activate() {
	p.Active = true
	p.UpdatedAt = time.Now()
}
