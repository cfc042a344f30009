package persistence

import (
	"context"

	"gorm.io/gorm"

	apppurchasing "github.com/pos/backend/internal/application/purchasing"
	appsales "github.com/pos/backend/internal/application/sales"
	"github.com/pos/backend/internal/domain/catalog"
	"github.com/pos/backend/internal/domain/purchasing"
	"github.com/pos/backend/internal/domain/sales"
)

// GormSaleTransactionScope runs sale workflows inside a database
// transaction. The repositories handed to the callback are bound to the
// transaction, so a failed stock update rolls back the order change too.
type GormSaleTransactionScope struct {
	db *gorm.DB
}

// NewGormSaleTransactionScope creates a new GormSaleTransactionScope
func NewGormSaleTransactionScope(db *gorm.DB) *GormSaleTransactionScope {
	return &GormSaleTransactionScope{db: db}
}

// Execute runs fn within a database transaction
func (s *GormSaleTransactionScope) Execute(ctx context.Context, fn func(repos appsales.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&saleTxRepositories{
			saleRepo:    NewGormSaleRepository(tx),
			productRepo: NewGormProductRepository(tx),
		})
	})
}

type saleTxRepositories struct {
	saleRepo    sales.SaleRepository
	productRepo catalog.ProductRepository
}

func (r *saleTxRepositories) SaleRepo() sales.SaleRepository         { return r.saleRepo }
func (r *saleTxRepositories) ProductRepo() catalog.ProductRepository { return r.productRepo }

// GormPurchaseTransactionScope runs purchase workflows inside a
// database transaction.
type GormPurchaseTransactionScope struct {
	db *gorm.DB
}

// NewGormPurchaseTransactionScope creates a new GormPurchaseTransactionScope
func NewGormPurchaseTransactionScope(db *gorm.DB) *GormPurchaseTransactionScope {
	return &GormPurchaseTransactionScope{db: db}
}

// Execute runs fn within a database transaction
func (s *GormPurchaseTransactionScope) Execute(ctx context.Context, fn func(repos apppurchasing.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&purchaseTxRepositories{
			purchaseRepo: NewGormPurchaseRepository(tx),
			productRepo:  NewGormProductRepository(tx),
		})
	})
}

type purchaseTxRepositories struct {
	purchaseRepo purchasing.PurchaseRepository
	productRepo  catalog.ProductRepository
}

func (r *purchaseTxRepositories) PurchaseRepo() purchasing.PurchaseRepository { return r.purchaseRepo }
func (r *purchaseTxRepositories) ProductRepo() catalog.ProductRepository      { return r.productRepo }

var (
	_ appsales.TransactionScope      = (*GormSaleTransactionScope)(nil)
	_ apppurchasing.TransactionScope = (*GormPurchaseTransactionScope)(nil)
)
