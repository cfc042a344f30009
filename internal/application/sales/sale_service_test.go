package sales

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pos/backend/internal/domain/catalog"
	"github.com/pos/backend/internal/domain/identity"
	"github.com/pos/backend/internal/domain/partner"
	"github.com/pos/backend/internal/domain/sales"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/domain/shared/valueobject"
)

// MockSaleRepository is a mock implementation of sales.SaleRepository
type MockSaleRepository struct {
	mock.Mock
}

func (m *MockSaleRepository) FindByID(ctx context.Context, id uuid.UUID) (*sales.Sale, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sales.Sale), args.Error(1)
}

func (m *MockSaleRepository) FindByIDScoped(ctx context.Context, scope shared.AccessScope, id uuid.UUID) (*sales.Sale, error) {
	args := m.Called(ctx, scope, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sales.Sale), args.Error(1)
}

func (m *MockSaleRepository) FindByNumber(ctx context.Context, number string) (*sales.Sale, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sales.Sale), args.Error(1)
}

func (m *MockSaleRepository) FindAll(ctx context.Context, scope shared.AccessScope, filter shared.Filter) ([]sales.Sale, error) {
	args := m.Called(ctx, scope, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]sales.Sale), args.Error(1)
}

func (m *MockSaleRepository) FindByStatus(ctx context.Context, scope shared.AccessScope, status sales.SaleStatus, filter shared.Filter) ([]sales.Sale, error) {
	args := m.Called(ctx, scope, status, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]sales.Sale), args.Error(1)
}

func (m *MockSaleRepository) Save(ctx context.Context, sale *sales.Sale) error {
	args := m.Called(ctx, sale)
	return args.Error(0)
}

func (m *MockSaleRepository) SaveWithLock(ctx context.Context, sale *sales.Sale) error {
	args := m.Called(ctx, sale)
	return args.Error(0)
}

func (m *MockSaleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSaleRepository) Count(ctx context.Context, scope shared.AccessScope, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, scope, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSaleRepository) Summarize(ctx context.Context, scope shared.AccessScope, from, to time.Time) (*sales.SaleSummary, error) {
	args := m.Called(ctx, scope, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sales.SaleSummary), args.Error(1)
}

func (m *MockSaleRepository) GenerateNumber(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// MockProductRepository is a mock implementation of catalog.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindBySKU(ctx context.Context, sku string) (*catalog.Product, error) {
	args := m.Called(ctx, sku)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByBarcode(ctx context.Context, barcode string) (*catalog.Product, error) {
	args := m.Called(ctx, barcode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Product, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByCategory(ctx context.Context, categoryID uuid.UUID, filter shared.Filter) ([]catalog.Product, error) {
	args := m.Called(ctx, categoryID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) SaveWithLock(ctx context.Context, product *catalog.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProductRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) ExistsBySKU(ctx context.Context, sku string) (bool, error) {
	args := m.Called(ctx, sku)
	return args.Bool(0), args.Error(1)
}

// MockCustomerRepository is a mock implementation of partner.CustomerRepository
type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindByPhone(ctx context.Context, phone string) (*partner.Customer, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindAll(ctx context.Context, filter shared.Filter) ([]partner.Customer, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]partner.Customer), args.Error(1)
}

func (m *MockCustomerRepository) Save(ctx context.Context, customer *partner.Customer) error {
	args := m.Called(ctx, customer)
	return args.Error(0)
}

func (m *MockCustomerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCustomerRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func testActor() identity.Actor {
	return identity.Actor{UserID: uuid.New(), Username: "cashier1", Role: identity.RoleCashier}
}

func stockedProduct(t *testing.T, stock int64, avgCost float64) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct("Espresso Beans", "SKU-ESP")
	require.NoError(t, err)
	if stock > 0 {
		require.NoError(t, p.ReceiveStock(stock, valueobject.NewMoneyUSD(decimal.NewFromFloat(avgCost))))
	}
	p.ClearDomainEvents()
	return p
}

func newService(saleRepo *MockSaleRepository, productRepo *MockProductRepository, customerRepo *MockCustomerRepository) *SaleService {
	return NewSaleService(saleRepo, productRepo, customerRepo, NewNoOpTransactionScope(saleRepo, productRepo))
}

func TestSaleServiceCreate(t *testing.T) {
	t.Run("creates sale with derived prices", func(t *testing.T) {
		saleRepo := new(MockSaleRepository)
		productRepo := new(MockProductRepository)
		customerRepo := new(MockCustomerRepository)
		service := newService(saleRepo, productRepo, customerRepo)

		product := stockedProduct(t, 10, 6.00)

		saleRepo.On("GenerateNumber", mock.Anything).Return("S-2026-0001", nil)
		productRepo.On("FindByID", mock.Anything, product.ID).Return(product, nil)
		saleRepo.On("Save", mock.Anything, mock.Anything).Return(nil)

		resp, err := service.Create(context.Background(), testActor(), CreateSaleRequest{
			Items: []CreateSaleItemInput{{ProductID: product.ID, Quantity: 2}},
		})
		require.NoError(t, err)

		// avg cost 6.00, margin 25% -> 7.50 each, 15.00 total
		assert.Equal(t, "15", resp.Total.String())
		require.Len(t, resp.Items, 1)
		assert.Equal(t, "7.5", resp.Items[0].UnitPrice.String())
		assert.Equal(t, "6", resp.Items[0].CostAtSale.String())
		assert.Equal(t, "pending", resp.Status)
		saleRepo.AssertExpectations(t)
	})

	t.Run("rejects item exceeding stock", func(t *testing.T) {
		saleRepo := new(MockSaleRepository)
		productRepo := new(MockProductRepository)
		customerRepo := new(MockCustomerRepository)
		service := newService(saleRepo, productRepo, customerRepo)

		product := stockedProduct(t, 3, 6.00)

		saleRepo.On("GenerateNumber", mock.Anything).Return("S-2026-0002", nil)
		productRepo.On("FindByID", mock.Anything, product.ID).Return(product, nil)

		_, err := service.Create(context.Background(), testActor(), CreateSaleRequest{
			Items: []CreateSaleItemInput{{ProductID: product.ID, Quantity: 5}},
		})
		var stockErr *shared.StockError
		require.ErrorAs(t, err, &stockErr)
		assert.Equal(t, int64(3), stockErr.Available)
		assert.Equal(t, int64(5), stockErr.Requested)
	})

	t.Run("honors manual price only without cost basis", func(t *testing.T) {
		saleRepo := new(MockSaleRepository)
		productRepo := new(MockProductRepository)
		customerRepo := new(MockCustomerRepository)
		service := newService(saleRepo, productRepo, customerRepo)

		product := stockedProduct(t, 5, 0)

		manual := decimal.NewFromFloat(4.99)
		saleRepo.On("GenerateNumber", mock.Anything).Return("S-2026-0003", nil)
		productRepo.On("FindByID", mock.Anything, product.ID).Return(product, nil)
		saleRepo.On("Save", mock.Anything, mock.Anything).Return(nil)

		resp, err := service.Create(context.Background(), testActor(), CreateSaleRequest{
			Items: []CreateSaleItemInput{{ProductID: product.ID, Quantity: 1, UnitPrice: &manual}},
		})
		require.NoError(t, err)
		assert.Equal(t, "4.99", resp.Items[0].UnitPrice.String())
	})

	t.Run("retries with a fresh number when a concurrent create wins it", func(t *testing.T) {
		saleRepo := new(MockSaleRepository)
		productRepo := new(MockProductRepository)
		customerRepo := new(MockCustomerRepository)
		service := newService(saleRepo, productRepo, customerRepo)

		saleRepo.On("GenerateNumber", mock.Anything).Return("S-2026-0004", nil).Once()
		saleRepo.On("Save", mock.Anything, mock.Anything).Return(shared.ErrDuplicateNumber).Once()
		saleRepo.On("GenerateNumber", mock.Anything).Return("S-2026-0005", nil).Once()
		saleRepo.On("Save", mock.Anything, mock.Anything).Return(nil).Once()

		resp, err := service.Create(context.Background(), testActor(), CreateSaleRequest{})

		require.NoError(t, err)
		assert.Equal(t, "S-2026-0005", resp.Number)
		saleRepo.AssertExpectations(t)
	})

	t.Run("gives up after repeated number collisions", func(t *testing.T) {
		saleRepo := new(MockSaleRepository)
		productRepo := new(MockProductRepository)
		customerRepo := new(MockCustomerRepository)
		service := newService(saleRepo, productRepo, customerRepo)

		saleRepo.On("GenerateNumber", mock.Anything).Return("S-2026-0006", nil)
		saleRepo.On("Save", mock.Anything, mock.Anything).Return(shared.ErrDuplicateNumber)

		_, err := service.Create(context.Background(), testActor(), CreateSaleRequest{})

		assert.ErrorIs(t, err, shared.ErrDuplicateNumber)
	})
}

func TestSaleServiceComplete(t *testing.T) {
	t.Run("deducts stock and freezes profit in one pass", func(t *testing.T) {
		saleRepo := new(MockSaleRepository)
		productRepo := new(MockProductRepository)
		customerRepo := new(MockCustomerRepository)
		service := newService(saleRepo, productRepo, customerRepo)

		actor := testActor()
		product := stockedProduct(t, 10, 6.00)

		sale, err := sales.NewSale("S-1", actor.UserID, sales.PaymentCash)
		require.NoError(t, err)
		_, err = sale.AddItem(product.ID, product.Name, 2, valueobject.NewMoneyUSD(decimal.NewFromInt(10)), decimal.NewFromInt(6))
		require.NoError(t, err)

		saleRepo.On("FindByIDScoped", mock.Anything, actor.Scope(), sale.ID).Return(sale, nil)
		productRepo.On("FindByID", mock.Anything, product.ID).Return(product, nil)
		productRepo.On("SaveWithLock", mock.Anything, product).Return(nil)
		saleRepo.On("SaveWithLock", mock.Anything, sale).Return(nil)

		resp, err := service.Complete(context.Background(), actor, sale.ID)
		require.NoError(t, err)

		assert.Equal(t, int64(8), product.Stock)
		assert.Equal(t, "8", resp.TotalProfit.String())
		assert.Equal(t, "completed", resp.Sale.Status)
	})

	t.Run("insufficient stock aborts before persisting the sale", func(t *testing.T) {
		saleRepo := new(MockSaleRepository)
		productRepo := new(MockProductRepository)
		customerRepo := new(MockCustomerRepository)
		service := newService(saleRepo, productRepo, customerRepo)

		actor := testActor()
		product := stockedProduct(t, 1, 6.00)

		sale, err := sales.NewSale("S-1", actor.UserID, sales.PaymentCash)
		require.NoError(t, err)
		_, err = sale.AddItem(product.ID, product.Name, 2, valueobject.NewMoneyUSD(decimal.NewFromInt(10)), decimal.NewFromInt(6))
		require.NoError(t, err)

		saleRepo.On("FindByIDScoped", mock.Anything, actor.Scope(), sale.ID).Return(sale, nil)
		productRepo.On("FindByID", mock.Anything, product.ID).Return(product, nil)

		_, err = service.Complete(context.Background(), actor, sale.ID)
		var stockErr *shared.StockError
		require.ErrorAs(t, err, &stockErr)
		saleRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("repeated completion fails without stock mutation", func(t *testing.T) {
		saleRepo := new(MockSaleRepository)
		productRepo := new(MockProductRepository)
		customerRepo := new(MockCustomerRepository)
		service := newService(saleRepo, productRepo, customerRepo)

		actor := testActor()
		sale, err := sales.NewSale("S-1", actor.UserID, sales.PaymentCash)
		require.NoError(t, err)
		_, err = sale.AddItem(uuid.New(), "Beans", 1, valueobject.NewMoneyUSD(decimal.NewFromInt(10)), decimal.NewFromInt(6))
		require.NoError(t, err)
		require.NoError(t, sale.Complete())

		saleRepo.On("FindByIDScoped", mock.Anything, actor.Scope(), sale.ID).Return(sale, nil)

		_, err = service.Complete(context.Background(), actor, sale.ID)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "ALREADY_COMPLETED", domainErr.Code)
		productRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})
}

func TestSaleServiceReopen(t *testing.T) {
	saleRepo := new(MockSaleRepository)
	productRepo := new(MockProductRepository)
	customerRepo := new(MockCustomerRepository)
	service := newService(saleRepo, productRepo, customerRepo)

	actor := testActor()
	product := stockedProduct(t, 8, 6.00)

	sale, err := sales.NewSale("S-1", actor.UserID, sales.PaymentCash)
	require.NoError(t, err)
	_, err = sale.AddItem(product.ID, product.Name, 2, valueobject.NewMoneyUSD(decimal.NewFromInt(10)), decimal.NewFromInt(6))
	require.NoError(t, err)
	require.NoError(t, sale.Complete())

	saleRepo.On("FindByIDScoped", mock.Anything, actor.Scope(), sale.ID).Return(sale, nil)
	productRepo.On("FindByID", mock.Anything, product.ID).Return(product, nil)
	productRepo.On("SaveWithLock", mock.Anything, product).Return(nil)
	saleRepo.On("SaveWithLock", mock.Anything, sale).Return(nil)

	resp, err := service.Reopen(context.Background(), actor, sale.ID)
	require.NoError(t, err)

	assert.Equal(t, "pending", resp.Status)
	assert.Equal(t, int64(10), product.Stock, "reopen returns units to stock")
	assert.True(t, resp.Profit.IsZero())
}

func TestSaleServiceCancel(t *testing.T) {
	t.Run("cancels pending sale", func(t *testing.T) {
		saleRepo := new(MockSaleRepository)
		productRepo := new(MockProductRepository)
		customerRepo := new(MockCustomerRepository)
		service := newService(saleRepo, productRepo, customerRepo)

		actor := testActor()
		sale, err := sales.NewSale("S-1", actor.UserID, sales.PaymentCash)
		require.NoError(t, err)

		saleRepo.On("FindByIDScoped", mock.Anything, actor.Scope(), sale.ID).Return(sale, nil)
		saleRepo.On("SaveWithLock", mock.Anything, sale).Return(nil)

		resp, err := service.Cancel(context.Background(), actor, sale.ID, CancelSaleRequest{Reason: "customer left"})
		require.NoError(t, err)
		assert.Equal(t, "cancelled", resp.Status)
	})

	t.Run("completed sale cannot be cancelled", func(t *testing.T) {
		saleRepo := new(MockSaleRepository)
		productRepo := new(MockProductRepository)
		customerRepo := new(MockCustomerRepository)
		service := newService(saleRepo, productRepo, customerRepo)

		actor := testActor()
		sale, err := sales.NewSale("S-1", actor.UserID, sales.PaymentCash)
		require.NoError(t, err)
		_, err = sale.AddItem(uuid.New(), "Beans", 1, valueobject.NewMoneyUSD(decimal.NewFromInt(10)), decimal.NewFromInt(6))
		require.NoError(t, err)
		require.NoError(t, sale.Complete())

		saleRepo.On("FindByIDScoped", mock.Anything, actor.Scope(), sale.ID).Return(sale, nil)

		_, err = service.Cancel(context.Background(), actor, sale.ID, CancelSaleRequest{})
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_STATE", domainErr.Code)
	})
}

func TestSaleServiceUpdateItemQuantity(t *testing.T) {
	t.Run("own reserved quantity counts as headroom", func(t *testing.T) {
		saleRepo := new(MockSaleRepository)
		productRepo := new(MockProductRepository)
		customerRepo := new(MockCustomerRepository)
		service := newService(saleRepo, productRepo, customerRepo)

		actor := testActor()
		product := stockedProduct(t, 3, 6.00)

		sale, err := sales.NewSale("S-1", actor.UserID, sales.PaymentCash)
		require.NoError(t, err)
		item, err := sale.AddItem(product.ID, product.Name, 3, valueobject.NewMoneyUSD(decimal.NewFromInt(10)), decimal.NewFromInt(6))
		require.NoError(t, err)

		saleRepo.On("FindByIDScoped", mock.Anything, actor.Scope(), sale.ID).Return(sale, nil)
		productRepo.On("FindByID", mock.Anything, product.ID).Return(product, nil)
		saleRepo.On("SaveWithLock", mock.Anything, sale).Return(nil)

		// stock 3 + reserved 3 = headroom 6
		resp, err := service.UpdateItemQuantity(context.Background(), actor, sale.ID, item.ID, UpdateSaleItemRequest{Quantity: 6})
		require.NoError(t, err)
		assert.Equal(t, "60", resp.Total.String())

		_, err = service.UpdateItemQuantity(context.Background(), actor, sale.ID, item.ID, UpdateSaleItemRequest{Quantity: 7})
		var stockErr *shared.StockError
		require.ErrorAs(t, err, &stockErr)
	})
}

func TestSaleServiceDelete(t *testing.T) {
	saleRepo := new(MockSaleRepository)
	productRepo := new(MockProductRepository)
	customerRepo := new(MockCustomerRepository)
	service := newService(saleRepo, productRepo, customerRepo)

	actor := testActor()
	sale, err := sales.NewSale("S-1", actor.UserID, sales.PaymentCash)
	require.NoError(t, err)
	_, err = sale.AddItem(uuid.New(), "Beans", 1, valueobject.NewMoneyUSD(decimal.NewFromInt(10)), decimal.NewFromInt(6))
	require.NoError(t, err)
	require.NoError(t, sale.Complete())

	saleRepo.On("FindByIDScoped", mock.Anything, actor.Scope(), sale.ID).Return(sale, nil)

	err = service.Delete(context.Background(), actor, sale.ID)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_STATE", domainErr.Code)
	saleRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}
