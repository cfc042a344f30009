package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/domain/shared/valueobject"
)

func newTestProduct(t *testing.T) *Product {
	t.Helper()
	p, err := NewProduct("Espresso Beans 1kg", "SKU-ESP-1")
	require.NoError(t, err)
	return p
}

func TestNewProduct(t *testing.T) {
	t.Run("creates product with defaults", func(t *testing.T) {
		p := newTestProduct(t)
		assert.Equal(t, int64(0), p.Stock)
		assert.True(t, p.AverageCost.IsZero())
		assert.True(t, p.ProfitPercentage.Equal(decimal.NewFromInt(25)))
		assert.True(t, p.Active)
		assert.Equal(t, 1, p.GetVersion())
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewProduct("", "SKU-1")
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_NAME", domainErr.Code)
	})
}

func TestProductReceiveStock(t *testing.T) {
	t.Run("first receipt sets average cost to unit cost", func(t *testing.T) {
		p := newTestProduct(t)
		err := p.ReceiveStock(10, valueobject.NewMoneyUSD(decimal.NewFromInt(10)))
		require.NoError(t, err)
		assert.Equal(t, int64(10), p.Stock)
		assert.True(t, p.AverageCost.Equal(decimal.NewFromInt(10)))
	})

	t.Run("blends averages across receipts", func(t *testing.T) {
		p := newTestProduct(t)
		require.NoError(t, p.ReceiveStock(10, valueobject.NewMoneyUSD(decimal.NewFromInt(10))))
		require.NoError(t, p.ReceiveStock(10, valueobject.NewMoneyUSD(decimal.NewFromInt(20))))

		// (10*10 + 10*20) / 20 = 15
		assert.Equal(t, int64(20), p.Stock)
		assert.True(t, p.AverageCost.Equal(decimal.NewFromInt(15)), "got %s", p.AverageCost)
	})

	t.Run("zero stock resets average to latest cost", func(t *testing.T) {
		p := newTestProduct(t)
		require.NoError(t, p.ReceiveStock(5, valueobject.NewMoneyUSD(decimal.NewFromInt(10))))
		require.NoError(t, p.DeductStock(5))
		require.NoError(t, p.ReceiveStock(5, valueobject.NewMoneyUSD(decimal.NewFromInt(30))))

		assert.True(t, p.AverageCost.Equal(decimal.NewFromInt(30)))
	})

	t.Run("average stays within received cost bounds", func(t *testing.T) {
		p := newTestProduct(t)
		require.NoError(t, p.ReceiveStock(3, valueobject.NewMoneyUSD(decimal.NewFromFloat(7.50))))
		require.NoError(t, p.ReceiveStock(9, valueobject.NewMoneyUSD(decimal.NewFromFloat(12.25))))

		assert.True(t, p.AverageCost.GreaterThanOrEqual(decimal.NewFromFloat(7.50)))
		assert.True(t, p.AverageCost.LessThanOrEqual(decimal.NewFromFloat(12.25)))
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		p := newTestProduct(t)
		err := p.ReceiveStock(0, valueobject.NewMoneyUSD(decimal.NewFromInt(10)))
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_QUANTITY", domainErr.Code)
	})

	t.Run("rejects negative unit cost", func(t *testing.T) {
		p := newTestProduct(t)
		err := p.ReceiveStock(5, valueobject.NewMoneyUSD(decimal.NewFromInt(-1)))
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_UNIT_COST", domainErr.Code)
	})

	t.Run("accepts zero unit cost", func(t *testing.T) {
		p := newTestProduct(t)
		err := p.ReceiveStock(5, valueobject.ZeroUSD())
		require.NoError(t, err)
		assert.True(t, p.AverageCost.IsZero())
	})

	t.Run("emits stock received and cost changed events", func(t *testing.T) {
		p := newTestProduct(t)
		p.ClearDomainEvents()
		require.NoError(t, p.ReceiveStock(4, valueobject.NewMoneyUSD(decimal.NewFromInt(8))))

		events := p.GetDomainEvents()
		require.Len(t, events, 2)
		assert.Equal(t, EventTypeStockReceived, events[0].EventType())
		assert.Equal(t, EventTypeCostChanged, events[1].EventType())
	})
}

func TestProductDeductStock(t *testing.T) {
	t.Run("deducts without touching average cost", func(t *testing.T) {
		p := newTestProduct(t)
		require.NoError(t, p.ReceiveStock(10, valueobject.NewMoneyUSD(decimal.NewFromInt(12))))
		require.NoError(t, p.DeductStock(4))

		assert.Equal(t, int64(6), p.Stock)
		assert.True(t, p.AverageCost.Equal(decimal.NewFromInt(12)))
	})

	t.Run("returns structured error when stock is short", func(t *testing.T) {
		p := newTestProduct(t)
		require.NoError(t, p.ReceiveStock(3, valueobject.NewMoneyUSD(decimal.NewFromInt(5))))

		err := p.DeductStock(5)
		require.Error(t, err)
		var stockErr *shared.StockError
		require.ErrorAs(t, err, &stockErr)
		assert.Equal(t, "Espresso Beans 1kg", stockErr.ProductName)
		assert.Equal(t, int64(3), stockErr.Available)
		assert.Equal(t, int64(5), stockErr.Requested)
		assert.Equal(t, int64(3), p.Stock, "stock must be unchanged after a failed deduct")
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		p := newTestProduct(t)
		err := p.DeductStock(-1)
		require.Error(t, err)
	})
}

func TestProductRestoreStock(t *testing.T) {
	p := newTestProduct(t)
	require.NoError(t, p.ReceiveStock(10, valueobject.NewMoneyUSD(decimal.NewFromInt(9))))
	require.NoError(t, p.DeductStock(10))
	require.NoError(t, p.RestoreStock(10))

	assert.Equal(t, int64(10), p.Stock)
	assert.True(t, p.AverageCost.Equal(decimal.NewFromInt(9)), "restore keeps the current average cost")
}

func TestProductRemoveStock(t *testing.T) {
	t.Run("reverses a receipt", func(t *testing.T) {
		p := newTestProduct(t)
		require.NoError(t, p.ReceiveStock(10, valueobject.NewMoneyUSD(decimal.NewFromInt(9))))
		require.NoError(t, p.RemoveStock(10))
		assert.Equal(t, int64(0), p.Stock)
	})

	t.Run("fails when more than on hand", func(t *testing.T) {
		p := newTestProduct(t)
		require.NoError(t, p.ReceiveStock(2, valueobject.NewMoneyUSD(decimal.NewFromInt(9))))
		err := p.RemoveStock(5)
		var stockErr *shared.StockError
		require.ErrorAs(t, err, &stockErr)
	})
}

func TestProductSellingPrice(t *testing.T) {
	t.Run("derives price from average cost and margin", func(t *testing.T) {
		p := newTestProduct(t)
		require.NoError(t, p.ReceiveStock(10, valueobject.NewMoneyUSD(decimal.NewFromInt(10))))

		// 10.00 * 1.25 = 12.50
		assert.Equal(t, "12.50", p.SellingPrice().StringFixed(2))
	})

	t.Run("tracks cost changes", func(t *testing.T) {
		p := newTestProduct(t)
		require.NoError(t, p.ReceiveStock(10, valueobject.NewMoneyUSD(decimal.NewFromInt(10))))
		require.NoError(t, p.ReceiveStock(10, valueobject.NewMoneyUSD(decimal.NewFromInt(20))))

		// avg 15.00, price 18.75
		assert.Equal(t, "18.75", p.SellingPrice().StringFixed(2))
	})

	t.Run("custom margin", func(t *testing.T) {
		p := newTestProduct(t)
		require.NoError(t, p.SetProfitPercentage(decimal.NewFromInt(50)))
		require.NoError(t, p.ReceiveStock(1, valueobject.NewMoneyUSD(decimal.NewFromInt(8))))
		assert.Equal(t, "12.00", p.SellingPrice().StringFixed(2))
	})

	t.Run("rejects negative margin", func(t *testing.T) {
		p := newTestProduct(t)
		err := p.SetProfitPercentage(decimal.NewFromInt(-10))
		require.Error(t, err)
	})
}

func TestCategory(t *testing.T) {
	t.Run("creates category", func(t *testing.T) {
		c, err := NewCategory("Beverages", "Drinks and coffee")
		require.NoError(t, err)
		assert.Equal(t, "Beverages", c.Name)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewCategory("", "")
		assert.Error(t, err)
	})

	t.Run("rename validates name", func(t *testing.T) {
		c, err := NewCategory("Beverages", "")
		require.NoError(t, err)
		require.NoError(t, c.Rename("Drinks"))
		assert.Equal(t, "Drinks", c.Name)
		assert.Error(t, c.Rename(""))
	})
}
