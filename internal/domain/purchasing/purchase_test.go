package purchasing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/domain/shared/valueobject"
)

func newTestPurchase(t *testing.T) *Purchase {
	t.Helper()
	purchase, err := NewPurchase("P-2026-0001", uuid.New())
	require.NoError(t, err)
	return purchase
}

func cost(f float64) valueobject.Money {
	return valueobject.NewMoneyUSD(decimal.NewFromFloat(f))
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, code, domainErr.Code)
}

func TestNewPurchase(t *testing.T) {
	t.Run("creates pending purchase", func(t *testing.T) {
		purchase := newTestPurchase(t)
		assert.Equal(t, PurchaseStatusPending, purchase.Status)
		assert.True(t, purchase.Total.IsZero())
	})

	t.Run("rejects empty number", func(t *testing.T) {
		_, err := NewPurchase("", uuid.New())
		assertCode(t, err, "INVALID_NUMBER")
	})
}

func TestPurchaseAddItem(t *testing.T) {
	t.Run("adds line and synchronizes total", func(t *testing.T) {
		purchase := newTestPurchase(t)
		_, err := purchase.AddItem(uuid.New(), "Espresso Beans", 10, cost(4.00))
		require.NoError(t, err)
		assert.Equal(t, "40.00", purchase.Total.StringFixed(2))
	})

	t.Run("rejects duplicate product line", func(t *testing.T) {
		purchase := newTestPurchase(t)
		productID := uuid.New()
		_, err := purchase.AddItem(productID, "Beans", 10, cost(4))
		require.NoError(t, err)
		_, err = purchase.AddItem(productID, "Beans", 5, cost(4))
		assertCode(t, err, "DUPLICATE_LINE")
	})

	t.Run("rejects negative unit cost", func(t *testing.T) {
		purchase := newTestPurchase(t)
		_, err := purchase.AddItem(uuid.New(), "Beans", 10, cost(-1))
		assertCode(t, err, "INVALID_UNIT_COST")
	})

	t.Run("rejected on completed purchase", func(t *testing.T) {
		purchase := newTestPurchase(t)
		_, err := purchase.AddItem(uuid.New(), "Beans", 10, cost(4))
		require.NoError(t, err)
		require.NoError(t, purchase.Complete())

		_, err = purchase.AddItem(uuid.New(), "Filters", 5, cost(1))
		assertCode(t, err, "ORDER_COMPLETED")
	})
}

func TestPurchaseUpdateItem(t *testing.T) {
	purchase := newTestPurchase(t)
	item, err := purchase.AddItem(uuid.New(), "Beans", 10, cost(4))
	require.NoError(t, err)

	require.NoError(t, purchase.UpdateItemQuantity(item.ID, 20))
	assert.Equal(t, "80.00", purchase.Total.StringFixed(2))

	require.NoError(t, purchase.UpdateItemCost(item.ID, cost(5)))
	assert.Equal(t, "100.00", purchase.Total.StringFixed(2))

	assertCode(t, purchase.UpdateItemQuantity(uuid.New(), 5), "ITEM_NOT_FOUND")
}

func TestPurchaseComplete(t *testing.T) {
	t.Run("completes pending purchase", func(t *testing.T) {
		purchase := newTestPurchase(t)
		_, err := purchase.AddItem(uuid.New(), "Beans", 10, cost(4))
		require.NoError(t, err)

		require.NoError(t, purchase.Complete())
		assert.Equal(t, PurchaseStatusCompleted, purchase.Status)
		require.NotNil(t, purchase.CompletedAt)
	})

	t.Run("rejects empty order", func(t *testing.T) {
		purchase := newTestPurchase(t)
		assertCode(t, purchase.Complete(), "EMPTY_ORDER")
	})

	t.Run("rejects repeated completion", func(t *testing.T) {
		purchase := newTestPurchase(t)
		_, err := purchase.AddItem(uuid.New(), "Beans", 10, cost(4))
		require.NoError(t, err)
		require.NoError(t, purchase.Complete())

		assertCode(t, purchase.Complete(), "ALREADY_COMPLETED")
	})

	t.Run("rejects completing a cancelled purchase", func(t *testing.T) {
		purchase := newTestPurchase(t)
		require.NoError(t, purchase.Cancel(""))
		assertCode(t, purchase.Complete(), "INVALID_STATE")
	})
}

func TestPurchaseReopen(t *testing.T) {
	t.Run("reverts to pending", func(t *testing.T) {
		purchase := newTestPurchase(t)
		_, err := purchase.AddItem(uuid.New(), "Beans", 10, cost(4))
		require.NoError(t, err)
		require.NoError(t, purchase.Complete())

		require.NoError(t, purchase.Reopen())
		assert.Equal(t, PurchaseStatusPending, purchase.Status)
		assert.Nil(t, purchase.CompletedAt)
	})

	t.Run("only completed purchases reopen", func(t *testing.T) {
		purchase := newTestPurchase(t)
		assertCode(t, purchase.Reopen(), "INVALID_STATE")
	})
}

func TestPurchaseCancel(t *testing.T) {
	t.Run("cancels pending purchase", func(t *testing.T) {
		purchase := newTestPurchase(t)
		require.NoError(t, purchase.Cancel("supplier out of stock"))
		assert.Equal(t, PurchaseStatusCancelled, purchase.Status)
	})

	t.Run("rejects cancelling completed purchase", func(t *testing.T) {
		purchase := newTestPurchase(t)
		_, err := purchase.AddItem(uuid.New(), "Beans", 10, cost(4))
		require.NoError(t, err)
		require.NoError(t, purchase.Complete())

		assertCode(t, purchase.Cancel(""), "INVALID_STATE")
	})

	t.Run("rejects double cancellation", func(t *testing.T) {
		purchase := newTestPurchase(t)
		require.NoError(t, purchase.Cancel(""))
		assertCode(t, purchase.Cancel(""), "ALREADY_CANCELLED")
	})
}

func TestPurchaseTotalGuard(t *testing.T) {
	t.Run("rejects a recalculation that would go negative", func(t *testing.T) {
		purchase := newTestPurchase(t)
		_, err := purchase.AddItem(uuid.New(), "Beans", 10, cost(4))
		require.NoError(t, err)
		filters, err := purchase.AddItem(uuid.New(), "Filter Papers", 5, cost(0.5))
		require.NoError(t, err)

		// A corrupted line total must surface as an error, not be
		// folded silently into the purchase total.
		purchase.Items[0].Total = decimal.NewFromInt(-100)

		assertCode(t, purchase.RemoveItem(filters.ID), "INVALID_TOTAL")
	})
}
