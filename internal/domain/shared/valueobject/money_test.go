package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	t.Run("creates money with valid amount and currency", func(t *testing.T) {
		m, err := NewMoney(decimal.NewFromFloat(100.50), USD)
		require.NoError(t, err)
		assert.Equal(t, USD, m.Currency())
		assert.True(t, m.Amount().Equal(decimal.NewFromFloat(100.50)))
	})

	t.Run("returns error for empty currency", func(t *testing.T) {
		_, err := NewMoney(decimal.NewFromFloat(100), "")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "currency cannot be empty")
	})
}

func TestNewMoneyFromString(t *testing.T) {
	t.Run("valid string", func(t *testing.T) {
		m, err := NewMoneyFromString("123.45", USD)
		require.NoError(t, err)
		assert.True(t, m.Amount().Equal(decimal.NewFromFloat(123.45)))
	})

	t.Run("invalid string", func(t *testing.T) {
		_, err := NewMoneyFromString("not-a-number", USD)
		assert.Error(t, err)
	})
}

func TestZeroUSD(t *testing.T) {
	m := ZeroUSD()
	assert.True(t, m.IsZero())
	assert.Equal(t, USD, m.Currency())
}

func TestMoneyAdd(t *testing.T) {
	t.Run("adds same currency", func(t *testing.T) {
		a := NewMoneyUSD(decimal.NewFromFloat(10.25))
		b := NewMoneyUSD(decimal.NewFromFloat(5.75))
		sum, err := a.Add(b)
		require.NoError(t, err)
		assert.True(t, sum.Amount().Equal(decimal.NewFromFloat(16.00)))
	})

	t.Run("rejects mixed currencies", func(t *testing.T) {
		a := NewMoneyUSD(decimal.NewFromInt(10))
		b, _ := NewMoneyFromFloat(10, EUR)
		_, err := a.Add(b)
		assert.Error(t, err)
	})
}

func TestMoneySubtract(t *testing.T) {
	a := NewMoneyUSD(decimal.NewFromFloat(10))
	b := NewMoneyUSD(decimal.NewFromFloat(4.50))
	diff, err := a.Subtract(b)
	require.NoError(t, err)
	assert.True(t, diff.Amount().Equal(decimal.NewFromFloat(5.50)))
}

func TestMoneyMultiplyByInt(t *testing.T) {
	m := NewMoneyUSD(decimal.NewFromFloat(3.33))
	result := m.MultiplyByInt(3)
	assert.True(t, result.Amount().Equal(decimal.NewFromFloat(9.99)))
}

func TestMoneyDivide(t *testing.T) {
	t.Run("divides by non-zero", func(t *testing.T) {
		m := NewMoneyUSD(decimal.NewFromInt(10))
		result, err := m.Divide(decimal.NewFromInt(4))
		require.NoError(t, err)
		assert.True(t, result.Amount().Equal(decimal.NewFromFloat(2.5)))
	})

	t.Run("rejects division by zero", func(t *testing.T) {
		m := NewMoneyUSD(decimal.NewFromInt(10))
		_, err := m.Divide(decimal.Zero)
		assert.Error(t, err)
	})
}

func TestMoneyApplyMarkup(t *testing.T) {
	t.Run("applies percentage markup rounded to cents", func(t *testing.T) {
		cost := NewMoneyUSD(decimal.NewFromFloat(10.00))
		price := cost.ApplyMarkup(decimal.NewFromInt(25))
		assert.True(t, price.Amount().Equal(decimal.NewFromFloat(12.50)))
	})

	t.Run("rounds half up on fractional cents", func(t *testing.T) {
		cost := NewMoneyUSD(decimal.NewFromFloat(3.33))
		price := cost.ApplyMarkup(decimal.NewFromInt(10))
		// 3.33 * 1.10 = 3.663 -> 3.66
		assert.Equal(t, "3.66", price.StringFixed(2))
	})

	t.Run("zero markup returns cost", func(t *testing.T) {
		cost := NewMoneyUSD(decimal.NewFromFloat(7.77))
		price := cost.ApplyMarkup(decimal.Zero)
		assert.True(t, price.Equals(cost))
	})
}

func TestMoneyComparisons(t *testing.T) {
	a := NewMoneyUSD(decimal.NewFromInt(5))
	b := NewMoneyUSD(decimal.NewFromInt(10))

	less, err := a.LessThan(b)
	require.NoError(t, err)
	assert.True(t, less)

	greater, err := b.GreaterThan(a)
	require.NoError(t, err)
	assert.True(t, greater)

	assert.True(t, a.Equals(NewMoneyUSD(decimal.NewFromInt(5))))
	assert.False(t, a.Equals(b))
}

func TestMoneyRound(t *testing.T) {
	m := NewMoneyUSD(decimal.NewFromFloat(10.056))
	assert.Equal(t, "10.06", m.Round(2).StringFixed(2))
}

func TestMoneyJSON(t *testing.T) {
	t.Run("marshals amount and currency", func(t *testing.T) {
		m := NewMoneyUSD(decimal.NewFromFloat(42.50))
		data, err := json.Marshal(m)
		require.NoError(t, err)
		assert.JSONEq(t, `{"amount":"42.5","currency":"USD"}`, string(data))
	})

	t.Run("unmarshals round trip", func(t *testing.T) {
		var m Money
		err := json.Unmarshal([]byte(`{"amount":"19.99","currency":"USD"}`), &m)
		require.NoError(t, err)
		assert.True(t, m.Amount().Equal(decimal.NewFromFloat(19.99)))
		assert.Equal(t, USD, m.Currency())
	})

	t.Run("rejects invalid amount", func(t *testing.T) {
		var m Money
		err := json.Unmarshal([]byte(`{"amount":"abc","currency":"USD"}`), &m)
		assert.Error(t, err)
	})
}

func TestMoneyScan(t *testing.T) {
	t.Run("scans string value", func(t *testing.T) {
		var m Money
		err := m.Scan("12.34")
		require.NoError(t, err)
		assert.True(t, m.Amount().Equal(decimal.NewFromFloat(12.34)))
		assert.Equal(t, DefaultCurrency, m.Currency())
	})

	t.Run("scans nil as zero", func(t *testing.T) {
		var m Money
		err := m.Scan(nil)
		require.NoError(t, err)
		assert.True(t, m.IsZero())
	})

	t.Run("rejects unsupported type", func(t *testing.T) {
		var m Money
		err := m.Scan(42)
		assert.Error(t, err)
	})
}
