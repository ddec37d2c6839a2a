package sales

import (
	"errors"
	"testing"

	"github.com/retail/sales/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestProduct(t *testing.T, price int64) *Product {
	t.Helper()
	product, err := NewProduct("EXT-P-"+decimal.NewFromInt(price).String(), "Product", "Test product", decimal.NewFromInt(price))
	require.NoError(t, err)
	return product
}

// ============================================
// Pricing scenarios
// ============================================

func TestNewSaleItem_Scenarios(t *testing.T) {
	tests := []struct {
		name      string
		quantity  int
		wantRate  decimal.Decimal
		wantTotal decimal.Decimal
	}{
		{"three items, no discount", 3, decimal.Zero, decimal.NewFromInt(300)},
		{"four items, ten percent", 4, decimal.NewFromFloat(0.10), decimal.NewFromInt(360)},
		{"ten items, twenty percent", 10, decimal.NewFromFloat(0.20), decimal.NewFromInt(800)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			product := createTestProduct(t, 100)
			item, err := NewSaleItem(product, tt.quantity)
			require.NoError(t, err)

			assert.NotEqual(t, product.ID, item.ID)
			assert.Equal(t, product.ID, item.Product.ID)
			assert.True(t, item.UnitPrice.Equal(decimal.NewFromInt(100)))
			assert.True(t, tt.wantRate.Equal(item.DiscountRate))
			assert.True(t, tt.wantTotal.Equal(item.LineTotal), "want %s got %s", tt.wantTotal, item.LineTotal)
			assert.False(t, item.IsCancelled())
		})
	}
}

func TestNewSaleItem_QuantityOverLimit(t *testing.T) {
	item, err := NewSaleItem(createTestProduct(t, 100), 21)
	require.Error(t, err)
	assert.Nil(t, item)
	assert.Equal(t, "Cannot sell more than 20 identical items", err.Error())

	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, CodeQuantityLimitExceeded, domainErr.Code)
}

func TestNewSaleItem_QuantityNotPositive(t *testing.T) {
	item, err := NewSaleItem(createTestProduct(t, 100), 0)
	require.Error(t, err)
	assert.Nil(t, item)
	assert.Equal(t, "Quantity must be greater than zero", err.Error())
}

func TestNewSaleItem_NilProduct(t *testing.T) {
	_, err := NewSaleItem(nil, 1)
	assert.Error(t, err)
}

func TestNewSaleItem_CapturesPriceAtBindTime(t *testing.T) {
	product := createTestProduct(t, 100)
	item, err := NewSaleItem(product, 2)
	require.NoError(t, err)

	product.Price = decimal.NewFromInt(999)
	assert.True(t, item.UnitPrice.Equal(decimal.NewFromInt(100)))
	assert.True(t, item.LineTotal.Equal(decimal.NewFromInt(200)))
}

// ============================================
// UpdateQuantity
// ============================================

func TestSaleItem_UpdateQuantity(t *testing.T) {
	item, err := NewSaleItem(createTestProduct(t, 100), 3)
	require.NoError(t, err)

	require.NoError(t, item.UpdateQuantity(10))
	assert.Equal(t, 10, item.Quantity)
	assert.True(t, item.DiscountRate.Equal(decimal.NewFromFloat(0.20)))
	assert.True(t, item.LineTotal.Equal(decimal.NewFromInt(800)))
}

func TestSaleItem_UpdateQuantity_RejectedLeavesItemUnchanged(t *testing.T) {
	for _, quantity := range []int{0, -1, 21, 100} {
		item, err := NewSaleItem(createTestProduct(t, 100), 4)
		require.NoError(t, err)
		before := *item

		assert.Error(t, item.UpdateQuantity(quantity))
		assert.Equal(t, before, *item)
	}
}

func TestSaleItem_ChangeProduct(t *testing.T) {
	item, err := NewSaleItem(createTestProduct(t, 100), 3)
	require.NoError(t, err)
	originalID := item.ID

	other := createTestProduct(t, 200)
	require.NoError(t, item.ChangeProduct(other, 4))

	assert.Equal(t, originalID, item.ID)
	assert.Equal(t, other.ID, item.Product.ID)
	assert.True(t, item.LineTotal.Equal(decimal.NewFromInt(720)))

	before := *item
	assert.Error(t, item.ChangeProduct(other, 21))
	assert.Error(t, item.ChangeProduct(nil, 2))
	assert.Equal(t, before, *item)
}

// ============================================
// Cancel
// ============================================

func TestSaleItem_Cancel(t *testing.T) {
	item, err := NewSaleItem(createTestProduct(t, 100), 10)
	require.NoError(t, err)

	item.Cancel()
	assert.True(t, item.IsCancelled())
	assert.True(t, item.LineTotal.IsZero())

	once := *item
	item.Cancel()
	assert.Equal(t, once, *item)
}

func TestSaleItem_QuantityChangeAfterCancelKeepsZeroTotal(t *testing.T) {
	item, err := NewSaleItem(createTestProduct(t, 100), 5)
	require.NoError(t, err)

	item.Cancel()
	require.NoError(t, item.UpdateQuantity(12))
	assert.True(t, item.LineTotal.IsZero())
	assert.True(t, item.DiscountRate.Equal(decimal.NewFromFloat(0.20)))
}
