package dashboard

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drstein77/fitstore/internal/models"
)

func TestLowStockAlertsKeepSuppliedOrder(t *testing.T) {
	products := []models.Product{
		{ID: 1, Name: "A", Stock: 5},
		{ID: 2, Name: "B", Stock: 25},
		{ID: 3, Name: "C", Stock: 8},
	}

	s := Aggregate(products, nil, nil)

	require.Len(t, s.LowStock, 2)
	assert.Equal(t, "A", s.LowStock[0].Product.Name)
	assert.Equal(t, SeverityCritical, s.LowStock[0].Severity)
	assert.Equal(t, "C", s.LowStock[1].Product.Name)
	assert.Equal(t, SeverityCritical, s.LowStock[1].Severity)
	assert.Equal(t, StockLow, s.StockState)
}

func TestSeverityBoundaries(t *testing.T) {
	assert.Equal(t, SeverityCritical, SeverityFor(0))
	assert.Equal(t, SeverityCritical, SeverityFor(9))
	assert.Equal(t, SeverityWarning, SeverityFor(10))
	assert.Equal(t, SeverityWarning, SeverityFor(19))
}

func TestLowStockCapsAtFive(t *testing.T) {
	var products []models.Product
	for i := 1; i <= 8; i++ {
		products = append(products, models.Product{ID: i, Stock: 12})
	}
	products = append([]models.Product{{ID: 100, Stock: 20}}, products...)

	s := Aggregate(products, nil, nil)

	require.Len(t, s.LowStock, ListSize)
	assert.Equal(t, 1, s.LowStock[0].Product.ID)
	assert.Equal(t, 5, s.LowStock[4].Product.ID)
	assert.Equal(t, SeverityWarning, s.LowStock[0].Severity)
}

func TestStockStates(t *testing.T) {
	assert.Equal(t, StockUnknown, Aggregate(nil, nil, nil).StockState)
	assert.Equal(t, StockHealthy, Aggregate([]models.Product{}, nil, nil).StockState)
	assert.Equal(t, StockHealthy, Aggregate([]models.Product{{ID: 1, Stock: 50}}, nil, nil).StockState)
}

func TestCountsAndSales(t *testing.T) {
	orders := []models.Order{
		{ID: 10, Total: decimal.RequireFromString("7700")},
		{ID: 9, Total: decimal.RequireFromString("0.10")},
		{ID: 8, Total: decimal.RequireFromString("0.20")},
	}
	clients := []models.Client{{ID: 1}, {ID: 2}}
	products := []models.Product{{ID: 1, Stock: 50}}

	s := Aggregate(products, orders, clients)

	assert.Equal(t, "7700.3", s.TotalSales.String())
	assert.Equal(t, 3, s.OrderCount)
	assert.Equal(t, 1, s.ProductCount)
	assert.Equal(t, 2, s.ClientCount)
}

func TestTopProductsAndRecentOrdersUseInputOrder(t *testing.T) {
	var products []models.Product
	var orders []models.Order
	for i := 7; i >= 1; i-- {
		products = append(products, models.Product{ID: i, Price: decimal.NewFromInt(int64(i)), Stock: 100})
		orders = append(orders, models.Order{ID: i})
	}

	s := Aggregate(products, orders, nil)

	require.Len(t, s.TopProducts, ListSize)
	require.Len(t, s.RecentOrders, ListSize)
	for i := 0; i < ListSize; i++ {
		assert.Equal(t, 7-i, s.TopProducts[i].ID)
		assert.Equal(t, 7-i, s.RecentOrders[i].ID)
	}
}

func TestEmptyInputs(t *testing.T) {
	s := Aggregate(nil, nil, nil)

	assert.True(t, s.TotalSales.IsZero())
	assert.Empty(t, s.TopProducts)
	assert.Empty(t, s.RecentOrders)
	assert.Empty(t, s.LowStock)
}

func TestSummaryDoesNotAliasInput(t *testing.T) {
	products := []models.Product{{ID: 1, Stock: 3}}
	s := Aggregate(products, nil, nil)
	s.TopProducts[0].ID = 99

	assert.Equal(t, 1, products[0].ID)
}
