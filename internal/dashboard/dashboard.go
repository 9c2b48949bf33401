// Package dashboard computes the summary shown on the console's home view.
//
// Every list is taken in the order the collections are supplied. The backend
// returns orders newest first, so RecentOrders is only "recent" because of
// that; nothing here re-sorts.
package dashboard

import (
	"github.com/shopspring/decimal"

	"github.com/drstein77/fitstore/internal/models"
)

const (
	// ListSize bounds TopProducts, LowStock and RecentOrders.
	ListSize = 5
	// LowStockThreshold is the stock level below which a product raises an alert.
	LowStockThreshold = 20
	// CriticalStockThreshold is the stock level below which an alert is critical.
	CriticalStockThreshold = 10
)

type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

func SeverityFor(stock int) Severity {
	if stock < CriticalStockThreshold {
		return SeverityCritical
	}
	return SeverityWarning
}

type Alert struct {
	Product  models.Product
	Severity Severity
}

// StockState tells "not loaded" apart from "loaded and nothing is low".
type StockState int

const (
	StockUnknown StockState = iota
	StockHealthy
	StockLow
)

type Summary struct {
	TotalSales   decimal.Decimal
	OrderCount   int
	ProductCount int
	ClientCount  int
	TopProducts  []models.Product
	LowStock     []Alert
	StockState   StockState
	RecentOrders []models.Order
}

// Aggregate builds the summary. A nil products slice means the catalog has
// not been fetched yet and yields StockUnknown.
func Aggregate(products []models.Product, orders []models.Order, clients []models.Client) Summary {
	s := Summary{
		TotalSales:   decimal.Zero,
		OrderCount:   len(orders),
		ProductCount: len(products),
		ClientCount:  len(clients),
		TopProducts:  head(products, ListSize),
		RecentOrders: head(orders, ListSize),
		LowStock:     lowStock(products),
	}

	for _, o := range orders {
		s.TotalSales = s.TotalSales.Add(o.Total)
	}

	switch {
	case products == nil:
		s.StockState = StockUnknown
	case len(s.LowStock) == 0:
		s.StockState = StockHealthy
	default:
		s.StockState = StockLow
	}

	return s
}

func lowStock(products []models.Product) []Alert {
	alerts := make([]Alert, 0, ListSize)
	for _, p := range products {
		if len(alerts) == ListSize {
			break
		}
		if p.Stock < LowStockThreshold {
			alerts = append(alerts, Alert{Product: p, Severity: SeverityFor(p.Stock)})
		}
	}
	return alerts
}

func head[T any](items []T, n int) []T {
	out := make([]T, 0, min(n, len(items)))
	return append(out, items[:min(n, len(items))]...)
}
