package domain

import "fmt"

type StockStatus string

const (
	StockStatusInStock    StockStatus = "In Stock"
	StockStatusLowStock   StockStatus = "Low Stock"
	StockStatusOutOfStock StockStatus = "Out of Stock"
)

// LowStockThreshold is the largest quantity still reported as low stock.
const LowStockThreshold = 10

// StockStatusFor derives the stock status from a quantity.
func StockStatusFor(quantity int) StockStatus {
	switch {
	case quantity <= 0:
		return StockStatusOutOfStock
	case quantity <= LowStockThreshold:
		return StockStatusLowStock
	default:
		return StockStatusInStock
	}
}

func ParseStockStatus(s string) (StockStatus, error) {
	switch StockStatus(s) {
	case StockStatusInStock, StockStatusLowStock, StockStatusOutOfStock:
		return StockStatus(s), nil
	}
	return "", fmt.Errorf("unknown stock status %q", s)
}

type InventoryItem struct {
	ID       int64
	Name     string
	Quantity int
	Status   StockStatus
}
