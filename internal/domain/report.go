package domain

import "time"

// LowStockThreshold is the quantity at or below which an item counts as low.
const LowStockThreshold = 10

// SalesSummary aggregates Sale transactions in [From, To).
type SalesSummary struct {
	From              time.Time `json:"from"`
	To                time.Time `json:"to"`
	TotalTransactions int       `json:"total_transactions"`
	TotalItemsSold    int       `json:"total_items_sold"`
	TotalRevenue      Money     `json:"total_revenue"`
}

type TopProduct struct {
	ProductID    int64  `json:"product_id"`
	Name         string `json:"name"`
	Category     string `json:"category"`
	TotalSold    int    `json:"total_sold"`
	TotalRevenue Money  `json:"total_revenue"`
}

type InventoryStatus struct {
	TotalProducts   int   `json:"total_products"`
	TotalItems      int   `json:"total_items"`
	TotalValue      Money `json:"total_value"`
	LowStockCount   int   `json:"low_stock_count"`
	OutOfStockCount int   `json:"out_of_stock_count"`
}
