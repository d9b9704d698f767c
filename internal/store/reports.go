package store

import (
	"context"
	"time"

	"stock-service/internal/domain"
)

type salesRow struct {
	TotalTransactions int64 `gorm:"column:total_transactions"`
	TotalItems        int64 `gorm:"column:total_items"`
	TotalRevenue      int64 `gorm:"column:total_revenue"`
}

type topProductRow struct {
	ProductID    int64  `gorm:"column:product_id"`
	Name         string `gorm:"column:name"`
	Category     string `gorm:"column:category"`
	TotalSold    int64  `gorm:"column:total_sold"`
	TotalRevenue int64  `gorm:"column:total_revenue"`
}

type inventoryRow struct {
	TotalProducts int64 `gorm:"column:total_products"`
	TotalItems    int64 `gorm:"column:total_items"`
	TotalValue    int64 `gorm:"column:total_value"`
	LowStock      int64 `gorm:"column:low_stock_count"`
	OutOfStock    int64 `gorm:"column:out_of_stock_count"`
}

// SalesSummary aggregates Sale transactions in [from, to).
func (s *Store) SalesSummary(ctx context.Context, from, to time.Time) (domain.SalesSummary, error) {
	var row salesRow
	err := s.db.WithContext(ctx).
		Model(&transactionModel{}).
		Select("COUNT(*) AS total_transactions, COALESCE(SUM(quantity), 0) AS total_items, COALESCE(SUM(total_price_cents), 0) AS total_revenue").
		Where("txn_type = ? AND created_at >= ? AND created_at < ?", string(domain.Sale), from.UTC(), to.UTC()).
		Scan(&row).Error
	if err != nil {
		return domain.SalesSummary{}, wrap("sales summary", err)
	}
	return domain.SalesSummary{
		From:              from.UTC(),
		To:                to.UTC(),
		TotalTransactions: int(row.TotalTransactions),
		TotalItemsSold:    int(row.TotalItems),
		TotalRevenue:      domain.Money(row.TotalRevenue),
	}, nil
}

func (s *Store) TopProducts(ctx context.Context, from, to time.Time, limit int) ([]domain.TopProduct, error) {
	var rows []topProductRow
	err := s.db.WithContext(ctx).
		Table("transactions AS t").
		Select("p.product_id, p.name, p.category, SUM(t.quantity) AS total_sold, SUM(t.total_price_cents) AS total_revenue").
		Joins("JOIN products AS p ON p.product_id = t.product_id").
		Where("t.txn_type = ? AND t.created_at >= ? AND t.created_at < ?", string(domain.Sale), from.UTC(), to.UTC()).
		Group("p.product_id, p.name, p.category").
		Order("total_sold DESC, p.product_id").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, wrap("top products", err)
	}
	out := make([]domain.TopProduct, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.TopProduct{
			ProductID:    r.ProductID,
			Name:         r.Name,
			Category:     r.Category,
			TotalSold:    int(r.TotalSold),
			TotalRevenue: domain.Money(r.TotalRevenue),
		})
	}
	return out, nil
}

func (s *Store) InventoryStatus(ctx context.Context) (domain.InventoryStatus, error) {
	var row inventoryRow
	err := s.db.WithContext(ctx).
		Model(&productModel{}).
		Select(`COUNT(*) AS total_products,
			COALESCE(SUM(quantity), 0) AS total_items,
			COALESCE(SUM(unit_price_cents * quantity), 0) AS total_value,
			COALESCE(SUM(CASE WHEN quantity <= ? THEN 1 ELSE 0 END), 0) AS low_stock_count,
			COALESCE(SUM(CASE WHEN quantity = 0 THEN 1 ELSE 0 END), 0) AS out_of_stock_count`, domain.LowStockThreshold).
		Where("active = ?", true).
		Scan(&row).Error
	if err != nil {
		return domain.InventoryStatus{}, wrap("inventory status", err)
	}
	return domain.InventoryStatus{
		TotalProducts:   int(row.TotalProducts),
		TotalItems:      int(row.TotalItems),
		TotalValue:      domain.Money(row.TotalValue),
		LowStockCount:   int(row.LowStock),
		OutOfStockCount: int(row.OutOfStock),
	}, nil
}
