package store

import (
	"context"
	"time"

	"stock-service/internal/domain"

	"gorm.io/gorm"
)

const MaxTransactionLimit = 1000

func (s *Store) transactionQuery(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Table("transactions AS t").
		Select("t.transaction_id, t.product_id, p.name AS product_name, t.user_id, u.username, t.txn_type, t.quantity, t.total_price_cents, t.note, t.created_at").
		Joins("LEFT JOIN products AS p ON p.product_id = t.product_id").
		Joins("LEFT JOIN users AS u ON u.user_id = t.user_id")
}

func (s *Store) scanTransactions(q *gorm.DB, op string) ([]domain.Transaction, error) {
	var rows []transactionRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, wrap(op, err)
	}
	out := make([]domain.Transaction, 0, len(rows))
	for _, r := range rows {
		out = append(out, toDomainTransaction(r))
	}
	return out, nil
}

// ListTransactions returns the newest transactions first.
func (s *Store) ListTransactions(ctx context.Context, limit int) ([]domain.Transaction, error) {
	if limit <= 0 || limit > MaxTransactionLimit {
		limit = MaxTransactionLimit
	}
	q := s.transactionQuery(ctx).Order("t.created_at DESC, t.transaction_id DESC").Limit(limit)
	return s.scanTransactions(q, "list transactions")
}

// TransactionsBetween returns transactions in [from, to), oldest first.
func (s *Store) TransactionsBetween(ctx context.Context, from, to time.Time) ([]domain.Transaction, error) {
	q := s.transactionQuery(ctx).
		Where("t.created_at >= ? AND t.created_at < ?", from.UTC(), to.UTC()).
		Order("t.created_at, t.transaction_id")
	return s.scanTransactions(q, "transactions between")
}

func (s *Store) ProductTransactions(ctx context.Context, productID int64) ([]domain.Transaction, error) {
	q := s.transactionQuery(ctx).
		Where("t.product_id = ?", productID).
		Order("t.created_at DESC, t.transaction_id DESC")
	return s.scanTransactions(q, "product transactions")
}
