package store

import (
	"context"
	"errors"

	"stock-service/internal/db"
	"stock-service/internal/domain"
	"stock-service/internal/ledger"

	"gorm.io/gorm"
)

// Store is the gorm-backed persistence layer for inventory, users and audit.
type Store struct {
	db *gorm.DB
}

func New(gdb *gorm.DB) *Store {
	return &Store{db: gdb}
}

func (s *Store) Migrate(ctx context.Context) error {
	return db.RunInventoryMigration(ctx, s.db, Models()...)
}

func (s *Store) Ping(ctx context.Context) error {
	return db.Ping(ctx, s.db)
}

// WithinTx runs fn in one database transaction. Errors returned by fn are
// passed through untouched; begin and commit faults become storage errors.
func (s *Store) WithinTx(ctx context.Context, fn func(ledger.Tx) error) error {
	var fnErr error
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fnErr = fn(&ledgerTx{db: tx})
		return fnErr
	})
	if err == nil {
		return nil
	}
	if fnErr != nil {
		return fnErr
	}
	return &domain.StorageError{Op: "transaction", Err: err}
}

type ledgerTx struct {
	db *gorm.DB
}

func (t *ledgerTx) FindProduct(ctx context.Context, id int64) (domain.Product, error) {
	var rec productModel
	if err := t.db.WithContext(ctx).Where("product_id = ?", id).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Product{}, &domain.NotFoundError{Entity: "product", ID: id}
		}
		return domain.Product{}, wrap("find product", err)
	}
	return toDomainProduct(productModelToRow(rec)), nil
}

func (t *ledgerTx) ConditionalDecrement(ctx context.Context, id int64, qty int) (bool, error) {
	res := t.db.WithContext(ctx).
		Model(&productModel{}).
		Where("product_id = ? AND active = ? AND quantity >= ?", id, true, qty).
		Updates(map[string]any{
			"quantity":   gorm.Expr("quantity - ?", qty),
			"updated_at": now(),
		})
	if res.Error != nil {
		return false, wrap("decrement stock", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (t *ledgerTx) Increment(ctx context.Context, id int64, qty int) (bool, error) {
	res := t.db.WithContext(ctx).
		Model(&productModel{}).
		Where("product_id = ? AND active = ?", id, true).
		Updates(map[string]any{
			"quantity":   gorm.Expr("quantity + ?", qty),
			"updated_at": now(),
		})
	if res.Error != nil {
		return false, wrap("increment stock", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (t *ledgerTx) InsertTransaction(ctx context.Context, txn *domain.Transaction) error {
	rec := transactionModel{
		ProductID:  txn.ProductID,
		UserID:     txn.UserID,
		Type:       string(txn.Type),
		Quantity:   txn.Quantity,
		TotalPrice: int64(txn.TotalPrice),
		Note:       txn.Note,
		CreatedAt:  now(),
	}
	if err := t.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return wrap("insert transaction", err)
	}
	txn.ID = rec.ID
	txn.CreatedAt = rec.CreatedAt
	return nil
}
