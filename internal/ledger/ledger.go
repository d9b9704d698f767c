// Package ledger applies stock movements. Every sale or purchase is one
// database transaction: the quantity change and its record commit together or
// not at all.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"stock-service/internal/domain"
	"stock-service/internal/logger"
)

const maxNoteLength = 500

// Tx is the unit of work the ledger runs in. Implementations must execute
// every call against the same underlying database transaction.
type Tx interface {
	// FindProduct returns the product regardless of its active flag, or an
	// error matching domain.ErrNotFound.
	FindProduct(ctx context.Context, id int64) (domain.Product, error)
	// ConditionalDecrement subtracts qty only if the product is active and
	// holds at least qty. It reports whether a row changed.
	ConditionalDecrement(ctx context.Context, id int64, qty int) (bool, error)
	// Increment adds qty to an active product. It reports whether a row changed.
	Increment(ctx context.Context, id int64, qty int) (bool, error)
	InsertTransaction(ctx context.Context, t *domain.Transaction) error
}

type Store interface {
	WithinTx(ctx context.Context, fn func(Tx) error) error
}

type Observer interface {
	ObserveTransaction(kind domain.TransactionType, outcome string)
}

type Ledger struct {
	store    Store
	observer Observer
}

func New(store Store, observer Observer) *Ledger {
	return &Ledger{store: store, observer: observer}
}

type Request struct {
	ProductID int64
	ActorID   int64
	Type      domain.TransactionType
	Quantity  int
	Note      string
}

func (r Request) validate() error {
	if r.Quantity <= 0 {
		return domain.Invalid("quantity must be positive")
	}
	if _, ok := domain.ParseTransactionType(string(r.Type)); !ok {
		return domain.Invalid("transaction type must be Sale or Purchase")
	}
	if r.ProductID <= 0 {
		return domain.Invalid("product_id is required")
	}
	if r.ActorID <= 0 {
		return domain.Invalid("acting user is required")
	}
	if len(r.Note) > maxNoteLength {
		return domain.Invalid("note exceeds %d characters", maxNoteLength)
	}
	return nil
}

// ApplyTransaction moves stock and writes the matching record atomically.
// Errors match domain.ErrInvalidInput, domain.ErrNotFound,
// domain.ErrInsufficientStock or domain.ErrStorage.
func (l *Ledger) ApplyTransaction(ctx context.Context, req Request) (domain.Transaction, error) {
	req.Note = strings.TrimSpace(req.Note)
	if err := req.validate(); err != nil {
		l.observe(req.Type, "invalid")
		return domain.Transaction{}, err
	}

	var out domain.Transaction
	err := l.store.WithinTx(ctx, func(tx Tx) error {
		// 1. Move the stock with a single conditional statement
		var (
			changed bool
			err     error
		)
		if req.Type == domain.Sale {
			changed, err = tx.ConditionalDecrement(ctx, req.ProductID, req.Quantity)
		} else {
			changed, err = tx.Increment(ctx, req.ProductID, req.Quantity)
		}
		if err != nil {
			return asStorage("move stock", err)
		}

		// 2. Read the product inside the same unit of work for price and,
		// when nothing changed, to tell a missing product from short stock
		product, err := tx.FindProduct(ctx, req.ProductID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return &domain.NotFoundError{Entity: "product", ID: req.ProductID}
			}
			return asStorage("read product", err)
		}
		if !changed {
			if !product.Active {
				return &domain.NotFoundError{Entity: "product", ID: req.ProductID}
			}
			return fmt.Errorf("%w: %d requested, %d available", domain.ErrInsufficientStock, req.Quantity, product.Quantity)
		}

		// 3. Record it
		total, ok := product.UnitPrice.Mul(req.Quantity)
		if !ok {
			return domain.Invalid("total price out of range")
		}
		out = domain.Transaction{
			ProductID:   req.ProductID,
			ProductName: product.Name,
			UserID:      req.ActorID,
			Type:        req.Type,
			Quantity:    req.Quantity,
			TotalPrice:  total,
			Note:        req.Note,
		}
		if err := tx.InsertTransaction(ctx, &out); err != nil {
			return asStorage("insert transaction", err)
		}
		return nil
	})
	if err != nil {
		l.observe(req.Type, outcomeOf(err))
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInsufficientStock) ||
			errors.Is(err, domain.ErrInvalidInput) {
			return domain.Transaction{}, err
		}
		logger.Error("ledger transaction rolled back", map[string]any{
			"component":  "ledger",
			"product_id": req.ProductID,
			"type":       string(req.Type),
			"error":      err,
		})
		return domain.Transaction{}, asStorage("commit", err)
	}

	l.observe(req.Type, "applied")
	logger.Debug("ledger transaction applied", map[string]any{
		"component":      "ledger",
		"transaction_id": out.ID,
		"product_id":     out.ProductID,
		"type":           string(out.Type),
		"quantity":       out.Quantity,
	})
	return out, nil
}

func (l *Ledger) observe(kind domain.TransactionType, outcome string) {
	if l.observer != nil {
		l.observer.ObserveTransaction(kind, outcome)
	}
}

func asStorage(op string, err error) error {
	if errors.Is(err, domain.ErrStorage) {
		return err
	}
	return &domain.StorageError{Op: op, Err: err}
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid"
	default:
		return "storage_failure"
	}
}
