package router

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"stock-service/internal/domain"
	"stock-service/internal/ledger"
	"stock-service/internal/logger"
	"stock-service/internal/session"
)

const dateLayout = "2006-01-02"

// recordTransactionRequest has no user_id: the acting user always comes from
// the session.
type recordTransactionRequest struct {
	ProductID int64  `json:"product_id" validate:"required,gt=0"`
	Type      string `json:"type" validate:"required,oneof=Sale Purchase"`
	Quantity  *int   `json:"quantity" validate:"required,gt=0,lte=1000000"`
	Note      string `json:"note" validate:"max=500"`
}

type limitRequest struct {
	Limit int `json:"limit" validate:"omitempty,gt=0,lte=1000"`
}

type dailySalesRequest struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
}

type monthlySalesRequest struct {
	Year  int `json:"year" validate:"required,gte=2000,lte=2100"`
	Month int `json:"month" validate:"required,gte=1,lte=12"`
}

type dateRangeRequest struct {
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

type topProductsRequest struct {
	dateRangeRequest
	Limit int `json:"limit" validate:"omitempty,gt=0,lte=100"`
}

type transactionResult struct {
	Transaction domain.Transaction `json:"transaction"`
	Product     *domain.Product    `json:"product,omitempty"`
}

func (r *Router) recordTransaction(ctx context.Context, sess *session.Session, payload json.RawMessage) (reply, error) {
	var req recordTransactionRequest
	if err := r.decode(payload, &req); err != nil {
		return reply{}, err
	}
	p := sess.Principal()

	txn, err := r.deps.Ledger.ApplyTransaction(ctx, ledger.Request{
		ProductID: req.ProductID,
		ActorID:   p.UserID,
		Type:      domain.TransactionType(req.Type),
		Quantity:  *req.Quantity,
		Note:      req.Note,
	})
	if err != nil {
		return reply{}, err
	}
	txn.Username = p.Username

	out := transactionResult{Transaction: txn}
	if product, err := r.deps.Store.GetProduct(ctx, req.ProductID); err == nil {
		out.Product = &product
	} else {
		logger.Warn("product reload after transaction failed", map[string]any{
			"component":  "router",
			"product_id": req.ProductID,
			"error":      err,
		})
	}

	r.audit(ctx, sess, domain.AuditTransaction, fmt.Sprintf("%s product_id=%d qty=%d", txn.Type, txn.ProductID, txn.Quantity))
	return reply{"Transaction recorded successfully", out}, nil
}

func (r *Router) getAllTransactions(ctx context.Context, _ *session.Session, payload json.RawMessage) (reply, error) {
	var req limitRequest
	if err := r.decode(payload, &req); err != nil {
		return reply{}, err
	}
	items, err := r.deps.Store.ListTransactions(ctx, req.Limit)
	if err != nil {
		return reply{}, err
	}
	return reply{"Transactions retrieved", items}, nil
}

func (r *Router) getTodayTransactions(ctx context.Context, _ *session.Session, _ json.RawMessage) (reply, error) {
	start := startOfDay(r.deps.Now())
	items, err := r.deps.Store.TransactionsBetween(ctx, start, start.AddDate(0, 0, 1))
	if err != nil {
		return reply{}, err
	}
	return reply{"Today's transactions retrieved", items}, nil
}

func (r *Router) getProductTransactions(ctx context.Context, _ *session.Session, payload json.RawMessage) (reply, error) {
	var req productIDRequest
	if err := r.decode(payload, &req); err != nil {
		return reply{}, err
	}
	items, err := r.deps.Store.ProductTransactions(ctx, req.ProductID)
	if err != nil {
		return reply{}, err
	}
	return reply{"Product transactions retrieved", items}, nil
}

func (r *Router) getDailySales(ctx context.Context, _ *session.Session, payload json.RawMessage) (reply, error) {
	var req dailySalesRequest
	if err := r.decode(payload, &req); err != nil {
		return reply{}, err
	}
	day, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return reply{}, domain.Invalid("date must be a date in YYYY-MM-DD format")
	}
	sum, err := r.deps.Store.SalesSummary(ctx, day, day.AddDate(0, 0, 1))
	if err != nil {
		return reply{}, err
	}
	return reply{"Daily sales retrieved", sum}, nil
}

func (r *Router) getMonthlySales(ctx context.Context, _ *session.Session, payload json.RawMessage) (reply, error) {
	var req monthlySalesRequest
	if err := r.decode(payload, &req); err != nil {
		return reply{}, err
	}
	first := time.Date(req.Year, time.Month(req.Month), 1, 0, 0, 0, 0, time.UTC)
	sum, err := r.deps.Store.SalesSummary(ctx, first, first.AddDate(0, 1, 0))
	if err != nil {
		return reply{}, err
	}
	return reply{"Monthly sales retrieved", sum}, nil
}

func (r *Router) getSalesSummary(ctx context.Context, _ *session.Session, payload json.RawMessage) (reply, error) {
	var req dateRangeRequest
	if err := r.decode(payload, &req); err != nil {
		return reply{}, err
	}
	from, to, err := req.bounds()
	if err != nil {
		return reply{}, err
	}
	sum, err := r.deps.Store.SalesSummary(ctx, from, to)
	if err != nil {
		return reply{}, err
	}
	return reply{"Sales summary retrieved", sum}, nil
}

func (r *Router) getTopProducts(ctx context.Context, _ *session.Session, payload json.RawMessage) (reply, error) {
	var req topProductsRequest
	if err := r.decode(payload, &req); err != nil {
		return reply{}, err
	}
	from, to, err := req.bounds()
	if err != nil {
		return reply{}, err
	}
	limit := req.Limit
	if limit == 0 {
		limit = 10
	}
	items, err := r.deps.Store.TopProducts(ctx, from, to, limit)
	if err != nil {
		return reply{}, err
	}
	return reply{"Top products retrieved", items}, nil
}

func (r *Router) getInventoryStatus(ctx context.Context, _ *session.Session, _ json.RawMessage) (reply, error) {
	st, err := r.deps.Store.InventoryStatus(ctx)
	if err != nil {
		return reply{}, err
	}
	return reply{"Inventory status retrieved", st}, nil
}

// bounds turns inclusive calendar dates into the half-open UTC range
// [start 00:00, end+1 00:00).
func (d dateRangeRequest) bounds() (time.Time, time.Time, error) {
	from, err := time.Parse(dateLayout, d.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, domain.Invalid("start_date must be a date in YYYY-MM-DD format")
	}
	to, err := time.Parse(dateLayout, d.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, domain.Invalid("end_date must be a date in YYYY-MM-DD format")
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, domain.Invalid("end_date must not be before start_date")
	}
	return from, to.AddDate(0, 0, 1), nil
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
