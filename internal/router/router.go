// Package router turns request lines into responses: it resolves the action in
// a fixed command table, enforces the action's tier against the session, and
// runs the handler.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"
	"unicode"

	"stock-service/internal/auth"
	"stock-service/internal/domain"
	"stock-service/internal/ledger"
	"stock-service/internal/logger"
	"stock-service/internal/protocol"
	"stock-service/internal/ratelimit"
	"stock-service/internal/session"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Store is everything the handlers read or write outside the ledger.
type Store interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id int64) (domain.Product, error)
	SearchProducts(ctx context.Context, term string) ([]domain.Product, error)
	LowStockProducts(ctx context.Context, threshold int) ([]domain.Product, error)
	CreateProduct(ctx context.Context, p domain.Product) (domain.Product, error)
	UpdateProduct(ctx context.Context, id int64, c domain.ProductChanges) (domain.Product, error)
	DeactivateProduct(ctx context.Context, id int64) error

	ListSuppliers(ctx context.Context) ([]domain.Supplier, error)
	GetSupplier(ctx context.Context, id int64) (domain.Supplier, error)
	SearchSuppliers(ctx context.Context, term string) ([]domain.Supplier, error)
	CreateSupplier(ctx context.Context, s domain.Supplier) (domain.Supplier, error)
	UpdateSupplier(ctx context.Context, id int64, c domain.SupplierChanges) (domain.Supplier, error)
	DeactivateSupplier(ctx context.Context, id int64) error

	ListTransactions(ctx context.Context, limit int) ([]domain.Transaction, error)
	TransactionsBetween(ctx context.Context, from, to time.Time) ([]domain.Transaction, error)
	ProductTransactions(ctx context.Context, productID int64) ([]domain.Transaction, error)
	SalesSummary(ctx context.Context, from, to time.Time) (domain.SalesSummary, error)
	TopProducts(ctx context.Context, from, to time.Time, limit int) ([]domain.TopProduct, error)
	InventoryStatus(ctx context.Context) (domain.InventoryStatus, error)

	AppendAudit(ctx context.Context, e domain.AuditEntry) error
	ListAudit(ctx context.Context, limit int, userID *int64) ([]domain.AuditEntry, error)

	ListUsers(ctx context.Context) ([]domain.User, error)
	DeactivateUser(ctx context.Context, id int64) error
}

type Credentials interface {
	Authenticate(ctx context.Context, username, password string) (domain.User, error)
	Register(ctx context.Context, username, password string, role auth.Role) (domain.User, error)
	ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error
}

type Ledger interface {
	ApplyTransaction(ctx context.Context, req ledger.Request) (domain.Transaction, error)
}

type Observer interface {
	ObserveRequest(action, outcome string, elapsed time.Duration)
	ObserveLoginFailure()
	ObserveLockout()
}

type Deps struct {
	Store       Store
	Credentials Credentials
	Ledger      Ledger
	Limiter     ratelimit.Limiter
	Sessions    *session.Registry
	Observer    Observer
	// Now defaults to time.Now in UTC.
	Now func() time.Time
}

type reply struct {
	message string
	data    any
}

type handlerFunc func(ctx context.Context, sess *session.Session, payload json.RawMessage) (reply, error)

type command struct {
	tier    auth.Tier
	handler handlerFunc
}

type Router struct {
	deps     Deps
	commands map[Action]command
	validate *validator.Validate
}

func New(deps Deps) *Router {
	if deps.Now == nil {
		deps.Now = func() time.Time { return time.Now().UTC() }
	}
	r := &Router{deps: deps, validate: newValidator()}
	r.commands = r.commandTable()
	return r
}

// requestError carries an explicit client-facing code and message.
type requestError struct {
	code    protocol.Code
	message string
}

func (e *requestError) Error() string { return e.message }

// Dispatch handles one raw request line.
func (r *Router) Dispatch(ctx context.Context, sess *session.Session, line []byte) protocol.Response {
	req, err := protocol.ParseRequest(line)
	if err != nil {
		r.observe("invalid", protocol.CodeProtocolError, 0)
		if errors.Is(err, protocol.ErrEmptyAction) {
			return protocol.Fail(protocol.CodeProtocolError, "Missing action")
		}
		return protocol.Fail(protocol.CodeProtocolError, "Malformed request: expected a JSON object")
	}
	return r.Handle(ctx, sess, req.Action, req.Payload)
}

// Handle runs one action for the session. It never panics.
func (r *Router) Handle(ctx context.Context, sess *session.Session, action string, payload json.RawMessage) (resp protocol.Response) {
	start := time.Now()
	cmd, ok := r.commands[Action(action)]
	if !ok {
		r.observe("unknown", protocol.CodeUnknownCommand, time.Since(start))
		return protocol.Fail(protocol.CodeUnknownCommand, "Unknown action: "+action)
	}

	requestID := uuid.NewString()
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("handler panic", map[string]any{
				"component":     "router",
				"action":        action,
				"request_id":    requestID,
				"connection_id": sess.ID(),
				"panic":         fmt.Sprint(rec),
				"stack":         string(debug.Stack()),
			})
			resp = protocol.Fail(protocol.CodeInternal, "Internal server error")
		}
		r.observe(action, resp.Code, time.Since(start))
	}()

	if !sess.Allows(cmd.tier) {
		if !sess.IsAuthenticated() {
			return protocol.Fail(protocol.CodeAuthRequired, "Authentication required")
		}
		return protocol.Fail(protocol.CodeForbidden, "Permission denied")
	}

	out, err := cmd.handler(ctx, sess, payload)
	if err != nil {
		return r.failure(action, requestID, sess, err)
	}
	return protocol.OK(out.message, out.data)
}

func (r *Router) failure(action, requestID string, sess *session.Session, err error) protocol.Response {
	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr):
		return protocol.Fail(reqErr.code, reqErr.message)
	case errors.Is(err, domain.ErrStorage):
		logger.Error("storage failure", map[string]any{
			"component":     "router",
			"action":        action,
			"request_id":    requestID,
			"connection_id": sess.ID(),
			"error":         err,
		})
		return protocol.Fail(protocol.CodeStorageFailure, "Storage unavailable, please retry")
	case errors.Is(err, domain.ErrInvalidInput):
		return protocol.Fail(protocol.CodeValidation, err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials):
		return protocol.Fail(protocol.CodeInvalidCredentials, "Invalid username or password")
	case errors.Is(err, domain.ErrInsufficientStock):
		return protocol.Fail(protocol.CodeInsufficientStock, upperFirst(err.Error()))
	case errors.Is(err, domain.ErrNotFound):
		return protocol.Fail(protocol.CodeNotFound, upperFirst(err.Error()))
	case errors.Is(err, domain.ErrConflict):
		return protocol.Fail(protocol.CodeConflict, upperFirst(err.Error()))
	default:
		logger.Error("request failed", map[string]any{
			"component":     "router",
			"action":        action,
			"request_id":    requestID,
			"connection_id": sess.ID(),
			"error":         err,
		})
		return protocol.Fail(protocol.CodeInternal, "Internal server error")
	}
}

func (r *Router) observe(action string, code protocol.Code, elapsed time.Duration) {
	if r.deps.Observer == nil {
		return
	}
	outcome := "ok"
	if code != "" {
		outcome = strings.ToLower(string(code))
	}
	r.deps.Observer.ObserveRequest(action, outcome, elapsed)
}

// audit appends an entry for the session's principal. Failures are logged and
// never change the response.
func (r *Router) audit(ctx context.Context, sess *session.Session, action domain.AuditAction, details string) {
	p := sess.Principal()
	if p == nil {
		return
	}
	err := r.deps.Store.AppendAudit(ctx, domain.AuditEntry{
		UserID:  p.UserID,
		Action:  action,
		Details: details,
	})
	if err != nil {
		logger.Warn("audit append failed", map[string]any{
			"component":     "router",
			"audit_action":  string(action),
			"connection_id": sess.ID(),
			"error":         err,
		})
	}
}

func upperFirst(s string) string {
	for i, c := range s {
		return string(unicode.ToUpper(c)) + s[i+len(string(c)):]
	}
	return s
}
