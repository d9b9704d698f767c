package router

import (
	"context"
	"encoding/json"
	"fmt"

	"stock-service/internal/auth"
	"stock-service/internal/domain"
	"stock-service/internal/session"
)

type auditLogsRequest struct {
	Limit  int    `json:"limit" validate:"omitempty,gt=0,lte=1000"`
	UserID *int64 `json:"user_id" validate:"omitempty,gt=0"`
}

type registerUserRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Role     string `json:"role" validate:"required"`
}

type userIDRequest struct {
	UserID int64 `json:"user_id" validate:"required,gt=0"`
}

func (r *Router) getAuditLogs(ctx context.Context, _ *session.Session, payload json.RawMessage) (reply, error) {
	var req auditLogsRequest
	if err := r.decode(payload, &req); err != nil {
		return reply{}, err
	}
	entries, err := r.deps.Store.ListAudit(ctx, req.Limit, req.UserID)
	if err != nil {
		return reply{}, err
	}
	return reply{"Audit logs retrieved", entries}, nil
}

func (r *Router) getAllUsers(ctx context.Context, _ *session.Session, _ json.RawMessage) (reply, error) {
	users, err := r.deps.Store.ListUsers(ctx)
	if err != nil {
		return reply{}, err
	}
	return reply{"Users retrieved", users}, nil
}

func (r *Router) registerUser(ctx context.Context, sess *session.Session, payload json.RawMessage) (reply, error) {
	var req registerUserRequest
	if err := r.decode(payload, &req); err != nil {
		return reply{}, err
	}
	role, ok := auth.ParseRole(req.Role)
	if !ok {
		return reply{}, domain.Invalid("role must be one of: Admin, Stock Manager, Cashier")
	}
	user, err := r.deps.Credentials.Register(ctx, req.Username, req.Password, role)
	if err != nil {
		return reply{}, err
	}
	r.audit(ctx, sess, domain.AuditRegisterUser, fmt.Sprintf("user_id=%d username=%q role=%q", user.ID, user.Username, user.Role))
	return reply{"User registered successfully", user}, nil
}

func (r *Router) deactivateUser(ctx context.Context, sess *session.Session, payload json.RawMessage) (reply, error) {
	var req userIDRequest
	if err := r.decode(payload, &req); err != nil {
		return reply{}, err
	}
	if req.UserID == sess.Principal().UserID {
		return reply{}, domain.Invalid("cannot deactivate your own account")
	}
	if err := r.deps.Store.DeactivateUser(ctx, req.UserID); err != nil {
		return reply{}, err
	}
	r.audit(ctx, sess, domain.AuditDeactivateUser, fmt.Sprintf("user_id=%d", req.UserID))
	return reply{"User deactivated successfully", nil}, nil
}

func (r *Router) getActiveSessions(_ context.Context, _ *session.Session, _ json.RawMessage) (reply, error) {
	var snaps []session.Snapshot
	if r.deps.Sessions != nil {
		snaps = r.deps.Sessions.List()
	}
	if snaps == nil {
		snaps = []session.Snapshot{}
	}
	return reply{"Active sessions retrieved", snaps}, nil
}
