package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net"
	"time"

	"stock-service/internal/domain"
	"stock-service/internal/logger"
	"stock-service/internal/protocol"
	"stock-service/internal/ratelimit"
	"stock-service/internal/session"
)

type loginRequest struct {
	Username string `json:"username" validate:"required,max=50"`
	Password string `json:"password" validate:"required,max=72"`
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6,max=72"`
}

func (r *Router) login(ctx context.Context, sess *session.Session, payload json.RawMessage) (reply, error) {
	var req loginRequest
	if err := r.decode(payload, &req); err != nil {
		return reply{}, err
	}

	key := ratelimit.Key{Origin: originHost(sess.Origin()), Identity: req.Username}
	fields := map[string]any{
		"component":     "router",
		"connection_id": sess.ID(),
		"origin":        key.Origin,
		"username":      req.Username,
	}

	// 1. Refuse while locked out. A broken limiter fails open.
	locked, remaining, err := r.deps.Limiter.IsLocked(ctx, key)
	if err != nil {
		logger.Warn("login limiter unavailable", withErr(fields, err))
	} else if locked {
		if r.deps.Observer != nil {
			r.deps.Observer.ObserveLockout()
		}
		logger.Warn("login refused during lockout", fields)
		return reply{}, &requestError{
			code:    protocol.CodeRateLimited,
			message: fmt.Sprintf("Too many login attempts. Try again in %d minutes.", minutesCeil(remaining)),
		}
	}

	// 2. Verify credentials
	user, err := r.deps.Credentials.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			r.recordLoginFailure(ctx, key, fields)
		}
		return reply{}, err
	}

	// 3. Bind the principal
	if err := r.deps.Limiter.Clear(ctx, key); err != nil {
		logger.Warn("login limiter clear failed", withErr(fields, err))
	}
	principal, err := user.Principal()
	if err != nil {
		return reply{}, err
	}
	if err := sess.Authenticate(principal); err != nil {
		return reply{}, err
	}

	r.audit(ctx, sess, domain.AuditLogin, "login from "+key.Origin)
	logger.Info("login succeeded", fields)
	return reply{"Login successful", principal}, nil
}

func (r *Router) recordLoginFailure(ctx context.Context, key ratelimit.Key, fields map[string]any) {
	if r.deps.Observer != nil {
		r.deps.Observer.ObserveLoginFailure()
	}
	st, err := r.deps.Limiter.RecordFailure(ctx, key)
	if err != nil {
		logger.Warn("login limiter unavailable", withErr(fields, err))
		return
	}
	if st.LockedUntil != nil {
		logger.Warn("login locked out", map[string]any{
			"component":    "router",
			"origin":       key.Origin,
			"username":     key.Identity,
			"failed_count": st.FailedCount,
			"locked_until": st.LockedUntil.UTC().Format(time.RFC3339),
		})
	}
}

func (r *Router) logout(ctx context.Context, sess *session.Session, _ json.RawMessage) (reply, error) {
	r.audit(ctx, sess, domain.AuditLogout, "logout")
	sess.Clear()
	return reply{"Logged out successfully", nil}, nil
}

func (r *Router) changePassword(ctx context.Context, sess *session.Session, payload json.RawMessage) (reply, error) {
	var req changePasswordRequest
	if err := r.decode(payload, &req); err != nil {
		return reply{}, err
	}
	p := sess.Principal()
	err := r.deps.Credentials.ChangePassword(ctx, p.UserID, req.OldPassword, req.NewPassword)
	if errors.Is(err, domain.ErrInvalidCredentials) {
		return reply{}, &requestError{code: protocol.CodeInvalidCredentials, message: "Current password is incorrect"}
	}
	if err != nil {
		return reply{}, err
	}
	r.audit(ctx, sess, domain.AuditChangePassword, "password changed")
	return reply{"Password changed successfully", nil}, nil
}

// originHost drops the port so reconnecting does not reset a lockout.
func originHost(origin string) string {
	host, _, err := net.SplitHostPort(origin)
	if err != nil {
		return origin
	}
	return host
}

func minutesCeil(d time.Duration) int {
	m := int(math.Ceil(d.Minutes()))
	if m < 1 {
		return 1
	}
	return m
}

func withErr(fields map[string]any, err error) map[string]any {
	out := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	out["error"] = err
	return out
}
