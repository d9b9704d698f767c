package auth

import (
	"errors"
	"strings"
)

// Role is one of the fixed staff roles.
type Role string

const (
	RoleAdmin        Role = "Admin"
	RoleStockManager Role = "Stock Manager"
	RoleCashier      Role = "Cashier"
)

// ParseRole accepts the canonical names case-insensitively.
func ParseRole(s string) (Role, bool) {
	for _, r := range []Role{RoleAdmin, RoleStockManager, RoleCashier} {
		if strings.EqualFold(strings.TrimSpace(s), string(r)) {
			return r, true
		}
	}
	return "", false
}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleStockManager, RoleCashier:
		return true
	}
	return false
}

// Principal is the authenticated identity bound to a session. It is either
// absent or fully populated; use NewPrincipal to build one.
type Principal struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

var ErrIncompletePrincipal = errors.New("principal requires user id, username and role")

func NewPrincipal(userID int64, username string, role Role) (*Principal, error) {
	p := &Principal{UserID: userID, Username: username, Role: role}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Principal) Validate() error {
	if p == nil || p.UserID <= 0 || p.Username == "" || !p.Role.Valid() {
		return ErrIncompletePrincipal
	}
	return nil
}

// Tier is the minimum authorization a command requires.
type Tier int

const (
	TierNone Tier = iota
	TierAuthenticated
	TierManager // Admin or Stock Manager
	TierAdmin
)

func (t Tier) String() string {
	switch t {
	case TierNone:
		return "none"
	case TierAuthenticated:
		return "authenticated"
	case TierManager:
		return "admin-or-manager"
	case TierAdmin:
		return "admin"
	}
	return "unknown"
}

// Satisfies reports whether a principal (possibly nil) meets the tier.
func (t Tier) Satisfies(p *Principal) bool {
	switch t {
	case TierNone:
		return true
	case TierAuthenticated:
		return p != nil
	case TierManager:
		return p != nil && (p.Role == RoleAdmin || p.Role == RoleStockManager)
	case TierAdmin:
		return p != nil && p.Role == RoleAdmin
	}
	return false
}
