package session

import (
	"sync/atomic"
	"time"

	"stock-service/internal/auth"
)

var lastID atomic.Int64

func nextID() int64 { return lastID.Add(1) }

// Snapshot is a read-only copy of a session for observers.
type Snapshot struct {
	ID             int64           `json:"connection_id"`
	Origin         string          `json:"origin"`
	Principal      *auth.Principal `json:"principal,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	LastActivityAt time.Time       `json:"last_activity_at"`
}

// Session is the per-connection state. It is owned by the connection's worker
// goroutine and must not be shared; others see it through Snapshot.
type Session struct {
	id           int64
	origin       string
	createdAt    time.Time
	lastActivity time.Time
	principal    *auth.Principal

	registry *Registry
	now      func() time.Time
}

// New creates an unauthenticated session and registers it when registry is
// non-nil.
func New(origin string, registry *Registry) *Session {
	now := func() time.Time { return time.Now().UTC() }
	t := now()
	s := &Session{
		id:           nextID(),
		origin:       origin,
		createdAt:    t,
		lastActivity: t,
		registry:     registry,
		now:          now,
	}
	s.publish()
	return s
}

func (s *Session) ID() int64      { return s.id }
func (s *Session) Origin() string { return s.origin }

// Authenticate binds a fully populated principal. A partial principal is
// rejected and leaves the session unchanged.
func (s *Session) Authenticate(p *auth.Principal) error {
	if err := p.Validate(); err != nil {
		return err
	}
	cp := *p
	s.principal = &cp
	s.lastActivity = s.now()
	s.publish()
	return nil
}

func (s *Session) Clear() {
	s.principal = nil
	s.publish()
}

func (s *Session) IsAuthenticated() bool { return s.principal != nil }

func (s *Session) HasRole(roles ...auth.Role) bool {
	if s.principal == nil {
		return false
	}
	for _, r := range roles {
		if s.principal.Role == r {
			return true
		}
	}
	return false
}

func (s *Session) Allows(t auth.Tier) bool {
	return t.Satisfies(s.principal)
}

// Principal returns a copy of the bound principal, or nil.
func (s *Session) Principal() *auth.Principal {
	if s.principal == nil {
		return nil
	}
	cp := *s.principal
	return &cp
}

func (s *Session) Touch() {
	s.lastActivity = s.now()
	s.publish()
}

func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		ID:             s.id,
		Origin:         s.origin,
		Principal:      s.Principal(),
		CreatedAt:      s.createdAt,
		LastActivityAt: s.lastActivity,
	}
}

func (s *Session) publish() {
	if s.registry != nil {
		s.registry.Update(s.Snapshot())
	}
}
