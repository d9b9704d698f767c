package session

import (
	"sync"
	"testing"

	"stock-service/internal/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionLifecycle(t *testing.T) {
	reg := NewRegistry()
	s := New("10.0.0.1:5000", reg)

	assert.False(t, s.IsAuthenticated())
	assert.False(t, s.Allows(auth.TierAuthenticated))
	assert.True(t, s.Allows(auth.TierNone))

	snap, ok := reg.Get(s.ID())
	require.True(t, ok)
	assert.Nil(t, snap.Principal)

	require.NoError(t, s.Authenticate(&auth.Principal{UserID: 7, Username: "bob", Role: auth.RoleStockManager}))
	assert.True(t, s.HasRole(auth.RoleAdmin, auth.RoleStockManager))
	assert.False(t, s.HasRole(auth.RoleCashier))
	assert.True(t, s.Allows(auth.TierManager))
	assert.False(t, s.Allows(auth.TierAdmin))

	snap, _ = reg.Get(s.ID())
	require.NotNil(t, snap.Principal)
	assert.Equal(t, "bob", snap.Principal.Username)

	s.Clear()
	assert.False(t, s.IsAuthenticated())
	snap, _ = reg.Get(s.ID())
	assert.Nil(t, snap.Principal)
}

func TestAuthenticateRejectsPartialPrincipal(t *testing.T) {
	s := New("origin", nil)
	assert.Error(t, s.Authenticate(&auth.Principal{UserID: 1, Role: auth.RoleAdmin}))
	assert.Error(t, s.Authenticate(nil))
	assert.False(t, s.IsAuthenticated())
}

func TestPrincipalIsCopied(t *testing.T) {
	s := New("origin", nil)
	p := &auth.Principal{UserID: 1, Username: "eve", Role: auth.RoleCashier}
	require.NoError(t, s.Authenticate(p))

	p.Role = auth.RoleAdmin
	assert.False(t, s.Allows(auth.TierAdmin))

	got := s.Principal()
	got.Role = auth.RoleAdmin
	assert.False(t, s.Allows(auth.TierAdmin))
}

func TestSessionsAreIsolated(t *testing.T) {
	a := New("a", nil)
	b := New("b", nil)
	assert.NotEqual(t, a.ID(), b.ID())

	require.NoError(t, a.Authenticate(&auth.Principal{UserID: 1, Username: "admin", Role: auth.RoleAdmin}))
	assert.False(t, b.IsAuthenticated())
}

func TestRegistryConcurrentAccess(t *testing.T) {
	reg := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := New("x", reg)
			s.Touch()
			_ = reg.List()
			if s.ID()%2 == 0 {
				reg.Remove(s.ID())
			}
		}()
	}
	wg.Wait()

	list := reg.List()
	assert.Equal(t, reg.Count(), len(list))
	for i := 1; i < len(list); i++ {
		assert.Less(t, list[i-1].ID, list[i].ID)
	}
}
