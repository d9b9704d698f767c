package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPrincipalRejectsPartial(t *testing.T) {
	_, err := NewPrincipal(0, "alice", RoleAdmin)
	assert.ErrorIs(t, err, ErrIncompletePrincipal)

	_, err = NewPrincipal(1, "", RoleAdmin)
	assert.ErrorIs(t, err, ErrIncompletePrincipal)

	_, err = NewPrincipal(1, "alice", Role("Janitor"))
	assert.ErrorIs(t, err, ErrIncompletePrincipal)

	p, err := NewPrincipal(1, "alice", RoleCashier)
	require.NoError(t, err)
	assert.Equal(t, RoleCashier, p.Role)
}

func TestParseRole(t *testing.T) {
	r, ok := ParseRole("stock manager")
	require.True(t, ok)
	assert.Equal(t, RoleStockManager, r)

	_, ok = ParseRole("root")
	assert.False(t, ok)
}

func TestTierSatisfies(t *testing.T) {
	admin := &Principal{UserID: 1, Username: "a", Role: RoleAdmin}
	manager := &Principal{UserID: 2, Username: "m", Role: RoleStockManager}
	cashier := &Principal{UserID: 3, Username: "c", Role: RoleCashier}

	cases := []struct {
		tier Tier
		p    *Principal
		want bool
	}{
		{TierNone, nil, true},
		{TierAuthenticated, nil, false},
		{TierAuthenticated, cashier, true},
		{TierManager, cashier, false},
		{TierManager, manager, true},
		{TierManager, admin, true},
		{TierAdmin, manager, false},
		{TierAdmin, admin, true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.tier.Satisfies(tc.p), "%s", tc.tier)
	}
}
