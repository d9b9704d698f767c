package credentials_test

import (
	"context"
	"testing"

	"stock-service/internal/auth"
	"stock-service/internal/auth/credentials"
	"stock-service/internal/domain"
	"stock-service/internal/store/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc := credentials.NewService(storetest.New(t))

	u, err := svc.Register(ctx, "  manager  ", "secret1", auth.RoleStockManager)
	require.NoError(t, err)
	assert.Equal(t, "manager", u.Username)
	assert.NotEqual(t, "secret1", u.PasswordHash)

	got, err := svc.Authenticate(ctx, "manager", "secret1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = svc.Authenticate(ctx, "manager", "wrong-pass")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody", "secret1")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	svc := credentials.NewService(storetest.New(t))

	_, err := svc.Register(ctx, "ab", "secret1", auth.RoleCashier)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Register(ctx, "cashier", "123", auth.RoleCashier)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Register(ctx, "cashier", "secret1", auth.Role("Owner"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Register(ctx, "cashier", "secret1", auth.RoleCashier)
	require.NoError(t, err)
	_, err = svc.Register(ctx, "cashier", "secret2", auth.RoleCashier)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	svc := credentials.NewService(storetest.New(t))

	u, err := svc.Register(ctx, "admin", "first-pass", auth.RoleAdmin)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.ChangePassword(ctx, u.ID, "bad-old", "second-pass"), domain.ErrInvalidCredentials)
	assert.ErrorIs(t, svc.ChangePassword(ctx, u.ID, "first-pass", "first-pass"), domain.ErrInvalidInput)
	require.NoError(t, svc.ChangePassword(ctx, u.ID, "first-pass", "second-pass"))

	_, err = svc.Authenticate(ctx, "admin", "first-pass")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, "admin", "second-pass")
	assert.NoError(t, err)
}
