package credentials

import (
	"context"

	"stock-service/internal/domain"
)

// UserStore is the slice of persistence the credential service needs.
type UserStore interface {
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)
	GetUser(ctx context.Context, id int64) (domain.User, error)
	CreateUser(ctx context.Context, u domain.User) (domain.User, error)
	UpdatePasswordHash(ctx context.Context, id int64, hash string) error
}

const (
	MinUsernameLength = 3
	MaxUsernameLength = 50
)
