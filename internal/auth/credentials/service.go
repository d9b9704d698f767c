package credentials

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"stock-service/internal/auth"
	"stock-service/internal/domain"
)

// dummyHash is compared against when the user does not exist so a miss costs
// the same as a wrong password.
var dummyHash, _ = HashPassword("not-a-real-password")

type Service struct {
	users UserStore
}

func NewService(users UserStore) *Service {
	return &Service{users: users}
}

// Authenticate returns the active user for the credentials, or
// domain.ErrInvalidCredentials without saying which part failed.
func (s *Service) Authenticate(
	ctx context.Context,
	username string,
	password string,
) (domain.User, error) {

	// 1. Find the active user
	user, err := s.users.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			_ = VerifyPassword(dummyHash, password)
			return domain.User{}, domain.ErrInvalidCredentials
		}
		return domain.User{}, err
	}

	// 2. Verify password
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return domain.User{}, domain.ErrInvalidCredentials
	}

	return user, nil
}

func (s *Service) Register(
	ctx context.Context,
	username string,
	password string,
	role auth.Role,
) (domain.User, error) {

	username = strings.TrimSpace(username)
	if len(username) < MinUsernameLength || len(username) > MaxUsernameLength {
		return domain.User{}, domain.Invalid("username must be %d-%d characters", MinUsernameLength, MaxUsernameLength)
	}
	if !role.Valid() {
		return domain.User{}, domain.Invalid("unknown role %q", role)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return domain.User{}, err
	}

	user, err := s.users.CreateUser(ctx, domain.User{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
	})
	if errors.Is(err, domain.ErrConflict) {
		return domain.User{}, fmt.Errorf("username %q already exists: %w", username, domain.ErrConflict)
	}
	return user, err
}

func (s *Service) ChangePassword(
	ctx context.Context,
	userID int64,
	oldPassword string,
	newPassword string,
) error {

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := VerifyPassword(user.PasswordHash, oldPassword); err != nil {
		return domain.ErrInvalidCredentials
	}
	if oldPassword == newPassword {
		return domain.Invalid("new password must differ from the old one")
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.users.UpdatePasswordHash(ctx, userID, hash)
}
