package store

import (
	"context"
	"errors"

	"stock-service/internal/domain"

	"gorm.io/gorm"
)

// GetUserByUsername returns the active user with that exact username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	var rec userModel
	err := s.db.WithContext(ctx).Where("username = ? AND active = ?", username, true).Take(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, wrap("get user by username", err)
	}
	return toDomainUser(rec), nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (domain.User, error) {
	var rec userModel
	err := s.db.WithContext(ctx).Where("user_id = ? AND active = ?", id, true).Take(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, &domain.NotFoundError{Entity: "user", ID: id}
		}
		return domain.User{}, wrap("get user", err)
	}
	return toDomainUser(rec), nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	var recs []userModel
	if err := s.db.WithContext(ctx).Order("user_id").Find(&recs).Error; err != nil {
		return nil, wrap("list users", err)
	}
	out := make([]domain.User, 0, len(recs))
	for _, r := range recs {
		out = append(out, toDomainUser(r))
	}
	return out, nil
}

func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&userModel{}).Count(&n).Error; err != nil {
		return 0, wrap("count users", err)
	}
	return n, nil
}

// CreateUser fails with domain.ErrConflict when the username is taken,
// including by a deactivated account.
func (s *Store) CreateUser(ctx context.Context, u domain.User) (domain.User, error) {
	rec := userModel{
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		Active:       true,
		CreatedAt:    now(),
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return domain.User{}, wrap("create user", err)
	}
	return toDomainUser(rec), nil
}

func (s *Store) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	res := s.db.WithContext(ctx).
		Model(&userModel{}).
		Where("user_id = ? AND active = ?", id, true).
		Update("password_hash", hash)
	if res.Error != nil {
		return wrap("update password", res.Error)
	}
	if res.RowsAffected == 0 {
		return &domain.NotFoundError{Entity: "user", ID: id}
	}
	return nil
}

func (s *Store) DeactivateUser(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).
		Model(&userModel{}).
		Where("user_id = ? AND active = ?", id, true).
		Update("active", false)
	if res.Error != nil {
		return wrap("deactivate user", res.Error)
	}
	if res.RowsAffected == 0 {
		return &domain.NotFoundError{Entity: "user", ID: id}
	}
	return nil
}
