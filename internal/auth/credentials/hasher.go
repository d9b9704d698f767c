package credentials

import (
	"golang.org/x/crypto/bcrypt"

	"stock-service/internal/domain"
)

const (
	MinPasswordLength = 6
	// bcrypt ignores input past 72 bytes.
	MaxPasswordLength = 72
)

// HashPassword hashes a plaintext password using bcrypt.
func HashPassword(password string) (string, error) {
	if err := validatePassword(password); err != nil {
		return "", err
	}

	bytes, err := bcrypt.GenerateFromPassword(
		[]byte(password),
		bcrypt.DefaultCost,
	)
	if err != nil {
		return "", err
	}

	return string(bytes), nil
}

// VerifyPassword compares plaintext password with stored hash.
func VerifyPassword(hash string, password string) error {
	return bcrypt.CompareHashAndPassword(
		[]byte(hash),
		[]byte(password),
	)
}

func validatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return domain.Invalid("password must be at least %d characters", MinPasswordLength)
	}
	if len(password) > MaxPasswordLength {
		return domain.Invalid("password must be at most %d bytes", MaxPasswordLength)
	}
	return nil
}
