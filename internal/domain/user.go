package domain

import (
	"time"

	"stock-service/internal/auth"
)

type User struct {
	ID           int64     `json:"user_id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         auth.Role `json:"role"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

func (u User) Principal() (*auth.Principal, error) {
	return auth.NewPrincipal(u.ID, u.Username, u.Role)
}
