package auth

import (
	"context"
	"time"
)

// Claims are the identity facts carried by an access token
type Claims struct {
	UserID    string
	ExpiresAt time.Time
}

// Provider issues and verifies credentials for users
type Provider interface {
	HashPassword(password string) (string, error)
	ComparePassword(hash, password string) error
	GenerateToken(userID string) (token string, expiresAt time.Time, err error)
	ValidateToken(ctx context.Context, token string) (*Claims, error)
}
