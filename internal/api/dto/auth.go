package dto

import (
	"time"

	"github.com/subtrack/subtrack/internal/domain/user"
	"github.com/subtrack/subtrack/internal/types"
	"github.com/subtrack/subtrack/internal/validator"
)

const MinPasswordLength = 6

type SignupRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

func (r *SignupRequest) Validate() error {
	r.Email = user.NormalizeEmail(r.Email)
	return validator.ValidateRequest(r)
}

// ToUser builds the user record; the caller sets the password hash
func (r *SignupRequest) ToUser() *user.User {
	return &user.User{
		ID:    types.GenerateUUIDWithPrefix(types.UUID_PREFIX_USER),
		Name:  r.Name,
		Email: r.Email,
	}
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) Validate() error {
	r.Email = user.NormalizeEmail(r.Email)
	return validator.ValidateRequest(r)
}

type AuthResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	User      *UserResponse `json:"user"`
}
