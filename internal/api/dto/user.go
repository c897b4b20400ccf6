package dto

import (
	"github.com/subtrack/subtrack/internal/domain/user"
	"github.com/subtrack/subtrack/internal/validator"
)

type UserResponse struct {
	*user.User
}

func NewUserResponse(u *user.User) *UserResponse {
	if u == nil {
		return nil
	}
	return &UserResponse{User: u}
}

type UpdateUserRequest struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Email *string `json:"email,omitempty" validate:"omitempty,email"`
}

func (r *UpdateUserRequest) Validate() error {
	if r.Email != nil {
		email := user.NormalizeEmail(*r.Email)
		r.Email = &email
	}
	return validator.ValidateRequest(r)
}
