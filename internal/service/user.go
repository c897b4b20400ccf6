package service

import (
	"context"
	"time"

	"github.com/subtrack/subtrack/internal/api/dto"
	ierr "github.com/subtrack/subtrack/internal/errors"
	"github.com/subtrack/subtrack/internal/types"
)

type UserService interface {
	GetUserInfo(ctx context.Context) (*dto.UserResponse, error)
	UpdateUser(ctx context.Context, req *dto.UpdateUserRequest) (*dto.UserResponse, error)
}

type userService struct {
	ServiceParams
	now func() time.Time
}

func NewUserService(params ServiceParams) UserService {
	return &userService{
		ServiceParams: params,
		now:           time.Now,
	}
}

func (s *userService) GetUserInfo(ctx context.Context) (*dto.UserResponse, error) {
	userID := types.GetUserID(ctx)
	if userID == "" {
		return nil, ierr.NewError("user_id is required").
			WithHint("User ID must be present in context").
			Mark(ierr.ErrUnauthorized)
	}

	u, err := s.UserRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return dto.NewUserResponse(u), nil
}

func (s *userService) UpdateUser(ctx context.Context, req *dto.UpdateUserRequest) (*dto.UserResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	userID := types.GetUserID(ctx)
	u, err := s.UserRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Email != nil && *req.Email != u.Email {
		existing, err := s.UserRepo.GetByEmail(ctx, *req.Email)
		if err != nil && !ierr.IsNotFound(err) {
			return nil, err
		}
		if existing != nil && existing.ID != u.ID {
			return nil, ierr.NewError("email already in use").
				WithHint("An account with this email already exists").
				Mark(ierr.ErrAlreadyExists)
		}
		u.Email = *req.Email
	}
	if req.Name != nil {
		u.Name = *req.Name
	}

	if err := u.Validate(); err != nil {
		return nil, err
	}
	u.UpdatedAt = s.now().UTC()

	if err := s.UserRepo.Update(ctx, u); err != nil {
		return nil, err
	}
	return dto.NewUserResponse(u), nil
}
