package service

import (
	"context"
	"time"

	"github.com/subtrack/subtrack/internal/api/dto"
	ierr "github.com/subtrack/subtrack/internal/errors"
)

type AuthService interface {
	SignUp(ctx context.Context, req *dto.SignupRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
}

type authService struct {
	ServiceParams
	now func() time.Time
}

func NewAuthService(params ServiceParams) AuthService {
	return &authService{
		ServiceParams: params,
		now:           time.Now,
	}
}

func (s *authService) SignUp(ctx context.Context, req *dto.SignupRequest) (*dto.AuthResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.UserRepo.GetByEmail(ctx, req.Email)
	if err != nil && !ierr.IsNotFound(err) {
		return nil, err
	}
	if existing != nil {
		return nil, ierr.NewError("user already exists").
			WithHint("An account with this email already exists").
			WithReportableDetails(map[string]interface{}{
				"email": req.Email,
			}).
			Mark(ierr.ErrAlreadyExists)
	}

	hash, err := s.AuthProvider.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	u := req.ToUser()
	u.PasswordHash = hash
	u.CreatedAt = now
	u.UpdatedAt = now
	if err := u.Validate(); err != nil {
		return nil, err
	}

	if err := s.UserRepo.Create(ctx, u); err != nil {
		return nil, err
	}

	s.Logger.WithContext(ctx).Infow("user signed up", "user_id", u.ID)
	return s.issueToken(u.ID, dto.NewUserResponse(u))
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	u, err := s.UserRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, ierr.NewError("invalid credentials").
				WithHint("Invalid email or password").
				Mark(ierr.ErrUnauthorized)
		}
		return nil, err
	}

	if err := s.AuthProvider.ComparePassword(u.PasswordHash, req.Password); err != nil {
		return nil, err
	}

	return s.issueToken(u.ID, dto.NewUserResponse(u))
}

func (s *authService) issueToken(userID string, u *dto.UserResponse) (*dto.AuthResponse, error) {
	token, expiresAt, err := s.AuthProvider.GenerateToken(userID)
	if err != nil {
		return nil, err
	}
	return &dto.AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      u,
	}, nil
}
