package testutil

import (
	"context"

	"github.com/subtrack/subtrack/internal/domain/user"
	ierr "github.com/subtrack/subtrack/internal/errors"
)

// InMemoryUserStore implements user.Repository
type InMemoryUserStore struct {
	*InMemoryStore[*user.User]
}

func NewInMemoryUserStore() *InMemoryUserStore {
	return &InMemoryUserStore{
		InMemoryStore: NewInMemoryStore[*user.User](),
	}
}

func copyUser(u *user.User) *user.User {
	if u == nil {
		return nil
	}
	copied := *u
	return &copied
}

func (s *InMemoryUserStore) Create(ctx context.Context, u *user.User) error {
	if u == nil {
		return ierr.NewError("user cannot be nil").
			WithHint("User cannot be nil").
			Mark(ierr.ErrValidation)
	}

	if existing, _ := s.GetByEmail(ctx, u.Email); existing != nil {
		return ierr.NewError("user already exists").
			WithHint("A user with this email already exists").
			WithReportableDetails(map[string]interface{}{
				"email": u.Email,
			}).
			Mark(ierr.ErrAlreadyExists)
	}

	if err := s.InMemoryStore.Create(ctx, u.ID, copyUser(u)); err != nil {
		return ierr.WithError(err).
			WithHint("A user with this identifier already exists").
			Mark(ierr.ErrAlreadyExists)
	}
	return nil
}

func (s *InMemoryUserStore) GetByID(ctx context.Context, id string) (*user.User, error) {
	u, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.NewError("user not found").
			WithHintf("User %s not found", id).
			Mark(ierr.ErrNotFound)
	}
	return copyUser(u), nil
}

func (s *InMemoryUserStore) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	email = user.NormalizeEmail(email)
	users, _ := s.InMemoryStore.List(ctx, nil, func(_ context.Context, u *user.User, _ interface{}) bool {
		return u.Email == email
	}, nil)
	if len(users) == 0 {
		return nil, ierr.NewError("user not found").
			WithHint("User not found").
			Mark(ierr.ErrNotFound)
	}
	return copyUser(users[0]), nil
}

func (s *InMemoryUserStore) Update(ctx context.Context, u *user.User) error {
	if existing, _ := s.GetByEmail(ctx, u.Email); existing != nil && existing.ID != u.ID {
		return ierr.NewError("user already exists").
			WithHint("A user with this email already exists").
			Mark(ierr.ErrAlreadyExists)
	}

	if err := s.InMemoryStore.Update(ctx, u.ID, copyUser(u)); err != nil {
		return ierr.WithError(err).
			WithHintf("User %s not found", u.ID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}
