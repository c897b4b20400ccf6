package user

import (
	"net/mail"
	"strings"
	"time"

	ierr "github.com/subtrack/subtrack/internal/errors"
)

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NormalizeEmail lowercases and trims an email address so lookups are case insensitive
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (u *User) Validate() error {
	u.Name = strings.TrimSpace(u.Name)
	u.Email = NormalizeEmail(u.Email)

	if u.Name == "" {
		return ierr.NewError("name is required").
			WithHint("Name is required").
			Mark(ierr.ErrValidation)
	}
	if _, err := mail.ParseAddress(u.Email); err != nil || u.Email == "" {
		return ierr.NewError("invalid email").
			WithHint("Please provide a valid email address").
			WithReportableDetails(map[string]interface{}{
				"email": u.Email,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
