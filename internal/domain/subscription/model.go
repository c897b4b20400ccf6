package subscription

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	ierr "github.com/subtrack/subtrack/internal/errors"
	"github.com/subtrack/subtrack/internal/types"
)

const (
	NameMinLength = 2
	NameMaxLength = 100
)

// Subscription is a recurring charge a user wants to keep track of
type Subscription struct {
	ID            string                      `json:"id"`
	UserID        string                      `json:"user_id"`
	Name          string                      `json:"name"`
	Price         decimal.Decimal             `json:"price"`
	Currency      types.Currency              `json:"currency"`
	Frequency     types.SubscriptionFrequency `json:"frequency"`
	Category      types.SubscriptionCategory  `json:"category"`
	PaymentMethod string                      `json:"payment_method"`
	Status        types.SubscriptionStatus    `json:"status"`
	StartDate     time.Time                   `json:"start_date"`
	RenewalDate   time.Time                   `json:"renewal_date"`
	CreatedAt     time.Time                   `json:"created_at"`
	UpdatedAt     time.Time                   `json:"updated_at"`
}

// IsActive reports whether the subscription is still being tracked
func (s *Subscription) IsActive() bool {
	return s.Status == types.SubscriptionStatusActive
}

// Normalize trims free text fields and fills defaults for a new record
func (s *Subscription) Normalize(now time.Time) {
	s.Name = strings.TrimSpace(s.Name)
	s.PaymentMethod = strings.TrimSpace(s.PaymentMethod)
	if s.Currency == "" {
		s.Currency = types.DefaultCurrency
	}
	if s.Status == "" {
		s.Status = types.SubscriptionStatusActive
	}
	if s.StartDate.IsZero() {
		s.StartDate = now
	}
}

// Validate checks the record invariants. now is used for the start date bound.
func (s *Subscription) Validate(now time.Time) error {
	if s.UserID == "" {
		return ierr.NewError("user_id is required").
			WithHint("Subscription must belong to a user").
			Mark(ierr.ErrValidation)
	}

	if l := len([]rune(s.Name)); l < NameMinLength || l > NameMaxLength {
		return ierr.NewError("invalid subscription name").
			WithHintf("Subscription name must be between %d and %d characters", NameMinLength, NameMaxLength).
			WithReportableDetails(map[string]interface{}{
				"name": s.Name,
			}).
			Mark(ierr.ErrValidation)
	}

	if s.Price.IsNegative() {
		return ierr.NewError("invalid price").
			WithHint("Price must be greater than or equal to 0").
			WithReportableDetails(map[string]interface{}{
				"price": s.Price.String(),
			}).
			Mark(ierr.ErrValidation)
	}

	if err := s.Currency.Validate(); err != nil {
		return err
	}
	if err := s.Frequency.Validate(); err != nil {
		return err
	}
	if err := s.Category.Validate(); err != nil {
		return err
	}
	if err := s.Status.Validate(); err != nil {
		return err
	}

	if s.PaymentMethod == "" {
		return ierr.NewError("payment method is required").
			WithHint("Payment method is required").
			Mark(ierr.ErrValidation)
	}

	if s.StartDate.After(now) {
		return ierr.NewError("start date in the future").
			WithHint("Start date must be in the past").
			WithReportableDetails(map[string]interface{}{
				"start_date": s.StartDate,
			}).
			Mark(ierr.ErrValidation)
	}

	if !s.RenewalDate.IsZero() && !s.RenewalDate.After(s.StartDate) {
		return ierr.NewError("renewal date must be after start date").
			WithHint("Renewal date must be after the start date").
			WithReportableDetails(map[string]interface{}{
				"start_date":   s.StartDate,
				"renewal_date": s.RenewalDate,
			}).
			Mark(ierr.ErrValidation)
	}

	return nil
}
