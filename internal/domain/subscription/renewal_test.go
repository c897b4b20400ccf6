package subscription

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ierr "github.com/subtrack/subtrack/internal/errors"
	"github.com/subtrack/subtrack/internal/types"
)

func TestComputeRenewalDate(t *testing.T) {
	start := time.Date(2025, time.January, 15, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name      string
		frequency types.SubscriptionFrequency
		want      time.Time
	}{
		{"daily", types.SubscriptionFrequencyDaily, time.Date(2025, time.January, 16, 10, 30, 0, 0, time.UTC)},
		{"weekly", types.SubscriptionFrequencyWeekly, time.Date(2025, time.January, 22, 10, 30, 0, 0, time.UTC)},
		{"monthly", types.SubscriptionFrequencyMonthly, time.Date(2025, time.February, 15, 10, 30, 0, 0, time.UTC)},
		{"yearly", types.SubscriptionFrequencyYearly, time.Date(2026, time.January, 15, 10, 30, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeRenewalDate(start, tt.frequency))
		})
	}
}

func TestComputeRenewalDate_ClampsToMonthEnd(t *testing.T) {
	tests := []struct {
		name      string
		start     time.Time
		frequency types.SubscriptionFrequency
		want      time.Time
	}{
		{"jan 31 monthly", time.Date(2025, time.January, 31, 9, 0, 0, 0, time.UTC), types.SubscriptionFrequencyMonthly, time.Date(2025, time.February, 28, 9, 0, 0, 0, time.UTC)},
		{"jan 31 monthly leap year", time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC), types.SubscriptionFrequencyMonthly, time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC)},
		{"mar 31 monthly", time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC), types.SubscriptionFrequencyMonthly, time.Date(2025, time.April, 30, 0, 0, 0, 0, time.UTC)},
		{"dec 31 monthly", time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC), types.SubscriptionFrequencyMonthly, time.Date(2026, time.January, 31, 0, 0, 0, 0, time.UTC)},
		{"feb 29 yearly", time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC), types.SubscriptionFrequencyYearly, time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC)},
		{"feb 28 yearly", time.Date(2023, time.February, 28, 0, 0, 0, 0, time.UTC), types.SubscriptionFrequencyYearly, time.Date(2024, time.February, 28, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeRenewalDate(tt.start, tt.frequency))
		})
	}
}

func TestIsExpired(t *testing.T) {
	now := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	assert.True(t, IsExpired(past, types.SubscriptionStatusActive, now))
	assert.False(t, IsExpired(future, types.SubscriptionStatusActive, now))
	assert.False(t, IsExpired(now, types.SubscriptionStatusActive, now))
	assert.False(t, IsExpired(past, types.SubscriptionStatusCancelled, now))
	assert.False(t, IsExpired(past, types.SubscriptionStatusExpired, now))
}

func TestApplyLifecycle(t *testing.T) {
	now := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

	t.Run("derives renewal date", func(t *testing.T) {
		s := &Subscription{
			Frequency: types.SubscriptionFrequencyMonthly,
			Status:    types.SubscriptionStatusActive,
			StartDate: now.AddDate(0, 0, -3),
		}
		assert.True(t, s.ApplyLifecycle(now))
		assert.Equal(t, time.Date(2025, time.June, 29, 0, 0, 0, 0, time.UTC), s.RenewalDate)
		assert.Equal(t, types.SubscriptionStatusActive, s.Status)
	})

	t.Run("expires overdue active subscription once", func(t *testing.T) {
		s := &Subscription{
			Frequency:   types.SubscriptionFrequencyMonthly,
			Status:      types.SubscriptionStatusActive,
			StartDate:   now.AddDate(0, -2, 0),
			RenewalDate: now.AddDate(0, -1, 0),
		}
		assert.True(t, s.ApplyLifecycle(now))
		assert.Equal(t, types.SubscriptionStatusExpired, s.Status)

		assert.False(t, s.ApplyLifecycle(now))
		assert.Equal(t, types.SubscriptionStatusExpired, s.Status)
	})

	t.Run("cancelled stays cancelled", func(t *testing.T) {
		s := &Subscription{
			Frequency:   types.SubscriptionFrequencyMonthly,
			Status:      types.SubscriptionStatusCancelled,
			StartDate:   now.AddDate(0, -2, 0),
			RenewalDate: now.AddDate(0, -1, 0),
		}
		assert.False(t, s.ApplyLifecycle(now))
		assert.Equal(t, types.SubscriptionStatusCancelled, s.Status)
	})
}

func validSubscription(now time.Time) *Subscription {
	return &Subscription{
		UserID:        "user_1",
		Name:          "Netflix",
		Price:         decimal.NewFromFloat(15.99),
		Currency:      types.CurrencyUSD,
		Frequency:     types.SubscriptionFrequencyMonthly,
		Category:      types.SubscriptionCategoryEntertainment,
		PaymentMethod: "Credit Card",
		Status:        types.SubscriptionStatusActive,
		StartDate:     now.AddDate(0, 0, -1),
	}
}

func TestValidate(t *testing.T) {
	now := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, validSubscription(now).Validate(now))

	tests := []struct {
		name   string
		mutate func(s *Subscription)
	}{
		{"missing user", func(s *Subscription) { s.UserID = "" }},
		{"short name", func(s *Subscription) { s.Name = "N" }},
		{"negative price", func(s *Subscription) { s.Price = decimal.NewFromInt(-1) }},
		{"bad currency", func(s *Subscription) { s.Currency = "GBP" }},
		{"bad frequency", func(s *Subscription) { s.Frequency = "hourly" }},
		{"bad category", func(s *Subscription) { s.Category = "games" }},
		{"missing payment method", func(s *Subscription) { s.PaymentMethod = "" }},
		{"future start", func(s *Subscription) { s.StartDate = now.Add(time.Hour) }},
		{"renewal before start", func(s *Subscription) { s.RenewalDate = s.StartDate.Add(-time.Hour) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSubscription(now)
			tt.mutate(s)
			err := s.Validate(now)
			require.Error(t, err)
			assert.True(t, ierr.IsValidation(err))
		})
	}
}

func TestNormalize(t *testing.T) {
	now := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	s := &Subscription{Name: "  Spotify  ", PaymentMethod: " UPI "}
	s.Normalize(now)

	assert.Equal(t, "Spotify", s.Name)
	assert.Equal(t, "UPI", s.PaymentMethod)
	assert.Equal(t, types.CurrencyINR, s.Currency)
	assert.Equal(t, types.SubscriptionStatusActive, s.Status)
	assert.Equal(t, now, s.StartDate)
}
