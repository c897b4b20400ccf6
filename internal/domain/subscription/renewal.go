package subscription

import (
	"time"

	"github.com/subtrack/subtrack/internal/types"
)

// ComputeRenewalDate returns start advanced by one billing period of f
func ComputeRenewalDate(start time.Time, f types.SubscriptionFrequency) time.Time {
	return f.AddPeriod(start)
}

// IsExpired reports whether an active subscription has passed its renewal date.
// Cancelled and already expired subscriptions are never considered expired again.
func IsExpired(renewal time.Time, status types.SubscriptionStatus, now time.Time) bool {
	return status == types.SubscriptionStatusActive && renewal.Before(now)
}

// ApplyLifecycle fills a missing renewal date and flips an overdue active subscription
// to expired. It returns true when the record changed. Applying it twice is a no-op.
func (s *Subscription) ApplyLifecycle(now time.Time) bool {
	changed := false

	if s.RenewalDate.IsZero() && !s.StartDate.IsZero() {
		s.RenewalDate = ComputeRenewalDate(s.StartDate, s.Frequency)
		changed = true
	}

	if IsExpired(s.RenewalDate, s.Status, now) {
		s.Status = types.SubscriptionStatusExpired
		changed = true
	}

	return changed
}
