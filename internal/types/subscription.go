package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	ierr "github.com/subtrack/subtrack/internal/errors"
)

// SubscriptionStatus is the lifecycle status of a tracked subscription
type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
)

func (s SubscriptionStatus) String() string {
	return string(s)
}

func (s SubscriptionStatus) Validate() error {
	allowed := []SubscriptionStatus{
		SubscriptionStatusActive,
		SubscriptionStatusCancelled,
		SubscriptionStatusExpired,
	}
	if lo.Contains(allowed, s) {
		return nil
	}
	return ierr.NewError("invalid subscription status").
		WithHintf("Subscription status must be one of: %s", joinEnum(allowed)).
		WithReportableDetails(map[string]interface{}{
			"status": s,
		}).
		Mark(ierr.ErrValidation)
}

// SubscriptionFrequency is the billing period of a subscription
type SubscriptionFrequency string

const (
	SubscriptionFrequencyDaily   SubscriptionFrequency = "daily"
	SubscriptionFrequencyWeekly  SubscriptionFrequency = "weekly"
	SubscriptionFrequencyMonthly SubscriptionFrequency = "monthly"
	SubscriptionFrequencyYearly  SubscriptionFrequency = "yearly"
)

func (f SubscriptionFrequency) String() string {
	return string(f)
}

func (f SubscriptionFrequency) Validate() error {
	allowed := []SubscriptionFrequency{
		SubscriptionFrequencyDaily,
		SubscriptionFrequencyWeekly,
		SubscriptionFrequencyMonthly,
		SubscriptionFrequencyYearly,
	}
	if lo.Contains(allowed, f) {
		return nil
	}
	return ierr.NewError("invalid subscription frequency").
		WithHintf("Frequency must be one of: %s", joinEnum(allowed)).
		WithReportableDetails(map[string]interface{}{
			"frequency": f,
		}).
		Mark(ierr.ErrValidation)
}

// AddPeriod advances t by exactly one billing period. Months and years are calendar
// periods clamped to the end of the target month: Jan 31 + 1 month is Feb 28 (29 in leap
// years) and Feb 29 + 1 year is Feb 28.
func (f SubscriptionFrequency) AddPeriod(t time.Time) time.Time {
	switch f {
	case SubscriptionFrequencyDaily:
		return t.AddDate(0, 0, 1)
	case SubscriptionFrequencyWeekly:
		return t.AddDate(0, 0, 7)
	case SubscriptionFrequencyMonthly:
		return addMonthsClamped(t, 1)
	case SubscriptionFrequencyYearly:
		return addMonthsClamped(t, 12)
	default:
		return t
	}
}

func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	hour, minute, sec := t.Clock()

	// day 0 of the month after the target is the target's last day
	lastDay := time.Date(year, month+time.Month(months)+1, 0, 0, 0, 0, 0, t.Location()).Day()
	return time.Date(year, month+time.Month(months), min(day, lastDay), hour, minute, sec, t.Nanosecond(), t.Location())
}

// Currency is the currency a subscription is billed in
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyINR Currency = "INR"

	DefaultCurrency = CurrencyINR
)

func (c Currency) String() string {
	return string(c)
}

func (c Currency) Validate() error {
	allowed := []Currency{CurrencyUSD, CurrencyEUR, CurrencyINR}
	if lo.Contains(allowed, c) {
		return nil
	}
	return ierr.NewError("invalid currency").
		WithHintf("Currency must be one of: %s", joinEnum(allowed)).
		WithReportableDetails(map[string]interface{}{
			"currency": c,
		}).
		Mark(ierr.ErrValidation)
}

// SubscriptionCategory groups subscriptions for analytics
type SubscriptionCategory string

const (
	SubscriptionCategorySports        SubscriptionCategory = "sports"
	SubscriptionCategoryNews          SubscriptionCategory = "news"
	SubscriptionCategoryEntertainment SubscriptionCategory = "entertainment"
	SubscriptionCategoryLifestyle     SubscriptionCategory = "lifestyle"
	SubscriptionCategoryTechnology    SubscriptionCategory = "technology"
	SubscriptionCategoryFinance       SubscriptionCategory = "finance"
	SubscriptionCategoryPolitics      SubscriptionCategory = "politics"
	SubscriptionCategoryOthers        SubscriptionCategory = "others"
)

func (c SubscriptionCategory) String() string {
	return string(c)
}

func (c SubscriptionCategory) Validate() error {
	allowed := []SubscriptionCategory{
		SubscriptionCategorySports,
		SubscriptionCategoryNews,
		SubscriptionCategoryEntertainment,
		SubscriptionCategoryLifestyle,
		SubscriptionCategoryTechnology,
		SubscriptionCategoryFinance,
		SubscriptionCategoryPolitics,
		SubscriptionCategoryOthers,
	}
	if lo.Contains(allowed, c) {
		return nil
	}
	return ierr.NewError("invalid subscription category").
		WithHintf("Category must be one of: %s", joinEnum(allowed)).
		WithReportableDetails(map[string]interface{}{
			"category": c,
		}).
		Mark(ierr.ErrValidation)
}

func joinEnum[T ~string](values []T) string {
	return strings.Join(lo.Map(values, func(v T, _ int) string { return string(v) }), ", ")
}

// SubscriptionFilter narrows subscription queries
type SubscriptionFilter struct {
	*QueryFilter

	UserID             string               `json:"user_id,omitempty" form:"user_id"`
	SubscriptionIDs    []string             `json:"subscription_ids,omitempty" form:"subscription_ids"`
	SubscriptionStatus []SubscriptionStatus `json:"subscription_status,omitempty" form:"subscription_status"`
	RenewalDateBefore  *time.Time           `json:"renewal_date_before,omitempty" form:"renewal_date_before"`
}

// NewSubscriptionFilter creates a subscription filter with default pagination
func NewSubscriptionFilter() *SubscriptionFilter {
	return &SubscriptionFilter{
		QueryFilter: NewDefaultQueryFilter(),
	}
}

// NewNoLimitSubscriptionFilter creates a subscription filter without pagination
func NewNoLimitSubscriptionFilter() *SubscriptionFilter {
	return &SubscriptionFilter{
		QueryFilter: NewNoLimitQueryFilter(),
	}
}

func (f *SubscriptionFilter) Validate() error {
	if f == nil {
		return nil
	}
	if f.QueryFilter != nil {
		if err := f.QueryFilter.Validate(); err != nil {
			return err
		}
	}
	for _, status := range f.SubscriptionStatus {
		if err := status.Validate(); err != nil {
			return err
		}
	}
	for _, id := range f.SubscriptionIDs {
		if id == "" {
			return ierr.NewError("subscription id cannot be empty").
				WithHint("Subscription IDs in the filter cannot be empty").
				Mark(ierr.ErrValidation)
		}
	}
	return nil
}

func (f *SubscriptionFilter) GetLimit() int {
	if f.QueryFilter == nil {
		return NewDefaultQueryFilter().GetLimit()
	}
	return f.QueryFilter.GetLimit()
}

func (f *SubscriptionFilter) GetOffset() int {
	if f.QueryFilter == nil {
		return NewDefaultQueryFilter().GetOffset()
	}
	return f.QueryFilter.GetOffset()
}

func (f *SubscriptionFilter) IsUnlimited() bool {
	if f.QueryFilter == nil {
		return false
	}
	return f.QueryFilter.IsUnlimited()
}

func (f *SubscriptionFilter) String() string {
	return fmt.Sprintf("user=%s statuses=%v limit=%d offset=%d", f.UserID, f.SubscriptionStatus, f.GetLimit(), f.GetOffset())
}
