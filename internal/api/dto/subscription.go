package dto

import (
	"context"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/subtrack/subtrack/internal/domain/subscription"
	ierr "github.com/subtrack/subtrack/internal/errors"
	"github.com/subtrack/subtrack/internal/types"
	"github.com/subtrack/subtrack/internal/validator"
)

type CreateSubscriptionRequest struct {
	Name          string                      `json:"name" validate:"required,min=2,max=100"`
	Price         decimal.Decimal             `json:"price"`
	Currency      types.Currency              `json:"currency,omitempty"`
	Frequency     types.SubscriptionFrequency `json:"frequency" validate:"required"`
	Category      types.SubscriptionCategory  `json:"category" validate:"required"`
	PaymentMethod string                      `json:"payment_method" validate:"required"`
	StartDate     *time.Time                  `json:"start_date,omitempty"`
	RenewalDate   *time.Time                  `json:"renewal_date,omitempty"`
}

func (r *CreateSubscriptionRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}

	if r.Price.IsNegative() {
		return ierr.NewError("price must not be negative").
			WithHint("Price must be zero or more").
			WithReportableDetails(map[string]interface{}{
				"price": r.Price.String(),
			}).
			Mark(ierr.ErrValidation)
	}
	if r.Currency != "" {
		if err := r.Currency.Validate(); err != nil {
			return err
		}
	}
	if err := r.Frequency.Validate(); err != nil {
		return err
	}
	return r.Category.Validate()
}

// ToSubscription builds the record owned by the user in ctx. Defaults and the derived
// renewal date are filled in; the record invariants are checked against now.
func (r *CreateSubscriptionRequest) ToSubscription(ctx context.Context, now time.Time) (*subscription.Subscription, error) {
	sub := &subscription.Subscription{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
		UserID:        types.GetUserID(ctx),
		Name:          r.Name,
		Price:         r.Price,
		Currency:      r.Currency,
		Frequency:     r.Frequency,
		Category:      r.Category,
		PaymentMethod: r.PaymentMethod,
		Status:        types.SubscriptionStatusActive,
		StartDate:     lo.FromPtr(r.StartDate),
		RenewalDate:   lo.FromPtr(r.RenewalDate),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	sub.Normalize(now)
	if sub.RenewalDate.IsZero() {
		sub.RenewalDate = subscription.ComputeRenewalDate(sub.StartDate, sub.Frequency)
	}
	if err := sub.Validate(now); err != nil {
		return nil, err
	}
	return sub, nil
}

type SubscriptionResponse struct {
	*subscription.Subscription
}

func NewSubscriptionResponse(sub *subscription.Subscription) *SubscriptionResponse {
	if sub == nil {
		return nil
	}
	return &SubscriptionResponse{Subscription: sub}
}

type CreateSubscriptionResponse struct {
	Subscription  *SubscriptionResponse `json:"subscription"`
	WorkflowID    string                `json:"workflow_id,omitempty"`
	WorkflowRunID string                `json:"workflow_run_id,omitempty"`
	Warning       string                `json:"warning,omitempty"`
}

// ListSubscriptionsResponse represents the response for listing subscriptions
type ListSubscriptionsResponse = types.ListResponse[*SubscriptionResponse]

type ListSubscriptionsRequest struct {
	types.QueryFilter
	Status []types.SubscriptionStatus `form:"status"`
}

// ToFilter scopes the request to one user
func (r *ListSubscriptionsRequest) ToFilter(userID string) *types.SubscriptionFilter {
	filter := types.NewSubscriptionFilter()
	if r.Limit != nil {
		filter.Limit = r.Limit
	}
	if r.Offset != nil {
		filter.Offset = r.Offset
	}
	if r.Sort != nil {
		filter.Sort = r.Sort
	}
	if r.Order != nil {
		filter.Order = r.Order
	}
	filter.UserID = userID
	filter.SubscriptionStatus = r.Status
	return filter
}

type ExportSubscriptionsRequest struct {
	Status []types.SubscriptionStatus `form:"status"`
}

// SubscriptionCSV is one row of a subscription export
type SubscriptionCSV struct {
	ID            string `csv:"id"`
	Name          string `csv:"name"`
	Price         string `csv:"price"`
	Currency      string `csv:"currency"`
	Frequency     string `csv:"frequency"`
	Category      string `csv:"category"`
	PaymentMethod string `csv:"payment_method"`
	Status        string `csv:"status"`
	StartDate     string `csv:"start_date"`
	RenewalDate   string `csv:"renewal_date"`
}

func NewSubscriptionCSV(sub *subscription.Subscription) *SubscriptionCSV {
	return &SubscriptionCSV{
		ID:            sub.ID,
		Name:          sub.Name,
		Price:         sub.Price.StringFixed(2),
		Currency:      sub.Currency.String(),
		Frequency:     sub.Frequency.String(),
		Category:      sub.Category.String(),
		PaymentMethod: sub.PaymentMethod,
		Status:        sub.Status.String(),
		StartDate:     sub.StartDate.UTC().Format(time.DateOnly),
		RenewalDate:   sub.RenewalDate.UTC().Format(time.DateOnly),
	}
}
