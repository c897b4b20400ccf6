package service

import (
	"bytes"
	"context"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/samber/lo"
	"github.com/subtrack/subtrack/internal/api/dto"
	"github.com/subtrack/subtrack/internal/domain/subscription"
	ierr "github.com/subtrack/subtrack/internal/errors"
	"github.com/subtrack/subtrack/internal/types"
)

// UpcomingRenewalWindow is how far ahead upcoming renewals are listed
const UpcomingRenewalWindow = 7 * 24 * time.Hour

const reminderTriggerWarning = "Subscription created but renewal reminders could not be scheduled"

type SubscriptionService interface {
	CreateSubscription(ctx context.Context, req dto.CreateSubscriptionRequest) (*dto.CreateSubscriptionResponse, error)
	GetSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error)
	ListSubscriptions(ctx context.Context, req *dto.ListSubscriptionsRequest) (*dto.ListSubscriptionsResponse, error)
	ListUserSubscriptions(ctx context.Context, userID string, req *dto.ListSubscriptionsRequest) (*dto.ListSubscriptionsResponse, error)
	ListUpcomingRenewals(ctx context.Context) (*dto.ListSubscriptionsResponse, error)
	CancelSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error)
	DeleteSubscription(ctx context.Context, id string) error
	TriggerReminders(ctx context.Context, id string) (*dto.WorkflowRunResponse, error)
	ExportSubscriptions(ctx context.Context, req *dto.ExportSubscriptionsRequest) ([]byte, int, error)
}

type subscriptionService struct {
	ServiceParams
	reminders ReminderService
	now       func() time.Time
}

func NewSubscriptionService(params ServiceParams, reminders ReminderService) SubscriptionService {
	return &subscriptionService{
		ServiceParams: params,
		reminders:     reminders,
		now:           time.Now,
	}
}

// CreateSubscription persists the subscription and then schedules its reminders. A failure
// to schedule never fails the request; it is reported as a warning next to the record.
func (s *subscriptionService) CreateSubscription(ctx context.Context, req dto.CreateSubscriptionRequest) (*dto.CreateSubscriptionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	sub, err := req.ToSubscription(ctx, s.now().UTC())
	if err != nil {
		return nil, err
	}

	if err := s.SubRepo.Create(ctx, sub); err != nil {
		return nil, err
	}

	log := s.Logger.WithContext(ctx)
	log.Infow("subscription created",
		"subscription_id", sub.ID,
		"renewal_date", sub.RenewalDate,
		"status", sub.Status)

	resp := &dto.CreateSubscriptionResponse{
		Subscription: dto.NewSubscriptionResponse(sub),
	}

	// Creation can land on an already expired record when the renewal date is in the past
	if !sub.IsActive() {
		return resp, nil
	}

	run, err := s.reminders.StartReminderWorkflow(ctx, sub.ID)
	if err != nil {
		log.Errorw("failed to schedule renewal reminders",
			"subscription_id", sub.ID,
			"error", err)
		resp.Warning = reminderTriggerWarning
		return resp, nil
	}

	resp.WorkflowID = run.WorkflowID
	resp.WorkflowRunID = run.RunID
	return resp, nil
}

func (s *subscriptionService) GetSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error) {
	sub, err := getOwnedSubscription(ctx, s.SubRepo, id)
	if err != nil {
		return nil, err
	}
	return dto.NewSubscriptionResponse(sub), nil
}

func (s *subscriptionService) ListSubscriptions(ctx context.Context, req *dto.ListSubscriptionsRequest) (*dto.ListSubscriptionsResponse, error) {
	return s.list(ctx, types.GetUserID(ctx), req)
}

func (s *subscriptionService) ListUserSubscriptions(ctx context.Context, userID string, req *dto.ListSubscriptionsRequest) (*dto.ListSubscriptionsResponse, error) {
	if userID != types.GetUserID(ctx) {
		return nil, ierr.NewError("cannot list subscriptions of another user").
			WithHint("You are not the owner of this account").
			WithReportableDetails(map[string]interface{}{
				"user_id": userID,
			}).
			Mark(ierr.ErrPermissionDenied)
	}
	return s.list(ctx, userID, req)
}

func (s *subscriptionService) list(ctx context.Context, userID string, req *dto.ListSubscriptionsRequest) (*dto.ListSubscriptionsResponse, error) {
	if req == nil {
		req = &dto.ListSubscriptionsRequest{}
	}
	if userID == "" {
		return nil, ierr.NewError("user_id is required").
			WithHint("User ID must be present in context").
			Mark(ierr.ErrUnauthorized)
	}

	filter := req.ToFilter(userID)
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	subs, err := s.SubRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	total, err := s.SubRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &dto.ListSubscriptionsResponse{
		Items:      lo.Map(subs, func(sub *subscription.Subscription, _ int) *dto.SubscriptionResponse { return dto.NewSubscriptionResponse(sub) }),
		Pagination: types.NewPaginationResponse(total, filter.GetLimit(), filter.GetOffset()),
	}, nil
}

// ListUpcomingRenewals returns the caller's active subscriptions renewing within the next
// UpcomingRenewalWindow, soonest first
func (s *subscriptionService) ListUpcomingRenewals(ctx context.Context) (*dto.ListSubscriptionsResponse, error) {
	userID := types.GetUserID(ctx)
	if userID == "" {
		return nil, ierr.NewError("user_id is required").
			WithHint("User ID must be present in context").
			Mark(ierr.ErrUnauthorized)
	}

	filter := types.NewNoLimitSubscriptionFilter()
	filter.UserID = userID
	filter.SubscriptionStatus = []types.SubscriptionStatus{types.SubscriptionStatusActive}
	filter.RenewalDateBefore = lo.ToPtr(s.now().UTC().Add(UpcomingRenewalWindow))
	filter.Sort = lo.ToPtr("renewal_date")
	filter.Order = lo.ToPtr("asc")

	subs, err := s.SubRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := lo.Map(subs, func(sub *subscription.Subscription, _ int) *dto.SubscriptionResponse { return dto.NewSubscriptionResponse(sub) })
	return &dto.ListSubscriptionsResponse{
		Items:      items,
		Pagination: types.NewPaginationResponse(len(items), len(items), 0),
	}, nil
}

// CancelSubscription marks the subscription cancelled. A running reminder run notices the
// change at its next wake-up and stops.
func (s *subscriptionService) CancelSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error) {
	sub, err := getOwnedSubscription(ctx, s.SubRepo, id)
	if err != nil {
		return nil, err
	}

	if sub.Status == types.SubscriptionStatusCancelled {
		return nil, ierr.NewError("subscription is already cancelled").
			WithHint("Subscription is already cancelled").
			Mark(ierr.ErrInvalidOperation)
	}

	updated, err := s.SubRepo.UpdateStatus(ctx, id, types.SubscriptionStatusCancelled)
	if err != nil {
		return nil, err
	}

	s.Logger.WithContext(ctx).Infow("subscription cancelled", "subscription_id", id)
	return dto.NewSubscriptionResponse(updated), nil
}

func (s *subscriptionService) DeleteSubscription(ctx context.Context, id string) error {
	if _, err := getOwnedSubscription(ctx, s.SubRepo, id); err != nil {
		return err
	}

	if err := s.SubRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.Logger.WithContext(ctx).Infow("subscription deleted", "subscription_id", id)
	return nil
}

// TriggerReminders starts a new reminder run for an active subscription of the caller
func (s *subscriptionService) TriggerReminders(ctx context.Context, id string) (*dto.WorkflowRunResponse, error) {
	sub, err := getOwnedSubscription(ctx, s.SubRepo, id)
	if err != nil {
		return nil, err
	}

	if !sub.IsActive() {
		return nil, ierr.NewError("subscription is not active").
			WithHintf("Reminders can only be scheduled for active subscriptions, this one is %s", sub.Status).
			Mark(ierr.ErrInvalidOperation)
	}

	return s.reminders.StartReminderWorkflow(ctx, sub.ID)
}

// ExportSubscriptions renders every subscription of the caller as CSV, oldest renewal first.
// The header row is written even when there is nothing to export.
func (s *subscriptionService) ExportSubscriptions(ctx context.Context, req *dto.ExportSubscriptionsRequest) ([]byte, int, error) {
	userID := types.GetUserID(ctx)
	if userID == "" {
		return nil, 0, ierr.NewError("user_id is required").
			WithHint("User ID must be present in context").
			Mark(ierr.ErrUnauthorized)
	}

	filter := types.NewNoLimitSubscriptionFilter()
	filter.UserID = userID
	filter.Sort = lo.ToPtr("renewal_date")
	filter.Order = lo.ToPtr("asc")
	if req != nil {
		filter.SubscriptionStatus = req.Status
	}
	if err := filter.Validate(); err != nil {
		return nil, 0, err
	}

	subs, err := s.SubRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	records := lo.Map(subs, func(sub *subscription.Subscription, _ int) *dto.SubscriptionCSV {
		return dto.NewSubscriptionCSV(sub)
	})

	var buf bytes.Buffer
	if err := gocsv.Marshal(records, &buf); err != nil {
		return nil, 0, ierr.WithError(err).
			WithHint("Failed to marshal subscriptions to CSV").
			Mark(ierr.ErrInternal)
	}

	s.Logger.Infow("exported subscriptions",
		"user_id", userID,
		"total_records", len(records),
		"csv_size_bytes", buf.Len())
	return buf.Bytes(), len(records), nil
}
