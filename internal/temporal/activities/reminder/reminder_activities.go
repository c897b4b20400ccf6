package reminder

import (
	"context"

	"github.com/subtrack/subtrack/internal/domain/subscription"
	ierr "github.com/subtrack/subtrack/internal/errors"
	"github.com/subtrack/subtrack/internal/logger"
	"github.com/subtrack/subtrack/internal/temporal/models"
	"github.com/subtrack/subtrack/internal/types"
	"go.temporal.io/sdk/temporal"
)

// Dispatcher delivers one reminder. It reports failures in the result instead of an error.
type Dispatcher interface {
	Dispatch(ctx context.Context, reminderType types.ReminderType, sub models.SubscriptionSnapshot) models.DispatchResult
}

// ReminderActivities are the activities of the subscription reminder workflow
type ReminderActivities struct {
	subRepo    subscription.Repository
	dispatcher Dispatcher
	logger     *logger.Logger
}

func NewReminderActivities(
	subRepo subscription.Repository,
	dispatcher Dispatcher,
	logger *logger.Logger,
) *ReminderActivities {
	return &ReminderActivities{
		subRepo:    subRepo,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// FetchSubscriptionActivity loads the current state of a subscription. A missing record is
// reported as Found=false; store failures are returned so the activity is retried.
func (a *ReminderActivities) FetchSubscriptionActivity(
	ctx context.Context,
	input models.FetchSubscriptionActivityInput,
) (*models.FetchSubscriptionActivityOutput, error) {
	if err := input.Validate(); err != nil {
		return nil, temporal.NewNonRetryableApplicationError(err.Error(), "InvalidInput", err)
	}

	sub, err := a.subRepo.Get(ctx, input.SubscriptionID)
	if err != nil {
		if ierr.IsNotFound(err) {
			a.logger.WithSubscription(input.SubscriptionID).Infow("subscription not found for reminder")
			return &models.FetchSubscriptionActivityOutput{Found: false}, nil
		}
		return nil, err
	}

	return &models.FetchSubscriptionActivityOutput{
		Found:        true,
		Subscription: models.SnapshotFromSubscription(sub),
	}, nil
}

// SendReminderActivity renders and delivers one reminder
func (a *ReminderActivities) SendReminderActivity(
	ctx context.Context,
	input models.SendReminderActivityInput,
) (*models.DispatchResult, error) {
	if err := input.Validate(); err != nil {
		return nil, temporal.NewNonRetryableApplicationError(err.Error(), "InvalidInput", err)
	}

	result := a.dispatcher.Dispatch(ctx, input.ReminderType, input.Subscription)
	if !result.Sent {
		a.logger.WithSubscription(input.Subscription.ID).Warnw("reminder not delivered",
			"reminder_type", input.ReminderType,
			"reason", result.Reason)
	}
	return &result, nil
}
