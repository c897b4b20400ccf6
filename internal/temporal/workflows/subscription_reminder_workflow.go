package workflows

import (
	"time"

	"github.com/subtrack/subtrack/internal/temporal/models"
	"github.com/subtrack/subtrack/internal/types"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

const (
	// Workflow name - must match the function name
	WorkflowSubscriptionReminder = "SubscriptionReminderWorkflow"
	// Activity names - must match the registered method names
	ActivityFetchSubscription = "FetchSubscriptionActivity"
	ActivitySendReminder      = "SendReminderActivity"
)

// reasonPastDue is recorded on milestones whose time had already passed when reached
const reasonPastDue = "past_due"

// SubscriptionReminderWorkflow sends the renewal reminders of one subscription.
//  1. Fetch the subscription; stop if it is gone, inactive, or its renewal date has passed
//  2. Build the 7, 5, 2 and 1 day milestones from the renewal date
//  3. For each milestone: sleep until it is due, re-fetch, stop if no longer active, dispatch
//
// Milestones already in the past are skipped. A failed dispatch is recorded and the run
// moves on to the next milestone.
func SubscriptionReminderWorkflow(
	ctx workflow.Context,
	input models.ReminderWorkflowInput,
) (*models.ReminderWorkflowResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting subscription reminder workflow",
		"subscription_id", input.SubscriptionID,
		"user_id", input.UserID)

	state := models.NewReminderWorkflowState(input.SubscriptionID)
	if err := workflow.SetQueryHandler(ctx, models.ReminderStateQuery, func() (*models.ReminderWorkflowState, error) {
		return state, nil
	}); err != nil {
		return nil, err
	}

	if err := input.Validate(); err != nil {
		logger.Error("Invalid workflow input", "error", err)
		return nil, temporal.NewNonRetryableApplicationError(err.Error(), "InvalidInput", err)
	}

	fetchCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    5 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    3,
		},
	})
	// Reminders are never retried; one attempt per milestone
	sendCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	})

	// ================================================================================
	// STEP 1: Fetch the subscription
	// ================================================================================
	snapshot, reason := fetchActiveSubscription(fetchCtx, input.SubscriptionID)
	if reason != "" {
		return terminate(ctx, state, reason), nil
	}

	now := workflow.Now(ctx)
	if snapshot.RenewalDate.Before(now) {
		logger.Info("Renewal date has passed, stopping",
			"subscription_id", input.SubscriptionID,
			"renewal_date", snapshot.RenewalDate)
		return terminate(ctx, state, types.ReminderTerminationRenewalPassed), nil
	}

	// ================================================================================
	// STEP 2: Build the milestone schedule
	// ================================================================================
	renewal := snapshot.RenewalDate
	state.RenewalDate = &renewal
	state.Milestones = models.BuildReminderSchedule(renewal)

	// ================================================================================
	// STEP 3: Wait for, re-check and dispatch every milestone
	// ================================================================================
	for m := state.Current(); m != nil; m = state.Current() {
		now = workflow.Now(ctx)
		if !m.At.After(now) {
			logger.Info("Reminder milestone already passed, skipping",
				"subscription_id", input.SubscriptionID,
				"reminder_type", m.Type,
				"due_at", m.At)
			state.Resolve(types.ReminderOutcomeSkipped, reasonPastDue, "", nil)
			continue
		}

		state.Phase = types.ReminderRunPhaseWaiting
		resumeAt := m.At
		state.ResumeAt = &resumeAt
		logger.Info("Sleeping until reminder milestone",
			"subscription_id", input.SubscriptionID,
			"reminder_type", m.Type,
			"resume_at", resumeAt)

		if err := workflow.Sleep(ctx, m.At.Sub(now)); err != nil {
			return nil, err
		}

		state.Phase = types.ReminderRunPhaseFetching
		snapshot, reason = fetchActiveSubscription(fetchCtx, input.SubscriptionID)
		if reason != "" {
			if reason != types.ReminderTerminationFetchFailed {
				reason = types.ReminderTerminationCancelledMidway
			}
			return terminate(ctx, state, reason), nil
		}

		state.Phase = types.ReminderRunPhaseDispatching
		var result models.DispatchResult
		err := workflow.ExecuteActivity(sendCtx, ActivitySendReminder, models.SendReminderActivityInput{
			ReminderType: m.Type,
			Subscription: *snapshot,
		}).Get(sendCtx, &result)
		dispatchedAt := workflow.Now(ctx)

		switch {
		case err != nil:
			logger.Error("Reminder dispatch activity failed",
				"subscription_id", input.SubscriptionID,
				"reminder_type", m.Type,
				"error", err)
			state.Resolve(types.ReminderOutcomeFailed, err.Error(), "", &dispatchedAt)
		case !result.Sent:
			state.Resolve(types.ReminderOutcomeFailed, result.Reason, "", &dispatchedAt)
		default:
			logger.Info("Reminder sent",
				"subscription_id", input.SubscriptionID,
				"reminder_type", m.Type,
				"message_id", result.MessageID)
			state.Resolve(types.ReminderOutcomeSent, "", result.MessageID, &dispatchedAt)
		}
	}

	state.Phase = types.ReminderRunPhaseCompleted
	result := models.ResultFromState(state, workflow.Now(ctx))
	logger.Info("Subscription reminder workflow completed",
		"subscription_id", input.SubscriptionID,
		"sent", result.SentCount)
	return result, nil
}

// fetchActiveSubscription returns the subscription, or a termination reason when the run
// should stop
func fetchActiveSubscription(ctx workflow.Context, subscriptionID string) (*models.SubscriptionSnapshot, string) {
	logger := workflow.GetLogger(ctx)

	var output models.FetchSubscriptionActivityOutput
	err := workflow.ExecuteActivity(ctx, ActivityFetchSubscription, models.FetchSubscriptionActivityInput{
		SubscriptionID: subscriptionID,
	}).Get(ctx, &output)
	if err != nil {
		logger.Error("Failed to fetch subscription",
			"subscription_id", subscriptionID,
			"error", err)
		return nil, types.ReminderTerminationFetchFailed
	}

	if !output.Found || output.Subscription == nil {
		return nil, types.ReminderTerminationNotFound
	}
	if !output.Subscription.IsActive() {
		logger.Info("Subscription is not active",
			"subscription_id", subscriptionID,
			"status", output.Subscription.Status)
		return nil, types.ReminderTerminationNotActive
	}
	return output.Subscription, ""
}

func terminate(ctx workflow.Context, state *models.ReminderWorkflowState, reason string) *models.ReminderWorkflowResult {
	workflow.GetLogger(ctx).Info("Terminating subscription reminder workflow",
		"subscription_id", state.SubscriptionID,
		"reason", reason)
	state.Terminate(reason)
	return models.ResultFromState(state, workflow.Now(ctx))
}
