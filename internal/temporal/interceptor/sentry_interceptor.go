package interceptor

import (
	"context"
	"fmt"

	"github.com/getsentry/sentry-go"
	sentryService "github.com/subtrack/subtrack/internal/sentry"
	"github.com/subtrack/subtrack/internal/temporal/models"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/interceptor"
	"go.temporal.io/sdk/workflow"
)

// SentryInterceptor reports failed reminder runs and activities to Sentry, tagged with the
// subscription they belong to
type SentryInterceptor struct {
	interceptor.WorkerInterceptorBase
	sentry *sentryService.Service
}

func NewSentryInterceptor(s *sentryService.Service) *SentryInterceptor {
	return &SentryInterceptor{sentry: s}
}

func (s *SentryInterceptor) InterceptWorkflow(ctx workflow.Context, next interceptor.WorkflowInboundInterceptor) interceptor.WorkflowInboundInterceptor {
	return &sentryWorkflowInbound{
		WorkflowInboundInterceptorBase: interceptor.WorkflowInboundInterceptorBase{Next: next},
		sentry:                         s.sentry,
	}
}

func (s *SentryInterceptor) InterceptActivity(ctx context.Context, next interceptor.ActivityInboundInterceptor) interceptor.ActivityInboundInterceptor {
	return &sentryActivityInbound{
		ActivityInboundInterceptorBase: interceptor.ActivityInboundInterceptorBase{Next: next},
		sentry:                         s.sentry,
	}
}

type sentryWorkflowInbound struct {
	interceptor.WorkflowInboundInterceptorBase
	sentry *sentryService.Service
}

// ExecuteWorkflow reports a failed run once; replays of the same history are not reported
func (w *sentryWorkflowInbound) ExecuteWorkflow(ctx workflow.Context, in *interceptor.ExecuteWorkflowInput) (interface{}, error) {
	result, err := w.Next.ExecuteWorkflow(ctx, in)
	if err == nil || !w.sentry.IsEnabled() || workflow.IsReplaying(ctx) {
		return result, err
	}

	info := workflow.GetInfo(ctx)
	tags := ReminderTags(in.Args)
	tags["workflow_type"] = info.WorkflowType.Name
	tags["workflow_id"] = info.WorkflowExecution.ID
	tags["run_id"] = info.WorkflowExecution.RunID

	w.sentry.CaptureExceptionWithTags(fmt.Errorf("workflow %s failed: %w", info.WorkflowType.Name, err), tags)
	return result, err
}

type sentryActivityInbound struct {
	interceptor.ActivityInboundInterceptorBase
	sentry *sentryService.Service
}

func (a *sentryActivityInbound) ExecuteActivity(ctx context.Context, in *interceptor.ExecuteActivityInput) (interface{}, error) {
	if !a.sentry.IsEnabled() {
		return a.Next.ExecuteActivity(ctx, in)
	}

	info := activity.GetInfo(ctx)
	tags := ReminderTags(in.Args)
	tags["activity_type"] = info.ActivityType.Name
	tags["workflow_id"] = info.WorkflowExecution.ID

	data := make(map[string]interface{}, len(tags)+1)
	for k, v := range tags {
		data[k] = v
	}
	data["attempt"] = info.Attempt

	span, spanCtx := a.sentry.StartMonitoringSpan(ctx, "temporal.activity."+info.ActivityType.Name, data)
	result, err := a.Next.ExecuteActivity(spanCtx, in)

	if span != nil {
		span.Status = sentry.SpanStatusOK
		if err != nil {
			span.Status = sentry.SpanStatusInternalError
			span.SetData("error", err.Error())
		}
		span.Finish()
	}

	if err != nil {
		a.sentry.CaptureExceptionWithTags(fmt.Errorf("activity %s failed: %w", info.ActivityType.Name, err), tags)
	}
	return result, err
}

// ReminderTags extracts the subscription and reminder type from reminder workflow and
// activity arguments. Unknown arguments yield an empty map.
func ReminderTags(args []interface{}) map[string]string {
	tags := map[string]string{}
	for _, arg := range args {
		switch v := arg.(type) {
		case models.ReminderWorkflowInput:
			tags["subscription_id"] = v.SubscriptionID
			if v.UserID != "" {
				tags["user_id"] = v.UserID
			}
		case *models.ReminderWorkflowInput:
			if v != nil {
				tags["subscription_id"] = v.SubscriptionID
			}
		case models.FetchSubscriptionActivityInput:
			tags["subscription_id"] = v.SubscriptionID
		case models.SendReminderActivityInput:
			tags["subscription_id"] = v.Subscription.ID
			tags["user_id"] = v.Subscription.UserID
			tags["reminder_type"] = string(v.ReminderType)
		}
	}
	return tags
}
