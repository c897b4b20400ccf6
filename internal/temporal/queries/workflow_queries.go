package queries

import (
	"context"
	"fmt"
	"time"

	ierr "github.com/subtrack/subtrack/internal/errors"
	"github.com/subtrack/subtrack/internal/logger"
	"github.com/subtrack/subtrack/internal/temporal/models"
	"github.com/subtrack/subtrack/internal/types"
	"go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/api/workflowservice/v1"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/converter"
)

// WorkflowReader is the part of the temporal service the querier needs
type WorkflowReader interface {
	DescribeWorkflowExecution(ctx context.Context, workflowID, runID string) (*workflowservice.DescribeWorkflowExecutionResponse, error)
	GetWorkflowHistory(ctx context.Context, workflowID, runID string) (client.HistoryEventIterator, error)
	QueryWorkflow(ctx context.Context, workflowID, runID, queryType string, args ...interface{}) (interface{}, error)
}

// WorkflowQuerier provides methods for querying Temporal workflows
type WorkflowQuerier struct {
	reader WorkflowReader
	logger *logger.Logger
}

// NewWorkflowQuerier creates a new WorkflowQuerier instance
func NewWorkflowQuerier(reader WorkflowReader, logger *logger.Logger) *WorkflowQuerier {
	return &WorkflowQuerier{
		reader: reader,
		logger: logger,
	}
}

// WorkflowExecutionInfo contains basic workflow execution information
type WorkflowExecutionInfo struct {
	WorkflowID   string                        `json:"workflow_id"`
	RunID        string                        `json:"run_id"`
	WorkflowType string                        `json:"workflow_type"`
	Status       types.WorkflowExecutionStatus `json:"status"`
	StartTime    time.Time                     `json:"start_time"`
	CloseTime    *time.Time                    `json:"close_time,omitempty"`
	DurationMs   *int64                        `json:"duration_ms,omitempty"`
	TaskQueue    string                        `json:"task_queue"`
	HistorySize  int64                         `json:"history_size"`
}

// TimelineEvent represents a workflow event for timeline visualization
type TimelineEvent struct {
	EventID   int64     `json:"event_id"`
	EventType string    `json:"event_type"`
	EventTime time.Time `json:"event_time"`
	Details   string    `json:"details"`
}

// WorkflowStatusFromEnum maps the Temporal execution status onto our status values
func WorkflowStatusFromEnum(status enums.WorkflowExecutionStatus) types.WorkflowExecutionStatus {
	switch status {
	case enums.WORKFLOW_EXECUTION_STATUS_RUNNING:
		return types.WorkflowExecutionStatusRunning
	case enums.WORKFLOW_EXECUTION_STATUS_COMPLETED:
		return types.WorkflowExecutionStatusCompleted
	case enums.WORKFLOW_EXECUTION_STATUS_FAILED:
		return types.WorkflowExecutionStatusFailed
	case enums.WORKFLOW_EXECUTION_STATUS_CANCELED:
		return types.WorkflowExecutionStatusCanceled
	case enums.WORKFLOW_EXECUTION_STATUS_TERMINATED:
		return types.WorkflowExecutionStatusTerminated
	case enums.WORKFLOW_EXECUTION_STATUS_CONTINUED_AS_NEW:
		return types.WorkflowExecutionStatusContinuedAsNew
	case enums.WORKFLOW_EXECUTION_STATUS_TIMED_OUT:
		return types.WorkflowExecutionStatusTimedOut
	default:
		return types.WorkflowExecutionStatusUnknown
	}
}

// DescribeWorkflow retrieves workflow execution details
func (q *WorkflowQuerier) DescribeWorkflow(ctx context.Context, workflowID, runID string) (*WorkflowExecutionInfo, error) {
	q.logger.Debugw("describing workflow execution", "workflow_id", workflowID, "run_id", runID)

	resp, err := q.reader.DescribeWorkflowExecution(ctx, workflowID, runID)
	if err != nil {
		return nil, wrapQueryError(err, workflowID, "failed to describe workflow")
	}

	execInfo := resp.GetWorkflowExecutionInfo()
	info := &WorkflowExecutionInfo{
		WorkflowID:   execInfo.GetExecution().GetWorkflowId(),
		RunID:        execInfo.GetExecution().GetRunId(),
		WorkflowType: execInfo.GetType().GetName(),
		Status:       WorkflowStatusFromEnum(execInfo.GetStatus()),
		StartTime:    execInfo.GetStartTime().AsTime(),
		TaskQueue:    resp.GetExecutionConfig().GetTaskQueue().GetName(),
		HistorySize:  execInfo.GetHistoryLength(),
	}

	// Set close time and duration if workflow is closed
	if execInfo.GetCloseTime() != nil {
		closeTime := execInfo.GetCloseTime().AsTime()
		info.CloseTime = &closeTime
		durationMs := closeTime.Sub(info.StartTime).Milliseconds()
		info.DurationMs = &durationMs
	}

	return info, nil
}

// QueryReminderState reads the live state of a reminder run through its query handler
func (q *WorkflowQuerier) QueryReminderState(ctx context.Context, workflowID, runID string) (*models.ReminderWorkflowState, error) {
	resp, err := q.reader.QueryWorkflow(ctx, workflowID, runID, models.ReminderStateQuery)
	if err != nil {
		return nil, wrapQueryError(err, workflowID, "failed to query reminder state")
	}

	value, ok := resp.(converter.EncodedValue)
	if !ok || value == nil || !value.HasValue() {
		return nil, ierr.NewError("reminder state is empty").
			WithHint("The workflow did not return its reminder state").
			WithReportableDetails(map[string]interface{}{
				"workflow_id": workflowID,
			}).
			Mark(ierr.ErrInternal)
	}

	var state models.ReminderWorkflowState
	if err := value.Get(&state); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to decode reminder state").
			Mark(ierr.ErrInternal)
	}
	return &state, nil
}

// ParseTimelineFromHistory parses workflow events into a timeline format
func (q *WorkflowQuerier) ParseTimelineFromHistory(ctx context.Context, workflowID, runID string) ([]*TimelineEvent, error) {
	iter, err := q.reader.GetWorkflowHistory(ctx, workflowID, runID)
	if err != nil {
		return nil, wrapQueryError(err, workflowID, "failed to read workflow history")
	}

	timeline := []*TimelineEvent{}
	if iter == nil {
		return timeline, nil
	}

	for iter.HasNext() {
		event, err := iter.Next()
		if err != nil {
			return nil, wrapQueryError(err, workflowID, "failed to iterate workflow history")
		}

		// Only include significant events in timeline
		var details string
		includeEvent := true

		switch event.EventType {
		case enums.EVENT_TYPE_WORKFLOW_EXECUTION_STARTED:
			details = "Workflow execution started"
		case enums.EVENT_TYPE_WORKFLOW_EXECUTION_COMPLETED:
			details = "Workflow execution completed"
		case enums.EVENT_TYPE_WORKFLOW_EXECUTION_FAILED:
			attrs := event.GetWorkflowExecutionFailedEventAttributes()
			if attrs.GetFailure() != nil {
				details = fmt.Sprintf("Workflow execution failed: %s", attrs.GetFailure().GetMessage())
			} else {
				details = "Workflow execution failed"
			}
		case enums.EVENT_TYPE_WORKFLOW_EXECUTION_TERMINATED:
			details = "Workflow execution terminated"
		case enums.EVENT_TYPE_TIMER_STARTED:
			attrs := event.GetTimerStartedEventAttributes()
			details = fmt.Sprintf("Waiting %s", attrs.GetStartToFireTimeout().AsDuration())
		case enums.EVENT_TYPE_TIMER_FIRED:
			details = "Timer fired"
		case enums.EVENT_TYPE_ACTIVITY_TASK_SCHEDULED:
			attrs := event.GetActivityTaskScheduledEventAttributes()
			details = fmt.Sprintf("Activity %s scheduled", attrs.GetActivityType().GetName())
		case enums.EVENT_TYPE_ACTIVITY_TASK_COMPLETED:
			details = "Activity completed"
		case enums.EVENT_TYPE_ACTIVITY_TASK_FAILED:
			attrs := event.GetActivityTaskFailedEventAttributes()
			if attrs.GetFailure() != nil {
				details = fmt.Sprintf("Activity failed: %s", attrs.GetFailure().GetMessage())
			} else {
				details = "Activity failed"
			}
		case enums.EVENT_TYPE_ACTIVITY_TASK_TIMED_OUT:
			details = "Activity timed out"
		default:
			includeEvent = false
		}

		if includeEvent {
			timeline = append(timeline, &TimelineEvent{
				EventID:   event.GetEventId(),
				EventType: event.GetEventType().String(),
				EventTime: event.GetEventTime().AsTime(),
				Details:   details,
			})
		}
	}

	return timeline, nil
}

func wrapQueryError(err error, workflowID, hint string) error {
	var notFound *serviceerror.NotFound
	if ierr.As(err, &notFound) {
		return ierr.WithError(err).
			WithHintf("Workflow %s was not found", workflowID).
			Mark(ierr.ErrNotFound)
	}
	return ierr.WithError(err).
		WithHint(hint).
		WithReportableDetails(map[string]interface{}{
			"workflow_id": workflowID,
		}).
		Mark(ierr.ErrSystem)
}
