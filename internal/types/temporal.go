package types

import (
	"github.com/samber/lo"
	ierr "github.com/subtrack/subtrack/internal/errors"
)

// TemporalTaskQueue represents a logical grouping of workflows and activities
type TemporalTaskQueue string

const (
	TemporalTaskQueueReminder TemporalTaskQueue = "reminder"
)

// String returns the string representation of the task queue
func (tq TemporalTaskQueue) String() string {
	return string(tq)
}

// Validate validates the task queue
func (tq TemporalTaskQueue) Validate() error {
	allowedQueues := GetAllTaskQueues()
	if lo.Contains(allowedQueues, tq) {
		return nil
	}
	return ierr.NewError("invalid task queue").
		WithHintf("Task queue must be one of: %s", joinEnum(allowedQueues)).
		Mark(ierr.ErrValidation)
}

// TemporalWorkflowType represents the type of workflow
type TemporalWorkflowType string

const (
	TemporalSubscriptionReminderWorkflow TemporalWorkflowType = "SubscriptionReminderWorkflow"
)

// String returns the string representation of the workflow type
func (w TemporalWorkflowType) String() string {
	return string(w)
}

// Validate validates the workflow type
func (w TemporalWorkflowType) Validate() error {
	allowedWorkflows := []TemporalWorkflowType{
		TemporalSubscriptionReminderWorkflow,
	}
	if lo.Contains(allowedWorkflows, w) {
		return nil
	}
	return ierr.NewError("invalid workflow type").
		WithHintf("Workflow type must be one of: %s", joinEnum(allowedWorkflows)).
		Mark(ierr.ErrValidation)
}

// TaskQueue returns the logical task queue for the workflow
func (w TemporalWorkflowType) TaskQueue() TemporalTaskQueue {
	switch w {
	case TemporalSubscriptionReminderWorkflow:
		return TemporalTaskQueueReminder
	default:
		return TemporalTaskQueueReminder
	}
}

// TaskQueueName returns the task queue name for the workflow
func (w TemporalWorkflowType) TaskQueueName() string {
	return w.TaskQueue().String()
}

// WorkflowID returns the workflow ID for the workflow with given identifier
func (w TemporalWorkflowType) WorkflowID(identifier string) string {
	return string(w) + "-" + identifier
}

// GetWorkflowsForTaskQueue returns all workflows that belong to a specific task queue
func GetWorkflowsForTaskQueue(taskQueue TemporalTaskQueue) []TemporalWorkflowType {
	switch taskQueue {
	case TemporalTaskQueueReminder:
		return []TemporalWorkflowType{
			TemporalSubscriptionReminderWorkflow,
		}
	default:
		return []TemporalWorkflowType{}
	}
}

// GetAllTaskQueues returns all available task queues
func GetAllTaskQueues() []TemporalTaskQueue {
	return []TemporalTaskQueue{
		TemporalTaskQueueReminder,
	}
}

// WorkflowExecutionStatus represents the execution state of a Temporal workflow run.
// Values align with Temporal's workflow execution status.
type WorkflowExecutionStatus string

const (
	WorkflowExecutionStatusRunning        WorkflowExecutionStatus = "Running"
	WorkflowExecutionStatusCompleted      WorkflowExecutionStatus = "Completed"
	WorkflowExecutionStatusFailed         WorkflowExecutionStatus = "Failed"
	WorkflowExecutionStatusCanceled       WorkflowExecutionStatus = "Canceled"
	WorkflowExecutionStatusTerminated     WorkflowExecutionStatus = "Terminated"
	WorkflowExecutionStatusContinuedAsNew WorkflowExecutionStatus = "ContinuedAsNew"
	WorkflowExecutionStatusTimedOut       WorkflowExecutionStatus = "TimedOut"
	WorkflowExecutionStatusUnknown        WorkflowExecutionStatus = "Unknown"
)
