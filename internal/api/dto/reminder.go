package dto

import (
	"github.com/subtrack/subtrack/internal/temporal/models"
	"github.com/subtrack/subtrack/internal/temporal/queries"
	"github.com/subtrack/subtrack/internal/validator"
)

// WorkflowRunResponse identifies a started reminder run
type WorkflowRunResponse struct {
	SubscriptionID string `json:"subscription_id"`
	WorkflowID     string `json:"workflow_id"`
	RunID          string `json:"run_id"`
}

// ReminderRunStatusResponse combines the Temporal view of a run with its reminder state
type ReminderRunStatusResponse struct {
	Execution *queries.WorkflowExecutionInfo `json:"execution"`
	State     *models.ReminderWorkflowState  `json:"state,omitempty"`
	Timeline  []*queries.TimelineEvent       `json:"timeline,omitempty"`
}

type BackfillRemindersRequest struct {
	BatchSize   int `json:"batch_size,omitempty" validate:"omitempty,min=1,max=1000"`
	Concurrency int `json:"concurrency,omitempty" validate:"omitempty,min=1,max=64"`
}

func (r *BackfillRemindersRequest) Validate() error {
	return validator.ValidateRequest(r)
}

type BackfillRemindersResponse struct {
	Total   int      `json:"total"`
	Started int      `json:"started"`
	Skipped int      `json:"skipped"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}
