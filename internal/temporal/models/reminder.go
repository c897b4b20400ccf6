package models

import (
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/subtrack/subtrack/internal/domain/subscription"
	ierr "github.com/subtrack/subtrack/internal/errors"
	"github.com/subtrack/subtrack/internal/types"
)

// ReminderStateQuery is the query handler name exposing ReminderWorkflowState
const ReminderStateQuery = "reminder_state"

// ReminderWorkflowInput represents the input for the subscription reminder workflow
type ReminderWorkflowInput struct {
	SubscriptionID string `json:"subscription_id"`
	UserID         string `json:"user_id,omitempty"`
}

// Validate validates the reminder workflow input
func (i *ReminderWorkflowInput) Validate() error {
	if i.SubscriptionID == "" {
		return ierr.NewError("subscription_id is required").
			WithHint("Subscription ID is required").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ReminderMilestone is one scheduled reminder of a run
type ReminderMilestone struct {
	Type         types.ReminderType    `json:"type"`
	DaysBefore   int                   `json:"days_before"`
	At           time.Time             `json:"at"`
	Outcome      types.ReminderOutcome `json:"outcome"`
	Reason       string                `json:"reason,omitempty"`
	MessageID    string                `json:"message_id,omitempty"`
	DispatchedAt *time.Time            `json:"dispatched_at,omitempty"`
}

// BuildReminderSchedule derives the milestones for a renewal date, in firing order
func BuildReminderSchedule(renewal time.Time) []ReminderMilestone {
	return lo.Map(types.ReminderTypes(), func(rt types.ReminderType, _ int) ReminderMilestone {
		return ReminderMilestone{
			Type:       rt,
			DaysBefore: rt.DaysBefore(),
			At:         renewal.AddDate(0, 0, -rt.DaysBefore()),
			Outcome:    types.ReminderOutcomePending,
		}
	})
}

// ReminderWorkflowState is the explicit state of a reminder run. Milestones is the arena,
// NextIndex points at the milestone being waited on or dispatched.
type ReminderWorkflowState struct {
	SubscriptionID    string                 `json:"subscription_id"`
	Phase             types.ReminderRunPhase `json:"phase"`
	RenewalDate       *time.Time             `json:"renewal_date,omitempty"`
	Milestones        []ReminderMilestone    `json:"milestones"`
	NextIndex         int                    `json:"next_index"`
	ResumeAt          *time.Time             `json:"resume_at,omitempty"`
	TerminationReason string                 `json:"termination_reason,omitempty"`
}

// NewReminderWorkflowState returns the state of a run that has not fetched anything yet
func NewReminderWorkflowState(subscriptionID string) *ReminderWorkflowState {
	return &ReminderWorkflowState{
		SubscriptionID: subscriptionID,
		Phase:          types.ReminderRunPhaseFetching,
		Milestones:     []ReminderMilestone{},
	}
}

// Current returns the milestone at NextIndex, or nil once all have been processed
func (s *ReminderWorkflowState) Current() *ReminderMilestone {
	if s.NextIndex < 0 || s.NextIndex >= len(s.Milestones) {
		return nil
	}
	return &s.Milestones[s.NextIndex]
}

// Resolve records the outcome of the current milestone and moves to the next one
func (s *ReminderWorkflowState) Resolve(outcome types.ReminderOutcome, reason, messageID string, at *time.Time) {
	m := s.Current()
	if m == nil {
		return
	}
	m.Outcome = outcome
	m.Reason = reason
	m.MessageID = messageID
	m.DispatchedAt = at
	s.ResumeAt = nil
	s.NextIndex++
}

// Terminate ends the run early. Milestones not yet processed stay pending.
func (s *ReminderWorkflowState) Terminate(reason string) {
	s.Phase = types.ReminderRunPhaseTerminated
	s.TerminationReason = reason
	s.ResumeAt = nil
}

// CountByOutcome returns how many milestones ended with the given outcome
func (s *ReminderWorkflowState) CountByOutcome(outcome types.ReminderOutcome) int {
	return lo.CountBy(s.Milestones, func(m ReminderMilestone) bool {
		return m.Outcome == outcome
	})
}

// ReminderWorkflowResult represents the result of a reminder run
type ReminderWorkflowResult struct {
	SubscriptionID string                   `json:"subscription_id"`
	Outcome        types.ReminderRunOutcome `json:"outcome"`
	Reason         string                   `json:"reason,omitempty"`
	Milestones     []ReminderMilestone      `json:"milestones"`
	SentCount      int                      `json:"sent_count"`
	CompletedAt    time.Time                `json:"completed_at"`
}

// ResultFromState builds the run result from its final state
func ResultFromState(state *ReminderWorkflowState, completedAt time.Time) *ReminderWorkflowResult {
	outcome := types.ReminderRunOutcomeCompleted
	if state.Phase == types.ReminderRunPhaseTerminated {
		outcome = types.ReminderRunOutcomeTerminated
	}
	return &ReminderWorkflowResult{
		SubscriptionID: state.SubscriptionID,
		Outcome:        outcome,
		Reason:         state.TerminationReason,
		Milestones:     state.Milestones,
		SentCount:      state.CountByOutcome(types.ReminderOutcomeSent),
		CompletedAt:    completedAt,
	}
}

// SubscriptionSnapshot is the copy of a subscription passed between activities
type SubscriptionSnapshot struct {
	ID            string                      `json:"id"`
	UserID        string                      `json:"user_id"`
	Name          string                      `json:"name"`
	Price         decimal.Decimal             `json:"price"`
	Currency      types.Currency              `json:"currency"`
	Frequency     types.SubscriptionFrequency `json:"frequency"`
	Category      types.SubscriptionCategory  `json:"category"`
	PaymentMethod string                      `json:"payment_method"`
	Status        types.SubscriptionStatus    `json:"status"`
	RenewalDate   time.Time                   `json:"renewal_date"`
}

// SnapshotFromSubscription copies the fields reminders need
func SnapshotFromSubscription(sub *subscription.Subscription) *SubscriptionSnapshot {
	if sub == nil {
		return nil
	}
	return &SubscriptionSnapshot{
		ID:            sub.ID,
		UserID:        sub.UserID,
		Name:          sub.Name,
		Price:         sub.Price,
		Currency:      sub.Currency,
		Frequency:     sub.Frequency,
		Category:      sub.Category,
		PaymentMethod: sub.PaymentMethod,
		Status:        sub.Status,
		RenewalDate:   sub.RenewalDate,
	}
}

// IsActive reports whether the snapshot was taken of an active subscription
func (s *SubscriptionSnapshot) IsActive() bool {
	return s != nil && s.Status == types.SubscriptionStatusActive
}

// FetchSubscriptionActivityInput represents the input for FetchSubscriptionActivity
type FetchSubscriptionActivityInput struct {
	SubscriptionID string `json:"subscription_id"`
}

// Validate validates the fetch subscription activity input
func (i *FetchSubscriptionActivityInput) Validate() error {
	if i.SubscriptionID == "" {
		return ierr.NewError("subscription_id is required").
			WithHint("Subscription ID is required").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// FetchSubscriptionActivityOutput reports Found=false when the subscription no longer exists
type FetchSubscriptionActivityOutput struct {
	Found        bool                  `json:"found"`
	Subscription *SubscriptionSnapshot `json:"subscription,omitempty"`
}

// SendReminderActivityInput represents the input for SendReminderActivity
type SendReminderActivityInput struct {
	ReminderType types.ReminderType   `json:"reminder_type"`
	Subscription SubscriptionSnapshot `json:"subscription"`
}

// Validate validates the send reminder activity input
func (i *SendReminderActivityInput) Validate() error {
	if i.Subscription.ID == "" {
		return ierr.NewError("subscription.id is required").
			WithHint("Subscription snapshot is required").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// DispatchResult is the outcome of one reminder delivery attempt. Failures are reported
// through Sent and Reason, never as an error.
type DispatchResult struct {
	Sent      bool   `json:"sent"`
	Reason    string `json:"reason,omitempty"`
	MessageID string `json:"message_id,omitempty"`
}
