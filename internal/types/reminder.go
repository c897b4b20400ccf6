package types

import (
	"github.com/samber/lo"
	ierr "github.com/subtrack/subtrack/internal/errors"
)

// ReminderType labels a renewal reminder milestone
type ReminderType string

const (
	ReminderTypeSevenDay ReminderType = "7-day reminder"
	ReminderTypeFiveDay  ReminderType = "5-day reminder"
	ReminderTypeTwoDay   ReminderType = "2-day reminder"
	ReminderTypeOneDay   ReminderType = "1-day reminder"
)

// ReminderTypes returns the milestones in the order they fire
func ReminderTypes() []ReminderType {
	return []ReminderType{
		ReminderTypeSevenDay,
		ReminderTypeFiveDay,
		ReminderTypeTwoDay,
		ReminderTypeOneDay,
	}
}

func (r ReminderType) String() string {
	return string(r)
}

// DaysBefore returns how many days before the renewal date the reminder fires
func (r ReminderType) DaysBefore() int {
	switch r {
	case ReminderTypeSevenDay:
		return 7
	case ReminderTypeFiveDay:
		return 5
	case ReminderTypeTwoDay:
		return 2
	case ReminderTypeOneDay:
		return 1
	default:
		return 0
	}
}

func (r ReminderType) Validate() error {
	if lo.Contains(ReminderTypes(), r) {
		return nil
	}
	return ierr.NewError("unknown reminder type").
		WithHintf("Reminder type must be one of: %s", joinEnum(ReminderTypes())).
		WithReportableDetails(map[string]interface{}{
			"reminder_type": r,
		}).
		Mark(ierr.ErrInvalidOperation)
}

// ReminderTypeFromLabel parses a reminder label such as "2-day reminder"
func ReminderTypeFromLabel(label string) (ReminderType, error) {
	r := ReminderType(label)
	if err := r.Validate(); err != nil {
		return "", err
	}
	return r, nil
}

// ReminderOutcome is the result recorded for one milestone of a reminder run
type ReminderOutcome string

const (
	ReminderOutcomePending ReminderOutcome = "pending"
	ReminderOutcomeSent    ReminderOutcome = "sent"
	ReminderOutcomeFailed  ReminderOutcome = "failed"
	ReminderOutcomeSkipped ReminderOutcome = "skipped"
)

// ReminderRunPhase tracks where a reminder run currently is
type ReminderRunPhase string

const (
	ReminderRunPhaseFetching    ReminderRunPhase = "fetching"
	ReminderRunPhaseWaiting     ReminderRunPhase = "waiting"
	ReminderRunPhaseDispatching ReminderRunPhase = "dispatching"
	ReminderRunPhaseCompleted   ReminderRunPhase = "completed"
	ReminderRunPhaseTerminated  ReminderRunPhase = "terminated"
)

// ReminderRunOutcome is the final outcome of a reminder run
type ReminderRunOutcome string

const (
	ReminderRunOutcomeCompleted  ReminderRunOutcome = "completed"
	ReminderRunOutcomeTerminated ReminderRunOutcome = "terminated"
)

// Termination reasons for a reminder run
const (
	ReminderTerminationNotFound        = "not_found"
	ReminderTerminationNotActive       = "not_active"
	ReminderTerminationFetchFailed     = "fetch_failed"
	ReminderTerminationRenewalPassed   = "renewal_passed"
	ReminderTerminationCancelledMidway = "cancelled_midway"
)
