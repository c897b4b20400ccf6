package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/subtrack/subtrack/internal/types"
)

func TestBuildReminderSchedule(t *testing.T) {
	renewal := time.Date(2026, time.March, 10, 9, 30, 0, 0, time.UTC)

	milestones := BuildReminderSchedule(renewal)
	require.Len(t, milestones, 4)

	wantDays := []int{7, 5, 2, 1}
	for i, m := range milestones {
		assert.Equal(t, wantDays[i], m.DaysBefore)
		assert.Equal(t, renewal.AddDate(0, 0, -wantDays[i]), m.At)
		assert.Equal(t, types.ReminderOutcomePending, m.Outcome)
	}
	assert.Equal(t, types.ReminderTypeSevenDay, milestones[0].Type)
	assert.Equal(t, types.ReminderTypeOneDay, milestones[3].Type)
	assert.Equal(t, time.Date(2026, time.March, 3, 9, 30, 0, 0, time.UTC), milestones[0].At)
}

func TestReminderWorkflowState(t *testing.T) {
	state := NewReminderWorkflowState("subs_1")
	assert.Equal(t, types.ReminderRunPhaseFetching, state.Phase)
	assert.Nil(t, state.Current())

	state.Milestones = BuildReminderSchedule(time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC))

	at := time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC)
	state.Resolve(types.ReminderOutcomeSent, "", "msg_1", &at)
	state.Resolve(types.ReminderOutcomeFailed, "smtp down", "", &at)
	state.Resolve(types.ReminderOutcomeSkipped, "", "", nil)

	require.NotNil(t, state.Current())
	assert.Equal(t, types.ReminderTypeOneDay, state.Current().Type)
	assert.Equal(t, 1, state.CountByOutcome(types.ReminderOutcomeSent))
	assert.Equal(t, "smtp down", state.Milestones[1].Reason)

	state.Resolve(types.ReminderOutcomeSent, "", "msg_2", &at)
	assert.Nil(t, state.Current())

	// resolving past the end is a no-op
	state.Resolve(types.ReminderOutcomeSent, "", "msg_3", &at)
	assert.Equal(t, 4, state.NextIndex)

	result := ResultFromState(state, at)
	assert.Equal(t, types.ReminderRunOutcomeCompleted, result.Outcome)
	assert.Equal(t, 2, result.SentCount)
}

func TestReminderWorkflowState_Terminate(t *testing.T) {
	state := NewReminderWorkflowState("subs_1")
	state.Milestones = BuildReminderSchedule(time.Now().Add(10 * 24 * time.Hour))
	state.Resolve(types.ReminderOutcomeSent, "", "msg_1", nil)

	state.Terminate(types.ReminderTerminationCancelledMidway)

	result := ResultFromState(state, time.Now())
	assert.Equal(t, types.ReminderRunOutcomeTerminated, result.Outcome)
	assert.Equal(t, types.ReminderTerminationCancelledMidway, result.Reason)
	assert.Equal(t, 3, state.CountByOutcome(types.ReminderOutcomePending))
}

func TestReminderWorkflowInput_Validate(t *testing.T) {
	assert.Error(t, (&ReminderWorkflowInput{}).Validate())
	assert.NoError(t, (&ReminderWorkflowInput{SubscriptionID: "subs_1"}).Validate())
}
