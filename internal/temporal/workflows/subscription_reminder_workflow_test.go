package workflows

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/subtrack/subtrack/internal/domain/subscription"
	"github.com/subtrack/subtrack/internal/logger"
	"github.com/subtrack/subtrack/internal/temporal/activities/reminder"
	"github.com/subtrack/subtrack/internal/temporal/models"
	"github.com/subtrack/subtrack/internal/testutil"
	"github.com/subtrack/subtrack/internal/types"
	"go.temporal.io/sdk/testsuite"
)

// recordingDispatcher records every dispatch and fails the calls listed in failOn
type recordingDispatcher struct {
	mu     sync.Mutex
	calls  []types.ReminderType
	failOn map[int]string
}

func (d *recordingDispatcher) Dispatch(_ context.Context, reminderType types.ReminderType, _ models.SubscriptionSnapshot) models.DispatchResult {
	d.mu.Lock()
	defer d.mu.Unlock()

	idx := len(d.calls)
	d.calls = append(d.calls, reminderType)
	if reason, ok := d.failOn[idx]; ok {
		return models.DispatchResult{Sent: false, Reason: reason}
	}
	return models.DispatchResult{Sent: true, MessageID: "msg_" + string(reminderType)}
}

func (d *recordingDispatcher) Calls() []types.ReminderType {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]types.ReminderType(nil), d.calls...)
}

type ReminderWorkflowTestSuite struct {
	suite.Suite
	testsuite.WorkflowTestSuite

	env        *testsuite.TestWorkflowEnvironment
	store      *testutil.InMemorySubscriptionStore
	dispatcher *recordingDispatcher
	start      time.Time
}

func TestReminderWorkflow(t *testing.T) {
	suite.Run(t, new(ReminderWorkflowTestSuite))
}

func (s *ReminderWorkflowTestSuite) SetupTest() {
	s.env = s.NewTestWorkflowEnvironment()
	s.start = time.Now().UTC().Truncate(time.Second)
	s.env.SetStartTime(s.start)

	s.store = testutil.NewInMemorySubscriptionStore()
	s.dispatcher = &recordingDispatcher{failOn: map[int]string{}}

	s.env.RegisterWorkflow(SubscriptionReminderWorkflow)
	s.env.RegisterActivity(reminder.NewReminderActivities(s.store, s.dispatcher, logger.GetLogger()))
}

func (s *ReminderWorkflowTestSuite) TearDownTest() {
	s.env.AssertExpectations(s.T())
}

func (s *ReminderWorkflowTestSuite) createSubscription(id string, renewal time.Time, status types.SubscriptionStatus) {
	sub := &subscription.Subscription{
		ID:            id,
		UserID:        "user_1",
		Name:          "Netflix",
		Price:         decimal.NewFromInt(499),
		Currency:      types.CurrencyINR,
		Frequency:     types.SubscriptionFrequencyMonthly,
		Category:      types.SubscriptionCategoryEntertainment,
		PaymentMethod: "Card",
		Status:        status,
		StartDate:     s.start.Add(-24 * time.Hour),
		RenewalDate:   renewal,
		CreatedAt:     s.start,
		UpdatedAt:     s.start,
	}
	s.Require().NoError(s.store.Create(context.Background(), sub))
}

func (s *ReminderWorkflowTestSuite) execute(subscriptionID string) *models.ReminderWorkflowResult {
	s.env.ExecuteWorkflow(SubscriptionReminderWorkflow, models.ReminderWorkflowInput{
		SubscriptionID: subscriptionID,
		UserID:         "user_1",
	})
	s.Require().True(s.env.IsWorkflowCompleted())
	s.Require().NoError(s.env.GetWorkflowError())

	var result models.ReminderWorkflowResult
	s.Require().NoError(s.env.GetWorkflowResult(&result))
	return &result
}

func (s *ReminderWorkflowTestSuite) TestAllMilestonesFireInOrder() {
	renewal := s.start.Add(8 * 24 * time.Hour)
	s.createSubscription("subs_1", renewal, types.SubscriptionStatusActive)

	result := s.execute("subs_1")

	s.Equal(types.ReminderRunOutcomeCompleted, result.Outcome)
	s.Equal(4, result.SentCount)
	s.Equal(types.ReminderTypes(), s.dispatcher.Calls())

	s.Require().Len(result.Milestones, 4)
	for _, m := range result.Milestones {
		s.Equal(types.ReminderOutcomeSent, m.Outcome)
		s.Equal(renewal.AddDate(0, 0, -m.DaysBefore), m.At)
		s.Require().NotNil(m.DispatchedAt)
		s.WithinDuration(m.At, *m.DispatchedAt, time.Minute)
		s.Equal("msg_"+string(m.Type), m.MessageID)
	}
}

func (s *ReminderWorkflowTestSuite) TestCancelledMidwayStopsLaterMilestones() {
	renewal := s.start.Add(8 * 24 * time.Hour)
	s.createSubscription("subs_1", renewal, types.SubscriptionStatusActive)

	// between the 5-day (start+3d) and 2-day (start+6d) milestones
	s.env.RegisterDelayedCallback(func() {
		_, err := s.store.UpdateStatus(context.Background(), "subs_1", types.SubscriptionStatusCancelled)
		s.NoError(err)
	}, 4*24*time.Hour)

	result := s.execute("subs_1")

	s.Equal(types.ReminderRunOutcomeTerminated, result.Outcome)
	s.Equal(types.ReminderTerminationCancelledMidway, result.Reason)
	s.Equal([]types.ReminderType{types.ReminderTypeSevenDay, types.ReminderTypeFiveDay}, s.dispatcher.Calls())
	s.LessOrEqual(result.SentCount, 2)
	s.Equal(types.ReminderOutcomePending, result.Milestones[2].Outcome)
	s.Equal(types.ReminderOutcomePending, result.Milestones[3].Outcome)
}

func (s *ReminderWorkflowTestSuite) TestFailedDispatchDoesNotStopTheRun() {
	s.createSubscription("subs_1", s.start.Add(8*24*time.Hour), types.SubscriptionStatusActive)
	s.dispatcher.failOn[0] = "recipient not found"

	result := s.execute("subs_1")

	s.Equal(types.ReminderRunOutcomeCompleted, result.Outcome)
	s.Equal(types.ReminderTypes(), s.dispatcher.Calls())
	s.Equal(3, result.SentCount)
	s.Equal(types.ReminderOutcomeFailed, result.Milestones[0].Outcome)
	s.Equal("recipient not found", result.Milestones[0].Reason)
	s.Equal(types.ReminderOutcomeSent, result.Milestones[1].Outcome)
}

func (s *ReminderWorkflowTestSuite) TestDispatchActivityErrorIsRecorded() {
	s.createSubscription("subs_1", s.start.Add(8*24*time.Hour), types.SubscriptionStatusActive)

	s.env.OnActivity(ActivitySendReminder, mock.Anything, mock.Anything).
		Return((*models.DispatchResult)(nil), errors.New("transport exploded")).Once()
	s.env.OnActivity(ActivitySendReminder, mock.Anything, mock.Anything).
		Return(&models.DispatchResult{Sent: true, MessageID: "msg"}, nil)

	result := s.execute("subs_1")

	s.Equal(types.ReminderRunOutcomeCompleted, result.Outcome)
	s.Equal(3, result.SentCount)
	s.Equal(types.ReminderOutcomeFailed, result.Milestones[0].Outcome)
	s.Contains(result.Milestones[0].Reason, "transport exploded")
}

func (s *ReminderWorkflowTestSuite) TestPastDueMilestonesAreSkipped() {
	s.createSubscription("subs_1", s.start.Add(25*time.Hour), types.SubscriptionStatusActive)

	result := s.execute("subs_1")

	s.Equal(types.ReminderRunOutcomeCompleted, result.Outcome)
	s.Equal([]types.ReminderType{types.ReminderTypeOneDay}, s.dispatcher.Calls())
	s.Equal(1, result.SentCount)
	for _, m := range result.Milestones[:3] {
		s.Equal(types.ReminderOutcomeSkipped, m.Outcome)
		s.Equal(reasonPastDue, m.Reason)
		s.Nil(m.DispatchedAt)
	}
}

func (s *ReminderWorkflowTestSuite) TestMissingSubscriptionTerminates() {
	result := s.execute("subs_missing")

	s.Equal(types.ReminderRunOutcomeTerminated, result.Outcome)
	s.Equal(types.ReminderTerminationNotFound, result.Reason)
	s.Empty(s.dispatcher.Calls())
	s.Empty(result.Milestones)
}

func (s *ReminderWorkflowTestSuite) TestInactiveSubscriptionTerminates() {
	s.createSubscription("subs_1", s.start.Add(8*24*time.Hour), types.SubscriptionStatusCancelled)

	result := s.execute("subs_1")

	s.Equal(types.ReminderRunOutcomeTerminated, result.Outcome)
	s.Equal(types.ReminderTerminationNotActive, result.Reason)
	s.Empty(s.dispatcher.Calls())
}

func (s *ReminderWorkflowTestSuite) TestRenewalAlreadyPassedTerminates() {
	s.createSubscription("subs_1", s.start.Add(8*24*time.Hour), types.SubscriptionStatusActive)
	// the run starts after the renewal date while the record still reads active
	s.env.SetStartTime(s.start.Add(30 * 24 * time.Hour))

	result := s.execute("subs_1")

	s.Equal(types.ReminderRunOutcomeTerminated, result.Outcome)
	s.Equal(types.ReminderTerminationRenewalPassed, result.Reason)
	s.Empty(s.dispatcher.Calls())
}

func (s *ReminderWorkflowTestSuite) TestStoreFailureTerminates() {
	s.createSubscription("subs_1", s.start.Add(8*24*time.Hour), types.SubscriptionStatusActive)
	s.store.FailGetWith(errors.New("connection refused"))

	result := s.execute("subs_1")

	s.Equal(types.ReminderRunOutcomeTerminated, result.Outcome)
	s.Equal(types.ReminderTerminationFetchFailed, result.Reason)
	s.Empty(s.dispatcher.Calls())
}

func (s *ReminderWorkflowTestSuite) TestStateIsQueryableWhileWaiting() {
	renewal := s.start.Add(8 * 24 * time.Hour)
	s.createSubscription("subs_1", renewal, types.SubscriptionStatusActive)

	var state models.ReminderWorkflowState
	s.env.RegisterDelayedCallback(func() {
		value, err := s.env.QueryWorkflow(models.ReminderStateQuery)
		s.Require().NoError(err)
		s.Require().NoError(value.Get(&state))
	}, 2*24*time.Hour)

	s.execute("subs_1")

	s.Equal("subs_1", state.SubscriptionID)
	s.Equal(types.ReminderRunPhaseWaiting, state.Phase)
	s.Equal(1, state.NextIndex)
	s.Equal(types.ReminderOutcomeSent, state.Milestones[0].Outcome)
	s.Require().NotNil(state.ResumeAt)
	s.Equal(renewal.AddDate(0, 0, -5), *state.ResumeAt)
}

func (s *ReminderWorkflowTestSuite) TestInvalidInputFails() {
	s.env.ExecuteWorkflow(SubscriptionReminderWorkflow, models.ReminderWorkflowInput{})

	s.True(s.env.IsWorkflowCompleted())
	s.Error(s.env.GetWorkflowError())
	s.Empty(s.dispatcher.Calls())
}
