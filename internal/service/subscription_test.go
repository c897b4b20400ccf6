package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"github.com/subtrack/subtrack/internal/api/dto"
	"github.com/subtrack/subtrack/internal/domain/subscription"
	ierr "github.com/subtrack/subtrack/internal/errors"
	"github.com/subtrack/subtrack/internal/types"
)

type SubscriptionServiceSuite struct {
	ServiceTestSuite
	service SubscriptionService
}

func TestSubscriptionService(t *testing.T) {
	suite.Run(t, new(SubscriptionServiceSuite))
}

func (s *SubscriptionServiceSuite) SetupTest() {
	s.ServiceTestSuite.SetupTest()
	s.service = NewSubscriptionService(s.params, NewReminderService(s.params))
}

func (s *SubscriptionServiceSuite) createRequest() dto.CreateSubscriptionRequest {
	return dto.CreateSubscriptionRequest{
		Name:          "  Netflix ",
		Price:         decimal.NewFromInt(649),
		Frequency:     types.SubscriptionFrequencyMonthly,
		Category:      types.SubscriptionCategoryEntertainment,
		PaymentMethod: "UPI",
	}
}

func (s *SubscriptionServiceSuite) storeSubscription(id, userID string, status types.SubscriptionStatus, renewal time.Time) *subscription.Subscription {
	now := time.Now().UTC()
	sub := &subscription.Subscription{
		ID:            id,
		UserID:        userID,
		Name:          "Spotify",
		Price:         decimal.NewFromInt(119),
		Currency:      types.CurrencyINR,
		Frequency:     types.SubscriptionFrequencyMonthly,
		Category:      types.SubscriptionCategoryEntertainment,
		PaymentMethod: "Card",
		Status:        status,
		StartDate:     now.AddDate(0, 0, -10),
		RenewalDate:   renewal,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.Require().NoError(s.subStore.Create(s.GetContext(), sub))
	return sub
}

func (s *SubscriptionServiceSuite) TestCreateSubscription_StartsReminders() {
	resp, err := s.service.CreateSubscription(s.GetContext(), s.createRequest())
	s.Require().NoError(err)

	sub := resp.Subscription
	s.Equal("Netflix", sub.Name)
	s.Equal(testUserID, sub.UserID)
	s.Equal(types.CurrencyINR, sub.Currency)
	s.Equal(types.SubscriptionStatusActive, sub.Status)
	s.Equal(types.SubscriptionFrequencyMonthly.AddPeriod(sub.StartDate), sub.RenewalDate)
	s.Empty(resp.Warning)

	s.Equal(types.TemporalSubscriptionReminderWorkflow.WorkflowID(sub.ID), resp.WorkflowID)
	s.Equal("run_"+sub.ID, resp.WorkflowRunID)

	started := s.temporal.Started()
	s.Require().Len(started, 1)
	s.Equal(sub.ID, started[0].SubscriptionID)
	s.Equal(testUserID, started[0].UserID)

	stored, err := s.subStore.Get(s.GetContext(), sub.ID)
	s.Require().NoError(err)
	s.Equal("Netflix", stored.Name)
}

func (s *SubscriptionServiceSuite) TestCreateSubscription_TriggerFailureReturnsWarning() {
	s.temporal.err = errors.New("temporal unavailable")

	resp, err := s.service.CreateSubscription(s.GetContext(), s.createRequest())
	s.Require().NoError(err)
	s.Equal(reminderTriggerWarning, resp.Warning)
	s.Empty(resp.WorkflowRunID)

	_, err = s.subStore.Get(s.GetContext(), resp.Subscription.ID)
	s.NoError(err)
}

func (s *SubscriptionServiceSuite) TestCreateSubscription_ExpiredOnArrivalSkipsReminders() {
	req := s.createRequest()
	req.StartDate = lo.ToPtr(time.Now().UTC().AddDate(0, -2, 0))

	resp, err := s.service.CreateSubscription(s.GetContext(), req)
	s.Require().NoError(err)
	s.Equal(types.SubscriptionStatusExpired, resp.Subscription.Status)
	s.Empty(resp.Warning)
	s.Empty(s.temporal.Started())
}

func (s *SubscriptionServiceSuite) TestCreateSubscription_Validation() {
	tests := []struct {
		name   string
		mutate func(r *dto.CreateSubscriptionRequest)
	}{
		{"short name", func(r *dto.CreateSubscriptionRequest) { r.Name = "N" }},
		{"negative price", func(r *dto.CreateSubscriptionRequest) { r.Price = decimal.NewFromInt(-5) }},
		{"unknown frequency", func(r *dto.CreateSubscriptionRequest) { r.Frequency = "hourly" }},
		{"unknown category", func(r *dto.CreateSubscriptionRequest) { r.Category = "games" }},
		{"unknown currency", func(r *dto.CreateSubscriptionRequest) { r.Currency = "GBP" }},
		{"missing payment method", func(r *dto.CreateSubscriptionRequest) { r.PaymentMethod = "" }},
		{"future start", func(r *dto.CreateSubscriptionRequest) { r.StartDate = lo.ToPtr(time.Now().Add(48 * time.Hour)) }},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			req := s.createRequest()
			tt.mutate(&req)
			_, err := s.service.CreateSubscription(s.GetContext(), req)
			s.Require().Error(err)
			s.True(ierr.IsValidation(err), err.Error())
		})
	}
	s.Empty(s.temporal.Started())
}

func (s *SubscriptionServiceSuite) TestGetSubscription_OwnerScoped() {
	renewal := time.Now().UTC().AddDate(0, 0, 20)
	s.storeSubscription("subs_mine", testUserID, types.SubscriptionStatusActive, renewal)
	s.storeSubscription("subs_theirs", "user_other", types.SubscriptionStatusActive, renewal)

	got, err := s.service.GetSubscription(s.GetContext(), "subs_mine")
	s.Require().NoError(err)
	s.Equal("subs_mine", got.ID)

	_, err = s.service.GetSubscription(s.GetContext(), "subs_theirs")
	s.Require().Error(err)
	s.True(ierr.IsNotFound(err))

	_, err = s.service.GetSubscription(s.GetContext(), "subs_missing")
	s.Require().Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *SubscriptionServiceSuite) TestListSubscriptions() {
	renewal := time.Now().UTC().AddDate(0, 0, 20)
	s.storeSubscription("subs_1", testUserID, types.SubscriptionStatusActive, renewal)
	s.storeSubscription("subs_2", testUserID, types.SubscriptionStatusCancelled, renewal)
	s.storeSubscription("subs_3", "user_other", types.SubscriptionStatusActive, renewal)

	resp, err := s.service.ListSubscriptions(s.GetContext(), &dto.ListSubscriptionsRequest{})
	s.Require().NoError(err)
	s.Len(resp.Items, 2)
	s.Equal(2, resp.Pagination.Total)

	resp, err = s.service.ListSubscriptions(s.GetContext(), &dto.ListSubscriptionsRequest{
		Status: []types.SubscriptionStatus{types.SubscriptionStatusActive},
	})
	s.Require().NoError(err)
	s.Require().Len(resp.Items, 1)
	s.Equal("subs_1", resp.Items[0].ID)
}

func (s *SubscriptionServiceSuite) TestListUserSubscriptions_OtherUserIsForbidden() {
	_, err := s.service.ListUserSubscriptions(s.GetContext(), "user_other", nil)
	s.Require().Error(err)
	s.True(ierr.IsPermissionDenied(err))

	resp, err := s.service.ListUserSubscriptions(s.GetContext(), testUserID, nil)
	s.Require().NoError(err)
	s.Empty(resp.Items)
}

func (s *SubscriptionServiceSuite) TestListUpcomingRenewals() {
	now := time.Now().UTC()
	s.storeSubscription("subs_soon", testUserID, types.SubscriptionStatusActive, now.AddDate(0, 0, 3))
	s.storeSubscription("subs_later", testUserID, types.SubscriptionStatusActive, now.AddDate(0, 0, 20))
	s.storeSubscription("subs_cancelled", testUserID, types.SubscriptionStatusCancelled, now.AddDate(0, 0, 2))
	s.storeSubscription("subs_other", "user_other", types.SubscriptionStatusActive, now.AddDate(0, 0, 1))

	resp, err := s.service.ListUpcomingRenewals(s.GetContext())
	s.Require().NoError(err)
	s.Require().Len(resp.Items, 1)
	s.Equal("subs_soon", resp.Items[0].ID)
}

func (s *SubscriptionServiceSuite) TestCancelSubscription() {
	s.storeSubscription("subs_1", testUserID, types.SubscriptionStatusActive, time.Now().UTC().AddDate(0, 0, 20))

	resp, err := s.service.CancelSubscription(s.GetContext(), "subs_1")
	s.Require().NoError(err)
	s.Equal(types.SubscriptionStatusCancelled, resp.Status)

	_, err = s.service.CancelSubscription(s.GetContext(), "subs_1")
	s.Require().Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *SubscriptionServiceSuite) TestDeleteSubscription() {
	renewal := time.Now().UTC().AddDate(0, 0, 20)
	s.storeSubscription("subs_1", testUserID, types.SubscriptionStatusActive, renewal)
	s.storeSubscription("subs_other", "user_other", types.SubscriptionStatusActive, renewal)

	s.Require().NoError(s.service.DeleteSubscription(s.GetContext(), "subs_1"))
	_, err := s.subStore.Get(s.GetContext(), "subs_1")
	s.True(ierr.IsNotFound(err))

	err = s.service.DeleteSubscription(s.GetContext(), "subs_other")
	s.Require().Error(err)
	s.True(ierr.IsNotFound(err))
	_, err = s.subStore.Get(s.GetContext(), "subs_other")
	s.NoError(err)
}

func (s *SubscriptionServiceSuite) TestTriggerReminders() {
	renewal := time.Now().UTC().AddDate(0, 0, 20)
	s.storeSubscription("subs_1", testUserID, types.SubscriptionStatusActive, renewal)
	s.storeSubscription("subs_cancelled", testUserID, types.SubscriptionStatusCancelled, renewal)

	run, err := s.service.TriggerReminders(s.GetContext(), "subs_1")
	s.Require().NoError(err)
	s.Equal("subs_1", run.SubscriptionID)
	s.Equal(types.TemporalSubscriptionReminderWorkflow.WorkflowID("subs_1"), run.WorkflowID)

	_, err = s.service.TriggerReminders(s.GetContext(), "subs_1")
	s.Require().Error(err)
	s.True(ierr.IsAlreadyExists(err))

	_, err = s.service.TriggerReminders(s.GetContext(), "subs_cancelled")
	s.Require().Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *SubscriptionServiceSuite) TestExportSubscriptions() {
	now := time.Now().UTC()
	s.storeSubscription("subs_late", testUserID, types.SubscriptionStatusActive, now.AddDate(0, 0, 20))
	s.storeSubscription("subs_soon", testUserID, types.SubscriptionStatusCancelled, now.AddDate(0, 0, 3))
	s.storeSubscription("subs_other", "user_other", types.SubscriptionStatusActive, now.AddDate(0, 0, 5))

	data, total, err := s.service.ExportSubscriptions(s.GetContext(), nil)
	s.Require().NoError(err)
	s.Equal(2, total)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	s.Require().Len(lines, 3)
	s.Equal("id,name,price,currency,frequency,category,payment_method,status,start_date,renewal_date", lines[0])
	s.True(strings.HasPrefix(lines[1], "subs_soon,Spotify,119.00,INR,"))
	s.True(strings.HasPrefix(lines[2], "subs_late,"))

	data, total, err = s.service.ExportSubscriptions(s.GetContext(), &dto.ExportSubscriptionsRequest{
		Status: []types.SubscriptionStatus{types.SubscriptionStatusActive},
	})
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Contains(string(data), "subs_late")
	s.NotContains(string(data), "subs_soon")

	_, _, err = s.service.ExportSubscriptions(s.GetContext(), &dto.ExportSubscriptionsRequest{
		Status: []types.SubscriptionStatus{"paused"},
	})
	s.Require().Error(err)
	s.True(ierr.IsValidation(err))
}
