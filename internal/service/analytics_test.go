package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"github.com/subtrack/subtrack/internal/domain/subscription"
	ierr "github.com/subtrack/subtrack/internal/errors"
	"github.com/subtrack/subtrack/internal/types"
)

type AnalyticsServiceSuite struct {
	ServiceTestSuite
	service *analyticsService
	now     time.Time
}

func TestAnalyticsService(t *testing.T) {
	suite.Run(t, new(AnalyticsServiceSuite))
}

func (s *AnalyticsServiceSuite) SetupTest() {
	s.ServiceTestSuite.SetupTest()
	s.now = time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
	s.service = NewAnalyticsService(s.params).(*analyticsService)
	s.service.now = func() time.Time { return s.now }
}

func (s *AnalyticsServiceSuite) add(id string, price int64, freq types.SubscriptionFrequency, category types.SubscriptionCategory, start time.Time, status types.SubscriptionStatus) {
	s.Require().NoError(s.subStore.Create(s.GetContext(), &subscription.Subscription{
		ID:            id,
		UserID:        testUserID,
		Name:          id,
		Price:         decimal.NewFromInt(price),
		Currency:      types.CurrencyINR,
		Frequency:     freq,
		Category:      category,
		PaymentMethod: "Card",
		Status:        status,
		StartDate:     start,
		// far enough ahead that lazy expiry never kicks in
		RenewalDate: time.Date(2099, time.January, 1, 0, 0, 0, 0, time.UTC),
	}))
}

func (s *AnalyticsServiceSuite) assertAmount(expected string, actual decimal.Decimal) {
	s.True(decimal.RequireFromString(expected).Equal(actual), "expected %s, got %s", expected, actual)
}

func (s *AnalyticsServiceSuite) TestMonthlyExpenses() {
	s.add("monthly", 100, types.SubscriptionFrequencyMonthly, types.SubscriptionCategoryEntertainment,
		time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC), types.SubscriptionStatusActive)
	s.add("yearly", 120, types.SubscriptionFrequencyYearly, types.SubscriptionCategoryTechnology,
		time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), types.SubscriptionStatusActive)
	s.add("cancelled", 999, types.SubscriptionFrequencyMonthly, types.SubscriptionCategoryNews,
		time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), types.SubscriptionStatusCancelled)

	resp, err := s.service.GetExpenses(s.GetContext(), types.ExpensePeriodMonthly)
	s.Require().NoError(err)
	s.Equal(types.ExpensePeriodMonthly, resp.Period)
	s.Require().Len(resp.Buckets, 12)

	s.Equal("Jul 2024", resp.Buckets[0].Label)
	s.Equal("Jun 2025", resp.Buckets[11].Label)

	s.assertAmount("10", resp.Buckets[0].Amount)
	s.assertAmount("10", resp.Buckets[7].Amount)
	s.Equal("Mar 2025", resp.Buckets[8].Label)
	s.assertAmount("110", resp.Buckets[8].Amount)
	s.assertAmount("110", resp.Buckets[11].Amount)
}

func (s *AnalyticsServiceSuite) TestMonthlyExpenses_FrequencyConversion() {
	start := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	s.add("daily", 2, types.SubscriptionFrequencyDaily, types.SubscriptionCategoryOthers, start, types.SubscriptionStatusActive)
	s.add("weekly", 10, types.SubscriptionFrequencyWeekly, types.SubscriptionCategoryOthers, start, types.SubscriptionStatusActive)

	resp, err := s.service.GetExpenses(s.GetContext(), "")
	s.Require().NoError(err)
	s.Equal(types.ExpensePeriodMonthly, resp.Period)

	// 2*30 + 10*4.33
	s.assertAmount("103.3", resp.Buckets[11].Amount)
	s.assertAmount("0", resp.Buckets[10].Amount)
}

func (s *AnalyticsServiceSuite) TestYearlyExpenses() {
	s.add("monthly", 100, types.SubscriptionFrequencyMonthly, types.SubscriptionCategoryEntertainment,
		time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC), types.SubscriptionStatusActive)
	s.add("yearly", 120, types.SubscriptionFrequencyYearly, types.SubscriptionCategoryTechnology,
		time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), types.SubscriptionStatusActive)

	resp, err := s.service.GetExpenses(s.GetContext(), types.ExpensePeriodYearly)
	s.Require().NoError(err)
	s.Require().Len(resp.Buckets, 5)

	s.Equal("2021", resp.Buckets[0].Label)
	s.Equal("2025", resp.Buckets[4].Label)
	s.assertAmount("0", resp.Buckets[2].Amount)
	s.assertAmount("120", resp.Buckets[3].Amount)
	s.assertAmount("1320", resp.Buckets[4].Amount)
}

func (s *AnalyticsServiceSuite) TestExpenses_InvalidPeriod() {
	_, err := s.service.GetExpenses(s.GetContext(), "weekly")
	s.Require().Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *AnalyticsServiceSuite) TestCategoryBreakdown() {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	s.add("netflix", 100, types.SubscriptionFrequencyMonthly, types.SubscriptionCategoryEntertainment, start, types.SubscriptionStatusActive)
	s.add("prime", 1200, types.SubscriptionFrequencyYearly, types.SubscriptionCategoryEntertainment, start, types.SubscriptionStatusActive)
	s.add("times", 10, types.SubscriptionFrequencyWeekly, types.SubscriptionCategoryNews, start, types.SubscriptionStatusActive)
	s.add("github", 120, types.SubscriptionFrequencyYearly, types.SubscriptionCategoryTechnology, start, types.SubscriptionStatusActive)
	s.add("old", 500, types.SubscriptionFrequencyMonthly, types.SubscriptionCategoryFinance, start, types.SubscriptionStatusCancelled)

	resp, err := s.service.GetCategoryBreakdown(s.GetContext())
	s.Require().NoError(err)
	s.Require().Len(resp.Items, 3)

	s.Equal("Entertainment", resp.Items[0].Name)
	s.assertAmount("200", resp.Items[0].Amount)
	s.Equal("#8884d8", resp.Items[0].Color)

	s.Equal("News", resp.Items[1].Name)
	s.assertAmount("43.3", resp.Items[1].Amount)
	s.Equal("#82ca9d", resp.Items[1].Color)

	s.Equal("Technology", resp.Items[2].Name)
	s.assertAmount("10", resp.Items[2].Amount)
	s.Equal("#ffc658", resp.Items[2].Color)
}

func (s *AnalyticsServiceSuite) TestRequiresUser() {
	_, err := s.service.GetCategoryBreakdown(types.SetUserID(s.GetContext(), ""))
	s.Require().Error(err)
	s.True(ierr.IsUnauthorized(err))
}
