package service

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/subtrack/subtrack/internal/api/dto"
	"github.com/subtrack/subtrack/internal/domain/subscription"
	ierr "github.com/subtrack/subtrack/internal/errors"
	"github.com/subtrack/subtrack/internal/types"
)

const (
	expenseMonths = 12
	expenseYears  = 5

	monthLabelLayout = "Jan 2006"
)

var categoryPalette = []string{
	"#8884d8", "#82ca9d", "#ffc658", "#ff7300",
	"#00ff00", "#ff00ff", "#00ffff", "#ffff00",
}

// AnalyticsService reports the spend of the caller's active subscriptions. Prices are summed
// as-is; currencies are not converted.
type AnalyticsService interface {
	GetExpenses(ctx context.Context, period types.ExpensePeriod) (*dto.ExpensesResponse, error)
	GetCategoryBreakdown(ctx context.Context) (*dto.CategoriesResponse, error)
}

type analyticsService struct {
	ServiceParams
	now func() time.Time
}

func NewAnalyticsService(params ServiceParams) AnalyticsService {
	return &analyticsService{
		ServiceParams: params,
		now:           time.Now,
	}
}

// GetExpenses buckets spend by month (last 12 months) or by year (last 5 years). Every
// active subscription adds its per-bucket cost to each bucket from the one it started in.
func (s *analyticsService) GetExpenses(ctx context.Context, period types.ExpensePeriod) (*dto.ExpensesResponse, error) {
	if period == "" {
		period = types.ExpensePeriodMonthly
	}
	if err := period.Validate(); err != nil {
		return nil, err
	}

	subs, err := s.activeSubscriptions(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	var buckets []dto.ExpenseBucket
	switch period {
	case types.ExpensePeriodYearly:
		buckets = yearlyExpenses(subs, now)
	default:
		buckets = monthlyExpenses(subs, now)
	}

	return &dto.ExpensesResponse{
		Period:  period,
		Buckets: buckets,
	}, nil
}

func monthlyExpenses(subs []*subscription.Subscription, now time.Time) []dto.ExpenseBucket {
	current := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	buckets := make([]dto.ExpenseBucket, 0, expenseMonths)

	for i := expenseMonths - 1; i >= 0; i-- {
		month := current.AddDate(0, -i, 0)
		total := decimal.Zero
		for _, sub := range subs {
			start := sub.StartDate.UTC()
			startMonth := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
			if startMonth.After(month) {
				continue
			}
			total = total.Add(MonthlyCost(sub))
		}
		buckets = append(buckets, dto.ExpenseBucket{
			Label:  month.Format(monthLabelLayout),
			Amount: total.Round(2),
		})
	}
	return buckets
}

func yearlyExpenses(subs []*subscription.Subscription, now time.Time) []dto.ExpenseBucket {
	buckets := make([]dto.ExpenseBucket, 0, expenseYears)

	for i := expenseYears - 1; i >= 0; i-- {
		year := now.Year() - i
		total := decimal.Zero
		for _, sub := range subs {
			if sub.StartDate.UTC().Year() > year {
				continue
			}
			total = total.Add(YearlyCost(sub))
		}
		buckets = append(buckets, dto.ExpenseBucket{
			Label:  strconv.Itoa(year),
			Amount: total.Round(2),
		})
	}
	return buckets
}

// GetCategoryBreakdown totals the monthly cost per category, ordered by category name
func (s *analyticsService) GetCategoryBreakdown(ctx context.Context) (*dto.CategoriesResponse, error) {
	subs, err := s.activeSubscriptions(ctx)
	if err != nil {
		return nil, err
	}

	totals := make(map[types.SubscriptionCategory]decimal.Decimal)
	for _, sub := range subs {
		totals[sub.Category] = totals[sub.Category].Add(MonthlyCost(sub))
	}

	categories := lo.Keys(totals)
	sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })

	items := make([]dto.CategorySpend, 0, len(categories))
	for i, category := range categories {
		items = append(items, dto.CategorySpend{
			Name:   titleCase(string(category)),
			Amount: totals[category].Round(2),
			Color:  categoryPalette[i%len(categoryPalette)],
		})
	}

	return &dto.CategoriesResponse{Items: items}, nil
}

func (s *analyticsService) activeSubscriptions(ctx context.Context) ([]*subscription.Subscription, error) {
	userID := types.GetUserID(ctx)
	if userID == "" {
		return nil, ierr.NewError("user_id is required").
			WithHint("User ID must be present in context").
			Mark(ierr.ErrUnauthorized)
	}

	filter := types.NewNoLimitSubscriptionFilter()
	filter.UserID = userID
	filter.SubscriptionStatus = []types.SubscriptionStatus{types.SubscriptionStatusActive}
	return s.SubRepo.List(ctx, filter)
}

// MonthlyCost is the price of a subscription spread over one month
func MonthlyCost(sub *subscription.Subscription) decimal.Decimal {
	switch sub.Frequency {
	case types.SubscriptionFrequencyDaily:
		return sub.Price.Mul(decimal.NewFromInt(30))
	case types.SubscriptionFrequencyWeekly:
		return sub.Price.Mul(decimal.RequireFromString("4.33"))
	case types.SubscriptionFrequencyMonthly:
		return sub.Price
	case types.SubscriptionFrequencyYearly:
		return sub.Price.Div(decimal.NewFromInt(12))
	default:
		return decimal.Zero
	}
}

// YearlyCost is the price of a subscription over one year
func YearlyCost(sub *subscription.Subscription) decimal.Decimal {
	switch sub.Frequency {
	case types.SubscriptionFrequencyDaily:
		return sub.Price.Mul(decimal.NewFromInt(365))
	case types.SubscriptionFrequencyWeekly:
		return sub.Price.Mul(decimal.NewFromInt(52))
	case types.SubscriptionFrequencyMonthly:
		return sub.Price.Mul(decimal.NewFromInt(12))
	case types.SubscriptionFrequencyYearly:
		return sub.Price
	default:
		return decimal.Zero
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
