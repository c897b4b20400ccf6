package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/subtrack/subtrack/internal/domain/subscription"
	ierr "github.com/subtrack/subtrack/internal/errors"
	"github.com/subtrack/subtrack/internal/types"
)

// InMemorySubscriptionStore implements subscription.Repository with the same lifecycle
// rules as the mongo repository
type InMemorySubscriptionStore struct {
	*InMemoryStore[*subscription.Subscription]

	// writeMu serializes read-modify-write sequences so the conditional expiry flip
	// behaves like the atomic update in mongo
	writeMu sync.Mutex
	now     func() time.Time
	failGet error
}

var _ subscription.Repository = (*InMemorySubscriptionStore)(nil)

func NewInMemorySubscriptionStore() *InMemorySubscriptionStore {
	return &InMemorySubscriptionStore{
		InMemoryStore: NewInMemoryStore[*subscription.Subscription](),
		now:           time.Now,
	}
}

// SetClock overrides the clock used for lazy expiry
func (s *InMemorySubscriptionStore) SetClock(now func() time.Time) {
	s.now = now
}

// FailGetWith makes every Get return err until called again with nil
func (s *InMemorySubscriptionStore) FailGetWith(err error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.failGet = err
}

func copySubscription(sub *subscription.Subscription) *subscription.Subscription {
	if sub == nil {
		return nil
	}
	copied := *sub
	return &copied
}

func (s *InMemorySubscriptionStore) Create(ctx context.Context, sub *subscription.Subscription) error {
	if sub == nil {
		return ierr.NewError("subscription cannot be nil").
			WithHint("Subscription cannot be nil").
			Mark(ierr.ErrValidation)
	}

	sub.ApplyLifecycle(s.now())

	if err := s.InMemoryStore.Create(ctx, sub.ID, copySubscription(sub)); err != nil {
		return ierr.WithError(err).
			WithHint("A subscription with this identifier already exists").
			WithReportableDetails(map[string]interface{}{
				"subscription_id": sub.ID,
			}).
			Mark(ierr.ErrAlreadyExists)
	}
	return nil
}

func (s *InMemorySubscriptionStore) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.failGet != nil {
		return nil, ierr.WithError(s.failGet).
			WithHint("Failed to get subscription").
			Mark(ierr.ErrDatabase)
	}

	sub, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.NewError("subscription not found").
			WithHintf("Subscription %s not found", id).
			WithReportableDetails(map[string]interface{}{
				"subscription_id": id,
			}).
			Mark(ierr.ErrNotFound)
	}

	return s.applyLifecycle(ctx, sub), nil
}

func (s *InMemorySubscriptionStore) List(ctx context.Context, filter *types.SubscriptionFilter) ([]*subscription.Subscription, error) {
	if filter == nil {
		filter = types.NewSubscriptionFilter()
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	s.expireAll(ctx)

	subs, err := s.InMemoryStore.List(ctx, filter, subscriptionFilterFn, subscriptionSortFor(filter))
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list subscriptions").
			Mark(ierr.ErrDatabase)
	}
	return lo.Map(subs, func(sub *subscription.Subscription, _ int) *subscription.Subscription {
		return copySubscription(sub)
	}), nil
}

func (s *InMemorySubscriptionStore) Count(ctx context.Context, filter *types.SubscriptionFilter) (int, error) {
	s.expireAll(ctx)
	return s.InMemoryStore.Count(ctx, filter, subscriptionFilterFn)
}

func (s *InMemorySubscriptionStore) UpdateStatus(ctx context.Context, id string, status types.SubscriptionStatus) (*subscription.Subscription, error) {
	if err := status.Validate(); err != nil {
		return nil, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	sub, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.NewError("subscription not found").
			WithHintf("Subscription %s not found", id).
			Mark(ierr.ErrNotFound)
	}

	updated := copySubscription(sub)
	updated.Status = status
	updated.UpdatedAt = s.now()
	if err := s.InMemoryStore.Update(ctx, id, updated); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to update subscription status").
			Mark(ierr.ErrDatabase)
	}

	return s.applyLifecycle(ctx, updated), nil
}

func (s *InMemorySubscriptionStore) Delete(ctx context.Context, id string) error {
	if err := s.InMemoryStore.Delete(ctx, id); err != nil {
		return ierr.WithError(err).
			WithHintf("Subscription %s not found", id).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

// applyLifecycle must be called with writeMu held
func (s *InMemorySubscriptionStore) applyLifecycle(ctx context.Context, stored *subscription.Subscription) *subscription.Subscription {
	sub := copySubscription(stored)
	if sub.ApplyLifecycle(s.now()) {
		sub.UpdatedAt = s.now()
		_ = s.InMemoryStore.Update(ctx, sub.ID, copySubscription(sub))
	}
	return sub
}

func (s *InMemorySubscriptionStore) expireAll(ctx context.Context) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	all, _ := s.InMemoryStore.List(ctx, nil, nil, nil)
	for _, sub := range all {
		s.applyLifecycle(ctx, sub)
	}
}

func subscriptionFilterFn(ctx context.Context, sub *subscription.Subscription, filter interface{}) bool {
	if sub == nil {
		return false
	}

	f, ok := filter.(*types.SubscriptionFilter)
	if !ok || f == nil {
		return true
	}

	if f.UserID != "" && sub.UserID != f.UserID {
		return false
	}
	if len(f.SubscriptionIDs) > 0 && !lo.Contains(f.SubscriptionIDs, sub.ID) {
		return false
	}
	if len(f.SubscriptionStatus) > 0 && !lo.Contains(f.SubscriptionStatus, sub.Status) {
		return false
	}
	if f.RenewalDateBefore != nil && sub.RenewalDate.After(*f.RenewalDateBefore) {
		return false
	}
	return true
}

// subscriptionSortFor orders by the filter's sort field (created_at or renewal_date), then id
// for a stable order
func subscriptionSortFor(filter *types.SubscriptionFilter) func(i, j *subscription.Subscription) bool {
	field, order := "created_at", "desc"
	if filter != nil && filter.QueryFilter != nil {
		field, order = filter.GetSort(), filter.GetOrder()
	}

	return func(i, j *subscription.Subscription) bool {
		if i == nil || j == nil {
			return false
		}
		a, b := i.CreatedAt, j.CreatedAt
		if field == "renewal_date" {
			a, b = i.RenewalDate, j.RenewalDate
		}
		if a.Equal(b) {
			return i.ID < j.ID
		}
		if order == "asc" {
			return a.Before(b)
		}
		return a.After(b)
	}
}

// Clear clears the subscription store
func (s *InMemorySubscriptionStore) Clear() {
	s.InMemoryStore.Clear()
}
