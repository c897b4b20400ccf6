package subscription

import (
	"context"

	"github.com/subtrack/subtrack/internal/types"
)

// Repository persists subscriptions. Every read and write path applies ApplyLifecycle, so
// callers never observe an active subscription whose renewal date has passed.
type Repository interface {
	Create(ctx context.Context, sub *Subscription) error
	Get(ctx context.Context, id string) (*Subscription, error)
	List(ctx context.Context, filter *types.SubscriptionFilter) ([]*Subscription, error)
	Count(ctx context.Context, filter *types.SubscriptionFilter) (int, error)
	UpdateStatus(ctx context.Context, id string, status types.SubscriptionStatus) (*Subscription, error)
	Delete(ctx context.Context, id string) error
}
