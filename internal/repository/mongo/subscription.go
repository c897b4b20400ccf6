package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/samber/lo"
	domainSubscription "github.com/subtrack/subtrack/internal/domain/subscription"
	ierr "github.com/subtrack/subtrack/internal/errors"
	"github.com/subtrack/subtrack/internal/logger"
	mongoClient "github.com/subtrack/subtrack/internal/mongo"
	"github.com/subtrack/subtrack/internal/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type subscriptionRepository struct {
	client mongoClient.IClient
	log    *logger.Logger
	now    func() time.Time
}

func NewSubscriptionRepository(client mongoClient.IClient, log *logger.Logger) domainSubscription.Repository {
	return &subscriptionRepository{
		client: client,
		log:    log,
		now:    time.Now,
	}
}

func (r *subscriptionRepository) collection() *mongo.Collection {
	return r.client.Collection(mongoClient.CollectionSubscriptions)
}

func (r *subscriptionRepository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.client.QueryTimeout())
}

func (r *subscriptionRepository) Create(ctx context.Context, sub *domainSubscription.Subscription) error {
	span := StartRepositorySpan(ctx, "subscription", "create", map[string]interface{}{
		"subscription_id": sub.ID,
		"user_id":         sub.UserID,
	})
	defer FinishSpan(span)

	r.log.Debugw("creating subscription", "subscription_id", sub.ID, "user_id", sub.UserID)

	sub.ApplyLifecycle(r.now())

	doc, err := subscriptionToDocument(sub)
	if err != nil {
		SetSpanError(span, err)
		return ierr.WithError(err).
			WithHint("Invalid subscription price").
			Mark(ierr.ErrValidation)
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if _, err := r.collection().InsertOne(ctx, doc); err != nil {
		SetSpanError(span, err)
		if mongo.IsDuplicateKeyError(err) {
			return ierr.WithError(err).
				WithHint("A subscription with this identifier already exists").
				WithReportableDetails(map[string]interface{}{
					"subscription_id": sub.ID,
				}).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create subscription").
			Mark(ierr.ErrDatabase)
	}

	SetSpanSuccess(span)
	return nil
}

func (r *subscriptionRepository) Get(ctx context.Context, id string) (*domainSubscription.Subscription, error) {
	span := StartRepositorySpan(ctx, "subscription", "get", map[string]interface{}{
		"subscription_id": id,
	})
	defer FinishSpan(span)

	qctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var doc subscriptionDocument
	if err := r.collection().FindOne(qctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		SetSpanError(span, err)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ierr.WithError(err).
				WithHintf("Subscription %s not found", id).
				WithReportableDetails(map[string]interface{}{
					"subscription_id": id,
				}).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get subscription").
			Mark(ierr.ErrDatabase)
	}

	sub := subscriptionFromDocument(&doc)
	if err := r.applyLifecycle(ctx, sub); err != nil {
		SetSpanError(span, err)
		return nil, err
	}

	SetSpanSuccess(span)
	return sub, nil
}

func (r *subscriptionRepository) List(ctx context.Context, filter *types.SubscriptionFilter) ([]*domainSubscription.Subscription, error) {
	if filter == nil {
		filter = types.NewSubscriptionFilter()
	}
	span := StartRepositorySpan(ctx, "subscription", "list", map[string]interface{}{
		"filter": filter.String(),
	})
	defer FinishSpan(span)

	if err := filter.Validate(); err != nil {
		SetSpanError(span, err)
		return nil, err
	}

	if err := r.expireOverdue(ctx, filter); err != nil {
		SetSpanError(span, err)
		return nil, err
	}

	qctx, cancel := r.withTimeout(ctx)
	defer cancel()

	findOpts := options.Find().SetSort(bson.D{{Key: sortField(filter.QueryFilter), Value: sortDirection(filter.QueryFilter)}})
	if !filter.IsUnlimited() {
		findOpts.SetLimit(int64(filter.GetLimit()))
	}
	if offset := filter.GetOffset(); offset > 0 {
		findOpts.SetSkip(int64(offset))
	}

	cursor, err := r.collection().Find(qctx, buildSubscriptionQuery(filter), findOpts)
	if err != nil {
		SetSpanError(span, err)
		return nil, ierr.WithError(err).
			WithHint("Failed to list subscriptions").
			Mark(ierr.ErrDatabase)
	}
	defer cursor.Close(qctx)

	var docs []subscriptionDocument
	if err := cursor.All(qctx, &docs); err != nil {
		SetSpanError(span, err)
		return nil, ierr.WithError(err).
			WithHint("Failed to decode subscriptions").
			Mark(ierr.ErrDatabase)
	}

	// The page is returned as Mongo matched it, so it stays consistent with Count. A record
	// that expires between expireOverdue and the read keeps its place and reports the new status.
	subs, changes := pageFromDocuments(docs, r.now())
	for _, c := range changes {
		if err := r.persistLifecycle(ctx, c.sub, c.hadRenewal); err != nil {
			SetSpanError(span, err)
			return nil, err
		}
	}

	SetSpanSuccess(span)
	return subs, nil
}

func (r *subscriptionRepository) Count(ctx context.Context, filter *types.SubscriptionFilter) (int, error) {
	if filter == nil {
		filter = types.NewSubscriptionFilter()
	}
	span := StartRepositorySpan(ctx, "subscription", "count", map[string]interface{}{
		"filter": filter.String(),
	})
	defer FinishSpan(span)

	if err := r.expireOverdue(ctx, filter); err != nil {
		SetSpanError(span, err)
		return 0, err
	}

	qctx, cancel := r.withTimeout(ctx)
	defer cancel()

	count, err := r.collection().CountDocuments(qctx, buildSubscriptionQuery(filter))
	if err != nil {
		SetSpanError(span, err)
		return 0, ierr.WithError(err).
			WithHint("Failed to count subscriptions").
			Mark(ierr.ErrDatabase)
	}

	SetSpanSuccess(span)
	return int(count), nil
}

func (r *subscriptionRepository) UpdateStatus(ctx context.Context, id string, status types.SubscriptionStatus) (*domainSubscription.Subscription, error) {
	span := StartRepositorySpan(ctx, "subscription", "update_status", map[string]interface{}{
		"subscription_id": id,
		"status":          status,
	})
	defer FinishSpan(span)

	if err := status.Validate(); err != nil {
		SetSpanError(span, err)
		return nil, err
	}

	r.log.Debugw("updating subscription status", "subscription_id", id, "status", status)

	qctx, cancel := r.withTimeout(ctx)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"status":     string(status),
		"updated_at": r.now().UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc subscriptionDocument
	if err := r.collection().FindOneAndUpdate(qctx, bson.M{"_id": id}, update, opts).Decode(&doc); err != nil {
		SetSpanError(span, err)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ierr.WithError(err).
				WithHintf("Subscription %s not found", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to update subscription status").
			Mark(ierr.ErrDatabase)
	}

	sub := subscriptionFromDocument(&doc)
	if err := r.applyLifecycle(ctx, sub); err != nil {
		SetSpanError(span, err)
		return nil, err
	}

	SetSpanSuccess(span)
	return sub, nil
}

func (r *subscriptionRepository) Delete(ctx context.Context, id string) error {
	span := StartRepositorySpan(ctx, "subscription", "delete", map[string]interface{}{
		"subscription_id": id,
	})
	defer FinishSpan(span)

	qctx, cancel := r.withTimeout(ctx)
	defer cancel()

	res, err := r.collection().DeleteOne(qctx, bson.M{"_id": id})
	if err != nil {
		SetSpanError(span, err)
		return ierr.WithError(err).
			WithHint("Failed to delete subscription").
			Mark(ierr.ErrDatabase)
	}
	if res.DeletedCount == 0 {
		err := ierr.NewError("subscription not found").
			WithHintf("Subscription %s not found", id).
			Mark(ierr.ErrNotFound)
		SetSpanError(span, err)
		return err
	}

	SetSpanSuccess(span)
	return nil
}

// applyLifecycle runs the renewal rules on a loaded record and persists any change.
// The expiry flip is conditional on the stored status still being active, so a
// concurrent cancel is never overwritten.
func (r *subscriptionRepository) applyLifecycle(ctx context.Context, sub *domainSubscription.Subscription) error {
	hadRenewal := !sub.RenewalDate.IsZero()
	if !sub.ApplyLifecycle(r.now()) {
		return nil
	}
	return r.persistLifecycle(ctx, sub, hadRenewal)
}

type lifecycleChange struct {
	sub        *domainSubscription.Subscription
	hadRenewal bool
}

// pageFromDocuments converts a result page and applies the renewal rules in memory. Every
// document yields exactly one subscription; changes lists the ones that must be persisted.
func pageFromDocuments(docs []subscriptionDocument, now time.Time) ([]*domainSubscription.Subscription, []lifecycleChange) {
	subs := make([]*domainSubscription.Subscription, 0, len(docs))
	var changes []lifecycleChange
	for i := range docs {
		sub := subscriptionFromDocument(&docs[i])
		hadRenewal := !sub.RenewalDate.IsZero()
		if sub.ApplyLifecycle(now) {
			changes = append(changes, lifecycleChange{sub: sub, hadRenewal: hadRenewal})
		}
		subs = append(subs, sub)
	}
	return subs, changes
}

func (r *subscriptionRepository) persistLifecycle(ctx context.Context, sub *domainSubscription.Subscription, hadRenewal bool) error {
	qctx, cancel := r.withTimeout(ctx)
	defer cancel()

	set := bson.M{"updated_at": r.now().UTC()}
	if !hadRenewal {
		set["renewal_date"] = sub.RenewalDate.UTC()
	}

	query := bson.M{"_id": sub.ID}
	if sub.Status == types.SubscriptionStatusExpired {
		query["status"] = string(types.SubscriptionStatusActive)
		set["status"] = string(types.SubscriptionStatusExpired)
	}

	if _, err := r.collection().UpdateOne(qctx, query, bson.M{"$set": set}); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to persist subscription lifecycle change").
			WithReportableDetails(map[string]interface{}{
				"subscription_id": sub.ID,
			}).
			Mark(ierr.ErrDatabase)
	}

	r.log.Debugw("applied subscription lifecycle", "subscription_id", sub.ID, "status", sub.Status)
	return nil
}

// expireOverdue flips every overdue active subscription in the filter scope before a
// query runs, so status filters and counts see post-expiry state.
func (r *subscriptionRepository) expireOverdue(ctx context.Context, filter *types.SubscriptionFilter) error {
	qctx, cancel := r.withTimeout(ctx)
	defer cancel()

	now := r.now().UTC()
	query := bson.M{
		"status":       string(types.SubscriptionStatusActive),
		"renewal_date": bson.M{"$lt": now},
	}
	if filter != nil && filter.UserID != "" {
		query["user_id"] = filter.UserID
	}

	res, err := r.collection().UpdateMany(qctx, query, bson.M{"$set": bson.M{
		"status":     string(types.SubscriptionStatusExpired),
		"updated_at": now,
	}})
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to expire overdue subscriptions").
			Mark(ierr.ErrDatabase)
	}
	if res.ModifiedCount > 0 {
		r.log.Infow("expired overdue subscriptions", "count", res.ModifiedCount, "user_id", filter.UserID)
	}
	return nil
}

func buildSubscriptionQuery(filter *types.SubscriptionFilter) bson.M {
	query := bson.M{}
	if filter == nil {
		return query
	}
	if filter.UserID != "" {
		query["user_id"] = filter.UserID
	}
	if len(filter.SubscriptionIDs) > 0 {
		query["_id"] = bson.M{"$in": filter.SubscriptionIDs}
	}
	if len(filter.SubscriptionStatus) > 0 {
		query["status"] = bson.M{"$in": lo.Map(filter.SubscriptionStatus, func(s types.SubscriptionStatus, _ int) string {
			return string(s)
		})}
	}
	if filter.RenewalDateBefore != nil {
		query["renewal_date"] = bson.M{"$lte": filter.RenewalDateBefore.UTC()}
	}
	return query
}

func sortField(q *types.QueryFilter) string {
	switch q.GetSort() {
	case "renewal_date", "start_date", "name", "created_at", "updated_at":
		return q.GetSort()
	default:
		return "created_at"
	}
}

func sortDirection(q *types.QueryFilter) int {
	if q.GetOrder() == "asc" {
		return 1
	}
	return -1
}
