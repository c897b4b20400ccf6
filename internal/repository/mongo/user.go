package mongo

import (
	"context"
	"errors"

	"github.com/subtrack/subtrack/internal/cache"
	domainUser "github.com/subtrack/subtrack/internal/domain/user"
	ierr "github.com/subtrack/subtrack/internal/errors"
	"github.com/subtrack/subtrack/internal/logger"
	mongoClient "github.com/subtrack/subtrack/internal/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type userRepository struct {
	client mongoClient.IClient
	log    *logger.Logger
	cache  cache.Cache
}

func NewUserRepository(client mongoClient.IClient, log *logger.Logger, c cache.Cache) domainUser.Repository {
	return &userRepository{
		client: client,
		log:    log,
		cache:  c,
	}
}

func (r *userRepository) collection() *mongo.Collection {
	return r.client.Collection(mongoClient.CollectionUsers)
}

func (r *userRepository) Create(ctx context.Context, u *domainUser.User) error {
	span := StartRepositorySpan(ctx, "user", "create", map[string]interface{}{
		"user_id": u.ID,
	})
	defer FinishSpan(span)

	qctx, cancel := context.WithTimeout(ctx, r.client.QueryTimeout())
	defer cancel()

	if _, err := r.collection().InsertOne(qctx, userToDocument(u)); err != nil {
		SetSpanError(span, err)
		if mongo.IsDuplicateKeyError(err) {
			return ierr.WithError(err).
				WithHint("A user with this email already exists").
				WithReportableDetails(map[string]interface{}{
					"email": u.Email,
				}).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create user").
			Mark(ierr.ErrDatabase)
	}

	SetSpanSuccess(span)
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domainUser.User, error) {
	span := StartRepositorySpan(ctx, "user", "get_by_id", map[string]interface{}{
		"user_id": id,
	})
	defer FinishSpan(span)

	if cached := r.GetCache(ctx, id); cached != nil {
		SetSpanSuccess(span)
		return cached, nil
	}

	u, err := r.findOne(ctx, bson.M{"_id": id})
	if err != nil {
		SetSpanError(span, err)
		if ierr.IsNotFound(err) {
			return nil, ierr.WithError(err).
				WithHintf("User %s not found", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, err
	}

	r.SetCache(ctx, u)
	SetSpanSuccess(span)
	return u, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domainUser.User, error) {
	span := StartRepositorySpan(ctx, "user", "get_by_email", nil)
	defer FinishSpan(span)

	u, err := r.findOne(ctx, bson.M{"email": domainUser.NormalizeEmail(email)})
	if err != nil {
		SetSpanError(span, err)
		if ierr.IsNotFound(err) {
			return nil, ierr.WithError(err).
				WithHint("User not found").
				Mark(ierr.ErrNotFound)
		}
		return nil, err
	}

	SetSpanSuccess(span)
	return u, nil
}

func (r *userRepository) Update(ctx context.Context, u *domainUser.User) error {
	span := StartRepositorySpan(ctx, "user", "update", map[string]interface{}{
		"user_id": u.ID,
	})
	defer FinishSpan(span)

	qctx, cancel := context.WithTimeout(ctx, r.client.QueryTimeout())
	defer cancel()

	res, err := r.collection().UpdateOne(qctx, bson.M{"_id": u.ID}, bson.M{"$set": bson.M{
		"name":       u.Name,
		"email":      u.Email,
		"updated_at": u.UpdatedAt.UTC(),
	}})
	if err != nil {
		SetSpanError(span, err)
		if mongo.IsDuplicateKeyError(err) {
			return ierr.WithError(err).
				WithHint("A user with this email already exists").
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to update user").
			Mark(ierr.ErrDatabase)
	}
	if res.MatchedCount == 0 {
		err := ierr.NewError("user not found").
			WithHintf("User %s not found", u.ID).
			Mark(ierr.ErrNotFound)
		SetSpanError(span, err)
		return err
	}

	r.DeleteCache(ctx, u.ID)
	SetSpanSuccess(span)
	return nil
}

func (r *userRepository) findOne(ctx context.Context, query bson.M) (*domainUser.User, error) {
	qctx, cancel := context.WithTimeout(ctx, r.client.QueryTimeout())
	defer cancel()

	var doc userDocument
	if err := r.collection().FindOne(qctx, query).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ierr.WithError(err).Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get user").
			Mark(ierr.ErrDatabase)
	}
	return userFromDocument(&doc), nil
}

func (r *userRepository) GetCache(ctx context.Context, id string) *domainUser.User {
	if r.cache == nil {
		return nil
	}
	if value, found := r.cache.Get(ctx, cache.GenerateKey(cache.PrefixUser, id)); found {
		if u, ok := cache.DecodeValue[domainUser.User](value); ok {
			return u
		}
	}
	return nil
}

func (r *userRepository) SetCache(ctx context.Context, u *domainUser.User) {
	if r.cache == nil {
		return
	}
	r.cache.Set(ctx, cache.GenerateKey(cache.PrefixUser, u.ID), u, 0)
}

func (r *userRepository) DeleteCache(ctx context.Context, id string) {
	if r.cache == nil {
		return
	}
	r.cache.Delete(ctx, cache.GenerateKey(cache.PrefixUser, id))
}
