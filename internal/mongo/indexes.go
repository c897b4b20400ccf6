package mongo

import (
	"context"

	ierr "github.com/subtrack/subtrack/internal/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the repositories rely on. CreateMany is idempotent
// for identical index definitions.
func (c *Client) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		CollectionUsers: {
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("uniq_email"),
			},
		},
		CollectionSubscriptions: {
			{
				Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("idx_user_created"),
			},
			{
				Keys:    bson.D{{Key: "status", Value: 1}, {Key: "renewal_date", Value: 1}},
				Options: options.Index().SetName("idx_status_renewal"),
			},
		},
	}

	for collection, models := range indexes {
		if _, err := c.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return ierr.WithError(err).
				WithHintf("Failed to create indexes for %s", collection).
				Mark(ierr.ErrDatabase)
		}
		c.log.Debugw("ensured mongo indexes", "collection", collection, "count", len(models))
	}
	return nil
}
