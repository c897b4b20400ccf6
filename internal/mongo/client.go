package mongo

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/subtrack/subtrack/internal/config"
	ierr "github.com/subtrack/subtrack/internal/errors"
	"github.com/subtrack/subtrack/internal/logger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/fx"
)

const (
	CollectionSubscriptions = "subscriptions"
	CollectionUsers         = "users"

	maxConnectElapsed = 30 * time.Second
)

// IClient is the subset of the mongo client the repositories depend on
type IClient interface {
	Collection(name string) *mongo.Collection
	Ping(ctx context.Context) error
	QueryTimeout() time.Duration
}

// Client owns the mongo connection for the process
type Client struct {
	client       *mongo.Client
	db           *mongo.Database
	log          *logger.Logger
	queryTimeout time.Duration
}

// NewClient connects to mongo, retrying with exponential backoff until the server answers
// a ping or maxConnectElapsed passes
func NewClient(cfg *config.Configuration, log *logger.Logger) (*Client, error) {
	opts := options.Client().
		ApplyURI(cfg.Mongo.URI).
		SetConnectTimeout(cfg.Mongo.GetConnectTimeout())
	if cfg.Mongo.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(cfg.Mongo.MaxPoolSize)
	}

	var client *mongo.Client
	connect := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Mongo.GetConnectTimeout())
		defer cancel()

		c, err := mongo.Connect(ctx, opts)
		if err != nil {
			return err
		}
		if err := c.Ping(ctx, readpref.Primary()); err != nil {
			_ = c.Disconnect(context.Background())
			return err
		}
		client = c
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = maxConnectElapsed
	notify := func(err error, next time.Duration) {
		log.Warnw("mongo not reachable, retrying", "error", err, "retry_in", next.String())
	}
	if err := backoff.RetryNotify(connect, b, notify); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to connect to MongoDB").
			Mark(ierr.ErrDatabase)
	}

	log.Infow("connected to mongo", "database", cfg.Mongo.Database)

	return &Client{
		client:       client,
		db:           client.Database(cfg.Mongo.Database),
		log:          log,
		queryTimeout: cfg.Mongo.GetQueryTimeout(),
	}, nil
}

// RegisterHooks creates indexes on start and disconnects on stop
func RegisterHooks(lc fx.Lifecycle, c *Client) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return c.EnsureIndexes(ctx)
		},
		OnStop: func(ctx context.Context) error {
			return c.client.Disconnect(ctx)
		},
	})
}

func (c *Client) Collection(name string) *mongo.Collection {
	return c.db.Collection(name)
}

func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, readpref.Primary())
}

func (c *Client) QueryTimeout() time.Duration {
	return c.queryTimeout
}
