package redis

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
	"github.com/subtrack/subtrack/internal/config"
	ierr "github.com/subtrack/subtrack/internal/errors"
	"github.com/subtrack/subtrack/internal/logger"
	"github.com/subtrack/subtrack/internal/types"
	"go.uber.org/fx"
)

const (
	defaultTimeout    = 5 * time.Second
	maxConnectElapsed = 15 * time.Second
)

type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
	UseTLS   bool
	PoolSize int
	Timeout  time.Duration
}

func ConfigFromConfiguration(cfg *config.Configuration) Config {
	return Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		UseTLS:   cfg.Redis.UseTLS,
		PoolSize: cfg.Redis.PoolSize,
		Timeout:  cfg.Redis.Timeout,
	}
}

func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c Config) options() *redis.Options {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	opts := &redis.Options{
		Addr:         c.Addr(),
		Password:     c.Password,
		DB:           c.DB,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
		PoolSize:     c.PoolSize,
	}
	if c.UseTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return opts
}

// Client is the redis connection backing the shared user cache
type Client struct {
	rdb *redis.Client
	log *logger.Logger
}

// NewClient connects and pings, retrying with backoff for up to maxConnectElapsed
func NewClient(cfg Config, log *logger.Logger) (*Client, error) {
	opts := cfg.options()
	rdb := redis.NewClient(opts)

	ping := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), opts.DialTimeout)
		defer cancel()
		return rdb.Ping(ctx).Err()
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = maxConnectElapsed
	notify := func(err error, next time.Duration) {
		log.Warnw("redis not reachable, retrying", "addr", opts.Addr, "error", err, "retry_in", next.String())
	}
	if err := backoff.RetryNotify(ping, b, notify); err != nil {
		_ = rdb.Close()
		return nil, ierr.WithError(err).
			WithHintf("Failed to connect to Redis at %s", opts.Addr).
			Mark(ierr.ErrSystem)
	}

	log.Infow("connected to redis", "addr", opts.Addr, "db", cfg.DB)
	return &Client{rdb: rdb, log: log}, nil
}

// NewOptionalClient connects only when the redis cache is selected. It returns a nil
// client otherwise, and callers fall back to the in-memory cache.
func NewOptionalClient(cfg *config.Configuration, log *logger.Logger) (*Client, error) {
	if !cfg.Cache.Enabled || cfg.Cache.Type != types.CacheTypeRedis {
		return nil, nil
	}
	return NewClient(ConfigFromConfiguration(cfg), log)
}

// RegisterHooks closes the connection on shutdown. A nil client is ignored.
func RegisterHooks(lc fx.Lifecycle, c *Client) {
	if c == nil {
		return
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return c.Close()
		},
	})
}

func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

func (c *Client) Close() error {
	if err := c.rdb.Close(); err != nil {
		return err
	}
	c.log.Info("redis connection closed")
	return nil
}
