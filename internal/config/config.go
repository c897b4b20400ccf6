package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/subtrack/subtrack/internal/types"
)

//go:embed config.yaml
var defaultConfigYAML []byte

type Configuration struct {
	Deployment DeploymentConfig `validate:"required"`
	Server     ServerConfig     `validate:"required"`
	Auth       AuthConfig       `validate:"required"`
	Mongo      MongoConfig      `validate:"required"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Logging    LoggingConfig    `validate:"required"`
	Sentry     SentryConfig     `mapstructure:"sentry"`
	Temporal   TemporalConfig   `mapstructure:"temporal" validate:"required"`
	Email      EmailConfig      `mapstructure:"email"`
	Reminder   ReminderConfig   `mapstructure:"reminder"`
}

type DeploymentConfig struct {
	Mode types.RunMode `mapstructure:"mode" validate:"required"`
}

type ServerConfig struct {
	Env     types.Environment `mapstructure:"env" validate:"required"`
	Address string            `mapstructure:"address" validate:"required"`
}

type AuthConfig struct {
	Secret string        `mapstructure:"secret" validate:"required"`
	Expiry time.Duration `mapstructure:"expiry" validate:"required"`
}

type MongoConfig struct {
	URI            string        `mapstructure:"uri" validate:"required"`
	Database       string        `mapstructure:"database" validate:"required"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	QueryTimeout   time.Duration `mapstructure:"query_timeout"`
	MaxPoolSize    uint64        `mapstructure:"max_pool_size"`
}

type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	UseTLS   bool          `mapstructure:"use_tls"`
	PoolSize int           `mapstructure:"pool_size"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type CacheConfig struct {
	Enabled bool            `mapstructure:"enabled"`
	Type    types.CacheType `mapstructure:"type"`
}

type LoggingConfig struct {
	Level          types.LogLevel `mapstructure:"level" validate:"required"`
	FluentdEnabled bool           `mapstructure:"fluentd_enabled"`
	FluentdHost    string         `mapstructure:"fluentd_host"`
	FluentdPort    int            `mapstructure:"fluentd_port"`
}

type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate" default:"1.0"`
}

type TemporalConfig struct {
	Address   string `mapstructure:"address" validate:"required"`
	Namespace string `mapstructure:"namespace" validate:"required"`
	TLS       bool   `mapstructure:"tls"`
	APIKey    string `mapstructure:"api_key"`

	MaxConcurrentWorkflowTaskPollers       int `mapstructure:"max_concurrent_workflow_task_pollers"`
	MaxConcurrentActivityExecutionSize     int `mapstructure:"max_concurrent_activity_execution_size"`
	MaxConcurrentWorkflowTaskExecutionSize int `mapstructure:"max_concurrent_workflow_task_execution_size"`
}

type EmailConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	ResendAPIKey string `mapstructure:"resend_api_key"`
	FromAddress  string `mapstructure:"from_address"`
	ReplyTo      string `mapstructure:"reply_to"`
}

type ReminderConfig struct {
	ClientURL           string `mapstructure:"client_url"`
	BackfillConcurrency int    `mapstructure:"backfill_concurrency"`
	BackfillBatchSize   int    `mapstructure:"backfill_batch_size"`
}

func NewConfig() (*Configuration, error) {
	// Missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaultConfigYAML)); err != nil {
		return nil, fmt.Errorf("failed to read default config: %v", err)
	}

	// An optional config.yaml on disk overrides the embedded defaults.
	v.SetConfigName("config")
	v.AddConfigPath("./config")
	v.AddConfigPath("./internal/config")
	if err := v.MergeInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to merge config file: %v", err)
		}
	}

	v.SetEnvPrefix("SUBTRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Configuration
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to unmarshal config: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c Configuration) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := c.Deployment.Mode.Validate(); err != nil {
		return err
	}
	if c.Cache.Type != "" {
		if err := c.Cache.Type.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// GetDefaultConfig returns a configuration usable before real config is loaded, such as
// for the package level logger
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{
			Mode: types.ModeLocal,
		},
		Logging: LoggingConfig{
			Level: types.LogLevelDebug,
		},
	}
}

// GetConnectTimeout returns the connect timeout with a fallback
func (c MongoConfig) GetConnectTimeout() time.Duration {
	if c.ConnectTimeout <= 0 {
		return 10 * time.Second
	}
	return c.ConnectTimeout
}

func (c MongoConfig) GetQueryTimeout() time.Duration {
	if c.QueryTimeout <= 0 {
		return 5 * time.Second
	}
	return c.QueryTimeout
}
