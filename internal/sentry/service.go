package sentry

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/subtrack/subtrack/internal/config"
	"github.com/subtrack/subtrack/internal/logger"
	"go.uber.org/fx"
)

// Service wraps the sentry SDK so callers never have to check configuration themselves
type Service struct {
	cfg    *config.Configuration
	logger *logger.Logger
}

// NewSentryService initializes the sentry SDK when enabled
func NewSentryService(cfg *config.Configuration, logger *logger.Logger) *Service {
	s := &Service{cfg: cfg, logger: logger}
	if !cfg.Sentry.Enabled {
		logger.Info("Sentry is disabled")
		return s
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.Sentry.DSN,
		Environment:      cfg.Sentry.Environment,
		EnableTracing:    true,
		TracesSampleRate: cfg.Sentry.SampleRate,
		AttachStacktrace: true,
	})
	if err != nil {
		logger.Errorw("failed to initialize sentry, continuing without it", "error", err)
		s.cfg.Sentry.Enabled = false
		return s
	}

	logger.Infow("Sentry initialized", "environment", cfg.Sentry.Environment)
	return s
}

// RegisterHooks flushes buffered events on shutdown
func RegisterHooks(lc fx.Lifecycle, s *Service) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			s.Flush(2 * time.Second)
			return nil
		},
	})
}

func (s *Service) IsEnabled() bool {
	return s != nil && s.cfg.Sentry.Enabled
}

func (s *Service) CaptureException(err error) {
	if !s.IsEnabled() || err == nil {
		return
	}
	sentry.CaptureException(err)
}

// CaptureExceptionWithTags reports err with additional tags on a fresh scope
func (s *Service) CaptureExceptionWithTags(err error, tags map[string]string) {
	if !s.IsEnabled() || err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		sentry.CaptureException(err)
	})
}

// StartMonitoringSpan starts a span for a background operation. The returned span is nil
// when sentry is disabled; the returned context is always usable.
func (s *Service) StartMonitoringSpan(ctx context.Context, operation string, data map[string]interface{}) (*sentry.Span, context.Context) {
	if !s.IsEnabled() {
		return nil, ctx
	}

	span := sentry.StartSpan(ctx, operation)
	span.Description = operation
	for k, v := range data {
		span.SetData(k, v)
	}
	return span, span.Context()
}

func (s *Service) Flush(timeout time.Duration) {
	if !s.IsEnabled() {
		return
	}
	sentry.Flush(timeout)
}
