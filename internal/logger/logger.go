package logger

import (
	"context"
	"fmt"
	"time"

	"github.com/fluent/fluent-logger-golang/fluent"
	"github.com/subtrack/subtrack/internal/config"
	"github.com/subtrack/subtrack/internal/types"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.SugaredLogger to provide logging functionality
type Logger struct {
	*zap.SugaredLogger
	fluentdLogger *fluent.Fluent
	serviceName   string
	fields        map[string]interface{}
}

const fluentdTag = "subtrack.logs"

// Global logger for convenience
var L *Logger

// NewLogger creates and returns a new Logger instance
func NewLogger(cfg *config.Configuration) (*Logger, error) {
	config := zap.NewProductionConfig()

	if cfg.Logging.Level == types.LogLevelDebug {
		config = zap.NewDevelopmentConfig()
	}

	if level, err := zapcore.ParseLevel(string(cfg.Logging.Level)); err == nil {
		config.Level = zap.NewAtomicLevelAt(level)
	}

	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	// Disable stack traces for warnings to reduce log noise
	config.DisableStacktrace = true

	zapLogger, err := config.Build()
	if err != nil {
		return nil, err
	}

	// Initialize Fluentd logger based on configuration
	var fluentdLogger *fluent.Fluent
	var fluentdHost string
	var fluentdPort int

	if cfg.Logging.FluentdEnabled {
		fluentdHost = cfg.Logging.FluentdHost
		fluentdPort = cfg.Logging.FluentdPort
	}

	// Initialize Fluentd client if host and port are configured
	if fluentdHost != "" && fluentdPort > 0 {
		fluentdLogger, err = fluent.New(fluent.Config{
			FluentHost:   fluentdHost,
			FluentPort:   fluentdPort,
			Async:        true,
			BufferLimit:  8 * 1024 * 1024, // 8MB buffer
			WriteTimeout: 3 * time.Second,
			RetryWait:    500,
			MaxRetry:     5,
		})
		if err != nil {
			zapLogger.Sugar().Warnf("Failed to initialize Fluentd logger: %v, falling back to stdout only", err)
		} else {
			zapLogger.Sugar().Infof("Fluentd logger initialized successfully (host: %s, port: %d)", fluentdHost, fluentdPort)
		}
	} else if cfg.Logging.FluentdEnabled {
		zapLogger.Sugar().Warn("Fluentd is enabled but host/port not configured properly")
	}

	return &Logger{
		SugaredLogger: zapLogger.Sugar(),
		fluentdLogger: fluentdLogger,
		serviceName:   "subtrack-" + string(cfg.Deployment.Mode),
	}, nil
}

// The package level logger serves code that runs before fx has built the real one.
// Everything else receives *Logger through injection.
func init() {
	L, _ = NewLogger(config.GetDefaultConfig())
}

func GetLogger() *Logger {
	if L == nil {
		L, _ = NewLogger(config.GetDefaultConfig())
	}
	return L
}

func GetLoggerWithContext(ctx context.Context) *Logger {
	return GetLogger().WithContext(ctx)
}

// sendToFluentd forwards one entry when fluentd is configured. Delivery is async and
// failures only surface as a local warning.
func (l *Logger) sendToFluentd(level, msg string, fields map[string]interface{}) {
	if l.fluentdLogger == nil {
		return
	}

	entry := make(map[string]interface{}, len(fields)+len(l.fields)+4)
	for k, v := range l.fields {
		entry[k] = v
	}
	for k, v := range fields {
		entry[k] = v
	}
	entry["level"] = level
	entry["message"] = msg
	entry["service"] = l.serviceName
	entry["timestamp"] = time.Now().UTC().Format(time.RFC3339)

	if err := l.fluentdLogger.Post(fluentdTag, entry); err != nil {
		l.SugaredLogger.Warnf("Failed to send log to Fluentd: %v", err)
	}
}

func (l *Logger) Debugf(template string, args ...interface{}) {
	l.SugaredLogger.Debugf(template, args...)
	l.sendToFluentd("debug", fmt.Sprintf(template, args...), nil)
}

func (l *Logger) Infof(template string, args ...interface{}) {
	l.SugaredLogger.Infof(template, args...)
	l.sendToFluentd("info", fmt.Sprintf(template, args...), nil)
}

func (l *Logger) Warnf(template string, args ...interface{}) {
	l.SugaredLogger.Warnf(template, args...)
	l.sendToFluentd("warning", fmt.Sprintf(template, args...), nil)
}

func (l *Logger) Errorf(template string, args ...interface{}) {
	l.SugaredLogger.Errorf(template, args...)
	l.sendToFluentd("error", fmt.Sprintf(template, args...), nil)
}

func (l *Logger) Fatalf(template string, args ...interface{}) {
	l.sendToFluentd("fatal", fmt.Sprintf(template, args...), nil)
	l.SugaredLogger.Fatalf(template, args...)
}

// WithContext attaches the request and user ids carried by ctx. Empty ids are left out.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	fields := map[string]interface{}{}
	if requestID := types.GetRequestID(ctx); requestID != "" {
		fields["request_id"] = requestID
	}
	if userID := types.GetUserID(ctx); userID != "" {
		fields["user_id"] = userID
	}
	return l.with(fields)
}

// WithSubscription scopes the logger to one subscription
func (l *Logger) WithSubscription(subscriptionID string) *Logger {
	return l.with(map[string]interface{}{"subscription_id": subscriptionID})
}

func (l *Logger) with(fields map[string]interface{}) *Logger {
	if len(fields) == 0 {
		return l
	}

	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
		args = append(args, k, v)
	}

	return &Logger{
		SugaredLogger: l.SugaredLogger.With(args...),
		fluentdLogger: l.fluentdLogger,
		serviceName:   l.serviceName,
		fields:        merged,
	}
}

func (l *Logger) Debugw(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Debugw(msg, keysAndValues...)
	l.sendToFluentd("debug", msg, pairsToMap(keysAndValues))
}

func (l *Logger) Infow(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Infow(msg, keysAndValues...)
	l.sendToFluentd("info", msg, pairsToMap(keysAndValues))
}

func (l *Logger) Warnw(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Warnw(msg, keysAndValues...)
	l.sendToFluentd("warning", msg, pairsToMap(keysAndValues))
}

func (l *Logger) Errorw(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Errorw(msg, keysAndValues...)
	l.sendToFluentd("error", msg, pairsToMap(keysAndValues))
}

// pairsToMap drops a trailing key without a value and keys that are not strings
func pairsToMap(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		if key, ok := keysAndValues[i].(string); ok {
			fields[key] = keysAndValues[i+1]
		}
	}
	return fields
}

// ginLogger adapts our Logger to gin's logging interface
type ginLogger struct {
	logger *Logger
}

// GetGinLogger returns a gin-compatible logger
func (l *Logger) GetGinLogger() *ginLogger {
	return &ginLogger{logger: l}
}

// Write implements the io.Writer interface for gin
func (g *ginLogger) Write(p []byte) (n int, err error) {
	g.logger.Info(string(p))
	return len(p), nil
}

// Sync flushes zap buffers and closes the fluentd connection
func (l *Logger) Sync() error {
	if l.fluentdLogger != nil {
		if err := l.fluentdLogger.Close(); err != nil {
			l.SugaredLogger.Warnf("Failed to close Fluentd logger: %v", err)
		}
	}
	return l.SugaredLogger.Sync()
}
