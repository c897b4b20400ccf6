package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/subtrack/subtrack/internal/config"
	"github.com/subtrack/subtrack/internal/types"
	"go.temporal.io/sdk/log"
)

func TestNewLogger_DefaultConfig(t *testing.T) {
	l, err := NewLogger(config.GetDefaultConfig())
	require.NoError(t, err)
	require.NotNil(t, l)
	assert.Nil(t, l.fluentdLogger)
	assert.Equal(t, "subtrack-"+string(types.ModeLocal), l.serviceName)
}

func TestPairsToMap(t *testing.T) {
	fields := pairsToMap([]interface{}{"subscription_id", "subs_1", "attempt", 2, "dangling"})
	assert.Equal(t, map[string]interface{}{
		"subscription_id": "subs_1",
		"attempt":         2,
	}, fields)

	fields = pairsToMap([]interface{}{42, "not-a-key-name"})
	assert.Empty(t, fields)
}

func TestWithContext_KeepsFluentdAndService(t *testing.T) {
	l := GetLogger()
	ctx := types.SetUserID(context.Background(), "user_1")

	scoped := l.WithContext(ctx)
	assert.NotSame(t, l, scoped)
	assert.Equal(t, l.serviceName, scoped.serviceName)
	assert.Equal(t, map[string]interface{}{"user_id": "user_1"}, scoped.fields)

	assert.Same(t, l, l.WithContext(context.Background()))

	sub := scoped.WithSubscription("subs_1")
	assert.Equal(t, map[string]interface{}{
		"user_id":         "user_1",
		"subscription_id": "subs_1",
	}, sub.fields)
	assert.Len(t, scoped.fields, 1)
}

func TestTemporalLogger_With(t *testing.T) {
	tl := GetLogger().GetTemporalLogger()

	withLogger, ok := tl.(log.WithLogger)
	require.True(t, ok)

	scoped := withLogger.With("task_queue", "reminder")
	require.NotNil(t, scoped)
	assert.NotSame(t, tl, scoped)

	scoped.Info("reminder worker ready")
}
