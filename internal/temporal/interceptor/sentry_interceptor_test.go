package interceptor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/subtrack/subtrack/internal/temporal/models"
	"github.com/subtrack/subtrack/internal/types"
)

func TestReminderTags(t *testing.T) {
	assert.Equal(t, map[string]string{
		"subscription_id": "subs_1",
		"user_id":         "user_1",
	}, ReminderTags([]interface{}{models.ReminderWorkflowInput{SubscriptionID: "subs_1", UserID: "user_1"}}))

	assert.Equal(t, map[string]string{
		"subscription_id": "subs_2",
	}, ReminderTags([]interface{}{models.FetchSubscriptionActivityInput{SubscriptionID: "subs_2"}}))

	assert.Equal(t, map[string]string{
		"subscription_id": "subs_3",
		"user_id":         "user_3",
		"reminder_type":   string(types.ReminderTypeTwoDay),
	}, ReminderTags([]interface{}{models.SendReminderActivityInput{
		ReminderType: types.ReminderTypeTwoDay,
		Subscription: models.SubscriptionSnapshot{ID: "subs_3", UserID: "user_3"},
	}}))

	assert.Empty(t, ReminderTags([]interface{}{"unrelated", 42}))
	assert.Empty(t, ReminderTags(nil))
}
