package interceptor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToSnakeCase(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		// Regular camelCase
		{"userName", "user_name"},
		{"renewalDate", "renewal_date"},

		// With ID suffix (acronym)
		{"UserID", "user_id"},
		{"SubscriptionID", "subscription_id"},

		// With ID in middle
		{"UserIDName", "user_id_name"},

		// Multiple acronyms
		{"HTMLURL", "htmlurl"},
		{"HTMLParser", "html_parser"},

		// Already snake_case
		{"user_name", "user_name"},

		// Single word
		{"User", "user"},
		{"ID", "id"},

		// Empty
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, toSnakeCase(tt.input))
		})
	}
}

type reminderInput struct {
	SubscriptionID string
	UserID         string
	Attempts       int
	Note           *string
	private        string
}

func TestExtractWorkflowFields(t *testing.T) {
	t.Run("subscription id wins over user id", func(t *testing.T) {
		entity, entityID, fields := extractWorkflowFields([]interface{}{
			reminderInput{SubscriptionID: "subs_1", UserID: "user_1", Attempts: 2, private: "x"},
		})
		assert.Equal(t, "subscription", entity)
		assert.Equal(t, "subs_1", entityID)
		assert.Equal(t, map[string]interface{}{
			"subscription_id": "subs_1",
			"user_id":         "user_1",
			"attempts":        2,
		}, fields)
	})

	t.Run("pointer input with only a user", func(t *testing.T) {
		entity, entityID, fields := extractWorkflowFields([]interface{}{
			&reminderInput{UserID: "user_2"},
		})
		assert.Equal(t, "user", entity)
		assert.Equal(t, "user_2", entityID)
		assert.Len(t, fields, 1)
	})

	t.Run("non struct input", func(t *testing.T) {
		entity, entityID, fields := extractWorkflowFields([]interface{}{"subs_1"})
		assert.Empty(t, entity)
		assert.Empty(t, entityID)
		assert.Nil(t, fields)
	})

	t.Run("no args", func(t *testing.T) {
		_, _, fields := extractWorkflowFields(nil)
		assert.Nil(t, fields)
	})
}
