package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ierr "github.com/subtrack/subtrack/internal/errors"
	"github.com/subtrack/subtrack/internal/types"
)

func sampleData() ReminderTemplateData {
	return ReminderTemplateData{
		UserName:            "Asha",
		SubscriptionName:    "Netflix",
		RenewalDate:         "Jun 8, 2025",
		PlanName:            "Netflix",
		Price:               "INR 649",
		Frequency:           "monthly",
		PaymentMethod:       "UPI",
		AccountSettingsLink: "https://app.example.com/account",
		SupportLink:         "https://app.example.com/support",
		DaysLeft:            7,
	}
}

func TestResolveReminderTemplate_AllKnownTypes(t *testing.T) {
	for _, rt := range types.ReminderTypes() {
		t.Run(string(rt), func(t *testing.T) {
			tmpl, err := ResolveReminderTemplate(rt)
			require.NoError(t, err)

			subject, html, err := tmpl.Render(sampleData())
			require.NoError(t, err)
			assert.Contains(t, subject, "Netflix")
			assert.Contains(t, html, "Jun 8, 2025")
			assert.Contains(t, html, "INR 649")
			assert.Contains(t, html, "https://app.example.com/account")
		})
	}
}

func TestResolveReminderTemplate_SubjectsDiffer(t *testing.T) {
	seen := map[string]bool{}
	for _, rt := range types.ReminderTypes() {
		tmpl, err := ResolveReminderTemplate(rt)
		require.NoError(t, err)
		subject, _, err := tmpl.Render(sampleData())
		require.NoError(t, err)
		assert.False(t, seen[subject], "duplicate subject %q", subject)
		seen[subject] = true
	}
}

func TestResolveReminderTemplate_Unknown(t *testing.T) {
	_, err := ResolveReminderTemplate(types.ReminderType("3-day reminder"))
	require.Error(t, err)
	assert.True(t, ierr.IsInvalidOperation(err))
}

func TestRender_EscapesUserInput(t *testing.T) {
	tmpl, err := ResolveReminderTemplate(types.ReminderTypeOneDay)
	require.NoError(t, err)

	data := sampleData()
	data.UserName = "<script>alert(1)</script>"
	data.DaysLeft = 1

	_, html, err := tmpl.Render(data)
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "1 day from now")
}
