package email

import (
	"bytes"
	"fmt"
	"html/template"

	ierr "github.com/subtrack/subtrack/internal/errors"
	"github.com/subtrack/subtrack/internal/types"
)

// RenewalDateLayout is the display format for renewal dates in reminder emails
const RenewalDateLayout = "Jan 2, 2006"

// ReminderTemplateData is everything a reminder email can show
type ReminderTemplateData struct {
	UserName            string
	SubscriptionName    string
	RenewalDate         string
	PlanName            string
	Price               string
	Frequency           string
	PaymentMethod       string
	AccountSettingsLink string
	SupportLink         string
	DaysLeft            int
}

// ReminderTemplate renders the subject and HTML body of one reminder type
type ReminderTemplate struct {
	Type    types.ReminderType
	subject func(data ReminderTemplateData) string
	body    *template.Template
}

// Render produces the subject line and HTML body for data
func (t ReminderTemplate) Render(data ReminderTemplateData) (subject string, html string, err error) {
	var buf bytes.Buffer
	if err := t.body.Execute(&buf, data); err != nil {
		return "", "", ierr.WithError(err).
			WithHintf("Failed to render %s email", t.Type).
			Mark(ierr.ErrInternal)
	}
	return t.subject(data), buf.String(), nil
}

var reminderBody = template.Must(template.New("reminder").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta http-equiv="Content-Type" content="text/html; charset=UTF-8" />
    <title>{{.SubscriptionName}} renewal reminder</title>
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Helvetica, Arial, sans-serif; font-size: 14px; line-height: 1.6; color: #333;">
    <p>Hello <strong>{{.UserName}}</strong>,</p>
    <p>Your <strong>{{.SubscriptionName}}</strong> subscription is set to renew on <strong>{{.RenewalDate}}</strong> ({{.DaysLeft}} {{if eq .DaysLeft 1}}day{{else}}days{{end}} from now).</p>
    <table style="border-collapse: collapse; margin: 16px 0;">
        <tr><td style="padding: 4px 12px 4px 0;"><strong>Plan</strong></td><td>{{.PlanName}}</td></tr>
        <tr><td style="padding: 4px 12px 4px 0;"><strong>Price</strong></td><td>{{.Price}} ({{.Frequency}})</td></tr>
        <tr><td style="padding: 4px 12px 4px 0;"><strong>Payment Method</strong></td><td>{{.PaymentMethod}}</td></tr>
    </table>
    <p>If you'd like to make changes or cancel your subscription, please visit your <a href="{{.AccountSettingsLink}}">account settings</a> before the renewal date.</p>
    <p>Need help? <a href="{{.SupportLink}}">Contact our support team</a>.</p>
    <p>Best regards,<br/><strong>The Subtrack Team</strong></p>
</body>
</html>`))

// ResolveReminderTemplate returns the generator pair for a reminder type. The switch is
// exhaustive over types.ReminderType; anything else is a configuration error.
func ResolveReminderTemplate(reminderType types.ReminderType) (ReminderTemplate, error) {
	var subject func(data ReminderTemplateData) string

	switch reminderType {
	case types.ReminderTypeSevenDay:
		subject = func(d ReminderTemplateData) string {
			return fmt.Sprintf("📅 Reminder: Your %s Subscription Renews in 7 Days!", d.SubscriptionName)
		}
	case types.ReminderTypeFiveDay:
		subject = func(d ReminderTemplateData) string {
			return fmt.Sprintf("⏳ %s Renews in 5 Days – Stay Subscribed!", d.SubscriptionName)
		}
	case types.ReminderTypeTwoDay:
		subject = func(d ReminderTemplateData) string {
			return fmt.Sprintf("🚀 2 Days Left! %s Subscription Renewal", d.SubscriptionName)
		}
	case types.ReminderTypeOneDay:
		subject = func(d ReminderTemplateData) string {
			return fmt.Sprintf("⚡ Final Reminder: %s Renews Tomorrow!", d.SubscriptionName)
		}
	default:
		return ReminderTemplate{}, ierr.NewError("unknown reminder type").
			WithHintf("No email template for reminder type %q", reminderType).
			WithReportableDetails(map[string]interface{}{
				"reminder_type": reminderType,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	return ReminderTemplate{
		Type:    reminderType,
		subject: subject,
		body:    reminderBody,
	}, nil
}
