package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/subtrack/subtrack/internal/email"
	"github.com/subtrack/subtrack/internal/temporal/activities/reminder"
	"github.com/subtrack/subtrack/internal/temporal/models"
	"github.com/subtrack/subtrack/internal/types"
)

type reminderDispatcher struct {
	ServiceParams
}

// NewReminderDispatcher returns the dispatcher used by SendReminderActivity
func NewReminderDispatcher(params ServiceParams) reminder.Dispatcher {
	return &reminderDispatcher{
		ServiceParams: params,
	}
}

// Dispatch makes one delivery attempt. Every failure is reported in the result.
func (d *reminderDispatcher) Dispatch(ctx context.Context, reminderType types.ReminderType, sub models.SubscriptionSnapshot) models.DispatchResult {
	log := d.Logger.WithContext(ctx)

	tmpl, err := email.ResolveReminderTemplate(reminderType)
	if err != nil {
		log.Errorw("no template for reminder type",
			"reminder_type", reminderType,
			"subscription_id", sub.ID,
			"error", err)
		return failedDispatch("invalid reminder type: %s", reminderType)
	}

	recipient, err := d.UserRepo.GetByID(ctx, sub.UserID)
	if err != nil {
		log.Warnw("reminder recipient lookup failed",
			"user_id", sub.UserID,
			"subscription_id", sub.ID,
			"error", err)
		return failedDispatch("recipient not found: %s", sub.UserID)
	}
	if recipient.Email == "" {
		return failedDispatch("recipient %s has no email address", sub.UserID)
	}

	subject, html, err := tmpl.Render(d.templateData(reminderType, sub, recipient.Name))
	if err != nil {
		return failedDispatch("render failed: %v", err)
	}

	messageID, err := d.EmailSender.Send(ctx, email.Message{
		To:      recipient.Email,
		Subject: subject,
		HTML:    html,
	})
	if err != nil {
		return failedDispatch("send failed: %v", err)
	}

	return models.DispatchResult{
		Sent:      true,
		MessageID: messageID,
	}
}

func (d *reminderDispatcher) templateData(reminderType types.ReminderType, sub models.SubscriptionSnapshot, userName string) email.ReminderTemplateData {
	clientURL := strings.TrimRight(d.Config.Reminder.ClientURL, "/")
	return email.ReminderTemplateData{
		UserName:            userName,
		SubscriptionName:    sub.Name,
		RenewalDate:         sub.RenewalDate.Format(email.RenewalDateLayout),
		PlanName:            sub.Name,
		Price:               fmt.Sprintf("%s %s", sub.Currency, sub.Price.String()),
		Frequency:           sub.Frequency.String(),
		PaymentMethod:       sub.PaymentMethod,
		AccountSettingsLink: clientURL + "/account",
		SupportLink:         clientURL + "/support",
		DaysLeft:            reminderType.DaysBefore(),
	}
}

func failedDispatch(format string, args ...interface{}) models.DispatchResult {
	return models.DispatchResult{
		Sent:   false,
		Reason: fmt.Sprintf(format, args...),
	}
}
