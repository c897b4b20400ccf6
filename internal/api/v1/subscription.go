package v1

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/subtrack/subtrack/internal/api/dto"
	ierr "github.com/subtrack/subtrack/internal/errors"
	"github.com/subtrack/subtrack/internal/logger"
	"github.com/subtrack/subtrack/internal/service"
)

type SubscriptionHandler struct {
	service   service.SubscriptionService
	reminders service.ReminderService
	log       *logger.Logger
}

func NewSubscriptionHandler(svc service.SubscriptionService, reminders service.ReminderService, log *logger.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		service:   svc,
		reminders: reminders,
		log:       log,
	}
}

// @Summary Create subscription
// @Description Track a new subscription and schedule its renewal reminders. A scheduling failure is returned as a warning.
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param subscription body dto.CreateSubscriptionRequest true "Subscription Request"
// @Success 201 {object} dto.CreateSubscriptionResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /subscriptions [post]
func (h *SubscriptionHandler) CreateSubscription(c *gin.Context) {
	var req dto.CreateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.CreateSubscription(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// @Summary List subscriptions
// @Tags Subscriptions
// @Produce json
// @Security BearerAuth
// @Param filter query dto.ListSubscriptionsRequest false "Filter"
// @Success 200 {object} dto.ListSubscriptionsResponse
// @Router /subscriptions [get]
func (h *SubscriptionHandler) ListSubscriptions(c *gin.Context) {
	var req dto.ListSubscriptionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid filter parameters").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.ListSubscriptions(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary List subscriptions of a user
// @Description Only the user themself may list their subscriptions
// @Tags Subscriptions
// @Produce json
// @Security BearerAuth
// @Param user_id path string true "User ID"
// @Success 200 {object} dto.ListSubscriptionsResponse
// @Failure 403 {object} ierr.ErrorResponse
// @Router /subscriptions/user/{user_id} [get]
func (h *SubscriptionHandler) ListUserSubscriptions(c *gin.Context) {
	var req dto.ListSubscriptionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid filter parameters").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.ListUserSubscriptions(c.Request.Context(), c.Param("user_id"), &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Upcoming renewals
// @Description Active subscriptions renewing within the next 7 days
// @Tags Subscriptions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.ListSubscriptionsResponse
// @Router /subscriptions/upcoming-renewals [get]
func (h *SubscriptionHandler) ListUpcomingRenewals(c *gin.Context) {
	resp, err := h.service.ListUpcomingRenewals(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Export subscriptions
// @Tags Subscriptions
// @Produce text/csv
// @Security BearerAuth
// @Param status query []string false "Statuses to include"
// @Success 200 {file} file
// @Router /subscriptions/export [get]
func (h *SubscriptionHandler) ExportSubscriptions(c *gin.Context) {
	var req dto.ExportSubscriptionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid export parameters").
			Mark(ierr.ErrValidation))
		return
	}

	data, total, err := h.service.ExportSubscriptions(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="subscriptions.csv"`)
	c.Header("X-Total-Count", strconv.Itoa(total))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

// @Summary Get subscription
// @Tags Subscriptions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Subscription ID"
// @Success 200 {object} dto.SubscriptionResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /subscriptions/{id} [get]
func (h *SubscriptionHandler) GetSubscription(c *gin.Context) {
	resp, err := h.service.GetSubscription(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Cancel subscription
// @Description Marks the subscription cancelled; pending reminders stop at their next wake-up
// @Tags Subscriptions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Subscription ID"
// @Success 200 {object} dto.SubscriptionResponse
// @Router /subscriptions/{id}/cancel [patch]
func (h *SubscriptionHandler) CancelSubscription(c *gin.Context) {
	resp, err := h.service.CancelSubscription(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Delete subscription
// @Tags Subscriptions
// @Security BearerAuth
// @Param id path string true "Subscription ID"
// @Success 204
// @Router /subscriptions/{id} [delete]
func (h *SubscriptionHandler) DeleteSubscription(c *gin.Context) {
	if err := h.service.DeleteSubscription(c.Request.Context(), c.Param("id")); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary Start reminders
// @Description Start a new reminder run for the subscription
// @Tags Subscriptions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Subscription ID"
// @Success 202 {object} dto.WorkflowRunResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Router /subscriptions/{id}/reminders [post]
func (h *SubscriptionHandler) TriggerReminders(c *gin.Context) {
	resp, err := h.service.TriggerReminders(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusAccepted, resp)
}

// @Summary Reminder run status
// @Description Temporal status, reminder state and timeline of the subscription's reminder run
// @Tags Subscriptions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Subscription ID"
// @Param run_id query string false "Run ID, defaults to the latest run"
// @Success 200 {object} dto.ReminderRunStatusResponse
// @Router /subscriptions/{id}/reminders [get]
func (h *SubscriptionHandler) GetReminderStatus(c *gin.Context) {
	resp, err := h.reminders.GetReminderStatus(c.Request.Context(), c.Param("id"), c.Query("run_id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
