package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/subtrack/subtrack/internal/api/dto"
	ierr "github.com/subtrack/subtrack/internal/errors"
	"github.com/subtrack/subtrack/internal/logger"
	"github.com/subtrack/subtrack/internal/service"
)

type ReminderHandler struct {
	service service.ReminderService
	log     *logger.Logger
}

func NewReminderHandler(svc service.ReminderService, log *logger.Logger) *ReminderHandler {
	return &ReminderHandler{
		service: svc,
		log:     log,
	}
}

// @Summary Backfill reminder runs
// @Description Start a reminder run for every active subscription that has none in progress
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.BackfillRemindersRequest false "Backfill options"
// @Success 200 {object} dto.BackfillRemindersResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /admin/reminders/backfill [post]
func (h *ReminderHandler) Backfill(c *gin.Context) {
	var req dto.BackfillRemindersRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(ierr.WithError(err).
				WithHint("Invalid request format").
				Mark(ierr.ErrValidation))
			return
		}
	}

	resp, err := h.service.Backfill(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		return
	}

	h.log.WithContext(c.Request.Context()).Infow("reminder backfill requested",
		"started", resp.Started,
		"failed", resp.Failed)
	c.JSON(http.StatusOK, resp)
}
