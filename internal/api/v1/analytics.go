package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/subtrack/subtrack/internal/service"
	"github.com/subtrack/subtrack/internal/types"
)

type AnalyticsHandler struct {
	service service.AnalyticsService
}

func NewAnalyticsHandler(svc service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{service: svc}
}

// @Summary Expenses over time
// @Tags Analytics
// @Produce json
// @Security BearerAuth
// @Param period query string false "monthly or yearly" default(monthly)
// @Success 200 {object} dto.ExpensesResponse
// @Router /analytics/expenses [get]
func (h *AnalyticsHandler) GetExpenses(c *gin.Context) {
	period := types.ExpensePeriod(c.DefaultQuery("period", string(types.ExpensePeriodMonthly)))

	resp, err := h.service.GetExpenses(c.Request.Context(), period)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Monthly spend per category
// @Tags Analytics
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.CategoriesResponse
// @Router /analytics/categories [get]
func (h *AnalyticsHandler) GetCategoryBreakdown(c *gin.Context) {
	resp, err := h.service.GetCategoryBreakdown(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
