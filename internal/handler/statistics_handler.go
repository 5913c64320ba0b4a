package handler

import (
	"net/http"

	"github.com/syedsanaulhaq/ims-v2-sub002/internal/middleware"
	"github.com/syedsanaulhaq/ims-v2-sub002/internal/model"
	"github.com/syedsanaulhaq/ims-v2-sub002/internal/service"
	"github.com/syedsanaulhaq/ims-v2-sub002/pkg/response"

	"github.com/gin-gonic/gin"
)

type StatisticsHandler struct {
	statisticsService service.StatisticsService
}

func NewStatisticsHandler(statisticsService service.StatisticsService) *StatisticsHandler {
	return &StatisticsHandler{statisticsService: statisticsService}
}

func (h *StatisticsHandler) RegisterRoutes(router *gin.RouterGroup) {
	stats := router.Group("/api/statistics")
	{
		stats.GET("/dashboard", middleware.RequireRole(model.RoleSupervisor, model.RoleAdmin), h.GetDashboard)
	}
}

// GetDashboard handles GET /api/statistics/dashboard
// @Summary      Get workflow dashboard statistics
// @Description  Aggregates queue depth per level and wing, and oldest pending item age
// @Tags         statistics
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.DashboardStats}
// @Failure      500  {object}  response.Response
// @Router       /api/statistics/dashboard [get]
func (h *StatisticsHandler) GetDashboard(c *gin.Context) {
	stats, err := h.statisticsService.GetDashboard(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to compute statistics"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}
