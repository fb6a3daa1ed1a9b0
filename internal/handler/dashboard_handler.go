package handler

import (
	"net/http"

	"toolcrib/internal/middleware"
	"toolcrib/internal/service"
	"toolcrib/pkg/response"

	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	dashService service.DashboardService
}

func NewDashboardHandler(dashService service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashService: dashService}
}

func (h *DashboardHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/dashboard", middleware.RequirePermission("dashboard.read"), h.GetDashboard)
}

// GetDashboard handles GET /dashboard
// @Summary      Dashboard counters
// @Description  Aggregated inventory, checkout, calibration and order workflow counters
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.DashboardResponse}
// @Failure      500  {object}  response.Response
// @Router       /dashboard [get]
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	dash, err := h.dashService.GetDashboard(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to build dashboard"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, dash))
}
