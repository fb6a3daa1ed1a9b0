package handler

import (
	"net/http"
	"strconv"
	"time"

	"toolcrib/internal/middleware"
	"toolcrib/internal/repository"
	"toolcrib/internal/service"
	"toolcrib/pkg/pagination"
	"toolcrib/pkg/response"

	"github.com/gin-gonic/gin"
)

// maxCertificateSize bounds calibration certificate uploads (10 MiB).
const maxCertificateSize = 10 << 20

type ToolHandler struct {
	toolService service.ToolService
}

func NewToolHandler(toolService service.ToolService) *ToolHandler {
	return &ToolHandler{toolService: toolService}
}

func (h *ToolHandler) RegisterRoutes(router *gin.RouterGroup) {
	tools := router.Group("/tools")
	{
		tools.GET("", middleware.RequirePermission("tools.read"), h.ListTools)
		tools.GET("/calibration-due", middleware.RequirePermission("tools.read"), h.CalibrationDue)
		tools.GET("/checkouts", middleware.RequirePermission("tools.read"), h.ListOpenCheckouts)
		tools.GET("/:id", middleware.RequirePermission("tools.read"), h.GetTool)
		tools.GET("/:id/checkouts", middleware.RequirePermission("tools.read"), h.ListToolCheckouts)
		tools.GET("/:id/calibrations", middleware.RequirePermission("tools.read"), h.ListCalibrations)

		tools.POST("", middleware.RequirePermission("tools.write"), h.CreateTool)
		tools.PUT("/:id", middleware.RequirePermission("tools.write"), h.UpdateTool)
		tools.DELETE("/:id", middleware.RequirePermission("tools.write"), h.DeleteTool)

		tools.POST("/:id/checkout", middleware.RequirePermission("tools.checkout"), h.CheckoutTool)
		tools.POST("/:id/return", middleware.RequirePermission("tools.checkout"), h.ReturnTool)
		tools.POST("/:id/remove-from-service", middleware.RequirePermission("tools.write"), h.RemoveFromService)
		tools.POST("/:id/return-to-service", middleware.RequirePermission("tools.write"), h.ReturnToService)

		tools.POST("/:id/calibrations", middleware.RequirePermission("calibration.write"), h.RecordCalibration)
	}

	router.GET("/checkouts/mine", middleware.RequireAuth(), h.MyCheckouts)
}

// CreateTool handles POST /tools
// @Summary      Create tool
// @Tags         tools
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateToolRequest  true  "Tool"
// @Success      201      {object}  response.Response{data=service.ToolResponse}
// @Failure      400      {object}  response.Response
// @Router       /tools [post]
func (h *ToolHandler) CreateTool(c *gin.Context) {
	var req service.CreateToolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	tool, err := h.toolService.CreateTool(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, tool))
}

// ListTools handles GET /tools with inventory filters
// @Summary      List tools
// @Tags         tools
// @Produce      json
// @Security     BearerAuth
// @Param        page       query     int     false  "Page number"
// @Param        limit      query     int     false  "Items per page"
// @Param        status     query     string  false  "available | checked_out | maintenance | retired"
// @Param        warehouse  query     string  false  "Warehouse filter"
// @Param        search     query     string  false  "Match tool number, serial, description"
// @Success      200  {object}  response.Response{data=object}
// @Router       /tools [get]
func (h *ToolHandler) ListTools(c *gin.Context) {
	p := pagination.Parse(c)

	filter := repository.ToolFilter{
		Status:    c.Query("status"),
		Warehouse: c.Query("warehouse"),
		Search:    c.Query("search"),
	}

	tools, total, err := h.toolService.ListTools(c.Request.Context(), filter, p.Page, p.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch tools"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, pagination.Envelope("tools", tools, total, p)))
}

// GetTool handles GET /tools/:id
// @Summary      Get tool
// @Tags         tools
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Tool ID"
// @Success      200  {object}  response.Response{data=service.ToolResponse}
// @Failure      404  {object}  response.Response
// @Router       /tools/{id} [get]
func (h *ToolHandler) GetTool(c *gin.Context) {
	tool, err := h.toolService.GetTool(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, tool))
}

// UpdateTool handles PUT /tools/:id
// @Summary      Update tool
// @Tags         tools
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                     true  "Tool ID"
// @Param        payload  body      service.UpdateToolRequest  true  "Tool"
// @Success      200      {object}  response.Response{data=service.ToolResponse}
// @Failure      400      {object}  response.Response
// @Router       /tools/{id} [put]
func (h *ToolHandler) UpdateTool(c *gin.Context) {
	var req service.UpdateToolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	tool, err := h.toolService.UpdateTool(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, tool))
}

// DeleteTool handles DELETE /tools/:id
// @Summary      Delete tool
// @Tags         tools
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Tool ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /tools/{id} [delete]
func (h *ToolHandler) DeleteTool(c *gin.Context) {
	if err := h.toolService.DeleteTool(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Tool deleted"))
}

// CheckoutTool handles POST /tools/:id/checkout
// @Summary      Check out a tool
// @Description  Assigns an available tool to the acting user
// @Tags         tools
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                        true   "Tool ID"
// @Param        payload  body      service.CheckoutToolRequest   false  "Checkout options"
// @Success      201      {object}  response.Response{data=service.CheckoutResponse}
// @Failure      400      {object}  response.Response
// @Router       /tools/{id}/checkout [post]
func (h *ToolHandler) CheckoutTool(c *gin.Context) {
	var req service.CheckoutToolRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	checkout, err := h.toolService.CheckoutTool(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, checkout))
}

// ReturnTool handles POST /tools/:id/return
// @Summary      Return a checked-out tool
// @Tags         tools
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Tool ID"
// @Success      200  {object}  response.Response{data=service.ToolResponse}
// @Failure      400  {object}  response.Response
// @Router       /tools/{id}/return [post]
func (h *ToolHandler) ReturnTool(c *gin.Context) {
	tool, err := h.toolService.ReturnTool(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, tool))
}

// RemoveFromService handles POST /tools/:id/remove-from-service
// @Summary      Remove tool from service
// @Description  Marks a tool as maintenance or retired
// @Tags         tools
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                            true  "Tool ID"
// @Param        payload  body      service.RemoveFromServiceRequest  true  "Target state"
// @Success      200      {object}  response.Response{data=service.ToolResponse}
// @Failure      400      {object}  response.Response
// @Router       /tools/{id}/remove-from-service [post]
func (h *ToolHandler) RemoveFromService(c *gin.Context) {
	var req service.RemoveFromServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	tool, err := h.toolService.RemoveFromService(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, tool))
}

// ReturnToService handles POST /tools/:id/return-to-service
// @Summary      Return tool to service
// @Tags         tools
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Tool ID"
// @Success      200  {object}  response.Response{data=service.ToolResponse}
// @Failure      400  {object}  response.Response
// @Router       /tools/{id}/return-to-service [post]
func (h *ToolHandler) ReturnToService(c *gin.Context) {
	tool, err := h.toolService.ReturnToService(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, tool))
}

// RecordCalibration handles POST /tools/:id/calibrations as multipart so the
// certificate scan can ride along with the result fields.
// @Summary      Record calibration
// @Description  Records a calibration event with an optional certificate file upload
// @Tags         tools
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id            path      string  true   "Tool ID"
// @Param        performed_at  formData  string  true   "RFC 3339 timestamp"
// @Param        result        formData  string  true   "pass | fail"
// @Param        notes         formData  string  false  "Notes"
// @Param        certificate   formData  file    false  "Certificate scan"
// @Success      201  {object}  response.Response{data=service.ToolResponse}
// @Failure      400  {object}  response.Response
// @Router       /tools/{id}/calibrations [post]
func (h *ToolHandler) RecordCalibration(c *gin.Context) {
	performedAt, err := time.Parse(time.RFC3339, c.PostForm("performed_at"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "performed_at must be RFC 3339"))
		return
	}

	req := service.RecordCalibrationRequest{
		PerformedAt: performedAt,
		Result:      c.PostForm("result"),
		Notes:       c.PostForm("notes"),
	}
	if req.Result != "pass" && req.Result != "fail" {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "result must be pass or fail"))
		return
	}

	if file, err := c.FormFile("certificate"); err == nil {
		if file.Size > maxCertificateSize {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "certificate exceeds 10MB limit"))
			return
		}
		path, err := saveUpload(c, file, "calibrations")
		if err != nil {
			c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
			return
		}
		req.CertificatePath = path
	}

	tool, err := h.toolService.RecordCalibration(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, tool))
}

// ListCalibrations handles GET /tools/:id/calibrations
// @Summary      List calibration history
// @Tags         tools
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Tool ID"
// @Success      200  {object}  response.Response{data=[]model.CalibrationRecord}
// @Router       /tools/{id}/calibrations [get]
func (h *ToolHandler) ListCalibrations(c *gin.Context) {
	records, err := h.toolService.ListCalibrations(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, records))
}

// CalibrationDue handles GET /tools/calibration-due
// @Summary      List tools due for calibration
// @Tags         tools
// @Produce      json
// @Security     BearerAuth
// @Param        within_days  query     int  false  "Look-ahead window in days (default 30)"
// @Success      200  {object}  response.Response{data=[]service.ToolResponse}
// @Router       /tools/calibration-due [get]
func (h *ToolHandler) CalibrationDue(c *gin.Context) {
	withinDays, _ := strconv.Atoi(c.DefaultQuery("within_days", "30"))

	tools, err := h.toolService.CalibrationDue(c.Request.Context(), withinDays)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch tools"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, tools))
}

// ListToolCheckouts handles GET /tools/:id/checkouts
// @Summary      Checkout history for a tool
// @Tags         tools
// @Produce      json
// @Security     BearerAuth
// @Param        id     path      string  true   "Tool ID"
// @Param        page   query     int     false  "Page number"
// @Param        limit  query     int     false  "Items per page"
// @Success      200  {object}  response.Response{data=object}
// @Router       /tools/{id}/checkouts [get]
func (h *ToolHandler) ListToolCheckouts(c *gin.Context) {
	p := pagination.Parse(c)

	checkouts, total, err := h.toolService.ListToolCheckouts(c.Request.Context(), c.Param("id"), p.Page, p.Limit)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, pagination.Envelope("checkouts", checkouts, total, p)))
}

// ListOpenCheckouts handles GET /tools/checkouts
// @Summary      List all open checkouts
// @Tags         tools
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number"
// @Param        limit  query     int  false  "Items per page"
// @Success      200  {object}  response.Response{data=object}
// @Router       /tools/checkouts [get]
func (h *ToolHandler) ListOpenCheckouts(c *gin.Context) {
	p := pagination.Parse(c)

	checkouts, total, err := h.toolService.ListOpenCheckouts(c.Request.Context(), p.Page, p.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch checkouts"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, pagination.Envelope("checkouts", checkouts, total, p)))
}

// MyCheckouts handles GET /checkouts/mine
// @Summary      List the acting user's checkouts
// @Tags         tools
// @Produce      json
// @Security     BearerAuth
// @Param        open   query     bool  false  "Only open checkouts"
// @Param        page   query     int   false  "Page number"
// @Param        limit  query     int   false  "Items per page"
// @Success      200  {object}  response.Response{data=object}
// @Router       /checkouts/mine [get]
func (h *ToolHandler) MyCheckouts(c *gin.Context) {
	p := pagination.Parse(c)
	openOnly := c.DefaultQuery("open", "true") == "true"

	checkouts, total, err := h.toolService.ListUserCheckouts(c.Request.Context(), c.GetString("userID"), openOnly, p.Page, p.Limit)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, pagination.Envelope("checkouts", checkouts, total, p)))
}
