package handler

import (
	"net/http"

	"toolcrib/internal/middleware"
	"toolcrib/internal/service"
	"toolcrib/pkg/response"

	"github.com/gin-gonic/gin"
)

type DepartmentHandler struct {
	deptService service.DepartmentService
}

func NewDepartmentHandler(deptService service.DepartmentService) *DepartmentHandler {
	return &DepartmentHandler{deptService: deptService}
}

func (h *DepartmentHandler) RegisterRoutes(router *gin.RouterGroup) {
	depts := router.Group("/departments")
	{
		depts.GET("", middleware.RequirePermission("users.read"), h.ListDepartments)
		depts.GET("/:id", middleware.RequirePermission("users.read"), h.GetDepartment)
		depts.POST("", middleware.RequirePermission("departments.write"), h.CreateDepartment)
		depts.PUT("/:id", middleware.RequirePermission("departments.write"), h.UpdateDepartment)
		depts.PUT("/:id/active", middleware.RequirePermission("departments.write"), h.SetDepartmentActive)
		depts.DELETE("/:id", middleware.RequirePermission("departments.write"), h.DeleteDepartment)
	}
}

// CreateDepartment handles POST /departments
// @Summary      Create department
// @Tags         departments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateDepartmentRequest  true  "Department"
// @Success      201      {object}  response.Response{data=service.DepartmentResponse}
// @Failure      400      {object}  response.Response
// @Router       /departments [post]
func (h *DepartmentHandler) CreateDepartment(c *gin.Context) {
	var req service.CreateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	dept, err := h.deptService.CreateDepartment(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, dept))
}

// ListDepartments handles GET /departments
// @Summary      List departments
// @Tags         departments
// @Produce      json
// @Security     BearerAuth
// @Param        active  query     bool  false  "Only active departments"
// @Success      200     {object}  response.Response{data=[]service.DepartmentResponse}
// @Router       /departments [get]
func (h *DepartmentHandler) ListDepartments(c *gin.Context) {
	depts, err := h.deptService.ListDepartments(c.Request.Context(), c.Query("active") == "true")
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch departments"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, depts))
}

// GetDepartment handles GET /departments/:id
// @Summary      Get department
// @Tags         departments
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Department ID"
// @Success      200  {object}  response.Response{data=service.DepartmentResponse}
// @Failure      404  {object}  response.Response
// @Router       /departments/{id} [get]
func (h *DepartmentHandler) GetDepartment(c *gin.Context) {
	dept, err := h.deptService.GetDepartment(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, dept))
}

// UpdateDepartment handles PUT /departments/:id
// @Summary      Update department
// @Tags         departments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                           true  "Department ID"
// @Param        payload  body      service.UpdateDepartmentRequest  true  "Department"
// @Success      200      {object}  response.Response{data=service.DepartmentResponse}
// @Failure      400      {object}  response.Response
// @Router       /departments/{id} [put]
func (h *DepartmentHandler) UpdateDepartment(c *gin.Context) {
	var req service.UpdateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	dept, err := h.deptService.UpdateDepartment(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, dept))
}

// SetDepartmentActive handles PUT /departments/:id/active
// @Summary      Activate or deactivate department
// @Tags         departments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string  true  "Department ID"
// @Param        payload  body      object  true  "{\"active\": bool}"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Router       /departments/{id}/active [put]
func (h *DepartmentHandler) SetDepartmentActive(c *gin.Context) {
	var req struct {
		Active *bool `json:"active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	if err := h.deptService.SetDepartmentActive(c.Request.Context(), c.GetString("userID"), c.Param("id"), *req.Active); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"active": *req.Active}))
}

// DeleteDepartment handles DELETE /departments/:id
// @Summary      Delete department
// @Description  Hard-deletes an empty department; departments with members must be deactivated instead
// @Tags         departments
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Department ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /departments/{id} [delete]
func (h *DepartmentHandler) DeleteDepartment(c *gin.Context) {
	if err := h.deptService.DeleteDepartment(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Department deleted"))
}
