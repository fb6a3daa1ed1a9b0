package handler

import (
	"net/http"
	"time"

	"toolcrib/internal/middleware"
	"toolcrib/internal/repository"
	"toolcrib/internal/service"
	"toolcrib/pkg/pagination"
	"toolcrib/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AuditHandler struct {
	auditService service.AuditService
}

func NewAuditHandler(auditService service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/audit-logs", middleware.RequirePermission("audit.read"), h.GetAuditLogs)
}

// GetAuditLogs handles GET /audit-logs
// @Summary      List audit logs
// @Description  Paginated activity history, filterable by action, user and time range
// @Tags         audit
// @Produce      json
// @Security     BearerAuth
// @Param        page     query     int     false  "Page number"
// @Param        limit    query     int     false  "Items per page"
// @Param        action   query     string  false  "Action code filter"
// @Param        user_id  query     string  false  "Acting user filter"
// @Param        from     query     string  false  "After (RFC 3339)"
// @Param        to       query     string  false  "Before (RFC 3339)"
// @Success      200  {object}  response.Response{data=object}
// @Failure      500  {object}  response.Response
// @Router       /audit-logs [get]
func (h *AuditHandler) GetAuditLogs(c *gin.Context) {
	p := pagination.Parse(c)

	filter := repository.AuditFilter{
		Action: c.Query("action"),
	}
	if userStr := c.Query("user_id"); userStr != "" {
		userID, err := uuid.Parse(userStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid user id"))
			return
		}
		filter.UserID = &userID
	}
	if fromStr := c.Query("from"); fromStr != "" {
		if from, err := time.Parse(time.RFC3339, fromStr); err == nil {
			filter.From = &from
		}
	}
	if toStr := c.Query("to"); toStr != "" {
		if to, err := time.Parse(time.RFC3339, toStr); err == nil {
			filter.To = &to
		}
	}

	logs, total, err := h.auditService.GetAuditLogs(c.Request.Context(), filter, p.Page, p.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch audit logs"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, pagination.Envelope("logs", logs, total, p)))
}
