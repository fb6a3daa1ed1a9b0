package handler

import (
	"net/http"
	"strconv"

	"toolcrib/internal/middleware"
	"toolcrib/internal/repository"
	"toolcrib/internal/service"
	"toolcrib/pkg/pagination"
	"toolcrib/pkg/response"

	"github.com/gin-gonic/gin"
)

type ChemicalHandler struct {
	chemService service.ChemicalService
}

func NewChemicalHandler(chemService service.ChemicalService) *ChemicalHandler {
	return &ChemicalHandler{chemService: chemService}
}

func (h *ChemicalHandler) RegisterRoutes(router *gin.RouterGroup) {
	chems := router.Group("/chemicals")
	{
		chems.GET("", middleware.RequirePermission("chemicals.read"), h.ListChemicals)
		chems.GET("/expiring", middleware.RequirePermission("chemicals.read"), h.ExpiringChemicals)
		chems.GET("/:id", middleware.RequirePermission("chemicals.read"), h.GetChemical)
		chems.POST("", middleware.RequirePermission("chemicals.write"), h.CreateChemical)
		chems.PUT("/:id", middleware.RequirePermission("chemicals.write"), h.UpdateChemical)
		chems.DELETE("/:id", middleware.RequirePermission("chemicals.write"), h.DeleteChemical)
		chems.POST("/:id/issue", middleware.RequirePermission("chemicals.write"), h.IssueChemical)
	}
}

// CreateChemical handles POST /chemicals
// @Summary      Create chemical lot
// @Tags         chemicals
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateChemicalRequest  true  "Chemical lot"
// @Success      201      {object}  response.Response{data=model.Chemical}
// @Failure      400      {object}  response.Response
// @Router       /chemicals [post]
func (h *ChemicalHandler) CreateChemical(c *gin.Context) {
	var req service.CreateChemicalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	chem, err := h.chemService.CreateChemical(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, chem))
}

// ListChemicals handles GET /chemicals
// @Summary      List chemicals
// @Tags         chemicals
// @Produce      json
// @Security     BearerAuth
// @Param        page       query     int     false  "Page number"
// @Param        limit      query     int     false  "Items per page"
// @Param        status     query     string  false  "available | expired | depleted"
// @Param        warehouse  query     string  false  "Warehouse filter"
// @Param        search     query     string  false  "Match part number, lot, description"
// @Success      200  {object}  response.Response{data=object}
// @Router       /chemicals [get]
func (h *ChemicalHandler) ListChemicals(c *gin.Context) {
	p := pagination.Parse(c)

	filter := repository.ChemicalFilter{
		Status:    c.Query("status"),
		Warehouse: c.Query("warehouse"),
		Search:    c.Query("search"),
	}

	chems, total, err := h.chemService.ListChemicals(c.Request.Context(), filter, p.Page, p.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch chemicals"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, pagination.Envelope("chemicals", chems, total, p)))
}

// GetChemical handles GET /chemicals/:id
// @Summary      Get chemical lot
// @Tags         chemicals
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Chemical ID"
// @Success      200  {object}  response.Response{data=model.Chemical}
// @Failure      404  {object}  response.Response
// @Router       /chemicals/{id} [get]
func (h *ChemicalHandler) GetChemical(c *gin.Context) {
	chem, err := h.chemService.GetChemical(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, chem))
}

// UpdateChemical handles PUT /chemicals/:id
// @Summary      Update chemical lot
// @Tags         chemicals
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                         true  "Chemical ID"
// @Param        payload  body      service.UpdateChemicalRequest  true  "Chemical lot"
// @Success      200      {object}  response.Response{data=model.Chemical}
// @Failure      400      {object}  response.Response
// @Router       /chemicals/{id} [put]
func (h *ChemicalHandler) UpdateChemical(c *gin.Context) {
	var req service.UpdateChemicalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	chem, err := h.chemService.UpdateChemical(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, chem))
}

// DeleteChemical handles DELETE /chemicals/:id
// @Summary      Delete chemical lot
// @Tags         chemicals
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Chemical ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /chemicals/{id} [delete]
func (h *ChemicalHandler) DeleteChemical(c *gin.Context) {
	if err := h.chemService.DeleteChemical(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Chemical deleted"))
}

// IssueChemical handles POST /chemicals/:id/issue
// @Summary      Issue quantity from a chemical lot
// @Description  Deducts a fractional quantity; expired lots are refused
// @Tags         chemicals
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                        true  "Chemical ID"
// @Param        payload  body      service.IssueChemicalRequest  true  "Quantity"
// @Success      200      {object}  response.Response{data=model.Chemical}
// @Failure      400      {object}  response.Response
// @Router       /chemicals/{id}/issue [post]
func (h *ChemicalHandler) IssueChemical(c *gin.Context) {
	var req service.IssueChemicalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	chem, err := h.chemService.IssueChemical(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, chem))
}

// ExpiringChemicals handles GET /chemicals/expiring
// @Summary      List chemicals expiring soon
// @Tags         chemicals
// @Produce      json
// @Security     BearerAuth
// @Param        within_days  query     int  false  "Look-ahead window in days (default 30)"
// @Success      200  {object}  response.Response{data=[]model.Chemical}
// @Router       /chemicals/expiring [get]
func (h *ChemicalHandler) ExpiringChemicals(c *gin.Context) {
	withinDays, _ := strconv.Atoi(c.DefaultQuery("within_days", "30"))

	chems, err := h.chemService.ExpiringChemicals(c.Request.Context(), withinDays)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch chemicals"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, chems))
}
