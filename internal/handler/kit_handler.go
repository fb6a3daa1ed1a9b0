package handler

import (
	"net/http"

	"toolcrib/internal/middleware"
	"toolcrib/internal/service"
	"toolcrib/pkg/pagination"
	"toolcrib/pkg/response"

	"github.com/gin-gonic/gin"
)

type KitHandler struct {
	kitService service.KitService
}

func NewKitHandler(kitService service.KitService) *KitHandler {
	return &KitHandler{kitService: kitService}
}

func (h *KitHandler) RegisterRoutes(router *gin.RouterGroup) {
	kits := router.Group("/kits")
	{
		kits.GET("", middleware.RequirePermission("kits.read"), h.ListKits)
		kits.GET("/:id", middleware.RequirePermission("kits.read"), h.GetKit)
		kits.POST("", middleware.RequirePermission("kits.write"), h.CreateKit)
		kits.PUT("/:id", middleware.RequirePermission("kits.write"), h.UpdateKit)
		kits.PUT("/:id/active", middleware.RequirePermission("kits.write"), h.SetKitActive)
		kits.DELETE("/:id", middleware.RequirePermission("kits.write"), h.DeleteKit)

		kits.POST("/:id/boxes", middleware.RequirePermission("kits.write"), h.AddBox)
	}

	boxes := router.Group("/kit-boxes")
	{
		boxes.DELETE("/:id", middleware.RequirePermission("kits.write"), h.RemoveBox)
		boxes.POST("/:id/items", middleware.RequirePermission("kits.write"), h.AddItem)
	}

	items := router.Group("/kit-items")
	{
		items.PUT("/:id", middleware.RequirePermission("kits.write"), h.UpdateItem)
		items.DELETE("/:id", middleware.RequirePermission("kits.write"), h.RemoveItem)
		items.POST("/:id/issue", middleware.RequirePermission("kits.issue"), h.IssueItem)
		items.POST("/:id/restock", middleware.RequirePermission("kits.issue"), h.RestockItem)
	}
}

// CreateKit handles POST /kits
// @Summary      Create kit
// @Tags         kits
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateKitRequest  true  "Kit"
// @Success      201      {object}  response.Response{data=model.Kit}
// @Failure      400      {object}  response.Response
// @Router       /kits [post]
func (h *KitHandler) CreateKit(c *gin.Context) {
	var req service.CreateKitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	kit, err := h.kitService.CreateKit(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, kit))
}

// ListKits handles GET /kits
// @Summary      List kits
// @Tags         kits
// @Produce      json
// @Security     BearerAuth
// @Param        page           query     int     false  "Page number"
// @Param        limit          query     int     false  "Items per page"
// @Param        aircraft_type  query     string  false  "Filter by aircraft type"
// @Param        active         query     bool    false  "Only active kits"
// @Success      200  {object}  response.Response{data=object}
// @Router       /kits [get]
func (h *KitHandler) ListKits(c *gin.Context) {
	p := pagination.Parse(c)

	kits, total, err := h.kitService.ListKits(c.Request.Context(),
		c.Query("aircraft_type"), c.Query("active") == "true", p.Page, p.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch kits"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, pagination.Envelope("kits", kits, total, p)))
}

// GetKit handles GET /kits/:id with boxes and items preloaded
// @Summary      Get kit
// @Tags         kits
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Kit ID"
// @Success      200  {object}  response.Response{data=model.Kit}
// @Failure      404  {object}  response.Response
// @Router       /kits/{id} [get]
func (h *KitHandler) GetKit(c *gin.Context) {
	kit, err := h.kitService.GetKit(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, kit))
}

// UpdateKit handles PUT /kits/:id
// @Summary      Update kit
// @Tags         kits
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                    true  "Kit ID"
// @Param        payload  body      service.UpdateKitRequest  true  "Kit"
// @Success      200      {object}  response.Response{data=model.Kit}
// @Failure      400      {object}  response.Response
// @Router       /kits/{id} [put]
func (h *KitHandler) UpdateKit(c *gin.Context) {
	var req service.UpdateKitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	kit, err := h.kitService.UpdateKit(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, kit))
}

// SetKitActive handles PUT /kits/:id/active
// @Summary      Activate or deactivate kit
// @Tags         kits
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string  true  "Kit ID"
// @Param        payload  body      object  true  "{\"active\": bool}"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Router       /kits/{id}/active [put]
func (h *KitHandler) SetKitActive(c *gin.Context) {
	var req struct {
		Active *bool `json:"active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	if err := h.kitService.SetKitActive(c.Request.Context(), c.GetString("userID"), c.Param("id"), *req.Active); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"active": *req.Active}))
}

// DeleteKit handles DELETE /kits/:id
// @Summary      Delete kit
// @Description  Only deactivated kits can be deleted
// @Tags         kits
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Kit ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /kits/{id} [delete]
func (h *KitHandler) DeleteKit(c *gin.Context) {
	if err := h.kitService.DeleteKit(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Kit deleted"))
}

// AddBox handles POST /kits/:id/boxes
// @Summary      Add box to kit
// @Tags         kits
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                       true  "Kit ID"
// @Param        payload  body      service.CreateKitBoxRequest  true  "Box"
// @Success      201      {object}  response.Response{data=model.KitBox}
// @Failure      400      {object}  response.Response
// @Router       /kits/{id}/boxes [post]
func (h *KitHandler) AddBox(c *gin.Context) {
	var req service.CreateKitBoxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	box, err := h.kitService.AddBox(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, box))
}

// RemoveBox handles DELETE /kit-boxes/:id
// @Summary      Remove box
// @Description  Removes a box and all items inside it
// @Tags         kits
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Box ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /kit-boxes/{id} [delete]
func (h *KitHandler) RemoveBox(c *gin.Context) {
	if err := h.kitService.RemoveBox(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Box removed"))
}

// AddItem handles POST /kit-boxes/:id/items
// @Summary      Add item to box
// @Tags         kits
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                        true  "Box ID"
// @Param        payload  body      service.CreateKitItemRequest  true  "Item"
// @Success      201      {object}  response.Response{data=model.KitItem}
// @Failure      400      {object}  response.Response
// @Router       /kit-boxes/{id}/items [post]
func (h *KitHandler) AddItem(c *gin.Context) {
	var req service.CreateKitItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	item, err := h.kitService.AddItem(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, item))
}

// UpdateItem handles PUT /kit-items/:id
// @Summary      Update kit item
// @Tags         kits
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                        true  "Item ID"
// @Param        payload  body      service.UpdateKitItemRequest  true  "Item"
// @Success      200      {object}  response.Response{data=model.KitItem}
// @Failure      400      {object}  response.Response
// @Router       /kit-items/{id} [put]
func (h *KitHandler) UpdateItem(c *gin.Context) {
	var req service.UpdateKitItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	item, err := h.kitService.UpdateItem(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// RemoveItem handles DELETE /kit-items/:id
// @Summary      Remove kit item
// @Tags         kits
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Item ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /kit-items/{id} [delete]
func (h *KitHandler) RemoveItem(c *gin.Context) {
	if err := h.kitService.RemoveItem(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Item removed"))
}

// IssueItem handles POST /kit-items/:id/issue
// @Summary      Issue quantity from a kit item
// @Tags         kits
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                          true  "Item ID"
// @Param        payload  body      service.KitItemQuantityRequest  true  "Quantity"
// @Success      200      {object}  response.Response{data=model.KitItem}
// @Failure      400      {object}  response.Response
// @Router       /kit-items/{id}/issue [post]
func (h *KitHandler) IssueItem(c *gin.Context) {
	var req service.KitItemQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	item, err := h.kitService.IssueItem(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// RestockItem handles POST /kit-items/:id/restock
// @Summary      Restock a kit item
// @Tags         kits
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                          true  "Item ID"
// @Param        payload  body      service.KitItemQuantityRequest  true  "Quantity"
// @Success      200      {object}  response.Response{data=model.KitItem}
// @Failure      400      {object}  response.Response
// @Router       /kit-items/{id}/restock [post]
func (h *KitHandler) RestockItem(c *gin.Context) {
	var req service.KitItemQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	item, err := h.kitService.RestockItem(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}
