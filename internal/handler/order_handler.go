package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"toolcrib/internal/middleware"
	"toolcrib/internal/repository"
	"toolcrib/internal/service"
	"toolcrib/pkg/pagination"
	"toolcrib/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// maxDocumentSize bounds order document uploads (20 MiB).
const maxDocumentSize = 20 << 20

type OrderHandler struct {
	orderService service.OrderService
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	orders := router.Group("/orders")
	{
		orders.GET("", middleware.RequirePermission("orders.read"), h.ListOrders)
		orders.GET("/:id", middleware.RequirePermission("orders.read"), h.GetOrder)
		orders.POST("", middleware.RequirePermission("orders.write"), h.CreateOrder)
		orders.PUT("/:id", middleware.RequirePermission("orders.write"), h.UpdateOrder)
		orders.POST("/:id/transition", middleware.RequirePermission("orders.process"), h.TransitionOrder)
		orders.POST("/:id/document", middleware.RequirePermission("orders.write"), h.UploadDocument)

		orders.GET("/:id/messages", middleware.RequirePermission("orders.read"), h.ListMessages)
		orders.POST("/:id/messages", middleware.RequirePermission("orders.read"), h.SendMessage)
	}

	inbox := router.Group("/inbox", middleware.RequireAuth())
	{
		inbox.GET("", h.Inbox)
		inbox.PUT("/:id/read", h.MarkMessageRead)
	}
}

// orderError maps service failures to status codes; stale-version writes
// surface as 409 so clients know to re-read and retry.
func orderError(c *gin.Context, err error) {
	if errors.Is(err, repository.ErrVersionConflict) {
		c.JSON(http.StatusConflict, response.Error(http.StatusConflict, err.Error()))
		return
	}
	c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
}

// CreateOrder handles POST /orders
// @Summary      Create order
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateOrderRequest  true  "Order"
// @Success      201      {object}  response.Response{data=service.OrderResponse}
// @Failure      400      {object}  response.Response
// @Router       /orders [post]
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, order))
}

// ListOrders handles GET /orders with workflow filters
// @Summary      List orders
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        page          query     int     false  "Page number"
// @Param        limit         query     int     false  "Items per page"
// @Param        status        query     string  false  "Workflow status"
// @Param        order_type    query     string  false  "tool | chemical | expendable | kit"
// @Param        priority      query     string  false  "critical | high | normal | low"
// @Param        requester_id  query     string  false  "Filter by requester"
// @Param        from          query     string  false  "Created after (RFC 3339)"
// @Param        to            query     string  false  "Created before (RFC 3339)"
// @Param        search        query     string  false  "Match title, description"
// @Success      200  {object}  response.Response{data=object}
// @Router       /orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	p := pagination.Parse(c)

	filter := repository.OrderFilter{
		Status:    c.Query("status"),
		OrderType: c.Query("order_type"),
		Priority:  c.Query("priority"),
		Search:    c.Query("search"),
	}
	if reqStr := c.Query("requester_id"); reqStr != "" {
		requesterID, err := uuid.Parse(reqStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid requester id"))
			return
		}
		filter.RequesterID = &requesterID
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

	orders, total, err := h.orderService.ListOrders(c.Request.Context(), filter, p.Page, p.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch orders"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, pagination.Envelope("orders", orders, total, p)))
}

// GetOrder handles GET /orders/:id
// @Summary      Get order
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=service.OrderResponse}
// @Failure      404  {object}  response.Response
// @Router       /orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.orderService.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// UpdateOrder handles PUT /orders/:id
// @Summary      Update order
// @Description  Applies field edits guarded by the version the client read; a stale version returns 409
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                      true  "Order ID"
// @Param        payload  body      service.UpdateOrderRequest  true  "Order fields + version"
// @Success      200      {object}  response.Response{data=service.OrderResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /orders/{id} [put]
func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	var req service.UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.orderService.UpdateOrder(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		orderError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// TransitionOrder handles POST /orders/:id/transition
// @Summary      Move order through the workflow
// @Description  Validates the transition against the workflow graph; illegal jumps are rejected
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                          true  "Order ID"
// @Param        payload  body      service.TransitionOrderRequest  true  "Target status + version"
// @Success      200      {object}  response.Response{data=service.OrderResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /orders/{id}/transition [post]
func (h *OrderHandler) TransitionOrder(c *gin.Context) {
	var req service.TransitionOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.orderService.TransitionOrder(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		orderError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// UploadDocument handles POST /orders/:id/document as multipart
// @Summary      Attach a document to an order
// @Description  Stores a quote or purchase document against the order
// @Tags         orders
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id        path      string  true  "Order ID"
// @Param        version   formData  int     true  "Order version the client read"
// @Param        document  formData  file    true  "Document file"
// @Success      200  {object}  response.Response{data=service.OrderResponse}
// @Failure      400  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /orders/{id}/document [post]
func (h *OrderHandler) UploadDocument(c *gin.Context) {
	version, err := strconv.Atoi(c.PostForm("version"))
	if err != nil || version < 1 {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "version form field is required"))
		return
	}

	file, err := c.FormFile("document")
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "document file is required"))
		return
	}
	if file.Size > maxDocumentSize {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "document exceeds 20MB limit"))
		return
	}

	path, err := saveUpload(c, file, "orders")
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	order, err := h.orderService.AttachDocument(c.Request.Context(), c.GetString("userID"), c.Param("id"), version, path)
	if err != nil {
		orderError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// SendMessage handles POST /orders/:id/messages
// @Summary      Send a message on an order thread
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                           true  "Order ID"
// @Param        payload  body      service.SendOrderMessageRequest  true  "Message"
// @Success      201      {object}  response.Response{data=model.OrderMessage}
// @Failure      400      {object}  response.Response
// @Router       /orders/{id}/messages [post]
func (h *OrderHandler) SendMessage(c *gin.Context) {
	var req service.SendOrderMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	msg, err := h.orderService.SendMessage(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, msg))
}

// ListMessages handles GET /orders/:id/messages
// @Summary      List an order's message thread
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=[]model.OrderMessage}
// @Router       /orders/{id}/messages [get]
func (h *OrderHandler) ListMessages(c *gin.Context) {
	msgs, err := h.orderService.ListMessages(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, msgs))
}

// Inbox handles GET /inbox for the acting user
// @Summary      Get message inbox
// @Description  Messages addressed to the acting user across all order threads, with unread count
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number"
// @Param        limit  query     int  false  "Items per page"
// @Success      200  {object}  response.Response{data=service.InboxResponse}
// @Router       /inbox [get]
func (h *OrderHandler) Inbox(c *gin.Context) {
	p := pagination.Parse(c)

	inbox, err := h.orderService.Inbox(c.Request.Context(), c.GetString("userID"), p.Page, p.Limit)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, inbox))
}

// MarkMessageRead handles PUT /inbox/:id/read
// @Summary      Mark message read
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Message ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /inbox/{id}/read [put]
func (h *OrderHandler) MarkMessageRead(c *gin.Context) {
	if err := h.orderService.MarkMessageRead(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Message marked read"))
}
