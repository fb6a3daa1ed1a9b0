package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"toolcrib/internal/repository"
	"toolcrib/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

// stubOrderService overrides only the methods a test exercises; anything else
// panics via the embedded nil interface.
type stubOrderService struct {
	service.OrderService
	updateFn     func(ctx context.Context, actorID, id string, req service.UpdateOrderRequest) (*service.OrderResponse, error)
	transitionFn func(ctx context.Context, actorID, id string, req service.TransitionOrderRequest) (*service.OrderResponse, error)
}

func (s *stubOrderService) UpdateOrder(ctx context.Context, actorID, id string, req service.UpdateOrderRequest) (*service.OrderResponse, error) {
	return s.updateFn(ctx, actorID, id, req)
}

func (s *stubOrderService) TransitionOrder(ctx context.Context, actorID, id string, req service.TransitionOrderRequest) (*service.OrderResponse, error) {
	return s.transitionFn(ctx, actorID, id, req)
}

func newOrderRouter(svc service.OrderService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewOrderHandler(svc)

	router := gin.New()
	router.PUT("/orders/:id", h.UpdateOrder)
	router.POST("/orders/:id/transition", h.TransitionOrder)
	return router
}

func TestUpdateOrderStaleVersionReturns409(t *testing.T) {
	svc := &stubOrderService{
		updateFn: func(_ context.Context, _, _ string, _ service.UpdateOrderRequest) (*service.OrderResponse, error) {
			return nil, repository.ErrVersionConflict
		},
	}
	router := newOrderRouter(svc)

	body := `{"version": 1, "title": "new title"}`
	req := httptest.NewRequest(http.MethodPut, "/orders/abc", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "modified by another request")
}

func TestUpdateOrderSuccess(t *testing.T) {
	svc := &stubOrderService{
		updateFn: func(_ context.Context, _, id string, req service.UpdateOrderRequest) (*service.OrderResponse, error) {
			return &service.OrderResponse{ID: id, Title: req.Title, Version: req.Version + 1}, nil
		},
	}
	router := newOrderRouter(svc)

	body := `{"version": 3, "title": "updated"}`
	req := httptest.NewRequest(http.MethodPut, "/orders/abc", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"version":4`)
}

func TestUpdateOrderRejectsMissingVersion(t *testing.T) {
	svc := &stubOrderService{
		updateFn: func(_ context.Context, _, _ string, _ service.UpdateOrderRequest) (*service.OrderResponse, error) {
			t.Fatal("service must not be called when binding fails")
			return nil, nil
		},
	}
	router := newOrderRouter(svc)

	req := httptest.NewRequest(http.MethodPut, "/orders/abc", strings.NewReader(`{"title": "no version"}`))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTransitionOrderStaleVersionReturns409(t *testing.T) {
	svc := &stubOrderService{
		transitionFn: func(_ context.Context, _, _ string, _ service.TransitionOrderRequest) (*service.OrderResponse, error) {
			return nil, repository.ErrVersionConflict
		},
	}
	router := newOrderRouter(svc)

	body := `{"version": 2, "status": "ordered"}`
	req := httptest.NewRequest(http.MethodPost, "/orders/abc/transition", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}
