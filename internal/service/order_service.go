package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"toolcrib/internal/model"
	"toolcrib/internal/repository"
	ws "toolcrib/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CreateOrderRequest struct {
	Title         string           `json:"title" binding:"required"`
	Description   string           `json:"description"`
	OrderType     string           `json:"order_type" binding:"required"`
	Priority      string           `json:"priority"`
	DueDate       *time.Time       `json:"due_date"`
	EstimatedCost *decimal.Decimal `json:"estimated_cost"`
}

// UpdateOrderRequest carries the version the client read. A stale version is
// rejected instead of letting the later write clobber the earlier one.
type UpdateOrderRequest struct {
	Version       int              `json:"version" binding:"required,gte=1"`
	Title         string           `json:"title"`
	Description   string           `json:"description"`
	Priority      string           `json:"priority"`
	BuyerID       *string          `json:"buyer_id"`
	DueDate       *time.Time       `json:"due_date"`
	EstimatedCost *decimal.Decimal `json:"estimated_cost"`
}

type TransitionOrderRequest struct {
	Version int    `json:"version" binding:"required,gte=1"`
	Status  string `json:"status" binding:"required"`
	Note    string `json:"note"`
}

type SendOrderMessageRequest struct {
	RecipientID string `json:"recipient_id"`
	Subject     string `json:"subject"`
	Body        string `json:"body" binding:"required"`
}

type OrderResponse struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	OrderType     string          `json:"order_type"`
	Status        string          `json:"status"`
	Priority      string          `json:"priority"`
	DueStatus     string          `json:"due_status"`
	RequesterID   *string         `json:"requester_id"`
	RequesterName string          `json:"requester_name,omitempty"`
	BuyerID       *string         `json:"buyer_id"`
	BuyerName     string          `json:"buyer_name,omitempty"`
	DueDate       *time.Time      `json:"due_date"`
	EstimatedCost decimal.Decimal `json:"estimated_cost"`
	DocumentPath  string          `json:"document_path,omitempty"`
	Version       int             `json:"version"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type InboxResponse struct {
	Messages []model.OrderMessage `json:"messages"`
	Total    int64                `json:"total"`
	Unread   int64                `json:"unread"`
}

type OrderService interface {
	CreateOrder(ctx context.Context, actorID string, req CreateOrderRequest) (*OrderResponse, error)
	GetOrder(ctx context.Context, id string) (*OrderResponse, error)
	ListOrders(ctx context.Context, filter repository.OrderFilter, page, limit int) ([]OrderResponse, int64, error)
	UpdateOrder(ctx context.Context, actorID, id string, req UpdateOrderRequest) (*OrderResponse, error)
	TransitionOrder(ctx context.Context, actorID, id string, req TransitionOrderRequest) (*OrderResponse, error)
	AttachDocument(ctx context.Context, actorID, id string, version int, path string) (*OrderResponse, error)

	SendMessage(ctx context.Context, actorID, orderID string, req SendOrderMessageRequest) (*model.OrderMessage, error)
	ListMessages(ctx context.Context, orderID string) ([]model.OrderMessage, error)
	Inbox(ctx context.Context, userID string, page, limit int) (*InboxResponse, error)
	MarkMessageRead(ctx context.Context, userID, messageID string) error
}

type orderService struct {
	repo      repository.OrderRepository
	userRepo  repository.UserRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
	hub       *ws.Hub
	now       func() time.Time
}

func NewOrderService(
	repo repository.OrderRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) OrderService {
	return &orderService{
		repo:      repo,
		userRepo:  userRepo,
		auditRepo: auditRepo,
		txManager: txManager,
		hub:       hub,
		now:       time.Now,
	}
}

func (s *orderService) mapOrder(o *model.Order) *OrderResponse {
	res := &OrderResponse{
		ID:            o.ID.String(),
		Title:         o.Title,
		Description:   o.Description,
		OrderType:     o.OrderType,
		Status:        o.Status,
		Priority:      o.Priority,
		DueStatus:     o.DueStatusAt(s.now()),
		DueDate:       o.DueDate,
		EstimatedCost: o.EstimatedCost,
		DocumentPath:  o.DocumentPath,
		Version:       o.Version,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}

	if o.RequesterID != nil {
		id := o.RequesterID.String()
		res.RequesterID = &id
		if o.Requester != nil {
			res.RequesterName = o.Requester.FullName
		}
	}
	if o.BuyerID != nil {
		id := o.BuyerID.String()
		res.BuyerID = &id
		if o.Buyer != nil {
			res.BuyerName = o.Buyer.FullName
		}
	}
	return res
}

func (s *orderService) findOrder(ctx context.Context, id string) (*model.Order, error) {
	orderID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid order id: %w", err)
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("order not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return order, nil
}

func (s *orderService) publishOrderEvent(order *model.Order) {
	s.hub.Publish(ws.EventOrderChanged, map[string]interface{}{
		"id":      order.ID.String(),
		"status":  order.Status,
		"version": order.Version,
	})
}

func (s *orderService) CreateOrder(ctx context.Context, actorID string, req CreateOrderRequest) (*OrderResponse, error) {
	if !model.ValidOrderType(req.OrderType) {
		return nil, fmt.Errorf("invalid order type: %s", req.OrderType)
	}

	priority := req.Priority
	if priority == "" {
		priority = model.PriorityNormal
	}
	if !model.ValidPriority(priority) {
		return nil, fmt.Errorf("invalid priority: %s", priority)
	}

	order := &model.Order{
		Title:       req.Title,
		Description: req.Description,
		OrderType:   req.OrderType,
		Status:      model.OrderStatusNew,
		Priority:    priority,
		RequesterID: auditActor(actorID),
		DueDate:     req.DueDate,
		Version:     1,
	}
	if req.EstimatedCost != nil {
		if req.EstimatedCost.IsNegative() {
			return nil, errors.New("estimated cost cannot be negative")
		}
		order.EstimatedCost = *req.EstimatedCost
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, order); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		details, _ := json.Marshal(req)
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     auditActor(actorID),
			Action:     model.ActionCreateOrder,
			EntityID:   order.ID.String(),
			EntityName: order.Title,
			Details:    string(details),
		})
	})
	if err != nil {
		return nil, err
	}

	s.publishOrderEvent(order)
	return s.mapOrder(order), nil
}

func (s *orderService) GetOrder(ctx context.Context, id string) (*OrderResponse, error) {
	order, err := s.findOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.mapOrder(order), nil
}

func (s *orderService) ListOrders(ctx context.Context, filter repository.OrderFilter, page, limit int) ([]OrderResponse, int64, error) {
	orders, total, err := s.repo.List(ctx, filter, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		res = append(res, *s.mapOrder(&orders[i]))
	}
	return res, total, nil
}

func (s *orderService) UpdateOrder(ctx context.Context, actorID, id string, req UpdateOrderRequest) (*OrderResponse, error) {
	order, err := s.findOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if order.Status == model.OrderStatusReceived || order.Status == model.OrderStatusCancelled {
		return nil, fmt.Errorf("order is %s and can no longer be edited", order.Status)
	}

	if req.Title != "" {
		order.Title = req.Title
	}
	if req.Description != "" {
		order.Description = req.Description
	}
	if req.Priority != "" {
		if !model.ValidPriority(req.Priority) {
			return nil, fmt.Errorf("invalid priority: %s", req.Priority)
		}
		order.Priority = req.Priority
	}
	if req.BuyerID != nil {
		if *req.BuyerID == "" {
			order.BuyerID = nil
			order.Buyer = nil
		} else {
			buyerID, err := uuid.Parse(*req.BuyerID)
			if err != nil {
				return nil, fmt.Errorf("invalid buyer id: %w", err)
			}
			if _, err := s.userRepo.GetByID(ctx, buyerID); err != nil {
				return nil, errors.New("buyer not found")
			}
			order.BuyerID = &buyerID
		}
	}
	if req.DueDate != nil {
		order.DueDate = req.DueDate
	}
	if req.EstimatedCost != nil {
		if req.EstimatedCost.IsNegative() {
			return nil, errors.New("estimated cost cannot be negative")
		}
		order.EstimatedCost = *req.EstimatedCost
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.UpdateVersioned(txCtx, order, req.Version); err != nil {
			return err
		}

		details, _ := json.Marshal(req)
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     auditActor(actorID),
			Action:     model.ActionUpdateOrder,
			EntityID:   order.ID.String(),
			EntityName: order.Title,
			Details:    string(details),
		})
	})
	if err != nil {
		return nil, err
	}

	s.publishOrderEvent(order)
	return s.mapOrder(order), nil
}

// TransitionOrder moves the order along the purchasing workflow. Illegal jumps
// are rejected; moving into in_progress assigns the acting user as buyer if
// the order has none.
func (s *orderService) TransitionOrder(ctx context.Context, actorID, id string, req TransitionOrderRequest) (*OrderResponse, error) {
	order, err := s.findOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if !model.ValidOrderStatus(req.Status) {
		return nil, fmt.Errorf("invalid status: %s", req.Status)
	}
	if !model.CanTransition(order.Status, req.Status) {
		return nil, fmt.Errorf("cannot move order from %s to %s", order.Status, req.Status)
	}

	from := order.Status
	order.Status = req.Status
	if req.Status == model.OrderStatusInProgress && order.BuyerID == nil {
		order.BuyerID = auditActor(actorID)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.UpdateVersioned(txCtx, order, req.Version); err != nil {
			return err
		}

		details, _ := json.Marshal(map[string]interface{}{
			"from": from,
			"to":   req.Status,
			"note": req.Note,
		})
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     auditActor(actorID),
			Action:     model.ActionOrderTransition,
			EntityID:   order.ID.String(),
			EntityName: order.Title,
			Details:    string(details),
		})
	})
	if err != nil {
		return nil, err
	}

	s.publishOrderEvent(order)
	return s.mapOrder(order), nil
}

func (s *orderService) AttachDocument(ctx context.Context, actorID, id string, version int, path string) (*OrderResponse, error) {
	order, err := s.findOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	order.DocumentPath = path

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.UpdateVersioned(txCtx, order, version); err != nil {
			return err
		}

		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     auditActor(actorID),
			Action:     model.ActionUpdateOrder,
			EntityID:   order.ID.String(),
			EntityName: order.Title,
			Details:    fmt.Sprintf(`{"document_path": %q}`, path),
		})
	})
	if err != nil {
		return nil, err
	}

	s.publishOrderEvent(order)
	return s.mapOrder(order), nil
}

func (s *orderService) SendMessage(ctx context.Context, actorID, orderID string, req SendOrderMessageRequest) (*model.OrderMessage, error) {
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	msg := &model.OrderMessage{
		OrderID:  order.ID,
		SenderID: auditActor(actorID),
		Subject:  req.Subject,
		Body:     req.Body,
	}

	// Default the recipient to the other side of the conversation: requester
	// messages go to the buyer and vice versa.
	if req.RecipientID != "" {
		recipientID, err := uuid.Parse(req.RecipientID)
		if err != nil {
			return nil, fmt.Errorf("invalid recipient id: %w", err)
		}
		msg.RecipientID = &recipientID
	} else if msg.SenderID != nil {
		switch {
		case order.BuyerID != nil && *msg.SenderID != *order.BuyerID:
			msg.RecipientID = order.BuyerID
		case order.RequesterID != nil && *msg.SenderID != *order.RequesterID:
			msg.RecipientID = order.RequesterID
		}
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.CreateMessage(txCtx, msg); err != nil {
			return fmt.Errorf("failed to send message: %w", err)
		}

		details, _ := json.Marshal(map[string]interface{}{"subject": req.Subject})
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     auditActor(actorID),
			Action:     model.ActionSendMessage,
			EntityID:   order.ID.String(),
			EntityName: order.Title,
			Details:    string(details),
		})
	})
	if err != nil {
		return nil, err
	}

	payload := map[string]interface{}{
		"order_id":   order.ID.String(),
		"message_id": msg.ID.String(),
	}
	if msg.RecipientID != nil {
		payload["recipient_id"] = msg.RecipientID.String()
	}
	s.hub.Publish(ws.EventOrderMessage, payload)

	return msg, nil
}

func (s *orderService) ListMessages(ctx context.Context, orderID string) ([]model.OrderMessage, error) {
	id, err := uuid.Parse(orderID)
	if err != nil {
		return nil, fmt.Errorf("invalid order id: %w", err)
	}
	return s.repo.ListMessages(ctx, id)
}

func (s *orderService) Inbox(ctx context.Context, userID string, page, limit int) (*InboxResponse, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id: %w", err)
	}

	msgs, total, err := s.repo.ListInbox(ctx, id, page, limit)
	if err != nil {
		return nil, err
	}

	unread, err := s.repo.CountUnread(ctx, id)
	if err != nil {
		return nil, err
	}

	return &InboxResponse{Messages: msgs, Total: total, Unread: unread}, nil
}

// MarkMessageRead is recipient-only: other users cannot touch read state.
func (s *orderService) MarkMessageRead(ctx context.Context, userID, messageID string) error {
	id, err := uuid.Parse(messageID)
	if err != nil {
		return fmt.Errorf("invalid message id: %w", err)
	}

	msg, err := s.repo.FindMessage(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("message not found")
		}
		return fmt.Errorf("database error: %w", err)
	}

	if msg.RecipientID == nil || msg.RecipientID.String() != userID {
		return errors.New("only the recipient can mark a message read")
	}

	return s.repo.MarkRead(ctx, id)
}
