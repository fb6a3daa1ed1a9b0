package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderType constants — what kind of thing is being procured
const (
	OrderTypeTool       = "tool"
	OrderTypeChemical   = "chemical"
	OrderTypeExpendable = "expendable"
	OrderTypeKit        = "kit"
)

// OrderStatus workflow constants
const (
	OrderStatusNew          = "new"
	OrderStatusAwaitingInfo = "awaiting_info"
	OrderStatusInProgress   = "in_progress"
	OrderStatusOrdered      = "ordered"
	OrderStatusShipped      = "shipped"
	OrderStatusReceived     = "received"
	OrderStatusCancelled    = "cancelled"
)

// OrderPriority constants
const (
	PriorityCritical = "critical"
	PriorityHigh     = "high"
	PriorityNormal   = "normal"
	PriorityLow      = "low"
)

// DueStatus labels derived from the order's due date and workflow state
const (
	DueStatusLate        = "late"
	DueStatusDueSoon     = "due_soon"
	DueStatusOnTrack     = "on_track"
	DueStatusCompleted   = "completed"
	DueStatusUnscheduled = "unscheduled"
)

// DueSoonWindow is how far ahead of the due date an order counts as due_soon.
const DueSoonWindow = 7 * 24 * time.Hour

// orderTransitions maps each status to the set of statuses it may move to.
// Cancellation is allowed from any pre-received state; received and cancelled
// are terminal.
var orderTransitions = map[string][]string{
	OrderStatusNew:          {OrderStatusAwaitingInfo, OrderStatusInProgress, OrderStatusOrdered, OrderStatusCancelled},
	OrderStatusAwaitingInfo: {OrderStatusInProgress, OrderStatusOrdered, OrderStatusCancelled},
	OrderStatusInProgress:   {OrderStatusAwaitingInfo, OrderStatusOrdered, OrderStatusCancelled},
	OrderStatusOrdered:      {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:      {OrderStatusReceived, OrderStatusCancelled},
	OrderStatusReceived:     {},
	OrderStatusCancelled:    {},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to string) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidOrderStatus reports whether s is a known workflow status.
func ValidOrderStatus(s string) bool {
	_, ok := orderTransitions[s]
	return ok
}

// ValidOrderType reports whether t is a known order type.
func ValidOrderType(t string) bool {
	return t == OrderTypeTool || t == OrderTypeChemical || t == OrderTypeExpendable || t == OrderTypeKit
}

// ValidPriority reports whether p is a known priority.
func ValidPriority(p string) bool {
	return p == PriorityCritical || p == PriorityHigh || p == PriorityNormal || p == PriorityLow
}

// Order represents a procurement/reorder request moving through the buying workflow.
type Order struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title         string          `gorm:"type:varchar(255);not null" json:"title"`
	Description   string          `gorm:"type:text" json:"description"`
	OrderType     string          `gorm:"type:varchar(20);not null;index" json:"order_type"`
	Status        string          `gorm:"type:varchar(30);not null;default:'new';index" json:"status"`
	Priority      string          `gorm:"type:varchar(10);not null;default:'normal';index" json:"priority"`
	RequesterID   *uuid.UUID      `gorm:"type:uuid;index" json:"requester_id"`
	Requester     *User           `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	BuyerID       *uuid.UUID      `gorm:"type:uuid;index" json:"buyer_id"`
	Buyer         *User           `gorm:"foreignKey:BuyerID" json:"buyer,omitempty"`
	DueDate       *time.Time      `json:"due_date"`
	EstimatedCost decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"estimated_cost"`
	DocumentPath  string          `gorm:"type:varchar(512)" json:"document_path,omitempty"`
	// Version guards concurrent writes: every update must present the version it
	// read, and a stale version is rejected without mutating the row.
	Version   int            `gorm:"not null;default:1" json:"version"`
	Messages  []OrderMessage `gorm:"foreignKey:OrderID" json:"messages,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// DueStatusAt derives the workflow due label relative to now.
func (o *Order) DueStatusAt(now time.Time) string {
	if o.Status == OrderStatusReceived || o.Status == OrderStatusCancelled {
		return DueStatusCompleted
	}
	if o.DueDate == nil {
		return DueStatusUnscheduled
	}
	if o.DueDate.Before(now) {
		return DueStatusLate
	}
	if o.DueDate.Sub(now) <= DueSoonWindow {
		return DueStatusDueSoon
	}
	return DueStatusOnTrack
}

// OrderMessage is one entry in an order's mailbox thread.
type OrderMessage struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"order_id"`
	SenderID    *uuid.UUID `gorm:"type:uuid;index" json:"sender_id"`
	Sender      *User      `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	RecipientID *uuid.UUID `gorm:"type:uuid;index" json:"recipient_id"`
	Recipient   *User      `gorm:"foreignKey:RecipientID" json:"recipient,omitempty"`
	Subject     string     `gorm:"type:varchar(255)" json:"subject"`
	Body        string     `gorm:"type:text;not null" json:"body"`
	IsRead      bool       `gorm:"not null;default:false;index" json:"is_read"`
	CreatedAt   time.Time  `json:"created_at"`
}
