package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateTool        = "CREATE_TOOL"
	ActionUpdateTool        = "UPDATE_TOOL"
	ActionDeleteTool        = "DELETE_TOOL"
	ActionCheckoutTool      = "CHECKOUT_TOOL"
	ActionReturnTool        = "RETURN_TOOL"
	ActionToolServiceState  = "TOOL_SERVICE_STATE"
	ActionRecordCalibration = "RECORD_CALIBRATION"

	ActionCreateKit      = "CREATE_KIT"
	ActionUpdateKit      = "UPDATE_KIT"
	ActionDeleteKit      = "DELETE_KIT"
	ActionIssueKitItem   = "ISSUE_KIT_ITEM"
	ActionRestockKitItem = "RESTOCK_KIT_ITEM"

	ActionCreateChemical = "CREATE_CHEMICAL"
	ActionUpdateChemical = "UPDATE_CHEMICAL"
	ActionDeleteChemical = "DELETE_CHEMICAL"
	ActionIssueChemical  = "ISSUE_CHEMICAL"

	ActionCreateOrder     = "CREATE_ORDER"
	ActionUpdateOrder     = "UPDATE_ORDER"
	ActionOrderTransition = "ORDER_TRANSITION"
	ActionSendMessage     = "SEND_ORDER_MESSAGE"

	ActionCreateUser     = "CREATE_USER"
	ActionUpdateUser     = "UPDATE_USER"
	ActionDeactivateUser = "DEACTIVATE_USER"
	ActionDeleteUser     = "DELETE_USER"
	ActionAssignRoles    = "ASSIGN_ROLES"

	ActionCreateDepartment     = "CREATE_DEPARTMENT"
	ActionUpdateDepartment     = "UPDATE_DEPARTMENT"
	ActionDeleteDepartment     = "DELETE_DEPARTMENT"
	ActionDeactivateDepartment = "DEACTIVATE_DEPARTMENT"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable gracefully if automated job
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`        // Reference string (uuid/code)
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string     `gorm:"type:jsonb" json:"details"`                      // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
