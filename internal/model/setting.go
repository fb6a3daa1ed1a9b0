package model

import "time"

// Setting keys
const (
	SettingSessionTimeout = "session_timeout_seconds"
)

// DefaultSessionTimeoutSeconds applies when no setting row exists.
const DefaultSessionTimeoutSeconds = 30 * 60

// Setting is a single admin-editable configuration value. The session timeout
// lives here so duration changes are picked up by the next session poll without
// a restart.
type Setting struct {
	Key       string    `gorm:"type:varchar(100);primaryKey" json:"key"`
	Value     string    `gorm:"type:varchar(255);not null" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
