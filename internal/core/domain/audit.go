package domain

import "time"

// AuditEntry records one privileged action. Entries are append-only.
type AuditEntry struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	IPAddress string    `json:"ip_address"`
	Timestamp time.Time `json:"timestamp"`
}

// Audit action labels.
const (
	ActionListUsers      = "Retrieved user list"
	ActionGetUser        = "Retrieved user"
	ActionUpdateUser     = "Updated user"
	ActionDeactivateUser = "Deactivated user"
	ActionUpdateSetting  = "Updated system setting"
)
