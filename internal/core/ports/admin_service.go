package ports

import (
	"context"

	"github.com/smartcity/access-platform/internal/core/domain"
)

// SettingInput is an upsert request for a system setting.
type SettingInput struct {
	Key         string
	Value       string
	Description string
}

// AdminService implements the privileged service's operations.
type AdminService interface {
	ListUsers(ctx context.Context, caller domain.Caller) ([]*domain.User, error)
	GetUser(ctx context.Context, caller domain.Caller, id int64) (*domain.User, error)
	UpdateUser(ctx context.Context, caller domain.Caller, id int64, update UserUpdate) (*domain.User, error)
	DeactivateUser(ctx context.Context, caller domain.Caller, id int64) error
	ListAuditLogs(ctx context.Context, caller domain.Caller, limit int) ([]*domain.AuditEntry, error)
	ListSettings(ctx context.Context, caller domain.Caller) ([]*domain.SystemSetting, error)
	UpsertSetting(ctx context.Context, caller domain.Caller, in SettingInput) (*domain.SystemSetting, error)
}
