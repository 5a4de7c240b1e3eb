package ports

import (
	"context"

	"github.com/smartcity/access-platform/internal/core/domain"
)

// SettingRepository stores administrator-managed key/value settings.
type SettingRepository interface {
	Upsert(ctx context.Context, setting *domain.SystemSetting) (*domain.SystemSetting, error)
	List(ctx context.Context) ([]*domain.SystemSetting, error)
}
