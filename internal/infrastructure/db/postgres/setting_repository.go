package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/smartcity/access-platform/internal/core/domain"
	"github.com/smartcity/access-platform/internal/core/ports"
)

// SettingRepository implements ports.SettingRepository on Postgres.
type SettingRepository struct {
	db *gorm.DB
}

var _ ports.SettingRepository = (*SettingRepository)(nil)

func NewSettingRepository(db *gorm.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

// Upsert inserts the setting or, when the key exists, replaces its value,
// description and audit columns in the same statement.
func (r *SettingRepository) Upsert(ctx context.Context, s *domain.SystemSetting) (*domain.SystemSetting, error) {
	row := settingModel{
		Key:         s.Key,
		Value:       s.Value,
		Description: s.Description,
		UpdatedBy:   s.UpdatedBy,
		UpdatedAt:   s.UpdatedAt.UTC(),
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "description", "updated_by", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return nil, fmt.Errorf("upsert setting: %w", err)
	}
	return row.toDomain(), nil
}

// List returns every setting ordered by key.
func (r *SettingRepository) List(ctx context.Context) ([]*domain.SystemSetting, error) {
	var rows []settingModel
	if err := r.db.WithContext(ctx).Order("key ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	settings := make([]*domain.SystemSetting, 0, len(rows))
	for _, row := range rows {
		settings = append(settings, row.toDomain())
	}
	return settings, nil
}
