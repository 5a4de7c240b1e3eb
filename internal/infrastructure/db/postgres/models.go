package postgres

import (
	"time"

	"github.com/smartcity/access-platform/internal/core/domain"
)

type userModel struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Username     string    `gorm:"column:username;size:201;not null;uniqueIndex"`
	Email        string    `gorm:"column:email;size:200;not null;uniqueIndex"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	FirstName    string    `gorm:"column:first_name;size:100;not null"`
	LastName     string    `gorm:"column:last_name;size:100;not null"`
	Role         string    `gorm:"column:role;size:20;not null"`
	IsActive     bool      `gorm:"column:is_active;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;not null"`
	UpdatedAt    time.Time `gorm:"column:updated_at;not null"`
}

func (userModel) TableName() string {
	return "users"
}

func userModelFromDomain(u *domain.User) userModel {
	return userModel{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Role:         u.Role.String(),
		IsActive:     u.IsActive,
		CreatedAt:    u.CreatedAt.UTC(),
		UpdatedAt:    u.UpdatedAt.UTC(),
	}
}

func (m userModel) toDomain() *domain.User {
	return &domain.User{
		ID:           m.ID,
		Username:     m.Username,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		FirstName:    m.FirstName,
		LastName:     m.LastName,
		Role:         domain.Role(m.Role),
		IsActive:     m.IsActive,
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
}

type auditModel struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	UserID    int64     `gorm:"column:user_id;not null;index"`
	Action    string    `gorm:"column:action;size:100;not null"`
	Details   string    `gorm:"column:details;size:1000"`
	IPAddress string    `gorm:"column:ip_address;size:64"`
	Timestamp time.Time `gorm:"column:timestamp;not null;index"`
}

func (auditModel) TableName() string {
	return "audit_logs"
}

func (m auditModel) toDomain() *domain.AuditEntry {
	return &domain.AuditEntry{
		ID:        m.ID,
		UserID:    m.UserID,
		Action:    m.Action,
		Details:   m.Details,
		IPAddress: m.IPAddress,
		Timestamp: m.Timestamp.UTC(),
	}
}

type settingModel struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Key         string    `gorm:"column:key;size:100;not null;uniqueIndex"`
	Value       string    `gorm:"column:value;size:500;not null"`
	Description string    `gorm:"column:description;size:200"`
	UpdatedBy   int64     `gorm:"column:updated_by;not null"`
	UpdatedAt   time.Time `gorm:"column:updated_at;not null"`
}

func (settingModel) TableName() string {
	return "system_settings"
}

func (m settingModel) toDomain() *domain.SystemSetting {
	return &domain.SystemSetting{
		ID:          m.ID,
		Key:         m.Key,
		Value:       m.Value,
		Description: m.Description,
		UpdatedBy:   m.UpdatedBy,
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}
