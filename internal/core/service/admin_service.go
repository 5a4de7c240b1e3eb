package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/smartcity/access-platform/internal/core/domain"
	"github.com/smartcity/access-platform/internal/core/ports"
	"github.com/smartcity/access-platform/internal/core/security"
)

const (
	DefaultAuditLimit = 50
	MaxAuditLimit     = 200

	maxSettingKeyLength   = 100
	maxSettingValueLength = 500
	maxSettingDescLength  = 200
)

// AdminService implements the privileged operations. User data is fetched from
// the identity service with the caller's own token; every successful action
// is handed to the audit logger.
type AdminService struct {
	identity ports.IdentityClient
	audit    ports.AuditLogger
	logs     ports.AuditRepository
	settings ports.SettingRepository
	log      zerolog.Logger
	now      func() time.Time
}

func NewAdminService(
	identity ports.IdentityClient,
	audit ports.AuditLogger,
	logs ports.AuditRepository,
	settings ports.SettingRepository,
	log zerolog.Logger,
) *AdminService {
	return &AdminService{
		identity: identity,
		audit:    audit,
		logs:     logs,
		settings: settings,
		log:      log,
		now:      time.Now,
	}
}

var _ ports.AdminService = (*AdminService)(nil)

func (s *AdminService) ListUsers(ctx context.Context, caller domain.Caller) ([]*domain.User, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	users, err := s.identity.ListUsers(ctx, caller)
	if err != nil {
		s.log.Error().Err(err).Int64("actor_id", caller.UserID).Msg("failed to retrieve users from identity service")
		return nil, err
	}
	s.audit.Record(caller.UserID, caller.SourceIP, domain.ActionListUsers,
		fmt.Sprintf("Successfully retrieved %d users from identity service", len(users)))
	return users, nil
}

func (s *AdminService) GetUser(ctx context.Context, caller domain.Caller, id int64) (*domain.User, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	user, err := s.identity.GetUser(ctx, caller, id)
	if err != nil {
		s.log.Error().Err(err).Int64("actor_id", caller.UserID).Int64("target_id", id).Msg("failed to retrieve user from identity service")
		return nil, err
	}
	s.audit.Record(caller.UserID, caller.SourceIP, domain.ActionGetUser, fmt.Sprintf("Retrieved user %d", id))
	return user, nil
}

func (s *AdminService) UpdateUser(ctx context.Context, caller domain.Caller, id int64, update ports.UserUpdate) (*domain.User, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	user, err := s.identity.UpdateUser(ctx, caller, id, update)
	if err != nil {
		s.log.Error().Err(err).Int64("actor_id", caller.UserID).Int64("target_id", id).Msg("failed to update user via identity service")
		return nil, err
	}
	s.audit.Record(caller.UserID, caller.SourceIP, domain.ActionUpdateUser,
		fmt.Sprintf("Updated user %d (%s)", id, strings.Join(changedFields(update), ", ")))
	return user, nil
}

func (s *AdminService) DeactivateUser(ctx context.Context, caller domain.Caller, id int64) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}
	if err := s.identity.DeactivateUser(ctx, caller, id); err != nil {
		s.log.Error().Err(err).Int64("actor_id", caller.UserID).Int64("target_id", id).Msg("failed to deactivate user via identity service")
		return err
	}
	s.audit.Record(caller.UserID, caller.SourceIP, domain.ActionDeactivateUser, fmt.Sprintf("Deactivated user %d", id))
	return nil
}

// ListAuditLogs returns the most recent entries, newest first. limit is
// clamped to [1, MaxAuditLimit]; zero or less selects DefaultAuditLimit.
func (s *AdminService) ListAuditLogs(ctx context.Context, caller domain.Caller, limit int) ([]*domain.AuditEntry, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	switch {
	case limit <= 0:
		limit = DefaultAuditLimit
	case limit > MaxAuditLimit:
		limit = MaxAuditLimit
	}
	entries, err := s.logs.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	return entries, nil
}

func (s *AdminService) ListSettings(ctx context.Context, caller domain.Caller) ([]*domain.SystemSetting, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	settings, err := s.settings.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	return settings, nil
}

// UpsertSetting creates the setting or replaces its value and description.
func (s *AdminService) UpsertSetting(ctx context.Context, caller domain.Caller, in ports.SettingInput) (*domain.SystemSetting, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}

	key := strings.TrimSpace(in.Key)
	value := strings.TrimSpace(in.Value)
	if key == "" || value == "" {
		return nil, domain.NewValidationError("key and value are required")
	}
	if len(key) > maxSettingKeyLength || len(value) > maxSettingValueLength || len(in.Description) > maxSettingDescLength {
		return nil, domain.NewValidationError("setting key, value or description is too long")
	}

	saved, err := s.settings.Upsert(ctx, &domain.SystemSetting{
		Key:         key,
		Value:       value,
		Description: strings.TrimSpace(in.Description),
		UpdatedBy:   caller.UserID,
		UpdatedAt:   s.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("upsert setting: %w", err)
	}

	s.audit.Record(caller.UserID, caller.SourceIP, domain.ActionUpdateSetting,
		fmt.Sprintf("Updated setting '%s' to '%s'", key, value))
	return saved, nil
}

func requireAdmin(caller domain.Caller) error {
	return security.Authorize(&caller.Identity, domain.CapabilityAdmin)
}

func changedFields(u ports.UserUpdate) []string {
	var fields []string
	if u.FirstName != nil {
		fields = append(fields, "first_name")
	}
	if u.LastName != nil {
		fields = append(fields, "last_name")
	}
	if u.Email != nil {
		fields = append(fields, "email")
	}
	if u.Role != nil {
		fields = append(fields, "role="+*u.Role)
	}
	if u.IsActive != nil {
		fields = append(fields, fmt.Sprintf("is_active=%t", *u.IsActive))
	}
	if u.NewPassword != nil {
		fields = append(fields, "password")
	}
	sort.Strings(fields)
	if len(fields) == 0 {
		return []string{"no fields"}
	}
	return fields
}
