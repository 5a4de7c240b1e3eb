package ports

import (
	"context"

	"github.com/smartcity/access-platform/internal/core/domain"
)

// AuditRepository persists audit entries. Implementations never update or
// delete an entry.
type AuditRepository interface {
	Insert(ctx context.Context, entry *domain.AuditEntry) error
	ListRecent(ctx context.Context, limit int) ([]*domain.AuditEntry, error)
}

// AuditLogger records privileged actions without blocking the caller and
// without reporting failures to it.
type AuditLogger interface {
	Record(actorID int64, sourceIP, action, details string)
}
