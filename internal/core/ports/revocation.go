package ports

import (
	"context"
	"time"
)

// RevocationStore tracks users whose outstanding tokens must be refused even
// though they are still within their validity window.
type RevocationStore interface {
	Revoke(ctx context.Context, userID int64, ttl time.Duration) error
	Restore(ctx context.Context, userID int64) error
	IsRevoked(ctx context.Context, userID int64) (bool, error)
}
