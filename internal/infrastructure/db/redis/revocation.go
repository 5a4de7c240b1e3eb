package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smartcity/access-platform/internal/core/ports"
)

const revocationPrefix = "revoked:user:"

// RevocationStore records deactivated users so that tokens issued before the
// deactivation are refused. Entries expire with the longest token lifetime.
// Key format: revoked:user:<id>
type RevocationStore struct {
	client redis.Cmdable
}

var _ ports.RevocationStore = (*RevocationStore)(nil)

// NewRevocationStore creates a RevocationStore wrapping the given Redis client.
func NewRevocationStore(client redis.Cmdable) *RevocationStore {
	return &RevocationStore{client: client}
}

// Revoke marks every outstanding token of userID as revoked for ttl.
func (s *RevocationStore) Revoke(ctx context.Context, userID int64, ttl time.Duration) error {
	if err := s.client.Set(ctx, revocationKey(userID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke user %d: %w", userID, err)
	}
	return nil
}

// Restore clears a revocation, e.g. when the account is reactivated.
func (s *RevocationStore) Restore(ctx context.Context, userID int64) error {
	if err := s.client.Del(ctx, revocationKey(userID)).Err(); err != nil {
		return fmt.Errorf("restore user %d: %w", userID, err)
	}
	return nil
}

// IsRevoked reports whether userID's tokens are currently revoked.
func (s *RevocationStore) IsRevoked(ctx context.Context, userID int64) (bool, error) {
	n, err := s.client.Exists(ctx, revocationKey(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("revocation check: %w", err)
	}
	return n > 0, nil
}

func revocationKey(userID int64) string {
	return revocationPrefix + strconv.FormatInt(userID, 10)
}
