package ports

import (
	"context"

	"github.com/smartcity/access-platform/internal/core/domain"
)

// UserRepository is the credential store. Create and Update must enforce
// email and username uniqueness atomically and report a violation as
// domain.ErrUserExists (Create) or domain.ErrEmailTaken (Update).
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Update(ctx context.Context, id int64, changes domain.UserChanges) (*domain.User, error)
}
