package ports

import (
	"context"
	"time"

	"github.com/smartcity/access-platform/internal/core/domain"
)

// RegisterInput carries the raw registration request.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      string // empty means Citizen
}

// UpdateUserInput is a partial profile update. Nil fields are not changed.
// Role is kept raw so authorization is decided before the value is parsed.
type UpdateUserInput struct {
	FirstName   *string
	LastName    *string
	Email       *string
	NewPassword *string
	Role        *string
	IsActive    *bool
}

// AuthResult is returned by register and login.
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

// IdentityService owns the credential lifecycle.
type IdentityService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Profile(ctx context.Context, caller domain.Identity) (*domain.User, error)
	ListUsers(ctx context.Context, caller domain.Identity) ([]*domain.User, error)
	GetUser(ctx context.Context, caller domain.Identity, id int64) (*domain.User, error)
	UpdateUser(ctx context.Context, caller domain.Identity, id int64, in UpdateUserInput) (*domain.User, error)
	DeactivateUser(ctx context.Context, caller domain.Identity, id int64) error
}
