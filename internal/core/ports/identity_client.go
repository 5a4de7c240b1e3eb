package ports

import (
	"context"

	"github.com/smartcity/access-platform/internal/core/domain"
)

// UserUpdate is the wire form of a proxied profile update.
type UserUpdate struct {
	FirstName   *string `json:"first_name,omitempty"`
	LastName    *string `json:"last_name,omitempty"`
	Email       *string `json:"email,omitempty"`
	NewPassword *string `json:"new_password,omitempty"`
	Role        *string `json:"role,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// IdentityClient calls the identity service on behalf of caller, forwarding
// caller.Token unchanged so the identity service authorizes the same caller.
type IdentityClient interface {
	ListUsers(ctx context.Context, caller domain.Caller) ([]*domain.User, error)
	GetUser(ctx context.Context, caller domain.Caller, id int64) (*domain.User, error)
	UpdateUser(ctx context.Context, caller domain.Caller, id int64, update UserUpdate) (*domain.User, error)
	DeactivateUser(ctx context.Context, caller domain.Caller, id int64) error
}
