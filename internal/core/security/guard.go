package security

import (
	"github.com/smartcity/access-platform/internal/core/domain"
	"github.com/smartcity/access-platform/internal/core/ports"
)

// ErrPasswordNotOwner is returned when anyone but the account owner tries to
// set its password.
var ErrPasswordNotOwner = &domain.Error{Kind: domain.KindAuthorization, Msg: "only the account owner may change its password"}

// Authorize decides whether caller may use a route that requires capability.
// caller is nil when the request carried no valid token.
func Authorize(caller *domain.Identity, required domain.Capability) error {
	if required == domain.CapabilityPublic {
		return nil
	}
	if caller == nil {
		return domain.ErrUnauthenticated
	}
	if required == domain.CapabilityAdmin && !caller.IsAdmin() {
		return domain.ErrForbidden
	}
	return nil
}

// AuthorizeDeactivation allows admins to deactivate any account but their own.
func AuthorizeDeactivation(caller domain.Identity, targetID int64) error {
	if !caller.IsAdmin() {
		return domain.ErrForbidden
	}
	if caller.UserID == targetID {
		return domain.ErrSelfProtection
	}
	return nil
}

// AuthorizeUpdate applies the ownership and field-level rules to a profile
// update. Field values are not inspected here.
func AuthorizeUpdate(caller domain.Identity, targetID int64, in ports.UpdateUserInput) error {
	self := caller.UserID == targetID

	if !caller.IsAdmin() && !self {
		return domain.ErrNotOwner
	}
	if (in.Role != nil || in.IsActive != nil) && !caller.IsAdmin() {
		return domain.ErrFieldForbidden
	}
	if self && in.IsActive != nil && !*in.IsActive {
		return domain.ErrSelfProtection
	}
	if in.NewPassword != nil && !self {
		return ErrPasswordNotOwner
	}
	return nil
}
