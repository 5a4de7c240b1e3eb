package domain

import (
	"fmt"
	"strings"
)

// Role is the closed set of roles a user can hold.
type Role string

const (
	RoleAdmin       Role = "Admin"
	RoleCityPlanner Role = "CityPlanner"
	RoleCitizen     Role = "Citizen"
)

// Roles lists every valid role in display order.
var Roles = []Role{RoleAdmin, RoleCityPlanner, RoleCitizen}

// ParseRole maps s to its canonical Role, ignoring case and surrounding
// whitespace. Anything outside the set yields ErrInvalidRole.
func ParseRole(s string) (Role, error) {
	s = strings.TrimSpace(s)
	for _, r := range Roles {
		if strings.EqualFold(s, string(r)) {
			return r, nil
		}
	}
	return "", ErrInvalidRole
}

// Valid reports whether r is one of the canonical roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCityPlanner, RoleCitizen:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// UnmarshalText rejects unknown roles so a decoded value is always in the set.
func (r *Role) UnmarshalText(b []byte) error {
	parsed, err := ParseRole(string(b))
	if err != nil {
		return fmt.Errorf("role %q: %w", string(b), err)
	}
	*r = parsed
	return nil
}
