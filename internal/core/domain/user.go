package domain

import (
	"strings"
	"time"
)

// User models an account owned by the identity service.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DeriveUsername builds the unique username assigned at registration.
func DeriveUsername(firstName, lastName string) string {
	return strings.TrimSpace(strings.TrimSpace(firstName) + " " + strings.TrimSpace(lastName))
}

// NormalizeEmail is applied to every email before it is stored or looked up.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserChanges is a validated set of column changes for a user. Nil fields are
// left untouched.
type UserChanges struct {
	FirstName    *string
	LastName     *string
	Email        *string
	PasswordHash *string
	Role         *Role
	IsActive     *bool
	UpdatedAt    time.Time
}

// Empty reports whether no field would change.
func (c UserChanges) Empty() bool {
	return c.FirstName == nil && c.LastName == nil && c.Email == nil &&
		c.PasswordHash == nil && c.Role == nil && c.IsActive == nil
}

// Apply copies the changes onto u.
func (c UserChanges) Apply(u *User) {
	if c.FirstName != nil {
		u.FirstName = *c.FirstName
	}
	if c.LastName != nil {
		u.LastName = *c.LastName
	}
	if c.Email != nil {
		u.Email = *c.Email
	}
	if c.PasswordHash != nil {
		u.PasswordHash = *c.PasswordHash
	}
	if c.Role != nil {
		u.Role = *c.Role
	}
	if c.IsActive != nil {
		u.IsActive = *c.IsActive
	}
	if !c.UpdatedAt.IsZero() {
		u.UpdatedAt = c.UpdatedAt
	}
}
