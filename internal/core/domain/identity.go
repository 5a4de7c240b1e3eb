package domain

// Capability is what a route requires of its caller.
type Capability int

const (
	CapabilityPublic Capability = iota
	CapabilityAuthenticated
	CapabilityAdmin
)

func (c Capability) String() string {
	switch c {
	case CapabilityAuthenticated:
		return "authenticated"
	case CapabilityAdmin:
		return "admin"
	default:
		return "public"
	}
}

// Identity is the authenticated caller derived from a validated token.
type Identity struct {
	UserID int64
	Name   string
	Role   Role
}

func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

// Caller is an Identity plus the request facts needed to act on its behalf
// against another service and to audit the action.
type Caller struct {
	Identity
	Token     string
	SourceIP  string
	RequestID string
}
