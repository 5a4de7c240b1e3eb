package domain

import (
	"errors"
	"fmt"
)

// Kind classifies an error by how a caller should react to it.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuthentication
	KindAuthorization
	KindConflict
	KindNotFound
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindUpstream:
		return "upstream"
	default:
		return "internal"
	}
}

// Error is the error value returned by every core operation. Msg is safe to
// show to clients; Err carries the underlying cause for logs only.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf reports the Kind of the first *Error in err's chain. Errors that
// carry no Kind are internal.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// MessageOf returns the client-safe message of err, or "" when err is not a
// domain error.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Msg
	}
	return ""
}

func NewValidationError(msg string) *Error { return &Error{Kind: KindValidation, Msg: msg} }

func NewNotFoundError(msg string) *Error { return &Error{Kind: KindNotFound, Msg: msg} }

func NewUpstreamError(msg string, cause error) *Error {
	return &Error{Kind: KindUpstream, Msg: msg, Err: cause}
}

var (
	ErrInvalidCredentials = &Error{Kind: KindAuthentication, Msg: "invalid email or password"}
	ErrUnauthenticated    = &Error{Kind: KindAuthentication, Msg: "authentication required"}
	ErrTokenRevoked       = &Error{Kind: KindAuthentication, Msg: "account is deactivated"}

	ErrForbidden      = &Error{Kind: KindAuthorization, Msg: "access forbidden"}
	ErrSelfProtection = &Error{Kind: KindAuthorization, Msg: "you cannot deactivate your own account"}
	ErrNotOwner       = &Error{Kind: KindAuthorization, Msg: "you may only update your own profile"}
	ErrFieldForbidden = &Error{Kind: KindAuthorization, Msg: "only administrators may change role or status"}

	ErrUserExists   = &Error{Kind: KindConflict, Msg: "user registration failed: username or email may already exist"}
	ErrEmailTaken   = &Error{Kind: KindConflict, Msg: "email is not available"}
	ErrUserNotFound = &Error{Kind: KindNotFound, Msg: "user not found"}

	ErrInvalidRole = &Error{Kind: KindValidation, Msg: "invalid role: valid roles are Admin, CityPlanner, Citizen"}
)
