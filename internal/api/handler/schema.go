package handler

import (
	"time"

	"github.com/smartcity/access-platform/internal/core/domain"
	"github.com/smartcity/access-platform/internal/core/ports"
)

// --- Request / Response types ---

type registerRequest struct {
	Email     string `json:"email"      validate:"required,email,max=200"`
	Password  string `json:"password"   validate:"required,min=6,max=72"`
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name"  validate:"required,max=100"`
	Role      string `json:"role"       validate:"omitempty,max=50"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	UserID    int64        `json:"user_id"`
	Username  string       `json:"username"`
	Role      domain.Role  `json:"role"`
	User      *domain.User `json:"user"`
}

func newAuthResponse(res *ports.AuthResult) authResponse {
	return authResponse{
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
		UserID:    res.User.ID,
		Username:  res.User.Username,
		Role:      res.User.Role,
		User:      res.User,
	}
}

// updateUserRequest is a partial update; omitted fields are left unchanged.
type updateUserRequest struct {
	FirstName   *string `json:"first_name"   validate:"omitempty,max=100"`
	LastName    *string `json:"last_name"    validate:"omitempty,max=100"`
	Email       *string `json:"email"        validate:"omitempty,email,max=200"`
	NewPassword *string `json:"new_password" validate:"omitempty,min=6,max=72"`
	Role        *string `json:"role"         validate:"omitempty,max=50"`
	IsActive    *bool   `json:"is_active"`
}

func (r updateUserRequest) toInput() ports.UpdateUserInput {
	return ports.UpdateUserInput{
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		Email:       r.Email,
		NewPassword: r.NewPassword,
		Role:        r.Role,
		IsActive:    r.IsActive,
	}
}

func (r updateUserRequest) toUpdate() ports.UserUpdate {
	return ports.UserUpdate{
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		Email:       r.Email,
		NewPassword: r.NewPassword,
		Role:        r.Role,
		IsActive:    r.IsActive,
	}
}

type settingRequest struct {
	Key         string `json:"key"         validate:"required,max=100"`
	Value       string `json:"value"       validate:"required,max=500"`
	Description string `json:"description" validate:"max=200"`
}
