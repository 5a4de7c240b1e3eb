package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/smartcity/access-platform/internal/core/domain"
	"github.com/smartcity/access-platform/internal/core/ports"
	"github.com/smartcity/access-platform/internal/core/security"
)

var fieldValidator = validator.New()

const (
	minPasswordLength = 6
	maxNameLength     = 100
	maxEmailLength    = 200
)

// PasswordHasher abstracts the one-way password hash.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
	VerifyNothing(password string)
}

// TokenIssuer abstracts token minting.
type TokenIssuer interface {
	Issue(user *domain.User) (string, time.Time, error)
}

// IdentityService implements registration, login and user administration.
type IdentityService struct {
	repo        ports.UserRepository
	hasher      PasswordHasher
	tokens      TokenIssuer
	revocations ports.RevocationStore
	log         zerolog.Logger
	now         func() time.Time
}

// NewIdentityService wires the identity use cases. revocations may be nil, in
// which case deactivation only takes effect at the next login.
func NewIdentityService(
	repo ports.UserRepository,
	hasher PasswordHasher,
	tokens TokenIssuer,
	revocations ports.RevocationStore,
	log zerolog.Logger,
) *IdentityService {
	return &IdentityService{
		repo:        repo,
		hasher:      hasher,
		tokens:      tokens,
		revocations: revocations,
		log:         log,
		now:         time.Now,
	}
}

var _ ports.IdentityService = (*IdentityService)(nil)

// Register creates an active account and returns a token for it.
func (s *IdentityService) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	email, err := validateEmail(in.Email)
	if err != nil {
		return nil, err
	}
	firstName, err := validateName("first name", in.FirstName)
	if err != nil {
		return nil, err
	}
	lastName, err := validateName("last name", in.LastName)
	if err != nil {
		return nil, err
	}

	role := domain.RoleCitizen
	if strings.TrimSpace(in.Role) != "" {
		if role, err = domain.ParseRole(in.Role); err != nil {
			return nil, err
		}
	}

	hash, err := s.hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	created, err := s.repo.Create(ctx, &domain.User{
		Username:     domain.DeriveUsername(firstName, lastName),
		Email:        email,
		PasswordHash: hash,
		FirstName:    firstName,
		LastName:     lastName,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			s.log.Warn().Str("email", email).Msg("registration rejected: username or email already exists")
			return nil, err
		}
		return nil, fmt.Errorf("register: %w", err)
	}

	result, err := s.authenticate(created)
	if err != nil {
		return nil, err
	}

	s.log.Info().Int64("user_id", created.ID).Str("role", created.Role.String()).Msg("user registered")
	return result, nil
}

// Login verifies credentials of an active account. Every failure returns the
// same ErrInvalidCredentials so callers cannot tell which part was wrong.
func (s *IdentityService) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		s.hasher.VerifyNothing(password)
		s.log.Warn().Str("email", email).Msg("login failed: unknown email")
		return nil, domain.ErrInvalidCredentials
	case err != nil:
		return nil, fmt.Errorf("login: %w", err)
	}

	if !user.IsActive {
		s.hasher.VerifyNothing(password)
		s.log.Warn().Int64("user_id", user.ID).Msg("login failed: account inactive")
		return nil, domain.ErrInvalidCredentials
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		s.log.Warn().Int64("user_id", user.ID).Msg("login failed: wrong password")
		return nil, domain.ErrInvalidCredentials
	}

	touched, err := s.repo.Update(ctx, user.ID, domain.UserChanges{UpdatedAt: s.now().UTC()})
	if err != nil {
		s.log.Warn().Err(err).Int64("user_id", user.ID).Msg("failed to record login time")
	} else {
		user = touched
	}

	result, err := s.authenticate(user)
	if err != nil {
		return nil, err
	}

	s.log.Info().Int64("user_id", user.ID).Msg("login succeeded")
	return result, nil
}

// Profile returns the caller's own account.
func (s *IdentityService) Profile(ctx context.Context, caller domain.Identity) (*domain.User, error) {
	if err := security.Authorize(&caller, domain.CapabilityAuthenticated); err != nil {
		return nil, err
	}
	return s.findUser(ctx, caller.UserID)
}

// ListUsers returns every account, active or not.
func (s *IdentityService) ListUsers(ctx context.Context, caller domain.Identity) ([]*domain.User, error) {
	if err := security.Authorize(&caller, domain.CapabilityAdmin); err != nil {
		return nil, err
	}
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// GetUser returns one account by id.
func (s *IdentityService) GetUser(ctx context.Context, caller domain.Identity, id int64) (*domain.User, error) {
	if err := security.Authorize(&caller, domain.CapabilityAdmin); err != nil {
		return nil, err
	}
	return s.findUser(ctx, id)
}

// UpdateUser applies a partial update after the ownership and field-level
// rules pass. Nothing is written when any check fails.
func (s *IdentityService) UpdateUser(ctx context.Context, caller domain.Identity, id int64, in ports.UpdateUserInput) (*domain.User, error) {
	if err := security.AuthorizeUpdate(caller, id, in); err != nil {
		s.log.Warn().
			Int64("actor_id", caller.UserID).
			Int64("target_id", id).
			Str("reason", domain.MessageOf(err)).
			Msg("profile update denied")
		return nil, err
	}

	changes, err := s.buildChanges(in)
	if err != nil {
		return nil, err
	}

	target, err := s.findUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if changes.Empty() {
		return target, nil
	}

	if changes.Email != nil && *changes.Email != target.Email {
		other, err := s.repo.FindByEmail(ctx, *changes.Email)
		switch {
		case err == nil && other.ID != id:
			return nil, domain.ErrEmailTaken
		case err != nil && !errors.Is(err, domain.ErrUserNotFound):
			return nil, fmt.Errorf("update user: %w", err)
		}
	}

	changes.UpdatedAt = s.now().UTC()
	updated, err := s.repo.Update(ctx, id, changes)
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) || errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	if changes.IsActive != nil {
		s.syncRevocation(ctx, id, *changes.IsActive)
	}

	s.log.Info().Int64("actor_id", caller.UserID).Int64("target_id", id).Msg("user updated")
	return updated, nil
}

// DeactivateUser soft-deletes an account. Admins cannot deactivate themselves.
func (s *IdentityService) DeactivateUser(ctx context.Context, caller domain.Identity, id int64) error {
	if err := security.AuthorizeDeactivation(caller, id); err != nil {
		s.log.Warn().Int64("actor_id", caller.UserID).Int64("target_id", id).Str("reason", domain.MessageOf(err)).Msg("deactivation denied")
		return err
	}
	if _, err := s.findUser(ctx, id); err != nil {
		return err
	}

	inactive := false
	if _, err := s.repo.Update(ctx, id, domain.UserChanges{IsActive: &inactive, UpdatedAt: s.now().UTC()}); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return err
		}
		return fmt.Errorf("deactivate user: %w", err)
	}
	s.syncRevocation(ctx, id, false)

	s.log.Info().Int64("actor_id", caller.UserID).Int64("target_id", id).Msg("user deactivated")
	return nil
}

func (s *IdentityService) authenticate(user *domain.User) (*ports.AuthResult, error) {
	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &ports.AuthResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

func (s *IdentityService) findUser(ctx context.Context, id int64) (*domain.User, error) {
	if id <= 0 {
		return nil, domain.ErrUserNotFound
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (s *IdentityService) buildChanges(in ports.UpdateUserInput) (domain.UserChanges, error) {
	var changes domain.UserChanges

	if in.FirstName != nil {
		v, err := validateName("first name", *in.FirstName)
		if err != nil {
			return changes, err
		}
		changes.FirstName = &v
	}
	if in.LastName != nil {
		v, err := validateName("last name", *in.LastName)
		if err != nil {
			return changes, err
		}
		changes.LastName = &v
	}
	if in.Email != nil {
		v, err := validateEmail(*in.Email)
		if err != nil {
			return changes, err
		}
		changes.Email = &v
	}
	if in.Role != nil {
		r, err := domain.ParseRole(*in.Role)
		if err != nil {
			return changes, err
		}
		changes.Role = &r
	}
	if in.IsActive != nil {
		v := *in.IsActive
		changes.IsActive = &v
	}
	if in.NewPassword != nil {
		hash, err := s.hashPassword(*in.NewPassword)
		if err != nil {
			return changes, err
		}
		changes.PasswordHash = &hash
	}
	return changes, nil
}

func (s *IdentityService) hashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", domain.NewValidationError(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", domain.NewValidationError("password must be at most 72 bytes")
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

// syncRevocation keeps the revocation set in line with the active flag. A
// failure is logged; the stored flag already blocks new logins.
func (s *IdentityService) syncRevocation(ctx context.Context, id int64, active bool) {
	if s.revocations == nil {
		return
	}
	var err error
	if active {
		err = s.revocations.Restore(ctx, id)
	} else {
		err = s.revocations.Revoke(ctx, id, security.TokenTTL)
	}
	if err != nil {
		s.log.Error().Err(err).Int64("user_id", id).Bool("active", active).Msg("failed to sync token revocation")
	}
}

func validateEmail(raw string) (string, error) {
	email := domain.NormalizeEmail(raw)
	if email == "" {
		return "", domain.NewValidationError("email is required")
	}
	if len(email) > maxEmailLength {
		return "", domain.NewValidationError("email is too long")
	}
	if err := fieldValidator.Var(email, "email"); err != nil {
		return "", domain.NewValidationError("email must be a valid email")
	}
	return email, nil
}

func validateName(field, raw string) (string, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return "", domain.NewValidationError(field + " is required")
	}
	if len(v) > maxNameLength {
		return "", domain.NewValidationError(field + " is too long")
	}
	return v, nil
}
