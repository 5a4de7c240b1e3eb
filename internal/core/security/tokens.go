package security

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/smartcity/access-platform/internal/core/domain"
)

// TokenTTL is the fixed lifetime of every issued token.
const TokenTTL = 24 * time.Hour

// Token validation failures. Each is an authentication error.
var (
	ErrTokenMalformed        = &domain.Error{Kind: domain.KindAuthentication, Msg: "malformed token"}
	ErrTokenBadSignature     = &domain.Error{Kind: domain.KindAuthentication, Msg: "invalid token signature"}
	ErrTokenExpired          = &domain.Error{Kind: domain.KindAuthentication, Msg: "token has expired"}
	ErrTokenIssuerMismatch   = &domain.Error{Kind: domain.KindAuthentication, Msg: "token issuer mismatch"}
	ErrTokenAudienceMismatch = &domain.Error{Kind: domain.KindAuthentication, Msg: "token audience mismatch"}
)

// TokenConfig is the process-wide signing configuration. It is built once at
// startup and shared by the issuer and the validator.
type TokenConfig struct {
	Secret   []byte
	Issuer   string
	Audience string
}

// Claims is the payload of an identity token.
type Claims struct {
	Name string      `json:"name"`
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// Identity converts validated claims into the caller identity.
func (c *Claims) Identity() (domain.Identity, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return domain.Identity{}, ErrTokenMalformed
	}
	return domain.Identity{UserID: id, Name: c.Name, Role: c.Role}, nil
}

// Clock returns the current time. Tests substitute a fixed clock.
type Clock func() time.Time

// TokenIssuer mints HS256 identity tokens.
type TokenIssuer struct {
	cfg TokenConfig
	now Clock
}

func NewTokenIssuer(cfg TokenConfig, now Clock) *TokenIssuer {
	if now == nil {
		now = time.Now
	}
	return &TokenIssuer{cfg: cfg, now: now}
}

// Issue signs a token for user valid for exactly TokenTTL.
func (i *TokenIssuer) Issue(user *domain.User) (string, time.Time, error) {
	issuedAt := i.now().UTC().Truncate(time.Second)
	expiresAt := issuedAt.Add(TokenTTL)

	claims := Claims{
		Name: user.Username,
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(user.ID, 10),
			Issuer:    i.cfg.Issuer,
			Audience:  jwt.ClaimStrings{i.cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.cfg.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// TokenValidator verifies tokens without any I/O, so every service holding
// the same TokenConfig reaches the same verdict.
type TokenValidator struct {
	cfg    TokenConfig
	parser *jwt.Parser
}

func NewTokenValidator(cfg TokenConfig, now Clock) *TokenValidator {
	if now == nil {
		now = time.Now
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithAudience(cfg.Audience),
		jwt.WithLeeway(0),
		jwt.WithTimeFunc(now),
	)
	return &TokenValidator{cfg: cfg, parser: parser}
}

// Validate parses and verifies token. A token is valid strictly before its
// expiry instant.
func (v *TokenValidator) Validate(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrTokenMalformed
	}

	claims := &Claims{}
	_, err := v.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.cfg.Secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", classify(err), err)
	}
	if _, err := claims.Identity(); err != nil {
		return nil, err
	}
	if !claims.Role.Valid() {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}

func classify(err error) *domain.Error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrTokenMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrTokenBadSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return ErrTokenIssuerMismatch
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return ErrTokenAudienceMismatch
	default:
		return ErrTokenMalformed
	}
}
