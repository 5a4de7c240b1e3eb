package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/smartcity/access-platform/internal/api/httperror"
	"github.com/smartcity/access-platform/internal/core/domain"
	"github.com/smartcity/access-platform/internal/core/security"
)

var testTokens = security.TokenConfig{
	Secret:   []byte("0123456789abcdef0123456789abcdef"),
	Issuer:   "smartcity-identity",
	Audience: "smartcity-platform",
}

type stubRevocations struct {
	revoked map[int64]bool
	err     error
}

func (s *stubRevocations) IsRevoked(_ context.Context, id int64) (bool, error) {
	return s.revoked[id], s.err
}

func issueToken(t *testing.T, id int64, role domain.Role) string {
	t.Helper()
	token, _, err := security.NewTokenIssuer(testTokens, time.Now).Issue(&domain.User{ID: id, Username: "Test User", Role: role})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func newContext(authHeader string) (*echo.Echo, echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.HTTPErrorHandler = httperror.NewHTTPErrorHandler(zerolog.Nop())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	return e, e.NewContext(req, rec), rec
}

func run(e *echo.Echo, c echo.Context, h echo.HandlerFunc) {
	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	token := issueToken(t, 7, domain.RoleCityPlanner)
	e, c, rec := newContext("Bearer " + token)

	called := false
	mw := Auth(security.NewTokenValidator(testTokens, time.Now), nil, zerolog.Nop())
	run(e, c, mw(func(c echo.Context) error {
		called = true
		id, ok := IdentityFrom(c)
		if !ok {
			t.Fatalf("identity not set")
		}
		if id.UserID != 7 || id.Role != domain.RoleCityPlanner || id.Name != "Test User" {
			t.Fatalf("unexpected identity: %+v", id)
		}
		if TokenFrom(c) != token {
			t.Fatalf("raw token not set")
		}
		return c.NoContent(http.StatusOK)
	}))

	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	expired, _, err := security.NewTokenIssuer(testTokens, func() time.Time {
		return time.Now().Add(-25 * time.Hour)
	}).Issue(&domain.User{ID: 7, Role: domain.RoleCitizen})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Token abc"},
		{"empty bearer", "Bearer "},
		{"garbage token", "Bearer not.a.jwt"},
		{"expired token", "Bearer " + expired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e, c, rec := newContext(tc.header)
			mw := Auth(security.NewTokenValidator(testTokens, time.Now), nil, zerolog.Nop())
			run(e, c, mw(func(c echo.Context) error {
				t.Fatalf("should not reach next")
				return nil
			}))
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
		})
	}
}

func TestAuthMiddleware_RevokedSubject(t *testing.T) {
	token := issueToken(t, 9, domain.RoleAdmin)
	e, c, rec := newContext("Bearer " + token)

	revocations := &stubRevocations{revoked: map[int64]bool{9: true}}
	mw := Auth(security.NewTokenValidator(testTokens, time.Now), revocations, zerolog.Nop())
	run(e, c, mw(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	}))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddleware_RevocationLookupFailureAllows(t *testing.T) {
	token := issueToken(t, 9, domain.RoleAdmin)
	e, c, rec := newContext("Bearer " + token)

	revocations := &stubRevocations{err: errors.New("redis: connection refused")}
	mw := Auth(security.NewTokenValidator(testTokens, time.Now), revocations, zerolog.Nop())
	run(e, c, mw(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRequire(t *testing.T) {
	cases := []struct {
		name       string
		identity   *domain.Identity
		capability domain.Capability
		wantCode   int
	}{
		{"public without identity", nil, domain.CapabilityPublic, http.StatusOK},
		{"authenticated without identity", nil, domain.CapabilityAuthenticated, http.StatusUnauthorized},
		{"authenticated citizen", &domain.Identity{UserID: 1, Role: domain.RoleCitizen}, domain.CapabilityAuthenticated, http.StatusOK},
		{"admin route citizen", &domain.Identity{UserID: 1, Role: domain.RoleCitizen}, domain.CapabilityAdmin, http.StatusForbidden},
		{"admin route planner", &domain.Identity{UserID: 2, Role: domain.RoleCityPlanner}, domain.CapabilityAdmin, http.StatusForbidden},
		{"admin route admin", &domain.Identity{UserID: 3, Role: domain.RoleAdmin}, domain.CapabilityAdmin, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e, c, rec := newContext("")
			if tc.identity != nil {
				SetCaller(c, *tc.identity, "")
			}
			run(e, c, Require(tc.capability)(func(c echo.Context) error {
				return c.NoContent(http.StatusOK)
			}))
			if rec.Code != tc.wantCode {
				t.Fatalf("expected %d, got %d", tc.wantCode, rec.Code)
			}
		})
	}
}
