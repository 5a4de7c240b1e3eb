package httperror

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/smartcity/access-platform/internal/core/domain"
)

func TestResolve(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{"validation", domain.NewValidationError("email is required"), http.StatusBadRequest, "email is required"},
		{"invalid role", domain.ErrInvalidRole, http.StatusBadRequest, domain.ErrInvalidRole.Msg},
		{"conflict", domain.ErrUserExists, http.StatusBadRequest, domain.ErrUserExists.Msg},
		{"credentials", domain.ErrInvalidCredentials, http.StatusUnauthorized, "invalid email or password"},
		{"forbidden", domain.ErrForbidden, http.StatusForbidden, "access forbidden"},
		{"self protection", domain.ErrSelfProtection, http.StatusForbidden, domain.ErrSelfProtection.Msg},
		{"not found", domain.ErrUserNotFound, http.StatusNotFound, "user not found"},
		{"wrapped not found", fmt.Errorf("find user: %w", domain.ErrUserNotFound), http.StatusNotFound, "user not found"},
		{"upstream", domain.NewUpstreamError("identity service unavailable", errors.New("dial tcp")), http.StatusServiceUnavailable, "identity service unavailable"},
		{"internal", errors.New("mongo: connection reset"), http.StatusInternalServerError, "internal server error"},
		{"echo error", echo.NewHTTPError(http.StatusUnsupportedMediaType, "unsupported"), http.StatusUnsupportedMediaType, "unsupported"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, msg := Resolve(tc.err)
			if code != tc.wantCode || msg != tc.wantMsg {
				t.Fatalf("expected %d %q, got %d %q", tc.wantCode, tc.wantMsg, code, msg)
			}
		})
	}
}

func TestHTTPErrorHandler_HidesInternalDetail(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/auth/users", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	NewHTTPErrorHandler(zerolog.Nop())(errors.New("pq: password authentication failed"), c)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var body Response
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body.Error != "internal server error" {
		t.Fatalf("expected generic message, got %q", body.Error)
	}
}

func TestHTTPErrorHandler_SkipsCommittedResponse(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	_ = c.NoContent(http.StatusNoContent)

	NewHTTPErrorHandler(zerolog.Nop())(domain.ErrForbidden, c)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected committed status to be kept, got %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Fatalf("expected empty body, got %q", rec.Body.String())
	}
}
