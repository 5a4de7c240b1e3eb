// Package httperror renders every error returned by a handler as the JSON
// envelope {"error": "<message>"}.
package httperror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/smartcity/access-platform/internal/api/metrics"
	"github.com/smartcity/access-platform/internal/core/domain"
)

// Response is the canonical error envelope for all API errors.
type Response struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps domain error kinds to their HTTP status codes.
//   - Logs internal errors without leaking details to the client.
//   - Renders a consistent JSON envelope.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := Resolve(err)
		if code >= http.StatusInternalServerError {
			log.Error().
				Err(err).
				Str("method", c.Request().Method).
				Str("path", c.Path()).
				Int("status", code).
				Msg("request failed")
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, Response{Error: msg})
	}
}

// Resolve maps err to a status code and a client-safe message.
func Resolve(err error) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		metrics.ErrorsTotal.WithLabelValues("http").Inc()
		if m, ok := he.Message.(string); ok {
			return he.Code, m
		}
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	kind := domain.KindOf(err)
	metrics.ErrorsTotal.WithLabelValues(kind.String()).Inc()

	msg := domain.MessageOf(err)
	switch kind {
	case domain.KindValidation, domain.KindConflict:
		return http.StatusBadRequest, msg
	case domain.KindAuthentication:
		return http.StatusUnauthorized, msg
	case domain.KindAuthorization:
		return http.StatusForbidden, msg
	case domain.KindNotFound:
		return http.StatusNotFound, msg
	case domain.KindUpstream:
		return http.StatusServiceUnavailable, msg
	}
	return http.StatusInternalServerError, "internal server error"
}
