// Package upstream calls the identity service on behalf of an authenticated
// admin caller, forwarding the caller's bearer token unchanged.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/elnormous/contenttype"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/smartcity/access-platform/internal/api/metrics"
	"github.com/smartcity/access-platform/internal/core/domain"
	"github.com/smartcity/access-platform/internal/core/ports"
)

const maxResponseBytes = 4 << 20

var jsonMediaType = contenttype.NewMediaType("application/json")

// errUnavailable is the client-facing message for every transport failure.
const errUnavailable = "identity service unavailable"

// IdentityClient implements ports.IdentityClient over HTTP.
type IdentityClient struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

var _ ports.IdentityClient = (*IdentityClient)(nil)

// NewIdentityClient returns a client for the identity service at baseURL.
// Every call is bounded by timeout.
func NewIdentityClient(baseURL string, timeout time.Duration, log zerolog.Logger) *IdentityClient {
	return &IdentityClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

func (c *IdentityClient) ListUsers(ctx context.Context, caller domain.Caller) ([]*domain.User, error) {
	var users []*domain.User
	if err := c.do(ctx, caller, "list_users", http.MethodGet, "/auth/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *IdentityClient) GetUser(ctx context.Context, caller domain.Caller, id int64) (*domain.User, error) {
	var user domain.User
	if err := c.do(ctx, caller, "get_user", http.MethodGet, userPath(id), nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *IdentityClient) UpdateUser(ctx context.Context, caller domain.Caller, id int64, update ports.UserUpdate) (*domain.User, error) {
	var user domain.User
	if err := c.do(ctx, caller, "update_user", http.MethodPut, userPath(id), update, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *IdentityClient) DeactivateUser(ctx context.Context, caller domain.Caller, id int64) error {
	return c.do(ctx, caller, "deactivate_user", http.MethodDelete, userPath(id), nil, nil)
}

func userPath(id int64) string {
	return "/auth/users/" + strconv.FormatInt(id, 10)
}

// do performs one request. out may be nil when no body is expected.
func (c *IdentityClient) do(ctx context.Context, caller domain.Caller, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", op, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", op, err)
	}
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+caller.Token)
	req.Header.Set(echo.HeaderAccept, echo.MIMEApplicationJSON)
	if in != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if caller.RequestID != "" {
		req.Header.Set(echo.HeaderXRequestID, caller.RequestID)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.UpstreamRequestDuration.WithLabelValues(op, "error").Observe(time.Since(start).Seconds())
		c.log.Error().Err(err).Str("operation", op).Msg("identity service request failed")
		return domain.NewUpstreamError(errUnavailable, err)
	}
	defer resp.Body.Close()
	metrics.UpstreamRequestDuration.WithLabelValues(op, strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return domain.NewUpstreamError(errUnavailable, fmt.Errorf("read %s response: %w", op, err))
	}

	if resp.StatusCode >= 300 {
		return c.statusError(op, resp, payload)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if !isJSON(resp) {
		return domain.NewUpstreamError(errUnavailable,
			fmt.Errorf("%s: unexpected content type %q", op, resp.Header.Get(echo.HeaderContentType)))
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return domain.NewUpstreamError(errUnavailable, fmt.Errorf("decode %s response: %w", op, err))
	}
	return nil
}

// statusError maps a non-2xx response to the same error kind the identity
// service reported, keeping its message when it sent one.
func (c *IdentityClient) statusError(op string, resp *http.Response, payload []byte) error {
	msg := downstreamMessage(resp, payload)
	switch resp.StatusCode {
	case http.StatusBadRequest:
		return &domain.Error{Kind: domain.KindValidation, Msg: orDefault(msg, "invalid request")}
	case http.StatusUnauthorized:
		return &domain.Error{Kind: domain.KindAuthentication, Msg: orDefault(msg, domain.ErrUnauthenticated.Msg)}
	case http.StatusForbidden:
		return &domain.Error{Kind: domain.KindAuthorization, Msg: orDefault(msg, domain.ErrForbidden.Msg)}
	case http.StatusNotFound:
		return domain.NewNotFoundError(orDefault(msg, domain.ErrUserNotFound.Msg))
	}
	c.log.Error().Str("operation", op).Int("status", resp.StatusCode).Msg("identity service returned an unexpected status")
	return domain.NewUpstreamError(errUnavailable, fmt.Errorf("%s: status %d", op, resp.StatusCode))
}

func downstreamMessage(resp *http.Response, payload []byte) string {
	if !isJSON(resp) {
		return ""
	}
	var envelope struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return ""
	}
	return envelope.Error
}

// isJSON reports whether the response declares a JSON body. GetMediaType only
// reads the Content-Type header of the request it is given.
func isJSON(resp *http.Response) bool {
	if resp.Header.Get(echo.HeaderContentType) == "" {
		return false
	}
	mt, err := contenttype.GetMediaType(&http.Request{Header: resp.Header})
	return err == nil && mt.Matches(jsonMediaType)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
