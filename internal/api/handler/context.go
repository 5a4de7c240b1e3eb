package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/smartcity/access-platform/internal/api/middleware"
	"github.com/smartcity/access-platform/internal/core/domain"
)

// callerIdentity returns the identity injected by the Auth middleware. A
// missing identity means the route was registered without Auth.
func callerIdentity(c echo.Context) (domain.Identity, error) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return domain.Identity{}, domain.ErrUnauthenticated
	}
	return id, nil
}

// callerFrom extends the identity with what is needed to act on the caller's
// behalf against the identity service and to audit the action.
func callerFrom(c echo.Context) (domain.Caller, error) {
	id, err := callerIdentity(c)
	if err != nil {
		return domain.Caller{}, err
	}
	return domain.Caller{
		Identity:  id,
		Token:     middleware.TokenFrom(c),
		SourceIP:  c.RealIP(),
		RequestID: c.Response().Header().Get(echo.HeaderXRequestID),
	}, nil
}

func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError("invalid user id")
	}
	return id, nil
}

// bindAndValidate decodes the body into req and runs its validate tags.
func bindAndValidate(c echo.Context, req any) error {
	if err := bindRequest(c, req); err != nil {
		return err
	}
	return validateRequest(c, req)
}

func bindRequest(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return domain.NewValidationError("invalid payload")
	}
	return nil
}

func validateRequest(c echo.Context, req any) error {
	if err := c.Validate(req); err != nil {
		return domain.NewValidationError(err.Error())
	}
	return nil
}
