package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/smartcity/access-platform/internal/core/ports"
	"github.com/smartcity/access-platform/internal/core/security"
)

// UserHandler serves user administration on the identity service.
type UserHandler struct {
	service ports.IdentityService
}

func NewUserHandler(service ports.IdentityService) *UserHandler {
	return &UserHandler{service: service}
}

// List handles GET /auth/users.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.User
// @Failure      401  {object}  httperror.Response
// @Failure      403  {object}  httperror.Response
// @Router       /auth/users [get]
func (h *UserHandler) List(c echo.Context) error {
	caller, err := callerIdentity(c)
	if err != nil {
		return err
	}
	users, err := h.service.ListUsers(c.Request().Context(), caller)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

// Get handles GET /auth/users/:id.
//
// @Summary      Get a user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "User id"
// @Success      200  {object}  domain.User
// @Failure      403  {object}  httperror.Response
// @Failure      404  {object}  httperror.Response
// @Router       /auth/users/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	caller, err := callerIdentity(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	user, err := h.service.GetUser(c.Request().Context(), caller, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Update handles PUT /auth/users/:id. Owners may change their names, email
// and password; admins may change any profile's names, email, role and
// active flag.
//
// @Summary      Update a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                true  "User id"
// @Param        body  body      updateUserRequest  true  "Fields to change"
// @Success      200   {object}  domain.User
// @Failure      400   {object}  httperror.Response
// @Failure      403   {object}  httperror.Response
// @Failure      404   {object}  httperror.Response
// @Router       /auth/users/{id} [put]
func (h *UserHandler) Update(c echo.Context) error {
	caller, err := callerIdentity(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req updateUserRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}
	// Ownership and field rules are decided before any field value is judged.
	input := req.toInput()
	if err := security.AuthorizeUpdate(caller, id, input); err != nil {
		return err
	}
	if err := validateRequest(c, &req); err != nil {
		return err
	}
	user, err := h.service.UpdateUser(c.Request().Context(), caller, id, input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Delete handles DELETE /auth/users/:id by deactivating the account.
//
// @Summary      Deactivate a user
// @Tags         users
// @Security     BearerAuth
// @Param        id   path  int  true  "User id"
// @Success      204
// @Failure      403  {object}  httperror.Response
// @Failure      404  {object}  httperror.Response
// @Router       /auth/users/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	caller, err := callerIdentity(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.service.DeactivateUser(c.Request().Context(), caller, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
