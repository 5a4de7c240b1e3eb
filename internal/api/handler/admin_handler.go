package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/smartcity/access-platform/internal/core/domain"
	"github.com/smartcity/access-platform/internal/core/ports"
)

// AdminHandler serves the admin service routes. Every route requires an
// admin caller; the service re-checks it.
type AdminHandler struct {
	service ports.AdminService
}

func NewAdminHandler(service ports.AdminService) *AdminHandler {
	return &AdminHandler{service: service}
}

// ListUsers handles GET /admin/users.
//
// @Summary      List users via the identity service
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.User
// @Failure      403  {object}  httperror.Response
// @Failure      503  {object}  httperror.Response
// @Router       /admin/users [get]
func (h *AdminHandler) ListUsers(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	users, err := h.service.ListUsers(c.Request().Context(), caller)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

// GetUser handles GET /admin/users/:id.
//
// @Summary      Get a user via the identity service
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "User id"
// @Success      200  {object}  domain.User
// @Failure      404  {object}  httperror.Response
// @Failure      503  {object}  httperror.Response
// @Router       /admin/users/{id} [get]
func (h *AdminHandler) GetUser(c echo.Context) error {
	caller, err := callerFrom(c)
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

// UpdateUser handles PUT /admin/users/:id.
//
// @Summary      Update a user via the identity service
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                true  "User id"
// @Param        body  body      updateUserRequest  true  "Fields to change"
// @Success      200   {object}  domain.User
// @Failure      400   {object}  httperror.Response
// @Failure      503   {object}  httperror.Response
// @Router       /admin/users/{id} [put]
func (h *AdminHandler) UpdateUser(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req updateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	user, err := h.service.UpdateUser(c.Request().Context(), caller, id, req.toUpdate())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// DeleteUser handles DELETE /admin/users/:id.
//
// @Summary      Deactivate a user via the identity service
// @Tags         admin
// @Security     BearerAuth
// @Param        id   path  int  true  "User id"
// @Success      204
// @Failure      403  {object}  httperror.Response
// @Failure      503  {object}  httperror.Response
// @Router       /admin/users/{id} [delete]
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	caller, err := callerFrom(c)
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

// ListLogs handles GET /admin/logs.
//
// @Summary      Recent audit entries, newest first
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query     int  false  "Maximum entries (default 50, max 200)"
// @Success      200    {array}   domain.AuditEntry
// @Failure      400    {object}  httperror.Response
// @Failure      403    {object}  httperror.Response
// @Router       /admin/logs [get]
func (h *AdminHandler) ListLogs(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil || limit < 0 {
			return domain.NewValidationError("limit must be a non-negative integer")
		}
	}
	entries, err := h.service.ListAuditLogs(c.Request().Context(), caller, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, entries)
}

// ListSettings handles GET /admin/settings.
//
// @Summary      List system settings
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.SystemSetting
// @Failure      403  {object}  httperror.Response
// @Router       /admin/settings [get]
func (h *AdminHandler) ListSettings(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	settings, err := h.service.ListSettings(c.Request().Context(), caller)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, settings)
}

// UpsertSetting handles POST /admin/settings.
//
// @Summary      Create or update a system setting
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      settingRequest  true  "Setting"
// @Success      200   {object}  domain.SystemSetting
// @Failure      400   {object}  httperror.Response
// @Failure      403   {object}  httperror.Response
// @Router       /admin/settings [post]
func (h *AdminHandler) UpsertSetting(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req settingRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	setting, err := h.service.UpsertSetting(c.Request().Context(), caller, ports.SettingInput{
		Key:         req.Key,
		Value:       req.Value,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, setting)
}
