package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/smartcity/access-platform/internal/api/middleware"
	"github.com/smartcity/access-platform/internal/core/domain"
	"github.com/smartcity/access-platform/internal/core/ports"
)

var (
	adminIdentity   = domain.Identity{UserID: 1, Name: "Root Admin", Role: domain.RoleAdmin}
	citizenIdentity = domain.Identity{UserID: 2, Name: "Cit Izen", Role: domain.RoleCitizen}
)

func newUserContext(e *echo.Echo, req *http.Request, id string, caller domain.Identity) (echo.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if id != "" {
		c.SetParamNames("id")
		c.SetParamValues(id)
	}
	middleware.SetCaller(c, caller, "tok")
	return c, rec
}

func TestUserHandler_List(t *testing.T) {
	e := newTestEcho()
	stub := &stubIdentityService{
		listFn: func(_ context.Context, caller domain.Identity) ([]*domain.User, error) {
			if caller.UserID != 1 {
				t.Fatalf("unexpected caller: %+v", caller)
			}
			return []*domain.User{{ID: 1, Role: domain.RoleAdmin}, {ID: 2, Role: domain.RoleCitizen}}, nil
		},
	}
	c, rec := newUserContext(e, httptest.NewRequest(http.MethodGet, "/auth/users", nil), "", adminIdentity)
	serve(e, c, NewUserHandler(stub).List)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var users []domain.User
	if err := json.Unmarshal(rec.Body.Bytes(), &users); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
}

func TestUserHandler_List_Forbidden(t *testing.T) {
	e := newTestEcho()
	stub := &stubIdentityService{
		listFn: func(context.Context, domain.Identity) ([]*domain.User, error) {
			return nil, domain.ErrForbidden
		},
	}
	c, rec := newUserContext(e, httptest.NewRequest(http.MethodGet, "/auth/users", nil), "", citizenIdentity)
	serve(e, c, NewUserHandler(stub).List)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestUserHandler_Get_InvalidID(t *testing.T) {
	e := newTestEcho()
	stub := &stubIdentityService{
		getFn: func(context.Context, domain.Identity, int64) (*domain.User, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	for _, id := range []string{"abc", "0", "-4"} {
		c, rec := newUserContext(e, httptest.NewRequest(http.MethodGet, "/auth/users/"+id, nil), id, adminIdentity)
		serve(e, c, NewUserHandler(stub).Get)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("id %q: expected 400, got %d", id, rec.Code)
		}
	}
}

func TestUserHandler_Get_NotFound(t *testing.T) {
	e := newTestEcho()
	stub := &stubIdentityService{
		getFn: func(_ context.Context, _ domain.Identity, id int64) (*domain.User, error) {
			if id != 77 {
				t.Fatalf("unexpected id %d", id)
			}
			return nil, domain.ErrUserNotFound
		},
	}
	c, rec := newUserContext(e, httptest.NewRequest(http.MethodGet, "/auth/users/77", nil), "77", adminIdentity)
	serve(e, c, NewUserHandler(stub).Get)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestUserHandler_Update_PassesOnlyProvidedFields(t *testing.T) {
	e := newTestEcho()
	stub := &stubIdentityService{
		updateFn: func(_ context.Context, caller domain.Identity, id int64, in ports.UpdateUserInput) (*domain.User, error) {
			if caller.UserID != 2 || id != 2 {
				t.Fatalf("unexpected caller/target: %d/%d", caller.UserID, id)
			}
			if in.FirstName == nil || *in.FirstName != "Ada" {
				t.Fatalf("expected first_name to be set, got %+v", in.FirstName)
			}
			if in.Role != nil || in.IsActive != nil || in.Email != nil {
				t.Fatalf("unexpected fields set: %+v", in)
			}
			return &domain.User{ID: 2, FirstName: "Ada"}, nil
		},
	}
	c, rec := newUserContext(e, jsonRequest(http.MethodPut, "/auth/users/2", `{"first_name":"Ada"}`), "2", citizenIdentity)
	serve(e, c, NewUserHandler(stub).Update)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestUserHandler_Update_ErrorMapping(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"field forbidden", domain.ErrFieldForbidden, http.StatusForbidden},
		{"not owner", domain.ErrNotOwner, http.StatusForbidden},
		{"invalid role", domain.ErrInvalidRole, http.StatusBadRequest},
		{"email taken", domain.ErrEmailTaken, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestEcho()
			stub := &stubIdentityService{
				updateFn: func(context.Context, domain.Identity, int64, ports.UpdateUserInput) (*domain.User, error) {
					return nil, tc.err
				},
			}
			c, rec := newUserContext(e, jsonRequest(http.MethodPut, "/auth/users/3", `{"role":"Admin"}`), "3", adminIdentity)
			serve(e, c, NewUserHandler(stub).Update)
			if rec.Code != tc.wantCode {
				t.Fatalf("expected %d, got %d", tc.wantCode, rec.Code)
			}
		})
	}
}

func TestUserHandler_Update_OwnershipBeforeFieldValidation(t *testing.T) {
	cases := []struct {
		name     string
		body     string
		wantCode int
	}{
		{"malformed email on another profile", `{"email":"not-an-email"}`, http.StatusForbidden},
		{"malformed email and role on another profile", `{"email":"not-an-email","role":"Admin"}`, http.StatusForbidden},
		{"short password on another profile", `{"new_password":"x"}`, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestEcho()
			stub := &stubIdentityService{
				updateFn: func(context.Context, domain.Identity, int64, ports.UpdateUserInput) (*domain.User, error) {
					t.Fatalf("service must not be reached")
					return nil, nil
				},
			}
			c, rec := newUserContext(e, jsonRequest(http.MethodPut, "/auth/users/9", tc.body), "9", citizenIdentity)
			serve(e, c, NewUserHandler(stub).Update)
			if rec.Code != tc.wantCode {
				t.Fatalf("expected %d, got %d: %s", tc.wantCode, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestUserHandler_Update_OwnFieldsStillValidated(t *testing.T) {
	e := newTestEcho()
	stub := &stubIdentityService{
		updateFn: func(context.Context, domain.Identity, int64, ports.UpdateUserInput) (*domain.User, error) {
			t.Fatalf("service must not be reached")
			return nil, nil
		},
	}
	c, rec := newUserContext(e, jsonRequest(http.MethodPut, "/auth/users/2", `{"email":"not-an-email"}`), "2", citizenIdentity)
	serve(e, c, NewUserHandler(stub).Update)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestUserHandler_Delete(t *testing.T) {
	e := newTestEcho()
	var deactivated int64
	stub := &stubIdentityService{
		deactivateFn: func(_ context.Context, _ domain.Identity, id int64) error {
			deactivated = id
			return nil
		},
	}
	c, rec := newUserContext(e, httptest.NewRequest(http.MethodDelete, "/auth/users/9", nil), "9", adminIdentity)
	serve(e, c, NewUserHandler(stub).Delete)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if deactivated != 9 {
		t.Fatalf("expected user 9 to be deactivated, got %d", deactivated)
	}
}

func TestUserHandler_Delete_Self(t *testing.T) {
	e := newTestEcho()
	stub := &stubIdentityService{
		deactivateFn: func(context.Context, domain.Identity, int64) error {
			return domain.ErrSelfProtection
		},
	}
	c, rec := newUserContext(e, httptest.NewRequest(http.MethodDelete, "/auth/users/1", nil), "1", adminIdentity)
	serve(e, c, NewUserHandler(stub).Delete)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}
