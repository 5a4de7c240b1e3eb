package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{"Admin", RoleAdmin, false},
		{" cityplanner ", RoleCityPlanner, false},
		{"CITIZEN", RoleCitizen, false},
		{"Supervisor", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRole(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidRole) {
					t.Fatalf("expected ErrInvalidRole, got %v", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("ParseRole(%q) = %q, %v", tt.in, got, err)
			}
		})
	}
}

func TestRole_UnmarshalRejectsUnknown(t *testing.T) {
	var v struct {
		Role Role `json:"role"`
	}
	if err := json.Unmarshal([]byte(`{"role":"admin"}`), &v); err != nil || v.Role != RoleAdmin {
		t.Fatalf("expected canonical Admin, got %q (%v)", v.Role, err)
	}
	if err := json.Unmarshal([]byte(`{"role":"root"}`), &v); err == nil {
		t.Fatalf("expected error for unknown role")
	}
}

func TestKindAndMessage(t *testing.T) {
	wrapped := fmt.Errorf("update: %w", ErrEmailTaken)
	if KindOf(wrapped) != KindConflict {
		t.Fatalf("expected conflict, got %v", KindOf(wrapped))
	}
	if MessageOf(wrapped) != ErrEmailTaken.Msg {
		t.Fatalf("unexpected message %q", MessageOf(wrapped))
	}

	plain := errors.New("boom")
	if KindOf(plain) != KindInternal || MessageOf(plain) != "" {
		t.Fatalf("plain errors must be internal with no client message")
	}

	up := NewUpstreamError("identity service unavailable", plain)
	if !errors.Is(up, plain) || up.Error() != "identity service unavailable: boom" {
		t.Fatalf("unexpected upstream error %q", up.Error())
	}
}

func TestUserChanges(t *testing.T) {
	if !(UserChanges{UpdatedAt: time.Now()}).Empty() {
		t.Fatalf("timestamp alone is not a change")
	}

	email := "new@example.com"
	role := RoleAdmin
	inactive := false
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	c := UserChanges{Email: &email, Role: &role, IsActive: &inactive, UpdatedAt: now}
	if c.Empty() {
		t.Fatalf("expected non-empty changes")
	}

	u := &User{FirstName: "Ada", Email: "old@example.com", Role: RoleCitizen, IsActive: true}
	c.Apply(u)
	if u.Email != email || u.Role != RoleAdmin || u.IsActive || u.FirstName != "Ada" || !u.UpdatedAt.Equal(now) {
		t.Fatalf("unexpected user after apply: %+v", u)
	}
}

func TestDeriveUsernameAndNormalizeEmail(t *testing.T) {
	if got := DeriveUsername(" Ada ", " Lovelace "); got != "Ada Lovelace" {
		t.Fatalf("unexpected username %q", got)
	}
	if got := NormalizeEmail("  Ada@Example.COM "); got != "ada@example.com" {
		t.Fatalf("unexpected email %q", got)
	}
}

func TestPasswordHashNotSerialized(t *testing.T) {
	b, err := json.Marshal(User{ID: 1, PasswordHash: "secret-hash"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	_ = json.Unmarshal(b, &m)
	if _, ok := m["password_hash"]; ok {
		t.Fatalf("password hash leaked: %s", b)
	}
	if _, ok := m["PasswordHash"]; ok {
		t.Fatalf("password hash leaked: %s", b)
	}
}
