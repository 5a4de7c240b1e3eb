package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/smartcity/access-platform/internal/core/domain"
	"github.com/smartcity/access-platform/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubIdentityClient struct {
	listFn       func(ctx context.Context, caller domain.Caller) ([]*domain.User, error)
	getFn        func(ctx context.Context, caller domain.Caller, id int64) (*domain.User, error)
	updateFn     func(ctx context.Context, caller domain.Caller, id int64, u ports.UserUpdate) (*domain.User, error)
	deactivateFn func(ctx context.Context, caller domain.Caller, id int64) error
	calls        int
}

func (s *stubIdentityClient) ListUsers(ctx context.Context, caller domain.Caller) ([]*domain.User, error) {
	s.calls++
	return s.listFn(ctx, caller)
}

func (s *stubIdentityClient) GetUser(ctx context.Context, caller domain.Caller, id int64) (*domain.User, error) {
	s.calls++
	return s.getFn(ctx, caller, id)
}

func (s *stubIdentityClient) UpdateUser(ctx context.Context, caller domain.Caller, id int64, u ports.UserUpdate) (*domain.User, error) {
	s.calls++
	return s.updateFn(ctx, caller, id, u)
}

func (s *stubIdentityClient) DeactivateUser(ctx context.Context, caller domain.Caller, id int64) error {
	s.calls++
	return s.deactivateFn(ctx, caller, id)
}

type recordedAudit struct {
	actorID  int64
	sourceIP string
	action   string
	details  string
}

type stubAuditLogger struct {
	mu      sync.Mutex
	entries []recordedAudit
}

func (s *stubAuditLogger) Record(actorID int64, sourceIP, action, details string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, recordedAudit{actorID, sourceIP, action, details})
}

type stubAuditRepo struct {
	lastLimit int
	entries   []*domain.AuditEntry
}

func (s *stubAuditRepo) Insert(_ context.Context, e *domain.AuditEntry) error {
	s.entries = append(s.entries, e)
	return nil
}

func (s *stubAuditRepo) ListRecent(_ context.Context, limit int) ([]*domain.AuditEntry, error) {
	s.lastLimit = limit
	if limit > len(s.entries) {
		limit = len(s.entries)
	}
	return s.entries[:limit], nil
}

type stubSettingRepo struct {
	byKey map[string]*domain.SystemSetting
}

func (s *stubSettingRepo) Upsert(_ context.Context, in *domain.SystemSetting) (*domain.SystemSetting, error) {
	if existing, ok := s.byKey[in.Key]; ok {
		in.ID = existing.ID
	} else {
		in.ID = int64(len(s.byKey) + 1)
	}
	clone := *in
	s.byKey[in.Key] = &clone
	return in, nil
}

func (s *stubSettingRepo) List(_ context.Context) ([]*domain.SystemSetting, error) {
	out := make([]*domain.SystemSetting, 0, len(s.byKey))
	for _, v := range s.byKey {
		out = append(out, v)
	}
	return out, nil
}

type adminFixture struct {
	svc      *AdminService
	client   *stubIdentityClient
	audit    *stubAuditLogger
	logs     *stubAuditRepo
	settings *stubSettingRepo
}

func newAdminFixture() *adminFixture {
	f := &adminFixture{
		client:   &stubIdentityClient{},
		audit:    &stubAuditLogger{},
		logs:     &stubAuditRepo{},
		settings: &stubSettingRepo{byKey: make(map[string]*domain.SystemSetting)},
	}
	f.svc = NewAdminService(f.client, f.audit, f.logs, f.settings, zerolog.Nop())
	return f
}

var (
	adminCaller = domain.Caller{
		Identity: domain.Identity{UserID: 1, Name: "Root Admin", Role: domain.RoleAdmin},
		Token:    "admin-token",
		SourceIP: "10.0.0.7",
	}
	plannerCaller = domain.Caller{
		Identity: domain.Identity{UserID: 2, Name: "Pat Planner", Role: domain.RoleCityPlanner},
		Token:    "planner-token",
		SourceIP: "10.0.0.8",
	}
)

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestAdminService_ListUsers_AuditsSuccess(t *testing.T) {
	f := newAdminFixture()
	var forwarded string
	f.client.listFn = func(_ context.Context, c domain.Caller) ([]*domain.User, error) {
		forwarded = c.Token
		return []*domain.User{{ID: 1}, {ID: 2}, {ID: 3}}, nil
	}

	users, err := f.svc.ListUsers(context.Background(), adminCaller)
	if err != nil {
		t.Fatalf("ListUsers returned error: %v", err)
	}
	if len(users) != 3 {
		t.Fatalf("expected 3 users, got %d", len(users))
	}
	if forwarded != "admin-token" {
		t.Fatalf("expected caller token to be forwarded, got %q", forwarded)
	}
	if len(f.audit.entries) != 1 {
		t.Fatalf("expected one audit entry, got %d", len(f.audit.entries))
	}
	got := f.audit.entries[0]
	if got.actorID != 1 || got.sourceIP != "10.0.0.7" || got.action != domain.ActionListUsers {
		t.Fatalf("unexpected audit entry: %+v", got)
	}
	if !strings.Contains(got.details, "3 users") {
		t.Fatalf("expected details to mention the count, got %q", got.details)
	}
}

func TestAdminService_NonAdminIsRejectedBeforeUpstream(t *testing.T) {
	f := newAdminFixture()

	if _, err := f.svc.ListUsers(context.Background(), plannerCaller); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := f.svc.DeactivateUser(context.Background(), plannerCaller, 5); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := f.svc.ListAuditLogs(context.Background(), plannerCaller, 10); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := f.svc.UpsertSetting(context.Background(), plannerCaller, ports.SettingInput{Key: "k", Value: "v"}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if f.client.calls != 0 {
		t.Fatalf("expected no upstream calls, got %d", f.client.calls)
	}
	if len(f.audit.entries) != 0 {
		t.Fatalf("expected no audit entries, got %d", len(f.audit.entries))
	}
}

func TestAdminService_UpstreamFailureIsNotAudited(t *testing.T) {
	f := newAdminFixture()
	f.client.listFn = func(context.Context, domain.Caller) ([]*domain.User, error) {
		return nil, domain.NewUpstreamError("identity service unavailable", errors.New("connection refused"))
	}

	_, err := f.svc.ListUsers(context.Background(), adminCaller)
	if domain.KindOf(err) != domain.KindUpstream {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if len(f.audit.entries) != 0 {
		t.Fatalf("failed call must not be audited")
	}
}

func TestAdminService_UpdateAndDeactivate(t *testing.T) {
	f := newAdminFixture()
	f.client.updateFn = func(_ context.Context, _ domain.Caller, id int64, u ports.UserUpdate) (*domain.User, error) {
		return &domain.User{ID: id, Role: domain.Role(*u.Role)}, nil
	}
	f.client.deactivateFn = func(context.Context, domain.Caller, int64) error { return nil }

	role := "CityPlanner"
	user, err := f.svc.UpdateUser(context.Background(), adminCaller, 9, ports.UserUpdate{Role: &role})
	if err != nil {
		t.Fatalf("UpdateUser returned error: %v", err)
	}
	if user.Role != domain.RoleCityPlanner {
		t.Fatalf("unexpected role: %s", user.Role)
	}
	if err := f.svc.DeactivateUser(context.Background(), adminCaller, 9); err != nil {
		t.Fatalf("DeactivateUser returned error: %v", err)
	}

	if len(f.audit.entries) != 2 {
		t.Fatalf("expected two audit entries, got %d", len(f.audit.entries))
	}
	if f.audit.entries[0].action != domain.ActionUpdateUser || !strings.Contains(f.audit.entries[0].details, "role=CityPlanner") {
		t.Fatalf("unexpected update audit: %+v", f.audit.entries[0])
	}
	if f.audit.entries[1].action != domain.ActionDeactivateUser {
		t.Fatalf("unexpected deactivate audit: %+v", f.audit.entries[1])
	}
}

func TestAdminService_ListAuditLogs_ClampsLimit(t *testing.T) {
	f := newAdminFixture()

	cases := []struct {
		in, want int
	}{
		{0, DefaultAuditLimit},
		{-3, DefaultAuditLimit},
		{10, 10},
		{5000, MaxAuditLimit},
	}
	for _, tc := range cases {
		if _, err := f.svc.ListAuditLogs(context.Background(), adminCaller, tc.in); err != nil {
			t.Fatalf("ListAuditLogs(%d) returned error: %v", tc.in, err)
		}
		if f.logs.lastLimit != tc.want {
			t.Fatalf("limit %d: expected %d, got %d", tc.in, tc.want, f.logs.lastLimit)
		}
	}
}

func TestAdminService_UpsertSetting(t *testing.T) {
	f := newAdminFixture()

	saved, err := f.svc.UpsertSetting(context.Background(), adminCaller, ports.SettingInput{
		Key: " maintenance_mode ", Value: "on", Description: "banner",
	})
	if err != nil {
		t.Fatalf("UpsertSetting returned error: %v", err)
	}
	if saved.Key != "maintenance_mode" || saved.UpdatedBy != 1 || saved.UpdatedAt.IsZero() {
		t.Fatalf("unexpected setting: %+v", saved)
	}

	again, err := f.svc.UpsertSetting(context.Background(), adminCaller, ports.SettingInput{Key: "maintenance_mode", Value: "off"})
	if err != nil {
		t.Fatalf("UpsertSetting returned error: %v", err)
	}
	if again.ID != saved.ID {
		t.Fatalf("expected upsert to keep id %d, got %d", saved.ID, again.ID)
	}
	if len(f.settings.byKey) != 1 {
		t.Fatalf("expected a single stored setting, got %d", len(f.settings.byKey))
	}

	if len(f.audit.entries) != 2 || f.audit.entries[1].details != "Updated setting 'maintenance_mode' to 'off'" {
		t.Fatalf("unexpected audit entries: %+v", f.audit.entries)
	}
}

func TestAdminService_UpsertSetting_Validation(t *testing.T) {
	f := newAdminFixture()

	for _, in := range []ports.SettingInput{
		{Key: "", Value: "v"},
		{Key: "k", Value: "  "},
		{Key: strings.Repeat("k", 101), Value: "v"},
		{Key: "k", Value: strings.Repeat("v", 501)},
	} {
		if _, err := f.svc.UpsertSetting(context.Background(), adminCaller, in); domain.KindOf(err) != domain.KindValidation {
			t.Fatalf("expected validation error for %+v, got %v", in, err)
		}
	}
	if len(f.settings.byKey) != 0 || len(f.audit.entries) != 0 {
		t.Fatalf("rejected settings must not be stored or audited")
	}
}
