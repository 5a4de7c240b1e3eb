package service

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/smartcity/access-platform/internal/core/domain"
	"github.com/smartcity/access-platform/internal/core/ports"
	"github.com/smartcity/access-platform/internal/infrastructure/queue"
)

// memoryAuditRepo orders entries the way the persistent stores do: newest
// timestamp first, ties broken by id descending.
type memoryAuditRepo struct {
	mu      sync.Mutex
	nextID  int64
	entries []*domain.AuditEntry
}

func (r *memoryAuditRepo) Insert(_ context.Context, e *domain.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	e.ID = r.nextID
	clone := *e
	r.entries = append(r.entries, &clone)
	return nil
}

func (r *memoryAuditRepo) ListRecent(_ context.Context, limit int) ([]*domain.AuditEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]*domain.AuditEntry(nil), r.entries...)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].ID > out[j].ID
	})
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func TestAdminService_PrivilegedActionIsNewestAuditEntry(t *testing.T) {
	repo := &memoryAuditRepo{}
	dispatcher := queue.NewAuditDispatcher(repo, 16, 4, zerolog.Nop())
	dispatcher.Start(context.Background())

	client := &stubIdentityClient{
		listFn: func(context.Context, domain.Caller) ([]*domain.User, error) {
			return []*domain.User{{ID: 1}, {ID: 2}}, nil
		},
		updateFn: func(_ context.Context, _ domain.Caller, id int64, _ ports.UserUpdate) (*domain.User, error) {
			return &domain.User{ID: id, Role: domain.RoleCityPlanner}, nil
		},
	}
	svc := NewAdminService(client, dispatcher, repo, &stubSettingRepo{byKey: map[string]*domain.SystemSetting{}}, zerolog.Nop())

	for i := 0; i < 5; i++ {
		if _, err := svc.ListUsers(context.Background(), adminCaller); err != nil {
			t.Fatalf("ListUsers returned error: %v", err)
		}
	}
	role := "CityPlanner"
	otherAdmin := adminCaller
	otherAdmin.UserID = 7
	if _, err := svc.UpdateUser(context.Background(), otherAdmin, 3, ports.UserUpdate{Role: &role}); err != nil {
		t.Fatalf("UpdateUser returned error: %v", err)
	}

	if err := dispatcher.Close(context.Background()); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	logs, err := svc.ListAuditLogs(context.Background(), adminCaller, 0)
	if err != nil {
		t.Fatalf("ListAuditLogs returned error: %v", err)
	}
	if len(logs) != 6 {
		t.Fatalf("expected 6 entries, got %d", len(logs))
	}
	if logs[0].UserID != 7 || logs[0].Action != domain.ActionUpdateUser {
		t.Fatalf("expected the update by user 7 first, got %+v", logs[0])
	}
	if logs[0].IPAddress != adminCaller.SourceIP {
		t.Fatalf("unexpected source address %q", logs[0].IPAddress)
	}
}
