package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"atelier/portal/internal/backend"
	"atelier/portal/internal/logging"
	"atelier/portal/internal/rbac"
)

type fakeSyncer struct {
	syncFn func(ctx context.Context, email, displayName string) (backend.SyncedUser, error)
	calls  int
}

func (f *fakeSyncer) SyncUser(ctx context.Context, email, displayName string) (backend.SyncedUser, error) {
	f.calls++
	return f.syncFn(ctx, email, displayName)
}

func levelSyncer(level string) *fakeSyncer {
	return &fakeSyncer{syncFn: func(context.Context, string, string) (backend.SyncedUser, error) {
		return backend.SyncedUser{UserLevel: level}, nil
	}}
}

func TestResolverUsesSyncedLevel(t *testing.T) {
	cases := []struct {
		level string
		want  rbac.Role
	}{
		{"SUPER_ADMIN", rbac.RoleSuperAdmin},
		{"L1", rbac.RoleL1},
		{" l3 ", rbac.RoleL3},
		{"VENDOR", rbac.RoleVendor},
	}
	for _, tc := range cases {
		syncer := levelSyncer(tc.level)
		got := NewResolver(syncer, 0, logging.Discard()).Resolve(context.Background(), "a@b.c", "A")
		if got.Role != tc.want || !got.Synced {
			t.Fatalf("level %q: got %+v, want role %s synced", tc.level, got, tc.want)
		}
		if syncer.calls != 1 {
			t.Fatalf("level %q: expected exactly one sync call, got %d", tc.level, syncer.calls)
		}
	}
}

func TestResolverFallsBackOnSyncFailure(t *testing.T) {
	syncer := &fakeSyncer{syncFn: func(context.Context, string, string) (backend.SyncedUser, error) {
		return backend.SyncedUser{}, errors.New("upstream down")
	}}
	got := NewResolver(syncer, 0, logging.Discard()).Resolve(context.Background(), "a@b.c", "A")
	if got.Role != rbac.DefaultRole || got.Synced {
		t.Fatalf("got %+v, want default role unsynced", got)
	}
	if got.Role == rbac.RoleSuperAdmin {
		t.Fatal("fallback role must never be SUPER_ADMIN")
	}
}

func TestResolverFallsBackOnUnknownLevel(t *testing.T) {
	for _, level := range []string{"", "ROOT", "admin"} {
		got := NewResolver(levelSyncer(level), 0, logging.Discard()).Resolve(context.Background(), "a@b.c", "A")
		if got.Role != rbac.DefaultRole {
			t.Fatalf("level %q: got role %s, want %s", level, got.Role, rbac.DefaultRole)
		}
	}
}

func TestResolverDoesNotHangOnStalledSync(t *testing.T) {
	syncer := &fakeSyncer{syncFn: func(ctx context.Context, _, _ string) (backend.SyncedUser, error) {
		<-ctx.Done()
		return backend.SyncedUser{}, ctx.Err()
	}}
	resolver := NewResolver(syncer, 20*time.Millisecond, logging.Discard())

	done := make(chan Identity, 1)
	go func() { done <- resolver.Resolve(context.Background(), "a@b.c", "A") }()

	select {
	case got := <-done:
		if got.Role != rbac.DefaultRole {
			t.Fatalf("got role %s, want %s", got.Role, rbac.DefaultRole)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Resolve did not return")
	}
}
