package library_test

import (
	"context"
	"errors"
	"testing"

	"library-search/internal/backendtest"
	"library-search/library"
)

func TestAdminDashboardRejectsReaderLocally(t *testing.T) {
	h := newHarness(t, backendtest.Options{})
	ctx := context.Background()
	if err := h.mgr.Login(ctx, "alice", "pw1"); err != nil {
		t.Fatalf("login: %v", err)
	}

	d := h.mgr.OpenAdmin(ctx)
	if !errors.Is(d.Err, library.ErrNotAuthorized) {
		t.Fatalf("err = %v, want ErrNotAuthorized", d.Err)
	}
	if d.Authorized() || d.Statistics != nil || d.Users != nil {
		t.Fatalf("reader got admin data: %+v", d)
	}
	if h.backend.Hits("GET /api/admin/statistics") != 0 {
		t.Fatalf("role claim should have rejected the reader without a request")
	}
}

func TestAdminDashboardProbesWithoutRoleClaim(t *testing.T) {
	h := newHarness(t, backendtest.Options{OmitRoleClaim: true})
	ctx := context.Background()
	if err := h.mgr.Login(ctx, "alice", "pw1"); err != nil {
		t.Fatalf("login: %v", err)
	}

	d := h.mgr.OpenAdmin(ctx)
	if !errors.Is(d.Err, library.ErrNotAuthorized) {
		t.Fatalf("err = %v, want ErrNotAuthorized", d.Err)
	}
	if h.backend.Hits("GET /api/admin/statistics") != 1 {
		t.Fatalf("expected one statistics probe")
	}
	if h.backend.Hits("GET /api/admin/users") != 0 {
		t.Fatalf("users fetched for a rejected account")
	}
}

func TestAdminDashboardLoadsBoth(t *testing.T) {
	h := newHarness(t, backendtest.Options{})
	ctx := context.Background()
	if err := h.mgr.Login(ctx, "root", "rootpw"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := h.mgr.Search(ctx, "Python", library.AllLocations); err != nil {
		t.Fatalf("search: %v", err)
	}

	d := h.mgr.OpenAdmin(ctx)
	if !d.Authorized() {
		t.Fatalf("admin rejected: %v", d.Err)
	}
	if !h.mgr.Snapshot().ShowAdmin {
		t.Fatalf("admin view not open")
	}
	if d.Statistics == nil || d.Statistics.UserCount != 2 || d.Statistics.SearchCount != 1 {
		t.Fatalf("unexpected statistics: %+v", d.Statistics)
	}
	if d.Statistics.AccessCount == 0 {
		t.Fatalf("access count not tracked")
	}
	if len(d.Users) != 2 || d.Users[0].Username != "root" {
		t.Fatalf("unexpected users: %+v", d.Users)
	}

	h.mgr.CloseAdmin()
	if h.mgr.Snapshot().ShowAdmin {
		t.Fatalf("admin view still open")
	}
}

func TestAdminDashboardPartialFailure(t *testing.T) {
	h := newHarness(t, backendtest.Options{})
	ctx := context.Background()
	if err := h.mgr.Login(ctx, "root", "rootpw"); err != nil {
		t.Fatalf("login: %v", err)
	}
	h.backend.Fail("GET /api/admin/users", 500)

	d := h.mgr.OpenAdmin(ctx)
	if d.Err == nil || errors.Is(d.Err, library.ErrNotAuthorized) {
		t.Fatalf("err = %v, want a load error", d.Err)
	}
	if d.Authorized() {
		t.Fatalf("dashboard with a failed fetch reported as authorized")
	}
	if h.backend.Hits("GET /api/admin/users") != 1 || h.backend.Hits("GET /api/admin/statistics") != 2 {
		t.Fatalf("both fetches should have completed before returning")
	}
}

func TestAdminDashboardNeedsSession(t *testing.T) {
	h := newHarness(t, backendtest.Options{})
	d := h.mgr.OpenAdmin(context.Background())
	if !errors.Is(d.Err, library.ErrNotLoggedIn) {
		t.Fatalf("err = %v, want ErrNotLoggedIn", d.Err)
	}
}

func TestInspectToken(t *testing.T) {
	h := newHarness(t, backendtest.Options{})
	tok, err := h.backend.IssueToken("root")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	info, ok := library.InspectToken(tok)
	if !ok {
		t.Fatalf("token not decoded")
	}
	if info.Role != library.RoleAdmin || info.Subject == "" || info.ExpiresAt.IsZero() {
		t.Fatalf("unexpected info: %+v", info)
	}

	if _, ok := library.InspectToken("opaque-token"); ok {
		t.Fatalf("opaque token decoded")
	}
}
