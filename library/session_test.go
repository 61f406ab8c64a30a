package library_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"library-search/library"
)

var errUnavailable = errors.New("backend unavailable")

// scriptedBackend answers from per-test functions; anything unset fails.
type scriptedBackend struct {
	login  func(username, password string) (*library.AuthResponse, error)
	campus func(token string) (string, error)
}

func (b *scriptedBackend) Register(context.Context, library.RegisterRequest) (*library.AuthResponse, error) {
	return nil, errUnavailable
}

func (b *scriptedBackend) Login(_ context.Context, username, password string) (*library.AuthResponse, error) {
	if b.login == nil {
		return nil, errUnavailable
	}
	return b.login(username, password)
}

func (b *scriptedBackend) Campus(_ context.Context, token string) (string, error) {
	if b.campus == nil {
		return "", errUnavailable
	}
	return b.campus(token)
}

func (b *scriptedBackend) SetCampus(context.Context, string, string) error { return errUnavailable }

func (b *scriptedBackend) Search(context.Context, string, string, string) ([]library.SearchResult, error) {
	return nil, errUnavailable
}

func (b *scriptedBackend) History(context.Context, string) ([]library.HistoryEntry, error) {
	return []library.HistoryEntry{}, nil
}

func (b *scriptedBackend) DeleteHistory(context.Context, string, int64) error { return errUnavailable }
func (b *scriptedBackend) ClearHistory(context.Context, string) error        { return errUnavailable }

func (b *scriptedBackend) Statistics(context.Context, string) (*library.Statistics, error) {
	return nil, errUnavailable
}

func (b *scriptedBackend) Users(context.Context, string) ([]library.AccountRecord, error) {
	return nil, errUnavailable
}

func openStore(t *testing.T) *library.CredentialStore {
	t.Helper()
	store, err := library.OpenCredentialStore(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestLoginIsAuthenticatingWhileInFlight(t *testing.T) {
	b := &scriptedBackend{}
	mgr := library.NewLibraryManager(b, openStore(t))
	ctx := context.Background()

	var seen []library.Phase
	b.login = func(username, _ string) (*library.AuthResponse, error) {
		seen = append(seen, mgr.Snapshot().Phase)
		if username == "nobody" {
			return nil, &library.APIError{Status: 401, Message: "invalid username or password"}
		}
		return &library.AuthResponse{AccessToken: "tok", User: library.User{Username: username}}, nil
	}
	b.campus = func(string) (string, error) { return "", nil }

	if err := mgr.Login(ctx, "nobody", "x"); err == nil {
		t.Fatalf("expected login error")
	}
	if p := mgr.Snapshot().Phase; p != library.Anonymous {
		t.Fatalf("phase after failed login = %v, want anonymous", p)
	}

	if err := mgr.Login(ctx, "alice", "pw1"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if p := mgr.Snapshot().Phase; p != library.Authenticated {
		t.Fatalf("phase after login = %v, want authenticated", p)
	}

	if err := mgr.Login(ctx, "nobody", "x"); err == nil {
		t.Fatalf("expected login error")
	}
	if p := mgr.Snapshot().Phase; p != library.Authenticated {
		t.Fatalf("failed re-login changed phase to %v", p)
	}

	for i, p := range seen {
		if p != library.Authenticating {
			t.Fatalf("login %d ran in phase %v, want authenticating", i, p)
		}
	}
}

func TestStaleProfileFailureKeepsNewerToken(t *testing.T) {
	b := &scriptedBackend{}
	store := openStore(t)
	mgr := library.NewLibraryManager(b, store)
	ctx := context.Background()

	if err := store.SaveToken("old"); err != nil {
		t.Fatalf("save: %v", err)
	}
	b.login = func(username, _ string) (*library.AuthResponse, error) {
		return &library.AuthResponse{AccessToken: "new", User: library.User{Username: username}}, nil
	}
	// The old token's revalidation fails, but only after a fresh login has
	// replaced it.
	b.campus = func(token string) (string, error) {
		if token == "old" {
			if err := mgr.Login(ctx, "alice", "pw1"); err != nil {
				t.Errorf("login during revalidation: %v", err)
			}
			return "", &library.APIError{Status: 401, Message: "invalid token"}
		}
		return "仙林", nil
	}

	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	s := mgr.Snapshot()
	if s.Token != "new" || s.Phase != library.Authenticated || s.User == nil || s.User.Campus != "仙林" {
		t.Fatalf("newer session lost: %+v", s)
	}
	tok, ok, err := store.LoadToken()
	if err != nil || !ok || tok != "new" {
		t.Fatalf("persisted token = %q (ok=%v, err=%v), want new", tok, ok, err)
	}
}
