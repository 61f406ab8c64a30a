package library

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"library-search/pkg/logger"
)

var (
	// ErrNotLoggedIn is returned by operations that need a session when none exists.
	ErrNotLoggedIn = errors.New("please log in first")
	// ErrInvalidSession means the stored token could not be validated and the
	// session was reset.
	ErrInvalidSession = errors.New("session is no longer valid, please log in again")
	// ErrNotAuthorized is returned when the account lacks admin rights.
	ErrNotAuthorized = errors.New("not authorized for the admin dashboard")
	// ErrInvalidCampus is returned for a campus outside Campuses.
	ErrInvalidCampus = errors.New("unknown campus")
)

// TokenStore persists the session token between runs.
type TokenStore interface {
	LoadToken() (string, bool, error)
	SaveToken(token string) error
	ClearToken() error
}

// Phase is the session state machine position. Authenticating covers any
// credential exchange or token revalidation in flight.
type Phase int

const (
	Anonymous Phase = iota
	Authenticating
	Authenticated
)

func (p Phase) String() string {
	switch p {
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}

// AuthMode selects which operation the authentication panel submits to.
type AuthMode int

const (
	ModeLogin AuthMode = iota
	ModeRegister
)

// State is a snapshot of everything the LibraryManager owns.
type State struct {
	Phase Phase
	Token string
	// User is non-nil only while Phase is Authenticated.
	User *User

	Query    string
	Location string
	Loading  bool
	Err      error
	Results  []SearchResult
	// Searched is set once any search has completed, successfully or not.
	Searched bool

	History []HistoryEntry

	ShowAuth    bool
	AuthMode    AuthMode
	ShowHistory bool
	ShowAdmin   bool
}

// LibraryManager is the root controller. It owns session, search and
// history state and performs every backend call; panels only read snapshots
// and invoke its operations.
type LibraryManager struct {
	api   Backend
	store TokenStore

	mu    sync.Mutex
	state State
}

// NewLibraryManager wires a controller to its backend and token store.
func NewLibraryManager(api Backend, store TokenStore) *LibraryManager {
	return &LibraryManager{api: api, store: store}
}

// Snapshot returns a copy of the current state.
func (lm *LibraryManager) Snapshot() State {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	s := lm.state
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	s.Results = append([]SearchResult(nil), s.Results...)
	s.History = append([]HistoryEntry(nil), s.History...)
	return s
}

// Token returns the current bearer token, empty when anonymous.
func (lm *LibraryManager) Token() string {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return lm.state.Token
}

func (lm *LibraryManager) update(fn func(s *State)) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	fn(&lm.state)
}

// ------------------ Session ------------------

// Start restores a persisted token and revalidates it against the backend.
// A token that fails validation is discarded.
func (lm *LibraryManager) Start(ctx context.Context) error {
	token, ok, err := lm.store.LoadToken()
	if err != nil {
		return fmt.Errorf("load token: %w", err)
	}
	if !ok || token == "" {
		return nil
	}
	lm.update(func(s *State) {
		s.Token = token
		s.Phase = Authenticating
	})
	return lm.refresh(ctx)
}

// refresh runs the token-change side effects: profile then history.
func (lm *LibraryManager) refresh(ctx context.Context) error {
	if err := lm.FetchProfile(ctx); err != nil {
		return err
	}
	_ = lm.FetchHistory(ctx)
	return nil
}

// Login exchanges credentials for a token. The phase is Authenticating while
// the request is in flight; on failure the session is left as it was.
func (lm *LibraryManager) Login(ctx context.Context, username, password string) error {
	var prev Phase
	lm.update(func(s *State) {
		prev = s.Phase
		s.Phase = Authenticating
	})

	resp, err := lm.api.Login(ctx, username, password)
	if err != nil {
		lm.update(func(s *State) {
			if s.Phase == Authenticating {
				s.Phase = prev
			}
		})
		return err
	}

	if err := lm.store.SaveToken(resp.AccessToken); err != nil {
		log := logger.Get()
		log.Warn().Err(err).Msg("persist token")
	}

	user := resp.User
	lm.update(func(s *State) {
		s.Token = resp.AccessToken
		s.User = &user
		s.Phase = Authenticated
		s.ShowAuth = false
	})
	log := logger.Get()
	log.Info().Str("username", username).Msg("logged in")

	return lm.refresh(ctx)
}

// Register creates an account and then logs in with the same credentials.
// A blank campus is sent as absent.
func (lm *LibraryManager) Register(ctx context.Context, username, password, campus string) error {
	req := RegisterRequest{
		Username: username,
		Password: password,
		Campus:   strings.TrimSpace(campus),
	}
	if _, err := lm.api.Register(ctx, req); err != nil {
		return err
	}
	return lm.Login(ctx, username, password)
}

// Logout forgets the session in memory and on disk and closes the admin view.
func (lm *LibraryManager) Logout() error {
	lm.update(func(s *State) {
		resetSession(s)
		s.ShowAdmin = false
	})
	if err := lm.store.ClearToken(); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}

func resetSession(s *State) {
	s.Token = ""
	s.User = nil
	s.Phase = Anonymous
	s.History = nil
	s.ShowHistory = false
}

// FetchProfile revalidates the session by reading the user's campus. Any
// failure resets the session: an unreadable profile is treated the same as an
// expired token.
func (lm *LibraryManager) FetchProfile(ctx context.Context) error {
	token := lm.Token()
	if token == "" {
		return nil
	}

	campus, err := lm.api.Campus(ctx, token)
	if err != nil {
		stale := false
		lm.update(func(s *State) {
			if s.Token != token {
				stale = true
				return
			}
			resetSession(s)
		})
		// A response for a token that was since replaced says nothing about
		// the current session.
		if stale {
			return nil
		}
		log := logger.Get()
		log.Info().Err(err).Msg("profile fetch failed, resetting session")
		if cerr := lm.store.ClearToken(); cerr != nil {
			log := logger.Get()
			log.Warn().Err(cerr).Msg("clear token")
		}
		return fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}

	lm.update(func(s *State) {
		if s.Token != token {
			return
		}
		u := User{}
		if s.User != nil {
			u = *s.User
		}
		u.Campus = campus
		s.User = &u
		s.Phase = Authenticated
	})
	return nil
}

// SetCampus stores the campus preference. The cached profile changes only
// after the backend confirms.
func (lm *LibraryManager) SetCampus(ctx context.Context, campus string) error {
	token := lm.Token()
	if token == "" {
		return ErrNotLoggedIn
	}
	if !IsCampus(campus) {
		return fmt.Errorf("%w: %q", ErrInvalidCampus, campus)
	}
	if err := lm.api.SetCampus(ctx, token, campus); err != nil {
		return err
	}
	lm.update(func(s *State) {
		if s.User != nil && s.Token == token {
			s.User.Campus = campus
		}
	})
	return nil
}

// ------------------ Search ------------------

// Search runs a catalog query. A blank query is ignored. Without a session
// the login panel is opened and ErrNotLoggedIn is returned without any
// request. The returned error is also recorded in State.Err.
func (lm *LibraryManager) Search(ctx context.Context, query, location string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	token := lm.Token()
	if token == "" {
		lm.update(func(s *State) {
			s.Err = ErrNotLoggedIn
			s.ShowAuth = true
			s.AuthMode = ModeLogin
		})
		return ErrNotLoggedIn
	}

	lm.update(func(s *State) {
		s.Loading = true
		s.Err = nil
		s.Query = query
		s.Location = location
	})
	defer lm.update(func(s *State) { s.Loading = false })

	results, err := lm.api.Search(ctx, token, query, location)
	if err != nil {
		lm.update(func(s *State) {
			s.Results = nil
			s.Err = err
			s.Searched = true
		})
		return err
	}

	lm.update(func(s *State) {
		s.Results = results
		s.Searched = true
	})
	_ = lm.FetchHistory(ctx)
	return nil
}

// ------------------ History ------------------

// FetchHistory replaces the cached history with the server's list, keeping
// server order. Failures are logged and leave the cache untouched.
func (lm *LibraryManager) FetchHistory(ctx context.Context) error {
	token := lm.Token()
	if token == "" {
		return nil
	}
	entries, err := lm.api.History(ctx, token)
	if err != nil {
		log := logger.Get()
		log.Warn().Err(err).Msg("fetch search history")
		return err
	}
	lm.update(func(s *State) {
		if s.Token == token {
			s.History = entries
		}
	})
	return nil
}

// DeleteHistory removes one entry on the server, then from the cache.
func (lm *LibraryManager) DeleteHistory(ctx context.Context, id int64) error {
	token := lm.Token()
	if token == "" {
		return ErrNotLoggedIn
	}
	if err := lm.api.DeleteHistory(ctx, token, id); err != nil {
		log := logger.Get()
		log.Warn().Err(err).Int64("id", id).Msg("delete history entry")
		return err
	}
	lm.update(func(s *State) {
		kept := s.History[:0:0]
		for _, e := range s.History {
			if e.ID != id {
				kept = append(kept, e)
			}
		}
		s.History = kept
	})
	return nil
}

// ClearHistory removes every entry on the server, then empties the cache.
func (lm *LibraryManager) ClearHistory(ctx context.Context) error {
	token := lm.Token()
	if token == "" {
		return ErrNotLoggedIn
	}
	if err := lm.api.ClearHistory(ctx, token); err != nil {
		log := logger.Get()
		log.Warn().Err(err).Msg("clear history")
		return err
	}
	lm.update(func(s *State) { s.History = []HistoryEntry{} })
	return nil
}

// ------------------ Panels ------------------

// OpenAuth shows the authentication panel in the given mode.
func (lm *LibraryManager) OpenAuth(mode AuthMode) {
	lm.update(func(s *State) {
		s.ShowAuth = true
		s.AuthMode = mode
	})
}

// CloseAuth hides the authentication panel.
func (lm *LibraryManager) CloseAuth() { lm.update(func(s *State) { s.ShowAuth = false }) }

// SetHistoryVisible opens or closes the history panel.
func (lm *LibraryManager) SetHistoryVisible(v bool) {
	lm.update(func(s *State) { s.ShowHistory = v && s.Token != "" })
}

// RerunHistory closes the history panel and searches again with entry's
// query and location.
func (lm *LibraryManager) RerunHistory(ctx context.Context, entry HistoryEntry) error {
	lm.SetHistoryVisible(false)
	return lm.Search(ctx, entry.Query, entry.Location)
}

// OpenAdmin loads the admin dashboard for the current session. The returned
// dashboard carries its own error state; a non-admin account gets
// ErrNotAuthorized there rather than a global failure.
func (lm *LibraryManager) OpenAdmin(ctx context.Context) *AdminDashboard {
	lm.update(func(s *State) { s.ShowAdmin = true })
	return LoadAdminDashboard(ctx, lm.api, lm.Token())
}

// CloseAdmin hides the admin view.
func (lm *LibraryManager) CloseAdmin() { lm.update(func(s *State) { s.ShowAdmin = false }) }
