// Package backendtest is an in-memory implementation of the catalog backend
// HTTP contract. Tests serve it with httptest; cmd/mock_backend serves it for
// local development.
package backendtest

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"library-search/library"
)

const (
	RoleAdmin  = library.RoleAdmin
	RoleReader = "reader"
)

var (
	errUserExists         = errors.New("username already taken")
	errInvalidCredentials = errors.New("invalid username or password")
	errMissingFields      = errors.New("username and password are required")
)

type account struct {
	id        int64
	username  string
	hash      []byte
	campus    string
	role      string
	createdAt time.Time
}

// Options configures a Server.
type Options struct {
	// Secret signs HS256 access tokens. Defaults to a fixed test secret.
	Secret string
	// TokenTTL defaults to one hour.
	TokenTTL time.Duration
	// Catalog is the searchable record set. Defaults to SampleCatalog().
	Catalog []library.SearchResult
	// Now defaults to time.Now.
	Now func() time.Time
	// OmitRoleClaim issues tokens carrying only sub and exp, like backends
	// that keep roles server-side.
	OmitRoleClaim bool
}

// Server is the fake backend.
type Server struct {
	e      *echo.Echo
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	noRole bool

	mu          sync.Mutex
	catalog     []library.SearchResult
	accounts    map[string]*account
	byID        map[int64]*account
	nextUserID  int64
	history     map[int64][]library.HistoryEntry
	nextEntryID int64
	accessCount int64
	searchCount int64
	failures    map[string]int
	hits        map[string]int
}

// New builds a Server with its routes registered.
func New(opts Options) *Server {
	if opts.Secret == "" {
		opts.Secret = "backendtest-secret"
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = time.Hour
	}
	if opts.Catalog == nil {
		opts.Catalog = SampleCatalog()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Server{
		e:        echo.New(),
		secret:   []byte(opts.Secret),
		ttl:      opts.TokenTTL,
		now:      opts.Now,
		noRole:   opts.OmitRoleClaim,
		catalog:  opts.Catalog,
		accounts: make(map[string]*account),
		byID:     make(map[int64]*account),
		history:  make(map[int64][]library.HistoryEntry),
		failures: make(map[string]int),
		hits:     make(map[string]int),
	}
	s.e.HideBanner = true
	s.e.HidePort = true
	s.e.HTTPErrorHandler = errorHandler
	s.routes()
	return s
}

// Handler exposes the server as an http.Handler.
func (s *Server) Handler() http.Handler { return s.e }

// Echo returns the underlying router, for Start/Shutdown in cmd/mock_backend.
func (s *Server) Echo() *echo.Echo { return s.e }

func (s *Server) routes() {
	s.e.Use(s.track)

	api := s.e.Group("/api")
	api.POST("/register", s.register)
	api.POST("/login", s.login)

	authed := api.Group("", s.auth)
	authed.GET("/user/campus", s.getCampus)
	authed.POST("/user/campus", s.setCampus)
	authed.GET("/search", s.search)
	authed.GET("/search-history", s.listHistory)
	authed.DELETE("/search-history", s.clearHistory)
	authed.DELETE("/search-history/:id", s.deleteHistory)

	admin := authed.Group("/admin", s.requireAdmin)
	admin.GET("/statistics", s.statistics)
	admin.GET("/users", s.users)
}

// ---------------------------------------------------------------------------
// Test hooks
// ---------------------------------------------------------------------------

// Fail makes every request to route (e.g. "GET /api/user/campus") answer
// with status until Recover is called. Status 0 clears the failure.
func (s *Server) Fail(route string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.failures, route)
		return
	}
	s.failures[route] = status
}

// Recover clears every injected failure.
func (s *Server) Recover() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = make(map[string]int)
}

// Hits returns how many requests reached route.
func (s *Server) Hits(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[route]
}

// AddUser creates an account directly, bypassing /api/register. It is the
// only way to create an admin.
func (s *Server) AddUser(username, password, campus, role string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, err := s.createLocked(username, password, campus, role)
	if err != nil {
		return 0, err
	}
	return acc.id, nil
}

// HistoryOf returns a copy of the stored history for username.
func (s *Server) HistoryOf(username string) []library.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[username]
	if !ok {
		return nil
	}
	return append([]library.HistoryEntry(nil), s.history[acc.id]...)
}

// IssueToken signs a token for username, bypassing login. Unknown users get an error.
func (s *Server) IssueToken(username string) (string, error) {
	s.mu.Lock()
	acc, ok := s.accounts[username]
	s.mu.Unlock()
	if !ok {
		return "", errInvalidCredentials
	}
	return s.sign(acc)
}

// ---------------------------------------------------------------------------
// Middleware
// ---------------------------------------------------------------------------

func routeKey(c echo.Context) string {
	return c.Request().Method + " " + c.Path()
}

func (s *Server) track(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		key := routeKey(c)
		s.mu.Lock()
		s.hits[key]++
		s.accessCount++
		status := s.failures[key]
		s.mu.Unlock()
		if status != 0 {
			return echo.NewHTTPError(status, "injected failure")
		}
		return next(c)
	}
}

func (s *Server) auth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
		}

		claims := jwt.MapClaims{}
		tkn, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
			if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, jwt.ErrTokenSignatureInvalid
			}
			return s.secret, nil
		}, jwt.WithTimeFunc(s.now))
		if err != nil || !tkn.Valid {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
		}

		sub, _ := claims.GetSubject()
		id, err := strconv.ParseInt(sub, 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token subject")
		}
		s.mu.Lock()
		acc, ok := s.byID[id]
		s.mu.Unlock()
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "unknown user")
		}
		c.Set("account", acc)
		return next(c)
	}
}

func (s *Server) requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if current(c).role != RoleAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "admin only")
		}
		return next(c)
	}
}

func current(c echo.Context) *account {
	return c.Get("account").(*account)
}

// errorHandler renders every error as {"error": "<message>"}.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		msg = fmt.Sprintf("%v", he.Message)
	}
	_ = c.JSON(code, map[string]string{"error": msg})
}

// ---------------------------------------------------------------------------
// Accounts
// ---------------------------------------------------------------------------

func (s *Server) createLocked(username, password, campus, role string) (*account, error) {
	if username == "" || password == "" {
		return nil, errMissingFields
	}
	if _, exists := s.accounts[username]; exists {
		return nil, errUserExists
	}
	// MinCost keeps the fake fast; it never guards real credentials.
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}
	s.nextUserID++
	acc := &account{
		id:        s.nextUserID,
		username:  username,
		hash:      hash,
		campus:    campus,
		role:      role,
		createdAt: s.now().UTC(),
	}
	s.accounts[username] = acc
	s.byID[acc.id] = acc
	return acc, nil
}

func (s *Server) sign(acc *account) (string, error) {
	claims := jwt.MapClaims{
		"sub": strconv.FormatInt(acc.id, 10),
		"exp": s.now().Add(s.ttl).Unix(),
	}
	if !s.noRole {
		claims["role"] = acc.role
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

type credentials struct {
	Username string  `json:"username"`
	Password string  `json:"password"`
	Campus   *string `json:"campus"`
}

func userJSON(acc *account) library.User {
	return library.User{ID: acc.id, Username: acc.username, Campus: acc.campus}
}

func (s *Server) register(c echo.Context) error {
	var req credentials
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	campus := ""
	if req.Campus != nil {
		campus = *req.Campus
	}

	s.mu.Lock()
	acc, err := s.createLocked(req.Username, req.Password, campus, RoleReader)
	s.mu.Unlock()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	token, err := s.sign(acc)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, library.AuthResponse{AccessToken: token, User: userJSON(acc)})
}

func (s *Server) login(c echo.Context) error {
	var req credentials
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if req.Username == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, errMissingFields.Error())
	}

	s.mu.Lock()
	acc, ok := s.accounts[req.Username]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(acc.hash, []byte(req.Password)) != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, errInvalidCredentials.Error())
	}

	token, err := s.sign(acc)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, library.AuthResponse{AccessToken: token, User: userJSON(acc)})
}

func (s *Server) getCampus(c echo.Context) error {
	s.mu.Lock()
	campus := current(c).campus
	s.mu.Unlock()
	if campus == "" {
		return c.JSON(http.StatusOK, map[string]any{"campus": nil})
	}
	return c.JSON(http.StatusOK, map[string]any{"campus": campus})
}

func (s *Server) setCampus(c echo.Context) error {
	var req struct {
		Campus string `json:"campus"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if !library.IsCampus(req.Campus) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid campus")
	}
	s.mu.Lock()
	current(c).campus = req.Campus
	s.mu.Unlock()
	return c.JSON(http.StatusOK, map[string]string{"message": "campus updated", "campus": req.Campus})
}

// ---------------------------------------------------------------------------
// Search & history
// ---------------------------------------------------------------------------

func (s *Server) search(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("query"))
	location := strings.TrimSpace(c.QueryParam("location"))
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query is required")
	}
	acc := current(c)

	s.mu.Lock()
	s.searchCount++
	s.nextEntryID++
	s.history[acc.id] = append(s.history[acc.id], library.HistoryEntry{
		ID:         s.nextEntryID,
		Query:      query,
		Location:   location,
		SearchTime: library.Timestamp{Time: s.now().UTC()},
	})
	campus := acc.campus
	catalog := s.catalog
	s.mu.Unlock()

	return c.JSON(http.StatusOK, filterCatalog(catalog, query, location, campus))
}

// filterCatalog matches titles by case-insensitive substring, keeps only
// holdings at location (dropping records left with none), and lists holdings
// at the user's campus first.
func filterCatalog(catalog []library.SearchResult, query, location, campus string) []library.SearchResult {
	needle := strings.ToLower(query)
	out := []library.SearchResult{}
	for _, rec := range catalog {
		if !strings.Contains(strings.ToLower(rec.Title), needle) {
			continue
		}
		rec.Holdings = append([]library.Holding(nil), rec.Holdings...)

		if location != "" {
			if rec.Location != "" || len(rec.Holdings) == 0 {
				if !strings.Contains(rec.Location, location) {
					continue
				}
			} else {
				kept := rec.Holdings[:0]
				for _, h := range rec.Holdings {
					if strings.Contains(h.Location, location) {
						kept = append(kept, h)
					}
				}
				if len(kept) == 0 {
					continue
				}
				rec.Holdings = kept
			}
		}

		if campus != "" {
			sort.SliceStable(rec.Holdings, func(i, j int) bool {
				return strings.Contains(rec.Holdings[i].Location, campus) &&
					!strings.Contains(rec.Holdings[j].Location, campus)
			})
		}
		out = append(out, rec)
	}
	return out
}

func (s *Server) listHistory(c echo.Context) error {
	acc := current(c)
	s.mu.Lock()
	entries := append([]library.HistoryEntry{}, s.history[acc.id]...)
	s.mu.Unlock()

	// Newest first, as the real backend orders by search_time DESC.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return c.JSON(http.StatusOK, map[string]any{"history": entries})
}

func (s *Server) deleteHistory(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	acc := current(c)

	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.history[acc.id]
	for i, e := range entries {
		if e.ID == id {
			s.history[acc.id] = append(entries[:i:i], entries[i+1:]...)
			return c.JSON(http.StatusOK, map[string]string{"message": "history entry deleted"})
		}
	}
	return echo.NewHTTPError(http.StatusNotFound, "history entry not found")
}

func (s *Server) clearHistory(c echo.Context) error {
	acc := current(c)
	s.mu.Lock()
	delete(s.history, acc.id)
	s.mu.Unlock()
	return c.JSON(http.StatusOK, map[string]string{"message": "history cleared"})
}

// ---------------------------------------------------------------------------
// Admin
// ---------------------------------------------------------------------------

func (s *Server) statistics(c echo.Context) error {
	s.mu.Lock()
	stats := library.Statistics{
		UserCount:   int64(len(s.accounts)),
		AccessCount: s.accessCount,
		SearchCount: s.searchCount,
	}
	s.mu.Unlock()
	return c.JSON(http.StatusOK, map[string]any{"statistics": stats})
}

func (s *Server) users(c echo.Context) error {
	s.mu.Lock()
	users := make([]library.AccountRecord, 0, len(s.accounts))
	for _, acc := range s.accounts {
		users = append(users, library.AccountRecord{
			ID:        acc.id,
			Username:  acc.username,
			Campus:    acc.campus,
			CreatedAt: library.Timestamp{Time: acc.createdAt},
		})
	}
	s.mu.Unlock()

	sort.Slice(users, func(i, j int) bool { return users[i].ID > users[j].ID })
	return c.JSON(http.StatusOK, map[string]any{"users": users})
}
