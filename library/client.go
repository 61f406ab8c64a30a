package library

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"library-search/pkg/logger"
)

// APIError is a non-2xx response from the backend. Message carries the
// server's {"error": ...} text when it sent one.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("backend returned %d %s", e.Status, http.StatusText(e.Status))
}

// StatusOf returns the HTTP status carried by err, or 0 when err is not an
// *APIError.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// AuthResponse is the success body of register and login.
type AuthResponse struct {
	AccessToken string `json:"access_token"`
	User        User   `json:"user"`
}

// RegisterRequest is the register payload. An empty Campus is omitted.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Campus   string `json:"campus,omitempty"`
}

// Backend is the remote contract the controller depends on. Every method
// taking a token sends it as a bearer credential.
type Backend interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, username, password string) (*AuthResponse, error)
	Campus(ctx context.Context, token string) (string, error)
	SetCampus(ctx context.Context, token, campus string) error
	Search(ctx context.Context, token, query, location string) ([]SearchResult, error)
	History(ctx context.Context, token string) ([]HistoryEntry, error)
	DeleteHistory(ctx context.Context, token string, id int64) error
	ClearHistory(ctx context.Context, token string) error
	Statistics(ctx context.Context, token string) (*Statistics, error)
	Users(ctx context.Context, token string) ([]AccountRecord, error)
}

// Client talks to the catalog backend over HTTP. No client-side timeout is
// applied; callers bound requests through ctx.
type Client struct {
	baseURL *url.URL
	http    *http.Client
}

// NewClient builds a Client for baseURL. A nil httpClient selects a plain
// &http.Client{}.
func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{baseURL: u, http: httpClient}, nil
}

var _ Backend = (*Client)(nil)

// ------------------ Auth ------------------

func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/register", nil, "", req, &out); err != nil {
		return nil, withDefaultMessage(err, "registration failed")
	}
	return &out, nil
}

func (c *Client) Login(ctx context.Context, username, password string) (*AuthResponse, error) {
	body := map[string]string{"username": username, "password": password}
	var out AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/login", nil, "", body, &out); err != nil {
		return nil, withDefaultMessage(err, "login failed")
	}
	if out.AccessToken == "" {
		return nil, errors.New("login response carried no access token")
	}
	return &out, nil
}

// ------------------ Profile ------------------

func (c *Client) Campus(ctx context.Context, token string) (string, error) {
	var out struct {
		Campus *string `json:"campus"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/user/campus", nil, token, nil, &out); err != nil {
		return "", err
	}
	if out.Campus == nil {
		return "", nil
	}
	return *out.Campus, nil
}

func (c *Client) SetCampus(ctx context.Context, token, campus string) error {
	body := map[string]string{"campus": campus}
	if err := c.do(ctx, http.MethodPost, "/api/user/campus", nil, token, body, nil); err != nil {
		return withDefaultMessage(err, "failed to set campus")
	}
	return nil
}

// ------------------ Search ------------------

func (c *Client) Search(ctx context.Context, token, query, location string) ([]SearchResult, error) {
	q := url.Values{}
	q.Set("query", query)
	if location != AllLocations {
		q.Set("location", location)
	}
	var out []SearchResult
	if err := c.do(ctx, http.MethodGet, "/api/search", q, token, nil, &out); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("search failed: %w", err)
		}
		return nil, err
	}
	if out == nil {
		out = []SearchResult{}
	}
	return out, nil
}

// ------------------ History ------------------

func (c *Client) History(ctx context.Context, token string) ([]HistoryEntry, error) {
	var out struct {
		History []HistoryEntry `json:"history"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/search-history", nil, token, nil, &out); err != nil {
		return nil, err
	}
	return out.History, nil
}

func (c *Client) DeleteHistory(ctx context.Context, token string, id int64) error {
	path := "/api/search-history/" + strconv.FormatInt(id, 10)
	return c.do(ctx, http.MethodDelete, path, nil, token, nil, nil)
}

func (c *Client) ClearHistory(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodDelete, "/api/search-history", nil, token, nil, nil)
}

// ------------------ Admin ------------------

func (c *Client) Statistics(ctx context.Context, token string) (*Statistics, error) {
	var out struct {
		Statistics Statistics `json:"statistics"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/admin/statistics", nil, token, nil, &out); err != nil {
		return nil, err
	}
	return &out.Statistics, nil
}

func (c *Client) Users(ctx context.Context, token string) ([]AccountRecord, error) {
	var out struct {
		Users []AccountRecord `json:"users"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/admin/users", nil, token, nil, &out); err != nil {
		return nil, err
	}
	return out.Users, nil
}

// ------------------ Transport ------------------

// do sends one request. in (if non-nil) is JSON-encoded as the body; a 2xx
// body is decoded into out (if non-nil). Non-2xx responses become *APIError.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, token string, in, out any) error {
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", path, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	log := logger.Get()
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		log.Debug().Err(err).Str("request_id", reqID).Str("method", method).Str("path", path).Msg("request failed")
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	log.Debug().
		Str("request_id", reqID).
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var envelope struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &envelope) == nil {
		apiErr.Message = envelope.Error
		if apiErr.Message == "" {
			apiErr.Message = envelope.Message
		}
	}
	return apiErr
}

// withDefaultMessage fills in msg when the server gave no error text.
func withDefaultMessage(err error, msg string) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message == "" {
		return &APIError{Status: apiErr.Status, Message: msg}
	}
	return err
}
