package ui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/go-cmp/cmp"

	"library-search/library"
)

type call struct {
	Op       string
	Query    string
	Location string
	ID       int64
	Secret   string
}

type stubController struct {
	calls []call
	err   error
}

func (s *stubController) Search(_ context.Context, query, location string) error {
	s.calls = append(s.calls, call{Op: "search", Query: query, Location: location})
	return s.err
}

func (s *stubController) DeleteHistory(_ context.Context, id int64) error {
	s.calls = append(s.calls, call{Op: "delete", ID: id})
	return s.err
}

func (s *stubController) ClearHistory(context.Context) error {
	s.calls = append(s.calls, call{Op: "clear"})
	return s.err
}

func (s *stubController) Login(_ context.Context, username, password string) error {
	s.calls = append(s.calls, call{Op: "login", Query: username, Secret: password})
	return s.err
}

func (s *stubController) Register(_ context.Context, username, password, campus string) error {
	s.calls = append(s.calls, call{Op: "register", Query: username, Location: campus, Secret: password})
	return s.err
}

func (s *stubController) RerunHistory(_ context.Context, e library.HistoryEntry) error {
	s.calls = append(s.calls, call{Op: "rerun", Query: e.Query, Location: e.Location, ID: e.ID})
	return s.err
}

func TestRenderResultsOneCardPerRecord(t *testing.T) {
	s := library.State{
		Query:    "Database Systems",
		Location: "鼓楼",
		Searched: true,
		Results: []library.SearchResult{
			{Title: "A", Author: "x", Holdings: []library.Holding{{CallNumber: "1", Location: "鼓楼", Status: "可借"}}},
			{Title: "B", Author: "y"},
		},
	}
	var buf bytes.Buffer
	RenderResults(&buf, s)
	out := buf.String()

	if n := strings.Count(out, "Author:"); n != 2 {
		t.Fatalf("rendered %d cards, want 2:\n%s", n, out)
	}
	if !strings.Contains(out, "Found 2 results for 'Database Systems' at 鼓楼") {
		t.Fatalf("missing summary line:\n%s", out)
	}
	if !strings.Contains(out, library.UnknownField) {
		t.Fatalf("record without holdings should show a placeholder row:\n%s", out)
	}
}

func TestRenderResultsStates(t *testing.T) {
	cases := []struct {
		name  string
		state library.State
		want  string
	}{
		{"idle", library.State{}, "请输入书名进行搜索"},
		{"loading", library.State{Loading: true}, "searching..."},
		{"error", library.State{Err: errors.New("search failed: boom")}, "Error: search failed: boom"},
		{"empty", library.State{Searched: true, Query: "zzz"}, "No books found matching 'zzz'."},
	}
	for _, tc := range cases {
		var buf bytes.Buffer
		RenderResults(&buf, tc.state)
		if !strings.Contains(buf.String(), tc.want) {
			t.Errorf("%s: output %q lacks %q", tc.name, buf.String(), tc.want)
		}
	}
}

func TestCardHoldingsNeverEmpty(t *testing.T) {
	lines := CardHoldings(library.SearchResult{Title: "bare", Holdings: []library.Holding{}})
	if len(lines) != 1 || lines[0].Location != library.UnknownField {
		t.Fatalf("unexpected placeholder: %+v", lines)
	}
	if lines[0].Availability != library.AvailabilityUnknown {
		t.Fatalf("placeholder availability = %v", lines[0].Availability)
	}

	lines = CardHoldings(library.SearchResult{Status: "已借出"})
	if len(lines) != 1 || lines[0].Availability != library.AvailabilityLoaned {
		t.Fatalf("flat record: %+v", lines)
	}
}

func TestStatusStyleColours(t *testing.T) {
	cases := map[string]lipgloss.TerminalColor{
		"在架可借": lipgloss.Color("2"),
		"已借出":  lipgloss.Color("1"),
		"未知":   lipgloss.Color("8"),
	}
	for status, want := range cases {
		if got := StatusStyle(status).GetForeground(); got != want {
			t.Errorf("StatusStyle(%q) foreground = %v, want %v", status, got, want)
		}
	}
}

func TestSearchPanelLocationAndSubmit(t *testing.T) {
	ctrl := &stubController{}
	p := NewSearchPanel(ctrl, "南京")
	if p.Location != library.AllLocations {
		t.Fatalf("bad default should fall back to all, got %q", p.Location)
	}

	if err := p.SetLocation("火星"); !errors.Is(err, library.ErrInvalidCampus) {
		t.Fatalf("err = %v, want ErrInvalidCampus", err)
	}
	if err := p.SetLocation("浦口"); err != nil {
		t.Fatalf("set location: %v", err)
	}
	p.Text = "Python"
	if err := p.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := p.SetLocation("全部"); err != nil {
		t.Fatalf("set location: %v", err)
	}
	if err := p.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}

	want := []call{
		{Op: "search", Query: "Python", Location: "浦口"},
		{Op: "search", Query: "Python", Location: library.AllLocations},
	}
	if diff := cmp.Diff(want, ctrl.calls); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestSearchPanelHistoryActions(t *testing.T) {
	ctrl := &stubController{}
	p := NewSearchPanel(ctrl, "")
	ctx := context.Background()

	if err := p.DeleteEntry(ctx, 42); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := p.ClearEntries(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	want := []call{{Op: "delete", ID: 42}, {Op: "clear"}}
	if diff := cmp.Diff(want, ctrl.calls); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}

	history := []library.HistoryEntry{{ID: 3, Query: "Python", Location: "仙林"}}
	var buf bytes.Buffer
	p.Render(&buf, history)
	if !strings.Contains(buf.String(), "collapsed") {
		t.Fatalf("history should start collapsed:\n%s", buf.String())
	}
	p.ToggleHistory()
	buf.Reset()
	p.Render(&buf, history)
	if !strings.Contains(buf.String(), "#3") || !strings.Contains(buf.String(), "@仙林") {
		t.Fatalf("expanded history missing entry:\n%s", buf.String())
	}
}

func TestAuthPanelValidation(t *testing.T) {
	ctrl := &stubController{}
	p := &AuthPanel{Mode: library.ModeLogin}
	ctx := context.Background()

	err := p.Submit(ctx, ctrl)
	if err == nil || !strings.Contains(err.Error(), "username is required") || !strings.Contains(err.Error(), "password is required") {
		t.Fatalf("err = %v", err)
	}
	if len(ctrl.calls) != 0 {
		t.Fatalf("invalid form reached the controller")
	}

	p.Username, p.Password = " alice ", "pw1"
	p.ToggleMode()
	p.Campus = "南京"
	if err := p.Submit(ctx, ctrl); err == nil || !strings.Contains(err.Error(), "campus must be one of") {
		t.Fatalf("err = %v", err)
	}

	p.Campus = ""
	if err := p.Submit(ctx, ctrl); err != nil {
		t.Fatalf("register without campus: %v", err)
	}
	p.ToggleMode()
	if p.Username != " alice " || p.Password != "pw1" {
		t.Fatalf("mode switch dropped the draft")
	}
	if p.ShowsCampus() {
		t.Fatalf("login form shows campus")
	}
	if err := p.Submit(ctx, ctrl); err != nil {
		t.Fatalf("login: %v", err)
	}

	want := []call{
		{Op: "register", Query: "alice", Secret: "pw1"},
		{Op: "login", Query: "alice", Secret: "pw1"},
	}
	if diff := cmp.Diff(want, ctrl.calls); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestAuthPanelSubmitsPasswordVerbatim(t *testing.T) {
	ctrl := &stubController{}
	ctx := context.Background()
	p := &AuthPanel{Mode: library.ModeLogin, Username: "alice", Password: " pw "}
	if err := p.Submit(ctx, ctrl); err != nil {
		t.Fatalf("login: %v", err)
	}
	p.ToggleMode()
	if err := p.Submit(ctx, ctrl); err != nil {
		t.Fatalf("register: %v", err)
	}

	want := []call{
		{Op: "login", Query: "alice", Secret: " pw "},
		{Op: "register", Query: "alice", Secret: " pw "},
	}
	if diff := cmp.Diff(want, ctrl.calls); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestAuthPanelRenderHidesPassword(t *testing.T) {
	p := &AuthPanel{Mode: library.ModeRegister, Username: "bob", Password: "secret"}
	var buf bytes.Buffer
	p.Render(&buf)
	if strings.Contains(buf.String(), "secret") {
		t.Fatalf("password rendered in clear:\n%s", buf.String())
	}
	if !strings.Contains(buf.String(), "******") || !strings.Contains(buf.String(), "Campus:") {
		t.Fatalf("unexpected register form:\n%s", buf.String())
	}
}

func TestRerunRange(t *testing.T) {
	ctrl := &stubController{}
	entries := []library.HistoryEntry{
		{ID: 9, Query: "newest", Location: "鼓楼"},
		{ID: 4, Query: "older"},
	}
	ctx := context.Background()

	for _, n := range []int{0, 3} {
		if err := Rerun(ctx, ctrl, entries, n); err == nil {
			t.Fatalf("Rerun(%d) should fail", n)
		}
	}
	if err := Rerun(ctx, ctrl, entries, 1); err != nil {
		t.Fatalf("rerun: %v", err)
	}
	want := []call{{Op: "rerun", Query: "newest", Location: "鼓楼", ID: 9}}
	if diff := cmp.Diff(want, ctrl.calls); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}

	var buf bytes.Buffer
	RenderHistory(&buf, nil)
	if !strings.Contains(buf.String(), "no search history yet") {
		t.Fatalf("empty history:\n%s", buf.String())
	}
}

func TestAdminPanelTabs(t *testing.T) {
	d := &library.AdminDashboard{
		Statistics: &library.Statistics{UserCount: 3, AccessCount: 40, SearchCount: 12},
		Users: []library.AccountRecord{
			{ID: 2, Username: "bob", Campus: "仙林"},
			{ID: 1, Username: "alice"},
		},
	}
	p := &AdminPanel{Dashboard: d}

	var buf bytes.Buffer
	p.Render(&buf)
	if !strings.Contains(buf.String(), "Searches") || strings.Contains(buf.String(), "bob") {
		t.Fatalf("statistics tab:\n%s", buf.String())
	}

	p.SetTab(TabUsers)
	buf.Reset()
	p.Render(&buf)
	out := buf.String()
	if !strings.Contains(out, "bob") || !strings.Contains(out, "alice") || strings.Contains(out, "Searches") {
		t.Fatalf("users tab:\n%s", out)
	}

	p.Dashboard = nil
	buf.Reset()
	p.Render(&buf)
	if !strings.Contains(buf.String(), "loading...") {
		t.Fatalf("unloaded dashboard:\n%s", buf.String())
	}

	p.Dashboard = &library.AdminDashboard{Err: library.ErrNotAuthorized}
	buf.Reset()
	p.Render(&buf)
	if !strings.Contains(buf.String(), library.ErrNotAuthorized.Error()) {
		t.Fatalf("error state:\n%s", buf.String())
	}
}

func TestTruncateString(t *testing.T) {
	if got := truncateString("短名字", 20); got != "短名字" {
		t.Fatalf("got %q", got)
	}
	if got := truncateString("abcdefghij", 6); got != "abc..." {
		t.Fatalf("got %q", got)
	}
}
