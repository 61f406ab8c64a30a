package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"library-search/internal/ui"
	"library-search/library"
)

func shellCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive session (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runShell(cmd.Context(), cmd.InOrStdin())
		},
	}
}

const shellHelp = `Available commands:
  Session: login, register, logout, whoami, campus
  Search:  search, location, results
  History: history, toggle history, rerun, pick, delete history, clear history
  Admin:   admin
  System:  help, exit`

func (a *app) runShell(ctx context.Context, in io.Reader) error {
	p := newPrompter(in, a.out)

	fmt.Fprintln(a.out, "Library catalog search")
	ui.RenderSession(a.out, a.mgr.Snapshot())
	fmt.Fprintln(a.out, shellHelp)

	for {
		if ctx.Err() != nil {
			return nil
		}
		cmd, ok := p.line("\n> ")
		if !ok {
			return nil
		}

		switch cmd {
		case "":
			continue
		case "help":
			fmt.Fprintln(a.out, shellHelp)
		case "login":
			a.mgr.OpenAuth(library.ModeLogin)
			a.handleAuth(ctx, p)
		case "register":
			a.mgr.OpenAuth(library.ModeRegister)
			a.handleAuth(ctx, p)
		case "logout":
			a.handleLogout()
		case "whoami":
			ui.RenderSession(a.out, a.mgr.Snapshot())
		case "campus":
			a.handleCampus(ctx, p)
		case "search":
			a.handleSearch(ctx, p)
		case "location":
			a.handleLocation(p)
		case "results":
			ui.RenderResults(a.out, a.mgr.Snapshot())
		case "history":
			a.handleHistory()
		case "toggle history":
			a.search.ToggleHistory()
			a.search.Render(a.out, a.mgr.Snapshot().History)
		case "rerun":
			a.handleRerun(ctx, p)
		case "pick":
			a.handlePick(ctx)
		case "delete history":
			a.handleDeleteHistory(ctx, p)
		case "clear history":
			a.handleClearHistory(ctx, p)
		case "admin":
			a.handleAdmin(ctx, p)
		case "exit", "quit":
			fmt.Fprintln(a.out, "Goodbye!")
			return nil
		default:
			fmt.Fprintln(a.out, "Unknown command. Type 'help' to list commands.")
		}
	}
}

// handleAuth drives the authentication panel until it closes: a successful
// submit closes it, "switch" toggles mode, an empty username cancels.
func (a *app) handleAuth(ctx context.Context, p *prompter) {
	panel := &ui.AuthPanel{Mode: a.mgr.Snapshot().AuthMode}

	for a.mgr.Snapshot().ShowAuth {
		panel.Render(a.out)

		username, ok := p.line("Username (or 'switch', empty to cancel): ")
		if !ok || username == "" {
			a.mgr.CloseAuth()
			return
		}
		if username == "switch" {
			panel.ToggleMode()
			continue
		}
		panel.Username = username

		password, err := p.password("Password: ")
		if err != nil {
			fmt.Fprintf(a.out, "Error: %v\n", err)
			continue
		}
		panel.Password = password

		if panel.ShowsCampus() {
			campus, _ := p.line(fmt.Sprintf("Campus (optional, %s): ", strings.Join(library.Campuses, "/")))
			panel.Campus = campus
		}

		if err := panel.Submit(ctx, a.mgr); err != nil {
			fmt.Fprintf(a.out, "Error: %v\n", err)
			if errors.Is(err, library.ErrInvalidSession) {
				return
			}
			continue
		}
	}
	ui.RenderSession(a.out, a.mgr.Snapshot())
}

func (a *app) handleLogout() {
	if err := a.mgr.Logout(); err != nil {
		fmt.Fprintf(a.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintln(a.out, "Logged out.")
}

func (a *app) handleCampus(ctx context.Context, p *prompter) {
	campus, ok := p.line(fmt.Sprintf("Campus (%s): ", strings.Join(library.Campuses, "/")))
	if !ok {
		return
	}
	if err := a.mgr.SetCampus(ctx, campus); err != nil {
		fmt.Fprintf(a.out, "Error setting campus: %v\n", err)
		return
	}
	fmt.Fprintf(a.out, "Campus set to %s.\n", campus)
}

func (a *app) handleSearch(ctx context.Context, p *prompter) {
	query, ok := p.line("Query: ")
	if !ok {
		return
	}
	a.search.Text = query
	err := a.search.Submit(ctx)
	if errors.Is(err, library.ErrNotLoggedIn) {
		fmt.Fprintln(a.out, "Error: please log in first.")
		a.handleAuth(ctx, p)
		return
	}
	ui.RenderResults(a.out, a.mgr.Snapshot())
}

func (a *app) handleLocation(p *prompter) {
	loc, ok := p.line(fmt.Sprintf("Location (%s): ", strings.Join(ui.LocationOptions(), "/")))
	if !ok {
		return
	}
	if err := a.search.SetLocation(loc); err != nil {
		fmt.Fprintf(a.out, "Error: %v\n", err)
		return
	}
	a.search.Render(a.out, a.mgr.Snapshot().History)
}

func (a *app) handleHistory() {
	s := a.mgr.Snapshot()
	if s.Token == "" {
		fmt.Fprintln(a.out, "Error: please log in first.")
		return
	}
	a.mgr.SetHistoryVisible(true)
	ui.RenderHistory(a.out, s.History)
}

func (a *app) handleRerun(ctx context.Context, p *prompter) {
	entries := a.mgr.Snapshot().History
	ui.RenderHistory(a.out, entries)
	if len(entries) == 0 {
		return
	}
	answer, ok := p.line("Entry number: ")
	if !ok {
		return
	}
	n, err := strconv.Atoi(answer)
	if err != nil {
		fmt.Fprintf(a.out, "Invalid entry number: %s\n", answer)
		return
	}
	if n < 1 || n > len(entries) {
		fmt.Fprintf(a.out, "No history entry %d.\n", n)
		return
	}
	// Search failures land in the controller state and show with the results.
	_ = ui.Rerun(ctx, a.mgr, entries, n)
	ui.RenderResults(a.out, a.mgr.Snapshot())
}

func (a *app) handlePick(ctx context.Context) {
	entry, err := ui.PickHistory(a.mgr.Snapshot().History)
	if err != nil {
		fmt.Fprintf(a.out, "Error: %v\n", err)
		return
	}
	if entry == nil {
		return
	}
	_ = a.mgr.RerunHistory(ctx, *entry)
	ui.RenderResults(a.out, a.mgr.Snapshot())
}

func (a *app) handleDeleteHistory(ctx context.Context, p *prompter) {
	answer, ok := p.line("History entry ID: ")
	if !ok {
		return
	}
	id, err := strconv.ParseInt(answer, 10, 64)
	if err != nil {
		fmt.Fprintf(a.out, "Invalid entry ID: %s\n", answer)
		return
	}
	if err := a.search.DeleteEntry(ctx, id); err != nil {
		fmt.Fprintf(a.out, "Error deleting entry: %v\n", err)
		return
	}
	a.search.Render(a.out, a.mgr.Snapshot().History)
}

func (a *app) handleClearHistory(ctx context.Context, p *prompter) {
	answer, ok := p.line("Clear all search history? [y/N]: ")
	if !ok || !strings.EqualFold(answer, "y") {
		return
	}
	if err := a.search.ClearEntries(ctx); err != nil {
		fmt.Fprintf(a.out, "Error clearing history: %v\n", err)
		return
	}
	fmt.Fprintln(a.out, "Search history cleared.")
}

// handleAdmin loads the dashboard once, then flips between tabs locally
// until the user leaves.
func (a *app) handleAdmin(ctx context.Context, p *prompter) {
	panel := &ui.AdminPanel{Dashboard: a.mgr.OpenAdmin(ctx)}
	defer a.mgr.CloseAdmin()

	for {
		panel.Render(a.out)
		if !panel.Dashboard.Authorized() {
			return
		}
		answer, ok := p.line("[s]tatistics | [u]sers | [q]uit: ")
		if !ok {
			return
		}
		switch strings.ToLower(answer) {
		case "s", "statistics":
			panel.SetTab(ui.TabStatistics)
		case "u", "users":
			panel.SetTab(ui.TabUsers)
		case "q", "quit", "":
			return
		}
	}
}
