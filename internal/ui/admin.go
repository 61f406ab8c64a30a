package ui

import (
	"fmt"
	"io"
	"strings"

	"library-search/library"
)

// AdminTab selects the admin panel view. Switching tabs never fetches.
type AdminTab int

const (
	TabStatistics AdminTab = iota
	TabUsers
)

// AdminPanel displays a loaded dashboard.
type AdminPanel struct {
	Dashboard *library.AdminDashboard
	Tab       AdminTab
}

// SetTab switches the visible tab.
func (p *AdminPanel) SetTab(t AdminTab) { p.Tab = t }

// Render writes the dashboard, or its error state. A nil dashboard has not
// finished loading.
func (p *AdminPanel) Render(w io.Writer) {
	d := p.Dashboard
	switch {
	case d == nil:
		fmt.Fprintln(w, mutedStyle.Render("loading..."))
		return
	case d.Err != nil:
		fmt.Fprintln(w, errorStyle.Render("Error: "+d.Err.Error()))
		return
	}

	tabs := []string{"Statistics", "Users"}
	for i := range tabs {
		if AdminTab(i) == p.Tab {
			tabs[i] = activeTab.Render(tabs[i])
		} else {
			tabs[i] = inactiveTab.Render(tabs[i])
		}
	}

	var b strings.Builder
	b.WriteString(headingStyle.Render("Admin dashboard") + "\n")
	b.WriteString(strings.Join(tabs, " ") + "\n\n")

	switch p.Tab {
	case TabStatistics:
		if s := d.Statistics; s != nil {
			fmt.Fprintf(&b, "%-10s %d\n", "Accounts", s.UserCount)
			fmt.Fprintf(&b, "%-10s %d\n", "Accesses", s.AccessCount)
			fmt.Fprintf(&b, "%-10s %d\n", "Searches", s.SearchCount)
		}
	case TabUsers:
		fmt.Fprintf(&b, "%-5s %-20s %-8s %s\n", "ID", "Username", "Campus", "Created")
		b.WriteString(strings.Repeat("-", 55) + "\n")
		for _, u := range d.Users {
			campus := u.Campus
			if campus == "" {
				campus = "-"
			}
			fmt.Fprintf(&b, "%-5d %-20s %-8s %s\n", u.ID, truncateString(u.Username, 20), campus, FormatTime(u.CreatedAt))
		}
	}
	fmt.Fprintln(w, panelStyle.Render(strings.TrimRight(b.String(), "\n")))
}

func truncateString(s string, maxLength int) string {
	r := []rune(s)
	if len(r) <= maxLength {
		return s
	}
	return string(r[:maxLength-3]) + "..."
}
