package ui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"library-search/library"
)

// HistoryRunner re-runs a past search.
type HistoryRunner interface {
	RerunHistory(ctx context.Context, entry library.HistoryEntry) error
}

// RenderHistory writes the history panel, numbering entries from 1 in the
// order the server returned them.
func RenderHistory(w io.Writer, entries []library.HistoryEntry) {
	var b strings.Builder
	b.WriteString(headingStyle.Render("Search history") + "\n")
	if len(entries) == 0 {
		b.WriteString(mutedStyle.Render("no search history yet"))
		fmt.Fprintln(w, panelStyle.Render(b.String()))
		return
	}
	for i, e := range entries {
		fmt.Fprintf(&b, "%3d. %-30s %-6s %s\n",
			i+1,
			e.Query,
			locationLabel(e.Location),
			mutedStyle.Render(FormatTime(e.SearchTime)))
	}
	fmt.Fprintln(w, panelStyle.Render(strings.TrimRight(b.String(), "\n")))
}

// Rerun re-runs the n-th (1-based) entry through r.
func Rerun(ctx context.Context, r HistoryRunner, entries []library.HistoryEntry, n int) error {
	if n < 1 || n > len(entries) {
		return fmt.Errorf("no history entry %d (have %d)", n, len(entries))
	}
	return r.RerunHistory(ctx, entries[n-1])
}

// FormatTime renders a backend timestamp in local time, or "-" when absent.
func FormatTime(ts library.Timestamp) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.In(time.Local).Format("2006-01-02 15:04:05")
}
